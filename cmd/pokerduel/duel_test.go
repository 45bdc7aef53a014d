package main

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luca-patrignani/headsup-poker/game"
)

func quickConfig() game.Config {
	c := game.DefaultConfig()
	c.TurnTimeout = 5 * time.Second
	c.VerificationDelay = 5 * time.Millisecond
	c.VerificationStep = 5 * time.Millisecond
	return c
}

func TestBotsDuel(t *testing.T) {
	for _, overHTTP := range []bool{false, true} {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		results, err := runDuel(ctx, quickConfig(), duelOptions{auto: true, http: overHTTP, cheat: cheatNone}, slog.New(slog.NewTextHandler(io.Discard, nil)))
		cancel()
		require.NoError(t, err)
		// nothing is staked, so the hand decides the winner but moves no funds
		require.Equal(t, results[0].IsWinner, results[1].IsWinner)
		require.Equal(t, [2]uint{1000, 1000}, results[0].FundsShare)
		require.Equal(t, [2]uint{1000, 1000}, results[1].FundsShare)
	}
}

func TestBotCaughtForwardingEncryptedCards(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	results, err := runDuel(ctx, quickConfig(), duelOptions{auto: true, cheat: cheatUncooperative}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	for _, res := range results {
		require.Equal(t, [2]bool{true, false}, res.IsWinner)
		require.Equal(t, [2]uint{2000, 0}, res.FundsShare)
	}
}

func TestBotCaughtStackingTheDeck(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	results, err := runDuel(ctx, quickConfig(), duelOptions{auto: true, cheat: cheatStack}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	require.True(t, results[0].Equal(results[1]))
	require.Equal(t, [2]uint{2000, 0}, results[0].FundsShare)
}

func TestValidCheat(t *testing.T) {
	require.NoError(t, validCheat(cheatSwitch))
	require.NoError(t, validCheat(cheatStack))
	require.Error(t, validCheat("marked cards"))
}
