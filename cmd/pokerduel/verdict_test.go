package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/luca-patrignani/headsup-poker/domain/poker"
	"github.com/luca-patrignani/headsup-poker/game"
	"github.com/luca-patrignani/headsup-poker/network"
	"github.com/luca-patrignani/headsup-poker/protocol"
	"github.com/luca-patrignani/headsup-poker/verification"
)

func TestExternalVerdictSettlesTheGame(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	listeners, addresses, err := network.CreateListeners(2)
	require.NoError(t, err)

	id := uuid.New()
	var engines [2]*game.Engine
	for seat := range engines {
		p := network.NewPeer(seat, listeners[seat], addresses[1-seat], network.WithTimeout(5*time.Second), network.WithLogger(log))
		defer p.Close()
		b := &bot{cheat: cheatNone, log: log}
		if seat == 1 {
			b.cheat = cheatUncooperative
		}
		e, err := game.NewEngine(game.GameContext{
			Seat:     seat,
			GameID:   id,
			Config:   quickConfig(),
			Channel:  p,
			Logger:   log,
			Handlers: b.handlers(),
			Driver:   verification.ChannelDriver{Source: p},
		})
		require.NoError(t, err)
		defer e.Close()
		b.engine = e
		b.prepare()
		engines[seat] = e
	}
	for _, e := range engines {
		require.NoError(t, e.Start(ctx))
	}
	for _, e := range engines {
		require.Eventually(t, func() bool { return e.State() == poker.Verification }, 5*time.Second, 5*time.Millisecond)
	}

	v := network.NewVerifier([2]string{addresses[0], addresses[1]})
	require.NoError(t, publishVerdict(ctx, v, protocol.Verdict{Cheater: 1, Cause: protocol.CauseCaughtLie, Reason: "forwarded encrypted cards"}))
	for _, e := range engines {
		select {
		case <-e.Done():
		case <-ctx.Done():
			t.Fatal("verdict not applied")
		}
		res, ok := e.Result()
		require.True(t, ok)
		require.Equal(t, [2]uint{2000, 0}, res.FundsShare)
		require.Equal(t, protocol.VerificationEnded, e.VerificationState())
	}
}

func TestPublishVerdictRejectsBadVerdicts(t *testing.T) {
	v := network.NewVerifier([2]string{"localhost:1", "localhost:2"})
	require.Error(t, publishVerdict(context.Background(), v, protocol.Verdict{Cheater: 2, Cause: protocol.CauseTimeout}))
	require.Error(t, publishVerdict(context.Background(), v, protocol.Verdict{Cheater: 0, Cause: "BRIBE"}))
}

func TestCertFilesEnableTLS(t *testing.T) {
	dir := t.TempDir()
	var certs, keys [2]string
	for seat, address := range []string{"127.0.0.1:7000", "127.0.0.1:7001"} {
		var err error
		certs[seat], keys[seat], err = writeCert(address, filepath.Join(dir, fmt.Sprintf("seat%d", seat)))
		require.NoError(t, err)
	}
	opts, err := tlsOptions(certs[0], keys[0], certs[1])
	require.NoError(t, err)
	require.Len(t, opts, 1)

	opts, err = tlsOptions("", "", "")
	require.NoError(t, err)
	require.Empty(t, opts)

	_, err = tlsOptions(certs[0], keys[1], certs[1])
	require.Error(t, err)
}
