package network

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/luca-patrignani/headsup-poker/game"
)

func TestDuelOverHttp(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	peers := newPeers(t, func(int, string) []Option {
		return []Option{WithTimeout(5 * time.Second)}
	})
	config := game.DefaultConfig()
	config.TurnTimeout = 5 * time.Second
	id := uuid.New()

	// seat 0 raises, seat 1 re-raises and seat 0 gives up
	var engines [2]*game.Engine
	var requests [2]int
	for seat := range engines {
		e, err := game.NewEngine(game.GameContext{
			Seat:    seat,
			GameID:  id,
			Config:  config,
			Channel: peers[seat],
			Handlers: game.Handlers{
				OnBetRequested: func() {
					requests[seat]++
					var err error
					if seat == 0 && requests[seat] > 1 {
						err = engines[seat].Fold()
					} else {
						err = engines[seat].Raise(50)
					}
					if err != nil {
						t.Error(err)
					}
				},
			},
		})
		if err != nil {
			t.Fatal(err)
		}
		engines[seat] = e
		defer e.Close()
	}
	for _, e := range engines {
		if err := e.Start(ctx); err != nil {
			t.Fatal(err)
		}
	}
	for seat, e := range engines {
		select {
		case <-e.Done():
		case <-ctx.Done():
			t.Fatalf("seat %d did not finish", seat)
		}
		res, ok := e.Result()
		if !ok {
			t.Fatalf("seat %d has no result", seat)
		}
		if res.IsWinner != [2]bool{false, true} || res.FundsShare != [2]uint{950, 1050} {
			t.Fatalf("seat %d: unexpected result %+v", seat, res)
		}
	}
}
