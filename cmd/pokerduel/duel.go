package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/luca-patrignani/headsup-poker/channel"
	"github.com/luca-patrignani/headsup-poker/config"
	"github.com/luca-patrignani/headsup-poker/domain/poker"
	"github.com/luca-patrignani/headsup-poker/game"
	"github.com/luca-patrignani/headsup-poker/ledger"
	"github.com/luca-patrignani/headsup-poker/network"
)

const peerTimeout = 30 * time.Second

type duelOptions struct {
	http  bool
	auto  bool
	cheat string
}

func newDuelCmd(v *viper.Viper) *cobra.Command {
	var opts duelOptions
	cmd := &cobra.Command{
		Use:   "duel",
		Short: "Play against a bot in this process",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validCheat(opts.cheat); err != nil {
				return err
			}
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			if !opts.auto {
				banner()
			}
			results, err := runDuel(ctx, cfg, opts, newLogger())
			if err != nil {
				return err
			}
			if opts.auto {
				pterm.DefaultPanel.WithPanels([][]pterm.Panel{{resultPanel(results[0], 0, cfg.Funds)}}).Render()
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.http, "http", false, "route the messages through HTTP on localhost")
	cmd.Flags().BoolVar(&opts.auto, "auto", false, "let a bot play your seat too")
	cmd.Flags().StringVar(&opts.cheat, "cheat", cheatNone, "cheat of the opponent bot: none, uncooperative, switch or stack")
	return cmd
}

// runDuel plays one hand between seat 0, the terminal user unless auto is
// set, and a bot on seat 1. It returns the result seen by each seat.
func runDuel(ctx context.Context, cfg game.Config, opts duelOptions, log *slog.Logger) ([2]poker.Result, error) {
	var results [2]poker.Result
	id := uuid.New()
	channels, closeChannels, err := duelChannels(id, opts.http, log)
	if err != nil {
		return results, err
	}
	defer closeChannels()

	var h *human
	var bots [2]*bot
	var engines [2]*game.Engine
	for seat := range engines {
		gc := game.GameContext{Seat: seat, GameID: id, Config: cfg, Channel: channels[seat], Logger: log}
		if seat == 0 && !opts.auto {
			h = newHuman(cfg.Funds)
			gc.Handlers = h.handlers()
		} else {
			cheat := cheatNone
			if seat == 1 {
				cheat = opts.cheat
			}
			bots[seat] = &bot{cheat: cheat, log: log.With("bot", seat)}
			gc.Handlers = bots[seat].handlers()
		}
		e, err := game.NewEngine(gc)
		if err != nil {
			return results, err
		}
		defer e.Close()
		engines[seat] = e
		if bots[seat] != nil {
			bots[seat].engine = e
			bots[seat].prepare()
		} else {
			h.engine = e
		}
	}
	for _, e := range engines {
		if err := e.Start(ctx); err != nil {
			return results, err
		}
	}
	if h != nil {
		if _, err := h.play(ctx); err != nil {
			return results, err
		}
	}
	for seat, e := range engines {
		select {
		case <-e.Done():
		case <-ctx.Done():
			return results, ctx.Err()
		}
		results[seat], _ = e.Result()
	}
	return results, nil
}

func duelChannels(id uuid.UUID, overHTTP bool, log *slog.Logger) ([2]channel.TurnChannel, func(), error) {
	if !overHTTP {
		pair := channel.NewPair(id.String(), 0)
		return [2]channel.TurnChannel{pair.Endpoint(0), pair.Endpoint(1)}, func() {}, nil
	}
	listeners, addresses, err := network.CreateListeners(2)
	if err != nil {
		return [2]channel.TurnChannel{}, nil, err
	}
	var peers [2]*network.Peer
	for seat := range peers {
		peers[seat] = network.NewPeer(seat, listeners[seat], addresses[1-seat],
			network.WithLogger(log.With("seat", seat)),
			network.WithTimeout(peerTimeout),
			network.WithTranscript(ledger.NewTranscript(id.String())),
		)
	}
	closePeers := func() {
		for _, p := range peers {
			if err := p.Close(); err != nil {
				log.Error("cannot close peer", "error", err)
			}
		}
	}
	return [2]channel.TurnChannel{peers[0], peers[1]}, closePeers, nil
}
