package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/luca-patrignani/headsup-poker/config"
	"github.com/luca-patrignani/headsup-poker/discovery"
	"github.com/luca-patrignani/headsup-poker/domain/poker"
	"github.com/luca-patrignani/headsup-poker/game"
	"github.com/luca-patrignani/headsup-poker/ledger"
	"github.com/luca-patrignani/headsup-poker/network"
	"github.com/luca-patrignani/headsup-poker/verification"
)

const discoveryPort = 53552

func newSeatCmd(v *viper.Viper) *cobra.Command {
	var (
		seat     int
		port     int
		peer     string
		gameID   string
		auto     bool
		discover bool
		external bool
		certFile string
		keyFile  string
		peerCert string
	)
	cmd := &cobra.Command{
		Use:   "seat <ip>",
		Short: "Play one seat against an opponent on another machine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if seat != 0 && seat != 1 {
				return fmt.Errorf("invalid seat %d", seat)
			}
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			opts, err := tlsOptions(certFile, keyFile, peerCert)
			if err != nil {
				return err
			}
			log := newLogger()
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			if !auto {
				banner()
			}
			ip := net.ParseIP(args[0])
			if ip == nil {
				return fmt.Errorf("invalid ip %s", args[0])
			}
			l, err := net.ListenTCP("tcp", &net.TCPAddr{IP: ip, Port: port})
			if err != nil {
				return fmt.Errorf("failed to listen on %s: %w", args[0], err)
			}
			defer l.Close()
			pterm.Info.Println("Listening on " + l.Addr().String())
			var address string
			switch {
			case peer == "" && discover:
				spinner, _ := pterm.DefaultSpinner.Start("Looking for an opponent on the local network...")
				own := discovery.Offer{Game: gameID, Seat: seat, Address: l.Addr().String()}
				opponent, err := discovery.FindOpponent(ctx, own, discoveryPort, time.Second)
				if err != nil {
					spinner.Fail()
					return err
				}
				spinner.Success()
				address = opponent.Address
				if gameID == "" {
					gameID = opponent.Game
				}
			default:
				if peer == "" {
					peer, _ = pterm.DefaultInteractiveTextInput.WithDefaultText("Enter the address of the opponent in ipaddr:port format").Show()
					pterm.Println()
				}
				if address, err = resolvePeer(l, peer, log); err != nil {
					return err
				}
			}

			var id uuid.UUID
			if gameID != "" {
				if id, err = uuid.Parse(gameID); err != nil {
					return err
				}
			} else {
				var addresses [2]string
				addresses[seat], addresses[1-seat] = l.Addr().String(), address
				id = uuid.NewSHA1(uuid.NameSpaceURL, []byte(addresses[0]+"/"+addresses[1]))
			}
			opts = append(opts,
				network.WithLogger(log),
				network.WithTimeout(peerTimeout),
				network.WithTranscript(ledger.NewTranscript(id.String())),
			)
			p := network.NewPeer(seat, l, address, opts...)
			defer p.Close()

			gc := game.GameContext{Seat: seat, GameID: id, Config: cfg, Channel: p, Logger: log}
			if external {
				gc.Driver = verification.ChannelDriver{Source: p}
				pterm.Info.Println("Disputes wait for the verdict of the external verifier")
			}
			var h *human
			var b *bot
			if auto {
				b = &bot{cheat: cheatNone, log: log}
				gc.Handlers = b.handlers()
			} else {
				h = newHuman(cfg.Funds)
				gc.Handlers = h.handlers()
			}
			e, err := game.NewEngine(gc)
			if err != nil {
				return err
			}
			defer e.Close()
			if b != nil {
				b.engine = e
			} else {
				h.engine = e
			}
			pterm.Info.Printfln("Playing seat %d of game %s against %s", seat, id, address)
			if err := e.Start(ctx); err != nil {
				return err
			}

			var res poker.Result
			if h != nil {
				res, err = h.play(ctx)
				if err != nil {
					return err
				}
			} else {
				select {
				case <-e.Done():
				case <-ctx.Done():
					return ctx.Err()
				}
				res, _ = e.Result()
				pterm.DefaultPanel.WithPanels([][]pterm.Panel{{resultPanel(res, seat, cfg.Funds)}}).Render()
			}
			log.Info("game over", "winners", res.IsWinner, "funds", res.FundsShare, "blocks", p.Transcript().Len())
			return nil
		},
	}
	cmd.Flags().IntVar(&seat, "seat", 0, "seat to play, 0 opens the game")
	cmd.Flags().IntVar(&port, "port", defaultPort, "port to listen on")
	cmd.Flags().StringVar(&peer, "peer", "", "address of the opponent, the missing octets are taken from <ip>")
	cmd.Flags().StringVar(&gameID, "game", "", "game ID agreed with the opponent")
	cmd.Flags().BoolVar(&auto, "auto", false, "let a bot play the seat")
	cmd.Flags().BoolVar(&discover, "discover", false, "find the opponent on the local network when --peer is not set")
	cmd.Flags().BoolVar(&external, "external-verifier", false, "settle disputes with the verdict command instead of the local referee")
	cmd.Flags().StringVar(&certFile, "cert", "", "certificate of the seat, enables HTTPS")
	cmd.Flags().StringVar(&keyFile, "key", "", "private key of --cert")
	cmd.Flags().StringVar(&peerCert, "peer-cert", "", "certificate of the opponent")
	cmd.MarkFlagsRequiredTogether("cert", "key", "peer-cert")
	return cmd
}

// tlsOptions returns the peer options for HTTPS, or none when no
// certificate is given.
func tlsOptions(certFile, keyFile, peerCert string) ([]network.Option, error) {
	if certFile == "" {
		return nil, nil
	}
	opt, err := network.LoadTLS(certFile, keyFile, peerCert)
	if err != nil {
		return nil, fmt.Errorf("cannot load the certificates: %w", err)
	}
	return []network.Option{opt}, nil
}
