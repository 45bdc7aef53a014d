package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/luca-patrignani/headsup-poker/network"
	"github.com/luca-patrignani/headsup-poker/protocol"
)

func newVerdictCmd() *cobra.Command {
	var (
		cheater int
		cause   string
		reason  string
	)
	cmd := &cobra.Command{
		Use:   "verdict <seat 0 address> <seat 1 address>",
		Short: "Settle a dispute as the external verifier of two seats started with --external-verifier",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			v := network.NewVerifier([2]string{args[0], args[1]})
			v.Timeout = peerTimeout
			return publishVerdict(ctx, v, protocol.Verdict{Cheater: cheater, Cause: protocol.Cause(cause), Reason: reason})
		},
	}
	cmd.Flags().IntVar(&cheater, "cheater", 0, "seat found cheating")
	cmd.Flags().StringVar(&cause, "cause", string(protocol.CauseCaughtLie), "CAUGHT_LIE or TIMEOUT")
	cmd.Flags().StringVar(&reason, "reason", "", "message shown to the players")
	return cmd
}

// publishVerdict walks both seats through the dispute up to verdict.
func publishVerdict(ctx context.Context, v *network.Verifier, verdict protocol.Verdict) error {
	if verdict.Cheater != 0 && verdict.Cheater != 1 {
		return fmt.Errorf("invalid cheater %d", verdict.Cheater)
	}
	switch verdict.Cause {
	case protocol.CauseCaughtLie, protocol.CauseTimeout:
	default:
		return fmt.Errorf("unknown cause %q", verdict.Cause)
	}
	for _, s := range protocol.VerificationStates[1:] {
		u := protocol.VerificationUpdate{State: s, Message: verdict.Reason}
		if s == protocol.VerificationEnded {
			u.Verdict = &verdict
		}
		if err := v.Publish(ctx, u); err != nil {
			return fmt.Errorf("cannot publish %s: %w", s, err)
		}
		pterm.Info.Printfln("Published %s", s)
	}
	return nil
}
