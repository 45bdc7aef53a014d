package main

import (
	"log/slog"
	"os"

	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"
	"github.com/spf13/cobra"

	"github.com/luca-patrignani/headsup-poker/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := config.New()
	var debug bool
	root := &cobra.Command{
		Use:           "pokerduel",
		Short:         "Heads-up mental poker",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if debug {
				pterm.DefaultLogger.Level = pterm.LogLevelDebug
			}
		},
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "log the messages of the protocol")
	if err := config.AddFlags(v, root.PersistentFlags()); err != nil {
		panic(err)
	}
	root.AddCommand(newDuelCmd(v), newSeatCmd(v), newCertCmd(), newVerdictCmd())
	return root
}

func newLogger() *slog.Logger {
	return slog.New(pterm.NewSlogHandler(&pterm.DefaultLogger))
}

func banner() {
	pterm.DefaultBigText.WithLetters(
		putils.LettersFromStringWithStyle("H", pterm.FgRed.ToStyle()),
		putils.LettersFromStringWithStyle("eadsup ", pterm.FgDarkGray.ToStyle()),
		putils.LettersFromStringWithStyle("P", pterm.FgRed.ToStyle()),
		putils.LettersFromStringWithStyle("oker", pterm.FgDarkGray.ToStyle()),
	).Render()
}
