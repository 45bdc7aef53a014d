package main

import (
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/luca-patrignani/headsup-poker/network"
)

func newCertCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "cert <ip:port>",
		Short: "Create the self-signed certificate of a seat listening on <ip:port>",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			certFile, keyFile, err := writeCert(args[0], out)
			if err != nil {
				return err
			}
			pterm.Success.Printfln("Certificate written to %s and key to %s. Give %s to the opponent.", certFile, keyFile, certFile)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "seat", "path of the files, without extension")
	return cmd
}

// writeCert stores a new certificate in out.pem and its key in out.key.
func writeCert(address, out string) (string, string, error) {
	cert, pem, err := network.GenerateSelfSignedCert(address)
	if err != nil {
		return "", "", err
	}
	key, err := network.EncodeKey(cert)
	if err != nil {
		return "", "", err
	}
	certFile, keyFile := out+".pem", out+".key"
	if err := os.WriteFile(certFile, pem, 0o644); err != nil {
		return "", "", err
	}
	if err := os.WriteFile(keyFile, key, 0o600); err != nil {
		return "", "", err
	}
	return certFile, keyFile, nil
}
