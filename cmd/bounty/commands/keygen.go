package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cloudx-io/openbounty/seal"
)

func newKeygenCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate an ECDSA P-256 sealing key",
		Long: `Keygen writes a PKCS#8 private key to --out and its public key to
<out>.pub.pem. Pass the private key to "bounty run --key" so that several
runs are sealed by the same key.`,
		Example: `  bounty keygen --out seal.pem
  bounty run --key seal.pem --seal-out run.cose`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			km, err := seal.NewKeyManager()
			if err != nil {
				return err
			}
			priv, err := km.PrivateKeyPEM()
			if err != nil {
				return err
			}
			pub, err := km.PublicKeyPEM()
			if err != nil {
				return err
			}

			if err := os.WriteFile(out, []byte(priv), 0o600); err != nil {
				return fmt.Errorf("write private key: %w", err)
			}
			if err := os.WriteFile(out+".pub.pem", []byte(pub), 0o644); err != nil {
				return fmt.Errorf("write public key: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Private key (%s) written to %s\n", seal.KeyAlgorithm, out)
			fmt.Fprint(cmd.OutOrStdout(), pub)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Path for the private key PEM")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}
