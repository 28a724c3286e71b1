package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/galeractl/cmd/galeractl/handlers"
)

// Keygen returns the command that creates an SSH key pair for member hosts.
//
// Flags:
//
//	--output, -o: Private key path; the public key gets a .pub suffix
//	--type: ed25519 or rsa
func Keygen() *cobra.Command {
	var (
		outputPath string
		keyType    string
	)

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate an SSH key pair for member hosts",
		Long: `Generate an SSH key pair for galeractl to use.

Install the public key in the authorized_keys of ssh.user on every member
host and point ssh.private_key_path at the private key.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return handlers.Keygen(outputPath, keyType)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "galeractl_ed25519", "Private key output path")
	cmd.Flags().StringVar(&keyType, "type", "ed25519", "Key type: ed25519 or rsa")

	return cmd
}
