// Command toxbind is a headless Tox client: an echo bot, plus tools to
// print the profile address and to encrypt or decrypt the profile.
package main

import (
	"context"
	"os"

	"github.com/carlmjohnson/versioninfo"
	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

// rootFlags holds the flags shared by every subcommand.
type rootFlags struct {
	ConfigFile string
}

func newRootCommand() *cobra.Command {
	var flags rootFlags

	cmd := &cobra.Command{
		Use:   "toxbind",
		Short: "Headless Tox client",
		Long: `toxbind runs a Tox identity without a user interface. The run command
connects to the network and echoes every message it receives; the other
commands manage the saved profile.`,
		Example: `
  # Print the address others use to add this profile
  toxbind id -c client.toml

  # Run the echo bot until interrupted
  toxbind run -c client.toml

  # Encrypt the profile with the passphrase from the configured variable
  TOXBIND_PASSPHRASE=secret toxbind encrypt -c client.toml`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&flags.ConfigFile, "config", "c", "",
		"path to the client configuration file (TOML format)")

	cmd.AddCommand(
		newRunCommand(&flags),
		newIDCommand(&flags),
		newEncryptCommand(&flags),
		newDecryptCommand(&flags),
	)
	return cmd
}

func main() {
	if err := fang.Execute(
		context.Background(),
		newRootCommand(),
		fang.WithVersion(versioninfo.Short()),
	); err != nil {
		os.Exit(1)
	}
}
