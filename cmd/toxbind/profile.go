package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opd-ai/toxbind"
)

func newIDCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "id",
		Short: "Print the Tox address of the profile, creating it if needed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			tox, err := openTox(cfg)
			if err != nil {
				return err
			}
			defer tox.Kill()

			addr, err := tox.SelfGetAddress()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), addr.String())
			return nil
		},
	}
}

func newEncryptCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "encrypt",
		Short: "Encrypt the profile with the configured passphrase",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			passphrase := cfg.Profile.Passphrase()
			if passphrase == "" {
				return errors.New("no passphrase: set Profile.PassphraseEnv and the variable it names")
			}
			data, err := os.ReadFile(cfg.Profile.File)
			if err != nil {
				return err
			}
			if toxbind.IsDataEncrypted(data) {
				return fmt.Errorf("profile %s is already encrypted", cfg.Profile.File)
			}
			return writeProfile(cfg.Profile.File, data, passphrase)
		},
	}
}

func newDecryptCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "decrypt",
		Short: "Decrypt the profile in place",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(cfg.Profile.File)
			if err != nil {
				return err
			}
			if !toxbind.IsDataEncrypted(data) {
				return fmt.Errorf("profile %s is not encrypted", cfg.Profile.File)
			}
			plain, err := toxbind.DecryptSavedata(data, cfg.Profile.Passphrase())
			if err != nil {
				return err
			}
			return writeProfile(cfg.Profile.File, plain, "")
		},
	}
}
