package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/toxbind"
	"github.com/opd-ai/toxbind/config"
)

func loadConfig(flags *rootFlags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if flags.ConfigFile == "" {
		cfg, err = config.Load(nil)
	} else {
		cfg, err = config.LoadFile(flags.ConfigFile)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	configureLogging(cfg.Logging)
	return cfg, nil
}

func configureLogging(l *config.Logging) {
	if l.Disable {
		logrus.SetOutput(io.Discard)
		return
	}
	if lvl, err := logrus.ParseLevel(l.Level); err == nil {
		logrus.SetLevel(lvl)
	}
}

// readProfile returns the saved engine state, decrypted, or nil when the
// file does not exist yet.
func readProfile(path, passphrase string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !toxbind.IsDataEncrypted(data) {
		return data, nil
	}
	if passphrase == "" {
		return nil, fmt.Errorf("profile %s is encrypted and no passphrase is set", path)
	}
	return toxbind.DecryptSavedata(data, passphrase)
}

// writeProfile stores data at path, encrypted when passphrase is set. The
// file is replaced atomically.
func writeProfile(path string, data []byte, passphrase string) error {
	if passphrase != "" {
		sealed, err := toxbind.EncryptSavedata(data, passphrase)
		if err != nil {
			return err
		}
		data = sealed
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".profile-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// openTox creates the engine from the configured profile. The profile is
// written back once so a new identity survives a crash.
func openTox(cfg *config.Config) (*toxbind.Tox, error) {
	passphrase := cfg.Profile.Passphrase()
	saved, err := readProfile(cfg.Profile.File, passphrase)
	if err != nil {
		return nil, err
	}

	opts := cfg.Options()
	opts.Savedata = saved
	tox, err := toxbind.New(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create tox: %w", err)
	}
	if err := saveTox(tox, cfg); err != nil {
		tox.Kill()
		return nil, err
	}
	return tox, nil
}

func saveTox(tox *toxbind.Tox, cfg *config.Config) error {
	data, err := tox.Savedata()
	if err != nil {
		return err
	}
	if err := writeProfile(cfg.Profile.File, data, cfg.Profile.Passphrase()); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}
