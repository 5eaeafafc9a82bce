package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/opd-ai/toxbind"
	"github.com/opd-ai/toxbind/config"
	"github.com/opd-ai/toxbind/internal/instrument"
)

func newRunCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Connect to the network and echo incoming messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runBot(ctx, cfg)
		},
	}
}

func runBot(ctx context.Context, cfg *config.Config) error {
	tox, err := openTox(cfg)
	if err != nil {
		return err
	}
	defer tox.Kill()

	if err := applyProfile(tox, cfg.Profile); err != nil {
		return err
	}
	connect(tox, cfg)
	if err := installHandlers(tox, cfg.Profile); err != nil {
		return err
	}

	if cfg.Metrics.Address != "" {
		srv := instrument.StartPrometheusListener(cfg.Metrics.Address)
		defer srv.Close()
	}

	addr, _ := tox.SelfGetAddress()
	fmt.Println(addr.String())

	err = tox.Run(ctx)
	if saveErr := saveTox(tox, cfg); saveErr != nil {
		return saveErr
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func applyProfile(tox *toxbind.Tox, p *config.Profile) error {
	if p.Name != "" {
		if err := tox.SelfSetName(p.Name); err != nil {
			return fmt.Errorf("name: %w", err)
		}
	}
	if p.StatusMessage != "" {
		if err := tox.SelfSetStatusMessage(p.StatusMessage); err != nil {
			return fmt.Errorf("status message: %w", err)
		}
	}
	return nil
}

// connect registers the configured nodes. A node that cannot be resolved
// is skipped.
func connect(tox *toxbind.Tox, cfg *config.Config) {
	for _, n := range cfg.Bootstrap {
		if err := tox.Bootstrap(n.Address, uint16(n.Port), n.Key()); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "connect",
				"address":  n.Address,
				"error":    err.Error(),
			}).Warn("Bootstrap node skipped")
		}
	}
	for _, n := range cfg.Relay {
		if err := tox.AddTCPRelay(n.Address, uint16(n.Port), n.Key()); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "connect",
				"address":  n.Address,
				"error":    err.Error(),
			}).Warn("TCP relay skipped")
		}
	}
}

func installHandlers(tox *toxbind.Tox, p *config.Profile) error {
	if err := tox.OnSelfConnectionStatus(func(_ *toxbind.Tox, c toxbind.Connection, _ interface{}) {
		logrus.WithFields(logrus.Fields{
			"function":   "OnSelfConnectionStatus",
			"connection": c.String(),
		}).Info("Connection changed")
	}, nil); err != nil {
		return err
	}

	if err := tox.OnFriendRequest(func(t *toxbind.Tox, pk toxbind.PublicKey, msg string, _ interface{}) {
		fields := logrus.Fields{
			"function":   "OnFriendRequest",
			"public_key": pk.String()[:16],
		}
		if !p.AutoAccept {
			logrus.WithFields(fields).Info("Friend request ignored")
			return
		}
		if _, err := t.FriendAddNoRequest(pk); err != nil {
			fields["error"] = err.Error()
			logrus.WithFields(fields).Warn("Friend request not accepted")
			return
		}
		logrus.WithFields(fields).Info("Friend request accepted")
	}, nil); err != nil {
		return err
	}

	return tox.OnFriendMessage(func(t *toxbind.Tox, fn uint32, kind toxbind.MessageType, msg string, _ interface{}) {
		if _, err := t.FriendSendMessage(fn, kind, msg); err != nil {
			logrus.WithFields(logrus.Fields{
				"function":      "OnFriendMessage",
				"friend_number": fn,
				"error":         err.Error(),
			}).Warn("Echo failed")
		}
	}, nil)
}
