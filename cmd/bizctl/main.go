// cmd/bizctl/main.go
package main

import (
	"context"
	"fmt"
	"os"

	"biashara-bot/internal/assistant/dispatcher"
	"biashara-bot/internal/bootstrap"
	"biashara-bot/internal/common/config"
	"biashara-bot/internal/common/logger"
	"biashara-bot/internal/ledger"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	memory     bool
}

// session is everything a subcommand needs, built once per invocation.
type session struct {
	cfg        *config.Config
	log        logger.Logger
	ledger     ledger.Ledger
	dispatcher *dispatcher.Dispatcher
	notifiers  *bootstrap.Notifiers
	close      func()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "bizctl",
		Short:         "Talk to the shop assistant and manage its ledger",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default: configs/config.yaml)")
	root.PersistentFlags().BoolVar(&opts.memory, "memory", false, "use an in-memory ledger instead of the configured database")

	root.AddCommand(
		newSayCmd(opts),
		newChatCmd(opts),
		newRestockCmd(opts),
		newDashboardCmd(opts),
		newReportCmd(opts),
		newCatalogCmd(),
	)
	return root
}

func loadConfig(opts *rootOptions) (*config.Config, error) {
	if opts.configPath != "" {
		return config.LoadFromFile(opts.configPath)
	}
	return config.Load()
}

func openSession(ctx context.Context, opts *rootOptions) (*session, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	zapLog := logger.NewWithOutput(cfg.Logging.Level, "console", "stderr")
	log := logger.NewZapAdapter(zapLog)
	s := &session{cfg: cfg, log: log, close: func() { _ = zapLog.Sync() }}

	if opts.memory {
		s.ledger = ledger.NewMemoryLedger()
	} else {
		l, client, err := bootstrap.OpenLedger(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("open ledger: %w", err)
		}
		s.ledger = l
		s.close = func() {
			client.Close()
			_ = zapLog.Sync()
		}
	}

	s.notifiers, err = bootstrap.NewNotifiers(ctx, cfg, log)
	if err != nil {
		s.close()
		return nil, err
	}
	s.dispatcher, err = bootstrap.NewDispatcher(cfg, s.ledger, s.notifiers, log)
	if err != nil {
		s.close()
		return nil, err
	}
	return s, nil
}
