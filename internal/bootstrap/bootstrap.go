// Package bootstrap builds the assistant from configuration. Both the server
// and the CLI start from here.
package bootstrap

import (
	"context"
	"errors"

	"biashara-bot/internal/assistant/catalog"
	"biashara-bot/internal/assistant/dispatcher"
	"biashara-bot/internal/common/aws"
	"biashara-bot/internal/common/config"
	apperrors "biashara-bot/internal/common/errors"
	"biashara-bot/internal/common/database"
	"biashara-bot/internal/common/logger"
	"biashara-bot/internal/ledger"
	"biashara-bot/internal/notify"
)

// OpenLedger connects to the configured database and applies the schema.
// The caller closes the returned client.
func OpenLedger(ctx context.Context, cfg config.DatabaseConfig) (*ledger.SQLLedger, *database.SQLClient, error) {
	client, err := database.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, nil, apperrors.NewDatabaseConnectionFailedError(err)
	}

	l := ledger.NewSQLLedger(client.DB, client.Driver)
	if err := l.Migrate(ctx); err != nil {
		client.Close()
		return nil, nil, err
	}
	return l, client, nil
}

// NewMatcher loads the intent catalog, falling back to the built-in one when
// no path is configured.
func NewMatcher(cfg config.AssistantConfig) (*catalog.Matcher, error) {
	c, err := catalog.Load(cfg.CatalogPath)
	if errors.Is(err, catalog.ErrCatalogInvalid) {
		return nil, apperrors.NewCatalogInvalidError(err.Error())
	}
	if err != nil {
		return nil, err
	}
	return catalog.NewMatcher(c, cfg.FuzzyCutoff)
}

// Notifiers holds the optional owner notification channels. Either field
// may be nil.
type Notifiers struct {
	LowStock *notify.LowStockSMS
	Reports  *notify.ReportMailer
}

func NewNotifiers(ctx context.Context, cfg *config.Config, log logger.Logger) (*Notifiers, error) {
	n := &Notifiers{}
	sms := cfg.Notifications.LowStockSMS
	email := cfg.Notifications.ReportEmail
	if !sms.Enabled && !email.Enabled {
		return n, nil
	}

	awsCfg, err := aws.LoadConfig(ctx, cfg.Notifications.AWS.Region)
	if err != nil {
		return nil, err
	}
	if sms.Enabled {
		n.LowStock = notify.NewLowStockSMS(aws.NewSNSClient(awsCfg), sms.PhoneNumber, sms.TopicARN, cfg.Assistant.BotName, log)
	}
	if email.Enabled {
		n.Reports = notify.NewReportMailer(aws.NewSESClient(awsCfg), email.FromEmail, email.To,
			cfg.Assistant.BotName, cfg.Assistant.Currency, log)
	}
	return n, nil
}

// NewDispatcher assembles the dispatcher over l. A non-nil low-stock
// notifier in n is attached.
func NewDispatcher(cfg *config.Config, l ledger.Ledger, n *Notifiers, log logger.Logger, opts ...dispatcher.Option) (*dispatcher.Dispatcher, error) {
	matcher, err := NewMatcher(cfg.Assistant)
	if err != nil {
		return nil, err
	}
	if n != nil && n.LowStock != nil {
		opts = append(opts, dispatcher.WithNotifier(n.LowStock))
	}

	return dispatcher.New(dispatcher.Config{
		BotName:           cfg.Assistant.BotName,
		Currency:          cfg.Assistant.Currency,
		LowStockThreshold: cfg.Assistant.LowStockThreshold,
	}, matcher, l, log, opts...), nil
}
