// Package httpapi serves the chat webhook, the shop owner's web forms and the
// operational endpoints.
package httpapi

import (
	"context"
	"time"

	"biashara-bot/internal/assistant/dispatcher"
	"biashara-bot/internal/common/logger"
	"biashara-bot/internal/ledger"
	"biashara-bot/internal/models"
)

// ReplyCache remembers webhook replies by provider message id so a
// re-delivered message is answered without running it again.
type ReplyCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

// Pinger is a dependency checked by /ready.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	LowStockThreshold int
	RecentSalesLimit  int
	DedupeTTL         time.Duration
}

type App struct {
	dispatcher *dispatcher.Dispatcher
	ledger     ledger.Ledger
	cache      ReplyCache
	checks     map[string]Pinger
	logger     logger.Logger
	opts       Options
	now        func() time.Time
}

// NewApp wires the handlers. cache may be nil to disable dedupe.
func NewApp(d *dispatcher.Dispatcher, cache ReplyCache, checks map[string]Pinger, opts Options, log logger.Logger) *App {
	if opts.DedupeTTL <= 0 {
		opts.DedupeTTL = 24 * time.Hour
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &App{
		dispatcher: d,
		ledger:     d.Ledger(),
		cache:      cache,
		checks:     checks,
		logger:     log.WithFields(map[string]interface{}{"component": "httpapi"}),
		opts:       opts,
		now:        time.Now,
	}
}

func (a *App) today() string {
	return a.now().Format(models.DateLayout)
}
