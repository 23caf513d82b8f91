// Package dispatcher is the single entry point the transports call: it
// parses a message, applies its bookkeeping effect and returns the reply.
package dispatcher

import (
	"context"
	"time"

	"biashara-bot/internal/assistant/catalog"
	"biashara-bot/internal/assistant/parser"
	apperrors "biashara-bot/internal/common/errors"
	"biashara-bot/internal/common/logger"
	"biashara-bot/internal/common/metrics"
	"biashara-bot/internal/ledger"
	"biashara-bot/internal/models"

	"github.com/google/uuid"
)

// LowStockNotifier is told about every sale that leaves an item at or below
// the threshold. Failures are logged and never change the reply.
type LowStockNotifier interface {
	NotifyLowStock(ctx context.Context, item string, quantity int) error
}

// Recorder receives one timing per dispatched message.
type Recorder interface {
	RecordDispatch(ctx context.Context, intent, code string, d time.Duration)
}

type Config struct {
	BotName           string
	Currency          string
	LowStockThreshold int
}

// Result is the reply together with how the message was classified. Err is
// set for every non-empty Code.
type Result struct {
	Reply  string                   `json:"reply"`
	Intent models.Intent            `json:"intent"`
	Code   apperrors.ErrorCode      `json:"code,omitempty"`
	Err    *apperrors.StandardError `json:"-"`
}

type Dispatcher struct {
	parser    *parser.Parser
	matcher   *catalog.Matcher
	ledger    ledger.Ledger
	notifier  LowStockNotifier
	recorder  Recorder
	logger    logger.Logger
	replies   Replies
	threshold int
	now       func() time.Time
	newID     func() string
}

type Option func(*Dispatcher)

// WithClock replaces time.Now for timestamps and "today".
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

func WithNotifier(n LowStockNotifier) Option {
	return func(d *Dispatcher) { d.notifier = n }
}

func WithRecorder(r Recorder) Option {
	return func(d *Dispatcher) { d.recorder = r }
}

func WithParser(p *parser.Parser) Option {
	return func(d *Dispatcher) { d.parser = p }
}

func WithIDGenerator(fn func() string) Option {
	return func(d *Dispatcher) { d.newID = fn }
}

func New(cfg Config, matcher *catalog.Matcher, l ledger.Ledger, log logger.Logger, opts ...Option) *Dispatcher {
	if cfg.BotName == "" {
		cfg.BotName = "BiasharaBot"
	}
	if cfg.Currency == "" {
		cfg.Currency = "KES"
	}
	if cfg.LowStockThreshold <= 0 {
		cfg.LowStockThreshold = ledger.DefaultLowStockThreshold
	}
	if matcher == nil {
		matcher = catalog.DefaultMatcher(catalog.Default())
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	d := &Dispatcher{
		parser:    parser.New(),
		matcher:   matcher,
		ledger:    l,
		logger:    log.WithFields(map[string]interface{}{"component": "dispatcher"}),
		replies:   Replies{BotName: cfg.BotName, Currency: cfg.Currency},
		threshold: cfg.LowStockThreshold,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Handle returns only the reply text.
func (d *Dispatcher) Handle(ctx context.Context, text string) string {
	return d.Dispatch(ctx, text).Reply
}

// Dispatch classifies text and applies its effect. It never fails: storage
// errors become a reply with Code LEDGER_FAILURE.
func (d *Dispatcher) Dispatch(ctx context.Context, text string) Result {
	start := time.Now()
	cmd := d.parser.Parse(text)
	res := d.execute(ctx, cmd)

	code := metrics.CodeLabel(string(res.Code))
	metrics.MessagesHandled.WithLabelValues(string(res.Intent), code).Inc()
	if d.recorder != nil {
		d.recorder.RecordDispatch(ctx, string(res.Intent), code, time.Since(start))
	}

	fields := map[string]interface{}{
		"intent": res.Intent,
		"code":   code,
	}
	if res.Code == apperrors.ErrCodeLedgerFailure {
		fields["details"] = res.Err.Details
		d.logger.Error("ledger operation failed", fields)
	} else {
		d.logger.Debug("message dispatched", fields)
	}
	return res
}

// Converse dispatches msg and appends it to the conversation log. A failed
// log write is reported but does not change the result.
func (d *Dispatcher) Converse(ctx context.Context, msg models.Message) Result {
	res := d.Dispatch(ctx, msg.Text)

	entry := models.Conversation{
		ID:      d.newID(),
		Channel: msg.Channel,
		Sender:  msg.Sender,
		Inbound: msg.Text,
		Reply:   res.Reply,
		Intent:  res.Intent,
		Code:    string(res.Code),
		Date:    d.timestamp(),
	}
	if err := d.ledger.InsertConversation(ctx, entry); err != nil {
		d.logger.Warn("conversation log write failed", map[string]interface{}{
			"channel": msg.Channel,
			"error":   err.Error(),
		})
	}
	return res
}

func (d *Dispatcher) execute(ctx context.Context, cmd models.Command) Result {
	switch c := cmd.(type) {
	case models.RecordSale:
		return d.recordSale(ctx, c)
	case models.CheckStock:
		return d.checkStock(ctx, c)
	case models.SetReminder:
		return d.setReminder(ctx, c)
	case models.RequestSummary:
		return d.summary(ctx)
	case models.SubmitFeedback:
		return d.feedback(ctx, c)
	case models.Greeting:
		return Result{Reply: d.replies.Greeting(), Intent: models.IntentGreeting}
	case models.InvalidArguments:
		return Result{
			Reply:  d.replies.Usage(c.Kind, c.Usage),
			Intent: c.Kind,
			Code:   apperrors.ErrCodeFormatError,
			Err:    apperrors.NewFormatError(string(c.Kind), c.Usage),
		}
	case models.EmptyInput:
		return Result{
			Reply:  d.replies.FeedbackPrompt(),
			Intent: c.Kind,
			Code:   apperrors.ErrCodeEmptyInput,
			Err:    apperrors.NewEmptyInputError(string(c.Kind)),
		}
	case models.Unrecognized:
		return d.fallback(c)
	default:
		return d.fallback(models.Unrecognized{})
	}
}

func (d *Dispatcher) recordSale(ctx context.Context, c models.RecordSale) Result {
	sale := models.Sale{
		Item:      c.Item,
		Quantity:  c.Quantity,
		UnitPrice: c.UnitPrice,
		Total:     c.Total(),
		Date:      d.timestamp(),
	}
	// a failure leaves neither the sale nor the decrement behind, so a
	// retried job records the sale exactly once
	remaining, found, err := d.ledger.RecordSale(ctx, sale)
	if err != nil {
		return d.ledgerFailure(models.IntentSale, "record sale", err)
	}

	low := found && remaining <= d.threshold
	if low {
		metrics.LowStockAlerts.Inc()
		d.notifyLowStock(ctx, c.Item, remaining)
	}

	return Result{Reply: d.replies.SaleRecorded(c, remaining, low), Intent: models.IntentSale}
}

func (d *Dispatcher) checkStock(ctx context.Context, c models.CheckStock) Result {
	qty, found, err := d.ledger.GetStockQuantity(ctx, c.Item)
	if err != nil {
		return d.ledgerFailure(models.IntentStock, "get stock", err)
	}
	if found {
		return Result{Reply: d.replies.StockLevel(c.Item, qty), Intent: models.IntentStock}
	}

	var suggestion string
	if items, err := d.ledger.ListStockItems(ctx); err == nil {
		suggestion = suggestItem(c.Item, items)
	}
	return Result{
		Reply:  d.replies.StockNotFound(c.Item, suggestion),
		Intent: models.IntentStock,
		Code:   apperrors.ErrCodeNotFound,
		Err:    apperrors.NewNotFoundError(c.Item),
	}
}

func (d *Dispatcher) setReminder(ctx context.Context, c models.SetReminder) Result {
	err := d.ledger.InsertReminder(ctx, models.Reminder{
		Name:   c.DebtorName,
		Amount: c.Amount,
		Reason: c.Reason,
		Date:   d.timestamp(),
	})
	if err != nil {
		return d.ledgerFailure(models.IntentRemind, "insert reminder", err)
	}
	return Result{Reply: d.replies.ReminderSaved(c), Intent: models.IntentRemind}
}

func (d *Dispatcher) summary(ctx context.Context) Result {
	today := d.now().Format(models.DateLayout)
	total, _, err := d.ledger.SumSalesTotalForDatePrefix(ctx, today)
	if err != nil {
		return d.ledgerFailure(models.IntentSummary, "sum sales", err)
	}
	return Result{Reply: d.replies.Summary(today, total), Intent: models.IntentSummary}
}

func (d *Dispatcher) feedback(ctx context.Context, c models.SubmitFeedback) Result {
	if err := d.ledger.InsertFeedback(ctx, models.Feedback{Text: c.Text, Date: d.timestamp()}); err != nil {
		return d.ledgerFailure(models.IntentFeedback, "insert feedback", err)
	}
	return Result{Reply: d.replies.FeedbackThanks(), Intent: models.IntentFeedback}
}

func (d *Dispatcher) fallback(c models.Unrecognized) Result {
	if m := d.matcher.Match(c.RawText); m.Found() {
		return Result{Reply: m.Rule.ResponseText, Intent: models.IntentUnknown}
	}
	return Result{
		Reply:  d.replies.Fallback(),
		Intent: models.IntentUnknown,
		Code:   apperrors.ErrCodeNoMatch,
		Err:    apperrors.NewNoMatchError(c.RawText),
	}
}

func (d *Dispatcher) notifyLowStock(ctx context.Context, item string, qty int) {
	if d.notifier == nil {
		return
	}
	if err := d.notifier.NotifyLowStock(ctx, item, qty); err != nil {
		d.logger.Warn("low stock notification failed", map[string]interface{}{
			"item":  item,
			"error": err.Error(),
		})
	}
}

func (d *Dispatcher) ledgerFailure(intent models.Intent, op string, err error) Result {
	return Result{
		Reply:  d.replies.LedgerFailure(),
		Intent: intent,
		Code:   apperrors.ErrCodeLedgerFailure,
		Err:    apperrors.NewLedgerFailureError(op, err),
	}
}

func (d *Dispatcher) timestamp() string {
	return d.now().Format(models.TimestampLayout)
}

// Replies exposes the message renderer so transports can reuse its texts.
func (d *Dispatcher) Replies() Replies {
	return d.replies
}

// Ledger returns the store the dispatcher writes to.
func (d *Dispatcher) Ledger() ledger.Ledger {
	return d.ledger
}
