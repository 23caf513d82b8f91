// Package ledger stores the shop's sales, stock levels, debt reminders,
// feedback and conversation log.
package ledger

import (
	"context"
	"errors"

	"biashara-bot/internal/models"
)

const (
	DefaultLowStockThreshold = 5
	DefaultRecentSalesLimit  = 5
)

var ErrLedgerFailure = errors.New("LEDGER_FAILURE")

// Ledger is the record store behind the assistant. Implementations must be
// safe for concurrent use.
type Ledger interface {
	InsertSale(ctx context.Context, sale models.Sale) error
	// RecordSale inserts sale and decrements its item's stock as one unit:
	// either both are stored or neither is. found=false means the item has
	// no stock row; the sale is still stored.
	RecordSale(ctx context.Context, sale models.Sale) (quantity int, found bool, err error)

	// GetStockQuantity reports found=false when the item has no stock row.
	GetStockQuantity(ctx context.Context, item string) (quantity int, found bool, err error)
	// SetStockQuantity overwrites the quantity, creating the row if needed.
	SetStockQuantity(ctx context.Context, item string, quantity int) error
	InsertStockIfAbsent(ctx context.Context, item string, quantity int) error
	// DecrementStock subtracts qty in one atomic step and returns the new
	// quantity. Results below zero are stored as is. found=false means the
	// item has no stock row and nothing was changed.
	DecrementStock(ctx context.Context, item string, qty int) (quantity int, found bool, err error)
	// Restock adds qty, creating the row if needed, and returns the new quantity.
	Restock(ctx context.Context, item string, qty int) (int, error)
	ListStockItems(ctx context.Context) ([]string, error)

	InsertReminder(ctx context.Context, reminder models.Reminder) error
	InsertFeedback(ctx context.Context, feedback models.Feedback) error
	InsertConversation(ctx context.Context, entry models.Conversation) error

	// SumSalesTotalForDatePrefix sums totals of sales whose date starts with
	// prefix. found=false means no sale matched.
	SumSalesTotalForDatePrefix(ctx context.Context, prefix string) (total float64, found bool, err error)
	ListLowStock(ctx context.Context, threshold int) ([]models.StockLevel, error)
	ListReminders(ctx context.Context) ([]models.Reminder, error)
	ListRecentSales(ctx context.Context, limit int) ([]models.Sale, error)
}

// BuildDashboard collects the owner's overview for date (YYYY-MM-DD).
func BuildDashboard(ctx context.Context, l Ledger, date string, threshold, limit int) (*models.Dashboard, error) {
	total, _, err := l.SumSalesTotalForDatePrefix(ctx, date)
	if err != nil {
		return nil, err
	}
	low, err := l.ListLowStock(ctx, threshold)
	if err != nil {
		return nil, err
	}
	reminders, err := l.ListReminders(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := l.ListRecentSales(ctx, limit)
	if err != nil {
		return nil, err
	}

	return &models.Dashboard{
		Date:        date,
		TotalToday:  total,
		LowStock:    low,
		Reminders:   reminders,
		RecentSales: recent,
	}, nil
}

func thresholdOrDefault(n int) int {
	if n <= 0 {
		return DefaultLowStockThreshold
	}
	return n
}

func limitOrDefault(n int) int {
	if n <= 0 {
		return DefaultRecentSalesLimit
	}
	return n
}
