package ledger

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"biashara-bot/internal/common/config"
	"biashara-bot/internal/common/database"
	"biashara-bot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ledgers returns every implementation, each on a fresh store.
func ledgers(t *testing.T) map[string]Ledger {
	t.Helper()

	client, err := database.NewSQLite(config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "sales.db")})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	sqlLedger := NewSQLLedger(client.DB, client.Driver)
	require.NoError(t, sqlLedger.Migrate(context.Background()))
	// migrations are idempotent
	require.NoError(t, sqlLedger.Migrate(context.Background()))

	return map[string]Ledger{
		"memory": NewMemoryLedger(),
		"sqlite": sqlLedger,
	}
}

func TestLedger_Stock(t *testing.T) {
	for name, l := range ledgers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, found, err := l.GetStockQuantity(ctx, "soap")
			require.NoError(t, err)
			assert.False(t, found)

			require.NoError(t, l.InsertStockIfAbsent(ctx, "soap", 10))
			require.NoError(t, l.InsertStockIfAbsent(ctx, "soap", 99))
			qty, found, err := l.GetStockQuantity(ctx, "soap")
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, 10, qty)

			qty, found, err = l.DecrementStock(ctx, "soap", 2)
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, 8, qty)

			// no floor at zero
			qty, _, err = l.DecrementStock(ctx, "soap", 11)
			require.NoError(t, err)
			assert.Equal(t, -3, qty)

			_, found, err = l.DecrementStock(ctx, "bread", 1)
			require.NoError(t, err)
			assert.False(t, found)
			_, found, _ = l.GetStockQuantity(ctx, "bread")
			assert.False(t, found)

			require.NoError(t, l.SetStockQuantity(ctx, "soap", 20))
			require.NoError(t, l.SetStockQuantity(ctx, "milk", 3))
			qty, _, _ = l.GetStockQuantity(ctx, "soap")
			assert.Equal(t, 20, qty)

			qty, err = l.Restock(ctx, "milk", 4)
			require.NoError(t, err)
			assert.Equal(t, 7, qty)
			qty, err = l.Restock(ctx, "sugar", 5)
			require.NoError(t, err)
			assert.Equal(t, 5, qty)

			items, err := l.ListStockItems(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"milk", "soap", "sugar"}, items)

			low, err := l.ListLowStock(ctx, 5)
			require.NoError(t, err)
			assert.Equal(t, []models.StockLevel{{Item: "sugar", Quantity: 5}}, low)
		})
	}
}

func TestLedger_SalesAndSummary(t *testing.T) {
	for name, l := range ledgers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, found, err := l.SumSalesTotalForDatePrefix(ctx, "2026-10-14")
			require.NoError(t, err)
			assert.False(t, found)

			sales := []models.Sale{
				{Item: "soap", Quantity: 2, UnitPrice: 50, Total: 100, Date: "2026-10-14 08:00:00"},
				{Item: "milk", Quantity: 5, UnitPrice: 50, Total: 250, Date: "2026-10-14 09:00:00"},
				{Item: "bread", Quantity: 1, UnitPrice: 60, Total: 60, Date: "2026-10-13 18:00:00"},
			}
			for _, s := range sales {
				require.NoError(t, l.InsertSale(ctx, s))
			}

			total, found, err := l.SumSalesTotalForDatePrefix(ctx, "2026-10-14")
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, 350.0, total)

			total, _, err = l.SumSalesTotalForDatePrefix(ctx, "2026-10-15")
			require.NoError(t, err)
			assert.Zero(t, total)

			recent, err := l.ListRecentSales(ctx, 2)
			require.NoError(t, err)
			require.Len(t, recent, 2)
			assert.Equal(t, "milk", recent[0].Item)
			assert.Equal(t, "soap", recent[1].Item)

			recent, err = l.ListRecentSales(ctx, 0)
			require.NoError(t, err)
			assert.Len(t, recent, 3)
		})
	}
}

func TestLedger_RemindersFeedbackConversations(t *testing.T) {
	for name, l := range ledgers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, l.InsertReminder(ctx, models.Reminder{Name: "Tonny", Amount: 200, Reason: "pay rent early", Date: "2026-10-14 10:00:00"}))
			require.NoError(t, l.InsertReminder(ctx, models.Reminder{Name: "Mary", Amount: 50.5, Reason: "fees", Date: "2026-10-14 11:00:00"}))
			require.NoError(t, l.InsertFeedback(ctx, models.Feedback{Text: "Great bot", Date: "2026-10-14 12:00:00"}))
			require.NoError(t, l.InsertConversation(ctx, models.Conversation{
				ID: "c-1", Channel: models.ChannelWeb, Inbound: "hello", Reply: "hi", Intent: models.IntentGreeting, Date: "2026-10-14 12:00:00",
			}))

			reminders, err := l.ListReminders(ctx)
			require.NoError(t, err)
			require.Len(t, reminders, 2)
			assert.Equal(t, "Tonny", reminders[0].Name)
			assert.Equal(t, "pay rent early", reminders[0].Reason)
			assert.Equal(t, 50.5, reminders[1].Amount)
		})
	}
}

func TestBuildDashboard(t *testing.T) {
	for name, l := range ledgers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, l.SetStockQuantity(ctx, "soap", 4))
			require.NoError(t, l.SetStockQuantity(ctx, "rice", 40))
			require.NoError(t, l.InsertSale(ctx, models.Sale{Item: "soap", Quantity: 2, UnitPrice: 50, Total: 100, Date: "2026-10-14 08:00:00"}))
			require.NoError(t, l.InsertReminder(ctx, models.Reminder{Name: "John", Amount: 300, Reason: "rent", Date: "2026-10-14 09:00:00"}))

			d, err := BuildDashboard(ctx, l, "2026-10-14", 5, 5)
			require.NoError(t, err)
			assert.Equal(t, "2026-10-14", d.Date)
			assert.Equal(t, 100.0, d.TotalToday)
			assert.Equal(t, []models.StockLevel{{Item: "soap", Quantity: 4}}, d.LowStock)
			assert.Len(t, d.Reminders, 1)
			assert.Len(t, d.RecentSales, 1)

			empty, err := BuildDashboard(ctx, l, "2020-01-01", 5, 5)
			require.NoError(t, err)
			assert.Zero(t, empty.TotalToday)
		})
	}
}

// Concurrent sales of the same item must not lose decrements.
func TestLedger_RecordSale(t *testing.T) {
	for name, l := range ledgers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, l.SetStockQuantity(ctx, "soap", 10))

			qty, found, err := l.RecordSale(ctx, models.Sale{Item: "soap", Quantity: 2, UnitPrice: 50, Total: 100, Date: "2026-10-14 09:00:00"})
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, 8, qty)

			_, found, err = l.RecordSale(ctx, models.Sale{Item: "bread", Quantity: 1, UnitPrice: 60, Total: 60, Date: "2026-10-14 09:05:00"})
			require.NoError(t, err)
			assert.False(t, found)

			sales, err := l.ListRecentSales(ctx, 10)
			require.NoError(t, err)
			assert.Len(t, sales, 2)
		})
	}
}

func TestSQLLedger_RecordSaleRollsBackWhenDecrementFails(t *testing.T) {
	ctx := context.Background()
	client, err := database.NewSQLite(config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "sales.db")})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	l := NewSQLLedger(client.DB, client.Driver)
	require.NoError(t, l.Migrate(ctx))
	require.NoError(t, l.SetStockQuantity(ctx, "soap", 10))

	_, err = client.DB.ExecContext(ctx, `CREATE TRIGGER block_stock BEFORE UPDATE ON stock BEGIN SELECT RAISE(ABORT, 'stock locked'); END`)
	require.NoError(t, err)

	sale := models.Sale{Item: "soap", Quantity: 2, UnitPrice: 50, Total: 100, Date: "2026-10-14 09:00:00"}
	_, _, err = l.RecordSale(ctx, sale)
	require.ErrorIs(t, err, ErrLedgerFailure)

	sales, err := l.ListRecentSales(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, sales)

	_, err = client.DB.ExecContext(ctx, `DROP TRIGGER block_stock`)
	require.NoError(t, err)

	qty, found, err := l.RecordSale(ctx, sale)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 8, qty)

	sales, err = l.ListRecentSales(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, sales, 1)
}

func TestLedger_ConcurrentDecrement(t *testing.T) {
	const (
		workers = 20
		perSale = 3
		initial = 100
	)

	for name, l := range ledgers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, l.SetStockQuantity(ctx, "soap", initial))

			var wg sync.WaitGroup
			errs := make(chan error, workers)
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if _, _, err := l.DecrementStock(ctx, "soap", perSale); err != nil {
						errs <- fmt.Errorf("decrement: %w", err)
					}
				}()
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				require.NoError(t, err)
			}

			qty, _, err := l.GetStockQuantity(ctx, "soap")
			require.NoError(t, err)
			assert.Equal(t, initial-workers*perSale, qty)
		})
	}
}

func TestMemoryLedger_Accessors(t *testing.T) {
	m := NewMemoryLedger()
	ctx := context.Background()
	require.NoError(t, m.InsertFeedback(ctx, models.Feedback{Text: "nice"}))
	require.NoError(t, m.InsertConversation(ctx, models.Conversation{ID: "1"}))
	require.NoError(t, m.InsertSale(ctx, models.Sale{Item: "soap"}))

	assert.Len(t, m.Feedback(), 1)
	assert.Len(t, m.Conversations(), 1)
	assert.Len(t, m.Sales(), 1)
}
