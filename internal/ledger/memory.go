package ledger

import (
	"context"
	"sort"
	"strings"
	"sync"

	"biashara-bot/internal/models"
)

// MemoryLedger keeps every record in process memory. It backs tests and
// throwaway CLI sessions.
type MemoryLedger struct {
	mu            sync.RWMutex
	sales         []models.Sale
	stock         map[string]int
	reminders     []models.Reminder
	feedback      []models.Feedback
	conversations []models.Conversation
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{stock: make(map[string]int)}
}

func (m *MemoryLedger) InsertSale(_ context.Context, sale models.Sale) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sales = append(m.sales, sale)
	return nil
}

func (m *MemoryLedger) RecordSale(_ context.Context, sale models.Sale) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sales = append(m.sales, sale)
	cur, ok := m.stock[sale.Item]
	if !ok {
		return 0, false, nil
	}
	cur -= sale.Quantity
	m.stock[sale.Item] = cur
	return cur, true, nil
}

func (m *MemoryLedger) GetStockQuantity(_ context.Context, item string) (int, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	qty, ok := m.stock[item]
	return qty, ok, nil
}

func (m *MemoryLedger) SetStockQuantity(_ context.Context, item string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stock[item] = quantity
	return nil
}

func (m *MemoryLedger) InsertStockIfAbsent(_ context.Context, item string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.stock[item]; !ok {
		m.stock[item] = quantity
	}
	return nil
}

func (m *MemoryLedger) DecrementStock(_ context.Context, item string, qty int) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.stock[item]
	if !ok {
		return 0, false, nil
	}
	cur -= qty
	m.stock[item] = cur
	return cur, true, nil
}

func (m *MemoryLedger) Restock(_ context.Context, item string, qty int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stock[item] += qty
	return m.stock[item], nil
}

func (m *MemoryLedger) ListStockItems(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := make([]string, 0, len(m.stock))
	for item := range m.stock {
		items = append(items, item)
	}
	sort.Strings(items)
	return items, nil
}

func (m *MemoryLedger) InsertReminder(_ context.Context, r models.Reminder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reminders = append(m.reminders, r)
	return nil
}

func (m *MemoryLedger) InsertFeedback(_ context.Context, f models.Feedback) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.feedback = append(m.feedback, f)
	return nil
}

func (m *MemoryLedger) InsertConversation(_ context.Context, c models.Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conversations = append(m.conversations, c)
	return nil
}

func (m *MemoryLedger) SumSalesTotalForDatePrefix(_ context.Context, prefix string) (float64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var (
		total float64
		found bool
	)
	for _, s := range m.sales {
		if strings.HasPrefix(s.Date, prefix) {
			total += s.Total
			found = true
		}
	}
	return total, found, nil
}

func (m *MemoryLedger) ListLowStock(_ context.Context, threshold int) ([]models.StockLevel, error) {
	threshold = thresholdOrDefault(threshold)

	m.mu.RLock()
	defer m.mu.RUnlock()
	levels := []models.StockLevel{}
	for item, qty := range m.stock {
		if qty <= threshold {
			levels = append(levels, models.StockLevel{Item: item, Quantity: qty})
		}
	}
	sort.Slice(levels, func(i, j int) bool {
		if levels[i].Quantity != levels[j].Quantity {
			return levels[i].Quantity < levels[j].Quantity
		}
		return levels[i].Item < levels[j].Item
	})
	return levels, nil
}

func (m *MemoryLedger) ListReminders(_ context.Context) ([]models.Reminder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.Reminder{}, m.reminders...), nil
}

func (m *MemoryLedger) ListRecentSales(_ context.Context, limit int) ([]models.Sale, error) {
	limit = limitOrDefault(limit)

	m.mu.RLock()
	defer m.mu.RUnlock()
	// newest first; insertion order breaks ties on equal dates
	idx := make([]int, len(m.sales))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		da, db := m.sales[idx[a]].Date, m.sales[idx[b]].Date
		if da != db {
			return da > db
		}
		return idx[a] > idx[b]
	})

	if len(idx) > limit {
		idx = idx[:limit]
	}
	sales := make([]models.Sale, 0, len(idx))
	for _, i := range idx {
		sales = append(sales, m.sales[i])
	}
	return sales, nil
}

// Feedback returns a copy of the stored feedback.
func (m *MemoryLedger) Feedback() []models.Feedback {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.Feedback(nil), m.feedback...)
}

// Conversations returns a copy of the conversation log.
func (m *MemoryLedger) Conversations() []models.Conversation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.Conversation(nil), m.conversations...)
}

// Sales returns a copy of every recorded sale in insertion order.
func (m *MemoryLedger) Sales() []models.Sale {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.Sale(nil), m.sales...)
}

var (
	_ Ledger = (*MemoryLedger)(nil)
	_ Ledger = (*SQLLedger)(nil)
)
