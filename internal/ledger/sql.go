package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"biashara-bot/internal/common/config"
	"biashara-bot/internal/models"
)

// SQLLedger keeps records in PostgreSQL or SQLite. Queries are written with
// "?" placeholders and rebound for the active driver.
type SQLLedger struct {
	db     *sql.DB
	driver string
}

func NewSQLLedger(db *sql.DB, driver string) *SQLLedger {
	if driver == "" {
		driver = config.DriverSQLite
	}
	return &SQLLedger{db: db, driver: driver}
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS sales (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		item TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		unit_price REAL NOT NULL,
		total REAL NOT NULL,
		date TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_date ON sales(date)`,
	`CREATE TABLE IF NOT EXISTS stock (
		item TEXT PRIMARY KEY,
		quantity INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS reminders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		amount REAL NOT NULL,
		reason TEXT NOT NULL,
		date TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS feedback (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		message TEXT NOT NULL,
		date TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		channel TEXT NOT NULL,
		sender TEXT NOT NULL DEFAULT '',
		inbound TEXT NOT NULL,
		reply TEXT NOT NULL,
		intent TEXT NOT NULL,
		code TEXT NOT NULL DEFAULT '',
		date TEXT NOT NULL
	)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS sales (
		id BIGSERIAL PRIMARY KEY,
		item TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		unit_price DOUBLE PRECISION NOT NULL,
		total DOUBLE PRECISION NOT NULL,
		date TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_date ON sales(date)`,
	`CREATE TABLE IF NOT EXISTS stock (
		item TEXT PRIMARY KEY,
		quantity INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS reminders (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		amount DOUBLE PRECISION NOT NULL,
		reason TEXT NOT NULL,
		date TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS feedback (
		id BIGSERIAL PRIMARY KEY,
		message TEXT NOT NULL,
		date TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		channel TEXT NOT NULL,
		sender TEXT NOT NULL DEFAULT '',
		inbound TEXT NOT NULL,
		reply TEXT NOT NULL,
		intent TEXT NOT NULL,
		code TEXT NOT NULL DEFAULT '',
		date TEXT NOT NULL
	)`,
}

// Migrate creates any missing tables for the active driver.
func (l *SQLLedger) Migrate(ctx context.Context) error {
	schema := sqliteSchema
	if l.driver == config.DriverPostgres {
		schema = postgresSchema
	}
	for _, stmt := range schema {
		if _, err := l.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: migrate: %v", ErrLedgerFailure, err)
		}
	}
	return nil
}

const (
	insertSaleQuery     = `INSERT INTO sales (item, quantity, unit_price, total, date) VALUES (?, ?, ?, ?, ?)`
	decrementStockQuery = `UPDATE stock SET quantity = quantity - ? WHERE item = ? RETURNING quantity`
)

func (l *SQLLedger) InsertSale(ctx context.Context, sale models.Sale) error {
	_, err := l.exec(ctx, insertSaleQuery, sale.Item, sale.Quantity, sale.UnitPrice, sale.Total, sale.Date)
	return wrap("insert sale", err)
}

func (l *SQLLedger) RecordSale(ctx context.Context, sale models.Sale) (int, bool, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, wrap("begin sale", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, l.rebind(insertSaleQuery),
		sale.Item, sale.Quantity, sale.UnitPrice, sale.Total, sale.Date); err != nil {
		return 0, false, wrap("insert sale", err)
	}

	var remaining int
	found := true
	err = tx.QueryRowContext(ctx, l.rebind(decrementStockQuery), sale.Quantity, sale.Item).Scan(&remaining)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		found = false
	case err != nil:
		return 0, false, wrap("decrement stock", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, false, wrap("commit sale", err)
	}
	return remaining, found, nil
}

func (l *SQLLedger) GetStockQuantity(ctx context.Context, item string) (int, bool, error) {
	var qty int
	err := l.queryRow(ctx, `SELECT quantity FROM stock WHERE item = ?`, item).Scan(&qty)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, wrap("get stock", err)
	}
	return qty, true, nil
}

func (l *SQLLedger) SetStockQuantity(ctx context.Context, item string, quantity int) error {
	_, err := l.exec(ctx, `INSERT INTO stock (item, quantity) VALUES (?, ?)
		ON CONFLICT (item) DO UPDATE SET quantity = excluded.quantity`, item, quantity)
	return wrap("set stock", err)
}

func (l *SQLLedger) InsertStockIfAbsent(ctx context.Context, item string, quantity int) error {
	_, err := l.exec(ctx, `INSERT INTO stock (item, quantity) VALUES (?, ?) ON CONFLICT (item) DO NOTHING`, item, quantity)
	return wrap("insert stock", err)
}

func (l *SQLLedger) DecrementStock(ctx context.Context, item string, qty int) (int, bool, error) {
	var remaining int
	err := l.queryRow(ctx, decrementStockQuery, qty, item).Scan(&remaining)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, wrap("decrement stock", err)
	}
	return remaining, true, nil
}

func (l *SQLLedger) Restock(ctx context.Context, item string, qty int) (int, error) {
	var total int
	err := l.queryRow(ctx, `INSERT INTO stock (item, quantity) VALUES (?, ?)
		ON CONFLICT (item) DO UPDATE SET quantity = stock.quantity + excluded.quantity
		RETURNING quantity`, item, qty).Scan(&total)
	if err != nil {
		return 0, wrap("restock", err)
	}
	return total, nil
}

func (l *SQLLedger) ListStockItems(ctx context.Context) ([]string, error) {
	rows, err := l.query(ctx, `SELECT item FROM stock ORDER BY item`)
	if err != nil {
		return nil, wrap("list stock", err)
	}
	defer rows.Close()

	var items []string
	for rows.Next() {
		var item string
		if err := rows.Scan(&item); err != nil {
			return nil, wrap("scan stock", err)
		}
		items = append(items, item)
	}
	return items, wrap("list stock", rows.Err())
}

func (l *SQLLedger) InsertReminder(ctx context.Context, r models.Reminder) error {
	_, err := l.exec(ctx, `INSERT INTO reminders (name, amount, reason, date) VALUES (?, ?, ?, ?)`,
		r.Name, r.Amount, r.Reason, r.Date)
	return wrap("insert reminder", err)
}

func (l *SQLLedger) InsertFeedback(ctx context.Context, f models.Feedback) error {
	_, err := l.exec(ctx, `INSERT INTO feedback (message, date) VALUES (?, ?)`, f.Text, f.Date)
	return wrap("insert feedback", err)
}

func (l *SQLLedger) InsertConversation(ctx context.Context, c models.Conversation) error {
	_, err := l.exec(ctx, `INSERT INTO conversations (id, channel, sender, inbound, reply, intent, code, date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Channel, c.Sender, c.Inbound, c.Reply, string(c.Intent), c.Code, c.Date)
	return wrap("insert conversation", err)
}

func (l *SQLLedger) SumSalesTotalForDatePrefix(ctx context.Context, prefix string) (float64, bool, error) {
	var total sql.NullFloat64
	err := l.queryRow(ctx, `SELECT SUM(total) FROM sales WHERE date LIKE ?`, prefix+"%").Scan(&total)
	if err != nil {
		return 0, false, wrap("sum sales", err)
	}
	return total.Float64, total.Valid, nil
}

func (l *SQLLedger) ListLowStock(ctx context.Context, threshold int) ([]models.StockLevel, error) {
	rows, err := l.query(ctx, `SELECT item, quantity FROM stock WHERE quantity <= ? ORDER BY quantity, item`,
		thresholdOrDefault(threshold))
	if err != nil {
		return nil, wrap("list low stock", err)
	}
	defer rows.Close()

	levels := []models.StockLevel{}
	for rows.Next() {
		var s models.StockLevel
		if err := rows.Scan(&s.Item, &s.Quantity); err != nil {
			return nil, wrap("scan low stock", err)
		}
		levels = append(levels, s)
	}
	return levels, wrap("list low stock", rows.Err())
}

func (l *SQLLedger) ListReminders(ctx context.Context) ([]models.Reminder, error) {
	rows, err := l.query(ctx, `SELECT name, amount, reason, date FROM reminders ORDER BY id`)
	if err != nil {
		return nil, wrap("list reminders", err)
	}
	defer rows.Close()

	reminders := []models.Reminder{}
	for rows.Next() {
		var r models.Reminder
		if err := rows.Scan(&r.Name, &r.Amount, &r.Reason, &r.Date); err != nil {
			return nil, wrap("scan reminder", err)
		}
		reminders = append(reminders, r)
	}
	return reminders, wrap("list reminders", rows.Err())
}

func (l *SQLLedger) ListRecentSales(ctx context.Context, limit int) ([]models.Sale, error) {
	rows, err := l.query(ctx, `SELECT item, quantity, unit_price, total, date FROM sales
		ORDER BY date DESC, id DESC LIMIT ?`, limitOrDefault(limit))
	if err != nil {
		return nil, wrap("list recent sales", err)
	}
	defer rows.Close()

	sales := []models.Sale{}
	for rows.Next() {
		var s models.Sale
		if err := rows.Scan(&s.Item, &s.Quantity, &s.UnitPrice, &s.Total, &s.Date); err != nil {
			return nil, wrap("scan sale", err)
		}
		sales = append(sales, s)
	}
	return sales, wrap("list recent sales", rows.Err())
}

func (l *SQLLedger) exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return l.db.ExecContext(ctx, l.rebind(query), args...)
}

func (l *SQLLedger) query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return l.db.QueryContext(ctx, l.rebind(query), args...)
}

func (l *SQLLedger) queryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return l.db.QueryRowContext(ctx, l.rebind(query), args...)
}

// rebind rewrites "?" placeholders as $1, $2... for PostgreSQL.
func (l *SQLLedger) rebind(query string) string {
	if l.driver != config.DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %v", ErrLedgerFailure, op, err)
}
