package models

import "strconv"

// TimestampLayout is how every ledger row stores its date. "Today" queries
// match on the leading DateLayout part of it.
const (
	TimestampLayout = "2006-01-02 15:04:05"
	DateLayout      = "2006-01-02"
)

// FormatAmount prints the shortest decimal that reads back as v. Chat
// replies and owner reports both go through it.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type Sale struct {
	Item      string  `json:"item"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	Total     float64 `json:"total"`
	Date      string  `json:"date"`
}

type StockLevel struct {
	Item     string `json:"item"`
	Quantity int    `json:"quantity"`
}

type Reminder struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Reason string  `json:"reason"`
	Date   string  `json:"date,omitempty"`
}

type Feedback struct {
	Text string `json:"text"`
	Date string `json:"date"`
}

// Conversation is one inbound message and the reply sent for it.
type Conversation struct {
	ID      string `json:"id"`
	Channel string `json:"channel"`
	Sender  string `json:"sender,omitempty"`
	Inbound string `json:"inbound"`
	Reply   string `json:"reply"`
	Intent  Intent `json:"intent"`
	Code    string `json:"code,omitempty"`
	Date    string `json:"date"`
}

// Dashboard is the owner's overview for one day.
type Dashboard struct {
	Date        string       `json:"date"`
	TotalToday  float64      `json:"totalToday"`
	LowStock    []StockLevel `json:"lowStock"`
	Reminders   []Reminder   `json:"reminders"`
	RecentSales []Sale       `json:"recentSales"`
}
