package dispatcher

import (
	"fmt"
	"strings"

	"biashara-bot/internal/assistant/parser"
	"biashara-bot/internal/models"
)

const ledgerFailureReply = "⚠️ Something went wrong saving that. Please try again."

var examples = []string{
	parser.SaleUsage,
	"stock soap",
	"remind John 300 rent",
	"summary",
	"feedback <your message>",
}

// Replies renders every user-facing message. Fields come from config.
type Replies struct {
	BotName  string
	Currency string
}

func (r Replies) menu() string {
	var b strings.Builder
	for _, ex := range examples {
		b.WriteString("\n• ")
		b.WriteString(ex)
	}
	return b.String()
}

func (r Replies) Greeting() string {
	return fmt.Sprintf("👋 Hello! I'm %s. Try:%s", r.BotName, r.menu())
}

func (r Replies) Fallback() string {
	return "🤖 Sorry, I didn't understand. Try:" + r.menu()
}

func (r Replies) SaleRecorded(s models.RecordSale, remaining int, low bool) string {
	reply := fmt.Sprintf("✅ Sale recorded:\n%d %s @ %s = %s %s",
		s.Quantity, s.Item, models.FormatAmount(s.UnitPrice), r.Currency, models.FormatAmount(s.Total()))
	if low {
		reply += fmt.Sprintf("\n⚠️ LOW STOCK ALERT: %s has only %d left!", s.Item, remaining)
	}
	return reply
}

func (r Replies) StockLevel(item string, qty int) string {
	return fmt.Sprintf("📦 Stock for %s: %d", item, qty)
}

func (r Replies) StockNotFound(item, suggestion string) string {
	reply := fmt.Sprintf("❌ Item '%s' not found in stock.", item)
	if suggestion != "" {
		reply += fmt.Sprintf(" Did you mean '%s'?", suggestion)
	}
	return reply
}

func (r Replies) ReminderSaved(c models.SetReminder) string {
	return fmt.Sprintf("📝 Reminder saved:\n%s owes %s %s for %s",
		c.DebtorName, r.Currency, models.FormatAmount(c.Amount), c.Reason)
}

func (r Replies) Summary(date string, total float64) string {
	return fmt.Sprintf("📊 Total earned today (%s): %s %s", date, r.Currency, models.FormatAmount(total))
}

func (r Replies) FeedbackThanks() string {
	return "🙏 Thank you for your feedback!"
}

func (r Replies) FeedbackPrompt() string {
	return "✍️ Please type your feedback after the word feedback, e.g. feedback great service"
}

func (r Replies) Usage(kind models.Intent, usage string) string {
	if kind == models.IntentSale {
		return "❌ Format error. Try: " + usage
	}
	return "⚠️ Format: " + usage
}

func (r Replies) LedgerFailure() string {
	return ledgerFailureReply
}
