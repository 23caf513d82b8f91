// Package parser turns an inbound message into a models.Command.
//
// Recognition walks an ordered rule list and stops at the first rule whose
// predicate accepts the text. A rule that accepts owns the message even when
// its arguments are malformed; the result is then an InvalidArguments value
// for that kind rather than a fall-through to the next rule.
package parser

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"biashara-bot/internal/models"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	SaleUsage   = "sale 2 soap @50"
	StockUsage  = "stock <item>"
	RemindUsage = "remind <name> <amount> <reason>"
)

// Rule is one entry in the recognition order.
type Rule struct {
	Name   models.Intent
	Accept func(normalized string) bool
	Parse  func(raw, normalized string) models.Command
}

var greetingWords = []string{"hello", "hi", "hey", "start"}

// titleCaser follows Unicode word boundaries: "o'neil" becomes "O'neil" and
// "jo2hn" stays "Jo2hn".
var titleCaser = cases.Title(language.Und)

// Rules returns the recognition order. The slice is fresh on every call.
func Rules() []Rule {
	return []Rule{
		{Name: models.IntentFeedback, Accept: hasPrefix("feedback"), Parse: parseFeedback},
		{Name: models.IntentSale, Accept: hasPrefix("sale"), Parse: parseSale},
		{Name: models.IntentStock, Accept: hasPrefix("stock"), Parse: parseStock},
		{Name: models.IntentRemind, Accept: hasPrefix("remind"), Parse: parseRemind},
		{Name: models.IntentSummary, Accept: containsAny("summary"), Parse: func(_, _ string) models.Command {
			return models.RequestSummary{}
		}},
		{Name: models.IntentGreeting, Accept: containsAny(greetingWords...), Parse: func(_, _ string) models.Command {
			return models.Greeting{}
		}},
	}
}

// Parser applies a fixed rule list. The zero value is not usable; call New.
type Parser struct {
	rules []Rule
}

func New() *Parser {
	return &Parser{rules: Rules()}
}

// NewWithRules builds a parser over a custom rule order.
func NewWithRules(rules []Rule) *Parser {
	return &Parser{rules: append([]Rule(nil), rules...)}
}

// Parse classifies text. It has no side effects.
func (p *Parser) Parse(text string) models.Command {
	raw := strings.TrimSpace(text)
	normalized := strings.ToLower(raw)

	for _, r := range p.rules {
		if r.Accept(normalized) {
			return r.Parse(raw, normalized)
		}
	}
	return models.Unrecognized{RawText: raw}
}

// Parse classifies text with the default rule order.
func Parse(text string) models.Command {
	return New().Parse(text)
}

func hasPrefix(keyword string) func(string) bool {
	return func(s string) bool { return strings.HasPrefix(s, keyword) }
}

func containsAny(words ...string) func(string) bool {
	return func(s string) bool {
		for _, w := range words {
			if strings.Contains(s, w) {
				return true
			}
		}
		return false
	}
}

func parseSale(_, normalized string) models.Command {
	parts := strings.Fields(normalized)
	if len(parts) != 4 {
		return invalid(models.IntentSale, SaleUsage, "expected 4 fields")
	}

	quantity, err := strconv.Atoi(parts[1])
	if err != nil {
		return invalid(models.IntentSale, SaleUsage, "quantity is not a whole number")
	}
	if quantity <= 0 {
		return invalid(models.IntentSale, SaleUsage, "quantity must be positive")
	}

	price, ok := parseAmount(strings.TrimPrefix(parts[3], "@"))
	if !ok {
		return invalid(models.IntentSale, SaleUsage, "unit price is not a valid amount")
	}

	return models.RecordSale{Item: parts[2], Quantity: quantity, UnitPrice: price}
}

func parseStock(_, normalized string) models.Command {
	parts := strings.Fields(normalized)
	if len(parts) < 2 {
		return invalid(models.IntentStock, StockUsage, "missing item")
	}
	return models.CheckStock{Item: parts[1]}
}

func parseRemind(_, normalized string) models.Command {
	parts := splitN(normalized, 4)
	if len(parts) != 4 {
		return invalid(models.IntentRemind, RemindUsage, "expected name, amount and reason")
	}

	amount, ok := parseAmount(parts[2])
	if !ok {
		return invalid(models.IntentRemind, RemindUsage, "amount is not a valid number")
	}

	return models.SetReminder{
		DebtorName: titleCaser.String(parts[1]),
		Amount:     amount,
		Reason:     parts[3],
	}
}

func parseFeedback(raw, normalized string) models.Command {
	const keyword = "feedback"

	// keep the sender's casing unless lower-casing shifted byte offsets
	body := normalized[len(keyword):]
	if len(raw) >= len(keyword) && strings.EqualFold(raw[:len(keyword)], keyword) {
		body = raw[len(keyword):]
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return models.EmptyInput{Kind: models.IntentFeedback}
	}
	return models.SubmitFeedback{Text: body}
}

// parseAmount accepts finite, non-negative decimals.
func parseAmount(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}

// splitN splits on runs of Unicode whitespace into at most n fields. The last field
// keeps the rest of the string, inner spacing included.
func splitN(s string, n int) []string {
	var out []string
	rest := strings.TrimSpace(s)
	for len(out) < n-1 && rest != "" {
		i := strings.IndexFunc(rest, unicode.IsSpace)
		if i < 0 {
			break
		}
		out = append(out, rest[:i])
		rest = strings.TrimLeftFunc(rest[i:], unicode.IsSpace)
	}
	if rest != "" {
		out = append(out, rest)
	}
	return out
}

func invalid(kind models.Intent, usage, reason string) models.InvalidArguments {
	return models.InvalidArguments{Kind: kind, Usage: usage, Reason: reason}
}
