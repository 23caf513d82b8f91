package models

// Intent names one of the fixed command kinds.
type Intent string

const (
	IntentSale     Intent = "sale"
	IntentStock    Intent = "stock"
	IntentRemind   Intent = "remind"
	IntentSummary  Intent = "summary"
	IntentFeedback Intent = "feedback"
	IntentGreeting Intent = "greeting"
	IntentUnknown  Intent = "unknown"
)

// Command is the parsed form of one inbound message. The concrete types
// below are the only implementations.
type Command interface {
	Intent() Intent
	command()
}

type RecordSale struct {
	Item      string  `json:"item"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

// Total is quantity times unit price with no currency rounding.
func (c RecordSale) Total() float64 {
	return float64(c.Quantity) * c.UnitPrice
}

type CheckStock struct {
	Item string `json:"item"`
}

type SetReminder struct {
	DebtorName string  `json:"debtorName"`
	Amount     float64 `json:"amount"`
	Reason     string  `json:"reason"`
}

type RequestSummary struct{}

type SubmitFeedback struct {
	Text string `json:"text"`
}

type Greeting struct{}

type Unrecognized struct {
	RawText string `json:"rawText"`
}

// InvalidArguments is produced when a command keyword matched but the rest
// of the message did not fit its shape.
type InvalidArguments struct {
	Kind   Intent `json:"kind"`
	Usage  string `json:"usage"`
	Reason string `json:"reason"`
}

// EmptyInput is produced when a command keyword matched with nothing after it.
type EmptyInput struct {
	Kind Intent `json:"kind"`
}

func (RecordSale) Intent() Intent { return IntentSale }
func (CheckStock) Intent() Intent { return IntentStock }
func (SetReminder) Intent() Intent { return IntentRemind }
func (RequestSummary) Intent() Intent { return IntentSummary }
func (SubmitFeedback) Intent() Intent { return IntentFeedback }
func (Greeting) Intent() Intent { return IntentGreeting }
func (Unrecognized) Intent() Intent { return IntentUnknown }
func (c InvalidArguments) Intent() Intent { return c.Kind }
func (c EmptyInput) Intent() Intent { return c.Kind }

func (RecordSale) command() {}
func (CheckStock) command() {}
func (SetReminder) command() {}
func (RequestSummary) command() {}
func (SubmitFeedback) command() {}
func (Greeting) command() {}
func (Unrecognized) command() {}
func (InvalidArguments) command() {}
func (EmptyInput) command() {}
