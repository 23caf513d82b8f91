package models

// Channels a message can arrive on.
const (
	ChannelWhatsApp = "whatsapp"
	ChannelWeb      = "web"
	ChannelWorkflow = "workflow"
	ChannelCLI      = "cli"
)

// Message is an inbound text together with where it came from.
type Message struct {
	Channel string `json:"channel"`
	Sender  string `json:"sender,omitempty"`
	Text    string `json:"text"`
}
