// internal/workers/messaging/handle-message/models.go
package handlemessage

// Input is the process variable set the service task receives.
type Input struct {
	Text    string `json:"text"`
	Channel string `json:"channel,omitempty"`
	Sender  string `json:"sender,omitempty"`
}

// Output is merged back into the process instance.
type Output struct {
	Reply  string `json:"reply"`
	Intent string `json:"intent"`
	Code   string `json:"code,omitempty"`
}

const inputSchema = `{
  "type": "object",
  "required": ["text"],
  "properties": {
    "text":    {"type": "string"},
    "channel": {"type": "string"},
    "sender":  {"type": "string"}
  }
}`
