package httpapi

import (
	"encoding/xml"
	"net/http"
)

// messagingResponse is the TwiML document a chat provider expects back from
// an incoming-message webhook.
type messagingResponse struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message"`
}

func writeTwiML(w http.ResponseWriter, reply string) {
	out, err := xml.Marshal(messagingResponse{Message: reply})
	if err != nil {
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(xml.Header))
	_, _ = w.Write(out)
}
