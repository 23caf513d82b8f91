package httpapi

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter registers HTTP routes and returns the handler with middleware.
func NewRouter(app *App) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /whatsapp", app.webhookHandler)
	mux.HandleFunc("POST /incoming", app.webhookHandler)
	mux.HandleFunc("POST /message", app.messageHandler)
	mux.HandleFunc("POST /add_sale", app.addSaleHandler)
	mux.HandleFunc("POST /reminder", app.reminderHandler)
	mux.HandleFunc("POST /restock", app.restockHandler)
	mux.HandleFunc("GET /summary", app.summaryHandler)
	mux.HandleFunc("GET /dashboard", app.dashboardHandler)
	mux.HandleFunc("GET /health", app.healthHandler)
	mux.HandleFunc("GET /ready", app.readyHandler)
	mux.Handle("GET /metrics", promhttp.Handler())
	return WithRequestID(WithLogging(app.logger, mux))
}
