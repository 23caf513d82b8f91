package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"biashara-bot/internal/assistant/dispatcher"
	"biashara-bot/internal/common/database"
	"biashara-bot/internal/common/metrics"
	"biashara-bot/internal/ledger"
	"biashara-bot/internal/models"
)

const replyCachePrefix = "biashara:reply:"

// webhookHandler answers the chat provider. Deliveries carrying a
// MessageSid already seen within the dedupe window get the cached reply.
func (a *App) webhookHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "invalid_form", err.Error())
		return
	}
	ctx := r.Context()
	sid := r.PostFormValue("MessageSid")
	key := replyCachePrefix + sid

	if sid != "" && a.cache != nil {
		cached, err := a.cache.Get(ctx, key)
		switch {
		case err == nil:
			metrics.WebhookDuplicates.Inc()
			a.logger.Info("duplicate webhook delivery", map[string]interface{}{"messageSid": sid})
			writeTwiML(w, cached)
			return
		case !errors.Is(err, database.ErrCacheMiss):
			a.logger.Warn("reply cache read failed", map[string]interface{}{"error": err.Error()})
		}
	}

	res := a.dispatcher.Converse(ctx, models.Message{
		Channel: models.ChannelWhatsApp,
		Sender:  r.PostFormValue("From"),
		Text:    r.PostFormValue("Body"),
	})

	if sid != "" && a.cache != nil {
		if err := a.cache.Set(ctx, key, res.Reply, a.opts.DedupeTTL); err != nil {
			a.logger.Warn("reply cache write failed", map[string]interface{}{"error": err.Error()})
		}
	}
	writeTwiML(w, res.Reply)
}

type messageRequest struct {
	Text   string `json:"text"`
	Sender string `json:"sender,omitempty"`
}

// messageHandler is the JSON form of the webhook for web clients.
func (a *App) messageHandler(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	res := a.dispatcher.Converse(r.Context(), models.Message{Channel: models.ChannelWeb, Sender: req.Sender, Text: req.Text})
	writeJSON(w, http.StatusOK, res)
}

// addSaleHandler records a sale from the web form by running the
// equivalent chat command, so both paths share one bookkeeping rule.
func (a *App) addSaleHandler(w http.ResponseWriter, r *http.Request) {
	item, ok := formToken(r, "item")
	if !ok {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "item is required and must be one word")
		return
	}
	qty, ok := formToken(r, "quantity")
	if !ok {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "quantity is required")
		return
	}
	price, ok := formToken(r, "unit_price")
	if !ok {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "unit_price is required")
		return
	}

	a.replyFromCommand(w, r, fmt.Sprintf("sale %s %s @%s", qty, item, strings.TrimPrefix(price, "@")))
}

func (a *App) reminderHandler(w http.ResponseWriter, r *http.Request) {
	name, ok := formToken(r, "name")
	if !ok {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "name is required and must be one word")
		return
	}
	amount, ok := formToken(r, "amount")
	if !ok {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "amount is required")
		return
	}
	reason := strings.TrimSpace(r.PostFormValue("reason"))
	if reason == "" {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "reason is required")
		return
	}

	a.replyFromCommand(w, r, fmt.Sprintf("remind %s %s %s", name, amount, reason))
}

func (a *App) replyFromCommand(w http.ResponseWriter, r *http.Request, text string) {
	res := a.dispatcher.Converse(r.Context(), models.Message{Channel: models.ChannelWeb, Text: text})
	writeText(w, statusFor(res), res.Reply)
}

func (a *App) restockHandler(w http.ResponseWriter, r *http.Request) {
	item, ok := formToken(r, "item")
	if !ok {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "item is required and must be one word")
		return
	}
	raw, _ := formToken(r, "quantity")
	qty, err := strconv.Atoi(raw)
	if err != nil || qty <= 0 {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "quantity must be a positive whole number")
		return
	}

	item = strings.ToLower(item)
	if _, err := a.ledger.Restock(r.Context(), item, qty); err != nil {
		a.logger.Error("restock failed", map[string]interface{}{"item": item, "error": err.Error()})
		writeText(w, http.StatusServiceUnavailable, a.dispatcher.Replies().LedgerFailure())
		return
	}
	writeText(w, http.StatusOK, fmt.Sprintf("✅ Restocked %s: +%d items", item, qty))
}

func (a *App) summaryHandler(w http.ResponseWriter, r *http.Request) {
	res := a.dispatcher.Dispatch(r.Context(), "summary")
	writeText(w, statusFor(res), res.Reply)
}

func (a *App) dashboardHandler(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = a.today()
	} else if _, err := time.Parse(models.DateLayout, date); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "date must be YYYY-MM-DD")
		return
	}

	d, err := ledger.BuildDashboard(r.Context(), a.ledger, date, a.opts.LowStockThreshold, a.opts.RecentSalesLimit)
	if err != nil {
		a.logger.Error("dashboard failed", map[string]interface{}{"error": err.Error()})
		WriteJSONError(w, http.StatusServiceUnavailable, "ledger_unavailable", "")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (a *App) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   a.now().Format(time.RFC3339),
	})
}

func (a *App) readyHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	failed := map[string]string{}
	for name, p := range a.checks {
		if err := p.Ping(ctx); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "not_ready",
			"failed": failed,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
		"time":   a.now().Format(time.RFC3339),
	})
}

// formToken returns a trimmed single-word form value.
func formToken(r *http.Request, name string) (string, bool) {
	v := strings.TrimSpace(r.PostFormValue(name))
	if v == "" || strings.ContainsAny(v, " \t\r\n") {
		return "", false
	}
	return v, true
}

func statusFor(res dispatcher.Result) int {
	switch {
	case res.Code == "":
		return http.StatusOK
	case res.Err != nil && res.Err.Retryable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusUnprocessableEntity
	}
}
