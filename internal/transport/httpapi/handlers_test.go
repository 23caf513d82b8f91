package httpapi

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"biashara-bot/internal/assistant/catalog"
	"biashara-bot/internal/assistant/dispatcher"
	"biashara-bot/internal/common/config"
	"biashara-bot/internal/common/database"
	"biashara-bot/internal/common/logger"
	"biashara-bot/internal/ledger"
	"biashara-bot/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 14, 9, 30, 0, 0, time.Local)

type testServer struct {
	handler http.Handler
	ledger  *ledger.MemoryLedger
	app     *App
}

func newTestServer(t *testing.T, cache ReplyCache, checks map[string]Pinger) *testServer {
	t.Helper()
	mem := ledger.NewMemoryLedger()
	log := logger.NewTestLogger(t)
	d := dispatcher.New(dispatcher.Config{}, catalog.DefaultMatcher(catalog.Default()), mem, log,
		dispatcher.WithClock(func() time.Time { return fixedNow }))

	app := NewApp(d, cache, checks, Options{LowStockThreshold: 5, RecentSalesLimit: 5, DedupeTTL: time.Hour}, log)
	app.now = func() time.Time { return fixedNow }
	return &testServer{handler: NewRouter(app), ledger: mem, app: app}
}

func (s *testServer) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) get(path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decodeTwiML(t *testing.T, body string) string {
	t.Helper()
	var resp messagingResponse
	require.NoError(t, xml.Unmarshal([]byte(body), &resp))
	return resp.Message
}

// ==========================
// Webhook
// ==========================

func TestWebhook_Sale(t *testing.T) {
	s := newTestServer(t, nil, nil)
	require.NoError(t, s.ledger.SetStockQuantity(context.Background(), "soap", 6))

	for _, path := range []string{"/whatsapp", "/incoming"} {
		t.Run(path, func(t *testing.T) {
			rec := s.postForm(path, url.Values{"Body": {"sale 1 soap @50"}, "From": {"whatsapp:+254700000001"}})
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "application/xml", rec.Header().Get("Content-Type"))
			assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
			assert.True(t, strings.HasPrefix(rec.Body.String(), xml.Header))
			assert.Contains(t, decodeTwiML(t, rec.Body.String()), "✅ Sale recorded:\n1 soap @ 50 = KES 50")
		})
	}

	qty, _, _ := s.ledger.GetStockQuantity(context.Background(), "soap")
	assert.Equal(t, 4, qty)

	log := s.ledger.Conversations()
	require.Len(t, log, 2)
	assert.Equal(t, models.ChannelWhatsApp, log[0].Channel)
	assert.Equal(t, "whatsapp:+254700000001", log[0].Sender)
}

func TestWebhook_EscapesReply(t *testing.T) {
	s := newTestServer(t, nil, nil)

	rec := s.postForm("/whatsapp", url.Values{"Body": {"stock <b>&"}})
	assert.Contains(t, rec.Body.String(), "&lt;b&gt;&amp;")
	assert.Equal(t, "❌ Item '<b>&' not found in stock.", decodeTwiML(t, rec.Body.String()))
}

func TestWebhook_DedupeByMessageSid(t *testing.T) {
	mr := miniredis.RunT(t)
	redisClient, err := database.NewRedis(redisConfig(mr.Addr()))
	require.NoError(t, err)
	defer redisClient.Close()

	s := newTestServer(t, redisClient, nil)
	form := url.Values{"Body": {"sale 2 soap @50"}, "MessageSid": {"SM123"}}

	first := s.postForm("/whatsapp", form)
	second := s.postForm("/whatsapp", form)

	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Len(t, s.ledger.Sales(), 1)
	assert.True(t, mr.Exists(replyCachePrefix+"SM123"))
	assert.Equal(t, time.Hour, mr.TTL(replyCachePrefix+"SM123"))

	// a different sid is a different message
	s.postForm("/whatsapp", url.Values{"Body": {"sale 2 soap @50"}, "MessageSid": {"SM124"}})
	assert.Len(t, s.ledger.Sales(), 2)

	// without a sid nothing is cached
	s.postForm("/whatsapp", url.Values{"Body": {"sale 2 soap @50"}})
	s.postForm("/whatsapp", url.Values{"Body": {"sale 2 soap @50"}})
	assert.Len(t, s.ledger.Sales(), 4)
}

func TestWebhook_CacheErrorStillReplies(t *testing.T) {
	client, mock := redismock.NewClientMock()
	mock.ExpectGet(replyCachePrefix + "SM9").SetErr(errors.New("redis down"))
	mock.ExpectSet(replyCachePrefix+"SM9", "📦 Stock for soap: 3", time.Hour).SetErr(errors.New("redis down"))

	s := newTestServer(t, database.WrapRedis(client), nil)
	require.NoError(t, s.ledger.SetStockQuantity(context.Background(), "soap", 3))

	rec := s.postForm("/whatsapp", url.Values{"Body": {"stock soap"}, "MessageSid": {"SM9"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "📦 Stock for soap: 3", decodeTwiML(t, rec.Body.String()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhook_MethodNotAllowed(t *testing.T) {
	s := newTestServer(t, nil, nil)
	rec := s.get("/whatsapp")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestMessage_JSON(t *testing.T) {
	s := newTestServer(t, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/message", strings.NewReader(`{"text":"thnks"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var res dispatcher.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, models.IntentUnknown, res.Intent)
	assert.Contains(t, res.Reply, "welcome")

	req = httptest.NewRequest(http.MethodPost, "/message", strings.NewReader(`{"text":"hi"}`))
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ==========================
// Web forms
// ==========================

func TestAddSale(t *testing.T) {
	s := newTestServer(t, nil, nil)

	rec := s.postForm("/add_sale", url.Values{"item": {"Soap"}, "quantity": {"2"}, "unit_price": {"50"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "✅ Sale recorded:\n2 soap @ 50 = KES 100", rec.Body.String())
	require.Len(t, s.ledger.Sales(), 1)

	rec = s.postForm("/add_sale", url.Values{"item": {"soap"}, "quantity": {"two"}, "unit_price": {"50"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Len(t, s.ledger.Sales(), 1)

	rec = s.postForm("/add_sale", url.Values{"item": {"maize flour"}, "quantity": {"1"}, "unit_price": {"50"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.postForm("/add_sale", url.Values{"item": {"soap"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReminder(t *testing.T) {
	s := newTestServer(t, nil, nil)

	rec := s.postForm("/reminder", url.Values{"name": {"tonny"}, "amount": {"200"}, "reason": {"pay rent early"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "📝 Reminder saved:\nTonny owes KES 200 for pay rent early", rec.Body.String())

	rec = s.postForm("/reminder", url.Values{"name": {"tonny"}, "amount": {"200"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRestock(t *testing.T) {
	s := newTestServer(t, nil, nil)

	rec := s.postForm("/restock", url.Values{"item": {"Soap"}, "quantity": {"10"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "✅ Restocked soap: +10 items", rec.Body.String())

	s.postForm("/restock", url.Values{"item": {"soap"}, "quantity": {"5"}})
	qty, _, _ := s.ledger.GetStockQuantity(context.Background(), "soap")
	assert.Equal(t, 15, qty)

	for _, bad := range []string{"0", "-1", "x", ""} {
		rec = s.postForm("/restock", url.Values{"item": {"soap"}, "quantity": {bad}})
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
	}
}

// ==========================
// Reports
// ==========================

func TestSummaryAndDashboard(t *testing.T) {
	s := newTestServer(t, nil, nil)
	ctx := context.Background()
	require.NoError(t, s.ledger.SetStockQuantity(ctx, "soap", 10))

	s.postForm("/whatsapp", url.Values{"Body": {"sale 2 soap @50"}})
	s.postForm("/whatsapp", url.Values{"Body": {"sale 5 soap @50"}})
	s.postForm("/whatsapp", url.Values{"Body": {"remind john 300 rent"}})

	rec := s.get("/summary")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "📊 Total earned today (2026-10-14): KES 350", rec.Body.String())

	rec = s.get("/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)
	var d models.Dashboard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	assert.Equal(t, "2026-10-14", d.Date)
	assert.Equal(t, 350.0, d.TotalToday)
	assert.Equal(t, []models.StockLevel{{Item: "soap", Quantity: 3}}, d.LowStock)
	assert.Len(t, d.Reminders, 1)
	assert.Len(t, d.RecentSales, 2)

	rec = s.get("/dashboard?date=2026-10-13")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	assert.Zero(t, d.TotalToday)

	rec = s.get("/dashboard?date=yesterday")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ==========================
// Operational endpoints
// ==========================

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthAndReady(t *testing.T) {
	healthy := newTestServer(t, nil, map[string]Pinger{"ledger": pingFunc(func(context.Context) error { return nil })})
	assert.Equal(t, http.StatusOK, healthy.get("/health").Code)
	assert.Equal(t, http.StatusOK, healthy.get("/ready").Code)

	broken := newTestServer(t, nil, map[string]Pinger{"redis": pingFunc(func(context.Context) error { return errors.New("refused") })})
	rec := broken.get("/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "refused")
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil, nil)
	s.postForm("/whatsapp", url.Values{"Body": {"hello"}})

	rec := s.get("/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "biashara_messages_handled_total")
}

func redisConfig(addr string) config.RedisConfig {
	return config.RedisConfig{Address: addr}
}
