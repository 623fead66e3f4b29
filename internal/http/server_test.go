package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chitieu/internal/core"
	"chitieu/internal/log"
	"chitieu/internal/services"
	"chitieu/internal/store"
	"chitieu/internal/store/memory"
)

type failingPingStore struct{ store.Store }

func (failingPingStore) Ping(context.Context) error { return errors.New("database is locked") }

func newTestServer(t *testing.T, st store.Store, opts Options) *Server {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = log.New(log.Config{Level: log.DefaultConfig().Level, Component: "test", Output: io.Discard})
	}
	if opts.RateLimitPerMinute == 0 {
		opts.RateLimitPerMinute = 1000
	}
	return NewServer(":0", services.NewExpenseService(st), opts)
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if strings.HasPrefix(body, "{") {
		req.Header.Set("Content-Type", "application/json")
	} else if body != "" {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestIndexAndHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, memory.New(), Options{APIBaseURL: "https://api.chitieu.example"})

	rec := do(t, srv, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<meta name="api-base" content="https://api.chitieu.example">`)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "https://api.chitieu.example")

	rec = do(t, srv, http.MethodGet, "/static/app.js", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"))

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := do(t, srv, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec = do(t, srv, http.MethodGet, "/api/ping", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "API OK", decode[MessageBody](t, rec).Message)

	rec = do(t, srv, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestReadyzReportsStoreFailure(t *testing.T) {
	srv := newTestServer(t, failingPingStore{memory.New()}, Options{})

	rec := do(t, srv, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode[ErrorBody](t, rec)
	assert.Equal(t, "Service not ready", body.Message)
	assert.Equal(t, []string{"database is locked"}, body.Errors["store"])

	rec = do(t, srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code, "liveness does not depend on the store")
}

func TestExpenseLifecycle(t *testing.T) {
	srv := newTestServer(t, memory.New(), Options{})

	rec := do(t, srv, http.MethodGet, "/api/expenses", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())

	rec = do(t, srv, http.MethodPost, "/api/expenses", `{"title":"Lunch","amount":"45000","type":"chi"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	lunch := decode[core.Expense](t, rec)
	assert.Equal(t, "Lunch", lunch.Title)
	assert.Equal(t, "45000.00", lunch.Amount.String())
	assert.False(t, lunch.IsPaid)
	assert.Contains(t, rec.Body.String(), `"amount":"45000.00"`)

	rec = do(t, srv, http.MethodPost, "/api/expenses", "title=Salary&amount=10000000&type=thu")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	salary := decode[core.Expense](t, rec)

	rec = do(t, srv, http.MethodGet, "/api/expenses", "")
	items := decode[[]core.Expense](t, rec)
	require.Len(t, items, 2)
	assert.Equal(t, salary.ID, items[0].ID, "newest first")

	rec = do(t, srv, http.MethodPatch, "/api/expenses/"+itoa(lunch.ID)+"/toggle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[core.Expense](t, rec).IsPaid)

	rec = do(t, srv, http.MethodGet, "/api/summary", "")
	totals := decode[map[string]string](t, rec)
	assert.Equal(t, map[string]string{"total_chi": "45000.00", "total_thu": "10000000.00", "balance": "9955000.00"}, totals)

	rec = do(t, srv, http.MethodDelete, "/api/expenses/"+itoa(lunch.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Deleted", decode[MessageBody](t, rec).Message)

	rec = do(t, srv, http.MethodDelete, "/api/expenses/"+itoa(lunch.ID), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Expense not found", decode[ErrorBody](t, rec).Message)
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantCode  int
		wantField string
	}{
		{"missing title", `{"title":"  ","amount":"1","type":"chi"}`, http.StatusUnprocessableEntity, "title"},
		{"title too long", `{"title":"` + strings.Repeat("x", 256) + `","amount":"1","type":"chi"}`, http.StatusUnprocessableEntity, "title"},
		{"non numeric amount", `{"title":"x","amount":"abc","type":"chi"}`, http.StatusUnprocessableEntity, "amount"},
		{"zero amount", `{"title":"x","amount":0,"type":"chi"}`, http.StatusUnprocessableEntity, "amount"},
		{"negative amount", `{"title":"x","amount":"-5","type":"chi"}`, http.StatusUnprocessableEntity, "amount"},
		{"bad type", `{"title":"x","amount":"5","type":"other"}`, http.StatusUnprocessableEntity, "type"},
		{"upper case type", `{"title":"x","amount":45000,"type":"CHI"}`, http.StatusUnprocessableEntity, "type"},
		{"thousands separator", `{"title":"Rent","amount":"45,000","type":"chi"}`, http.StatusUnprocessableEntity, "amount"},
		{"thousands separators", `{"title":"Rent","amount":"1,500,000","type":"chi"}`, http.StatusUnprocessableEntity, "amount"},
		{"huge exponent", `{"title":"x","amount":1e400,"type":"chi"}`, http.StatusUnprocessableEntity, "amount"},
		{"long title reported first", `{"title":"` + strings.Repeat("x", 300) + `","amount":"abc","type":"chi"}`, http.StatusUnprocessableEntity, "title"},
		{"malformed json", `{"title":`, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := memory.New()
			srv := newTestServer(t, st, Options{})

			rec := do(t, srv, http.MethodPost, "/api/expenses", tt.body)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			body := decode[ErrorBody](t, rec)
			assert.NotEmpty(t, body.Message)
			if tt.wantField != "" {
				assert.Len(t, body.Errors[tt.wantField], 1)
			}

			items, err := st.List(context.Background())
			require.NoError(t, err)
			assert.Empty(t, items, "rejected create must not persist")
		})
	}
}

func TestCreateAcceptsExponentNumbers(t *testing.T) {
	srv := newTestServer(t, memory.New(), Options{})

	rec := do(t, srv, http.MethodPost, "/api/expenses", `{"title":"Rent","amount":4.5e4,"type":"chi"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "45000.00", decode[core.Expense](t, rec).Amount.String())
}

func TestToggleAndDeleteErrors(t *testing.T) {
	st := memory.New()
	srv := newTestServer(t, st, Options{})
	salary, err := st.Create(context.Background(), core.NewExpense{Title: "Salary", Amount: core.MustMoney("100"), Type: core.KindIncome})
	require.NoError(t, err)

	tests := []struct {
		name     string
		method   string
		path     string
		wantCode int
	}{
		{"toggle unknown id", http.MethodPatch, "/api/expenses/999/toggle", http.StatusNotFound},
		{"toggle bad id", http.MethodPatch, "/api/expenses/abc/toggle", http.StatusBadRequest},
		{"toggle income", http.MethodPatch, "/api/expenses/" + itoa(salary.ID) + "/toggle", http.StatusUnprocessableEntity},
		{"delete unknown id", http.MethodDelete, "/api/expenses/999", http.StatusNotFound},
		{"delete bad id", http.MethodDelete, "/api/expenses/0", http.StatusBadRequest},
		{"wrong method", http.MethodPut, "/api/expenses/1", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, tt.method, tt.path, "")
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
		})
	}

	got, err := st.Get(context.Background(), salary.ID)
	require.NoError(t, err)
	assert.False(t, got.IsPaid, "rejected toggle must not change state")
}

func TestRateLimitAppliesToMutationsOnly(t *testing.T) {
	srv := newTestServer(t, memory.New(), Options{RateLimitPerMinute: 1})

	rec := do(t, srv, http.MethodPost, "/api/expenses", `{"title":"a","amount":"1","type":"chi"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/expenses", `{"title":"b","amount":"1","type":"chi"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.NotEmpty(t, decode[ErrorBody](t, rec).Message)

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/api/expenses", "").Code)
	}
}

func TestRateLimitKeysOnForwardedClientBehindTrustedProxy(t *testing.T) {
	post := func(srv *Server, client string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/expenses", strings.NewReader(`{"title":"a","amount":"1","type":"chi"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", client)
		rec := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, req)
		return rec.Code
	}

	// httptest requests come from 192.0.2.1
	trusted := newTestServer(t, memory.New(), Options{RateLimitPerMinute: 1, TrustedProxies: []string{"192.0.2.0/24"}})
	assert.Equal(t, http.StatusCreated, post(trusted, "203.0.113.1"))
	assert.Equal(t, http.StatusCreated, post(trusted, "203.0.113.2"))
	assert.Equal(t, http.StatusTooManyRequests, post(trusted, "203.0.113.1"))

	untrusted := newTestServer(t, memory.New(), Options{RateLimitPerMinute: 1})
	assert.Equal(t, http.StatusCreated, post(untrusted, "203.0.113.1"))
	assert.Equal(t, http.StatusTooManyRequests, post(untrusted, "203.0.113.2"))
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, memory.New(), Options{CORSAllowedOrigins: []string{"http://localhost:5173"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/expenses/1/toggle", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
