package api

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SoarinFerret/TabWarden/internal/control"
	"github.com/SoarinFerret/TabWarden/internal/export"
	"github.com/SoarinFerret/TabWarden/internal/ledger"
	"github.com/SoarinFerret/TabWarden/internal/settings"
	"github.com/SoarinFerret/TabWarden/internal/store"
)

func newTestRouter(t *testing.T) (http.Handler, *ledger.Ledger) {
	t.Helper()
	now := func() time.Time { return time.Date(2026, 9, 1, 12, 0, 0, 0, time.Local) }
	kv := store.NewMemory()
	l := ledger.New(kv, now)
	svc := control.NewService(settings.NewRepository(kv), l)
	status := func() any { return map[string]string{"domain": "a.com"} }
	return NewRouter(svc, nil, status, []string{"chrome-extension://*"}), l
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPing(t *testing.T) {
	h, _ := newTestRouter(t)
	rec := do(t, h, "GET", "/api/ping", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestStatus(t *testing.T) {
	h, _ := newTestRouter(t)
	rec := do(t, h, "GET", "/api/status", "")
	assert.JSONEq(t, `{"domain":"a.com"}`, rec.Body.String())
}

func TestLimitsLifecycle(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(t, h, "POST", "/api/limits", `{"domain":"https://www.Example.com/page","minutes":30}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"domain":"example.com"}`, rec.Body.String())

	rec = do(t, h, "GET", "/api/limits", "")
	assert.JSONEq(t, `{"example.com":1800}`, rec.Body.String())

	rec = do(t, h, "DELETE", "/api/limits/example.com", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, "GET", "/api/limits", "")
	assert.JSONEq(t, `{}`, rec.Body.String())
}

func TestAddLimit_BadRequests(t *testing.T) {
	h, _ := newTestRouter(t)

	assert.Equal(t, http.StatusBadRequest, do(t, h, "POST", "/api/limits", `{"domain":""}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, "POST", "/api/limits", `not json`).Code)
}

func TestSettingsEndpoints(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(t, h, "GET", "/api/settings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var st settings.Settings
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, settings.Defaults(), st)

	rec = do(t, h, "PUT", "/api/settings/nudges", `{"enabled":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"nudgeEnabled":false`)

	rec = do(t, h, "PUT", "/api/settings/global", `{"hours":1,"minutes":15}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"globalDailyLimit":4500`)

	rec = do(t, h, "PUT", "/api/settings/global", `{"hours":-1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTodayWeekAndDays(t *testing.T) {
	h, l := newTestRouter(t)
	ctx := context.Background()
	require.NoError(t, l.Put(ctx, "2026-09-01", ledger.Bucket{"a.com": 60, "b.com": 120}))
	require.NoError(t, l.Put(ctx, "2026-08-30", ledger.Bucket{"a.com": 5}))

	rec := do(t, h, "GET", "/api/today", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var today control.DayStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &today))
	assert.Equal(t, int64(180), today.Total)
	require.Len(t, today.Sites, 2)
	assert.Equal(t, "b.com", string(today.Sites[0].Domain))

	rec = do(t, h, "GET", "/api/week", "")
	var week []control.DayTotal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &week))
	require.Len(t, week, 7)
	assert.Equal(t, int64(5), week[4].Total)

	rec = do(t, h, "GET", "/api/days?from=2026-08-30&to=2026-08-31", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var days []ledger.Day
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &days))
	assert.Equal(t, []ledger.Day{
		{Key: "2026-08-30", Bucket: ledger.Bucket{"a.com": 5}},
		{Key: "2026-08-31", Bucket: ledger.Bucket{}},
	}, days)

	rec = do(t, h, "GET", "/api/days?day=2026-08-30", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":5`)

	assert.Equal(t, http.StatusBadRequest, do(t, h, "GET", "/api/days?from=2026-08-31&to=2026-08-30", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, "GET", "/api/days?from=yesterday&to=2026-08-30", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, "GET", "/api/days?from=2000-01-01&to=2026-08-30", "").Code)
}

func TestResetTodayAndClearAll(t *testing.T) {
	h, l := newTestRouter(t)
	ctx := context.Background()
	require.NoError(t, l.Put(ctx, "2026-09-01", ledger.Bucket{"a.com": 60}))
	require.NoError(t, l.Put(ctx, "2026-08-31", ledger.Bucket{"a.com": 60}))

	assert.Equal(t, http.StatusNoContent, do(t, h, "POST", "/api/reset-today", "").Code)
	days, err := l.Days(ctx)
	require.NoError(t, err)
	assert.Equal(t, []ledger.DayKey{"2026-08-31"}, days)

	assert.Equal(t, http.StatusNoContent, do(t, h, "POST", "/api/clear-all", "").Code)
	days, err = l.Days(ctx)
	require.NoError(t, err)
	assert.Empty(t, days)
}

func TestExportParquet(t *testing.T) {
	h, l := newTestRouter(t)
	require.NoError(t, l.Put(context.Background(), "2026-09-01", ledger.Bucket{"a.com": 60}))

	rec := do(t, h, "GET", "/api/export.parquet?days=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "attachment; filename=tabwarden-2026-09-01.parquet", rec.Header().Get("Content-Disposition"))

	rows, err := export.ReadParquet(context.Background(), rec.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, []export.Row{{Day: "2026-09-01", Domain: "a.com", Seconds: 60}}, rows)

	assert.Equal(t, http.StatusBadRequest, do(t, h, "GET", "/api/export.parquet?days=0", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, "GET", "/api/export.parquet?days=x", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, "GET", "/api/export.parquet?days=367", "").Code)
}

func TestCORS(t *testing.T) {
	h, _ := newTestRouter(t)

	req := httptest.NewRequest("GET", "/api/ping", nil)
	req.Header.Set("Origin", "chrome-extension://abcdef")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "chrome-extension://abcdef", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest("GET", "/api/ping", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMutationsRejectForeignOriginsAndNonJSON(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		target      string
		origin      string
		contentType string
		body        string
		expected    int
	}{
		{"Reset from web page", "POST", "/api/reset-today", "https://evil.example", "", "", http.StatusForbidden},
		{"Clear from web page", "POST", "/api/clear-all", "https://evil.example", "", "", http.StatusForbidden},
		{"Limit from web page", "POST", "/api/limits", "https://evil.example", "application/json", `{"domain":"a.com"}`, http.StatusForbidden},
		{"Plain text body", "POST", "/api/limits", "", "text/plain", `{"domain":"a.com"}`, http.StatusUnsupportedMediaType},
		{"Form body", "PUT", "/api/settings/nudges", "", "application/x-www-form-urlencoded", `enabled=false`, http.StatusUnsupportedMediaType},
		{"Reset from extension", "POST", "/api/reset-today", "chrome-extension://abcdef", "", "", http.StatusNoContent},
		{"Reset from twctl", "POST", "/api/reset-today", "", "", "", http.StatusNoContent},
		{"Limit with charset", "POST", "/api/limits", "chrome-extension://abcdef", "application/json; charset=utf-8", `{"domain":"a.com"}`, http.StatusCreated},
		{"Read from web page", "GET", "/api/today", "https://evil.example", "", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, l := newTestRouter(t)
			ctx := context.Background()
			require.NoError(t, l.Put(ctx, l.Today(), ledger.Bucket{"a.com": 60}))

			var body io.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			req := httptest.NewRequest(tt.method, tt.target, body)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.expected, rec.Code)

			if tt.expected == http.StatusForbidden {
				bucket, err := l.Get(ctx, l.Today())
				require.NoError(t, err)
				assert.Equal(t, ledger.Bucket{"a.com": 60}, bucket)
			}
		})
	}
}

func TestOriginAllowed(t *testing.T) {
	patterns := []string{"chrome-extension://*", "http://localhost:*"}
	assert.True(t, originAllowed("chrome-extension://abcdef", patterns))
	assert.True(t, originAllowed("http://localhost:5173", patterns))
	assert.False(t, originAllowed("https://evil.example", patterns))
	assert.False(t, originAllowed("moz-extension://abcdef", patterns))
	assert.True(t, originAllowed("https://evil.example", []string{"*"}))
	assert.False(t, originAllowed("https://evil.example", nil))
}

func TestServe_StopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	h, _ := newTestRouter(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, ln, h) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/api/ping")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
