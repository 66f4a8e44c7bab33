package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jmhodges/clock"

	"github.com/MrSnakeDoc/snoozzd/internal/alarm"
	"github.com/MrSnakeDoc/snoozzd/internal/browser"
	"github.com/MrSnakeDoc/snoozzd/internal/domain"
	"github.com/MrSnakeDoc/snoozzd/internal/httpserver/deps"
	"github.com/MrSnakeDoc/snoozzd/internal/logger"
	"github.com/MrSnakeDoc/snoozzd/internal/notify"
	"github.com/MrSnakeDoc/snoozzd/internal/scheduler"
	"github.com/MrSnakeDoc/snoozzd/internal/snooze"
	"github.com/MrSnakeDoc/snoozzd/internal/store/memory"
)

// Friday 16 October 2026, 10:10 UTC
var testNow = time.Date(2026, time.October, 16, 10, 10, 0, 0, time.UTC)

type testServer struct {
	handler http.Handler
	store   *snooze.Store
	clk     clock.FakeClock
}

func newTestServer(t *testing.T, modify func(*deps.Deps)) *testServer {
	t.Helper()
	log := logger.Nop()

	clk := clock.NewFake()
	clk.Set(testNow)
	backend := memory.New()
	st := snooze.NewStore(backend, domain.DefaultOptions())

	hub := browser.NewHub(100*time.Millisecond, []string{"*"}, log)
	host := alarm.NewTimerHost(clk, 30*time.Second)
	coord := alarm.NewCoordinator(host, clk, 3*time.Second, log)
	t.Cleanup(func() {
		coord.Stop()
		host.Close()
		hub.Close()
	})

	notifier := notify.NewLog(log)
	orch := scheduler.NewOrchestrator(st, coord, scheduler.NewDeliverer(hub, notifier, log), clk, scheduler.Settings{
		Horizon:      time.Hour,
		DueTolerance: 5 * time.Second,
		Location:     time.UTC,
	}, log)
	launcher := scheduler.NewLauncher(st, orch, clk, log)

	d := deps.Deps{
		Logger:         log,
		StartTime:      testNow.Add(-time.Minute),
		Version:        "test",
		Clock:          clk,
		Location:       time.UTC,
		AllowedOrigins: []string{"*"},
		StorageName:    "memory",
		Backend:        backend,
		Store:          st,
		Snoozer:        snooze.NewSnoozer(st, notifier, clk, time.UTC, false, log),
		Orchestrator:   orch,
		Runner:         scheduler.NewRunner(orch, launcher, scheduler.NewClickHandler(st, hub, log), st, backend, coord, nil, clk, log, time.Hour),
		Alarm:          coord,
		Hub:            hub,
	}
	if modify != nil {
		modify(&d)
	}

	return &testServer{handler: NewRouter(log, d), store: st, clk: clk}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func (s *testServer) createTab(t *testing.T, url string, wake time.Time) *domain.Item {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/snoozed/tab", map[string]any{
		"url":        url,
		"title":      "A tab",
		"wakeUpTime": domain.Millis(wake),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Create returned %d: %s", rec.Code, rec.Body.String())
	}
	return decodeBody[*domain.Item](t, rec)
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t, nil)

	for _, path := range []string{"/healthz", "/readyz"} {
		if rec := s.do(t, http.MethodGet, path, nil); rec.Code != http.StatusOK {
			t.Errorf("%s returned %d", path, rec.Code)
		}
	}
}

func TestSnoozedLifecycle(t *testing.T) {
	s := newTestServer(t, nil)
	item := s.createTab(t, "https://example.com/read-later", testNow.Add(2*time.Hour))

	rec := s.do(t, http.MethodGet, "/api/snoozed", nil)
	if items := decodeBody[[]*domain.Item](t, rec); len(items) != 1 || items[0].ID != item.ID {
		t.Fatalf("Unexpected list %+v", items)
	}
	rec = s.do(t, http.MethodGet, "/api/snoozed?ids=someone-else", nil)
	if items := decodeBody[[]*domain.Item](t, rec); len(items) != 0 {
		t.Errorf("Filter returned %d items", len(items))
	}

	rec = s.do(t, http.MethodPatch, "/api/snoozed/"+item.ID, map[string]any{"paused": true})
	if rec.Code != http.StatusOK || decodeBody[*domain.Item](t, rec).Status != domain.StatusPaused {
		t.Errorf("Pause returned %d", rec.Code)
	}
	if rec := s.do(t, http.MethodPatch, "/api/snoozed/missing", map[string]any{"paused": true}); rec.Code != http.StatusNotFound {
		t.Errorf("Patching a missing item returned %d", rec.Code)
	}
	if rec := s.do(t, http.MethodPatch, "/api/snoozed/"+item.ID, map[string]any{}); rec.Code != http.StatusBadRequest {
		t.Errorf("Empty patch returned %d", rec.Code)
	}

	rec = s.do(t, http.MethodPost, "/api/snoozed/history?ids="+item.ID, nil)
	if ids := decodeBody[map[string][]string](t, rec)["ids"]; len(ids) != 1 {
		t.Errorf("History returned %v", ids)
	}

	if rec := s.do(t, http.MethodDelete, "/api/snoozed", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("Delete without ids returned %d", rec.Code)
	}
	rec = s.do(t, http.MethodDelete, "/api/snoozed?ids="+item.ID+",missing", nil)
	if n := decodeBody[map[string]int](t, rec)["deleted"]; n != 1 {
		t.Errorf("Expected 1 deletion, got %d", n)
	}
}

func TestCreateRejections(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name   string
		path   string
		body   any
		status int
	}{
		{"malformed json", "/api/snoozed/tab", "{not json", http.StatusBadRequest},
		{"bad scheme", "/api/snoozed/tab", map[string]any{"url": "chrome://settings", "startUp": true}, http.StatusUnprocessableEntity},
		{"past time", "/api/snoozed/tab", map[string]any{"url": "https://example.com", "wakeUpTime": domain.Millis(testNow.Add(-time.Hour))}, http.StatusUnprocessableEntity},
		{"unknown rule", "/api/snoozed/tab", map[string]any{"url": "https://example.com", "repeat": map[string]any{"type": "yearly"}}, http.StatusUnprocessableEntity},
		{"empty window", "/api/snoozed/window", map[string]any{"startUp": true}, http.StatusBadRequest},
		{"unknown choice", "/api/snoozed/quick/someday", map[string]any{"url": "https://example.com"}, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := s.do(t, http.MethodPost, tt.path, tt.body); rec.Code != tt.status {
				t.Errorf("Expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
		})
	}

	items, _ := s.store.List(context.Background())
	if len(items) != 0 {
		t.Errorf("Rejected requests created %d items", len(items))
	}
}

func TestGroupAndQuickSnooze(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodPost, "/api/snoozed/selection", map[string]any{
		"tabs":    []domain.Tab{{URL: "https://a.example.com"}, {URL: "https://b.example.com"}},
		"startUp": true,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Selection returned %d: %s", rec.Code, rec.Body.String())
	}
	if item := decodeBody[*domain.Item](t, rec); item.Kind != domain.KindSelection || len(item.Tabs) != 2 {
		t.Errorf("Unexpected selection %+v", item)
	}

	rec = s.do(t, http.MethodPost, "/api/snoozed/quick/tom-morning", map[string]any{"url": "https://example.com/post"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Quick snooze returned %d: %s", rec.Code, rec.Body.String())
	}
	want := time.Date(2026, time.October, 17, 9, 0, 0, 0, time.UTC)
	if item := decodeBody[*domain.Item](t, rec); !item.WakeUpTime.Equal(want) {
		t.Errorf("Quick snooze woke at %v, want %v", item.WakeUpTime, want)
	}
}

func TestWakeWithoutBrowser(t *testing.T) {
	s := newTestServer(t, nil)
	item := s.createTab(t, "https://example.com", testNow.Add(time.Hour))

	rec := s.do(t, http.MethodPost, "/api/snoozed/wake?ids="+item.ID, nil)
	if rec.Code != http.StatusMultiStatus {
		t.Fatalf("Expected 207 without a browser, got %d", rec.Code)
	}
	res := decodeBody[scheduler.TickResult](t, rec)
	if len(res.Woken) != 1 || len(res.Failed) != 1 {
		t.Errorf("Unexpected result %+v", res)
	}
}

func TestOptionsAndViews(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodPut, "/api/options", `{"hourFormat":24,"badge":"all"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Put options returned %d: %s", rec.Code, rec.Body.String())
	}
	opts := decodeBody[domain.Options](t, s.do(t, http.MethodGet, "/api/options", nil))
	if opts.HourFormat != 24 || opts.Badge != "all" || opts.Morning != domain.At(9, 0) {
		t.Errorf("Options not merged: %+v", opts)
	}
	if rec := s.do(t, http.MethodPut, "/api/options", `{"history":`); rec.Code != http.StatusBadRequest {
		t.Errorf("Broken options returned %d", rec.Code)
	}

	s.createTab(t, "https://example.com", testNow.Add(time.Hour))

	badge := decodeBody[map[string]any](t, s.do(t, http.MethodGet, "/api/badge", nil))
	if badge["text"] != "1" {
		t.Errorf("Unexpected badge %v", badge)
	}
	if choices := decodeBody[[]map[string]any](t, s.do(t, http.MethodGet, "/api/choices", nil)); len(choices) != 10 {
		t.Errorf("Expected 10 choices, got %d", len(choices))
	}
	if menu := decodeBody[[]map[string]any](t, s.do(t, http.MethodGet, "/api/menu", nil)); len(menu) == 0 {
		t.Error("Expected context menu entries")
	}

	status := decodeBody[map[string]any](t, s.do(t, http.MethodGet, "/api/status", nil))
	if status["mode"] != "degraded" {
		t.Errorf("Without a browser the mode should be degraded, got %v", status["mode"])
	}
}

func TestCalendarFeed(t *testing.T) {
	s := newTestServer(t, nil)

	if rec := s.do(t, http.MethodGet, "/api/calendar.ics", nil); rec.Code != http.StatusNoContent {
		t.Errorf("Empty feed returned %d", rec.Code)
	}

	s.createTab(t, "https://example.com", testNow.Add(time.Hour))
	rec := s.do(t, http.MethodGet, "/api/calendar.ics", nil)
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/calendar") {
		t.Fatalf("Feed returned %d %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Body.String(), "BEGIN:VEVENT") {
		t.Error("Feed has no event")
	}
}

func TestEvents(t *testing.T) {
	s := newTestServer(t, nil)

	if rec := s.do(t, http.MethodPost, "/api/events/check", nil); rec.Code != http.StatusAccepted {
		t.Errorf("check returned %d", rec.Code)
	}
	if rec := s.do(t, http.MethodPost, "/api/events/reboot", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown event returned %d", rec.Code)
	}
}

func TestAccessRestrictions(t *testing.T) {
	s := newTestServer(t, func(d *deps.Deps) {
		d.AllowedHosts = []string{"snoozz.domain.ext"}
		d.AllowedOrigins = []string{"abcdefgh"}
		d.RateLimit = 1
	})

	if rec := s.do(t, http.MethodGet, "/api/snoozed", nil); rec.Code != http.StatusForbidden {
		t.Errorf("Foreign host returned %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodOptions, "/api/snoozed", nil)
	req.Header.Set("Origin", "chrome-extension://abcdefgh")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || rec.Header().Get("Access-Control-Allow-Origin") != "chrome-extension://abcdefgh" {
		t.Errorf("Preflight returned %d %v", rec.Code, rec.Header())
	}

	create := func() int {
		body := strings.NewReader(`{"url":"https://example.com","startUp":true}`)
		req := httptest.NewRequest(http.MethodPost, "/api/snoozed/tab", body)
		req.Host = "snoozz.domain.ext"
		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, req)
		return rec.Code
	}
	if code := create(); code != http.StatusCreated {
		t.Fatalf("First create returned %d", code)
	}
	if code := create(); code != http.StatusTooManyRequests {
		t.Errorf("Second create should be rate limited, got %d", code)
	}
	s.clk.Add(2 * time.Minute)
	if code := create(); code != http.StatusCreated {
		t.Errorf("Bucket should refill, got %d", code)
	}
}
