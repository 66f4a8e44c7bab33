package browser

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/MrSnakeDoc/snoozzd/internal/domain"
	"github.com/MrSnakeDoc/snoozzd/internal/logger"
	"github.com/MrSnakeDoc/snoozzd/internal/notify"
)

type incoming struct {
	ID     uint64          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

// fakeBrowser answers hub commands with respond until ctx is done.
func fakeBrowser(ctx context.Context, t *testing.T, conn *websocket.Conn, respond func(incoming) message) {
	t.Helper()
	go func() {
		for {
			var req incoming
			if err := wsjson.Read(ctx, conn, &req); err != nil {
				return
			}
			resp := respond(req)
			resp.ID = req.ID
			if err := wsjson.Write(ctx, conn, resp); err != nil {
				return
			}
		}
	}()
}

func connect(t *testing.T, hub *Hub) (*websocket.Conn, func()) {
	t.Helper()
	srv := httptest.NewServer(hub)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		srv.Close()
		t.Fatalf("dial failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for hub.Connected() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("hub never registered the client")
		}
		time.Sleep(5 * time.Millisecond)
	}

	return conn, func() {
		_ = conn.Close(websocket.StatusNormalClosure, "")
		srv.Close()
	}
}

func TestHub_NoClient(t *testing.T) {
	hub := NewHub(time.Second, nil, logger.Nop())

	_, err := hub.Windows(context.Background())
	if !errors.Is(err, ErrNoClient) {
		t.Fatalf("Expected ErrNoClient, got %v", err)
	}
	if !errors.Is(err, domain.ErrDeliveryFailure) {
		t.Error("ErrNoClient should be a delivery failure")
	}
}

func TestHub_Commands(t *testing.T) {
	hub := NewHub(2*time.Second, nil, logger.Nop())
	conn, cleanup := connect(t, hub)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var created TabSpec
	fakeBrowser(ctx, t, conn, func(req incoming) message {
		switch req.Method {
		case MethodWindows:
			return message{Result: json.RawMessage(`[{"id":1},{"id":2,"incognito":true}]`)}
		case MethodCreateTab:
			_ = json.Unmarshal(req.Params, &created)
			return message{}
		case MethodNotify:
			return message{Error: "notifications blocked"}
		}
		return message{Error: "unknown method " + req.Method}
	})

	wins, err := hub.Windows(ctx)
	if err != nil {
		t.Fatalf("Windows failed: %v", err)
	}
	if len(wins) != 2 || !wins[1].Incognito {
		t.Errorf("Unexpected windows %+v", wins)
	}

	if err := hub.CreateTab(ctx, TabSpec{URL: "https://example.com", WindowID: 2, Pinned: true}); err != nil {
		t.Fatalf("CreateTab failed: %v", err)
	}
	if created.URL != "https://example.com" || created.WindowID != 2 || !created.Pinned {
		t.Errorf("Browser received %+v", created)
	}

	err = hub.Show(ctx, notify.Notification{Title: "A tab woke up!"})
	if !errors.Is(err, domain.ErrDeliveryFailure) {
		t.Errorf("Expected delivery failure, got %v", err)
	}
}

func TestHub_Timeout(t *testing.T) {
	hub := NewHub(100*time.Millisecond, nil, logger.Nop())
	_, cleanup := connect(t, hub)
	defer cleanup()

	// The client never answers
	err := hub.FocusWindow(context.Background(), 1)
	if !errors.Is(err, domain.ErrDeliveryFailure) {
		t.Fatalf("Expected delivery failure, got %v", err)
	}
}

func TestHub_Events(t *testing.T) {
	tests := []struct {
		name string
		sent map[string]string
		want Event
	}{
		{name: "lifecycle", sent: map[string]string{"event": "online"}, want: Event{Name: "online"}},
		{
			name: "notification click",
			sent: map[string]string{"event": EventClick, "notification": "a1b2"},
			want: Event{Name: EventClick, Notification: "a1b2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hub := NewHub(time.Second, nil, logger.Nop())
			conn, cleanup := connect(t, hub)
			defer cleanup()

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			if err := wsjson.Write(ctx, conn, tt.sent); err != nil {
				t.Fatalf("write failed: %v", err)
			}

			select {
			case ev := <-hub.Events():
				if ev != tt.want {
					t.Errorf("Expected %+v, got %+v", tt.want, ev)
				}
			case <-ctx.Done():
				t.Fatal("event never arrived")
			}
		})
	}
}

func TestHub_FocusCommands(t *testing.T) {
	hub := NewHub(2*time.Second, nil, logger.Nop())
	conn, cleanup := connect(t, hub)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := make(chan incoming, 8)
	fakeBrowser(ctx, t, conn, func(req incoming) message {
		calls <- req
		if req.Method == MethodTabs {
			return message{Result: json.RawMessage(`[{"id":7,"windowId":3,"url":"https://example.com/a","active":true}]`)}
		}
		return message{}
	})

	tabs, err := hub.Tabs(ctx, 3)
	if err != nil {
		t.Fatalf("Tabs failed: %v", err)
	}
	want := Tab{ID: 7, WindowID: 3, URL: "https://example.com/a", Active: true}
	if len(tabs) != 1 || tabs[0] != want {
		t.Errorf("Expected %+v, got %+v", want, tabs)
	}
	if err := hub.ActivateTab(ctx, 7); err != nil {
		t.Fatalf("ActivateTab failed: %v", err)
	}
	if err := hub.ClearNotification(ctx, "a1b2"); err != nil {
		t.Fatalf("ClearNotification failed: %v", err)
	}
	if err := hub.OpenNapRoom(ctx); err != nil {
		t.Fatalf("OpenNapRoom failed: %v", err)
	}

	expected := []struct {
		method string
		params string
	}{
		{MethodTabs, `{"windowId":3}`},
		{MethodActivateTab, `{"id":7}`},
		{MethodClearNotify, `{"id":"a1b2"}`},
		{MethodNapRoom, ``},
	}
	for _, e := range expected {
		req := <-calls
		if req.Method != e.method {
			t.Errorf("Expected method %s, got %s", e.method, req.Method)
			continue
		}
		if e.params != "" && string(req.Params) != e.params {
			t.Errorf("%s: expected params %s, got %s", e.method, e.params, req.Params)
		}
	}
}
