// Package browser drives connected browser clients over a websocket: it opens
// tabs and windows and shows notifications on the daemon's behalf.
package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/MrSnakeDoc/snoozzd/internal/domain"
	"github.com/MrSnakeDoc/snoozzd/internal/logger"
	"github.com/MrSnakeDoc/snoozzd/internal/notify"
)

// ErrNoClient is returned when no browser is connected.
var ErrNoClient = fmt.Errorf("%w: no browser connected", domain.ErrDeliveryFailure)

// Commands sent to the browser.
const (
	MethodWindows      = "windows"
	MethodCreateWindow = "createWindow"
	MethodCreateTab    = "createTab"
	MethodFocusWindow  = "focusWindow"
	MethodTabs         = "tabs"
	MethodActivateTab  = "activateTab"
	MethodNapRoom      = "openNapRoom"
	MethodNotify       = "notify"
	MethodClearNotify  = "clearNotification"
)

// EventClick is sent by a client when the user clicks a notification.
const EventClick = "click"

// Event is a message a client sends on its own: a lifecycle event
// ("startup", "idle", "online") or a notification click.
type Event struct {
	Name string
	// Notification is the clicked notification id, set for EventClick.
	Notification string
}

// Window is a browser window as reported by the client.
type Window struct {
	ID        int  `json:"id"`
	Incognito bool `json:"incognito,omitempty"`
	Focused   bool `json:"focused,omitempty"`
}

// WindowSpec describes a window to create.
type WindowSpec struct {
	URL       string `json:"url,omitempty"`
	Incognito bool   `json:"incognito,omitempty"`
}

// Tab is an open tab as reported by the client.
type Tab struct {
	ID       int    `json:"id"`
	WindowID int    `json:"windowId"`
	URL      string `json:"url"`
	Active   bool   `json:"active,omitempty"`
}

// TabSpec describes a tab to create. A zero WindowID uses the current window.
type TabSpec struct {
	URL      string `json:"url"`
	WindowID int    `json:"windowId,omitempty"`
	Active   bool   `json:"active"`
	Pinned   bool   `json:"pinned,omitempty"`
}

type request struct {
	ID     uint64 `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

// message is anything a client sends: a response to a request, or an event.
type message struct {
	ID           uint64          `json:"id,omitempty"`
	Result       json.RawMessage `json:"result,omitempty"`
	Error        string          `json:"error,omitempty"`
	Event        string          `json:"event,omitempty"`
	Notification string          `json:"notification,omitempty"`
}

type client struct {
	conn    *websocket.Conn
	mu      sync.Mutex
	pending map[uint64]chan message
	done    chan struct{}
}

// Hub tracks connected clients and sends commands to the most recent one.
type Hub struct {
	timeout time.Duration
	origins []string
	logger  logger.Logger

	mu      sync.Mutex
	clients []*client
	nextID  atomic.Uint64
	events  chan Event
}

// NewHub creates a hub. origins are the accepted Origin host patterns; each
// command waits at most timeout for its response.
func NewHub(timeout time.Duration, origins []string, log logger.Logger) *Hub {
	return &Hub{
		timeout: timeout,
		origins: origins,
		logger:  log,
		events:  make(chan Event, 16),
	}
}

// ServeHTTP upgrades the request and serves the client until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Server read/write timeouts do not apply to a long-lived connection
	rc := http.NewResponseController(w)
	_ = rc.SetReadDeadline(time.Time{})
	_ = rc.SetWriteDeadline(time.Time{})

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.origins,
	})
	if err != nil {
		h.logger.Warn("websocket upgrade failed", logger.Error(err))
		return
	}

	c := &client{
		conn:    conn,
		pending: make(map[uint64]chan message),
		done:    make(chan struct{}),
	}
	h.add(c)
	h.logger.Info("browser connected",
		logger.String("remote", r.RemoteAddr),
		logger.Int("clients", h.Connected()))

	err = h.read(r.Context(), c)

	h.remove(c)
	close(c.done)
	_ = conn.Close(websocket.StatusNormalClosure, "")

	if websocket.CloseStatus(err) == websocket.StatusNormalClosure || errors.Is(err, context.Canceled) {
		h.logger.Info("browser disconnected", logger.Int("clients", h.Connected()))
		return
	}
	h.logger.Warn("browser connection lost", logger.Error(err))
}

func (h *Hub) read(ctx context.Context, c *client) error {
	for {
		var msg message
		if err := wsjson.Read(ctx, c.conn, &msg); err != nil {
			return err
		}

		if msg.Event != "" {
			select {
			case h.events <- Event{Name: msg.Event, Notification: msg.Notification}:
			default:
				h.logger.Warn("dropping browser event", logger.String("event", msg.Event))
			}
			continue
		}

		c.mu.Lock()
		ch, ok := c.pending[msg.ID]
		delete(c.pending, msg.ID)
		c.mu.Unlock()
		if ok {
			ch <- msg
		}
	}
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients = append(h.clients, c)
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, existing := range h.clients {
		if existing == c {
			h.clients = append(h.clients[:i], h.clients[i+1:]...)
			return
		}
	}
}

func (h *Hub) latest() *client {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.clients) == 0 {
		return nil
	}
	return h.clients[len(h.clients)-1]
}

// Connected returns the number of connected clients.
func (h *Hub) Connected() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Events delivers lifecycle events and notification clicks sent by clients.
func (h *Hub) Events() <-chan Event { return h.events }

func (h *Hub) call(ctx context.Context, method string, params, result any) error {
	c := h.latest()
	if c == nil {
		return ErrNoClient
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	id := h.nextID.Add(1)
	ch := make(chan message, 1)
	c.mu.Lock()
	c.pending[id] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	if err := wsjson.Write(ctx, c.conn, request{ID: id, Method: method, Params: params}); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrDeliveryFailure, method, err)
	}

	select {
	case msg := <-ch:
		if msg.Error != "" {
			return fmt.Errorf("%w: %s: %s", domain.ErrDeliveryFailure, method, msg.Error)
		}
		if result != nil && len(msg.Result) > 0 {
			if err := json.Unmarshal(msg.Result, result); err != nil {
				return fmt.Errorf("%w: %s: bad result: %w", domain.ErrDeliveryFailure, method, err)
			}
		}
		return nil
	case <-c.done:
		return fmt.Errorf("%w: %s: browser disconnected", domain.ErrDeliveryFailure, method)
	case <-ctx.Done():
		return fmt.Errorf("%w: %s: %w", domain.ErrDeliveryFailure, method, ctx.Err())
	}
}

// Windows lists the normal browser windows.
func (h *Hub) Windows(ctx context.Context) ([]Window, error) {
	var wins []Window
	if err := h.call(ctx, MethodWindows, nil, &wins); err != nil {
		return nil, err
	}
	return wins, nil
}

func (h *Hub) CreateWindow(ctx context.Context, spec WindowSpec) (Window, error) {
	var w Window
	err := h.call(ctx, MethodCreateWindow, spec, &w)
	return w, err
}

func (h *Hub) CreateTab(ctx context.Context, spec TabSpec) error {
	return h.call(ctx, MethodCreateTab, spec, nil)
}

func (h *Hub) FocusWindow(ctx context.Context, id int) error {
	return h.call(ctx, MethodFocusWindow, map[string]int{"id": id}, nil)
}

// Tabs lists the tabs of one window, in tab order.
func (h *Hub) Tabs(ctx context.Context, windowID int) ([]Tab, error) {
	var tabs []Tab
	if err := h.call(ctx, MethodTabs, map[string]int{"windowId": windowID}, &tabs); err != nil {
		return nil, err
	}
	return tabs, nil
}

func (h *Hub) ActivateTab(ctx context.Context, id int) error {
	return h.call(ctx, MethodActivateTab, map[string]int{"id": id}, nil)
}

// OpenNapRoom shows the client's list of sleeping items.
func (h *Hub) OpenNapRoom(ctx context.Context) error {
	return h.call(ctx, MethodNapRoom, nil, nil)
}

func (h *Hub) ClearNotification(ctx context.Context, id string) error {
	return h.call(ctx, MethodClearNotify, map[string]string{"id": id}, nil)
}

// Show displays n as a browser notification.
func (h *Hub) Show(ctx context.Context, n notify.Notification) error {
	return h.call(ctx, MethodNotify, n, nil)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := append([]*client(nil), h.clients...)
	h.mu.Unlock()

	for _, c := range clients {
		_ = c.conn.Close(websocket.StatusGoingAway, "server shutting down")
	}
}
