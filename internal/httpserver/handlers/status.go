package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/snoozzd/internal/domain"
	"github.com/MrSnakeDoc/snoozzd/internal/httpserver/deps"
)

type componentStatus struct {
	OK      bool   `json:"ok"`
	Mode    string `json:"mode,omitempty"`
	Impact  string `json:"impact,omitempty"`
	Clients *int   `json:"clients,omitempty"`
	Error   string `json:"error,omitempty"`
}

type itemCounts struct {
	Pending   int `json:"pending"`
	Paused    int `json:"paused"`
	Delivered int `json:"delivered"`
}

type lastRun struct {
	At          string   `json:"at"`
	Woken       []string `json:"woken,omitempty"`
	Failed      []string `json:"failed,omitempty"`
	Deleted     []string `json:"deleted,omitempty"`
	Rescheduled []string `json:"rescheduled,omitempty"`
}

type statusResponse struct {
	Mode       string                     `json:"mode"`
	NextAlarm  string                     `json:"next_alarm,omitempty"`
	Items      *itemCounts                `json:"items,omitempty"`
	LastRun    *lastRun                   `json:"last_run,omitempty"`
	Components map[string]componentStatus `json:"components"`
}

// Status summarises the wake engine: armed alarm, record counts, the last
// evaluation pass and the health of storage and browser links.
func Status(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := statusResponse{Components: map[string]componentStatus{
			"storage": checkStorage(ctx, d),
			"browser": checkBrowser(d),
		}}

		if items, err := d.Store.List(ctx); err == nil {
			resp.Items = countItems(items)
		}
		if at, ok := d.Alarm.Armed(); ok {
			resp.NextAlarm = at.In(d.Location).Format(time.RFC3339)
		}
		if at, res := d.Runner.LastRun(); !at.IsZero() {
			resp.LastRun = &lastRun{
				At:          at.In(d.Location).Format(time.RFC3339),
				Woken:       res.Woken,
				Failed:      res.Failed,
				Deleted:     res.Deleted,
				Rescheduled: res.Rescheduled,
			}
		}

		resp.Mode = determineMode(resp.Components)
		writeJSON(w, http.StatusOK, resp)
	}
}

func countItems(items []*domain.Item) *itemCounts {
	c := &itemCounts{}
	for _, it := range items {
		switch it.Status {
		case domain.StatusPending:
			c.Pending++
		case domain.StatusPaused:
			c.Paused++
		case domain.StatusDelivered:
			c.Delivered++
		}
	}
	return c
}

func determineMode(components map[string]componentStatus) string {
	// Without storage nothing can be scheduled
	if s, ok := components["storage"]; ok && !s.OK {
		return "critical"
	}
	// Without a browser, due items are retired without opening
	if b, ok := components["browser"]; ok && !b.OK {
		return "degraded"
	}
	return "ok"
}

func checkStorage(ctx context.Context, d deps.Deps) componentStatus {
	if err := d.Backend.Ping(ctx); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   d.StorageName,
			Impact: "scheduling-disabled",
			Error:  err.Error(),
		}
	}
	return componentStatus{OK: true, Mode: d.StorageName}
}

func checkBrowser(d deps.Deps) componentStatus {
	n := d.Hub.Connected()
	if n == 0 {
		return componentStatus{
			OK:      false,
			Impact:  "wakes-not-opened",
			Clients: &n,
			Error:   "no browser connected",
		}
	}
	return componentStatus{OK: true, Clients: &n}
}
