package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/snoozzd/internal/domain"
	"github.com/MrSnakeDoc/snoozzd/internal/httpserver/deps"
	"github.com/MrSnakeDoc/snoozzd/internal/logger"
	"github.com/MrSnakeDoc/snoozzd/internal/snooze"
)

// scheduleRequest is the wake part shared by create and edit bodies.
// WakeUpTime is in epoch milliseconds.
type scheduleRequest struct {
	WakeUpTime int64                `json:"wakeUpTime,omitempty"`
	StartUp    bool                 `json:"startUp,omitempty"`
	Repeat     *domain.ScheduleRule `json:"repeat,omitempty"`
}

func (s scheduleRequest) schedule() snooze.Schedule {
	sched := snooze.Schedule{StartUp: s.StartUp, Repeat: s.Repeat}
	if s.WakeUpTime > 0 {
		sched.At = domain.FromMillis(s.WakeUpTime)
	}
	return sched
}

func (s scheduleRequest) empty() bool {
	return s.WakeUpTime == 0 && !s.StartUp && s.Repeat == nil
}

type tabRequest struct {
	domain.Tab
	scheduleRequest
}

type groupRequest struct {
	Tabs      []domain.Tab `json:"tabs"`
	Title     string       `json:"title,omitempty"`
	NewWindow *bool        `json:"newWindow,omitempty"`
	Incognito bool         `json:"incognito,omitempty"`
	scheduleRequest
}

type quickRequest struct {
	URL    string `json:"url"`
	Title  string `json:"title,omitempty"`
	Pinned bool   `json:"pinned,omitempty"`
	Link   bool   `json:"link,omitempty"`
}

type patchRequest struct {
	Paused *bool `json:"paused,omitempty"`
	scheduleRequest
}

type idsResponse struct {
	IDs []string `json:"ids"`
}

// ListSnoozed returns every record, or only ?ids=.
func ListSnoozed(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := d.Store.List(r.Context(), idsParam(r)...)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		if items == nil {
			items = []*domain.Item{}
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func SnoozeTab(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req tabRequest
		if !decode(w, r, &req) {
			return
		}
		item, err := d.Snoozer.SnoozeTab(r.Context(), req.Tab, req.schedule())
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, item)
	}
}

func SnoozeWindow(d deps.Deps) http.HandlerFunc {
	return snoozeGroup(d, d.Snoozer.SnoozeWindow)
}

func SnoozeSelection(d deps.Deps) http.HandlerFunc {
	return snoozeGroup(d, d.Snoozer.SnoozeSelection)
}

type groupSnoozer func(ctx context.Context, tabs []domain.Tab, sched snooze.Schedule, g snooze.Group) (*domain.Item, error)

func snoozeGroup(d deps.Deps, snoozeFn groupSnoozer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req groupRequest
		if !decode(w, r, &req) {
			return
		}
		if len(req.Tabs) == 0 {
			badRequest(w, "tabs is required")
			return
		}
		g := snooze.Group{Title: req.Title, NewWindow: req.NewWindow, Incognito: req.Incognito}
		item, err := snoozeFn(r.Context(), req.Tabs, req.schedule(), g)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, item)
	}
}

// QuickSnooze snoozes a URL with one of the quick-snooze choices.
func QuickSnooze(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req quickRequest
		if !decode(w, r, &req) {
			return
		}
		item, err := d.Snoozer.QuickSnooze(r.Context(), chi.URLParam(r, "choice"), snooze.QuickTarget{
			URL:    req.URL,
			Title:  req.Title,
			Pinned: req.Pinned,
			Link:   req.Link,
		})
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, item)
	}
}

// PatchSnoozed pauses, resumes or reschedules one record.
func PatchSnoozed(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req patchRequest
		if !decode(w, r, &req) {
			return
		}
		if req.Paused == nil && req.empty() {
			badRequest(w, "nothing to update")
			return
		}

		id := chi.URLParam(r, "id")
		var (
			item *domain.Item
			err  error
		)
		if !req.empty() {
			item, err = d.Snoozer.Reschedule(r.Context(), id, req.schedule())
		}
		if err == nil && req.Paused != nil {
			item, err = d.Snoozer.SetPaused(r.Context(), id, *req.Paused)
		}
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	}
}

// DeleteSnoozed removes the records listed in ?ids=.
func DeleteSnoozed(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids := idsParam(r)
		if len(ids) == 0 {
			badRequest(w, "ids is required")
			return
		}
		n, err := d.Store.Delete(r.Context(), ids...)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		d.Logger.Info("deleted items", logger.Strings("ids", ids), logger.Int("count", n))
		writeJSON(w, http.StatusOK, map[string]int{"deleted": n})
	}
}

// WakeSnoozed opens the records listed in ?ids= right away.
func WakeSnoozed(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids := idsParam(r)
		if len(ids) == 0 {
			badRequest(w, "ids is required")
			return
		}
		res, err := d.Orchestrator.WakeNow(r.Context(), ids)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		status := http.StatusOK
		if len(res.Failed) > 0 {
			status = http.StatusMultiStatus
		}
		writeJSON(w, status, res)
	}
}

// SendToHistory marks the records listed in ?ids= as opened without opening them.
func SendToHistory(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids := idsParam(r)
		if len(ids) == 0 {
			badRequest(w, "ids is required")
			return
		}
		done, err := d.Snoozer.MarkOpened(r.Context(), ids...)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		if done == nil {
			done = []string{}
		}
		writeJSON(w, http.StatusOK, idsResponse{IDs: done})
	}
}
