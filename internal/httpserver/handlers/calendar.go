package handlers

import (
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/snoozzd/internal/calendar"
	"github.com/MrSnakeDoc/snoozzd/internal/httpserver/deps"
)

// Calendar serves the pending wakes as an iCalendar feed.
func Calendar(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := d.Store.List(r.Context())
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}

		data, err := calendar.Feed(items, d.Clock.Now(), d.Location)
		if errors.Is(err, calendar.ErrEmptyFeed) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}

		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.Header().Set("Content-Disposition", `inline; filename="snoozz.ics"`)
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(data)
	}
}
