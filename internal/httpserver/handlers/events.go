package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/snoozzd/internal/httpserver/deps"
	"github.com/MrSnakeDoc/snoozzd/internal/logger"
	"github.com/MrSnakeDoc/snoozzd/internal/scheduler"
)

// Event queues a host lifecycle trigger (startup, idle, online, check).
func Event(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		event := chi.URLParam(r, "event")
		switch event {
		case scheduler.EventStartup, scheduler.EventIdle, scheduler.EventOnline, scheduler.EventCheck:
		default:
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown event " + event})
			return
		}

		if err := d.Runner.Trigger(event); err != nil {
			d.Logger.Warn("lifecycle event dropped",
				logger.String("event", event),
				logger.String("remote_ip", r.RemoteAddr),
				logger.Error(err))
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: err.Error()})
			return
		}

		d.Logger.Info("lifecycle event triggered via endpoint",
			logger.String("event", event),
			logger.String("remote_ip", r.RemoteAddr))
		writeJSON(w, http.StatusAccepted, map[string]string{"event": event})
	}
}
