package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/snoozzd/internal/httpserver/deps"
	"github.com/MrSnakeDoc/snoozzd/internal/httpserver/handlers"
)

func init() { Register("events", registerEvents) }

func registerEvents(r chi.Router, d deps.Deps) {
	api(r, d).Post("/api/events/{event}", handlers.Event(d))
	// Long-lived: no request timeout
	guarded(r, d).Handle("/ws", d.Hub)
}
