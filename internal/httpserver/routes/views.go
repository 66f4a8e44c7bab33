package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/snoozzd/internal/httpserver/deps"
	"github.com/MrSnakeDoc/snoozzd/internal/httpserver/handlers"
)

func init() { Register("views", registerViews) }

func registerViews(r chi.Router, d deps.Deps) {
	a := api(r, d)
	a.Get("/api/status", handlers.Status(d))
	a.Get("/api/choices", handlers.Choices(d))
	a.Get("/api/menu", handlers.Menu(d))
	a.Get("/api/badge", handlers.Badge(d))
	a.Get("/api/options", handlers.GetOptions(d))
	a.Put("/api/options", handlers.PutOptions(d))
	a.Get("/api/calendar.ics", handlers.Calendar(d))
}
