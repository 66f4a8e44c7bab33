package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/snoozzd/internal/httpserver/deps"
	"github.com/MrSnakeDoc/snoozzd/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/snoozzd/internal/httpserver/mw"
)

func init() { Register("snoozed", registerSnoozed) }

func registerSnoozed(r chi.Router, d deps.Deps) {
	a := api(r, d)
	a.Get("/api/snoozed", handlers.ListSnoozed(d))
	a.Patch("/api/snoozed/{id}", handlers.PatchSnoozed(d))
	a.Delete("/api/snoozed", handlers.DeleteSnoozed(d))
	a.Post("/api/snoozed/history", handlers.SendToHistory(d))

	create := a.With(mw.RateLimit(mw.RateLimitConfig{
		Burst:             d.RateLimit,
		RefillPerIPPerMin: d.RateLimit,
		MaxEntries:        4096,
		TrustProxy:        d.TrustProxy,
		Clock:             d.Clock,
	}))
	create.Post("/api/snoozed/tab", handlers.SnoozeTab(d))
	create.Post("/api/snoozed/window", handlers.SnoozeWindow(d))
	create.Post("/api/snoozed/selection", handlers.SnoozeSelection(d))
	create.Post("/api/snoozed/quick/{choice}", handlers.QuickSnooze(d))

	// Waking opens tabs through the browser, one call at a time
	guarded(r, d).With(middleware.Timeout(wakeTimeout)).Post("/api/snoozed/wake", handlers.WakeSnoozed(d))
}
