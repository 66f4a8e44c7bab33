package routes

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/snoozzd/internal/httpserver/deps"
	"github.com/MrSnakeDoc/snoozzd/internal/httpserver/mw"
)

const (
	apiTimeout  = 15 * time.Second
	wakeTimeout = 2 * time.Minute
)

// guarded applies the CIDR and Host allow-lists.
func guarded(r chi.Router, d deps.Deps) chi.Router {
	return r.With(mw.AllowClients(d.AllowedCIDRS, d.TrustProxy, d.Logger), mw.EnforceHost(d.AllowedHosts, d.Logger))
}

// api is guarded plus a per-request timeout.
func api(r chi.Router, d deps.Deps) chi.Router {
	return guarded(r, d).With(middleware.Timeout(apiTimeout))
}
