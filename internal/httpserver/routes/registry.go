package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/snoozzd/internal/httpserver/deps"
	"github.com/MrSnakeDoc/snoozzd/internal/logger"
)

// Mount adds one group of endpoints to the router.
type Mount func(r chi.Router, d deps.Deps)

type group struct {
	name  string
	mount Mount
}

// groups fills up from init functions, in file order.
var groups []group

// Register adds a named endpoint group. Names only show up in logs.
func Register(name string, m Mount) {
	groups = append(groups, group{name: name, mount: m})
}

// RegisterAll mounts every registered group on r.
func RegisterAll(r chi.Router, d deps.Deps) {
	names := make([]string, 0, len(groups))
	for _, g := range groups {
		g.mount(r, d)
		names = append(names, g.name)
	}
	d.Logger.Debug("routes mounted", logger.Strings("groups", names))
}
