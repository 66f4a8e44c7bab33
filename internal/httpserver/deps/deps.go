package deps

import (
	"time"

	"github.com/jmhodges/clock"

	"github.com/MrSnakeDoc/snoozzd/internal/alarm"
	"github.com/MrSnakeDoc/snoozzd/internal/browser"
	"github.com/MrSnakeDoc/snoozzd/internal/logger"
	"github.com/MrSnakeDoc/snoozzd/internal/scheduler"
	"github.com/MrSnakeDoc/snoozzd/internal/snooze"
	"github.com/MrSnakeDoc/snoozzd/internal/store"
)

type Deps struct {
	Logger         logger.Logger
	StartTime      time.Time
	Version        string
	Commit         string
	BuildDate      string
	GoVersion      string
	Clock          clock.Clock    // every handler reads time from here
	Location       *time.Location // zone used for labels and the calendar feed
	BrowserName    string         // shown in "Next <browser> Launch" labels
	AllowedHosts   []string       // Host headers allowed to access the server
	AllowedCIDRS   []string       // IPs allowed to access the server
	TrustProxy     bool           // true if running behind a trusted reverse proxy (e.g., cloudflared)
	AllowedOrigins []string       // CORS and websocket origin patterns
	RateLimit      int            // snooze creations per minute and client, 0 = unlimited
	StorageName    string         // "redis" | "postgres" | "memory"

	Backend      store.Backend           // raw storage, pinged by readyz
	Store        *snooze.Store           // snoozed records and options
	Snoozer      *snooze.Snoozer         // creation and edit use-cases
	Orchestrator *scheduler.Orchestrator // manual wake
	Runner       *scheduler.Runner       // lifecycle triggers and last pass
	Alarm        *alarm.Coordinator      // currently armed wake alarm
	Hub          *browser.Hub            // connected browsers
}
