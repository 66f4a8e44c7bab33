package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/jmhodges/clock"

	"github.com/MrSnakeDoc/snoozzd/internal/domain"
	"github.com/MrSnakeDoc/snoozzd/internal/logger"
)

// startupLead backdates launch-triggered items so they count as due.
const startupLead = 10 * time.Second

// Seeder is the part of the record store the launcher needs.
type Seeder interface {
	EnsureDefaults(ctx context.Context) error
	Mutate(ctx context.Context, fn func(items []*domain.Item) ([]*domain.Item, error)) error
}

// Launcher handles a browser launch: items waiting for it become due.
type Launcher struct {
	store  Seeder
	orch   *Orchestrator
	clk    clock.Clock
	logger logger.Logger
}

// NewLauncher creates a launcher
func NewLauncher(store Seeder, orch *Orchestrator, clk clock.Clock, log logger.Logger) *Launcher {
	return &Launcher{
		store:  store,
		orch:   orch,
		clk:    clk,
		logger: log,
	}
}

// Boot prepares the engine when the daemon starts: both collections exist and
// the alarm is armed. The daemon starting is not a browser launch, so startup
// items are left waiting.
func (l *Launcher) Boot(ctx context.Context) (TickResult, error) {
	if err := l.store.EnsureDefaults(ctx); err != nil {
		return TickResult{}, err
	}
	return l.orch.Evaluate(ctx)
}

// Startup handles a browser launch: it makes sure both collections exist,
// forces every sleeping startup item due, then evaluates.
func (l *Launcher) Startup(ctx context.Context) (TickResult, error) {
	l.logger.Info("browser launch, checking startup items")

	if err := l.store.EnsureDefaults(ctx); err != nil {
		return TickResult{}, err
	}

	wake := l.clk.Now().Add(-startupLead)
	var forced []string
	err := l.store.Mutate(ctx, func(items []*domain.Item) ([]*domain.Item, error) {
		for _, it := range items {
			if it.Sleeping() && it.WakesOnStartup() {
				it.WakeUpTime = wake
				forced = append(forced, it.ID)
			}
		}
		if len(forced) == 0 {
			return nil, errUnchanged
		}
		return items, nil
	})
	if err != nil && !errors.Is(err, errUnchanged) {
		return TickResult{}, err
	}

	if len(forced) > 0 {
		l.logger.Info("startup items forced due",
			logger.Strings("ids", forced))
	}

	return l.orch.Evaluate(ctx)
}
