package scheduler

import (
	"time"

	"github.com/MrSnakeDoc/snoozzd/internal/domain"
	"github.com/MrSnakeDoc/snoozzd/internal/logger"
)

// DefaultHistoryDays is the retention applied when the options carry none.
const DefaultHistoryDays = 30

// HistoryCleaner retires delivered items once they are older than the
// retention window.
type HistoryCleaner struct {
	logger logger.Logger
}

// NewHistoryCleaner creates a history cleaner
func NewHistoryCleaner(log logger.Logger) *HistoryCleaner {
	return &HistoryCleaner{logger: log}
}

// Collect splits items into those to keep and those delivered more than days
// ago. days <= 0 disables cleanup.
func (hc *HistoryCleaner) Collect(items []*domain.Item, now time.Time, days int) (kept, expired []*domain.Item) {
	if days <= 0 {
		return items, nil
	}

	kept = make([]*domain.Item, 0, len(items))
	for _, it := range items {
		// Only delivered items carry an opened time
		if it.Status != domain.StatusDelivered || it.OpenedAt.IsZero() {
			kept = append(kept, it)
			continue
		}

		if !now.After(it.OpenedAt.AddDate(0, 0, days)) {
			kept = append(kept, it)
			continue
		}

		hc.logger.Debug("history item expired",
			logger.String("id", it.ID),
			logger.String("opened_for", now.Sub(it.OpenedAt).Round(time.Hour).String()))
		expired = append(expired, it)
	}

	if len(expired) > 0 {
		hc.logger.Info("deleting old history automatically",
			logger.Strings("ids", ids(expired)),
			logger.Int("retention_days", days))
	}
	return kept, expired
}

func ids(items []*domain.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}
