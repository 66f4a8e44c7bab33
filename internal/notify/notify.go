// Package notify fans user notifications out to every configured channel.
package notify

import (
	"context"

	"go.uber.org/multierr"

	"github.com/MrSnakeDoc/snoozzd/internal/domain"
	"github.com/MrSnakeDoc/snoozzd/internal/logger"
)

// Notification is one user-visible message.
type Notification struct {
	// ID is the item the notification is about, if any.
	ID    string `json:"id,omitempty"`
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
	// Force shows the notification even when notifications are off.
	Force bool `json:"force,omitempty"`
}

// Notifier shows notifications.
type Notifier interface {
	Show(ctx context.Context, n Notification) error
}

// Multi shows a notification on every notifier; one failing channel does not
// stop the others.
type Multi []Notifier

func (m Multi) Show(ctx context.Context, n Notification) error {
	var err error
	for _, notifier := range m {
		err = multierr.Append(err, notifier.Show(ctx, n))
	}
	return err
}

// OptionsSource returns the current options.
type OptionsSource func(ctx context.Context) (domain.Options, error)

// Gate drops non-forced notifications while the "notifications" option is off.
type Gate struct {
	next    Notifier
	options OptionsSource
	logger  logger.Logger
}

// NewGate wraps next.
func NewGate(next Notifier, options OptionsSource, log logger.Logger) *Gate {
	return &Gate{next: next, options: options, logger: log}
}

func (g *Gate) Show(ctx context.Context, n Notification) error {
	if !n.Force {
		opts, err := g.options(ctx)
		if err != nil {
			g.logger.Warn("failed to read notification option, showing anyway",
				logger.Error(err))
		} else if opts.NotificationsOff() {
			g.logger.Debug("notification suppressed",
				logger.String("title", n.Title))
			return nil
		}
	}
	return g.next.Show(ctx, n)
}

// Log writes notifications to the logger. It is the fallback channel when no
// browser or chat is attached.
type Log struct {
	logger logger.Logger
}

func NewLog(log logger.Logger) *Log { return &Log{logger: log} }

func (l *Log) Show(_ context.Context, n Notification) error {
	l.logger.Info(n.Title,
		logger.String("body", n.Body),
		logger.String("id", n.ID))
	return nil
}
