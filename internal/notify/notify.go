package notify

import (
	"context"

	"github.com/ringops/ringstats/internal/metrics"
	"go.uber.org/zap"
)

// MintConfirmed describes a watched item whose mint was observed.
type MintConfirmed struct {
	ItemID       string
	Name         string
	CreateNftURL string
}

type Notifier interface {
	Name() string
	Notify(ctx context.Context, event MintConfirmed) error
}

// Fanout delivers to every sink once. Failures are logged and never retried.
type Fanout struct {
	sinks []Notifier
}

func NewFanout(sinks ...Notifier) *Fanout {
	return &Fanout{sinks: sinks}
}

func (f *Fanout) Notify(ctx context.Context, event MintConfirmed) {
	for _, sink := range f.sinks {
		if err := sink.Notify(ctx, event); err != nil {
			metrics.NotificationsTotal.WithLabelValues(sink.Name(), "error").Inc()
			zap.L().Error("Failed to send notification",
				zap.String("sink", sink.Name()),
				zap.String("itemId", event.ItemID),
				zap.Error(err),
			)
			continue
		}
		metrics.NotificationsTotal.WithLabelValues(sink.Name(), "ok").Inc()
	}
}
