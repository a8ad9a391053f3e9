package listener

import (
	"context"
	"log/slog"
	"time"

	"github.com/pandodao/drm-wallet/core"
)

type Queue interface {
	Enqueue(ctx context.Context, ev core.Event) error
}

func New(feed core.EventFeed, queue Queue, logger *slog.Logger) *Listener {
	return &Listener{
		feed:   feed,
		queue:  queue,
		logger: logger.With("worker", "listener"),
	}
}

// Listener forwards events pushed on the feed, mostly mining rewards and
// transaction notifications, to the reconciler.
type Listener struct {
	feed   core.EventFeed
	queue  Queue
	logger *slog.Logger
}

func (w *Listener) Run(ctx context.Context) error {
	w.logger.Info("listener start")

	for {
		err := w.feed.Subscribe(ctx, func(ev core.Event) {
			if err := w.queue.Enqueue(ctx, ev); err != nil {
				w.logger.Warn("queue.Enqueue", "kind", ev.Kind(), "err", err)
			}
		})

		if ctx.Err() != nil {
			return ctx.Err()
		}

		w.logger.Error("feed.Subscribe", "err", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
}
