package persister

import (
	"context"
	"log/slog"
	"time"

	"github.com/pandodao/drm-wallet/core"
	"github.com/pandodao/drm-wallet/state"
)

func New(store *state.Store, states core.StateStore, logger *slog.Logger) *Persister {
	return &Persister{
		store:  store,
		states: states,
		logger: logger.With("worker", "persister"),
	}
}

// Persister saves the root state whenever its version moves.
type Persister struct {
	store  *state.Store
	states core.StateStore
	logger *slog.Logger

	saved uint64
}

func (w *Persister) Run(ctx context.Context) error {
	w.logger.Info("persister start")

	changed := make(chan struct{}, 1)
	unsubscribe := w.store.Subscribe(func(core.RootState) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			// flush whatever happened since the last save
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			_ = w.run(flushCtx)
			cancel()
			return ctx.Err()
		case <-changed:
		case <-time.After(5 * time.Second):
		}

		if err := w.run(ctx); err != nil {
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
	}
}

func (w *Persister) run(ctx context.Context) error {
	snapshot := w.store.Snapshot()
	if snapshot.Version == w.saved {
		return nil
	}

	if err := w.states.Save(ctx, snapshot); err != nil {
		w.logger.Error("states.Save", "version", snapshot.Version, "err", err)
		return err
	}

	w.logger.Debug("state saved", "version", snapshot.Version)
	w.saved = snapshot.Version
	return nil
}
