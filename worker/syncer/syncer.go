package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pandodao/drm-wallet/core"
	"github.com/pandodao/drm-wallet/state"
)

// Queue receives the events the syncer pulls.
type Queue interface {
	Enqueue(ctx context.Context, ev core.Event) error
}

func New(
	network core.NetworkService,
	store *state.Store,
	queue Queue,
	logger *slog.Logger,
) *Syncer {
	return &Syncer{
		network: network,
		store:   store,
		queue:   queue,
		logger:  logger.With("worker", "syncer"),
	}
}

// Syncer polls blocks from the network and hands them to the reconciler. It
// also reports connectivity changes.
//
// The cursor lives in the wallet state and only moves once a block has been
// applied, so after a restart the syncer resumes from the persisted state.
type Syncer struct {
	network core.NetworkService
	store   *state.Store
	queue   Queue
	logger  *slog.Logger

	// next skips blocks already queued but not applied yet
	next      uint64
	connected *bool
}

func (w *Syncer) Run(ctx context.Context) error {
	w.logger.Info("syncer start")

	for {
		dur := time.Second
		if w.run(ctx) == nil {
			dur = 200 * time.Millisecond
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(dur):
		}
	}
}

func (w *Syncer) setConnected(ctx context.Context, connected bool) error {
	if w.connected != nil && *w.connected == connected {
		return nil
	}

	if err := w.queue.Enqueue(ctx, core.ConnectionEvent{Connected: connected}); err != nil {
		return err
	}

	w.connected = &connected
	return nil
}

func (w *Syncer) run(ctx context.Context) error {
	height := max(w.next, w.store.Network().SyncHeight)

	const limit = 100
	blocks, err := w.network.Blocks(ctx, height, limit)
	if err != nil {
		w.logger.Error("network.Blocks", "err", err)
		_ = w.setConnected(ctx, false)
		return err
	}

	if err := w.setConnected(ctx, true); err != nil {
		return err
	}

	if len(blocks) == 0 {
		return fmt.Errorf("no new blocks")
	}

	w.logger.Debug("pull new blocks", "count", len(blocks), "from", height)

	next := height
	for _, block := range blocks {
		if block.Height < height {
			continue
		}

		if err := w.queue.Enqueue(ctx, block); err != nil {
			return err
		}

		next = block.Height + 1
	}

	if next <= height {
		return fmt.Errorf("no new blocks")
	}

	w.next = next
	return nil
}
