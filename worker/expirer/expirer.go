package expirer

import (
	"context"
	"log/slog"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/pandodao/drm-wallet/core"
	"github.com/pandodao/drm-wallet/state"
	"github.com/zyedidia/generic/mapset"
)

type Config struct {
	PendingTimeout time.Duration `valid:"required" mapstructure:"pending_timeout"`
}

type Queue interface {
	Enqueue(ctx context.Context, ev core.Event) error
}

// Expirer reports pending transactions the network never settled in time.
type Expirer struct {
	store  *state.Store
	queue  Queue
	logger *slog.Logger
	cfg    Config
	now    func() time.Time

	// reported holds ids already queued for timeout
	reported mapset.Set[string]
}

func New(
	store *state.Store,
	queue Queue,
	logger *slog.Logger,
	cfg Config,
) *Expirer {
	if _, err := govalidator.ValidateStruct(cfg); err != nil {
		panic(err)
	}

	return &Expirer{
		store:    store,
		queue:    queue,
		logger:   logger.With("worker", "expirer"),
		cfg:      cfg,
		now:      time.Now,
		reported: mapset.New[string](),
	}
}

func (w *Expirer) Run(ctx context.Context) error {
	w.logger.Info("expirer start")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
			_ = w.run(ctx)
		}
	}
}

func (w *Expirer) run(ctx context.Context) error {
	var (
		now     = w.now()
		pending = mapset.New[string]()
	)

	for _, tx := range w.store.Wallet().Transactions {
		if tx.Status != core.TransactionStatusPending {
			continue
		}

		pending.Put(tx.ID)
		if w.reported.Has(tx.ID) || now.Sub(tx.CreatedAt) < w.cfg.PendingTimeout {
			continue
		}

		w.logger.Info("pending transaction timed out", "tx", tx.ID, "created_at", tx.CreatedAt)
		if err := w.queue.Enqueue(ctx, core.TimeoutEvent{TxID: tx.ID, Timestamp: now}); err != nil {
			w.logger.Error("queue.Enqueue", "err", err)
			return err
		}

		w.reported.Put(tx.ID)
	}

	// forget settled ids
	w.reported.Each(func(id string) {
		if !pending.Has(id) {
			w.reported.Remove(id)
		}
	})

	return nil
}
