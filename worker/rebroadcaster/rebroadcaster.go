package rebroadcaster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/pandodao/drm-wallet/core"
	"github.com/pandodao/drm-wallet/state"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

type Config struct {
	Interval time.Duration `valid:"required" mapstructure:"interval"`
	// Rate caps broadcasts per second.
	Rate float64 `valid:"required" mapstructure:"rate"`
}

type Queue interface {
	Enqueue(ctx context.Context, ev core.Event) error
}

func New(
	store *state.Store,
	network core.NetworkService,
	queue Queue,
	logger *slog.Logger,
	cfg Config,
) *Rebroadcaster {
	if _, err := govalidator.ValidateStruct(cfg); err != nil {
		panic(err)
	}

	return &Rebroadcaster{
		store:   store,
		network: network,
		queue:   queue,
		limiter: rate.NewLimiter(rate.Limit(cfg.Rate), 1),
		logger:  logger.With("worker", "rebroadcaster"),
		cfg:     cfg,
	}
}

// Rebroadcaster re-sends signed transactions that are still pending, since
// the network may drop them before they are mined.
type Rebroadcaster struct {
	store   *state.Store
	network core.NetworkService
	queue   Queue
	limiter *rate.Limiter
	logger  *slog.Logger
	cfg     Config
}

func (w *Rebroadcaster) Run(ctx context.Context) error {
	w.logger.Info("rebroadcaster start")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.cfg.Interval):
			_ = w.run(ctx)
		}
	}
}

func (w *Rebroadcaster) run(ctx context.Context) error {
	wallet := w.store.Wallet()

	var txs []*core.Transaction
	for _, tx := range wallet.Transactions {
		if tx.Status == core.TransactionStatusPending && tx.IsOutgoing(wallet.CurrentAddress) && tx.Signature != "" {
			txs = append(txs, tx)
		}
	}

	if len(txs) == 0 {
		return fmt.Errorf("no pending transactions")
	}

	var g errgroup.Group
	g.SetLimit(4)

	for idx := range txs {
		tx := txs[idx]
		g.Go(func() error {
			return w.handleTransaction(ctx, tx)
		})
	}

	return g.Wait()
}

func (w *Rebroadcaster) handleTransaction(ctx context.Context, tx *core.Transaction) error {
	logger := w.logger.With("tx", tx.ID)

	if err := w.limiter.Wait(ctx); err != nil {
		return err
	}

	err := w.network.Broadcast(ctx, tx)
	if err == nil {
		logger.Debug("rebroadcast done")
		return nil
	}

	logger.Error("network.Broadcast", "err", err)

	var broadcastErr *core.BroadcastError
	if errors.As(err, &broadcastErr) && broadcastErr.Rejected {
		return w.queue.Enqueue(ctx, core.TransactionEvent{
			TxID:   tx.ID,
			Status: core.TransactionStatusFailed,
			Reason: broadcastErr.Err.Error(),
		})
	}

	return err
}
