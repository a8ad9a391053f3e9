package reconciler

import (
	"context"
	"log/slog"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/pandodao/drm-wallet/core"
	"github.com/pandodao/drm-wallet/state"
	"github.com/zyedidia/generic/mapset"
)

const ReasonTimeout = "timeout"

type Config struct {
	QueueSize int `valid:"required" mapstructure:"queue_size"`
}

// Reconciler applies network and mining events to the wallet state one at a
// time, in arrival order.
type Reconciler struct {
	store  *state.Store
	events chan core.Event
	logger *slog.Logger
	now    func() time.Time
}

func New(store *state.Store, logger *slog.Logger, cfg Config) *Reconciler {
	if _, err := govalidator.ValidateStruct(cfg); err != nil {
		panic(err)
	}

	return &Reconciler{
		store:  store,
		events: make(chan core.Event, cfg.QueueSize),
		logger: logger.With("worker", "reconciler"),
		now:    time.Now,
	}
}

// Enqueue blocks while the queue is full.
func (w *Reconciler) Enqueue(ctx context.Context, ev core.Event) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case w.events <- ev:
		return nil
	}
}

func (w *Reconciler) Run(ctx context.Context) error {
	w.logger.Info("reconciler start")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-w.events:
			w.handle(ev)
		}
	}
}

func (w *Reconciler) handle(ev core.Event) {
	switch e := ev.(type) {
	case core.BlockEvent:
		w.handleBlock(e)
	case core.TransactionEvent:
		w.handleTransaction(e)
	case core.RewardEvent:
		w.handleReward(e)
	case core.MiningEvent:
		w.dispatch(state.SetMiningStatusAction{Active: e.Active, HashRate: e.HashRate})
	case core.ConnectionEvent:
		w.dispatch(state.SetConnectedAction{Connected: e.Connected})
	case core.TimeoutEvent:
		if w.pending(e.TxID) {
			w.dispatch(state.FailAction{ID: e.TxID, Reason: ReasonTimeout})
		}
	default:
		w.logger.Warn("unknown event", "kind", ev.Kind())
	}
}

func (w *Reconciler) timestamp(t time.Time) time.Time {
	if t.IsZero() {
		return w.now().UTC()
	}

	return t.UTC()
}

func (w *Reconciler) dispatch(a state.Action) {
	if err := w.store.Dispatch(a); err != nil {
		w.logger.Error("store.Dispatch", "action", a, "err", err)
	}
}

// pending reports whether id is awaiting the network; anything else is
// logged and skipped.
func (w *Reconciler) pending(id string) bool {
	tx, ok := w.store.Transaction(id)
	switch {
	case !ok:
		w.logger.Debug("skip unknown transaction", "tx", id)
		return false
	case tx.Status != core.TransactionStatusPending:
		w.logger.Debug("skip settled transaction", "tx", id, "status", tx.Status)
		return false
	default:
		return true
	}
}

func (w *Reconciler) handleBlock(e core.BlockEvent) {
	logger := w.logger.With("height", e.Height)
	at := w.timestamp(e.Timestamp)

	self := w.store.Wallet().CurrentAddress
	seen := mapset.New[string]()

	for _, r := range e.Confirmed {
		if seen.Has(r.ID) {
			logger.Debug("skip duplicate record", "tx", r.ID)
			continue
		}
		seen.Put(r.ID)

		if _, ok := w.store.Transaction(r.ID); ok {
			if w.pending(r.ID) {
				w.dispatch(state.ConfirmAction{ID: r.ID, BlockHeight: e.Height, At: at})
			}
			continue
		}

		if self.IsZero() || (r.To != self && r.From != self) || !r.Amount.IsPositive() {
			logger.Debug("skip unrelated record", "tx", r.ID)
			continue
		}

		logger.Info("record external transaction", "tx", r.ID, "amount", r.Amount, "asset", r.Asset.Symbol)
		w.dispatch(state.RecordConfirmedAction{Tx: &core.Transaction{
			ID:          r.ID,
			From:        r.From,
			To:          r.To,
			Amount:      r.Amount,
			Asset:       r.Asset,
			Source:      core.TransactionSourceExternal,
			CreatedAt:   at,
			ConfirmedAt: &at,
			BlockHeight: e.Height,
		}})
	}

	for _, r := range e.Rejected {
		if seen.Has(r.ID) {
			logger.Warn("transaction both confirmed and rejected", "tx", r.ID)
			continue
		}
		seen.Put(r.ID)

		if w.pending(r.ID) {
			w.dispatch(state.FailAction{ID: r.ID, Reason: r.Reason})
		}
	}

	// last, so a persisted sync height never points past a half applied block
	w.dispatch(state.ApplyBlockAction{Height: e.Height})
}

func (w *Reconciler) handleTransaction(e core.TransactionEvent) {
	if !w.pending(e.TxID) {
		return
	}

	switch e.Status {
	case core.TransactionStatusConfirmed:
		w.dispatch(state.ConfirmAction{ID: e.TxID, BlockHeight: e.BlockHeight, At: w.timestamp(e.Timestamp)})
	case core.TransactionStatusFailed:
		w.dispatch(state.FailAction{ID: e.TxID, Reason: e.Reason})
	default:
		w.logger.Warn("unexpected transaction status", "tx", e.TxID, "status", e.Status)
	}
}

func (w *Reconciler) handleReward(e core.RewardEvent) {
	self := w.store.Wallet().CurrentAddress
	if self.IsZero() {
		w.logger.Warn("reward before initialization", "tx", e.RewardTxID)
		return
	}

	if _, ok := w.store.Transaction(e.RewardTxID); ok {
		w.logger.Debug("skip duplicate reward", "tx", e.RewardTxID)
		return
	}

	at := w.timestamp(e.Timestamp)
	w.logger.Info("record reward", "tx", e.RewardTxID, "amount", e.Amount, "height", e.BlockHeight)
	w.dispatch(state.RecordConfirmedAction{Reward: true, Tx: &core.Transaction{
		ID:          e.RewardTxID,
		To:          self,
		Amount:      e.Amount,
		Asset:       e.Asset,
		Source:      core.TransactionSourceReward,
		CreatedAt:   at,
		ConfirmedAt: &at,
		BlockHeight: e.BlockHeight,
	}})
}
