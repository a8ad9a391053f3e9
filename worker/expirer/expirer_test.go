package expirer

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/pandodao/drm-wallet/core"
	"github.com/pandodao/drm-wallet/state"
	"github.com/shopspring/decimal"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	drm   = core.Asset{Symbol: "DRM", Precision: 8}
	self  = core.NewAddress("drm1", "selfselfselfselfselfselfselfself")
	other = core.NewAddress("drm1", "otherotherotherotherotherotherot")
	t0    = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
)

type queue struct {
	events []core.Event
}

func (q *queue) Enqueue(_ context.Context, ev core.Event) error {
	q.events = append(q.events, ev)
	return nil
}

func TestRun(t *testing.T) {
	store := state.New()
	actions := []state.Action{
		state.InitializeAction{Address: self},
		state.RecordConfirmedAction{Tx: &core.Transaction{ID: "in-1", From: other, To: self, Amount: decimal.NewFromInt(25), Asset: drm, CreatedAt: t0}},
		state.SubmitAction{Tx: &core.Transaction{ID: "old", From: self, To: other, Amount: decimal.NewFromInt(1), Asset: drm, CreatedAt: t0}},
		state.SubmitAction{Tx: &core.Transaction{ID: "fresh", From: self, To: other, Amount: decimal.NewFromInt(1), Asset: drm, CreatedAt: t0.Add(9 * time.Minute)}},
	}

	for _, a := range actions {
		if err := store.Dispatch(a); err != nil {
			t.Fatal(err)
		}
	}

	q := &queue{}
	w := New(store, q, slog.Default(), Config{PendingTimeout: 5 * time.Minute})
	w.now = func() time.Time { return t0.Add(10 * time.Minute) }

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := w.run(ctx); err != nil {
			t.Fatal(err)
		}
	}

	if len(q.events) != 1 {
		t.Fatalf("events = %+v", q.events)
	}

	if ev, ok := q.events[0].(core.TimeoutEvent); !ok || ev.TxID != "old" {
		t.Fatalf("event = %+v", q.events[0])
	}

	// once settled the id is forgotten
	if err := store.Dispatch(state.FailAction{ID: "old", Reason: "timeout"}); err != nil {
		t.Fatal(err)
	}

	if err := w.run(ctx); err != nil {
		t.Fatal(err)
	}

	if w.reported.Has("old") {
		t.Fatal("settled id still tracked")
	}

	ctx, cancel := context.WithCancel(ctx)
	cancel()
	if err := w.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("run = %v", err)
	}
}
