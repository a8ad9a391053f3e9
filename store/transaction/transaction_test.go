package transaction

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/pandodao/drm-wallet/core"
	"github.com/pandodao/drm-wallet/service/address"
	"github.com/pandodao/drm-wallet/store"
	"github.com/pandodao/drm-wallet/store/storetest"
	"github.com/shopspring/decimal"
)

var codec = address.New(address.FixtureParams)

func history(t *testing.T, n int) []*core.Transaction {
	t.Helper()

	self, err := codec.Validate("drm1" + strings.Repeat("a", 39))
	if err != nil {
		t.Fatal(err)
	}

	other, err := codec.Validate("drm1" + strings.Repeat("b", 39))
	if err != nil {
		t.Fatal(err)
	}

	base := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	txs := make([]*core.Transaction, n)
	for i := range txs {
		txs[i] = &core.Transaction{
			ID:        fmt.Sprintf("tx-%02d", n-i),
			From:      self,
			To:        other,
			Amount:    decimal.RequireFromString("1.25"),
			Asset:     core.Asset{Symbol: "DRM", Precision: 8},
			Status:    core.TransactionStatusPending,
			Source:    core.TransactionSourceTransfer,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
			Signature: "sig",
		}
	}

	return txs
}

func TestSaveList(t *testing.T) {
	ctx := context.Background()
	s := New(storetest.Open(t), codec)

	txs := history(t, 5)
	if err := s.Save(ctx, txs); err != nil {
		t.Fatal(err)
	}

	// a later save updates rows in place and keeps their order
	confirmedAt := txs[1].CreatedAt.Add(time.Minute)
	txs[1].Status = core.TransactionStatusConfirmed
	txs[1].ConfirmedAt = &confirmedAt
	txs[1].BlockHeight = 12
	if err := s.Save(ctx, txs); err != nil {
		t.Fatal(err)
	}

	all, err := s.List(ctx, 0, 0)
	if err != nil {
		t.Fatal(err)
	}

	if len(all) != len(txs) {
		t.Fatalf("listed %d, want %d", len(all), len(txs))
	}

	for i, got := range all {
		want := txs[i]
		if got.ID != want.ID || got.From != want.From || got.To != want.To || !got.Amount.Equal(want.Amount) ||
			got.Status != want.Status || !got.CreatedAt.Equal(want.CreatedAt) || got.Source != want.Source {
			t.Fatalf("tx %d = %+v, want %+v", i, got, want)
		}
	}

	if got := all[1]; got.ConfirmedAt == nil || !got.ConfirmedAt.Equal(confirmedAt) || got.BlockHeight != 12 {
		t.Fatalf("confirmed tx = %+v", got)
	}

	page, err := s.List(ctx, 2, 2)
	if err != nil {
		t.Fatal(err)
	}

	if len(page) != 2 || page[0].ID != txs[2].ID || page[1].ID != txs[3].ID {
		t.Fatalf("page = %v", page)
	}

	rest, err := s.List(ctx, 3, 0)
	if err != nil {
		t.Fatal(err)
	}

	if len(rest) != 2 {
		t.Fatalf("rest = %v", rest)
	}
}

func TestFind(t *testing.T) {
	ctx := context.Background()
	s := New(storetest.Open(t), codec)

	txs := history(t, 2)
	txs[0].Status = core.TransactionStatusFailed
	txs[0].FailReason = "timeout"
	if err := s.Save(ctx, txs); err != nil {
		t.Fatal(err)
	}

	got, err := s.Find(ctx, txs[0].ID)
	if err != nil {
		t.Fatal(err)
	}

	if got.FailReason != "timeout" {
		t.Fatalf("tx = %+v", got)
	}

	// served from the cache once final
	got.FailReason = "mutated"
	again, err := s.Find(ctx, txs[0].ID)
	if err != nil || again.FailReason != "timeout" {
		t.Fatalf("cached tx = %+v, %v", again, err)
	}

	if err := s.DeleteAll(ctx); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Find(ctx, txs[0].ID); !store.IsErrNotFound(err) {
		t.Fatalf("err = %v", err)
	}
}

func TestSavePrunesMissingRows(t *testing.T) {
	ctx := context.Background()
	s := New(storetest.Open(t), codec)

	old := history(t, 3)
	old[0].Status = core.TransactionStatusConfirmed
	if err := s.Save(ctx, old); err != nil {
		t.Fatal(err)
	}

	// warm the cache with a final row that is about to disappear
	if _, err := s.Find(ctx, old[0].ID); err != nil {
		t.Fatal(err)
	}

	fresh := history(t, 1)
	fresh[0].ID = "new-1"
	if err := s.Save(ctx, fresh); err != nil {
		t.Fatal(err)
	}

	all, err := s.List(ctx, 0, 0)
	if err != nil {
		t.Fatal(err)
	}

	if len(all) != 1 || all[0].ID != "new-1" {
		t.Fatalf("history = %v", all)
	}

	if _, err := s.Find(ctx, old[0].ID); !store.IsErrNotFound(err) {
		t.Fatalf("pruned tx err = %v", err)
	}
}

func TestScanCorruptedAddress(t *testing.T) {
	ctx := context.Background()
	db := storetest.Open(t)
	s := New(db, codec)

	if err := s.Save(ctx, history(t, 1)); err != nil {
		t.Fatal(err)
	}

	if _, err := db.ExecContext(ctx, "UPDATE transactions SET to_address = 'btc1nope'"); err != nil {
		t.Fatal(err)
	}

	if _, err := s.List(ctx, 0, 0); !errors.Is(err, core.ErrCorruptedState) {
		t.Fatalf("err = %v", err)
	}
}
