package state

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/pandodao/drm-wallet/core"
	"github.com/pandodao/drm-wallet/service/ledger"
	"github.com/shopspring/decimal"
	"lukechampine.com/frand"
)

var (
	drm   = core.Asset{Symbol: "DRM", Precision: 8}
	self  = core.NewAddress("drm1", "selfselfselfselfselfselfselfself")
	other = core.NewAddress("drm1", "otherotherotherotherotherotherot")
	t0    = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
)

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func draft(id, value string) *core.Transaction {
	return &core.Transaction{
		ID:        id,
		From:      self,
		To:        other,
		Amount:    amount(value),
		Asset:     drm,
		Status:    core.TransactionStatusDraft,
		Source:    core.TransactionSourceTransfer,
		CreatedAt: t0,
	}
}

func incoming(id, value string) *core.Transaction {
	return &core.Transaction{
		ID:        id,
		From:      other,
		To:        self,
		Amount:    amount(value),
		Asset:     drm,
		Source:    core.TransactionSourceExternal,
		CreatedAt: t0,
	}
}

// funded returns an initialized store holding 25 DRM confirmed.
func funded(t *testing.T) *Store {
	t.Helper()

	s := New()
	mustDispatch(t, s, InitializeAction{Address: self})
	mustDispatch(t, s, RecordConfirmedAction{Tx: incoming("in-1", "25")})
	return s
}

func mustDispatch(t *testing.T, s *Store, a Action) {
	t.Helper()
	if err := s.Dispatch(a); err != nil {
		t.Fatalf("dispatch %T: %v", a, err)
	}
}

func spendable(s *Store) decimal.Decimal {
	return ledger.Spendable(s.Wallet().Balances, drm.Symbol)
}

func TestSubmitThenFailRestoresSpendable(t *testing.T) {
	s := funded(t)
	before := spendable(s)

	mustDispatch(t, s, SubmitAction{Tx: draft("tx-1", "10.5")})
	if got := spendable(s); !got.Equal(amount("14.5")) {
		t.Fatalf("spendable after submit = %s, want 14.5", got)
	}

	if got := s.Network().PendingConfirmations; len(got) != 1 || got[0] != "tx-1" {
		t.Fatalf("pending confirmations = %v", got)
	}

	mustDispatch(t, s, FailAction{ID: "tx-1", Reason: "rejected"})
	if got := spendable(s); !got.Equal(before) {
		t.Fatalf("spendable after fail = %s, want %s", got, before)
	}

	tx, ok := s.Transaction("tx-1")
	if !ok || tx.Status != core.TransactionStatusFailed || tx.FailReason != "rejected" {
		t.Fatalf("tx = %+v", tx)
	}

	if got := s.Network().PendingConfirmations; len(got) != 0 {
		t.Fatalf("pending confirmations = %v", got)
	}
}

func TestConfirm(t *testing.T) {
	s := funded(t)
	mustDispatch(t, s, SubmitAction{Tx: draft("tx-1", "10")})
	mustDispatch(t, s, ConfirmAction{ID: "tx-1", BlockHeight: 7, At: t0.Add(time.Minute)})

	b := ledger.Find(s.Wallet().Balances, drm.Symbol)
	if !b.Confirmed.Equal(amount("15")) || !b.Pending.IsZero() {
		t.Fatalf("balance = %+v", b)
	}

	if h := s.Network().LatestBlockHeight; h != 7 {
		t.Fatalf("block height = %d", h)
	}

	// replaying the same confirmation is rejected and changes nothing
	err := s.Dispatch(ConfirmAction{ID: "tx-1", BlockHeight: 7, At: t0.Add(time.Minute)})
	if !errors.Is(err, core.ErrInvalidTransition) {
		t.Fatalf("replay err = %v", err)
	}

	if got := ledger.Find(s.Wallet().Balances, drm.Symbol); !ledger.Equal([]core.Balance{got}, []core.Balance{b}) {
		t.Fatalf("balance changed on replay: %+v", got)
	}
}

func TestUnknownTransactionSetsError(t *testing.T) {
	s := funded(t)
	before := s.Wallet()

	err := s.Dispatch(ConfirmAction{ID: "missing", BlockHeight: 1, At: t0})
	if !errors.Is(err, core.ErrUnknownTransactionID) {
		t.Fatalf("err = %v", err)
	}

	after := s.Wallet()
	if after.Error == nil || after.Error.Code != "unknown_transaction_id" {
		t.Fatalf("error flag = %+v", after.Error)
	}

	if len(after.Transactions) != len(before.Transactions) || !ledger.Equal(after.Balances, before.Balances) {
		t.Fatal("wallet changed on unknown id")
	}
}

func TestCancel(t *testing.T) {
	s := funded(t)
	mustDispatch(t, s, SubmitAction{Tx: draft("tx-1", "5")})
	mustDispatch(t, s, SubmitAction{Tx: draft("tx-2", "5")})
	mustDispatch(t, s, ConfirmAction{ID: "tx-2", BlockHeight: 3, At: t0})

	mustDispatch(t, s, CancelAction{ID: "tx-1"})
	if got := spendable(s); !got.Equal(amount("20")) {
		t.Fatalf("spendable = %s", got)
	}

	err := s.Dispatch(CancelAction{ID: "tx-2"})
	if !errors.Is(err, core.ErrInvalidTransition) {
		t.Fatalf("cancel confirmed err = %v", err)
	}

	if tx, _ := s.Transaction("tx-2"); tx.Status != core.TransactionStatusConfirmed {
		t.Fatalf("status = %s", tx.Status)
	}
}

func TestSubmitRejections(t *testing.T) {
	tests := []struct {
		name string
		tx   *core.Transaction
		want error
	}{
		{"overdraft", draft("tx-1", "30"), core.ErrInsufficientBalance},
		{"duplicate", draft("in-1", "1"), core.ErrInvalidTransition},
		{"not draft", func() *core.Transaction {
			tx := draft("tx-1", "1")
			tx.Status = core.TransactionStatusPending
			return tx
		}(), core.ErrInvalidTransition},
		{"zero amount", draft("tx-1", "0"), core.ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := funded(t)
			if err := s.Dispatch(SubmitAction{Tx: tt.tx}); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}

			if w := s.Wallet(); len(w.Transactions) != 1 || w.Error == nil {
				t.Fatalf("wallet = %+v", w)
			}
		})
	}
}

func TestSubmitRequiresInitialized(t *testing.T) {
	s := New()
	if err := s.Dispatch(SubmitAction{Tx: draft("tx-1", "1")}); err == nil {
		t.Fatal("expected error")
	}

	if w := s.Wallet(); w.Error == nil || w.Error.Code != "not_initialized" {
		t.Fatalf("error = %+v", w.Error)
	}
}

func TestReducersDoNotMutateInput(t *testing.T) {
	w := Initialize(Reset(), self)
	w = RecordConfirmed(w, incoming("in-1", "25"))
	w = SubmitTransaction(w, draft("tx-1", "5"))
	pending := w.Transactions[1]

	next := ConfirmTransaction(w, "tx-1", 1, t0)
	if pending.Status != core.TransactionStatusPending {
		t.Fatal("input transaction mutated")
	}

	if next.Transactions[1].Status != core.TransactionStatusConfirmed {
		t.Fatal("confirm not applied")
	}
}

func TestSpendableNeverNegative(t *testing.T) {
	for round := 0; round < 50; round++ {
		s := funded(t)
		var ids []string

		for i := 0; i < 40; i++ {
			switch frand.Intn(4) {
			case 0:
				id := fmt.Sprintf("tx-%d", i)
				value := decimal.NewFromInt(int64(frand.Intn(15) + 1))
				_ = s.Dispatch(SubmitAction{Tx: draft(id, value.String())})
				ids = append(ids, id)
			case 1:
				if len(ids) > 0 {
					_ = s.Dispatch(ConfirmAction{ID: ids[frand.Intn(len(ids))], BlockHeight: uint64(i), At: t0})
				}
			case 2:
				if len(ids) > 0 {
					_ = s.Dispatch(FailAction{ID: ids[frand.Intn(len(ids))], Reason: "x"})
				}
			case 3:
				if len(ids) > 0 {
					_ = s.Dispatch(CancelAction{ID: ids[frand.Intn(len(ids))]})
				}
			}

			if got := spendable(s); got.IsNegative() {
				t.Fatalf("round %d step %d: spendable %s", round, i, got)
			}

			snapshot := s.Snapshot()
			snapshot.Wallet.Error = nil
			if err := Validate(snapshot); err != nil {
				t.Fatalf("round %d step %d: %v", round, i, err)
			}
		}
	}
}

func TestReset(t *testing.T) {
	s := funded(t)
	mustDispatch(t, s, SubmitAction{Tx: draft("tx-1", "5")})
	mustDispatch(t, s, SetMiningStatusAction{Active: true, HashRate: 12})
	mustDispatch(t, s, SetConnectedAction{Connected: true})
	mustDispatch(t, s, ResetAction{})

	got := s.Snapshot()
	if got.Wallet.IsInitialized || !got.Wallet.CurrentAddress.IsZero() || len(got.Wallet.Transactions) != 0 || len(got.Wallet.Balances) != 0 {
		t.Fatalf("wallet = %+v", got.Wallet)
	}

	if got.Mining.IsActive || len(got.Network.PendingConfirmations) != 0 {
		t.Fatalf("state = %+v", got)
	}

	if !got.Network.IsConnected {
		t.Fatal("reset dropped connectivity")
	}

	if err := Validate(got); err != nil {
		t.Fatal(err)
	}
}

func TestInitializeEmptyAddressKeepsState(t *testing.T) {
	s := funded(t)
	reward := incoming("reward-1", "2.5")
	reward.From = core.Address{}
	reward.Source = core.TransactionSourceReward
	mustDispatch(t, s, RecordConfirmedAction{Tx: reward, Reward: true})
	mustDispatch(t, s, SetMiningStatusAction{Active: true, HashRate: 12})
	before := s.Snapshot()

	err := s.Dispatch(InitializeAction{})
	var info *core.ErrorInfo
	if !errors.As(err, &info) || info.Code != "invalid_address" {
		t.Fatalf("err = %v", err)
	}

	got := s.Snapshot()
	if !got.Wallet.IsInitialized || got.Wallet.CurrentAddress != self || len(got.Wallet.Transactions) != 2 {
		t.Fatalf("wallet = %+v", got.Wallet)
	}

	if !ledger.Equal(got.Wallet.Balances, before.Wallet.Balances) {
		t.Fatalf("balances = %+v, want %+v", got.Wallet.Balances, before.Wallet.Balances)
	}

	if got.Mining != before.Mining {
		t.Fatalf("mining = %+v, want %+v", got.Mining, before.Mining)
	}

	if got.Wallet.Error == nil || got.Wallet.Error.Code != "invalid_address" {
		t.Fatalf("error = %+v", got.Wallet.Error)
	}
}

func TestRecordReward(t *testing.T) {
	s := funded(t)
	reward := incoming("reward-1", "2.5")
	reward.From = core.Address{}
	reward.Source = core.TransactionSourceReward
	reward.BlockHeight = 9

	mustDispatch(t, s, RecordConfirmedAction{Tx: reward, Reward: true})
	mustDispatch(t, s, RecordConfirmedAction{Tx: reward, Reward: true})

	got := s.Snapshot()
	if got.Mining.LastRewardTx != "reward-1" || got.Network.LatestBlockHeight != 9 {
		t.Fatalf("state = %+v", got)
	}

	if b := ledger.Find(got.Wallet.Balances, drm.Symbol); !b.Confirmed.Equal(amount("27.5")) {
		t.Fatalf("confirmed = %s", b.Confirmed)
	}

	if err := Validate(got); err != nil {
		t.Fatal(err)
	}
}

func TestValidate(t *testing.T) {
	valid := funded(t).Snapshot()
	if err := Validate(valid); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		corrupt func(s *core.RootState)
	}{
		{"balance drift", func(s *core.RootState) {
			s.Wallet.Balances[0].Confirmed = amount("1000")
		}},
		{"address without flag", func(s *core.RootState) {
			s.Wallet.IsInitialized = false
		}},
		{"duplicate id", func(s *core.RootState) {
			s.Wallet.Transactions = append(s.Wallet.Transactions, s.Wallet.Transactions[0].Clone())
		}},
		{"draft in history", func(s *core.RootState) {
			s.Wallet.Transactions[0].Status = core.TransactionStatusDraft
		}},
		{"missing pending confirmation", func(s *core.RootState) {
			s.Network.PendingConfirmations = []string{"ghost"}
		}},
		{"dangling reward", func(s *core.RootState) {
			s.Mining.LastRewardTx = "ghost"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid.Clone()
			tt.corrupt(&s)
			if err := Validate(s); !errors.Is(err, core.ErrCorruptedState) {
				t.Fatalf("err = %v", err)
			}
		})
	}
}

func TestStoreSubscribe(t *testing.T) {
	s := New()
	var versions []uint64
	unsubscribe := s.Subscribe(func(state core.RootState) {
		versions = append(versions, state.Version)
	})

	mustDispatch(t, s, InitializeAction{Address: self})
	mustDispatch(t, s, SetLoadingAction{Loading: true})
	unsubscribe()
	mustDispatch(t, s, SetLoadingAction{Loading: false})

	if len(versions) != 2 || versions[0] != 1 || versions[1] != 2 {
		t.Fatalf("versions = %v", versions)
	}

	if v := s.Version(); v != 3 {
		t.Fatalf("version = %d", v)
	}
}
