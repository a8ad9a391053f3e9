// Package state holds the wallet's authoritative state and the pure
// reducers that are the only way to change it.
package state

import (
	"fmt"
	"time"

	"github.com/pandodao/drm-wallet/core"
	"github.com/pandodao/drm-wallet/service/ledger"
)

// Initialize resets the wallet slice for addr.
func Initialize(s core.WalletState, addr core.Address) core.WalletState {
	next, err := initialize(s, addr)
	return withError(next, err)
}

// SubmitTransaction appends a Draft as Pending and reserves its amount.
func SubmitTransaction(s core.WalletState, tx *core.Transaction) core.WalletState {
	next, err := submit(s, tx)
	return withError(next, err)
}

func ConfirmTransaction(s core.WalletState, id string, blockHeight uint64, at time.Time) core.WalletState {
	next, err := confirm(s, id, blockHeight, at)
	return withError(next, err)
}

// FailTransaction releases the reservation of a Pending transaction.
func FailTransaction(s core.WalletState, id, reason string) core.WalletState {
	next, err := fail(s, id, reason)
	return withError(next, err)
}

func CancelTransaction(s core.WalletState, id string) core.WalletState {
	next, err := transition(s, id, core.TransactionStatusCancelled, nil)
	return withError(next, err)
}

// RecordConfirmed inserts a transaction the wallet did not initiate directly
// as Confirmed. Recording an id twice is a no-op.
func RecordConfirmed(s core.WalletState, tx *core.Transaction) core.WalletState {
	next, err := recordConfirmed(s, tx)
	return withError(next, err)
}

func SetLoading(s core.WalletState, loading bool) core.WalletState {
	s.IsLoading = loading
	return s
}

func SetError(s core.WalletState, info *core.ErrorInfo) core.WalletState {
	s.Error = info
	return s
}

func Reset() core.WalletState {
	return core.WalletState{
		Balances:     []core.Balance{},
		Transactions: []*core.Transaction{},
	}
}

func withError(s core.WalletState, err error) core.WalletState {
	if err != nil {
		s.Error = core.NewErrorInfo(err)
	}

	return s
}

var errNotInitialized = &core.ErrorInfo{Code: "not_initialized", Message: "wallet is not initialized"}

func initialize(s core.WalletState, addr core.Address) (core.WalletState, error) {
	if addr.IsZero() {
		return s, &core.ErrorInfo{Code: "invalid_address", Message: "initialize with empty address"}
	}

	next := Reset()
	next.IsInitialized = true
	next.CurrentAddress = addr
	return next, nil
}

// lastCreatedAt keeps history ordered by creation time.
func lastCreatedAt(s core.WalletState) time.Time {
	if n := len(s.Transactions); n > 0 {
		return s.Transactions[n-1].CreatedAt
	}

	return time.Time{}
}

func appendTx(s core.WalletState, tx *core.Transaction) core.WalletState {
	if last := lastCreatedAt(s); tx.CreatedAt.Before(last) {
		tx.CreatedAt = last
	}

	next := s
	next.Transactions = make([]*core.Transaction, 0, len(s.Transactions)+1)
	next.Transactions = append(next.Transactions, s.Transactions...)
	next.Transactions = append(next.Transactions, tx)
	next.Balances = ledger.Apply(next.CurrentAddress, next.Transactions)
	return next
}

func submit(s core.WalletState, draft *core.Transaction) (core.WalletState, error) {
	if !s.IsInitialized {
		return s, errNotInitialized
	}

	if draft == nil {
		return s, &core.ErrorInfo{Code: "invalid_transaction", Message: "nil transaction"}
	}

	if draft.Status != core.TransactionStatusDraft {
		return s, &core.TransitionError{Kind: core.TransitionInvalid, TxID: draft.ID, From: draft.Status, To: core.TransactionStatusPending}
	}

	if i := s.Find(draft.ID); i >= 0 {
		return s, &core.TransitionError{Kind: core.TransitionInvalid, TxID: draft.ID, From: s.Transactions[i].Status, To: core.TransactionStatusPending}
	}

	if draft.From != s.CurrentAddress {
		return s, &core.ErrorInfo{Code: "invalid_transaction", Message: fmt.Sprintf("transaction %s is not from the current address", draft.ID)}
	}

	if !draft.Amount.IsPositive() {
		return s, &core.BuildError{Kind: core.BuildInvalidAmount}
	}

	// the draft may have been built against an older state
	if spendable := ledger.Spendable(s.Balances, draft.Asset.Symbol); draft.Amount.GreaterThan(spendable) {
		return s, &core.BuildError{Kind: core.BuildInsufficientBalance}
	}

	tx := draft.Clone()
	tx.Status = core.TransactionStatusPending
	return appendTx(s, tx), nil
}

func confirm(s core.WalletState, id string, blockHeight uint64, at time.Time) (core.WalletState, error) {
	at = at.UTC()
	return transition(s, id, core.TransactionStatusConfirmed, func(tx *core.Transaction) {
		tx.ConfirmedAt = &at
		tx.BlockHeight = blockHeight
	})
}

func fail(s core.WalletState, id, reason string) (core.WalletState, error) {
	return transition(s, id, core.TransactionStatusFailed, func(tx *core.Transaction) {
		tx.FailReason = reason
	})
}

func transition(s core.WalletState, id string, to core.TransactionStatus, mutate func(tx *core.Transaction)) (core.WalletState, error) {
	i := s.Find(id)
	if i < 0 {
		return s, &core.TransitionError{Kind: core.TransitionUnknownTransactionID, TxID: id}
	}

	current := s.Transactions[i]
	if !current.Status.CanTransition(to) {
		return s, &core.TransitionError{Kind: core.TransitionInvalid, TxID: id, From: current.Status, To: to}
	}

	tx := current.Clone()
	tx.Status = to
	if mutate != nil {
		mutate(tx)
	}

	next := s
	next.Transactions = append([]*core.Transaction(nil), s.Transactions...)
	next.Transactions[i] = tx
	next.Balances = ledger.Apply(next.CurrentAddress, next.Transactions)
	return next, nil
}

func recordConfirmed(s core.WalletState, record *core.Transaction) (core.WalletState, error) {
	if !s.IsInitialized {
		return s, errNotInitialized
	}

	if record == nil || record.ID == "" {
		return s, &core.ErrorInfo{Code: "invalid_transaction", Message: "transaction without id"}
	}

	if s.Find(record.ID) >= 0 {
		return s, nil
	}

	if !record.Amount.IsPositive() {
		return s, &core.BuildError{Kind: core.BuildInvalidAmount}
	}

	tx := record.Clone()
	tx.Status = core.TransactionStatusConfirmed
	if tx.ConfirmedAt == nil {
		at := tx.CreatedAt
		tx.ConfirmedAt = &at
	}

	return appendTx(s, tx), nil
}
