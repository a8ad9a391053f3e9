package wallet

import (
	"context"
	"fmt"

	"github.com/pandodao/drm-wallet/core"
	"github.com/pandodao/drm-wallet/store/property"
	"github.com/pandodao/drm-wallet/store/transaction"
	"github.com/pandodao/generic"
	"github.com/tsenart/nap"
)

const propertyWalletState = "wallet_state"

// snapshot is everything in RootState except the transaction history, which
// lives in its own table.
type snapshot struct {
	Version        uint64            `json:"version"`
	IsInitialized  bool              `json:"is_initialized"`
	CurrentAddress string            `json:"current_address"`
	Balances       []core.Balance    `json:"balances"`
	IsLoading      bool              `json:"is_loading"`
	Error          *core.ErrorInfo   `json:"error,omitempty"`
	Network        core.NetworkState `json:"network"`
	Mining         core.MiningState  `json:"mining"`
}

func New(db *nap.DB, transactions *transaction.Store, codec core.AddressCodec) core.StateStore {
	return &stateStore{
		db:           db,
		transactions: transactions,
		codec:        codec,
	}
}

type stateStore struct {
	db           *nap.DB
	transactions *transaction.Store
	codec        core.AddressCodec
}

// Load returns the persisted state, or nil when nothing was saved yet.
// Addresses are re-validated; a value the codec rejects means the state is
// corrupted.
func (s *stateStore) Load(ctx context.Context) (*core.RootState, error) {
	tx := generic.Must(s.db.Begin())
	defer tx.Rollback()

	var snap *snapshot
	if err := property.Get(ctx, tx, propertyWalletState, &snap); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrCorruptedState, err)
	}

	if snap == nil {
		return nil, nil
	}

	txs, err := s.transactions.ListTx(ctx, tx, 0, 0)
	if err != nil {
		return nil, err
	}

	state := &core.RootState{
		Version: snap.Version,
		Wallet: core.WalletState{
			IsInitialized: snap.IsInitialized,
			Balances:      snap.Balances,
			Transactions:  txs,
			IsLoading:     snap.IsLoading,
			Error:         snap.Error,
		},
		Network: snap.Network,
		Mining:  snap.Mining,
	}

	if state.Wallet.Balances == nil {
		state.Wallet.Balances = []core.Balance{}
	}

	if snap.CurrentAddress != "" {
		addr, err := s.codec.Validate(snap.CurrentAddress)
		if err != nil {
			return nil, fmt.Errorf("%w: current address: %w", core.ErrCorruptedState, err)
		}

		state.Wallet.CurrentAddress = addr
	}

	return state, tx.Commit()
}

func (s *stateStore) Save(ctx context.Context, state core.RootState) error {
	tx := generic.Must(s.db.Begin())
	defer tx.Rollback()

	snap := snapshot{
		Version:        state.Version,
		IsInitialized:  state.Wallet.IsInitialized,
		CurrentAddress: state.Wallet.CurrentAddress.String(),
		Balances:       state.Wallet.Balances,
		IsLoading:      state.Wallet.IsLoading,
		Error:          state.Wallet.Error,
		Network:        state.Network,
		Mining:         state.Mining,
	}

	// the saved history always mirrors state, whatever happened in between
	if err := s.transactions.SaveTx(ctx, tx, state.Wallet.Transactions); err != nil {
		return err
	}

	if err := property.Set(ctx, tx, propertyWalletState, snap); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *stateStore) Reset(ctx context.Context) error {
	tx := generic.Must(s.db.Begin())
	defer tx.Rollback()

	if err := s.transactions.DeleteAllTx(ctx, tx); err != nil {
		return err
	}

	if err := property.Delete(ctx, tx, propertyWalletState); err != nil {
		return err
	}

	return tx.Commit()
}
