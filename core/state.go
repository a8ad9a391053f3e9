package core

import (
	"context"
)

type WalletState struct {
	IsInitialized  bool           `json:"is_initialized"`
	CurrentAddress Address        `json:"current_address"`
	Balances       []Balance      `json:"balances"`
	Transactions   []*Transaction `json:"transactions"`
	IsLoading      bool           `json:"is_loading"`
	Error          *ErrorInfo     `json:"error"`
}

func (s WalletState) Clone() WalletState {
	c := s
	c.Balances = append([]Balance(nil), s.Balances...)
	c.Transactions = make([]*Transaction, len(s.Transactions))
	for i, tx := range s.Transactions {
		c.Transactions[i] = tx.Clone()
	}

	if s.Error != nil {
		e := *s.Error
		c.Error = &e
	}

	return c
}

// Find returns the index of the transaction with id, or -1.
func (s WalletState) Find(id string) int {
	for i, tx := range s.Transactions {
		if tx.ID == id {
			return i
		}
	}

	return -1
}

type NetworkState struct {
	IsConnected          bool     `json:"is_connected"`
	LatestBlockHeight    uint64   `json:"latest_block_height"`
	PendingConfirmations []string `json:"pending_confirmations"`
	// SyncHeight is the next block to pull; every block below it has been
	// applied to the wallet.
	SyncHeight uint64 `json:"sync_height"`
}

func (s NetworkState) Clone() NetworkState {
	c := s
	c.PendingConfirmations = append([]string(nil), s.PendingConfirmations...)
	return c
}

type MiningState struct {
	IsActive     bool    `json:"is_active"`
	HashRate     float64 `json:"hash_rate"`
	LastRewardTx string  `json:"last_reward_tx,omitempty"`
}

type RootState struct {
	Version uint64       `json:"version"`
	Wallet  WalletState  `json:"wallet"`
	Network NetworkState `json:"network"`
	Mining  MiningState  `json:"mining"`
}

func (s RootState) Clone() RootState {
	return RootState{
		Version: s.Version,
		Wallet:  s.Wallet.Clone(),
		Network: s.Network.Clone(),
		Mining:  s.Mining,
	}
}

// StateStore persists root state snapshots across restarts.
type StateStore interface {
	Load(ctx context.Context) (*RootState, error)
	Save(ctx context.Context, state RootState) error
	Reset(ctx context.Context) error
}
