package state

import (
	"time"

	"github.com/pandodao/drm-wallet/core"
)

// Action is an event dispatched to the store.
type Action interface {
	reduce(s core.RootState) (core.RootState, error)
}

type (
	InitializeAction struct {
		Address core.Address
	}

	SubmitAction struct {
		Tx *core.Transaction
	}

	ConfirmAction struct {
		ID          string
		BlockHeight uint64
		At          time.Time
	}

	FailAction struct {
		ID     string
		Reason string
	}

	CancelAction struct {
		ID string
	}

	// RecordConfirmedAction synthesizes a transaction the wallet did not
	// initiate. Reward marks it as the latest mining reward.
	RecordConfirmedAction struct {
		Tx     *core.Transaction
		Reward bool
	}

	SetLoadingAction struct {
		Loading bool
	}

	SetErrorAction struct {
		Err *core.ErrorInfo
	}

	ResetAction struct{}

	SetConnectedAction struct {
		Connected bool
	}

	SetBlockHeightAction struct {
		Height uint64
	}

	// ApplyBlockAction is dispatched once all records of a block are in.
	ApplyBlockAction struct {
		Height uint64
	}

	SetMiningStatusAction struct {
		Active   bool
		HashRate float64
	}
)

// Reduce applies a to s. The returned state carries the error flag when the
// action was rejected; the error itself is returned as well.
func Reduce(s core.RootState, a Action) (core.RootState, error) {
	next, err := a.reduce(s)
	if err != nil {
		next.Wallet = withError(next.Wallet, err)
	}

	next.Network.PendingConfirmations = pendingConfirmations(next.Wallet)
	return next, err
}

func (a InitializeAction) reduce(s core.RootState) (core.RootState, error) {
	w, err := initialize(s.Wallet, a.Address)
	if err != nil {
		return s, err
	}

	s.Wallet = w
	s.Mining = core.MiningState{}
	return s, nil
}

func (a SubmitAction) reduce(s core.RootState) (core.RootState, error) {
	w, err := submit(s.Wallet, a.Tx)
	s.Wallet = w
	return s, err
}

func (a ConfirmAction) reduce(s core.RootState) (core.RootState, error) {
	w, err := confirm(s.Wallet, a.ID, a.BlockHeight, a.At)
	s.Wallet = w
	if err != nil {
		return s, err
	}

	s.Network = SetBlockHeight(s.Network, a.BlockHeight)
	return s, nil
}

func (a FailAction) reduce(s core.RootState) (core.RootState, error) {
	w, err := fail(s.Wallet, a.ID, a.Reason)
	s.Wallet = w
	return s, err
}

func (a CancelAction) reduce(s core.RootState) (core.RootState, error) {
	w, err := transition(s.Wallet, a.ID, core.TransactionStatusCancelled, nil)
	s.Wallet = w
	return s, err
}

func (a RecordConfirmedAction) reduce(s core.RootState) (core.RootState, error) {
	w, err := recordConfirmed(s.Wallet, a.Tx)
	s.Wallet = w
	if err != nil {
		return s, err
	}

	if a.Reward {
		s.Mining = RecordReward(s.Mining, a.Tx.ID)
	}

	s.Network = SetBlockHeight(s.Network, a.Tx.BlockHeight)
	return s, nil
}

func (a SetLoadingAction) reduce(s core.RootState) (core.RootState, error) {
	s.Wallet = SetLoading(s.Wallet, a.Loading)
	return s, nil
}

func (a SetErrorAction) reduce(s core.RootState) (core.RootState, error) {
	s.Wallet = SetError(s.Wallet, a.Err)
	return s, nil
}

func (ResetAction) reduce(s core.RootState) (core.RootState, error) {
	return core.RootState{
		Version: s.Version,
		Wallet:  Reset(),
		Network: core.NetworkState{IsConnected: s.Network.IsConnected, SyncHeight: s.Network.SyncHeight},
	}, nil
}

func (a SetConnectedAction) reduce(s core.RootState) (core.RootState, error) {
	s.Network = SetConnected(s.Network, a.Connected)
	return s, nil
}

func (a SetBlockHeightAction) reduce(s core.RootState) (core.RootState, error) {
	s.Network = SetBlockHeight(s.Network, a.Height)
	return s, nil
}

func (a ApplyBlockAction) reduce(s core.RootState) (core.RootState, error) {
	s.Network = ApplyBlock(s.Network, a.Height)
	return s, nil
}

func (a SetMiningStatusAction) reduce(s core.RootState) (core.RootState, error) {
	s.Mining = SetMiningStatus(s.Mining, a.Active, a.HashRate)
	return s, nil
}
