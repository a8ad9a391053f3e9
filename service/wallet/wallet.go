package wallet

import (
	"context"
	"errors"
	"log/slog"

	"github.com/pandodao/drm-wallet/core"
	"github.com/pandodao/drm-wallet/service/transfer"
	"github.com/pandodao/drm-wallet/state"
)

// Service runs the user facing use cases against the state store.
type Service struct {
	store   *state.Store
	builder *transfer.Builder
	signer  core.Signer
	network core.NetworkService
	assets  core.AssetService
	logger  *slog.Logger
}

func New(
	store *state.Store,
	builder *transfer.Builder,
	signer core.Signer,
	network core.NetworkService,
	assets core.AssetService,
	logger *slog.Logger,
) *Service {
	return &Service{
		store:   store,
		builder: builder,
		signer:  signer,
		network: network,
		assets:  assets,
		logger:  logger.With("service", "wallet"),
	}
}

// Initialize binds the wallet to the signer's address. It is a no-op when
// the wallet is already bound to that address.
func (s *Service) Initialize(_ context.Context) error {
	addr := s.signer.Address()
	if w := s.store.Wallet(); w.IsInitialized && w.CurrentAddress == addr {
		return nil
	}

	return s.store.Dispatch(state.InitializeAction{Address: addr})
}

type SendRequest struct {
	Recipient string `json:"recipient" valid:"required"`
	Amount    string `json:"amount" valid:"required"`
	Asset     string `json:"asset" valid:"required"`
}

// Send builds, signs, submits and broadcasts a transfer. The transaction is
// Pending in the store before the broadcast starts. A broadcast the network
// refused fails the transaction; an unreachable network leaves it Pending for
// the rebroadcaster.
func (s *Service) Send(ctx context.Context, req SendRequest) (*core.Transaction, error) {
	asset, err := s.assets.Find(ctx, req.Asset)
	if err != nil {
		return nil, s.reject(err)
	}

	w := s.store.Wallet()
	draft, err := s.builder.Build(req.Recipient, req.Amount, *asset, w.Balances, w.CurrentAddress)
	if err != nil {
		return nil, s.reject(err)
	}

	if err := s.signer.Sign(ctx, draft); err != nil {
		s.logger.Error("signer.Sign", "err", err)
		return nil, s.reject(err)
	}

	if err := s.store.Dispatch(state.SubmitAction{Tx: draft}); err != nil {
		return nil, err
	}

	logger := s.logger.With("tx", draft.ID)
	logger.Info("transaction submitted", "to", draft.To, "amount", draft.Amount, "asset", asset.Symbol)

	if err := s.network.Broadcast(ctx, draft); err != nil {
		logger.Error("network.Broadcast", "err", err)

		var broadcastErr *core.BroadcastError
		if !errors.As(err, &broadcastErr) {
			broadcastErr = &core.BroadcastError{Err: err}
		}

		if broadcastErr.Rejected {
			_ = s.store.Dispatch(state.FailAction{ID: draft.ID, Reason: broadcastErr.Err.Error()})
		} else {
			_ = s.store.Dispatch(state.SetErrorAction{Err: core.NewErrorInfo(broadcastErr)})
		}

		tx, _ := s.store.Transaction(draft.ID)
		return tx, broadcastErr
	}

	tx, _ := s.store.Transaction(draft.ID)
	return tx, nil
}

// Cancel withdraws a Pending transaction and releases its reservation.
func (s *Service) Cancel(_ context.Context, id string) (*core.Transaction, error) {
	if err := s.store.Dispatch(state.CancelAction{ID: id}); err != nil {
		return nil, err
	}

	s.logger.Info("transaction cancelled", "tx", id)
	tx, _ := s.store.Transaction(id)
	return tx, nil
}

// Reset clears balances and history.
func (s *Service) Reset(_ context.Context) error {
	s.logger.Info("wallet reset")
	return s.store.Dispatch(state.ResetAction{})
}

func (s *Service) SetLoading(_ context.Context, loading bool) error {
	return s.store.Dispatch(state.SetLoadingAction{Loading: loading})
}

func (s *Service) reject(err error) error {
	_ = s.store.Dispatch(state.SetErrorAction{Err: core.NewErrorInfo(err)})
	return err
}
