package state

import (
	"fmt"
	"slices"

	"github.com/pandodao/drm-wallet/core"
	"github.com/pandodao/drm-wallet/service/ledger"
)

// Validate checks every invariant of a root state. Persisted states failing
// it are unusable and need a reset.
func Validate(s core.RootState) error {
	if err := validateWallet(s.Wallet); err != nil {
		return fmt.Errorf("%w: %w", core.ErrCorruptedState, err)
	}

	if want := pendingConfirmations(s.Wallet); !slices.Equal(want, normalizedIDs(s.Network.PendingConfirmations)) {
		return fmt.Errorf("%w: pending confirmations %v, want %v", core.ErrCorruptedState, s.Network.PendingConfirmations, want)
	}

	if id := s.Mining.LastRewardTx; id != "" {
		if i := s.Wallet.Find(id); i < 0 || s.Wallet.Transactions[i].Source != core.TransactionSourceReward {
			return fmt.Errorf("%w: last reward %s not in history", core.ErrCorruptedState, id)
		}
	}

	return nil
}

func normalizedIDs(ids []string) []string {
	out := append([]string{}, ids...)
	slices.Sort(out)
	return out
}

func validateWallet(w core.WalletState) error {
	if w.IsInitialized == w.CurrentAddress.IsZero() {
		return fmt.Errorf("initialized=%v with address %q", w.IsInitialized, w.CurrentAddress)
	}

	if !w.IsInitialized && len(w.Transactions) > 0 {
		return fmt.Errorf("uninitialized wallet has %d transactions", len(w.Transactions))
	}

	seen := make(map[string]bool, len(w.Transactions))
	for i, tx := range w.Transactions {
		switch {
		case tx == nil:
			return fmt.Errorf("transaction %d is nil", i)
		case tx.ID == "":
			return fmt.Errorf("transaction %d has no id", i)
		case seen[tx.ID]:
			return fmt.Errorf("duplicate transaction %s", tx.ID)
		case !tx.Status.IsValid() || tx.Status == core.TransactionStatusDraft:
			return fmt.Errorf("transaction %s has status %s", tx.ID, tx.Status)
		case !tx.Amount.IsPositive():
			return fmt.Errorf("transaction %s has amount %s", tx.ID, tx.Amount)
		case tx.Status == core.TransactionStatusConfirmed && tx.ConfirmedAt == nil:
			return fmt.Errorf("confirmed transaction %s has no confirmation time", tx.ID)
		case i > 0 && tx.CreatedAt.Before(w.Transactions[i-1].CreatedAt):
			return fmt.Errorf("transaction %s out of order", tx.ID)
		}

		seen[tx.ID] = true
	}

	if want := ledger.Apply(w.CurrentAddress, w.Transactions); !ledger.Equal(want, w.Balances) {
		return fmt.Errorf("balances %v do not match history %v", w.Balances, want)
	}

	return nil
}
