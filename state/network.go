package state

import (
	"sort"

	"github.com/pandodao/drm-wallet/core"
)

func SetConnected(s core.NetworkState, connected bool) core.NetworkState {
	s.IsConnected = connected
	return s
}

// SetBlockHeight only moves the tip forward; replayed blocks are ignored.
func SetBlockHeight(s core.NetworkState, height uint64) core.NetworkState {
	if height > s.LatestBlockHeight {
		s.LatestBlockHeight = height
	}

	return s
}

// ApplyBlock records that every event of block height has been applied.
func ApplyBlock(s core.NetworkState, height uint64) core.NetworkState {
	s = SetBlockHeight(s, height)
	if height+1 > s.SyncHeight {
		s.SyncHeight = height + 1
	}

	return s
}

// pendingConfirmations derives the set of ids still awaiting the network.
func pendingConfirmations(w core.WalletState) []string {
	ids := []string{}
	for _, tx := range w.Transactions {
		if tx.Status == core.TransactionStatusPending {
			ids = append(ids, tx.ID)
		}
	}

	sort.Strings(ids)
	return ids
}
