package ledger

import (
	"sort"

	"github.com/pandodao/drm-wallet/core"
	"github.com/shopspring/decimal"
)

// Apply derives balances for self from the full transaction set. The result
// does not depend on the order of txs and is sorted by asset symbol.
func Apply(self core.Address, txs []*core.Transaction) []core.Balance {
	balances := map[string]*core.Balance{}

	get := func(asset core.Asset) *core.Balance {
		b, ok := balances[asset.Symbol]
		if !ok {
			b = &core.Balance{Asset: asset, Confirmed: decimal.Zero, Pending: decimal.Zero}
			balances[asset.Symbol] = b
		}

		return b
	}

	for _, tx := range txs {
		switch tx.Status {
		case core.TransactionStatusConfirmed:
			if tx.IsOutgoing(self) {
				b := get(tx.Asset)
				b.Confirmed = b.Confirmed.Sub(tx.Amount)
			}

			if tx.IsIncoming(self) {
				b := get(tx.Asset)
				b.Confirmed = b.Confirmed.Add(tx.Amount)
			}
		case core.TransactionStatusPending:
			if tx.IsOutgoing(self) {
				b := get(tx.Asset)
				b.Pending = b.Pending.Add(tx.Amount)
			}
		}
	}

	out := make([]core.Balance, 0, len(balances))
	for _, b := range balances {
		out = append(out, *b)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Asset.Symbol < out[j].Asset.Symbol
	})

	return out
}

// Find returns the balance of asset, or a zero balance.
func Find(balances []core.Balance, symbol string) core.Balance {
	for _, b := range balances {
		if b.Asset.Symbol == symbol {
			return b
		}
	}

	return core.Balance{Asset: core.Asset{Symbol: symbol}}
}

func Spendable(balances []core.Balance, symbol string) decimal.Decimal {
	return Find(balances, symbol).Spendable()
}

// Equal compares two balance sets numerically.
func Equal(a, b []core.Balance) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i].Asset != b[i].Asset || !a[i].Confirmed.Equal(b[i].Confirmed) || !a[i].Pending.Equal(b[i].Pending) {
			return false
		}
	}

	return true
}
