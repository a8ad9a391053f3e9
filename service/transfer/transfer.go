package transfer

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pandodao/drm-wallet/core"
	"github.com/pandodao/drm-wallet/service/ledger"
	"github.com/shopspring/decimal"
)

type Builder struct {
	codec core.AddressCodec
	now   func() time.Time
	newID func() string
}

func New(codec core.AddressCodec) *Builder {
	return &Builder{
		codec: codec,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Build validates the user's intent against the current balances and returns
// a Draft transaction. It never touches wallet state.
func (b *Builder) Build(recipient, amountInput string, asset core.Asset, balances []core.Balance, current core.Address) (*core.Transaction, error) {
	to, err := b.codec.Validate(recipient)
	if err != nil {
		return nil, &core.BuildError{Kind: core.BuildInvalidAddress, Err: err}
	}

	if to == current {
		return nil, &core.BuildError{Kind: core.BuildSelfTransferNotAllowed}
	}

	amount, err := parseAmount(amountInput, asset)
	if err != nil {
		return nil, &core.BuildError{Kind: core.BuildInvalidAmount, Err: err}
	}

	if spendable := ledger.Spendable(balances, asset.Symbol); amount.GreaterThan(spendable) {
		return nil, &core.BuildError{
			Kind: core.BuildInsufficientBalance,
			Err:  fmt.Errorf("spendable %s %s, want %s", spendable, asset.Symbol, amount),
		}
	}

	return &core.Transaction{
		ID:        b.newID(),
		From:      current,
		To:        to,
		Amount:    amount,
		Asset:     asset,
		Status:    core.TransactionStatusDraft,
		Source:    core.TransactionSourceTransfer,
		CreatedAt: b.now().UTC(),
	}, nil
}

func parseAmount(input string, asset core.Asset) (decimal.Decimal, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}

	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}

	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("amount %s must be positive", amount)
	}

	if amount.Truncate(asset.Precision).LessThan(amount) {
		return decimal.Zero, fmt.Errorf("amount %s exceeds %d decimals", amount, asset.Precision)
	}

	return amount, nil
}
