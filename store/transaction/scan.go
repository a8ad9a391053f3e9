package transaction

import (
	"database/sql"
	"fmt"

	"github.com/pandodao/drm-wallet/core"
	"github.com/shopspring/decimal"
)

type scanner interface {
	Scan(dest ...interface{}) error
}

var scanColumns = []string{
	"id",
	"from_address",
	"to_address",
	"amount",
	"symbol",
	"`precision`",
	"status",
	"source",
	"created_at",
	"confirmed_at",
	"block_height",
	"fail_reason",
	"signature",
}

// scanTransaction reads a row and re-validates its addresses with codec.
func scanTransaction(scanner scanner, codec core.AddressCodec, tx *core.Transaction) error {
	var (
		from, to    string
		amount      string
		status      string
		confirmedAt sql.NullTime
	)

	if err := scanner.Scan(
		&tx.ID,
		&from,
		&to,
		&amount,
		&tx.Asset.Symbol,
		&tx.Asset.Precision,
		&status,
		&tx.Source,
		&tx.CreatedAt,
		&confirmedAt,
		&tx.BlockHeight,
		&tx.FailReason,
		&tx.Signature,
	); err != nil {
		return err
	}

	var err error
	if tx.From, err = parseAddress(codec, from); err != nil {
		return fmt.Errorf("%w: transaction %s from: %w", core.ErrCorruptedState, tx.ID, err)
	}

	if tx.To, err = parseAddress(codec, to); err != nil {
		return fmt.Errorf("%w: transaction %s to: %w", core.ErrCorruptedState, tx.ID, err)
	}

	if tx.Amount, err = decimal.NewFromString(amount); err != nil {
		return fmt.Errorf("%w: transaction %s amount: %w", core.ErrCorruptedState, tx.ID, err)
	}

	if tx.Status, err = core.ParseTransactionStatus(status); err != nil {
		return fmt.Errorf("%w: transaction %s: %w", core.ErrCorruptedState, tx.ID, err)
	}

	tx.CreatedAt = tx.CreatedAt.UTC()
	if confirmedAt.Valid {
		at := confirmedAt.Time.UTC()
		tx.ConfirmedAt = &at
	}

	return nil
}

func parseAddress(codec core.AddressCodec, s string) (core.Address, error) {
	if s == "" {
		return core.Address{}, nil
	}

	return codec.Validate(s)
}
