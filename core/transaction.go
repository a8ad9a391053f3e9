package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionStatus uint8

const (
	TransactionStatusDraft TransactionStatus = iota
	TransactionStatusPending
	TransactionStatusConfirmed
	TransactionStatusFailed
	TransactionStatusCancelled
)

var transactionStatusNames = [...]string{"draft", "pending", "confirmed", "failed", "cancelled"}

func (s TransactionStatus) String() string {
	if int(s) < len(transactionStatusNames) {
		return transactionStatusNames[s]
	}

	return fmt.Sprintf("TransactionStatus(%d)", uint8(s))
}

func (s TransactionStatus) IsTerminal() bool {
	switch s {
	case TransactionStatusConfirmed, TransactionStatusFailed, TransactionStatusCancelled:
		return true
	default:
		return false
	}
}

func (s TransactionStatus) IsValid() bool {
	return int(s) < len(transactionStatusNames)
}

// CanTransition reports whether the lifecycle allows moving from s to to.
func (s TransactionStatus) CanTransition(to TransactionStatus) bool {
	switch s {
	case TransactionStatusDraft:
		return to == TransactionStatusPending
	case TransactionStatusPending:
		return to == TransactionStatusConfirmed || to == TransactionStatusFailed || to == TransactionStatusCancelled
	default:
		return false
	}
}

func (s TransactionStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *TransactionStatus) UnmarshalText(b []byte) error {
	v, err := ParseTransactionStatus(string(b))
	if err != nil {
		return err
	}

	*s = v
	return nil
}

func ParseTransactionStatus(s string) (TransactionStatus, error) {
	for i, name := range transactionStatusNames {
		if strings.EqualFold(name, s) {
			return TransactionStatus(i), nil
		}
	}

	return 0, fmt.Errorf("unknown transaction status %q", s)
}

type TransactionSource string

const (
	TransactionSourceTransfer TransactionSource = "transfer"
	TransactionSourceReward   TransactionSource = "reward"
	TransactionSourceExternal TransactionSource = "external"
)

type Transaction struct {
	ID          string            `json:"id"`
	From        Address           `json:"from"`
	To          Address           `json:"to"`
	Amount      decimal.Decimal   `json:"amount"`
	Asset       Asset             `json:"asset"`
	Status      TransactionStatus `json:"status"`
	Source      TransactionSource `json:"source"`
	CreatedAt   time.Time         `json:"created_at"`
	ConfirmedAt *time.Time        `json:"confirmed_at,omitempty"`
	BlockHeight uint64            `json:"block_height,omitempty"`
	FailReason  string            `json:"fail_reason,omitempty"`
	Signature   string            `json:"signature,omitempty"`
}

func (t *Transaction) Clone() *Transaction {
	c := *t
	if t.ConfirmedAt != nil {
		at := *t.ConfirmedAt
		c.ConfirmedAt = &at
	}

	return &c
}

func (t *Transaction) IsOutgoing(self Address) bool {
	return !self.IsZero() && t.From == self
}

func (t *Transaction) IsIncoming(self Address) bool {
	return !self.IsZero() && t.To == self
}

type TransactionStore interface {
	Save(ctx context.Context, txs []*Transaction) error
	Find(ctx context.Context, id string) (*Transaction, error)
	List(ctx context.Context, offset, limit int) ([]*Transaction, error)
	DeleteAll(ctx context.Context) error
}
