package core

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type EventKind string

const (
	EventKindBlock       EventKind = "block"
	EventKindTransaction EventKind = "transaction"
	EventKindReward      EventKind = "reward"
	EventKindMining      EventKind = "mining"
	EventKindConnection  EventKind = "connection"
	EventKindTimeout     EventKind = "timeout"
)

// Event is a network or mining notification consumed by the reconciler.
type Event interface {
	Kind() EventKind
}

// TxRecord is a transaction reported by the network inside a block.
type TxRecord struct {
	ID     string
	From   Address
	To     Address
	Amount decimal.Decimal
	Asset  Asset
}

type Rejection struct {
	ID     string `json:"id" cbor:"id"`
	Reason string `json:"reason,omitempty" cbor:"reason,omitempty"`
}

type BlockEvent struct {
	Height    uint64
	Timestamp time.Time
	Confirmed []TxRecord
	Rejected  []Rejection
}

type TransactionEvent struct {
	TxID        string
	Status      TransactionStatus
	BlockHeight uint64
	Reason      string
	Timestamp   time.Time
}

type RewardEvent struct {
	RewardTxID  string
	Amount      decimal.Decimal
	Asset       Asset
	BlockHeight uint64
	Timestamp   time.Time
}

type MiningEvent struct {
	Active   bool
	HashRate float64
}

type ConnectionEvent struct {
	Connected bool
}

type TimeoutEvent struct {
	TxID      string
	Timestamp time.Time
}

func (BlockEvent) Kind() EventKind       { return EventKindBlock }
func (TransactionEvent) Kind() EventKind { return EventKindTransaction }
func (RewardEvent) Kind() EventKind      { return EventKindReward }
func (MiningEvent) Kind() EventKind      { return EventKindMining }
func (ConnectionEvent) Kind() EventKind  { return EventKindConnection }
func (TimeoutEvent) Kind() EventKind     { return EventKindTimeout }

type TxRecordEnvelope struct {
	ID        string `json:"id" cbor:"id"`
	From      string `json:"from,omitempty" cbor:"from,omitempty"`
	To        string `json:"to,omitempty" cbor:"to,omitempty"`
	Amount    string `json:"amount" cbor:"amount"`
	Symbol    string `json:"symbol" cbor:"symbol"`
	Precision int32  `json:"precision" cbor:"precision"`
}

// EventEnvelope is the wire form shared by the HTTP network client (JSON)
// and the redis feed (CBOR).
type EventEnvelope struct {
	Kind      EventKind          `json:"kind" cbor:"kind"`
	Height    uint64             `json:"height,omitempty" cbor:"height,omitempty"`
	Timestamp int64              `json:"timestamp,omitempty" cbor:"timestamp,omitempty"`
	TxID      string             `json:"tx_id,omitempty" cbor:"tx_id,omitempty"`
	Status    string             `json:"status,omitempty" cbor:"status,omitempty"`
	Reason    string             `json:"reason,omitempty" cbor:"reason,omitempty"`
	Amount    string             `json:"amount,omitempty" cbor:"amount,omitempty"`
	Symbol    string             `json:"symbol,omitempty" cbor:"symbol,omitempty"`
	Precision int32              `json:"precision,omitempty" cbor:"precision,omitempty"`
	Confirmed []TxRecordEnvelope `json:"confirmed,omitempty" cbor:"confirmed,omitempty"`
	Rejected  []Rejection        `json:"rejected,omitempty" cbor:"rejected,omitempty"`
	Active    bool               `json:"active,omitempty" cbor:"active,omitempty"`
	HashRate  float64            `json:"hash_rate,omitempty" cbor:"hash_rate,omitempty"`
	Connected bool               `json:"connected,omitempty" cbor:"connected,omitempty"`
}

func unixMilli(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}

	return t.UnixMilli()
}

func fromUnixMilli(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}

	return time.UnixMilli(ms).UTC()
}

func EncodeEvent(ev Event) EventEnvelope {
	env := EventEnvelope{Kind: ev.Kind()}

	switch e := ev.(type) {
	case BlockEvent:
		env.Height = e.Height
		env.Timestamp = unixMilli(e.Timestamp)
		env.Rejected = e.Rejected
		for _, r := range e.Confirmed {
			env.Confirmed = append(env.Confirmed, TxRecordEnvelope{
				ID:        r.ID,
				From:      r.From.String(),
				To:        r.To.String(),
				Amount:    r.Amount.String(),
				Symbol:    r.Asset.Symbol,
				Precision: r.Asset.Precision,
			})
		}
	case TransactionEvent:
		env.TxID = e.TxID
		env.Status = e.Status.String()
		env.Height = e.BlockHeight
		env.Reason = e.Reason
		env.Timestamp = unixMilli(e.Timestamp)
	case RewardEvent:
		env.TxID = e.RewardTxID
		env.Amount = e.Amount.String()
		env.Symbol = e.Asset.Symbol
		env.Precision = e.Asset.Precision
		env.Height = e.BlockHeight
		env.Timestamp = unixMilli(e.Timestamp)
	case MiningEvent:
		env.Active = e.Active
		env.HashRate = e.HashRate
	case ConnectionEvent:
		env.Connected = e.Connected
	case TimeoutEvent:
		env.TxID = e.TxID
		env.Timestamp = unixMilli(e.Timestamp)
	}

	return env
}

func decodeAddress(codec AddressCodec, s string) (Address, error) {
	if s == "" {
		return Address{}, nil
	}

	return codec.Validate(s)
}

// Decode converts the envelope back into a typed event, validating every
// address with codec.
func (env EventEnvelope) Decode(codec AddressCodec) (Event, error) {
	switch env.Kind {
	case EventKindBlock:
		ev := BlockEvent{
			Height:    env.Height,
			Timestamp: fromUnixMilli(env.Timestamp),
			Rejected:  env.Rejected,
		}

		for _, r := range env.Confirmed {
			from, err := decodeAddress(codec, r.From)
			if err != nil {
				return nil, fmt.Errorf("record %s from: %w", r.ID, err)
			}

			to, err := decodeAddress(codec, r.To)
			if err != nil {
				return nil, fmt.Errorf("record %s to: %w", r.ID, err)
			}

			record := TxRecord{
				ID:    r.ID,
				From:  from,
				To:    to,
				Asset: Asset{Symbol: NormalizeSymbol(r.Symbol), Precision: r.Precision},
			}

			if r.Amount != "" {
				amount, err := decimal.NewFromString(r.Amount)
				if err != nil {
					return nil, fmt.Errorf("record %s amount: %w", r.ID, err)
				}
				record.Amount = amount
			}

			ev.Confirmed = append(ev.Confirmed, record)
		}

		return ev, nil
	case EventKindTransaction:
		status, err := ParseTransactionStatus(env.Status)
		if err != nil {
			return nil, err
		}

		return TransactionEvent{
			TxID:        env.TxID,
			Status:      status,
			BlockHeight: env.Height,
			Reason:      env.Reason,
			Timestamp:   fromUnixMilli(env.Timestamp),
		}, nil
	case EventKindReward:
		amount, err := decimal.NewFromString(env.Amount)
		if err != nil {
			return nil, fmt.Errorf("reward amount: %w", err)
		}

		return RewardEvent{
			RewardTxID:  env.TxID,
			Amount:      amount,
			Asset:       Asset{Symbol: NormalizeSymbol(env.Symbol), Precision: env.Precision},
			BlockHeight: env.Height,
			Timestamp:   fromUnixMilli(env.Timestamp),
		}, nil
	case EventKindMining:
		return MiningEvent{Active: env.Active, HashRate: env.HashRate}, nil
	case EventKindConnection:
		return ConnectionEvent{Connected: env.Connected}, nil
	case EventKindTimeout:
		return TimeoutEvent{TxID: env.TxID, Timestamp: fromUnixMilli(env.Timestamp)}, nil
	default:
		return nil, fmt.Errorf("unknown event kind %q", env.Kind)
	}
}

// EventFeed delivers events produced by network and mining collaborators.
type EventFeed interface {
	Subscribe(ctx context.Context, fn func(Event)) error
	Publish(ctx context.Context, ev Event) error
}
