package core

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

type Balance struct {
	Asset     Asset           `json:"asset"`
	Confirmed decimal.Decimal `json:"confirmed"`
	// Pending is the amount reserved by outgoing pending transactions.
	Pending decimal.Decimal `json:"pending"`
}

// Spendable is confirmed minus reserved, never below zero.
func (b Balance) Spendable() decimal.Decimal {
	v := b.Confirmed.Sub(b.Pending)
	if v.IsNegative() {
		return decimal.Zero
	}

	return v
}

func (b Balance) MarshalJSON() ([]byte, error) {
	type balance Balance
	return json.Marshal(struct {
		balance
		Spendable decimal.Decimal `json:"spendable"`
	}{balance(b), b.Spendable()})
}
