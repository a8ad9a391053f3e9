package core

import (
	"context"
	"strings"
)

type Asset struct {
	Symbol    string `json:"symbol"`
	Precision int32  `json:"precision"`
}

func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

type AssetService interface {
	Find(ctx context.Context, symbol string) (*Asset, error)
	List(ctx context.Context) ([]*Asset, error)
}
