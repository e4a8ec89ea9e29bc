package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CategoryFiat is the category assigned to every fiat wallet balance.
const CategoryFiat = "fiat"

// WalletBalance is one wallet flattened out of an upstream balance response.
// Balance is passed through as reported; negative values are not rejected.
type WalletBalance struct {
	Category string
	WalletID string
	Name     string
	Symbol   string
	Balance  decimal.Decimal
}

// IsZero reports whether the wallet holds nothing.
func (w WalletBalance) IsZero() bool {
	return w.Balance.IsZero()
}

// MatchesSymbol reports whether the wallet's symbol equals symbol, ignoring case.
func (w WalletBalance) MatchesSymbol(symbol string) bool {
	return strings.EqualFold(strings.TrimSpace(symbol), w.Symbol)
}
