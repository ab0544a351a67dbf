package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type InvestmentType string

const (
	InvestmentStock      InvestmentType = "Stock"
	InvestmentMutualFund InvestmentType = "MutualFund"
)

func (t InvestmentType) Valid() bool {
	return t == InvestmentStock || t == InvestmentMutualFund
}

type Holding struct {
	ID             int64
	InvestmentType InvestmentType
	Symbol         string
	Name           string
	Sector         string
	Industry       string
	PurchaseDate   time.Time
	PurchasePrice  decimal.Decimal
	Units          decimal.Decimal
	Currency       string
}

// Instrument is the (symbol, type, currency) triple the price-history
// refresh iterates over. One row per distinct symbol held.
type Instrument struct {
	Symbol         string
	InvestmentType InvestmentType
	Currency       string
}
