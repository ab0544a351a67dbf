package dbModel

import (
	"time"

	"github.com/shopspring/decimal"
)

type Holding struct {
	ID             int64           `db:"id"`
	InvestmentType string          `db:"investment_type"`
	Symbol         string          `db:"symbol"`
	Name           string          `db:"name"`
	Sector         string          `db:"sector"`
	Industry       string          `db:"industry"`
	PurchaseDate   time.Time       `db:"purchase_date"`
	PurchasePrice  decimal.Decimal `db:"purchase_price"`
	Units          decimal.Decimal `db:"units"`
	Currency       string          `db:"currency"`
}

type Instrument struct {
	Symbol         string `db:"symbol"`
	InvestmentType string `db:"investment_type"`
	Currency       string `db:"currency"`
}

type PriceObservation struct {
	ID     int64           `db:"id"`
	Symbol string          `db:"symbol"`
	Date   time.Time       `db:"date"`
	Price  decimal.Decimal `db:"price"`
}

type HoldingPrice struct {
	Holding
	Price decimal.Decimal `db:"price"`
}

type Snapshot struct {
	ID            int64           `db:"id"`
	Date          time.Time       `db:"date"`
	TotalValue    decimal.Decimal `db:"total_value"`
	TotalCost     decimal.Decimal `db:"total_cost"`
	ProfitLoss    decimal.Decimal `db:"profit_loss"`
	InrExposure   decimal.Decimal `db:"inr_exposure"`
	UsdExposure   decimal.Decimal `db:"usd_exposure"`
	HoldingsCount int             `db:"holdings_count"`
}
