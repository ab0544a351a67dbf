package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// HoldingValuation carries a holding priced at the current quote.
// All money fields are in home currency. Unavailable marks a holding
// whose quote could not be fetched: value and profit/loss stay zero and
// the holding is excluded from percentage aggregates.
type HoldingValuation struct {
	Holding
	CurrentPrice  decimal.Decimal
	Cost          decimal.Decimal
	Value         decimal.Decimal
	ProfitLoss    decimal.Decimal
	ProfitLossPct decimal.Decimal
	Unavailable   bool
}

type PortfolioValuation struct {
	Holdings        []HoldingValuation
	StockValue      decimal.Decimal
	StockCost       decimal.Decimal
	FundValue       decimal.Decimal
	FundCost        decimal.Decimal
	TotalValue      decimal.Decimal
	TotalCost       decimal.Decimal
	TotalProfitLoss decimal.Decimal
	HomeExposure    decimal.Decimal
	ForeignExposure decimal.Decimal
	Unavailable     []string
}

type RiskBand string

const (
	RiskHigh        RiskBand = "high"
	RiskModerate    RiskBand = "moderate"
	RiskLow         RiskBand = "low"
	RiskDiversified RiskBand = "diversified"
)

type AllocationGroup struct {
	Name  string
	Value decimal.Decimal
	Pct   decimal.Decimal
	Band  RiskBand
}

type PortfolioInsights struct {
	ByIndustry []AllocationGroup
	ByCurrency []AllocationGroup
	Warnings   []string
}

type PriceTrend string

const (
	TrendUp        PriceTrend = "up"
	TrendDown      PriceTrend = "down"
	TrendUnchanged PriceTrend = "unchanged"
	TrendNew       PriceTrend = "new"
)

type PriceObservation struct {
	Symbol string
	Date   time.Time
	Price  decimal.Decimal
}

type PriceUpdate struct {
	Symbol string
	Price  decimal.Decimal
	Trend  PriceTrend
}

type PriceRefreshResult struct {
	Updated []PriceUpdate
	Skipped []string
}

type PortfolioSnapshot struct {
	Date            time.Time
	TotalValue      decimal.Decimal
	TotalCost       decimal.Decimal
	ProfitLoss      decimal.Decimal
	HomeExposure    decimal.Decimal
	ForeignExposure decimal.Decimal
	Holdings        int
}

// HoldingPrice is a holding joined to its price observation for a given
// date. Holdings without an observation never appear in this shape.
type HoldingPrice struct {
	Holding
	Price decimal.Decimal
}
