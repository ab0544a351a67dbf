package quoteModel

import "github.com/shopspring/decimal"

// RawChart mirrors the quote provider's chart endpoint envelope.
type RawChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				Currency           string  `json:"currency"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// RawQuoteSummary mirrors the quoteSummary endpoint with the price and
// assetProfile modules requested.
type RawQuoteSummary struct {
	QuoteSummary struct {
		Result []struct {
			Price struct {
				LongName  string `json:"longName"`
				ShortName string `json:"shortName"`
			} `json:"price"`
			AssetProfile struct {
				Sector   string `json:"sector"`
				Industry string `json:"industry"`
			} `json:"assetProfile"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

type Quote struct {
	Symbol   string
	Price    decimal.Decimal
	Currency string
}

type StockProfile struct {
	Name     string
	Sector   string
	Industry string
}
