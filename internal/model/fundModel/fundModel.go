package fundModel

import "github.com/shopspring/decimal"

// RawScheme mirrors the fund NAV provider response: scheme metadata plus
// NAV history sorted newest first, NAV serialized as a string.
type RawScheme struct {
	Meta struct {
		SchemeCode int    `json:"scheme_code"`
		SchemeName string `json:"scheme_name"`
		FundHouse  string `json:"fund_house"`
	} `json:"meta"`
	Data []struct {
		Date string `json:"date"`
		Nav  string `json:"nav"`
	} `json:"data"`
	Status string `json:"status"`
}

type FundInfo struct {
	Code string
	Name string
	Nav  decimal.Decimal
}
