package yahooApi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/arjundev/goalfolio/config"
	"github.com/arjundev/goalfolio/internal/externalApi"
	"github.com/arjundev/goalfolio/internal/model/quoteModel"
	"github.com/arjundev/goalfolio/utils"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

type YahooApi struct {
	client *resty.Client
}

func New(cfg *config.Config) *YahooApi {
	client := resty.New().
		SetDebug(cfg.API.Debug).
		SetTimeout(cfg.API.Timeout).
		SetBaseURL(cfg.API.QuoteApi.Url)
	return &YahooApi{client: client}
}

func (a *YahooApi) GetQuote(ctx context.Context, symbol string) (quoteModel.Quote, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	url := fmt.Sprintf("/v8/finance/chart/%s", symbol)
	params := map[string]string{
		"interval": "1d",
		"range":    "1d",
	}

	slog.Debug("start YahooApi.GetQuote request", slog.String("rqID", rqID), slog.String("symbol", symbol))

	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetQueryParams(params).
		Get(url)

	if err != nil {
		slog.Error("error while dialing YahooApi", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return quoteModel.Quote{}, externalApi.ErrUnavailable
	}

	rawChart := quoteModel.RawChart{}
	err = json.Unmarshal(resp.Body(), &rawChart)
	if err != nil {
		slog.Error("can't unmarshall response into quoteModel.RawChart", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return quoteModel.Quote{}, err
	}

	if rawChart.Chart.Error != nil {
		slog.Warn(
			"YahooApi returned error",
			slog.String("rqID", rqID),
			slog.String("symbol", symbol),
			slog.String("code", rawChart.Chart.Error.Code),
		)
		return quoteModel.Quote{}, externalApi.ErrNotFound
	}

	if len(rawChart.Chart.Result) == 0 {
		return quoteModel.Quote{}, externalApi.ErrNotFound
	}

	meta := rawChart.Chart.Result[0].Meta
	if meta.RegularMarketPrice == 0 {
		return quoteModel.Quote{}, externalApi.ErrNotFound
	}

	quote := quoteModel.Quote{
		Symbol:   symbol,
		Price:    decimal.NewFromFloat(meta.RegularMarketPrice),
		Currency: meta.Currency,
	}

	slog.Debug("YahooApi.GetQuote request complete", slog.String("rqID", rqID), slog.String("symbol", symbol))

	return quote, nil
}

func (a *YahooApi) GetStockProfile(ctx context.Context, symbol string) (quoteModel.StockProfile, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	url := fmt.Sprintf("/v10/finance/quoteSummary/%s", symbol)
	params := map[string]string{
		"modules": "price,assetProfile",
	}

	slog.Debug("start YahooApi.GetStockProfile request", slog.String("rqID", rqID), slog.String("symbol", symbol))

	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetQueryParams(params).
		Get(url)

	if err != nil {
		slog.Error("error while dialing YahooApi", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return quoteModel.StockProfile{}, externalApi.ErrUnavailable
	}

	rawSummary := quoteModel.RawQuoteSummary{}
	err = json.Unmarshal(resp.Body(), &rawSummary)
	if err != nil {
		slog.Error("can't unmarshall response into quoteModel.RawQuoteSummary", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return quoteModel.StockProfile{}, err
	}

	if rawSummary.QuoteSummary.Error != nil || len(rawSummary.QuoteSummary.Result) == 0 {
		return quoteModel.StockProfile{}, externalApi.ErrNotFound
	}

	result := rawSummary.QuoteSummary.Result[0]

	profile := quoteModel.StockProfile{
		Name:     result.Price.LongName,
		Sector:   result.AssetProfile.Sector,
		Industry: result.AssetProfile.Industry,
	}

	if profile.Name == "" {
		profile.Name = result.Price.ShortName
	}

	slog.Debug("YahooApi.GetStockProfile request complete", slog.String("rqID", rqID), slog.String("symbol", symbol))

	return profile, nil
}
