package fxApi

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/arjundev/goalfolio/config"
	"github.com/arjundev/goalfolio/internal/externalApi"
	"github.com/arjundev/goalfolio/utils"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

type FxApi struct {
	client *resty.Client
}

func New(cfg *config.Config) *FxApi {
	client := resty.New().
		SetDebug(cfg.API.Debug).
		SetTimeout(cfg.API.Timeout).
		SetBaseURL(cfg.API.FxApi.Url)
	return &FxApi{client: client}
}

type rawRates struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

// GetUsdRate returns the USD rate against the given currency.
// Callers decide the fallback policy; this client only reports failure.
func (a *FxApi) GetUsdRate(ctx context.Context, currency string) (decimal.Decimal, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	url := "/v4/latest/USD"

	slog.Debug("start FxApi.GetUsdRate request", slog.String("rqID", rqID), slog.String("currency", currency))

	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Get(url)

	if err != nil {
		slog.Error("error while dialing FxApi", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return decimal.Decimal{}, externalApi.ErrUnavailable
	}

	rates := rawRates{}
	err = json.Unmarshal(resp.Body(), &rates)
	if err != nil {
		slog.Error("can't unmarshall FxApi response", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return decimal.Decimal{}, externalApi.ErrUnavailable
	}

	rate, ok := rates.Rates[currency]
	if !ok || rate <= 0 {
		slog.Error("FxApi response missing rate", slog.String("rqID", rqID), slog.String("currency", currency))
		return decimal.Decimal{}, externalApi.ErrUnavailable
	}

	slog.Debug("FxApi.GetUsdRate request complete", slog.String("rqID", rqID), slog.String("currency", currency))

	return decimal.NewFromFloat(rate), nil
}
