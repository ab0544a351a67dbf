package mfApi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/arjundev/goalfolio/config"
	"github.com/arjundev/goalfolio/internal/externalApi"
	"github.com/arjundev/goalfolio/internal/model/fundModel"
	"github.com/arjundev/goalfolio/utils"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

type MfApi struct {
	client *resty.Client
}

func New(cfg *config.Config) *MfApi {
	client := resty.New().
		SetDebug(cfg.API.Debug).
		SetTimeout(cfg.API.Timeout).
		SetBaseURL(cfg.API.FundApi.Url)
	return &MfApi{client: client}
}

// GetFundInfo returns the scheme name and latest NAV for a fund code.
// The provider keeps NAV history newest first, so Data[0] is current.
func (a *MfApi) GetFundInfo(ctx context.Context, code string) (fundModel.FundInfo, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	url := fmt.Sprintf("/mf/%s", code)

	slog.Debug("start MfApi.GetFundInfo request", slog.String("rqID", rqID), slog.String("code", code))

	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Get(url)

	if err != nil {
		slog.Error("error while dialing MfApi", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return fundModel.FundInfo{}, externalApi.ErrUnavailable
	}

	rawScheme := fundModel.RawScheme{}
	err = json.Unmarshal(resp.Body(), &rawScheme)
	if err != nil {
		slog.Error("can't unmarshall response into fundModel.RawScheme", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return fundModel.FundInfo{}, err
	}

	if len(rawScheme.Data) == 0 {
		slog.Warn("MfApi returned no NAV data", slog.String("rqID", rqID), slog.String("code", code))
		return fundModel.FundInfo{}, externalApi.ErrNotFound
	}

	nav, err := decimal.NewFromString(rawScheme.Data[0].Nav)
	if err != nil {
		slog.Error(
			"can't parse NAV value",
			slog.String("rqID", rqID),
			slog.String("code", code),
			slog.String("nav", rawScheme.Data[0].Nav),
		)
		return fundModel.FundInfo{}, fmt.Errorf("parse nav %q: %w", rawScheme.Data[0].Nav, err)
	}

	fundInfo := fundModel.FundInfo{
		Code: code,
		Name: rawScheme.Meta.SchemeName,
		Nav:  nav,
	}

	slog.Debug("MfApi.GetFundInfo request complete", slog.String("rqID", rqID), slog.String("code", code))

	return fundInfo, nil
}
