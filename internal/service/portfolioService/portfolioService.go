package portfolioService

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/arjundev/goalfolio/config"
	"github.com/arjundev/goalfolio/data/repository"
	"github.com/arjundev/goalfolio/internal/model"
	"github.com/arjundev/goalfolio/internal/model/fundModel"
	"github.com/arjundev/goalfolio/internal/model/quoteModel"
	"github.com/arjundev/goalfolio/internal/service"
	"github.com/arjundev/goalfolio/utils"
	"github.com/shopspring/decimal"
)

const defaultHistoryLimit = 30

type Repository interface {
	InsertHolding(ctx context.Context, holding model.Holding) (holdingID int64, err error)
	GetHolding(ctx context.Context, holdingID int64) (holding model.Holding, err error)
	GetHoldings(ctx context.Context) (holdings []model.Holding, err error)
	DeleteHolding(ctx context.Context, holdingID int64) (err error)
	GetInstruments(ctx context.Context) (instruments []model.Instrument, err error)
	GetHoldingsMissingSector(ctx context.Context) (holdings []model.Holding, err error)
	UpdateHoldingSector(ctx context.Context, holdingID int64, sector, industry string) (err error)
	UpsertPriceObservation(ctx context.Context, symbol string, date time.Time, price decimal.Decimal) (err error)
	GetLatestObservationBefore(ctx context.Context, symbol string, date time.Time) (observation model.PriceObservation, err error)
	GetPriceObservations(ctx context.Context, symbol string, limit int) (observations []model.PriceObservation, err error)
	GetHoldingsWithPrice(ctx context.Context, date time.Time) (holdings []model.HoldingPrice, err error)
	UpsertSnapshot(ctx context.Context, snapshot model.PortfolioSnapshot) (err error)
	GetSnapshots(ctx context.Context, limit int) (snapshots []model.PortfolioSnapshot, err error)
	WithinTransaction(ctx context.Context, tFunc func(ctx context.Context) error) error
}

type Cache interface {
	GetQuote(ctx context.Context, symbol string) (quoteModel.Quote, error)
	SetQuote(ctx context.Context, quote quoteModel.Quote) error
	SetQuotes(ctx context.Context, quotes []quoteModel.Quote) error
}

type QuoteApi interface {
	GetQuote(ctx context.Context, symbol string) (quoteModel.Quote, error)
	GetStockProfile(ctx context.Context, symbol string) (quoteModel.StockProfile, error)
}

type FundApi interface {
	GetFundInfo(ctx context.Context, code string) (fundModel.FundInfo, error)
}

type FxApi interface {
	GetUsdRate(ctx context.Context, currency string) (decimal.Decimal, error)
}

type ReportGenerator interface {
	Generate(ctx context.Context, valuation model.PortfolioValuation, insights model.PortfolioInsights) (fileBytes []byte, fileExtension string, err error)
}

type PortfolioService struct {
	cfg       *config.Config
	repo      Repository
	cache     Cache
	quoteApi  QuoteApi
	fundApi   FundApi
	fxApi     FxApi
	reportGen ReportGenerator
	loc       *time.Location
	now       func() time.Time
}

func New(cfg *config.Config, repo Repository, cache Cache, quoteApi QuoteApi, fundApi FundApi, fxApi FxApi, reportGen ReportGenerator) *PortfolioService {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		slog.Warn("can't load timezone, falling back to UTC", slog.String("timezone", cfg.Timezone), slog.String("err", err.Error()))
		loc = time.UTC
	}

	return &PortfolioService{
		cfg:       cfg,
		repo:      repo,
		cache:     cache,
		quoteApi:  quoteApi,
		fundApi:   fundApi,
		fxApi:     fxApi,
		reportGen: reportGen,
		loc:       loc,
		now:       time.Now,
	}
}

// today is the home-timezone calendar date all date-keyed rows use.
func (s *PortfolioService) today() time.Time {
	return s.now().In(s.loc)
}

// fxRate returns the foreign-to-home conversion rate. Provider failure is
// absorbed by the configured fallback constant, never propagated.
func (s *PortfolioService) fxRate(ctx context.Context) decimal.Decimal {
	rqID := utils.GetRequestIDFromCtx(ctx)

	rate, err := s.fxApi.GetUsdRate(ctx, s.cfg.Currency.Home)
	if err != nil {
		slog.Warn(
			"rate provider unavailable, using fallback rate",
			slog.String("rqID", rqID),
			slog.Float64("fallbackRate", s.cfg.Currency.FallbackFxRate),
			slog.String("err", err.Error()),
		)
		return decimal.NewFromFloat(s.cfg.Currency.FallbackFxRate)
	}

	return rate
}

// ToHome converts an amount to home currency at the current provider rate.
func (s *PortfolioService) ToHome(ctx context.Context, amount decimal.Decimal, currency string) decimal.Decimal {
	if currency == s.cfg.Currency.Home {
		return amount
	}
	return amount.Mul(s.fxRate(ctx))
}

func toHome(amount decimal.Decimal, currency, home string, rate decimal.Decimal) decimal.Decimal {
	if currency == home {
		return amount
	}
	return amount.Mul(rate)
}

// getCurrentPrice resolves the current quote or NAV, cache first.
func (s *PortfolioService) getCurrentPrice(ctx context.Context, symbol string, investmentType model.InvestmentType) (decimal.Decimal, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.getCurrentPrice"

	quote, err := s.cache.GetQuote(ctx, symbol)
	if err == nil {
		return quote.Price, nil
	}

	quote, err = s.fetchQuote(ctx, symbol, investmentType)
	if err != nil {
		if errors.Is(err, service.ErrQuoteUnavailable) {
			return decimal.Decimal{}, err
		}
		slog.Error("got error from provider", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", symbol), slog.String("err", err.Error()))
		return decimal.Decimal{}, service.ErrQuoteUnavailable
	}

	go s.cache.SetQuote(context.WithoutCancel(ctx), quote)

	return quote.Price, nil
}

// fetchQuote goes straight to the provider, bypassing the cache. Fund NAV
// is always denominated in home currency.
func (s *PortfolioService) fetchQuote(ctx context.Context, symbol string, investmentType model.InvestmentType) (quoteModel.Quote, error) {
	if investmentType == model.InvestmentMutualFund {
		fundInfo, err := s.fundApi.GetFundInfo(ctx, symbol)
		if err != nil {
			return quoteModel.Quote{}, service.ErrQuoteUnavailable
		}
		return quoteModel.Quote{Symbol: symbol, Price: fundInfo.Nav, Currency: s.cfg.Currency.Home}, nil
	}

	quote, err := s.quoteApi.GetQuote(ctx, symbol)
	if err != nil {
		return quoteModel.Quote{}, service.ErrQuoteUnavailable
	}

	return quote, nil
}

func (s *PortfolioService) AddHolding(ctx context.Context, holding model.Holding) (model.Holding, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.AddHolding"

	slog.Debug("AddHolding start", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", holding.Symbol))
	defer func() {
		slog.Debug("AddHolding finished", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", holding.Symbol))
	}()

	if err := s.validateHolding(holding); err != nil {
		return model.Holding{}, err
	}

	if holding.PurchaseDate.IsZero() {
		holding.PurchaseDate = s.today()
	}

	enriched, err := s.enrichHolding(ctx, holding)
	if err != nil {
		return model.Holding{}, err
	}

	holdingID, err := s.repo.InsertHolding(ctx, enriched)
	if err != nil {
		slog.Error("got error from repo.InsertHolding", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.Holding{}, err
	}

	enriched.ID = holdingID

	return enriched, nil
}

func (s *PortfolioService) validateHolding(holding model.Holding) error {
	if !holding.InvestmentType.Valid() {
		return fmt.Errorf("%w: investment type %q", service.ErrValidation, holding.InvestmentType)
	}

	if holding.Symbol == "" {
		return fmt.Errorf("%w: empty symbol", service.ErrValidation)
	}

	if !holding.PurchasePrice.IsPositive() {
		return fmt.Errorf("%w: purchase price must be positive", service.ErrValidation)
	}

	if !holding.Units.IsPositive() {
		return fmt.Errorf("%w: units must be positive", service.ErrValidation)
	}

	if holding.Currency != s.cfg.Currency.Home && holding.Currency != s.cfg.Currency.Foreign {
		return fmt.Errorf("%w: currency %q", service.ErrValidation, holding.Currency)
	}

	return nil
}

// enrichHolding validates the symbol against its provider and fills in the
// display name plus sector/industry for stocks. An unknown display name
// falls back to the symbol with a visible log marker.
func (s *PortfolioService) enrichHolding(ctx context.Context, holding model.Holding) (model.Holding, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.enrichHolding"

	holding.Sector = "N/A"
	holding.Industry = "N/A"

	if holding.InvestmentType == model.InvestmentMutualFund {
		fundInfo, err := s.fundApi.GetFundInfo(ctx, holding.Symbol)
		if err != nil {
			return model.Holding{}, fmt.Errorf("%w: unknown fund code %s", service.ErrValidation, holding.Symbol)
		}
		holding.Name = fundInfo.Name
	} else {
		_, err := s.quoteApi.GetQuote(ctx, holding.Symbol)
		if err != nil {
			return model.Holding{}, fmt.Errorf("%w: unknown stock symbol %s", service.ErrValidation, holding.Symbol)
		}

		profile, err := s.quoteApi.GetStockProfile(ctx, holding.Symbol)
		if err != nil {
			slog.Warn("can't fetch stock profile", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", holding.Symbol), slog.String("err", err.Error()))
		} else {
			holding.Name = profile.Name
			if profile.Sector != "" {
				holding.Sector = profile.Sector
			}
			if profile.Industry != "" {
				holding.Industry = profile.Industry
			}
		}
	}

	if holding.Name == "" {
		slog.Warn("display name unknown, falling back to symbol", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", holding.Symbol))
		holding.Name = holding.Symbol
	}

	return holding, nil
}

func (s *PortfolioService) DeleteHolding(ctx context.Context, holdingID int64) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.DeleteHolding"

	slog.Debug("DeleteHolding start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("holdingID", holdingID))
	defer func() {
		slog.Debug("DeleteHolding finished", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("holdingID", holdingID))
	}()

	err := s.repo.DeleteHolding(ctx, holdingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return service.ErrNotFound
		}
		slog.Error("got error from repo.DeleteHolding", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	return nil
}

// ValuePortfolio prices every holding at the current quote and aggregates
// per-class and grand totals in home currency. Holdings whose quote cannot
// be fetched are marked unavailable: value and profit/loss stay zero, cost
// still counts toward the invested totals.
func (s *PortfolioService) ValuePortfolio(ctx context.Context) (valuation model.PortfolioValuation, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.ValuePortfolio"

	slog.Debug("ValuePortfolio start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		slog.Debug("ValuePortfolio finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	holdings, err := s.repo.GetHoldings(ctx)
	if err != nil {
		slog.Error("got error from repo.GetHoldings", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.PortfolioValuation{}, err
	}

	home := s.cfg.Currency.Home
	rate := s.fxRate(ctx)

	for _, holding := range holdings {
		hv := model.HoldingValuation{Holding: holding}

		cost := holding.PurchasePrice.Mul(holding.Units)
		hv.Cost = toHome(cost, holding.Currency, home, rate)

		price, priceErr := s.getCurrentPrice(ctx, holding.Symbol, holding.InvestmentType)
		if priceErr != nil {
			slog.Warn(
				"quote unavailable, holding excluded from percentage aggregates",
				slog.String("rqID", rqID),
				slog.String("op", op),
				slog.String("symbol", holding.Symbol),
			)
			hv.Unavailable = true
			valuation.Unavailable = append(valuation.Unavailable, holding.Symbol)
		} else {
			value := price.Mul(holding.Units)
			profitLoss := value.Sub(cost)

			hv.CurrentPrice = price
			hv.Value = toHome(value, holding.Currency, home, rate)
			hv.ProfitLoss = toHome(profitLoss, holding.Currency, home, rate)
			hv.ProfitLossPct = profitLoss.Div(cost).Mul(decimal.NewFromInt(100))
		}

		if holding.InvestmentType == model.InvestmentStock {
			valuation.StockValue = valuation.StockValue.Add(hv.Value)
			valuation.StockCost = valuation.StockCost.Add(hv.Cost)
		} else {
			valuation.FundValue = valuation.FundValue.Add(hv.Value)
			valuation.FundCost = valuation.FundCost.Add(hv.Cost)
		}

		if !hv.Unavailable {
			if holding.Currency == home {
				valuation.HomeExposure = valuation.HomeExposure.Add(hv.Value)
			} else {
				valuation.ForeignExposure = valuation.ForeignExposure.Add(hv.Value)
			}
		}

		valuation.Holdings = append(valuation.Holdings, hv)
	}

	valuation.TotalValue = valuation.StockValue.Add(valuation.FundValue)
	valuation.TotalCost = valuation.StockCost.Add(valuation.FundCost)
	valuation.TotalProfitLoss = valuation.TotalValue.Sub(valuation.TotalCost)

	return valuation, nil
}

// PortfolioInsights breaks the current valuation down by industry (stocks
// only) and by currency region, with risk banding per group.
func (s *PortfolioService) PortfolioInsights(ctx context.Context) (model.PortfolioInsights, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.PortfolioInsights"

	slog.Debug("PortfolioInsights start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		slog.Debug("PortfolioInsights finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	valuation, err := s.ValuePortfolio(ctx)
	if err != nil {
		return model.PortfolioInsights{}, err
	}

	return buildInsights(valuation), nil
}

func buildInsights(valuation model.PortfolioValuation) model.PortfolioInsights {
	byIndustry := make(map[string]decimal.Decimal)
	byCurrency := make(map[string]decimal.Decimal)

	for _, hv := range valuation.Holdings {
		if hv.Unavailable {
			continue
		}

		if hv.InvestmentType == model.InvestmentStock {
			industry := hv.Industry
			if industry == "" || industry == "N/A" {
				industry = "Other"
			}
			byIndustry[industry] = byIndustry[industry].Add(hv.Value)
		}

		byCurrency[hv.Currency] = byCurrency[hv.Currency].Add(hv.Value)
	}

	insights := model.PortfolioInsights{
		ByIndustry: buildAllocationGroups(byIndustry),
		ByCurrency: buildAllocationGroups(byCurrency),
	}

	insights.Warnings = append(insights.Warnings, concentrationWarnings("industry", insights.ByIndustry)...)
	insights.Warnings = append(insights.Warnings, concentrationWarnings("currency", insights.ByCurrency)...)

	return insights
}

// buildAllocationGroups computes each group's share of the dimension total
// and sorts descending by percentage.
func buildAllocationGroups(values map[string]decimal.Decimal) []model.AllocationGroup {
	total := decimal.Decimal{}
	for _, value := range values {
		total = total.Add(value)
	}

	groups := make([]model.AllocationGroup, 0, len(values))
	for name, value := range values {
		group := model.AllocationGroup{Name: name, Value: value}
		if total.IsPositive() {
			group.Pct = value.Div(total).Mul(decimal.NewFromInt(100))
		}
		group.Band = riskBand(group.Pct)
		groups = append(groups, group)
	}

	sort.Slice(groups, func(i, j int) bool {
		if !groups[i].Pct.Equal(groups[j].Pct) {
			return groups[i].Pct.GreaterThan(groups[j].Pct)
		}
		return groups[i].Name < groups[j].Name
	})

	return groups
}

func riskBand(pct decimal.Decimal) model.RiskBand {
	switch {
	case pct.GreaterThan(decimal.NewFromInt(60)):
		return model.RiskHigh
	case pct.GreaterThan(decimal.NewFromInt(40)):
		return model.RiskModerate
	case pct.GreaterThan(decimal.NewFromInt(20)):
		return model.RiskLow
	default:
		return model.RiskDiversified
	}
}

func concentrationWarnings(dimension string, groups []model.AllocationGroup) []string {
	var warnings []string
	for _, group := range groups {
		switch group.Band {
		case model.RiskHigh:
			warnings = append(warnings, fmt.Sprintf("high concentration risk: %s %s holds %s%% of portfolio value", dimension, group.Name, group.Pct.StringFixed(2)))
		case model.RiskModerate:
			warnings = append(warnings, fmt.Sprintf("moderate concentration risk: %s %s holds %s%% of portfolio value", dimension, group.Name, group.Pct.StringFixed(2)))
		}
	}
	return warnings
}

// RefreshPriceHistory fetches today's price or NAV for every distinct
// symbol held and upserts one observation per (symbol, date). A failed
// fetch is a recoverable skip; remaining symbols are still processed.
func (s *PortfolioService) RefreshPriceHistory(ctx context.Context) (result model.PriceRefreshResult, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.RefreshPriceHistory"

	slog.Debug("RefreshPriceHistory start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		slog.Debug("RefreshPriceHistory finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	instruments, err := s.repo.GetInstruments(ctx)
	if err != nil {
		slog.Error("got error from repo.GetInstruments", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.PriceRefreshResult{}, err
	}

	today := s.today()
	seen := make(map[string]bool, len(instruments))

	for _, instrument := range instruments {
		if seen[instrument.Symbol] {
			continue
		}
		seen[instrument.Symbol] = true

		quote, fetchErr := s.fetchQuote(ctx, instrument.Symbol, instrument.InvestmentType)
		if fetchErr != nil {
			slog.Warn("price fetch failed, symbol skipped", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", instrument.Symbol))
			result.Skipped = append(result.Skipped, instrument.Symbol)
			continue
		}

		trend := model.TrendNew
		prev, prevErr := s.repo.GetLatestObservationBefore(ctx, instrument.Symbol, today)
		if prevErr == nil {
			switch quote.Price.Cmp(prev.Price) {
			case 1:
				trend = model.TrendUp
			case -1:
				trend = model.TrendDown
			default:
				trend = model.TrendUnchanged
			}
		} else if !errors.Is(prevErr, repository.ErrNotFound) {
			slog.Error("got error from repo.GetLatestObservationBefore", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", instrument.Symbol), slog.String("err", prevErr.Error()))
			result.Skipped = append(result.Skipped, instrument.Symbol)
			continue
		}

		if upsertErr := s.repo.UpsertPriceObservation(ctx, instrument.Symbol, today, quote.Price); upsertErr != nil {
			slog.Error("got error from repo.UpsertPriceObservation", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", instrument.Symbol), slog.String("err", upsertErr.Error()))
			result.Skipped = append(result.Skipped, instrument.Symbol)
			continue
		}

		result.Updated = append(result.Updated, model.PriceUpdate{
			Symbol: instrument.Symbol,
			Price:  quote.Price,
			Trend:  trend,
		})
	}

	return result, nil
}

// SnapshotPortfolio persists today's aggregate snapshot. Holdings without
// a price observation for today are excluded, not valued at zero.
func (s *PortfolioService) SnapshotPortfolio(ctx context.Context) (snapshot model.PortfolioSnapshot, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.SnapshotPortfolio"

	slog.Debug("SnapshotPortfolio start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		slog.Debug("SnapshotPortfolio finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	today := s.today()

	holdings, err := s.repo.GetHoldingsWithPrice(ctx, today)
	if err != nil {
		slog.Error("got error from repo.GetHoldingsWithPrice", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.PortfolioSnapshot{}, err
	}

	home := s.cfg.Currency.Home
	rate := s.fxRate(ctx)

	snapshot = model.PortfolioSnapshot{Date: today}

	for _, holding := range holdings {
		cost := toHome(holding.PurchasePrice.Mul(holding.Units), holding.Currency, home, rate)
		value := toHome(holding.Price.Mul(holding.Units), holding.Currency, home, rate)

		snapshot.TotalValue = snapshot.TotalValue.Add(value)
		snapshot.TotalCost = snapshot.TotalCost.Add(cost)

		if holding.Currency == home {
			snapshot.HomeExposure = snapshot.HomeExposure.Add(value)
		} else {
			snapshot.ForeignExposure = snapshot.ForeignExposure.Add(value)
		}

		snapshot.Holdings++
	}

	snapshot.ProfitLoss = snapshot.TotalValue.Sub(snapshot.TotalCost)

	err = s.repo.WithinTransaction(ctx, func(ctx context.Context) error {
		return s.repo.UpsertSnapshot(ctx, snapshot)
	})
	if err != nil {
		slog.Error("got error from repo.UpsertSnapshot", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.PortfolioSnapshot{}, err
	}

	return snapshot, nil
}

// PriceHistory returns a symbol's recorded price series, newest first.
// ErrNotFound when no observation was ever recorded for the symbol.
func (s *PortfolioService) PriceHistory(ctx context.Context, symbol string, limit int) ([]model.PriceObservation, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.PriceHistory"

	slog.Debug("PriceHistory start", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", symbol))
	defer func() {
		slog.Debug("PriceHistory finished", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", symbol))
	}()

	if symbol == "" {
		return nil, fmt.Errorf("%w: empty symbol", service.ErrValidation)
	}

	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	observations, err := s.repo.GetPriceObservations(ctx, symbol, limit)
	if err != nil {
		slog.Error("got error from repo.GetPriceObservations", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	if len(observations) == 0 {
		return nil, service.ErrNotFound
	}

	return observations, nil
}

// PortfolioHistory returns the most recent daily snapshots, newest first.
func (s *PortfolioService) PortfolioHistory(ctx context.Context, limit int) ([]model.PortfolioSnapshot, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.PortfolioHistory"

	slog.Debug("PortfolioHistory start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		slog.Debug("PortfolioHistory finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	snapshots, err := s.repo.GetSnapshots(ctx, limit)
	if err != nil {
		slog.Error("got error from repo.GetSnapshots", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	return snapshots, nil
}

// RefreshSectors backfills sector/industry for stock holdings still
// carrying the N/A placeholder. Per-symbol failures are skipped.
func (s *PortfolioService) RefreshSectors(ctx context.Context) (updated int, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.RefreshSectors"

	slog.Debug("RefreshSectors start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		slog.Debug("RefreshSectors finished", slog.String("rqID", rqID), slog.String("op", op), slog.Int("updated", updated))
	}()

	holdings, err := s.repo.GetHoldingsMissingSector(ctx)
	if err != nil {
		slog.Error("got error from repo.GetHoldingsMissingSector", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return 0, err
	}

	for _, holding := range holdings {
		profile, profileErr := s.quoteApi.GetStockProfile(ctx, holding.Symbol)
		if profileErr != nil || profile.Sector == "" {
			slog.Warn("no sector data, holding skipped", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", holding.Symbol))
			continue
		}

		industry := profile.Industry
		if industry == "" {
			industry = "N/A"
		}

		if updErr := s.repo.UpdateHoldingSector(ctx, holding.ID, profile.Sector, industry); updErr != nil {
			slog.Error("got error from repo.UpdateHoldingSector", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", holding.Symbol), slog.String("err", updErr.Error()))
			continue
		}

		updated++
	}

	return updated, nil
}

// WarmQuoteCache pre-fetches quotes for every held symbol into the cache.
func (s *PortfolioService) WarmQuoteCache(ctx context.Context) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.WarmQuoteCache"

	slog.Debug("WarmQuoteCache start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		slog.Debug("WarmQuoteCache finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	instruments, err := s.repo.GetInstruments(ctx)
	if err != nil {
		slog.Error("got error from repo.GetInstruments", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	seen := make(map[string]bool, len(instruments))
	quotes := make([]quoteModel.Quote, 0, len(instruments))

	for _, instrument := range instruments {
		if seen[instrument.Symbol] {
			continue
		}
		seen[instrument.Symbol] = true

		quote, fetchErr := s.fetchQuote(ctx, instrument.Symbol, instrument.InvestmentType)
		if fetchErr != nil {
			slog.Warn("quote fetch failed, symbol skipped", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", instrument.Symbol))
			continue
		}

		quotes = append(quotes, quote)
	}

	if len(quotes) == 0 {
		return nil
	}

	return s.cache.SetQuotes(ctx, quotes)
}

// ExportReport renders the current valuation and insights to a report file.
func (s *PortfolioService) ExportReport(ctx context.Context) (fileBytes []byte, fileExtension string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.ExportReport"

	slog.Debug("ExportReport start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		slog.Debug("ExportReport finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	valuation, err := s.ValuePortfolio(ctx)
	if err != nil {
		return nil, "", err
	}

	insights := buildInsights(valuation)

	return s.reportGen.Generate(ctx, valuation, insights)
}
