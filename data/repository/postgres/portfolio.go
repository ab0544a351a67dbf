package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/arjundev/goalfolio/data/repository"
	"github.com/arjundev/goalfolio/internal/converter/dbConverter"
	"github.com/arjundev/goalfolio/internal/model"
	"github.com/arjundev/goalfolio/internal/model/dbModel"
	"github.com/arjundev/goalfolio/utils"
	"github.com/shopspring/decimal"
)

func (r *Postgres) InsertHolding(ctx context.Context, holding model.Holding) (holdingID int64, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.InsertHolding"
	query := `
		INSERT INTO portfolio(investment_type, symbol, name, sector, industry, purchase_date, purchase_price, units, currency)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	slog.Debug("InsertHolding start", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", holding.Symbol))
	defer func() {
		if err != nil {
			slog.Error("InsertHolding failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("InsertHolding completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	err = r.txOrDb(ctx).QueryRowContext(
		ctx,
		query,
		string(holding.InvestmentType),
		holding.Symbol,
		holding.Name,
		holding.Sector,
		holding.Industry,
		day(holding.PurchaseDate),
		holding.PurchasePrice,
		holding.Units,
		holding.Currency,
	).Scan(&holdingID)
	if err != nil {
		return 0, err
	}

	return holdingID, nil
}

func (r *Postgres) GetHolding(ctx context.Context, holdingID int64) (holding model.Holding, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetHolding"
	query := `
		SELECT id, investment_type, symbol, name, sector, industry, purchase_date, purchase_price, units, currency
		FROM portfolio
		WHERE id = $1
	`

	slog.Debug("GetHolding start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("holdingID", holdingID))
	defer func() {
		if err != nil {
			slog.Error("GetHolding failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetHolding completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	dbHolding := dbModel.Holding{}
	err = r.txOrDb(ctx).QueryRowxContext(ctx, query, holdingID).StructScan(&dbHolding)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Holding{}, repository.ErrNotFound
		}
		return model.Holding{}, err
	}

	return dbConverter.ConvertHolding(dbHolding), nil
}

func (r *Postgres) GetHoldings(ctx context.Context) (holdings []model.Holding, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetHoldings"
	query := `
		SELECT id, investment_type, symbol, name, sector, industry, purchase_date, purchase_price, units, currency
		FROM portfolio
		ORDER BY investment_type, symbol, id
	`

	slog.Debug("GetHoldings start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		if err != nil {
			slog.Error("GetHoldings failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetHoldings completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	rows, err := r.txOrDb(ctx).QueryxContext(ctx, query)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	for rows.Next() {
		var dbHolding dbModel.Holding
		err = rows.StructScan(&dbHolding)
		if err != nil {
			return nil, err
		}
		holdings = append(holdings, dbConverter.ConvertHolding(dbHolding))
	}

	return holdings, nil
}

func (r *Postgres) DeleteHolding(ctx context.Context, holdingID int64) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.DeleteHolding"
	query := `DELETE FROM portfolio WHERE id = $1`

	slog.Debug("DeleteHolding start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("holdingID", holdingID))
	defer func() {
		if err != nil {
			slog.Error("DeleteHolding failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("DeleteHolding completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	res, err := r.txOrDb(ctx).ExecContext(ctx, query, holdingID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *Postgres) GetInstruments(ctx context.Context) (instruments []model.Instrument, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetInstruments"
	query := `
		SELECT symbol, investment_type, currency
		FROM portfolio
		GROUP BY symbol, investment_type, currency
		ORDER BY symbol
	`

	slog.Debug("GetInstruments start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		if err != nil {
			slog.Error("GetInstruments failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetInstruments completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	rows, err := r.txOrDb(ctx).QueryxContext(ctx, query)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	for rows.Next() {
		var dbInstrument dbModel.Instrument
		err = rows.StructScan(&dbInstrument)
		if err != nil {
			return nil, err
		}
		instruments = append(instruments, dbConverter.ConvertInstrument(dbInstrument))
	}

	return instruments, nil
}

func (r *Postgres) GetHoldingsMissingSector(ctx context.Context) (holdings []model.Holding, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetHoldingsMissingSector"
	query := `
		SELECT id, investment_type, symbol, name, sector, industry, purchase_date, purchase_price, units, currency
		FROM portfolio
		WHERE investment_type = 'Stock'
		AND (sector = '' OR sector = 'N/A')
	`

	slog.Debug("GetHoldingsMissingSector start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		if err != nil {
			slog.Error("GetHoldingsMissingSector failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetHoldingsMissingSector completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	rows, err := r.txOrDb(ctx).QueryxContext(ctx, query)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	for rows.Next() {
		var dbHolding dbModel.Holding
		err = rows.StructScan(&dbHolding)
		if err != nil {
			return nil, err
		}
		holdings = append(holdings, dbConverter.ConvertHolding(dbHolding))
	}

	return holdings, nil
}

func (r *Postgres) UpdateHoldingSector(ctx context.Context, holdingID int64, sector, industry string) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.UpdateHoldingSector"
	query := `UPDATE portfolio SET sector = $1, industry = $2 WHERE id = $3`

	slog.Debug("UpdateHoldingSector start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("holdingID", holdingID))
	defer func() {
		if err != nil {
			slog.Error("UpdateHoldingSector failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("UpdateHoldingSector completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	res, err := r.txOrDb(ctx).ExecContext(ctx, query, sector, industry, holdingID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// UpsertPriceObservation keeps exactly one observation per (symbol, date);
// the last write for a day wins.
func (r *Postgres) UpsertPriceObservation(ctx context.Context, symbol string, date time.Time, price decimal.Decimal) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.UpsertPriceObservation"
	query := `
		INSERT INTO price_history(symbol, date, price)
		VALUES($1, $2, $3)
		ON CONFLICT (symbol, date) DO UPDATE SET price = EXCLUDED.price
	`

	slog.Debug("UpsertPriceObservation start", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", symbol))
	defer func() {
		if err != nil {
			slog.Error("UpsertPriceObservation failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("UpsertPriceObservation completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	_, err = r.txOrDb(ctx).ExecContext(ctx, query, symbol, day(date), price)
	if err != nil {
		return err
	}

	return nil
}

// GetLatestObservationBefore returns the most recent observation strictly
// before the given date, which anchors the trend indicator.
func (r *Postgres) GetLatestObservationBefore(ctx context.Context, symbol string, date time.Time) (observation model.PriceObservation, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetLatestObservationBefore"
	query := `
		SELECT id, symbol, date, price
		FROM price_history
		WHERE symbol = $1
		AND date < $2
		ORDER BY date DESC
		LIMIT 1
	`

	slog.Debug("GetLatestObservationBefore start", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", symbol))
	defer func() {
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			slog.Error("GetLatestObservationBefore failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetLatestObservationBefore completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	dbObservation := dbModel.PriceObservation{}
	err = r.txOrDb(ctx).QueryRowxContext(ctx, query, symbol, day(date)).StructScan(&dbObservation)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.PriceObservation{}, repository.ErrNotFound
		}
		return model.PriceObservation{}, err
	}

	return dbConverter.ConvertPriceObservation(dbObservation), nil
}

// GetPriceObservations returns a symbol's recorded price series, newest
// first.
func (r *Postgres) GetPriceObservations(ctx context.Context, symbol string, limit int) (observations []model.PriceObservation, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetPriceObservations"
	query := `
		SELECT id, symbol, date, price
		FROM price_history
		WHERE symbol = $1
		ORDER BY date DESC
		LIMIT $2
	`

	slog.Debug("GetPriceObservations start", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", symbol))
	defer func() {
		if err != nil {
			slog.Error("GetPriceObservations failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetPriceObservations completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	rows, err := r.txOrDb(ctx).QueryxContext(ctx, query, symbol, limit)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	for rows.Next() {
		var dbObservation dbModel.PriceObservation
		err = rows.StructScan(&dbObservation)
		if err != nil {
			return nil, err
		}
		observations = append(observations, dbConverter.ConvertPriceObservation(dbObservation))
	}

	return observations, nil
}

// GetHoldingsWithPrice joins holdings to their price observation for the
// given date. Holdings without an observation for that date are omitted.
func (r *Postgres) GetHoldingsWithPrice(ctx context.Context, date time.Time) (holdings []model.HoldingPrice, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetHoldingsWithPrice"
	query := `
		SELECT p.id, p.investment_type, p.symbol, p.name, p.sector, p.industry,
		       p.purchase_date, p.purchase_price, p.units, p.currency, ph.price
		FROM portfolio p
		JOIN price_history ph ON ph.symbol = p.symbol AND ph.date = $1
		ORDER BY p.symbol, p.id
	`

	slog.Debug("GetHoldingsWithPrice start", slog.String("rqID", rqID), slog.String("op", op), slog.String("date", day(date)))
	defer func() {
		if err != nil {
			slog.Error("GetHoldingsWithPrice failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetHoldingsWithPrice completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	rows, err := r.txOrDb(ctx).QueryxContext(ctx, query, day(date))
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	for rows.Next() {
		var dbHoldingPrice dbModel.HoldingPrice
		err = rows.StructScan(&dbHoldingPrice)
		if err != nil {
			return nil, err
		}
		holdings = append(holdings, dbConverter.ConvertHoldingPrice(dbHoldingPrice))
	}

	return holdings, nil
}

// UpsertSnapshot keeps exactly one portfolio snapshot per date; rerunning
// the recorder on the same day replaces the row.
func (r *Postgres) UpsertSnapshot(ctx context.Context, snapshot model.PortfolioSnapshot) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.UpsertSnapshot"
	query := `
		INSERT INTO portfolio_history(date, total_value, total_cost, profit_loss, inr_exposure, usd_exposure, holdings_count)
		VALUES($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (date) DO UPDATE SET
			total_value = EXCLUDED.total_value,
			total_cost = EXCLUDED.total_cost,
			profit_loss = EXCLUDED.profit_loss,
			inr_exposure = EXCLUDED.inr_exposure,
			usd_exposure = EXCLUDED.usd_exposure,
			holdings_count = EXCLUDED.holdings_count
	`

	slog.Debug("UpsertSnapshot start", slog.String("rqID", rqID), slog.String("op", op), slog.String("date", day(snapshot.Date)))
	defer func() {
		if err != nil {
			slog.Error("UpsertSnapshot failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("UpsertSnapshot completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	_, err = r.txOrDb(ctx).ExecContext(
		ctx,
		query,
		day(snapshot.Date),
		snapshot.TotalValue,
		snapshot.TotalCost,
		snapshot.ProfitLoss,
		snapshot.HomeExposure,
		snapshot.ForeignExposure,
		snapshot.Holdings,
	)
	if err != nil {
		return err
	}

	return nil
}

// GetSnapshots returns the most recent snapshots, newest first.
func (r *Postgres) GetSnapshots(ctx context.Context, limit int) (snapshots []model.PortfolioSnapshot, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetSnapshots"
	query := `
		SELECT id, date, total_value, total_cost, profit_loss, inr_exposure, usd_exposure, holdings_count
		FROM portfolio_history
		ORDER BY date DESC
		LIMIT $1
	`

	slog.Debug("GetSnapshots start", slog.String("rqID", rqID), slog.String("op", op), slog.Int("limit", limit))
	defer func() {
		if err != nil {
			slog.Error("GetSnapshots failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetSnapshots completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	rows, err := r.txOrDb(ctx).QueryxContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	for rows.Next() {
		var dbSnapshot dbModel.Snapshot
		err = rows.StructScan(&dbSnapshot)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, dbConverter.ConvertSnapshot(dbSnapshot))
	}

	return snapshots, nil
}
