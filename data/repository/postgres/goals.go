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
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

func (r *Postgres) InsertGoal(ctx context.Context, goal model.Goal) (goalID int64, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.InsertGoal"
	query := `
		INSERT INTO goals(name, target_amount, time_horizon, priority_level, expected_cagr, goal_creation_date)
		VALUES($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	slog.Debug("InsertGoal start", slog.String("rqID", rqID), slog.String("op", op), slog.String("name", goal.Name))
	defer func() {
		if err != nil {
			slog.Error("InsertGoal failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("InsertGoal completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	err = r.txOrDb(ctx).QueryRowContext(
		ctx,
		query,
		goal.Name,
		goal.TargetAmount,
		goal.TimeHorizonYears,
		string(goal.Priority),
		goal.ExpectedCAGR,
		day(goal.CreatedAt),
	).Scan(&goalID)
	if err != nil {
		return 0, err
	}

	return goalID, nil
}

func (r *Postgres) GetGoal(ctx context.Context, goalID int64) (goal model.Goal, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetGoal"
	query := `
		SELECT id, name, target_amount, time_horizon, priority_level, expected_cagr, goal_creation_date
		FROM goals
		WHERE id = $1
	`

	slog.Debug("GetGoal start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("goalID", goalID))
	defer func() {
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			slog.Error("GetGoal failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetGoal completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	dbGoal := dbModel.Goal{}
	err = r.txOrDb(ctx).QueryRowxContext(ctx, query, goalID).StructScan(&dbGoal)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Goal{}, repository.ErrNotFound
		}
		return model.Goal{}, err
	}

	return dbConverter.ConvertGoal(dbGoal), nil
}

func (r *Postgres) GetGoals(ctx context.Context) (goals []model.Goal, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetGoals"
	query := `
		SELECT id, name, target_amount, time_horizon, priority_level, expected_cagr, goal_creation_date
		FROM goals
		ORDER BY id
	`

	slog.Debug("GetGoals start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		if err != nil {
			slog.Error("GetGoals failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetGoals completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	rows, err := r.txOrDb(ctx).QueryxContext(ctx, query)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	for rows.Next() {
		var dbGoal dbModel.Goal
		err = rows.StructScan(&dbGoal)
		if err != nil {
			return nil, err
		}
		goals = append(goals, dbConverter.ConvertGoal(dbGoal))
	}

	return goals, nil
}

func (r *Postgres) UpdateGoalPriority(ctx context.Context, goalID int64, priority model.PriorityLevel) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.UpdateGoalPriority"
	query := `UPDATE goals SET priority_level = $1 WHERE id = $2`

	slog.Debug("UpdateGoalPriority start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("goalID", goalID))
	defer func() {
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			slog.Error("UpdateGoalPriority failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("UpdateGoalPriority completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	res, err := r.txOrDb(ctx).ExecContext(ctx, query, string(priority), goalID)
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

func (r *Postgres) DeleteGoalContributions(ctx context.Context, goalID int64) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.DeleteGoalContributions"
	query := `DELETE FROM goal_investments WHERE goal_id = $1`

	slog.Debug("DeleteGoalContributions start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("goalID", goalID))
	defer func() {
		if err != nil {
			slog.Error("DeleteGoalContributions failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("DeleteGoalContributions completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	_, err = r.txOrDb(ctx).ExecContext(ctx, query, goalID)
	if err != nil {
		return err
	}

	return nil
}

func (r *Postgres) DeleteGoal(ctx context.Context, goalID int64) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.DeleteGoal"
	query := `DELETE FROM goals WHERE id = $1`

	slog.Debug("DeleteGoal start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("goalID", goalID))
	defer func() {
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			slog.Error("DeleteGoal failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("DeleteGoal completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	res, err := r.txOrDb(ctx).ExecContext(ctx, query, goalID)
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

func (r *Postgres) InsertContribution(ctx context.Context, contribution model.GoalContribution) (contributionID int64, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.InsertContribution"
	query := `
		INSERT INTO goal_investments(goal_id, investment_type, investment_date, amount, recurring, start_date, end_date)
		VALUES($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	slog.Debug("InsertContribution start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("goalID", contribution.GoalID))
	defer func() {
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			slog.Error("InsertContribution failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("InsertContribution completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	var startDate, endDate any
	if contribution.StartDate != nil {
		startDate = day(*contribution.StartDate)
	}
	if contribution.EndDate != nil {
		endDate = day(*contribution.EndDate)
	}

	err = r.txOrDb(ctx).QueryRowContext(
		ctx,
		query,
		contribution.GoalID,
		string(contribution.Type),
		day(contribution.Date),
		contribution.Amount,
		contribution.Recurring,
		startDate,
		endDate,
	).Scan(&contributionID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23503" { // foreign_key_violation
				return 0, repository.ErrNotFound
			}
		}
		return 0, err
	}

	return contributionID, nil
}

func (r *Postgres) GetContributionTotal(ctx context.Context, goalID int64) (total decimal.Decimal, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetContributionTotal"
	query := `SELECT COALESCE(SUM(amount), 0) FROM goal_investments WHERE goal_id = $1`

	slog.Debug("GetContributionTotal start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("goalID", goalID))
	defer func() {
		if err != nil {
			slog.Error("GetContributionTotal failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetContributionTotal completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	err = r.txOrDb(ctx).QueryRowContext(ctx, query, goalID).Scan(&total)
	if err != nil {
		return decimal.Decimal{}, err
	}

	return total, nil
}

// GetFirstContributionAmount returns the amount of the earliest-dated
// contribution, the achieved-CAGR baseline. Zero when the ledger is empty.
func (r *Postgres) GetFirstContributionAmount(ctx context.Context, goalID int64) (amount decimal.Decimal, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetFirstContributionAmount"
	query := `
		SELECT amount
		FROM goal_investments
		WHERE goal_id = $1
		ORDER BY investment_date, id
		LIMIT 1
	`

	slog.Debug("GetFirstContributionAmount start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("goalID", goalID))
	defer func() {
		if err != nil {
			slog.Error("GetFirstContributionAmount failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetFirstContributionAmount completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	err = r.txOrDb(ctx).QueryRowContext(ctx, query, goalID).Scan(&amount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Decimal{}, nil
		}
		return decimal.Decimal{}, err
	}

	return amount, nil
}

func (r *Postgres) GetRecurringSipTemplates(ctx context.Context) (templates []model.SipTemplate, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetRecurringSipTemplates"
	query := `
		SELECT gi.id, gi.goal_id, gi.investment_type, gi.investment_date, gi.amount,
		       gi.recurring, gi.start_date, gi.end_date, g.priority_level
		FROM goal_investments gi
		JOIN goals g ON g.id = gi.goal_id
		WHERE gi.recurring = TRUE
		AND gi.investment_type = 'SIP'
		ORDER BY gi.goal_id, gi.id
	`

	slog.Debug("GetRecurringSipTemplates start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		if err != nil {
			slog.Error("GetRecurringSipTemplates failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetRecurringSipTemplates completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	rows, err := r.txOrDb(ctx).QueryxContext(ctx, query)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	for rows.Next() {
		var dbTemplate dbModel.SipTemplate
		err = rows.StructScan(&dbTemplate)
		if err != nil {
			return nil, err
		}
		templates = append(templates, dbConverter.ConvertSipTemplate(dbTemplate))
	}

	return templates, nil
}

// HasSipInstalmentForMonth reports whether a non-recurring SIP instalment
// with the given amount already exists for the goal within the calendar
// month containing date. This is the idempotency key that keeps a second
// batch run in the same month from double-applying an instalment.
func (r *Postgres) HasSipInstalmentForMonth(ctx context.Context, goalID int64, amount decimal.Decimal, date time.Time) (exists bool, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.HasSipInstalmentForMonth"
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM goal_investments
			WHERE goal_id = $1
			AND investment_type = 'SIP'
			AND recurring = FALSE
			AND amount = $2
			AND date_trunc('month', investment_date) = date_trunc('month', $3::date)
		)
	`

	slog.Debug("HasSipInstalmentForMonth start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("goalID", goalID))
	defer func() {
		if err != nil {
			slog.Error("HasSipInstalmentForMonth failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("HasSipInstalmentForMonth completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	err = r.txOrDb(ctx).QueryRowContext(ctx, query, goalID, amount, day(date)).Scan(&exists)
	if err != nil {
		return false, err
	}

	return exists, nil
}
