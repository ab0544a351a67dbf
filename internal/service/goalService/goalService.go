package goalService

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/arjundev/goalfolio/config"
	"github.com/arjundev/goalfolio/data/repository"
	"github.com/arjundev/goalfolio/internal/model"
	"github.com/arjundev/goalfolio/internal/service"
	"github.com/arjundev/goalfolio/utils"
	"github.com/shopspring/decimal"
)

const (
	defaultExpectedCAGR = 12.0
	daysPerYear         = 365.25
)

type Repository interface {
	InsertGoal(ctx context.Context, goal model.Goal) (goalID int64, err error)
	GetGoal(ctx context.Context, goalID int64) (goal model.Goal, err error)
	GetGoals(ctx context.Context) (goals []model.Goal, err error)
	UpdateGoalPriority(ctx context.Context, goalID int64, priority model.PriorityLevel) (err error)
	DeleteGoalContributions(ctx context.Context, goalID int64) (err error)
	DeleteGoal(ctx context.Context, goalID int64) (err error)
	InsertContribution(ctx context.Context, contribution model.GoalContribution) (contributionID int64, err error)
	GetContributionTotal(ctx context.Context, goalID int64) (total decimal.Decimal, err error)
	GetFirstContributionAmount(ctx context.Context, goalID int64) (amount decimal.Decimal, err error)
	GetRecurringSipTemplates(ctx context.Context) (templates []model.SipTemplate, err error)
	HasSipInstalmentForMonth(ctx context.Context, goalID int64, amount decimal.Decimal, date time.Time) (exists bool, err error)
	WithinTransaction(ctx context.Context, tFunc func(ctx context.Context) error) error
}

type GoalService struct {
	cfg  *config.Config
	repo Repository
	loc  *time.Location
	now  func() time.Time
}

func New(cfg *config.Config, repo Repository) *GoalService {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		slog.Warn("can't load timezone, falling back to UTC", slog.String("timezone", cfg.Timezone), slog.String("err", err.Error()))
		loc = time.UTC
	}

	return &GoalService{
		cfg:  cfg,
		repo: repo,
		loc:  loc,
		now:  time.Now,
	}
}

func (s *GoalService) today() time.Time {
	return s.now().In(s.loc)
}

// AddGoalParams carries goal creation input. ExpectedCAGR nil means
// "use the default"; an explicit zero is kept as a zero-growth goal.
type AddGoalParams struct {
	Name             string
	TargetAmount     decimal.Decimal
	TimeHorizonYears int
	Priority         model.PriorityLevel
	ExpectedCAGR     *decimal.Decimal
}

func (s *GoalService) AddGoal(ctx context.Context, params AddGoalParams) (model.Goal, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "GoalService.AddGoal"

	slog.Debug("AddGoal start", slog.String("rqID", rqID), slog.String("op", op), slog.String("name", params.Name))
	defer func() {
		slog.Debug("AddGoal finished", slog.String("rqID", rqID), slog.String("op", op), slog.String("name", params.Name))
	}()

	if params.Name == "" {
		return model.Goal{}, fmt.Errorf("%w: empty goal name", service.ErrValidation)
	}

	if !params.TargetAmount.IsPositive() {
		return model.Goal{}, fmt.Errorf("%w: target amount must be positive", service.ErrValidation)
	}

	if params.TimeHorizonYears <= 0 {
		return model.Goal{}, fmt.Errorf("%w: time horizon must be positive", service.ErrValidation)
	}

	if params.Priority == "" {
		params.Priority = model.PriorityStandard
	}
	if !params.Priority.Valid() {
		return model.Goal{}, fmt.Errorf("%w: priority %q", service.ErrValidation, params.Priority)
	}

	expectedCAGR := decimal.NewFromFloat(defaultExpectedCAGR)
	if params.ExpectedCAGR != nil {
		if params.ExpectedCAGR.IsNegative() {
			return model.Goal{}, fmt.Errorf("%w: expected CAGR must not be negative", service.ErrValidation)
		}
		expectedCAGR = *params.ExpectedCAGR
	}

	goal := model.Goal{
		Name:             params.Name,
		TargetAmount:     params.TargetAmount,
		TimeHorizonYears: params.TimeHorizonYears,
		Priority:         params.Priority,
		ExpectedCAGR:     expectedCAGR,
		CreatedAt:        s.today(),
	}

	goalID, err := s.repo.InsertGoal(ctx, goal)
	if err != nil {
		slog.Error("got error from repo.InsertGoal", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.Goal{}, err
	}

	goal.ID = goalID

	return goal, nil
}

func (s *GoalService) ListGoals(ctx context.Context) ([]model.Goal, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "GoalService.ListGoals"

	slog.Debug("ListGoals start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		slog.Debug("ListGoals finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	goals, err := s.repo.GetGoals(ctx)
	if err != nil {
		slog.Error("got error from repo.GetGoals", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	return goals, nil
}

func (s *GoalService) GetGoal(ctx context.Context, goalID int64) (model.Goal, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "GoalService.GetGoal"

	slog.Debug("GetGoal start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("goalID", goalID))
	defer func() {
		slog.Debug("GetGoal finished", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("goalID", goalID))
	}()

	goal, err := s.repo.GetGoal(ctx, goalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Goal{}, service.ErrNotFound
		}
		slog.Error("got error from repo.GetGoal", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.Goal{}, err
	}

	return goal, nil
}

func (s *GoalService) EditGoalPriority(ctx context.Context, goalID int64, priority model.PriorityLevel) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "GoalService.EditGoalPriority"

	slog.Debug("EditGoalPriority start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("goalID", goalID))
	defer func() {
		slog.Debug("EditGoalPriority finished", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("goalID", goalID))
	}()

	if !priority.Valid() {
		return fmt.Errorf("%w: priority %q", service.ErrValidation, priority)
	}

	err := s.repo.UpdateGoalPriority(ctx, goalID, priority)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return service.ErrNotFound
		}
		slog.Error("got error from repo.UpdateGoalPriority", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	return nil
}

// DeleteGoal removes the goal together with its contribution ledger in one
// transaction.
func (s *GoalService) DeleteGoal(ctx context.Context, goalID int64) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "GoalService.DeleteGoal"

	slog.Debug("DeleteGoal start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("goalID", goalID))
	defer func() {
		slog.Debug("DeleteGoal finished", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("goalID", goalID))
	}()

	err := s.repo.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.DeleteGoalContributions(ctx, goalID); err != nil {
			return err
		}
		return s.repo.DeleteGoal(ctx, goalID)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return service.ErrNotFound
		}
		slog.Error("got error from transaction", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	return nil
}

func (s *GoalService) RecordContribution(ctx context.Context, contribution model.GoalContribution) (model.GoalContribution, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "GoalService.RecordContribution"

	slog.Debug("RecordContribution start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("goalID", contribution.GoalID))
	defer func() {
		slog.Debug("RecordContribution finished", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("goalID", contribution.GoalID))
	}()

	if !contribution.Type.Valid() {
		return model.GoalContribution{}, fmt.Errorf("%w: contribution type %q", service.ErrValidation, contribution.Type)
	}

	if !contribution.Amount.IsPositive() {
		return model.GoalContribution{}, fmt.Errorf("%w: amount must be positive", service.ErrValidation)
	}

	if contribution.Recurring && contribution.Type != model.ContributionSIP {
		return model.GoalContribution{}, fmt.Errorf("%w: only SIP contributions can recur", service.ErrValidation)
	}

	if contribution.StartDate != nil && contribution.EndDate != nil && contribution.StartDate.After(*contribution.EndDate) {
		return model.GoalContribution{}, fmt.Errorf("%w: start date after end date", service.ErrValidation)
	}

	if contribution.Date.IsZero() {
		contribution.Date = s.today()
	}

	contributionID, err := s.repo.InsertContribution(ctx, contribution)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.GoalContribution{}, service.ErrNotFound
		}
		slog.Error("got error from repo.InsertContribution", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.GoalContribution{}, err
	}

	contribution.ID = contributionID

	return contribution, nil
}

// ProjectGoal builds the full projection report for one goal. A goal past
// its horizon and behind target comes back with Overdue set instead of an
// error, so callers can still render the rest of the report.
func (s *GoalService) ProjectGoal(ctx context.Context, goalID int64) (model.GoalProjection, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "GoalService.ProjectGoal"

	slog.Debug("ProjectGoal start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("goalID", goalID))
	defer func() {
		slog.Debug("ProjectGoal finished", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("goalID", goalID))
	}()

	goal, err := s.repo.GetGoal(ctx, goalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.GoalProjection{}, service.ErrNotFound
		}
		slog.Error("got error from repo.GetGoal", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.GoalProjection{}, err
	}

	progress, err := s.repo.GetContributionTotal(ctx, goalID)
	if err != nil {
		slog.Error("got error from repo.GetContributionTotal", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.GoalProjection{}, err
	}

	initial, err := s.repo.GetFirstContributionAmount(ctx, goalID)
	if err != nil {
		slog.Error("got error from repo.GetFirstContributionAmount", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.GoalProjection{}, err
	}

	return buildProjection(goal, progress, initial, s.today()), nil
}

// RequiredMonthlyContribution returns the monthly instalment that closes
// the projected shortfall. ErrGoalOverdue when no months remain and the
// goal is behind target; zero when the goal is already on track.
func (s *GoalService) RequiredMonthlyContribution(ctx context.Context, goalID int64) (decimal.Decimal, error) {
	projection, err := s.ProjectGoal(ctx, goalID)
	if err != nil {
		return decimal.Decimal{}, err
	}

	if projection.Overdue {
		return decimal.Decimal{}, service.ErrGoalOverdue
	}

	return projection.RequiredMonthly, nil
}

// buildProjection is the pure projection math over a goal's ledger state
// as of a given date. Elapsed and remaining time are measured in fractional
// years; remaining time is deliberately not clamped at zero, a past-horizon
// goal discounts its projected value below current progress.
func buildProjection(goal model.Goal, progress, initial decimal.Decimal, asOf time.Time) model.GoalProjection {
	projection := model.GoalProjection{
		Goal:              goal,
		CurrentProgress:   progress,
		InitialInvestment: initial,
	}

	yearsPassed := asOf.Sub(goal.CreatedAt).Hours() / 24 / daysPerYear
	if yearsPassed < 0 {
		yearsPassed = 0
	}
	projection.YearsPassed = yearsPassed
	projection.YearsRemaining = float64(goal.TimeHorizonYears) - yearsPassed

	progressF, _ := progress.Float64()
	initialF, _ := initial.Float64()

	if yearsPassed > 0 && progressF > 0 && initialF > 0 {
		projection.CAGRAchieved = (math.Pow(progressF/initialF, 1/yearsPassed) - 1) * 100
	}

	expectedF, _ := goal.ExpectedCAGR.Float64()
	growth := math.Pow(1+expectedF/100, projection.YearsRemaining)
	projection.ProjectedValue = progress.Mul(decimal.NewFromFloat(growth))

	if projection.ProjectedValue.GreaterThanOrEqual(goal.TargetAmount) {
		projection.OnTrack = true
		return projection
	}

	projection.Shortfall = goal.TargetAmount.Sub(projection.ProjectedValue)

	monthsRemaining := projection.YearsRemaining * 12
	if monthsRemaining <= 0 {
		projection.Overdue = true
		return projection
	}

	shortfallF, _ := projection.Shortfall.Float64()
	monthlyRate := expectedF / 100 / 12

	var requiredMonthly float64
	if monthlyRate == 0 {
		requiredMonthly = shortfallF / monthsRemaining
	} else {
		// future value of an ordinary annuity solved for the instalment
		annuityFactor := (math.Pow(1+monthlyRate, monthsRemaining) - 1) / monthlyRate
		requiredMonthly = shortfallF / annuityFactor
	}

	projection.RequiredMonthly = decimal.NewFromFloat(requiredMonthly)

	return projection
}

// ApplyRecurringContributions runs the monthly batch: every active
// recurring SIP template emits one non-recurring instalment dated today.
// Dormant goals, templates outside their start/end window, and months that
// already hold a matching instalment are skipped. Per-template failures
// are counted and the batch continues.
func (s *GoalService) ApplyRecurringContributions(ctx context.Context) (result model.SipRunResult, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "GoalService.ApplyRecurringContributions"

	slog.Debug("ApplyRecurringContributions start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		slog.Debug(
			"ApplyRecurringContributions finished",
			slog.String("rqID", rqID),
			slog.String("op", op),
			slog.Int("applied", result.Applied),
			slog.Int("skipped", result.Skipped),
			slog.Int("failed", result.Failed),
		)
	}()

	templates, err := s.repo.GetRecurringSipTemplates(ctx)
	if err != nil {
		slog.Error("got error from repo.GetRecurringSipTemplates", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.SipRunResult{}, err
	}

	today := s.today()

	for _, template := range templates {
		if template.GoalPriority == model.PriorityDormant {
			result.Skipped++
			continue
		}

		if !templateActive(template, today) {
			result.Skipped++
			continue
		}

		exists, checkErr := s.repo.HasSipInstalmentForMonth(ctx, template.GoalID, template.Amount, today)
		if checkErr != nil {
			slog.Error("got error from repo.HasSipInstalmentForMonth", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("goalID", template.GoalID), slog.String("err", checkErr.Error()))
			result.Failed++
			continue
		}
		if exists {
			result.Skipped++
			continue
		}

		instalment := model.GoalContribution{
			GoalID:    template.GoalID,
			Type:      model.ContributionSIP,
			Date:      today,
			Amount:    template.Amount,
			Recurring: false,
		}

		if _, insertErr := s.repo.InsertContribution(ctx, instalment); insertErr != nil {
			slog.Error("got error from repo.InsertContribution", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("goalID", template.GoalID), slog.String("err", insertErr.Error()))
			result.Failed++
			continue
		}

		result.Applied++
	}

	return result, nil
}

// templateActive checks the start/end window at calendar-day granularity,
// both bounds inclusive.
func templateActive(template model.SipTemplate, date time.Time) bool {
	d := toDay(date)
	if template.StartDate != nil && d.Before(toDay(*template.StartDate)) {
		return false
	}
	if template.EndDate != nil && d.After(toDay(*template.EndDate)) {
		return false
	}
	return true
}

func toDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
