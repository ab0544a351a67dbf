package goalService

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/arjundev/goalfolio/config"
	"github.com/arjundev/goalfolio/data/repository"
	"github.com/arjundev/goalfolio/internal/model"
	"github.com/arjundev/goalfolio/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) InsertGoal(ctx context.Context, goal model.Goal) (int64, error) {
	args := m.Called(ctx, goal)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) GetGoal(ctx context.Context, goalID int64) (model.Goal, error) {
	args := m.Called(ctx, goalID)
	return args.Get(0).(model.Goal), args.Error(1)
}

func (m *MockRepository) GetGoals(ctx context.Context) ([]model.Goal, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Goal), args.Error(1)
}

func (m *MockRepository) UpdateGoalPriority(ctx context.Context, goalID int64, priority model.PriorityLevel) error {
	args := m.Called(ctx, goalID, priority)
	return args.Error(0)
}

func (m *MockRepository) DeleteGoalContributions(ctx context.Context, goalID int64) error {
	args := m.Called(ctx, goalID)
	return args.Error(0)
}

func (m *MockRepository) DeleteGoal(ctx context.Context, goalID int64) error {
	args := m.Called(ctx, goalID)
	return args.Error(0)
}

func (m *MockRepository) InsertContribution(ctx context.Context, contribution model.GoalContribution) (int64, error) {
	args := m.Called(ctx, contribution)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) GetContributionTotal(ctx context.Context, goalID int64) (decimal.Decimal, error) {
	args := m.Called(ctx, goalID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockRepository) GetFirstContributionAmount(ctx context.Context, goalID int64) (decimal.Decimal, error) {
	args := m.Called(ctx, goalID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockRepository) GetRecurringSipTemplates(ctx context.Context) ([]model.SipTemplate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.SipTemplate), args.Error(1)
}

func (m *MockRepository) HasSipInstalmentForMonth(ctx context.Context, goalID int64, amount decimal.Decimal, date time.Time) (bool, error) {
	args := m.Called(ctx, goalID, amount, date)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) WithinTransaction(ctx context.Context, tFunc func(ctx context.Context) error) error {
	args := m.Called(ctx, tFunc)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return tFunc(ctx)
}

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*GoalService, *MockRepository) {
	t.Helper()

	repo := new(MockRepository)
	srv := New(&config.Config{Timezone: "UTC"}, repo)
	srv.now = func() time.Time { return testNow }

	return srv, repo
}

func TestAddGoal_DefaultsApplied(t *testing.T) {
	ctx := context.Background()
	srv, repo := newTestService(t)

	repo.On("InsertGoal", ctx, mock.MatchedBy(func(g model.Goal) bool {
		return g.Priority == model.PriorityStandard && g.ExpectedCAGR.Equal(decimal.NewFromFloat(12.0))
	})).Return(int64(5), nil)

	goal, err := srv.AddGoal(ctx, AddGoalParams{
		Name:             "House",
		TargetAmount:     decimal.NewFromInt(5000000),
		TimeHorizonYears: 10,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(5), goal.ID)
	assert.Equal(t, model.PriorityStandard, goal.Priority)
	repo.AssertExpectations(t)
}

// An explicit zero expected CAGR is a zero-growth goal, not a request for
// the default rate.
func TestAddGoal_ExplicitZeroCAGRKept(t *testing.T) {
	ctx := context.Background()
	srv, repo := newTestService(t)

	zero := decimal.Zero

	repo.On("InsertGoal", ctx, mock.MatchedBy(func(g model.Goal) bool {
		return g.ExpectedCAGR.IsZero()
	})).Return(int64(6), nil)

	goal, err := srv.AddGoal(ctx, AddGoalParams{
		Name:             "Cash parking",
		TargetAmount:     decimal.NewFromInt(100000),
		TimeHorizonYears: 2,
		ExpectedCAGR:     &zero,
	})

	require.NoError(t, err)
	assert.True(t, goal.ExpectedCAGR.IsZero())
	repo.AssertExpectations(t)
}

func TestAddGoal_ValidationErrors(t *testing.T) {
	ctx := context.Background()
	srv, _ := newTestService(t)

	negative := decimal.NewFromInt(-5)

	cases := []struct {
		name   string
		params AddGoalParams
	}{
		{"empty name", AddGoalParams{TargetAmount: decimal.NewFromInt(100), TimeHorizonYears: 5}},
		{"zero target", AddGoalParams{Name: "Car", TimeHorizonYears: 5}},
		{"zero horizon", AddGoalParams{Name: "Car", TargetAmount: decimal.NewFromInt(100)}},
		{"bad priority", AddGoalParams{Name: "Car", TargetAmount: decimal.NewFromInt(100), TimeHorizonYears: 5, Priority: "Urgent"}},
		{"negative cagr", AddGoalParams{Name: "Car", TargetAmount: decimal.NewFromInt(100), TimeHorizonYears: 5, ExpectedCAGR: &negative}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := srv.AddGoal(ctx, tc.params)
			assert.ErrorIs(t, err, service.ErrValidation)
		})
	}
}

func TestEditGoalPriority(t *testing.T) {
	ctx := context.Background()
	srv, repo := newTestService(t)

	repo.On("UpdateGoalPriority", ctx, int64(1), model.PriorityDormant).Return(nil)

	require.NoError(t, srv.EditGoalPriority(ctx, 1, model.PriorityDormant))

	assert.ErrorIs(t, srv.EditGoalPriority(ctx, 1, "Whatever"), service.ErrValidation)

	repo.On("UpdateGoalPriority", ctx, int64(2), model.PriorityHigh).Return(repository.ErrNotFound)
	assert.ErrorIs(t, srv.EditGoalPriority(ctx, 2, model.PriorityHigh), service.ErrNotFound)
}

func TestDeleteGoal_RemovesLedgerInTransaction(t *testing.T) {
	ctx := context.Background()
	srv, repo := newTestService(t)

	repo.On("WithinTransaction", ctx, mock.Anything).Return(nil)
	repo.On("DeleteGoalContributions", ctx, int64(1)).Return(nil)
	repo.On("DeleteGoal", ctx, int64(1)).Return(nil)

	require.NoError(t, srv.DeleteGoal(ctx, 1))
	repo.AssertExpectations(t)
}

func TestRecordContribution_Validation(t *testing.T) {
	ctx := context.Background()
	srv, _ := newTestService(t)

	_, err := srv.RecordContribution(ctx, model.GoalContribution{GoalID: 1, Type: "Gift", Amount: decimal.NewFromInt(100)})
	assert.ErrorIs(t, err, service.ErrValidation)

	_, err = srv.RecordContribution(ctx, model.GoalContribution{GoalID: 1, Type: model.ContributionSIP, Amount: decimal.Zero})
	assert.ErrorIs(t, err, service.ErrValidation)

	_, err = srv.RecordContribution(ctx, model.GoalContribution{GoalID: 1, Type: model.ContributionLumpsum, Amount: decimal.NewFromInt(100), Recurring: true})
	assert.ErrorIs(t, err, service.ErrValidation)

	start := testNow
	end := testNow.AddDate(0, -1, 0)
	_, err = srv.RecordContribution(ctx, model.GoalContribution{
		GoalID:    1,
		Type:      model.ContributionSIP,
		Amount:    decimal.NewFromInt(100),
		Recurring: true,
		StartDate: &start,
		EndDate:   &end,
	})
	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestRecordContribution_UnknownGoal(t *testing.T) {
	ctx := context.Background()
	srv, repo := newTestService(t)

	repo.On("InsertContribution", ctx, mock.Anything).Return(int64(0), repository.ErrNotFound)

	_, err := srv.RecordContribution(ctx, model.GoalContribution{
		GoalID: 42,
		Type:   model.ContributionLumpsum,
		Amount: decimal.NewFromInt(1000),
	})

	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestRecordContribution_DateDefaultsToToday(t *testing.T) {
	ctx := context.Background()
	srv, repo := newTestService(t)

	repo.On("InsertContribution", ctx, mock.MatchedBy(func(c model.GoalContribution) bool {
		return c.Date.Equal(testNow)
	})).Return(int64(9), nil)

	contribution, err := srv.RecordContribution(ctx, model.GoalContribution{
		GoalID: 1,
		Type:   model.ContributionLumpsum,
		Amount: decimal.NewFromInt(1000),
	})

	require.NoError(t, err)
	assert.Equal(t, int64(9), contribution.ID)
}

// Fresh goal with no contributions projects to zero and is off track.
func TestBuildProjection_FreshGoal(t *testing.T) {
	goal := model.Goal{
		ID:               1,
		Name:             "Retirement",
		TargetAmount:     decimal.NewFromInt(1000000),
		TimeHorizonYears: 10,
		ExpectedCAGR:     decimal.NewFromFloat(12.0),
		CreatedAt:        testNow,
	}

	projection := buildProjection(goal, decimal.Zero, decimal.Zero, testNow)

	assert.True(t, projection.ProjectedValue.IsZero())
	assert.False(t, projection.OnTrack)
	assert.True(t, projection.Shortfall.Equal(decimal.NewFromInt(1000000)))
	assert.Zero(t, projection.CAGRAchieved)
	assert.False(t, projection.Overdue)
	assert.True(t, projection.RequiredMonthly.IsPositive())
}

// Flat progress after a year means zero achieved CAGR regardless of the
// expected rate.
func TestBuildProjection_FlatProgressZeroCAGR(t *testing.T) {
	created := testNow.AddDate(-1, 0, 0)
	goal := model.Goal{
		ID:               1,
		Name:             "Car",
		TargetAmount:     decimal.NewFromInt(2000000),
		TimeHorizonYears: 5,
		ExpectedCAGR:     decimal.NewFromFloat(15.0),
		CreatedAt:        created,
	}

	projection := buildProjection(goal, decimal.NewFromInt(100000), decimal.NewFromInt(100000), testNow)

	assert.InDelta(t, 0.0, projection.CAGRAchieved, 0.0001)
	assert.InDelta(t, 1.0, projection.YearsPassed, 0.01)
}

func TestBuildProjection_OnTrack(t *testing.T) {
	created := testNow.AddDate(-2, 0, 0)
	goal := model.Goal{
		ID:               1,
		Name:             "Vacation",
		TargetAmount:     decimal.NewFromInt(100000),
		TimeHorizonYears: 5,
		ExpectedCAGR:     decimal.NewFromFloat(10.0),
		CreatedAt:        created,
	}

	projection := buildProjection(goal, decimal.NewFromInt(90000), decimal.NewFromInt(90000), testNow)

	// 90000 * 1.10^3 is well past the 100000 target
	assert.True(t, projection.OnTrack)
	assert.True(t, projection.Shortfall.IsZero())
	assert.True(t, projection.RequiredMonthly.IsZero())
}

func TestBuildProjection_RequiredMonthlyAnnuityMath(t *testing.T) {
	goal := model.Goal{
		ID:               1,
		Name:             "House",
		TargetAmount:     decimal.NewFromInt(1000000),
		TimeHorizonYears: 10,
		ExpectedCAGR:     decimal.NewFromFloat(12.0),
		CreatedAt:        testNow,
	}

	projection := buildProjection(goal, decimal.Zero, decimal.Zero, testNow)

	monthlyRate := 0.12 / 12
	months := 120.0
	annuityFactor := (math.Pow(1+monthlyRate, months) - 1) / monthlyRate
	want := 1000000.0 / annuityFactor

	got, _ := projection.RequiredMonthly.Float64()
	assert.InDelta(t, want, got, 0.01)
}

// A zero-growth goal falls back to straight-line division of the
// shortfall over the remaining months.
func TestBuildProjection_ZeroRateStraightLine(t *testing.T) {
	goal := model.Goal{
		ID:               1,
		Name:             "Cash parking",
		TargetAmount:     decimal.NewFromInt(120000),
		TimeHorizonYears: 10,
		ExpectedCAGR:     decimal.Zero,
		CreatedAt:        testNow,
	}

	projection := buildProjection(goal, decimal.Zero, decimal.Zero, testNow)

	require.False(t, projection.OnTrack)

	got, _ := projection.RequiredMonthly.Float64()
	assert.InDelta(t, 1000.0, got, 0.01)
}

// Past-horizon goals keep discounting: the remaining-years exponent goes
// negative instead of clamping at zero.
func TestBuildProjection_OverdueGoal(t *testing.T) {
	created := testNow.AddDate(-6, 0, 0)
	goal := model.Goal{
		ID:               1,
		Name:             "Old goal",
		TargetAmount:     decimal.NewFromInt(1000000),
		TimeHorizonYears: 5,
		ExpectedCAGR:     decimal.NewFromFloat(12.0),
		CreatedAt:        created,
	}

	projection := buildProjection(goal, decimal.NewFromInt(500000), decimal.NewFromInt(100000), testNow)

	assert.Negative(t, projection.YearsRemaining)
	assert.True(t, projection.ProjectedValue.LessThan(decimal.NewFromInt(500000)))
	assert.True(t, projection.Overdue)
	assert.True(t, projection.RequiredMonthly.IsZero())
}

func TestRequiredMonthlyContribution_GoalOverdue(t *testing.T) {
	ctx := context.Background()
	srv, repo := newTestService(t)

	goal := model.Goal{
		ID:               1,
		Name:             "Old goal",
		TargetAmount:     decimal.NewFromInt(1000000),
		TimeHorizonYears: 5,
		ExpectedCAGR:     decimal.NewFromFloat(12.0),
		CreatedAt:        testNow.AddDate(-6, 0, 0),
	}

	repo.On("GetGoal", ctx, int64(1)).Return(goal, nil)
	repo.On("GetContributionTotal", ctx, int64(1)).Return(decimal.NewFromInt(500000), nil)
	repo.On("GetFirstContributionAmount", ctx, int64(1)).Return(decimal.NewFromInt(100000), nil)

	_, err := srv.RequiredMonthlyContribution(ctx, 1)

	assert.ErrorIs(t, err, service.ErrGoalOverdue)
}

func TestProjectGoal_NotFound(t *testing.T) {
	ctx := context.Background()
	srv, repo := newTestService(t)

	repo.On("GetGoal", ctx, int64(7)).Return(model.Goal{}, repository.ErrNotFound)

	_, err := srv.ProjectGoal(ctx, 7)

	assert.ErrorIs(t, err, service.ErrNotFound)
}

func sipTemplate(goalID int64, amount int64, priority model.PriorityLevel) model.SipTemplate {
	return model.SipTemplate{
		GoalContribution: model.GoalContribution{
			ID:        goalID * 100,
			GoalID:    goalID,
			Type:      model.ContributionSIP,
			Amount:    decimal.NewFromInt(amount),
			Recurring: true,
		},
		GoalPriority: priority,
	}
}

func TestApplyRecurringContributions_EmitsInstalments(t *testing.T) {
	ctx := context.Background()
	srv, repo := newTestService(t)

	template := sipTemplate(1, 5000, model.PriorityHigh)

	repo.On("GetRecurringSipTemplates", ctx).Return([]model.SipTemplate{template}, nil)
	repo.On("HasSipInstalmentForMonth", ctx, int64(1), template.Amount, testNow).Return(false, nil)
	repo.On("InsertContribution", ctx, mock.MatchedBy(func(c model.GoalContribution) bool {
		return c.GoalID == 1 && !c.Recurring && c.Type == model.ContributionSIP && c.Amount.Equal(template.Amount) && c.Date.Equal(testNow)
	})).Return(int64(10), nil)

	result, err := srv.ApplyRecurringContributions(ctx)

	require.NoError(t, err)
	assert.Equal(t, model.SipRunResult{Applied: 1}, result)
	repo.AssertExpectations(t)
}

func TestApplyRecurringContributions_DormantGoalSkipped(t *testing.T) {
	ctx := context.Background()
	srv, repo := newTestService(t)

	repo.On("GetRecurringSipTemplates", ctx).Return([]model.SipTemplate{sipTemplate(1, 5000, model.PriorityDormant)}, nil)

	result, err := srv.ApplyRecurringContributions(ctx)

	require.NoError(t, err)
	assert.Equal(t, model.SipRunResult{Skipped: 1}, result)
	repo.AssertNotCalled(t, "InsertContribution", mock.Anything, mock.Anything)
}

// A second run inside the same calendar month must not double-apply.
func TestApplyRecurringContributions_SameMonthIdempotent(t *testing.T) {
	ctx := context.Background()
	srv, repo := newTestService(t)

	template := sipTemplate(1, 5000, model.PriorityStandard)

	repo.On("GetRecurringSipTemplates", ctx).Return([]model.SipTemplate{template}, nil)
	repo.On("HasSipInstalmentForMonth", ctx, int64(1), template.Amount, testNow).Return(true, nil)

	result, err := srv.ApplyRecurringContributions(ctx)

	require.NoError(t, err)
	assert.Equal(t, model.SipRunResult{Skipped: 1}, result)
	repo.AssertNotCalled(t, "InsertContribution", mock.Anything, mock.Anything)
}

func TestApplyRecurringContributions_WindowBounds(t *testing.T) {
	ctx := context.Background()
	srv, repo := newTestService(t)

	notStarted := sipTemplate(1, 5000, model.PriorityStandard)
	start := testNow.AddDate(0, 1, 0)
	notStarted.StartDate = &start

	ended := sipTemplate(2, 3000, model.PriorityStandard)
	end := testNow.AddDate(0, -1, 0)
	ended.EndDate = &end

	endsToday := sipTemplate(3, 2000, model.PriorityStandard)
	today := time.Date(testNow.Year(), testNow.Month(), testNow.Day(), 0, 0, 0, 0, time.UTC)
	endsToday.EndDate = &today

	repo.On("GetRecurringSipTemplates", ctx).Return([]model.SipTemplate{notStarted, ended, endsToday}, nil)
	repo.On("HasSipInstalmentForMonth", ctx, int64(3), endsToday.Amount, testNow).Return(false, nil)
	repo.On("InsertContribution", ctx, mock.MatchedBy(func(c model.GoalContribution) bool {
		return c.GoalID == 3
	})).Return(int64(11), nil)

	result, err := srv.ApplyRecurringContributions(ctx)

	require.NoError(t, err)
	assert.Equal(t, model.SipRunResult{Applied: 1, Skipped: 2}, result)
	repo.AssertExpectations(t)
}

func TestApplyRecurringContributions_FailureIsolated(t *testing.T) {
	ctx := context.Background()
	srv, repo := newTestService(t)

	broken := sipTemplate(1, 5000, model.PriorityStandard)
	healthy := sipTemplate(2, 3000, model.PriorityStandard)

	repo.On("GetRecurringSipTemplates", ctx).Return([]model.SipTemplate{broken, healthy}, nil)
	repo.On("HasSipInstalmentForMonth", ctx, int64(1), broken.Amount, testNow).Return(false, nil)
	repo.On("HasSipInstalmentForMonth", ctx, int64(2), healthy.Amount, testNow).Return(false, nil)
	repo.On("InsertContribution", ctx, mock.MatchedBy(func(c model.GoalContribution) bool {
		return c.GoalID == 1
	})).Return(int64(0), assert.AnError)
	repo.On("InsertContribution", ctx, mock.MatchedBy(func(c model.GoalContribution) bool {
		return c.GoalID == 2
	})).Return(int64(12), nil)

	result, err := srv.ApplyRecurringContributions(ctx)

	require.NoError(t, err)
	assert.Equal(t, model.SipRunResult{Applied: 1, Failed: 1}, result)
}
