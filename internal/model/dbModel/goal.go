package dbModel

import (
	"time"

	"github.com/shopspring/decimal"
)

type Goal struct {
	ID               int64           `db:"id"`
	Name             string          `db:"name"`
	TargetAmount     decimal.Decimal `db:"target_amount"`
	TimeHorizon      int             `db:"time_horizon"`
	PriorityLevel    string          `db:"priority_level"`
	ExpectedCagr     decimal.Decimal `db:"expected_cagr"`
	GoalCreationDate time.Time       `db:"goal_creation_date"`
}

type GoalInvestment struct {
	ID             int64           `db:"id"`
	GoalID         int64           `db:"goal_id"`
	InvestmentType string          `db:"investment_type"`
	InvestmentDate time.Time       `db:"investment_date"`
	Amount         decimal.Decimal `db:"amount"`
	Recurring      bool            `db:"recurring"`
	StartDate      *time.Time      `db:"start_date"`
	EndDate        *time.Time      `db:"end_date"`
}

type SipTemplate struct {
	GoalInvestment
	PriorityLevel string `db:"priority_level"`
}
