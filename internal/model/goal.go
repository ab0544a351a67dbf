package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type PriorityLevel string

const (
	PriorityHigh     PriorityLevel = "High"
	PriorityStandard PriorityLevel = "Standard"
	PriorityLow      PriorityLevel = "Low"
	PriorityDormant  PriorityLevel = "Dormant"
)

func (p PriorityLevel) Valid() bool {
	switch p {
	case PriorityHigh, PriorityStandard, PriorityLow, PriorityDormant:
		return true
	}
	return false
}

type ContributionType string

const (
	ContributionSIP     ContributionType = "SIP"
	ContributionLumpsum ContributionType = "Lumpsum"
)

func (t ContributionType) Valid() bool {
	return t == ContributionSIP || t == ContributionLumpsum
}

type Goal struct {
	ID               int64
	Name             string
	TargetAmount     decimal.Decimal
	TimeHorizonYears int
	Priority         PriorityLevel
	ExpectedCAGR     decimal.Decimal // percent per year
	CreatedAt        time.Time
}

type GoalContribution struct {
	ID        int64
	GoalID    int64
	Type      ContributionType
	Date      time.Time
	Amount    decimal.Decimal
	Recurring bool
	StartDate *time.Time
	EndDate   *time.Time
}

// SipTemplate is a recurring SIP contribution joined to the priority of
// its owning goal, as iterated by the monthly batch.
type SipTemplate struct {
	GoalContribution
	GoalPriority PriorityLevel
}

// GoalProjection is the full projection report for one goal.
// Money fields are in home currency; rates are percent per year.
// When Overdue is set the goal is behind target with no months left, so
// RequiredMonthly stays zero instead of collapsing into NaN or Inf.
type GoalProjection struct {
	Goal              Goal
	CurrentProgress   decimal.Decimal
	InitialInvestment decimal.Decimal
	YearsPassed       float64
	YearsRemaining    float64
	CAGRAchieved      float64
	ProjectedValue    decimal.Decimal
	OnTrack           bool
	Shortfall         decimal.Decimal
	RequiredMonthly   decimal.Decimal
	Overdue           bool
}

type SipRunResult struct {
	Applied int
	Skipped int
	Failed  int
}
