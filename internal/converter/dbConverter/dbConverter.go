package dbConverter

import (
	"github.com/arjundev/goalfolio/internal/model"
	"github.com/arjundev/goalfolio/internal/model/dbModel"
)

func ConvertHolding(dbHolding dbModel.Holding) model.Holding {
	return model.Holding{
		ID:             dbHolding.ID,
		InvestmentType: model.InvestmentType(dbHolding.InvestmentType),
		Symbol:         dbHolding.Symbol,
		Name:           dbHolding.Name,
		Sector:         dbHolding.Sector,
		Industry:       dbHolding.Industry,
		PurchaseDate:   dbHolding.PurchaseDate,
		PurchasePrice:  dbHolding.PurchasePrice,
		Units:          dbHolding.Units,
		Currency:       dbHolding.Currency,
	}
}

func ConvertInstrument(dbInstrument dbModel.Instrument) model.Instrument {
	return model.Instrument{
		Symbol:         dbInstrument.Symbol,
		InvestmentType: model.InvestmentType(dbInstrument.InvestmentType),
		Currency:       dbInstrument.Currency,
	}
}

func ConvertPriceObservation(dbObservation dbModel.PriceObservation) model.PriceObservation {
	return model.PriceObservation{
		Symbol: dbObservation.Symbol,
		Date:   dbObservation.Date,
		Price:  dbObservation.Price,
	}
}

func ConvertHoldingPrice(dbHoldingPrice dbModel.HoldingPrice) model.HoldingPrice {
	return model.HoldingPrice{
		Holding: ConvertHolding(dbHoldingPrice.Holding),
		Price:   dbHoldingPrice.Price,
	}
}

func ConvertSnapshot(dbSnapshot dbModel.Snapshot) model.PortfolioSnapshot {
	return model.PortfolioSnapshot{
		Date:            dbSnapshot.Date,
		TotalValue:      dbSnapshot.TotalValue,
		TotalCost:       dbSnapshot.TotalCost,
		ProfitLoss:      dbSnapshot.ProfitLoss,
		HomeExposure:    dbSnapshot.InrExposure,
		ForeignExposure: dbSnapshot.UsdExposure,
		Holdings:        dbSnapshot.HoldingsCount,
	}
}

func ConvertGoal(dbGoal dbModel.Goal) model.Goal {
	return model.Goal{
		ID:               dbGoal.ID,
		Name:             dbGoal.Name,
		TargetAmount:     dbGoal.TargetAmount,
		TimeHorizonYears: dbGoal.TimeHorizon,
		Priority:         model.PriorityLevel(dbGoal.PriorityLevel),
		ExpectedCAGR:     dbGoal.ExpectedCagr,
		CreatedAt:        dbGoal.GoalCreationDate,
	}
}

func ConvertGoalInvestment(dbInvestment dbModel.GoalInvestment) model.GoalContribution {
	return model.GoalContribution{
		ID:        dbInvestment.ID,
		GoalID:    dbInvestment.GoalID,
		Type:      model.ContributionType(dbInvestment.InvestmentType),
		Date:      dbInvestment.InvestmentDate,
		Amount:    dbInvestment.Amount,
		Recurring: dbInvestment.Recurring,
		StartDate: dbInvestment.StartDate,
		EndDate:   dbInvestment.EndDate,
	}
}

func ConvertSipTemplate(dbTemplate dbModel.SipTemplate) model.SipTemplate {
	return model.SipTemplate{
		GoalContribution: ConvertGoalInvestment(dbTemplate.GoalInvestment),
		GoalPriority:     model.PriorityLevel(dbTemplate.PriorityLevel),
	}
}
