package xlsxGenerator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/arjundev/goalfolio/internal/model"
	"github.com/arjundev/goalfolio/utils"
	"github.com/xuri/excelize/v2"
)

type XLSXGenerator struct{}

func New() *XLSXGenerator {
	return &XLSXGenerator{}
}

func (g *XLSXGenerator) Generate(ctx context.Context, valuation model.PortfolioValuation, insights model.PortfolioInsights) (fileBytes []byte, fileExtension string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "XLSXGenerator.Generate"

	slog.Debug("Generate start", slog.String("rqID", rqID), slog.String("op", op))

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.Error("got error while closing file", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
	}()

	if err := g.fillPortfolioSheet(ctx, f, valuation); err != nil {
		return nil, "", err
	}

	if err := g.fillAllocationSheet(ctx, f, insights); err != nil {
		return nil, "", err
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		slog.Error("got error while deleting Sheet1", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		slog.Error("got error while saving file to bytes buffer", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", err
	}

	slog.Debug("Generate completed", slog.String("rqID", rqID), slog.String("op", op))

	return buf.Bytes(), ".xlsx", nil
}

func headerStyle(f *excelize.File, color string) (int, error) {
	return f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Font: &excelize.Font{
			Bold: true,
			Size: 11,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{color},
		},
	})
}

func (g *XLSXGenerator) fillPortfolioSheet(ctx context.Context, f *excelize.File, valuation model.PortfolioValuation) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "XLSXGenerator.fillPortfolioSheet"

	sheetName := "Portfolio"
	_, err := f.NewSheet(sheetName)
	if err != nil {
		slog.Error("got error while creating NewSheet", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	err = f.MergeCell(sheetName, "A1", "J1")
	if err != nil {
		return err
	}

	f.SetCellValue(sheetName, "A1", "Holdings")

	styleID, err := headerStyle(f, "#cfe2f3")
	if err != nil {
		return err
	}

	if err := f.SetCellStyle(sheetName, "A1", "A1", styleID); err != nil {
		return fmt.Errorf("style apply failed: %w", err)
	}

	_ = f.SetCellStr(sheetName, "A2", "name")
	_ = f.SetCellStr(sheetName, "B2", "symbol")
	_ = f.SetCellStr(sheetName, "C2", "type")
	_ = f.SetCellStr(sheetName, "D2", "currency")
	_ = f.SetCellStr(sheetName, "E2", "units")
	_ = f.SetCellStr(sheetName, "F2", "current price")
	_ = f.SetCellStr(sheetName, "G2", "invested")
	_ = f.SetCellStr(sheetName, "H2", "value")
	_ = f.SetCellStr(sheetName, "I2", "p/l")
	_ = f.SetCellStr(sheetName, "J2", "p/l %")

	for i, hv := range valuation.Holdings {
		row := i + 3
		_ = f.SetCellStr(sheetName, fmt.Sprintf("A%d", row), hv.Name)
		_ = f.SetCellStr(sheetName, fmt.Sprintf("B%d", row), hv.Symbol)
		_ = f.SetCellStr(sheetName, fmt.Sprintf("C%d", row), string(hv.InvestmentType))
		_ = f.SetCellStr(sheetName, fmt.Sprintf("D%d", row), hv.Currency)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), hv.Units.InexactFloat64())
		if hv.Unavailable {
			_ = f.SetCellStr(sheetName, fmt.Sprintf("F%d", row), "unavailable")
		} else {
			_ = f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), hv.CurrentPrice.InexactFloat64())
		}
		_ = f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), hv.Cost.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), hv.Value.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("I%d", row), hv.ProfitLoss.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("J%d", row), hv.ProfitLossPct.InexactFloat64())
	}

	rowNum := len(valuation.Holdings) + 5

	err = f.MergeCell(sheetName, fmt.Sprintf("A%d", rowNum), fmt.Sprintf("D%d", rowNum))
	if err != nil {
		return err
	}

	f.SetCellValue(sheetName, fmt.Sprintf("A%d", rowNum), "Totals")

	styleID, err = headerStyle(f, "#d9ead3")
	if err != nil {
		return err
	}

	if err := f.SetCellStyle(sheetName, fmt.Sprintf("A%d", rowNum), fmt.Sprintf("A%d", rowNum), styleID); err != nil {
		return fmt.Errorf("style apply failed: %w", err)
	}

	totals := []struct {
		label string
		value float64
	}{
		{"stocks invested", valuation.StockCost.InexactFloat64()},
		{"stocks value", valuation.StockValue.InexactFloat64()},
		{"funds invested", valuation.FundCost.InexactFloat64()},
		{"funds value", valuation.FundValue.InexactFloat64()},
		{"total invested", valuation.TotalCost.InexactFloat64()},
		{"total value", valuation.TotalValue.InexactFloat64()},
		{"total p/l", valuation.TotalProfitLoss.InexactFloat64()},
		{"home exposure", valuation.HomeExposure.InexactFloat64()},
		{"foreign exposure", valuation.ForeignExposure.InexactFloat64()},
	}

	for _, total := range totals {
		rowNum++
		_ = f.SetCellStr(sheetName, fmt.Sprintf("A%d", rowNum), total.label)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", rowNum), total.value)
	}

	return nil
}

func (g *XLSXGenerator) fillAllocationSheet(ctx context.Context, f *excelize.File, insights model.PortfolioInsights) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "XLSXGenerator.fillAllocationSheet"

	sheetName := "Allocation"
	_, err := f.NewSheet(sheetName)
	if err != nil {
		slog.Error("got error while creating NewSheet", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	err = f.MergeCell(sheetName, "A1", "D1")
	if err != nil {
		return err
	}

	f.SetCellValue(sheetName, "A1", "By industry")

	styleID, err := headerStyle(f, "#f9cb9c")
	if err != nil {
		return err
	}

	if err := f.SetCellStyle(sheetName, "A1", "A1", styleID); err != nil {
		return fmt.Errorf("style apply failed: %w", err)
	}

	_ = f.SetCellStr(sheetName, "A2", "industry")
	_ = f.SetCellStr(sheetName, "B2", "value")
	_ = f.SetCellStr(sheetName, "C2", "share %")
	_ = f.SetCellStr(sheetName, "D2", "risk band")

	rowNum := 2
	for _, group := range insights.ByIndustry {
		rowNum++
		_ = f.SetCellStr(sheetName, fmt.Sprintf("A%d", rowNum), group.Name)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", rowNum), group.Value.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("C%d", rowNum), group.Pct.InexactFloat64())
		_ = f.SetCellStr(sheetName, fmt.Sprintf("D%d", rowNum), string(group.Band))
	}

	rowNum += 3

	err = f.MergeCell(sheetName, fmt.Sprintf("A%d", rowNum), fmt.Sprintf("D%d", rowNum))
	if err != nil {
		return err
	}

	f.SetCellValue(sheetName, fmt.Sprintf("A%d", rowNum), "By currency")

	styleID, err = headerStyle(f, "#f4cccc")
	if err != nil {
		return err
	}

	if err := f.SetCellStyle(sheetName, fmt.Sprintf("A%d", rowNum), fmt.Sprintf("A%d", rowNum), styleID); err != nil {
		return fmt.Errorf("style apply failed: %w", err)
	}

	rowNum++
	_ = f.SetCellStr(sheetName, fmt.Sprintf("A%d", rowNum), "currency")
	_ = f.SetCellStr(sheetName, fmt.Sprintf("B%d", rowNum), "value")
	_ = f.SetCellStr(sheetName, fmt.Sprintf("C%d", rowNum), "share %")
	_ = f.SetCellStr(sheetName, fmt.Sprintf("D%d", rowNum), "risk band")

	for _, group := range insights.ByCurrency {
		rowNum++
		_ = f.SetCellStr(sheetName, fmt.Sprintf("A%d", rowNum), group.Name)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", rowNum), group.Value.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("C%d", rowNum), group.Pct.InexactFloat64())
		_ = f.SetCellStr(sheetName, fmt.Sprintf("D%d", rowNum), string(group.Band))
	}

	if len(insights.Warnings) > 0 {
		rowNum += 3

		err = f.MergeCell(sheetName, fmt.Sprintf("A%d", rowNum), fmt.Sprintf("D%d", rowNum))
		if err != nil {
			return err
		}

		f.SetCellValue(sheetName, fmt.Sprintf("A%d", rowNum), "Warnings")

		styleID, err = headerStyle(f, "#cccccc")
		if err != nil {
			return err
		}

		if err := f.SetCellStyle(sheetName, fmt.Sprintf("A%d", rowNum), fmt.Sprintf("A%d", rowNum), styleID); err != nil {
			return fmt.Errorf("style apply failed: %w", err)
		}

		for _, warning := range insights.Warnings {
			rowNum++
			_ = f.SetCellStr(sheetName, fmt.Sprintf("A%d", rowNum), warning)
		}
	}

	return nil
}
