package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/EnkrateiaLucca/expense-report-automation/internal/entity"
	"github.com/EnkrateiaLucca/expense-report-automation/internal/repository"
)

// Service is a tiny façade over the repository that produces XLSX bytes for
// expense exports.
type Service struct {
	repo   repository.ExpenseRepository
	logger *slog.Logger
}

func NewService(repo repository.ExpenseRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// ExportExpensesXLSX returns an XLSX workbook (as bytes) for the given date window.
// If only from is provided -> from..today (inclusive).
// If only to is provided   -> beginning..to (inclusive).
// If neither is provided   -> all records.
func (s *Service) ExportExpensesXLSX(ctx context.Context, from, to *time.Time) ([]byte, error) {
	start := time.Now()

	// Normalize dates (date-only, UTC)
	var fromDate, toDate *time.Time
	if from != nil {
		f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
		fromDate = &f
	}
	if to != nil {
		t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
		toDate = &t
	}
	if fromDate != nil && toDate == nil {
		today := time.Now().UTC()
		t := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
		toDate = &t
	}

	recs, err := s.repo.ListBetween(ctx, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Expenses"
	const itemsSheet = "Line Items"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(itemsSheet); err != nil {
		return nil, err
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Record ID",
		"Document Date",
		"Vendor",
		"Currency",
		"Subtotal",
		"Tax",
		"Total",
		"Confidence",
		"Warnings",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	itemHeaders := []string{"Record ID", "Description", "Quantity", "Unit Price", "Line Total", "Confidence"}
	for i, h := range itemHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(itemsSheet, cell, h)
	}

	row := 2
	itemRow := 2
	for _, r := range recs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, r.ID.String())
		if !r.DocumentDate.IsZero() {
			write(2, r.DocumentDate.Format("2006-01-02"))
		} else {
			write(2, "")
		}
		write(3, r.VendorName)
		write(4, r.CurrencyCode)
		write(5, r.Subtotal.String())
		write(6, r.Tax.String())
		write(7, r.Total.String())
		write(8, r.OverallConfidence)
		write(9, truncate(warningSummary(r), 140))
		row++

		for _, li := range r.LineItems {
			writeItem := func(col int, v any) {
				cell, _ := excelize.CoordinatesToCellName(col, itemRow)
				_ = f.SetCellValue(itemsSheet, cell, v)
			}
			writeItem(1, r.ID.String())
			writeItem(2, li.Description)
			writeItem(3, li.Quantity.String())
			writeItem(4, li.UnitPrice.String())
			writeItem(5, li.LineTotal.String())
			writeItem(6, li.Confidence)
			itemRow++
		}
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 38) // id
	_ = f.SetColWidth(sheet, "B", "B", 14) // date
	_ = f.SetColWidth(sheet, "C", "C", 28) // vendor
	_ = f.SetColWidth(sheet, "D", "D", 10) // currency
	_ = f.SetColWidth(sheet, "E", "G", 14) // amounts
	_ = f.SetColWidth(sheet, "I", "I", 48) // warnings
	_ = f.SetColWidth(itemsSheet, "A", "A", 38)
	_ = f.SetColWidth(itemsSheet, "B", "B", 40)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(recs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func warningSummary(r *entity.ExpenseRecord) string {
	if len(r.Warnings) == 0 {
		return ""
	}
	out := ""
	for i, w := range r.Warnings {
		if i > 0 {
			out += "; "
		}
		out += w.String()
	}
	return out
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
