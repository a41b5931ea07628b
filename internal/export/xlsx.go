// Package export renders the inventory for use outside the browser: a
// spreadsheet of all instruments and printable QR labels.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"instrument-tracker/internal/inventory"
	"instrument-tracker/internal/metrics"
)

const (
	instrumentsSheet = "instruments"
	summarySheet     = "summary"
)

var instrumentHeaders = []string{
	"ID", "Name", "Location", "Status", "Calibration required", "Period (days)",
	"Last calibration", "Next calibration", "Days remaining", "Notes",
}

// WriteXLSX writes a workbook with one row per item and a summary sheet with
// the stats.
func WriteXLSX(w io.Writer, items []inventory.Item, stats inventory.Stats) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", instrumentsSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	if err := f.SetSheetRow(instrumentsSheet, "A1", &instrumentHeaders); err != nil {
		return err
	}
	if err := f.SetRowStyle(instrumentsSheet, 1, 1, header); err != nil {
		return err
	}

	for i, item := range items {
		row := []any{
			item.ID,
			item.Name,
			item.Location,
			item.Status.Status.Label(),
			yesNo(item.CalibrationRequired),
			item.CalibrationPeriod,
			dateCell(item.LastCalibrationDate),
			dateCell(item.Status.NextCalibration),
			nil,
			nil,
		}
		if item.Status.DaysRemaining != nil {
			row[8] = *item.Status.DaysRemaining
		}
		if item.Notes != nil {
			row[9] = *item.Notes
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(instrumentsSheet, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(instrumentsSheet, "B", "C", 28); err != nil {
		return err
	}
	if err := f.SetColWidth(instrumentsSheet, "J", "J", 48); err != nil {
		return err
	}

	summary := [][]any{
		{"Total", stats.Total},
		{"Ready", stats.Ready},
		{"Due soon", stats.DueSoon},
		{"Overdue", stats.Overdue},
		{"Not ready", stats.NotReady},
		{"Never calibrated", stats.NeverCalibrated},
		{"Not ready (total)", stats.NotReadyTotal},
	}
	for i, row := range summary {
		if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", i+1), &row); err != nil {
			return err
		}
	}
	if err := f.SetColStyle(summarySheet, "A", header); err != nil {
		return err
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 20); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return err
	}
	metrics.IncExport("xlsx")
	return nil
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
