// Package report renders generated estimates as downloadable spreadsheets.
package report

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"bidderpro-backend-go/internal/models"
)

// SheetName is the single sheet of an exported estimate workbook.
const SheetName = "Estimate"

// ContentType is the MIME type of the exported workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const moneyFormat = "$#,##0.00"

// EstimateWorkbook lays out view as a workbook: project details first, then
// one row per material, then the totals block and the pricing explanation.
func EstimateWorkbook(view *models.EstimateView) (*excelize.File, error) {
	if view == nil || view.Result == nil {
		return nil, errors.New("estimate view is empty")
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("bold style: %w", err)
	}
	moneyFmt := moneyFormat
	money, err := f.NewStyle(&excelize.Style{CustomNumFmt: &moneyFmt})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("money style: %w", err)
	}

	w := &sheetWriter{f: f}
	w.pair("Project", view.Project.ProjectName)
	w.pair("Project Type", view.Project.ProjectType)
	w.pair("ZIP Code", view.Project.ZipCode)
	w.pair("Square Footage", view.SquareFootage)
	w.pair("Buffer %", view.BufferPercent)
	w.pair("Labor Rate ($/sq ft)", view.LaborRate)
	w.pair("Generated At", view.GeneratedAt.Format("2006-01-02 15:04 MST"))
	detailsEnd := w.row
	w.row++

	headerRow := w.row + 1
	w.values("Material", "Unit Price ($/sq ft)", "Line Cost")
	firstLine := w.row + 1
	for _, li := range view.Result.LineItems {
		w.values(li.Material, li.UnitPrice, li.LineCost)
	}
	lastLine := w.row
	w.row++

	totalsStart := w.row + 1
	w.values("Material Subtotal", "", view.Result.MaterialSubtotal)
	w.values(fmt.Sprintf("Buffer (%d%%)", view.BufferPercent), "", view.Result.BufferAmount)
	w.values("Labor", "", view.Result.LaborCost)
	w.values("Total", "", view.Result.Total)
	totalsEnd := w.row
	w.row++
	w.values(view.Explanation)

	if w.err != nil {
		f.Close()
		return nil, w.err
	}

	styles := []struct {
		from, to string
		style    int
	}{
		{"A1", cell(1, detailsEnd), bold},
		{cell(1, headerRow), cell(3, headerRow), bold},
		{cell(3, firstLine), cell(3, totalsEnd), money},
		{cell(1, totalsStart), cell(1, totalsEnd), bold},
	}
	if lastLine >= firstLine {
		styles = append(styles, struct {
			from, to string
			style    int
		}{cell(2, firstLine), cell(2, lastLine), money})
	}
	for _, s := range styles {
		if err := f.SetCellStyle(SheetName, s.from, s.to, s.style); err != nil {
			f.Close()
			return nil, fmt.Errorf("style %s:%s: %w", s.from, s.to, err)
		}
	}
	if err := f.SetColWidth(SheetName, "A", "A", 24); err != nil {
		f.Close()
		return nil, fmt.Errorf("column width: %w", err)
	}
	if err := f.SetColWidth(SheetName, "B", "C", 20); err != nil {
		f.Close()
		return nil, fmt.Errorf("column width: %w", err)
	}
	return f, nil
}

// WriteEstimate streams the workbook for view to out.
func WriteEstimate(out io.Writer, view *models.EstimateView) error {
	f, err := EstimateWorkbook(view)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// sheetWriter appends rows to the estimate sheet and keeps the first error.
type sheetWriter struct {
	f   *excelize.File
	row int
	err error
}

func (w *sheetWriter) pair(label string, value any) {
	w.values(label, value)
}

func (w *sheetWriter) values(values ...any) {
	w.row++
	if w.err != nil {
		return
	}
	if err := w.f.SetSheetRow(SheetName, cell(1, w.row), &values); err != nil {
		w.err = fmt.Errorf("write row %d: %w", w.row, err)
	}
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
