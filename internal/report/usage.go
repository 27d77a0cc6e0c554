// Package report renders the legacy usage log as a spreadsheet.
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/dmktpan/golfcar-maintenance-sub001/internal/model"
)

// Sheet names in the usage workbook.
const (
	SheetDetail  = "Usage Log"
	SheetSummary = "Summary"
)

// ContentType is the MIME type of the workbook WriteUsage produces.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var detailHeaders = []any{"Date", "Job", "Job Type", "Site", "Vehicle", "Part", "Quantity", "User"}

var summaryHeaders = []any{"Part", "Site", "Quantity"}

// WriteUsage writes an XLSX workbook with one row per usage log entry and a
// per-part, per-site summary sheet.
func WriteUsage(w io.Writer, logs []model.UsageLog) error {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", SheetDetail); err != nil {
		return fmt.Errorf("naming detail sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetSummary); err != nil {
		return fmt.Errorf("creating summary sheet: %w", err)
	}

	if err := writeRow(f, SheetDetail, 1, detailHeaders); err != nil {
		return err
	}
	for i, l := range logs {
		row := []any{
			l.UsedAt.Format("2006-01-02 15:04"),
			l.JobID,
			l.JobType,
			l.SiteName,
			l.Vehicle,
			l.PartName,
			l.Quantity,
			l.UserName,
		}
		if err := writeRow(f, SheetDetail, i+2, row); err != nil {
			return err
		}
	}

	if err := writeRow(f, SheetSummary, 1, summaryHeaders); err != nil {
		return err
	}
	for i, s := range summarize(logs) {
		if err := writeRow(f, SheetSummary, i+2, []any{s.part, s.site, s.quantity}); err != nil {
			return err
		}
	}

	for sheet, cols := range map[string]int{SheetDetail: len(detailHeaders), SheetSummary: len(summaryHeaders)} {
		last, _ := excelize.CoordinatesToCellName(cols, 1)
		if err := f.SetCellStyle(sheet, "A1", last, header); err != nil {
			return fmt.Errorf("styling %s header: %w", sheet, err)
		}
		if err := f.AutoFilter(sheet, "A1:"+last, []excelize.AutoFilterOptions{}); err != nil {
			return fmt.Errorf("adding %s filter: %w", sheet, err)
		}
		if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, Split: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
			return fmt.Errorf("freezing %s header: %w", sheet, err)
		}
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("writing %s row %d: %w", sheet, row, err)
	}
	return nil
}

type usageTotal struct {
	part     string
	site     string
	quantity int
}

// summarize totals quantities per part and site, sorted by part then site.
func summarize(logs []model.UsageLog) []usageTotal {
	index := make(map[[2]string]int)
	var totals []usageTotal
	for _, l := range logs {
		key := [2]string{l.PartName, l.SiteName}
		if i, ok := index[key]; ok {
			totals[i].quantity += l.Quantity
			continue
		}
		index[key] = len(totals)
		totals = append(totals, usageTotal{part: l.PartName, site: l.SiteName, quantity: l.Quantity})
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].part != totals[j].part {
			return totals[i].part < totals[j].part
		}
		return totals[i].site < totals[j].site
	})
	return totals
}
