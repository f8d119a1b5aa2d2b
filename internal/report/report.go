// Package report writes the outcome of a migration run to an Excel workbook.
package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/locvowork/employee_migration/internal/domain"
	"github.com/locvowork/employee_migration/internal/pipeline"
)

// Sheet names
const (
	SheetSummary  = "Summary"
	SheetSkipped  = "Skipped"
	SheetFailures = "WriteFailures"
)

// Write renders res into a workbook at path with a summary sheet, the skipped
// source records and the documents rejected by the destination.
func Write(path string, res *pipeline.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return err
	}
	if _, err := f.NewSheet(SheetSkipped); err != nil {
		return err
	}
	if _, err := f.NewSheet(SheetFailures); err != nil {
		return err
	}

	if err := writeSummary(f, headerStyle, res); err != nil {
		return err
	}

	skipped := make([][]interface{}, 0, len(res.Skipped))
	for _, s := range res.Skipped {
		skipped = append(skipped, []interface{}{s.Table, s.Key, s.Reason})
	}
	if err := writeTable(f, SheetSkipped, headerStyle, []string{"Table", "Key", "Reason"}, skipped); err != nil {
		return err
	}

	var failures [][]interface{}
	for _, l := range res.Loads {
		for _, fl := range l.Failures {
			failures = append(failures, []interface{}{l.Collection, fl.Index, fl.DocumentID, fl.Reason})
		}
	}
	if err := writeTable(f, SheetFailures, headerStyle, []string{"Collection", "Index", "Document ID", "Reason"}, failures); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, headerStyle int, res *pipeline.Result) error {
	errText := ""
	if res.Err != nil {
		errText = res.Err.Error()
	}
	info := [][]interface{}{
		{"Run ID", res.RunID},
		{"State", string(res.State)},
		{"Duration (s)", res.Duration.Seconds()},
		{"Skipped records", len(res.Skipped)},
		{"Write failures", res.WriteFailures()},
		{"Error", errText},
	}
	for i, row := range info {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(SheetSummary, cell, &row); err != nil {
			return err
		}
	}

	start := len(info) + 2
	var rows [][]interface{}
	for _, table := range domain.SourceTables {
		rows = append(rows, []interface{}{"extracted", table, res.Extracted[table], res.Orphans[table]})
	}
	for _, l := range res.Loads {
		rows = append(rows, []interface{}{"loaded", l.Collection, l.Inserted, l.Failed(), l.Deleted, l.Batches, l.Cleared})
	}
	headers := []string{"Step", "Name", "Rows", "Orphans / Failed", "Deleted", "Batches", "Cleared"}
	return writeTableAt(f, SheetSummary, start, headerStyle, headers, rows)
}

func writeTable(f *excelize.File, sheet string, headerStyle int, headers []string, rows [][]interface{}) error {
	return writeTableAt(f, sheet, 1, headerStyle, headers, rows)
}

func writeTableAt(f *excelize.File, sheet string, startRow, headerStyle int, headers []string, rows [][]interface{}) error {
	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	first, _ := excelize.CoordinatesToCellName(1, startRow)
	last, _ := excelize.CoordinatesToCellName(len(headers), startRow)
	if err := f.SetSheetRow(sheet, first, &header); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, first, last, headerStyle); err != nil {
		return err
	}

	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, startRow+i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	return f.SetColWidth(sheet, "A", lastCol, 20)
}
