// Package export renders the finished batch into downloadable files. It is
// read-only with respect to the batch store: only items with a non-empty
// title produce a row, and the same prefix/suffix composition the editor
// shows live is applied here.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/stockmeta/api/internal/model"
)

// Row is one exportable record after composition.
type Row struct {
	FileName    string
	Title       string
	Description string
	Keywords    []string
	Category    string
}

// BuildRows filters items without a title and applies prefix/suffix
// composition from the customization snapshot.
func BuildRows(items []model.BatchItem, cfg model.CustomizationConfig) []Row {
	rows := make([]Row, 0, len(items))
	for _, it := range items {
		if it.Metadata.Title == "" {
			continue
		}
		rows = append(rows, Row{
			FileName:    it.FileName,
			Title:       cfg.TitlePrefix + it.Metadata.Title + cfg.TitleSuffix,
			Description: cfg.DescriptionPrefix + it.Metadata.Description + cfg.DescriptionSuffix,
			Keywords:    it.Metadata.Keywords,
			Category:    it.Metadata.Category,
		})
	}
	return rows
}

// WriteStandardCSV writes the generic CSV layout with semicolon-joined
// keywords.
func WriteStandardCSV(w io.Writer, items []model.BatchItem, cfg model.CustomizationConfig) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"File", "Title", "Description", "Keywords", "Category"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range BuildRows(items, cfg) {
		record := []string{row.FileName, row.Title, row.Description, strings.Join(row.Keywords, ";"), row.Category}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteAdobeCSV writes the Adobe Stock upload layout: comma-joined keywords
// and the bare category number.
func WriteAdobeCSV(w io.Writer, items []model.BatchItem, cfg model.CustomizationConfig) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Filename", "Title", "Keywords", "Category"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range BuildRows(items, cfg) {
		record := []string{row.FileName, row.Title, strings.Join(row.Keywords, ","), CategoryNumber(row.Category)}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the standard layout as a spreadsheet with a bold header
// row.
func WriteXLSX(w io.Writer, items []model.BatchItem, cfg model.CustomizationConfig) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Metadata"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"File", "Title", "Description", "Keywords", "Category"}
	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("failed to write header cell: %w", err)
		}
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		f.SetRowStyle(sheet, 1, 1, style)
	}

	for i, row := range BuildRows(items, cfg) {
		values := []any{row.FileName, row.Title, row.Description, strings.Join(row.Keywords, ";"), row.Category}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("failed to write cell: %w", err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// CategoryNumber extracts the numeric id from a "19: Technology" category
// value. Empty input yields empty output.
func CategoryNumber(category string) string {
	if category == "" {
		return ""
	}
	parts := strings.SplitN(category, ":", 2)
	return strings.TrimSpace(parts[0])
}
