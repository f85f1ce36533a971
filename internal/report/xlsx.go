package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	dataSheet     = "Report"
	categorySheet = "Categories"
)

// XLSXRenderer writes the table to one sheet and the category
// distribution to another.
type XLSXRenderer struct{}

func (XLSXRenderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (XLSXRenderer) Extension() string { return FormatXLSX }

func (XLSXRenderer) Render(p *Payload) ([]byte, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", dataSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(categorySheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#F5F5F5"},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#808080"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}

	headers := make([]string, len(p.Columns))
	for i, c := range p.Columns {
		headers[i] = c.Header
	}
	if err := writeHeader(f, dataSheet, headers, headerStyle); err != nil {
		f.Close()
		return nil, err
	}
	for i, row := range p.Rows {
		for j, v := range row {
			if v == nil {
				v = "N/A"
			}
			if err := setCell(f, dataSheet, j+1, i+2, v); err != nil {
				f.Close()
				return nil, err
			}
		}
	}

	if err := writeHeader(f, categorySheet, []string{"Crime Category", "Neighbourhoods"}, headerStyle); err != nil {
		f.Close()
		return nil, err
	}
	for i, c := range p.Categories {
		if err := setCell(f, categorySheet, 1, i+2, c.Label); err != nil {
			f.Close()
			return nil, err
		}
		if err := setCell(f, categorySheet, 2, i+2, c.Value); err != nil {
			f.Close()
			return nil, err
		}
	}

	if err := f.SetColWidth(dataSheet, "A", "A", 28); err != nil {
		f.Close()
		return nil, fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetColWidth(categorySheet, "A", "A", 28); err != nil {
		f.Close()
		return nil, fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetPanes(dataSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("freeze panes: %w", err)
	}
	if err := f.SetDocProps(&excelize.DocProperties{
		Title:      p.Title,
		Identifier: p.ID,
		Creator:    "crime-analysis",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("set properties: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeHeader(f *excelize.File, sheet string, headers []string, style int) error {
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("header coordinates: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("set header %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return fmt.Errorf("style header %s: %w", cell, err)
		}
	}
	return nil
}

func setCell(f *excelize.File, sheet string, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(sheet, cell, value)
}
