// Package export renders resident lists as .xlsx workbooks.
package export

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"safenest/internal/resident/models"
)

const (
	SheetName   = "Residents"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var Header = []string{
	"Name", "Email", "Phone", "Children", "Children Ages", "Move-in Date",
	"Expected Exit Date", "Case Manager", "Status",
}

var columnWidths = []float64{24, 28, 18, 10, 16, 14, 18, 20, 12}

// Workbook writes one row per resident under a bold, frozen header row.
func Workbook(residents []*models.Resident) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#F3E8FF"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(Header))
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(SheetName, "A1", lastCol+"1", headerStyle); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}
	for i, width := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}

	for i, r := range residents {
		row := []any{
			r.Name,
			deref(r.Email),
			deref(r.Phone),
			r.ChildrenCount,
			deref(r.ChildrenAges),
			r.MoveInDate.String(),
			exitDate(r),
			r.CaseManager,
			string(r.Status),
		}
		if err := f.SetSheetRow(SheetName, "A"+strconv.Itoa(i+2), &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func exitDate(r *models.Resident) string {
	if r.ExpectedExitDate == nil {
		return ""
	}
	return r.ExpectedExitDate.String()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
