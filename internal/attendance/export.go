package attendance

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding the exported log.
const SheetName = "Anwesenheit"

var exportHeaders = []string{"Datum", "Schüler", "Status", "Notiz", "Erfasst"}

// ExportXLSX writes records as a workbook to w. names maps student ids to
// display names; unknown ids are shown as "#<id>".
func ExportXLSX(w io.Writer, records []Record, names map[int64]string) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	first := f.GetSheetName(f.GetActiveSheetIndex())
	if err := f.SetSheetName(first, SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return fmt.Errorf("set header: %w", err)
		}
	}

	for r, rec := range records {
		name, ok := names[rec.StudentID]
		if !ok {
			name = "#" + strconv.FormatInt(rec.StudentID, 10)
		}
		row := []any{
			displayDate(rec.Date),
			name,
			rec.Status.Label(),
			rec.Note,
			time.UnixMilli(rec.Timestamp).Local().Format("02.01.2006 15:04"),
		}
		for c, val := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(SheetName, cell, val); err != nil {
				return fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
	}

	if err := f.SetColWidth(SheetName, "A", "A", 12); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetColWidth(SheetName, "B", "C", 24); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetColWidth(SheetName, "D", "D", 40); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// displayDate turns YYYY-MM-DD into DD.MM.YYYY, leaving other input as is.
func displayDate(key string) string {
	t, err := time.Parse(dateLayout, key)
	if err != nil {
		return key
	}
	return t.Format("02.01.2006")
}
