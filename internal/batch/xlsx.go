package batch

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// XLSXWorkbook is an Excel workbook read fully into memory. In every sheet
// the first row is a comment for humans and the second the column header.
type XLSXWorkbook struct {
	sheets []string
	rows   map[string][][]string
}

func OpenXLSX(path string) (*XLSXWorkbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	wb := &XLSXWorkbook{
		sheets: f.GetSheetList(),
		rows:   map[string][][]string{},
	}

	for _, sheet := range wb.sheets {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
		}
		wb.rows[sheet] = rows
	}

	return wb, nil
}

func (w *XLSXWorkbook) SheetNames() []string {
	return append([]string(nil), w.sheets...)
}

func (w *XLSXWorkbook) Records(sheet string) ([]Record, error) {
	rows, ok := w.rows[sheet]
	if !ok {
		return nil, fmt.Errorf("sheet %s not found", sheet)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	header := rows[1]
	var records []Record
	for i, row := range rows[2:] {
		// spreadsheet rows are 1-based and the data starts on row 3
		if record, ok := recordFromCells(i+3, header, row); ok {
			records = append(records, record)
		}
	}
	return records, nil
}
