// Package batch builds a lab from a workbook: one sheet of connection
// details followed by sheets named after topology operations.
package batch

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// LabInfoSheet holds the connection record for the run.
const LabInfoSheet = "_LAB_INFO"

var ErrNoLabInfo = errors.New("workbook has no lab info")

// Record is one data row. Blank cells are left out of Values.
type Record struct {
	// Line is the row number in the source, for error messages.
	Line   int
	Values map[string]string
}

// Workbook is an ordered set of named sheets.
type Workbook interface {
	SheetNames() []string
	Records(sheet string) ([]Record, error)
}

// Open picks a reader by file extension.
func Open(path string) (Workbook, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return OpenXLSX(path)
	case ".yaml", ".yml", ".json":
		return OpenYAML(path)
	default:
		return nil, fmt.Errorf("unsupported workbook format %q", filepath.Ext(path))
	}
}

// recordFromCells zips a header with a row, dropping the first (row id)
// column, trimming cells and omitting blanks. ok is false for an empty row.
func recordFromCells(line int, header []string, cells []string) (Record, bool) {
	values := map[string]string{}
	for i := 1; i < len(header) && i < len(cells); i++ {
		key := strings.TrimSpace(header[i])
		value := strings.TrimSpace(cells[i])
		if len(key) == 0 || len(value) == 0 {
			continue
		}
		values[key] = value
	}
	if len(values) == 0 {
		return Record{}, false
	}
	return Record{Line: line, Values: values}, true
}
