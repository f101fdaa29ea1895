package batch

import (
	"fmt"
	"os"
	"strings"

	"github.com/evenger-io/evenger/internal/common"
)

// yamlDocument is the YAML/JSON form of a workbook:
//
//	lab:
//	  eveng_server_url: http://172.18.18.18
//	  lab_path: demo/core
//	sheets:
//	  - name: add_network
//	    rows:
//	      - {name: mgmt, type: pnet0}
type yamlDocument struct {
	Lab    map[string]any `json:"lab"`
	Sheets []yamlSheet    `json:"sheets"`
}

type yamlSheet struct {
	Name string           `json:"name"`
	Rows []map[string]any `json:"rows"`
}

type YAMLWorkbook struct {
	names   []string
	records map[string][]Record
}

func OpenYAML(path string) (*YAMLWorkbook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook %s: %w", path, err)
	}
	return ParseYAML(data)
}

func ParseYAML(data []byte) (*YAMLWorkbook, error) {
	doc, err := common.DecodeDocument[yamlDocument](data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse workbook: %w", err)
	}

	wb := &YAMLWorkbook{records: map[string][]Record{}}

	if len(doc.Lab) > 0 {
		wb.add(LabInfoSheet, []map[string]any{doc.Lab})
	}
	for _, sheet := range doc.Sheets {
		if len(sheet.Name) == 0 {
			return nil, fmt.Errorf("sheet without name")
		}
		wb.add(sheet.Name, sheet.Rows)
	}

	return wb, nil
}

// add appends rows to a sheet; a sheet listed twice keeps its first position.
func (w *YAMLWorkbook) add(name string, rows []map[string]any) {
	if _, exists := w.records[name]; !exists {
		w.names = append(w.names, name)
	}
	for i, row := range rows {
		values := map[string]string{}
		for key, value := range row {
			text := scalarText(value)
			if len(strings.TrimSpace(text)) == 0 {
				continue
			}
			values[strings.TrimSpace(key)] = strings.TrimSpace(text)
		}
		if len(values) == 0 {
			continue
		}
		w.records[name] = append(w.records[name], Record{Line: i + 1, Values: values})
	}
	if _, exists := w.records[name]; !exists {
		w.records[name] = nil
	}
}

func scalarText(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprint(v)
	default:
		return fmt.Sprint(v)
	}
}

func (w *YAMLWorkbook) SheetNames() []string {
	return append([]string(nil), w.names...)
}

func (w *YAMLWorkbook) Records(sheet string) ([]Record, error) {
	records, ok := w.records[sheet]
	if !ok {
		return nil, fmt.Errorf("sheet %s not found", sheet)
	}
	return records, nil
}
