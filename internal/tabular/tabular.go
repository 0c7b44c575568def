// Package tabular reads spreadsheet-like files (.xlsx, .csv) into a header
// row plus data rows, and resolves columns by a list of accepted names.
package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Table is a header row plus data rows. Rows may be shorter than Header.
type Table struct {
	Header []string
	Rows   [][]string
}

// SupportedExtensions lists the file extensions Read understands.
var SupportedExtensions = map[string]bool{
	".xlsx": true,
	".csv":  true,
}

// IsSupported reports whether filename has a readable extension.
func IsSupported(filename string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// ReadFile reads the table stored at path.
func ReadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Read(bytes.NewReader(data), filepath.Base(path))
}

// Read parses r according to the extension of filename. For workbooks only
// the first sheet is read.
func Read(r io.Reader, filename string) (*Table, error) {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".xlsx":
		return readXLSX(r)
	case ".csv":
		return readCSV(r)
	default:
		return nil, fmt.Errorf("unsupported table extension: %s", ext)
	}
}

func readXLSX(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return &Table{}, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return split(rows), nil
}

func readCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return split(records), nil
}

func split(records [][]string) *Table {
	if len(records) == 0 {
		return &Table{}
	}
	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		// Excel exports often carry a UTF-8 BOM on the first cell.
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	return &Table{Header: header, Rows: records[1:]}
}

// Column returns the index of the first header matching one of names,
// compared case-insensitively after trimming. It returns -1 if none match.
func (t *Table) Column(names ...string) int {
	for _, name := range names {
		for i, h := range t.Header {
			if strings.EqualFold(h, strings.TrimSpace(name)) {
				return i
			}
		}
	}
	return -1
}

// Cell returns the trimmed value at row, col or "" when out of range.
func Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}
