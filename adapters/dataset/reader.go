package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"churnsight/domain/schema"
	"churnsight/internal/errors"

	"github.com/xuri/excelize/v2"
)

// Table is a parsed tabular file: normalized headers plus raw string cells.
// Type coercion is the consumer's job; the reader only deals in text.
type Table struct {
	Headers []string
	Rows    [][]string
}

// HeaderIndex returns a name -> column position map.
func (t *Table) HeaderIndex() map[string]int {
	idx := make(map[string]int, len(t.Headers))
	for i, h := range t.Headers {
		idx[h] = i
	}
	return idx
}

// Reader handles reading CSV and Excel tabular files.
type Reader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewReader creates a reader that dispatches on file extension.
func NewReader(filePath string) *Reader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "csv"
	if ext == ".xlsx" || ext == ".xls" {
		fileType = "xlsx"
	}
	return &Reader{filePath: filePath, fileType: fileType}
}

// ReadTable reads the whole file into memory. Header names are normalized
// once here so downstream schema checks compare like with like.
func (r *Reader) ReadTable() (*Table, error) {
	f, err := os.Open(r.filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open data file %s", r.filePath)
	}
	defer f.Close()

	return Parse(f, r.fileType)
}

// ParseUpload parses an uploaded tabular stream, picking the format from the
// original filename.
func ParseUpload(src io.Reader, filename string) (*Table, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	fileType := "csv"
	if ext == ".xlsx" || ext == ".xls" {
		fileType = "xlsx"
	}
	return Parse(src, fileType)
}

// Parse reads a tabular stream of the given type ("csv" or "xlsx").
func Parse(src io.Reader, fileType string) (*Table, error) {
	if fileType == "xlsx" {
		return parseExcel(src)
	}
	return parseCSV(src)
}

func parseCSV(src io.Reader) (*Table, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1 // ragged rows surface as short rows, not errors

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse CSV data")
	}
	if len(records) == 0 {
		return nil, errors.InvalidInput("uploaded table has no header row")
	}

	return tableFromRecords(records), nil
}

func parseExcel(src io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open Excel data")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.InvalidInput("Excel workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read sheet %s", sheets[0])
	}
	if len(rows) == 0 {
		return nil, errors.InvalidInput("uploaded table has no header row")
	}

	return tableFromRecords(rows), nil
}

func tableFromRecords(records [][]string) *Table {
	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = schema.NormalizeName(h)
	}

	rows := make([][]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		// Pad short rows so every row has one cell per header.
		row := make([]string, len(headers))
		copy(row, rec)
		rows = append(rows, row)
	}

	return &Table{Headers: headers, Rows: rows}
}
