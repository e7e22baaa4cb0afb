package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")
	ErrNoSheets          = errors.New("workbook contains no sheets")
)

// Sheet is a raw grid of cell values; the first row is the header.
type Sheet struct {
	Name string
	Rows [][]string
}

// ReadFile dispatches on the file extension. The CSV sheet is named after the file.
func ReadFile(filename string, r io.Reader) ([]Sheet, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return ReadWorkbook(r)
	case ".csv":
		name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
		return ReadCSV(name, r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

// ReadWorkbook loads every sheet of an Office Open XML workbook.
// Cells are read raw so dates and times arrive as Excel serial numbers.
func ReadWorkbook(r io.Reader) ([]Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	names := f.GetSheetList()
	if len(names) == 0 {
		return nil, ErrNoSheets
	}

	sheets := make([]Sheet, 0, len(names))
	for _, name := range names {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}
		sheets = append(sheets, Sheet{Name: name, Rows: rows})
	}
	return sheets, nil
}

// ReadCSV loads a comma separated file as a single sheet. Ragged rows are allowed.
func ReadCSV(name string, r io.Reader) ([]Sheet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return []Sheet{{Name: name, Rows: rows}}, nil
}
