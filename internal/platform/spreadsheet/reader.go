// Package spreadsheet turns an uploaded price list into a row-major grid of raw cell
// text. Only the first sheet of a workbook is read.
package spreadsheet

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned for files that are neither xlsx nor csv.
var ErrUnsupportedFormat = errors.New("spreadsheet: unsupported file format")

// Grid is row-major. Rows may have different lengths.
type Grid [][]string

// Cell returns the trimmed value at (row, col) or "" when out of range.
func (g Grid) Cell(row, col int) string {
	if row < 0 || row >= len(g) || col < 0 || col >= len(g[row]) {
		return ""
	}
	return strings.TrimSpace(g[row][col])
}

// Width returns the length of the longest row.
func (g Grid) Width() int {
	width := 0
	for _, row := range g {
		if len(row) > width {
			width = len(row)
		}
	}
	return width
}

// Read detects the format from filename, falling back to content sniffing.
func Read(filename string, r io.Reader) (Grid, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("spreadsheet: read: %w", err)
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm", ".xltx":
		return readWorkbook(data)
	case ".csv", ".txt":
		return readCSV(data)
	case ".xls":
		return nil, fmt.Errorf("%w: legacy .xls, save the file as .xlsx", ErrUnsupportedFormat)
	}
	if bytes.HasPrefix(data, []byte("PK\x03\x04")) {
		return readWorkbook(data)
	}
	if isText(data) {
		return readCSV(data)
	}
	return nil, ErrUnsupportedFormat
}

func readWorkbook(data []byte) (Grid, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("spreadsheet: open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Grid{}, nil
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("spreadsheet: read sheet %q: %w", sheets[0], err)
	}
	return Grid(rows), nil
}

func readCSV(data []byte) (Grid, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("spreadsheet: parse csv: %w", err)
	}
	return Grid(records), nil
}

// sniffDelimiter picks between the comma, semicolon and tab separators commonly
// produced by regional spreadsheet exports, based on the first line.
func sniffDelimiter(data []byte) rune {
	line, _ := bufio.NewReader(bytes.NewReader(data)).ReadString('\n')
	best, bestCount := ',', strings.Count(line, ",")
	for _, candidate := range []rune{';', '\t'} {
		if n := strings.Count(line, string(candidate)); n > bestCount {
			best, bestCount = candidate, n
		}
	}
	return best
}

func isText(data []byte) bool {
	sample := data
	if len(sample) > 512 {
		sample = sample[:512]
	}
	return !bytes.ContainsRune(sample, 0)
}

// ColumnLabel converts a zero-based column index into spreadsheet letters (0 -> A, 26 -> AA).
func ColumnLabel(index int) string {
	if index < 0 {
		return ""
	}
	name, err := excelize.ColumnNumberToName(index + 1)
	if err != nil {
		return ""
	}
	return name
}

// ColumnIndex converts spreadsheet letters into a zero-based column index (A -> 0).
func ColumnIndex(label string) (int, error) {
	n, err := excelize.ColumnNameToNumber(strings.ToUpper(strings.TrimSpace(label)))
	if err != nil {
		return 0, fmt.Errorf("spreadsheet: invalid column %q: %w", label, err)
	}
	return n - 1, nil
}
