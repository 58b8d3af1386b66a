package spreadsheet

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	apperrors "remitcli/internal/errors"
	"remitcli/pkg/contracts/domain"
)

// Format is a spreadsheet file format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// SheetName is the worksheet written to and read from xlsx files.
const SheetName = "Sheet1"

// ParseFormat accepts "xlsx" or "csv" in any case, with or without a dot.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".")) {
	case FormatXLSX:
		return FormatXLSX, nil
	case FormatCSV:
		return FormatCSV, nil
	}
	return "", apperrors.NewAppValidationError("unsupported spreadsheet format").WithContext("format", s)
}

// Extension returns the file extension for f, including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// Encode writes t to w: the column labels as the first row, then one row per
// record. Absent values become empty cells.
func Encode(w io.Writer, t domain.Table, f Format) error {
	switch f {
	case FormatXLSX:
		return encodeXLSX(w, t)
	case FormatCSV:
		return encodeCSV(w, t)
	}
	return apperrors.NewAppValidationError("unsupported spreadsheet format").WithContext("format", string(f))
}

// Decode reads a table written by Encode, or any sheet whose first row holds
// the column labels. Empty cells are read back as absent values.
func Decode(r io.Reader, f Format) (domain.Table, error) {
	var (
		matrix [][]string
		err    error
	)
	switch f {
	case FormatXLSX:
		matrix, err = decodeXLSX(r)
	case FormatCSV:
		matrix, err = decodeCSV(r)
	default:
		return domain.Table{}, apperrors.NewAppValidationError("unsupported spreadsheet format").WithContext("format", string(f))
	}
	if err != nil {
		return domain.Table{}, apperrors.NewParsingError(fmt.Sprintf("failed to read %s spreadsheet", f), err)
	}
	return fromMatrix(matrix), nil
}

func fromMatrix(matrix [][]string) domain.Table {
	t := domain.Table{Columns: []string{}, Rows: []domain.Row{}}
	if len(matrix) == 0 {
		return t
	}
	t.Columns = uniqueLabels(matrix[0])

	for _, line := range matrix[1:] {
		row := make(domain.Row, len(line))
		for i, cell := range line {
			if i >= len(t.Columns) || cell == "" {
				continue
			}
			row[t.Columns[i]] = cell
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// uniqueLabels suffixes repeated header labels with ".1", ".2", ...
func uniqueLabels(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, label := range header {
		if n, ok := seen[label]; ok {
			seen[label] = n + 1
			label = fmt.Sprintf("%s.%d", label, n+1)
		} else {
			seen[label] = 0
		}
		out[i] = label
	}
	return out
}

// numericCell returns text as a float64 when column holds amounts and the
// number formats back to exactly the same text.
func numericCell(column, text string) (float64, bool) {
	if !domain.IsCurrencyColumn(column) || text == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, false
	}
	if strconv.FormatFloat(v, 'f', -1, 64) != text {
		return 0, false
	}
	return v, true
}
