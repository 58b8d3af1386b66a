package spreadsheet

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "remitcli/internal/errors"
	"remitcli/pkg/contracts/domain"
)

func rawTable() domain.Table {
	return domain.Table{
		Columns: []string{"SEQ NUMBER", "PAID", domain.RecordTypeColumn, "5"},
		Rows: []domain.Row{
			{"SEQ NUMBER": "0007", "PAID": "$1,234.50", domain.RecordTypeColumn: "Paid"},
			{"SEQ NUMBER": "[12] Adjusted, for \"age\"", domain.RecordTypeColumn: "Paid", "5": "extra"},
			{"SEQ NUMBER": "9", domain.RecordTypeColumn: "In Hold"},
		},
	}
}

func canonicalTable() domain.Table {
	return domain.Table{
		Columns: domain.CanonicalColumns,
		Rows: []domain.Row{
			{
				domain.ColumnSeqNumber: "1", domain.ColumnServiceDate: "2024-01-01",
				domain.ColumnPractitionerNumber: "12345", domain.ColumnPHN: "9876543210",
				domain.ColumnFeeItem: "00100", domain.ColumnShadowBill: "N", domain.ColumnOutOfProvince: "N",
				domain.ColumnBilled: "1234.5", domain.ColumnAdjust: "0", domain.ColumnPaid: "-12.75",
				domain.RecordTypeColumn: "Paid", domain.ColumnComments: domain.DefaultComment,
			},
			{
				domain.ColumnSeqNumber: "2", domain.ColumnBilled: "1234.50", domain.ColumnAdjust: "0.1",
				domain.ColumnPaid: "99999999.99", domain.RecordTypeColumn: "Refused", domain.ColumnComments: "See note",
			},
		},
	}
}

func roundTrip(t *testing.T, table domain.Table, f Format) domain.Table {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, table, f))
	got, err := Decode(&buf, f)
	require.NoError(t, err)
	return got
}

func TestRoundTrip(t *testing.T) {
	tables := map[string]domain.Table{
		"raw":       rawTable(),
		"canonical": canonicalTable(),
	}

	for _, f := range []Format{FormatXLSX, FormatCSV} {
		for name, table := range tables {
			t.Run(string(f)+"/"+name, func(t *testing.T) {
				got := roundTrip(t, table, f)

				assert.Equal(t, table.Columns, got.Columns)
				assert.Equal(t, table.Matrix(), got.Matrix())
			})
		}
	}
}

func TestRoundTrip_AbsentStaysAbsent(t *testing.T) {
	for _, f := range []Format{FormatXLSX, FormatCSV} {
		t.Run(string(f), func(t *testing.T) {
			got := roundTrip(t, rawTable(), f)

			require.Len(t, got.Rows, 3)
			_, ok := got.Rows[0].Get("5")
			assert.False(t, ok)
			_, ok = got.Rows[2].Get("PAID")
			assert.False(t, ok)
			assert.Equal(t, "extra", got.Rows[1]["5"])
		})
	}
}

func TestEncodeXLSX_AmountsStoredAsNumbers(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, canonicalTable(), FormatXLSX))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	billed, err := f.GetCellType(SheetName, "H2")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeSharedString, billed)
	assert.NotEqual(t, excelize.CellTypeInlineString, billed)

	// "1234.50" would not survive as a number, so it is kept as text.
	padded, err := f.GetCellValue(SheetName, "H3", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "1234.50", padded)

	seq, err := f.GetCellValue(SheetName, "A2")
	require.NoError(t, err)
	assert.Equal(t, "1", seq)
}

func TestEncodeCSV_BOMAndQuoting(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, rawTable(), FormatCSV))

	out := buf.Bytes()
	require.True(t, bytes.HasPrefix(out, utf8BOM))
	lines := strings.Split(strings.TrimSpace(string(out[len(utf8BOM):])), "\n")
	assert.Equal(t, "SEQ NUMBER,PAID,Record_Type,5", lines[0])
	assert.Equal(t, `0007,"$1,234.50",Paid,`, lines[1])
}

func TestDecodeCSV_WithoutBOM(t *testing.T) {
	got, err := Decode(strings.NewReader("A,B,A\n1,,3\n4\n"), FormatCSV)

	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "A.1"}, got.Columns)
	assert.Equal(t, []domain.Row{{"A": "1", "A.1": "3"}, {"A": "4"}}, got.Rows)
}

func TestDecode_Empty(t *testing.T) {
	got, err := Decode(strings.NewReader(""), FormatCSV)

	require.NoError(t, err)
	assert.Empty(t, got.Columns)
	assert.Empty(t, got.Rows)
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode(strings.NewReader("not a zip"), FormatXLSX)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrTypeParsing, apperrors.TypeOf(err))

	_, err = Decode(strings.NewReader("a"), Format("ods"))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrTypeValidation, apperrors.TypeOf(err))

	err = Encode(&bytes.Buffer{}, rawTable(), Format("ods"))
	assert.Equal(t, apperrors.ErrTypeValidation, apperrors.TypeOf(err))
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "xlsx", want: FormatXLSX},
		{in: ".XLSX", want: FormatXLSX},
		{in: " csv ", want: FormatCSV},
		{in: "xls", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "."+string(tt.want), got.Extension())
		})
	}
}

func TestNumericCell(t *testing.T) {
	v, ok := numericCell(domain.ColumnPaid, "-12.75")
	assert.True(t, ok)
	assert.Equal(t, -12.75, v)

	_, ok = numericCell(domain.ColumnPaid, "12.50")
	assert.False(t, ok)

	_, ok = numericCell(domain.ColumnSeqNumber, "12")
	assert.False(t, ok)

	_, ok = numericCell("PAID", "12")
	assert.False(t, ok, "report labels are not canonical amount columns")
}
