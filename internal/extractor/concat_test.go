package extractor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remitcli/pkg/contracts/domain"
)

func TestConcatenate(t *testing.T) {
	sets := []domain.RowSet{
		{
			Headers:    []string{"SEQ NUMBER", "PAID"},
			Rows:       [][]string{{"1", "$5.00"}, {"note"}},
			RecordType: domain.RecordTypePaid,
		},
		{
			Headers:    []string{"SEQ NUMBER", "EXPLAIN"},
			Rows:       [][]string{{"2", "AB"}},
			RecordType: domain.RecordTypeRefused,
		},
	}

	table := Concatenate(sets)

	assert.Equal(t, []string{"SEQ NUMBER", "PAID", domain.RecordTypeColumn, "EXPLAIN"}, table.Columns)
	require.Equal(t, 3, table.Len())

	assert.Equal(t, domain.Row{"SEQ NUMBER": "1", "PAID": "$5.00", "Record_Type": "Paid"}, table.Rows[0])

	_, ok := table.Rows[1].Get("PAID")
	assert.False(t, ok, "short row leaves trailing labels absent")
	assert.Equal(t, "note", table.Rows[1]["SEQ NUMBER"])

	_, ok = table.Rows[2].Get("PAID")
	assert.False(t, ok, "label missing from a section stays absent")
	assert.Equal(t, "AB", table.Rows[2]["EXPLAIN"])
	assert.Equal(t, "Refused", table.Rows[2][domain.RecordTypeColumn])
}

func TestConcatenate_Empty(t *testing.T) {
	table := Concatenate(nil)

	assert.Empty(t, table.Columns)
	assert.Equal(t, 0, table.Len())
}

func TestColumnLabels(t *testing.T) {
	tests := []struct {
		name string
		set  domain.RowSet
		want []string
	}{
		{
			name: "headers cover all cells",
			set:  domain.RowSet{Headers: []string{"A", "B"}, Rows: [][]string{{"1", "2"}}},
			want: []string{"A", "B"},
		},
		{
			name: "no headers uses positions",
			set:  domain.RowSet{Rows: [][]string{{"1", "2", "3"}}},
			want: []string{"0", "1", "2"},
		},
		{
			name: "ragged row wider than headers",
			set:  domain.RowSet{Headers: []string{"A"}, Rows: [][]string{{"1"}, {"1", "2"}}},
			want: []string{"A", "1"},
		},
		{
			name: "duplicate and blank headers",
			set:  domain.RowSet{Headers: []string{"A", "A", ""}, Rows: [][]string{{"1", "2", "3"}}},
			want: []string{"A", "A.1", "2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, columnLabels(tt.set))
		})
	}
}

func TestExtractAndConcatenate_OrderPreserved(t *testing.T) {
	sets, err := ExtractHTML(strings.NewReader(remittanceReport))
	require.NoError(t, err)

	table := Concatenate(sets)

	var seq []string
	for _, r := range table.Rows {
		seq = append(seq, r["SEQ NUMBER"]+"/"+r[domain.RecordTypeColumn])
	}
	assert.Equal(t, []string{
		"1/Paid",
		"2/Paid",
		"[12] Adjusted for age/Paid",
		"7/Refused",
		"9/In Hold",
	}, seq)
}
