package extractor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"remitcli/pkg/contracts/domain"
)

const remittanceReport = `<!DOCTYPE html>
<html>
<head><title>Remittance Statement</title></head>
<body>
  <h1>Statement for Practitioner 12345</h1>
  <div class="section"><h3>Paid Records</h3></div>
  <table>
    <thead>
      <tr><th>SEQ NUMBER</th><th>SERVICE DATE</th><th>PAID</th></tr>
    </thead>
    <tbody>
      <tr><td>1</td><td>2024-01-01</td><td>$1,234.50</td></tr>
      <tr><td>2</td><td>2024-01-02</td><td>$10.00</td></tr>
      <tr><td>[12] Adjusted for age</td></tr>
    </tbody>
  </table>
  <h3>REFUSED RECORDS</h3>
  <p>Nothing to see here</p>
  <table>
    <tr><th>SEQ NUMBER</th><th>SERVICE DATE</th><th>PAID</th></tr>
    <tr><td>7</td><td>2024-02-01</td><td>$0.00</td></tr>
  </table>
  <h3>In Hold Records</h3>
  <table>
    <tr><th>SEQ NUMBER</th><th>SERVICE DATE</th></tr>
    <tr><td>9</td><td>2024-03-01</td></tr>
  </table>
</body>
</html>`

func extract(t *testing.T, page string) []domain.RowSet {
	t.Helper()
	sets, err := ExtractHTML(strings.NewReader(page))
	require.NoError(t, err)
	return sets
}

func TestExtract_PaidSection(t *testing.T) {
	page := `<h2>Paid Records</h2>
<table>
  <tr><th>SEQ NUMBER</th><th>SERVICE DATE</th><th>NOTE</th></tr>
  <tr><td>1</td><td>2024-01-01</td><td>X</td></tr>
  <tr><td>2</td><td>2024-01-02</td><td>Y</td></tr>
</table>`

	sets := extract(t, page)

	require.Len(t, sets, 1)
	assert.Equal(t, domain.RecordTypePaid, sets[0].RecordType)
	assert.Equal(t, []string{"SEQ NUMBER", "SERVICE DATE", "NOTE"}, sets[0].Headers)
	assert.Equal(t, [][]string{
		{"1", "2024-01-01", "X"},
		{"2", "2024-01-02", "Y"},
	}, sets[0].Rows)
}

func TestExtract_AllSectionsInOrder(t *testing.T) {
	sets := extract(t, remittanceReport)

	require.Len(t, sets, 3)
	assert.Equal(t, domain.RecordTypePaid, sets[0].RecordType)
	assert.Equal(t, domain.RecordTypeRefused, sets[1].RecordType)
	assert.Equal(t, domain.RecordTypeInHold, sets[2].RecordType)

	assert.Len(t, sets[0].Rows, 3)
	assert.Equal(t, []string{"[12] Adjusted for age"}, sets[0].Rows[2])
	assert.Equal(t, [][]string{{"7", "2024-02-01", "$0.00"}}, sets[1].Rows)
	assert.Equal(t, [][]string{{"9", "2024-03-01"}}, sets[2].Rows)
}

func TestExtract_NoSections(t *testing.T) {
	tests := []struct {
		name string
		page string
	}{
		{
			name: "no heading",
			page: `<h2>Summary</h2><table><tr><td>1</td></tr></table>`,
		},
		{
			name: "heading without following table",
			page: `<table><tr><td>1</td></tr></table><h2>Paid Records</h2>`,
		},
		{
			name: "heading followed by empty table",
			page: `<h2>Paid Records</h2><table><tr><th>SEQ NUMBER</th></tr><tr><td> </td></tr></table>`,
		},
		{
			name: "heading text inside script",
			page: `<script>var t = "Paid Records";</script><table><tr><td>1</td></tr></table>`,
		},
		{
			name: "empty document",
			page: ``,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sets := extract(t, tt.page)
			assert.NotNil(t, sets)
			assert.Empty(t, sets)
		})
	}
}

func TestExtract_CaseInsensitiveTag(t *testing.T) {
	tests := []struct {
		heading string
		want    domain.RecordType
	}{
		{heading: "PAID RECORDS", want: domain.RecordTypePaid},
		{heading: "refused records", want: domain.RecordTypeRefused},
		{heading: "In Hold Records", want: domain.RecordTypeInHold},
		{heading: "IN   HOLD  records", want: domain.RecordTypeInHold},
		{heading: "Summary of Paid Records for May", want: domain.RecordTypePaid},
	}

	for _, tt := range tests {
		t.Run(tt.heading, func(t *testing.T) {
			page := "<p>" + tt.heading + "</p><table><tr><td>1</td></tr></table>"
			sets := extract(t, page)
			require.Len(t, sets, 1)
			assert.Equal(t, tt.want, sets[0].RecordType)
		})
	}
}

func TestExtract_FirstFollowingTableOnly(t *testing.T) {
	page := `<h2>Paid Records</h2>
<table><tr><td>1</td></tr></table>
<table><tr><td>2</td></tr></table>`

	sets := extract(t, page)

	require.Len(t, sets, 1)
	assert.Equal(t, [][]string{{"1"}}, sets[0].Rows)
}

func TestExtract_SharedTableIsDuplicated(t *testing.T) {
	page := `<h2>Paid Records</h2>
<h2>Refused Records</h2>
<table><tr><td>1</td></tr></table>`

	sets := extract(t, page)

	require.Len(t, sets, 2)
	assert.Equal(t, domain.RecordTypePaid, sets[0].RecordType)
	assert.Equal(t, domain.RecordTypeRefused, sets[1].RecordType)
	assert.Equal(t, sets[0].Rows, sets[1].Rows)
}

func TestExtract_TableRelativeToContainingElement(t *testing.T) {
	t.Run("table nested after heading text", func(t *testing.T) {
		page := `<div>Paid Records<table><tr><td>inner</td></tr></table></div>`
		sets := extract(t, page)
		require.Len(t, sets, 1)
		assert.Equal(t, [][]string{{"inner"}}, sets[0].Rows)
	})

	t.Run("earlier sibling table is not claimed", func(t *testing.T) {
		page := `<div><table><tr><td>before</td></tr></table><p>Paid Records</p><table><tr><td>after</td></tr></table></div>`
		sets := extract(t, page)
		require.Len(t, sets, 1)
		assert.Equal(t, [][]string{{"after"}}, sets[0].Rows)
	})

	t.Run("heading in caption skips enclosing table", func(t *testing.T) {
		page := `<table><caption>Paid Records</caption><tr><td>own</td></tr></table><table><tr><td>next</td></tr></table>`
		sets := extract(t, page)
		require.Len(t, sets, 1)
		assert.Equal(t, [][]string{{"next"}}, sets[0].Rows)
	})
}

func TestReadTable(t *testing.T) {
	page := `<table>
  <tr><th>SEQ NUMBER</th><th> SERVICE
      DATE </th></tr>
  <tr><td>1</td><td>2024-01-01</td><td>extra</td></tr>
  <tr><td></td><td>  </td></tr>
  <tr><td>[3] see <b>note</b></td></tr>
</table>`
	doc, err := html.Parse(strings.NewReader(page))
	require.NoError(t, err)
	tables := findAll(doc, "table")
	require.Len(t, tables, 1)

	raw := ReadTable(tables[0])

	assert.Equal(t, []string{"SEQ NUMBER", "SERVICE DATE"}, raw.Headers)
	assert.Equal(t, [][]string{
		{"1", "2024-01-01", "extra"},
		{"[3] see note"},
	}, raw.Rows)
}

func TestNormalizeRecordType(t *testing.T) {
	assert.Equal(t, domain.RecordTypePaid, NormalizeRecordType("pAID"))
	assert.Equal(t, domain.RecordTypeInHold, NormalizeRecordType("in \t hold"))
	assert.Equal(t, domain.RecordType("In Hold"), NormalizeRecordType("IN HOLD"))
	assert.Equal(t, domain.RecordTypeRefused, NormalizeRecordType("REFUSED"))
}

func TestFlatten_MarkersInDocumentOrder(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(remittanceReport))
	require.NoError(t, err)

	a := flatten(doc)

	require.Len(t, a.headings, 3)
	require.Len(t, a.tables, 3)
	for i := 1; i < len(a.tables); i++ {
		assert.Less(t, a.tables[i-1].index, a.tables[i].index)
	}
	for i, h := range a.headings {
		table, ok := a.nextTable(h.anchor)
		require.True(t, ok)
		assert.Equal(t, a.tables[i].index, table.index)
	}
}
