package domain

// RecordType is the category of a remittance section, taken from its heading.
type RecordType string

const (
	RecordTypePaid    RecordType = "Paid"
	RecordTypeRefused RecordType = "Refused"
	RecordTypeInHold  RecordType = "In Hold"
)

// RecordTypeColumn is the column label that carries the section tag in a
// concatenated table and in the canonical schema.
const RecordTypeColumn = "Record_Type"

// RawTable is a table element read out of a report: its header labels
// (possibly none) and the text of every kept body row. Rows may be ragged.
type RawTable struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// RowSet is a RawTable claimed by one section heading.
type RowSet struct {
	Headers    []string   `json:"headers"`
	Rows       [][]string `json:"rows" validate:"required"`
	RecordType RecordType `json:"record_type" validate:"required"`
}

// Row is one record of a Table keyed by column label. A label that is not
// present in the map is an absent value, which is distinct from "".
type Row map[string]string

// Get returns the value stored under label and whether it was present.
func (r Row) Get(label string) (string, bool) {
	v, ok := r[label]
	return v, ok
}

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Table is the column-aligned union of all row sets extracted from a report,
// and also the in-memory shape of a spreadsheet read back from storage.
type Table struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Len returns the number of rows.
func (t Table) Len() int {
	return len(t.Rows)
}

// HasColumn reports whether label is one of the table's columns.
func (t Table) HasColumn(label string) bool {
	for _, c := range t.Columns {
		if c == label {
			return true
		}
	}
	return false
}

// Matrix renders the table as a header row followed by cell text, with
// absent values written as empty strings.
func (t Table) Matrix() [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	out = append(out, append([]string(nil), t.Columns...))
	for _, row := range t.Rows {
		line := make([]string, len(t.Columns))
		for i, col := range t.Columns {
			line[i] = row[col]
		}
		out = append(out, line)
	}
	return out
}
