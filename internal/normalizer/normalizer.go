package normalizer

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	apperrors "remitcli/internal/errors"
	"remitcli/pkg/contracts/domain"
)

// columnMap maps report column labels to canonical names. Canonical names map
// to themselves so already-normalized input passes through unchanged.
var columnMap = map[string]string{
	"SEQ NUMBER":          domain.ColumnSeqNumber,
	"SERVICE DATE":        domain.ColumnServiceDate,
	"PRACTITIONER NUMBER": domain.ColumnPractitionerNumber,
	"PHN":                 domain.ColumnPHN,
	"FEE ITEM":            domain.ColumnFeeItem,
	"SHADOW BILL":         domain.ColumnShadowBill,
	"OUT OF PROVINCE":     domain.ColumnOutOfProvince,
	"BILLED":              domain.ColumnBilled,
	"ADJUST":              domain.ColumnAdjust,
	"PAID":                domain.ColumnPaid,
	"Record_Type":         domain.RecordTypeColumn,
	"Comments":            domain.ColumnComments,

	domain.ColumnSeqNumber:          domain.ColumnSeqNumber,
	domain.ColumnServiceDate:        domain.ColumnServiceDate,
	domain.ColumnPractitionerNumber: domain.ColumnPractitionerNumber,
	domain.ColumnFeeItem:            domain.ColumnFeeItem,
	domain.ColumnShadowBill:         domain.ColumnShadowBill,
	domain.ColumnOutOfProvince:      domain.ColumnOutOfProvince,
	domain.ColumnBilled:             domain.ColumnBilled,
	domain.ColumnAdjust:             domain.ColumnAdjust,
	domain.ColumnPaid:               domain.ColumnPaid,
}

// footnoteMarker matches one or more leading "[12]" or "[1.2]" references.
var footnoteMarker = regexp.MustCompile(`^(\s*\[\d+(\.\d+)?\]\s*)+`)

var currencyStripper = strings.NewReplacer("$", "", ",", "")

// Stats describes what a normalization pass did.
type Stats struct {
	InputRows         int
	Records           int
	ContinuationsUsed int
	OrphansDropped    int
	DefaultedComments int
}

// Normalize repairs continuation rows, fills and cleans Comments, renames
// columns to the canonical schema and coerces currency fields. It does not
// modify t. A currency value that cannot be parsed fails the whole call.
func Normalize(t domain.Table) ([]domain.CanonicalRecord, error) {
	records, _, err := NormalizeWithStats(t)
	return records, err
}

// NormalizeWithStats is Normalize that also reports counts.
func NormalizeWithStats(t domain.Table) ([]domain.CanonicalRecord, Stats, error) {
	stats := Stats{InputRows: len(t.Rows)}

	rows, repair := repairContinuations(t)
	stats.ContinuationsUsed = repair.folded
	stats.OrphansDropped = repair.orphans

	sources := sourceColumns(t.Columns)
	records := make([]domain.CanonicalRecord, 0, len(rows))
	for i, row := range rows {
		comment, defaulted := CleanComment(row.Get(domain.ColumnComments))
		if defaulted {
			stats.DefaultedComments++
		}

		rec, err := toCanonical(i, row, sources)
		if err != nil {
			return nil, stats, err
		}
		rec.Comments = comment
		records = append(records, rec)
	}
	stats.Records = len(records)
	return records, stats, nil
}

type repairCounts struct {
	folded  int
	orphans int
}

// RepairContinuations folds every continuation row into the primary record
// before it. A row is primary when its first column is all decimal digits;
// otherwise its first-column text replaces the Comments of the pending
// primary and the row itself is dropped. Continuations with no primary
// before them are dropped.
func RepairContinuations(t domain.Table) []domain.Row {
	rows, _ := repairContinuations(t)
	return rows
}

func repairContinuations(t domain.Table) ([]domain.Row, repairCounts) {
	var counts repairCounts
	out := make([]domain.Row, 0, len(t.Rows))
	if len(t.Columns) == 0 {
		return out, counts
	}
	lead := t.Columns[0]

	var pending domain.Row
	for _, row := range t.Rows {
		text := row[lead]
		if IsPrimary(text) {
			if pending != nil {
				out = append(out, pending)
			}
			pending = row.Clone()
			continue
		}
		if pending == nil {
			counts.orphans++
			continue
		}
		pending[domain.ColumnComments] = text
		counts.folded++
	}
	if pending != nil {
		out = append(out, pending)
	}
	return out, counts
}

// IsPrimary reports whether s is a non-empty run of decimal digits.
func IsPrimary(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// CleanComment strips leading footnote markers and substitutes the default
// comment for an absent, "nan" or empty value. The bool result reports
// whether the default was used.
func CleanComment(v string, present bool) (string, bool) {
	if !present || v == "nan" {
		return domain.DefaultComment, true
	}
	v = strings.TrimSpace(footnoteMarker.ReplaceAllString(v, ""))
	if v == "" {
		return domain.DefaultComment, true
	}
	return v, false
}

// ParseCurrency removes "$" and "," from s and parses the rest as a decimal.
// An empty value is zero.
func ParseCurrency(s string) (decimal.Decimal, error) {
	cleaned := currencyStripper.Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(cleaned)
}

// sourceColumns picks, for each canonical column, the first table column that
// maps to it. Unmapped columns are not returned.
func sourceColumns(columns []string) map[string]string {
	sources := make(map[string]string, len(domain.CanonicalColumns))
	for _, col := range columns {
		canon, ok := columnMap[col]
		if !ok {
			continue
		}
		if _, taken := sources[canon]; !taken {
			sources[canon] = col
		}
	}
	// Comments may only exist on repaired rows.
	if _, ok := sources[domain.ColumnComments]; !ok {
		sources[domain.ColumnComments] = domain.ColumnComments
	}
	return sources
}

func toCanonical(index int, row domain.Row, sources map[string]string) (domain.CanonicalRecord, error) {
	value := func(canon string) string {
		src, ok := sources[canon]
		if !ok {
			return ""
		}
		return row[src]
	}

	rec := domain.CanonicalRecord{
		SeqNumber:          value(domain.ColumnSeqNumber),
		ServiceDate:        value(domain.ColumnServiceDate),
		PractitionerNumber: value(domain.ColumnPractitionerNumber),
		PHN:                value(domain.ColumnPHN),
		FeeItem:            value(domain.ColumnFeeItem),
		ShadowBill:         value(domain.ColumnShadowBill),
		OutOfProvince:      value(domain.ColumnOutOfProvince),
		RecordType:         value(domain.RecordTypeColumn),
	}

	amounts := map[string]*decimal.Decimal{
		domain.ColumnBilled: &rec.Billed,
		domain.ColumnAdjust: &rec.Adjust,
		domain.ColumnPaid:   &rec.Paid,
	}
	for _, col := range domain.CurrencyColumns {
		raw := value(col)
		d, err := ParseCurrency(raw)
		if err != nil {
			return domain.CanonicalRecord{}, apperrors.NewSchemaCoercionError(index, col, raw, err)
		}
		*amounts[col] = d
	}
	return rec, nil
}

// ToTable renders canonical records as a table with the canonical columns.
func ToTable(records []domain.CanonicalRecord) domain.Table {
	t := domain.Table{
		Columns: append([]string(nil), domain.CanonicalColumns...),
		Rows:    make([]domain.Row, 0, len(records)),
	}
	for _, rec := range records {
		row := make(domain.Row, len(domain.CanonicalColumns))
		for _, col := range domain.CanonicalColumns {
			row[col] = rec.Text(col)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}
