package domain

import (
	"github.com/shopspring/decimal"
)

// Canonical column labels.
const (
	ColumnSeqNumber          = "SeqNumber"
	ColumnServiceDate        = "ServiceDate"
	ColumnPractitionerNumber = "PractitionerNumber"
	ColumnPHN                = "PHN"
	ColumnFeeItem            = "FeeItem"
	ColumnShadowBill         = "ShadowBill"
	ColumnOutOfProvince      = "OutOfProvince"
	ColumnBilled             = "Billed"
	ColumnAdjust             = "Adjust"
	ColumnPaid               = "Paid"
	ColumnComments           = "Comments"
)

// DefaultComment is written into Comments when a record has none.
const DefaultComment = "Not Assigned"

// CanonicalColumns is the fixed field order of a normalized record.
var CanonicalColumns = []string{
	ColumnSeqNumber,
	ColumnServiceDate,
	ColumnPractitionerNumber,
	ColumnPHN,
	ColumnFeeItem,
	ColumnShadowBill,
	ColumnOutOfProvince,
	ColumnBilled,
	ColumnAdjust,
	ColumnPaid,
	RecordTypeColumn,
	ColumnComments,
}

// CurrencyColumns are coerced to numbers during normalization.
var CurrencyColumns = []string{ColumnBilled, ColumnAdjust, ColumnPaid}

// CanonicalRecord is one billing line after continuation repair, renaming and
// currency coercion.
type CanonicalRecord struct {
	SeqNumber          string          `json:"seq_number" validate:"required,numeric"`
	ServiceDate        string          `json:"service_date"`
	PractitionerNumber string          `json:"practitioner_number"`
	PHN                string          `json:"phn"`
	FeeItem            string          `json:"fee_item"`
	ShadowBill         string          `json:"shadow_bill"`
	OutOfProvince      string          `json:"out_of_province"`
	Billed             decimal.Decimal `json:"billed"`
	Adjust             decimal.Decimal `json:"adjust"`
	Paid               decimal.Decimal `json:"paid"`
	RecordType         string          `json:"record_type"`
	Comments           string          `json:"comments" validate:"required"`
}

// Text returns the record's value for a canonical column as cell text.
func (r CanonicalRecord) Text(column string) string {
	switch column {
	case ColumnSeqNumber:
		return r.SeqNumber
	case ColumnServiceDate:
		return r.ServiceDate
	case ColumnPractitionerNumber:
		return r.PractitionerNumber
	case ColumnPHN:
		return r.PHN
	case ColumnFeeItem:
		return r.FeeItem
	case ColumnShadowBill:
		return r.ShadowBill
	case ColumnOutOfProvince:
		return r.OutOfProvince
	case ColumnBilled:
		return r.Billed.String()
	case ColumnAdjust:
		return r.Adjust.String()
	case ColumnPaid:
		return r.Paid.String()
	case RecordTypeColumn:
		return r.RecordType
	case ColumnComments:
		return r.Comments
	}
	return ""
}

// IsCurrencyColumn reports whether column holds a coerced amount.
func IsCurrencyColumn(column string) bool {
	for _, c := range CurrencyColumns {
		if c == column {
			return true
		}
	}
	return false
}
