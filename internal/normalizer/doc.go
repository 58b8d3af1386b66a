// Package normalizer turns the concatenated remittance table into canonical
// records.
//
// Normalization runs in a fixed order: continuation rows (rows whose first
// column is not a sequence number) are folded into the Comments of the
// preceding record, Comments are defaulted to "Not Assigned" and stripped of
// leading footnote markers, columns are renamed to the canonical schema and
// the Billed, Adjust and Paid amounts are parsed as decimals. The pass is
// pure and idempotent over its own output.
package normalizer
