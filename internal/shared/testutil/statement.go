package testutil

import (
	"fmt"
	"html"
	"strings"
)

// ReportHeaders is the column layout of a typical statement section.
var ReportHeaders = []string{"SEQ NUMBER", "SERVICE DATE", "PHN", "FEE ITEM", "BILLED", "ADJUST", "PAID"}

// Section is one titled table of a statement page.
type Section struct {
	Heading string
	Headers []string
	Rows    [][]string
}

// PaidSection returns a "Paid Records" section with n numbered rows, each
// billed and paid at $12.50.
func PaidSection(n int) Section {
	s := Section{Heading: "Paid Records", Headers: ReportHeaders}
	for i := 1; i <= n; i++ {
		s.Rows = append(s.Rows, []string{
			fmt.Sprint(i), "2024-01-01", fmt.Sprintf("98765%05d", i), "00100", "$12.50", "$0.00", "$12.50",
		})
	}
	return s
}

// StatementPage renders sections as a statement page, each heading in an h3
// followed by its table.
func StatementPage(sections ...Section) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html><head><title>Remittance Statement</title></head><body>\n")
	for _, s := range sections {
		fmt.Fprintf(&b, "<h3>%s</h3>\n<table>\n", html.EscapeString(s.Heading))
		if len(s.Headers) > 0 {
			b.WriteString("  <tr>")
			for _, h := range s.Headers {
				fmt.Fprintf(&b, "<th>%s</th>", html.EscapeString(h))
			}
			b.WriteString("</tr>\n")
		}
		for _, row := range s.Rows {
			b.WriteString("  <tr>")
			for _, cell := range row {
				fmt.Fprintf(&b, "<td>%s</td>", html.EscapeString(cell))
			}
			b.WriteString("</tr>\n")
		}
		b.WriteString("</table>\n")
	}
	b.WriteString("</body></html>\n")
	return b.String()
}
