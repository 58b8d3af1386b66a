package extractor

import (
	"strconv"

	"remitcli/pkg/contracts/domain"
)

// Concatenate aligns row sets by header label into a single table. Columns
// appear in order of first appearance with Record_Type after the first set's
// labels. Cells past the header count are labelled by their position, and a
// repeated label gets a ".N" suffix.
func Concatenate(sets []domain.RowSet) domain.Table {
	t := domain.Table{
		Columns: make([]string, 0),
		Rows:    make([]domain.Row, 0),
	}
	seen := make(map[string]bool)
	addColumn := func(label string) {
		if !seen[label] {
			seen[label] = true
			t.Columns = append(t.Columns, label)
		}
	}

	for _, set := range sets {
		labels := columnLabels(set)
		for _, l := range labels {
			addColumn(l)
		}
		addColumn(domain.RecordTypeColumn)

		for _, cells := range set.Rows {
			row := make(domain.Row, len(cells)+1)
			for i, cell := range cells {
				row[labels[i]] = cell
			}
			row[domain.RecordTypeColumn] = string(set.RecordType)
			t.Rows = append(t.Rows, row)
		}
	}
	return t
}

// columnLabels returns one label per column of the widest row in set.
func columnLabels(set domain.RowSet) []string {
	width := len(set.Headers)
	for _, r := range set.Rows {
		if len(r) > width {
			width = len(r)
		}
	}

	labels := make([]string, width)
	used := make(map[string]int, width)
	for i := 0; i < width; i++ {
		label := strconv.Itoa(i)
		if i < len(set.Headers) && set.Headers[i] != "" {
			label = set.Headers[i]
		}
		if n, dup := used[label]; dup {
			used[label] = n + 1
			label = label + "." + strconv.Itoa(n+1)
		} else {
			used[label] = 0
		}
		labels[i] = label
	}
	return labels
}
