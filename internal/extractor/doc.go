// Package extractor finds the titled sections of a remittance report and reads
// the table that follows each section heading.
//
// A heading is any text node matching SectionPattern ("Paid Records",
// "Refused Records", "In Hold Records", case-insensitive). The document is
// flattened into an ordered list of heading and table markers, and every
// heading is paired with the first table that starts after the element
// containing the heading text. Two headings in front of the same table both
// claim it.
//
// Typical use:
//
//	sets, err := extractor.ExtractHTML(strings.NewReader(page))
//	if err != nil {
//	    return err
//	}
//	table := extractor.Concatenate(sets)
package extractor
