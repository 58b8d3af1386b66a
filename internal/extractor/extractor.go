package extractor

import (
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"remitcli/pkg/contracts/domain"
)

// SectionPattern matches a section heading and captures its record type.
var SectionPattern = regexp.MustCompile(`(?i)(Paid|Refused|In\s+Hold)\s+Records`)

var titleCaser = cases.Title(language.Und)

type markerKind int

const (
	markerHeading markerKind = iota
	markerTable
)

// marker is one entry of the flattened document. index is the preorder
// position of the node; for headings anchor is the position of the element
// that contains the matching text.
type marker struct {
	kind   markerKind
	index  int
	anchor int
	tag    domain.RecordType
	node   *html.Node
}

// arena is the document flattened into heading and table markers, each list
// in document order.
type arena struct {
	headings []marker
	tables   []marker
}

// ExtractHTML parses r as HTML and extracts its sections.
func ExtractHTML(r io.Reader) ([]domain.RowSet, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return Extract(doc), nil
}

// Extract returns one RowSet per section heading that has a following table,
// in heading order. A document without sections yields an empty slice.
func Extract(doc *html.Node) []domain.RowSet {
	a := flatten(doc)
	sets := make([]domain.RowSet, 0, len(a.headings))
	for _, h := range a.headings {
		t, ok := a.nextTable(h.anchor)
		if !ok {
			continue
		}
		raw := ReadTable(t.node)
		if len(raw.Rows) == 0 {
			continue
		}
		sets = append(sets, domain.RowSet{
			Headers:    raw.Headers,
			Rows:       raw.Rows,
			RecordType: h.tag,
		})
	}
	return sets
}

// nextTable returns the first table that starts after position anchor.
func (a arena) nextTable(anchor int) (marker, bool) {
	i := sort.Search(len(a.tables), func(i int) bool {
		return a.tables[i].index > anchor
	})
	if i == len(a.tables) {
		return marker{}, false
	}
	return a.tables[i], true
}

func flatten(doc *html.Node) arena {
	var a arena
	pos := 0
	index := make(map[*html.Node]int)

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		index[n] = pos
		pos++

		switch n.Type {
		case html.ElementNode:
			if shouldSkipElement(n.Data) {
				return
			}
			if n.Data == "table" {
				a.tables = append(a.tables, marker{kind: markerTable, index: index[n], node: n})
			}
		case html.TextNode:
			if tag, ok := matchHeading(n.Data); ok && n.Parent != nil {
				a.headings = append(a.headings, marker{
					kind:   markerHeading,
					index:  index[n],
					anchor: index[n.Parent],
					tag:    tag,
				})
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	if doc != nil {
		walk(doc)
	}
	return a
}

// matchHeading reports whether text names a section and returns its tag.
func matchHeading(text string) (domain.RecordType, bool) {
	m := SectionPattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return NormalizeRecordType(m[1]), true
}

// NormalizeRecordType title-cases a captured record type and collapses its
// internal whitespace, so "IN  HOLD" becomes "In Hold". Every word is
// capitalized: sentence-style capitalization would give "In hold", which is
// not one of the RecordType values.
func NormalizeRecordType(s string) domain.RecordType {
	return domain.RecordType(titleCaser.String(strings.Join(strings.Fields(s), " ")))
}

// ReadTable reads header labels from every th of the table and the td text
// of every tr. Rows without a non-empty cell are dropped.
func ReadTable(table *html.Node) domain.RawTable {
	raw := domain.RawTable{
		Headers: make([]string, 0),
		Rows:    make([][]string, 0),
	}
	for _, th := range findAll(table, "th") {
		raw.Headers = append(raw.Headers, getTextContent(th))
	}
	for _, tr := range findAll(table, "tr") {
		cells := make([]string, 0)
		for _, td := range findAll(tr, "td") {
			cells = append(cells, getTextContent(td))
		}
		if hasContent(cells) {
			raw.Rows = append(raw.Rows, cells)
		}
	}
	return raw
}

func hasContent(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return true
		}
	}
	return false
}

// findAll returns the descendants of n with the given tag in document order.
func findAll(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	var dfs func(*html.Node)
	dfs = func(cur *html.Node) {
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.Data == tag {
				out = append(out, c)
			}
			dfs(c)
		}
	}
	dfs(n)
	return out
}

// shouldSkipElement returns true if text under the element is never report content.
func shouldSkipElement(tagName string) bool {
	switch tagName {
	case "script", "style", "noscript", "template":
		return true
	}
	return false
}

// getTextContent returns the text of n and its descendants with runs of
// whitespace collapsed to one space.
func getTextContent(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(cur *html.Node) {
		switch cur.Type {
		case html.TextNode:
			b.WriteString(cur.Data)
		case html.ElementNode:
			if shouldSkipElement(cur.Data) {
				return
			}
			if cur.Data == "br" {
				b.WriteString(" ")
			}
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
