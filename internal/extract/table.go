package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Pair is one label/value row of a specification table.
// Section is the text of the closest preceding single-cell heading row.
type Pair struct {
	Section string
	Label   string
	Value   string
}

// Table collects label/value pairs from tr rows and dt/dd lists in document
// order.
func Table(doc *goquery.Document) []Pair {
	var pairs []Pair

	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		section := ""
		rows := table.Find("tr").FilterFunction(func(_ int, row *goquery.Selection) bool {
			return row.Closest("table").IsSelection(table)
		})
		rows.Each(func(_ int, row *goquery.Selection) {
			cells := row.ChildrenFiltered("td,th")
			switch cells.Length() {
			case 0:
				return
			case 1:
				section = cleanText(cells.First().Text())
				return
			}
			label := cleanLabel(cells.Eq(0).Text())
			value := cleanText(cells.Eq(1).Text())
			if label == "" || value == "" {
				return
			}
			pairs = append(pairs, Pair{Section: section, Label: label, Value: value})
		})
	})

	doc.Find("dl").Each(func(_ int, dl *goquery.Selection) {
		dl.Find("dt").Each(func(_ int, dt *goquery.Selection) {
			dd := dt.NextFiltered("dd")
			if dd.Length() == 0 {
				return
			}
			label := cleanLabel(dt.Text())
			value := cleanText(dd.Text())
			if label == "" || value == "" {
				return
			}
			pairs = append(pairs, Pair{Label: label, Value: value})
		})
	})

	return pairs
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func cleanLabel(s string) string {
	return strings.TrimRight(cleanText(s), ": ")
}

// normLabel lowercases a label and replaces punctuation with spaces so that
// phrases can be matched on word boundaries.
func normLabel(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func hasPhrase(label, phrase string) bool {
	return strings.Contains(" "+label+" ", " "+phrase+" ")
}

func hasAny(label string, phrases ...string) bool {
	for _, p := range phrases {
		if hasPhrase(label, p) {
			return true
		}
	}
	return false
}
