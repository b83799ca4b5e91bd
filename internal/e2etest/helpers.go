package e2etest

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// TableRows returns the trimmed cell texts of each body row of the first table in sel.
func TableRows(sel *goquery.Selection) [][]string {
	var rows [][]string
	sel.Find("table").First().Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(td.Text()))
		})
		rows = append(rows, cells)
	})
	return rows
}

// Text returns the trimmed text of the elements matching selector.
func Text(doc *goquery.Document, selector string) string {
	return strings.TrimSpace(doc.Find(selector).Text())
}
