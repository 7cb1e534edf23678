package registry

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/echefulouis/drug-verification-system/internal/model"
)

// Column positions on the registry results page. These follow the page's
// markup, not any portable contract.
const (
	colProductName        = 0
	colActiveIngredients  = 1
	colProductCategory    = 2
	colRegistrationNumber = 3
	colStatus             = 9
	minColumns            = 10
)

// parseResultsTable extracts product rows from the results table HTML in page
// order. Rows with fewer than minColumns cells are skipped, not errors.
func parseResultsTable(tableHTML string) ([]model.ProductMatch, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(tableHTML))
	if err != nil {
		return nil, err
	}

	var matches []model.ProductMatch
	doc.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < minColumns {
			return
		}
		matches = append(matches, model.ProductMatch{
			ProductName:        cellText(cells, colProductName),
			ActiveIngredients:  cellText(cells, colActiveIngredients),
			ProductCategory:    cellText(cells, colProductCategory),
			RegistrationNumber: cellText(cells, colRegistrationNumber),
			Status:             cellText(cells, colStatus),
		})
	})
	return matches, nil
}

func cellText(cells *goquery.Selection, i int) string {
	return strings.TrimSpace(cells.Eq(i).Text())
}
