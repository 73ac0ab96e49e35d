package services

import (
	"strings"

	"github.com/forsage-shop/pos/internal/platform/spreadsheet"
	"github.com/forsage-shop/pos/internal/platform/textutil"
)

// ExtractProductRows maps a cell grid to product drafts. StartRow is 1-based. Prices go
// through loose parsing and fall back to 0. A missing sell price takes the buy price.
// Rows whose name is blank are dropped. Drafts carry no id.
func ExtractProductRows(grid [][]string, mapping ColumnMapping) []Product {
	start := mapping.StartRow - 1
	if start < 0 {
		start = 0
	}
	cell := func(row []string, col *int) string {
		if col == nil || *col < 0 || *col >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[*col])
	}

	var out []Product
	for r := start; r < len(grid); r++ {
		row := grid[r]
		name := textutil.CleanField(cell(row, mapping.Name))
		if name == "" {
			continue
		}
		buy := textutil.ParseLooseNumber(cell(row, mapping.BuyPrice))
		sell := textutil.ParseLooseNumber(cell(row, mapping.SellPrice))
		if sell == 0 && buy > 0 {
			sell = buy
		}
		out = append(out, Product{
			Code:      textutil.CleanField(cell(row, mapping.Code)),
			Brand:     textutil.CleanField(cell(row, mapping.Brand)),
			Name:      name,
			BuyPrice:  buy,
			SellPrice: sell,
		})
	}
	return out
}

// ColumnLabel returns the spreadsheet letter for a zero-based column index.
func ColumnLabel(index int) string {
	return spreadsheet.ColumnLabel(index)
}
