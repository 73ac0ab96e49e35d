package services

import (
	domain "github.com/forsage-shop/pos/internal/domain"
	"github.com/forsage-shop/pos/internal/platform/textutil"
)

// MergeStats counts what a merge did.
type MergeStats struct {
	Updated int
	Added   int
}

// MergeImportedProducts reconciles imported rows into the catalog by product code.
// A row whose non-blank code matches an existing product overwrites that product's
// fields and keeps its id. Every other row is appended with a fresh id. Blank codes
// never match, so rows without a code always append. The input catalog is not modified.
func MergeImportedProducts(existing, imported []Product, newID func() string) ([]Product, MergeStats) {
	merged := append(make([]Product, 0, len(existing)+len(imported)), existing...)
	index := make(map[string]int, len(existing))
	for i, p := range merged {
		if p.HasCode() {
			if _, dup := index[p.Code]; !dup {
				index[p.Code] = i
			}
		}
	}

	var stats MergeStats
	for _, row := range imported {
		if row.HasCode() {
			if i, ok := index[row.Code]; ok {
				row.ID = merged[i].ID
				merged[i] = row
				stats.Updated++
				continue
			}
		}
		row.ID = newID()
		merged = append(merged, row)
		if row.HasCode() {
			index[row.Code] = len(merged) - 1
		}
		stats.Added++
	}
	return merged, stats
}

// ApplyBulkMarkup returns updated copies of the selected products with a new sell
// price. MarkupOnBuy prices from the buy price and MarkupChangeCurrent shifts the
// current sell price. Results are rounded half up to whole units. Products not in the
// selection are not returned.
func ApplyBulkMarkup(catalog []Product, selected []string, percent float64, mode MarkupMode) []Product {
	want := make(map[string]struct{}, len(selected))
	for _, id := range selected {
		want[id] = struct{}{}
	}
	out := make([]Product, 0, len(selected))
	for _, p := range catalog {
		if _, ok := want[p.ID]; !ok {
			continue
		}
		base := p.SellPrice
		if mode == domain.MarkupOnBuy {
			base = p.BuyPrice
		}
		p.SellPrice = textutil.RoundHalfUp(base + base*(percent/100))
		out = append(out, p)
	}
	return out
}

// MergeByID replaces catalog entries with updates sharing the same id, keeping order.
func MergeByID(catalog, updates []Product) []Product {
	byID := make(map[string]Product, len(updates))
	for _, u := range updates {
		byID[u.ID] = u
	}
	out := make([]Product, len(catalog))
	for i, p := range catalog {
		if u, ok := byID[p.ID]; ok {
			out[i] = u
			continue
		}
		out[i] = p
	}
	return out
}

// AutoRegisterFromOrder appends order items whose name is not yet in the catalog. Names
// match exactly, and the check runs against the growing list so an item repeated in one
// order registers once. New entries copy the item's snapshot fields including its id.
func AutoRegisterFromOrder(catalog []Product, items []OrderItem) ([]Product, []Product) {
	known := make(map[string]struct{}, len(catalog))
	for _, p := range catalog {
		known[p.Name] = struct{}{}
	}
	out := append(make([]Product, 0, len(catalog)+len(items)), catalog...)
	var added []Product
	for _, item := range items {
		if _, ok := known[item.Name]; ok {
			continue
		}
		p := item.Product
		out = append(out, p)
		added = append(added, p)
		known[p.Name] = struct{}{}
	}
	return out, added
}
