package services

import (
	"testing"

	domain "github.com/forsage-shop/pos/internal/domain"
)

func TestMergeImportedProducts(t *testing.T) {
	existing := []Product{
		{ID: "p1", Code: "A-1", Name: "Old name", BuyPrice: 10, SellPrice: 20},
		{ID: "p2", Code: "", Name: "No code"},
	}
	imported := []Product{
		{Code: "A-1", Name: "New name", BuyPrice: 11, SellPrice: 22},
		{Code: "", Name: "No code"},
		{Code: "B-2", Name: "Fresh"},
		{Code: "B-2", Name: "Fresh again"},
	}

	merged, stats := MergeImportedProducts(existing, imported, sequentialIDs())

	if stats.Updated != 2 || stats.Added != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if len(merged) != 4 {
		t.Fatalf("expected 4 products, got %d: %+v", len(merged), merged)
	}
	if merged[0].ID != "p1" || merged[0].Name != "New name" || merged[0].SellPrice != 22 {
		t.Fatalf("code match must keep id and overwrite fields, got %+v", merged[0])
	}
	if merged[2].Name != "No code" || merged[2].ID == "p2" {
		t.Fatalf("blank code must append with a fresh id, got %+v", merged[2])
	}
	if merged[3].Name != "Fresh again" || merged[3].ID != "ID002" {
		t.Fatalf("duplicate code inside one import must update the row it added, got %+v", merged[3])
	}
	if existing[0].Name != "Old name" {
		t.Fatalf("input catalog was modified")
	}
}

func TestApplyBulkMarkup(t *testing.T) {
	catalog := []Product{
		{ID: "p1", BuyPrice: 1000, SellPrice: 1500},
		{ID: "p2", BuyPrice: 333, SellPrice: 400},
		{ID: "p3", BuyPrice: 1, SellPrice: 1},
	}

	onBuy := ApplyBulkMarkup(catalog, []string{"p1", "p2"}, 15, domain.MarkupOnBuy)
	if len(onBuy) != 2 {
		t.Fatalf("only selected products are returned, got %d", len(onBuy))
	}
	if onBuy[0].SellPrice != 1150 || onBuy[1].SellPrice != 383 {
		t.Fatalf("unexpected markup on buy %+v", onBuy)
	}
	if onBuy[0].BuyPrice != 1000 {
		t.Fatalf("buy price must not change")
	}

	current := ApplyBulkMarkup(catalog, []string{"p1"}, -10, domain.MarkupChangeCurrent)
	if current[0].SellPrice != 1350 {
		t.Fatalf("expected 1350, got %v", current[0].SellPrice)
	}
	if catalog[0].SellPrice != 1500 {
		t.Fatalf("input catalog was modified")
	}
}

func TestMergeByID(t *testing.T) {
	catalog := []Product{{ID: "a", SellPrice: 1}, {ID: "b", SellPrice: 2}, {ID: "c", SellPrice: 3}}
	out := MergeByID(catalog, []Product{{ID: "b", SellPrice: 20}, {ID: "zz", SellPrice: 99}})
	if len(out) != 3 || out[1].SellPrice != 20 || out[0].SellPrice != 1 || out[2].SellPrice != 3 {
		t.Fatalf("unexpected merge %+v", out)
	}
}

func TestAutoRegisterFromOrder(t *testing.T) {
	catalog := []Product{{ID: "p1", Name: "Oil 5W-30"}}
	items := []OrderItem{
		{Product: Product{ID: "i1", Name: "Oil 5W-30"}, Quantity: 1},
		{Product: Product{ID: "i2", Name: "Wiper", Code: "W1", Brand: "Bosch", BuyPrice: 300, SellPrice: 500}, Quantity: 2},
		{Product: Product{ID: "i3", Name: "Wiper", SellPrice: 900}, Quantity: 1},
		{Product: Product{ID: "i4", Name: "oil 5w-30"}, Quantity: 1},
	}
	out, added := AutoRegisterFromOrder(catalog, items)
	if len(added) != 2 {
		t.Fatalf("expected 2 registrations, got %+v", added)
	}
	if added[0] != (Product{ID: "i2", Name: "Wiper", Code: "W1", Brand: "Bosch", BuyPrice: 300, SellPrice: 500}) {
		t.Fatalf("registered product must copy the first occurrence, got %+v", added[0])
	}
	if added[1].ID != "i4" {
		t.Fatalf("name match is exact, expected different case to register, got %+v", added[1])
	}
	if len(out) != 3 || len(catalog) != 1 {
		t.Fatalf("unexpected catalog sizes %d %d", len(out), len(catalog))
	}
}

func TestExtractProductRows(t *testing.T) {
	grid := [][]string{
		{"Code", "Brand", "Name", "Buy", "Sell"},
		{"A-1", "Bosch", "Brake pads", "1 250,00 руб", ""},
		{"A-2", "", "   ", "10", "20"},
		{"A-3", "NGK", "Spark plug", "abc", "$99"},
		{"A-4"},
		{" A-5 ", "Mann", "Filter", "1.2.3", "7"},
		{"A1", "Bosch", "Filter", "", "0"},
		{"W 712/75", "Mann", "Фильтр <MANN>", "300", ""},
	}
	rows := ExtractProductRows(grid, domain.DefaultColumnMapping())
	if len(rows) != 5 {
		t.Fatalf("expected 5 rows, got %d: %+v", len(rows), rows)
	}
	if rows[0].BuyPrice != 125000 || rows[0].SellPrice != 125000 {
		t.Fatalf("missing sell must take buy, got %+v", rows[0])
	}
	if rows[1].BuyPrice != 0 || rows[1].SellPrice != 99 {
		t.Fatalf("unparsable buy must be 0, got %+v", rows[1])
	}
	if rows[2].Code != "A-5" || rows[2].Name != "Filter" || rows[2].BuyPrice != 1.2 {
		t.Fatalf("unexpected row %+v", rows[2])
	}
	if rows[3].BuyPrice != 0 || rows[3].SellPrice != 0 {
		t.Fatalf("blank buy with zero sell must stay 0/0, got %+v", rows[3])
	}
	if rows[4].Name != "Фильтр <MANN>" || rows[4].Code != "W 712/75" || rows[4].SellPrice != 300 {
		t.Fatalf("names must be kept verbatim, got %+v", rows[4])
	}
	for _, r := range rows {
		if r.ID != "" {
			t.Fatalf("drafts must not carry ids")
		}
	}
}

func TestExtractProductRowsCustomMapping(t *testing.T) {
	name, sell := 0, 1
	grid := [][]string{{"Pads", "500"}, {"Disc", "900"}}
	rows := ExtractProductRows(grid, ColumnMapping{Name: &name, SellPrice: &sell, StartRow: 1})
	if len(rows) != 2 || rows[1].SellPrice != 900 || rows[0].Code != "" {
		t.Fatalf("unexpected rows %+v", rows)
	}
}

func TestColumnLabel(t *testing.T) {
	for index, want := range map[int]string{0: "A", 25: "Z", 26: "AA", 27: "AB", 701: "ZZ", 702: "AAA"} {
		if got := ColumnLabel(index); got != want {
			t.Fatalf("index %d: expected %s, got %s", index, want, got)
		}
	}
}
