package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	domain "github.com/forsage-shop/pos/internal/domain"
)

func newCatalogFixture(t *testing.T, products ...domain.Product) (CatalogService, *stubCollection[domain.Product], *stubLogger) {
	t.Helper()
	coll := &stubCollection[domain.Product]{items: products}
	logs := &stubLogger{}
	svc, err := NewCatalogService(CatalogServiceDeps{
		Products:    coll,
		IDGenerator: sequentialIDs(),
		Logger:      logs.log,
	})
	if err != nil {
		t.Fatalf("NewCatalogService: %v", err)
	}
	return svc, coll, logs
}

func TestCreateProductPrepends(t *testing.T) {
	svc, coll, _ := newCatalogFixture(t, domain.Product{ID: "prd_old", Name: "Old"})
	product, err := svc.CreateProduct(context.Background(), ProductInput{Name: " Antifreeze ", BuyPrice: 400, SellPrice: 600})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if product.ID != "prd_ID001" || product.Name != "Antifreeze" {
		t.Fatalf("unexpected product %+v", product)
	}
	if coll.items[0].ID != product.ID {
		t.Fatalf("expected new product first, got %+v", coll.items)
	}
	if _, err := svc.CreateProduct(context.Background(), ProductInput{Name: "  "}); !errors.Is(err, ErrCatalogInvalidInput) {
		t.Fatalf("expected invalid input for blank name, got %v", err)
	}
}

func TestUpdateAndDeleteProduct(t *testing.T) {
	svc, coll, _ := newCatalogFixture(t, domain.Product{ID: "p1", Name: "Old", Code: "X"})
	updated, err := svc.UpdateProduct(context.Background(), "p1", ProductInput{Name: "New", SellPrice: 10})
	if err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}
	if updated.ID != "p1" || updated.Code != "" || coll.items[0].Name != "New" {
		t.Fatalf("unexpected update %+v", coll.items[0])
	}
	if _, err := svc.UpdateProduct(context.Background(), "nope", ProductInput{Name: "x"}); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := svc.DeleteProduct(context.Background(), DeleteCommand{ID: "p1"}); !errors.Is(err, ErrConfirmationRequired) {
		t.Fatalf("expected confirmation required, got %v", err)
	}
	if err := svc.DeleteProduct(context.Background(), DeleteCommand{ID: "p1", Confirmed: true}); err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}
	if len(coll.items) != 0 {
		t.Fatalf("expected empty catalog")
	}
}

func TestListProductsSearch(t *testing.T) {
	svc, _, _ := newCatalogFixture(t,
		domain.Product{ID: "1", Name: "Масло моторное", Code: "M-5W30", Brand: "Shell"},
		domain.Product{ID: "2", Name: "Brake pads", Code: "BP-1", Brand: "Brembo"},
	)
	for query, want := range map[string]string{"МАСЛО": "1", "bp-1": "2", "shell": "1", "brem": "2"} {
		got, err := svc.ListProducts(context.Background(), ProductListFilter{Query: query})
		if err != nil {
			t.Fatalf("ListProducts: %v", err)
		}
		if len(got) != 1 || got[0].ID != want {
			t.Fatalf("query %q: unexpected result %+v", query, got)
		}
	}
}

func TestImportSpreadsheetCSV(t *testing.T) {
	svc, coll, logs := newCatalogFixture(t, domain.Product{ID: "p1", Code: "A-1", Name: "Old pads", BuyPrice: 1, SellPrice: 2})
	csv := "Code;Brand;Name;Buy;Sell\nA-1;Bosch;Brake pads;1000;1500\n;;Unnamed code;10;\nB-7;NGK;Spark plug;200;350\n"

	result, err := svc.ImportSpreadsheet(context.Background(), ImportSpreadsheetCommand{
		Filename: "price.csv",
		Content:  strings.NewReader(csv),
		Mapping:  domain.DefaultColumnMapping(),
	})
	if err != nil {
		t.Fatalf("ImportSpreadsheet: %v", err)
	}
	if result.Extracted != 3 || result.Updated != 1 || result.Added != 2 {
		t.Fatalf("unexpected result %+v", result)
	}
	if coll.items[0].ID != "p1" || coll.items[0].Name != "Brake pads" || coll.items[0].SellPrice != 1500 {
		t.Fatalf("code match must update in place, got %+v", coll.items[0])
	}
	if coll.items[1].SellPrice != 10 {
		t.Fatalf("missing sell must take buy, got %+v", coll.items[1])
	}
	if !logs.has("catalog.import.merged") {
		t.Fatalf("expected import log")
	}
}

func TestImportRowsRejectsEmptyExtraction(t *testing.T) {
	svc, coll, _ := newCatalogFixture(t)
	_, err := svc.ImportRows(context.Background(), ImportRowsCommand{Grid: [][]string{{"header"}}, Mapping: domain.DefaultColumnMapping()})
	if !errors.Is(err, ErrCatalogInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if coll.saves != 0 {
		t.Fatalf("nothing may be saved")
	}
}

func TestImportRowsStorageOutage(t *testing.T) {
	svc, coll, _ := newCatalogFixture(t)
	coll.loadErr = unavailableErr()
	_, err := svc.ImportRows(context.Background(), ImportRowsCommand{
		Grid:    [][]string{{"", "", "Pads", "1", "2"}},
		Mapping: ColumnMapping{Name: intPtr(2), BuyPrice: intPtr(3), SellPrice: intPtr(4), StartRow: 1},
	})
	if !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("expected storage unavailable, got %v", err)
	}
	if coll.saves != 0 {
		t.Fatalf("must not replace catalog after a failed load")
	}
}

func TestPreviewSpreadsheet(t *testing.T) {
	svc, _, _ := newCatalogFixture(t)
	preview, err := svc.PreviewSpreadsheet(context.Background(), PreviewSpreadsheetCommand{
		Filename: "list.csv",
		Content:  strings.NewReader("a,b,c\n1,2\n3,4,5\n6,7,8\n"),
		Rows:     2,
	})
	if err != nil {
		t.Fatalf("PreviewSpreadsheet: %v", err)
	}
	if strings.Join(preview.Columns, "") != "ABC" {
		t.Fatalf("unexpected columns %v", preview.Columns)
	}
	if len(preview.Rows) != 2 || preview.Rows[1][2] != "" || preview.TotalRows != 4 {
		t.Fatalf("unexpected preview %+v", preview)
	}
}

func TestBulkMarkupMergesByID(t *testing.T) {
	svc, coll, _ := newCatalogFixture(t,
		domain.Product{ID: "p1", BuyPrice: 100, SellPrice: 150},
		domain.Product{ID: "p2", BuyPrice: 200, SellPrice: 250},
	)
	changed, err := svc.BulkMarkup(context.Background(), BulkMarkupCommand{ProductIDs: []string{"p2"}, Percent: 50, Mode: domain.MarkupOnBuy})
	if err != nil {
		t.Fatalf("BulkMarkup: %v", err)
	}
	if len(changed) != 1 || changed[0].SellPrice != 300 {
		t.Fatalf("unexpected changed %+v", changed)
	}
	if coll.items[0].SellPrice != 150 || coll.items[1].SellPrice != 300 {
		t.Fatalf("unexpected catalog %+v", coll.items)
	}
	if _, err := svc.BulkMarkup(context.Background(), BulkMarkupCommand{ProductIDs: []string{"p1"}, Percent: 5, Mode: "DOUBLE"}); !errors.Is(err, ErrCatalogInvalidInput) {
		t.Fatalf("expected invalid mode error, got %v", err)
	}
	if _, err := svc.BulkMarkup(context.Background(), BulkMarkupCommand{ProductIDs: []string{"zz"}, Percent: 5, Mode: domain.MarkupOnBuy}); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRegisterOrderProducts(t *testing.T) {
	coll := &stubCollection[Product]{items: []Product{{ID: "p1", Name: "Oil"}}}
	added, err := registerOrderProducts(context.Background(), coll, []OrderItem{
		{Product: Product{ID: "i1", Name: "Oil"}, Quantity: 1},
		{Product: Product{ID: "i2", Name: "Bulb"}, Quantity: 1},
	})
	if err != nil {
		t.Fatalf("registerOrderProducts: %v", err)
	}
	if len(added) != 1 || added[0].ID != "i2" || len(coll.items) != 2 {
		t.Fatalf("unexpected result %+v %+v", added, coll.items)
	}
	added, err = registerOrderProducts(context.Background(), coll, []OrderItem{{Product: Product{Name: "Bulb"}, Quantity: 1}})
	if err != nil || len(added) != 0 {
		t.Fatalf("expected no-op, got %+v %v", added, err)
	}
	if coll.saves != 1 {
		t.Fatalf("no-op registration must not write, saves=%d", coll.saves)
	}

	coll.loadErr = unavailableErr()
	if _, err := registerOrderProducts(context.Background(), coll, []OrderItem{{Product: Product{Name: "Lamp"}, Quantity: 1}}); !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("expected storage unavailable, got %v", err)
	}
}

func intPtr(v int) *int { return &v }
