package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	domain "github.com/forsage-shop/pos/internal/domain"
	"github.com/forsage-shop/pos/internal/platform/spreadsheet"
	"github.com/forsage-shop/pos/internal/platform/textutil"
	"github.com/forsage-shop/pos/internal/repositories"
)

const (
	defaultPreviewRows = 10
	maxPreviewRows     = 100
)

// CatalogServiceDeps bundles constructor inputs for the catalog service.
type CatalogServiceDeps struct {
	Products    repositories.Collection[domain.Product]
	UnitOfWork  repositories.UnitOfWork
	IDGenerator func() string
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type catalogService struct {
	products   repositories.Collection[domain.Product]
	unitOfWork repositories.UnitOfWork
	newID      func() string
	logger     func(context.Context, string, map[string]any)
	tracer     trace.Tracer
}

// NewCatalogService constructs the catalog service with the supplied dependencies.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Products == nil {
		return nil, errors.New("catalog service: product collection is required")
	}
	unit := deps.UnitOfWork
	if unit == nil {
		unit = noopUnitOfWork{}
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &catalogService{
		products:   deps.Products,
		unitOfWork: unit,
		newID:      idGen,
		logger:     logger,
		tracer:     otel.Tracer(instrumentationName),
	}, nil
}

func (s *catalogService) ListProducts(ctx context.Context, filter ProductListFilter) ([]Product, error) {
	products, err := s.products.LoadAll(ctx)
	if err != nil {
		return nil, mapRepositoryError(err, ErrProductNotFound)
	}
	if strings.TrimSpace(filter.Query) == "" {
		return products, nil
	}
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if productMatches(p, filter.Query) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *catalogService) GetProduct(ctx context.Context, productID string) (Product, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return Product{}, fmt.Errorf("%w: product id is required", ErrCatalogInvalidInput)
	}
	products, err := s.products.LoadAll(ctx)
	if err != nil {
		return Product{}, mapRepositoryError(err, ErrProductNotFound)
	}
	idx := slices.IndexFunc(products, func(p Product) bool { return p.ID == productID })
	if idx < 0 {
		return Product{}, ErrProductNotFound
	}
	return products[idx], nil
}

// CreateProduct puts the new product at the head of the catalog.
func (s *catalogService) CreateProduct(ctx context.Context, cmd ProductInput) (Product, error) {
	product, err := normalizeProductInput(cmd)
	if err != nil {
		return Product{}, err
	}
	product.ID = s.nextProductID()
	err = s.runInTx(ctx, func(txCtx context.Context) error {
		products, err := s.products.LoadAll(txCtx)
		if err != nil {
			return mapRepositoryError(err, ErrProductNotFound)
		}
		return mapRepositoryError(s.products.SaveAll(txCtx, append([]Product{product}, products...)), ErrProductNotFound)
	})
	if err != nil {
		return Product{}, err
	}
	return product, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, productID string, cmd ProductInput) (Product, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return Product{}, fmt.Errorf("%w: product id is required", ErrCatalogInvalidInput)
	}
	product, err := normalizeProductInput(cmd)
	if err != nil {
		return Product{}, err
	}
	product.ID = productID
	err = s.runInTx(ctx, func(txCtx context.Context) error {
		products, err := s.products.LoadAll(txCtx)
		if err != nil {
			return mapRepositoryError(err, ErrProductNotFound)
		}
		idx := slices.IndexFunc(products, func(p Product) bool { return p.ID == productID })
		if idx < 0 {
			return ErrProductNotFound
		}
		products[idx] = product
		return mapRepositoryError(s.products.SaveAll(txCtx, products), ErrProductNotFound)
	})
	if err != nil {
		return Product{}, err
	}
	return product, nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, cmd DeleteCommand) error {
	productID := strings.TrimSpace(cmd.ID)
	if productID == "" {
		return fmt.Errorf("%w: product id is required", ErrCatalogInvalidInput)
	}
	if !cmd.Confirmed {
		return ErrConfirmationRequired
	}
	return s.runInTx(ctx, func(txCtx context.Context) error {
		products, err := s.products.LoadAll(txCtx)
		if err != nil {
			return mapRepositoryError(err, ErrProductNotFound)
		}
		idx := slices.IndexFunc(products, func(p Product) bool { return p.ID == productID })
		if idx < 0 {
			return ErrProductNotFound
		}
		return mapRepositoryError(s.products.SaveAll(txCtx, slices.Delete(products, idx, idx+1)), ErrProductNotFound)
	})
}

func (s *catalogService) ImportRows(ctx context.Context, cmd ImportRowsCommand) (result ImportResult, err error) {
	ctx, span := s.tracer.Start(ctx, "catalog.import")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	mapping, err := normalizeMapping(cmd.Mapping)
	if err != nil {
		return ImportResult{}, err
	}
	rows := ExtractProductRows(cmd.Grid, mapping)
	if len(rows) == 0 {
		return ImportResult{}, fmt.Errorf("%w: no rows with a product name were found", ErrCatalogInvalidInput)
	}

	err = s.runInTx(ctx, func(txCtx context.Context) error {
		products, err := s.products.LoadAll(txCtx)
		if err != nil {
			return mapRepositoryError(err, ErrProductNotFound)
		}
		merged, stats := MergeImportedProducts(products, rows, s.nextProductID)
		if err := s.products.SaveAll(txCtx, merged); err != nil {
			return mapRepositoryError(err, ErrProductNotFound)
		}
		result = ImportResult{
			Extracted: len(rows),
			Updated:   stats.Updated,
			Added:     stats.Added,
			Catalog:   merged,
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}
	span.SetAttributes(
		attribute.Int("pos.import_rows", result.Extracted),
		attribute.Int("pos.import_added", result.Added),
	)
	s.logger(ctx, "catalog.import.merged", map[string]any{
		"extracted": result.Extracted,
		"updated":   result.Updated,
		"added":     result.Added,
	})
	return result, nil
}

func (s *catalogService) ImportSpreadsheet(ctx context.Context, cmd ImportSpreadsheetCommand) (ImportResult, error) {
	if cmd.Content == nil {
		return ImportResult{}, fmt.Errorf("%w: file is required", ErrCatalogInvalidInput)
	}
	grid, err := spreadsheet.Read(cmd.Filename, cmd.Content)
	if err != nil {
		s.logger(ctx, "catalog.import.failed", map[string]any{
			"file":  cmd.Filename,
			"error": err.Error(),
		})
		return ImportResult{}, fmt.Errorf("%w: %v", ErrCatalogInvalidInput, err)
	}
	return s.ImportRows(ctx, ImportRowsCommand{Grid: grid, Mapping: cmd.Mapping})
}

func (s *catalogService) PreviewSpreadsheet(_ context.Context, cmd PreviewSpreadsheetCommand) (SpreadsheetPreview, error) {
	if cmd.Content == nil {
		return SpreadsheetPreview{}, fmt.Errorf("%w: file is required", ErrCatalogInvalidInput)
	}
	grid, err := spreadsheet.Read(cmd.Filename, cmd.Content)
	if err != nil {
		return SpreadsheetPreview{}, fmt.Errorf("%w: %v", ErrCatalogInvalidInput, err)
	}
	limit := cmd.Rows
	if limit <= 0 {
		limit = defaultPreviewRows
	}
	if limit > maxPreviewRows {
		limit = maxPreviewRows
	}
	width := grid.Width()
	preview := SpreadsheetPreview{
		Columns:   make([]string, width),
		Rows:      make([][]string, 0, min(limit, len(grid))),
		TotalRows: len(grid),
	}
	for i := 0; i < width; i++ {
		preview.Columns[i] = ColumnLabel(i)
	}
	for r := 0; r < len(grid) && r < limit; r++ {
		row := make([]string, width)
		for c := 0; c < width; c++ {
			row[c] = grid.Cell(r, c)
		}
		preview.Rows = append(preview.Rows, row)
	}
	return preview, nil
}

func (s *catalogService) BulkMarkup(ctx context.Context, cmd BulkMarkupCommand) ([]Product, error) {
	if !cmd.Mode.Valid() {
		return nil, fmt.Errorf("%w: unknown markup mode %q", ErrCatalogInvalidInput, cmd.Mode)
	}
	if math.IsNaN(cmd.Percent) || math.IsInf(cmd.Percent, 0) {
		return nil, fmt.Errorf("%w: percent must be a finite number", ErrCatalogInvalidInput)
	}
	if len(cmd.ProductIDs) == 0 {
		return nil, fmt.Errorf("%w: select at least one product", ErrCatalogInvalidInput)
	}

	var changed []Product
	err := s.runInTx(ctx, func(txCtx context.Context) error {
		products, err := s.products.LoadAll(txCtx)
		if err != nil {
			return mapRepositoryError(err, ErrProductNotFound)
		}
		changed = ApplyBulkMarkup(products, cmd.ProductIDs, cmd.Percent, cmd.Mode)
		if len(changed) == 0 {
			return ErrProductNotFound
		}
		return mapRepositoryError(s.products.SaveAll(txCtx, MergeByID(products, changed)), ErrProductNotFound)
	})
	if err != nil {
		return nil, err
	}
	s.logger(ctx, "catalog.markup.applied", map[string]any{
		"products": len(changed),
		"percent":  cmd.Percent,
		"mode":     string(cmd.Mode),
	})
	return changed, nil
}

// registerOrderProducts appends order items whose names are not in the catalog yet and
// returns the new entries. It expects to run inside the caller's unit of work and writes
// nothing when every item is already known.
func registerOrderProducts(ctx context.Context, products repositories.Collection[Product], items []OrderItem) ([]Product, error) {
	catalog, err := products.LoadAll(ctx)
	if err != nil {
		return nil, mapRepositoryError(err, ErrProductNotFound)
	}
	updated, added := AutoRegisterFromOrder(catalog, items)
	if len(added) == 0 {
		return nil, nil
	}
	if err := products.SaveAll(ctx, updated); err != nil {
		return nil, mapRepositoryError(err, ErrProductNotFound)
	}
	return added, nil
}

func (s *catalogService) runInTx(ctx context.Context, fn func(context.Context) error) error {
	if s.unitOfWork == nil {
		return fn(ctx)
	}
	return s.unitOfWork.RunInTx(ctx, fn)
}

func (s *catalogService) nextProductID() string {
	return productIDPrefix + s.newID()
}

func normalizeProductInput(cmd ProductInput) (Product, error) {
	product := Product{
		Code:      textutil.CleanField(cmd.Code),
		Brand:     textutil.CleanField(cmd.Brand),
		Name:      textutil.CleanField(cmd.Name),
		BuyPrice:  cmd.BuyPrice,
		SellPrice: cmd.SellPrice,
	}
	if product.Name == "" {
		return Product{}, fmt.Errorf("%w: name is required", ErrCatalogInvalidInput)
	}
	for field, value := range map[string]float64{"buy price": cmd.BuyPrice, "sell price": cmd.SellPrice} {
		if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
			return Product{}, fmt.Errorf("%w: %s must be a non-negative number", ErrCatalogInvalidInput, field)
		}
	}
	return product, nil
}

func normalizeMapping(mapping ColumnMapping) (ColumnMapping, error) {
	if mapping.Name == nil {
		def := domain.DefaultColumnMapping()
		if mapping.Code == nil && mapping.Brand == nil && mapping.BuyPrice == nil && mapping.SellPrice == nil {
			if mapping.StartRow > 0 {
				def.StartRow = mapping.StartRow
			}
			return def, nil
		}
		return ColumnMapping{}, fmt.Errorf("%w: the name column must be mapped", ErrCatalogInvalidInput)
	}
	if mapping.StartRow <= 0 {
		mapping.StartRow = 1
	}
	return mapping, nil
}
