package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	domain "github.com/forsage-shop/pos/internal/domain"
	"github.com/forsage-shop/pos/internal/platform/httpx"
	"github.com/forsage-shop/pos/internal/services"
)

const (
	defaultImportMaxBytes = 10 << 20
	uploadFormField       = "file"
)

// ProductHandlers exposes the product catalog, spreadsheet import and bulk markup.
type ProductHandlers struct {
	catalog        services.CatalogService
	importMaxBytes int64
}

// NewProductHandlers constructs a new ProductHandlers instance. maxUpload bounds
// spreadsheet uploads in bytes.
func NewProductHandlers(catalog services.CatalogService, maxUpload int64) *ProductHandlers {
	if maxUpload <= 0 {
		maxUpload = defaultImportMaxBytes
	}
	return &ProductHandlers{catalog: catalog, importMaxBytes: maxUpload}
}

// Routes registers the /products endpoints.
func (h *ProductHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/products", h.listProducts)
	r.Post("/products", h.createProduct)
	r.Post("/products:import", h.importSpreadsheet)
	r.Post("/products:import-rows", h.importRows)
	r.Post("/products:preview", h.previewSpreadsheet)
	r.Post("/products:markup", h.bulkMarkup)
	r.Get("/products/{productID}", h.getProduct)
	r.Put("/products/{productID}", h.updateProduct)
	r.Delete("/products/{productID}", h.deleteProduct)
}

type productRequest struct {
	Code      string     `json:"code"`
	Brand     string     `json:"brand"`
	Name      string     `json:"name"`
	BuyPrice  flexNumber `json:"buyPrice"`
	SellPrice flexNumber `json:"sellPrice"`
}

func (p productRequest) input() services.ProductInput {
	return services.ProductInput{
		Code:      p.Code,
		Brand:     p.Brand,
		Name:      p.Name,
		BuyPrice:  p.BuyPrice.Value,
		SellPrice: p.SellPrice.Value,
	}
}

type columnMappingRequest struct {
	Code      columnRef `json:"code"`
	Brand     columnRef `json:"brand"`
	Name      columnRef `json:"name"`
	BuyPrice  columnRef `json:"buyPrice"`
	SellPrice columnRef `json:"sellPrice"`
	StartRow  int       `json:"startRow"`
}

func (m *columnMappingRequest) mapping() domain.ColumnMapping {
	if m == nil {
		return domain.DefaultColumnMapping()
	}
	return domain.ColumnMapping{
		Code:      m.Code.index,
		Brand:     m.Brand.index,
		Name:      m.Name.index,
		BuyPrice:  m.BuyPrice.index,
		SellPrice: m.SellPrice.index,
		StartRow:  m.StartRow,
	}
}

type importRowsRequest struct {
	Rows    [][]string            `json:"rows"`
	Mapping *columnMappingRequest `json:"mapping"`
}

type markupRequest struct {
	ProductIDs []string   `json:"productIds"`
	Percent    flexNumber `json:"percent"`
	Mode       string     `json:"mode"`
}

type productListResponse struct {
	Items []services.Product `json:"items"`
}

type importResponse struct {
	Extracted int `json:"extracted"`
	Updated   int `json:"updated"`
	Added     int `json:"added"`
	Total     int `json:"total"`
}

type previewResponse struct {
	Columns   []string   `json:"columns"`
	Rows      [][]string `json:"rows"`
	TotalRows int        `json:"totalRows"`
}

func (h *ProductHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context(), services.ProductListFilter{Query: r.URL.Query().Get("q")})
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, productListResponse{Items: nonNil(products)})
}

func (h *ProductHandlers) createProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !decodeBody(w, r, &req) {
		return
	}
	product, err := h.catalog.CreateProduct(r.Context(), req.input())
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, product)
}

func (h *ProductHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.GetProduct(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, product)
}

func (h *ProductHandlers) updateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !decodeBody(w, r, &req) {
		return
	}
	product, err := h.catalog.UpdateProduct(r.Context(), chi.URLParam(r, "productID"), req.input())
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, product)
}

func (h *ProductHandlers) deleteProduct(w http.ResponseWriter, r *http.Request) {
	err := h.catalog.DeleteProduct(r.Context(), services.DeleteCommand{
		ID:        chi.URLParam(r, "productID"),
		Confirmed: confirmed(r),
	})
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProductHandlers) importRows(w http.ResponseWriter, r *http.Request) {
	var req importRowsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	result, err := h.catalog.ImportRows(r.Context(), services.ImportRowsCommand{
		Grid:    req.Rows,
		Mapping: req.Mapping.mapping(),
	})
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, importResponse{
		Extracted: result.Extracted,
		Updated:   result.Updated,
		Added:     result.Added,
		Total:     len(result.Catalog),
	})
}

func (h *ProductHandlers) importSpreadsheet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	file, header, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	defer file.Close()

	mapping, err := mappingFromForm(r)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	result, err := h.catalog.ImportSpreadsheet(ctx, services.ImportSpreadsheetCommand{
		Filename: header.Filename,
		Content:  file,
		Mapping:  mapping,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, importResponse{
		Extracted: result.Extracted,
		Updated:   result.Updated,
		Added:     result.Added,
		Total:     len(result.Catalog),
	})
}

func (h *ProductHandlers) previewSpreadsheet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	file, header, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	defer file.Close()

	rows := 0
	if raw := r.FormValue("rows"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_number", "rows must be a whole number", http.StatusBadRequest))
			return
		}
		rows = n
	}
	preview, err := h.catalog.PreviewSpreadsheet(ctx, services.PreviewSpreadsheetCommand{
		Filename: header.Filename,
		Content:  file,
		Rows:     rows,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, previewResponse{
		Columns:   preview.Columns,
		Rows:      preview.Rows,
		TotalRows: preview.TotalRows,
	})
}

func (h *ProductHandlers) bulkMarkup(w http.ResponseWriter, r *http.Request) {
	var req markupRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !req.Percent.Set {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_number", "percent is required", http.StatusBadRequest))
		return
	}
	changed, err := h.catalog.BulkMarkup(r.Context(), services.BulkMarkupCommand{
		ProductIDs: req.ProductIDs,
		Percent:    req.Percent.Value,
		Mode:       domain.MarkupMode(req.Mode),
	})
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, productListResponse{Items: nonNil(changed)})
}

func (h *ProductHandlers) readUpload(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, bool) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, h.importMaxBytes)
	if err := r.ParseMultipartForm(h.importMaxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "uploaded file is too large", http.StatusRequestEntityTooLarge))
			return nil, nil, false
		}
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "expected a multipart upload", http.StatusBadRequest))
		return nil, nil, false
	}
	file, header, err := r.FormFile(uploadFormField)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", fmt.Sprintf("form field %q is required", uploadFormField), http.StatusBadRequest))
		return nil, nil, false
	}
	return file, header, true
}

// mappingFromForm reads codeColumn, brandColumn, nameColumn, buyColumn, sellColumn and
// startRow. Without any column field the default supplier layout is used.
func mappingFromForm(r *http.Request) (domain.ColumnMapping, error) {
	fields := []string{"codeColumn", "brandColumn", "nameColumn", "buyColumn", "sellColumn"}
	refs := make([]*int, len(fields))
	mapped := false
	for i, field := range fields {
		raw := r.FormValue(field)
		if raw == "" {
			continue
		}
		idx, err := parseColumnRef(raw)
		if err != nil {
			return domain.ColumnMapping{}, fmt.Errorf("%s: %w", field, err)
		}
		refs[i] = idx
		mapped = true
	}

	mapping := domain.DefaultColumnMapping()
	if mapped {
		mapping = domain.ColumnMapping{
			Code:      refs[0],
			Brand:     refs[1],
			Name:      refs[2],
			BuyPrice:  refs[3],
			SellPrice: refs[4],
			StartRow:  1,
		}
	}
	if raw := r.FormValue("startRow"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return domain.ColumnMapping{}, errors.New("startRow must be a positive whole number")
		}
		mapping.StartRow = n
	}
	return mapping, nil
}
