package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/forsage-shop/pos/internal/platform/httpx"
	"github.com/forsage-shop/pos/internal/platform/spreadsheet"
	"github.com/forsage-shop/pos/internal/platform/textutil"
	"github.com/forsage-shop/pos/internal/services"
)

const maxJSONBodySize = 1 << 20

var errInvalidNumber = errors.New("invalid number")

// flexNumber accepts a JSON number or a numeric string such as "1500,50". Anything else is
// rejected instead of being coerced to zero.
type flexNumber struct {
	Value float64
	Set   bool
}

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = flexNumber{}
		return nil
	}
	var raw string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("%w: %v", errInvalidNumber, err)
		}
		if strings.TrimSpace(raw) == "" {
			*n = flexNumber{}
			return nil
		}
	} else {
		raw = string(data)
	}
	value, err := textutil.ParseNumber(raw)
	if err != nil {
		return fmt.Errorf("%w: %q", errInvalidNumber, raw)
	}
	*n = flexNumber{Value: value, Set: true}
	return nil
}

func (n flexNumber) ptr() *float64 {
	if !n.Set {
		return nil
	}
	v := n.Value
	return &v
}

func (n flexNumber) integer() (int, error) {
	if !n.Set || n.Value != math.Trunc(n.Value) || n.Value > math.MaxInt32 || n.Value < math.MinInt32 {
		return 0, errInvalidNumber
	}
	return int(n.Value), nil
}

// columnRef is a zero-based column given as an index (2, "2") or spreadsheet letters ("C").
type columnRef struct {
	index *int
}

func (c *columnRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		c.index = nil
		return nil
	}
	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	}
	idx, err := parseColumnRef(raw)
	if err != nil {
		return err
	}
	c.index = idx
	return nil
}

func parseColumnRef(raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "-" {
		return nil, nil
	}
	if n, err := strconv.Atoi(raw); err == nil {
		if n < 0 {
			return nil, fmt.Errorf("column %d is negative", n)
		}
		return &n, nil
	}
	idx, err := spreadsheet.ColumnIndex(raw)
	if err != nil {
		return nil, err
	}
	return &idx, nil
}

// decodeBody decodes a JSON request and writes the error response itself. It reports
// whether the handler should continue.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	ctx := r.Context()
	err := httpx.DecodeJSON(r, maxJSONBodySize, dst)
	switch {
	case err == nil:
		return true
	case errors.Is(err, errInvalidNumber):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_number", err.Error(), http.StatusBadRequest))
	case errors.Is(err, httpx.ErrBodyTooLarge):
		httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body too large", http.StatusRequestEntityTooLarge))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	}
	return false
}

func confirmed(r *http.Request) bool {
	ok, _ := strconv.ParseBool(strings.TrimSpace(r.URL.Query().Get("confirm")))
	return ok
}

// writeServiceError maps service sentinels onto the JSON error envelope.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrConfirmationRequired):
		httpx.WriteError(ctx, w, httpx.NewError("confirmation_required", "repeat the request with confirm=true", http.StatusPreconditionRequired))
	case errors.Is(err, services.ErrStorageUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("storage_unavailable", "storage is temporarily unavailable", http.StatusServiceUnavailable))
	case errors.Is(err, services.ErrCustomerHasNoVehicles):
		httpx.WriteError(ctx, w, httpx.NewError("customer_has_no_vehicles", "add a vehicle to the customer before creating an order", http.StatusUnprocessableEntity))
	case errors.Is(err, services.ErrOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCustomerNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("customer_not_found", "customer not found", http.StatusNotFound))
	case errors.Is(err, services.ErrVehicleNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("vehicle_not_found", "vehicle not found", http.StatusNotFound))
	case errors.Is(err, services.ErrProductNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
	case errors.Is(err, services.ErrOrderInvalidInput),
		errors.Is(err, services.ErrCustomerInvalidInput),
		errors.Is(err, services.ErrCatalogInvalidInput),
		errors.Is(err, services.ErrStatisticsInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, context.DeadlineExceeded):
		httpx.WriteError(ctx, w, httpx.NewError("timeout", "request timed out", http.StatusGatewayTimeout))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "failed to process request", http.StatusInternalServerError))
	}
}
