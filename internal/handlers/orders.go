package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/forsage-shop/pos/internal/domain"
	"github.com/forsage-shop/pos/internal/platform/httpx"
	"github.com/forsage-shop/pos/internal/services"
)

const dateParamLayout = "2006-01-02"

// OrderHandlers exposes order creation and the order lifecycle.
type OrderHandlers struct {
	orders services.OrderService
}

// NewOrderHandlers constructs a new OrderHandlers instance.
func NewOrderHandlers(orders services.OrderService) *OrderHandlers {
	return &OrderHandlers{orders: orders}
}

// Routes registers the /orders endpoints.
func (h *OrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/orders", h.listOrders)
	r.Post("/orders", h.createOrder)
	r.Post("/orders:quote", h.quoteOrder)
	r.Get("/orders/{orderID}", h.getOrder)
	r.Delete("/orders/{orderID}", h.deleteOrder)
	r.Put("/orders/{orderID}/status", h.setStatus)
	r.Post("/orders/{orderID}:close-debt", h.closeDebt)
	r.Put("/orders/{orderID}/expenses", h.updateExpenses)
	r.Put("/orders/{orderID}/prepayment", h.updatePrepayment)
	r.Put("/orders/{orderID}/notes", h.updateNotes)
}

type orderItemRequest struct {
	Code      string     `json:"code"`
	Brand     string     `json:"brand"`
	Name      string     `json:"name"`
	BuyPrice  flexNumber `json:"buyPrice"`
	SellPrice flexNumber `json:"sellPrice"`
	Quantity  flexNumber `json:"quantity"`
}

type createOrderRequest struct {
	CustomerID    string             `json:"customerId"`
	VehicleID     string             `json:"vehicleId"`
	Items         []orderItemRequest `json:"items"`
	Prepayment    flexNumber         `json:"prepayment"`
	Expenses      flexNumber         `json:"expenses"`
	PaymentMethod string             `json:"paymentMethod"`
	Notes         string             `json:"notes"`
}

type quoteOrderRequest struct {
	CustomerID      string             `json:"customerId"`
	DiscountPercent flexNumber         `json:"discountPercent"`
	Items           []orderItemRequest `json:"items"`
	Prepayment      flexNumber         `json:"prepayment"`
	Expenses        flexNumber         `json:"expenses"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type expensesRequest struct {
	Expenses flexNumber `json:"expenses"`
}

type prepaymentRequest struct {
	Prepayment flexNumber `json:"prepayment"`
}

type notesRequest struct {
	Notes string `json:"notes"`
}

type progressStep struct {
	Status    domain.OrderStatus `json:"status"`
	Completed bool               `json:"completed"`
	Current   bool               `json:"current"`
}

type orderPayload struct {
	domain.Order
	ShortID          string         `json:"shortId"`
	RemainingBalance float64        `json:"remainingBalance"`
	Progress         []progressStep `json:"progress"`
}

type orderListResponse struct {
	Items []orderPayload `json:"items"`
}

type quoteResponse struct {
	DiscountPercent  float64 `json:"discountPercent"`
	Subtotal         float64 `json:"subtotal"`
	DiscountAmount   float64 `json:"discountAmount"`
	TotalAmount      float64 `json:"totalAmount"`
	TotalCost        float64 `json:"totalCost"`
	Expenses         float64 `json:"expenses"`
	TotalProfit      float64 `json:"totalProfit"`
	RemainingBalance float64 `json:"remainingBalance"`
}

func buildOrderPayload(order services.Order) orderPayload {
	flow := domain.StatusFlow()
	progress := make([]progressStep, 0, len(flow))
	for _, step := range flow {
		progress = append(progress, progressStep{
			Status:    step,
			Completed: domain.IsStepCompleted(order.Status, step),
			Current:   order.Status == step,
		})
	}
	return orderPayload{
		Order:            order,
		ShortID:          services.ShortOrderID(order.ID),
		RemainingBalance: services.RemainingBalance(order.TotalAmount, order.Prepayment),
		Progress:         progress,
	}
}

// buildItemInputs converts request lines. On failure it returns the offending field path.
func buildItemInputs(items []orderItemRequest) ([]services.OrderItemInput, string, error) {
	out := make([]services.OrderItemInput, 0, len(items))
	for i, it := range items {
		qty, err := it.Quantity.integer()
		if err != nil {
			return nil, fmt.Sprintf("items[%d].quantity", i), fmt.Errorf("%w: quantity must be a whole number", errInvalidNumber)
		}
		out = append(out, services.OrderItemInput{
			Code:      it.Code,
			Brand:     it.Brand,
			Name:      it.Name,
			BuyPrice:  it.BuyPrice.Value,
			SellPrice: it.SellPrice.Value,
			Quantity:  qty,
		})
	}
	return out, "", nil
}

func (h *OrderHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter := services.OrderListFilter{
		Query:      r.URL.Query().Get("q"),
		CustomerID: trimmedQuery(r, "customerId"),
	}
	if raw := trimmedQuery(r, "status"); raw != "" {
		status, ok := domain.ParseOrderStatus(raw)
		if !ok {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", fmt.Sprintf("unknown status %q", raw), http.StatusBadRequest))
			return
		}
		filter.Status = &status
	}
	from, to, ok := parseDateRange(w, r)
	if !ok {
		return
	}
	filter.From, filter.To = from, to

	orders, err := h.orders.ListOrders(ctx, filter)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	items := make([]orderPayload, 0, len(orders))
	for _, o := range orders {
		items = append(items, buildOrderPayload(o))
	}
	httpx.WriteJSON(w, http.StatusOK, orderListResponse{Items: items})
}

func (h *OrderHandlers) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req createOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	items, field, err := buildItemInputs(req.Items)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_number", err.Error(), http.StatusBadRequest).WithField(field))
		return
	}
	order, err := h.orders.CreateOrder(ctx, services.CreateOrderCommand{
		CustomerID:    req.CustomerID,
		VehicleID:     req.VehicleID,
		Items:         items,
		Prepayment:    req.Prepayment.Value,
		Expenses:      req.Expenses.Value,
		PaymentMethod: domain.PaymentMethod(req.PaymentMethod),
		Notes:         req.Notes,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.Header().Set("Location", "/api/v1/orders/"+order.ID)
	httpx.WriteJSON(w, http.StatusCreated, buildOrderPayload(order))
}

func (h *OrderHandlers) quoteOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req quoteOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	items, field, err := buildItemInputs(req.Items)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_number", err.Error(), http.StatusBadRequest).WithField(field))
		return
	}
	quote, err := h.orders.QuoteOrder(ctx, services.QuoteOrderCommand{
		CustomerID:      req.CustomerID,
		DiscountPercent: req.DiscountPercent.ptr(),
		Items:           items,
		Prepayment:      req.Prepayment.Value,
		Expenses:        req.Expenses.Value,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, quoteResponse{
		DiscountPercent:  quote.DiscountPercent,
		Subtotal:         quote.Financials.Subtotal,
		DiscountAmount:   quote.Financials.DiscountAmount,
		TotalAmount:      quote.Financials.TotalAmount,
		TotalCost:        quote.Financials.TotalCost,
		Expenses:         quote.Financials.Expenses,
		TotalProfit:      quote.Financials.TotalProfit,
		RemainingBalance: quote.RemainingBalance,
	})
}

func (h *OrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.GetOrder(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, buildOrderPayload(order))
}

func (h *OrderHandlers) deleteOrder(w http.ResponseWriter, r *http.Request) {
	err := h.orders.DeleteOrder(r.Context(), services.DeleteCommand{
		ID:        chi.URLParam(r, "orderID"),
		Confirmed: confirmed(r),
	})
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrderHandlers) setStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req statusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	status, ok := domain.ParseOrderStatus(req.Status)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", fmt.Sprintf("unknown status %q", req.Status), http.StatusBadRequest))
		return
	}
	h.respond(w, r)(h.orders.SetStatus(ctx, chi.URLParam(r, "orderID"), status))
}

func (h *OrderHandlers) closeDebt(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r)(h.orders.CloseDebt(r.Context(), chi.URLParam(r, "orderID")))
}

func (h *OrderHandlers) updateExpenses(w http.ResponseWriter, r *http.Request) {
	var req expensesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !req.Expenses.Set {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_number", "expenses is required", http.StatusBadRequest))
		return
	}
	h.respond(w, r)(h.orders.UpdateExpenses(r.Context(), chi.URLParam(r, "orderID"), req.Expenses.Value))
}

func (h *OrderHandlers) updatePrepayment(w http.ResponseWriter, r *http.Request) {
	var req prepaymentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !req.Prepayment.Set {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_number", "prepayment is required", http.StatusBadRequest))
		return
	}
	h.respond(w, r)(h.orders.UpdatePrepayment(r.Context(), chi.URLParam(r, "orderID"), req.Prepayment.Value))
}

func (h *OrderHandlers) updateNotes(w http.ResponseWriter, r *http.Request) {
	var req notesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.respond(w, r)(h.orders.UpdateNotes(r.Context(), chi.URLParam(r, "orderID"), req.Notes))
}

func (h *OrderHandlers) respond(w http.ResponseWriter, r *http.Request) func(services.Order, error) {
	return func(order services.Order, err error) {
		if err != nil {
			writeServiceError(r.Context(), w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, buildOrderPayload(order))
	}
}

// parseDateRange reads from/to calendar days. The range is inclusive of both days.
func parseDateRange(w http.ResponseWriter, r *http.Request) (*time.Time, *time.Time, bool) {
	var from, to *time.Time
	for _, key := range []string{"from", "to"} {
		raw := trimmedQuery(r, key)
		if raw == "" {
			continue
		}
		day, err := time.ParseInLocation(dateParamLayout, raw, time.Local)
		if err != nil {
			httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", fmt.Sprintf("%s must be YYYY-MM-DD", key), http.StatusBadRequest))
			return nil, nil, false
		}
		if key == "from" {
			from = &day
			continue
		}
		end := day.Add(24*time.Hour - time.Millisecond)
		to = &end
	}
	return from, to, true
}
