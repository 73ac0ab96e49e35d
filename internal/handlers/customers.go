package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/forsage-shop/pos/internal/platform/httpx"
	"github.com/forsage-shop/pos/internal/services"
)

// CustomerHandlers exposes the customer and vehicle registry.
type CustomerHandlers struct {
	customers services.CustomerService
	orders    services.OrderService
}

// NewCustomerHandlers constructs a new CustomerHandlers instance. orders backs the
// per-customer order history endpoint.
func NewCustomerHandlers(customers services.CustomerService, orders services.OrderService) *CustomerHandlers {
	return &CustomerHandlers{customers: customers, orders: orders}
}

// Routes registers the /customers endpoints.
func (h *CustomerHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/customers", h.listCustomers)
	r.Post("/customers", h.createCustomer)
	r.Get("/customers:birthdays", h.upcomingBirthdays)
	r.Get("/customers/{customerID}", h.getCustomer)
	r.Put("/customers/{customerID}", h.updateCustomer)
	r.Delete("/customers/{customerID}", h.deleteCustomer)
	r.Get("/customers/{customerID}/orders", h.customerOrders)
	r.Post("/customers/{customerID}/vehicles", h.addVehicle)
	r.Put("/customers/{customerID}/vehicles/{vehicleID}", h.updateVehicle)
	r.Delete("/customers/{customerID}/vehicles/{vehicleID}", h.removeVehicle)
}

type vehicleRequest struct {
	ID         string `json:"id"`
	VIN        string `json:"vin"`
	Make       string `json:"make"`
	Model      string `json:"model"`
	Year       string `json:"year"`
	EngineSize string `json:"engineSize"`
}

func (v vehicleRequest) input() services.VehicleInput {
	return services.VehicleInput{
		ID:         v.ID,
		VIN:        v.VIN,
		Make:       v.Make,
		Model:      v.Model,
		Year:       v.Year,
		EngineSize: v.EngineSize,
	}
}

type customerRequest struct {
	Name            string            `json:"name"`
	Phone           string            `json:"phone"`
	BirthDate       string            `json:"birthDate"`
	DiscountPercent flexNumber        `json:"discountPercent"`
	Vehicles        *[]vehicleRequest `json:"vehicles"`
}

func (c customerRequest) input() services.CustomerInput {
	in := services.CustomerInput{
		Name:            c.Name,
		Phone:           c.Phone,
		BirthDate:       c.BirthDate,
		DiscountPercent: c.DiscountPercent.Value,
	}
	if c.Vehicles != nil {
		in.Vehicles = make([]services.VehicleInput, 0, len(*c.Vehicles))
		for _, v := range *c.Vehicles {
			in.Vehicles = append(in.Vehicles, v.input())
		}
	}
	return in
}

type customerListResponse struct {
	Items []services.Customer `json:"items"`
}

type birthdayPayload struct {
	Customer  services.Customer `json:"customer"`
	DaysUntil int               `json:"daysUntil"`
	Date      string            `json:"date"`
}

type customerHistoryResponse struct {
	CustomerID string         `json:"customerId"`
	TotalSpent float64        `json:"totalSpent"`
	Orders     []orderPayload `json:"orders"`
}

func (h *CustomerHandlers) listCustomers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	customers, err := h.customers.ListCustomers(ctx, services.CustomerListFilter{Query: r.URL.Query().Get("q")})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, customerListResponse{Items: nonNil(customers)})
}

func (h *CustomerHandlers) createCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	customer, err := h.customers.CreateCustomer(r.Context(), req.input())
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, customer)
}

func (h *CustomerHandlers) getCustomer(w http.ResponseWriter, r *http.Request) {
	customer, err := h.customers.GetCustomer(r.Context(), chi.URLParam(r, "customerID"))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, customer)
}

func (h *CustomerHandlers) updateCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	customer, err := h.customers.UpdateCustomer(r.Context(), chi.URLParam(r, "customerID"), req.input())
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, customer)
}

func (h *CustomerHandlers) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	err := h.customers.DeleteCustomer(r.Context(), services.DeleteCommand{
		ID:        chi.URLParam(r, "customerID"),
		Confirmed: confirmed(r),
	})
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CustomerHandlers) customerOrders(w http.ResponseWriter, r *http.Request) {
	history, err := h.orders.CustomerHistory(r.Context(), chi.URLParam(r, "customerID"))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	orders := make([]orderPayload, 0, len(history.Orders))
	for _, o := range history.Orders {
		orders = append(orders, buildOrderPayload(o))
	}
	httpx.WriteJSON(w, http.StatusOK, customerHistoryResponse{
		CustomerID: history.CustomerID,
		TotalSpent: history.TotalSpent,
		Orders:     orders,
	})
}

func (h *CustomerHandlers) addVehicle(w http.ResponseWriter, r *http.Request) {
	var req vehicleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	customer, err := h.customers.AddVehicle(r.Context(), chi.URLParam(r, "customerID"), req.input())
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, customer)
}

func (h *CustomerHandlers) updateVehicle(w http.ResponseWriter, r *http.Request) {
	var req vehicleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	customer, err := h.customers.UpdateVehicle(r.Context(), chi.URLParam(r, "customerID"), chi.URLParam(r, "vehicleID"), req.input())
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, customer)
}

func (h *CustomerHandlers) removeVehicle(w http.ResponseWriter, r *http.Request) {
	if !confirmed(r) {
		writeServiceError(r.Context(), w, services.ErrConfirmationRequired)
		return
	}
	customer, err := h.customers.RemoveVehicle(r.Context(), chi.URLParam(r, "customerID"), chi.URLParam(r, "vehicleID"))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, customer)
}

func (h *CustomerHandlers) upcomingBirthdays(w http.ResponseWriter, r *http.Request) {
	reminders, err := h.customers.UpcomingBirthdays(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	items := make([]birthdayPayload, 0, len(reminders))
	for _, rem := range reminders {
		items = append(items, birthdayPayload{
			Customer:  rem.Customer,
			DaysUntil: rem.DaysUntil,
			Date:      rem.Date.Format("2006-01-02"),
		})
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func trimmedQuery(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}
