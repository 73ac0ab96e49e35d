package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/forsage-shop/pos/internal/platform/httpx"
	"github.com/forsage-shop/pos/internal/services"
)

// StatisticsHandlers exposes the revenue and profit summary.
type StatisticsHandlers struct {
	stats services.StatisticsService
}

// NewStatisticsHandlers constructs a new StatisticsHandlers instance.
func NewStatisticsHandlers(stats services.StatisticsService) *StatisticsHandlers {
	return &StatisticsHandlers{stats: stats}
}

// Routes registers the /statistics endpoint.
func (h *StatisticsHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/statistics", h.summary)
}

type customerSpendPayload struct {
	CustomerID string  `json:"customerId"`
	Name       string  `json:"name"`
	Total      float64 `json:"total"`
	Orders     int     `json:"orders"`
}

type statisticsResponse struct {
	Period         services.StatisticsPeriod `json:"period"`
	From           string                    `json:"from,omitempty"`
	To             string                    `json:"to,omitempty"`
	OrderCount     int                       `json:"orderCount"`
	Revenue        float64                   `json:"revenue"`
	RealizedProfit float64                   `json:"realizedProfit"`
	Debt           float64                   `json:"debt"`
	ByStatus       map[string]int            `json:"byStatus"`
	TopCustomers   []customerSpendPayload    `json:"topCustomers"`
}

func (h *StatisticsHandlers) summary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	period := services.StatisticsPeriod(trimmedQuery(r, "period"))
	if period == "" {
		period = services.PeriodAll
	}
	filter := services.StatisticsFilter{Period: period}
	if period == services.PeriodCustom {
		for _, key := range []string{"from", "to"} {
			raw := trimmedQuery(r, key)
			if raw == "" {
				continue
			}
			day, err := time.ParseInLocation(dateParamLayout, raw, time.Local)
			if err != nil {
				httpx.WriteError(ctx, w, httpx.NewError("invalid_request", key+" must be YYYY-MM-DD", http.StatusBadRequest))
				return
			}
			if key == "from" {
				filter.From = &day
			} else {
				filter.To = &day
			}
		}
	}

	stats, err := h.stats.Summarize(ctx, filter)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	resp := statisticsResponse{
		Period:         period,
		OrderCount:     stats.OrderCount,
		Revenue:        stats.Revenue,
		RealizedProfit: stats.RealizedProfit,
		Debt:           stats.Debt,
		ByStatus:       make(map[string]int, len(stats.ByStatus)),
		TopCustomers:   make([]customerSpendPayload, 0, len(stats.TopCustomers)),
	}
	if stats.From != nil {
		resp.From = stats.From.Format(time.RFC3339)
	}
	if stats.To != nil {
		resp.To = stats.To.Format(time.RFC3339)
	}
	for status, n := range stats.ByStatus {
		resp.ByStatus[string(status)] = n
	}
	for _, c := range stats.TopCustomers {
		resp.TopCustomers = append(resp.TopCustomers, customerSpendPayload{
			CustomerID: c.CustomerID,
			Name:       c.Name,
			Total:      c.Total,
			Orders:     c.Orders,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}
