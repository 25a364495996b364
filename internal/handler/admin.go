package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/rotteck/merchshop/internal/admin"
	"github.com/rotteck/merchshop/internal/order"
)

type AdminSummaryResponse struct {
	Summary      admin.Summary    `json:"summary"`
	Financials   admin.Financials `json:"financials"`
	OrdersPerDay []admin.DayCount `json:"ordersPerDay"`
	Orders       []order.Order    `json:"orders"`
	GeneratedAt  string           `json:"generatedAt"`
}

type MarkOrderPaidRequest struct {
	OrderCode string `json:"orderCode"`
}

type MarkOrderPaidResponse struct {
	Order     MarkedOrder `json:"order"`
	UpdatedAt string      `json:"updatedAt"`
}

type MarkedOrder struct {
	OrderHash string `json:"order_hash"`
	Status    string `json:"status"`
	UpdatedAt string `json:"updated_at"`
}

// AdminHandler serves the password-gated dashboard endpoints.
type AdminHandler struct {
	svc       order.Service
	secret    string
	unitPrice decimal.Decimal
}

func NewAdminHandler(svc order.Service, secret string, unitPriceEUR float64) *AdminHandler {
	return &AdminHandler{
		svc:       svc,
		secret:    secret,
		unitPrice: decimal.NewFromFloat(unitPriceEUR),
	}
}

func (h *AdminHandler) authorize(w http.ResponseWriter, r *http.Request) bool {
	_, err := admin.AuthorizeBearer(h.secret, r.Header.Get("Authorization"))
	if err != nil {
		if errors.Is(err, admin.ErrNotConfigured) {
			log.Error().Msg("Admin portal password is not configured")
			respondWithError(w, http.StatusInternalServerError, "admin portal is not configured")
			return false
		}
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return false
	}
	return true
}

// Summary handles GET /api/admin-summary. An optional productionCost query
// parameter feeds the profit computation; anything unparsable counts as 0.
func (h *AdminHandler) Summary(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	if !h.authorize(w, r) {
		return
	}

	orders, err := h.svc.ListOrders(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list orders for admin summary")
		respondWithError(w, http.StatusInternalServerError, "could not load the summary")
		return
	}

	productionCost := parseProductionCost(r.URL.Query().Get("productionCost"))

	respondWithJSON(w, http.StatusOK, AdminSummaryResponse{
		Summary:      admin.Aggregate(orders),
		Financials:   admin.ComputeFinancials(orders, h.unitPrice, productionCost),
		OrdersPerDay: admin.OrdersPerDay(orders),
		Orders:       orders,
		GeneratedAt:  time.Now().UTC().Format(time.RFC3339),
	})
}

// MarkOrderPaid handles POST /api/mark-order-paid, the only status mutation
// in the system.
func (h *AdminHandler) MarkOrderPaid(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	if !h.authorize(w, r) {
		return
	}

	var payload MarkOrderPaidRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.svc.MarkPaid(r.Context(), payload.OrderCode)
	if err != nil {
		statusCode := mapErrorToStatusCode(err)

		var clientMessage string
		switch {
		case errors.Is(err, order.ErrInvalidCode):
			clientMessage = "please provide a valid order code"
		case errors.Is(err, order.ErrOrderNotFound):
			clientMessage = "no order found for this code"
		default:
			log.Error().Err(err).Msg("Failed to mark order as paid via service")
			clientMessage = "could not update the order"
		}

		respondWithError(w, statusCode, clientMessage)
		return
	}

	updatedAt := updated.UpdatedAt.UTC().Format(time.RFC3339)
	respondWithJSON(w, http.StatusOK, MarkOrderPaidResponse{
		Order: MarkedOrder{
			OrderHash: updated.OrderHash,
			Status:    updated.Status.String(),
			UpdatedAt: updatedAt,
		},
		UpdatedAt: updatedAt,
	})
}

func parseProductionCost(raw string) decimal.Decimal {
	// The dashboard lets admins type "2,50" as well as "2.50".
	normalized := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	if normalized == "" {
		return decimal.Zero
	}
	cost, err := decimal.NewFromString(normalized)
	if err != nil || cost.IsNegative() {
		return decimal.Zero
	}
	return cost
}
