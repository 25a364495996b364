package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/rotteck/merchshop/internal/order"
)

var simpleEmailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type OrderItemRequest struct {
	Color    string `json:"color"`
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
}

type CreateOrderRequest struct {
	Email string             `json:"email" validate:"required,shop_email"`
	Items []OrderItemRequest `json:"items" validate:"required,min=1"`
}

type CreateOrderResponse struct {
	OrderCode string `json:"orderCode"`
	CreatedAt string `json:"createdAt"`
}

type StatusEntryRequest struct {
	OrderCode string `json:"orderCode"`
	Email     string `json:"email"`
}

type OrderStatusRequest struct {
	Entries []StatusEntryRequest `json:"entries"`
}

type OrderStatusResponse struct {
	Results []order.StatusResult `json:"results"`
}

// OrderHandler serves the customer-facing order endpoints.
type OrderHandler struct {
	svc      order.Service
	validate *validator.Validate
}

func NewOrderHandler(svc order.Service) *OrderHandler {
	validate := validator.New()
	// Simple local@domain.tld shape, deliberately looser than a full
	// RFC 5322 check.
	_ = validate.RegisterValidation("shop_email", func(fl validator.FieldLevel) bool {
		return simpleEmailPattern.MatchString(fl.Field().String())
	})
	return &OrderHandler{svc: svc, validate: validate}
}

// CreateOrder handles POST /api/create-order.
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var payload CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.validate.Struct(payload); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			for _, fieldErr := range validationErrors {
				if fieldErr.Field() == "Email" {
					respondWithError(w, http.StatusBadRequest, "please provide a valid email address")
					return
				}
			}
			respondWithError(w, http.StatusBadRequest, "no valid products submitted")
			return
		}
		log.Error().Err(err).Msg("Unexpected error type during validation")
		respondWithError(w, http.StatusInternalServerError, "internal validation error")
		return
	}

	items := make([]order.Item, 0, len(payload.Items))
	for _, item := range payload.Items {
		items = append(items, order.Item{
			Color:    item.Color,
			Size:     item.Size,
			Quantity: item.Quantity,
		})
	}

	result, err := h.svc.Checkout(r.Context(), order.CheckoutInput{
		Email: payload.Email,
		Items: items,
	})
	if err != nil {
		statusCode := mapErrorToStatusCode(err)

		var clientMessage string
		switch {
		case errors.Is(err, order.ErrInvalidEmail):
			clientMessage = "please provide a valid email address"
		case errors.Is(err, order.ErrNoValidItems):
			clientMessage = "no valid products submitted"
		case errors.Is(err, order.ErrZeroQuantity):
			clientMessage = "order quantity must be positive"
		default:
			log.Error().Err(err).Msg("Failed to create order via service")
			clientMessage = "could not save order"
		}

		respondWithError(w, statusCode, clientMessage)
		return
	}

	respondWithJSON(w, http.StatusCreated, CreateOrderResponse{
		OrderCode: result.OrderCode,
		CreatedAt: result.CreatedAt,
	})
}

// OrderStatus handles POST /api/order-status, the batched customer lookup.
func (h *OrderHandler) OrderStatus(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var payload OrderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entries := make([]order.StatusEntry, 0, len(payload.Entries))
	for _, entry := range payload.Entries {
		entries = append(entries, order.StatusEntry{
			OrderCode: entry.OrderCode,
			Email:     entry.Email,
		})
	}

	if len(order.SanitizeEntries(entries)) == 0 {
		respondWithError(w, http.StatusBadRequest, "no valid order entries submitted")
		return
	}

	results, err := h.svc.ResolveStatuses(r.Context(), entries)
	if err != nil {
		log.Error().Err(err).Msg("Failed to resolve order statuses via service")
		respondWithError(w, http.StatusInternalServerError, "could not load order information")
		return
	}

	respondWithJSON(w, http.StatusOK, OrderStatusResponse{Results: results})
}
