package order

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	// ProductName is the single product sold by the shop.
	ProductName = "Pulli"

	maxItems       = 50
	maxColorLength = 48
	maxSizeLength  = 24
	maxCodeLength  = 64
	minQuantity    = 1
	maxQuantity    = 30
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var (
	ErrInvalidEmail = errors.New("invalid email address")
	ErrNoValidItems = errors.New("no valid products submitted")
	ErrZeroQuantity = errors.New("order quantity must be positive")
	ErrInvalidCode  = errors.New("invalid order code")
)

type CheckoutInput struct {
	Email string
	Items []Item
}

type CheckoutResult struct {
	OrderCode string
	CreatedAt string
}

// StatusEntry is one (orderCode, email) pair from a customer's history.
type StatusEntry struct {
	OrderCode string
	Email     string
}

// Status values returned for entries that could not be resolved to the
// caller's own order.
const (
	StatusUnknown      = "unknown"
	StatusUnauthorised = "unauthorised"
)

type StatusResult struct {
	OrderCode string  `json:"orderCode"`
	Email     string  `json:"email"`
	Status    string  `json:"status"`
	Items     []Item  `json:"items"`
	CreatedAt *string `json:"createdAt"`
	UpdatedAt *string `json:"updatedAt"`
}

type Service interface {
	Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error)
	ResolveStatuses(ctx context.Context, entries []StatusEntry) ([]StatusResult, error)
	MarkPaid(ctx context.Context, code string) (*Order, error)
	ListOrders(ctx context.Context) ([]Order, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// SanitizeItems caps the input at 50 entries, trims color and size to their
// length limits, drops entries left without a color or size, and clamps each
// quantity into [1,30]. Shared by Checkout and by the client-side payload
// preparation.
func SanitizeItems(raw []Item) []Item {
	if len(raw) > maxItems {
		raw = raw[:maxItems]
	}

	items := make([]Item, 0, len(raw))
	for _, entry := range raw {
		color := truncate(strings.TrimSpace(entry.Color), maxColorLength)
		size := truncate(strings.TrimSpace(entry.Size), maxSizeLength)
		if color == "" || size == "" {
			continue
		}

		quantity := entry.Quantity
		if quantity < minQuantity {
			quantity = minQuantity
		}
		if quantity > maxQuantity {
			quantity = maxQuantity
		}

		items = append(items, Item{
			Product:  ProductName,
			Color:    color,
			Size:     size,
			Quantity: quantity,
		})
	}

	return items
}

// SanitizeCode normalizes a customer-supplied order code: trimmed, upper-
// cased, capped at 64 characters.
func SanitizeCode(raw string) string {
	return truncate(strings.ToUpper(strings.TrimSpace(raw)), maxCodeLength)
}

func (s *service) Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	email := strings.TrimSpace(input.Email)
	if !emailPattern.MatchString(email) {
		return nil, ErrInvalidEmail
	}

	items := SanitizeItems(input.Items)
	if len(items) == 0 {
		return nil, ErrNoValidItems
	}

	totalQuantity := 0
	for _, item := range items {
		totalQuantity += item.Quantity
	}
	// Unreachable given the clamp to >=1, kept as a guard.
	if totalQuantity <= 0 {
		return nil, ErrZeroQuantity
	}

	code, err := GenerateCode(email, items)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to generate order code")
		return nil, fmt.Errorf("service: failed to generate order code: %w", err)
	}

	o := &Order{
		OrderHash: code,
		Email:     email,
		Items:     items,
		Status:    StatusPending,
	}

	if err := s.repo.Create(ctx, o); err != nil {
		log.Error().Err(err).Str("order_code", code).Msg("service: failed to create order in repository")
		return nil, fmt.Errorf("service: failed to create order: %w", err)
	}

	log.Info().Str("order_code", code).Int("items", len(items)).Msg("Order created")

	return &CheckoutResult{
		OrderCode: o.OrderHash,
		CreatedAt: o.CreatedAt.Format(timeFormat),
	}, nil
}

func (s *service) ResolveStatuses(ctx context.Context, entries []StatusEntry) ([]StatusResult, error) {
	sanitized := SanitizeEntries(entries)
	if len(sanitized) == 0 {
		return []StatusResult{}, nil
	}

	seen := make(map[string]bool, len(sanitized))
	codes := make([]string, 0, len(sanitized))
	for _, entry := range sanitized {
		if !seen[entry.OrderCode] {
			seen[entry.OrderCode] = true
			codes = append(codes, entry.OrderCode)
		}
	}

	orders, err := s.repo.GetByCodes(ctx, codes)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to fetch orders for status lookup")
		return nil, fmt.Errorf("service: failed to fetch order statuses: %w", err)
	}

	byCode := make(map[string]*Order, len(orders))
	for i := range orders {
		byCode[strings.ToUpper(orders[i].OrderHash)] = &orders[i]
	}

	// Each input entry gets its own result, duplicates included.
	results := make([]StatusResult, 0, len(sanitized))
	for _, entry := range sanitized {
		match, ok := byCode[entry.OrderCode]
		if !ok {
			results = append(results, StatusResult{
				OrderCode: entry.OrderCode,
				Email:     entry.Email,
				Status:    StatusUnknown,
				Items:     []Item{},
			})
			continue
		}

		if normalizeEmail(match.Email) != normalizeEmail(entry.Email) {
			// Knowing the code alone is not enough to see the order.
			results = append(results, StatusResult{
				OrderCode: entry.OrderCode,
				Email:     entry.Email,
				Status:    StatusUnauthorised,
				Items:     []Item{},
			})
			continue
		}

		status := strings.TrimSpace(string(match.Status))
		if status == "" {
			status = string(StatusPending)
		}

		createdAt := match.CreatedAt.Format(timeFormat)
		updatedAt := match.UpdatedAt.Format(timeFormat)
		items := match.Items
		if items == nil {
			items = []Item{}
		}

		results = append(results, StatusResult{
			OrderCode: entry.OrderCode,
			Email:     entry.Email,
			Status:    status,
			Items:     items,
			CreatedAt: &createdAt,
			UpdatedAt: &updatedAt,
		})
	}

	return results, nil
}

func (s *service) MarkPaid(ctx context.Context, code string) (*Order, error) {
	sanitized := SanitizeCode(code)
	if sanitized == "" {
		return nil, ErrInvalidCode
	}

	// The update is unconditional: re-marking a paid order succeeds and
	// leaves it paid.
	o, err := s.repo.MarkPaid(ctx, sanitized)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			log.Warn().Str("order_code", sanitized).Msg("service: order not found for settlement")
			return nil, ErrOrderNotFound
		}
		log.Error().Err(err).Str("order_code", sanitized).Msg("service: failed to mark order as paid")
		return nil, fmt.Errorf("service: failed to mark order as paid: %w", err)
	}

	log.Info().Str("order_code", o.OrderHash).Msg("Order marked as paid")
	return o, nil
}

func (s *service) ListOrders(ctx context.Context) ([]Order, error) {
	orders, err := s.repo.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list orders")
		return nil, fmt.Errorf("service: failed to list orders: %w", err)
	}
	return orders, nil
}

// SanitizeEntries normalizes status-lookup entries and drops those missing
// an order code or email.
func SanitizeEntries(entries []StatusEntry) []StatusEntry {
	sanitized := make([]StatusEntry, 0, len(entries))
	for _, entry := range entries {
		code := SanitizeCode(entry.OrderCode)
		email := strings.TrimSpace(entry.Email)
		if code == "" || email == "" {
			continue
		}
		sanitized = append(sanitized, StatusEntry{OrderCode: code, Email: email})
	}
	return sanitized
}

const timeFormat = "2006-01-02T15:04:05.000Z07:00"

func normalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func truncate(value string, limit int) string {
	if len(value) > limit {
		return value[:limit]
	}
	return value
}
