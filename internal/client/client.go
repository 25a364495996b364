// Package client talks to the shop API the way the storefront does: one
// round trip per operation, no retries, and status lookups that collapse any
// failure into an empty result list.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/rotteck/merchshop/internal/admin"
	"github.com/rotteck/merchshop/internal/handler"
	"github.com/rotteck/merchshop/internal/order"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

// SubmitOrder posts a checkout payload and returns the assigned order code.
func (c *Client) SubmitOrder(ctx context.Context, email string, items []order.Item) (*handler.CreateOrderResponse, error) {
	var result handler.CreateOrderResponse
	err := c.postJSON(ctx, "/api/create-order", handler.CreateOrderRequest{
		Email: email,
		Items: toItemRequests(items),
	}, "", &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// FetchStatuses resolves the given history entries against the server. The
// call is abortable through ctx; cancellation and any transport or server
// failure yield an empty list rather than an error, so the caller simply
// sees no data yet.
func (c *Client) FetchStatuses(ctx context.Context, entries []order.StatusEntry) []order.StatusResult {
	sanitized := order.SanitizeEntries(entries)
	if len(sanitized) == 0 {
		return []order.StatusResult{}
	}

	requestEntries := make([]handler.StatusEntryRequest, 0, len(sanitized))
	for _, entry := range sanitized {
		requestEntries = append(requestEntries, handler.StatusEntryRequest{
			OrderCode: entry.OrderCode,
			Email:     entry.Email,
		})
	}

	var response handler.OrderStatusResponse
	err := c.postJSON(ctx, "/api/order-status", handler.OrderStatusRequest{Entries: requestEntries}, "", &response)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Warn().Err(err).Msg("Could not load order statuses")
		}
		return []order.StatusResult{}
	}

	if response.Results == nil {
		return []order.StatusResult{}
	}
	return response.Results
}

// AdminSummary fetches the dashboard aggregation with the given bearer token.
func (c *Client) AdminSummary(ctx context.Context, token, productionCost string) (*handler.AdminSummaryResponse, error) {
	path := "/api/admin-summary"
	if productionCost != "" {
		path += "?productionCost=" + productionCost
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("client: failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	var result handler.AdminSummaryResponse
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// MarkOrderPaid settles one order through the admin endpoint.
func (c *Client) MarkOrderPaid(ctx context.Context, token, orderCode string) (*handler.MarkOrderPaidResponse, error) {
	var result handler.MarkOrderPaidResponse
	err := c.postJSON(ctx, "/api/mark-order-paid", handler.MarkOrderPaidRequest{OrderCode: orderCode}, token, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload interface{}, token string, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("client: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("client: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || req.Context().Err() != nil {
			return context.Canceled
		}
		return fmt.Errorf("client: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error != "" {
			if resp.StatusCode == http.StatusUnauthorized {
				return fmt.Errorf("%w: %s", admin.ErrUnauthorized, apiErr.Error)
			}
			return fmt.Errorf("client: server rejected request (%d): %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("client: server rejected request (%d)", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("client: failed to decode response: %w", err)
	}
	return nil
}

func toItemRequests(items []order.Item) []handler.OrderItemRequest {
	requests := make([]handler.OrderItemRequest, 0, len(items))
	for _, item := range items {
		requests = append(requests, handler.OrderItemRequest{
			Color:    item.Color,
			Size:     item.Size,
			Quantity: item.Quantity,
		})
	}
	return requests
}
