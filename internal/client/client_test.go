package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rotteck/merchshop/internal/client"
	"github.com/rotteck/merchshop/internal/handler"
	"github.com/rotteck/merchshop/internal/order"
)

func TestClient_SubmitOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/create-order", r.URL.Path)

		var payload handler.CreateOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "a@b.com", payload.Email)
		require.Len(t, payload.Items, 1)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(handler.CreateOrderResponse{
			OrderCode: "ABC123DEF456",
			CreatedAt: "2026-03-01T10:00:00.000Z",
		})
	}))
	defer server.Close()

	result, err := client.New(server.URL).SubmitOrder(context.Background(), "a@b.com", []order.Item{
		{Color: "rot", Size: "M", Quantity: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, "ABC123DEF456", result.OrderCode)
}

func TestClient_SubmitOrder_ServerRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"please provide a valid email address"}`))
	}))
	defer server.Close()

	result, err := client.New(server.URL).SubmitOrder(context.Background(), "broken", nil)
	assert.Nil(t, result)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "please provide a valid email address")
}

func TestClient_FetchStatuses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload handler.OrderStatusRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		// The client sanitizes before sending.
		require.Len(t, payload.Entries, 1)
		assert.Equal(t, "ABC123", payload.Entries[0].OrderCode)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(handler.OrderStatusResponse{
			Results: []order.StatusResult{
				{OrderCode: "ABC123", Email: "a@b.com", Status: "paid", Items: []order.Item{}},
			},
		})
	}))
	defer server.Close()

	results := client.New(server.URL).FetchStatuses(context.Background(), []order.StatusEntry{
		{OrderCode: " abc123 ", Email: "a@b.com"},
		{OrderCode: "", Email: "a@b.com"},
	})
	require.Len(t, results, 1)
	assert.Equal(t, "paid", results[0].Status)
}

func TestClient_FetchStatuses_NothingValidSkipsNetwork(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	results := client.New(server.URL).FetchStatuses(context.Background(), []order.StatusEntry{
		{OrderCode: "", Email: ""},
	})
	assert.Empty(t, results)
	assert.False(t, called)
}

func TestClient_FetchStatuses_FailuresYieldEmptyList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"could not load order information"}`))
	}))
	defer server.Close()

	results := client.New(server.URL).FetchStatuses(context.Background(), []order.StatusEntry{
		{OrderCode: "ABC123", Email: "a@b.com"},
	})
	assert.Empty(t, results)
}

func TestClient_FetchStatuses_CancelledLookupIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	results := client.New(server.URL).FetchStatuses(ctx, []order.StatusEntry{
		{OrderCode: "ABC123", Email: "a@b.com"},
	})
	assert.Empty(t, results)
}

func TestClient_AdminSummary_PassesTokenAndProductionCost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "10", r.URL.Query().Get("productionCost"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"summary":{"totalOrders":1,"statusCounts":{"paid":1},"itemsByColor":{},"itemsBySize":{},"itemsByVariant":{}},"orders":[],"generatedAt":"2026-03-01T10:00:00Z"}`))
	}))
	defer server.Close()

	result, err := client.New(server.URL).AdminSummary(context.Background(), "secret", "10")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Summary.TotalOrders)
}

func TestClient_AdminSummary_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
	}))
	defer server.Close()

	_, err := client.New(server.URL).AdminSummary(context.Background(), "wrong", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unauthorized")
}

func TestClient_MarkOrderPaid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var payload handler.MarkOrderPaidRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "ABC123DEF456", payload.OrderCode)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(handler.MarkOrderPaidResponse{
			Order:     handler.MarkedOrder{OrderHash: "ABC123DEF456", Status: "paid", UpdatedAt: "2026-03-01T12:00:00Z"},
			UpdatedAt: "2026-03-01T12:00:00Z",
		})
	}))
	defer server.Close()

	result, err := client.New(server.URL).MarkOrderPaid(context.Background(), "secret", "ABC123DEF456")
	require.NoError(t, err)
	assert.Equal(t, "paid", result.Order.Status)
}
