package order_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rotteck/merchshop/internal/order"
)

type mockRepository struct {
	createFunc     func(ctx context.Context, o *order.Order) error
	getByCodesFunc func(ctx context.Context, codes []string) ([]order.Order, error)
	markPaidFunc   func(ctx context.Context, code string) (*order.Order, error)
	listFunc       func(ctx context.Context) ([]order.Order, error)
}

func (m *mockRepository) Create(ctx context.Context, o *order.Order) error {
	return m.createFunc(ctx, o)
}

func (m *mockRepository) GetByCodes(ctx context.Context, codes []string) ([]order.Order, error) {
	return m.getByCodesFunc(ctx, codes)
}

func (m *mockRepository) MarkPaid(ctx context.Context, code string) (*order.Order, error) {
	return m.markPaidFunc(ctx, code)
}

func (m *mockRepository) List(ctx context.Context) ([]order.Order, error) {
	return m.listFunc(ctx)
}

func TestService_Checkout_Validation(t *testing.T) {
	tests := []struct {
		name      string
		input     order.CheckoutInput
		wantErrIs error
	}{
		{
			name:      "invalid_email_no_at",
			input:     order.CheckoutInput{Email: "not-an-email", Items: []order.Item{{Color: "rot", Size: "M", Quantity: 1}}},
			wantErrIs: order.ErrInvalidEmail,
		},
		{
			name:      "invalid_email_no_dot_after_at",
			input:     order.CheckoutInput{Email: "a@localhost", Items: []order.Item{{Color: "rot", Size: "M", Quantity: 1}}},
			wantErrIs: order.ErrInvalidEmail,
		},
		{
			name:      "invalid_email_whitespace",
			input:     order.CheckoutInput{Email: "a b@example.com", Items: []order.Item{{Color: "rot", Size: "M", Quantity: 1}}},
			wantErrIs: order.ErrInvalidEmail,
		},
		{
			name:      "no_items",
			input:     order.CheckoutInput{Email: "a@b.com", Items: nil},
			wantErrIs: order.ErrNoValidItems,
		},
		{
			name: "all_items_invalid",
			input: order.CheckoutInput{Email: "a@b.com", Items: []order.Item{
				{Color: "", Size: "M", Quantity: 1},
				{Color: "rot", Size: "   ", Quantity: 1},
			}},
			wantErrIs: order.ErrNoValidItems,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRepository{
				createFunc: func(ctx context.Context, o *order.Order) error {
					t.Fatal("repository must not be called for invalid input")
					return nil
				},
			}
			svc := order.NewService(repo)

			result, err := svc.Checkout(context.Background(), tt.input)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, tt.wantErrIs)
		})
	}
}

func TestService_Checkout_SanitizesItems(t *testing.T) {
	var created *order.Order
	repo := &mockRepository{
		createFunc: func(ctx context.Context, o *order.Order) error {
			o.CreatedAt = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
			o.UpdatedAt = o.CreatedAt
			created = o
			return nil
		},
	}
	svc := order.NewService(repo)

	result, err := svc.Checkout(context.Background(), order.CheckoutInput{
		Email: "a@b.com",
		Items: []order.Item{
			{Color: "  rot  ", Size: " M ", Quantity: 0},
			{Color: "blau", Size: "L", Quantity: 99},
			{Color: "", Size: "XL", Quantity: 2},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, created)

	require.Len(t, created.Items, 2)
	assert.Equal(t, order.Item{Product: "Pulli", Color: "rot", Size: "M", Quantity: 1}, created.Items[0])
	assert.Equal(t, order.Item{Product: "Pulli", Color: "blau", Size: "L", Quantity: 30}, created.Items[1])
	assert.Equal(t, order.StatusPending, created.Status)

	assert.Regexp(t, `^[0-9A-F]{12}$`, result.OrderCode)
	assert.Equal(t, created.OrderHash, result.OrderCode)
}

func TestService_Checkout_CapsAtFiftyItems(t *testing.T) {
	items := make([]order.Item, 51)
	for i := range items {
		items[i] = order.Item{Color: fmt.Sprintf("color-%d", i), Size: "M", Quantity: 1}
	}

	var created *order.Order
	repo := &mockRepository{
		createFunc: func(ctx context.Context, o *order.Order) error {
			created = o
			return nil
		},
	}
	svc := order.NewService(repo)

	_, err := svc.Checkout(context.Background(), order.CheckoutInput{Email: "a@b.com", Items: items})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Len(t, created.Items, 50)
	assert.Equal(t, "color-49", created.Items[49].Color)
}

func TestService_Checkout_TrimsLongColorAndSize(t *testing.T) {
	var created *order.Order
	repo := &mockRepository{
		createFunc: func(ctx context.Context, o *order.Order) error {
			created = o
			return nil
		},
	}
	svc := order.NewService(repo)

	_, err := svc.Checkout(context.Background(), order.CheckoutInput{
		Email: "a@b.com",
		Items: []order.Item{{Color: strings.Repeat("c", 60), Size: strings.Repeat("s", 30), Quantity: 2}},
	})
	require.NoError(t, err)
	require.Len(t, created.Items, 1)
	assert.Len(t, created.Items[0].Color, 48)
	assert.Len(t, created.Items[0].Size, 24)
}

func TestService_Checkout_StoreFailure(t *testing.T) {
	repo := &mockRepository{
		createFunc: func(ctx context.Context, o *order.Order) error {
			return errors.New("connection refused")
		},
	}
	svc := order.NewService(repo)

	result, err := svc.Checkout(context.Background(), order.CheckoutInput{
		Email: "a@b.com",
		Items: []order.Item{{Color: "rot", Size: "M", Quantity: 1}},
	})
	assert.Nil(t, result)
	assert.Error(t, err)
}

func TestService_ResolveStatuses_EmptyInputSkipsStore(t *testing.T) {
	repo := &mockRepository{
		getByCodesFunc: func(ctx context.Context, codes []string) ([]order.Order, error) {
			t.Fatal("store must not be queried when nothing survives sanitization")
			return nil, nil
		},
	}
	svc := order.NewService(repo)

	results, err := svc.ResolveStatuses(context.Background(), []order.StatusEntry{
		{OrderCode: "", Email: "a@b.com"},
		{OrderCode: "ABC123", Email: "   "},
	})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestService_ResolveStatuses(t *testing.T) {
	stored := order.Order{
		OrderHash: "ABC123",
		Email:     "a@b.com",
		Items:     []order.Item{{Product: "Pulli", Color: "rot", Size: "M", Quantity: 2}},
		Status:    order.StatusPending,
		CreatedAt: time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC),
	}

	var queriedCodes []string
	repo := &mockRepository{
		getByCodesFunc: func(ctx context.Context, codes []string) ([]order.Order, error) {
			queriedCodes = codes
			return []order.Order{stored}, nil
		},
	}
	svc := order.NewService(repo)

	results, err := svc.ResolveStatuses(context.Background(), []order.StatusEntry{
		{OrderCode: "abc123", Email: "A@B.COM"},
		{OrderCode: "ABC123", Email: "x@y.com"},
		{OrderCode: "abc123", Email: "a@b.com"},
		{OrderCode: "ZZZ999", Email: "a@b.com"},
	})
	require.NoError(t, err)
	require.Len(t, results, 4)

	// One batched lookup over the deduplicated codes.
	assert.ElementsMatch(t, []string{"ABC123", "ZZZ999"}, queriedCodes)

	assert.Equal(t, "pending", results[0].Status)
	assert.Equal(t, stored.Items, results[0].Items)
	require.NotNil(t, results[0].CreatedAt)

	assert.Equal(t, "unauthorised", results[1].Status)
	assert.Empty(t, results[1].Items)
	assert.Nil(t, results[1].CreatedAt)
	assert.Nil(t, results[1].UpdatedAt)

	assert.Equal(t, "pending", results[2].Status)

	assert.Equal(t, "unknown", results[3].Status)
	assert.Empty(t, results[3].Items)
}

func TestService_ResolveStatuses_StoreError(t *testing.T) {
	repo := &mockRepository{
		getByCodesFunc: func(ctx context.Context, codes []string) ([]order.Order, error) {
			return nil, errors.New("timeout")
		},
	}
	svc := order.NewService(repo)

	results, err := svc.ResolveStatuses(context.Background(), []order.StatusEntry{
		{OrderCode: "ABC123", Email: "a@b.com"},
	})
	assert.Error(t, err)
	assert.Nil(t, results)
}

func TestService_MarkPaid(t *testing.T) {
	tests := []struct {
		name         string
		code         string
		markPaidFunc func(ctx context.Context, code string) (*order.Order, error)
		wantErrIs    error
		wantCode     string
	}{
		{
			name:      "empty_code",
			code:      "   ",
			wantErrIs: order.ErrInvalidCode,
		},
		{
			name: "not_found",
			code: "ZZZZZZZZZZZZ",
			markPaidFunc: func(ctx context.Context, code string) (*order.Order, error) {
				return nil, order.ErrOrderNotFound
			},
			wantErrIs: order.ErrOrderNotFound,
		},
		{
			name: "sanitizes_code_before_lookup",
			code: "  abc123  ",
			markPaidFunc: func(ctx context.Context, code string) (*order.Order, error) {
				if code != "ABC123" {
					return nil, fmt.Errorf("unexpected code %q", code)
				}
				return &order.Order{OrderHash: code, Status: order.StatusPaid}, nil
			},
			wantCode: "ABC123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRepository{markPaidFunc: tt.markPaidFunc}
			svc := order.NewService(repo)

			updated, err := svc.MarkPaid(context.Background(), tt.code)
			if tt.wantErrIs != nil {
				assert.ErrorIs(t, err, tt.wantErrIs)
				assert.Nil(t, updated)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, updated.OrderHash)
			assert.Equal(t, order.StatusPaid, updated.Status)
		})
	}
}

func TestService_MarkPaid_Idempotent(t *testing.T) {
	calls := 0
	repo := &mockRepository{
		markPaidFunc: func(ctx context.Context, code string) (*order.Order, error) {
			calls++
			return &order.Order{OrderHash: code, Status: order.StatusPaid}, nil
		},
	}
	svc := order.NewService(repo)

	for i := 0; i < 2; i++ {
		updated, err := svc.MarkPaid(context.Background(), "ABC123")
		require.NoError(t, err)
		assert.Equal(t, order.StatusPaid, updated.Status)
	}
	assert.Equal(t, 2, calls)
}
