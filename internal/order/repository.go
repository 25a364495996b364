package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrOrderNotFound = errors.New("order not found")

type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByCodes(ctx context.Context, codes []string) ([]Order, error)
	MarkPaid(ctx context.Context, code string) (*Order, error)
	List(ctx context.Context) ([]Order, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, o *Order) error {
	query := `
		INSERT INTO orders (order_hash, email, items, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	now := time.Now().UTC()
	err := r.db.QueryRow(ctx, query,
		o.OrderHash,
		o.Email,
		o.Items,
		string(o.Status),
		now,
		now,
	).Scan(&o.CreatedAt)
	if err != nil {
		return fmt.Errorf("repository: failed to insert order %s: %w", o.OrderHash, err)
	}

	o.UpdatedAt = o.CreatedAt
	return nil
}

func (r *postgresRepository) GetByCodes(ctx context.Context, codes []string) ([]Order, error) {
	if len(codes) == 0 {
		return []Order{}, nil
	}

	query := `
		SELECT order_hash, email, items, status, created_at, updated_at
		FROM orders
		WHERE order_hash = ANY($1)
	`

	rows, err := r.db.Query(ctx, query, codes)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders by codes: %w", err)
	}
	defer rows.Close()

	return scanOrders(rows)
}

func (r *postgresRepository) MarkPaid(ctx context.Context, code string) (*Order, error) {
	query := `
		UPDATE orders
		SET status = $1, updated_at = $2
		WHERE order_hash = $3
		RETURNING order_hash, email, items, status, created_at, updated_at
	`

	var o Order
	err := r.db.QueryRow(ctx, query, string(StatusPaid), time.Now().UTC(), code).Scan(
		&o.OrderHash,
		&o.Email,
		&o.Items,
		&o.Status,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to mark order %s as paid: %w", code, err)
	}

	return &o, nil
}

func (r *postgresRepository) List(ctx context.Context) ([]Order, error) {
	query := `
		SELECT order_hash, email, items, status, created_at, updated_at
		FROM orders
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders: %w", err)
	}
	defer rows.Close()

	return scanOrders(rows)
}

func scanOrders(rows pgx.Rows) ([]Order, error) {
	orders := make([]Order, 0)
	for rows.Next() {
		var o Order
		err := rows.Scan(
			&o.OrderHash,
			&o.Email,
			&o.Items,
			&o.Status,
			&o.CreatedAt,
			&o.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating orders: %w", err)
	}

	return orders, nil
}
