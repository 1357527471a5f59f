// internal/adapters/repository/postgres.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/vanamwellness/checkout-service/internal/domain"
)

const (
	insertOrderSQL = `
		INSERT INTO checkout_orders (
			order_id, idempotency_key, phone, email, phone_verified, email_verified,
			full_name, address_line1, address_line2, city, state, pincode, address_type, landmark,
			subtotal, shipping, tax, total, currency, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		ON CONFLICT (idempotency_key) DO NOTHING
		RETURNING order_id`

	selectOrderIDByKeySQL = `SELECT order_id FROM checkout_orders WHERE idempotency_key = $1`

	insertItemSQL = `
		INSERT INTO checkout_order_items (id, order_id, product_id, slug, name, unit_price, quantity, currency)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	selectOrderSQL = `
		SELECT order_id, idempotency_key, phone, email, phone_verified, email_verified,
			full_name, address_line1, address_line2, city, state, pincode, address_type, landmark,
			subtotal, shipping, tax, total, currency, created_at
		FROM checkout_orders WHERE order_id = $1`

	selectItemsSQL = `
		SELECT product_id, slug, name, unit_price, quantity, currency
		FROM checkout_order_items WHERE order_id = $1 ORDER BY id`
)

// OrderRepository stores confirmed checkouts. An order is written at most once per
// idempotency key; a repeated PlaceOrder returns the id stored the first time.
type OrderRepository struct {
	db    *sql.DB
	newID func() string
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db, newID: uuid.NewString}
}

func (r *OrderRepository) PlaceOrder(ctx context.Context, o *domain.OrderRecord) (string, error) {
	if o.IdempotencyKey == "" {
		return "", errors.New("idempotency key is required")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	v, a, t := o.Verification, o.Address, o.Totals
	var orderID string
	err = tx.QueryRowContext(ctx, insertOrderSQL,
		o.OrderID, o.IdempotencyKey, v.Phone, v.Email, v.PhoneVerified, v.EmailVerified,
		a.FullName, a.AddressLine1, a.AddressLine2, a.City, a.State, a.Pincode, string(a.AddressType), a.Landmark,
		t.Subtotal, t.Shipping, t.Tax, t.Total, t.Currency, o.CreatedAt,
	).Scan(&orderID)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		// already placed under this key
		if err := tx.QueryRowContext(ctx, selectOrderIDByKeySQL, o.IdempotencyKey).Scan(&orderID); err != nil {
			return "", fmt.Errorf("select existing order: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return "", fmt.Errorf("commit: %w", err)
		}
		return orderID, nil
	case err != nil:
		return "", fmt.Errorf("insert order: %w", err)
	}

	for _, it := range o.Items {
		if _, err := tx.ExecContext(ctx, insertItemSQL,
			r.newID(), orderID, it.ProductID, it.Slug, it.Name, it.UnitPrice, it.Quantity, it.Currency,
		); err != nil {
			return "", fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return orderID, nil
}

func (r *OrderRepository) GetOrder(ctx context.Context, orderID string) (*domain.OrderRecord, error) {
	o := &domain.OrderRecord{}
	v, a, t := &o.Verification, &o.Address, &o.Totals
	var addressType string
	err := r.db.QueryRowContext(ctx, selectOrderSQL, orderID).Scan(
		&o.OrderID, &o.IdempotencyKey, &v.Phone, &v.Email, &v.PhoneVerified, &v.EmailVerified,
		&a.FullName, &a.AddressLine1, &a.AddressLine2, &a.City, &a.State, &a.Pincode, &addressType, &a.Landmark,
		&t.Subtotal, &t.Shipping, &t.Tax, &t.Total, &t.Currency, &o.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("select order: %w", err)
	}
	a.AddressType = domain.AddressType(addressType)
	a.Phone, a.Email = v.Phone, v.Email
	if v.PhoneVerified && v.EmailVerified {
		v.State = domain.VerifyDone
	}

	rows, err := r.db.QueryContext(ctx, selectItemsSQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("select order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it domain.OrderLineItem
		if err := rows.Scan(&it.ProductID, &it.Slug, &it.Name, &it.UnitPrice, &it.Quantity, &it.Currency); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}
	return o, nil
}

func (r *OrderRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
