package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/avelinak/atelier-shop/internal/domain/order"
	"github.com/avelinak/atelier-shop/internal/domain/promo"
)

const (
	orderColumns = `id, number, items, subtotal, promo_code, promo_discount_type,
		promo_discount_value, shipping_fee, total_amount, customer_name,
		customer_email, phone_number, address, special_instructions, status,
		created_at, updated_at`

	createOrderSQL = `INSERT INTO orders (id, number, items, subtotal, promo_code,
		promo_discount_type, promo_discount_value, shipping_fee, total_amount,
		customer_name, customer_email, phone_number, address,
		special_instructions, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	getOrderByIDSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	listOrdersSQL = `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`

	listOrdersByEmailSQL = `SELECT ` + orderColumns + `
		FROM orders WHERE customer_email = LOWER($1) ORDER BY created_at DESC`

	updateOrderSQL = `UPDATE orders SET
		items = $2, subtotal = $3, promo_code = $4, promo_discount_type = $5,
		promo_discount_value = $6, shipping_fee = $7, total_amount = $8,
		customer_name = $9, customer_email = $10, phone_number = $11,
		address = $12, special_instructions = $13, status = $14, updated_at = now()
		WHERE id = $1`

	deleteOrderSQL = `DELETE FROM orders WHERE id = $1`

	orderStatsSQL = `SELECT status, COUNT(*), COALESCE(SUM(total_amount), 0)
		FROM orders GROUP BY status`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. Line
// items are serialized to a JSONB column; the promo discount is flattened
// into a nullable type/value column pair.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshaling order items: %w", err)
	}

	discountType, discountValue := flattenDiscount(o.PromoDiscount)
	_, err = r.pool.Exec(ctx, createOrderSQL,
		o.ID, o.Number, itemsJSON, o.Subtotal, o.PromoCode,
		discountType, discountValue, o.ShippingFee, o.TotalAmount,
		o.CustomerName, o.CustomerEmail, o.PhoneNumber, o.Address,
		o.SpecialInstructions, string(o.Status),
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

// GetByID returns a single order by its identifier.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return &o, nil
}

// List returns every order, newest first.
func (r *OrderRepository) List(ctx context.Context) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// ListByEmail returns the orders placed under the given customer email,
// newest first.
func (r *OrderRepository) ListByEmail(ctx context.Context, email string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersByEmailSQL, email)
	if err != nil {
		return nil, fmt.Errorf("listing orders for %q: %w", email, err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// Update persists all mutable order fields.
func (r *OrderRepository) Update(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshaling order items: %w", err)
	}

	discountType, discountValue := flattenDiscount(o.PromoDiscount)
	tag, err := r.pool.Exec(ctx, updateOrderSQL,
		o.ID, itemsJSON, o.Subtotal, o.PromoCode,
		discountType, discountValue, o.ShippingFee, o.TotalAmount,
		o.CustomerName, o.CustomerEmail, o.PhoneNumber, o.Address,
		o.SpecialInstructions, string(o.Status),
	)
	if err != nil {
		return fmt.Errorf("updating order %q: %w", o.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// Delete removes an order by ID.
func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteOrderSQL, id)
	if err != nil {
		return fmt.Errorf("deleting order %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// Stats aggregates order counts and revenue grouped by status.
func (r *OrderRepository) Stats(ctx context.Context) (*order.Stats, error) {
	rows, err := r.pool.Query(ctx, orderStatsSQL)
	if err != nil {
		return nil, fmt.Errorf("aggregating order stats: %w", err)
	}
	defer rows.Close()

	stats := &order.Stats{
		TotalRevenue: decimal.Zero,
		ByStatus:     make(map[order.Status]int64),
	}
	for rows.Next() {
		var (
			status  string
			count   int64
			revenue decimal.Decimal
		)
		if err := rows.Scan(&status, &count, &revenue); err != nil {
			return nil, fmt.Errorf("scanning order stats: %w", err)
		}
		stats.ByStatus[order.Status(status)] = count
		stats.TotalOrders += count
		stats.TotalRevenue = stats.TotalRevenue.Add(revenue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("aggregating order stats: %w", err)
	}
	return stats, nil
}

func flattenDiscount(d *order.Discount) (*string, *decimal.Decimal) {
	if d == nil {
		return nil, nil
	}
	t := string(d.Type)
	v := d.Value
	return &t, &v
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o             order.Order
		itemsJSON     []byte
		status        string
		discountType  *string
		discountValue *decimal.Decimal
	)
	err := row.Scan(
		&o.ID, &o.Number, &itemsJSON, &o.Subtotal, &o.PromoCode,
		&discountType, &discountValue, &o.ShippingFee, &o.TotalAmount,
		&o.CustomerName, &o.CustomerEmail, &o.PhoneNumber, &o.Address,
		&o.SpecialInstructions, &status, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return o, err
	}

	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return o, fmt.Errorf("unmarshaling order items: %w", err)
	}
	o.Status = order.Status(status)
	if discountType != nil && discountValue != nil {
		o.PromoDiscount = &order.Discount{
			Type:  promo.DiscountType(*discountType),
			Value: *discountValue,
		}
	}
	return o, nil
}
