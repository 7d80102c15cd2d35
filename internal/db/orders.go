package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/clefeel/storefront/internal/models"
	"github.com/clefeel/storefront/internal/store"
	"github.com/shopspring/decimal"
)

// orderTx implements store.OrderTx over a *sql.Tx
type orderTx struct {
	s  *Store
	tx *sql.Tx
}

func (t *orderTx) LockVariants(ctx context.Context, ids []int64) (map[int64]models.VariantDetail, error) {
	out := make(map[int64]models.VariantDetail, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	// Ascending id order keeps concurrent checkouts from deadlocking
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	args := make([]any, len(sorted))
	for i, id := range sorted {
		args[i] = id
	}

	query := variantDetailQuery + " WHERE v.id IN (" + placeholders(len(args)) + ") ORDER BY v.id FOR UPDATE"
	rows, err := t.s.query(ctx, t.tx, "variants", query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to lock variants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		d, err := scanVariantDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan variant: %w", err)
		}
		out[d.ID] = d
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to lock variants: %w", err)
	}
	return out, nil
}

func (t *orderTx) CartLines(ctx context.Context, userID int64) ([]models.LineRequest, error) {
	query := `
		SELECT c.variant_id, c.quantity
		FROM cart c
		JOIN variants v ON c.variant_id = v.id
		JOIN perfumes p ON v.perfume_id = p.id
		WHERE c.user_id = ? AND v.is_active = TRUE AND p.is_active = TRUE
		ORDER BY c.id
	`
	rows, err := t.s.query(ctx, t.tx, "cart", query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart items: %w", err)
	}
	defer rows.Close()

	lines := []models.LineRequest{}
	for rows.Next() {
		var l models.LineRequest
		if err := rows.Scan(&l.VariantID, &l.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get cart items: %w", err)
	}
	return lines, nil
}

func (t *orderTx) InsertOrder(ctx context.Context, o *models.Order) error {
	shipping, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return fmt.Errorf("failed to encode shipping address: %w", err)
	}
	var billing []byte
	if o.BillingAddress != nil {
		if billing, err = json.Marshal(o.BillingAddress); err != nil {
			return fmt.Errorf("failed to encode billing address: %w", err)
		}
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = timeNow()
	}
	o.UpdatedAt = o.CreatedAt

	query := `INSERT INTO orders (order_number, user_id, guest_email, guest_phone, guest_name, status,
		payment_status, payment_method, total_amount, shipping_address, billing_address, notes,
		created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := t.s.exec(ctx, t.tx, "INSERT", "orders", query,
		o.OrderNumber, nullInt64(o.UserID), o.GuestEmail, o.GuestPhone, o.GuestName, o.Status,
		o.PaymentStatus, o.PaymentMethod, o.TotalAmount, shipping, billing, nullString(o.Notes),
		o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", mapError(err))
	}
	if o.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to get order ID: %w", err)
	}
	return nil
}

func (t *orderTx) InsertOrderLine(ctx context.Context, l *models.OrderLine) error {
	query := `INSERT INTO order_items (order_id, variant_id, perfume_name, size, quantity, unit_price, total_price)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := t.s.exec(ctx, t.tx, "INSERT", "order_items", query,
		l.OrderID, nullInt64(l.VariantID), l.PerfumeName, l.Size, l.Quantity, l.UnitPrice, l.TotalPrice)
	if err != nil {
		return fmt.Errorf("failed to create order item: %w", err)
	}
	if l.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to get order item ID: %w", err)
	}
	return nil
}

func (t *orderTx) DecrementStock(ctx context.Context, variantID int64, quantity int) error {
	query := "UPDATE variants SET stock_quantity = stock_quantity - ? WHERE id = ? AND stock_quantity >= ?"
	res, err := t.s.exec(ctx, t.tx, "UPDATE", "variants", query, quantity, variantID, quantity)
	if err != nil {
		return fmt.Errorf("failed to update stock: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update stock: %w", err)
	}
	if n == 0 {
		return store.ErrStockChanged
	}
	return nil
}

func (t *orderTx) ClearCart(ctx context.Context, userID int64) error {
	query := "DELETE FROM cart WHERE user_id = ?"
	if _, err := t.s.exec(ctx, t.tx, "DELETE", "cart", query, userID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

const orderColumns = `id, order_number, user_id, guest_email, guest_phone, guest_name, status, payment_status,
	payment_method, total_amount, shipping_address, billing_address, notes, created_at, updated_at`

func scanOrder(r rowScanner) (models.Order, error) {
	var (
		o        models.Order
		userID   sql.NullInt64
		shipping []byte
		billing  []byte
		notes    sql.NullString
	)
	err := r.Scan(&o.ID, &o.OrderNumber, &userID, &o.GuestEmail, &o.GuestPhone, &o.GuestName, &o.Status,
		&o.PaymentStatus, &o.PaymentMethod, &o.TotalAmount, &shipping, &billing, &notes, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return o, err
	}
	o.UserID = int64Ptr(userID)
	o.Notes = notes.String
	if len(shipping) > 0 {
		if err := json.Unmarshal(shipping, &o.ShippingAddress); err != nil {
			return o, fmt.Errorf("failed to decode shipping address: %w", err)
		}
	}
	if len(billing) > 0 && string(billing) != "null" {
		o.BillingAddress = &models.Address{}
		if err := json.Unmarshal(billing, o.BillingAddress); err != nil {
			return o, fmt.Errorf("failed to decode billing address: %w", err)
		}
	}
	return o, nil
}

// listOrders runs an order query and optionally attaches the lines
func (s *Store) listOrders(ctx context.Context, query string, args []any, withItems bool) ([]models.Order, error) {
	rows, err := s.query(ctx, s.db, "orders", query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get orders: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get orders: %w", err)
	}
	rows.Close()

	if !withItems || len(orders) == 0 {
		return orders, nil
	}
	if err := s.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *Store) attachItems(ctx context.Context, orders []models.Order) error {
	index := make(map[int64]int, len(orders))
	ids := make([]any, 0, len(orders))
	for i, o := range orders {
		index[o.ID] = i
		ids = append(ids, o.ID)
		orders[i].Items = []models.OrderLine{}
	}

	query := `SELECT id, order_id, variant_id, perfume_name, size, quantity, unit_price, total_price
		FROM order_items WHERE order_id IN (` + placeholders(len(ids)) + `) ORDER BY id`
	rows, err := s.query(ctx, s.db, "order_items", query, ids...)
	if err != nil {
		return fmt.Errorf("failed to get order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			l         models.OrderLine
			variantID sql.NullInt64
		)
		if err := rows.Scan(&l.ID, &l.OrderID, &variantID, &l.PerfumeName, &l.Size, &l.Quantity,
			&l.UnitPrice, &l.TotalPrice); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		l.VariantID = int64Ptr(variantID)
		if i, ok := index[l.OrderID]; ok {
			orders[i].Items = append(orders[i].Items, l)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to get order items: %w", err)
	}
	return nil
}

func (s *Store) OrderByID(ctx context.Context, id int64) (*models.Order, error) {
	orders, err := s.listOrders(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = ?", []any{id}, true)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, store.ErrNotFound
	}
	return &orders[0], nil
}

func (s *Store) OrdersByUser(ctx context.Context, userID int64, limit, offset int) ([]models.Order, int, error) {
	total, err := s.count(ctx, "orders", "SELECT COUNT(*) FROM orders WHERE user_id = ?", userID)
	if err != nil {
		return nil, 0, err
	}
	query := "SELECT " + orderColumns + " FROM orders WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	orders, err := s.listOrders(ctx, query, []any{userID, limit, offset}, true)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (s *Store) ListOrders(ctx context.Context, f models.OrderFilter) ([]models.Order, int, error) {
	where := ""
	var args []any
	if f.Status != "" {
		where = " WHERE status = ?"
		args = append(args, f.Status)
	}

	total, err := s.count(ctx, "orders", "SELECT COUNT(*) FROM orders"+where, args...)
	if err != nil {
		return nil, 0, err
	}

	query := "SELECT " + orderColumns + " FROM orders" + where + " ORDER BY created_at DESC, id DESC"
	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}
	orders, err := s.listOrders(ctx, query, args, false)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (s *Store) RecentOrders(ctx context.Context, limit int) ([]models.Order, error) {
	query := "SELECT " + orderColumns + " FROM orders ORDER BY created_at DESC, id DESC LIMIT ?"
	return s.listOrders(ctx, query, []any{limit}, false)
}

func (s *Store) orderStatus(ctx context.Context, id int64) (models.OrderStatus, error) {
	var status models.OrderStatus
	err := s.queryRow(ctx, s.db, "orders", "SELECT status FROM orders WHERE id = ?", []any{id}, &status)
	return status, err
}

func (s *Store) UpdateOrderStatus(ctx context.Context, id int64, from, to models.OrderStatus) error {
	query := "UPDATE orders SET status = ? WHERE id = ? AND status = ?"
	res, err := s.exec(ctx, s.db, "UPDATE", "orders", query, to, id, from)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	if _, err := s.orderStatus(ctx, id); err != nil {
		return err
	}
	return store.ErrStatusChanged
}

func (s *Store) UpdatePaymentStatus(ctx context.Context, id int64, status models.PaymentStatus, method string) error {
	query := "UPDATE orders SET payment_status = ?, payment_method = COALESCE(NULLIF(?, ''), payment_method) WHERE id = ?"
	res, err := s.exec(ctx, s.db, "UPDATE", "orders", query, status, method, id)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := s.orderStatus(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) OrderStats(ctx context.Context, since time.Time) (store.OrderStats, error) {
	var stats store.OrderStats
	query := `SELECT COUNT(*), COALESCE(SUM(CASE WHEN status <> 'cancelled' THEN total_amount ELSE 0 END), 0)
		FROM orders WHERE created_at >= ?`
	var revenue decimal.Decimal
	if err := s.queryRow(ctx, s.db, "orders", query, []any{since}, &stats.Orders, &revenue); err != nil {
		return stats, fmt.Errorf("failed to get order stats: %w", err)
	}
	stats.Revenue = revenue

	pending, err := s.count(ctx, "orders", "SELECT COUNT(*) FROM orders WHERE status = ?", models.OrderPending)
	if err != nil {
		return stats, err
	}
	stats.Pending = pending
	return stats, nil
}
