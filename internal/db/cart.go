package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/clefeel/storefront/internal/models"
	"github.com/clefeel/storefront/internal/store"
)

func (s *Store) CartLines(ctx context.Context, userID int64) ([]models.CartLine, error) {
	query := `
		SELECT c.id, c.variant_id, p.id, p.name, p.slug, v.size, v.price, c.quantity, v.stock_quantity,
			JSON_UNQUOTE(JSON_EXTRACT(p.images, '$[0]')), v.price * c.quantity
		FROM cart c
		JOIN variants v ON c.variant_id = v.id
		JOIN perfumes p ON v.perfume_id = p.id
		WHERE c.user_id = ? AND v.is_active = TRUE AND p.is_active = TRUE
		ORDER BY c.created_at DESC, c.id DESC
	`
	rows, err := s.query(ctx, s.db, "cart", query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	defer rows.Close()

	lines := []models.CartLine{}
	for rows.Next() {
		var (
			l     models.CartLine
			image sql.NullString
		)
		if err := rows.Scan(&l.CartID, &l.VariantID, &l.PerfumeID, &l.PerfumeName, &l.Slug, &l.Size,
			&l.Price, &l.Quantity, &l.StockQuantity, &image, &l.Total); err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		if image.Valid {
			l.Image = &image.String
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return lines, nil
}

func (s *Store) CartItem(ctx context.Context, userID, cartID int64) (*models.CartItem, error) {
	var c models.CartItem
	query := "SELECT id, user_id, variant_id, quantity, created_at FROM cart WHERE id = ? AND user_id = ?"
	err := s.queryRow(ctx, s.db, "cart", query, []any{cartID, userID},
		&c.ID, &c.UserID, &c.VariantID, &c.Quantity, &c.CreatedAt)
	if errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cart item: %w", err)
	}
	return &c, nil
}

func (s *Store) CartQuantity(ctx context.Context, userID, variantID int64) (int, error) {
	var qty int
	query := "SELECT quantity FROM cart WHERE user_id = ? AND variant_id = ?"
	err := s.queryRow(ctx, s.db, "cart", query, []any{userID, variantID}, &qty)
	if errors.Is(err, store.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get cart quantity: %w", err)
	}
	return qty, nil
}

func (s *Store) AddToCart(ctx context.Context, userID, variantID int64, quantity int) (int64, error) {
	query := `INSERT INTO cart (user_id, variant_id, quantity) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE quantity = quantity + VALUES(quantity)`
	if _, err := s.exec(ctx, s.db, "INSERT", "cart", query, userID, variantID, quantity); err != nil {
		return 0, fmt.Errorf("failed to add to cart: %w", mapError(err))
	}

	// LastInsertId is unreliable for the update branch of an upsert
	var id int64
	idQuery := "SELECT id FROM cart WHERE user_id = ? AND variant_id = ?"
	if err := s.queryRow(ctx, s.db, "cart", idQuery, []any{userID, variantID}, &id); err != nil {
		return 0, fmt.Errorf("failed to get cart item ID: %w", err)
	}
	return id, nil
}

func (s *Store) SetCartQuantity(ctx context.Context, userID, cartID int64, quantity int) error {
	query := "UPDATE cart SET quantity = ? WHERE id = ? AND user_id = ?"
	res, err := s.exec(ctx, s.db, "UPDATE", "cart", query, quantity, cartID, userID)
	if err != nil {
		return fmt.Errorf("failed to update cart: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// unchanged quantity also reports zero rows
		if _, err := s.CartItem(ctx, userID, cartID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) RemoveCartItem(ctx context.Context, userID, cartID int64) error {
	query := "DELETE FROM cart WHERE id = ? AND user_id = ?"
	res, err := s.exec(ctx, s.db, "DELETE", "cart", query, cartID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove from cart: %w", err)
	}
	return expectAffected(res)
}

func (s *Store) ClearCart(ctx context.Context, userID int64) error {
	query := "DELETE FROM cart WHERE user_id = ?"
	if _, err := s.exec(ctx, s.db, "DELETE", "cart", query, userID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

func (s *Store) ActiveCarts(ctx context.Context) (int, error) {
	return s.count(ctx, "cart", "SELECT COUNT(DISTINCT user_id) FROM cart")
}
