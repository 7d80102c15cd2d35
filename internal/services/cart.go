package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/clefeel/storefront/internal/apperr"
	"github.com/clefeel/storefront/internal/metrics"
	"github.com/clefeel/storefront/internal/models"
	"github.com/clefeel/storefront/internal/store"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

// CartService handles cart-related operations
type CartService struct {
	store   cartStore
	metrics *metrics.AppMetrics
}

type cartStore interface {
	store.Carts
	Variant(ctx context.Context, id int64) (*models.VariantDetail, error)
}

// CartValidation is the result of checking a cart against current stock
type CartValidation struct {
	Valid     bool                   `json:"valid"`
	Shortages []models.StockShortage `json:"items,omitempty"`
}

// NewCartService creates a new cart service
func NewCartService(s cartStore, m *metrics.AppMetrics) *CartService {
	return &CartService{store: s, metrics: m}
}

// GetCart returns the purchasable lines of a user's cart with totals
func (s *CartService) GetCart(ctx context.Context, userID int64) (*models.CartResponse, error) {
	lines, err := s.store.CartLines(ctx, userID)
	if err != nil {
		return nil, storeErr(err, "cart not found", "get cart")
	}

	resp := &models.CartResponse{Items: lines, Total: decimal.Zero}
	if resp.Items == nil {
		resp.Items = []models.CartLine{}
	}
	for _, l := range lines {
		resp.Count += l.Quantity
		resp.Total = resp.Total.Add(l.Total)
	}
	resp.Total = resp.Total.Round(2)
	return resp, nil
}

// Count returns the number of units held in a user's cart
func (s *CartService) Count(ctx context.Context, userID int64) (int, error) {
	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return 0, err
	}
	return cart.Count, nil
}

// Validate lists cart lines whose quantity exceeds current stock
func (s *CartService) Validate(ctx context.Context, userID int64) (*CartValidation, error) {
	lines, err := s.store.CartLines(ctx, userID)
	if err != nil {
		return nil, storeErr(err, "cart not found", "validate cart")
	}

	res := &CartValidation{Valid: true}
	for _, l := range lines {
		if l.Quantity > l.StockQuantity {
			res.Shortages = append(res.Shortages, models.StockShortage{
				CartID:    l.CartID,
				Name:      l.PerfumeName,
				Size:      l.Size,
				Requested: l.Quantity,
				Available: l.StockQuantity,
			})
		}
	}
	res.Valid = len(res.Shortages) == 0
	return res, nil
}

func (s *CartService) purchasableVariant(ctx context.Context, variantID int64) (*models.VariantDetail, error) {
	v, err := s.store.Variant(ctx, variantID)
	if err != nil {
		return nil, storeErr(err, "product variant not found", "get variant")
	}
	if !v.Purchasable() {
		return nil, apperr.Validation("product is not available")
	}
	return v, nil
}

// AddItem adds quantity units of a variant, merging with an existing line.
// The merged quantity may not exceed stock.
func (s *CartService) AddItem(ctx context.Context, userID int64, req models.AddToCartRequest) (*models.CartItem, error) {
	qty := req.Quantity
	if qty == 0 {
		qty = 1
	}
	if qty < 1 {
		return nil, apperr.Validation("quantity must be at least 1")
	}

	v, err := s.purchasableVariant(ctx, req.VariantID)
	if err != nil {
		return nil, err
	}
	held, err := s.store.CartQuantity(ctx, userID, v.ID)
	if err != nil {
		return nil, storeErr(err, "cart not found", "get cart quantity")
	}
	if held+qty > v.StockQuantity {
		s.rejectStock(ctx, "cart_add")
		return nil, apperr.InsufficientStock(v.ID, v.Label(), held+qty, v.StockQuantity)
	}

	id, err := s.store.AddToCart(ctx, userID, v.ID, qty)
	if err != nil {
		return nil, storeErr(err, "product variant not found", "add to cart")
	}
	item := &models.CartItem{ID: id, UserID: userID, VariantID: v.ID, Quantity: held + qty}
	s.metrics.CartItemsCount.Record(ctx, int64(item.Quantity), s.metrics.Attrs(attribute.Int64("variant_id", v.ID)))
	slog.DebugContext(ctx, "cart line added", "user_id", userID, "variant_id", v.ID, "quantity", item.Quantity)
	return item, nil
}

// UpdateItem sets the quantity of one of the user's cart lines
func (s *CartService) UpdateItem(ctx context.Context, userID, cartID int64, quantity int) error {
	if quantity < 1 {
		return apperr.Validation("quantity must be at least 1")
	}
	item, err := s.store.CartItem(ctx, userID, cartID)
	if err != nil {
		return storeErr(err, "cart item not found", "get cart item")
	}
	v, err := s.store.Variant(ctx, item.VariantID)
	if err != nil {
		return storeErr(err, "product variant not found", "get variant")
	}
	if quantity > v.StockQuantity {
		s.rejectStock(ctx, "cart_update")
		return apperr.InsufficientStock(v.ID, v.Label(), quantity, v.StockQuantity)
	}

	if err := s.store.SetCartQuantity(ctx, userID, cartID, quantity); err != nil {
		return storeErr(err, "cart item not found", "update cart item")
	}
	return nil
}

// RemoveItem deletes one of the user's cart lines
func (s *CartService) RemoveItem(ctx context.Context, userID, cartID int64) error {
	if err := s.store.RemoveCartItem(ctx, userID, cartID); err != nil {
		return storeErr(err, "cart item not found", "remove cart item")
	}
	return nil
}

// Clear empties the user's cart
func (s *CartService) Clear(ctx context.Context, userID int64) error {
	if err := s.store.ClearCart(ctx, userID); err != nil {
		return storeErr(err, "cart not found", "clear cart")
	}
	return nil
}

// MonitorActiveCarts records the active cart gauge every interval until ctx
// is cancelled
func (s *CartService) MonitorActiveCarts(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		s.recordActiveCarts(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *CartService) recordActiveCarts(ctx context.Context) {
	n, err := s.store.ActiveCarts(ctx)
	if err != nil {
		if ctx.Err() == nil {
			slog.WarnContext(ctx, "failed to count active carts", "error", err)
		}
		return
	}
	s.metrics.ActiveCartsCount.Record(ctx, int64(n), s.metrics.Attrs())
}

func (s *CartService) rejectStock(ctx context.Context, source string) {
	s.metrics.StockRejections.Add(ctx, 1, s.metrics.Attrs(attribute.String("source", source)))
}
