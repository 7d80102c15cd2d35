package services

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/clefeel/storefront/internal/apperr"
	"github.com/clefeel/storefront/internal/metrics"
	"github.com/clefeel/storefront/internal/models"
	"github.com/clefeel/storefront/internal/notify"
	"github.com/clefeel/storefront/internal/store"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

const (
	orderNumberPrefix = "CF"
	recentOrdersLimit = 10
)

// OrderService handles order placement and the order lifecycle
type OrderService struct {
	store   store.Orders
	notify  Notifications
	metrics *metrics.AppMetrics
	ids     *snowflake.Node
}

// OrderList is one page of orders
type OrderList struct {
	Orders     []models.Order `json:"orders"`
	Pagination Pagination     `json:"pagination"`
}

// NewOrderService creates a new order service. node generates order
// numbers and must be unique per running instance.
func NewOrderService(s store.Orders, n Notifications, m *metrics.AppMetrics, node *snowflake.Node) *OrderService {
	return &OrderService{store: s, notify: n, metrics: m, ids: node}
}

// placement is everything an order transaction needs. lines is nil when
// the order is sourced from the user's cart.
type placement struct {
	source   string
	userID   *int64
	lines    []models.LineRequest
	customer models.CustomerInfo
	email    string
	payment  string
	notes    string
}

// CreateOrder places a direct order. caller is nil for guest checkout.
func (s *OrderService) CreateOrder(ctx context.Context, caller *models.User, req models.CreateOrderRequest) (*models.OrderSummary, error) {
	p := placement{
		source:   "direct",
		customer: req.Customer,
		email:    req.Customer.Email,
		payment:  req.PaymentMethod,
		notes:    req.Notes,
	}
	if caller != nil {
		p.userID = &caller.ID
		if p.email == "" {
			p.email = caller.Email
		}
	}
	if p.email == "" {
		return nil, apperr.Validation("email is required for guest checkout")
	}
	for _, it := range req.Items {
		p.lines = append(p.lines, models.LineRequest{VariantID: it.VariantID, Quantity: it.Quantity})
	}
	if len(p.lines) == 0 {
		return nil, apperr.Validation("order must contain at least one item")
	}
	return s.place(ctx, p)
}

// CreateOrderFromCart places an order for everything in the user's cart and
// empties the cart in the same transaction
func (s *OrderService) CreateOrderFromCart(ctx context.Context, user *models.User, req models.CheckoutRequest) (*models.OrderSummary, error) {
	return s.place(ctx, placement{
		source:   "cart",
		userID:   &user.ID,
		customer: req.Customer,
		email:    user.Email,
		payment:  req.PaymentMethod,
		notes:    req.Notes,
	})
}

func (s *OrderService) place(ctx context.Context, p placement) (*models.OrderSummary, error) {
	if p.payment == "" {
		p.payment = "cod"
	}

	var (
		order  *models.Order
		stocks map[int64]int
	)
	err := s.store.InTx(ctx, func(tx store.OrderTx) error {
		lines := p.lines
		if lines == nil {
			var err error
			if lines, err = tx.CartLines(ctx, *p.userID); err != nil {
				return apperr.Internal(err, "failed to read cart")
			}
			if len(lines) == 0 {
				return apperr.Validation("cart is empty")
			}
		}

		ids := make([]int64, 0, len(lines))
		for _, l := range lines {
			ids = append(ids, l.VariantID)
		}
		locked, err := tx.LockVariants(ctx, ids)
		if err != nil {
			return apperr.Internal(err, "failed to lock variants")
		}

		items, total, err := priceLines(lines, locked)
		if err != nil {
			return err
		}

		order = s.newOrder(p, total)
		if err := tx.InsertOrder(ctx, order); err != nil {
			return apperr.Internal(err, "failed to create order")
		}

		stocks = make(map[int64]int, len(locked))
		for i := range items {
			it := &items[i]
			it.OrderID = order.ID
			if err := tx.InsertOrderLine(ctx, it); err != nil {
				return apperr.Internal(err, "failed to create order item")
			}
			v := locked[*it.VariantID]
			if err := tx.DecrementStock(ctx, v.ID, it.Quantity); err != nil {
				if errors.Is(err, store.ErrStockChanged) {
					return apperr.InsufficientStock(v.ID, v.Label(), it.Quantity, v.StockQuantity)
				}
				return apperr.Internal(err, "failed to update stock")
			}
			if _, seen := stocks[v.ID]; !seen {
				stocks[v.ID] = v.StockQuantity
			}
			stocks[v.ID] -= it.Quantity
		}
		order.Items = items

		if p.lines == nil {
			if err := tx.ClearCart(ctx, *p.userID); err != nil {
				return apperr.Internal(err, "failed to clear cart")
			}
		}
		return nil
	})
	if err != nil {
		if apperr.Is(err, apperr.KindInsufficientStock) {
			s.metrics.StockRejections.Add(ctx, 1, s.metrics.Attrs(attribute.String("source", "order_"+p.source)))
		}
		if _, ok := apperr.As(err); !ok {
			err = apperr.Internal(err, "failed to create order")
		}
		return nil, err
	}

	s.recordPlaced(ctx, order, p, stocks)
	slog.InfoContext(ctx, "order placed",
		"order_id", order.ID,
		"order_number", order.OrderNumber,
		"source", p.source,
		"total", order.TotalAmount.StringFixed(2),
		"items", len(order.Items),
	)

	s.notify.OrderPlaced(ctx, notify.OrderPlaced{
		Order: *order,
		Customer: notify.Customer{
			Name:    p.customer.Name,
			Email:   p.email,
			Phone:   p.customer.Phone,
			Address: formatAddress(order.ShippingAddress),
		},
	})

	summary := order.Summary()
	return &summary, nil
}

// priceLines validates lines in request order against the locked variants
// and prices them. The requested quantity per variant is accumulated across
// lines before comparing with stock.
func priceLines(lines []models.LineRequest, locked map[int64]models.VariantDetail) ([]models.OrderLine, decimal.Decimal, error) {
	items := make([]models.OrderLine, 0, len(lines))
	wanted := make(map[int64]int, len(lines))
	total := decimal.Zero

	for i, l := range lines {
		if l.Quantity < 1 {
			return nil, total, apperr.Validation("quantity must be at least 1").With("line", i)
		}
		v, ok := locked[l.VariantID]
		if !ok {
			return nil, total, apperr.Validation("product variant %d not found", l.VariantID).With("line", i)
		}
		if !v.Purchasable() {
			return nil, total, apperr.Validation("%s is not available", v.Label()).With("line", i)
		}
		wanted[v.ID] += l.Quantity
		if wanted[v.ID] > v.StockQuantity {
			return nil, total, apperr.InsufficientStock(v.ID, v.Label(), wanted[v.ID], v.StockQuantity).
				With("line", i).
				With("product", v.PerfumeName).
				With("size", v.Size)
		}

		vid := v.ID
		lineTotal := v.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
		items = append(items, models.OrderLine{
			VariantID:   &vid,
			PerfumeName: v.PerfumeName,
			Size:        v.Size,
			Quantity:    l.Quantity,
			UnitPrice:   v.Price,
			TotalPrice:  lineTotal,
		})
		total = total.Add(lineTotal)
	}
	return items, total.Round(2), nil
}

func (s *OrderService) newOrder(p placement, total decimal.Decimal) *models.Order {
	o := &models.Order{
		OrderNumber:     orderNumberPrefix + strings.ToUpper(s.ids.Generate().Base36()),
		UserID:          p.userID,
		GuestPhone:      p.customer.Phone,
		GuestName:       p.customer.Name,
		Status:          models.OrderPending,
		PaymentStatus:   models.PaymentPending,
		PaymentMethod:   p.payment,
		TotalAmount:     total,
		ShippingAddress: p.customer.ShippingAddress(),
		BillingAddress:  p.customer.BillingAddress,
		Notes:           p.notes,
	}
	// cart orders belong to an account, whose email is authoritative
	if p.lines != nil {
		o.GuestEmail = p.customer.Email
	}
	return o
}

func (s *OrderService) recordPlaced(ctx context.Context, o *models.Order, p placement, stocks map[int64]int) {
	attrs := s.metrics.Attrs(
		attribute.String("source", p.source),
		attribute.String("payment_method", o.PaymentMethod),
		attribute.Bool("guest", o.UserID == nil),
	)
	s.metrics.OrdersCreated.Add(ctx, 1, attrs)
	s.metrics.RevenueTotal.Add(ctx, o.TotalAmount.InexactFloat64(), attrs)

	ids := make([]int64, 0, len(stocks))
	for id := range stocks {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		s.metrics.InventoryLevel.Record(ctx, int64(stocks[id]), s.metrics.Attrs(attribute.Int64("variant_id", id)))
	}
}

func formatAddress(a models.Address) string {
	parts := make([]string, 0, 5)
	for _, p := range []string{a.Street, a.City, a.State, a.ZipCode, a.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// GetOrder returns an order with its lines. Only the owner or an admin may
// read it.
func (s *OrderService) GetOrder(ctx context.Context, caller *models.User, id int64) (*models.Order, error) {
	o, err := s.store.OrderByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "order not found", "get order")
	}
	if !caller.IsAdmin() && (caller == nil || !o.OwnedBy(caller.ID)) {
		return nil, apperr.Forbidden("access denied")
	}
	return o, nil
}

// MyOrders returns the user's orders, newest first, with their lines
func (s *OrderService) MyOrders(ctx context.Context, userID int64, page, limit int) (*OrderList, error) {
	pg := NewPagination(page, limit)
	orders, total, err := s.store.OrdersByUser(ctx, userID, pg.Limit, pg.Offset())
	if err != nil {
		return nil, storeErr(err, "order not found", "list orders")
	}
	return &OrderList{Orders: nonNil(orders), Pagination: pg.withTotal(total)}, nil
}

// ListOrders returns a page of all orders, optionally filtered by status
func (s *OrderService) ListOrders(ctx context.Context, status string, page, limit int) (*OrderList, error) {
	f := models.OrderFilter{Status: models.OrderStatus(status)}
	if status != "" && !f.Status.Valid() {
		return nil, apperr.Validation("invalid status %q", status)
	}
	pg := NewPagination(page, limit)
	f.Limit, f.Offset = pg.Limit, pg.Offset()

	orders, total, err := s.store.ListOrders(ctx, f)
	if err != nil {
		return nil, storeErr(err, "order not found", "list orders")
	}
	return &OrderList{Orders: nonNil(orders), Pagination: pg.withTotal(total)}, nil
}

// RecentOrders returns the latest orders for the admin dashboard
func (s *OrderService) RecentOrders(ctx context.Context) ([]models.Order, error) {
	orders, err := s.store.RecentOrders(ctx, recentOrdersLimit)
	if err != nil {
		return nil, storeErr(err, "order not found", "list recent orders")
	}
	return nonNil(orders), nil
}

// UpdateStatus moves an order along its lifecycle. The write only applies
// if the status is still the one the transition was checked against.
func (s *OrderService) UpdateStatus(ctx context.Context, id int64, next models.OrderStatus) (*models.Order, error) {
	if !next.Valid() {
		return nil, apperr.Validation("invalid status %q", next)
	}
	o, err := s.store.OrderByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "order not found", "get order")
	}
	if !o.Status.CanTransitionTo(next) {
		return nil, apperr.Validation("cannot change status from %s to %s", o.Status, next)
	}

	if err := s.store.UpdateOrderStatus(ctx, id, o.Status, next); err != nil {
		if errors.Is(err, store.ErrStatusChanged) {
			return nil, apperr.Conflict("order status was changed by another request")
		}
		return nil, storeErr(err, "order not found", "update order status")
	}
	slog.InfoContext(ctx, "order status updated", "order_id", id, "from", o.Status, "to", next)
	o.Status = next
	return o, nil
}

// UpdatePayment sets the payment status and, optionally, the payment method
func (s *OrderService) UpdatePayment(ctx context.Context, id int64, req models.UpdatePaymentStatusRequest) error {
	if !req.PaymentStatus.Valid() {
		return apperr.Validation("invalid payment status %q", req.PaymentStatus)
	}
	if err := s.store.UpdatePaymentStatus(ctx, id, req.PaymentStatus, req.PaymentMethod); err != nil {
		return storeErr(err, "order not found", "update payment status")
	}
	slog.InfoContext(ctx, "payment status updated", "order_id", id, "payment_status", req.PaymentStatus)
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
