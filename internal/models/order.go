package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the delivery lifecycle state of an order
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

// orderFlow is the forward path; position is the rank used for transitions
var orderFlow = []OrderStatus{OrderPending, OrderConfirmed, OrderProcessing, OrderShipped, OrderDelivered}

func (s OrderStatus) rank() int {
	for i, st := range orderFlow {
		if st == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is a known status
func (s OrderStatus) Valid() bool {
	return s == OrderCancelled || s.rank() >= 0
}

// Terminal reports whether no further transition is allowed from s
func (s OrderStatus) Terminal() bool {
	return s == OrderDelivered || s == OrderCancelled
}

// CanTransitionTo reports whether an administrator may move an order from s
// to next. Forward moves may skip stages; cancellation is allowed from any
// non-terminal state.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s.Terminal() || !next.Valid() {
		return false
	}
	if next == OrderCancelled {
		return true
	}
	return next.rank() > s.rank()
}

// PaymentStatus tracks payment independently from delivery
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// Valid reports whether p is a known payment status
func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

// Address is a shipping or billing address snapshot stored with the order
type Address struct {
	Street  string `json:"street" validate:"required"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zipCode,omitempty"`
	Country string `json:"country,omitempty"`
}

// Order represents an order
type Order struct {
	ID              int64           `json:"id"`
	OrderNumber     string          `json:"orderNumber"`
	UserID          *int64          `json:"userId,omitempty"`
	GuestEmail      string          `json:"guestEmail,omitempty"`
	GuestPhone      string          `json:"guestPhone,omitempty"`
	GuestName       string          `json:"guestName,omitempty"`
	Status          OrderStatus     `json:"status"`
	PaymentStatus   PaymentStatus   `json:"paymentStatus"`
	PaymentMethod   string          `json:"paymentMethod"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	ShippingAddress Address         `json:"shippingAddress"`
	BillingAddress  *Address        `json:"billingAddress,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	Items           []OrderLine     `json:"items,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Summary is the subset returned from order placement
func (o *Order) Summary() OrderSummary {
	return OrderSummary{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		TotalAmount: o.TotalAmount,
		Status:      o.Status,
		CreatedAt:   o.CreatedAt,
	}
}

// OwnedBy reports whether the order belongs to the given user id
func (o *Order) OwnedBy(userID int64) bool {
	return o.UserID != nil && *o.UserID == userID
}

// OrderLine represents an item in an order. Name, size and price are copied
// at order time so later catalog edits don't alter history.
type OrderLine struct {
	ID          int64           `json:"id"`
	OrderID     int64           `json:"orderId"`
	VariantID   *int64          `json:"variantId,omitempty"`
	PerfumeName string          `json:"perfumeName"`
	Size        string          `json:"size"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
}

// OrderSummary is the response body of a successful checkout
type OrderSummary struct {
	ID          int64           `json:"id"`
	OrderNumber string          `json:"orderNumber"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Status      OrderStatus     `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// LineRequest is one requested {variant, quantity} pair
type LineRequest struct {
	VariantID int64 `json:"variantId"`
	Quantity  int   `json:"quantity"`
}
