// Package notify delivers order and account notifications. Delivery is
// best effort: callers go through a Dispatcher, which never blocks the
// request and only logs and counts failures.
package notify

import (
	"context"
	"errors"

	"github.com/clefeel/storefront/internal/models"
)

// Customer is the contact block shown in an order notification
type Customer struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// OrderPlaced describes a committed order
type OrderPlaced struct {
	Order    models.Order `json:"order"`
	Customer Customer     `json:"customer"`
}

// Verification asks a new account holder to confirm their address
type Verification struct {
	Email string
	Name  string
	Token string
}

// Notifier delivers notifications synchronously
type Notifier interface {
	OrderPlaced(ctx context.Context, ev OrderPlaced) error
	VerificationRequested(ctx context.Context, v Verification) error
}

// Multi fans a notification out to every notifier and joins the failures
type Multi []Notifier

func (m Multi) OrderPlaced(ctx context.Context, ev OrderPlaced) error {
	var errs []error
	for _, n := range m {
		errs = append(errs, n.OrderPlaced(ctx, ev))
	}
	return errors.Join(errs...)
}

func (m Multi) VerificationRequested(ctx context.Context, v Verification) error {
	var errs []error
	for _, n := range m {
		errs = append(errs, n.VerificationRequested(ctx, v))
	}
	return errors.Join(errs...)
}
