package notify

import (
	"context"
	"log/slog"
)

// Log writes notifications to the structured log. Used when no mail relay
// is configured.
type Log struct{}

func (Log) OrderPlaced(ctx context.Context, ev OrderPlaced) error {
	slog.InfoContext(ctx, "order notification",
		"order_number", ev.Order.OrderNumber,
		"total", ev.Order.TotalAmount.StringFixed(2),
		"items", len(ev.Order.Items),
		"customer", ev.Customer.Name,
	)
	return nil
}

func (Log) VerificationRequested(ctx context.Context, v Verification) error {
	slog.InfoContext(ctx, "verification notification", "email", v.Email)
	return nil
}
