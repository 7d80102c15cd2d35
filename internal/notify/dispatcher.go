package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/clefeel/storefront/internal/metrics"
	"go.opentelemetry.io/otel/attribute"
)

// Dispatcher runs notifications in the background, detached from the
// request that triggered them
type Dispatcher struct {
	n       Notifier
	metrics *metrics.AppMetrics
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewDispatcher wraps n. Each delivery gets its own timeout.
func NewDispatcher(n Notifier, m *metrics.AppMetrics, timeout time.Duration) *Dispatcher {
	return &Dispatcher{n: n, metrics: m, timeout: timeout}
}

// OrderPlaced queues an order notification
func (d *Dispatcher) OrderPlaced(ctx context.Context, ev OrderPlaced) {
	d.run(ctx, "order_placed", func(ctx context.Context) error {
		return d.n.OrderPlaced(ctx, ev)
	})
}

// VerificationRequested queues a verification mail
func (d *Dispatcher) VerificationRequested(ctx context.Context, v Verification) {
	d.run(ctx, "verification", func(ctx context.Context) error {
		return d.n.VerificationRequested(ctx, v)
	})
}

// Wait blocks until every queued notification has finished
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) run(parent context.Context, kind string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), d.timeout)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer cancel()

		err := func() (err error) {
			defer func() {
				if p := recover(); p != nil {
					err = fmt.Errorf("notifier panic: %v", p)
				}
			}()
			return fn(ctx)
		}()
		if err != nil {
			slog.ErrorContext(ctx, "notification failed", "kind", kind, "error", err)
			d.metrics.NotificationFailures.Add(ctx, 1, d.metrics.Attrs(attribute.String("kind", kind)))
		}
	}()
}
