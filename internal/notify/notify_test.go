package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/smtp"
	"sync/atomic"
	"testing"
	"time"

	"github.com/clefeel/storefront/internal/metrics"
	"github.com/clefeel/storefront/internal/models"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleOrder() OrderPlaced {
	vid := int64(3)
	return OrderPlaced{
		Order: models.Order{
			ID:          9,
			OrderNumber: "CF1ABC",
			Status:      models.OrderPending,
			TotalAmount: decimal.RequireFromString("40"),
			CreatedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
			Items: []models.OrderLine{
				{VariantID: &vid, PerfumeName: "Oud <Noir>", Size: "50ml", Quantity: 2, TotalPrice: decimal.RequireFromString("40")},
			},
		},
		Customer: Customer{Name: "Asha", Email: "asha@example.com", Phone: "123", Address: "1 Main St"},
	}
}

func TestMailerOrderPlaced(t *testing.T) {
	m := NewMailer(SMTPConfig{Host: "mail.local", Port: "587", From: "orders@clefeel.com", AdminEmail: "admin@clefeel.com", AdminURL: "https://admin.clefeel.com/"})

	var gotAddr string
	var gotTo []string
	var gotMsg string
	m.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		return nil
	}

	require.NoError(t, m.OrderPlaced(context.Background(), sampleOrder()))
	assert.Equal(t, "mail.local:587", gotAddr)
	assert.Equal(t, []string{"admin@clefeel.com"}, gotTo)
	assert.Contains(t, gotMsg, "Subject: New Order Received - #CF1ABC\r\n")
	assert.Contains(t, gotMsg, "Oud &lt;Noir&gt; (50ml) x 2 = 40.00")
	assert.Contains(t, gotMsg, `href="https://admin.clefeel.com/orders/9"`)
}

func TestMailerVerification(t *testing.T) {
	m := NewMailer(SMTPConfig{Host: "mail.local", Port: "25", FrontendURL: "https://clefeel.com"})
	var gotMsg string
	m.send = func(_ string, _ smtp.Auth, _ string, _ []string, msg []byte) error {
		gotMsg = string(msg)
		return nil
	}

	require.NoError(t, m.VerificationRequested(context.Background(), Verification{Email: "a@b.co", Name: "Asha", Token: "tok"}))
	assert.Contains(t, gotMsg, "https://clefeel.com/verify-email.html?token=tok")
}

func TestMailerHonoursContext(t *testing.T) {
	m := NewMailer(SMTPConfig{Host: "mail.local", Port: "25", AdminEmail: "admin@clefeel.com"})
	release := make(chan struct{})
	defer close(release)
	m.send = func(string, smtp.Auth, string, []string, []byte) error {
		<-release
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := m.OrderPlaced(ctx, sampleOrder())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return f.err
}

func (f *fakeWriter) Close() error { return nil }

func TestKafkaPublisherOrderPlaced(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w}

	require.NoError(t, p.OrderPlaced(context.Background(), sampleOrder()))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "CF1ABC", string(w.msgs[0].Key))

	var ev OrderEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &ev))
	assert.Equal(t, "order.placed", ev.Type)
	assert.Equal(t, int64(9), ev.OrderID)
	require.Len(t, ev.Items, 1)
	assert.Equal(t, 2, ev.Items[0].Quantity)

	w.err = errors.New("broker down")
	assert.Error(t, p.OrderPlaced(context.Background(), sampleOrder()))
}

type countingNotifier struct {
	orders atomic.Int32
	fail   bool
	panics bool
}

func (c *countingNotifier) OrderPlaced(ctx context.Context, _ OrderPlaced) error {
	c.orders.Add(1)
	if c.panics {
		panic("boom")
	}
	if c.fail {
		return errors.New("smtp down")
	}
	return nil
}

func (c *countingNotifier) VerificationRequested(context.Context, Verification) error { return nil }

func TestMultiJoinsErrors(t *testing.T) {
	ok := &countingNotifier{}
	bad := &countingNotifier{fail: true}

	err := Multi{ok, bad}.OrderPlaced(context.Background(), sampleOrder())
	assert.Error(t, err)
	assert.EqualValues(t, 1, ok.orders.Load())
	assert.EqualValues(t, 1, bad.orders.Load())
}

func TestDispatcherSurvivesFailures(t *testing.T) {
	n := &countingNotifier{panics: true}
	d := NewDispatcher(n, metrics.NewNoop(), time.Second)

	// request context already cancelled; delivery still runs
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.OrderPlaced(ctx, sampleOrder())
	d.Wait()

	assert.EqualValues(t, 1, n.orders.Load())
}
