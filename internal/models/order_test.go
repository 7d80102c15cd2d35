package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		ok       bool
	}{
		{OrderPending, OrderConfirmed, true},
		{OrderPending, OrderShipped, true},
		{OrderConfirmed, OrderProcessing, true},
		{OrderShipped, OrderDelivered, true},
		{OrderProcessing, OrderCancelled, true},
		{OrderShipped, OrderPending, false},
		{OrderConfirmed, OrderConfirmed, false},
		{OrderDelivered, OrderCancelled, false},
		{OrderCancelled, OrderPending, false},
		{OrderPending, OrderStatus("completed"), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.ok, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestOrderStatusValid(t *testing.T) {
	for _, s := range []OrderStatus{OrderPending, OrderConfirmed, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled} {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, OrderStatus("refunded").Valid())
	assert.False(t, OrderStatus("").Valid())
}

func TestPaymentStatusValid(t *testing.T) {
	assert.True(t, PaymentPaid.Valid())
	assert.False(t, PaymentStatus("settled").Valid())
}

func TestShippingAddressDefaultsCountry(t *testing.T) {
	c := CustomerInfo{Address: "12 Rose St", City: "Pune"}
	assert.Equal(t, Address{Street: "12 Rose St", City: "Pune", Country: "India"}, c.ShippingAddress())

	c.Country = "France"
	assert.Equal(t, "France", c.ShippingAddress().Country)
}

func TestOrderOwnedBy(t *testing.T) {
	uid := int64(5)
	assert.True(t, (&Order{UserID: &uid}).OwnedBy(5))
	assert.False(t, (&Order{UserID: &uid}).OwnedBy(6))
	assert.False(t, (&Order{}).OwnedBy(5))
}
