package services

import (
	"context"
	"testing"

	"github.com/clefeel/storefront/internal/apperr"
	"github.com/clefeel/storefront/internal/models"
	"github.com/clefeel/storefront/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboard(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	a := seedPerfume(t, s, "Oud Royale", variant("50ml", "10", 10))
	seedUser(t, s, "c1@example.com", models.RoleCustomer)
	seedUser(t, s, "admin@example.com", models.RoleAdmin)
	orders, _ := newOrderService(t, s)
	enquiries := NewEnquiryService(s)

	kept, err := orders.CreateOrder(ctx, nil, directOrder(line(a.Variants[0].ID, 2)))
	require.NoError(t, err)
	cancelled, err := orders.CreateOrder(ctx, nil, directOrder(line(a.Variants[0].ID, 1)))
	require.NoError(t, err)
	_, err = orders.UpdateStatus(ctx, cancelled.ID, models.OrderCancelled)
	require.NoError(t, err)
	_, err = enquiries.Submit(ctx, models.EnquiryRequest{Name: "Ravi", Email: "ravi@example.com", Message: "Do you ship abroad?"})
	require.NoError(t, err)

	stats, err := NewAdminService(s).Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Orders30d)
	assert.Equal(t, 1, stats.PendingOrders)
	assert.True(t, kept.TotalAmount.Equal(stats.Revenue30d))
	assert.True(t, decimal.RequireFromString("20").Equal(stats.Revenue30d))
	assert.Equal(t, 1, stats.TotalCustomers)
	assert.Equal(t, 1, stats.ActiveProducts)
	assert.Equal(t, 1, stats.NewEnquiries)

	recent, err := orders.RecentOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}

func TestEnquiryStatus(t *testing.T) {
	ctx := context.Background()
	svc := NewEnquiryService(store.NewMemory())

	e, err := svc.Submit(ctx, models.EnquiryRequest{Name: " Ravi ", Email: "Ravi@Example.com", Message: "Hello"})
	require.NoError(t, err)
	assert.Equal(t, "new", e.Status)
	assert.Equal(t, "ravi@example.com", e.Email)
	assert.Equal(t, "Ravi", e.Name)

	require.NoError(t, svc.UpdateStatus(ctx, e.ID, "replied"))
	assert.True(t, apperr.Is(svc.UpdateStatus(ctx, e.ID, "archived"), apperr.KindValidation))
	assert.True(t, apperr.Is(svc.UpdateStatus(ctx, 999, "read"), apperr.KindNotFound))

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "replied", list[0].Status)
}
