package services

import (
	"context"
	"testing"
	"time"

	"github.com/clefeel/storefront/internal/apperr"
	"github.com/clefeel/storefront/internal/metrics"
	"github.com/clefeel/storefront/internal/models"
	"github.com/clefeel/storefront/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddItemMergesLines(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	p := seedPerfume(t, s, "Oud Royale", variant("50ml", "12.25", 10))
	u := seedUser(t, s, "asha@example.com", models.RoleCustomer)
	svc := NewCartService(s, metrics.NewNoop())

	first, err := svc.AddItem(ctx, u.ID, models.AddToCartRequest{VariantID: p.Variants[0].ID})
	require.NoError(t, err)
	second, err := svc.AddItem(ctx, u.ID, models.AddToCartRequest{VariantID: p.Variants[0].ID, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 3, second.Quantity)

	cart, err := svc.GetCart(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.Equal(t, 3, cart.Count)
	assert.True(t, decimal.RequireFromString("36.75").Equal(cart.Total))

	n, err := svc.Count(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestAddItemChecksMergedQuantityAgainstStock(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	p := seedPerfume(t, s, "Oud Royale", variant("50ml", "10", 3))
	u := seedUser(t, s, "asha@example.com", models.RoleCustomer)
	svc := NewCartService(s, metrics.NewNoop())

	_, err := svc.AddItem(ctx, u.ID, models.AddToCartRequest{VariantID: p.Variants[0].ID, Quantity: 2})
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, u.ID, models.AddToCartRequest{VariantID: p.Variants[0].ID, Quantity: 2})
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindInsufficientStock, e.Kind)
	assert.Equal(t, 3, e.Details["available"])

	held, err := s.CartQuantity(ctx, u.ID, p.Variants[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 2, held)
}

func TestAddItemRejectsUnavailableVariants(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	p := seedPerfume(t, s, "Oud Royale", variant("50ml", "10", 3))
	u := seedUser(t, s, "asha@example.com", models.RoleCustomer)
	svc := NewCartService(s, metrics.NewNoop())

	_, err := svc.AddItem(ctx, u.ID, models.AddToCartRequest{VariantID: 4242})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	v := p.Variants[0]
	v.IsActive = false
	require.NoError(t, s.UpdateVariant(ctx, &v))
	_, err = svc.AddItem(ctx, u.ID, models.AddToCartRequest{VariantID: v.ID})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.AddItem(ctx, u.ID, models.AddToCartRequest{VariantID: v.ID, Quantity: -1})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestUpdateAndRemoveItem(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	p := seedPerfume(t, s, "Oud Royale", variant("50ml", "10", 5))
	u := seedUser(t, s, "asha@example.com", models.RoleCustomer)
	other := seedUser(t, s, "other@example.com", models.RoleCustomer)
	svc := NewCartService(s, metrics.NewNoop())

	item, err := svc.AddItem(ctx, u.ID, models.AddToCartRequest{VariantID: p.Variants[0].ID})
	require.NoError(t, err)
	id := item.ID

	assert.True(t, apperr.Is(svc.UpdateItem(ctx, u.ID, id, 0), apperr.KindValidation))
	assert.True(t, apperr.Is(svc.UpdateItem(ctx, u.ID, id, 6), apperr.KindInsufficientStock))
	assert.True(t, apperr.Is(svc.UpdateItem(ctx, other.ID, id, 2), apperr.KindNotFound))
	require.NoError(t, svc.UpdateItem(ctx, u.ID, id, 5))

	held, err := s.CartQuantity(ctx, u.ID, p.Variants[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 5, held)

	assert.True(t, apperr.Is(svc.RemoveItem(ctx, other.ID, id), apperr.KindNotFound))
	require.NoError(t, svc.RemoveItem(ctx, u.ID, id))
	assert.True(t, apperr.Is(svc.RemoveItem(ctx, u.ID, id), apperr.KindNotFound))
}

func TestValidateAndClear(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	p := seedPerfume(t, s, "Oud Royale", variant("50ml", "10", 5))
	q := seedPerfume(t, s, "Amber Dusk", variant("10ml", "4", 5))
	u := seedUser(t, s, "asha@example.com", models.RoleCustomer)
	svc := NewCartService(s, metrics.NewNoop())

	_, err := svc.AddItem(ctx, u.ID, models.AddToCartRequest{VariantID: p.Variants[0].ID, Quantity: 4})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, u.ID, models.AddToCartRequest{VariantID: q.Variants[0].ID, Quantity: 1})
	require.NoError(t, err)

	res, err := svc.Validate(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, res.Valid)

	v := p.Variants[0]
	v.StockQuantity = 1
	require.NoError(t, s.UpdateVariant(ctx, &v))

	res, err = svc.Validate(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	require.Len(t, res.Shortages, 1)
	assert.Equal(t, "Oud Royale", res.Shortages[0].Name)
	assert.Equal(t, 4, res.Shortages[0].Requested)
	assert.Equal(t, 1, res.Shortages[0].Available)

	require.NoError(t, svc.Clear(ctx, u.ID))
	cart, err := svc.GetCart(ctx, u.ID)
	require.NoError(t, err)
	assert.NotNil(t, cart.Items)
	assert.Empty(t, cart.Items)
	assert.True(t, cart.Total.IsZero())
}

func TestMonitorActiveCartsStopsOnCancel(t *testing.T) {
	svc := NewCartService(store.NewMemory(), metrics.NewNoop())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		svc.MonitorActiveCarts(ctx, time.Millisecond)
		close(done)
	}()
	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop")
	}
}
