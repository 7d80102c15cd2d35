package services

import (
	"context"
	"testing"

	"github.com/clefeel/storefront/internal/apperr"
	"github.com/clefeel/storefront/internal/metrics"
	"github.com/clefeel/storefront/internal/models"
	"github.com/clefeel/storefront/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createRequest(name string, variants ...models.VariantInput) models.CreatePerfumeRequest {
	return models.CreatePerfumeRequest{
		Name:        name,
		Description: "A warm evening scent",
		Gender:      models.GenderWomen,
		Variants:    variants,
	}
}

func input(size, price string, stock int) models.VariantInput {
	return models.VariantInput{Size: size, Price: decimal.RequireFromString(price), Stock: stock}
}

func TestParseSort(t *testing.T) {
	cases := map[string][2]string{
		"":               {"created_at", "desc"},
		"price:asc":      {"price", "asc"},
		"name:DESC":      {"name", "desc"},
		"price":          {"price", "desc"},
		"stock:asc":      {"created_at", "asc"},
		"created_at:asc": {"created_at", "asc"},
	}
	for expr, want := range cases {
		field, order := ParseSort(expr)
		assert.Equal(t, want[0], field, expr)
		assert.Equal(t, want[1], order, expr)
	}
}

func TestCreateAndLookupBySlug(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	svc := NewCatalogService(s, metrics.NewNoop())

	p, err := svc.Create(ctx, createRequest("Rose Élixir No. 5",
		input("100 ml", "89.99", 4),
		input("30ml", "29.5", 10),
		input("50ml", "49", 0),
	))
	require.NoError(t, err)
	assert.Equal(t, "rose-elixir-no-5", p.Slug)
	assert.Equal(t, "Clefeel", p.Brand)
	assert.True(t, p.IsActive)
	require.Len(t, p.Variants, 3)
	assert.Equal(t, "ROSE-ELIXIR-NO-5-100-ML", p.Variants[0].SKU)

	got, err := svc.BySlug(ctx, "rose-elixir-no-5")
	require.NoError(t, err)
	require.Len(t, got.Variants, 3)
	for i := 1; i < len(got.Variants); i++ {
		assert.True(t, got.Variants[i-1].Price.LessThanOrEqual(got.Variants[i].Price))
	}
	assert.Equal(t, "30ml", got.Variants[0].Size)

	_, err = svc.BySlug(ctx, "missing")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = svc.Create(ctx, createRequest("Rose Elixir No 5", input("30ml", "10", 1)))
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = svc.Create(ctx, createRequest("Free Sample", input("2ml", "0", 1)))
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestListValidatesFilters(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	svc := NewCatalogService(s, metrics.NewNoop())
	seedPerfume(t, s, "Oud Royale", variant("50ml", "40", 1))
	seedPerfume(t, s, "Amber Dusk", variant("50ml", "20", 1))

	_, err := svc.List(ctx, CatalogQuery{Gender: "robots"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.List(ctx, CatalogQuery{MinPrice: "cheap"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	list, err := svc.List(ctx, CatalogQuery{Sort: "price:asc", MaxPrice: "30"})
	require.NoError(t, err)
	require.Len(t, list.Perfumes, 1)
	assert.Equal(t, "Amber Dusk", list.Perfumes[0].Name)
	assert.Equal(t, 1, list.Pagination.Page)
	assert.Equal(t, 20, list.Pagination.Limit)
	assert.Equal(t, 1, list.Pagination.Total)
}

func TestUpdateRenamesSlug(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	svc := NewCatalogService(s, metrics.NewNoop())
	p := seedPerfume(t, s, "Oud Royale", variant("50ml", "40", 1))

	name := "Oud Imperial"
	inactive := false
	got, err := svc.Update(ctx, p.ID, models.UpdatePerfumeRequest{Name: &name, IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, "oud-imperial", got.Slug)
	assert.False(t, got.IsActive)

	_, err = svc.BySlug(ctx, "oud-imperial")
	assert.True(t, apperr.Is(err, apperr.KindNotFound), "inactive perfumes are hidden")

	_, err = svc.Update(ctx, p.ID, models.UpdatePerfumeRequest{})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.Update(ctx, 999, models.UpdatePerfumeRequest{Name: &name})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestVariantLifecycle(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	svc := NewCatalogService(s, metrics.NewNoop())
	p := seedPerfume(t, s, "Oud Royale", variant("50ml", "40", 1))

	v, err := svc.AddVariant(ctx, p.ID, input("100ml", "70", 3))
	require.NoError(t, err)
	assert.Equal(t, p.ID, v.PerfumeID)
	assert.Equal(t, "OUD-ROYALE-100ML", v.SKU)

	_, err = svc.AddVariant(ctx, p.ID, input("100ml", "75", 3))
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = svc.AddVariant(ctx, 999, input("10ml", "5", 3))
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	stock := 12
	updated, err := svc.UpdateVariant(ctx, v.ID, models.UpdateVariantRequest{StockQuantity: &stock})
	require.NoError(t, err)
	assert.Equal(t, 12, updated.StockQuantity)
	assert.Equal(t, 12, stockOf(t, s, v.ID))

	require.NoError(t, svc.DeleteVariant(ctx, v.ID))
	assert.True(t, apperr.Is(svc.DeleteVariant(ctx, v.ID), apperr.KindNotFound))

	require.NoError(t, svc.Delete(ctx, p.ID))
	assert.True(t, apperr.Is(svc.Delete(ctx, p.ID), apperr.KindNotFound))
}
