package services

import (
	"context"
	"sync"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/clefeel/storefront/internal/auth"
	"github.com/clefeel/storefront/internal/metrics"
	"github.com/clefeel/storefront/internal/models"
	"github.com/clefeel/storefront/internal/notify"
	"github.com/clefeel/storefront/internal/store"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	auth.Cost = bcrypt.MinCost
}

type fakeNotifications struct {
	mu            sync.Mutex
	orders        []notify.OrderPlaced
	verifications []notify.Verification
}

func (f *fakeNotifications) OrderPlaced(_ context.Context, ev notify.OrderPlaced) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = append(f.orders, ev)
}

func (f *fakeNotifications) VerificationRequested(_ context.Context, v notify.Verification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifications = append(f.verifications, v)
}

func variant(size, price string, stock int) models.Variant {
	return models.Variant{Size: size, Price: decimal.RequireFromString(price), StockQuantity: stock, IsActive: true}
}

func seedPerfume(t *testing.T, s *store.Memory, name string, variants ...models.Variant) *models.Perfume {
	t.Helper()
	p := &models.Perfume{
		Name:     name,
		Slug:     slug.Make(name),
		Gender:   models.GenderUnisex,
		Brand:    defaultBrand,
		Images:   []string{},
		IsActive: true,
		Variants: variants,
	}
	for i := range p.Variants {
		p.Variants[i].SKU = SKU(p.Slug, p.Variants[i].Size)
	}
	require.NoError(t, s.CreatePerfume(context.Background(), p))
	return p
}

func seedUser(t *testing.T, s *store.Memory, email string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{Email: email, PasswordHash: "x", FirstName: "Test", LastName: "User", Role: role}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func stockOf(t *testing.T, s *store.Memory, variantID int64) int {
	t.Helper()
	v, err := s.Variant(context.Background(), variantID)
	require.NoError(t, err)
	return v.StockQuantity
}

func newOrderService(t *testing.T, s *store.Memory) (*OrderService, *fakeNotifications) {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	n := &fakeNotifications{}
	return NewOrderService(s, n, metrics.NewNoop(), node), n
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(0, 0)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.Limit)
	assert.Equal(t, 0, p.Offset())

	p = NewPagination(3, 500)
	assert.Equal(t, 100, p.Limit)
	assert.Equal(t, 200, p.Offset())

	assert.Equal(t, 3, NewPagination(1, 20).withTotal(41).TotalPages)
	assert.Equal(t, 0, NewPagination(1, 20).withTotal(0).TotalPages)
}
