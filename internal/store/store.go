// Package store defines the persistence contracts the services depend on.
// internal/db provides the MySQL implementation; Memory backs tests and the
// STORE_DRIVER=memory mode.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/clefeel/storefront/internal/models"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a row addressed by key does not exist
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate is returned when a unique key would be violated
	ErrDuplicate = errors.New("store: duplicate key")
	// ErrStockChanged is returned when a guarded stock decrement matched no row
	ErrStockChanged = errors.New("store: stock changed")
	// ErrStatusChanged is returned when a compare-and-set status update lost
	ErrStatusChanged = errors.New("store: status changed")
)

// Catalog persists perfumes and their variants
type Catalog interface {
	ListPerfumes(ctx context.Context, f models.PerfumeFilter) ([]models.Perfume, int, error)
	FeaturedPerfumes(ctx context.Context, limit int) ([]models.Perfume, error)
	// PerfumeBySlug returns an active perfume with active variants by price
	PerfumeBySlug(ctx context.Context, slug string) (*models.Perfume, error)
	// PerfumeByID returns a perfume regardless of state with all variants
	PerfumeByID(ctx context.Context, id int64) (*models.Perfume, error)
	// CreatePerfume inserts p and p.Variants atomically, filling in ids
	CreatePerfume(ctx context.Context, p *models.Perfume) error
	UpdatePerfume(ctx context.Context, p *models.Perfume) error
	DeletePerfume(ctx context.Context, id int64) error
	CountActivePerfumes(ctx context.Context) (int, error)

	Variant(ctx context.Context, id int64) (*models.VariantDetail, error)
	CreateVariant(ctx context.Context, v *models.Variant) error
	UpdateVariant(ctx context.Context, v *models.Variant) error
	DeleteVariant(ctx context.Context, id int64) error
}

// Carts persists per-user cart lines
type Carts interface {
	// CartLines returns lines whose perfume and variant are both active, newest first
	CartLines(ctx context.Context, userID int64) ([]models.CartLine, error)
	CartItem(ctx context.Context, userID, cartID int64) (*models.CartItem, error)
	// CartQuantity is the quantity already held for a variant, 0 when absent
	CartQuantity(ctx context.Context, userID, variantID int64) (int, error)
	// AddToCart inserts a line or increments the existing one and returns its id
	AddToCart(ctx context.Context, userID, variantID int64, quantity int) (int64, error)
	SetCartQuantity(ctx context.Context, userID, cartID int64, quantity int) error
	RemoveCartItem(ctx context.Context, userID, cartID int64) error
	ClearCart(ctx context.Context, userID int64) error
	// ActiveCarts counts users holding at least one cart line
	ActiveCarts(ctx context.Context) (int, error)
}

// OrderTx is the set of writes an order placement performs under one
// transaction. Every method must be called from within Orders.InTx.
type OrderTx interface {
	// LockVariants locks the given variant rows in ascending id order and
	// returns those that exist keyed by id
	LockVariants(ctx context.Context, ids []int64) (map[int64]models.VariantDetail, error)
	// CartLines reads the purchasable lines of a user's cart
	CartLines(ctx context.Context, userID int64) ([]models.LineRequest, error)
	InsertOrder(ctx context.Context, o *models.Order) error
	InsertOrderLine(ctx context.Context, l *models.OrderLine) error
	// DecrementStock subtracts quantity, failing with ErrStockChanged when
	// stock would go negative
	DecrementStock(ctx context.Context, variantID int64, quantity int) error
	ClearCart(ctx context.Context, userID int64) error
}

// OrderStats are the order counters shown on the admin dashboard
type OrderStats struct {
	Orders  int
	Pending int
	Revenue decimal.Decimal
}

// Orders persists orders and their lines
type Orders interface {
	// InTx runs fn in a transaction. A nil return commits; anything else
	// rolls back every write fn made and is returned unchanged.
	InTx(ctx context.Context, fn func(tx OrderTx) error) error
	OrderByID(ctx context.Context, id int64) (*models.Order, error)
	OrdersByUser(ctx context.Context, userID int64, limit, offset int) ([]models.Order, int, error)
	ListOrders(ctx context.Context, f models.OrderFilter) ([]models.Order, int, error)
	RecentOrders(ctx context.Context, limit int) ([]models.Order, error)
	// UpdateOrderStatus moves id from one status to another, returning
	// ErrStatusChanged when the stored status is no longer from
	UpdateOrderStatus(ctx context.Context, id int64, from, to models.OrderStatus) error
	UpdatePaymentStatus(ctx context.Context, id int64, status models.PaymentStatus, method string) error
	OrderStats(ctx context.Context, since time.Time) (OrderStats, error)
}

// Users persists accounts
type Users interface {
	CreateUser(ctx context.Context, u *models.User) error
	UserByID(ctx context.Context, id int64) (*models.User, error)
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UserByVerificationToken(ctx context.Context, token string) (*models.User, error)
	MarkVerified(ctx context.Context, id int64) error
	UpdateUser(ctx context.Context, u *models.User) error
	CountCustomers(ctx context.Context) (int, error)
}

// Enquiries persists contact form submissions
type Enquiries interface {
	CreateEnquiry(ctx context.Context, e *models.Enquiry) error
	ListEnquiries(ctx context.Context, limit int) ([]models.Enquiry, error)
	UpdateEnquiryStatus(ctx context.Context, id int64, status string) error
	CountEnquiries(ctx context.Context, status string) (int, error)
}

// Store is the full persistence surface
type Store interface {
	Catalog
	Carts
	Orders
	Users
	Enquiries
}
