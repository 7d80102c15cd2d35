package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Gender is the catalog audience enum
type Gender string

const (
	GenderMen    Gender = "men"
	GenderWomen  Gender = "women"
	GenderUnisex Gender = "unisex"
)

// Valid reports whether g is one of the known genders
func (g Gender) Valid() bool {
	switch g {
	case GenderMen, GenderWomen, GenderUnisex:
		return true
	}
	return false
}

// Role is the access level of a user account
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// Perfume represents a product in the catalog
type Perfume struct {
	ID               int64            `json:"id"`
	Name             string           `json:"name"`
	Slug             string           `json:"slug"`
	Description      string           `json:"description,omitempty"`
	ShortDescription string           `json:"shortDescription,omitempty"`
	Gender           Gender           `json:"gender"`
	Brand            string           `json:"brand,omitempty"`
	Category         string           `json:"category,omitempty"`
	Images           []string         `json:"images"`
	IsActive         bool             `json:"isActive"`
	IsFeatured       bool             `json:"isFeatured"`
	MetaTitle        string           `json:"metaTitle,omitempty"`
	MetaDescription  string           `json:"metaDescription,omitempty"`
	MinPrice         *decimal.Decimal `json:"minPrice,omitempty"`
	Variants         []Variant        `json:"variants"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// Variant is a purchasable size/price/stock combination of a perfume
type Variant struct {
	ID            int64           `json:"id"`
	PerfumeID     int64           `json:"perfumeId"`
	Size          string          `json:"size"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stockQuantity"`
	SKU           string          `json:"sku"`
	IsActive      bool            `json:"isActive"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// VariantDetail is a variant joined with the fields of its perfume that
// purchasing decisions depend on
type VariantDetail struct {
	Variant
	PerfumeName   string
	PerfumeActive bool
}

// Purchasable reports whether both the variant and its perfume are active
func (v VariantDetail) Purchasable() bool {
	return v.IsActive && v.PerfumeActive
}

// Label is the human readable name used in error messages and notifications
func (v VariantDetail) Label() string {
	return v.PerfumeName + " (" + v.Size + ")"
}

// User represents a user account
type User struct {
	ID                int64     `json:"id"`
	Email             string    `json:"email"`
	PasswordHash      string    `json:"-"`
	FirstName         string    `json:"firstName"`
	LastName          string    `json:"lastName"`
	Phone             string    `json:"phone,omitempty"`
	Role              Role      `json:"role"`
	IsVerified        bool      `json:"isVerified"`
	VerificationToken string    `json:"-"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// IsAdmin reports whether the user holds the administrator role
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// FullName joins first and last name
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// CartItem is a persisted cart row
type CartItem struct {
	ID        int64     `json:"cartId"`
	UserID    int64     `json:"-"`
	VariantID int64     `json:"variantId"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"createdAt"`
}

// CartLine is a cart row joined to its variant and perfume
type CartLine struct {
	CartID        int64           `json:"cartId"`
	VariantID     int64           `json:"variantId"`
	PerfumeID     int64           `json:"perfumeId"`
	PerfumeName   string          `json:"perfumeName"`
	Slug          string          `json:"slug"`
	Size          string          `json:"size"`
	Price         decimal.Decimal `json:"price"`
	Quantity      int             `json:"quantity"`
	StockQuantity int             `json:"stockQuantity"`
	Image         *string         `json:"image"`
	Total         decimal.Decimal `json:"total"`
}

// CartResponse represents a cart with its items
type CartResponse struct {
	Items []CartLine      `json:"items"`
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// StockShortage describes a cart line whose quantity exceeds current stock
type StockShortage struct {
	CartID    int64  `json:"cartId"`
	Name      string `json:"name"`
	Size      string `json:"size"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// Enquiry is a contact form submission
type Enquiry struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Subject   string    `json:"subject,omitempty"`
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// EnquiryStatuses is the allowed set of enquiry states
var EnquiryStatuses = []string{"new", "read", "replied", "closed"}

// DashboardStats are the admin overview counters
type DashboardStats struct {
	Orders30d      int             `json:"orders30d"`
	PendingOrders  int             `json:"pendingOrders"`
	Revenue30d     decimal.Decimal `json:"revenue30d"`
	TotalCustomers int             `json:"totalCustomers"`
	ActiveProducts int             `json:"activeProducts"`
	NewEnquiries   int             `json:"newEnquiries"`
}

// PerfumeFilter narrows and orders a catalog listing. SortBy and SortOrder
// must already be normalised against the allow-list.
type PerfumeFilter struct {
	Gender          Gender
	Category        string
	MinPrice        *decimal.Decimal
	MaxPrice        *decimal.Decimal
	SortBy          string
	SortOrder       string
	Limit           int
	Offset          int
	IncludeInactive bool
}

// OrderFilter narrows an admin order listing
type OrderFilter struct {
	Status OrderStatus
	Limit  int
	Offset int
}
