package models

import "github.com/shopspring/decimal"

// RegisterRequest represents a request to create an account
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,min=6,max=72"`
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
	Phone     string `json:"phone" validate:"omitempty,max=20"`
}

// LoginRequest represents a credential exchange
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest carries editable profile fields; nil leaves a field unchanged
type UpdateProfileRequest struct {
	FirstName *string `json:"firstName" validate:"omitempty,min=1,max=100"`
	LastName  *string `json:"lastName" validate:"omitempty,min=1,max=100"`
	Phone     *string `json:"phone" validate:"omitempty,max=20"`
}

// AuthResponse is returned by register and login
type AuthResponse struct {
	Message string `json:"message"`
	User    *User  `json:"user"`
	Token   string `json:"token"`
}

// OrderItemRequest is one line of a direct order
type OrderItemRequest struct {
	VariantID int64 `json:"variantId" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,min=1"`
}

// CustomerInfo carries contact and shipping fields for checkout
type CustomerInfo struct {
	Name           string   `json:"name" validate:"required,max=255"`
	Email          string   `json:"email" validate:"omitempty,email,max=255"`
	Phone          string   `json:"phone" validate:"required,max=20"`
	Address        string   `json:"address" validate:"required"`
	City           string   `json:"city" validate:"max=100"`
	State          string   `json:"state" validate:"max=100"`
	ZipCode        string   `json:"zipCode" validate:"max=20"`
	Country        string   `json:"country" validate:"max=100"`
	BillingAddress *Address `json:"billingAddress" validate:"omitempty"`
}

// ShippingAddress builds the address snapshot, defaulting the country
func (c CustomerInfo) ShippingAddress() Address {
	country := c.Country
	if country == "" {
		country = "India"
	}
	return Address{
		Street:  c.Address,
		City:    c.City,
		State:   c.State,
		ZipCode: c.ZipCode,
		Country: country,
	}
}

// PaymentMethods is the accepted set of payment method tags
var PaymentMethods = []string{"cod", "razorpay", "upi", "card"}

// CreateOrderRequest represents a direct (buy now or guest) order
type CreateOrderRequest struct {
	Items         []OrderItemRequest `json:"items" validate:"required,min=1,max=50,dive"`
	Customer      CustomerInfo       `json:"customer"`
	PaymentMethod string             `json:"paymentMethod" validate:"omitempty,oneof=cod razorpay upi card"`
	Notes         string             `json:"notes" validate:"max=1000"`
}

// CheckoutRequest represents an order sourced from the caller's cart
type CheckoutRequest struct {
	Customer      CustomerInfo `json:"customer"`
	PaymentMethod string       `json:"paymentMethod" validate:"omitempty,oneof=cod razorpay upi card"`
	Notes         string       `json:"notes" validate:"max=1000"`
}

// UpdateOrderStatusRequest represents an admin status transition
type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status" validate:"required"`
}

// UpdatePaymentStatusRequest represents an admin payment status change
type UpdatePaymentStatusRequest struct {
	PaymentStatus PaymentStatus `json:"paymentStatus" validate:"required"`
	PaymentMethod string        `json:"paymentMethod" validate:"omitempty,oneof=cod razorpay upi card"`
}

// AddToCartRequest represents a request to add item to cart
type AddToCartRequest struct {
	VariantID int64 `json:"variantId" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"omitempty,min=1,max=100"`
}

// UpdateCartRequest sets a cart line quantity
type UpdateCartRequest struct {
	Quantity int `json:"quantity"`
}

// VariantInput describes a variant on product creation or addition
type VariantInput struct {
	Size  string          `json:"size" validate:"required,max=20"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock" validate:"min=0"`
}

// CreatePerfumeRequest represents an admin product creation
type CreatePerfumeRequest struct {
	Name             string         `json:"name" validate:"required,max=255"`
	Description      string         `json:"description" validate:"required"`
	ShortDescription string         `json:"shortDescription" validate:"max=500"`
	Gender           Gender         `json:"gender" validate:"required,oneof=men women unisex"`
	Brand            string         `json:"brand" validate:"max=100"`
	Category         string         `json:"category" validate:"max=100"`
	Images           []string       `json:"images" validate:"max=5,dive,required"`
	IsFeatured       bool           `json:"isFeatured"`
	MetaTitle        string         `json:"metaTitle" validate:"max=255"`
	MetaDescription  string         `json:"metaDescription"`
	Variants         []VariantInput `json:"variants" validate:"required,min=1,dive"`
}

// UpdatePerfumeRequest is a partial product update; nil leaves a field unchanged
type UpdatePerfumeRequest struct {
	Name             *string   `json:"name" validate:"omitempty,min=1,max=255"`
	Description      *string   `json:"description"`
	ShortDescription *string   `json:"shortDescription" validate:"omitempty,max=500"`
	Gender           *Gender   `json:"gender" validate:"omitempty,oneof=men women unisex"`
	Category         *string   `json:"category" validate:"omitempty,max=100"`
	Images           *[]string `json:"images"`
	IsActive         *bool     `json:"isActive"`
	IsFeatured       *bool     `json:"isFeatured"`
	MetaTitle        *string   `json:"metaTitle" validate:"omitempty,max=255"`
	MetaDescription  *string   `json:"metaDescription"`
}

// Empty reports whether no field is set
func (r UpdatePerfumeRequest) Empty() bool {
	return r.Name == nil && r.Description == nil && r.ShortDescription == nil && r.Gender == nil &&
		r.Category == nil && r.Images == nil && r.IsActive == nil && r.IsFeatured == nil &&
		r.MetaTitle == nil && r.MetaDescription == nil
}

// UpdateVariantRequest is a partial variant update
type UpdateVariantRequest struct {
	Size          *string          `json:"size" validate:"omitempty,min=1,max=20"`
	Price         *decimal.Decimal `json:"price"`
	StockQuantity *int             `json:"stockQuantity" validate:"omitempty,min=0"`
	IsActive      *bool            `json:"isActive"`
}

// Empty reports whether no field is set
func (r UpdateVariantRequest) Empty() bool {
	return r.Size == nil && r.Price == nil && r.StockQuantity == nil && r.IsActive == nil
}

// EnquiryRequest represents a contact form submission
type EnquiryRequest struct {
	Name    string `json:"name" validate:"required,max=255"`
	Email   string `json:"email" validate:"required,email,max=255"`
	Phone   string `json:"phone" validate:"max=20"`
	Subject string `json:"subject" validate:"max=255"`
	Message string `json:"message" validate:"required,max=5000"`
}

// UpdateEnquiryRequest sets an enquiry status
type UpdateEnquiryRequest struct {
	Status string `json:"status" validate:"required,oneof=new read replied closed"`
}
