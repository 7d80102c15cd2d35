package api

import (
	"net/http"

	"github.com/clefeel/storefront/internal/auth"
	"github.com/clefeel/storefront/internal/models"
	"github.com/clefeel/storefront/internal/respond"
)

// GetCartHandler handles GET /api/cart
func (a *App) GetCartHandler(w http.ResponseWriter, r *http.Request) {
	cart, err := a.svc.Cart.GetCart(r.Context(), auth.UserFrom(r.Context()).ID)
	if err != nil {
		a.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, cart)
}

// CartCountHandler handles GET /api/cart/count
func (a *App) CartCountHandler(w http.ResponseWriter, r *http.Request) {
	n, err := a.svc.Cart.Count(r.Context(), auth.UserFrom(r.Context()).ID)
	if err != nil {
		a.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]int{"count": n})
}

// ValidateCartHandler handles GET /api/cart/validate
func (a *App) ValidateCartHandler(w http.ResponseWriter, r *http.Request) {
	res, err := a.svc.Cart.Validate(r.Context(), auth.UserFrom(r.Context()).ID)
	if err != nil {
		a.fail(w, err)
		return
	}
	if !res.Valid {
		respond.JSON(w, http.StatusBadRequest, map[string]any{
			"error": "Some items are out of stock",
			"items": res.Shortages,
		})
		return
	}
	respond.JSON(w, http.StatusOK, map[string]bool{"valid": true})
}

// AddToCartHandler handles POST /api/cart
func (a *App) AddToCartHandler(w http.ResponseWriter, r *http.Request) {
	var req models.AddToCartRequest
	if err := decode(w, r, &req); err != nil {
		a.fail(w, err)
		return
	}
	item, err := a.svc.Cart.AddItem(r.Context(), auth.UserFrom(r.Context()).ID, req)
	if err != nil {
		a.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, map[string]any{"message": "Item added to cart", "cartItem": item})
}

// UpdateCartItemHandler handles PUT /api/cart/{id}
func (a *App) UpdateCartItemHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, err)
		return
	}
	var req models.UpdateCartRequest
	if err := decode(w, r, &req); err != nil {
		a.fail(w, err)
		return
	}
	if err := a.svc.Cart.UpdateItem(r.Context(), auth.UserFrom(r.Context()).ID, id, req.Quantity); err != nil {
		a.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"message":  "Quantity updated",
		"cartItem": map[string]any{"cartId": id, "quantity": req.Quantity},
	})
}

// RemoveCartItemHandler handles DELETE /api/cart/{id}
func (a *App) RemoveCartItemHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, err)
		return
	}
	if err := a.svc.Cart.RemoveItem(r.Context(), auth.UserFrom(r.Context()).ID, id); err != nil {
		a.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, message("Item removed from cart"))
}

// ClearCartHandler handles DELETE /api/cart
func (a *App) ClearCartHandler(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.Cart.Clear(r.Context(), auth.UserFrom(r.Context()).ID); err != nil {
		a.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, message("Cart cleared"))
}
