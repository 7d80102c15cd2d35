package api

import (
	"net/http"

	"github.com/clefeel/storefront/internal/auth"
	"github.com/clefeel/storefront/internal/models"
	"github.com/clefeel/storefront/internal/respond"
)

// CreateOrderHandler handles POST /api/orders for signed-in and guest buyers
func (a *App) CreateOrderHandler(w http.ResponseWriter, r *http.Request) {
	var req models.CreateOrderRequest
	if err := decode(w, r, &req); err != nil {
		a.fail(w, err)
		return
	}
	summary, err := a.svc.Orders.CreateOrder(r.Context(), auth.UserFrom(r.Context()), req)
	if err != nil {
		a.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, map[string]any{"message": "Order placed successfully", "order": summary})
}

// CreateOrderFromCartHandler handles POST /api/orders/from-cart
func (a *App) CreateOrderFromCartHandler(w http.ResponseWriter, r *http.Request) {
	var req models.CheckoutRequest
	if err := decode(w, r, &req); err != nil {
		a.fail(w, err)
		return
	}
	summary, err := a.svc.Orders.CreateOrderFromCart(r.Context(), auth.UserFrom(r.Context()), req)
	if err != nil {
		a.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, map[string]any{"message": "Order placed successfully", "order": summary})
}

// GetOrderHandler handles GET /api/orders/{id}
func (a *App) GetOrderHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, err)
		return
	}
	o, err := a.svc.Orders.GetOrder(r.Context(), auth.UserFrom(r.Context()), id)
	if err != nil {
		a.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"order": o})
}

// MyOrdersHandler handles GET /api/orders/my-orders
func (a *App) MyOrdersHandler(w http.ResponseWriter, r *http.Request) {
	list, err := a.svc.Orders.MyOrders(r.Context(), auth.UserFrom(r.Context()).ID, queryInt(r, "page"), queryInt(r, "limit"))
	if err != nil {
		a.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}
