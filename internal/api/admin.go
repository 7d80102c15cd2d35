package api

import (
	"net/http"

	"github.com/clefeel/storefront/internal/models"
	"github.com/clefeel/storefront/internal/respond"
)

// DashboardHandler handles GET /api/admin/dashboard
func (a *App) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := a.svc.Admin.Dashboard(r.Context())
	if err != nil {
		a.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"stats": stats})
}

// RecentOrdersHandler handles GET /api/admin/dashboard/recent-orders
func (a *App) RecentOrdersHandler(w http.ResponseWriter, r *http.Request) {
	orders, err := a.svc.Orders.RecentOrders(r.Context())
	if err != nil {
		a.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"orders": orders})
}

// ListOrdersHandler handles GET /api/admin/orders
func (a *App) ListOrdersHandler(w http.ResponseWriter, r *http.Request) {
	list, err := a.svc.Orders.ListOrders(r.Context(), r.URL.Query().Get("status"), queryInt(r, "page"), queryInt(r, "limit"))
	if err != nil {
		a.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

// UpdateOrderStatusHandler handles PUT /api/admin/orders/{id}/status
func (a *App) UpdateOrderStatusHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, err)
		return
	}
	var req models.UpdateOrderStatusRequest
	if err := decode(w, r, &req); err != nil {
		a.fail(w, err)
		return
	}
	o, err := a.svc.Orders.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		a.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"message": "Order status updated", "order": o})
}

// UpdatePaymentHandler handles PUT /api/admin/orders/{id}/payment
func (a *App) UpdatePaymentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, err)
		return
	}
	var req models.UpdatePaymentStatusRequest
	if err := decode(w, r, &req); err != nil {
		a.fail(w, err)
		return
	}
	if err := a.svc.Orders.UpdatePayment(r.Context(), id, req); err != nil {
		a.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, message("Payment status updated"))
}

// CreateEnquiryHandler handles POST /api/enquiries
func (a *App) CreateEnquiryHandler(w http.ResponseWriter, r *http.Request) {
	var req models.EnquiryRequest
	if err := decode(w, r, &req); err != nil {
		a.fail(w, err)
		return
	}
	e, err := a.svc.Enquiries.Submit(r.Context(), req)
	if err != nil {
		a.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, map[string]any{
		"message": "Thank you for your enquiry. We will get back to you soon.",
		"id":      e.ID,
	})
}

// ListEnquiriesHandler handles GET /api/admin/enquiries
func (a *App) ListEnquiriesHandler(w http.ResponseWriter, r *http.Request) {
	list, err := a.svc.Enquiries.List(r.Context())
	if err != nil {
		a.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"enquiries": list})
}

// UpdateEnquiryHandler handles PUT /api/admin/enquiries/{id}
func (a *App) UpdateEnquiryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, err)
		return
	}
	var req models.UpdateEnquiryRequest
	if err := decode(w, r, &req); err != nil {
		a.fail(w, err)
		return
	}
	if err := a.svc.Enquiries.UpdateStatus(r.Context(), id, req.Status); err != nil {
		a.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, message("Enquiry updated"))
}
