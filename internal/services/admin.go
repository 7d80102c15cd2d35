package services

import (
	"context"
	"time"

	"github.com/clefeel/storefront/internal/models"
	"github.com/clefeel/storefront/internal/store"
)

const dashboardWindow = 30 * 24 * time.Hour

// AdminService builds the admin dashboard
type AdminService struct {
	store store.Store
	now   func() time.Time
}

// NewAdminService creates a new admin service
func NewAdminService(s store.Store) *AdminService {
	return &AdminService{store: s, now: time.Now}
}

// Dashboard returns the overview counters. Order and revenue figures cover
// the last 30 days; revenue excludes cancelled orders.
func (s *AdminService) Dashboard(ctx context.Context) (*models.DashboardStats, error) {
	stats, err := s.store.OrderStats(ctx, s.now().Add(-dashboardWindow))
	if err != nil {
		return nil, storeErr(err, "stats not found", "load order stats")
	}
	customers, err := s.store.CountCustomers(ctx)
	if err != nil {
		return nil, storeErr(err, "stats not found", "count customers")
	}
	products, err := s.store.CountActivePerfumes(ctx)
	if err != nil {
		return nil, storeErr(err, "stats not found", "count products")
	}
	enquiries, err := s.store.CountEnquiries(ctx, "new")
	if err != nil {
		return nil, storeErr(err, "stats not found", "count enquiries")
	}

	return &models.DashboardStats{
		Orders30d:      stats.Orders,
		PendingOrders:  stats.Pending,
		Revenue30d:     stats.Revenue.Round(2),
		TotalCustomers: customers,
		ActiveProducts: products,
		NewEnquiries:   enquiries,
	}, nil
}
