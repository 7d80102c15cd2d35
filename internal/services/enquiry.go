package services

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/clefeel/storefront/internal/apperr"
	"github.com/clefeel/storefront/internal/models"
	"github.com/clefeel/storefront/internal/store"
)

const enquiryListLimit = 100

// EnquiryService handles contact form submissions
type EnquiryService struct {
	store store.Enquiries
}

// NewEnquiryService creates a new enquiry service
func NewEnquiryService(s store.Enquiries) *EnquiryService {
	return &EnquiryService{store: s}
}

// Submit stores a contact form submission
func (s *EnquiryService) Submit(ctx context.Context, req models.EnquiryRequest) (*models.Enquiry, error) {
	e := &models.Enquiry{
		Name:    strings.TrimSpace(req.Name),
		Email:   normaliseEmail(req.Email),
		Phone:   strings.TrimSpace(req.Phone),
		Subject: strings.TrimSpace(req.Subject),
		Message: strings.TrimSpace(req.Message),
		Status:  "new",
	}
	if err := s.store.CreateEnquiry(ctx, e); err != nil {
		return nil, storeErr(err, "enquiry not found", "submit enquiry")
	}
	slog.InfoContext(ctx, "enquiry received", "enquiry_id", e.ID)
	return e, nil
}

// List returns the latest enquiries
func (s *EnquiryService) List(ctx context.Context) ([]models.Enquiry, error) {
	list, err := s.store.ListEnquiries(ctx, enquiryListLimit)
	if err != nil {
		return nil, storeErr(err, "enquiry not found", "list enquiries")
	}
	return nonNil(list), nil
}

// UpdateStatus sets the handling status of an enquiry
func (s *EnquiryService) UpdateStatus(ctx context.Context, id int64, status string) error {
	if !slices.Contains(models.EnquiryStatuses, status) {
		return apperr.Validation("invalid status %q", status)
	}
	if err := s.store.UpdateEnquiryStatus(ctx, id, status); err != nil {
		return storeErr(err, "enquiry not found", "update enquiry")
	}
	return nil
}
