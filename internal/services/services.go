package services

import (
	"context"
	"errors"

	"github.com/clefeel/storefront/internal/apperr"
	"github.com/clefeel/storefront/internal/notify"
	"github.com/clefeel/storefront/internal/store"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Notifications receives events that are delivered after the triggering
// write has committed. Implementations must not block the caller.
type Notifications interface {
	OrderPlaced(ctx context.Context, ev notify.OrderPlaced)
	VerificationRequested(ctx context.Context, v notify.Verification)
}

// Pagination describes one page of a listing
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewPagination normalises page and limit: page starts at 1, limit
// defaults to 20 and is capped at 100
func NewPagination(page, limit int) Pagination {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return Pagination{Page: page, Limit: limit}
}

// Offset is the number of rows skipped before this page
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

func (p Pagination) withTotal(total int) Pagination {
	p.Total = total
	p.TotalPages = (total + p.Limit - 1) / p.Limit
	return p
}

// storeErr classifies a persistence failure. Missing rows and unique
// violations become client errors; anything else is internal.
func storeErr(err error, notFound, op string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apperr.NotFound("%s", notFound)
	case errors.Is(err, store.ErrDuplicate):
		return apperr.Conflict("failed to %s: already exists", op)
	default:
		return apperr.Internal(err, "failed to %s", op)
	}
}
