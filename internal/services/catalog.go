package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/clefeel/storefront/internal/apperr"
	"github.com/clefeel/storefront/internal/metrics"
	"github.com/clefeel/storefront/internal/models"
	"github.com/clefeel/storefront/internal/store"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

const (
	featuredLimit = 6
	defaultBrand  = "Clefeel"
)

var sortFields = map[string]bool{"name": true, "price": true, "created_at": true}

// CatalogQuery carries the raw listing parameters of a catalog request
type CatalogQuery struct {
	Gender          string
	Category        string
	MinPrice        string
	MaxPrice        string
	Sort            string // field:dir, e.g. price:asc
	Page            int
	Limit           int
	IncludeInactive bool
}

// PerfumeList is one page of catalog results
type PerfumeList struct {
	Perfumes   []models.Perfume `json:"perfumes"`
	Pagination Pagination       `json:"pagination"`
}

// CatalogService handles perfume and variant operations
type CatalogService struct {
	store   store.Catalog
	metrics *metrics.AppMetrics
}

// NewCatalogService creates a new catalog service
func NewCatalogService(s store.Catalog, m *metrics.AppMetrics) *CatalogService {
	return &CatalogService{store: s, metrics: m}
}

// ParseSort splits a field:dir sort expression. Unknown fields fall back to
// created_at and anything but asc sorts descending.
func ParseSort(expr string) (field, order string) {
	field, order, _ = strings.Cut(expr, ":")
	if !sortFields[field] {
		field = "created_at"
	}
	if strings.EqualFold(order, "asc") {
		return field, "asc"
	}
	return field, "desc"
}

func parsePrice(raw, name string) (*decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return nil, apperr.Validation("%s must be a non-negative number", name)
	}
	return &d, nil
}

// List returns a filtered, sorted page of perfumes
func (s *CatalogService) List(ctx context.Context, q CatalogQuery) (*PerfumeList, error) {
	f := models.PerfumeFilter{
		Category:        q.Category,
		IncludeInactive: q.IncludeInactive,
	}
	if q.Gender != "" {
		f.Gender = models.Gender(strings.ToLower(q.Gender))
		if !f.Gender.Valid() {
			return nil, apperr.Validation("gender must be one of men, women, unisex")
		}
	}
	var err error
	if f.MinPrice, err = parsePrice(q.MinPrice, "minPrice"); err != nil {
		return nil, err
	}
	if f.MaxPrice, err = parsePrice(q.MaxPrice, "maxPrice"); err != nil {
		return nil, err
	}
	f.SortBy, f.SortOrder = ParseSort(q.Sort)

	page := NewPagination(q.Page, q.Limit)
	f.Limit, f.Offset = page.Limit, page.Offset()

	perfumes, total, err := s.store.ListPerfumes(ctx, f)
	if err != nil {
		return nil, storeErr(err, "perfume not found", "list perfumes")
	}
	return &PerfumeList{Perfumes: perfumes, Pagination: page.withTotal(total)}, nil
}

// Featured returns the newest featured perfumes
func (s *CatalogService) Featured(ctx context.Context) ([]models.Perfume, error) {
	perfumes, err := s.store.FeaturedPerfumes(ctx, featuredLimit)
	if err != nil {
		return nil, storeErr(err, "perfume not found", "list featured perfumes")
	}
	return perfumes, nil
}

// BySlug returns an active perfume with its active variants, cheapest first
func (s *CatalogService) BySlug(ctx context.Context, slug string) (*models.Perfume, error) {
	p, err := s.store.PerfumeBySlug(ctx, slug)
	if err != nil {
		return nil, storeErr(err, "perfume not found", "get perfume")
	}

	s.metrics.ProductsViewed.Add(ctx, 1, s.metrics.Attrs(
		attribute.Int64("perfume_id", p.ID),
		attribute.String("gender", string(p.Gender)),
	))
	return p, nil
}

// SKU derives a variant stock keeping unit from the perfume slug and size
func SKU(perfumeSlug, size string) string {
	return strings.ToUpper(perfumeSlug + "-" + strings.ReplaceAll(strings.TrimSpace(size), " ", "-"))
}

func newVariant(perfumeSlug string, in models.VariantInput) (models.Variant, error) {
	if !in.Price.IsPositive() {
		return models.Variant{}, apperr.Validation("variant price must be greater than zero")
	}
	return models.Variant{
		Size:          strings.TrimSpace(in.Size),
		Price:         in.Price.Round(2),
		StockQuantity: in.Stock,
		SKU:           SKU(perfumeSlug, in.Size),
		IsActive:      true,
	}, nil
}

// Create adds a perfume together with its variants
func (s *CatalogService) Create(ctx context.Context, req models.CreatePerfumeRequest) (*models.Perfume, error) {
	p := &models.Perfume{
		Name:             strings.TrimSpace(req.Name),
		Slug:             slug.Make(req.Name),
		Description:      req.Description,
		ShortDescription: req.ShortDescription,
		Gender:           req.Gender,
		Brand:            req.Brand,
		Category:         req.Category,
		Images:           req.Images,
		IsActive:         true,
		IsFeatured:       req.IsFeatured,
		MetaTitle:        req.MetaTitle,
		MetaDescription:  req.MetaDescription,
	}
	if p.Slug == "" {
		return nil, apperr.Validation("name must contain letters or digits")
	}
	if p.Brand == "" {
		p.Brand = defaultBrand
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	for _, in := range req.Variants {
		v, err := newVariant(p.Slug, in)
		if err != nil {
			return nil, err
		}
		p.Variants = append(p.Variants, v)
	}

	if err := s.store.CreatePerfume(ctx, p); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Conflict("a perfume with this name or sku already exists")
		}
		return nil, storeErr(err, "perfume not found", "create perfume")
	}
	for _, v := range p.Variants {
		s.recordStock(ctx, v)
	}
	slog.InfoContext(ctx, "perfume created", "perfume_id", p.ID, "slug", p.Slug, "variants", len(p.Variants))
	return p, nil
}

// Update applies a partial update. Renaming regenerates the slug.
func (s *CatalogService) Update(ctx context.Context, id int64, req models.UpdatePerfumeRequest) (*models.Perfume, error) {
	if req.Empty() {
		return nil, apperr.Validation("no fields to update")
	}
	p, err := s.store.PerfumeByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "perfume not found", "get perfume")
	}

	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
		p.Slug = slug.Make(p.Name)
		if p.Slug == "" {
			return nil, apperr.Validation("name must contain letters or digits")
		}
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.ShortDescription != nil {
		p.ShortDescription = *req.ShortDescription
	}
	if req.Gender != nil {
		p.Gender = *req.Gender
	}
	if req.Category != nil {
		p.Category = *req.Category
	}
	if req.Images != nil {
		p.Images = *req.Images
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	if req.IsFeatured != nil {
		p.IsFeatured = *req.IsFeatured
	}
	if req.MetaTitle != nil {
		p.MetaTitle = *req.MetaTitle
	}
	if req.MetaDescription != nil {
		p.MetaDescription = *req.MetaDescription
	}

	if err := s.store.UpdatePerfume(ctx, p); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Conflict("a perfume with this name already exists")
		}
		return nil, storeErr(err, "perfume not found", "update perfume")
	}
	return s.adminPerfume(ctx, id)
}

// Delete removes a perfume and its variants. Past order lines keep their
// snapshot and lose the variant reference.
func (s *CatalogService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeletePerfume(ctx, id); err != nil {
		return storeErr(err, "perfume not found", "delete perfume")
	}
	slog.InfoContext(ctx, "perfume deleted", "perfume_id", id)
	return nil
}

// AddVariant creates a new size for an existing perfume
func (s *CatalogService) AddVariant(ctx context.Context, perfumeID int64, in models.VariantInput) (*models.Variant, error) {
	p, err := s.store.PerfumeByID(ctx, perfumeID)
	if err != nil {
		return nil, storeErr(err, "perfume not found", "get perfume")
	}
	v, err := newVariant(p.Slug, in)
	if err != nil {
		return nil, err
	}
	v.PerfumeID = p.ID

	if err := s.store.CreateVariant(ctx, &v); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Conflict("variant %s already exists", v.SKU)
		}
		return nil, storeErr(err, "perfume not found", "create variant")
	}
	s.recordStock(ctx, v)
	return &v, nil
}

// UpdateVariant applies a partial variant update
func (s *CatalogService) UpdateVariant(ctx context.Context, id int64, req models.UpdateVariantRequest) (*models.Variant, error) {
	if req.Empty() {
		return nil, apperr.Validation("no fields to update")
	}
	d, err := s.store.Variant(ctx, id)
	if err != nil {
		return nil, storeErr(err, "variant not found", "get variant")
	}
	v := d.Variant

	if req.Size != nil {
		v.Size = strings.TrimSpace(*req.Size)
		if p, err := s.store.PerfumeByID(ctx, v.PerfumeID); err == nil {
			v.SKU = SKU(p.Slug, v.Size)
		}
	}
	if req.Price != nil {
		if !req.Price.IsPositive() {
			return nil, apperr.Validation("variant price must be greater than zero")
		}
		v.Price = req.Price.Round(2)
	}
	if req.StockQuantity != nil {
		v.StockQuantity = *req.StockQuantity
	}
	if req.IsActive != nil {
		v.IsActive = *req.IsActive
	}

	if err := s.store.UpdateVariant(ctx, &v); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Conflict("variant %s already exists", v.SKU)
		}
		return nil, storeErr(err, "variant not found", "update variant")
	}
	s.recordStock(ctx, v)
	return &v, nil
}

// DeleteVariant removes a variant and any cart lines holding it
func (s *CatalogService) DeleteVariant(ctx context.Context, id int64) error {
	if err := s.store.DeleteVariant(ctx, id); err != nil {
		return storeErr(err, "variant not found", "delete variant")
	}
	return nil
}

func (s *CatalogService) adminPerfume(ctx context.Context, id int64) (*models.Perfume, error) {
	p, err := s.store.PerfumeByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "perfume not found", "get perfume")
	}
	return p, nil
}

func (s *CatalogService) recordStock(ctx context.Context, v models.Variant) {
	s.metrics.InventoryLevel.Record(ctx, int64(v.StockQuantity), s.metrics.Attrs(
		attribute.Int64("variant_id", v.ID),
		attribute.String("sku", v.SKU),
	))
}
