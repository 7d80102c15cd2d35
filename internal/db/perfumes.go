package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/clefeel/storefront/internal/models"
	"github.com/clefeel/storefront/internal/store"
	"github.com/shopspring/decimal"
)

const perfumeColumns = `p.id, p.name, p.slug, p.description, p.short_description, p.gender, p.brand,
	p.category, p.images, p.is_active, p.is_featured, p.meta_title, p.meta_description,
	p.created_at, p.updated_at,
	(SELECT MIN(v.price) FROM variants v WHERE v.perfume_id = p.id AND v.is_active = TRUE) AS min_price`

const variantColumns = `id, perfume_id, size, price, stock_quantity, sku, is_active, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPerfume(r rowScanner) (models.Perfume, error) {
	var (
		p        models.Perfume
		images   []byte
		metaDesc sql.NullString
		minPrice decimal.NullDecimal
	)
	err := r.Scan(&p.ID, &p.Name, &p.Slug, &p.Description, &p.ShortDescription, &p.Gender, &p.Brand,
		&p.Category, &images, &p.IsActive, &p.IsFeatured, &p.MetaTitle, &metaDesc,
		&p.CreatedAt, &p.UpdatedAt, &minPrice)
	if err != nil {
		return p, err
	}
	p.MetaDescription = metaDesc.String
	if minPrice.Valid {
		p.MinPrice = &minPrice.Decimal
	}
	p.Images = []string{}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &p.Images); err != nil {
			return p, fmt.Errorf("failed to decode images: %w", err)
		}
	}
	p.Variants = []models.Variant{}
	return p, nil
}

func scanVariant(r rowScanner) (models.Variant, error) {
	var v models.Variant
	err := r.Scan(&v.ID, &v.PerfumeID, &v.Size, &v.Price, &v.StockQuantity, &v.SKU, &v.IsActive, &v.CreatedAt)
	return v, err
}

func encodeImages(images []string) ([]byte, error) {
	if images == nil {
		images = []string{}
	}
	return json.Marshal(images)
}

// perfumeWhere builds the WHERE clause shared by the listing and its count
func perfumeWhere(f models.PerfumeFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if !f.IncludeInactive {
		conds = append(conds, "p.is_active = TRUE")
	}
	if f.Gender != "" {
		conds = append(conds, "p.gender = ?")
		args = append(args, f.Gender)
	}
	if f.Category != "" {
		conds = append(conds, "p.category = ?")
		args = append(args, f.Category)
	}
	if f.MinPrice != nil || f.MaxPrice != nil {
		cond := "EXISTS (SELECT 1 FROM variants v WHERE v.perfume_id = p.id AND v.is_active = TRUE"
		if f.MinPrice != nil {
			cond += " AND v.price >= ?"
			args = append(args, *f.MinPrice)
		}
		if f.MaxPrice != nil {
			cond += " AND v.price <= ?"
			args = append(args, *f.MaxPrice)
		}
		conds = append(conds, cond+")")
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// perfumeOrder maps an already-normalised sort onto columns. Unknown values
// fall back to newest first so no caller input reaches the SQL text.
func perfumeOrder(sortBy, sortOrder string) string {
	dir := "DESC"
	if strings.EqualFold(sortOrder, "asc") {
		dir = "ASC"
	}
	switch sortBy {
	case "name":
		return fmt.Sprintf(" ORDER BY p.name %s, p.id %s", dir, dir)
	case "price":
		return fmt.Sprintf(" ORDER BY (min_price IS NULL), min_price %s, p.id %s", dir, dir)
	default:
		return fmt.Sprintf(" ORDER BY p.created_at %s, p.id %s", dir, dir)
	}
}

func (s *Store) ListPerfumes(ctx context.Context, f models.PerfumeFilter) ([]models.Perfume, int, error) {
	where, args := perfumeWhere(f)

	total, err := s.count(ctx, "perfumes", "SELECT COUNT(*) FROM perfumes p"+where, args...)
	if err != nil {
		return nil, 0, err
	}

	query := "SELECT " + perfumeColumns + " FROM perfumes p" + where + perfumeOrder(f.SortBy, f.SortOrder)
	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}

	perfumes, err := s.loadPerfumes(ctx, query, args, f.IncludeInactive)
	if err != nil {
		return nil, 0, err
	}
	return perfumes, total, nil
}

func (s *Store) FeaturedPerfumes(ctx context.Context, limit int) ([]models.Perfume, error) {
	query := "SELECT " + perfumeColumns + ` FROM perfumes p
		WHERE p.is_active = TRUE AND p.is_featured = TRUE
		ORDER BY p.created_at DESC, p.id DESC LIMIT ?`
	return s.loadPerfumes(ctx, query, []any{limit}, false)
}

// loadPerfumes runs a perfume query and attaches variants in one extra query
func (s *Store) loadPerfumes(ctx context.Context, query string, args []any, includeInactive bool) ([]models.Perfume, error) {
	rows, err := s.query(ctx, s.db, "perfumes", query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list perfumes: %w", err)
	}
	defer rows.Close()

	perfumes := []models.Perfume{}
	index := map[int64]int{}
	for rows.Next() {
		p, err := scanPerfume(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan perfume: %w", err)
		}
		index[p.ID] = len(perfumes)
		perfumes = append(perfumes, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list perfumes: %w", err)
	}
	rows.Close()

	if len(perfumes) == 0 {
		return perfumes, nil
	}

	ids := make([]any, 0, len(perfumes))
	for _, p := range perfumes {
		ids = append(ids, p.ID)
	}
	vq := "SELECT " + variantColumns + " FROM variants WHERE perfume_id IN (" + placeholders(len(ids)) + ")"
	if !includeInactive {
		vq += " AND is_active = TRUE"
	}
	vq += " ORDER BY price ASC, id ASC"

	vrows, err := s.query(ctx, s.db, "variants", vq, ids...)
	if err != nil {
		return nil, fmt.Errorf("failed to list variants: %w", err)
	}
	defer vrows.Close()
	for vrows.Next() {
		v, err := scanVariant(vrows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan variant: %w", err)
		}
		if i, ok := index[v.PerfumeID]; ok {
			perfumes[i].Variants = append(perfumes[i].Variants, v)
		}
	}
	if err := vrows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list variants: %w", err)
	}
	return perfumes, nil
}

func (s *Store) perfumeWhereKey(ctx context.Context, cond string, arg any, includeInactive bool) (*models.Perfume, error) {
	query := "SELECT " + perfumeColumns + " FROM perfumes p WHERE " + cond
	perfumes, err := s.loadPerfumes(ctx, query, []any{arg}, includeInactive)
	if err != nil {
		return nil, err
	}
	if len(perfumes) == 0 {
		return nil, store.ErrNotFound
	}
	return &perfumes[0], nil
}

func (s *Store) PerfumeBySlug(ctx context.Context, slug string) (*models.Perfume, error) {
	return s.perfumeWhereKey(ctx, "p.slug = ? AND p.is_active = TRUE", slug, false)
}

func (s *Store) PerfumeByID(ctx context.Context, id int64) (*models.Perfume, error) {
	return s.perfumeWhereKey(ctx, "p.id = ?", id, true)
}

func (s *Store) CreatePerfume(ctx context.Context, p *models.Perfume) error {
	images, err := encodeImages(p.Images)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO perfumes (name, slug, description, short_description, gender, brand, category,
		images, is_active, is_featured, meta_title, meta_description)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := s.exec(ctx, tx, "INSERT", "perfumes", query,
		p.Name, p.Slug, p.Description, p.ShortDescription, p.Gender, p.Brand, p.Category,
		images, p.IsActive, p.IsFeatured, p.MetaTitle, nullString(p.MetaDescription))
	if err != nil {
		return fmt.Errorf("failed to create perfume: %w", mapError(err))
	}
	if p.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to get perfume ID: %w", err)
	}

	for i := range p.Variants {
		v := &p.Variants[i]
		v.PerfumeID = p.ID
		if err := s.insertVariant(ctx, tx, v); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Store) UpdatePerfume(ctx context.Context, p *models.Perfume) error {
	images, err := encodeImages(p.Images)
	if err != nil {
		return err
	}
	query := `UPDATE perfumes SET name = ?, slug = ?, description = ?, short_description = ?, gender = ?,
		category = ?, images = ?, is_active = ?, is_featured = ?, meta_title = ?, meta_description = ?
		WHERE id = ?`
	res, err := s.exec(ctx, s.db, "UPDATE", "perfumes", query,
		p.Name, p.Slug, p.Description, p.ShortDescription, p.Gender,
		p.Category, images, p.IsActive, p.IsFeatured, p.MetaTitle, nullString(p.MetaDescription), p.ID)
	if err != nil {
		return fmt.Errorf("failed to update perfume: %w", mapError(err))
	}
	// MySQL reports zero affected rows for a no-op update, so existence is
	// checked separately
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := s.PerfumeByID(ctx, p.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) DeletePerfume(ctx context.Context, id int64) error {
	query := "DELETE FROM perfumes WHERE id = ?"
	res, err := s.exec(ctx, s.db, "DELETE", "perfumes", query, id)
	if err != nil {
		return fmt.Errorf("failed to delete perfume: %w", err)
	}
	return expectAffected(res)
}

func (s *Store) CountActivePerfumes(ctx context.Context) (int, error) {
	return s.count(ctx, "perfumes", "SELECT COUNT(*) FROM perfumes WHERE is_active = TRUE")
}

const variantDetailQuery = `SELECT v.id, v.perfume_id, v.size, v.price, v.stock_quantity, v.sku, v.is_active,
	v.created_at, p.name, p.is_active
	FROM variants v JOIN perfumes p ON p.id = v.perfume_id`

func scanVariantDetail(r rowScanner) (models.VariantDetail, error) {
	var d models.VariantDetail
	err := r.Scan(&d.ID, &d.PerfumeID, &d.Size, &d.Price, &d.StockQuantity, &d.SKU, &d.IsActive,
		&d.CreatedAt, &d.PerfumeName, &d.PerfumeActive)
	return d, err
}

func (s *Store) Variant(ctx context.Context, id int64) (*models.VariantDetail, error) {
	var d models.VariantDetail
	err := s.queryRow(ctx, s.db, "variants", variantDetailQuery+" WHERE v.id = ?", []any{id},
		&d.ID, &d.PerfumeID, &d.Size, &d.Price, &d.StockQuantity, &d.SKU, &d.IsActive,
		&d.CreatedAt, &d.PerfumeName, &d.PerfumeActive)
	if errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get variant: %w", err)
	}
	return &d, nil
}

func (s *Store) insertVariant(ctx context.Context, q querier, v *models.Variant) error {
	query := "INSERT INTO variants (perfume_id, size, price, stock_quantity, sku, is_active) VALUES (?, ?, ?, ?, ?, ?)"
	res, err := s.exec(ctx, q, "INSERT", "variants", query, v.PerfumeID, v.Size, v.Price, v.StockQuantity, v.SKU, v.IsActive)
	if err != nil {
		return fmt.Errorf("failed to create variant: %w", mapError(err))
	}
	if v.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to get variant ID: %w", err)
	}
	v.CreatedAt = timeNow()
	return nil
}

func (s *Store) CreateVariant(ctx context.Context, v *models.Variant) error {
	return s.insertVariant(ctx, s.db, v)
}

func (s *Store) UpdateVariant(ctx context.Context, v *models.Variant) error {
	query := "UPDATE variants SET size = ?, price = ?, stock_quantity = ?, sku = ?, is_active = ? WHERE id = ?"
	res, err := s.exec(ctx, s.db, "UPDATE", "variants", query, v.Size, v.Price, v.StockQuantity, v.SKU, v.IsActive, v.ID)
	if err != nil {
		return fmt.Errorf("failed to update variant: %w", mapError(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := s.Variant(ctx, v.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) DeleteVariant(ctx context.Context, id int64) error {
	query := "DELETE FROM variants WHERE id = ?"
	res, err := s.exec(ctx, s.db, "DELETE", "variants", query, id)
	if err != nil {
		return fmt.Errorf("failed to delete variant: %w", err)
	}
	return expectAffected(res)
}
