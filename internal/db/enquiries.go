package db

import (
	"context"
	"fmt"

	"github.com/clefeel/storefront/internal/models"
)

func (s *Store) CreateEnquiry(ctx context.Context, e *models.Enquiry) error {
	if e.Status == "" {
		e.Status = "new"
	}
	query := "INSERT INTO enquiries (name, email, phone, subject, message, status) VALUES (?, ?, ?, ?, ?, ?)"
	res, err := s.exec(ctx, s.db, "INSERT", "enquiries", query, e.Name, e.Email, e.Phone, e.Subject, e.Message, e.Status)
	if err != nil {
		return fmt.Errorf("failed to create enquiry: %w", err)
	}
	if e.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to get enquiry ID: %w", err)
	}
	e.CreatedAt = timeNow()
	return nil
}

func (s *Store) ListEnquiries(ctx context.Context, limit int) ([]models.Enquiry, error) {
	query := `SELECT id, name, email, phone, subject, message, status, created_at
		FROM enquiries ORDER BY created_at DESC, id DESC LIMIT ?`
	rows, err := s.query(ctx, s.db, "enquiries", query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list enquiries: %w", err)
	}
	defer rows.Close()

	enquiries := []models.Enquiry{}
	for rows.Next() {
		var e models.Enquiry
		if err := rows.Scan(&e.ID, &e.Name, &e.Email, &e.Phone, &e.Subject, &e.Message, &e.Status, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan enquiry: %w", err)
		}
		enquiries = append(enquiries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list enquiries: %w", err)
	}
	return enquiries, nil
}

func (s *Store) UpdateEnquiryStatus(ctx context.Context, id int64, status string) error {
	query := "UPDATE enquiries SET status = ? WHERE id = ?"
	res, err := s.exec(ctx, s.db, "UPDATE", "enquiries", query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update enquiry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// unchanged status also reports zero rows
		return s.enquiryExists(ctx, id)
	}
	return nil
}

func (s *Store) enquiryExists(ctx context.Context, id int64) error {
	var one int
	return s.queryRow(ctx, s.db, "enquiries", "SELECT 1 FROM enquiries WHERE id = ?", []any{id}, &one)
}

func (s *Store) CountEnquiries(ctx context.Context, status string) (int, error) {
	if status == "" {
		return s.count(ctx, "enquiries", "SELECT COUNT(*) FROM enquiries")
	}
	return s.count(ctx, "enquiries", "SELECT COUNT(*) FROM enquiries WHERE status = ?", status)
}
