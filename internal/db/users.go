package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/clefeel/storefront/internal/models"
	"github.com/clefeel/storefront/internal/store"
)

const userColumns = `id, email, password_hash, first_name, last_name, phone, role, is_verified,
	verification_token, created_at, updated_at`

func (s *Store) userBy(ctx context.Context, cond string, arg any) (*models.User, error) {
	var (
		u     models.User
		token sql.NullString
	)
	err := s.queryRow(ctx, s.db, "users", "SELECT "+userColumns+" FROM users WHERE "+cond, []any{arg},
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Phone, &u.Role, &u.IsVerified,
		&token, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	u.VerificationToken = token.String
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	query := `INSERT INTO users (email, password_hash, first_name, last_name, phone, role, is_verified, verification_token)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := s.exec(ctx, s.db, "INSERT", "users", query,
		u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Phone, u.Role, u.IsVerified, nullString(u.VerificationToken))
	if err != nil {
		return fmt.Errorf("failed to create user: %w", mapError(err))
	}
	if u.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to get user ID: %w", err)
	}
	u.CreatedAt = timeNow()
	u.UpdatedAt = u.CreatedAt
	return nil
}

func (s *Store) UserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.userBy(ctx, "id = ?", id)
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.userBy(ctx, "email = ?", email)
}

func (s *Store) UserByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, store.ErrNotFound
	}
	return s.userBy(ctx, "verification_token = ?", token)
}

func (s *Store) MarkVerified(ctx context.Context, id int64) error {
	query := "UPDATE users SET is_verified = TRUE, verification_token = NULL WHERE id = ?"
	res, err := s.exec(ctx, s.db, "UPDATE", "users", query, id)
	if err != nil {
		return fmt.Errorf("failed to verify user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := s.UserByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) UpdateUser(ctx context.Context, u *models.User) error {
	query := "UPDATE users SET first_name = ?, last_name = ?, phone = ? WHERE id = ?"
	if _, err := s.exec(ctx, s.db, "UPDATE", "users", query, u.FirstName, u.LastName, u.Phone, u.ID); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	fresh, err := s.UserByID(ctx, u.ID)
	if err != nil {
		return err
	}
	*u = *fresh
	return nil
}

func (s *Store) CountCustomers(ctx context.Context) (int, error) {
	return s.count(ctx, "users", "SELECT COUNT(*) FROM users WHERE role = ?", models.RoleCustomer)
}
