package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/clefeel/storefront/internal/apperr"
	"github.com/clefeel/storefront/internal/auth"
	"github.com/clefeel/storefront/internal/metrics"
	"github.com/clefeel/storefront/internal/models"
	"github.com/clefeel/storefront/internal/notify"
	"github.com/clefeel/storefront/internal/store"
	"go.opentelemetry.io/otel/attribute"
)

const verificationTokenBytes = 32

// ErrInvalidCredentials is returned for an unknown email and a wrong
// password alike
var ErrInvalidCredentials = apperr.Unauthorized("invalid email or password")

// UserService handles accounts and credentials
type UserService struct {
	store   store.Users
	tokens  *auth.Tokens
	notify  Notifications
	metrics *metrics.AppMetrics
}

// NewUserService creates a new user service
func NewUserService(s store.Users, tokens *auth.Tokens, n Notifications, m *metrics.AppMetrics) *UserService {
	return &UserService{store: s, tokens: tokens, notify: n, metrics: m}
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a customer account, queues a verification mail and
// returns the account with a bearer token
func (s *UserService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, string, error) {
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, "", apperr.Internal(err, "failed to register")
	}
	verification, err := auth.RandomToken(verificationTokenBytes)
	if err != nil {
		return nil, "", apperr.Internal(err, "failed to register")
	}

	u := &models.User{
		Email:             normaliseEmail(req.Email),
		PasswordHash:      hash,
		FirstName:         strings.TrimSpace(req.FirstName),
		LastName:          strings.TrimSpace(req.LastName),
		Phone:             strings.TrimSpace(req.Phone),
		Role:              models.RoleCustomer,
		VerificationToken: verification,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, "", apperr.Conflict("email already registered")
		}
		return nil, "", apperr.Internal(err, "failed to register")
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, "", apperr.Internal(err, "failed to register")
	}

	s.notify.VerificationRequested(ctx, notify.Verification{
		Email: u.Email,
		Name:  u.FirstName,
		Token: verification,
	})
	slog.InfoContext(ctx, "user registered", "user_id", u.ID)
	return u, token, nil
}

// Login exchanges credentials for a bearer token
func (s *UserService) Login(ctx context.Context, req models.LoginRequest) (*models.User, string, error) {
	u, err := s.store.UserByEmail(ctx, normaliseEmail(req.Email))
	switch {
	case errors.Is(err, store.ErrNotFound):
		auth.BurnPasswordCheck(req.Password)
		s.recordLogin(ctx, false)
		return nil, "", ErrInvalidCredentials
	case err != nil:
		return nil, "", apperr.Internal(err, "failed to log in")
	}

	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		s.recordLogin(ctx, false)
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, "", apperr.Internal(err, "failed to log in")
	}
	s.recordLogin(ctx, true)
	return u, token, nil
}

func (s *UserService) recordLogin(ctx context.Context, ok bool) {
	result := "failure"
	if ok {
		result = "success"
	}
	s.metrics.Logins.Add(ctx, 1, s.metrics.Attrs(attribute.String("result", result)))
}

// VerifyEmail marks the account holding token as verified
func (s *UserService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return apperr.Validation("invalid or expired verification token")
	}
	u, err := s.store.UserByVerificationToken(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.Validation("invalid or expired verification token")
	}
	if err != nil {
		return apperr.Internal(err, "failed to verify email")
	}
	if err := s.store.MarkVerified(ctx, u.ID); err != nil {
		return storeErr(err, "user not found", "verify email")
	}
	slog.InfoContext(ctx, "email verified", "user_id", u.ID)
	return nil
}

// Me returns the caller's account
func (s *UserService) Me(ctx context.Context, id int64) (*models.User, error) {
	u, err := s.store.UserByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "user not found", "get user")
	}
	return u, nil
}

// UpdateProfile changes the caller's name and phone
func (s *UserService) UpdateProfile(ctx context.Context, id int64, req models.UpdateProfileRequest) (*models.User, error) {
	u, err := s.Me(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.FirstName != nil {
		u.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		u.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Phone != nil {
		u.Phone = strings.TrimSpace(*req.Phone)
	}
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, storeErr(err, "user not found", "update profile")
	}
	return u, nil
}
