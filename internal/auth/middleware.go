package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/clefeel/storefront/internal/apperr"
	"github.com/clefeel/storefront/internal/models"
	"github.com/clefeel/storefront/internal/respond"
	"github.com/clefeel/storefront/internal/store"
)

type ctxKey struct{}

// WithUser stores the authenticated user on ctx
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// UserFrom returns the authenticated user, or nil for anonymous requests
func UserFrom(ctx context.Context) *models.User {
	u, _ := ctx.Value(ctxKey{}).(*models.User)
	return u
}

// UserLoader resolves the account behind a verified token
type UserLoader interface {
	UserByID(ctx context.Context, id int64) (*models.User, error)
}

// Authenticator resolves bearer tokens to users. The user row is reloaded
// on every request so role changes and deletions apply immediately.
type Authenticator struct {
	tokens *Tokens
	users  UserLoader
}

// NewAuthenticator creates request authentication middleware
func NewAuthenticator(tokens *Tokens, users UserLoader) *Authenticator {
	return &Authenticator{tokens: tokens, users: users}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func (a *Authenticator) authenticate(r *http.Request) (*models.User, error) {
	token := bearerToken(r)
	if token == "" {
		return nil, apperr.Unauthorized("access denied, no token provided")
	}
	id, err := a.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	u, err := a.users.UserByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Unauthorized("user not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to load user")
	}
	return u, nil
}

// RequireAuth rejects requests without a valid token
func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := a.authenticate(r)
		if err != nil {
			respond.Error(w, err, false)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
	})
}

// RequireAdmin rejects requests from anyone but administrators
func (a *Authenticator) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := a.authenticate(r)
		if err != nil {
			respond.Error(w, err, false)
			return
		}
		if !u.IsAdmin() {
			respond.Error(w, apperr.Forbidden("admin access required"), false)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
	})
}

// OptionalAuth attaches the user when a valid token is present and lets
// the request through anonymously otherwise
func (a *Authenticator) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if bearerToken(r) != "" {
			if u, err := a.authenticate(r); err == nil {
				r = r.WithContext(WithUser(r.Context(), u))
			}
		}
		next.ServeHTTP(w, r)
	})
}
