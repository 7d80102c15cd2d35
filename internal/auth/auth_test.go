package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/clefeel/storefront/internal/apperr"
	"github.com/clefeel/storefront/internal/models"
	"github.com/clefeel/storefront/internal/store"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	Cost = bcrypt.MinCost
}

type userMap map[int64]*models.User

func (m userMap) UserByID(_ context.Context, id int64) (*models.User, error) {
	if u, ok := m[id]; ok {
		return u, nil
	}
	return nil, store.ErrNotFound
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "s3cret!"))
	assert.False(t, CheckPassword(hash, "wrong"))
	assert.NotPanics(t, func() { BurnPasswordCheck("anything") })
}

func TestRandomToken(t *testing.T) {
	a, err := RandomToken(32)
	require.NoError(t, err)
	b, err := RandomToken(32)
	require.NoError(t, err)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}

func TestTokenIssueVerify(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	tok, err := tokens.Issue(&models.User{ID: 42, Role: models.RoleAdmin})
	require.NoError(t, err)

	id, err := tokens.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	_, err = NewTokens("other", time.Hour).Verify(tok)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
}

func TestTokenExpired(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	tokens.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tok, err := tokens.Issue(&models.User{ID: 1})
	require.NoError(t, err)

	tokens.now = time.Now
	_, err = tokens.Verify(tok)
	require.Error(t, err)
	assert.Equal(t, "token expired", err.Error())
}

func TestTokenRejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokens("secret", time.Hour).Verify(tok)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
}

func serve(h http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMiddleware(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	users := userMap{
		1: {ID: 1, Role: models.RoleCustomer},
		2: {ID: 2, Role: models.RoleAdmin},
	}
	a := NewAuthenticator(tokens, users)

	var seen *models.User
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	customer, _ := tokens.Issue(users[1])
	admin, _ := tokens.Issue(users[2])
	ghost, _ := tokens.Issue(&models.User{ID: 99})

	rec := serve(a.RequireAuth(ok), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(a.RequireAuth(ok), ghost)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "user not found", body["error"])

	rec = serve(a.RequireAuth(ok), customer)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int64(1), seen.ID)

	rec = serve(a.RequireAdmin(ok), customer)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(a.RequireAdmin(ok), admin)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	seen = &models.User{}
	rec = serve(a.OptionalAuth(ok), "garbage")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Nil(t, seen)
}
