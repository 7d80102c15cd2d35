package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOfThroughWrapping(t *testing.T) {
	base := NotFound("order %d not found", 3)
	wrapped := fmt.Errorf("loading order: %w", base)

	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.True(t, Is(wrapped, KindNotFound))
	assert.False(t, Is(wrapped, KindConflict))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.False(t, Is(nil, KindInternal))
}

func TestInsufficientStockDetails(t *testing.T) {
	err := InsufficientStock(42, "Oud Royale (50ml)", 100, 3)

	assert.Equal(t, KindInsufficientStock, err.Kind)
	assert.Equal(t, "insufficient stock for Oud Royale (50ml)", err.Message)
	assert.Equal(t, int64(42), err.Details["variantId"])
	assert.Equal(t, 100, err.Details["requested"])
	assert.Equal(t, 3, err.Details["available"])
}

func TestWithDoesNotMutate(t *testing.T) {
	base := Validation("bad line")
	extended := base.With("line", 2)

	assert.Nil(t, base.Details)
	assert.Equal(t, 2, extended.Details["line"])
}

func TestInternalUnwraps(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal(cause, "failed to create order")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to create order: connection reset", err.Error())

	got, ok := As(fmt.Errorf("x: %w", err))
	require.True(t, ok)
	assert.Equal(t, KindInternal, got.Kind)
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindNotFound:          http.StatusNotFound,
		KindValidation:        http.StatusBadRequest,
		KindInsufficientStock: http.StatusBadRequest,
		KindUnauthorized:      http.StatusUnauthorized,
		KindForbidden:         http.StatusForbidden,
		KindConflict:          http.StatusConflict,
		KindRateLimited:       http.StatusTooManyRequests,
		KindInternal:          http.StatusInternalServerError,
	}
	for kind, status := range cases {
		assert.Equal(t, status, HTTPStatus(kind), kind.String())
	}
}
