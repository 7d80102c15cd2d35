package db

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/clefeel/storefront/internal/metrics"
	"github.com/clefeel/storefront/internal/models"
	"github.com/clefeel/storefront/internal/store"
	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return NewStore(&DB{DB: sqlDB}, metrics.NewNoop()), mock
}

var variantDetailCols = []string{"id", "perfume_id", "size", "price", "stock_quantity", "sku", "is_active", "created_at", "name", "is_active"}

func TestSplitSQLStatements(t *testing.T) {
	stmts := splitSQLStatements(Schema)
	require.Len(t, stmts, 7)
	for _, stmt := range stmts {
		assert.True(t, strings.HasPrefix(stmt, "CREATE TABLE IF NOT EXISTS"), stmt)
		assert.NotContains(t, stmt, "--")
	}

	assert.Equal(t, []string{"SELECT 1", "SELECT 2"}, splitSQLStatements("-- c\nSELECT 1;\n\n  -- d\nSELECT 2;"))
}

func TestInTxCommitsOrder(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE v.id IN (?,?) ORDER BY v.id FOR UPDATE")).
		WithArgs(int64(3), int64(9)).
		WillReturnRows(sqlmock.NewRows(variantDetailCols).
			AddRow(3, 1, "50ml", "20.00", 4, "OUD-50ML", true, now, "Oud", true).
			AddRow(9, 2, "100ml", "35.50", 1, "ROSE-100ML", true, now, "Rose", true))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO orders")).WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_items")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE variants SET stock_quantity = stock_quantity - ? WHERE id = ? AND stock_quantity >= ?")).
		WithArgs(2, int64(3), 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.InTx(ctx, func(tx store.OrderTx) error {
		locked, err := tx.LockVariants(ctx, []int64{9, 3, 9})
		require.NoError(t, err)
		require.Len(t, locked, 2)
		assert.Equal(t, "Rose (100ml)", locked[9].Label())
		assert.True(t, decimal.RequireFromString("35.5").Equal(locked[9].Price))

		o := &models.Order{OrderNumber: "CFX", Status: models.OrderPending, PaymentStatus: models.PaymentPending,
			TotalAmount: decimal.RequireFromString("40.00")}
		require.NoError(t, tx.InsertOrder(ctx, o))
		assert.Equal(t, int64(42), o.ID)

		vid := int64(3)
		require.NoError(t, tx.InsertOrderLine(ctx, &models.OrderLine{OrderID: o.ID, VariantID: &vid, Quantity: 2}))
		return tx.DecrementStock(ctx, 3, 2)
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInTxRollsBackOnStockGuard(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE variants SET stock_quantity")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := s.InTx(ctx, func(tx store.OrderTx) error {
		return tx.DecrementStock(ctx, 3, 5)
	})
	assert.ErrorIs(t, err, store.ErrStockChanged)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddToCartUpsertsAndReturnsID(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("ON DUPLICATE KEY UPDATE quantity = quantity + VALUES(quantity)")).
		WithArgs(int64(7), int64(3), 2).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM cart WHERE user_id = ? AND variant_id = ?")).
		WithArgs(int64(7), int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

	id, err := s.AddToCart(context.Background(), 7, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(11), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'a@b.co' for key 'email'"})

	err := s.CreateUser(context.Background(), &models.User{Email: "a@b.co", Role: models.RoleCustomer})
	assert.ErrorIs(t, err, store.ErrDuplicate)
}

func TestUpdateOrderStatusLostRace(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET status = ? WHERE id = ? AND status = ?")).
		WithArgs(models.OrderShipped, int64(5), models.OrderPending).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM orders WHERE id = ?")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("confirmed"))

	err := s.UpdateOrderStatus(context.Background(), 5, models.OrderPending, models.OrderShipped)
	assert.ErrorIs(t, err, store.ErrStatusChanged)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateOrderStatusMissing(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET status")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM orders")).WillReturnRows(sqlmock.NewRows([]string{"status"}))

	err := s.UpdateOrderStatus(context.Background(), 5, models.OrderPending, models.OrderShipped)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPerfumeBySlugLoadsVariantsByPrice(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now()

	perfumeCols := []string{"id", "name", "slug", "description", "short_description", "gender", "brand",
		"category", "images", "is_active", "is_featured", "meta_title", "meta_description",
		"created_at", "updated_at", "min_price"}
	mock.ExpectQuery(regexp.QuoteMeta("WHERE p.slug = ? AND p.is_active = TRUE")).
		WithArgs("midnight-oud").
		WillReturnRows(sqlmock.NewRows(perfumeCols).AddRow(1, "Midnight Oud", "midnight-oud", "Dark", "", "unisex",
			"Clefeel", "woody", []byte(`["a.jpg"]`), true, false, "", nil, now, now, "15.00"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM variants WHERE perfume_id IN (?) AND is_active = TRUE ORDER BY price ASC")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "perfume_id", "size", "price", "stock_quantity", "sku", "is_active", "created_at"}).
			AddRow(2, 1, "30ml", "15.00", 3, "MIDNIGHT-OUD-30ML", true, now).
			AddRow(3, 1, "100ml", "40.00", 0, "MIDNIGHT-OUD-100ML", true, now))

	p, err := s.PerfumeBySlug(context.Background(), "midnight-oud")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg"}, p.Images)
	require.Len(t, p.Variants, 2)
	assert.Equal(t, "30ml", p.Variants[0].Size)
	require.NotNil(t, p.MinPrice)
	assert.Equal(t, "15", p.MinPrice.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPerfumeBySlugNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("FROM perfumes p").WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.PerfumeBySlug(context.Background(), "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPerfumeOrderIgnoresUnknownColumns(t *testing.T) {
	assert.Equal(t, " ORDER BY p.created_at DESC, p.id DESC", perfumeOrder("drop table", "sideways"))
	assert.Equal(t, " ORDER BY p.name ASC, p.id ASC", perfumeOrder("name", "ASC"))
}

func TestMapErrorPassesOtherErrors(t *testing.T) {
	other := errors.New("connection reset")
	assert.Equal(t, other, mapError(other))
	assert.ErrorIs(t, mapError(&mysql.MySQLError{Number: 1062}), store.ErrDuplicate)
}
