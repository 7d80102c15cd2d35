package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/clefeel/storefront/internal/metrics"
	"github.com/clefeel/storefront/internal/store"
	"github.com/go-sql-driver/mysql"
)

const errDupEntry = 1062

var timeNow = func() time.Time { return time.Now().UTC() }

// Store is the MySQL implementation of store.Store. Every statement is
// timed into the DB query metrics.
type Store struct {
	db      *DB
	metrics *metrics.AppMetrics
}

var _ store.Store = (*Store)(nil)

// NewStore creates a MySQL-backed store
func NewStore(db *DB, m *metrics.AppMetrics) *Store {
	return &Store{db: db, metrics: m}
}

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) exec(ctx context.Context, q querier, op, table, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	res, err := q.ExecContext(ctx, query, args...)
	s.metrics.RecordDBQuery(ctx, op, table, query, start, err == nil)
	return res, err
}

func (s *Store) query(ctx context.Context, q querier, table, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := q.QueryContext(ctx, query, args...)
	s.metrics.RecordDBQuery(ctx, "SELECT", table, query, start, err == nil)
	return rows, err
}

// queryRow runs a single-row SELECT and scans it into dest. sql.ErrNoRows
// is returned as store.ErrNotFound.
func (s *Store) queryRow(ctx context.Context, q querier, table, query string, args []any, dest ...any) error {
	start := time.Now()
	err := q.QueryRowContext(ctx, query, args...).Scan(dest...)
	s.metrics.RecordDBQuery(ctx, "SELECT", table, query, start, err == nil || errors.Is(err, sql.ErrNoRows))
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func (s *Store) count(ctx context.Context, table, query string, args ...any) (int, error) {
	var n int
	if err := s.queryRow(ctx, s.db, table, query, args, &n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

// mapError translates driver errors the services act on
func mapError(err error) error {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == errDupEntry {
		return fmt.Errorf("%w: %s", store.ErrDuplicate, myErr.Message)
	}
	return err
}

// expectAffected turns a zero-row write into store.ErrNotFound
func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func int64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

// InTx runs fn inside a database transaction
func (s *Store) InTx(ctx context.Context, fn func(tx store.OrderTx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&orderTx{s: s, tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
