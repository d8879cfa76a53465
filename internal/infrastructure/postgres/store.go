package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"catalog-api/internal/ports"
)

// table describes how one entity kind maps onto a relational table.
type table[E any, ID any, N any, U any] struct {
	entity  string
	name    string
	columns []string
	key     []string

	keyArgs func(ID) []any
	scan    func(pgx.Row) (E, error)
	scanKey func(pgx.Row) (ID, error)
	insert  func(N) ([]string, []any)
	changes func(U) ([]string, []any)
}

// Store implements ports.Store over a table descriptor. Every write runs in
// its own transaction.
type Store[E any, ID any, N any, U any] struct {
	pool    *pgxpool.Pool
	wait    time.Duration
	t       table[E, ID, N, U]
	metrics ports.StoreMetrics
}

func newStore[E any, ID any, N any, U any](pool *pgxpool.Pool, t table[E, ID, N, U], metrics ports.StoreMetrics) *Store[E, ID, N, U] {
	return &Store[E, ID, N, U]{pool: pool, wait: acquireTimeout(pool), t: t, metrics: metrics}
}

func (s *Store[E, ID, N, U]) acquire(ctx context.Context) (*pgxpool.Conn, error) {
	return Acquire(ctx, s.pool, s.wait)
}

func (s *Store[E, ID, N, U]) GetAll(ctx context.Context) ([]E, bool, error) {
	query := selectSQL(s.t.name, s.t.columns, "") + " ORDER BY " + strings.Join(s.t.key, ", ")
	return s.findMany(ctx, "get_all", query)
}

func (s *Store[E, ID, N, U]) GetByID(ctx context.Context, id ID) (E, bool, error) {
	return s.findOne(ctx, "get_by_id", whereKey(s.t.key, 1), s.t.keyArgs(id)...)
}

func (s *Store[E, ID, N, U]) Add(ctx context.Context, item N) (ID, error) {
	var id ID
	columns, args := s.t.insert(item)
	query := insertSQL(s.t.name, columns, s.t.key)
	err := WithTx(ctx, s.pool, s.wait, func(tx pgx.Tx) error {
		var scanErr error
		id, scanErr = s.t.scanKey(tx.QueryRow(ctx, query, args...))
		return scanErr
	})
	if err != nil {
		var zero ID
		return zero, s.fail("add", err)
	}
	s.observe("add", nil)
	return id, nil
}

// Update applies the present fields of form. An empty form touches nothing,
// and an id matching no row is not an error.
func (s *Store[E, ID, N, U]) Update(ctx context.Context, id ID, form U) error {
	columns, args := s.t.changes(form)
	if len(columns) == 0 {
		return nil
	}
	query := updateSQL(s.t.name, columns, s.t.key)
	args = append(args, s.t.keyArgs(id)...)
	err := WithTx(ctx, s.pool, s.wait, func(tx pgx.Tx) error {
		_, execErr := tx.Exec(ctx, query, args...)
		return execErr
	})
	if err != nil {
		return s.fail("update", err)
	}
	s.observe("update", nil)
	return nil
}

func (s *Store[E, ID, N, U]) Delete(ctx context.Context, id ID) error {
	query := "DELETE FROM " + s.t.name + " WHERE " + whereKey(s.t.key, 1)
	err := WithTx(ctx, s.pool, s.wait, func(tx pgx.Tx) error {
		_, execErr := tx.Exec(ctx, query, s.t.keyArgs(id)...)
		return execErr
	})
	if err != nil {
		return s.fail("delete", err)
	}
	s.observe("delete", nil)
	return nil
}

func (s *Store[E, ID, N, U]) findOne(ctx context.Context, op, where string, args ...any) (E, bool, error) {
	var zero E
	conn, err := s.acquire(ctx)
	if err != nil {
		return zero, false, s.fail(op, err)
	}
	defer conn.Release()
	item, err := s.t.scan(conn.QueryRow(ctx, selectSQL(s.t.name, s.t.columns, where), args...))
	if errors.Is(err, pgx.ErrNoRows) {
		s.observe(op, nil)
		return zero, false, nil
	}
	if err != nil {
		return zero, false, s.fail(op, err)
	}
	s.observe(op, nil)
	return item, true, nil
}

func (s *Store[E, ID, N, U]) findMany(ctx context.Context, op, query string, args ...any) ([]E, bool, error) {
	conn, err := s.acquire(ctx)
	if err != nil {
		return nil, false, s.fail(op, err)
	}
	defer conn.Release()
	items, err := queryRows(ctx, conn, query, s.t.scan, args...)
	if err != nil {
		return nil, false, s.fail(op, err)
	}
	s.observe(op, nil)
	if len(items) == 0 {
		return nil, false, nil
	}
	return items, true, nil
}

func (s *Store[E, ID, N, U]) fail(op string, err error) error {
	s.observe(op, err)
	return dbError(s.t.entity+"."+op, err)
}

func (s *Store[E, ID, N, U]) observe(op string, err error) {
	if s.metrics != nil {
		s.metrics.ObserveStoreOperation(s.t.entity, op, err)
	}
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryRows[T any](ctx context.Context, db querier, query string, scan func(pgx.Row) (T, error), args ...any) ([]T, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (T, error) {
		return scan(row)
	})
}

func selectSQL(name string, columns []string, where string) string {
	query := "SELECT " + strings.Join(columns, ", ") + " FROM " + name
	if where != "" {
		query += " WHERE " + where
	}
	return query
}

func insertSQL(name string, columns, returning []string) string {
	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		name, strings.Join(columns, ", "), strings.Join(placeholders, ", "), strings.Join(returning, ", "))
}

func updateSQL(name string, columns, key []string) string {
	sets := make([]string, 0, len(columns)+1)
	for i, column := range columns {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, i+1))
	}
	sets = append(sets, "updated_at = now()")
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s", name, strings.Join(sets, ", "), whereKey(key, len(columns)+1))
}

// whereKey renders "k1 = $n AND k2 = $n+1" starting at placeholder first.
func whereKey(key []string, first int) string {
	parts := make([]string, len(key))
	for i, column := range key {
		parts[i] = fmt.Sprintf("%s = $%d", column, first+i)
	}
	return strings.Join(parts, " AND ")
}

func qualify(alias string, columns []string) []string {
	out := make([]string, len(columns))
	for i, column := range columns {
		out[i] = alias + "." + column
	}
	return out
}

// fields collects the present values of an update form in column order.
type fields struct {
	columns []string
	args    []any
}

func (f *fields) add(column string, value any) {
	f.columns = append(f.columns, column)
	f.args = append(f.args, value)
}
