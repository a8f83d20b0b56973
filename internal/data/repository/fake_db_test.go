package repository

import (
	"context"
	"fmt"
	"reflect"

	"hostel-booking/pkg/database"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeRow scans a fixed list of values. Every value must have exactly the
// type its destination points to.
type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(r.values))
	}
	for i, d := range dest {
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(r.values[i]))
	}
	return nil
}

type fakeRows struct {
	pgx.Rows
	data   [][]any
	next   int
	closed bool
}

func (r *fakeRows) Next() bool {
	if r.next >= len(r.data) {
		return false
	}
	r.next++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	return fakeRow{values: r.data[r.next-1]}.Scan(dest...)
}

func (r *fakeRows) Close()     { r.closed = true }
func (r *fakeRows) Err() error { return nil }

// fakeDB records every statement sent through the pool or a transaction
// begun from it. Nil hooks fall back to "no rows" and "UPDATE 1".
type fakeDB struct {
	database.PgxIface

	row   func(sql string, args []any) pgx.Row
	rows  func(sql string, args []any) (pgx.Rows, error)
	exec  func(sql string, args []any) (pgconn.CommandTag, error)
	begin error

	commitErr error
	execs     []string
	queries   []string
	commits   int
	rollbacks int
}

func (db *fakeDB) Begin(ctx context.Context) (pgx.Tx, error) {
	if db.begin != nil {
		return nil, db.begin
	}
	return &fakeTx{db: db}, nil
}

func (db *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	db.execs = append(db.execs, sql)
	if db.exec == nil {
		return pgconn.NewCommandTag("UPDATE 1"), nil
	}
	return db.exec(sql, args)
}

func (db *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	db.queries = append(db.queries, sql)
	if db.row == nil {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return db.row(sql, args)
}

func (db *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	db.queries = append(db.queries, sql)
	if db.rows == nil {
		return &fakeRows{}, nil
	}
	return db.rows(sql, args)
}

type fakeTx struct {
	pgx.Tx
	db *fakeDB
}

func (tx *fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return tx.db.Exec(ctx, sql, args...)
}

func (tx *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return tx.db.QueryRow(ctx, sql, args...)
}

func (tx *fakeTx) Commit(ctx context.Context) error {
	tx.db.commits++
	return tx.db.commitErr
}

func (tx *fakeTx) Rollback(ctx context.Context) error {
	tx.db.rollbacks++
	return nil
}
