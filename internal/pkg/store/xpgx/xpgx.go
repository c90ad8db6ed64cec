// Package xpgx wraps pgxpool so that squirrel builders can be executed directly.
package xpgx

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Pool interface {
	Execx(ctx context.Context, query sq.Sqlizer) (pgconn.CommandTag, error)
	Queryx(ctx context.Context, query sq.Sqlizer) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	BeginFunc(ctx context.Context, fn func(pgx.Tx) error) error
	Close()
}

type pool struct {
	*pgxpool.Pool
}

func New(ctx context.Context, dsn string) (Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.ParseConfig: %w", err)
	}

	p, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.NewWithConfig: %w", err)
	}

	if err = p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("pool.Ping: %w", err)
	}

	return &pool{p}, nil
}

func (p *pool) Execx(ctx context.Context, query sq.Sqlizer) (pgconn.CommandTag, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return pgconn.CommandTag{}, fmt.Errorf("query.ToSql: %w", err)
	}
	return p.Exec(ctx, sql, args...)
}

func (p *pool) Queryx(ctx context.Context, query sq.Sqlizer) (pgx.Rows, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("query.ToSql: %w", err)
	}
	return p.Query(ctx, sql, args...)
}

func (p *pool) BeginFunc(ctx context.Context, fn func(pgx.Tx) error) error {
	return pgx.BeginFunc(ctx, p.Pool, fn)
}

// Selectx collects all rows into structs by db tag.
func Selectx[T any](ctx context.Context, p Pool, query sq.Sqlizer) ([]T, error) {
	rows, err := p.Queryx(ctx, query)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByNameLax[T])
}

// Getx collects exactly one row, pgx.ErrNoRows otherwise.
func Getx[T any](ctx context.Context, p Pool, query sq.Sqlizer) (T, error) {
	rows, err := p.Queryx(ctx, query)
	if err != nil {
		var zero T
		return zero, err
	}
	return pgx.CollectOneRow(rows, pgx.RowToStructByNameLax[T])
}

// Scalarx reads a single column of a single row.
func Scalarx[T any](ctx context.Context, p Pool, query sq.Sqlizer) (T, error) {
	rows, err := p.Queryx(ctx, query)
	if err != nil {
		var zero T
		return zero, err
	}
	return pgx.CollectOneRow(rows, pgx.RowTo[T])
}

// Column reads one column of every row.
func Column[T any](ctx context.Context, p Pool, query sq.Sqlizer) ([]T, error) {
	rows, err := p.Queryx(ctx, query)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[T])
}
