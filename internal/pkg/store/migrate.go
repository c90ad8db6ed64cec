package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

var schema = []string{
	`create table if not exists offers (
	market_type        text    not null,
	name               text    not null default '',
	price              text    not null default '',
	price_before       text    not null default '',
	quantity           text    not null default '',
	base_price         text    not null default '',
	base_price_unit    text    not null default '',
	producer           text    not null default '',
	description        text    not null default '',
	origin             text    not null default '',
	currency           text    not null default '€',
	valid_from         date    not null,
	valid_to           date    not null,
	link               text    not null default '',
	unique_id          text    not null default '',
	unique_id_internal text    not null,
	app_deal           boolean not null default false,
	primary key (name, price, market_type, valid_from, valid_to, unique_id_internal)
)`,
	`create index if not exists offers_market_type_valid_from_idx on offers (market_type, valid_from)`,
	`create table if not exists market_products (
	id          text   not null,
	market_type text   not null,
	product_ids text[] not null default '{}',
	week_start  date   not null,
	week_end    date   not null,
	last_update date   not null,
	primary key (id, market_type)
)`,
	`create table if not exists group_id_markets (
	group_id    text   not null,
	market_type text   not null,
	markets     text[] not null default '{}',
	week_start  date   not null,
	week_end    date   not null,
	last_update date   not null,
	primary key (group_id, market_type, week_start, week_end)
)`,
	`create table if not exists markets (
	id             text not null,
	market_type    text not null,
	selling_region text not null default '',
	name           text not null default '',
	street         text not null default '',
	city           text not null default '',
	postal_code    text not null default '',
	primary key (id, market_type)
)`,
}

func (s *store) Migrate(ctx context.Context) error {
	return s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		for _, stmt := range schema {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("tx.Exec: %w", err)
			}
		}
		return nil
	})
}
