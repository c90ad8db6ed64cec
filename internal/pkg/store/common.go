package store

import (
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/ougirez/discounts/internal/pkg/constants"
)

const (
	tableOffers         = "offers"
	tableMarketProducts = "market_products"
	tableGroupIDMarkets = "group_id_markets"
	tableMarkets        = "markets"
)

// rows per insert statement, keeps the bind parameter count below 65535
const chunkSize = 1000

var mapping = map[error]error{pgx.ErrNoRows: constants.ErrDBNotFound}

func wrapErr(err error) error {
	for k, v := range mapping {
		if errors.Is(err, k) {
			return v
		}
	}
	return err
}

// builder возвращает squirrel SQL Builder обьект.
func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func chunks[T any](items []T, size int) [][]T {
	var out [][]T
	for size < len(items) {
		items, out = items[size:], append(out, items[:size:size])
	}
	if len(items) > 0 {
		out = append(out, items)
	}
	return out
}
