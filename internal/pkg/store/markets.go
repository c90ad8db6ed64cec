package store

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/ougirez/discounts/internal/domain"
	"github.com/ougirez/discounts/internal/pkg/logger"
	"github.com/ougirez/discounts/internal/pkg/store/xpgx"
)

var marketColumns = []string{"id", "market_type", "selling_region", "name", "street", "city", "postal_code"}

func (s *store) UpsertMarkets(ctx context.Context, markets []domain.Market) error {
	for _, chunk := range chunks(markets, chunkSize) {
		query := builder().Insert(tableMarkets).Columns(marketColumns...)
		for _, m := range chunk {
			query = query.Values(m.ID, m.MarketType, m.SellingRegion, m.Name, m.Street, m.City, m.PostalCode)
		}
		query = query.Suffix(`
on conflict (id, market_type)
do update
set
	selling_region = excluded.selling_region,
	name = excluded.name,
	street = excluded.street,
	city = excluded.city,
	postal_code = excluded.postal_code`)

		if _, err := s.pool.Execx(ctx, query); err != nil {
			logger.Errorf(ctx, "upsertMarkets: %s", err.Error())
			return fmt.Errorf("pool.Execx: %w", err)
		}
	}
	return nil
}

func (s *store) ListMarkets(ctx context.Context, mt domain.MarketType) ([]domain.Market, error) {
	query := builder().Select(marketColumns...).
		From(tableMarkets).
		Where(sq.Eq{"market_type": mt}).
		OrderBy("id")

	selected, err := xpgx.Selectx[domain.Market](ctx, s.pool, query)
	if err != nil {
		logger.Error(ctx, err.Error())
		return nil, wrapErr(err)
	}
	return selected, nil
}
