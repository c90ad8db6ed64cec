package store

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/ougirez/discounts/internal/domain"
	"github.com/ougirez/discounts/internal/pkg/logger"
	"github.com/ougirez/discounts/internal/pkg/store/xpgx"
)

var (
	marketProductsColumns = []string{"id", "market_type", "product_ids", "week_start", "week_end", "last_update"}
	groupIDMarketsColumns = []string{"group_id", "market_type", "markets", "week_start", "week_end", "last_update"}
)

func upsertUnitIndexQuery(index []domain.UnitOffers) sq.InsertBuilder {
	query := builder().Insert(tableMarketProducts).Columns(marketProductsColumns...)
	for _, u := range index {
		query = query.Values(u.ID, u.MarketType, u.ProductIDs, u.WeekStart, u.WeekEnd, u.LastUpdate)
	}
	return query.Suffix(`
on conflict (id, market_type)
do update
set
	product_ids = excluded.product_ids,
	week_start = excluded.week_start,
	week_end = excluded.week_end,
	last_update = excluded.last_update`)
}

func (s *store) UpsertUnitIndex(ctx context.Context, index []domain.UnitOffers) error {
	for _, chunk := range chunks(index, chunkSize) {
		if _, err := s.pool.Execx(ctx, upsertUnitIndexQuery(chunk)); err != nil {
			logger.Errorf(ctx, "upsertUnitIndex: %s", err.Error())
			return fmt.Errorf("pool.Execx: %w", err)
		}
	}
	return nil
}

func upsertGroupMarketsQuery(groups []domain.GroupMarkets) sq.InsertBuilder {
	query := builder().Insert(tableGroupIDMarkets).Columns(groupIDMarketsColumns...)
	for _, g := range groups {
		query = query.Values(g.GroupID, g.MarketType, g.Markets, g.WeekStart, g.WeekEnd, g.LastUpdate)
	}
	return query.Suffix(`
on conflict (group_id, market_type, week_start, week_end)
do update
set
	markets = excluded.markets,
	last_update = excluded.last_update`)
}

func (s *store) UpsertGroupMarkets(ctx context.Context, groups []domain.GroupMarkets) error {
	for _, chunk := range chunks(groups, chunkSize) {
		if _, err := s.pool.Execx(ctx, upsertGroupMarketsQuery(chunk)); err != nil {
			logger.Errorf(ctx, "upsertGroupMarkets: %s", err.Error())
			return fmt.Errorf("pool.Execx: %w", err)
		}
	}
	return nil
}

func listGroupIDsQuery(mt domain.MarketType, day time.Time) sq.SelectBuilder {
	return builder().Select("group_id").
		Distinct().
		From(tableGroupIDMarkets).
		Where(sq.And{
			sq.Eq{"market_type": mt},
			sq.LtOrEq{"week_start": day},
			sq.GtOrEq{"week_end": day},
		}).
		OrderBy("group_id")
}

func (s *store) ListGroupIDs(ctx context.Context, mt domain.MarketType, day time.Time) ([]string, error) {
	ids, err := xpgx.Column[string](ctx, s.pool, listGroupIDsQuery(mt, day))
	if err != nil {
		return nil, wrapErr(err)
	}
	return ids, nil
}

func (s *store) ListUnitIndex(ctx context.Context, mt domain.MarketType, weekStart time.Time) ([]domain.UnitOffers, error) {
	query := builder().Select(marketProductsColumns...).
		From(tableMarketProducts).
		Where(sq.Eq{"market_type": mt, "week_start": weekStart}).
		OrderBy("id")

	selected, err := xpgx.Selectx[domain.UnitOffers](ctx, s.pool, query)
	if err != nil {
		logger.Error(ctx, err.Error())
		return nil, wrapErr(err)
	}
	return selected, nil
}
