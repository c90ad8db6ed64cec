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

var offerColumns = []string{
	"market_type", "name", "price", "price_before", "quantity", "base_price", "base_price_unit",
	"producer", "description", "origin", "currency", "valid_from", "valid_to", "link",
	"unique_id", "unique_id_internal", "app_deal",
}

const offersConflict = `
on conflict (name, price, market_type, valid_from, valid_to, unique_id_internal)
do update
set
	price_before = excluded.price_before,
	quantity = excluded.quantity,
	base_price = excluded.base_price,
	base_price_unit = excluded.base_price_unit,
	producer = excluded.producer,
	description = excluded.description,
	origin = excluded.origin,
	currency = excluded.currency,
	link = excluded.link,
	unique_id = excluded.unique_id,
	app_deal = excluded.app_deal`

type offerKey struct {
	name, price, marketType, uid string
	from, to                      time.Time
}

// dedupeOffers keeps the last product per natural key, a single insert must
// not touch the same row twice.
func dedupeOffers(products []domain.Product) []domain.Product {
	idx := make(map[offerKey]int, len(products))
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		k := offerKey{p.Name, p.Price, string(p.MarketType), p.UniqueIDInternal, p.ValidFrom, p.ValidTo}
		if i, ok := idx[k]; ok {
			out[i] = p
			continue
		}
		idx[k] = len(out)
		out = append(out, p)
	}
	return out
}

func upsertOffersQuery(products []domain.Product) sq.InsertBuilder {
	query := builder().Insert(tableOffers).Columns(offerColumns...)
	for _, p := range products {
		query = query.Values(
			p.MarketType, p.Name, p.Price, p.PriceBefore, p.Quantity, p.BasePrice, p.BasePriceUnit,
			p.Producer, p.Description, p.Origin, p.Currency, p.ValidFrom, p.ValidTo, p.Link,
			p.UniqueID, p.UniqueIDInternal, p.AppDeal,
		)
	}
	return query.Suffix(offersConflict)
}

func (s *store) UpsertOffers(ctx context.Context, products []domain.Product) error {
	for _, chunk := range chunks(dedupeOffers(products), chunkSize) {
		if _, err := s.pool.Execx(ctx, upsertOffersQuery(chunk)); err != nil {
			logger.Errorf(ctx, "upsertOffers: %s", err.Error())
			return fmt.Errorf("pool.Execx: %w", err)
		}
	}
	return nil
}

func hasOffersQuery(mt domain.MarketType, weekStart time.Time) sq.SelectBuilder {
	inner := builder().Select("1").
		From(tableOffers).
		Where(sq.And{
			sq.Eq{"market_type": mt},
			sq.GtOrEq{"valid_from": weekStart},
			sq.Lt{"valid_from": weekStart.AddDate(0, 0, 7)},
		}).
		Limit(1)

	return builder().Select().Column(sq.Expr("exists (?)", inner))
}

func (s *store) HasOffers(ctx context.Context, mt domain.MarketType, weekStart time.Time) (bool, error) {
	found, err := xpgx.Scalarx[bool](ctx, s.pool, hasOffersQuery(mt, weekStart))
	if err != nil {
		return false, wrapErr(err)
	}
	return found, nil
}
