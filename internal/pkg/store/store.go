package store

import (
	"context"
	"time"

	"github.com/ougirez/discounts/internal/domain"
	"github.com/ougirez/discounts/internal/pkg/store/xpgx"
)

type Pool = xpgx.Pool

// Store is the persistence gateway. Every write replaces rows with the same
// natural key instead of merging them.
type Store interface {
	Migrate(ctx context.Context) error
	UpsertOffers(ctx context.Context, products []domain.Product) error
	UpsertUnitIndex(ctx context.Context, index []domain.UnitOffers) error
	UpsertGroupMarkets(ctx context.Context, groups []domain.GroupMarkets) error
	UpsertMarkets(ctx context.Context, markets []domain.Market) error
	HasOffers(ctx context.Context, mt domain.MarketType, weekStart time.Time) (bool, error)
	ListMarkets(ctx context.Context, mt domain.MarketType) ([]domain.Market, error)
	ListGroupIDs(ctx context.Context, mt domain.MarketType, day time.Time) ([]string, error)
	ListUnitIndex(ctx context.Context, mt domain.MarketType, weekStart time.Time) ([]domain.UnitOffers, error)
}

type store struct {
	pool Pool
}

func NewStore(pool Pool) Store {
	return &store{pool}
}
