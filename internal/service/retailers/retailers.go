// Package retailers defines the adapter contract every supermarket chain
// implements and the registry the orchestration selects adapters from.
package retailers

import (
	"context"
	"fmt"

	"github.com/ougirez/discounts/internal/domain"
	"github.com/ougirez/discounts/internal/pkg/constants"
)

// Directory supplies the work units of a retailer.
type Directory interface {
	ListWorkUnits(ctx context.Context, mt domain.MarketType) ([]domain.WorkUnit, error)
}

// Adapter fetches and normalizes the offers of one retailer.
//
// FetchAndParse returns an error wrapping constants.ErrNoData when the unit
// could not be read at all, and a nil error with zero products when the unit
// legitimately has no offers this week.
type Adapter interface {
	MarketType() domain.MarketType
	DiscoverUnits(ctx context.Context, dir Directory) ([]domain.WorkUnit, error)
	FetchAndParse(ctx context.Context, unit domain.WorkUnit) ([]domain.Product, error)
}

// Preparer is implemented by adapters that need a build-once step before a
// run, such as loading a lookup table or checking credentials. A Prepare error
// aborts the run of that retailer only.
type Preparer interface {
	Prepare(ctx context.Context) error
}

// Enricher is implemented by adapters with a second, per-offer detail fetch.
// It never fails: on any problem the product is returned unchanged.
type Enricher interface {
	Enrich(ctx context.Context, p domain.Product) domain.Product
}

// ByDirectory implements DiscoverUnits by asking the directory.
type ByDirectory domain.MarketType

func (b ByDirectory) MarketType() domain.MarketType {
	return domain.MarketType(b)
}

func (b ByDirectory) DiscoverUnits(ctx context.Context, dir Directory) ([]domain.WorkUnit, error) {
	units, err := dir.ListWorkUnits(ctx, domain.MarketType(b))
	if err != nil {
		return nil, fmt.Errorf("dir.ListWorkUnits: %w", err)
	}
	return units, nil
}

// NoData marks err as a failed unit, as opposed to an empty one.
func NoData(err error) error {
	return fmt.Errorf("%w: %w", constants.ErrNoData, err)
}
