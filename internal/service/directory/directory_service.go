// Package directory turns stored markets and configured keys into the work
// units a retrieval run iterates over.
package directory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ougirez/discounts/internal/domain"
	"github.com/ougirez/discounts/internal/pkg/week"
)

// NationwideUnit is the single unit of retailers with one national offer set.
const NationwideUnit = "nationwide"

type MarketLister interface {
	ListMarkets(ctx context.Context, mt domain.MarketType) ([]domain.Market, error)
	ListGroupIDs(ctx context.Context, mt domain.MarketType, day time.Time) ([]string, error)
}

type Service struct {
	store     MarketLister
	regioKeys []string
	now       func() time.Time
}

func NewDirectoryService(store MarketLister, regioKeys []string, now func() time.Time) *Service {
	return &Service{store: store, regioKeys: regioKeys, now: now}
}

func (s *Service) ListWorkUnits(ctx context.Context, mt domain.MarketType) ([]domain.WorkUnit, error) {
	now := s.now()
	base := domain.WorkUnit{MarketType: mt, Window: week.Current(now), LastUpdate: week.Date(now)}

	switch mt {
	case domain.MarketTypeAldiNord, domain.MarketTypeAldiSued:
		u := base
		u.ID, u.Kind = NationwideUnit, domain.UnitKindRegion
		return []domain.WorkUnit{u}, nil

	case domain.MarketTypeNorma:
		units := make([]domain.WorkUnit, 0, len(s.regioKeys))
		for _, key := range s.regioKeys {
			u := base
			u.ID, u.Kind = key, domain.UnitKindRegion
			units = append(units, u)
		}
		return units, nil

	case domain.MarketTypePenny:
		return s.regionUnits(ctx, base)

	case domain.MarketTypeRewe, domain.MarketTypeHit, domain.MarketTypeNetto:
		markets, err := s.store.ListMarkets(ctx, mt)
		if err != nil {
			return nil, fmt.Errorf("store.ListMarkets: %w", err)
		}
		units := make([]domain.WorkUnit, 0, len(markets))
		for _, m := range markets {
			u := base
			u.ID, u.Kind = m.ID, domain.UnitKindMarket
			units = append(units, u)
		}
		return units, nil
	}

	return nil, fmt.Errorf("no work units for %q", mt)
}

// regionUnits groups the stored markets by selling region. Without stored
// markets the regions of earlier runs are reused, without their markets.
func (s *Service) regionUnits(ctx context.Context, base domain.WorkUnit) ([]domain.WorkUnit, error) {
	markets, err := s.store.ListMarkets(ctx, base.MarketType)
	if err != nil {
		return nil, fmt.Errorf("store.ListMarkets: %w", err)
	}

	byRegion := make(map[string][]string)
	for _, m := range markets {
		if m.SellingRegion == "" {
			continue
		}
		byRegion[m.SellingRegion] = append(byRegion[m.SellingRegion], m.ID)
	}

	if len(byRegion) == 0 {
		ids, err := s.store.ListGroupIDs(ctx, base.MarketType, base.LastUpdate)
		if err != nil {
			return nil, fmt.Errorf("store.ListGroupIDs: %w", err)
		}
		for _, id := range ids {
			byRegion[id] = nil
		}
	}

	regions := make([]string, 0, len(byRegion))
	for r := range byRegion {
		regions = append(regions, r)
	}
	sort.Strings(regions)

	units := make([]domain.WorkUnit, 0, len(regions))
	for _, r := range regions {
		u := base
		u.ID, u.Kind, u.Markets = r, domain.UnitKindRegion, byRegion[r]
		units = append(units, u)
	}
	return units, nil
}
