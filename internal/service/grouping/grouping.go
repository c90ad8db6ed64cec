// Package grouping deduplicates the offers of a batch and builds the unit
// indexes stored next to them.
package grouping

import (
	"sort"
	"sync"
	"time"

	"github.com/ougirez/discounts/internal/domain"
	"github.com/ougirez/discounts/internal/pkg/week"
)

// Result is the outcome of one adapter call. A non-nil Err means the unit
// produced no data.
type Result struct {
	Unit     domain.WorkUnit
	Products []domain.Product
	Err      error
}

// Set keeps the first product seen per unique_id_internal. It is safe for
// concurrent use.
type Set struct {
	mu    sync.Mutex
	items map[string]domain.Product
	order []string
}

func NewSet() *Set {
	return &Set{items: make(map[string]domain.Product)}
}

// Put adds p unless a product with the same key is already present.
func (s *Set) Put(p domain.Product) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[p.Key()]; ok {
		return false
	}
	s.items[p.Key()] = p
	s.order = append(s.order, p.Key())
	return true
}

func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Products returns the products in insertion order.
func (s *Set) Products() []domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Product, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.items[k])
	}
	return out
}

type Grouped struct {
	Offers []domain.Product
	Index  []domain.UnitOffers
	Groups []domain.GroupMarkets
}

// Group deduplicates the products of all results. Units without data get no
// index record.
func Group(results []Result, lastUpdate time.Time) Grouped {
	set := NewSet()
	var g Grouped

	for _, r := range results {
		if r.Err != nil {
			continue
		}

		ids := make([]string, 0, len(r.Products))
		seen := make(map[string]struct{}, len(r.Products))
		for _, p := range r.Products {
			set.Put(p)
			if _, ok := seen[p.Key()]; ok {
				continue
			}
			seen[p.Key()] = struct{}{}
			ids = append(ids, p.Key())
		}
		sort.Strings(ids)

		g.Index = append(g.Index, domain.UnitOffers{
			ID:         r.Unit.ID,
			MarketType: r.Unit.MarketType,
			ProductIDs: ids,
			WeekStart:  r.Unit.Window.Start,
			WeekEnd:    r.Unit.Window.End,
			LastUpdate: week.Date(lastUpdate),
		})

		if r.Unit.Kind == domain.UnitKindRegion && len(r.Unit.Markets) > 0 {
			g.Groups = append(g.Groups, domain.GroupMarkets{
				GroupID:    r.Unit.ID,
				MarketType: r.Unit.MarketType,
				Markets:    append([]string(nil), r.Unit.Markets...),
				WeekStart:  r.Unit.Window.Start,
				WeekEnd:    r.Unit.Window.End,
				LastUpdate: week.Date(lastUpdate),
			})
		}
	}

	g.Offers = set.Products()
	return g
}
