package retailers

import (
	"fmt"

	"github.com/ougirez/discounts/internal/domain"
	"github.com/ougirez/discounts/internal/pkg/constants"
)

type Registry struct {
	adapters map[domain.MarketType]Adapter
	order    []domain.MarketType
}

func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[domain.MarketType]Adapter, len(adapters))}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

// Register adds a or replaces the adapter of the same market type.
func (r *Registry) Register(a Adapter) {
	mt := a.MarketType()
	if _, ok := r.adapters[mt]; !ok {
		r.order = append(r.order, mt)
	}
	r.adapters[mt] = a
}

func (r *Registry) Get(mt domain.MarketType) (Adapter, error) {
	a, ok := r.adapters[mt]
	if !ok {
		return nil, fmt.Errorf("%s: %w", mt, constants.ErrUnknownRetailer)
	}
	return a, nil
}

func (r *Registry) MarketTypes() []domain.MarketType {
	return append([]domain.MarketType(nil), r.order...)
}
