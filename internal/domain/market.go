package domain

import (
	"fmt"
	"time"

	"github.com/ougirez/discounts/internal/pkg/constants"
	"github.com/ougirez/discounts/internal/pkg/week"
)

type MarketType string

const (
	MarketTypeAldiNord MarketType = "aldi_nord"
	MarketTypeAldiSued MarketType = "aldi_sued"
	MarketTypePenny    MarketType = "penny"
	MarketTypeRewe     MarketType = "rewe"
	MarketTypeHit      MarketType = "hit"
	MarketTypeNetto    MarketType = "netto"
	MarketTypeNorma    MarketType = "norma"
)

var MarketTypes = []MarketType{
	MarketTypeAldiNord,
	MarketTypeAldiSued,
	MarketTypePenny,
	MarketTypeRewe,
	MarketTypeHit,
	MarketTypeNetto,
	MarketTypeNorma,
}

func ParseMarketType(s string) (MarketType, error) {
	for _, mt := range MarketTypes {
		if string(mt) == s {
			return mt, nil
		}
	}
	return "", fmt.Errorf("%q: %w", s, constants.ErrUnknownRetailer)
}

// Market is a physical store as produced by the market-list subsystem.
type Market struct {
	ID            string     `db:"id" json:"id"`
	MarketType    MarketType `db:"market_type" json:"market_type"`
	SellingRegion string     `db:"selling_region" json:"selling_region,omitempty"`
	Name          string     `db:"name" json:"name"`
	Street        string     `db:"street" json:"street,omitempty"`
	City          string     `db:"city" json:"city"`
	PostalCode    string     `db:"postal_code" json:"postal_code"`
}

type UnitKind string

const (
	UnitKindMarket UnitKind = "market"
	UnitKindRegion UnitKind = "region"
)

// WorkUnit is one market or selling region an adapter is queried for.
type WorkUnit struct {
	ID         string      `json:"id"`
	MarketType MarketType  `json:"market_type"`
	Kind       UnitKind    `json:"kind"`
	Markets    []string    `json:"markets,omitempty"`
	Window     week.Window `json:"window"`
	LastUpdate time.Time   `json:"last_update"`
}

// UnitOffers maps one market to the offers seen there (market_products).
type UnitOffers struct {
	ID         string     `db:"id" json:"id"`
	MarketType MarketType `db:"market_type" json:"market_type"`
	ProductIDs []string   `db:"product_ids" json:"product_ids"`
	WeekStart  time.Time  `db:"week_start" json:"week_start"`
	WeekEnd    time.Time  `db:"week_end" json:"week_end"`
	LastUpdate time.Time  `db:"last_update" json:"last_update"`
}

// GroupMarkets lists the markets sharing one selling region (group_id_markets).
type GroupMarkets struct {
	GroupID    string     `db:"group_id" json:"group_id"`
	MarketType MarketType `db:"market_type" json:"market_type"`
	Markets    []string   `db:"markets" json:"markets"`
	WeekStart  time.Time  `db:"week_start" json:"week_start"`
	WeekEnd    time.Time  `db:"week_end" json:"week_end"`
	LastUpdate time.Time  `db:"last_update" json:"last_update"`
}
