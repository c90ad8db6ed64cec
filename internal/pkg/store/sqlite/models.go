package sqlite

import (
	"time"

	"github.com/ougirez/discounts/internal/domain"
)

type offer struct {
	MarketType       string    `gorm:"primaryKey"`
	Name             string    `gorm:"primaryKey"`
	Price            string    `gorm:"primaryKey"`
	ValidFrom        time.Time `gorm:"primaryKey;index:idx_offers_valid_from"`
	ValidTo          time.Time `gorm:"primaryKey"`
	UniqueIDInternal string    `gorm:"primaryKey"`
	PriceBefore      string
	Quantity         string
	BasePrice        string
	BasePriceUnit    string
	Producer         string
	Description      string
	Origin           string
	Currency         string
	Link             string
	UniqueID         string
	AppDeal          bool
}

func (offer) TableName() string { return "offers" }

type marketProducts struct {
	ID         string   `gorm:"primaryKey"`
	MarketType string   `gorm:"primaryKey"`
	ProductIDs []string `gorm:"serializer:json"`
	WeekStart  time.Time
	WeekEnd    time.Time
	LastUpdate time.Time
}

func (marketProducts) TableName() string { return "market_products" }

type groupIDMarkets struct {
	GroupID    string    `gorm:"primaryKey"`
	MarketType string    `gorm:"primaryKey"`
	WeekStart  time.Time `gorm:"primaryKey"`
	WeekEnd    time.Time `gorm:"primaryKey"`
	Markets    []string  `gorm:"serializer:json"`
	LastUpdate time.Time
}

func (groupIDMarkets) TableName() string { return "group_id_markets" }

type market struct {
	ID            string `gorm:"primaryKey"`
	MarketType    string `gorm:"primaryKey"`
	SellingRegion string
	Name          string
	Street        string
	City          string
	PostalCode    string
}

func (market) TableName() string { return "markets" }

// day drops time and zone so that dates compare as text in SQLite.
func day(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fromProduct(p domain.Product) offer {
	return offer{
		MarketType:       string(p.MarketType),
		Name:             p.Name,
		Price:            p.Price,
		ValidFrom:        day(p.ValidFrom),
		ValidTo:          day(p.ValidTo),
		UniqueIDInternal: p.UniqueIDInternal,
		PriceBefore:      p.PriceBefore,
		Quantity:         p.Quantity,
		BasePrice:        p.BasePrice,
		BasePriceUnit:    p.BasePriceUnit,
		Producer:         p.Producer,
		Description:      p.Description,
		Origin:           p.Origin,
		Currency:         p.Currency,
		Link:             p.Link,
		UniqueID:         p.UniqueID,
		AppDeal:          p.AppDeal,
	}
}

func (o offer) toProduct() domain.Product {
	return domain.Product{
		MarketType:       domain.MarketType(o.MarketType),
		Name:             o.Name,
		Price:            o.Price,
		PriceBefore:      o.PriceBefore,
		Quantity:         o.Quantity,
		BasePrice:        o.BasePrice,
		BasePriceUnit:    o.BasePriceUnit,
		Producer:         o.Producer,
		Description:      o.Description,
		Origin:           o.Origin,
		Currency:         o.Currency,
		ValidFrom:        o.ValidFrom,
		ValidTo:          o.ValidTo,
		Link:             o.Link,
		UniqueID:         o.UniqueID,
		UniqueIDInternal: o.UniqueIDInternal,
		AppDeal:          o.AppDeal,
	}
}
