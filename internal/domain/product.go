package domain

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ougirez/discounts/internal/pkg/extract"
)

var validate = newValidator()

// newValidator adds the "amount" tag: a normalized price with either decimal
// separator.
func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("amount", func(fl validator.FieldLevel) bool {
		return extract.IsAmount(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// Product is one retailer's advertised discount for one article in one
// validity window. Empty strings mean the retailer did not provide the field.
type Product struct {
	MarketType       MarketType `db:"market_type" json:"market_type" validate:"required,oneof=aldi_nord aldi_sued penny rewe hit netto norma"`
	Name             string     `db:"name" json:"name"`
	Price            string     `db:"price" json:"price" validate:"omitempty,amount"`
	PriceBefore      string     `db:"price_before" json:"price_before,omitempty" validate:"omitempty,amount"`
	Quantity         string     `db:"quantity" json:"quantity,omitempty"`
	BasePrice        string     `db:"base_price" json:"base_price,omitempty" validate:"omitempty,amount"`
	BasePriceUnit    string     `db:"base_price_unit" json:"base_price_unit,omitempty"`
	Producer         string     `db:"producer" json:"producer,omitempty"`
	Description      string     `db:"description" json:"description,omitempty"`
	Origin           string     `db:"origin" json:"origin,omitempty"`
	Currency         string     `db:"currency" json:"currency"`
	ValidFrom        time.Time  `db:"valid_from" json:"valid_from" validate:"required"`
	ValidTo          time.Time  `db:"valid_to" json:"valid_to" validate:"required,gtefield=ValidFrom"`
	Link             string     `db:"link" json:"link,omitempty"`
	UniqueID         string     `db:"unique_id" json:"unique_id,omitempty"`
	UniqueIDInternal string     `db:"unique_id_internal" json:"unique_id_internal" validate:"required"`
	AppDeal          bool       `db:"app_deal" json:"app_deal"`
}

// Key is the deduplication key. Two products with the same key are the same
// logical offer.
func (p Product) Key() string {
	return p.UniqueIDInternal
}

func (p Product) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("product %q (%s): %w", p.UniqueIDInternal, p.MarketType, err)
	}
	return nil
}
