package hit

import (
	"context"
	"net/http"
	"testing"

	"github.com/ougirez/discounts/internal/domain"
	"github.com/ougirez/discounts/internal/pkg/constants"
	"github.com/ougirez/discounts/internal/service/retailers/retailerstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const offersJSON = `{"data": [
  {"id": 98765, "headline": "Rispentomaten\nKlasse I", "price": "1.49", "stringBeforePrice": "1.99*",
   "validFrom": "2024-07-14T22:00:00Z", "validTo": "2024-07-20T00:00:00Z",
   "url": "https://www.hit.de/angebote/98765",
   "text": "Herkunft: Niederlande\n500 g Schale\n(1 kg = 2.98)",
   "labels": [{"label": "Regional"}]},
  {"id": "A-2", "headline": "Spülmittel", "price": 0.99, "text": "Stück\nZitrone"}
]}`

func TestFetchAndParse(t *testing.T) {
	srv := retailerstest.NewServer(t, map[string]retailerstest.Response{
		"/api/offers?&for_store=1001&for_date=2024-07-15&limit=1000": retailerstest.JSON(offersJSON),
	})
	a := New(retailerstest.Client(), srv.URL)

	products, err := a.FetchAndParse(context.Background(), retailerstest.Unit(domain.MarketTypeHit, "1001", domain.UnitKindMarket))
	require.NoError(t, err)
	require.Len(t, products, 2)

	tomatoes := products[0]
	assert.Equal(t, "Rispentomaten Klasse I", tomatoes.Name)
	assert.Equal(t, "98765", tomatoes.UniqueIDInternal)
	assert.Equal(t, "1.49", tomatoes.Price)
	assert.Equal(t, "1.99", tomatoes.PriceBefore)
	assert.Equal(t, "500 g Schale", tomatoes.Quantity)
	assert.Equal(t, "2.98", tomatoes.BasePrice)
	assert.Equal(t, "kg", tomatoes.BasePriceUnit)
	assert.Equal(t, "Herkunft: Niederlande, Regional", tomatoes.Description)
	assert.True(t, tomatoes.ValidFrom.Equal(retailerstest.Day(15)), tomatoes.ValidFrom)
	assert.True(t, tomatoes.ValidTo.Equal(retailerstest.Day(20)), tomatoes.ValidTo)

	soap := products[1]
	assert.Equal(t, "A-2", soap.UniqueIDInternal)
	assert.Equal(t, "0.99", soap.Price)
	assert.Equal(t, "Stück", soap.Quantity)
	assert.Equal(t, "Zitrone", soap.Description)
	assert.True(t, soap.ValidFrom.Equal(retailerstest.Day(15)))
}

func TestFetchAndParseDistinguishesEmptyFromMissing(t *testing.T) {
	srv := retailerstest.NewServer(t, map[string]retailerstest.Response{
		"/api/offers?&for_store=1&for_date=2024-07-15&limit=1000": retailerstest.JSON(`{"data": []}`),
		"/api/offers?&for_store=2&for_date=2024-07-15&limit=1000": retailerstest.JSON(`{"error": "unknown store"}`),
		"/api/offers?&for_store=3&for_date=2024-07-15&limit=1000": retailerstest.Status(http.StatusInternalServerError),
	})
	a := New(retailerstest.Client(), srv.URL)

	products, err := a.FetchAndParse(context.Background(), retailerstest.Unit(domain.MarketTypeHit, "1", domain.UnitKindMarket))
	require.NoError(t, err)
	assert.Empty(t, products)

	for _, id := range []string{"2", "3"} {
		_, err = a.FetchAndParse(context.Background(), retailerstest.Unit(domain.MarketTypeHit, id, domain.UnitKindMarket))
		assert.ErrorIs(t, err, constants.ErrNoData, id)
	}
}
