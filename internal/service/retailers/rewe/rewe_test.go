package rewe

import (
	"context"
	"crypto/tls"
	"strings"
	"testing"

	"github.com/ougirez/discounts/internal/domain"
	"github.com/ougirez/discounts/internal/pkg/constants"
	"github.com/ougirez/discounts/internal/pkg/extract"
	"github.com/ougirez/discounts/internal/pkg/fetch"
	"github.com/ougirez/discounts/internal/service/retailers/retailerstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 1721426400000 is 2024-07-20 00:00 CEST.
const offersJSON = `{"data": {"offers": {
  "untilDate": 1721426400000,
  "categories": [
    {"title": "Obst & Gemüse", "offers": [
      {"title": "Heidelbeeren", "subtitle": "Herkunft: Spanien, je 500-g-Schale (1 kg = 5.98)",
       "priceData": {"price": "2,99 €"},
       "detail": {"pitchIn": "Süß und saftig", "contents": [
         {"header": "Produktdetails", "titles": ["Art.-Nr.: 12345", "Hersteller: Beerenhof", "Herkunft: Spanien"]}
       ]}},
      {"title": "", "priceData": {"price": "1.00"}}
    ]},
    {"title": "PAYBACK Coupons", "offers": [{"title": "10fach", "priceData": {"price": "0"}}]}
  ]
}}}`

func TestPrepareRequiresCertificate(t *testing.T) {
	a := New(retailerstest.Client(), "http://rewe.invalid")
	assert.ErrorIs(t, a.Prepare(context.Background()), constants.ErrCredentials)

	withCert := New(retailerstest.Client(fetch.WithCertificate(tls.Certificate{})), "http://rewe.invalid")
	assert.NoError(t, withCert.Prepare(context.Background()))
}

func TestFetchAndParse(t *testing.T) {
	srv := retailerstest.NewServer(t, map[string]retailerstest.Response{
		"/api/stationary-app-offers/840174": retailerstest.JSON(offersJSON),
	})
	a := New(retailerstest.Client(), srv.URL)

	products, err := a.FetchAndParse(context.Background(), retailerstest.Unit(domain.MarketTypeRewe, "840174", domain.UnitKindMarket))
	require.NoError(t, err)
	require.Len(t, products, 1)

	p := products[0]
	assert.Equal(t, "Heidelbeeren", p.Name)
	assert.Equal(t, "2,99", p.Price)
	assert.Equal(t, "je 500-g-Schale", p.Quantity)
	assert.Equal(t, "5.98", p.BasePrice)
	assert.Equal(t, "kg", p.BasePriceUnit)
	assert.Equal(t, "Herkunft: Spanien, Süß und saftig", p.Description)
	assert.Equal(t, "12345", p.UniqueID)
	assert.Equal(t, "Beerenhof", p.Producer)
	assert.Equal(t, "Spanien", p.Origin)
	assert.True(t, p.ValidTo.Equal(retailerstest.Day(20)))
	assert.True(t, p.ValidFrom.Equal(retailerstest.Day(15)))
	assert.Equal(t, extract.InternalID("12345", "2,99", p.Description, "2024-07-20"), p.UniqueIDInternal)
	assert.True(t, strings.HasPrefix(p.UniqueIDInternal, "12345_"))

	req := srv.Requests()[0]
	assert.NotEmpty(t, req.Header.Get("Correlation-Id"))
	assert.NotEmpty(t, req.Header.Get("rdfa"))
}

func TestFetchAndParseWithoutOffers(t *testing.T) {
	srv := retailerstest.NewServer(t, map[string]retailerstest.Response{
		"/api/stationary-app-offers/1": retailerstest.JSON(`{"data": {}}`),
	})
	a := New(retailerstest.Client(), srv.URL)

	_, err := a.FetchAndParse(context.Background(), retailerstest.Unit(domain.MarketTypeRewe, "1", domain.UnitKindMarket))
	assert.ErrorIs(t, err, constants.ErrNoData)
}
