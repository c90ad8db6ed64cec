package norma

import (
	"context"
	"testing"
	"time"

	"github.com/ougirez/discounts/internal/domain"
	"github.com/ougirez/discounts/internal/pkg/constants"
	"github.com/ougirez/discounts/internal/pkg/extract"
	"github.com/ougirez/discounts/internal/pkg/week"
	"github.com/ougirez/discounts/internal/service/retailers/retailerstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const viewPrefix = "/ws/?controller=Norma_View&action=remoteView&sRegioKey=R1&sAction="

const homeJSON = `{"data": {"content": [
  {"type": "topic_grid", "content": [
    {"url": "/catalog/123", "txtSubline": "ab 15.07.2024"},
    {"url": "/catalog/124", "txtSubline": "ab 22.07.2024"},
    {"url": "https://extern.example/", "txtSubline": ""}
  ]},
  {"type": "slider", "items": [
    {"url": "/remote/topDeals"},
    {"url": "/prospekt.pdf"}
  ]},
  {"type": "text", "content": [{"url": "/remote/ignored"}]}
]}}`

const catalogJSON = `{"data": {"content": [
  {"type": "product_grid", "content": [
    {"id": 501, "txtArtikel": "Kaffee Crema", "txtVerkaufspreis": "4,99", "txtTermin": "ab Donnerstag, 18.07.",
     "txtInhaltLang": "1000 g", "txtGrundpreis": "(1 kg = 4,99)", "txtMarke": "Clarissa", "txtInfo": "UVP 6,49"},
    {"id": 502, "txtArtikel": "Online Sofa", "txtVerkaufspreis": "399,00", "bStore": "false"},
    {"id": 503, "txtArtikel": "Vorschau", "txtVerkaufspreis": "1,00", "txtTermin": "ab 22.07."},
    {"id": 504, "txtArtikel": "", "txtVerkaufspreis": "1,00"}
  ]}
]}}`

const dealsJSON = `{"data": {"content": [
  {"type": "product_grid", "content": [
    {"id": "601", "txtArtikel": "Bananen", "txtVerkaufspreis": "1,29", "bStore": true,
     "txtBezogenAuf": "je kg", "txtInhaltLang": "lose"}
  ]}
]}}`

const detailsJSON = `{"data": {"content": [
  {"type": "html_text", "text": "<p>Ganze Bohne</p>\n<p>100 % Arabica</p>"}
]}}`

func newServer(t *testing.T) *retailerstest.Server {
	return retailerstest.NewServer(t, map[string]retailerstest.Response{
		viewPrefix + "home":                            retailerstest.JSON(homeJSON),
		viewPrefix + "catalog&isIdentifier=123":        retailerstest.JSON(catalogJSON),
		viewPrefix + "topDeals":                        retailerstest.JSON(dealsJSON),
		viewPrefix + "productDetails&isIdentifier=501": retailerstest.JSON(detailsJSON),
	})
}

func TestFetchAndParse(t *testing.T) {
	srv := newServer(t)
	a := New(retailerstest.Client(), srv.URL, "dG9rZW4=")

	products, err := a.FetchAndParse(context.Background(), retailerstest.Unit(domain.MarketTypeNorma, "R1", domain.UnitKindRegion))
	require.NoError(t, err)
	require.Len(t, products, 2)

	coffee := products[0]
	assert.Equal(t, "Kaffee Crema", coffee.Name)
	assert.Equal(t, "4,99", coffee.Price)
	assert.Equal(t, "6,49", coffee.PriceBefore)
	assert.Equal(t, "1000 g", coffee.Quantity)
	assert.Equal(t, "4,99", coffee.BasePrice)
	assert.Equal(t, "kg", coffee.BasePriceUnit)
	assert.Equal(t, "Clarissa", coffee.Producer)
	assert.Equal(t, extract.InternalID("501", "4,99"), coffee.UniqueIDInternal)
	assert.True(t, coffee.ValidFrom.Equal(retailerstest.Day(18)))
	assert.True(t, coffee.ValidTo.Equal(retailerstest.Day(20)))

	bananas := products[1]
	assert.Equal(t, "je kg", bananas.Quantity)
	assert.True(t, bananas.ValidFrom.Equal(retailerstest.Day(15)))

	for _, r := range srv.Requests() {
		assert.Equal(t, "Basic dG9rZW4=", r.Header.Get("Authorization"))
	}

	enriched := a.Enrich(context.Background(), coffee)
	assert.Equal(t, "Ganze Bohne, 100 % Arabica", enriched.Description)
}

func TestFetchAndParseAcrossNewYear(t *testing.T) {
	srv := retailerstest.NewServer(t, map[string]retailerstest.Response{
		viewPrefix + "home": retailerstest.JSON(`{"data": {"content": [
  {"type": "topic_grid", "content": [{"url": "/catalog/900", "txtSubline": "ab Mo. 30.12."}]}
]}}`),
		viewPrefix + "catalog&isIdentifier=900": retailerstest.JSON(`{"data": {"content": [
  {"type": "product_grid", "content": [
    {"id": 901, "txtArtikel": "Sekt", "txtVerkaufspreis": "2,99", "txtTermin": "ab Mo. 30.12.", "txtInfo": "solange Vorrat reicht"}
  ]}
]}}`),
	})
	a := New(retailerstest.Client(), srv.URL, "")

	loc := retailerstest.Now().Location()
	thursday := time.Date(2025, time.January, 2, 9, 0, 0, 0, loc)
	unit := retailerstest.Unit(domain.MarketTypeNorma, "R1", domain.UnitKindRegion)
	unit.LastUpdate, unit.Window = thursday, week.Current(thursday)

	products, err := a.FetchAndParse(context.Background(), unit)
	require.NoError(t, err)
	require.Len(t, products, 1)

	p := products[0]
	assert.True(t, p.ValidFrom.Equal(time.Date(2024, time.December, 30, 0, 0, 0, 0, loc)))
	assert.True(t, p.ValidTo.Equal(time.Date(2025, time.January, 4, 0, 0, 0, 0, loc)))
	assert.Empty(t, p.PriceBefore)
	assert.NoError(t, p.Validate())
}

func TestFetchAndParseHomeMissing(t *testing.T) {
	srv := retailerstest.NewServer(t, map[string]retailerstest.Response{
		viewPrefix + "home": retailerstest.JSON(`{"success": false}`),
	})
	a := New(retailerstest.Client(), srv.URL, "")

	_, err := a.FetchAndParse(context.Background(), retailerstest.Unit(domain.MarketTypeNorma, "R1", domain.UnitKindRegion))
	assert.ErrorIs(t, err, constants.ErrNoData)
}

func TestActionOf(t *testing.T) {
	for link, want := range map[string]string{
		"/catalog/123":      "catalog&isIdentifier=123",
		"/remote/topDeals/": "topDeals",
	} {
		got, ok := actionOf(link)
		require.True(t, ok, link)
		assert.Equal(t, want, got)
	}
	_, ok := actionOf("/angebote")
	assert.False(t, ok)
}
