package aldisued

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/ougirez/discounts/internal/domain"
	"github.com/ougirez/discounts/internal/pkg/constants"
	"github.com/ougirez/discounts/internal/pkg/week"
	"github.com/ougirez/discounts/internal/service/retailers/retailerstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wholeWeekPage = `<html><body>
<h2>Frischekracher vom 15.07. - 20.07.</h2>
<figure>
  <img data-src="/img/a.jpg" data-asset-id="A-1">
  <figcaption>
    <h3>Bio-Bananen</h3>
    <p>Bio</p><p>Frisch</p>
    <p>1.29 € <s>1.69</s></p>
    <p>GUT BIO</p>
    <p>je 1-kg-Packung (1 kg = 1.29)</p>
  </figcaption>
</figure>
<h2>Vorschau 22.07. - 27.07.</h2>
<figure>
  <img data-src="/img/b.jpg" data-asset-id="B-1">
  <figcaption><h3>Erdbeeren</h3><p>x</p><p>y</p><p>2.49</p><p>500 g</p></figcaption>
</figure>
</body></html>`

func article(i int, price string) string {
	priceTag := ""
	if price != "" {
		priceTag = fmt.Sprintf(`<span class="at-product-price_lbl price">%s €</span>`, price)
	}
	return fmt.Sprintf(`<article class="wrapper"><a href="/de/p/artikel-%d.html"><div>
<h2>MILSANI Joghurt %d</h2>%s
<span id="uvp-plp-%d">UVP 0.99</span>
<span class="additional-product-info">je 150 g (1 kg = 4.60 €)</span>
</div></a></article>`, i, i, priceTag, i)
}

func dayPageHTML(articles ...string) string {
	return `<html><body>
<div id="filter-list-brandName"><label>MILSANI (10)</label><label>GUT BIO (2)</label></div>
<div id="plpProducts">` + strings.Join(articles, "\n") + `
<article class="wrapper"><a href="https://www.aldi-sued.de/onlineshop/p/9.html"><div><h2>Grill</h2></div></a></article>
</div></body></html>`
}

func TestParseWholeWeekDatesFromPrecedingText(t *testing.T) {
	srv := retailerstest.NewServer(t, map[string]retailerstest.Response{
		"/de/angebote/frischekracher.html": retailerstest.HTML(wholeWeekPage),
	})
	a := New(retailerstest.Client(), srv.URL)
	unit := retailerstest.Unit(domain.MarketTypeAldiSued, "nationwide", domain.UnitKindRegion)

	products, err := a.FetchAndParse(context.Background(), unit)
	require.NoError(t, err)
	require.Len(t, products, 1, "figure of next week is skipped")

	p := products[0]
	assert.Equal(t, "Bio-Bananen", p.Name)
	assert.Equal(t, "A-1", p.UniqueIDInternal)
	assert.Equal(t, "1.29", p.Price)
	assert.Equal(t, "1.69", p.PriceBefore)
	assert.Equal(t, "GUT BIO", p.Producer)
	assert.Equal(t, "je 1-kg-Packung", p.Quantity)
	assert.Equal(t, "1.29", p.BasePrice)
	assert.Equal(t, "kg", p.BasePriceUnit)
	assert.True(t, p.ValidFrom.Equal(retailerstest.Day(15)))
	assert.True(t, p.ValidTo.Equal(retailerstest.Day(20)))
}

func TestDayPageKeepsOffersWithMissingFields(t *testing.T) {
	articles := make([]string, 0, 10)
	for i := 1; i <= 10; i++ {
		price := "0.79"
		if i == 7 {
			price = ""
		}
		articles = append(articles, article(i, price))
	}

	srv := retailerstest.NewServer(t, map[string]retailerstest.Response{
		"/de/angebote/d.18-07-2024.html": retailerstest.HTML(dayPageHTML(articles...)),
	})
	a := New(retailerstest.Client(), srv.URL)
	unit := retailerstest.Unit(domain.MarketTypeAldiSued, "nationwide", domain.UnitKindRegion)

	products, err := a.FetchAndParse(context.Background(), unit)
	require.NoError(t, err)
	require.Len(t, products, 10, "online-only article is excluded, the one without price is kept")

	for _, p := range products {
		assert.NotContains(t, p.Link, "onlineshop")
		assert.Equal(t, "MILSANI", p.Producer)
		assert.True(t, p.ValidFrom.Equal(retailerstest.Day(18)))
		assert.True(t, p.ValidTo.Equal(retailerstest.Day(20)))
	}

	first := products[0]
	assert.Equal(t, "1", first.UniqueIDInternal)
	assert.Equal(t, srv.URL+"/de/p/artikel-1.html", first.Link)
	assert.Equal(t, "0.79", first.Price)
	assert.Equal(t, "0.99", first.PriceBefore)
	assert.Equal(t, "je 150 g", first.Quantity)
	assert.Equal(t, "4.60", first.BasePrice)
	assert.Equal(t, "kg", first.BasePriceUnit)

	assert.Empty(t, products[6].Price)
	assert.Equal(t, "MILSANI Joghurt 7", products[6].Name)
}

func TestDayPagesFromIndex(t *testing.T) {
	index := `<div id="subMenu-1">
<a href="/de/angebote/d.15-07-2024.html">Mo</a>
<a href="/de/angebote/d.16-07-2024.html">Di</a>
<a href="/de/angebote/d.18-07-2024.html">Do</a>
<a href="/de/angebote/d.19-07-2024.html">Fr</a>
<a href="/de/angebote/d.22-07-2024.html">nächste Woche</a>
</div>`
	srv := retailerstest.NewServer(t, map[string]retailerstest.Response{
		indexPath: retailerstest.HTML(index),
	})
	a := New(retailerstest.Client(), srv.URL)

	pages := a.dayPages(context.Background(), retailerstest.Unit(domain.MarketTypeAldiSued, "nationwide", domain.UnitKindRegion))
	require.Len(t, pages, 4)
	assert.Equal(t, srv.URL+"/de/angebote/d.16-07-2024.html", pages[1].url)
	assert.True(t, pages[1].date.Equal(retailerstest.Day(16)))
}

func TestDayPagesFallback(t *testing.T) {
	srv := retailerstest.NewServer(t, map[string]retailerstest.Response{
		indexPath: retailerstest.Status(http.StatusInternalServerError),
	})
	a := New(retailerstest.Client(), srv.URL)

	pages := a.dayPages(context.Background(), retailerstest.Unit(domain.MarketTypeAldiSued, "nationwide", domain.UnitKindRegion))
	require.Len(t, pages, 4)
	for i, day := range []int{15, 18, 19, 20} {
		assert.Equal(t, fmt.Sprintf("%s/de/angebote/d.%02d-07-2024.html", srv.URL, day), pages[i].url)
	}
}

func TestDayPagesFallbackKeepsDiscovered(t *testing.T) {
	index := `<div id="subMenu-1">
<a href="/de/angebote/d.16-07-2024.html">Di</a>
<a href="/de/angebote/d.18-07-2024.html">Do</a>
</div>`
	srv := retailerstest.NewServer(t, map[string]retailerstest.Response{
		indexPath: retailerstest.HTML(index),
	})
	a := New(retailerstest.Client(), srv.URL)

	pages := a.dayPages(context.Background(), retailerstest.Unit(domain.MarketTypeAldiSued, "nationwide", domain.UnitKindRegion))
	require.Len(t, pages, 5)
	for i, day := range []int{15, 16, 18, 19, 20} {
		assert.Equal(t, fmt.Sprintf("%s/de/angebote/d.%02d-07-2024.html", srv.URL, day), pages[i].url)
		assert.True(t, pages[i].date.Equal(retailerstest.Day(day)))
	}
}

func TestParseWholeWeekAcrossNewYear(t *testing.T) {
	page := `<html><body>
<h2>Frischekracher vom 30.12. - 04.01.</h2>
<figure>
  <img data-src="/img/a.jpg" data-asset-id="A-7">
  <figcaption><h3>Sekt</h3><p>x</p><p>y</p><p>3.99</p><p>0,75 l</p></figcaption>
</figure>
</body></html>`
	srv := retailerstest.NewServer(t, map[string]retailerstest.Response{
		"/de/angebote/frischekracher.html": retailerstest.HTML(page),
	})
	a := New(retailerstest.Client(), srv.URL)

	loc := retailerstest.Now().Location()
	sunday := time.Date(2024, time.December, 29, 18, 0, 0, 0, loc)
	unit := retailerstest.Unit(domain.MarketTypeAldiSued, "nationwide", domain.UnitKindRegion)
	unit.LastUpdate, unit.Window = sunday, week.Current(sunday)

	products, err := a.FetchAndParse(context.Background(), unit)
	require.NoError(t, err)
	require.Len(t, products, 1)

	p := products[0]
	assert.True(t, p.ValidFrom.Equal(time.Date(2024, time.December, 30, 0, 0, 0, 0, loc)))
	assert.True(t, p.ValidTo.Equal(time.Date(2025, time.January, 4, 0, 0, 0, 0, loc)))
	assert.NoError(t, p.Validate())
}

func TestFetchAndParseNothingReadable(t *testing.T) {
	srv := retailerstest.NewServer(t, map[string]retailerstest.Response{})
	a := New(retailerstest.Client(), srv.URL)

	_, err := a.FetchAndParse(context.Background(), retailerstest.Unit(domain.MarketTypeAldiSued, "nationwide", domain.UnitKindRegion))
	assert.ErrorIs(t, err, constants.ErrNoData)
}

func TestEnrich(t *testing.T) {
	srv := retailerstest.NewServer(t, map[string]retailerstest.Response{
		"/de/p/artikel-1.html": retailerstest.HTML(`<div class="infobox"><p>Joghurt mild</p><p> </p><a>Zum Garantieportal</a><p>3,5 % Fett</p></div>`),
	})
	a := New(retailerstest.Client(), srv.URL)

	p := a.Enrich(context.Background(), domain.Product{Link: srv.URL + "/de/p/artikel-1.html"})
	assert.Equal(t, "Joghurt mild, 3,5 % Fett", p.Description)

	whole := domain.Product{Description: "500 g"}
	assert.Equal(t, whole, a.Enrich(context.Background(), whole))
}
