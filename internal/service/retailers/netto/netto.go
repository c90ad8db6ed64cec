// Package netto reads the weekly offers of one Netto market from the app API.
// Producers are resolved through a brand table built from the brands page.
package netto

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ougirez/discounts/internal/domain"
	"github.com/ougirez/discounts/internal/pkg/constants"
	"github.com/ougirez/discounts/internal/pkg/extract"
	"github.com/ougirez/discounts/internal/pkg/fetch"
	"github.com/ougirez/discounts/internal/pkg/logger"
	"github.com/ougirez/discounts/internal/service/retailers"
)

const (
	dateLayout     = "2006-01-02 15:04:05"
	regionalOrigin = "pin_regionales_aus"
	appPriceMarker = "Netto-App-Preis"
	defaultUnit    = "Stück"
)

var (
	seedBrands = map[string]string{
		"backstube":            "Backstube (Marktbäckerei)",
		"gut ponholz":          "Gut Ponholz",
		"hofmaier":             "Hofmaier",
		"wolf echt gute wurst": "Wolf - echt gute Wurst",
	}

	germanBadgeRe = regexp.MustCompile(`deutschlandfahne|ehfe logo`)
	disclaimerRe  = regexp.MustCompile(`(?s)<em>.*?</em>`)
	strongRe      = regexp.MustCompile(`(?s)<strong>(.*?)</strong>`)
	appBaseRe     = regexp.MustCompile(`\(([^()]*/[^()]*)\)`)
	appPriceRe    = regexp.MustCompile(`\d+[.,](?:-|\d*)`)
)

type category struct {
	ValidFrom string           `json:"offer_date_valid_from"`
	ValidTo   string           `json:"offer_date_valid_to"`
	Article   []map[string]any `json:"article"`
}

// response.Data is nil when the envelope lacks data, an empty array is a
// store without offers.
type response struct {
	Data *[]category `json:"data"`
}

type Adapter struct {
	retailers.ByDirectory
	client    *fetch.Client
	baseURL   string
	brandsURL string
	apiKey    string

	mu     sync.RWMutex
	brands *extract.BrandMap
}

func New(client *fetch.Client, baseURL, brandsURL, apiKey string) *Adapter {
	return &Adapter{
		ByDirectory: retailers.ByDirectory(domain.MarketTypeNetto),
		client:      client,
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		brandsURL:   brandsURL,
		apiKey:      apiKey,
		brands:      extract.NewBrandMap(seedBrands),
	}
}

// Prepare builds the brand table from the brands page. An unreadable page
// leaves the seed table in place.
func (a *Adapter) Prepare(ctx context.Context) error {
	brands := extract.NewBrandMap(seedBrands)
	defer func() {
		a.mu.Lock()
		a.brands = brands
		a.mu.Unlock()
	}()

	if a.brandsURL == "" {
		return nil
	}
	doc, err := a.client.Document(ctx, a.brandsURL)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warnf(ctx, "netto brands %s: %v", a.brandsURL, err)
		return nil
	}

	doc.Find("a.brand-link").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSuffix(s.AttrOr("href", ""), "/")
		brands.Add(path.Base(href), retailers.Text(s))
	})
	logger.Infof(ctx, "netto: %d brands", brands.Len())
	return nil
}

func (a *Adapter) brandMap() *extract.BrandMap {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.brands
}

func (a *Adapter) FetchAndParse(ctx context.Context, unit domain.WorkUnit) ([]domain.Product, error) {
	var resp response
	err := a.client.JSON(ctx, a.baseURL+"/offers-qa/rest/v1/offers?store_id="+url.QueryEscape(unit.ID), &resp,
		fetch.Header("x-netto-api-key", a.apiKey))
	if err != nil {
		return nil, retailers.NoData(fmt.Errorf("client.JSON: %w", err))
	}
	if resp.Data == nil {
		return nil, retailers.NoData(fmt.Errorf("store %s: no data in response", unit.ID))
	}

	loc := unit.Window.Start.Location()
	brands := a.brandMap()

	var products []domain.Product
	for _, c := range *resp.Data {
		validFrom, validTo := unit.Window.Start, unit.Window.End
		if t, err := time.ParseInLocation(dateLayout, c.ValidFrom, loc); err == nil {
			validFrom = retailers.DateIn(t, loc)
		}
		if t, err := time.ParseInLocation(dateLayout, c.ValidTo, loc); err == nil {
			validTo = retailers.DateIn(t, loc)
		}

		for _, article := range c.Article {
			p, ok := parseArticle(article, brands)
			if !ok {
				continue
			}
			p.ValidFrom, p.ValidTo = validFrom, validTo
			products = append(products, p.withAppDeal()...)
		}
	}

	return products, nil
}

func str(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

type article struct {
	domain.Product
	rawDescription string
}

func parseArticle(m map[string]any, brands *extract.BrandMap) (article, bool) {
	if str(m, "isOnline") == "true" {
		return article{}, false
	}
	price, _ := m["price"].(map[string]any)
	name, id := str(m, "title"), str(m, "artikelID")
	if name == "" || id == "" || str(price, "price") == "" {
		return article{}, false
	}

	p := domain.Product{
		MarketType: domain.MarketTypeNetto,
		Name:       extract.Clean(name),
		Price:      extract.NormalizePrice(str(price, "price")),
		Currency:   constants.Currency,
		UniqueID:   id,
	}
	p.UniqueIDInternal = extract.InternalID(id, p.Price)
	p.Quantity, _ = extract.First(extract.Value(extract.Clean(str(m, "text_gebinde"))), extract.Value(defaultUnit))

	if base := str(m, "hp_grundpreis"); base != "" {
		if i := strings.LastIndex(base, "/"); i >= 0 {
			p.BasePrice = extract.NormalizePrice(base[:i])
			p.BasePriceUnit = strings.TrimSpace(base[i+1:])
		}
	}
	p.PriceBefore = extract.Amount(str(price, "save_price"))

	applyDisturbers(&p, m, brands)

	raw := strings.ReplaceAll(str(m, "description_short"), "<br />", ", ")
	raw = extract.Join(", ", raw, str(m, "text_pfand"), str(m, "text_more_info"))

	return article{Product: p, rawDescription: raw}, true
}

// applyDisturbers reads origin and producer from the badges of an article.
func applyDisturbers(p *domain.Product, m map[string]any, brands *extract.BrandMap) {
	keys := make([]string, 0, len(m))
	for k := range m {
		if strings.HasPrefix(k, "disturber") {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		d, ok := m[k].(map[string]any)
		if !ok {
			continue
		}
		if str(d, "type") == regionalOrigin {
			p.Origin = extract.Join(", ", str(d, "text"), constants.HomeCountry)
			continue
		}
		img := str(d, "img")
		if img == "" {
			continue
		}
		key := extract.FileKey(img)
		if p.Producer == "" {
			if brand, ok := brands.Match(key); ok {
				p.Producer = brand
			}
		}
		if p.Origin == "" && germanBadgeRe.MatchString(key) {
			p.Origin = constants.HomeCountry
		}
	}
}

// withAppDeal returns the standard offer and, when the description announces
// an app price, a second offer at that price.
func (a article) withAppDeal() []domain.Product {
	raw := a.rawDescription
	std := a.Product

	if !strings.Contains(raw, appPriceMarker) || !strongRe.MatchString(raw) {
		std.Description = retailers.HTMLText(raw)
		return []domain.Product{std}
	}

	raw = disclaimerRe.ReplaceAllString(raw, "")
	m := strongRe.FindStringSubmatchIndex(raw)
	strong := retailers.HTMLText(raw[m[2]:m[3]])
	std.Description = extract.Tidy(retailers.HTMLText(raw[:m[0]] + " " + raw[m[1]:]))

	app := std
	app.AppDeal = true
	if bm := appBaseRe.FindStringSubmatchIndex(strong); bm != nil {
		base := strong[bm[2]:bm[3]]
		if i := strings.LastIndex(base, "/"); i >= 0 {
			app.BasePrice = extract.NormalizePrice(base[:i])
			app.BasePriceUnit = strings.TrimSpace(base[i+1:])
		}
		strong = strong[:bm[0]] + strong[bm[1]:]
	}
	pm := appPriceRe.FindString(strings.ReplaceAll(strong, appPriceMarker, ""))
	if pm == "" {
		return []domain.Product{std}
	}
	app.Price = extract.NormalizePrice(pm)
	app.UniqueIDInternal = extract.InternalID(app.UniqueID, app.Price)

	return []domain.Product{app, std}
}
