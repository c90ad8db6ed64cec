// Package penny reads the weekly offers of Penny per selling region from its
// JSON offers endpoint.
package penny

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/ougirez/discounts/internal/domain"
	"github.com/ougirez/discounts/internal/pkg/constants"
	"github.com/ougirez/discounts/internal/pkg/extract"
	"github.com/ougirez/discounts/internal/pkg/fetch"
	"github.com/ougirez/discounts/internal/pkg/logger"
	"github.com/ougirez/discounts/internal/pkg/week"
	"github.com/ougirez/discounts/internal/service/retailers"
)

const mgnlSuffix = "~mgnlArea=main~"

type period struct {
	Slug          string `json:"slug"`
	StartDayIndex int    `json:"startDayIndex"`
	EndDayIndex   int    `json:"endDayIndex"`
}

type tile struct {
	Title                   string `json:"title"`
	Subtitle                string `json:"subtitle"`
	UUID                    string `json:"uuid"`
	Price                   string `json:"price"`
	OriginalPrice           string `json:"originalPrice"`
	Quantity                string `json:"quantity"`
	BasePrice               string `json:"basePrice"`
	DetailLinkHref          string `json:"detailLinkHref"`
	OnlyOnline              bool   `json:"onlyOnline"`
	ShowOnlyWithTheAppBadge bool   `json:"showOnlyWithTheAppBadge"`
}

type category struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	OfferTiles []tile `json:"offerTiles"`
}

type weekOffers struct {
	CategoriesMenuPeriod map[string]period `json:"categoriesMenuPeriod"`
	Categories           []category        `json:"categories"`
}

type Adapter struct {
	retailers.ByDirectory
	client  *fetch.Client
	baseURL string
}

func New(client *fetch.Client, baseURL string) *Adapter {
	return &Adapter{
		ByDirectory: retailers.ByDirectory(domain.MarketTypePenny),
		client:      client,
		baseURL:     strings.TrimSuffix(baseURL, "/"),
	}
}

func (a *Adapter) offersURL(unit domain.WorkUnit) string {
	year, wk := unit.Window.ISOWeek()
	return fmt.Sprintf("%s/.rest/offers/%d-%d?weekRegion=%s", a.baseURL, year, wk, url.QueryEscape(unit.ID))
}

func (a *Adapter) FetchAndParse(ctx context.Context, unit domain.WorkUnit) ([]domain.Product, error) {
	var envelope []weekOffers
	if err := a.client.JSON(ctx, a.offersURL(unit), &envelope); err != nil {
		return nil, retailers.NoData(fmt.Errorf("client.JSON: %w", err))
	}
	if len(envelope) == 0 {
		return nil, retailers.NoData(fmt.Errorf("empty offers envelope for region %s", unit.ID))
	}
	offers := envelope[0]

	var products []domain.Product
	for _, c := range offers.Categories {
		if strings.Contains(strings.ToLower(c.Name), "payback") {
			continue
		}
		w := categoryWindow(c, offers.CategoriesMenuPeriod, unit.Window)
		for _, t := range c.OfferTiles {
			if p, ok := a.parseTile(t, w); ok {
				products = append(products, p)
			}
		}
	}

	logger.Debugf(ctx, "penny region %s: %d offers", unit.ID, len(products))
	return products, nil
}

// categoryWindow narrows the week to the period with the longest slug
// prefixing the category id. Day indexes count from Monday.
func categoryWindow(c category, periods map[string]period, w week.Window) week.Window {
	var best *period
	for _, p := range periods {
		if p.Slug == "" || !strings.HasPrefix(c.ID, p.Slug) {
			continue
		}
		if best == nil || len(p.Slug) > len(best.Slug) {
			best = &p
		}
	}
	if best == nil {
		return w
	}
	return week.Window{Start: w.Day(best.StartDayIndex), End: w.Day(best.EndDayIndex)}
}

func (a *Adapter) parseTile(t tile, w week.Window) (domain.Product, bool) {
	if strings.TrimSpace(t.Title) == "" || t.OnlyOnline || strings.Contains(strings.ToLower(t.Price), "rabatt") {
		return domain.Product{}, false
	}

	p := domain.Product{
		MarketType:       domain.MarketTypePenny,
		Name:             strings.TrimSpace(strings.TrimSuffix(extract.Clean(t.Title), "*")),
		Price:            extract.NormalizePrice(t.Price),
		PriceBefore:      extract.Amount(t.OriginalPrice),
		Currency:         constants.Currency,
		ValidFrom:        w.Start,
		ValidTo:          w.End,
		UniqueID:         t.UUID,
		UniqueIDInternal: t.UUID,
		AppDeal:          t.ShowOnlyWithTheAppBadge,
	}
	if t.DetailLinkHref != "" {
		p.Link = a.baseURL + t.DetailLinkHref
	}

	if price, unit, ok := extract.ParseBasePrice(t.BasePrice, extract.StripOne); ok {
		p.BasePrice, p.BasePriceUnit = price, unit
	}

	c := extract.ParseCompound(t.Subtitle, extract.StripOne)
	if c.BasePrice != "" {
		p.BasePrice, p.BasePriceUnit, p.Description = c.BasePrice, c.BasePriceUnit, c.Rest
	}
	p.Quantity, _ = extract.First(extract.Value(c.Quantity), extract.Value(t.Quantity))

	return p, true
}

// Enrich drops the layout suffix of the link and reads the description of
// the detail page.
func (a *Adapter) Enrich(ctx context.Context, p domain.Product) domain.Product {
	if p.Link == "" {
		return p
	}
	detailURL := p.Link
	p.Link = strings.TrimSuffix(p.Link, mgnlSuffix)

	doc, err := a.client.Document(ctx, detailURL)
	if err != nil {
		logger.Debugf(ctx, "penny details %s: %v", detailURL, err)
		return p
	}

	if details := extract.Join(", ", retailers.Strings(doc.Find("div.detail-block__body").First())...); details != "" {
		p.Description = details
	}
	return p
}
