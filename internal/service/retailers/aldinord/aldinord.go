// Package aldinord reads the weekly offers of Aldi Nord from its HTML pages.
package aldinord

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/bytedance/sonic"
	"github.com/ougirez/discounts/internal/domain"
	"github.com/ougirez/discounts/internal/pkg/constants"
	"github.com/ougirez/discounts/internal/pkg/extract"
	"github.com/ougirez/discounts/internal/pkg/fetch"
	"github.com/ougirez/discounts/internal/pkg/logger"
	"github.com/ougirez/discounts/internal/pkg/week"
	"github.com/ougirez/discounts/internal/service/retailers"
)

const offersPath = "/angebote.html"

type Adapter struct {
	retailers.ByDirectory
	client  *fetch.Client
	baseURL string
}

func New(client *fetch.Client, baseURL string) *Adapter {
	return &Adapter{
		ByDirectory: retailers.ByDirectory(domain.MarketTypeAldiNord),
		client:      client,
		baseURL:     strings.TrimSuffix(baseURL, "/"),
	}
}

func (a *Adapter) FetchAndParse(ctx context.Context, unit domain.WorkUnit) ([]domain.Product, error) {
	doc, err := a.client.Document(ctx, a.baseURL+offersPath)
	if err != nil {
		return nil, retailers.NoData(fmt.Errorf("client.Document: %w", err))
	}

	var tiles []string
	doc.Find("div[data-tile-url]").Each(func(_ int, s *goquery.Selection) {
		if u := s.AttrOr("data-tile-url", ""); strings.Contains(u, ".articletile.") {
			tiles = append(tiles, u)
		}
	})
	if len(tiles) == 0 {
		return nil, retailers.NoData(fmt.Errorf("no article tiles on %s", offersPath))
	}

	products := make([]domain.Product, 0, len(tiles))
	for _, tileURL := range tiles {
		tile, err := a.client.Document(ctx, a.baseURL+tileURL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warnf(ctx, "aldi_nord tile %s: %v", tileURL, err)
			continue
		}
		if p, ok := a.parseTile(ctx, tile.Selection, unit.Window); ok {
			products = append(products, p)
		}
	}

	return products, nil
}

// parseTile reads one article tile. Tiles linking off-site are online-only
// offers and are dropped.
func (a *Adapter) parseTile(ctx context.Context, tile *goquery.Selection, w week.Window) (domain.Product, bool) {
	p := domain.Product{
		MarketType: domain.MarketTypeAldiNord,
		Currency:   constants.Currency,
		ValidFrom:  w.Start,
		ValidTo:    w.End,
	}

	action := tile.Find("a.mod-article-tile__action").First()
	if href, ok := action.Attr("href"); ok {
		if retailers.OnlineOnly(href) {
			return domain.Product{}, false
		}
		p.Link = a.baseURL + href
		p.UniqueID = action.AttrOr("data-attr-prodid", "")
		p.UniqueIDInternal = p.UniqueID
	} else {
		logger.Debugf(ctx, "aldi_nord tile without link")
	}

	p.Name = retailers.OwnText(tile.Find("span.mod-article-tile__title"))
	p.Producer = retailers.OwnText(tile.Find("span.mod-article-tile__brand"))
	p.Price = extract.NormalizePrice(retailers.OwnText(tile.Find("span.price__wrapper")))
	p.PriceBefore = extract.Amount(retailers.OwnText(tile.Find("s.price__previous")))
	p.Quantity = retailers.OwnText(tile.Find("span.price__unit"))
	if price, unit, ok := extract.ParseBasePrice(retailers.Text(tile.Find("span.price__base")), extract.KeepCount); ok {
		p.BasePrice, p.BasePriceUnit = price, unit
	}

	p.Description = ldDescription(tile)
	if info := retailers.OwnText(tile.Find("span.price__info")); info != "" {
		p.Description = extract.Join(", ", p.Description, info)
	}

	if ms, err := strconv.ParseInt(tile.Find("div[data-promotion-date-millis]").AttrOr("data-promotion-date-millis", ""), 10, 64); err == nil {
		from := week.Date(time.UnixMilli(ms).In(w.Start.Location()))
		p.ValidFrom, p.ValidTo = from, week.SaturdayOf(from)
	}

	return p, true
}

func ldDescription(tile *goquery.Selection) string {
	var ld struct {
		Description string `json:"description"`
	}
	raw := tile.Find(`script[type="application/ld+json"]`).First().Text()
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	if err := sonic.UnmarshalString(raw, &ld); err != nil {
		return ""
	}
	return extract.Clean(ld.Description)
}

// Enrich appends the bullet points of the detail page to the description.
func (a *Adapter) Enrich(ctx context.Context, p domain.Product) domain.Product {
	if p.Link == "" {
		return p
	}
	doc, err := a.client.Document(ctx, p.Link)
	if err != nil {
		logger.Debugf(ctx, "aldi_nord details %s: %v", p.Link, err)
		return p
	}

	var bullets []string
	doc.Find("div.mod.mod-copy").First().Find("li").Each(func(_ int, li *goquery.Selection) {
		bullets = append(bullets, extract.Clean(li.Text()))
	})
	if details := extract.Join(", ", bullets...); details != "" {
		p.Description = extract.Join(" | ", p.Description, details)
	}
	return p
}
