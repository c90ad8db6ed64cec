// Package hit reads the weekly offers of one Hit market from the app API.
package hit

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/ougirez/discounts/internal/domain"
	"github.com/ougirez/discounts/internal/pkg/constants"
	"github.com/ougirez/discounts/internal/pkg/extract"
	"github.com/ougirez/discounts/internal/pkg/fetch"
	"github.com/ougirez/discounts/internal/pkg/week"
	"github.com/ougirez/discounts/internal/service/retailers"
)

var (
	basePriceLineRe = regexp.MustCompile(`\([^()]*=[^()]*\)`)
	quantityLineRe  = regexp.MustCompile(`(?i)(.*?\d+\s?(kg|l|ml|g)\b|stück|.*?\d+.*?packung|.*?\d+\s?anwendung(en)?)`)
)

type offer struct {
	ID                retailers.FlexString `json:"id"`
	Headline          string               `json:"headline"`
	Price             retailers.FlexString `json:"price"`
	StringBeforePrice string               `json:"stringBeforePrice"`
	ValidFrom         string               `json:"validFrom"`
	ValidTo           string               `json:"validTo"`
	URL               string               `json:"url"`
	Text              string               `json:"text"`
	Labels            []struct {
		Label string `json:"label"`
	} `json:"labels"`
}

type response struct {
	Data *[]offer `json:"data"`
}

type Adapter struct {
	retailers.ByDirectory
	client  *fetch.Client
	baseURL string
}

func New(client *fetch.Client, baseURL string) *Adapter {
	return &Adapter{
		ByDirectory: retailers.ByDirectory(domain.MarketTypeHit),
		client:      client,
		baseURL:     strings.TrimSuffix(baseURL, "/"),
	}
}

func (a *Adapter) offersURL(unit domain.WorkUnit) string {
	return fmt.Sprintf("%s/api/offers?&for_store=%s&for_date=%s&limit=1000",
		a.baseURL, url.QueryEscape(unit.ID), unit.Window.Start.Format(time.DateOnly))
}

func (a *Adapter) FetchAndParse(ctx context.Context, unit domain.WorkUnit) ([]domain.Product, error) {
	var resp response
	if err := a.client.JSON(ctx, a.offersURL(unit), &resp); err != nil {
		return nil, retailers.NoData(fmt.Errorf("client.JSON: %w", err))
	}
	if resp.Data == nil {
		return nil, retailers.NoData(fmt.Errorf("store %s: no data in response", unit.ID))
	}

	products := make([]domain.Product, 0, len(*resp.Data))
	for _, o := range *resp.Data {
		products = append(products, parseOffer(o, unit.Window))
	}
	return products, nil
}

func parseOffer(o offer, w week.Window) domain.Product {
	loc := w.Start.Location()
	p := domain.Product{
		MarketType:       domain.MarketTypeHit,
		Name:             extract.Clean(o.Headline),
		Price:            extract.NormalizePrice(o.Price.String()),
		PriceBefore:      extract.Amount(strings.ReplaceAll(o.StringBeforePrice, "*", "")),
		Currency:         constants.Currency,
		ValidFrom:        w.Start,
		ValidTo:          w.End,
		Link:             o.URL,
		UniqueID:         o.ID.String(),
		UniqueIDInternal: o.ID.String(),
	}

	// validFrom is the evening before the first sales day in UTC.
	if t, err := time.Parse(time.RFC3339, o.ValidFrom); err == nil {
		p.ValidFrom = retailers.DateIn(t.UTC(), loc).AddDate(0, 0, 1)
	}
	if t, err := time.Parse(time.RFC3339, o.ValidTo); err == nil {
		p.ValidTo = retailers.DateIn(t.UTC(), loc)
	}

	var rest []string
	for _, line := range strings.Split(o.Text, "\n") {
		line = extract.Clean(line)
		switch {
		case line == "":
		case basePriceLineRe.MatchString(line):
			if price, unit, ok := extract.ParseBasePrice(line, extract.StripOne); ok {
				p.BasePrice, p.BasePriceUnit = price, unit
			}
		case quantityLineRe.MatchString(line):
			if p.Quantity != "" {
				rest = append(rest, p.Quantity)
			}
			p.Quantity = line
		default:
			rest = append(rest, line)
		}
	}
	for _, l := range o.Labels {
		rest = append(rest, extract.Clean(l.Label))
	}
	p.Description = extract.Join(", ", rest...)

	return p
}
