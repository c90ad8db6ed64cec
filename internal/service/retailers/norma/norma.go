// Package norma reads the weekly offers of Norma per regional key by walking
// the remote views of its shop backend.
package norma

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/ougirez/discounts/internal/domain"
	"github.com/ougirez/discounts/internal/pkg/constants"
	"github.com/ougirez/discounts/internal/pkg/extract"
	"github.com/ougirez/discounts/internal/pkg/fetch"
	"github.com/ougirez/discounts/internal/pkg/logger"
	"github.com/ougirez/discounts/internal/pkg/week"
	"github.com/ougirez/discounts/internal/service/retailers"
)

const (
	blockProductGrid = "product_grid"
	blockHTMLText    = "html_text"
)

var (
	linkBlocks = map[string]bool{"topic_grid": true, "slider": true, "generic_slider": true}
	digitsRe   = regexp.MustCompile(`\d+`)
)

type entry struct {
	URL        string               `json:"url"`
	TxtSubline string               `json:"txtSubline"`
	ID         retailers.FlexString `json:"id"`
	Termin     string               `json:"txtTermin"`
	Store      retailers.FlexString `json:"bStore"`
	Price      retailers.FlexString `json:"txtVerkaufspreis"`
	Article    string               `json:"txtArtikel"`
	PerUnit    string               `json:"txtBezogenAuf"`
	Contents   string               `json:"txtInhaltLang"`
	BasePrice  string               `json:"txtGrundpreis"`
	Brand      string               `json:"txtMarke"`
	Info       string               `json:"txtInfo"`
}

type block struct {
	Type    string  `json:"type"`
	Text    string  `json:"text"`
	Content []entry `json:"content"`
	Items   []entry `json:"items"`
}

type view struct {
	Data *struct {
		Content []block `json:"content"`
	} `json:"data"`
}

type Adapter struct {
	retailers.ByDirectory
	client    *fetch.Client
	baseURL   string
	authToken string

	// regions remembers a regional key per article for the detail view.
	regions sync.Map
}

func New(client *fetch.Client, baseURL, authToken string) *Adapter {
	return &Adapter{
		ByDirectory: retailers.ByDirectory(domain.MarketTypeNorma),
		client:      client,
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		authToken:   authToken,
	}
}

func (a *Adapter) viewURL(regio, action string) string {
	return fmt.Sprintf("%s/ws/?controller=Norma_View&action=remoteView&sRegioKey=%s&sAction=%s",
		a.baseURL, url.QueryEscape(regio), action)
}

func (a *Adapter) view(ctx context.Context, regio, action string) ([]block, error) {
	var opts []fetch.RequestOption
	if a.authToken != "" {
		opts = append(opts, fetch.Header("Authorization", "Basic "+a.authToken))
	}

	var v view
	if err := a.client.JSON(ctx, a.viewURL(regio, action), &v, opts...); err != nil {
		return nil, fmt.Errorf("client.JSON: %w", err)
	}
	if v.Data == nil {
		return nil, fmt.Errorf("view %s: no data", action)
	}
	return v.Data.Content, nil
}

func (a *Adapter) FetchAndParse(ctx context.Context, unit domain.WorkUnit) ([]domain.Product, error) {
	home, err := a.view(ctx, unit.ID, "home")
	if err != nil {
		return nil, retailers.NoData(err)
	}

	var products []domain.Product
	seen := make(map[string]struct{})
	for _, action := range a.actions(home, unit) {
		if _, ok := seen[action]; ok {
			continue
		}
		seen[action] = struct{}{}

		blocks, err := a.view(ctx, unit.ID, action)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warnf(ctx, "norma %s %s: %v", unit.ID, action, err)
			continue
		}
		for _, b := range blocks {
			if b.Type != blockProductGrid {
				continue
			}
			for _, e := range b.Content {
				if p, ok := parseEntry(e, unit); ok {
					a.regions.LoadOrStore(p.UniqueID, unit.ID)
					products = append(products, p)
				}
			}
		}
	}

	return products, nil
}

// actions turns the links of the home view into remote view actions.
func (a *Adapter) actions(home []block, unit domain.WorkUnit) []string {
	var out []string
	for _, b := range home {
		if !linkBlocks[b.Type] {
			continue
		}
		for _, e := range b.Content {
			if strings.HasPrefix(e.URL, "/") && currentWeek(e.TxtSubline, unit) {
				if action, ok := actionOf(e.URL); ok {
					out = append(out, action)
				}
			}
		}
		for _, e := range b.Items {
			if strings.HasPrefix(e.URL, "/") && !strings.Contains(e.URL, "pdf") {
				if action, ok := actionOf(e.URL); ok {
					out = append(out, action)
				}
			}
		}
	}
	return out
}

func actionOf(link string) (string, bool) {
	switch {
	case strings.HasPrefix(link, "/catalog"):
		id := digitsRe.FindString(link)
		if id == "" {
			return "", false
		}
		return "catalog&isIdentifier=" + id, true
	case strings.HasPrefix(link, "/remote/"):
		action := strings.Trim(strings.TrimPrefix(link, "/remote/"), "/")
		if action == "" {
			return "", false
		}
		return url.QueryEscape(action), true
	}
	return "", false
}

// currentWeek reports whether the first date in text falls in the unit's
// week. Text without a date counts as current.
func currentWeek(text string, unit domain.WorkUnit) bool {
	d, ok := week.ParseDate(text, unit.LastUpdate)
	return !ok || unit.Window.Contains(d)
}

func parseEntry(e entry, unit domain.WorkUnit) (domain.Product, bool) {
	if !currentWeek(e.Termin, unit) || e.Store.String() == "false" {
		return domain.Product{}, false
	}
	id, price, name := e.ID.String(), e.Price.String(), extract.Clean(e.Article)
	if id == "" || price == "" || name == "" {
		return domain.Product{}, false
	}

	p := domain.Product{
		MarketType:  domain.MarketTypeNorma,
		Name:        name,
		Price:       extract.NormalizePrice(price),
		PriceBefore: extract.Amount(e.Info),
		Producer:    extract.Clean(e.Brand),
		Currency:    constants.Currency,
		ValidFrom:   unit.Window.Start,
		ValidTo:     unit.Window.End,
		UniqueID:    id,
	}
	p.UniqueIDInternal = extract.InternalID(id, p.Price)
	p.Quantity, _ = extract.First(extract.Value(extract.Clean(e.PerUnit)), extract.Value(extract.Clean(e.Contents)))
	if bp, bu, ok := extract.ParseBasePrice(e.BasePrice, extract.StripOne); ok {
		p.BasePrice, p.BasePriceUnit = bp, bu
	}
	if d, ok := week.ParseDate(e.Termin, unit.LastUpdate); ok {
		p.ValidFrom = d
	}

	return p, true
}

// Enrich reads the description from the product details view.
func (a *Adapter) Enrich(ctx context.Context, p domain.Product) domain.Product {
	regio, ok := a.regions.Load(p.UniqueID)
	if !ok || p.UniqueID == "" {
		return p
	}
	blocks, err := a.view(ctx, regio.(string), "productDetails&isIdentifier="+url.QueryEscape(p.UniqueID))
	if err != nil {
		logger.Debugf(ctx, "norma details %s: %v", p.UniqueID, err)
		return p
	}

	for _, b := range blocks {
		if b.Type != blockHTMLText {
			continue
		}
		var lines []string
		for _, line := range strings.Split(b.Text, "\n") {
			lines = append(lines, retailers.HTMLText(line))
		}
		if details := extract.Join(", ", lines...); details != "" {
			p.Description = details
		}
		break
	}
	return p
}
