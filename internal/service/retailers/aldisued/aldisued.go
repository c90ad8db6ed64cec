// Package aldisued reads the weekly offers of Aldi Süd. Whole-week promotions
// live on a few fixed pages, partial-week offers on one page per start day.
package aldisued

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ougirez/discounts/internal/domain"
	"github.com/ougirez/discounts/internal/pkg/constants"
	"github.com/ougirez/discounts/internal/pkg/extract"
	"github.com/ougirez/discounts/internal/pkg/fetch"
	"github.com/ougirez/discounts/internal/pkg/logger"
	"github.com/ougirez/discounts/internal/pkg/week"
	"github.com/ougirez/discounts/internal/service/retailers"
	"golang.org/x/net/html"
)

const indexPath = "/de/angebote.html"

var (
	wholeWeekPaths = []string{
		"/de/angebote/frischekracher.html",
		"/de/angebote/preisaktion.html",
		"/de/angebote/markenaktion-der-woche.html",
	}

	dayPageRe    = regexp.MustCompile(`/de/angebote/d\.(\d{1,2})-(\d{1,2})-(\d{4})\.html`)
	brandCountRe = regexp.MustCompile(`^(.+?)\s*\(\d+\)$`)
	articleIDRe  = regexp.MustCompile(`(\d+)\.html`)

	// Monday, Thursday, Friday and Saturday carry their own offer pages.
	startDays = []int{0, 3, 4, 5}
)

const minDayPages = 4

type Adapter struct {
	retailers.ByDirectory
	client  *fetch.Client
	baseURL string
}

func New(client *fetch.Client, baseURL string) *Adapter {
	return &Adapter{
		ByDirectory: retailers.ByDirectory(domain.MarketTypeAldiSued),
		client:      client,
		baseURL:     strings.TrimSuffix(baseURL, "/"),
	}
}

type dayPage struct {
	url  string
	date time.Time
}

func (a *Adapter) FetchAndParse(ctx context.Context, unit domain.WorkUnit) ([]domain.Product, error) {
	var (
		products []domain.Product
		pages    int
	)

	for _, path := range wholeWeekPaths {
		doc, err := a.client.Document(ctx, a.baseURL+path)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// promotion pages are only published in some weeks
			if fetch.IsStatus(err, http.StatusNotFound) {
				logger.Debugf(ctx, "aldi_sued %s: not published", path)
			} else {
				logger.Warnf(ctx, "aldi_sued %s: %v", path, err)
			}
			continue
		}
		pages++
		products = append(products, a.parseWholeWeek(doc, unit)...)
	}

	for _, page := range a.dayPages(ctx, unit) {
		doc, err := a.client.Document(ctx, page.url)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warnf(ctx, "aldi_sued %s: %v", page.url, err)
			continue
		}
		pages++
		products = append(products, a.parseDayPage(ctx, doc, page.date)...)
	}

	if pages == 0 {
		return nil, retailers.NoData(fmt.Errorf("no offer page could be read"))
	}
	return products, nil
}

// dayPages lists the partial-week pages starting inside the window. When the
// index page is unreadable or lists too few of them the missing usual start
// days are added.
func (a *Adapter) dayPages(ctx context.Context, unit domain.WorkUnit) []dayPage {
	var pages []dayPage
	seen := make(map[string]struct{})

	doc, err := a.client.Document(ctx, a.baseURL+indexPath)
	if err != nil {
		logger.Warnf(ctx, "aldi_sued %s: %v", indexPath, err)
	} else {
		doc.Find("div#subMenu-1 a[href]").Each(func(_ int, s *goquery.Selection) {
			href := s.AttrOr("href", "")
			m := dayPageRe.FindStringSubmatch(href)
			if m == nil {
				return
			}
			date, ok := pageDate(m, unit.Window.Start.Location())
			if !ok || !unit.Window.Contains(date) {
				return
			}
			u := href
			if !retailers.OnlineOnly(u) {
				u = a.baseURL + href
			}
			if _, dup := seen[u]; dup {
				return
			}
			seen[u] = struct{}{}
			pages = append(pages, dayPage{url: u, date: date})
		})
	}

	if len(pages) >= minDayPages {
		return pages
	}

	have := make(map[string]struct{}, len(pages))
	for _, page := range pages {
		have[page.date.Format(time.DateOnly)] = struct{}{}
	}
	for _, offset := range startDays {
		date := unit.Window.Day(offset)
		if _, ok := have[date.Format(time.DateOnly)]; ok {
			continue
		}
		pages = append(pages, dayPage{
			url:  fmt.Sprintf("%s/de/angebote/d.%s.html", a.baseURL, date.Format("02-01-2006")),
			date: date,
		})
	}
	slices.SortStableFunc(pages, func(x, y dayPage) int { return x.date.Compare(y.date) })
	return pages
}

func pageDate(m []string, loc *time.Location) (time.Time, bool) {
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}

// parseWholeWeek reads every offer figure together with the closest preceding
// text that names a date range ("15.07. - 20.07.").
func (a *Adapter) parseWholeWeek(doc *goquery.Document, unit domain.WorkUnit) []domain.Product {
	var products []domain.Product
	var dates []time.Time

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if found := week.ParseDates(n.Data, unit.LastUpdate); len(found) == 2 {
				dates = found
			}
			return
		case html.ElementNode:
			if n.Data == "figure" {
				if p, ok := parseFigure(goquery.NewDocumentFromNode(n).Selection, dates, unit.Window); ok {
					products = append(products, p)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range doc.Nodes {
		walk(n)
	}

	return products
}

func parseFigure(fig *goquery.Selection, dates []time.Time, w week.Window) (domain.Product, bool) {
	img := fig.Find("img[data-src]").First()
	caption := fig.Find("figcaption").First()
	if img.Length() == 0 || caption.Length() == 0 {
		return domain.Product{}, false
	}

	p := domain.Product{
		MarketType: domain.MarketTypeAldiSued,
		Currency:   constants.Currency,
		ValidFrom:  w.Start,
		ValidTo:    w.End,
	}
	if len(dates) == 2 {
		if !w.Contains(dates[0]) {
			return domain.Product{}, false
		}
		p.ValidFrom, p.ValidTo = dates[0], dates[1]
	}

	p.Name = retailers.OwnText(caption.Find("h3"))
	p.UniqueID = img.AttrOr("data-asset-id", "")
	p.UniqueIDInternal = p.UniqueID

	paragraphs := caption.Find("p")
	switch paragraphs.Length() {
	case 5:
		p.Producer = retailers.Text(paragraphs.Eq(3))
		p.Description = strings.Join(retailers.Strings(paragraphs.Eq(4)), " ")
	case 4:
		p.Description = strings.Join(retailers.Strings(paragraphs.Eq(3)), " ")
	}
	if paragraphs.Length() >= 4 {
		priceTag := paragraphs.Eq(2)
		p.Price = extract.NormalizePrice(retailers.OwnText(priceTag))
		p.PriceBefore = extract.Amount(retailers.Text(priceTag.Find("s")))
	}

	if c := extract.ParseCompound(p.Description, extract.StripOne); c.BasePrice != "" {
		p.Quantity, p.BasePrice, p.BasePriceUnit, p.Description = c.Quantity, c.BasePrice, c.BasePriceUnit, c.Rest
	}

	return p, true
}

func (a *Adapter) parseDayPage(ctx context.Context, doc *goquery.Document, date time.Time) []domain.Product {
	var names []string
	doc.Find("#filter-list-brandName label").Each(func(_ int, s *goquery.Selection) {
		if m := brandCountRe.FindStringSubmatch(strings.Join(retailers.Strings(s), "")); m != nil {
			names = append(names, m[1])
		}
	})
	brands := extract.NewBrands(names...)

	var products []domain.Product
	doc.Find("div#plpProducts article.wrapper").Each(func(_ int, s *goquery.Selection) {
		if p, ok := a.parseArticle(ctx, s, brands, date); ok {
			products = append(products, p)
		}
	})
	return products
}

func (a *Adapter) parseArticle(ctx context.Context, article *goquery.Selection, brands *extract.Brands, date time.Time) (domain.Product, bool) {
	p := domain.Product{
		MarketType: domain.MarketTypeAldiSued,
		Currency:   constants.Currency,
		ValidFrom:  date,
		ValidTo:    week.SaturdayOf(date),
	}

	link := article.Find("a[href]").First()
	if href, ok := link.Attr("href"); ok {
		if retailers.OnlineOnly(href) {
			return domain.Product{}, false
		}
		p.Link = a.baseURL + href
		if m := articleIDRe.FindStringSubmatch(href); m != nil {
			p.UniqueID = m[1]
			p.UniqueIDInternal = m[1]
		}
	} else {
		logger.Debugf(ctx, "aldi_sued article without link")
	}

	p.Name = retailers.Text(article.Find("h2"))
	p.Producer, _ = brands.Match(p.Name)

	var info []string
	article.Find("span").Each(func(_ int, s *goquery.Selection) {
		class := s.AttrOr("class", "")
		switch {
		case strings.Contains(class, "at-product-price_lbl") && s.HasClass("price"):
			p.Price = extract.NormalizePrice(retailers.Text(s))
		case strings.Contains(s.AttrOr("id", ""), "uvp-plp"):
			p.PriceBefore = extract.Amount(retailers.Text(s))
		case s.HasClass("additional-product-info"):
			info = append(info, retailers.Strings(s)...)
		}
	})

	c := extract.ParseCompound(strings.Join(info, " "), extract.StripOne)
	p.Quantity, p.BasePrice, p.BasePriceUnit = c.Quantity, c.BasePrice, c.BasePriceUnit
	p.BasePriceUnit = strings.TrimSpace(strings.TrimSuffix(p.BasePriceUnit, constants.Currency))

	return p, true
}

// Enrich replaces the description with the info box of the detail page.
func (a *Adapter) Enrich(ctx context.Context, p domain.Product) domain.Product {
	if p.Link == "" {
		return p
	}
	doc, err := a.client.Document(ctx, p.Link)
	if err != nil {
		logger.Debugf(ctx, "aldi_sued details %s: %v", p.Link, err)
		return p
	}

	var parts []string
	for _, s := range retailers.Strings(doc.Find("div.infobox")) {
		if s != "Zum Garantieportal" {
			parts = append(parts, s)
		}
	}
	if details := extract.Join(", ", parts...); details != "" {
		p.Description = details
	}
	return p
}
