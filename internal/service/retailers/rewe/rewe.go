// Package rewe reads the weekly offers of one Rewe market from the mobile
// app API. The API requires a client certificate.
package rewe

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ougirez/discounts/internal/domain"
	"github.com/ougirez/discounts/internal/pkg/constants"
	"github.com/ougirez/discounts/internal/pkg/extract"
	"github.com/ougirez/discounts/internal/pkg/fetch"
	"github.com/ougirez/discounts/internal/pkg/week"
	"github.com/ougirez/discounts/internal/service/retailers"
)

const detailsHeader = "Produktdetails"

var quantityRe = regexp.MustCompile(`(je\b[^(]*?)(?:\s?,\s|\.\s|\s*\(|$)`)

type offer struct {
	Title     string `json:"title"`
	Subtitle  string `json:"subtitle"`
	PriceData struct {
		Price string `json:"price"`
	} `json:"priceData"`
	Detail struct {
		Contents []struct {
			Header string   `json:"header"`
			Titles []string `json:"titles"`
		} `json:"contents"`
		PitchIn string `json:"pitchIn"`
	} `json:"detail"`
}

type response struct {
	Data *struct {
		Offers *struct {
			UntilDate  int64 `json:"untilDate"`
			Categories []struct {
				Title  string  `json:"title"`
				Offers []offer `json:"offers"`
			} `json:"categories"`
		} `json:"offers"`
	} `json:"data"`
}

type Adapter struct {
	retailers.ByDirectory
	client  *fetch.Client
	baseURL string
}

func New(client *fetch.Client, baseURL string) *Adapter {
	return &Adapter{
		ByDirectory: retailers.ByDirectory(domain.MarketTypeRewe),
		client:      client,
		baseURL:     strings.TrimSuffix(baseURL, "/"),
	}
}

// Prepare fails when no client certificate was loaded.
func (a *Adapter) Prepare(context.Context) error {
	if !a.client.HasClientCertificate() {
		return fmt.Errorf("rewe client certificate: %w", constants.ErrCredentials)
	}
	return nil
}

func (a *Adapter) FetchAndParse(ctx context.Context, unit domain.WorkUnit) ([]domain.Product, error) {
	var resp response
	err := a.client.JSON(ctx, a.baseURL+"/api/stationary-app-offers/"+unit.ID, &resp,
		fetch.Header("rdfa", uuid.NewString()),
		fetch.Header("Correlation-Id", uuid.NewString()),
		fetch.Header("rd-service-types", "UNKNOWN"),
		fetch.Header("rd-is-lsfk", "false"),
		fetch.Header("rd-customer-zip", ""),
		fetch.Header("rd-postcode", ""),
		fetch.Header("rd-market-id", unit.ID),
	)
	if err != nil {
		return nil, retailers.NoData(fmt.Errorf("client.JSON: %w", err))
	}
	if resp.Data == nil || resp.Data.Offers == nil {
		return nil, retailers.NoData(fmt.Errorf("market %s: no offers in response", unit.ID))
	}

	loc := unit.Window.Start.Location()
	validFrom, validTo := unit.Window.Start, unit.Window.End
	if until := resp.Data.Offers.UntilDate; until > 0 {
		validTo = week.Date(time.UnixMilli(until).In(loc))
		validFrom = week.MondayOf(validTo)
	}

	var products []domain.Product
	for _, c := range resp.Data.Offers.Categories {
		if strings.Contains(strings.ToUpper(c.Title), "PAYBACK") {
			continue
		}
		for _, o := range c.Offers {
			if strings.TrimSpace(o.Title) == "" {
				continue
			}
			products = append(products, parseOffer(o, validFrom, validTo))
		}
	}

	return products, nil
}

func parseOffer(o offer, validFrom, validTo time.Time) domain.Product {
	p := domain.Product{
		MarketType: domain.MarketTypeRewe,
		Name:       extract.Clean(o.Title),
		Price:      extract.NormalizePrice(o.PriceData.Price),
		Currency:   constants.Currency,
		ValidFrom:  validFrom,
		ValidTo:    validTo,
	}

	text := extract.NewText(o.Subtitle)
	if price, unit, ok := extract.ClaimBasePrice(text, extract.StripOne); ok {
		p.BasePrice, p.BasePriceUnit = price, unit
	}
	if m, ok := text.Claim(quantityRe, 1); ok {
		p.Quantity = extract.Tidy(m[1])
	}
	p.Description = extract.Join(", ", text.Remainder(), extract.Clean(o.Detail.PitchIn))

	for _, content := range o.Detail.Contents {
		if content.Header != detailsHeader {
			continue
		}
		for _, line := range content.Titles {
			line = extract.Clean(line)
			switch {
			case strings.HasPrefix(line, "Art.-Nr.:"):
				p.UniqueID = strings.TrimSpace(strings.TrimPrefix(line, "Art.-Nr.:"))
			case strings.HasPrefix(line, "Hersteller:"):
				p.Producer = strings.TrimSpace(strings.TrimPrefix(line, "Hersteller:"))
			case strings.HasPrefix(line, "Herkunft:"):
				p.Origin = strings.TrimSpace(strings.TrimPrefix(line, "Herkunft:"))
			}
		}
	}

	p.UniqueIDInternal = extract.InternalID(p.UniqueID, p.Price, p.Description, extract.DatePart(p.ValidTo))
	return p
}
