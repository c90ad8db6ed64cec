package retailers

import (
	"bytes"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/bytedance/sonic"
	"github.com/ougirez/discounts/internal/pkg/extract"
	"golang.org/x/net/html"
)

// FlexString accepts JSON strings, numbers and booleans.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*f = ""
	case len(b) >= 2 && b[0] == '"':
		s, err := unquote(b)
		if err != nil {
			return err
		}
		*f = FlexString(s)
	default:
		*f = FlexString(b)
	}
	return nil
}

func (f FlexString) String() string {
	return strings.TrimSpace(string(f))
}

// OwnText returns the first direct child text node of the first selected
// element, the way retailers put the value before nested markup.
func OwnText(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	for c := sel.Get(0).FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			if t := extract.Clean(c.Data); t != "" {
				return t
			}
			continue
		}
		break
	}
	return ""
}

// Text is the cleaned text of the first selected element.
func Text(sel *goquery.Selection) string {
	return extract.Clean(sel.First().Text())
}

// Strings returns the cleaned non-empty text nodes below sel in document order.
func Strings(sel *goquery.Selection) []string {
	var out []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := extract.Clean(n.Data); t != "" {
				out = append(out, t)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return out
}

// HTMLText strips markup from an HTML fragment.
func HTMLText(fragment string) string {
	if !strings.Contains(fragment, "<") {
		return extract.Clean(fragment)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return extract.Clean(fragment)
	}
	return extract.Tidy(strings.Join(Strings(doc.Find("body")), " "))
}

// OnlineOnly reports whether href leaves the retailer's own site.
func OnlineOnly(href string) bool {
	return strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://")
}

// DateIn keeps the calendar date of t as midnight in loc.
func DateIn(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func unquote(b []byte) (string, error) {
	var s string
	if err := sonic.Unmarshal(b, &s); err != nil {
		return "", err
	}
	return s, nil
}
