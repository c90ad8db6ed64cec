package extract

import (
	"regexp"
	"strings"
)

// UnitStyle decides how a counted base-price unit like "1 kg" is stored.
type UnitStyle int

const (
	// StripOne turns "1 kg" into "kg" and keeps other counts ("100 g").
	StripOne UnitStyle = iota
	// KeepCount stores the unit as written.
	KeepCount
)

var (
	baseEqRe    = regexp.MustCompile(`\(\s*([^()=]*?)\s*=\s*([^()]*?)\s*\)`)
	baseJeRe    = regexp.MustCompile(`\(\s*([^()]*?)\s*\bje\s+([^()]*?)\s*\)`)
	bareEqRe    = regexp.MustCompile(`^\s*(\d[^=]*?)\s*=\s*(.+?)\s*$`)
	slashUnitRe = regexp.MustCompile(`^\s*([\d.,\-–]+)\s*(?:€|EUR)?\s*/\s*(.+?)\s*$`)
	leadingOne  = regexp.MustCompile(`^1\s*([^\d.,\s].*)$`)
)

func (s UnitStyle) unit(raw string) string {
	raw = strings.TrimSpace(raw)
	if s == StripOne {
		if m := leadingOne.FindStringSubmatch(raw); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return raw
}

// Compound is the result of splitting "<quantity> (<n> <unit> = <price>)".
type Compound struct {
	Quantity      string
	BasePrice     string
	BasePriceUnit string
	// Rest is whatever followed the parenthesised base price.
	Rest string
}

// ParseCompound splits marketing text such as "je 250 g (1 kg = 1.76)" or
// "500 g (1 kg je 3.98)". Without a parenthesised base price the whole text is
// the quantity.
func ParseCompound(text string, style UnitStyle) Compound {
	text = Clean(text)
	for _, re := range []*regexp.Regexp{baseEqRe, baseJeRe} {
		idx := re.FindStringSubmatchIndex(text)
		if idx == nil {
			continue
		}
		return Compound{
			Quantity:      Tidy(text[:idx[0]]),
			BasePriceUnit: style.unit(text[idx[2]:idx[3]]),
			BasePrice:     NormalizePrice(text[idx[4]:idx[5]]),
			Rest:          Tidy(text[idx[1]:]),
		}
	}
	return Compound{Quantity: text}
}

// ClaimBasePrice claims the first parenthesised base price of t.
func ClaimBasePrice(t *Text, style UnitStyle) (price, unit string, ok bool) {
	for _, re := range []*regexp.Regexp{baseEqRe, baseJeRe} {
		if m, found := t.Claim(re, 0); found {
			return NormalizePrice(m[2]), style.unit(m[1]), true
		}
	}
	return "", "", false
}

// ParseBasePrice reads a standalone base price: "(1 kg = 1.76)", "1 kg = 1.76",
// "(1 kg je 1.76)" or "1.76/kg".
func ParseBasePrice(text string, style UnitStyle) (price, unit string, ok bool) {
	text = Clean(text)
	if text == "" {
		return "", "", false
	}
	if price, unit, ok = ClaimBasePrice(NewText(text), style); ok {
		return price, unit, true
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(text, "("), ")")
	if m := bareEqRe.FindStringSubmatch(inner); m != nil {
		return NormalizePrice(m[2]), style.unit(m[1]), true
	}
	if m := slashUnitRe.FindStringSubmatch(inner); m != nil {
		return NormalizePrice(m[1]), style.unit(m[2]), true
	}
	return "", "", false
}
