package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

var (
	pricePrefixes = []string{"€", "EUR", "UVP", "uvp", "statt", "je", "ab"}
	priceSuffixes = []string{"*", "€", "EUR"}
)

// NormalizePrice strips currency marks and marketing prefixes and expands
// placeholder endings ("10.-" -> "10.00", "-.99" -> "0.99"). The decimal
// separator is kept as found. Applying it twice yields the same string.
func NormalizePrice(raw string) string {
	s := Clean(raw)
	for {
		before := s
		for _, p := range pricePrefixes {
			if hasWordPrefix(s, p) {
				s = strings.TrimSpace(strings.TrimPrefix(s, p))
			}
		}
		for _, p := range priceSuffixes {
			if strings.HasSuffix(s, p) {
				s = strings.TrimSpace(strings.TrimSuffix(s, p))
			}
		}
		if s == before {
			break
		}
	}

	switch {
	case strings.HasSuffix(s, ".-"), strings.HasSuffix(s, ",-"):
		s = s[:len(s)-1] + "00"
	case strings.HasSuffix(s, ".\u2013"), strings.HasSuffix(s, ",\u2013"):
		s = strings.TrimSuffix(s, "\u2013") + "00"
	}
	switch {
	case strings.HasPrefix(s, "-."), strings.HasPrefix(s, "-,"):
		s = "0" + s[1:]
	}

	return s
}

// Amount normalizes raw and returns it only when the result is a number.
func Amount(raw string) string {
	if s := NormalizePrice(raw); IsAmount(s) {
		return s
	}
	return ""
}

// hasWordPrefix reports whether s starts with p and a letter prefix is not
// the beginning of a longer word ("jeweils", "abgepackt").
func hasWordPrefix(s, p string) bool {
	if !strings.HasPrefix(s, p) {
		return false
	}
	rest := s[len(p):]
	if rest == "" || !unicode.IsLetter([]rune(p)[0]) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(rest)
	return unicode.IsSpace(r) || unicode.IsDigit(r) || r == '-' || r == '.' || r == ','
}

// IsAmount reports whether s is a plain decimal number with either separator.
func IsAmount(s string) bool {
	if s == "" {
		return false
	}
	_, err := decimal.NewFromString(strings.Replace(s, ",", ".", 1))
	return err == nil
}
