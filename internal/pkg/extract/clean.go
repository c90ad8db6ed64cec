// Package extract holds the normalization helpers shared by every retailer adapter.
package extract

import "strings"

var cleaner = strings.NewReplacer(
	"\u00a0", " ",
	"\u00ad", "",
	"\r", "",
	"\n", " ",
	"\t", " ",
)

// Clean removes soft hyphens, turns non-breaking spaces and line breaks into
// spaces and collapses runs of whitespace.
func Clean(s string) string {
	return strings.Join(strings.Fields(cleaner.Replace(s)), " ")
}

// Join concatenates the non-empty parts with sep.
func Join(sep string, parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}

// Tidy trims separators left at the edges after parts of a text were cut out.
func Tidy(s string) string {
	s = Clean(s)
	s = strings.ReplaceAll(s, " ,", ",")
	s = strings.ReplaceAll(s, " .", ".")
	for strings.Contains(s, ",,") {
		s = strings.ReplaceAll(s, ",,", ",")
	}
	s = strings.ReplaceAll(s, ".,", ",")
	return strings.Trim(s, " ,.;|")
}
