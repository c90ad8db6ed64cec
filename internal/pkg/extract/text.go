package extract

import (
	"regexp"
	"sort"
	"strings"
)

type span struct{ start, end int }

// Text is a source string from which components are claimed one by one. The
// remainder never contains a claimed span.
type Text struct {
	raw     string
	claimed []span
}

func NewText(s string) *Text {
	return &Text{raw: Clean(s)}
}

func (t *Text) Raw() string {
	return t.raw
}

func (t *Text) free(start, end int) bool {
	for _, c := range t.claimed {
		if start < c.end && c.start < end {
			return false
		}
	}
	return true
}

// Claim finds the first match of re not overlapping an earlier claim, claims
// the span of group claimGroup and returns all submatches.
func (t *Text) Claim(re *regexp.Regexp, claimGroup int) ([]string, bool) {
	for _, idx := range re.FindAllStringSubmatchIndex(t.raw, -1) {
		if len(idx) <= 2*claimGroup+1 || idx[2*claimGroup] < 0 {
			continue
		}
		start, end := idx[2*claimGroup], idx[2*claimGroup+1]
		if start == end || !t.free(start, end) {
			continue
		}
		groups := make([]string, 0, len(idx)/2)
		for i := 0; i < len(idx); i += 2 {
			if idx[i] < 0 {
				groups = append(groups, "")
				continue
			}
			groups = append(groups, t.raw[idx[i]:idx[i+1]])
		}
		t.claimed = append(t.claimed, span{start, end})
		return groups, true
	}
	return nil, false
}

// Remainder is the text with every claimed span removed.
func (t *Text) Remainder() string {
	spans := append([]span(nil), t.claimed...)
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	var b strings.Builder
	pos := 0
	for _, s := range spans {
		b.WriteString(t.raw[pos:s.start])
		b.WriteByte(' ')
		pos = s.end
	}
	b.WriteString(t.raw[pos:])

	return Tidy(b.String())
}
