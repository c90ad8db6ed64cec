package extract

import (
	"path"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Brands resolves a producer from a product name by longest known prefix.
type Brands struct {
	names []string
}

func NewBrands(names ...string) *Brands {
	seen := make(map[string]struct{}, len(names))
	b := &Brands{}
	for _, n := range names {
		n = Clean(n)
		if _, ok := seen[n]; ok || n == "" {
			continue
		}
		seen[n] = struct{}{}
		b.names = append(b.names, n)
	}
	sort.SliceStable(b.names, func(i, j int) bool { return len(b.names[i]) > len(b.names[j]) })
	return b
}

func (b *Brands) Len() int {
	if b == nil {
		return 0
	}
	return len(b.names)
}

// Match tries every brand literally and with its spaces removed.
func (b *Brands) Match(name string) (string, bool) {
	if b == nil {
		return "", false
	}
	name = Clean(name)
	for _, brand := range b.names {
		if strings.HasPrefix(name, brand) || strings.HasPrefix(name, strings.ReplaceAll(brand, " ", "")) {
			return brand, true
		}
	}
	return "", false
}

// BrandMap maps normalized slug keys ("gut ponholz") to display names. It is
// built once per run and only read afterwards.
type BrandMap struct {
	brands map[string]string
}

func NewBrandMap(seed map[string]string) *BrandMap {
	m := &BrandMap{brands: make(map[string]string, len(seed))}
	for k, v := range seed {
		m.Add(k, v)
	}
	return m
}

// BrandKey lower-cases s and turns dashes and underscores into spaces.
func BrandKey(s string) string {
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	return strings.Join(strings.Fields(cases.Lower(language.German).String(s)), " ")
}

// FileKey turns an image URL into a brand key: last path element without extension.
func FileKey(u string) string {
	u, _, _ = strings.Cut(u, "?")
	base := path.Base(u)
	if ext := path.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return BrandKey(base)
}

func (m *BrandMap) Add(key, name string) {
	key = BrandKey(key)
	if key == "" || strings.TrimSpace(name) == "" {
		return
	}
	m.brands[key] = strings.TrimSpace(name)
}

func (m *BrandMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.brands)
}

// Match looks up every token window of key, leftmost and longest first.
func (m *BrandMap) Match(key string) (string, bool) {
	if m == nil {
		return "", false
	}
	tokens := strings.Fields(BrandKey(key))
	for start := 0; start < len(tokens); start++ {
		for end := len(tokens); end > start; end-- {
			if v, ok := m.brands[strings.Join(tokens[start:end], " ")]; ok {
				return v, true
			}
		}
	}
	return "", false
}
