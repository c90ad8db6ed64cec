package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrandsMatch(t *testing.T) {
	b := NewBrands("Milsani", "Milsani Bio", "Golden Seafood", "Gut Bio")

	got, ok := b.Match("Milsani Bio Joghurt")
	require.True(t, ok)
	assert.Equal(t, "Milsani Bio", got)

	got, ok = b.Match("GoldenSeafood Garnelen")
	require.True(t, ok)
	assert.Equal(t, "Golden Seafood", got)

	_, ok = b.Match("Unbekannt Brot")
	assert.False(t, ok)

	var empty *Brands
	_, ok = empty.Match("Milsani")
	assert.False(t, ok)
}

func TestBrandMap(t *testing.T) {
	m := NewBrandMap(map[string]string{
		"gut ponholz": "Gut Ponholz",
		"wolf echt gute wurst": "Wolf - echt gute Wurst",
	})
	m.Add("Ja_Säfte-Müller", "Müller")

	key := FileKey("https://cdn.example/img/Gut-Ponholz_Logo.png?w=80")
	assert.Equal(t, "gut ponholz logo", key)
	got, ok := m.Match(key)
	require.True(t, ok)
	assert.Equal(t, "Gut Ponholz", got)

	got, ok = m.Match(FileKey("/disturber/logo-wolf-echt-gute-wurst-2024.svg"))
	require.True(t, ok)
	assert.Equal(t, "Wolf - echt gute Wurst", got)

	got, ok = m.Match("JA SÄFTE MÜLLER")
	require.True(t, ok)
	assert.Equal(t, "Müller", got)

	_, ok = m.Match("deutschlandfahne")
	assert.False(t, ok)
	assert.Equal(t, 3, m.Len())
}

func TestContentHash(t *testing.T) {
	a := InternalID("4711", "1.99")
	b := InternalID("4711", "2.49")
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, InternalID("4711", "1.99"))
	assert.Len(t, ContentHash("x"), 12)
	assert.NotEqual(t, ContentHash("a", "bc"), ContentHash("ab", "c"))
}
