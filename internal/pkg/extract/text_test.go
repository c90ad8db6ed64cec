package extract

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	quantityTestRe = regexp.MustCompile(`(je [^,(]*?)\s*(?:,|\(|$)`)
	regionTestRe   = regexp.MustCompile(`aus der Region`)
)

func TestTextClaims(t *testing.T) {
	text := NewText("Frisch, je 500 g, aus der Region")

	_, ok := text.Claim(regionTestRe, 0)
	assert.True(t, ok)
	_, ok = text.Claim(regionTestRe, 0)
	assert.False(t, ok, "span claimed twice")

	m, ok := text.Claim(quantityTestRe, 1)
	assert.True(t, ok)
	assert.Equal(t, "je 500 g", m[1])

	assert.Equal(t, "Frisch", text.Remainder())
	assert.Equal(t, "Frisch, je 500 g, aus der Region", text.Raw())
}

func TestClean(t *testing.T) {
	assert.Equal(t, "Bio Vollmilch 3,8 %", Clean("Bio\u00a0Voll\u00admilch\n 3,8 %\r"))
	assert.Equal(t, "a, b", Join(", ", "a", " ", "b"))
	assert.Equal(t, "Frisch, lecker", Tidy(" , Frisch ,, lecker. "))
}

func TestFirst(t *testing.T) {
	calls := 0
	fixed := func(v string) Strategy {
		return func() (string, bool) {
			calls++
			return v, v != ""
		}
	}

	got, ok := First(fixed(""), fixed("explicit"), fixed("never"))
	assert.True(t, ok)
	assert.Equal(t, "explicit", got)
	assert.Equal(t, 2, calls)

	_, ok = First(Value("  "), nil)
	assert.False(t, ok)
}
