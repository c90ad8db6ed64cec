package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePrice(t *testing.T) {
	tests := map[string]string{
		"10.-":           "10.00",
		"10,-":           "10,00",
		"-.99":           "0.99",
		"3,49":           "3,49",
		"1.99":           "1.99",
		"€ 1.99":         "1.99",
		"1.99 €*":        "1.99",
		"je 2.49*":       "2.49",
		"je1.99":         "1.99",
		"ab 1.00":        "1.00",
		"UVP 12.99":      "12.99",
		"statt 4.-":      "4.00",
		"jeweils 1.99":   "jeweils 1.99",
		"abgepackt 1.00": "abgepackt 1.00",
		"":               "",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			got := NormalizePrice(in)
			assert.Equal(t, want, got)
			assert.Equal(t, got, NormalizePrice(got), "normalizing twice changes %q", got)
		})
	}
}

func TestAmount(t *testing.T) {
	assert.Equal(t, "1.29", Amount("UVP 1.29"))
	assert.Equal(t, "4,00", Amount("statt 4,-"))
	assert.Empty(t, Amount("solange Vorrat reicht"))
	assert.Empty(t, Amount("jeweils 1.99"))
	assert.Empty(t, Amount("-"))
}

func TestIsAmount(t *testing.T) {
	assert.True(t, IsAmount("1.99"))
	assert.True(t, IsAmount("3,49"))
	assert.True(t, IsAmount("10"))
	assert.False(t, IsAmount(""))
	assert.False(t, IsAmount("RABATT"))
}
