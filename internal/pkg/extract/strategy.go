package extract

import "strings"

// Strategy yields one candidate value for a field.
type Strategy func() (string, bool)

// First returns the value of the first strategy that produced one.
func First(strategies ...Strategy) (string, bool) {
	for _, s := range strategies {
		if s == nil {
			continue
		}
		if v, ok := s(); ok {
			return v, true
		}
	}
	return "", false
}

// Value is a strategy over an already extracted string. Blank means absent.
func Value(s string) Strategy {
	return func() (string, bool) {
		s = strings.TrimSpace(s)
		return s, s != ""
	}
}
