package normalize

import (
	"math/big"
	"strings"
)

// maxFractionDigits bounds the search for the shortest exact decimal form.
const maxFractionDigits = 64

// canonicalNumber returns the shortest exact decimal form of v, so that
// "-2.300", "-2.3" and "-23e-1" all become "-2.3".
func canonicalNumber(v string) (string, bool) {
	s := strings.TrimPrefix(strings.TrimSpace(v), "+")
	if s == "" || strings.ContainsRune(s, '/') {
		return "", false
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return "", false
	}
	if r.IsInt() {
		return r.Num().String(), true
	}
	for digits := 1; digits <= maxFractionDigits; digits++ {
		out := r.FloatString(digits)
		back, ok := new(big.Rat).SetString(out)
		if ok && back.Cmp(r) == 0 {
			return out, true
		}
	}
	return r.RatString(), true
}

func canonicalBool(v string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "t", "yes", "on", "b'1'":
		return "1", true
	case "0", "false", "f", "no", "off", "b'0'":
		return "0", true
	}
	return "", false
}
