//go:build go1.18
// +build go1.18

package symexpr_test

import (
	"strings"
	"testing"
	"unicode"

	"github.com/gameticharles/symexpr"
)

func FuzzParse(f *testing.F) {
	f.Add("x")
	f.Add("2x + 1")
	f.Add("sin(x)^2 + cos(x)^2")
	f.Add("1/2x")
	f.Add("a ? b : c")
	f.Add("{a: [1, 2], b: m.k[0]}")
	f.Fuzz(func(t *testing.T, s string) {
		e, err := symexpr.Parse(strings.NewReader(s))
		if err != nil {
			return
		}
		// Whatever parses must render to something that parses again. Short
		// printable inputs only: rendering quotes unprintable runes with
		// escapes the grammar doesn't accept, and added brackets can push a
		// pathologically deep tree past the parser's depth limit.
		if len(s) > 128 {
			return
		}
		for _, r := range s {
			if !unicode.IsPrint(r) && !strings.ContainsRune(" \t\r\n", r) {
				return
			}
		}
		out := e.String()
		if _, err := symexpr.ParseString(out); err != nil {
			t.Errorf("%q parsed but its rendering %q does not: %v", s, out, err)
		}
	})
}
