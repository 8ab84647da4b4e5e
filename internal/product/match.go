package product

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// MatchesName reports whether term occurs in the product name, ignoring case.
// Both sides are NFC normalized and case folded, so "MANZANA" matches
// "Manzana Roja" and precomposed and decomposed accents compare equal.
// A blank term matches nothing.
func (p Product) MatchesName(term string) bool {
	t := foldName(strings.TrimSpace(term))
	if t == "" {
		return false
	}
	return strings.Contains(foldName(p.name), t)
}

// cases.Caser keeps state, so a fresh one is made per call.
func foldName(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}
