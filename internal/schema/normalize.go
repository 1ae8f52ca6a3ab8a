// Schema normalization: mapping heterogeneous raw field names onto the
// canonical names the builders expect.
//
// Raw datasets are not always consistent about key spelling ("userId" vs
// "UserID", exported headers with diacritics, etc.). The Normalizer resolves
// a raw key in two steps: an exact match against its rename map, then a
// folded match (lowercased, diacritics stripped, snake-cased). Keys the
// pipeline does not model pass through unchanged; renaming is opt-in per
// field, never an error.
package schema

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalizer renames raw record keys to canonical field names.
type Normalizer struct {
	renames map[string]string // exact raw key → canonical
	folded  map[string]string // Fold(raw key) → canonical
}

// NewNormalizer builds a Normalizer from an explicit rename map. The map is
// additionally indexed by folded key so that case or diacritic variants of a
// known raw key still resolve.
func NewNormalizer(renames map[string]string) *Normalizer {
	n := &Normalizer{
		renames: make(map[string]string, len(renames)),
		folded:  make(map[string]string, len(renames)),
	}
	for raw, canonical := range renames {
		n.renames[raw] = canonical
		n.folded[Fold(raw)] = canonical
	}
	return n
}

// Rename resolves a single raw key to its canonical name. Unknown keys are
// returned unchanged.
func (n *Normalizer) Rename(key string) string {
	if n == nil {
		return key
	}
	if canonical, ok := n.renames[key]; ok {
		return canonical
	}
	if canonical, ok := n.folded[Fold(key)]; ok {
		return canonical
	}
	return key
}

// Fold canonicalizes a raw field name for lenient matching: Unicode
// decomposition, removal of combining marks, lowercasing, and collapsing of
// separator runs to single underscores. "Identifikační číslo" folds to
// "identifikacni_cislo"; "UserId" folds to "userid".
func Fold(s string) string {
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
	ascii, _, err := transform.String(t, s)
	if err != nil {
		ascii = s
	}
	ascii = strings.ToLower(ascii)

	var b strings.Builder
	prevUnderscore := false
	for _, r := range ascii {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevUnderscore = false
		case r == '_' || r == ' ' || r == '-' || r == '.':
			if !prevUnderscore {
				b.WriteRune('_')
				prevUnderscore = true
			}
		default:
			// drop anything else
		}
	}
	return strings.Trim(b.String(), "_")
}
