// Package translit provides a best-effort romanization of institution names.
// It covers Latin-script names with diacritics; names in scripts it cannot
// fold to ASCII are reported as unsupported so the caller can drop the field
// with a warning instead of failing the record.
package translit

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// German umlauts and sharp s have conventional ASCII spellings that plain
// mark-stripping would get wrong.
var germanReplacer = strings.NewReplacer(
	"ä", "ae", "Ä", "Ae",
	"ö", "oe", "Ö", "Oe",
	"ü", "ue", "Ü", "Ue",
	"ß", "ss",
)

// Romanize transliterates name according to the two-letter language pair of a
// "*xx" directive. It returns an error when the name cannot be represented in
// ASCII, which callers treat as "capability unavailable".
func Romanize(name, langPair string) (string, error) {
	s := name
	if strings.EqualFold(langPair, "de") {
		s = germanReplacer.Replace(s)
	}

	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		return "", fmt.Errorf("transliteration to [%s] failed: %w", langPair, err)
	}

	for _, r := range folded {
		if r > unicode.MaxASCII {
			return "", fmt.Errorf("transliteration to [%s] not supported for [%s]", langPair, name)
		}
	}
	return folded, nil
}
