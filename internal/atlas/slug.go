package atlas

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
)

const maxSlugBase = 60

var accentFold = strings.NewReplacer(
	"à", "a", "á", "a", "â", "a", "ã", "a", "ä", "a", "å", "a",
	"ç", "c", "è", "e", "é", "e", "ê", "e", "ë", "e",
	"ì", "i", "í", "i", "î", "i", "ï", "i", "ñ", "n",
	"ò", "o", "ó", "o", "ô", "o", "õ", "o", "ö", "o", "ø", "o",
	"ù", "u", "ú", "u", "û", "u", "ü", "u", "ý", "y", "ÿ", "y",
	"ß", "ss", "æ", "ae", "œ", "oe",
)

// Slugify lower-cases title and joins its ASCII words with hyphens.
func Slugify(title string) string {
	s := accentFold.Replace(strings.ToLower(title))
	var b strings.Builder
	dash := false
	for _, r := range s {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.Trim(b.String(), "-")
	if len(out) > maxSlugBase {
		out = strings.TrimRight(out[:maxSlugBase], "-")
	}
	if out == "" {
		out = "atlas"
	}
	return out
}

// NewSlug is Slugify(title) plus an 8 hex character suffix.
func NewSlug(title string) string {
	return Slugify(title) + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
