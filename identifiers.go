package termit

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// IdentifierGenerator builds resource identifiers from labels.
type IdentifierGenerator struct {
	vocabularyNamespace string
	termSeparator       string
}

// NewIdentifierGenerator returns a generator. vocabularyNamespace prefixes
// new vocabulary identifiers; termSeparator joins a vocabulary identifier
// and a term slug.
func NewIdentifierGenerator(vocabularyNamespace, termSeparator string) *IdentifierGenerator {
	return &IdentifierGenerator{vocabularyNamespace: vocabularyNamespace, termSeparator: termSeparator}
}

// VocabularyIdentifier returns namespace + slug(label).
func (g *IdentifierGenerator) VocabularyIdentifier(label string) string {
	return joinIdentifier(g.vocabularyNamespace, Slug(label))
}

// TermIdentifier returns vocabulary + separator + "/" + slug(label).
func (g *IdentifierGenerator) TermIdentifier(vocabulary, label string) string {
	return joinIdentifier(strings.TrimRight(vocabulary, "/")+g.termSeparator, Slug(label))
}

// ComponentIdentifier returns an identifier for a vocabulary component such
// as its glossary or model. A random suffix keeps it unique across
// versions of the vocabulary.
func (g *IdentifierGenerator) ComponentIdentifier(vocabulary, component string) string {
	return joinIdentifier(strings.TrimRight(vocabulary, "/")+"/"+component, uuid.NewString())
}

func joinIdentifier(prefix, local string) string {
	if strings.HasSuffix(prefix, "/") || strings.HasSuffix(prefix, "#") {
		return prefix + local
	}
	return prefix + "/" + local
}

// Slug normalizes a label for use in an identifier: diacritics are removed,
// letters lower-cased and every run of other characters becomes one "-".
func Slug(label string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(t, label)
	if err != nil {
		plain = label
	}
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(plain) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
