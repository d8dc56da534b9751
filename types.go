package termit

import (
	"sort"

	"github.com/jward/termit/internal/store"
)

// Public type aliases for internal store types used in the Engine API.
// These are Go type aliases (=), identical to the internal types at compile
// time.

type Store = store.Store
type Workspace = store.Workspace
type StorageContext = store.Context
type ChangeRecord = store.ChangeRecord

// MultilingualString maps a language tag to a value.
type MultilingualString map[string]string

// Get returns the value in lang, or "" when absent.
func (m MultilingualString) Get(lang string) string {
	return m[lang]
}

// Languages returns the language tags present, sorted.
func (m MultilingualString) Languages() []string {
	out := make([]string, 0, len(m))
	for lang := range m {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}

func (m MultilingualString) clone() MultilingualString {
	if m == nil {
		return nil
	}
	out := make(MultilingualString, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// TermInfo is a lightweight reference to a term, used for relations and
// sub-term listings.
type TermInfo struct {
	URI        string
	Label      MultilingualString
	Vocabulary string
}

// Term is a SKOS concept as seen through a workspace.
type Term struct {
	URI          string
	Label        MultilingualString
	AltLabels    map[string][]string
	HiddenLabels map[string][]string
	Definition   MultilingualString
	Description  MultilingualString

	// Parents are broader terms in the same vocabulary; ExternalParents live
	// in other vocabularies. Both are stored as broader edges.
	Parents         []TermInfo
	ExternalParents []TermInfo
	ExactMatches    []TermInfo

	// InferredParents are broader terms asserted only in other contexts.
	// They are read-only: writes never store them.
	InferredParents []TermInfo

	// Derived from the relation index, never stored.
	SubTerms            []TermInfo
	InverseExactMatches []TermInfo

	Sources          []string
	Glossary         string
	DefinitionSource string
	Draft            bool
	Published        bool

	// Vocabulary routes writes to the vocabulary's context. It is never
	// stored, so reads leave it empty.
	Vocabulary string
}

// HasParentInSameVocabulary reports whether the term has an asserted parent
// inside its own vocabulary.
func (t *Term) HasParentInSameVocabulary() bool {
	return len(t.Parents) > 0
}

// Vocabulary is a SKOS concept scheme with its glossary and model.
type Vocabulary struct {
	URI         string
	Label       string
	Description string
	Glossary    string
	Model       string
	Document    string
	Imports     []string

	// Context is where the vocabulary was read from or written to.
	Context string
}
