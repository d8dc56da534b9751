package store

import "time"

// Partition rows

type Workspace struct {
	URI         string
	Label       string
	Description string
}

// Context is a named graph. Vocabulary is set when the context holds a
// vocabulary's data; BasedOnVersion is set when it is a working copy of a
// canonical context.
type Context struct {
	URI                   string
	Vocabulary            *string
	BasedOnVersion        *string
	ChangeTrackingContext *string
}

// Vocabulary rows

type Vocabulary struct {
	URI         string
	Context     string
	Label       string
	Description string
	Glossary    string
	Model       string
	Document    *string
	Imports     []string
}

// Term rows

// Literal property names stored in term_literals.
const (
	PropPrefLabel   = "prefLabel"
	PropAltLabel    = "altLabel"
	PropHiddenLabel = "hiddenLabel"
	PropDefinition  = "definition"
	PropDescription = "description"
)

// Relation predicates stored in term_relations.
const (
	PredBroader    = "broader"
	PredExactMatch = "exactMatch"
)

type Term struct {
	URI              string
	Context          string
	Glossary         *string
	DefinitionSource *string
	Draft            bool
}

type Literal struct {
	Property string
	Lang     string
	Value    string
}

type Relation struct {
	Predicate string
	Object    string
}

// TermData is everything a term asserts inside one context.
type TermData struct {
	Term       Term
	Literals   []Literal
	Relations  []Relation
	Sources    []string
	TopConcept bool
}

// TermRow is a listing row: one term, the context it was found in, its
// preferred label in the requested language and its inferred vocabulary.
type TermRow struct {
	URI        string
	Context    string
	Label      string
	Glossary   string
	Vocabulary string
}

// LabelRow is one preferred label of a term in one context.
type LabelRow struct {
	Term       string
	Context    string
	Lang       string
	Value      string
	Vocabulary string
}

// TermFilter scopes listing and counting queries.
type TermFilter struct {
	Contexts          []string // required; no contexts means no rows
	Lang              string   // preferred label language; required
	RootsOnly         bool     // only glossary top concepts
	Search            string   // case-insensitive substring of the label
	Glossary          string   // restrict to one glossary
	ExcludeVocabulary string   // drop terms of this vocabulary
	ShadowContexts    []string // drop terms also stored in any of these
}

// Change tracking rows

type ChangeRecord struct {
	ID            string
	Context       string
	ChangedEntity string
	Author        string
	Kind          string
	Attribute     string
	RecordedAt    time.Time
}
