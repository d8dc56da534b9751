package main

import (
	"sort"

	"github.com/jward/termit"
)

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command    string `json:"command"`
	Workspace  string `json:"workspace,omitempty"`
	Results    any    `json:"results"`
	TotalCount *int   `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CLIMessage is a plain acknowledgement.
type CLIMessage struct {
	Message string `json:"message"`
}

// CLIWorkspace is a JSON-friendly workspace representation.
type CLIWorkspace struct {
	URI          string   `json:"uri"`
	Label        string   `json:"label"`
	Description  string   `json:"description,omitempty"`
	Vocabularies []string `json:"vocabularies,omitempty"`
}

// CLITermRef is a JSON-friendly reference to a term.
type CLITermRef struct {
	URI        string `json:"uri"`
	Label      string `json:"label,omitempty"`
	Vocabulary string `json:"vocabulary,omitempty"`
}

// CLITerm is one item of a term listing.
type CLITerm struct {
	URI        string       `json:"uri"`
	Label      string       `json:"label"`
	Vocabulary string       `json:"vocabulary,omitempty"`
	Glossary   string       `json:"glossary,omitempty"`
	Published  bool         `json:"published"`
	Partition  string       `json:"partition"`
	SubTerms   []CLITermRef `json:"sub_terms"`
}

// CLITermDetail is a JSON-friendly full term.
type CLITermDetail struct {
	URI                 string              `json:"uri"`
	Label               map[string]string   `json:"label"`
	AltLabels           map[string][]string `json:"alt_labels,omitempty"`
	HiddenLabels        map[string][]string `json:"hidden_labels,omitempty"`
	Definition          map[string]string   `json:"definition,omitempty"`
	Description         map[string]string   `json:"description,omitempty"`
	Glossary            string              `json:"glossary,omitempty"`
	DefinitionSource    string              `json:"definition_source,omitempty"`
	Draft               bool                `json:"draft"`
	Published           bool                `json:"published"`
	Parents             []CLITermRef        `json:"parents"`
	ExternalParents     []CLITermRef        `json:"external_parents"`
	InferredParents     []CLITermRef        `json:"inferred_parents,omitempty"`
	ExactMatches        []CLITermRef        `json:"exact_matches"`
	InverseExactMatches []CLITermRef        `json:"inverse_exact_matches"`
	SubTerms            []CLITermRef        `json:"sub_terms"`
	Sources             []string            `json:"sources,omitempty"`
}

// CLIVocabulary is a JSON-friendly vocabulary representation.
type CLIVocabulary struct {
	URI         string   `json:"uri"`
	Label       string   `json:"label,omitempty"`
	Description string   `json:"description,omitempty"`
	Glossary    string   `json:"glossary,omitempty"`
	Document    string   `json:"document,omitempty"`
	Imports     []string `json:"imports,omitempty"`
	Context     string   `json:"context,omitempty"`
}

// CLIValidationResult is one validation finding.
type CLIValidationResult struct {
	Term     string `json:"term"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Rule     string `json:"rule"`
}

func workspaceToCLI(ws termit.Workspace, vocabularies []string) CLIWorkspace {
	return CLIWorkspace{URI: ws.URI, Label: ws.Label, Description: ws.Description, Vocabularies: vocabularies}
}

func summariesToCLI(items []termit.TermSummary) []CLITerm {
	out := make([]CLITerm, len(items))
	for i, s := range items {
		out[i] = CLITerm{
			URI:        s.URI,
			Label:      s.Label,
			Vocabulary: s.Vocabulary,
			Glossary:   s.Glossary,
			Published:  s.Published,
			Partition:  s.Partition.String(),
			SubTerms:   infosToCLI(s.SubTerms, ""),
		}
	}
	return out
}

// infosToCLI converts term references, picking the label in lang or, when
// absent, the first label in language order.
func infosToCLI(infos []termit.TermInfo, lang string) []CLITermRef {
	out := make([]CLITermRef, len(infos))
	for i, info := range infos {
		out[i] = CLITermRef{URI: info.URI, Label: pickLabel(info.Label, lang), Vocabulary: info.Vocabulary}
	}
	return out
}

func pickLabel(m termit.MultilingualString, lang string) string {
	if v := m.Get(lang); v != "" {
		return v
	}
	if langs := m.Languages(); len(langs) > 0 {
		return m[langs[0]]
	}
	return ""
}

func termToCLI(t *termit.Term, lang string) CLITermDetail {
	return CLITermDetail{
		URI:                 t.URI,
		Label:               t.Label,
		AltLabels:           t.AltLabels,
		HiddenLabels:        t.HiddenLabels,
		Definition:          t.Definition,
		Description:         t.Description,
		Glossary:            t.Glossary,
		DefinitionSource:    t.DefinitionSource,
		Draft:               t.Draft,
		Published:           t.Published,
		Parents:             infosToCLI(t.Parents, lang),
		ExternalParents:     infosToCLI(t.ExternalParents, lang),
		InferredParents:     infosToCLI(t.InferredParents, lang),
		ExactMatches:        infosToCLI(t.ExactMatches, lang),
		InverseExactMatches: infosToCLI(t.InverseExactMatches, lang),
		SubTerms:            infosToCLI(t.SubTerms, lang),
		Sources:             t.Sources,
	}
}

func vocabularyToCLI(v termit.Vocabulary) CLIVocabulary {
	imports := append([]string(nil), v.Imports...)
	sort.Strings(imports)
	return CLIVocabulary{
		URI:         v.URI,
		Label:       v.Label,
		Description: v.Description,
		Glossary:    v.Glossary,
		Document:    v.Document,
		Imports:     imports,
		Context:     v.Context,
	}
}
