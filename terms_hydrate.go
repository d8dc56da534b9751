package termit

import (
	"github.com/jward/termit/internal/store"
)

// TermSummary is one item of a term listing, with its immediate sub-terms
// and published status attached.
type TermSummary struct {
	URI        string
	Label      string
	Vocabulary string
	Glossary   string
	SubTerms   []TermInfo
	Published  bool
	Partition  Partition
}

// resolveInfos loads references to uris from contexts. A copy in the
// workspace partition of cs wins over a canonical one. URIs not visible in
// contexts are kept with no label so callers never lose an asserted edge.
func (s *TermService) resolveInfos(cs *ContextStore, contexts ContextSet, uris []string) ([]TermInfo, error) {
	if len(uris) == 0 {
		return nil, nil
	}
	rows, err := s.store.TermLabels(uris, contexts.Sorted())
	if err != nil {
		return nil, err
	}
	ws := cs.Contexts(PartitionWorkspace)

	// Pick one context per term: workspace first, then lowest identifier.
	chosen := make(map[string]string, len(uris))
	for _, r := range rows {
		cur, ok := chosen[r.Term]
		switch {
		case !ok:
			chosen[r.Term] = r.Context
		case ws.Contains(r.Context) && !ws.Contains(cur):
			chosen[r.Term] = r.Context
		case ws.Contains(r.Context) == ws.Contains(cur) && r.Context < cur:
			chosen[r.Term] = r.Context
		}
	}

	infos := make(map[string]*TermInfo, len(uris))
	for _, r := range rows {
		if chosen[r.Term] != r.Context {
			continue
		}
		info, ok := infos[r.Term]
		if !ok {
			info = &TermInfo{URI: r.Term, Vocabulary: r.Vocabulary}
			infos[r.Term] = info
		}
		if r.Lang != "" {
			if info.Label == nil {
				info.Label = MultilingualString{}
			}
			info.Label[r.Lang] = r.Value
		}
	}

	out := make([]TermInfo, 0, len(uris))
	for _, u := range uris {
		if info, ok := infos[u]; ok {
			out = append(out, *info)
		} else {
			out = append(out, TermInfo{URI: u})
		}
	}
	return out, nil
}

// toTerm maps stored facts to a Term. Related terms are resolved in the
// contexts desc routes each relation to.
func (s *TermService) toTerm(desc *Descriptor, cs *ContextStore, data *store.TermData, vocabulary string) (*Term, error) {
	t := &Term{
		URI:              data.Term.URI,
		Glossary:         deref(data.Term.Glossary),
		DefinitionSource: deref(data.Term.DefinitionSource),
		Draft:            data.Term.Draft,
		Sources:          data.Sources,
		Vocabulary:       vocabulary,
	}
	for _, l := range data.Literals {
		switch l.Property {
		case store.PropPrefLabel:
			t.Label = setLiteral(t.Label, l)
		case store.PropDefinition:
			t.Definition = setLiteral(t.Definition, l)
		case store.PropDescription:
			t.Description = setLiteral(t.Description, l)
		case store.PropAltLabel:
			t.AltLabels = addLiteral(t.AltLabels, l)
		case store.PropHiddenLabel:
			t.HiddenLabels = addLiteral(t.HiddenLabels, l)
		}
	}

	var parents, exact []string
	for _, r := range data.Relations {
		switch r.Predicate {
		case store.PredBroader:
			parents = append(parents, r.Object)
		case store.PredExactMatch:
			exact = append(exact, r.Object)
		}
	}
	parentInfos, err := s.resolveInfos(cs, parentContexts(desc), parents)
	if err != nil {
		return nil, err
	}
	t.Parents, t.ExternalParents = splitByVocabulary(parentInfos, vocabulary)
	if t.ExactMatches, err = s.resolveInfos(cs, desc.AttributeContexts(AttrExactMatchTerms), exact); err != nil {
		return nil, err
	}
	return t, nil
}

// parentContexts returns the contexts parents of either kind resolve in.
func parentContexts(desc *Descriptor) ContextSet {
	return desc.AttributeContexts(AttrParentTerms).Union(desc.AttributeContexts(AttrExternalParentTerms))
}

// hydrate attaches the relations that are derived rather than stored:
// sub-terms, inverse exact matches, inferred parents and the published
// flag. Edges are matched in any context but the related term must itself
// be visible in the contexts desc routes the relation to.
func (s *TermService) hydrate(desc *Descriptor, cs *ContextStore, t *Term) error {
	parents := parentContexts(desc)
	exact := desc.AttributeContexts(AttrExactMatchTerms)

	subs, err := s.store.SubTerms(t.URI, s.language, parents.Sorted())
	if err != nil {
		return err
	}
	t.SubTerms = rowsToInfos(subs, s.language)

	known := make(map[string]bool)
	for _, p := range t.Parents {
		known[p.URI] = true
	}
	for _, p := range t.ExternalParents {
		known[p.URI] = true
	}
	parentURIs, err := s.store.RelatedObjects(t.URI, store.PredBroader, parents.Sorted())
	if err != nil {
		return err
	}
	var inferred []string
	for _, u := range parentURIs {
		if !known[u] {
			inferred = append(inferred, u)
		}
	}
	if t.InferredParents, err = s.resolveInfos(cs, parents, inferred); err != nil {
		return err
	}

	asserted := make(map[string]bool, len(t.ExactMatches))
	for _, e := range t.ExactMatches {
		asserted[e.URI] = true
	}
	subjects, err := s.store.RelatedSubjects(t.URI, store.PredExactMatch, exact.Sorted())
	if err != nil {
		return err
	}
	var inverse []string
	for _, u := range subjects {
		if !asserted[u] {
			inverse = append(inverse, u)
		}
	}
	if t.InverseExactMatches, err = s.resolveInfos(cs, exact, inverse); err != nil {
		return err
	}

	counts, err := s.store.GlossaryContextCounts([]string{t.URI})
	if err != nil {
		return err
	}
	t.Published = isPublished(counts[t.URI])
	return nil
}

// summaries turns listing rows into summaries with sub-terms and published
// status attached.
func (s *TermService) summaries(cs *ContextStore, rows []*store.TermRow) ([]TermSummary, error) {
	if len(rows) == 0 {
		return []TermSummary{}, nil
	}
	uris := make([]string, len(rows))
	for i, r := range rows {
		uris[i] = r.URI
	}
	counts, err := s.store.GlossaryContextCounts(uris)
	if err != nil {
		return nil, err
	}
	all := cs.All().Sorted()
	ws := cs.Contexts(PartitionWorkspace)

	out := make([]TermSummary, len(rows))
	for i, r := range rows {
		subs, err := s.store.SubTerms(r.URI, s.language, all)
		if err != nil {
			return nil, err
		}
		p := PartitionCanonical
		if ws.Contains(r.Context) {
			p = PartitionWorkspace
		}
		out[i] = TermSummary{
			URI:        r.URI,
			Label:      r.Label,
			Vocabulary: r.Vocabulary,
			Glossary:   r.Glossary,
			SubTerms:   rowsToInfos(subs, s.language),
			Published:  isPublished(counts[r.URI]),
			Partition:  p,
		}
	}
	return out, nil
}

// isPublished reports whether a term's glossary membership is stored in more
// than one context. This is true whenever both a working copy and the
// canonical original exist.
func isPublished(glossaryContexts int) bool {
	return glossaryContexts > 1
}

func rowsToInfos(rows []*store.TermRow, lang string) []TermInfo {
	out := make([]TermInfo, len(rows))
	for i, r := range rows {
		out[i] = TermInfo{URI: r.URI, Label: MultilingualString{lang: r.Label}, Vocabulary: r.Vocabulary}
	}
	return out
}

// splitByVocabulary separates references inside vocabulary from the rest.
// References of unknown vocabulary count as inside.
func splitByVocabulary(infos []TermInfo, vocabulary string) (same, other []TermInfo) {
	for _, info := range infos {
		if info.Vocabulary == "" || info.Vocabulary == vocabulary {
			same = append(same, info)
		} else {
			other = append(other, info)
		}
	}
	return same, other
}

func setLiteral(m MultilingualString, l store.Literal) MultilingualString {
	if m == nil {
		m = MultilingualString{}
	}
	m[l.Lang] = l.Value
	return m
}

func addLiteral(m map[string][]string, l store.Literal) map[string][]string {
	if m == nil {
		m = map[string][]string{}
	}
	m[l.Lang] = append(m[l.Lang], l.Value)
	return m
}
