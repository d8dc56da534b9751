package termit

import (
	"context"

	"github.com/jward/termit/internal/store"
)

// listSpec describes one merged listing.
type listSpec struct {
	op                string
	lang              string
	rootsOnly         bool
	search            string
	glossary          string
	excludeVocabulary string
	partitions        []Partition // which partitions to read, in priority order
}

// list runs spec across the partitions it names. With both partitions the
// workspace comes first and canonical rows for terms the workspace also
// holds are dropped, so the workspace version wins.
func (s *TermService) list(ctx context.Context, spec listSpec, page Pagination) (*PagedResult[TermSummary], error) {
	if spec.lang == "" {
		spec.lang = s.language
	}
	var cs *ContextStore
	var err error
	if spec.excludeVocabulary != "" {
		cs, err = s.resolver.ResolveExcluding(ctx, spec.excludeVocabulary)
	} else {
		cs, err = s.resolver.Resolve(ctx)
	}
	if err != nil {
		return nil, err
	}

	filter := func(p Partition) store.TermFilter {
		return store.TermFilter{
			Contexts:          cs.Contexts(p).Sorted(),
			Lang:              spec.lang,
			RootsOnly:         spec.rootsOnly,
			Search:            spec.search,
			Glossary:          spec.glossary,
			ExcludeVocabulary: spec.excludeVocabulary,
		}
	}

	var rows []*store.TermRow
	var total int
	switch len(spec.partitions) {
	case 1:
		src := sourceFor(s.store, filter(spec.partitions[0]))
		rows, total, err = mergePartitions(src, emptySource, page)
	default:
		wsFilter := filter(PartitionWorkspace)
		canonicalFilter := filter(PartitionCanonical)
		canonicalFilter.ShadowContexts = wsFilter.Contexts
		rows, total, err = mergePartitions(sourceFor(s.store, wsFilter), sourceFor(s.store, canonicalFilter), page)
	}
	if err != nil {
		return nil, wrapPersistence(spec.op, err)
	}

	items, err := s.summaries(cs, rows)
	if err != nil {
		return nil, wrapPersistence(spec.op, err)
	}
	return &PagedResult[TermSummary]{Items: items, TotalCount: total}, nil
}

var emptySource = termSource{
	count: func() (int, error) { return 0, nil },
	list:  func(int, int) ([]*store.TermRow, error) { return nil, nil },
}

var bothPartitions = []Partition{PartitionWorkspace, PartitionCanonical}

// FindAll returns every term visible in the current workspace with a label
// in lang (the content language when empty), workspace terms first.
func (s *TermService) FindAll(ctx context.Context, lang string) ([]TermSummary, error) {
	res, err := s.list(ctx, listSpec{op: "terms.find_all", lang: lang, partitions: bothPartitions}, Unpaged())
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

// FindAllPaged returns one page of FindAll in the content language.
func (s *TermService) FindAllPaged(ctx context.Context, page Pagination) (*PagedResult[TermSummary], error) {
	return s.list(ctx, listSpec{op: "terms.find_all", partitions: bothPartitions}, page)
}

// FindAllRoots returns one page of root terms (glossary top concepts).
// Terms of excludeVocabulary are left out when it is non-empty.
func (s *TermService) FindAllRoots(ctx context.Context, page Pagination, excludeVocabulary string) (*PagedResult[TermSummary], error) {
	return s.list(ctx, listSpec{
		op:                "terms.find_all_roots",
		rootsOnly:         true,
		excludeVocabulary: excludeVocabulary,
		partitions:        bothPartitions,
	}, page)
}

// Search returns terms whose label in lang contains text, ignoring case.
func (s *TermService) Search(ctx context.Context, text, lang string) ([]TermSummary, error) {
	res, err := s.list(ctx, listSpec{op: "terms.search", lang: lang, search: text, partitions: bothPartitions}, Unpaged())
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

// SearchInVocabulary is Search restricted to the terms of vocabulary.
func (s *TermService) SearchInVocabulary(ctx context.Context, text, vocabulary, lang string) ([]TermSummary, error) {
	glossary, err := s.glossaryOf(ctx, vocabulary)
	if err != nil {
		return nil, err
	}
	res, err := s.list(ctx, listSpec{
		op:         "terms.search_in_vocabulary",
		lang:       lang,
		search:     text,
		glossary:   glossary,
		partitions: bothPartitions,
	}, Unpaged())
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

// FindAllInCurrentWorkspace lists terms of the workspace partition only.
func (s *TermService) FindAllInCurrentWorkspace(ctx context.Context, page Pagination, excludeVocabulary string) (*PagedResult[TermSummary], error) {
	return s.list(ctx, listSpec{
		op:                "terms.find_all_in_workspace",
		excludeVocabulary: excludeVocabulary,
		partitions:        []Partition{PartitionWorkspace},
	}, page)
}

// FindAllRootsInCurrentWorkspace lists root terms of the workspace partition.
func (s *TermService) FindAllRootsInCurrentWorkspace(ctx context.Context, page Pagination, excludeVocabulary string) (*PagedResult[TermSummary], error) {
	return s.list(ctx, listSpec{
		op:                "terms.find_all_roots_in_workspace",
		rootsOnly:         true,
		excludeVocabulary: excludeVocabulary,
		partitions:        []Partition{PartitionWorkspace},
	}, page)
}

// FindAllInCanonical lists terms of the unshadowed canonical partition.
func (s *TermService) FindAllInCanonical(ctx context.Context, page Pagination, excludeVocabulary string) (*PagedResult[TermSummary], error) {
	return s.list(ctx, listSpec{
		op:                "terms.find_all_in_canonical",
		excludeVocabulary: excludeVocabulary,
		partitions:        []Partition{PartitionCanonical},
	}, page)
}

// FindAllRootsInCanonical lists root terms of the unshadowed canonical
// partition.
func (s *TermService) FindAllRootsInCanonical(ctx context.Context, page Pagination, excludeVocabulary string) (*PagedResult[TermSummary], error) {
	return s.list(ctx, listSpec{
		op:                "terms.find_all_roots_in_canonical",
		rootsOnly:         true,
		excludeVocabulary: excludeVocabulary,
		partitions:        []Partition{PartitionCanonical},
	}, page)
}

// FindAllInVocabulary lists the terms of one vocabulary.
func (s *TermService) FindAllInVocabulary(ctx context.Context, vocabulary string, page Pagination) (*PagedResult[TermSummary], error) {
	glossary, err := s.glossaryOf(ctx, vocabulary)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, listSpec{op: "terms.find_all_in_vocabulary", glossary: glossary, partitions: bothPartitions}, page)
}

// FindAllRootsInVocabulary lists the root terms of one vocabulary.
func (s *TermService) FindAllRootsInVocabulary(ctx context.Context, vocabulary string, page Pagination) (*PagedResult[TermSummary], error) {
	glossary, err := s.glossaryOf(ctx, vocabulary)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, listSpec{
		op:         "terms.find_all_roots_in_vocabulary",
		rootsOnly:  true,
		glossary:   glossary,
		partitions: bothPartitions,
	}, page)
}

// SubTerms returns the children of parent visible in the current workspace,
// ordered by label.
func (s *TermService) SubTerms(ctx context.Context, parent string) ([]TermInfo, error) {
	cs, err := s.resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.SubTerms(parent, s.language, cs.All().Sorted())
	if err != nil {
		return nil, wrapPersistence("terms.sub_terms", err)
	}
	return rowsToInfos(rows, s.language), nil
}

// ExistsInVocabulary reports whether vocabulary already has a term labelled
// label in lang (the content language when empty), ignoring case. Only the
// vocabulary's own workspace context is consulted.
func (s *TermService) ExistsInVocabulary(ctx context.Context, label, vocabulary, lang string) (bool, error) {
	if lang == "" {
		lang = s.language
	}
	vocabCtx, err := s.resolver.VocabularyContext(ctx, vocabulary)
	if err != nil {
		return false, err
	}
	v, err := s.store.VocabularyInContexts(vocabulary, []string{vocabCtx})
	if err != nil {
		return false, wrapPersistence("terms.exists_in_vocabulary", err)
	}
	if v == nil {
		return false, nil
	}
	exists, err := s.store.TermExistsWithLabel(label, lang, v.Glossary, vocabCtx)
	if err != nil {
		return false, wrapPersistence("terms.exists_in_vocabulary", err)
	}
	return exists, nil
}

// glossaryOf finds the glossary of vocabulary among the contexts visible in
// the current workspace.
func (s *TermService) glossaryOf(ctx context.Context, vocabulary string) (string, error) {
	cs, err := s.resolver.Resolve(ctx)
	if err != nil {
		return "", err
	}
	ws := cs.Contexts(PartitionWorkspace).Sorted()
	v, err := s.store.VocabularyInContexts(vocabulary, ws)
	if err == nil && v == nil {
		v, err = s.store.VocabularyInContexts(vocabulary, cs.Contexts(PartitionCanonical).Sorted())
	}
	if err != nil {
		return "", wrapPersistence("terms.glossary_of", err)
	}
	if v == nil {
		return "", notFound("terms.glossary_of", "vocabulary %s not found", vocabulary)
	}
	return v.Glossary, nil
}
