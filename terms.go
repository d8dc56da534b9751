package termit

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jward/termit/internal/store"
)

// TermService reads and writes terms through the current workspace. Reads
// merge the workspace and canonical partitions; writes target exactly one
// vocabulary context.
type TermService struct {
	store          *store.Store
	resolver       *ContextResolver
	descriptors    *DescriptorFactory
	changeTracking *ChangeTrackingResolver
	identifiers    *IdentifierGenerator
	logger         *slog.Logger
	language       string

	// cache holds stored term facts loaded from a vocabulary context, keyed
	// by term and context.
	cache sync.Map
}

type termKey struct{ uri, context string }

func (s *TermService) evict(uri, ctx string) {
	s.cache.Delete(termKey{uri, ctx})
}

// evictAll drops every cached term.
func (s *TermService) evictAll() {
	s.cache.Clear()
}

// loadCached returns the facts of uri stored in ctx, or nil.
func (s *TermService) loadCached(uri, ctx string) (*store.TermData, error) {
	if v, ok := s.cache.Load(termKey{uri, ctx}); ok {
		return v.(*store.TermData), nil
	}
	data, err := s.store.TermData(uri, []string{ctx})
	if err != nil || data == nil {
		return nil, err
	}
	s.cache.Store(termKey{uri, ctx}, data)
	return data, nil
}

// Find returns the term with all its relations, or nil when no context
// visible in the current workspace holds it. The term is read from its
// vocabulary's workspace context when the workspace has one, otherwise from
// the canonical partition. The returned term's Vocabulary is empty, as it
// is never stored; related terms carry their inferred vocabulary.
func (s *TermService) Find(ctx context.Context, uri string) (*Term, error) {
	const op = "terms.find"
	cs, err := s.resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	vocabulary, err := s.store.VocabularyOfTerm(uri)
	if err != nil {
		return nil, wrapPersistence(op, err)
	}

	var data *store.TermData
	if info, err := cs.Metadata().VocabularyInfo(vocabulary); err == nil {
		if data, err = s.loadCached(uri, info.Context); err != nil {
			return nil, wrapPersistence(op, err)
		}
	}
	if data == nil {
		if data, err = s.store.TermData(uri, cs.Contexts(PartitionCanonical).Sorted()); err != nil {
			return nil, wrapPersistence(op, err)
		}
	}
	if data == nil {
		return nil, nil
	}

	desc := s.descriptors.ContextDescriptor(data.Term.Context, cs)
	t, err := s.toTerm(desc, cs, data, vocabulary)
	if err != nil {
		return nil, wrapPersistence(op, err)
	}
	if err := s.hydrate(desc, cs, t); err != nil {
		return nil, wrapPersistence(op, err)
	}
	t.Vocabulary = ""
	return t, nil
}

// Persist always fails: a term can only be persisted into a vocabulary.
func (s *TermService) Persist(_ context.Context, _ *Term) error {
	return newError(KindUnsupported, "terms.persist", "persisting a term requires a vocabulary; use PersistInVocabulary")
}

// PersistInVocabulary writes a new term into the workspace context of
// vocabulary. The term's vocabulary is cleared because it is always
// inferred from the glossary, which is set to the vocabulary's. A term
// without a URI gets one generated from its label. t is only changed when
// the write succeeds.
func (s *TermService) PersistInVocabulary(ctx context.Context, t *Term, vocabulary *Vocabulary) error {
	const op = "terms.persist"
	if t == nil {
		return newError(KindInvalid, op, "term is nil")
	}
	if vocabulary == nil || vocabulary.URI == "" {
		return newError(KindInvalid, op, "term %s has no vocabulary", t.URI)
	}
	if len(t.Label) == 0 {
		return newError(KindInvalid, op, "term has no label")
	}

	desc, err := s.descriptors.TermDescriptor(ctx, vocabulary.URI)
	if err != nil {
		return err
	}
	vocabCtx := desc.Context()
	v, err := s.store.VocabularyInContexts(vocabulary.URI, []string{vocabCtx})
	if err != nil {
		return wrapPersistence(op, err)
	}
	if v == nil {
		return notFound(op, "vocabulary %s not found in context %s", vocabulary.URI, vocabCtx)
	}

	n := *t
	if n.URI == "" {
		label := n.Label.Get(s.language)
		if label == "" {
			label = n.Label[n.Label.Languages()[0]]
		}
		if Slug(label) == "" {
			return newError(KindInvalid, op, "label %q yields an empty identifier", label)
		}
		n.URI = s.identifiers.TermIdentifier(vocabulary.URI, label)
	}
	existing, err := s.store.TermData(n.URI, []string{vocabCtx})
	if err != nil {
		return wrapPersistence(op, err)
	}
	if existing != nil {
		return newError(KindConflict, op, "term %s already exists in vocabulary %s", n.URI, vocabulary.URI)
	}

	n.Vocabulary = ""
	n.Glossary = v.Glossary
	n.Draft = true
	rec, err := s.changeRecord(ctx, vocabulary.URI, n.URI, changePersist, "")
	if err != nil {
		return err
	}
	if err := s.store.SaveTerm(termData(&n, vocabCtx), rec); err != nil {
		return wrapPersistence(op, err)
	}
	s.evict(n.URI, vocabCtx)
	s.logger.Debug("persisted term", "term", n.URI, "vocabulary", vocabulary.URI, "context", vocabCtx)

	*t = n
	return nil
}

// Update replaces the term's facts in its vocabulary's workspace context
// and returns the term as read back. The stored definition source is kept
// because it may have been set by inference and is not part of the
// submitted term. Inferred parents are not written. t is left unchanged.
func (s *TermService) Update(ctx context.Context, t *Term) (*Term, error) {
	const op = "terms.update"
	if t == nil {
		return nil, newError(KindInvalid, op, "term is nil")
	}
	if t.Vocabulary == "" {
		return nil, newError(KindInvalid, op, "term %s has no vocabulary", t.URI)
	}
	desc, err := s.descriptors.TermDescriptor(ctx, t.Vocabulary)
	if err != nil {
		return nil, err
	}
	vocabCtx := desc.Context()

	s.evict(t.URI, vocabCtx)
	original, err := s.store.TermData(t.URI, []string{vocabCtx})
	if err != nil {
		return nil, wrapPersistence(op, err)
	}
	if original == nil {
		return nil, notFound(op, "term %s not found in vocabulary %s", t.URI, t.Vocabulary)
	}

	u := *t
	vocabulary := u.Vocabulary
	u.DefinitionSource = deref(original.Term.DefinitionSource)
	if u.Glossary == "" {
		u.Glossary = deref(original.Term.Glossary)
	}
	u.Vocabulary = ""
	updated := termData(&u, vocabCtx)

	var records []*store.ChangeRecord
	for _, attr := range changedAttributes(original, updated) {
		rec, err := s.changeRecord(ctx, vocabulary, u.URI, changeUpdate, attr)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := s.store.SaveTerm(updated, records...); err != nil {
		return nil, wrapPersistence(op, err)
	}
	s.evict(u.URI, vocabCtx)
	s.logger.Debug("updated term", "term", u.URI, "vocabulary", vocabulary, "context", vocabCtx, "changes", len(records))

	return s.Find(ctx, u.URI)
}

// Remove deletes the term from its vocabulary's workspace context. Removing
// a term that is not there is not an error.
func (s *TermService) Remove(ctx context.Context, t *Term) error {
	const op = "terms.remove"
	if t == nil {
		return newError(KindInvalid, op, "term is nil")
	}
	if t.Vocabulary == "" {
		return newError(KindInvalid, op, "term %s has no vocabulary", t.URI)
	}
	desc, err := s.descriptors.TermDescriptor(ctx, t.Vocabulary)
	if err != nil {
		return err
	}
	vocabCtx := desc.Context()
	s.evict(t.URI, vocabCtx)
	existed, err := s.store.DeleteTerm(t.URI, vocabCtx)
	if err != nil {
		return wrapPersistence(op, err)
	}
	if existed {
		s.logger.Debug("removed term", "term", t.URI, "context", vocabCtx)
	}
	return nil
}

// GenerateTermIdentifier returns the identifier a term labelled label
// would get in vocabulary.
func (s *TermService) GenerateTermIdentifier(vocabulary, label string) string {
	return s.identifiers.TermIdentifier(vocabulary, label)
}

// ChangeRecords returns the recorded changes of a term, oldest first.
func (s *TermService) ChangeRecords(ctx context.Context, termURI string) ([]ChangeRecord, error) {
	ct, err := s.changeTracking.TermContext(ctx, termURI)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.ChangeRecords(termURI, []string{ct})
	if err != nil {
		return nil, wrapPersistence("terms.change_records", err)
	}
	out := make([]ChangeRecord, len(rows))
	for i, r := range rows {
		out[i] = *r
	}
	return out, nil
}

const (
	changePersist = "persist"
	changeUpdate  = "update"
)

// changeRecord builds the record of a change to entity, kept in the
// change-tracking context of vocabulary.
func (s *TermService) changeRecord(ctx context.Context, vocabulary, entity, kind, attribute string) (*store.ChangeRecord, error) {
	ct, err := s.changeTracking.VocabularyContext(ctx, vocabulary)
	if err != nil {
		return nil, err
	}
	return &store.ChangeRecord{
		ID:            uuid.NewString(),
		Context:       ct,
		ChangedEntity: entity,
		Author:        AuthorFromContext(ctx),
		Kind:          kind,
		Attribute:     attribute,
		RecordedAt:    time.Now().UTC(),
	}, nil
}

// termData maps a Term to the facts it asserts in ctx. Parents in the same
// vocabulary and external parents are both stored as broader edges;
// inferred parents are not. A term with no parent in its own vocabulary is
// a top concept of its glossary.
func termData(t *Term, ctx string) *store.TermData {
	d := &store.TermData{
		Term: store.Term{
			URI:     t.URI,
			Context: ctx,
			Draft:   t.Draft,
		},
		Sources:    append([]string(nil), t.Sources...),
		TopConcept: !t.HasParentInSameVocabulary(),
	}
	if t.Glossary != "" {
		d.Term.Glossary = &t.Glossary
	}
	if t.DefinitionSource != "" {
		d.Term.DefinitionSource = &t.DefinitionSource
	}
	d.Literals = appendLiterals(d.Literals, store.PropPrefLabel, t.Label)
	d.Literals = appendLiterals(d.Literals, store.PropDefinition, t.Definition)
	d.Literals = appendLiterals(d.Literals, store.PropDescription, t.Description)
	d.Literals = appendMultiLiterals(d.Literals, store.PropAltLabel, t.AltLabels)
	d.Literals = appendMultiLiterals(d.Literals, store.PropHiddenLabel, t.HiddenLabels)
	for _, p := range t.Parents {
		d.Relations = append(d.Relations, store.Relation{Predicate: store.PredBroader, Object: p.URI})
	}
	for _, p := range t.ExternalParents {
		d.Relations = append(d.Relations, store.Relation{Predicate: store.PredBroader, Object: p.URI})
	}
	for _, e := range t.ExactMatches {
		d.Relations = append(d.Relations, store.Relation{Predicate: store.PredExactMatch, Object: e.URI})
	}
	return d
}

func appendLiterals(dst []store.Literal, prop string, m MultilingualString) []store.Literal {
	for _, lang := range m.Languages() {
		dst = append(dst, store.Literal{Property: prop, Lang: lang, Value: m[lang]})
	}
	return dst
}

func appendMultiLiterals(dst []store.Literal, prop string, m map[string][]string) []store.Literal {
	langs := make([]string, 0, len(m))
	for lang := range m {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	for _, lang := range langs {
		for _, v := range m[lang] {
			dst = append(dst, store.Literal{Property: prop, Lang: lang, Value: v})
		}
	}
	return dst
}

// changedAttributes lists the literal properties and relation predicates
// whose values differ between before and after, plus "sources".
func changedAttributes(before, after *store.TermData) []string {
	values := func(d *store.TermData) map[string]map[string]bool {
		out := map[string]map[string]bool{}
		add := func(attr, v string) {
			if out[attr] == nil {
				out[attr] = map[string]bool{}
			}
			out[attr][v] = true
		}
		for _, l := range d.Literals {
			add(l.Property, l.Lang+"\x00"+l.Value)
		}
		for _, r := range d.Relations {
			add(r.Predicate, r.Object)
		}
		for _, src := range d.Sources {
			add("sources", src)
		}
		return out
	}
	b, a := values(before), values(after)
	attrs := map[string]bool{}
	for attr := range b {
		attrs[attr] = true
	}
	for attr := range a {
		attrs[attr] = true
	}
	var out []string
	for attr := range attrs {
		if !sameSet(b[attr], a[attr]) {
			out = append(out, attr)
		}
	}
	sort.Strings(out)
	return out
}

func sameSet(x, y map[string]bool) bool {
	if len(x) != len(y) {
		return false
	}
	for k := range x {
		if !y[k] {
			return false
		}
	}
	return true
}
