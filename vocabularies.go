package termit

import (
	"context"
	"log/slog"
	"strings"

	"github.com/jward/termit/internal/runtime"
	"github.com/jward/termit/internal/store"
)

// VocabularyService manages the vocabularies of the current workspace.
type VocabularyService struct {
	store          *store.Store
	provider       MetadataProvider
	resolver       *ContextResolver
	descriptors    *DescriptorFactory
	changeTracking *ChangeTrackingResolver
	identifiers    *IdentifierGenerator
	terms          *TermService
	rules          *runtime.Runtime
	logger         *slog.Logger
	language       string
}

// FindAll lists the vocabularies visible in the current workspace: its own
// first, then unshadowed canonical ones, each group ordered by label.
func (s *VocabularyService) FindAll(ctx context.Context) ([]Vocabulary, error) {
	const op = "vocabularies.find_all"
	cs, err := s.resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var out []Vocabulary
	for _, p := range []Partition{PartitionWorkspace, PartitionCanonical} {
		rows, err := s.store.VocabulariesInContexts(cs.Contexts(p).Sorted())
		if err != nil {
			return nil, wrapPersistence(op, err)
		}
		for _, r := range rows {
			if seen[r.URI] {
				continue
			}
			seen[r.URI] = true
			out = append(out, toVocabulary(r))
		}
	}
	return out, nil
}

// Find returns the vocabulary as seen by the current workspace, or a
// NotFound error.
func (s *VocabularyService) Find(ctx context.Context, uri string) (*Vocabulary, error) {
	const op = "vocabularies.find"
	cs, err := s.resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range []Partition{PartitionWorkspace, PartitionCanonical} {
		r, err := s.store.VocabularyInContexts(uri, cs.Contexts(p).Sorted())
		if err != nil {
			return nil, wrapPersistence(op, err)
		}
		if r != nil {
			v := toVocabulary(r)
			return &v, nil
		}
	}
	return nil, notFound(op, "vocabulary %s not found", uri)
}

// Persist creates v in a new context of the current workspace. Missing
// identifiers are generated: the vocabulary's from its label, the glossary
// and model ones from the vocabulary's.
func (s *VocabularyService) Persist(ctx context.Context, v *Vocabulary) error {
	const op = "vocabularies.persist"
	if v == nil {
		return newError(KindInvalid, op, "vocabulary is nil")
	}
	if strings.TrimSpace(v.Label) == "" {
		return newError(KindInvalid, op, "vocabulary has no label")
	}
	ws, err := s.provider.CurrentWorkspace(ctx)
	if err != nil {
		return err
	}

	if v.URI == "" {
		if Slug(v.Label) == "" {
			return newError(KindInvalid, op, "label %q yields an empty identifier", v.Label)
		}
		v.URI = s.identifiers.VocabularyIdentifier(v.Label)
	}
	exists, err := s.store.VocabularyExists(v.URI)
	if err != nil {
		return wrapPersistence(op, err)
	}
	if exists {
		return newError(KindConflict, op, "vocabulary %s already exists", v.URI)
	}
	if v.Glossary == "" {
		v.Glossary = s.identifiers.ComponentIdentifier(v.URI, "glossary")
	}
	if v.Model == "" {
		v.Model = s.identifiers.ComponentIdentifier(v.URI, "model")
	}

	v.Context = s.identifiers.ComponentIdentifier(ws.URI, "context")
	changeCtx := s.changeTracking.ResourceContext(v.Context)
	vocabURI := v.URI
	c := &store.Context{
		URI:                   v.Context,
		Vocabulary:            &vocabURI,
		ChangeTrackingContext: &changeCtx,
	}
	if err := s.store.CreateVocabularyContext(ws.URI, c, fromVocabulary(v)); err != nil {
		return wrapPersistence(op, err)
	}
	s.logger.Info("persisted vocabulary", "vocabulary", v.URI, "workspace", ws.URI, "context", v.Context)

	_, err = s.provider.LoadWorkspace(ctx, ws)
	return err
}

// Remove deletes the vocabulary from the current workspace. Document
// vocabularies, vocabularies other vocabularies import, and vocabularies
// that still contain terms cannot be removed; the checks run in that order.
func (s *VocabularyService) Remove(ctx context.Context, uri string) error {
	const op = "vocabularies.remove"
	ws, err := s.provider.CurrentWorkspace(ctx)
	if err != nil {
		return err
	}
	desc, err := s.descriptors.VocabularyDescriptor(ctx, uri)
	if err != nil {
		return err
	}
	vocabCtx := desc.Context()
	v, err := s.store.VocabularyInContexts(uri, []string{vocabCtx})
	if err != nil {
		return wrapPersistence(op, err)
	}
	if v == nil {
		return notFound(op, "vocabulary %s not found in context %s", uri, vocabCtx)
	}

	if deref(v.Document) != "" {
		return s.rejectRemoval(op, uri, "Removal of document vocabularies is not supported yet.")
	}
	dependents, err := s.Dependents(ctx, uri)
	if err != nil {
		return err
	}
	if len(dependents) > 0 {
		labels := make([]string, len(dependents))
		for i, d := range dependents {
			labels[i] = d.Label
			if labels[i] == "" {
				labels[i] = d.URI
			}
		}
		return s.rejectRemoval(op, uri, "Vocabulary cannot be removed. It is referenced from other vocabularies: "+strings.Join(labels, ", "))
	}
	hasTerms, err := s.store.GlossaryHasTerms(v.Glossary, vocabCtx)
	if err != nil {
		return wrapPersistence(op, err)
	}
	if hasTerms {
		return s.rejectRemoval(op, uri, "Vocabulary cannot be removed. It contains terms.")
	}

	if err := s.store.RemoveVocabularyContext(ws.URI, uri, vocabCtx); err != nil {
		return wrapPersistence(op, err)
	}
	s.terms.evictAll()
	s.logger.Info("removed vocabulary", "vocabulary", uri, "workspace", ws.URI, "context", vocabCtx)

	_, err = s.provider.LoadWorkspace(ctx, ws)
	return err
}

// TransitiveDependencies returns the identifiers of every vocabulary uri
// imports, directly or not, as seen by the current workspace.
func (s *VocabularyService) TransitiveDependencies(ctx context.Context, uri string) ([]string, error) {
	cs, err := s.resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	out, err := s.store.TransitiveImports(uri, cs.All().Sorted())
	if err != nil {
		return nil, wrapPersistence("vocabularies.transitive_dependencies", err)
	}
	return out, nil
}

// Dependents returns the vocabularies that import uri, directly or not.
func (s *VocabularyService) Dependents(ctx context.Context, uri string) ([]Vocabulary, error) {
	const op = "vocabularies.dependents"
	cs, err := s.resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	contexts := cs.All().Sorted()
	uris, err := s.store.TransitiveDependents(uri, contexts)
	if err != nil {
		return nil, wrapPersistence(op, err)
	}
	out := make([]Vocabulary, 0, len(uris))
	for _, u := range uris {
		r, err := s.store.VocabularyInContexts(u, contexts)
		if err != nil {
			return nil, wrapPersistence(op, err)
		}
		if r == nil {
			out = append(out, Vocabulary{URI: u})
			continue
		}
		out = append(out, toVocabulary(r))
	}
	return out, nil
}

// rejectRemoval logs and returns a removal error for vocabulary.
func (s *VocabularyService) rejectRemoval(op, vocabulary, msg string) error {
	s.logger.Warn("vocabulary removal rejected", "vocabulary", vocabulary, "reason", msg)
	return newError(KindRemoval, op, "%s", msg)
}

func toVocabulary(r *store.Vocabulary) Vocabulary {
	return Vocabulary{
		URI:         r.URI,
		Label:       r.Label,
		Description: r.Description,
		Glossary:    r.Glossary,
		Model:       r.Model,
		Document:    deref(r.Document),
		Imports:     append([]string(nil), r.Imports...),
		Context:     r.Context,
	}
}

func fromVocabulary(v *Vocabulary) *store.Vocabulary {
	r := &store.Vocabulary{
		URI:         v.URI,
		Context:     v.Context,
		Label:       v.Label,
		Description: v.Description,
		Glossary:    v.Glossary,
		Model:       v.Model,
		Imports:     append([]string(nil), v.Imports...),
	}
	if v.Document != "" {
		doc := v.Document
		r.Document = &doc
	}
	return r
}
