package termit

import (
	"context"

	"github.com/jward/termit/internal/store"
)

// ChangeTrackingResolver finds the context holding the change log of an
// entity.
type ChangeTrackingResolver struct {
	store     *store.Store
	provider  MetadataProvider
	extension string
}

// NewChangeTrackingResolver returns a resolver. extension is appended to a
// resource identifier when it belongs to no vocabulary.
func NewChangeTrackingResolver(s *store.Store, provider MetadataProvider, extension string) *ChangeTrackingResolver {
	return &ChangeTrackingResolver{store: s, provider: provider, extension: extension}
}

// VocabularyContext returns the change-tracking context of vocabulary in the
// current workspace.
func (r *ChangeTrackingResolver) VocabularyContext(ctx context.Context, vocabulary string) (string, error) {
	m, err := r.provider.CurrentWorkspaceMetadata(ctx)
	if err != nil {
		return "", err
	}
	info, err := m.VocabularyInfo(vocabulary)
	if err != nil {
		return "", err
	}
	return info.ChangeTrackingContext, nil
}

// TermContext returns the change-tracking context of the vocabulary the
// term belongs to.
func (r *ChangeTrackingResolver) TermContext(ctx context.Context, term string) (string, error) {
	vocabulary, err := r.store.VocabularyOfTerm(term)
	if err != nil {
		return "", wrapPersistence("changetracking.term_context", err)
	}
	if vocabulary == "" {
		return "", notFound("changetracking.term_context", "vocabulary of term %s not found", term)
	}
	return r.VocabularyContext(ctx, vocabulary)
}

// ResourceContext returns the change-tracking context of any other
// resource: its identifier followed by the configured extension.
func (r *ChangeTrackingResolver) ResourceContext(resource string) string {
	return resource + r.extension
}
