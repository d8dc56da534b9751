package termit

import (
	"context"

	"github.com/jward/termit/internal/store"
)

// CanonicalResolver computes which contexts of the canonical cache container
// a workspace still needs to read.
type CanonicalResolver struct {
	store     *store.Store
	container string
}

// NewCanonicalResolver returns a resolver for the canonical container
// identified by container.
func NewCanonicalResolver(s *store.Store, container string) *CanonicalResolver {
	return &CanonicalResolver{store: s, container: container}
}

// Container returns the canonical cache container identifier.
func (r *CanonicalResolver) Container() string { return r.container }

// UniqueCanonicalContexts returns the canonical contexts for which ws holds
// no working version. A working version is a context referenced by ws whose
// based-on version is the canonical context.
func (r *CanonicalResolver) UniqueCanonicalContexts(_ context.Context, ws *Workspace) (ContextSet, error) {
	uris, err := r.store.UniqueCanonicalContexts(r.container, ws.URI)
	if err != nil {
		return nil, wrapPersistence("canonical.unique_contexts", err)
	}
	return NewContextSet(uris...), nil
}

// AllCanonicalContexts returns every context the canonical container
// references, shadowed or not.
func (r *CanonicalResolver) AllCanonicalContexts(_ context.Context) (ContextSet, error) {
	ctxs, err := r.store.ReferencedContexts(r.container)
	if err != nil {
		return nil, wrapPersistence("canonical.all_contexts", err)
	}
	out := make(ContextSet, len(ctxs))
	for _, c := range ctxs {
		out[c.URI] = struct{}{}
	}
	return out, nil
}
