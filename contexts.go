package termit

import "context"

// Partition names one of the two data partitions a read merges.
type Partition int

const (
	// PartitionWorkspace holds the current workspace's vocabulary contexts.
	PartitionWorkspace Partition = iota
	// PartitionCanonical holds canonical contexts not shadowed by the
	// workspace.
	PartitionCanonical
)

func (p Partition) String() string {
	switch p {
	case PartitionWorkspace:
		return "workspace"
	case PartitionCanonical:
		return "canonical"
	default:
		return "unknown"
	}
}

// ContextStore is an immutable snapshot mapping each partition to its
// context set for one workspace. It is re-derived on every call.
type ContextStore struct {
	metadata *WorkspaceMetadata
	sets     map[Partition]ContextSet
}

// NewContextStore builds a snapshot from the two partition sets.
func NewContextStore(metadata *WorkspaceMetadata, workspace, canonical ContextSet) *ContextStore {
	return &ContextStore{
		metadata: metadata,
		sets: map[Partition]ContextSet{
			PartitionWorkspace: workspace.Union(nil),
			PartitionCanonical: canonical.Union(nil),
		},
	}
}

// Metadata returns the workspace metadata the snapshot was built from.
func (c *ContextStore) Metadata() *WorkspaceMetadata { return c.metadata }

// Contexts returns a copy of the context set of p.
func (c *ContextStore) Contexts(p Partition) ContextSet {
	return c.sets[p].Union(nil)
}

// All returns the union of both partitions.
func (c *ContextStore) All() ContextSet {
	return c.sets[PartitionWorkspace].Union(c.sets[PartitionCanonical])
}

// ContextResolver derives context sets for the current workspace.
type ContextResolver struct {
	provider  MetadataProvider
	canonical *CanonicalResolver
}

// NewContextResolver returns a resolver over provider and canonical.
func NewContextResolver(provider MetadataProvider, canonical *CanonicalResolver) *ContextResolver {
	return &ContextResolver{provider: provider, canonical: canonical}
}

// Resolve snapshots the partitions of the workspace carried by ctx.
func (r *ContextResolver) Resolve(ctx context.Context) (*ContextStore, error) {
	m, err := r.provider.CurrentWorkspaceMetadata(ctx)
	if err != nil {
		return nil, err
	}
	return r.resolveFor(ctx, m, m.VocabularyContexts())
}

// ResolveExcluding is Resolve with the workspace context of vocabulary left
// out, so a vocabulary cannot see its own terms as candidates.
func (r *ContextResolver) ResolveExcluding(ctx context.Context, vocabulary string) (*ContextStore, error) {
	m, err := r.provider.CurrentWorkspaceMetadata(ctx)
	if err != nil {
		return nil, err
	}
	return r.resolveFor(ctx, m, m.VocabularyContextsExcept(vocabulary))
}

func (r *ContextResolver) resolveFor(ctx context.Context, m *WorkspaceMetadata, ws ContextSet) (*ContextStore, error) {
	workspace := m.Workspace()
	canonical, err := r.canonical.UniqueCanonicalContexts(ctx, &workspace)
	if err != nil {
		return nil, err
	}
	return NewContextStore(m, ws, canonical), nil
}

// VocabularyContext resolves the workspace context holding vocabulary.
func (r *ContextResolver) VocabularyContext(ctx context.Context, vocabulary string) (string, error) {
	m, err := r.provider.CurrentWorkspaceMetadata(ctx)
	if err != nil {
		return "", err
	}
	info, err := m.VocabularyInfo(vocabulary)
	if err != nil {
		return "", err
	}
	return info.Context, nil
}
