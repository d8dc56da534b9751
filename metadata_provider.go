package termit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"

	"github.com/jward/termit/internal/store"
)

// MetadataProvider resolves workspaces to their metadata. Implementations
// differ only in caching policy.
type MetadataProvider interface {
	// Workspace returns the workspace or a NotFound error.
	Workspace(ctx context.Context, uri string) (*Workspace, error)
	// WorkspaceMetadata returns metadata for the workspace, computing it
	// when necessary.
	WorkspaceMetadata(ctx context.Context, uri string) (*WorkspaceMetadata, error)
	// CurrentWorkspace and CurrentWorkspaceMetadata resolve the workspace
	// carried by ctx (see ContextWithWorkspace).
	CurrentWorkspace(ctx context.Context) (*Workspace, error)
	CurrentWorkspaceMetadata(ctx context.Context) (*WorkspaceMetadata, error)
	// LoadWorkspace recomputes metadata for ws regardless of cache state.
	LoadWorkspace(ctx context.Context, ws *Workspace) (*WorkspaceMetadata, error)
	// Invalidate drops all cached metadata.
	Invalidate()
}

// metadataSource reads workspaces and computes metadata from storage.
type metadataSource struct {
	store     *store.Store
	extension string
	logger    *slog.Logger
}

func (s *metadataSource) workspace(uri string) (*Workspace, error) {
	ws, err := s.store.WorkspaceByURI(uri)
	if err != nil {
		return nil, wrapPersistence("metadata.workspace", err)
	}
	if ws == nil {
		return nil, notFound("metadata.workspace", "workspace %s not found", uri)
	}
	return ws, nil
}

func (s *metadataSource) compute(ws *Workspace) (*WorkspaceMetadata, error) {
	contexts, err := s.store.ReferencedContexts(ws.URI)
	if err != nil {
		return nil, wrapPersistence("metadata.compute", err)
	}
	m := buildWorkspaceMetadata(*ws, contexts, s.extension)
	s.logger.Debug("computed workspace metadata",
		"workspace", ws.URI, "vocabularies", len(m.vocabularies))
	return m, nil
}

// --- Non-caching provider ---

// DirectMetadataProvider recomputes metadata from storage on every call.
type DirectMetadataProvider struct {
	src metadataSource
}

var _ MetadataProvider = (*DirectMetadataProvider)(nil)

// NewDirectMetadataProvider returns a provider that never caches.
func NewDirectMetadataProvider(s *store.Store, changeTrackingExtension string, logger *slog.Logger) *DirectMetadataProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &DirectMetadataProvider{src: metadataSource{store: s, extension: changeTrackingExtension, logger: logger}}
}

func (p *DirectMetadataProvider) Workspace(_ context.Context, uri string) (*Workspace, error) {
	return p.src.workspace(uri)
}

func (p *DirectMetadataProvider) WorkspaceMetadata(_ context.Context, uri string) (*WorkspaceMetadata, error) {
	ws, err := p.src.workspace(uri)
	if err != nil {
		return nil, err
	}
	return p.src.compute(ws)
}

func (p *DirectMetadataProvider) CurrentWorkspace(ctx context.Context) (*Workspace, error) {
	uri, err := currentWorkspaceURI(ctx)
	if err != nil {
		return nil, err
	}
	return p.Workspace(ctx, uri)
}

func (p *DirectMetadataProvider) CurrentWorkspaceMetadata(ctx context.Context) (*WorkspaceMetadata, error) {
	uri, err := currentWorkspaceURI(ctx)
	if err != nil {
		return nil, err
	}
	return p.WorkspaceMetadata(ctx, uri)
}

func (p *DirectMetadataProvider) LoadWorkspace(_ context.Context, ws *Workspace) (*WorkspaceMetadata, error) {
	return p.src.compute(ws)
}

// Invalidate is a no-op; nothing is cached.
func (p *DirectMetadataProvider) Invalidate() {}

// --- Caching provider ---

// CachingMetadataProvider keeps computed metadata per workspace until
// Invalidate is called. There is no time-based expiry. Concurrent misses for
// the same workspace share one computation.
type CachingMetadataProvider struct {
	src     metadataSource
	entries sync.Map // workspace URI -> *WorkspaceMetadata
	group   singleflight.Group
	metrics *cacheMetrics

	// generation increments on Invalidate so that computations started
	// before it do not repopulate the cache with stale metadata.
	generation atomic.Uint64
}

var _ MetadataProvider = (*CachingMetadataProvider)(nil)

// NewCachingMetadataProvider returns a caching provider whose cache
// metrics are registered with reg. reg may be nil.
func NewCachingMetadataProvider(s *store.Store, changeTrackingExtension string, logger *slog.Logger, reg prometheus.Registerer) (*CachingMetadataProvider, error) {
	if logger == nil {
		logger = slog.Default()
	}
	metrics := newCacheMetrics()
	if err := metrics.register(reg); err != nil {
		return nil, fmt.Errorf("termit: register cache metrics: %w", err)
	}
	return &CachingMetadataProvider{
		src:     metadataSource{store: s, extension: changeTrackingExtension, logger: logger},
		metrics: metrics,
	}, nil
}

func (p *CachingMetadataProvider) Workspace(_ context.Context, uri string) (*Workspace, error) {
	if v, ok := p.entries.Load(uri); ok {
		ws := v.(*WorkspaceMetadata).Workspace()
		return &ws, nil
	}
	return p.src.workspace(uri)
}

func (p *CachingMetadataProvider) WorkspaceMetadata(_ context.Context, uri string) (*WorkspaceMetadata, error) {
	if v, ok := p.entries.Load(uri); ok {
		p.metrics.hits.Inc()
		return v.(*WorkspaceMetadata), nil
	}
	p.metrics.misses.Inc()

	gen := p.generation.Load()
	v, err, _ := p.group.Do(uri, func() (any, error) {
		ws, err := p.src.workspace(uri)
		if err != nil {
			return nil, err
		}
		m, err := p.src.compute(ws)
		if err != nil {
			return nil, err
		}
		return p.publish(uri, m, gen), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*WorkspaceMetadata), nil
}

func (p *CachingMetadataProvider) CurrentWorkspace(ctx context.Context) (*Workspace, error) {
	uri, err := currentWorkspaceURI(ctx)
	if err != nil {
		return nil, err
	}
	return p.Workspace(ctx, uri)
}

func (p *CachingMetadataProvider) CurrentWorkspaceMetadata(ctx context.Context) (*WorkspaceMetadata, error) {
	uri, err := currentWorkspaceURI(ctx)
	if err != nil {
		return nil, err
	}
	return p.WorkspaceMetadata(ctx, uri)
}

// LoadWorkspace recomputes metadata for ws and replaces any cached entry.
func (p *CachingMetadataProvider) LoadWorkspace(_ context.Context, ws *Workspace) (*WorkspaceMetadata, error) {
	m, err := p.src.compute(ws)
	if err != nil {
		return nil, err
	}
	p.entries.Store(ws.URI, m)
	p.updateSize()
	p.metrics.loads.Inc()
	return m, nil
}

// Invalidate drops every cached entry. Subsequent reads recompute lazily.
func (p *CachingMetadataProvider) Invalidate() {
	p.src.logger.Info("Evicting workspace metadata cache")
	p.generation.Add(1)
	p.entries.Clear()
	p.updateSize()
	p.metrics.invalidations.Inc()
}

// publish caches m for uri unless Invalidate ran after gen was read, and
// returns the metadata callers should see. An Invalidate landing between
// the store and the second generation check takes the entry back out.
func (p *CachingMetadataProvider) publish(uri string, m *WorkspaceMetadata, gen uint64) *WorkspaceMetadata {
	if p.generation.Load() != gen {
		return m
	}
	actual, loaded := p.entries.LoadOrStore(uri, m)
	if loaded {
		return actual.(*WorkspaceMetadata)
	}
	if p.generation.Load() != gen {
		p.entries.CompareAndDelete(uri, m)
	}
	p.updateSize()
	return m
}

func (p *CachingMetadataProvider) updateSize() {
	p.metrics.size.Set(float64(p.Len()))
}

// Len returns the number of cached workspaces.
func (p *CachingMetadataProvider) Len() int {
	n := 0
	p.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
