package termit

import (
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jward/termit/config"
	"github.com/jward/termit/internal/runtime"
	"github.com/jward/termit/internal/store"
	"github.com/jward/termit/scripts"
)

// Engine wires storage, workspace metadata, context resolution and the
// services built on them.
type Engine struct {
	store          *store.Store
	provider       MetadataProvider
	canonical      *CanonicalResolver
	resolver       *ContextResolver
	descriptors    *DescriptorFactory
	changeTracking *ChangeTrackingResolver
	identifiers    *IdentifierGenerator
	runtime        *runtime.Runtime

	terms        *TermService
	vocabularies *VocabularyService
	workspaces   *WorkspaceService

	language                string
	canonicalContainer      string
	vocabularyNamespace     string
	termSeparator           string
	changeTrackingExtension string
	cacheMetadata           bool
	rulesDir                string
	rulesFS                 fs.FS
	logger                  *slog.Logger
	registerer              prometheus.Registerer
}

// Option configures an Engine.
type Option func(*Engine)

// WithLanguage sets the content language used for labels, search and
// ordering. Defaults to "en".
func WithLanguage(lang string) Option {
	return func(e *Engine) {
		e.language = lang
	}
}

// WithCanonicalContainer sets the identifier of the container that
// references canonical vocabulary contexts.
func WithCanonicalContainer(uri string) Option {
	return func(e *Engine) {
		e.canonicalContainer = uri
	}
}

// WithMetadataCache controls workspace metadata caching. When true
// (default), metadata is kept until Invalidate; when false, it is
// recomputed on every call.
func WithMetadataCache(enabled bool) Option {
	return func(e *Engine) {
		e.cacheMetadata = enabled
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics registers the metadata cache metrics with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(e *Engine) {
		e.registerer = reg
	}
}

// WithNamespace sets the prefix of generated vocabulary identifiers.
func WithNamespace(vocabulary string) Option {
	return func(e *Engine) {
		e.vocabularyNamespace = vocabulary
	}
}

// WithTermSeparator sets the separator between a vocabulary identifier and
// a generated term slug. Defaults to "/pojem".
func WithTermSeparator(sep string) Option {
	return func(e *Engine) {
		e.termSeparator = sep
	}
}

// WithChangeTrackingExtension sets the suffix naming a context's
// change-tracking context. Defaults to "/zmeny".
func WithChangeTrackingExtension(ext string) Option {
	return func(e *Engine) {
		e.changeTrackingExtension = ext
	}
}

// WithRulesFS loads validation rules from fsys instead of the embedded
// rules.
func WithRulesFS(fsys fs.FS) Option {
	return func(e *Engine) {
		e.rulesFS = fsys
	}
}

// WithRulesDir loads validation rules from a directory on disk. Ignored
// when WithRulesFS is set.
func WithRulesDir(dir string) Option {
	return func(e *Engine) {
		e.rulesDir = dir
	}
}

// New creates an Engine backed by a SQLite database at dbPath and migrates
// its schema.
// Rule loading priority:
//  1. If WithRulesFS is set, use the provided fs.FS
//  2. Otherwise, if WithRulesDir is set, use that directory
//  3. Otherwise, use the embedded rules
func New(dbPath string, opts ...Option) (*Engine, error) {
	e := &Engine{
		language:                "en",
		canonicalContainer:      config.DefaultConfig().Repository.CanonicalContainer,
		vocabularyNamespace:     config.DefaultConfig().Namespace.Vocabulary,
		termSeparator:           "/pojem",
		changeTrackingExtension: "/zmeny",
		cacheMetadata:           true,
		logger:                  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}

	s, err := store.NewStore(dbPath, e.language)
	if err != nil {
		return nil, fmt.Errorf("termit: create store: %w", err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("termit: migrate: %w", err)
	}
	e.store = s

	if e.cacheMetadata {
		p, err := NewCachingMetadataProvider(s, e.changeTrackingExtension, e.logger, e.registerer)
		if err != nil {
			s.Close()
			return nil, err
		}
		e.provider = p
	} else {
		e.provider = NewDirectMetadataProvider(s, e.changeTrackingExtension, e.logger)
	}

	var rtOpts []runtime.RuntimeOption
	switch {
	case e.rulesFS != nil:
		rtOpts = append(rtOpts, runtime.WithRuntimeFS(e.rulesFS))
	case e.rulesDir == "":
		rtOpts = append(rtOpts, runtime.WithRuntimeFS(scripts.Rules()))
	}
	rtOpts = append(rtOpts, runtime.WithRuntimeLogger(e.logger))
	e.runtime = runtime.NewRuntime(e.rulesDir, rtOpts...)

	e.canonical = NewCanonicalResolver(s, e.canonicalContainer)
	e.resolver = NewContextResolver(e.provider, e.canonical)
	e.descriptors = NewDescriptorFactory(e.resolver)
	e.changeTracking = NewChangeTrackingResolver(s, e.provider, e.changeTrackingExtension)
	e.identifiers = NewIdentifierGenerator(e.vocabularyNamespace, e.termSeparator)

	e.terms = &TermService{
		store:          s,
		resolver:       e.resolver,
		descriptors:    e.descriptors,
		changeTracking: e.changeTracking,
		identifiers:    e.identifiers,
		logger:         e.logger,
		language:       e.language,
	}
	e.vocabularies = &VocabularyService{
		store:          s,
		provider:       e.provider,
		resolver:       e.resolver,
		descriptors:    e.descriptors,
		changeTracking: e.changeTracking,
		identifiers:    e.identifiers,
		terms:          e.terms,
		rules:          e.runtime,
		logger:         e.logger,
		language:       e.language,
	}
	e.workspaces = &WorkspaceService{store: s, provider: e.provider, logger: e.logger}

	e.logger.Debug("engine ready",
		"db", dbPath, "language", e.language, "canonical", e.canonicalContainer, "cache", e.cacheMetadata)
	return e, nil
}

// NewFromConfig creates an Engine from cfg. opts are applied after the
// configured values and may override them.
func NewFromConfig(cfg *config.Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("termit: invalid config: %w", err)
	}
	base := []Option{
		WithLanguage(cfg.Persistence.Language),
		WithCanonicalContainer(cfg.Repository.CanonicalContainer),
		WithNamespace(cfg.Namespace.Vocabulary),
		WithChangeTrackingExtension(cfg.ChangeTracking.Context.Extension),
		WithMetadataCache(!cfg.HasProfile(config.ProfileNoCache)),
		WithRulesDir(cfg.Validation.RulesDir),
	}
	if cfg.Namespace.Term.Separator != "" {
		base = append(base, WithTermSeparator(cfg.Namespace.Term.Separator))
	}
	return New(cfg.Repository.Path, append(base, opts...)...)
}

// Close releases the Engine's database resources.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Store returns the underlying Store for direct access.
func (e *Engine) Store() *Store {
	return e.store
}

// Language returns the content language.
func (e *Engine) Language() string { return e.language }

// Terms returns the term service.
func (e *Engine) Terms() *TermService { return e.terms }

// Vocabularies returns the vocabulary service.
func (e *Engine) Vocabularies() *VocabularyService { return e.vocabularies }

// Workspaces returns the workspace service.
func (e *Engine) Workspaces() *WorkspaceService { return e.workspaces }

// Provider returns the workspace metadata provider.
func (e *Engine) Provider() MetadataProvider { return e.provider }

// Descriptors returns the descriptor factory.
func (e *Engine) Descriptors() *DescriptorFactory { return e.descriptors }

// ChangeTracking returns the change-tracking context resolver.
func (e *Engine) ChangeTracking() *ChangeTrackingResolver { return e.changeTracking }

// Canonical returns the canonical container resolver.
func (e *Engine) Canonical() *CanonicalResolver { return e.canonical }

// Invalidate drops cached workspace metadata and cached terms. Call it
// after storage is changed behind the Engine's back.
func (e *Engine) Invalidate() {
	e.provider.Invalidate()
	e.terms.evictAll()
}
