package termit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/termit/config"
)

func TestNew_CreatesStoreAndServices(t *testing.T) {
	e := newTestEngine(t)

	require.NotNil(t, e.Store())
	require.NotNil(t, e.Terms())
	require.NotNil(t, e.Vocabularies())
	require.NotNil(t, e.Workspaces())
	require.NotNil(t, e.Descriptors())
	require.NotNil(t, e.ChangeTracking())
	assert.Equal(t, "en", e.Language())
	assert.Equal(t, testCanonical, e.Canonical().Container())
	assert.IsType(t, &CachingMetadataProvider{}, e.Provider())

	names, err := e.runtime.RuleNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"has_definition", "label_in_language", "unique_labels"}, names)
}

func TestNew_InvalidPath(t *testing.T) {
	_, err := New("/nonexistent/dir/db.sqlite")
	require.Error(t, err)
}

func TestNew_InvalidLanguage(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "test.db"), WithLanguage("not a language!"))
	require.Error(t, err)
}

func TestClose(t *testing.T) {
	e, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, e.Close())
}

func TestNew_Options(t *testing.T) {
	e := newTestEngine(t,
		WithLanguage("cs"),
		WithMetadataCache(false),
		WithTermSeparator("/term"),
		WithChangeTrackingExtension("/changes"),
	)

	assert.Equal(t, "cs", e.Language())
	assert.IsType(t, &DirectMetadataProvider{}, e.Provider())
	assert.Equal(t, animalsURI+"/term/pes", e.Terms().GenerateTermIdentifier(animalsURI, "Pes"))
	assert.Equal(t, "http://example.org/x/changes", e.ChangeTracking().ResourceContext("http://example.org/x"))
}

func TestNew_RulesDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "only.risor"), []byte("x := 1\n"), 0o644))
	e := newTestEngine(t, WithRulesDir(dir))

	names, err := e.runtime.RuleNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, names)
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Repository.Path = filepath.Join(t.TempDir(), "termit.db")
	cfg.Persistence.Language = "cs"
	cfg.Profiles = []string{config.ProfileNoCache}

	e, err := NewFromConfig(cfg)
	require.NoError(t, err)
	defer e.Close()

	assert.Equal(t, "cs", e.Language())
	assert.Equal(t, cfg.Repository.CanonicalContainer, e.Canonical().Container())
	assert.IsType(t, &DirectMetadataProvider{}, e.Provider())
	assert.Equal(t, "http://onto.fel.cvut.cz/ontologies/slovnik/zvire", e.identifiers.VocabularyIdentifier("Zvíře"))
}

func TestNewFromConfig_OptionsOverride(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Repository.Path = filepath.Join(t.TempDir(), "termit.db")

	e, err := NewFromConfig(cfg, WithCanonicalContainer(testCanonical))
	require.NoError(t, err)
	defer e.Close()
	assert.Equal(t, testCanonical, e.Canonical().Container())
	assert.IsType(t, &CachingMetadataProvider{}, e.Provider())
}

func TestNewFromConfig_Invalid(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Repository.Path = ""

	_, err := NewFromConfig(cfg)
	require.Error(t, err)
}

func TestEngineInvalidate(t *testing.T) {
	f := newFixture(t)
	p := cachingProvider(t, f.e)
	require.Equal(t, 1, p.Len())

	f.e.Invalidate()
	assert.Equal(t, 0, p.Len())

	// Reads recompute lazily for the workspace carried by the context.
	dto, err := f.e.Workspaces().CurrentWorkspace(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, testWorkspace, dto.URI)
}
