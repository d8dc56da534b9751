package termit

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jward/termit/internal/store"
)

const (
	testCanonical = "http://example.org/canonical"
	testWorkspace = "http://example.org/workspace/w1"

	animalsURI          = "http://example.org/slovnik/animals"
	animalsGlossary     = "http://example.org/slovnik/animals/glossary"
	animalsWorkCtx      = "http://example.org/ctx/w1-animals"
	animalsCanonicalCtx = "http://example.org/ctx/c-animals"

	wildURI      = "http://example.org/slovnik/wild"
	wildGlossary = "http://example.org/slovnik/wild/glossary"
	wildCtx      = "http://example.org/ctx/c-wild"

	dogURI  = animalsURI + "/pojem/dog"
	wolfURI = animalsURI + "/pojem/wolf"
	catURI  = wildURI + "/pojem/cat"
	lynxURI = wildURI + "/pojem/lynx"
)

func ptr[T any](v T) *T { return &v }

// fixture is an engine over a workspace w1 holding a working copy of the
// canonical Animals vocabulary. The canonical container also references
// Wild, which w1 does not shadow.
type fixture struct {
	t   *testing.T
	e   *Engine
	ctx context.Context
}

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	base := []Option{
		WithCanonicalContainer(testCanonical),
		WithNamespace("http://example.org/slovnik/"),
	}
	e, err := New(filepath.Join(t.TempDir(), "test.db"), append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	e := newTestEngine(t, opts...)
	s := e.Store()

	require.NoError(t, s.InsertWorkspace(&store.Workspace{URI: testWorkspace, Label: "Workspace 1"}))

	addContext(t, s, testCanonical, animalsCanonicalCtx, animalsURI, nil)
	addContext(t, s, testCanonical, wildCtx, wildURI, nil)
	addContext(t, s, testWorkspace, animalsWorkCtx, animalsURI, ptr(animalsCanonicalCtx))

	for _, c := range []string{animalsCanonicalCtx, animalsWorkCtx} {
		require.NoError(t, s.InsertVocabulary(&store.Vocabulary{
			URI: animalsURI, Context: c, Label: "Animals",
			Glossary: animalsGlossary, Model: animalsURI + "/model",
		}))
	}
	require.NoError(t, s.InsertVocabulary(&store.Vocabulary{
		URI: wildURI, Context: wildCtx, Label: "Animals-canonical",
		Glossary: wildGlossary, Model: wildURI + "/model",
	}))

	ctx, _, err := e.Workspaces().LoadWorkspace(context.Background(), testWorkspace)
	require.NoError(t, err)
	return &fixture{t: t, e: e, ctx: ctx}
}

func addContext(t *testing.T, s *store.Store, container, uri, vocabulary string, basedOn *string) {
	t.Helper()
	require.NoError(t, s.UpsertContext(&store.Context{URI: uri, Vocabulary: &vocabulary, BasedOnVersion: basedOn}))
	require.NoError(t, s.AddContextReference(container, uri))
}

// saveTerm stores a term directly with an English label.
func (f *fixture) saveTerm(uri, ctx, glossary, label string, top bool, rels ...store.Relation) {
	f.t.Helper()
	require.NoError(f.t, f.e.Store().SaveTerm(&store.TermData{
		Term:       store.Term{URI: uri, Context: ctx, Glossary: ptr(glossary)},
		Literals:   []store.Literal{{Property: store.PropPrefLabel, Lang: "en", Value: label}},
		Relations:  rels,
		TopConcept: top,
	}))
}

// seedAnimals stores Dog in the working copy, Dog and Wolf in the shadowed
// canonical Animals context, and Cat in the unshadowed Wild context.
func (f *fixture) seedAnimals() {
	f.saveTerm(dogURI, animalsWorkCtx, animalsGlossary, "Dog", true)
	f.saveTerm(dogURI, animalsCanonicalCtx, animalsGlossary, "Old dog", true)
	f.saveTerm(wolfURI, animalsCanonicalCtx, animalsGlossary, "Wolf", true)
	f.saveTerm(catURI, wildCtx, wildGlossary, "Cat", true)
}

func summaryLabels(items []TermSummary) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Label
	}
	return out
}

func infoURIs(infos []TermInfo) []string {
	out := make([]string, len(infos))
	for i, info := range infos {
		out[i] = info.URI
	}
	return out
}
