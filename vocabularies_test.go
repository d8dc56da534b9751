package termit

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/termit/internal/store"
)

const plantsURI = "http://example.org/slovnik/plants"

func vocabularyLabels(vs []Vocabulary) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.Label
	}
	return out
}

func errorMessage(t *testing.T, err error) string {
	t.Helper()
	var e *Error
	require.True(t, errors.As(err, &e), "expected *Error, got %v", err)
	return e.Message
}

func TestVocabularyPersist(t *testing.T) {
	f := newFixture(t)
	vocabs := f.e.Vocabularies()

	v := &Vocabulary{Label: "Plants", Description: "Green things"}
	require.NoError(t, vocabs.Persist(f.ctx, v))
	assert.Equal(t, plantsURI, v.URI)
	assert.Contains(t, v.Glossary, plantsURI+"/glossary/")
	assert.Contains(t, v.Model, plantsURI+"/model/")
	assert.Contains(t, v.Context, testWorkspace+"/context/")

	got, err := vocabs.Find(f.ctx, plantsURI)
	require.NoError(t, err)
	assert.Equal(t, "Plants", got.Label)
	assert.Equal(t, "Green things", got.Description)
	assert.Equal(t, v.Context, got.Context)

	// The workspace metadata is reloaded with the new context.
	m, err := f.e.Provider().CurrentWorkspaceMetadata(f.ctx)
	require.NoError(t, err)
	info, err := m.VocabularyInfo(plantsURI)
	require.NoError(t, err)
	assert.Equal(t, v.Context, info.Context)
	assert.Equal(t, v.Context+"/zmeny", info.ChangeTrackingContext)

	all, err := vocabs.FindAll(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Animals", "Plants", "Animals-canonical"}, vocabularyLabels(all))

	// Terms can go straight into the new vocabulary.
	require.NoError(t, f.e.Terms().PersistInVocabulary(f.ctx, &Term{Label: MultilingualString{"en": "Fir"}}, v))
	res, err := f.e.Terms().FindAllInVocabulary(f.ctx, plantsURI, Unpaged())
	require.NoError(t, err)
	assert.Equal(t, []string{"Fir"}, summaryLabels(res.Items))
}

func TestVocabularyPersist_Errors(t *testing.T) {
	f := newFixture(t)
	vocabs := f.e.Vocabularies()

	assert.True(t, IsInvalid(vocabs.Persist(f.ctx, nil)))
	assert.True(t, IsInvalid(vocabs.Persist(f.ctx, &Vocabulary{Label: "  "})))
	assert.True(t, IsInvalid(vocabs.Persist(f.ctx, &Vocabulary{Label: "???"})))
	assert.True(t, IsConflict(vocabs.Persist(f.ctx, &Vocabulary{Label: "Animals"})))
	assert.True(t, IsConflict(vocabs.Persist(f.ctx, &Vocabulary{URI: wildURI, Label: "Wild again"})))
}

func TestVocabularyFind(t *testing.T) {
	f := newFixture(t)

	animals, err := f.e.Vocabularies().Find(f.ctx, animalsURI)
	require.NoError(t, err)
	assert.Equal(t, animalsWorkCtx, animals.Context, "the working copy wins")

	wild, err := f.e.Vocabularies().Find(f.ctx, wildURI)
	require.NoError(t, err)
	assert.Equal(t, wildCtx, wild.Context)

	_, err = f.e.Vocabularies().Find(f.ctx, plantsURI)
	assert.True(t, IsNotFound(err))
}

func TestVocabularyRemove(t *testing.T) {
	f := newFixture(t)
	vocabs := f.e.Vocabularies()
	v := &Vocabulary{Label: "Plants"}
	require.NoError(t, vocabs.Persist(f.ctx, v))

	require.NoError(t, vocabs.Remove(f.ctx, plantsURI))

	_, err := vocabs.Find(f.ctx, plantsURI)
	assert.True(t, IsNotFound(err))
	m, err := f.e.Provider().CurrentWorkspaceMetadata(f.ctx)
	require.NoError(t, err)
	assert.False(t, m.HasVocabulary(plantsURI))
	refs, err := f.e.Store().ReferencedContexts(testWorkspace)
	require.NoError(t, err)
	for _, c := range refs {
		assert.NotEqual(t, v.Context, c.URI)
	}
}

func TestVocabularyRemove_Rejected(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fixture) string
		want  string
	}{
		{
			name: "document vocabulary",
			setup: func(f *fixture) string {
				v := &Vocabulary{Label: "Plants", Document: "http://example.org/documents/plants"}
				require.NoError(t, f.e.Vocabularies().Persist(f.ctx, v))
				// Checked before dependents.
				require.NoError(t, f.e.Vocabularies().Persist(f.ctx, &Vocabulary{Label: "Trees", Imports: []string{plantsURI}}))
				return plantsURI
			},
			want: "Removal of document vocabularies is not supported yet.",
		},
		{
			name: "imported by other vocabularies",
			setup: func(f *fixture) string {
				require.NoError(t, f.e.Vocabularies().Persist(f.ctx, &Vocabulary{Label: "Plants"}))
				require.NoError(t, f.e.Vocabularies().Persist(f.ctx, &Vocabulary{Label: "Trees", Imports: []string{plantsURI}}))
				require.NoError(t, f.e.Vocabularies().Persist(f.ctx, &Vocabulary{Label: "Firs", Imports: []string{"http://example.org/slovnik/trees"}}))
				return plantsURI
			},
			want: "Vocabulary cannot be removed. It is referenced from other vocabularies: Firs, Trees",
		},
		{
			name: "contains terms",
			setup: func(f *fixture) string {
				f.seedAnimals()
				return animalsURI
			},
			want: "Vocabulary cannot be removed. It contains terms.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			uri := tt.setup(f)

			err := f.e.Vocabularies().Remove(f.ctx, uri)
			require.Error(t, err)
			assert.True(t, IsRemoval(err))
			assert.Equal(t, tt.want, errorMessage(t, err))

			_, err = f.e.Vocabularies().Find(f.ctx, uri)
			assert.NoError(t, err, "rejected removal must not change anything")
		})
	}
}

func TestVocabularyRemove_NotInWorkspace(t *testing.T) {
	f := newFixture(t)

	err := f.e.Vocabularies().Remove(f.ctx, wildURI)
	assert.True(t, IsNotFound(err))
}

func TestVocabularyDependencies(t *testing.T) {
	f := newFixture(t)
	vocabs := f.e.Vocabularies()
	require.NoError(t, vocabs.Persist(f.ctx, &Vocabulary{Label: "Plants", Imports: []string{animalsURI}}))
	require.NoError(t, vocabs.Persist(f.ctx, &Vocabulary{Label: "Trees", Imports: []string{plantsURI}}))
	treesURI := "http://example.org/slovnik/trees"

	deps, err := vocabs.TransitiveDependencies(f.ctx, treesURI)
	require.NoError(t, err)
	assert.Equal(t, []string{animalsURI, plantsURI}, deps)

	dependents, err := vocabs.Dependents(f.ctx, animalsURI)
	require.NoError(t, err)
	assert.Equal(t, []string{"Plants", "Trees"}, vocabularyLabels(dependents))

	none, err := vocabs.Dependents(f.ctx, treesURI)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestValidateContents(t *testing.T) {
	f := newFixture(t)
	f.seedAnimals()
	s := f.e.Store()
	dog2 := animalsURI + "/pojem/dog2"
	kocka := animalsURI + "/pojem/kocka"
	f.saveTerm(dog2, animalsWorkCtx, animalsGlossary, "DOG", true)
	require.NoError(t, s.SaveTerm(&store.TermData{
		Term: store.Term{URI: animalsURI + "/pojem/horse", Context: animalsWorkCtx, Glossary: ptr(animalsGlossary)},
		Literals: []store.Literal{
			{Property: store.PropPrefLabel, Lang: "en", Value: "Horse"},
			{Property: store.PropDefinition, Lang: "en", Value: "A large animal."},
		},
		TopConcept: true,
	}))
	require.NoError(t, s.SaveTerm(&store.TermData{
		Term:       store.Term{URI: kocka, Context: animalsWorkCtx, Glossary: ptr(animalsGlossary)},
		Literals:   []store.Literal{{Property: store.PropPrefLabel, Lang: "cs", Value: "Kočka"}},
		TopConcept: true,
	}))

	results, err := f.e.Vocabularies().ValidateContents(f.ctx, animalsURI)
	require.NoError(t, err)

	assert.Equal(t, []ValidationResult{
		{Term: dogURI, Severity: SeverityWarning, Rule: "has_definition",
			Message: "Term Dog (" + dogURI + ") has no definition in language en."},
		{Term: dog2, Severity: SeverityWarning, Rule: "has_definition",
			Message: "Term DOG (" + dog2 + ") has no definition in language en."},
		{Term: kocka, Severity: SeverityWarning, Rule: "has_definition",
			Message: "Term " + kocka + " has no definition in language en."},
		{Term: kocka, Severity: SeverityError, Rule: "label_in_language",
			Message: "Term " + kocka + " has no label in language en."},
		{Term: dog2, Severity: SeverityError, Rule: "unique_labels",
			Message: "Label of DOG (" + dog2 + ") is also used by " + dogURI + "."},
	}, results)
}

func TestValidateContents_CustomRules(t *testing.T) {
	rules := fstest.MapFS{
		"count.risor": {Data: []byte("if len(terms) == 1 {\n    report(language, \"info\", \"single term\")\n}\n")},
	}
	f := newFixture(t, WithRulesFS(rules))
	f.seedAnimals()

	results, err := f.e.Vocabularies().ValidateContents(f.ctx, wildURI)
	require.NoError(t, err)
	assert.Equal(t, []ValidationResult{{Term: "en", Severity: SeverityInfo, Rule: "count", Message: "single term"}}, results)
}

func TestValidateContents_BrokenRule(t *testing.T) {
	rules := fstest.MapFS{
		"broken.risor": {Data: []byte(`undefined_function()`)},
	}
	f := newFixture(t, WithRulesFS(rules))

	_, err := f.e.Vocabularies().ValidateContents(f.ctx, animalsURI)
	require.Error(t, err)
	assert.True(t, IsInvalid(err))
}

func TestValidateContents_UnknownVocabulary(t *testing.T) {
	f := newFixture(t)

	_, err := f.e.Vocabularies().ValidateContents(f.ctx, plantsURI)
	assert.True(t, IsNotFound(err))
}

func TestVocabularyRemove_LogsRejection(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	f := newFixture(t, WithLogger(logger))
	f.seedAnimals()

	require.Error(t, f.e.Vocabularies().Remove(f.ctx, animalsURI))
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), `msg="vocabulary removal rejected"`)
	assert.Contains(t, buf.String(), "It contains terms.")
}

func TestValidateContents_LogsFailedRule(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	rules := fstest.MapFS{
		"broken.risor": {Data: []byte(`undefined_function()`)},
	}
	f := newFixture(t, WithRulesFS(rules), WithLogger(logger))

	_, err := f.e.Vocabularies().ValidateContents(f.ctx, animalsURI)
	require.Error(t, err)
	assert.Contains(t, buf.String(), `msg="validation rule failed" rule=broken`)
	assert.Contains(t, buf.String(), `msg="vocabulary validation failed"`)
}
