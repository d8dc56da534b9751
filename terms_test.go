package termit

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/termit/internal/store"
)

func TestFindAllRoots_WorkspaceBeforeCanonical(t *testing.T) {
	f := newFixture(t)
	f.seedAnimals()

	res, err := f.e.Terms().FindAllRoots(f.ctx, Pagination{Page: 0, Size: 10}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Dog", "Cat"}, summaryLabels(res.Items))
	assert.Equal(t, 2, res.TotalCount)
	assert.Equal(t, PartitionWorkspace, res.Items[0].Partition)
	assert.Equal(t, PartitionCanonical, res.Items[1].Partition)
	assert.Equal(t, animalsURI, res.Items[0].Vocabulary)
	assert.Equal(t, wildURI, res.Items[1].Vocabulary)
}

func TestFindAllRoots_ExcludeVocabulary(t *testing.T) {
	f := newFixture(t)
	f.seedAnimals()

	res, err := f.e.Terms().FindAllRoots(f.ctx, Pagination{Size: 10}, animalsURI)
	require.NoError(t, err)
	assert.Equal(t, []string{"Cat"}, summaryLabels(res.Items))
	assert.Equal(t, 1, res.TotalCount)
}

func TestFindAll_WorkspaceVersionWins(t *testing.T) {
	f := newFixture(t)
	f.seedAnimals()
	// Dog is also asserted in the unshadowed Wild context under another label.
	f.saveTerm(dogURI, wildCtx, wildGlossary, "Doggo", false)

	items, err := f.e.Terms().FindAll(f.ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Dog", "Cat"}, summaryLabels(items))

	res, err := f.e.Terms().FindAllPaged(f.ctx, Pagination{Size: 1, Page: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalCount)
	assert.Equal(t, []string{"Cat"}, summaryLabels(res.Items))
}

func TestFindAllPaged_PagesAreGapFree(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 4; i++ {
		f.saveTerm(fmt.Sprintf("%s/pojem/w%d", animalsURI, i), animalsWorkCtx, animalsGlossary, fmt.Sprintf("W%d", i), true)
	}
	for i := 0; i < 5; i++ {
		f.saveTerm(fmt.Sprintf("%s/pojem/c%d", wildURI, i), wildCtx, wildGlossary, fmt.Sprintf("C%d", i), true)
	}
	shared := animalsURI + "/pojem/shared"
	f.saveTerm(shared, animalsWorkCtx, animalsGlossary, "Shared", true)
	f.saveTerm(shared, wildCtx, wildGlossary, "Shared elsewhere", true)

	all, err := f.e.Terms().FindAllPaged(f.ctx, Unpaged())
	require.NoError(t, err)
	require.Len(t, all.Items, 10)
	assert.Equal(t, 10, all.TotalCount)
	for i, it := range all.Items {
		want := PartitionWorkspace
		if i >= 5 {
			want = PartitionCanonical
		}
		assert.Equal(t, want, it.Partition, "item %d (%s)", i, it.Label)
	}

	for size := 1; size <= 11; size++ {
		var got []string
		for page := 0; page*size < all.TotalCount; page++ {
			res, err := f.e.Terms().FindAllPaged(f.ctx, Pagination{Page: page, Size: size})
			require.NoError(t, err)
			assert.Equal(t, 10, res.TotalCount)
			assert.LessOrEqual(t, len(res.Items), size)
			for _, it := range res.Items {
				got = append(got, it.URI)
			}
		}
		want := make([]string, len(all.Items))
		for i, it := range all.Items {
			want[i] = it.URI
		}
		assert.Equal(t, want, got, "page size %d", size)
	}
}

func TestFindAllPaged_PastTheEnd(t *testing.T) {
	f := newFixture(t)
	f.seedAnimals()

	res, err := f.e.Terms().FindAllPaged(f.ctx, Pagination{Page: 5, Size: 10})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.Equal(t, 2, res.TotalCount)
}

func TestPartitionListings(t *testing.T) {
	f := newFixture(t)
	f.seedAnimals()
	f.saveTerm(lynxURI, wildCtx, wildGlossary, "Lynx", false, store.Relation{Predicate: store.PredBroader, Object: catURI})
	terms := f.e.Terms()
	page := Pagination{Size: 20}

	ws, err := terms.FindAllInCurrentWorkspace(f.ctx, page, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Dog"}, summaryLabels(ws.Items))

	wsRoots, err := terms.FindAllRootsInCurrentWorkspace(f.ctx, page, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Dog"}, summaryLabels(wsRoots.Items))

	canonical, err := terms.FindAllInCanonical(f.ctx, page, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Cat", "Lynx"}, summaryLabels(canonical.Items))

	canonicalRoots, err := terms.FindAllRootsInCanonical(f.ctx, page, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Cat"}, summaryLabels(canonicalRoots.Items))

	inVocab, err := terms.FindAllInVocabulary(f.ctx, wildURI, page)
	require.NoError(t, err)
	assert.Equal(t, []string{"Cat", "Lynx"}, summaryLabels(inVocab.Items))

	rootsInVocab, err := terms.FindAllRootsInVocabulary(f.ctx, animalsURI, page)
	require.NoError(t, err)
	assert.Equal(t, []string{"Dog"}, summaryLabels(rootsInVocab.Items))
}

func TestFindAllInVocabulary_UnknownVocabulary(t *testing.T) {
	f := newFixture(t)

	_, err := f.e.Terms().FindAllInVocabulary(f.ctx, "http://example.org/slovnik/nope", Unpaged())
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestSearch_RespectsLanguage(t *testing.T) {
	f := newFixture(t)
	s := f.e.Store()
	require.NoError(t, s.SaveTerm(&store.TermData{
		Term:     store.Term{URI: animalsURI + "/pojem/metropolitan-plan", Context: animalsWorkCtx, Glossary: ptr(animalsGlossary)},
		Literals: []store.Literal{{Property: store.PropPrefLabel, Lang: "en", Value: "Metropolitan plan"}},
	}))
	require.NoError(t, s.SaveTerm(&store.TermData{
		Term:     store.Term{URI: animalsURI + "/pojem/plan-metropolitano", Context: animalsWorkCtx, Glossary: ptr(animalsGlossary)},
		Literals: []store.Literal{{Property: store.PropPrefLabel, Lang: "es", Value: "Plan Metropolitano"}},
	}))

	en, err := f.e.Terms().Search(f.ctx, "pla", "en")
	require.NoError(t, err)
	assert.Equal(t, []string{"Metropolitan plan"}, summaryLabels(en))

	es, err := f.e.Terms().Search(f.ctx, "PLA", "es")
	require.NoError(t, err)
	assert.Equal(t, []string{"Plan Metropolitano"}, summaryLabels(es))

	inVocab, err := f.e.Terms().SearchInVocabulary(f.ctx, "pla", animalsURI, "en")
	require.NoError(t, err)
	assert.Equal(t, []string{"Metropolitan plan"}, summaryLabels(inVocab))

	other, err := f.e.Terms().SearchInVocabulary(f.ctx, "pla", wildURI, "en")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestFind_ReadsWorkspaceCopy(t *testing.T) {
	f := newFixture(t)
	f.seedAnimals()

	dog, err := f.e.Terms().Find(f.ctx, dogURI)
	require.NoError(t, err)
	require.NotNil(t, dog)
	assert.Equal(t, "Dog", dog.Label.Get("en"))
	assert.Empty(t, dog.Vocabulary)
	assert.Equal(t, animalsGlossary, dog.Glossary)
	assert.True(t, dog.Published, "stored in both the working copy and the canonical context")

	// Wolf exists only in the shadowed canonical context.
	wolf, err := f.e.Terms().Find(f.ctx, wolfURI)
	require.NoError(t, err)
	assert.Nil(t, wolf)

	cat, err := f.e.Terms().Find(f.ctx, catURI)
	require.NoError(t, err)
	require.NotNil(t, cat)
	assert.Equal(t, "Cat", cat.Label.Get("en"))
	assert.False(t, cat.Published)
}

func TestFind_Missing(t *testing.T) {
	f := newFixture(t)

	got, err := f.e.Terms().Find(f.ctx, animalsURI+"/pojem/unicorn")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFind_NoCurrentWorkspace(t *testing.T) {
	f := newFixture(t)

	_, err := f.e.Terms().Find(context.Background(), dogURI)
	require.ErrorIs(t, err, ErrNoCurrentWorkspace)
	assert.True(t, IsNotFound(err))
}

func TestFind_DerivedRelations(t *testing.T) {
	f := newFixture(t)
	f.seedAnimals()
	s := f.e.Store()
	f.saveTerm(lynxURI, wildCtx, wildGlossary, "Lynx", false,
		store.Relation{Predicate: store.PredBroader, Object: catURI},
		store.Relation{Predicate: store.PredExactMatch, Object: dogURI},
	)
	// A broader edge for Dog asserted outside its own context.
	require.NoError(t, s.SaveTerm(&store.TermData{
		Term:      store.Term{URI: dogURI, Context: wildCtx},
		Relations: []store.Relation{{Predicate: store.PredBroader, Object: catURI}},
	}))

	dog, err := f.e.Terms().Find(f.ctx, dogURI)
	require.NoError(t, err)
	require.NotNil(t, dog)
	assert.Empty(t, dog.Parents)
	assert.Empty(t, dog.ExternalParents)
	require.Len(t, dog.InferredParents, 1)
	assert.Equal(t, catURI, dog.InferredParents[0].URI)
	assert.Equal(t, wildURI, dog.InferredParents[0].Vocabulary)
	assert.Equal(t, "Cat", dog.InferredParents[0].Label.Get("en"))
	assert.Equal(t, []string{lynxURI}, infoURIs(dog.InverseExactMatches))
	assert.Empty(t, dog.ExactMatches)

	cat, err := f.e.Terms().Find(f.ctx, catURI)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{lynxURI, dogURI}, infoURIs(cat.SubTerms))

	lynx, err := f.e.Terms().Find(f.ctx, lynxURI)
	require.NoError(t, err)
	assert.Equal(t, []string{catURI}, infoURIs(lynx.Parents))
	assert.Equal(t, []string{dogURI}, infoURIs(lynx.ExactMatches))
	assert.Equal(t, "Dog", lynx.ExactMatches[0].Label.Get("en"))
	assert.Empty(t, lynx.InverseExactMatches)
}

func TestSubTerms(t *testing.T) {
	f := newFixture(t)
	f.seedAnimals()
	f.saveTerm(lynxURI, wildCtx, wildGlossary, "Lynx", false, store.Relation{Predicate: store.PredBroader, Object: catURI})
	// A child living only in the shadowed context stays hidden.
	f.saveTerm(animalsURI+"/pojem/kitten", animalsCanonicalCtx, animalsGlossary, "Kitten", false,
		store.Relation{Predicate: store.PredBroader, Object: catURI})

	subs, err := f.e.Terms().SubTerms(f.ctx, catURI)
	require.NoError(t, err)
	assert.Equal(t, []string{lynxURI}, infoURIs(subs))
	assert.Equal(t, "Lynx", subs[0].Label.Get("en"))

	roots, err := f.e.Terms().FindAllRoots(f.ctx, Pagination{Size: 10}, "")
	require.NoError(t, err)
	require.Len(t, roots.Items, 2)
	assert.Equal(t, []string{lynxURI}, infoURIs(roots.Items[1].SubTerms))
}

func TestPersistInVocabulary_RoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := ContextWithAuthor(f.ctx, "http://example.org/users/alice")
	terms := f.e.Terms()

	horse := &Term{
		Label:      MultilingualString{"en": "Horse", "cs": "Kůň"},
		Definition: MultilingualString{"en": "A large animal."},
		AltLabels:  map[string][]string{"en": {"Steed"}},
		Vocabulary: animalsURI,
	}
	require.NoError(t, terms.PersistInVocabulary(ctx, horse, &Vocabulary{URI: animalsURI}))
	assert.Equal(t, animalsURI+"/pojem/horse", horse.URI)
	assert.Empty(t, horse.Vocabulary)

	got, err := terms.Find(ctx, horse.URI)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, horse.Label, got.Label)
	assert.Equal(t, horse.Definition, got.Definition)
	assert.Equal(t, []string{"Steed"}, got.AltLabels["en"])
	assert.Equal(t, animalsGlossary, got.Glossary)
	assert.True(t, got.Draft)
	assert.Empty(t, got.Vocabulary)

	roots, err := terms.FindAllRootsInCurrentWorkspace(ctx, Pagination{Size: 10}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Horse"}, summaryLabels(roots.Items))

	records, err := terms.ChangeRecords(ctx, horse.URI)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "persist", records[0].Kind)
	assert.Equal(t, "http://example.org/users/alice", records[0].Author)
	assert.Equal(t, animalsWorkCtx+"/zmeny", records[0].Context)
}

func TestPersistInVocabulary_Errors(t *testing.T) {
	f := newFixture(t)
	terms := f.e.Terms()

	err := terms.PersistInVocabulary(f.ctx, &Term{Label: MultilingualString{"en": "Horse"}}, nil)
	assert.True(t, IsInvalid(err))

	err = terms.PersistInVocabulary(f.ctx, &Term{}, &Vocabulary{URI: animalsURI})
	assert.True(t, IsInvalid(err))

	// Wild is visible only through the canonical container.
	err = terms.PersistInVocabulary(f.ctx, &Term{Label: MultilingualString{"en": "Ocelot"}}, &Vocabulary{URI: wildURI})
	assert.True(t, IsNotFound(err))

	// A label with nothing to slug cannot name a term.
	err = terms.PersistInVocabulary(f.ctx, &Term{Label: MultilingualString{"en": "!!!"}}, &Vocabulary{URI: animalsURI})
	assert.True(t, IsInvalid(err))

	require.NoError(t, terms.PersistInVocabulary(f.ctx, &Term{Label: MultilingualString{"en": "Horse"}}, &Vocabulary{URI: animalsURI}))
	dup := &Term{Label: MultilingualString{"en": "horse"}, Vocabulary: animalsURI}
	err = terms.PersistInVocabulary(f.ctx, dup, &Vocabulary{URI: animalsURI})
	assert.True(t, IsConflict(err))
	assert.Empty(t, dup.URI, "a failed persist leaves the term untouched")
	assert.Equal(t, animalsURI, dup.Vocabulary)
	assert.Empty(t, dup.Glossary)
}

func TestPersist_Unsupported(t *testing.T) {
	f := newFixture(t)

	err := f.e.Terms().Persist(f.ctx, &Term{URI: dogURI})
	require.Error(t, err)
	assert.True(t, IsUnsupported(err))
}

func TestUpdate_KeepsDefinitionSourceAndRecordsChanges(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.e.Store().SaveTerm(&store.TermData{
		Term: store.Term{
			URI: dogURI, Context: animalsWorkCtx, Glossary: ptr(animalsGlossary),
			DefinitionSource: ptr("http://example.org/documents/d1"),
		},
		Literals:   []store.Literal{{Property: store.PropPrefLabel, Lang: "en", Value: "Dog"}},
		TopConcept: true,
	}))
	ctx := ContextWithAuthor(f.ctx, "bob")

	dog, err := f.e.Terms().Find(ctx, dogURI)
	require.NoError(t, err)
	require.NotNil(t, dog)
	dog.Vocabulary = animalsURI
	dog.DefinitionSource = ""
	dog.Definition = MultilingualString{"en": "A domesticated canine."}

	updated, err := f.e.Terms().Update(ctx, dog)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "http://example.org/documents/d1", updated.DefinitionSource)
	assert.Equal(t, "A domesticated canine.", updated.Definition.Get("en"))
	assert.Empty(t, updated.Vocabulary)
	assert.Equal(t, animalsURI, dog.Vocabulary, "the submitted term is not modified")
	assert.Empty(t, dog.DefinitionSource)

	records, err := f.e.Terms().ChangeRecords(ctx, dogURI)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "update", records[0].Kind)
	assert.Equal(t, store.PropDefinition, records[0].Attribute)
	assert.Equal(t, "bob", records[0].Author)
}

func TestUpdate_Errors(t *testing.T) {
	f := newFixture(t)
	f.seedAnimals()

	_, err := f.e.Terms().Update(f.ctx, &Term{URI: dogURI})
	assert.True(t, IsInvalid(err))

	_, err = f.e.Terms().Update(f.ctx, &Term{URI: animalsURI + "/pojem/unicorn", Vocabulary: animalsURI})
	assert.True(t, IsNotFound(err))
}

func TestUpdate_UnchangedTermWritesNothing(t *testing.T) {
	f := newFixture(t)
	f.seedAnimals()
	s := f.e.Store()
	// Cat is Dog's parent only in Wild's context.
	require.NoError(t, s.SaveTerm(&store.TermData{
		Term:      store.Term{URI: dogURI, Context: wildCtx},
		Relations: []store.Relation{{Predicate: store.PredBroader, Object: catURI}},
	}))

	dog, err := f.e.Terms().Find(f.ctx, dogURI)
	require.NoError(t, err)
	require.Equal(t, []string{catURI}, infoURIs(dog.InferredParents))
	dog.Vocabulary = animalsURI

	updated, err := f.e.Terms().Update(f.ctx, dog)
	require.NoError(t, err)
	assert.Equal(t, []string{catURI}, infoURIs(updated.InferredParents))
	assert.Empty(t, updated.ExternalParents)

	stored, err := s.TermData(dogURI, []string{animalsWorkCtx})
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Empty(t, stored.Relations)

	records, err := f.e.Terms().ChangeRecords(f.ctx, dogURI)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRemove(t *testing.T) {
	f := newFixture(t)
	f.seedAnimals()
	terms := f.e.Terms()

	require.NoError(t, terms.Remove(f.ctx, &Term{URI: animalsURI + "/pojem/unicorn", Vocabulary: animalsURI}))
	assert.True(t, IsInvalid(terms.Remove(f.ctx, &Term{URI: dogURI})))

	_, err := terms.Find(f.ctx, dogURI)
	require.NoError(t, err)
	require.NoError(t, terms.Remove(f.ctx, &Term{URI: dogURI, Vocabulary: animalsURI}))

	got, err := terms.Find(f.ctx, dogURI)
	require.NoError(t, err)
	assert.Nil(t, got, "the shadowed canonical copy must not resurface")

	roots, err := terms.FindAllRoots(f.ctx, Pagination{Size: 10}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Cat"}, summaryLabels(roots.Items))
}

func TestExistsInVocabulary(t *testing.T) {
	f := newFixture(t)
	f.seedAnimals()
	terms := f.e.Terms()

	ok, err := terms.ExistsInVocabulary(f.ctx, "dog", animalsURI, "")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = terms.ExistsInVocabulary(f.ctx, "Wolf", animalsURI, "en")
	require.NoError(t, err)
	assert.False(t, ok, "only the working copy is consulted")

	ok, err = terms.ExistsInVocabulary(f.ctx, "Dog", animalsURI, "cs")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = terms.ExistsInVocabulary(f.ctx, "Cat", wildURI, "en")
	assert.True(t, IsNotFound(err))
}

func TestGenerateTermIdentifier(t *testing.T) {
	e := newTestEngine(t)

	assert.Equal(t, animalsURI+"/pojem/cerveny-trpaslik",
		e.Terms().GenerateTermIdentifier(animalsURI, "Červený trpaslík"))
	assert.Equal(t, animalsURI+"/pojem/cerveny-trpaslik",
		e.Terms().GenerateTermIdentifier(animalsURI+"/", "Červený trpaslík"))
}

func TestTermService_CacheEvictedOnWrite(t *testing.T) {
	f := newFixture(t)
	f.seedAnimals()
	terms := f.e.Terms()

	dog, err := terms.Find(f.ctx, dogURI)
	require.NoError(t, err)
	dog.Vocabulary = animalsURI
	dog.Label = MultilingualString{"en": "Hound"}
	_, err = terms.Update(f.ctx, dog)
	require.NoError(t, err)

	got, err := terms.Find(f.ctx, dogURI)
	require.NoError(t, err)
	assert.Equal(t, "Hound", got.Label.Get("en"))

	// Writes behind the service's back need Engine.Invalidate.
	f.saveTerm(dogURI, animalsWorkCtx, animalsGlossary, "Mutt", true)
	f.e.Invalidate()
	_, _, err = f.e.Workspaces().LoadWorkspace(context.Background(), testWorkspace)
	require.NoError(t, err)
	got, err = terms.Find(f.ctx, dogURI)
	require.NoError(t, err)
	assert.Equal(t, "Mutt", got.Label.Get("en"))
}
