package termit

import (
	"context"

	"github.com/jward/termit/internal/runtime"
	"github.com/jward/termit/internal/store"
)

// ValidationResult is one problem a validation rule found in a vocabulary.
type ValidationResult = runtime.Finding

// Validation severities.
const (
	SeverityError   = runtime.SeverityError
	SeverityWarning = runtime.SeverityWarning
	SeverityInfo    = runtime.SeverityInfo
)

// ValidateContents runs every validation rule over the terms of vocabulary
// as the current workspace sees them, in identifier order. Labels and
// definitions are checked in the content language.
func (s *VocabularyService) ValidateContents(ctx context.Context, vocabulary string) ([]ValidationResult, error) {
	const op = "vocabularies.validate"
	if s.rules == nil {
		return nil, newError(KindUnsupported, op, "no validation rules configured")
	}
	glossary, err := s.terms.glossaryOf(ctx, vocabulary)
	if err != nil {
		return nil, err
	}
	cs, err := s.resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	uris, err := s.store.GlossaryTerms(glossary, cs.All().Sorted())
	if err != nil {
		return nil, wrapPersistence(op, err)
	}

	in := runtime.ValidationInput{Language: s.language, Terms: make([]runtime.TermInput, 0, len(uris))}
	for _, uri := range uris {
		t, err := s.terms.Find(ctx, uri)
		if err != nil {
			return nil, err
		}
		if t == nil {
			continue
		}
		in.Terms = append(in.Terms, validationInput(t, s.language))
	}

	rules, err := s.rules.RuleNames()
	if err != nil {
		return nil, newError(KindUnsupported, op, "listing validation rules").wrap(err)
	}
	results, err := s.rules.Validate(ctx, rules, in)
	if err != nil {
		s.logger.Warn("vocabulary validation failed", "vocabulary", vocabulary, "error", err)
		return nil, newError(KindInvalid, op, "running validation rules").wrap(err)
	}
	s.logger.Debug("validated vocabulary", "vocabulary", vocabulary, "terms", len(in.Terms), "results", len(results))
	return results, nil
}

func validationInput(t *Term, lang string) runtime.TermInput {
	label := t.Label.Get(lang)
	in := runtime.TermInput{
		URI:        t.URI,
		Label:      label,
		LabelKey:   store.Fold(label),
		Definition: t.Definition.Get(lang),
		Labels:     t.Label.clone(),
		AltLabels:  append([]string(nil), t.AltLabels[lang]...),
	}
	if in.Labels == nil {
		in.Labels = map[string]string{}
	}
	return in
}
