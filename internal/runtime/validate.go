package runtime

import (
	"context"
	"fmt"

	"github.com/risor-io/risor/object"
)

// TermInput is the view of a term a rule script sees. Label and
// Definition are in the validation language; LabelKey is the label folded
// for case-insensitive comparison.
type TermInput struct {
	URI        string
	Label      string
	LabelKey   string
	Definition string
	Labels     map[string]string
	AltLabels  []string
}

// ValidationInput is what every rule of one run receives.
type ValidationInput struct {
	Language string
	Terms    []TermInput
}

// Validate runs each rule over in and returns the findings in rule order.
// A rule that fails to evaluate aborts the run.
func (r *Runtime) Validate(ctx context.Context, rules []string, in ValidationInput) ([]Finding, error) {
	terms := termsObject(in.Terms)
	var out []Finding
	for _, rule := range rules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sink := &findingSink{rule: rule}
		err := r.RunScript(ctx, RuleScriptPath(rule), map[string]any{
			"terms":    terms,
			"language": object.NewString(in.Language),
			"report":   makeReportFn(sink),
		})
		if err != nil {
			r.logger.Warn("validation rule failed", "rule", rule, "error", err)
			return nil, fmt.Errorf("runtime: rule %s: %w", rule, err)
		}
		r.logger.Debug("validation rule finished", "rule", rule, "terms", len(in.Terms), "findings", len(sink.findings))
		out = append(out, sink.findings...)
	}
	return out, nil
}

// termsObject converts terms to a Risor list of maps with keys uri, label,
// label_key, definition, labels and alt_labels.
func termsObject(terms []TermInput) *object.List {
	items := make([]object.Object, len(terms))
	for i, t := range terms {
		labels := make(map[string]object.Object, len(t.Labels))
		for lang, v := range t.Labels {
			labels[lang] = object.NewString(v)
		}
		alt := make([]object.Object, len(t.AltLabels))
		for j, v := range t.AltLabels {
			alt[j] = object.NewString(v)
		}
		items[i] = object.NewMap(map[string]object.Object{
			"uri":        object.NewString(t.URI),
			"label":      object.NewString(t.Label),
			"label_key":  object.NewString(t.LabelKey),
			"definition": object.NewString(t.Definition),
			"labels":     object.NewMap(labels),
			"alt_labels": object.NewList(alt),
		})
	}
	return object.NewList(items)
}
