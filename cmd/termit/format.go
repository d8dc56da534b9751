package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
)

// outputResult marshals a CLIResult to stdout in the selected format.
func outputResult(result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(stdout, result)
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(stderr, "Error: %s\n", err)
		return err
	}
	result := CLIResult{
		Command:   command,
		Workspace: flagWorkspace,
		Error:     err.Error(),
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
	return err
}

// formatTermsText formats CLITerm results as aligned columns.
func formatTermsText(w io.Writer, terms []CLITerm) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LABEL\tURI\tVOCABULARY\tSUBTERMS\tPUBLISHED\tPARTITION")
	for _, t := range terms {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%t\t%s\n",
			t.Label, t.URI, t.Vocabulary, len(t.SubTerms), t.Published, t.Partition)
	}
	tw.Flush()
}

// formatTermRefsText formats CLITermRef results as aligned columns.
func formatTermRefsText(w io.Writer, refs []CLITermRef) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LABEL\tURI\tVOCABULARY")
	for _, r := range refs {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Label, r.URI, r.Vocabulary)
	}
	tw.Flush()
}

// formatTermDetailText formats CLITermDetail as readable text.
func formatTermDetailText(w io.Writer, t CLITermDetail) {
	fmt.Fprintf(w, "Term: %s\n", t.URI)
	for _, lang := range sortedKeys(t.Label) {
		fmt.Fprintf(w, "Label (%s): %s\n", lang, t.Label[lang])
	}
	for _, lang := range sortedKeys(t.Definition) {
		fmt.Fprintf(w, "Definition (%s): %s\n", lang, t.Definition[lang])
	}
	if t.Glossary != "" {
		fmt.Fprintf(w, "Glossary: %s\n", t.Glossary)
	}
	fmt.Fprintf(w, "Draft: %t\n", t.Draft)
	fmt.Fprintf(w, "Published: %t\n", t.Published)

	sections := []struct {
		title string
		refs  []CLITermRef
	}{
		{"Parents", t.Parents},
		{"External parents", t.ExternalParents},
		{"Inferred parents", t.InferredParents},
		{"Exact matches", t.ExactMatches},
		{"Inverse exact matches", t.InverseExactMatches},
		{"Sub-terms", t.SubTerms},
	}
	for _, s := range sections {
		if len(s.refs) == 0 {
			continue
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s:\n", s.title)
		for _, r := range s.refs {
			fmt.Fprintf(w, "  %s (%s)\n", r.Label, r.URI)
		}
	}
}

// formatVocabulariesText formats CLIVocabulary results as aligned columns.
func formatVocabulariesText(w io.Writer, vocabs []CLIVocabulary) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LABEL\tURI\tIMPORTS")
	for _, v := range vocabs {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", v.Label, v.URI, strings.Join(v.Imports, ","))
	}
	tw.Flush()
}

// formatWorkspacesText formats CLIWorkspace results as aligned columns.
func formatWorkspacesText(w io.Writer, workspaces []CLIWorkspace) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LABEL\tURI\tVOCABULARIES")
	for _, ws := range workspaces {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", ws.Label, ws.URI, len(ws.Vocabularies))
	}
	tw.Flush()
}

// formatWorkspaceText formats a single CLIWorkspace as readable text.
func formatWorkspaceText(w io.Writer, ws CLIWorkspace) {
	fmt.Fprintf(w, "Workspace: %s\n", ws.Label)
	fmt.Fprintf(w, "URI: %s\n", ws.URI)
	if ws.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", ws.Description)
	}
	if len(ws.Vocabularies) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Vocabularies:")
		for _, v := range ws.Vocabularies {
			fmt.Fprintf(w, "  %s\n", v)
		}
	}
}

// formatValidationText formats CLIValidationResult results as aligned columns.
func formatValidationText(w io.Writer, results []CLIValidationResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No problems found.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEVERITY\tRULE\tTERM\tMESSAGE")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Severity, r.Rule, r.Term, r.Message)
	}
	tw.Flush()
}

// outputResultText dispatches to the appropriate text formatter based on
// the result type.
func outputResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case []CLITerm:
		formatTermsText(w, v)
	case []CLITermRef:
		formatTermRefsText(w, v)
	case CLITermDetail:
		formatTermDetailText(w, v)
	case []CLIVocabulary:
		formatVocabulariesText(w, v)
	case []CLIWorkspace:
		formatWorkspacesText(w, v)
	case CLIWorkspace:
		formatWorkspaceText(w, v)
	case []CLIValidationResult:
		formatValidationText(w, v)
	case CLIMessage:
		fmt.Fprintln(w, v.Message)
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}

	// Pagination footer.
	if result.TotalCount != nil {
		count := *result.TotalCount
		shown := resultLen(result.Results)
		if shown < count {
			fmt.Fprintf(w, "\nShowing %d of %d results\n", shown, count)
		}
	}

	return nil
}

// resultLen returns the length of a result slice, or 1 for a single value.
func resultLen(v any) int {
	switch r := v.(type) {
	case []CLITerm:
		return len(r)
	case []CLITermRef:
		return len(r)
	case []CLIVocabulary:
		return len(r)
	case []CLIWorkspace:
		return len(r)
	case []CLIValidationResult:
		return len(r)
	case nil:
		return 0
	default:
		return 1
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
