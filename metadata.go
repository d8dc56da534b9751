package termit

import (
	"sort"
	"strings"

	"github.com/jward/termit/internal/store"
)

// ContextSet is an unordered set of storage context identifiers.
type ContextSet map[string]struct{}

// NewContextSet builds a set from uris, skipping empty strings.
func NewContextSet(uris ...string) ContextSet {
	s := make(ContextSet, len(uris))
	for _, u := range uris {
		if u != "" {
			s[u] = struct{}{}
		}
	}
	return s
}

func (s ContextSet) Contains(uri string) bool {
	_, ok := s[uri]
	return ok
}

// Union returns a new set holding the members of s and other.
func (s ContextSet) Union(other ContextSet) ContextSet {
	out := make(ContextSet, len(s)+len(other))
	for u := range s {
		out[u] = struct{}{}
	}
	for u := range other {
		out[u] = struct{}{}
	}
	return out
}

// Without returns a new set holding the members of s not in other.
func (s ContextSet) Without(other ContextSet) ContextSet {
	out := make(ContextSet, len(s))
	for u := range s {
		if !other.Contains(u) {
			out[u] = struct{}{}
		}
	}
	return out
}

// Sorted returns the members in identifier order.
func (s ContextSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for u := range s {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

// VocabularyInfo maps a vocabulary to the contexts holding its data and its
// change-tracking log within one workspace. Neither context is ever empty.
type VocabularyInfo struct {
	URI                   string
	Context               string
	ChangeTrackingContext string
}

// WorkspaceMetadata is the derived view of a workspace: which context holds
// each of its vocabularies. It is immutable once built; accessors return
// copies.
type WorkspaceMetadata struct {
	workspace              Workspace
	vocabularies           map[string]VocabularyInfo
	vocabularyContexts     ContextSet
	changeTrackingContexts ContextSet
}

// Workspace returns the workspace this metadata describes.
func (m *WorkspaceMetadata) Workspace() Workspace { return m.workspace }

// VocabularyInfo returns the record for vocabulary, or NotFound when the
// workspace does not reference it.
func (m *WorkspaceMetadata) VocabularyInfo(vocabulary string) (VocabularyInfo, error) {
	info, ok := m.vocabularies[vocabulary]
	if !ok {
		return VocabularyInfo{}, notFound("metadata.vocabulary_info", "vocabulary %s not found in workspace %s", vocabulary, m.workspace.URI)
	}
	return info, nil
}

// HasVocabulary reports whether the workspace references vocabulary.
func (m *WorkspaceMetadata) HasVocabulary(vocabulary string) bool {
	_, ok := m.vocabularies[vocabulary]
	return ok
}

// VocabularyURIs returns the identifiers of all vocabularies in the
// workspace, sorted.
func (m *WorkspaceMetadata) VocabularyURIs() []string {
	out := make([]string, 0, len(m.vocabularies))
	for u := range m.vocabularies {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

// VocabularyContexts returns the contexts holding the workspace's
// vocabularies.
func (m *WorkspaceMetadata) VocabularyContexts() ContextSet {
	return m.vocabularyContexts.Union(nil)
}

// VocabularyContextsExcept is VocabularyContexts without the context of
// vocabulary. An unknown vocabulary excludes nothing.
func (m *WorkspaceMetadata) VocabularyContextsExcept(vocabulary string) ContextSet {
	out := m.VocabularyContexts()
	if info, ok := m.vocabularies[vocabulary]; ok {
		delete(out, info.Context)
	}
	return out
}

// ChangeTrackingContexts returns the change-tracking contexts of all of the
// workspace's vocabularies.
func (m *WorkspaceMetadata) ChangeTrackingContexts() ContextSet {
	return m.changeTrackingContexts.Union(nil)
}

// buildWorkspaceMetadata derives metadata from the contexts a workspace
// references. Contexts that hold no vocabulary are ignored. A context
// without an explicit change-tracking context gets ctx+extension.
func buildWorkspaceMetadata(ws Workspace, contexts []*store.Context, extension string) *WorkspaceMetadata {
	m := &WorkspaceMetadata{
		workspace:              ws,
		vocabularies:           make(map[string]VocabularyInfo),
		vocabularyContexts:     make(ContextSet),
		changeTrackingContexts: make(ContextSet),
	}
	for _, c := range contexts {
		if c.Vocabulary == nil || *c.Vocabulary == "" {
			continue
		}
		ct := strings.TrimSpace(deref(c.ChangeTrackingContext))
		if ct == "" {
			ct = c.URI + extension
		}
		info := VocabularyInfo{URI: *c.Vocabulary, Context: c.URI, ChangeTrackingContext: ct}
		// contexts arrive in identifier order; the first one wins.
		if _, dup := m.vocabularies[info.URI]; dup {
			continue
		}
		m.vocabularies[info.URI] = info
		m.vocabularyContexts[info.Context] = struct{}{}
		m.changeTrackingContexts[info.ChangeTrackingContext] = struct{}{}
	}
	return m
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
