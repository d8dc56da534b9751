package termit

import (
	"context"
	"log/slog"

	"github.com/jward/termit/internal/store"
)

// WorkspaceDTO is a workspace with the vocabularies it references.
type WorkspaceDTO struct {
	Workspace
	VocabularyURIs []string
}

// WorkspaceService selects and describes workspaces.
type WorkspaceService struct {
	store    *store.Store
	provider MetadataProvider
	logger   *slog.Logger
}

// LoadWorkspace makes uri the current workspace. Its metadata is recomputed
// so that later reads see the current state of storage. The returned
// context carries the workspace; loading the same workspace twice yields
// equal results.
func (s *WorkspaceService) LoadWorkspace(ctx context.Context, uri string) (context.Context, *WorkspaceDTO, error) {
	ws, err := s.provider.Workspace(ctx, uri)
	if err != nil {
		return ctx, nil, err
	}
	m, err := s.provider.LoadWorkspace(ctx, ws)
	if err != nil {
		return ctx, nil, err
	}
	s.logger.Info("loaded workspace", "workspace", uri, "vocabularies", len(m.VocabularyURIs()))
	return ContextWithWorkspace(ctx, uri), toWorkspaceDTO(m), nil
}

// CurrentWorkspace describes the workspace carried by ctx.
func (s *WorkspaceService) CurrentWorkspace(ctx context.Context) (*WorkspaceDTO, error) {
	m, err := s.provider.CurrentWorkspaceMetadata(ctx)
	if err != nil {
		return nil, err
	}
	return toWorkspaceDTO(m), nil
}

// FindAll lists every stored workspace ordered by label.
func (s *WorkspaceService) FindAll(_ context.Context) ([]Workspace, error) {
	rows, err := s.store.Workspaces()
	if err != nil {
		return nil, wrapPersistence("workspaces.find_all", err)
	}
	out := make([]Workspace, len(rows))
	for i, r := range rows {
		out[i] = *r
	}
	return out, nil
}

func toWorkspaceDTO(m *WorkspaceMetadata) *WorkspaceDTO {
	return &WorkspaceDTO{Workspace: m.Workspace(), VocabularyURIs: m.VocabularyURIs()}
}
