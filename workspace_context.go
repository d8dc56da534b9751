package termit

import "context"

type workspaceKey struct{}

// ContextWithWorkspace returns a copy of ctx whose current workspace is uri.
func ContextWithWorkspace(ctx context.Context, uri string) context.Context {
	return context.WithValue(ctx, workspaceKey{}, uri)
}

// WorkspaceFromContext returns the current workspace carried by ctx.
func WorkspaceFromContext(ctx context.Context) (string, bool) {
	uri, ok := ctx.Value(workspaceKey{}).(string)
	return uri, ok && uri != ""
}

func currentWorkspaceURI(ctx context.Context) (string, error) {
	uri, ok := WorkspaceFromContext(ctx)
	if !ok {
		return "", ErrNoCurrentWorkspace
	}
	return uri, nil
}

type authorKey struct{}

// ContextWithAuthor returns a copy of ctx recording author as the user
// responsible for writes made with it.
func ContextWithAuthor(ctx context.Context, author string) context.Context {
	return context.WithValue(ctx, authorKey{}, author)
}

// AuthorFromContext returns the author carried by ctx, or "".
func AuthorFromContext(ctx context.Context) string {
	author, _ := ctx.Value(authorKey{}).(string)
	return author
}
