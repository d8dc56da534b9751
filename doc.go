// Package termit resolves SKOS terms and vocabularies through a workspace.
//
// A workspace is a named set of storage contexts. Some of them are working
// copies of canonical vocabularies and shadow the canonical context they are
// based on. Every read merges two partitions: the workspace's own contexts
// and the canonical contexts the workspace does not shadow. Workspace rows
// always come first, and a term held in both partitions is returned once, in
// its workspace version.
//
// # Usage
//
// Open an Engine over a SQLite database, load a workspace and query with the
// returned context:
//
//	e, err := termit.New("termit.db",
//		termit.WithCanonicalContainer("http://example.org/canonical"))
//	if err != nil { ... }
//	defer e.Close()
//
//	ctx, _, err := e.Workspaces().LoadWorkspace(context.Background(), workspaceURI)
//	roots, err := e.Terms().FindAllRoots(ctx, termit.Pagination{Size: 20}, "")
//
// The current workspace travels in the context.Context. Operations called
// with a context carrying none fail with [ErrNoCurrentWorkspace].
//
// # Services
//
//   - [TermService] lists, searches, reads and writes terms.
//   - [VocabularyService] persists, removes and validates vocabularies.
//   - [WorkspaceService] selects the current workspace.
//   - [MetadataProvider] computes which vocabularies a workspace edits and
//     where. [CachingMetadataProvider] keeps the result per workspace until
//     invalidated.
//   - [DescriptorFactory] builds the context descriptors used when writing.
//
// # Errors
//
// Operations return [*Error] values carrying a [Kind]. Use [IsNotFound],
// [IsInvalid], [IsConflict], [IsRemoval] and friends to branch on them.
package termit
