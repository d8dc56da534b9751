package termit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniqueCanonicalContexts_SkipsWorkingCopies(t *testing.T) {
	f := newFixture(t)
	ws, err := f.e.Provider().CurrentWorkspace(f.ctx)
	require.NoError(t, err)

	unique, err := f.e.Canonical().UniqueCanonicalContexts(f.ctx, ws)
	require.NoError(t, err)
	assert.Equal(t, []string{wildCtx}, unique.Sorted())

	all, err := f.e.Canonical().AllCanonicalContexts(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{animalsCanonicalCtx, wildCtx}, all.Sorted())
}

func TestUniqueCanonicalContexts_OtherWorkspaceSeesEverything(t *testing.T) {
	f := newFixture(t)

	unique, err := f.e.Canonical().UniqueCanonicalContexts(f.ctx, &Workspace{URI: "http://example.org/workspace/empty"})
	require.NoError(t, err)
	assert.Equal(t, []string{animalsCanonicalCtx, wildCtx}, unique.Sorted())
}

func TestResolve_Partitions(t *testing.T) {
	f := newFixture(t)

	cs, err := f.e.resolver.Resolve(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{animalsWorkCtx}, cs.Contexts(PartitionWorkspace).Sorted())
	assert.Equal(t, []string{wildCtx}, cs.Contexts(PartitionCanonical).Sorted())
	assert.Equal(t, []string{wildCtx, animalsWorkCtx}, cs.All().Sorted())
	assert.Equal(t, testWorkspace, cs.Metadata().Workspace().URI)

	// Snapshots hand out copies.
	delete(cs.Contexts(PartitionWorkspace), animalsWorkCtx)
	assert.True(t, cs.Contexts(PartitionWorkspace).Contains(animalsWorkCtx))

	excluding, err := f.e.resolver.ResolveExcluding(f.ctx, animalsURI)
	require.NoError(t, err)
	assert.Empty(t, excluding.Contexts(PartitionWorkspace))
	assert.Equal(t, []string{wildCtx}, excluding.Contexts(PartitionCanonical).Sorted())
}

func TestPartitionString(t *testing.T) {
	assert.Equal(t, "workspace", PartitionWorkspace.String())
	assert.Equal(t, "canonical", PartitionCanonical.String())
	assert.Equal(t, "unknown", Partition(7).String())
}
