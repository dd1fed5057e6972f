package dedup

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relink/internal/report"
	"relink/internal/stats"
)

func newTestExecutor(dryRun bool) (*Executor, *stats.Collector) {
	st := stats.NewCollector()
	return &Executor{DryRun: dryRun, Tmp: NewTmpRegistry(), Stats: st}, st
}

func sameInode(t *testing.T, a, b string) bool {
	t.Helper()
	ia, err := os.Stat(a)
	require.NoError(t, err)
	ib, err := os.Stat(b)
	require.NoError(t, err)
	return os.SameFile(ia, ib)
}

func TestExecute_LinksDuplicateToKeeper(t *testing.T) {
	dir := t.TempDir()
	keeper := filepath.Join(dir, "keeper.txt")
	dup := filepath.Join(dir, "dup.txt")
	require.NoError(t, os.WriteFile(keeper, []byte("shared content"), 0o644))
	require.NoError(t, os.WriteFile(dup, []byte("shared content"), 0o644))

	e, st := newTestExecutor(false)
	ops := []Op{{Keeper: entryFor(t, keeper), Duplicate: entryFor(t, dup)}}

	records := e.Execute(context.Background(), ops)
	require.Len(t, records, 1)
	assert.Equal(t, report.Linked, records[0].Kind)
	assert.True(t, sameInode(t, keeper, dup))

	content, err := os.ReadFile(dup)
	require.NoError(t, err)
	assert.Equal(t, "shared content", string(content))

	snap := st.Snapshot()
	assert.Equal(t, int64(1), snap.LinksCreated)
	assert.Equal(t, int64(14), snap.BytesReclaimed)
}

func TestExecute_DryRunTouchesNothing(t *testing.T) {
	dir := t.TempDir()
	keeper := filepath.Join(dir, "keeper.txt")
	dup := filepath.Join(dir, "dup.txt")
	require.NoError(t, os.WriteFile(keeper, []byte("shared content"), 0o644))
	require.NoError(t, os.WriteFile(dup, []byte("shared content"), 0o644))

	e, st := newTestExecutor(true)
	ops := []Op{{Keeper: entryFor(t, keeper), Duplicate: entryFor(t, dup)}}

	records := e.Execute(context.Background(), ops)
	require.Len(t, records, 1)
	assert.Equal(t, report.WouldLink, records[0].Kind)
	assert.False(t, sameInode(t, keeper, dup))
	assert.Zero(t, st.Snapshot().LinksCreated)

	// No stray temporaries either.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestExecute_AlreadyLinkedSkipped(t *testing.T) {
	dir := t.TempDir()
	keeper := filepath.Join(dir, "keeper.txt")
	dup := filepath.Join(dir, "dup.txt")
	require.NoError(t, os.WriteFile(keeper, []byte("x"), 0o644))
	require.NoError(t, os.Link(keeper, dup))

	e, _ := newTestExecutor(false)
	ops := []Op{{Keeper: entryFor(t, keeper), Duplicate: entryFor(t, dup), AlreadyLinked: true}}

	records := e.Execute(context.Background(), ops)
	require.Len(t, records, 1)
	assert.Equal(t, report.AlreadyLinked, records[0].Kind)
}

func TestExecute_FailureIsolatedPerOperation(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("directory permissions do not bind root")
	}

	dir := t.TempDir()
	keeper := filepath.Join(dir, "keeper.txt")
	require.NoError(t, os.WriteFile(keeper, []byte("content!"), 0o644))

	locked := filepath.Join(dir, "locked")
	require.NoError(t, os.MkdirAll(locked, 0o755))
	lockedDup := filepath.Join(locked, "dup1.txt")
	require.NoError(t, os.WriteFile(lockedDup, []byte("content!"), 0o644))
	require.NoError(t, os.Chmod(locked, 0o555)) // no temp link can be created inside
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	okDup := filepath.Join(dir, "dup2.txt")
	require.NoError(t, os.WriteFile(okDup, []byte("content!"), 0o644))

	e, st := newTestExecutor(false)
	ops := []Op{
		{Keeper: entryFor(t, keeper), Duplicate: entryFor(t, lockedDup)},
		{Keeper: entryFor(t, keeper), Duplicate: entryFor(t, okDup)},
	}

	records := e.Execute(context.Background(), ops)
	require.Len(t, records, 2)
	assert.Equal(t, report.Failed, records[0].Kind)
	assert.Error(t, records[0].Err)
	assert.Equal(t, report.Linked, records[1].Kind)

	// The failed duplicate still has its original content and inode.
	content, err := os.ReadFile(lockedDup)
	require.NoError(t, err)
	assert.Equal(t, "content!", string(content))
	assert.False(t, sameInode(t, keeper, lockedDup))
	assert.True(t, sameInode(t, keeper, okDup))

	snap := st.Snapshot()
	assert.Equal(t, int64(1), snap.LinksFailed)
	assert.Equal(t, int64(1), snap.LinksCreated)
}

func TestExecute_CancelledContextStopsEarly(t *testing.T) {
	dir := t.TempDir()
	keeper := filepath.Join(dir, "keeper.txt")
	dup := filepath.Join(dir, "dup.txt")
	require.NoError(t, os.WriteFile(keeper, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(dup, []byte("x"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e, _ := newTestExecutor(false)
	records := e.Execute(ctx, []Op{{Keeper: entryFor(t, keeper), Duplicate: entryFor(t, dup)}})
	assert.Empty(t, records)
	assert.False(t, sameInode(t, keeper, dup))
}

func TestTmpRegistry_Cleanup(t *testing.T) {
	dir := t.TempDir()
	stray := filepath.Join(dir, ".stray.relink-tmp")
	require.NoError(t, os.WriteFile(stray, nil, 0o644))

	r := NewTmpRegistry()
	r.Register(stray)
	r.Cleanup()

	_, err := os.Stat(stray)
	assert.True(t, os.IsNotExist(err))

	// Deregistered paths are left alone.
	kept := filepath.Join(dir, "kept")
	require.NoError(t, os.WriteFile(kept, nil, 0o644))
	r.Register(kept)
	r.Deregister(kept)
	r.Cleanup()
	_, err = os.Stat(kept)
	assert.NoError(t, err)
}
