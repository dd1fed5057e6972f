package listing

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func paths(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Path
	}
	return out
}

func TestRegistry_ExtensionFilter(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	touch(t, filepath.Join(dir, "a.jpg"), now)
	touch(t, filepath.Join(dir, "b.JPG"), now)
	touch(t, filepath.Join(dir, "c.txt"), now)
	touch(t, filepath.Join(dir, "noext"), now)

	r := New([]string{"jpg"}, false)
	r.Populate([]string{dir})

	got := paths(r.Entries())
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "a.jpg"),
		filepath.Join(dir, "b.JPG"),
	}, got)
}

func TestRegistry_SortByModTime(t *testing.T) {
	dir := t.TempDir()
	base := time.Now().Add(-time.Hour)
	touch(t, filepath.Join(dir, "newest.png"), base.Add(2*time.Minute))
	touch(t, filepath.Join(dir, "oldest.png"), base)
	touch(t, filepath.Join(dir, "middle.png"), base.Add(time.Minute))

	r := New([]string{"png"}, false)
	r.Populate([]string{dir})
	r.SortByModTime()

	assert.Equal(t, []string{
		filepath.Join(dir, "oldest.png"),
		filepath.Join(dir, "middle.png"),
		filepath.Join(dir, "newest.png"),
	}, paths(r.Entries()))
}

func TestRegistry_HiddenEntries(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	touch(t, filepath.Join(dir, "shown.gif"), now)
	touch(t, filepath.Join(dir, ".hidden.gif"), now)
	touch(t, filepath.Join(dir, ".hiddendir", "inside.gif"), now)

	r := New([]string{"gif"}, false)
	r.Populate([]string{dir})
	assert.Equal(t, []string{filepath.Join(dir, "shown.gif")}, paths(r.Entries()))

	all := New([]string{"gif"}, true)
	all.Populate([]string{dir})
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "shown.gif"),
		filepath.Join(dir, ".hidden.gif"),
		filepath.Join(dir, ".hiddendir", "inside.gif"),
	}, paths(all.Entries()))
}

func TestRegistry_SkipsSymlinksInDirs(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	real := filepath.Join(dir, "real.png")
	touch(t, real, now)
	require.NoError(t, os.Symlink(real, filepath.Join(dir, "alias.png")))

	r := New([]string{"png"}, false)
	r.Populate([]string{dir})
	assert.Equal(t, []string{real}, paths(r.Entries()))
}

func TestRegistry_ExplicitFileTarget(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	file := filepath.Join(dir, "pic.jpg")
	other := filepath.Join(dir, "notes.txt")
	touch(t, file, now)
	touch(t, other, now)

	r := New([]string{"jpg"}, false)
	r.Populate([]string{file, other})
	assert.Equal(t, []string{file}, paths(r.Entries()),
		"the extension filter applies to explicit targets too")
}

func TestRegistry_WriteAll(t *testing.T) {
	r := &Registry{entries: []Entry{
		{Path: "/data/a.jpg"},
		{Path: "/data/with space.jpg"},
	}}

	var buf bytes.Buffer
	require.NoError(t, r.WriteAll(&buf, false, false))
	assert.Equal(t, "/data/a.jpg\n/data/with space.jpg\n", buf.String())

	buf.Reset()
	require.NoError(t, r.WriteAll(&buf, true, false))
	assert.Equal(t, "/data/a.jpg\x00/data/with space.jpg\x00", buf.String())

	buf.Reset()
	require.NoError(t, r.WriteAll(&buf, false, true))
	assert.Equal(t, "/data/a.jpg\n'/data/with space.jpg'\n", buf.String())
}
