package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkdirs(t *testing.T, base string, dirs ...string) {
	t.Helper()
	for _, d := range dirs {
		require.NoError(t, os.MkdirAll(filepath.Join(base, d), 0o755))
	}
}

func TestTreeRespectsDepth(t *testing.T) {
	base := t.TempDir()
	mkdirs(t, base, "a/b/c/d")

	tree := Tree(base, 2, 40)
	require.Len(t, tree.Children, 1)
	a := tree.Children[0]
	require.Len(t, a.Children, 1)
	b := a.Children[0]
	assert.Empty(t, b.Children)
}

func TestTreeCapsFanoutAndSortsCaseInsensitively(t *testing.T) {
	base := t.TempDir()
	mkdirs(t, base, "zeta", "Alpha", "beta", "Gamma")

	tree := Tree(base, 1, 3)
	require.Len(t, tree.Children, 3)
	assert.Equal(t, "Alpha", tree.Children[0].Name)
	assert.Equal(t, "beta", tree.Children[1].Name)
	assert.Equal(t, "Gamma", tree.Children[2].Name)
}

func TestTreeSkipsHiddenAndDropFolder(t *testing.T) {
	base := t.TempDir()
	mkdirs(t, base, ".hidden", "_moved_today", "visible")

	tree := Tree(base, 1, 40)
	require.Len(t, tree.Children, 1)
	assert.Equal(t, "visible", tree.Children[0].Name)
}

func TestContentSummaryHistogramSortedByCount(t *testing.T) {
	base := t.TempDir()
	for _, name := range []string{"a.jpg", "b.jpg", "c.jpg", "d.pdf", "e.pdf", "f.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(base, name), []byte("x"), 0o644))
	}
	mkdirs(t, base, "sub")

	s := ContentSummary(base)
	assert.Equal(t, 6, s.Files)
	assert.Equal(t, 1, s.Dirs)
	require.Len(t, s.ExtHist, 3)
	assert.Equal(t, ExtCount{Ext: ".jpg", Count: 3}, s.ExtHist[0])
	assert.Equal(t, ExtCount{Ext: ".pdf", Count: 2}, s.ExtHist[1])
	assert.Equal(t, ExtCount{Ext: ".txt", Count: 1}, s.ExtHist[2])
}

func TestContentSummaryMissingDirIsEmpty(t *testing.T) {
	s := ContentSummary(filepath.Join(t.TempDir(), "nope"))
	assert.Zero(t, s.Files)
	assert.Zero(t, s.Dirs)
	assert.Empty(t, s.ExtHist)
}
