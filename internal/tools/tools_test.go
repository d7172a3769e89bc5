package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListDirSkipsHiddenAndDropFolder(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "visible.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden"), []byte("x"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "_moved_today"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.Symlink(filepath.Join(dir, "visible.txt"), filepath.Join(dir, "link.txt")))

	res := ListDir(dir)
	require.Empty(t, res.Err)
	require.Len(t, res.Items, 2)

	byName := map[string]Entry{}
	for _, item := range res.Items {
		byName[item.Name] = item
	}
	assert.Contains(t, byName, "visible.txt")
	assert.Contains(t, byName, "sub")
	assert.False(t, byName["visible.txt"].IsDir)
	assert.True(t, byName["sub"].IsDir)
	assert.Equal(t, ".txt", byName["visible.txt"].Ext)
}

func TestListDirIsReadOnlyAndRepeatable(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644))

	first := ListDir(dir)
	second := ListDir(dir)
	assert.Equal(t, first, second)
}

func TestListDirMissingPathReportsError(t *testing.T) {
	res := ListDir(filepath.Join(t.TempDir(), "nope"))
	assert.NotEmpty(t, res.Err)
	assert.Empty(t, res.Items)
}

func TestInspectFileMissingPath(t *testing.T) {
	res := InspectFile(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"))
	assert.Equal(t, "not_found", res.Err)
}

func TestInspectFilePlainFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	res := InspectFile(context.Background(), path)
	assert.Empty(t, res.Err)
	assert.Equal(t, "notes.txt", res.Name)
	assert.Equal(t, ".txt", res.Ext)
	assert.Equal(t, int64(5), res.Size)
	assert.Equal(t, "document", res.Group)
}

func testRoots(t *testing.T) map[string]string {
	t.Helper()
	base := t.TempDir()
	roots := map[string]string{
		"Documents": filepath.Join(base, "Documents"),
		"Media":     filepath.Join(base, "Media"),
	}
	for _, dir := range roots {
		require.NoError(t, os.MkdirAll(dir, 0o755))
	}
	return roots
}

func TestPlanMoveFileEndsUpUnderRoot(t *testing.T) {
	roots := testRoots(t)
	src := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))

	res := PlanMove(roots, src, "Documents", "Finance/2025", "report.pdf", false)
	require.Empty(t, res.Err)
	assert.Equal(t, filepath.Join(roots["Documents"], "Finance", "2025", "report.pdf"), res.MovedTo)
	assert.FileExists(t, res.MovedTo)
	assert.NoFileExists(t, src)
}

func TestPlanMoveUnknownRoot(t *testing.T) {
	roots := testRoots(t)
	res := PlanMove(roots, "/tmp/x", "Elsewhere", "a", "x", false)
	assert.Contains(t, res.Err, "unknown destination_root")
}

func TestPlanMoveSanitizesTraversalSegments(t *testing.T) {
	roots := testRoots(t)
	src := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))

	res := PlanMove(roots, src, "Documents", "../outside/./..", "a.txt", false)
	require.Empty(t, res.Err)

	rel, err := filepath.Rel(roots["Documents"], res.MovedTo)
	require.NoError(t, err)
	assert.False(t, filepath.IsAbs(rel))
	assert.NotContains(t, rel, "..")
}

func TestPlanMoveDryRunResolvesWithoutMoving(t *testing.T) {
	roots := testRoots(t)
	src := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))

	res := PlanMove(roots, src, "Documents", "Misc", "a.txt", true)
	require.Empty(t, res.Err)
	assert.Equal(t, filepath.Join(roots["Documents"], "Misc", "a.txt"), res.MovedTo)
	assert.FileExists(t, src)
	assert.NoFileExists(t, res.MovedTo)
}

func TestPlanMoveDirectoryReplacesExistingDestination(t *testing.T) {
	roots := testRoots(t)
	srcDir := filepath.Join(t.TempDir(), "album")
	require.NoError(t, os.MkdirAll(srcDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "new.jpg"), []byte("x"), 0o644))

	existing := filepath.Join(roots["Media"], "Images", "album")
	require.NoError(t, os.MkdirAll(existing, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(existing, "old.jpg"), []byte("x"), 0o644))

	res := PlanMove(roots, srcDir, "Media", "Images", "album", false)
	require.Empty(t, res.Err)
	assert.FileExists(t, filepath.Join(existing, "new.jpg"))
	assert.NoFileExists(t, filepath.Join(existing, "old.jpg"))
}
