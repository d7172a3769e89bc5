package pathutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeASCIITotalAndIdempotent(t *testing.T) {
	cases := []string{
		"plain.txt",
		"données fiscales.pdf",
		"übung (1).doc",
		"emoji 📄 name.txt",
		"///",
		"",
		"   ",
		"semi;colon:and|pipe.txt",
	}
	for _, in := range cases {
		once := SafeASCII(in)
		require.NotEmpty(t, once, "input %q", in)
		assert.Equal(t, once, SafeASCII(once), "input %q", in)
		for _, r := range once {
			assert.Less(t, r, rune(128), "input %q produced non-ascii %q", in, once)
		}
	}
	assert.Equal(t, "unnamed", SafeASCII(""))
	assert.Equal(t, "plain.txt", SafeASCII("plain.txt"))
}

func TestSafeMoveSuffixesInsteadOfOverwriting(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()

	mk := func(name string) string {
		p := filepath.Join(src, name)
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
		return p
	}

	first, err := SafeMove(mk("a.txt"), dst, "a.txt", false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dst, "a.txt"), first)

	second, err := SafeMove(mk("a.txt"), dst, "a.txt", false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dst, "a (1).txt"), second)

	third, err := SafeMove(mk("a.txt"), dst, "a.txt", false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dst, "a (2).txt"), third)

	for _, p := range []string{first, second, third} {
		assert.True(t, PathExists(p))
	}
}

func TestSafeMoveDryRunLeavesSourceInPlace(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	p := filepath.Join(src, "keep.txt")
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))

	target, err := SafeMove(p, dst, "keep.txt", true)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dst, "keep.txt"), target)
	assert.True(t, PathExists(p))
	assert.False(t, PathExists(target))
}

func TestRemoveEmptyDirs(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "a", "b", "c"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(base, "kept"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(base, "_moved_today", "x"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(base, "kept", "f.txt"), []byte("x"), 0o644))

	RemoveEmptyDirs(base, "_moved_today")

	assert.False(t, PathExists(filepath.Join(base, "a")))
	assert.True(t, PathExists(filepath.Join(base, "kept", "f.txt")))
	assert.True(t, PathExists(filepath.Join(base, "_moved_today", "x")))
	assert.True(t, PathExists(base))
}

func TestNormPathCleans(t *testing.T) {
	assert.Equal(t, "/a/b", NormPath("/a//b/"))
	assert.Equal(t, "/a/b", NormPath("/a/./b"))
}

func TestCapText(t *testing.T) {
	assert.Equal(t, "abc", CapText("abc", 10))
	assert.Equal(t, "ab", CapText("abcdef", 2))
}
