package agent

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRotate(t *testing.T) {
	q := NewQueue([]string{"/a", "/b", "/c"})
	q.Rotate()
	assert.Equal(t, []string{"/b", "/c", "/a"}, q.Items())

	single := NewQueue([]string{"/only"})
	single.Rotate()
	assert.Equal(t, []string{"/only"}, single.Items())
}

func TestQueuePushFrontPreservesOrder(t *testing.T) {
	q := NewQueue([]string{"/rest"})
	q.PushFront([]string{"/first", "/second"})
	assert.Equal(t, []string{"/first", "/second", "/rest"}, q.Items())
}

func TestPurgeUnderRemovesSubtreeOnly(t *testing.T) {
	base := t.TempDir()
	moved := filepath.Join(base, "Photos")
	inside := filepath.Join(moved, "a.jpg")
	deeper := filepath.Join(moved, "sub", "b.jpg")
	sibling := filepath.Join(base, "Photosaurus", "c.jpg")
	other := filepath.Join(base, "other.txt")

	q := NewQueue([]string{other, inside, moved, deeper, sibling})
	q.PurgeUnder(moved)

	// Items outside the moved subtree survive in order; the name-prefix
	// sibling is not part of the subtree.
	assert.Equal(t, []string{other, sibling}, q.Items())
}

func TestPurgeUnderExactMatch(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "file.txt")
	q := NewQueue([]string{target})
	q.PurgeUnder(target)
	assert.Zero(t, q.Len())
}

func TestQueueFrontAndPop(t *testing.T) {
	q := NewQueue(nil)
	_, ok := q.Front()
	assert.False(t, ok)
	_, ok = q.PopFront()
	assert.False(t, ok)

	q.PushFront([]string{"/x"})
	front, ok := q.Front()
	require.True(t, ok)
	assert.Equal(t, "/x", front)
}

func TestInDepDir(t *testing.T) {
	assert.True(t, InDepDir("/inbox/app/node_modules/react/index.js"))
	assert.True(t, InDepDir("/inbox/repo/.git"))
	assert.True(t, InDepDir("/inbox/py/.venv/lib"))
	assert.False(t, InDepDir("/inbox/Documents/build-notes.txt"))
	assert.False(t, InDepDir("/inbox/photos/vacation"))
}
