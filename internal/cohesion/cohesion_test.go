package cohesion

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scansDir(t *testing.T, files int) string {
	t.Helper()
	dir := t.TempDir()
	for i := 0; i < files; i++ {
		name := filepath.Join(dir, "scan"+string(rune('a'+i))+".jpg")
		require.NoError(t, os.WriteFile(name, []byte("x"), 0o644))
	}
	return dir
}

func TestConsensusAfterUnanimousVotes(t *testing.T) {
	tr := NewTracker(DefaultThresholds())
	parent := scansDir(t, 3)

	for _, name := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		tr.Note(parent, filepath.Join(parent, name), "Documents", "Health/Scans")
	}

	dest, ok := tr.Consensus(parent)
	require.True(t, ok)
	assert.Equal(t, Destination{Root: "Documents", Subpath: "Health/Scans"}, dest)

	// A parent escalates exactly once.
	_, again := tr.Consensus(parent)
	assert.False(t, again)
}

func TestConsensusRequiresMinVotes(t *testing.T) {
	tr := NewTracker(DefaultThresholds())
	parent := scansDir(t, 2)

	tr.Note(parent, filepath.Join(parent, "a.jpg"), "Media", "Images")
	tr.Note(parent, filepath.Join(parent, "b.jpg"), "Media", "Images")

	_, ok := tr.Consensus(parent)
	assert.False(t, ok)
}

func TestVotesAreIdempotentPerFile(t *testing.T) {
	tr := NewTracker(DefaultThresholds())
	parent := scansDir(t, 1)
	file := filepath.Join(parent, "a.jpg")

	tr.Note(parent, file, "Media", "Images")
	tr.Note(parent, file, "Media", "Images")
	tr.Note(parent, file, "Media", "Images")

	_, ok := tr.Consensus(parent)
	assert.False(t, ok)
}

func TestConsensusRejectsSplitVote(t *testing.T) {
	tr := NewTracker(DefaultThresholds())
	parent := scansDir(t, 4)

	tr.Note(parent, filepath.Join(parent, "a.jpg"), "Media", "Images")
	tr.Note(parent, filepath.Join(parent, "b.jpg"), "Media", "Images")
	tr.Note(parent, filepath.Join(parent, "c.jpg"), "Documents", "Misc")
	tr.Note(parent, filepath.Join(parent, "d.jpg"), "Documents", "Misc")

	_, ok := tr.Consensus(parent)
	assert.False(t, ok)
}

func TestConsensusRejectsMixedExtensions(t *testing.T) {
	tr := NewTracker(DefaultThresholds())
	parent := scansDir(t, 4)

	// Four distinct extensions push the histogram entropy to 2 bits.
	for _, name := range []string{"a.jpg", "b.pdf", "c.mp3", "d.txt"} {
		tr.Note(parent, filepath.Join(parent, name), "Documents", "Misc")
	}

	_, ok := tr.Consensus(parent)
	assert.False(t, ok)
}

func TestConsensusRejectsOversizedDirectories(t *testing.T) {
	th := DefaultThresholds()
	th.MaxChildren = 2
	tr := NewTracker(th)
	parent := scansDir(t, 4)

	for _, name := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		tr.Note(parent, filepath.Join(parent, name), "Media", "Images")
	}

	_, ok := tr.Consensus(parent)
	assert.False(t, ok)
}

func TestExtEntropy(t *testing.T) {
	assert.Equal(t, 0.0, extEntropy(map[string]int{".jpg": 5}))
	assert.InDelta(t, 1.0, extEntropy(map[string]int{".jpg": 3, ".png": 3}), 1e-9)
}
