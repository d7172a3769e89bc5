// Package cohesion tracks per-parent-folder voting across individual file
// decisions and detects when the model is consistently proposing the same
// destination for siblings, so the whole folder can be moved as one unit.
package cohesion

import (
	"math"
	"os"
	"path/filepath"
	"strings"
)

// Destination is one (root, subpath) vote target.
type Destination struct {
	Root    string
	Subpath string
}

// Thresholds gate escalation. All four must hold.
type Thresholds struct {
	MinVotes    int     // minimum total votes for a parent
	PurityMin   float64 // dominant destination's share of votes
	EntropyMax  float64 // extension histogram Shannon entropy ceiling, bits
	MaxChildren int     // refuse to escalate very large directories
}

func DefaultThresholds() Thresholds {
	return Thresholds{MinVotes: 3, PurityMin: 0.8, EntropyMax: 1.0, MaxChildren: 500}
}

type stats struct {
	votes map[Destination]int
	exts  map[string]int
	seen  map[string]bool
	total int
}

// Tracker accumulates votes per parent folder. It is owned by the single
// orchestrator control flow and needs no locking.
type Tracker struct {
	th        Thresholds
	stats     map[string]*stats
	escalated map[string]bool
}

func NewTracker(th Thresholds) *Tracker {
	if th.MinVotes <= 0 {
		th = DefaultThresholds()
	}
	return &Tracker{
		th:        th,
		stats:     map[string]*stats{},
		escalated: map[string]bool{},
	}
}

// Note records one file's vote for a destination under its parent. Voting is
// idempotent per file path.
func (t *Tracker) Note(parent, filePath, destRoot, subpath string) {
	s, ok := t.stats[parent]
	if !ok {
		s = &stats{votes: map[Destination]int{}, exts: map[string]int{}, seen: map[string]bool{}}
		t.stats[parent] = s
	}
	if s.seen[filePath] {
		return
	}
	s.seen[filePath] = true
	s.votes[Destination{Root: destRoot, Subpath: subpath}]++
	s.exts[strings.ToLower(filepath.Ext(filePath))]++
	s.total++
}

// Consensus returns the majority destination for a parent when every
// escalation condition holds, and marks the parent escalated so it is never
// returned again. The conditions: not previously escalated, enough votes,
// vote purity, extension-homogeneous contents, and a bounded child count.
func (t *Tracker) Consensus(parent string) (Destination, bool) {
	if t.escalated[parent] {
		return Destination{}, false
	}
	s := t.stats[parent]
	if s == nil || s.total < t.th.MinVotes {
		return Destination{}, false
	}

	var best Destination
	bestCount := -1
	for dest, count := range s.votes {
		if count > bestCount {
			best, bestCount = dest, count
		}
	}
	if float64(bestCount)/float64(s.total) < t.th.PurityMin {
		return Destination{}, false
	}

	if extEntropy(s.exts) > t.th.EntropyMax {
		return Destination{}, false
	}

	// Child-count safety cap; unreadable parents skip the check.
	if entries, err := os.ReadDir(parent); err == nil {
		children := 0
		for _, entry := range entries {
			if !strings.HasPrefix(entry.Name(), ".") {
				children++
			}
		}
		if children > t.th.MaxChildren {
			return Destination{}, false
		}
	}

	t.escalated[parent] = true
	return best, true
}

// extEntropy is the Shannon entropy of the extension histogram in bits. Low
// entropy means the directory mostly holds one file type.
func extEntropy(exts map[string]int) float64 {
	total := 0
	for _, c := range exts {
		total += c
	}
	if total == 0 {
		return 0
	}
	ent := 0.0
	for _, c := range exts {
		if c == 0 {
			continue
		}
		p := float64(c) / float64(total)
		ent -= p * math.Log2(p)
	}
	return ent
}
