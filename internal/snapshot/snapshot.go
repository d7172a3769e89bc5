// Package snapshot builds bounded, read-only views of destination folder
// structure for the model's prompt: dirs-only trees with capped depth and
// fanout, plus shallow content summaries. Snapshots are stale by design
// between refreshes; the cache TTL lives with the caller.
package snapshot

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"vaultsort/internal/config"
)

// ExtCount is one extension histogram bucket.
type ExtCount struct {
	Ext   string `json:"ext"`
	Count int    `json:"count"`
}

// Summary describes a directory's immediate contents.
type Summary struct {
	Path    string     `json:"path"`
	Files   int        `json:"files"`
	Dirs    int        `json:"dirs"`
	ExtHist []ExtCount `json:"ext_hist"`
}

// Node is one directory in a destination tree. Children beyond the fanout
// cap are silently omitted.
type Node struct {
	Name     string  `json:"name"`
	Path     string  `json:"path"`
	Summary  Summary `json:"summary"`
	Children []*Node `json:"children"`
}

func ignored(name string) bool {
	return strings.HasPrefix(name, ".") || name == config.DropFolder
}

// ContentSummary counts files, dirs and extension frequencies one level
// deep. I/O errors yield an empty summary rather than an error.
func ContentSummary(path string) Summary {
	out := Summary{Path: path, ExtHist: []ExtCount{}}
	hist := map[string]int{}
	entries, err := os.ReadDir(path)
	if err != nil {
		return out
	}
	for _, entry := range entries {
		if ignored(entry.Name()) {
			continue
		}
		if entry.IsDir() {
			out.Dirs++
			continue
		}
		out.Files++
		hist[strings.ToLower(filepath.Ext(entry.Name()))]++
	}
	for ext, count := range hist {
		out.ExtHist = append(out.ExtHist, ExtCount{Ext: ext, Count: count})
	}
	sort.Slice(out.ExtHist, func(i, j int) bool {
		if out.ExtHist[i].Count != out.ExtHist[j].Count {
			return out.ExtHist[i].Count > out.ExtHist[j].Count
		}
		return out.ExtHist[i].Ext < out.ExtHist[j].Ext
	})
	return out
}

// Tree walks base down to the given depth, keeping at most dirCap child
// directories per node, sorted case-insensitively.
func Tree(base string, depth, dirCap int) *Node {
	return walk(base, depth, dirCap)
}

func walk(path string, depth, dirCap int) *Node {
	node := &Node{
		Name:     filepath.Base(path),
		Path:     path,
		Summary:  ContentSummary(path),
		Children: []*Node{},
	}
	if depth == 0 {
		return node
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return node
	}
	var kids []string
	for _, entry := range entries {
		if entry.IsDir() && !ignored(entry.Name()) {
			kids = append(kids, entry.Name())
		}
	}
	sort.Slice(kids, func(i, j int) bool {
		return strings.ToLower(kids[i]) < strings.ToLower(kids[j])
	})
	for i, kid := range kids {
		if i >= dirCap {
			break
		}
		node.Children = append(node.Children, walk(filepath.Join(path, kid), depth-1, dirCap))
	}
	return node
}
