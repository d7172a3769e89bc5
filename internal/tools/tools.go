// Package tools implements the three filesystem tools the agent executes:
// directory listing, file inspection and the move primitive. Every function
// returns a structured result with an Err field instead of failing; no tool
// call may propagate a fault into the main loop.
package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"vaultsort/internal/config"
	"vaultsort/internal/inspect"
	"vaultsort/internal/pathutil"
)

// Entry is one child of a listed directory.
type Entry struct {
	Path  string `json:"path"`
	Name  string `json:"name"`
	IsDir bool   `json:"is_dir"`
	Size  int64  `json:"size"`
	Ext   string `json:"ext"`
	MTime int64  `json:"mtime"`
}

type ListResult struct {
	Items []Entry `json:"items"`
	Err   string  `json:"error,omitempty"`
}

// ListDir enumerates immediate children, skipping hidden entries, symlinks
// and the reserved drop folder. I/O errors are captured in Err with an
// empty item list.
func ListDir(path string) ListResult {
	entries, err := os.ReadDir(path)
	if err != nil {
		return ListResult{Items: []Entry{}, Err: fmt.Sprintf("list_dir:%v", err)}
	}
	out := ListResult{Items: []Entry{}}
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") || name == config.DropFolder {
			continue
		}
		if entry.Type()&os.ModeSymlink != 0 {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		out.Items = append(out.Items, Entry{
			Path:  filepath.Join(path, name),
			Name:  name,
			IsDir: entry.IsDir(),
			Size:  info.Size(),
			Ext:   strings.ToLower(filepath.Ext(name)),
			MTime: info.ModTime().Unix(),
		})
	}
	return out
}

// InspectResult carries the bounded fields the agent memoizes for a file.
type InspectResult struct {
	Path      string   `json:"path"`
	Name      string   `json:"name,omitempty"`
	Ext       string   `json:"ext,omitempty"`
	Size      int64    `json:"size,omitempty"`
	Group     string   `json:"group,omitempty"`
	Text      string   `json:"text,omitempty"`
	OCR       string   `json:"ocr,omitempty"`
	DurationS *float64 `json:"duration_s,omitempty"`
	Err       string   `json:"error,omitempty"`
}

// InspectFile collects lightweight information about a single file,
// dispatching on content group for text excerpts and media duration.
func InspectFile(ctx context.Context, path string) InspectResult {
	info, err := os.Stat(path)
	if err != nil {
		return InspectResult{Path: path, Err: "not_found"}
	}
	ext := strings.ToLower(filepath.Ext(path))
	res := InspectResult{
		Path:  path,
		Name:  filepath.Base(path),
		Ext:   ext,
		Size:  info.Size(),
		Group: inspect.GroupOf(path),
	}
	if ext == ".pdf" {
		res.Text = pathutil.CapText(inspect.ReadPDFText(path, 1500), 400)
	} else if res.Group == "image" {
		res.OCR = pathutil.CapText(inspect.OCRImage(ctx, path, 1500), 400)
	}
	if res.Group == "video" {
		if seconds, ok := inspect.FFProbeDuration(ctx, path); ok {
			res.DurationS = &seconds
		}
	}
	return res
}

type MoveResult struct {
	MovedTo string `json:"moved_to,omitempty"`
	Err     string `json:"error,omitempty"`
}

// sanitizeSegment strips separator injection and traversal from one subpath
// segment.
func sanitizeSegment(segment string) string {
	segment = strings.ReplaceAll(segment, string(os.PathSeparator), "_")
	segment = strings.ReplaceAll(segment, "\x00", "")
	segment = strings.TrimSpace(segment)
	switch segment {
	case "", ".", "..":
		return "_"
	}
	return segment
}

// PlanMove moves src under roots[destRoot]/subpath/filename. Every subpath
// segment is sanitized, the destination tree is created, and an existing
// directory destination is replaced (last-write-wins for folder-level
// escalation moves). In dry-run mode the resolved destination is returned
// without touching the filesystem.
func PlanMove(roots map[string]string, src, destRoot, subpath, filename string, dryRun bool) MoveResult {
	base, ok := roots[destRoot]
	if !ok {
		return MoveResult{Err: fmt.Sprintf("unknown destination_root: %s", destRoot)}
	}

	destDir := base
	for _, segment := range strings.Split(subpath, "/") {
		if segment == "" {
			continue
		}
		destDir = filepath.Join(destDir, sanitizeSegment(segment))
	}
	destPath := filepath.Join(destDir, pathutil.SafeASCII(filename))
	if dryRun {
		return MoveResult{MovedTo: destPath}
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return MoveResult{Err: err.Error()}
	}
	if srcInfo, err := os.Stat(src); err == nil && srcInfo.IsDir() {
		if pathutil.PathExists(destPath) {
			if err := os.RemoveAll(destPath); err != nil {
				return MoveResult{Err: err.Error()}
			}
		}
	}
	if err := os.Rename(src, destPath); err != nil {
		return MoveResult{Err: err.Error()}
	}
	return MoveResult{MovedTo: destPath}
}
