package agent

import (
	"path/filepath"
	"strings"
)

// Directory names treated as machine-generated dependency or build output.
// Anything inside one of these is never traversed, inspected, or moved.
var depDirNames = map[string]bool{
	"node_modules":     true,
	"bower_components": true,
	"vendor":           true,
	".venv":            true,
	"venv":             true,
	".pip":             true,
	".mypy_cache":      true,
	".git":             true,
	".svn":             true,
	".hg":              true,
	"build":            true,
	"dist":             true,
	"target":           true,
	".next":            true,
	".cache":           true,
}

// InDepDir reports whether any path segment names a dependency directory.
func InDepDir(path string) bool {
	for _, seg := range strings.Split(filepath.ToSlash(path), "/") {
		if depDirNames[seg] {
			return true
		}
	}
	return false
}
