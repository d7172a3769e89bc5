// Package action defines the closed set of tool actions the model may
// propose and the sanitizer that turns raw proposals into safe, normalized
// actions.
package action

import (
	"path/filepath"
	"sort"
	"strings"

	"vaultsort/internal/pathutil"
)

// Kind is the closed action discriminator. Adding a kind is a compile-time
// visible change: every switch over Kind must handle it.
type Kind int

const (
	KindListDir Kind = iota
	KindInspectFile
	KindPlanMove
)

func (k Kind) String() string {
	switch k {
	case KindListDir:
		return "list_dir"
	case KindInspectFile:
		return "inspect_file"
	case KindPlanMove:
		return "plan_move"
	}
	return "unknown"
}

// ParseKind maps the wire-level tool name onto a Kind.
func ParseKind(s string) (Kind, bool) {
	switch strings.TrimSpace(s) {
	case "list_dir":
		return KindListDir, true
	case "inspect_file":
		return KindInspectFile, true
	case "plan_move":
		return KindPlanMove, true
	}
	return 0, false
}

// Action is the tagged variant for the three tool kinds. Path carries the
// target for the read-only kinds; the remaining fields belong to plan_move.
type Action struct {
	Kind     Kind
	Path     string
	Src      string
	Root     string
	Subpath  string
	Filename string
}

func normKey(v string) string {
	return strings.ToLower(strings.Trim(strings.TrimSpace(v), "/"))
}

var canonicalRoots = map[string]string{
	"documents": "Documents",
	"media":     "Media",
	"projects":  "Projects",
}

// AllowedRootNames derives the canonical root labels from the configured
// destination patterns plus the default English labels.
func AllowedRootNames(patterns []string) []string {
	unique := map[string]bool{}
	add := func(root string) {
		root = strings.Trim(strings.TrimSpace(root), "/")
		if root == "" {
			return
		}
		if canon, ok := canonicalRoots[normKey(root)]; ok {
			root = canon
		}
		unique[root] = true
	}
	for _, pattern := range patterns {
		add(strings.SplitN(pattern, "/", 2)[0])
	}
	for _, canon := range canonicalRoots {
		add(canon)
	}
	labels := make([]string, 0, len(unique))
	for label := range unique {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// RootAliases maps normalized labels to their canonical root name. The
// default English labels always resolve even when the configured labels
// override them.
func RootAliases(labels []string) map[string]string {
	aliases := map[string]string{}
	for _, label := range labels {
		aliases[normKey(label)] = label
	}
	for key, canon := range canonicalRoots {
		aliases[key] = canon
	}
	return aliases
}

// autoSplitRoot handles model replies that pack a subpath into the root,
// e.g. "Documents/Finance/2023": when the head resolves through the alias
// map it becomes the root and the tail is handed back for subpath
// prepending.
func autoSplitRoot(rawRoot string, aliases map[string]string) (root, extra string, split bool) {
	parts := strings.SplitN(rawRoot, "/", 2)
	if len(parts) != 2 {
		return rawRoot, "", false
	}
	if canon, ok := aliases[normKey(parts[0])]; ok {
		return canon, strings.Trim(strings.TrimSpace(parts[1]), "/"), true
	}
	return rawRoot, "", false
}

func stringField(raw map[string]any, key string) string {
	v, _ := raw[key].(string)
	return strings.TrimSpace(v)
}

// NormalizePlanMove validates and normalizes a raw plan_move proposal.
// Returned notes record the normalizations applied; ok is false when the
// action cannot be made safe (unknown root). An empty subpath is derived
// from the source's inbox-relative parent, then defaults to "Unsorted".
func NormalizePlanMove(raw map[string]any, currentPath, inbox string, allowed []string) (Action, []string, bool) {
	var notes []string

	src := stringField(raw, "src")
	if src == "" {
		src = currentPath
	}
	rawRoot := stringField(raw, "destination_root")
	subpath := strings.Trim(stringField(raw, "subpath"), "/")
	filename := stringField(raw, "filename")
	if filename == "" {
		filename = filepath.Base(src)
	}

	aliases := RootAliases(allowed)
	root := strings.Trim(rawRoot, "/")
	if canon, ok := aliases[normKey(rawRoot)]; ok {
		root = canon
	}

	if head, extra, split := autoSplitRoot(root, aliases); split {
		notes = append(notes, "auto_split_root_subpath")
		root = head
		parts := make([]string, 0, 2)
		if extra != "" {
			parts = append(parts, extra)
		}
		if subpath != "" {
			parts = append(parts, subpath)
		}
		subpath = strings.Join(parts, "/")
	}

	allowedSet := map[string]bool{}
	for _, label := range allowed {
		allowedSet[normKey(label)] = true
	}
	if !allowedSet[normKey(root)] {
		return Action{}, append(notes, "invalid_root"), false
	}

	if subpath == "" {
		subpath = deriveSubpath(src, inbox)
	}
	if filename == "" {
		filename = "unnamed"
	}
	filename = pathutil.SafeASCII(filename)

	return Action{
		Kind:     KindPlanMove,
		Src:      pathutil.NormPath(src),
		Root:     root,
		Subpath:  subpath,
		Filename: filename,
	}, notes, true
}

// deriveSubpath places a source with no stated subpath under its own parent
// folder relative to the inbox, or "Unsorted" when the source sits at the
// inbox top level or outside the inbox entirely.
func deriveSubpath(src, inbox string) string {
	rel, err := filepath.Rel(pathutil.NormPath(inbox), pathutil.NormPath(src))
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "Unsorted"
	}
	parent := filepath.Dir(rel)
	if parent == "." || parent == "/" {
		return "Unsorted"
	}
	return strings.Trim(filepath.ToSlash(parent), "/")
}
