package action

import (
	"vaultsort/internal/pathutil"
)

// Reporter receives a structured event for every proposal the sanitizer
// rejects or rewrites. Nothing is ever returned as an error: a bad proposal
// is dropped, logged, and the rest of the batch continues.
type Reporter func(event string, fields map[string]any)

// Sanitize validates and normalizes the raw proposed actions for the current
// target. Read-only actions pass through with the path defaulted to the
// current target; plan_move proposals go through full normalization. Only
// structurally valid, semantically safe actions are returned.
func Sanitize(rawActions []any, currentPath, inbox string, allowed []string, report Reporter) []Action {
	if report == nil {
		report = func(string, map[string]any) {}
	}
	currentPath = pathutil.NormPath(currentPath)

	var sane []Action
	for _, entry := range rawActions {
		raw, ok := entry.(map[string]any)
		if !ok {
			report("drop_bad_action", map[string]any{"reason": "not_dict"})
			continue
		}
		kind, ok := ParseKind(stringField(raw, "tool"))
		if !ok {
			report("drop_bad_action", map[string]any{"reason": "bad_tool", "action": raw})
			continue
		}

		switch kind {
		case KindListDir, KindInspectFile:
			path := stringField(raw, "path")
			if path == "" {
				path = currentPath
			}
			sane = append(sane, Action{Kind: kind, Path: pathutil.NormPath(path)})

		case KindPlanMove:
			normalized, notes, ok := NormalizePlanMove(raw, currentPath, inbox, allowed)
			if !ok {
				report("invalid_plan_move", map[string]any{"action": raw, "notes": notes})
				continue
			}
			if normalized.Subpath == "" {
				// Root-level drops are never silently permitted.
				report("drop_plan_move", map[string]any{"reason": "empty_subpath", "raw": raw})
				continue
			}
			if len(notes) > 0 {
				report("normalize_notes", map[string]any{"notes": notes, "subpath": normalized.Subpath, "root": normalized.Root})
			}
			sane = append(sane, normalized)
		}
	}
	return sane
}
