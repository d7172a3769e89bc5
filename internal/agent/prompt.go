package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"vaultsort/internal/snapshot"
)

const promptMemWindow = 12

// memEntry is one record of the rolling tool memory. Entries are serialized
// into the prompt verbatim, so field names are part of the model contract.
type memEntry struct {
	Tool        string       `json:"tool"`
	Path        string       `json:"path,omitempty"`
	ResultCount int          `json:"result_count,omitempty"`
	Result      *slimInspect `json:"result,omitempty"`
	Note        string       `json:"note,omitempty"`
	Owner       string       `json:"owner,omitempty"`
}

// slimInspect carries only the inspection fields the model needs to route a
// file. Paths and error strings stay out of the prompt.
type slimInspect struct {
	Group     string   `json:"group"`
	Ext       string   `json:"ext"`
	Size      int64    `json:"size"`
	Text      string   `json:"text,omitempty"`
	OCR       string   `json:"ocr,omitempty"`
	DurationS *float64 `json:"duration_s,omitempty"`
}

type currentTarget struct {
	Path              string            `json:"path"`
	Name              string            `json:"name"`
	Ext               string            `json:"ext"`
	IsDir             bool              `json:"is_dir"`
	Size              int64             `json:"size"`
	GroupHint         string            `json:"group_hint"`
	PNGAssetHint      bool              `json:"png_asset_hint,omitempty"`
	DirContentSummary *snapshot.Summary `json:"dir_content_summary,omitempty"`
}

type observation struct {
	Step             int                       `json:"step"`
	CurrentTarget    currentTarget             `json:"CURRENT_TARGET"`
	DestinationTrees map[string]*snapshot.Node `json:"DESTINATION_TREES,omitempty"`
}

var promptTools = map[string]bool{
	"list_dir":     true,
	"inspect_file": true,
	"owner_hint":   true,
	"policy_hint":  true,
}

// systemPrompt states the action schema and the routing rules. Allowed root
// patterns are interpolated so the model never sees a destination it cannot
// use.
func systemPrompt(allowed []string) string {
	return fmt.Sprintf(`You are a file organizer. You move files from an inbox into a vault.

Respond with ONE JSON object and nothing else:
{"actions": [{"tool": "...", ...}]}

Tools:
- {"tool": "list_dir", "path": "<abs dir>"}
- {"tool": "inspect_file", "path": "<abs file>"}
- {"tool": "plan_move", "src": "<abs path>", "destination_root": "<root>", "subpath": "<rel dir>", "filename": "<name>"}

Allowed destinations: %s

Rules:
- Probe first with list_dir or inspect_file when you lack evidence.
- When asked to DECIDE, respond with exactly one plan_move and no other tool.
- destination_root must be one of the allowed roots. subpath is relative, no leading slash.
- Keep related files together. Prefer an existing destination folder over inventing a new one.
- Never invent paths you have not observed.

VALID example:
{"actions": [{"tool": "plan_move", "src": "/vault/INBOX/report.pdf", "destination_root": "Documents", "subpath": "Finance/2025", "filename": "report.pdf"}]}`,
		strings.Join(allowed, ", "))
}

// buildPrompt assembles system rules, the recent tool memory window, and the
// current observation into one completion prompt.
func buildPrompt(system string, mem []memEntry, obs observation) string {
	window := make([]memEntry, 0, promptMemWindow)
	for i := len(mem) - 1; i >= 0 && len(window) < promptMemWindow; i-- {
		if promptTools[mem[i].Tool] {
			window = append(window, mem[i])
		}
	}
	for i, j := 0, len(window)-1; i < j; i, j = i+1, j-1 {
		window[i], window[j] = window[j], window[i]
	}

	memJSON, _ := json.Marshal(window)
	obsJSON, _ := json.Marshal(obs)

	var b strings.Builder
	b.WriteString(system)
	b.WriteString("\nRECENT_TOOL_OBS:\n")
	b.Write(memJSON)
	b.WriteString("\nOBSERVATION:\n")
	b.Write(obsJSON)
	b.WriteString("\nRespond with the JSON object now.")
	return b.String()
}

func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
