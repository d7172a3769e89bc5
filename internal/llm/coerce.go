package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Envelope is the normalized shape of a model reply: a list of raw proposed
// actions plus an error tag when recovery was needed. Actions is never nil.
type Envelope struct {
	Actions []any
	Err     string
}

func emptyEnvelope(tag string) Envelope {
	return Envelope{Actions: []any{}, Err: tag}
}

func envelopeFrom(obj map[string]any) Envelope {
	env := Envelope{Actions: []any{}}
	if list, ok := obj["actions"].([]any); ok {
		env.Actions = list
	}
	if tag, ok := obj["error"].(string); ok {
		env.Err = tag
	}
	return env
}

var (
	controlChars = regexp.MustCompile("[\x00-\x08\x0b\x0c\x0e-\x1f]")
	anyBraceSpan = regexp.MustCompile(`(?s)\{.*?\}`)
)

func parseObject(fragment string) (map[string]any, bool) {
	var v any
	if err := json.Unmarshal([]byte(fragment), &v); err != nil {
		return nil, false
	}
	obj, ok := v.(map[string]any)
	return obj, ok
}

// Coerce extracts an action envelope from arbitrary model text. The recovery
// strategies run in order and stop at the first success:
//
//  1. strict parse of the control-character-stripped text
//  2. balanced-brace scan for the first top-level object containing "actions"
//  3. non-greedy regex match of the first {...} span
//
// It never fails: unparsable input degrades to an error-tagged empty
// envelope, which callers must treat as "no actions".
func Coerce(raw string) Envelope {
	txt := controlChars.ReplaceAllString(strings.TrimSpace(raw), "")

	if obj, ok := parseObject(txt); ok {
		return envelopeFrom(obj)
	}
	var v any
	if json.Unmarshal([]byte(txt), &v) == nil {
		return emptyEnvelope("not_dict_root")
	}

	if frag := firstBalancedWithActions(txt); frag != "" {
		if obj, ok := parseObject(frag); ok {
			return envelopeFrom(obj)
		}
	}

	if frag := anyBraceSpan.FindString(txt); frag != "" {
		if obj, ok := parseObject(frag); ok {
			return envelopeFrom(obj)
		}
		return emptyEnvelope("parse_coerce_fail")
	}
	return emptyEnvelope("no_braces")
}

// firstBalancedWithActions scans left to right tracking string and escape
// state, returning the first balanced top-level {...} block whose text
// mentions "actions".
func firstBalancedWithActions(t string) string {
	inStr, esc := false, false
	depth, start := 0, -1
	for i := 0; i < len(t); i++ {
		ch := t[i]
		if inStr {
			switch {
			case esc:
				esc = false
			case ch == '\\':
				esc = true
			case ch == '"':
				inStr = false
			}
			continue
		}
		switch ch {
		case '"':
			inStr = true
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start != -1 {
					frag := t[start : i+1]
					if strings.Contains(frag, `"actions"`) {
						return frag
					}
				}
			}
		}
	}
	return ""
}
