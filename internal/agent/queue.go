package agent

import (
	"os"
	"path/filepath"
	"strings"
)

// Queue is the traversal work queue: a double-ended sequence owned
// exclusively by the runner. Directory expansion pushes children to the
// front (depth-first); deferral rotates the front item to the back.
type Queue struct {
	items []string
}

func NewQueue(items []string) *Queue {
	q := &Queue{items: make([]string, len(items))}
	copy(q.items, items)
	return q
}

func (q *Queue) Len() int { return len(q.items) }

func (q *Queue) Front() (string, bool) {
	if len(q.items) == 0 {
		return "", false
	}
	return q.items[0], true
}

func (q *Queue) PopFront() (string, bool) {
	if len(q.items) == 0 {
		return "", false
	}
	front := q.items[0]
	q.items = q.items[1:]
	return front, true
}

// PushFront prepends items preserving their order: items[0] becomes the new
// front.
func (q *Queue) PushFront(items []string) {
	if len(items) == 0 {
		return
	}
	merged := make([]string, 0, len(items)+len(q.items))
	merged = append(merged, items...)
	merged = append(merged, q.items...)
	q.items = merged
}

// Rotate defers the front item to the back of the queue.
func (q *Queue) Rotate() {
	if len(q.items) < 2 {
		return
	}
	front := q.items[0]
	copy(q.items, q.items[1:])
	q.items[len(q.items)-1] = front
}

func resolvePath(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	return filepath.Clean(path)
}

// PurgeUnder removes every queued item whose resolved path equals the moved
// path or lies beneath it; items outside that subtree keep their relative
// order.
func (q *Queue) PurgeUnder(moved string) {
	movedRes := resolvePath(moved)
	prefix := movedRes + string(os.PathSeparator)
	keep := q.items[:0]
	for _, item := range q.items {
		res := resolvePath(item)
		if res == movedRes || strings.HasPrefix(res, prefix) {
			continue
		}
		keep = append(keep, item)
	}
	q.items = keep
}

// Items returns a copy of the queue contents, front first.
func (q *Queue) Items() []string {
	out := make([]string, len(q.items))
	copy(out, q.items)
	return out
}
