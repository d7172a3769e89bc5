// Package agent drives the traversal loop: it owns the work queue, the
// per-target probe/decide stages, the rolling tool memory and the execution
// of sanitized plan_move actions.
package agent

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"vaultsort/internal/action"
	"vaultsort/internal/cohesion"
	"vaultsort/internal/config"
	"vaultsort/internal/inspect"
	"vaultsort/internal/llm"
	"vaultsort/internal/pathutil"
	"vaultsort/internal/runlog"
	"vaultsort/internal/snapshot"
	"vaultsort/internal/state"
	"vaultsort/internal/tools"
)

// Completer produces model completions. *llm.Client satisfies it; tests
// substitute scripted replies.
type Completer interface {
	Complete(ctx context.Context, prompt string, nPredict int) (llm.Envelope, string)
}

type stageID int

const (
	stageLight stageID = iota
	stageDecide
)

func (s stageID) String() string {
	if s == stageDecide {
		return "decide"
	}
	return "light"
}

const (
	decidePredict    = 256
	docTreeDepth     = 3
	mediaTreeDepth   = 2
	projTreeDepth    = 1
	recentListWindow = 64
)

// Runner holds the full traversal state for one organizing session.
type Runner struct {
	cfg       *config.Config
	model     Completer
	log       *runlog.Logger
	db        *state.DB
	sessionID string

	people  config.PeopleConfig
	allowed []string
	system  string

	queue       *Queue
	stage       map[string]stageID
	inspected   map[string]int
	decideFails map[string]int
	mem         []memEntry
	votes       *cohesion.Tracker

	snapDocs  *snapshot.Node
	snapMedia *snapshot.Node
	snapProj  *snapshot.Node
	snapFresh int

	step int
}

func NewRunner(cfg *config.Config, model Completer, log *runlog.Logger, db *state.DB, sessionID string) *Runner {
	allowed := action.AllowedRootNames(config.AllowedDestinations())
	return &Runner{
		cfg:         cfg,
		model:       model,
		log:         log,
		db:          db,
		sessionID:   sessionID,
		people:      config.LoadPeople(),
		allowed:     allowed,
		system:      systemPrompt(allowed),
		queue:       NewQueue(nil),
		stage:       map[string]stageID{},
		inspected:   map[string]int{},
		decideFails: map[string]int{},
		votes:       cohesion.NewTracker(cohesion.Thresholds{
			MinVotes:    cfg.Cohesion.MinVotes,
			PurityMin:   cfg.Cohesion.PurityMin,
			EntropyMax:  cfg.Cohesion.EntropyMax,
			MaxChildren: cfg.Cohesion.MaxChildren,
		}),
	}
}

// Seed fills the queue with the inbox's visible, non-symlink children,
// ordered case-insensitively by name.
func (r *Runner) Seed() error {
	entries, err := os.ReadDir(r.cfg.Inbox())
	if err != nil {
		return err
	}
	var items []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") || name == config.DropFolder {
			continue
		}
		if e.Type()&os.ModeSymlink != 0 {
			continue
		}
		items = append(items, pathutil.NormPath(filepath.Join(r.cfg.Inbox(), name)))
	}
	sort.Slice(items, func(i, j int) bool {
		return strings.ToLower(filepath.Base(items[i])) < strings.ToLower(filepath.Base(items[j]))
	})
	r.queue = NewQueue(items)
	return nil
}

// Run processes the queue until it drains, the step limit is reached or the
// context is canceled.
func (r *Runner) Run(ctx context.Context) error {
	r.log.Event("start",
		zap.String("inbox", r.cfg.Inbox()),
		zap.Int("queue_size", r.queue.Len()),
		zap.Bool("dry_run", r.cfg.Run.DryRun))

	for r.queue.Len() > 0 && r.step < r.cfg.Run.MaxSteps {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.step++

		front, _ := r.queue.Front()
		target := pathutil.NormPath(front)

		if InDepDir(target) {
			r.log.Event("skip_dependency_dir", zap.String("path", target))
			r.queue.PopFront()
			continue
		}

		st := r.stage[target]
		r.log.Event("step",
			zap.Int("step", r.step),
			zap.String("target", target),
			zap.String("stage", st.String()),
			zap.Int("queue_size", r.queue.Len()))

		info, statErr := os.Lstat(target)
		exists := statErr == nil
		isDir := exists && info.IsDir()

		// A directory whose listing is not in the recent window always
		// re-expands, whatever stage it reached before.
		if isDir && !r.recentlyListed(target) {
			r.expandDir(target, true)
			continue
		}

		obs := r.observe(target, exists, isDir, info)

		if st == stageLight {
			r.lightStage(ctx, target, exists, isDir, obs)
			continue
		}
		r.decideStage(ctx, target, obs)
	}

	r.log.Event("done", zap.Int("steps", r.step), zap.Int("queue_left", r.queue.Len()))
	return nil
}

func (r *Runner) observe(target string, exists, isDir bool, info os.FileInfo) observation {
	cur := currentTarget{
		Path:      target,
		Name:      filepath.Base(target),
		Ext:       strings.ToLower(filepath.Ext(target)),
		IsDir:     isDir,
		GroupHint: "other",
	}
	if exists {
		cur.Size = info.Size()
		cur.GroupHint = inspect.GroupOf(target)
		if !isDir && cur.Ext == ".png" {
			cur.PNGAssetHint = inspect.IsGraphicAssetPNG(target)
		}
		if isDir {
			s := snapshot.ContentSummary(target)
			cur.DirContentSummary = &s
		}
	}
	return observation{Step: r.step, CurrentTarget: cur}
}

// recentlyListed reports whether the path was listed within the recent
// memory window, which marks an already-expanded directory.
func (r *Runner) recentlyListed(path string) bool {
	n := 0
	for i := len(r.mem) - 1; i >= 0 && n < recentListWindow; i-- {
		n++
		if r.mem[i].Tool == "list_dir" && r.mem[i].Path == path {
			return true
		}
	}
	return false
}

// expandDir lists a directory, records the listing in memory, and pushes the
// visible children to the queue front in name order.
func (r *Runner) expandDir(path string, popCurrent bool) {
	res := tools.ListDir(path)
	var kids []string
	for _, item := range res.Items {
		p := pathutil.NormPath(item.Path)
		if InDepDir(p) {
			r.log.Event("skip_dependency_dir", zap.String("path", p))
			continue
		}
		kids = append(kids, p)
	}
	sort.Slice(kids, func(i, j int) bool {
		return strings.ToLower(filepath.Base(kids[i])) < strings.ToLower(filepath.Base(kids[j]))
	})

	r.remember(memEntry{Tool: "list_dir", Path: path, ResultCount: len(res.Items)})
	r.log.Event("list_dir",
		zap.Int("step", r.step),
		zap.String("path", path),
		zap.Int("result_count", len(res.Items)),
		zap.Int("queued", len(kids)),
		zap.String("error", res.Err))

	if popCurrent {
		r.queue.PopFront()
	}
	r.queue.PushFront(kids)
}

func (r *Runner) remember(e memEntry) {
	r.mem = append(r.mem, e)
}

// lightStage runs one cheap probe for the target. Probes transition the
// target to the decide stage; a non-compliant reply with no obvious probe
// rotates the target to the back of the queue.
func (r *Runner) lightStage(ctx context.Context, target string, exists, isDir bool, obs observation) {
	prompt := buildPrompt(r.system, r.mem, obs)
	r.log.Event("prompt_light", zap.Int("step", r.step), zap.Int("prompt_len", len(prompt)))

	env, raw := r.model.Complete(ctx, prompt, r.cfg.LLM.FirstCallPredict)
	r.log.Event("llm_raw_light",
		zap.Int("step", r.step),
		zap.Int("raw_len", len(raw)),
		zap.String("head", head(raw, 256)),
		zap.String("error", env.Err))

	acts := action.Sanitize(env.Actions, target, r.cfg.Inbox(), r.allowed, r.log.Report)
	var probes []action.Action
	for _, a := range acts {
		if a.Kind == action.KindListDir || a.Kind == action.KindInspectFile {
			probes = append(probes, a)
		}
	}

	if len(probes) == 0 {
		if exists && !isDir && r.inspected[target] == 0 {
			probes = []action.Action{{Kind: action.KindInspectFile, Path: target}}
		} else {
			r.log.Event("no_progress_rotate", zap.Int("step", r.step), zap.String("target", target))
			r.queue.Rotate()
			return
		}
	}

	a := probes[0]
	path := pathutil.NormPath(a.Path)
	if InDepDir(path) {
		r.log.Event("skip_dependency_dir", zap.String("path", path))
		r.queue.Rotate()
		return
	}

	switch a.Kind {
	case action.KindInspectFile:
		if r.inspected[path] >= r.cfg.Run.InspectCapPerFile {
			r.stage[target] = stageDecide
			return
		}
		res := tools.InspectFile(ctx, path)
		r.inspected[path]++
		r.remember(memEntry{Tool: "inspect_file", Path: path, Result: slimResult(res)})
		r.log.Event("inspect_file",
			zap.Int("step", r.step),
			zap.String("path", path),
			zap.String("group", res.Group),
			zap.Int64("size", res.Size),
			zap.String("error", res.Err))
		r.stage[target] = stageDecide
	case action.KindListDir:
		r.expandDir(path, true)
		r.stage[target] = stageDecide
	}
}

func slimResult(res tools.InspectResult) *slimInspect {
	return &slimInspect{
		Group:     res.Group,
		Ext:       res.Ext,
		Size:      res.Size,
		Text:      res.Text,
		OCR:       res.OCR,
		DurationS: res.DurationS,
	}
}

func (r *Runner) refreshSnapshots() {
	if r.snapFresh > 0 && r.step < r.snapFresh {
		return
	}
	start := time.Now()
	dirCap := r.cfg.Run.SnapshotDirCap
	r.snapDocs = snapshot.Tree(r.cfg.Docs(), docTreeDepth, dirCap)
	r.snapMedia = snapshot.Tree(r.cfg.Media(), mediaTreeDepth, dirCap)
	r.snapProj = snapshot.Tree(r.cfg.Proj(), projTreeDepth, dirCap)
	r.snapFresh = r.step + r.cfg.Run.SnapshotTTLSteps
	r.log.Event("snap_refresh",
		zap.Int("step", r.step),
		zap.Int64("elapsed_ms", time.Since(start).Milliseconds()))
}

// decideStage asks for exactly one plan_move, retrying once with a policy
// hint, then executes the surviving move.
func (r *Runner) decideStage(ctx context.Context, target string, obs observation) {
	r.refreshSnapshots()
	obs.DestinationTrees = map[string]*snapshot.Node{
		"Documents": r.snapDocs,
		"Media":     r.snapMedia,
		"Projects":  r.snapProj,
	}

	moves := r.askDecide(ctx, target, obs, "")
	if len(moves) == 0 {
		moves = r.askDecide(ctx, target, obs,
			"You must answer with exactly one plan_move for CURRENT_TARGET and nothing else.")
	}
	if len(moves) == 0 {
		r.decideFails[target]++
		fails := r.decideFails[target]
		r.log.Event("decide_noncompliance",
			zap.Int("step", r.step),
			zap.String("target", target),
			zap.Int("fails", fails))
		if fails >= r.cfg.Run.MaxRetryPerTarget {
			r.log.Event("target_skipped", zap.String("target", target), zap.Int("fails", fails))
			r.queue.PopFront()
			delete(r.stage, target)
			delete(r.decideFails, target)
		} else {
			r.queue.Rotate()
		}
		return
	}

	r.execMove(ctx, moves[0])
}

func (r *Runner) askDecide(ctx context.Context, target string, obs observation, note string) []action.Action {
	if note != "" {
		r.remember(memEntry{Tool: "policy_hint", Note: note})
	}
	prompt := buildPrompt(r.system, r.mem, obs)
	r.log.Event("prompt_full", zap.Int("step", r.step), zap.Int("prompt_len", len(prompt)))

	env, raw := r.model.Complete(ctx, prompt, decidePredict)
	r.log.Event("llm_raw_decide",
		zap.Int("step", r.step),
		zap.Int("raw_len", len(raw)),
		zap.String("head", head(raw, 256)),
		zap.String("error", env.Err))
	r.log.Event("plan_parsed",
		zap.Int("actions_len", len(env.Actions)),
		zap.String("error", env.Err))

	acts := action.Sanitize(env.Actions, target, r.cfg.Inbox(), r.allowed, r.log.Report)
	r.log.Event("plan_sanitized", zap.Int("count", len(acts)))

	var moves []action.Action
	for _, a := range acts {
		if a.Kind == action.KindPlanMove {
			moves = append(moves, a)
		}
	}
	return moves
}

func samePath(a, b string) bool {
	return resolvePath(a) == resolvePath(b)
}

// execMove re-verifies the source, applies folder-consensus escalation for
// files, resolves the owner hint and performs the move.
func (r *Runner) execMove(ctx context.Context, mv action.Action) {
	src := pathutil.NormPath(mv.Src)
	if src == "" || !pathutil.PathExists(src) {
		r.log.Event("invalid_plan_move",
			zap.String("src", src),
			zap.String("reason", "src_not_exists"))
		r.queue.Rotate()
		return
	}
	if InDepDir(src) {
		r.log.Event("skip_dependency_dir", zap.String("path", src))
		r.queue.Rotate()
		return
	}

	info, err := os.Lstat(src)
	srcIsFile := err == nil && !info.IsDir()
	parent := pathutil.NormPath(filepath.Dir(src))

	r.votes.Note(parent, src, mv.Root, mv.Subpath)
	if srcIsFile && !samePath(parent, r.cfg.Inbox()) {
		if dest, ok := r.votes.Consensus(parent); ok {
			r.log.Event("cohesion_escalate",
				zap.String("parent", parent),
				zap.String("dest_root", dest.Root),
				zap.String("subpath", dest.Subpath))
			src = parent
			mv.Src = parent
			mv.Root = dest.Root
			mv.Subpath = dest.Subpath
			if !pathutil.PathExists(src) {
				r.log.Event("invalid_plan_move",
					zap.String("src", src),
					zap.String("reason", "src_not_exists"))
				r.queue.Rotate()
				return
			}
		}
	}

	owner := detectOwnerForPath(r.people, src, r.recentInspect(src))
	if owner == "" {
		seg, _, _ := strings.Cut(mv.Subpath, "/")
		owner = r.people.NormalizeOwnerLabel(seg)
	}
	if owner == "" {
		owner = r.people.Fallback
	}
	if owner != "" {
		r.remember(memEntry{Tool: "owner_hint", Path: src, Owner: owner})
	}

	// The oracle never renames: whatever the plan's filename field said,
	// the moved entry keeps its own sanitized basename.
	finalName := pathutil.SafeASCII(filepath.Base(src))

	r.log.Event("plan_move_exec",
		zap.Int("step", r.step),
		zap.String("src", src),
		zap.String("dest_root", mv.Root),
		zap.String("subpath", mv.Subpath),
		zap.String("filename", finalName),
		zap.String("owner_hint", owner),
		zap.Bool("dry_run", r.cfg.Run.DryRun))

	res := tools.PlanMove(r.cfg.DestRoots(), src, mv.Root, mv.Subpath, finalName, r.cfg.Run.DryRun)
	r.log.Event("plan_move_done",
		zap.String("src", src),
		zap.String("moved_to", res.MovedTo),
		zap.String("error", res.Err))

	if res.Err != "" {
		r.queue.Rotate()
		return
	}
	if r.db != nil && !r.cfg.Run.DryRun {
		_ = r.db.RecordMove(ctx, r.sessionID, state.Move{
			Src:      src,
			Dest:     res.MovedTo,
			DestRoot: mv.Root,
			Subpath:  mv.Subpath,
			Owner:    owner,
		})
	}

	// Only the moved path leaves the queue. A target that was not what
	// actually moved stays at the front and is decided again next step.
	r.queue.PurgeUnder(src)
	if front, ok := r.queue.Front(); ok && pathutil.NormPath(front) == src {
		r.queue.PopFront()
	}
	delete(r.stage, src)
	delete(r.decideFails, src)
}

// recentInspect returns the newest inspection memory for the path within the
// configured lookback window.
func (r *Runner) recentInspect(path string) *slimInspect {
	n := 0
	for i := len(r.mem) - 1; i >= 0 && n < r.cfg.Run.MemLimit; i-- {
		n++
		if r.mem[i].Tool == "inspect_file" && r.mem[i].Path == path {
			return r.mem[i].Result
		}
	}
	return nil
}
