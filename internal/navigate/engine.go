// Package navigate walks a classification hierarchy from the root, asking an
// oracle to choose among children at each branch point and backtracking out
// of branches that cannot be resolved. Every decision is reported as an
// Event; each call emits exactly one final event, always last.
package navigate

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dgallion1/matclass/internal/hierarchy"
	"github.com/dgallion1/matclass/internal/oracle"
)

// Reasons attached to backtrack events.
const (
	ReasonBranchInvalid = "branch invalid, trying alternative"
	ReasonOnlyChild     = "only child failed, no alternative at this level"
)

// Stats counts what happened during one classification.
type Stats struct {
	OracleCalls    int `json:"oracle_calls"`
	AutoSteps      int `json:"auto_steps"`
	Backtracks     int `json:"backtracks"`
	Rejections     int `json:"rejections"`
	Invalid        int `json:"invalid"`
	Hallucinations int `json:"hallucinations"`
}

// Result is the outcome of one classification. When Resolved is false the
// result is the root and Suggestions lists the root's direct children.
type Result struct {
	Code        string             `json:"codigo_final"`
	Description string             `json:"descricao_final"`
	Path        []hierarchy.Option `json:"caminho"`
	Resolved    bool               `json:"resolved"`
	Suggestions []hierarchy.Option `json:"suggestions,omitempty"`
	Stats       Stats              `json:"stats"`
}

// Depth is the number of accepted steps.
func (r Result) Depth() int {
	return len(r.Path)
}

// Engine is safe for concurrent use; the tree is only read.
type Engine struct {
	tree   *hierarchy.Tree
	oracle oracle.Oracle
	log    *slog.Logger
}

func New(tree *hierarchy.Tree, o oracle.Oracle, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{tree: tree, oracle: o, log: log.With("component", "navigate")}
}

// WithOracle returns an engine over the same tree that consults o.
func (e *Engine) WithOracle(o oracle.Oracle) *Engine {
	return &Engine{tree: e.tree, oracle: o, log: e.log}
}

func (e *Engine) Tree() *hierarchy.Tree {
	return e.tree
}

// Classify runs the search for item, passing every event to emit in order.
// emit may be nil.
func (e *Engine) Classify(ctx context.Context, item string, emit func(Event)) Result {
	if emit == nil {
		emit = func(Event) {}
	}
	r := &run{
		ctx:  ctx,
		item: item,
		eng:  e,
		emit: emit,
		log:  e.log,
	}

	root := e.tree.Root()
	resolved := r.resolve(root)

	res := Result{
		Code:        root.Code,
		Description: root.Description,
		Path:        []hierarchy.Option{},
		Resolved:    resolved && len(r.path) > 0,
		Stats:       r.stats,
	}
	if res.Resolved {
		last := r.path[len(r.path)-1]
		res.Code, res.Description = last.Code, last.Description
		res.Path = append(res.Path, r.path...)
	} else {
		res.Suggestions = root.Options()
	}

	e.log.Debug("classification finished",
		"code", res.Code,
		"resolved", res.Resolved,
		"oracle_calls", res.Stats.OracleCalls,
		"backtracks", res.Stats.Backtracks,
	)
	emit(finalEvent(res.Code, res.Description, res.Path))
	return res
}

// Collect runs Classify and returns the full trace alongside the result.
func (e *Engine) Collect(ctx context.Context, item string) (Result, []Event) {
	var events []Event
	res := e.Classify(ctx, item, func(ev Event) { events = append(events, ev) })
	return res, events
}

// Stream runs Classify in its own goroutine. The channel is closed after the
// final event, which is always delivered; readers must drain the channel.
// Once ctx is done, other events the reader does not take are dropped.
func (e *Engine) Stream(ctx context.Context, item string) <-chan Event {
	ch := make(chan Event, 16)
	go func() {
		defer close(ch)
		e.Classify(ctx, item, func(ev Event) {
			if ev.Type == EventFinal {
				ch <- ev
				return
			}
			select {
			case ch <- ev:
			case <-ctx.Done():
			}
		})
	}()
	return ch
}

// run is the per-call navigation state.
type run struct {
	ctx   context.Context
	item  string
	eng   *Engine
	emit  func(Event)
	log   *slog.Logger
	path  []hierarchy.Option
	stats Stats
}

func (r *run) push(n *hierarchy.Node, auto bool) {
	o := n.Option()
	r.path = append(r.path, o)
	if auto {
		r.stats.AutoSteps++
	}
	r.emit(stepEvent(o, auto))
}

func (r *run) pop(n *hierarchy.Node, reason string) {
	r.path = r.path[:len(r.path)-1]
	r.stats.Backtracks++
	r.emit(backtrackEvent(n.Code, reason))
}

// resolve reports whether the subtree rooted at n reaches a leaf. On failure
// the path is left as it was on entry.
func (r *run) resolve(n *hierarchy.Node) bool {
	children := n.Children()
	switch len(children) {
	case 0:
		// The root of an empty tree is not an answer.
		return !n.IsRoot()
	case 1:
		child := children[0]
		r.push(child, true)
		if r.resolve(child) {
			return true
		}
		r.pop(child, ReasonOnlyChild)
		return false
	}

	pool := children
	for len(pool) > 0 {
		if err := r.ctx.Err(); err != nil {
			r.emit(infoEvent("classification cancelled at %s: %v", n.Code, err))
			return false
		}

		opts := make([]hierarchy.Option, len(pool))
		for i, c := range pool {
			opts[i] = c.Option()
		}
		r.emit(candidatesEvent(opts))

		d := r.eng.oracle.Decide(r.ctx, r.item, opts)
		r.stats.OracleCalls++

		switch d.Kind {
		case oracle.NoMatch:
			r.stats.Rejections++
			r.emit(infoEvent("no match under %s: %s", n.Code, d.Reason))
			return false
		case oracle.Invalid:
			r.stats.Invalid++
			r.log.Warn("invalid oracle answer", "node", n.Code, "reason", d.Reason)
			r.emit(infoEvent("invalid oracle answer under %s: %s", n.Code, d.Reason))
			return false
		}

		idx := canonicalize(d.Code, pool)
		if idx < 0 {
			r.stats.Hallucinations++
			r.log.Warn("hallucinated code", "node", n.Code, "code", d.Code)
			r.emit(infoEvent("hallucination: code %q is not an option under %s", d.Code, n.Code))
			return false
		}

		child := pool[idx]
		r.push(child, false)
		if r.resolve(child) {
			return true
		}
		r.pop(child, ReasonBranchInvalid)
		pool = without(pool, idx)
	}

	r.emit(infoEvent("pool exhausted under %s", n.Code))
	return false
}

// canonicalize maps a raw oracle code onto an index into pool, or -1. The
// raw code is trimmed and matched exactly; failing that, the token before
// the first space or colon is tried once.
func canonicalize(raw string, pool []*hierarchy.Node) int {
	code := strings.TrimSpace(raw)
	if i := indexOf(pool, code); i >= 0 {
		return i
	}
	if cut := strings.IndexAny(code, " :"); cut >= 0 {
		return indexOf(pool, strings.TrimSpace(code[:cut]))
	}
	return -1
}

func indexOf(pool []*hierarchy.Node, code string) int {
	if code == "" {
		return -1
	}
	for i, n := range pool {
		if n.Code == code {
			return i
		}
	}
	return -1
}

func without(pool []*hierarchy.Node, idx int) []*hierarchy.Node {
	out := make([]*hierarchy.Node, 0, len(pool)-1)
	out = append(out, pool[:idx]...)
	return append(out, pool[idx+1:]...)
}
