package executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/hanpama/graphview/internal/backend"
	"github.com/hanpama/graphview/internal/execctx"
	"github.com/hanpama/graphview/internal/querytree"
	"github.com/hanpama/graphview/internal/result"
	"github.com/hanpama/graphview/internal/tmpl"
)

// ErrTooManyQueries is returned when a request needs more backend calls than
// Options.MaxExecutions allows.
var ErrTooManyQueries = errors.New("executor: query limit exceeded")

// Options configures an Executor.
type Options struct {
	// MaxExecutions bounds backend calls per request; 0 means unlimited.
	MaxExecutions int
	// Record keeps every rendered query in Result.Trace.
	Record bool
}

type Option func(*Options)

func WithMaxExecutions(n int) Option { return func(o *Options) { o.MaxExecutions = n } }
func WithRecord(on bool) Option      { return func(o *Options) { o.Record = on } }

// Executor is safe for concurrent use as long as its Backend is.
type Executor struct {
	backend backend.Backend
	opts    Options
}

func NewExecutor(b backend.Backend, opts ...Option) *Executor {
	var o Options
	for _, f := range opts {
		f(&o)
	}
	return &Executor{backend: b, opts: o}
}

// Trace is one node instance as executed.
type Trace struct {
	Node  string
	Query string
	// Skipped is set when the template rendered empty or the node is a
	// pass-through.
	Skipped bool
	Rows    int
}

// Result is a completed execution.
type Result struct {
	// Root is the synthetic root row holding the results of top-level nodes.
	Root *result.Row
	// Queries counts backend calls.
	Queries int
	Trace   []Trace
}

// task is one node instance: the node and the row its result attaches to.
type task struct {
	node   *querytree.Node
	parent *result.Row
	ec     *execctx.ExecutionContext
}

// Execute runs tree against ec. Queries get prefixes prepended. Results of
// top-level nodes are also set into ec.
func (e *Executor) Execute(ctx context.Context, tree *querytree.Tree, prefixes string, ec *execctx.ExecutionContext) (*Result, error) {
	res := &Result{Root: result.NewRow()}
	qopts := backend.QueryOptions{Reasoning: ec.Options().Reasoning}

	var level []task
	for _, c := range tree.Children(querytree.RootID) {
		level = append(level, task{node: c, parent: res.Root, ec: ec})
	}

	for len(level) > 0 {
		var next []task
		for _, tk := range level {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			rs, err := e.run(ctx, tk, prefixes, qopts, res)
			if err != nil {
				return nil, err
			}
			if err := tk.parent.Attach(tk.node.Name, rs); err != nil {
				return nil, err
			}
			if tk.parent == res.Root {
				ec.Set(tk.node.Name, execctx.Rows(rs))
			}
			children := tree.Children(tk.node.ID)
			if len(children) == 0 {
				continue
			}
			for _, row := range rs.Rows {
				bound := tk.ec.With(tk.node.Name, execctx.Row(row))
				for _, c := range children {
					next = append(next, task{node: c, parent: row, ec: bound})
				}
			}
		}
		level = next
	}
	return res, nil
}

func (e *Executor) run(ctx context.Context, tk task, prefixes string, qopts backend.QueryOptions, res *Result) (*result.ResultSet, error) {
	if tk.node.PassThrough() {
		rs := result.NewResultSet(nil, tk.passRow(res.Root))
		rs.Vars = rs.Rows[0].Vars()
		e.trace(res, Trace{Node: tk.node.Name, Skipped: true, Rows: 1})
		return rs, nil
	}

	rq, err := tmpl.RenderQuery(tk.node.Template, prefixes, tk.ec)
	if errors.Is(err, tmpl.ErrEmptyQuery) {
		e.trace(res, Trace{Node: tk.node.Name, Skipped: true})
		return result.Empty(), nil
	}
	if err != nil {
		return nil, err
	}

	if e.opts.MaxExecutions > 0 && res.Queries >= e.opts.MaxExecutions {
		return nil, fmt.Errorf("%w: %d", ErrTooManyQueries, e.opts.MaxExecutions)
	}
	res.Queries++
	rs, err := e.backend.Select(backend.WithNode(ctx, tk.node.Name), rq.Text, qopts)
	if err != nil {
		return nil, fmt.Errorf("node %q: %w", tk.node.Name, err)
	}
	if rs == nil {
		rs = result.Empty()
	}
	e.trace(res, Trace{Node: tk.node.Name, Query: rq.Text, Rows: rs.Len()})
	return rs, nil
}

// passRow is the single row a pass-through node yields.
func (tk task) passRow(root *result.Row) *result.Row {
	if tk.parent == root {
		return result.NewRow()
	}
	return tk.parent.CloneBindings()
}

func (e *Executor) trace(res *Result, t Trace) {
	if e.opts.Record {
		res.Trace = append(res.Trace, t)
	}
}
