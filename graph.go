package itemshop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
)

// Graph is a set of named query nodes, each re-fetched whenever its projection of the
// filter changes. Every fetch is stamped with a graph-wide token; a node only accepts the
// response carrying its most recently issued token, so the last request issued wins.
type Graph struct {
	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc

	nodes map[string]*node
	order []*node

	// declared dependency edges, for introspection
	downstream map[string][]string
	upstream   map[string][]string

	inputs    Filter
	hasInputs bool
	token     uint64
	closed    bool

	inflight sync.WaitGroup
	cleanups cleanups
	exts     extensionChain
	logger   *slog.Logger
	host     Host
}

type node struct {
	name    string
	project func(Filter) (any, bool)
	fetch   func(context.Context, any) (any, error)

	snapshot    any
	hasSnapshot bool
	current     uint64
	cancel      context.CancelFunc

	result    any
	hasResult bool
	err       error

	issued  int
	applied int
	stale   int

	subscribers []subscriber
	nextSubID   int
}

type subscriber struct {
	id int
	fn func(any)
}

type launch struct {
	node  *node
	token uint64
	input any
	ctx   context.Context
}

// NodeState is a read-only view of a query node
type NodeState struct {
	Name      string
	Input     any
	Runnable  bool
	Pending   bool
	Token     uint64
	HasResult bool
	Err       error
	Issued    int
	Applied   int
	Stale     int
}

// QueryOption is a modifier for query nodes
type QueryOption func(g *Graph, n *node)

// DependsOn records that a node's inputs are produced by the named upstream nodes.
func DependsOn(upstream ...string) QueryOption {
	return func(g *Graph, n *node) {
		for _, up := range upstream {
			g.downstream[up] = appendUnique(g.downstream[up], n.name)
			g.upstream[n.name] = appendUnique(g.upstream[n.name], up)
		}
	}
}

// NewGraph creates an empty graph. Extensions are initialized in order.
func NewGraph(opts ...Option) (*Graph, error) {
	s := newSettings(opts)
	ctx, cancel := context.WithCancel(context.Background())
	g := &Graph{
		ctx:        ctx,
		cancel:     cancel,
		nodes:      make(map[string]*node),
		downstream: make(map[string][]string),
		upstream:   make(map[string][]string),
		exts:       newExtensionChain(s.extensions),
		logger:     s.logger,
		host:       s.host,
	}

	for _, ext := range g.exts {
		if err := ext.Init(g); err != nil {
			cancel()
			return nil, fmt.Errorf("initializing extension %s: %w", ext.Name(), err)
		}
	}
	return g, nil
}

// Declare registers a query node. selector projects the filter onto the node's input and
// reports false while the input is not yet runnable. Declaring a name twice panics.
func Declare[I comparable, T any](
	g *Graph,
	name string,
	selector func(Filter) (I, bool),
	fetch func(context.Context, I) (T, error),
	opts ...QueryOption,
) *Controller[T] {
	n := &node{
		name: name,
		project: func(f Filter) (any, bool) {
			in, ok := selector(f)
			return in, ok
		},
		fetch: func(ctx context.Context, in any) (any, error) {
			typed, err := SafeTypeAssertion[I](in)
			if err != nil {
				return nil, err
			}
			return fetch(ctx, typed)
		},
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.nodes[name]; exists {
		panic(fmt.Sprintf("query %q already declared", name))
	}
	g.nodes[name] = n
	g.order = append(g.order, n)
	for _, opt := range opts {
		opt(g, n)
	}

	return &Controller[T]{graph: g, node: n}
}

// OnInputsChanged re-projects every node and fetches those whose input changed by value.
func (g *Graph) OnInputsChanged(f Filter) {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.inputs = f
	g.hasInputs = true

	var launches []launch
	for _, n := range g.order {
		in, ok := n.project(f)
		if !ok {
			continue
		}
		if n.hasSnapshot && n.snapshot == in {
			continue
		}
		n.snapshot = in
		n.hasSnapshot = true
		launches = append(launches, g.issueLocked(n))
	}
	g.mu.Unlock()

	for _, l := range launches {
		g.start(l)
	}
}

// Inputs returns the last filter the graph observed.
func (g *Graph) Inputs() (Filter, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inputs, g.hasInputs
}

func (g *Graph) reload(n *node) bool {
	g.mu.Lock()
	if g.closed || !n.hasSnapshot {
		g.mu.Unlock()
		return false
	}
	l := g.issueLocked(n)
	g.mu.Unlock()

	g.start(l)
	return true
}

// issueLocked supersedes the node's in-flight fetch, if any, with a new token.
func (g *Graph) issueLocked(n *node) launch {
	g.token++
	if n.cancel != nil {
		n.cancel()
	}
	ctx, cancel := context.WithCancel(g.ctx)
	n.current = g.token
	n.cancel = cancel
	n.issued++
	g.inflight.Add(1)

	return launch{node: n, token: g.token, input: n.snapshot, ctx: ctx}
}

func (g *Graph) start(l launch) {
	g.logger.Debug("query fetch issued", "query", l.node.name, "token", l.token, "input", l.input)
	go g.run(l)
}

func (g *Graph) run(l launch) {
	defer g.inflight.Done()

	op := &Operation{Kind: OpFetch, Name: l.node.name, Token: l.token, Graph: g}
	result, err := g.fetch(l, op)
	g.complete(l, op, result, err)
}

func (g *Graph) fetch(l launch, op *Operation) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			g.exts.onPanic(op, r, stack)
			err = &FetchError{
				Query:      l.node.name,
				Token:      l.token,
				Cause:      fmt.Errorf("panic: %v", r),
				Context:    "fetch",
				StackTrace: stack,
			}
		}
	}()

	return g.exts.wrap(l.ctx, op, func() (any, error) {
		return l.node.fetch(l.ctx, l.input)
	})
}

func (g *Graph) complete(l launch, op *Operation, result any, err error) {
	n := l.node

	g.mu.Lock()
	if n.current != l.token {
		n.stale++
		current := n.current
		g.mu.Unlock()

		g.logger.Debug("discarding stale response", "query", n.name, "token", l.token, "current", current)
		g.exts.onStale(op)
		return
	}

	n.current = 0
	if n.cancel != nil {
		n.cancel()
		n.cancel = nil
	}

	if err != nil {
		var fetchErr *FetchError
		if !errors.As(err, &fetchErr) {
			fetchErr = CreateFetchError(n.name, l.token, err, "fetch")
		}
		n.err = fetchErr
		g.mu.Unlock()

		g.logger.Error("query fetch failed", "query", n.name, "token", l.token, "error", err)
		g.exts.onError(fetchErr, op)
		g.host.OnQueryError(n.name, ErrorMessage(err, ""))
		return
	}

	n.result = result
	n.hasResult = true
	n.err = nil
	n.applied++
	subs := make([]subscriber, len(n.subscribers))
	copy(subs, n.subscribers)
	g.mu.Unlock()

	g.logger.Debug("query result applied", "query", n.name, "token", l.token)
	for _, sub := range subs {
		sub.fn(result)
	}
}

// Wait blocks until no fetch is outstanding, including fetches issued by subscribers.
func (g *Graph) Wait() {
	g.inflight.Wait()
}

// Nodes returns the state of every node in declaration order.
func (g *Graph) Nodes() []NodeState {
	g.mu.Lock()
	defer g.mu.Unlock()

	states := make([]NodeState, 0, len(g.order))
	for _, n := range g.order {
		states = append(states, n.stateLocked())
	}
	return states
}

// Node returns the state of the named node.
func (g *Graph) Node(name string) (NodeState, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	n, ok := g.nodes[name]
	if !ok {
		return NodeState{}, false
	}
	return n.stateLocked(), true
}

// Dependents returns every node transitively fed by the named node.
func (g *Graph) Dependents(name string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	// explicit stack instead of recursion
	stack := []string{name}
	visited := make(map[string]bool)
	var dependents []string

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if visited[current] {
			continue
		}
		visited[current] = true

		if current != name {
			dependents = append(dependents, current)
		}
		for _, dep := range g.downstream[current] {
			if !visited[dep] {
				stack = append(stack, dep)
			}
		}
	}
	return dependents
}

// Upstream returns the nodes the named node directly depends on.
func (g *Graph) Upstream(name string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	deps := g.upstream[name]
	result := make([]string, len(deps))
	copy(result, deps)
	return result
}

// OnCleanup registers fn to run when the graph closes, after the last fetch has resolved
// and before extensions are disposed. Cleanups run most recent first. Registering on a
// closed graph runs fn immediately.
func (g *Graph) OnCleanup(fn func() error) {
	if !g.cleanups.add(fn) {
		if err := fn(); err != nil {
			g.logger.Warn("cleanup after close failed", "error", err)
		}
	}
}

// Close makes every outstanding fetch inert, waits for them, runs cleanups and disposes extensions.
func (g *Graph) Close() error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return ErrGraphClosed
	}
	g.closed = true
	for _, n := range g.order {
		n.current = 0
		if n.cancel != nil {
			n.cancel()
			n.cancel = nil
		}
	}
	g.mu.Unlock()

	g.cancel()
	g.inflight.Wait()

	var errs []error
	if err := g.cleanups.run(); err != nil {
		errs = append(errs, err)
	}
	for _, ext := range g.exts {
		if err := ext.Dispose(g); err != nil {
			errs = append(errs, fmt.Errorf("disposing extension %s: %w", ext.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (n *node) stateLocked() NodeState {
	return NodeState{
		Name:      n.name,
		Input:     n.snapshot,
		Runnable:  n.hasSnapshot,
		Pending:   n.current != 0,
		Token:     n.current,
		HasResult: n.hasResult,
		Err:       n.err,
		Issued:    n.issued,
		Applied:   n.applied,
		Stale:     n.stale,
	}
}

func appendUnique[T comparable](slice []T, item T) []T {
	for _, existing := range slice {
		if existing == item {
			return slice
		}
	}
	return append(slice, item)
}
