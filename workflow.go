package itemshop

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
)

// workflow carries what the checkout and item creation workflows share.
type workflow struct {
	exts    extensionChain
	logger  *slog.Logger
	host    Host
	journal *ExecutionTree
	graph   *Graph
}

func newWorkflow(s *settings) workflow {
	return workflow{
		exts:    newExtensionChain(s.extensions),
		logger:  s.logger,
		host:    s.host,
		journal: s.journal,
	}
}

// call runs one remote step through the extension chain. A panic is turned into an error.
func (w *workflow) call(ctx context.Context, kind OperationKind, name string, fn func(context.Context) (any, error)) (result any, err error) {
	op := &Operation{Kind: kind, Name: name, Graph: w.graph}

	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			w.exts.onPanic(op, r, stack)
			result, err = nil, fmt.Errorf("%s panicked: %v", name, r)
		}
		if err != nil {
			w.exts.onError(err, op)
		}
	}()

	return w.exts.wrap(ctx, op, func() (any, error) {
		return fn(ctx)
	})
}

// step records a child of run, calls fn and records its outcome.
func (w *workflow) step(run *ExecutionNode, name string, fn func() error) error {
	node := w.journal.begin(name, run)
	err := fn()
	node.finish(err)
	return err
}
