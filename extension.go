package itemshop

import (
	"context"
	"sort"
)

// Extension provides hooks into query fetches and workflow remote calls
type Extension interface {
	// Name returns the extension's name
	Name() string

	// Order determines extension execution order (lower = earlier)
	Order() int

	// Init is called when the extension is registered to a graph
	Init(graph *Graph) error

	// Wrap intercepts operations (fetch, checkout, image attach, item creation)
	Wrap(ctx context.Context, next func() (any, error), op *Operation) (any, error)

	// OnError handles failures that reached the owning component
	OnError(err error, op *Operation)

	// OnStale is called when a fetch resolved after a newer one was issued
	OnStale(op *Operation)

	// OnPanic is called when a fetch or workflow step panicked
	OnPanic(op *Operation, recovered any, stack []byte)

	// Dispose is called when the graph is closed
	Dispose(graph *Graph) error
}

// BaseExtension provides default implementations for Extension methods
type BaseExtension struct {
	name string
}

// NewBaseExtension creates a new base extension with the given name
func NewBaseExtension(name string) BaseExtension {
	return BaseExtension{name: name}
}

func (e *BaseExtension) Name() string {
	return e.name
}

func (e *BaseExtension) Order() int {
	return 100
}

func (e *BaseExtension) Init(graph *Graph) error {
	return nil
}

func (e *BaseExtension) Wrap(ctx context.Context, next func() (any, error), op *Operation) (any, error) {
	return next()
}

func (e *BaseExtension) OnError(err error, op *Operation) {
}

func (e *BaseExtension) OnStale(op *Operation) {
}

func (e *BaseExtension) OnPanic(op *Operation, recovered any, stack []byte) {
}

func (e *BaseExtension) Dispose(graph *Graph) error {
	return nil
}

// Operation describes what operation is happening
type Operation struct {
	Kind  OperationKind
	Name  string
	Token uint64
	Graph *Graph
}

// OperationKind represents the type of operation
type OperationKind string

const (
	// OpFetch is a query node fetch
	OpFetch OperationKind = "fetch"
	// OpCheckout is the checkout submission
	OpCheckout OperationKind = "checkout"
	// OpNavigate resolves and performs navigation to a purchase record
	OpNavigate OperationKind = "navigate"
	// OpAttachImage is the best-effort image attachment after item creation
	OpAttachImage OperationKind = "attach_image"
	// OpCreateItem is the manager-only item creation call
	OpCreateItem OperationKind = "create_item"
)

type extensionChain []Extension

func newExtensionChain(exts []Extension) extensionChain {
	chain := make(extensionChain, len(exts))
	copy(chain, exts)
	sort.SliceStable(chain, func(i, j int) bool {
		return chain[i].Order() < chain[j].Order()
	})
	return chain
}

// wrap applies extensions in reverse order (last registered wraps first)
func (c extensionChain) wrap(ctx context.Context, op *Operation, next func() (any, error)) (any, error) {
	for i := len(c) - 1; i >= 0; i-- {
		ext := c[i]
		currentNext := next
		next = func() (any, error) {
			return ext.Wrap(ctx, currentNext, op)
		}
	}
	return next()
}

func (c extensionChain) onError(err error, op *Operation) {
	for _, ext := range c {
		ext.OnError(err, op)
	}
}

func (c extensionChain) onStale(op *Operation) {
	for _, ext := range c {
		ext.OnStale(op)
	}
}

func (c extensionChain) onPanic(op *Operation, recovered any, stack []byte) {
	for _, ext := range c {
		ext.OnPanic(op, recovered, stack)
	}
}
