package itemshop

import (
	"io"
	"log/slog"
)

type settings struct {
	logger     *slog.Logger
	extensions []Extension
	journal    *ExecutionTree
	host       Host
}

// Option is a modifier shared by the graph, the cart and the workflows
type Option func(*settings)

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithExtension registers an extension
func WithExtension(ext Extension) Option {
	return func(s *settings) {
		if ext != nil {
			s.extensions = append(s.extensions, ext)
		}
	}
}

// WithJournal records workflow runs in the given execution tree
func WithJournal(tree *ExecutionTree) Option {
	return func(s *settings) {
		if tree != nil {
			s.journal = tree
		}
	}
}

// WithHost sets the UI notified of outcomes
func WithHost(host Host) Option {
	return func(s *settings) {
		if host != nil {
			s.host = host
		}
	}
}

func newSettings(opts []Option) *settings {
	s := &settings{
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		journal: NewExecutionTree(defaultJournalLimit),
		host:    BaseHost{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
