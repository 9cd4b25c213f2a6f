package extensions

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/pumped-fn/itemshop"
)

// GraphDebugExtension logs the query graph when a fetch or workflow call fails.
//
// Usage:
//
//	// Human-readable formatted output (with line breaks)
//	handler := extensions.NewHumanHandler(os.Stdout, slog.LevelError)
//	ext := extensions.NewGraphDebugExtension(handler)
//
//	// Structured JSON logging (compact, machine-readable)
//	handler := slog.NewJSONHandler(os.Stdout, nil)
//	ext := extensions.NewGraphDebugExtension(handler)
//
//	// Silent (for testing)
//	ext := extensions.NewGraphDebugExtension(extensions.NewSilentHandler())
//
// The extension logs at ERROR level for both failures and panics.
type GraphDebugExtension struct {
	itemshop.BaseExtension
	logger *slog.Logger
}

// NewGraphDebugExtension creates a new graph debug extension.
// logHandler: slog.Handler for logging (use HumanHandler for formatted output, or any other slog.Handler)
func NewGraphDebugExtension(logHandler slog.Handler) *GraphDebugExtension {
	return &GraphDebugExtension{
		BaseExtension: itemshop.NewBaseExtension("graph-debug"),
		logger:        slog.New(logHandler),
	}
}

// OnError logs the node table when an operation fails
func (e *GraphDebugExtension) OnError(err error, op *itemshop.Operation) {
	e.logger.Error("Query Graph Error",
		"name", op.Name,
		"error", err.Error(),
		"operation", string(op.Kind),
		"query_graph", FormatGraph(op.Graph, op.Name),
	)
}

// OnPanic logs the recovered value and stack
func (e *GraphDebugExtension) OnPanic(op *itemshop.Operation, recovered any, stack []byte) {
	e.logger.Error("Operation Panic",
		"panic", fmt.Sprintf("%v", recovered),
		"stack_trace", string(stack),
		"name", op.Name,
	)
}

// FormatGraph renders every node with its state and dependents. failed is marked.
func FormatGraph(g *itemshop.Graph, failed string) string {
	if g == nil {
		return "\n(no query graph)"
	}
	nodes := g.Nodes()
	if len(nodes) == 0 {
		return "\n(empty - no queries declared)"
	}

	var sb strings.Builder
	sb.WriteString("\n")
	for _, n := range nodes {
		sb.WriteString(fmt.Sprintf("  %s%s\n", n.Name, nodeStatus(n, failed)))

		deps := g.Dependents(n.Name)
		for i, dep := range deps {
			if i == len(deps)-1 {
				sb.WriteString(fmt.Sprintf("    └─> %s\n", dep))
			} else {
				sb.WriteString(fmt.Sprintf("    ├─> %s\n", dep))
			}
		}
	}
	return sb.String()
}

func nodeStatus(n itemshop.NodeState, failed string) string {
	switch {
	case n.Name == failed:
		return " ❌ FAILED"
	case n.Err != nil:
		return fmt.Sprintf(" ❌ (error: %v)", n.Err)
	case n.Pending:
		return fmt.Sprintf(" (pending, token %d)", n.Token)
	case !n.Runnable:
		return " (idle)"
	case n.HasResult:
		return " ✓"
	default:
		return ""
	}
}

// SilentHandler is a slog.Handler that discards all log output
// Useful for testing when you don't want log output
type SilentHandler struct{}

// NewSilentHandler creates a new silent log handler
func NewSilentHandler() *SilentHandler {
	return &SilentHandler{}
}

func (h *SilentHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return false
}

func (h *SilentHandler) Handle(ctx context.Context, record slog.Record) error {
	return nil
}

func (h *SilentHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h
}

func (h *SilentHandler) WithGroup(name string) slog.Handler {
	return h
}

// HumanHandler is a slog.Handler that formats logs for human readability
// with line breaks for graph dumps and panics
type HumanHandler struct {
	writer io.Writer
	level  slog.Level
}

// NewHumanHandler creates a new human-readable log handler
func NewHumanHandler(writer io.Writer, level slog.Level) *HumanHandler {
	return &HumanHandler{
		writer: writer,
		level:  level,
	}
}

func (h *HumanHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *HumanHandler) Handle(ctx context.Context, record slog.Record) error {
	switch record.Message {
	case "Query Graph Error":
		return h.handleGraphError(record)
	case "Operation Panic":
		return h.handlePanic(record)
	}

	if _, err := fmt.Fprintf(h.writer, "[%s] %s\n", record.Level, record.Message); err != nil {
		return err
	}
	var writeErr error
	record.Attrs(func(a slog.Attr) bool {
		if _, err := fmt.Fprintf(h.writer, "  %s: %v\n", a.Key, a.Value); err != nil {
			writeErr = err
			return false
		}
		return true
	})
	return writeErr
}

func (h *HumanHandler) handleGraphError(record slog.Record) error {
	attrs := collect(record)
	return h.write(
		"\n",
		banner("[GraphDebug] Query Graph Error"),
		fmt.Sprintf("\nFailed: %s\n", attrs["name"]),
		fmt.Sprintf("Error: %s\n", attrs["error"]),
		fmt.Sprintf("Operation: %s\n", attrs["operation"]),
		fmt.Sprintf("\nQuery Graph:%s", attrs["query_graph"]),
		strings.Repeat("=", 70)+"\n\n",
	)
}

func (h *HumanHandler) handlePanic(record slog.Record) error {
	attrs := collect(record)
	parts := []string{
		"\n",
		banner("[GraphDebug] Operation Panic"),
		fmt.Sprintf("\nPanic: %s\n", attrs["panic"]),
	}
	if name, ok := attrs["name"]; ok && name != "" {
		parts = append(parts, fmt.Sprintf("Operation: %s\n", name))
	}
	parts = append(parts,
		fmt.Sprintf("\nStack Trace:\n%s\n", attrs["stack_trace"]),
		strings.Repeat("=", 70)+"\n\n",
	)
	return h.write(parts...)
}

func (h *HumanHandler) write(parts ...string) error {
	for _, p := range parts {
		if _, err := io.WriteString(h.writer, p); err != nil {
			return err
		}
	}
	return nil
}

func banner(title string) string {
	line := strings.Repeat("=", 70)
	return line + "\n" + title + "\n" + line + "\n"
}

func collect(record slog.Record) map[string]string {
	attrs := make(map[string]string, record.NumAttrs())
	record.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.String()
		return true
	})
	return attrs
}

func (h *HumanHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h
}

func (h *HumanHandler) WithGroup(name string) slog.Handler {
	return h
}
