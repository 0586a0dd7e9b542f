// Package tools maps function-call names from the AI engine onto backend
// operations. Dispatch never panics and never returns nothing: every
// invocation, including unknown names and handler crashes, produces exactly
// one JSON-serializable result.
package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/voicebank/gateway/internal/metrics"
	"github.com/voicebank/gateway/internal/trace"
	"github.com/voicebank/gateway/internal/upstream"
)

// Handler executes one tool invocation. Implementations return a result map
// and never an error; failures are expressed as {"status": "error", ...}.
type Handler func(ctx context.Context, args map[string]any) map[string]any

// Registry is a fixed name-to-handler mapping plus the declarations
// advertised to the engine at session setup.
type Registry struct {
	handlers map[string]Handler
	decls    []upstream.FunctionDeclaration
	tracer   *trace.Tracer
}

// NewRegistry creates an empty registry. tracer may be nil.
func NewRegistry(tracer *trace.Tracer) *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
		tracer:   tracer,
	}
}

// Register adds a tool. Registering the same name twice replaces the handler
// but keeps a single declaration.
func (r *Registry) Register(decl upstream.FunctionDeclaration, h Handler) {
	if _, exists := r.handlers[decl.Name]; !exists {
		r.decls = append(r.decls, decl)
	}
	r.handlers[decl.Name] = h
}

// Declarations returns the function manifest for the session setup.
func (r *Registry) Declarations() []upstream.FunctionDeclaration {
	return r.decls
}

// Dispatch runs the named tool. Unknown names and handler panics come back
// as error-status results; the session keeps going either way.
func (r *Registry) Dispatch(ctx context.Context, name string, args map[string]any) (result map[string]any) {
	start := time.Now()
	r.tracer.ToolStart(name, args)

	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("tool handler panicked", "tool", name, "panic", rec)
			result = map[string]any{
				"status":  "error",
				"message": fmt.Sprintf("tool %s failed: %v", name, rec),
			}
		}
		status := resultStatus(result)
		metrics.ToolInvocations.WithLabelValues(name, status).Inc()
		metrics.ToolDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		r.tracer.ToolEnd(name, args, status, result)
	}()

	h, ok := r.handlers[name]
	if !ok {
		slog.Warn("unknown tool requested", "tool", name)
		return map[string]any{"status": "error", "message": "tool not implemented"}
	}
	return h(ctx, args)
}

func resultStatus(result map[string]any) string {
	if result == nil {
		return "error"
	}
	if s, ok := result["status"].(string); ok {
		return s
	}
	return "unknown"
}
