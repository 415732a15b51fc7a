// Package adapter executes operations against storage. Each operation
// category has one adapter and Router dispatches to it.
package adapter

import (
	"context"
	"fmt"
	"time"

	"github.com/Ning0612/aud/internal/core/operation"
	"github.com/Ning0612/aud/internal/core/plan"
	"github.com/Ning0612/aud/internal/domain"
	"github.com/Ning0612/aud/internal/logger"
)

// Adapter carries out the operations of one category
type Adapter interface {
	// Execute applies op to files in order and returns the files that
	// represent the result. Kinds outside the adapter's category fail with
	// domain.ErrUnsupportedOperation.
	Execute(ctx context.Context, op operation.Operation, files []domain.File) ([]domain.File, error)
}

// Router dispatches operations to the adapter registered for their category
type Router struct {
	adapters map[operation.Category]Adapter
	logger   logger.Logger
}

// NewRouter creates an empty router. A nil logger means the process-wide one.
func NewRouter(log logger.Logger) *Router {
	return &Router{
		adapters: make(map[operation.Category]Adapter),
		logger:   logger.OrGet(log).With("component", "router"),
	}
}

// Register sets the adapter for category and returns the router for chaining
func (r *Router) Register(category operation.Category, a Adapter) *Router {
	r.adapters[category] = a
	return r
}

// Execute validates op and runs it on the adapter of its category
func (r *Router) Execute(ctx context.Context, op operation.Operation, files []domain.File) ([]domain.File, error) {
	if op == nil {
		return nil, fmt.Errorf("%w: nil operation", domain.ErrUnsupportedOperation)
	}

	kind := op.Kind()
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedOperation, kind)
	}
	a, ok := r.adapters[kind.Category()]
	if !ok {
		return nil, fmt.Errorf("%w: no %s adapter for %s", domain.ErrUnsupportedOperation, kind.Category(), kind)
	}
	if err := operation.Validate(op); err != nil {
		return nil, err
	}

	start := time.Now()
	r.logger.Debug("executing operation", "op", string(kind), "files", len(files))

	out, err := a.Execute(ctx, op, files)
	if err != nil {
		r.logger.Error("operation failed", "op", string(kind), "error", err)
		return nil, err
	}

	r.logger.Info("operation complete",
		"op", string(kind),
		"files", len(files),
		"results", len(out),
		"duration", time.Since(start).Round(time.Millisecond).String())
	return out, nil
}

// Run executes the operations of p in order. Each operation receives the
// files returned by the one before it, the same fold Plan.Preview predicts.
func (r *Router) Run(ctx context.Context, p *plan.Plan) ([]domain.File, error) {
	files := p.Files()
	for i, op := range p.Operations() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := r.Execute(ctx, op, files)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, op.Kind(), err)
		}
		files = out
	}
	return files, nil
}
