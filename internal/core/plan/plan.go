// Package plan pairs a file set with an ordered list of operations.
// A plan is inert until an adapter executes it.
package plan

import (
	"sort"

	"github.com/Ning0612/aud/internal/core/operation"
	"github.com/Ning0612/aud/internal/domain"
)

// Plan is an ordered sequence of operations over a set of files
type Plan struct {
	files []domain.File
	ops   []operation.Operation
}

// New creates a plan over a copy of files
func New(files []domain.File) *Plan {
	return &Plan{files: append([]domain.File(nil), files...)}
}

// Add appends op and returns the plan for chaining
func (p *Plan) Add(op operation.Operation) *Plan {
	p.ops = append(p.ops, op)
	return p
}

// Files returns the input files
func (p *Plan) Files() []domain.File {
	return append([]domain.File(nil), p.files...)
}

// Operations returns the operations in execution order
func (p *Plan) Operations() []operation.Operation {
	return append([]operation.Operation(nil), p.ops...)
}

// Len returns the number of operations
func (p *Plan) Len() int {
	return len(p.ops)
}

// Preview is the predicted outcome for one input file
type Preview struct {
	Original  domain.File
	Predicted []domain.File
}

// Preview folds every operation over every file without touching storage.
// Stateful operations are cloned first, so previews are repeatable and
// leave the plan's own operations untouched. Files are visited in order,
// matching how adapters advance counters during execution.
func (p *Plan) Preview() []Preview {
	ops := make([]operation.Operation, len(p.ops))
	for i, op := range p.ops {
		if s, ok := op.(operation.Stateful); ok {
			ops[i] = s.Clone()
			continue
		}
		ops[i] = op
	}

	// stateful operations must see files in set order per step, so fold
	// step by step across the whole set rather than file by file
	current := make([][]domain.File, len(p.files))
	for i, f := range p.files {
		current[i] = []domain.File{f}
	}
	for _, op := range ops {
		for i, files := range current {
			next := make([]domain.File, 0, len(files))
			for _, f := range files {
				next = append(next, op.Apply(f)...)
			}
			current[i] = next
		}
	}

	previews := make([]Preview, len(p.files))
	for i, f := range p.files {
		previews[i] = Preview{Original: f, Predicted: dedupe(current[i])}
	}
	return previews
}

// Outputs returns the distinct predicted files in first-seen order
func Outputs(previews []Preview) []domain.File {
	var out []domain.File
	seen := make(map[string]struct{})
	for _, pv := range previews {
		for _, f := range pv.Predicted {
			if _, ok := seen[f.Path()]; ok {
				continue
			}
			seen[f.Path()] = struct{}{}
			out = append(out, f)
		}
	}
	return out
}

// Collision is a predicted path produced from more than one input
type Collision struct {
	Path    string
	Sources []domain.File
}

// Collisions reports predicted paths shared by several inputs, sorted by
// path. N:1 operations such as Join and Zip collide by construction, so
// callers only check plans that should keep files distinct.
func Collisions(previews []Preview) []Collision {
	byPath := make(map[string][]domain.File)
	for _, pv := range previews {
		for _, f := range pv.Predicted {
			byPath[f.Path()] = append(byPath[f.Path()], pv.Original)
		}
	}

	var out []Collision
	for path, sources := range byPath {
		if len(sources) > 1 {
			out = append(out, Collision{Path: path, Sources: sources})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func dedupe(files []domain.File) []domain.File {
	if len(files) < 2 {
		return files
	}
	out := files[:0:0]
	seen := make(map[string]struct{}, len(files))
	for _, f := range files {
		if _, ok := seen[f.Path()]; ok {
			continue
		}
		seen[f.Path()] = struct{}{}
		out = append(out, f)
	}
	return out
}
