// Package convert executes format and channel conversions through a
// media backend.
package convert

import (
	"context"
	"fmt"

	"github.com/spf13/afero"

	"github.com/Ning0612/aud/internal/adapter/batch"
	"github.com/Ning0612/aud/internal/core/operation"
	"github.com/Ning0612/aud/internal/domain"
	"github.com/Ning0612/aud/internal/logger"
	"github.com/Ning0612/aud/internal/media"
	"github.com/Ning0612/aud/internal/progress"
)

// Options configures an Adapter
type Options struct {
	// Workers > 1 converts that many files at once
	Workers int

	// RemoveSources deletes each source once its converted file is
	// written. By default the source stays next to the new file.
	RemoveSources bool

	Reporter progress.Reporter
	Logger   logger.Logger
}

// Adapter executes conversion-category operations
type Adapter struct {
	backend       media.Backend
	fs            afero.Fs
	workers       int
	removeSources bool
	reporter      progress.Reporter
	logger        logger.Logger
}

// New creates an Adapter. fs is used only to remove replaced sources; a
// nil fs means the OS filesystem.
func New(backend media.Backend, fs afero.Fs, opts Options) *Adapter {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Adapter{
		backend:       backend,
		fs:            fs,
		workers:       opts.Workers,
		removeSources: opts.RemoveSources,
		reporter:      progress.OrNull(opts.Reporter),
		logger:        logger.OrGet(opts.Logger).With("adapter", "convert"),
	}
}

// Execute converts every file. ConvertFormat returns the files at their
// new extension, channel conversions return the files unchanged.
func (a *Adapter) Execute(ctx context.Context, op operation.Operation, files []domain.File) ([]domain.File, error) {
	if op == nil {
		return nil, fmt.Errorf("%w: nil operation", domain.ErrUnsupportedOperation)
	}

	var fn batch.Func
	switch op := op.(type) {
	case operation.ConvertFormat:
		out, err := jobOutput(op)
		if err != nil {
			return nil, err
		}
		fn = func(ctx context.Context, f domain.File) (domain.File, error) {
			return a.convertFormat(ctx, op, out, f)
		}
	case operation.ConvertToMono:
		fn = a.channels(1)
	case operation.ConvertToStereo:
		fn = a.channels(2)
	default:
		return nil, fmt.Errorf("%w: %s is not a conversion", domain.ErrUnsupportedOperation, op.Kind())
	}

	opts := batch.Options{Action: op.Kind().Action(), Workers: a.workers, Reporter: a.reporter}
	return batch.Map(ctx, files, opts, fn)
}

// jobOutput translates the encoding parameters of op
func jobOutput(op operation.ConvertFormat) (media.Output, error) {
	out := media.Output{
		Format:     domain.NormalizeExtension(op.Format),
		SampleRate: op.SampleRate,
		Tags:       op.Tags,
		Cover:      op.Cover,
	}
	if op.BitDepth != 0 {
		width, err := operation.SampleWidth(op.BitDepth)
		if err != nil {
			return media.Output{}, err
		}
		out.SampleWidth = width
	}
	return out, nil
}

func (a *Adapter) convertFormat(ctx context.Context, op operation.ConvertFormat, output media.Output, f domain.File) (domain.File, error) {
	dst := op.Apply(f)[0]
	output.Path = dst.Path()

	job := media.Job{Sources: []string{f.Path()}, Output: output}
	if err := a.backend.Render(ctx, job); err != nil {
		return domain.File{}, fmt.Errorf("convert %s to %s: %w", f.Name(), output.Format, err)
	}

	if a.removeSources && !dst.Equal(f) {
		if err := a.fs.Remove(f.Path()); err != nil {
			return domain.File{}, fmt.Errorf("convert %s: remove source: %w", f.Name(), domain.MapError(err))
		}
	}

	a.logger.Debug("converted", "from", f.Path(), "to", dst.Path())
	return dst, nil
}

func (a *Adapter) channels(n int) batch.Func {
	return func(ctx context.Context, f domain.File) (domain.File, error) {
		job := media.Job{
			Sources: []string{f.Path()},
			Output:  media.Output{Path: f.Path(), Format: f.Extension(), Channels: n},
		}
		if err := a.backend.Render(ctx, job); err != nil {
			return domain.File{}, fmt.Errorf("convert %s to %d channels: %w", f.Name(), n, err)
		}
		return f, nil
	}
}
