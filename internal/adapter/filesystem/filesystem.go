// Package filesystem carries out naming and file-placement operations on
// an afero filesystem.
package filesystem

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/afero"

	"github.com/Ning0612/aud/internal/adapter/batch"
	"github.com/Ning0612/aud/internal/core/checksum"
	"github.com/Ning0612/aud/internal/core/operation"
	"github.com/Ning0612/aud/internal/domain"
	"github.com/Ning0612/aud/internal/logger"
	"github.com/Ning0612/aud/internal/progress"
)

// Options configures an Adapter
type Options struct {
	// VerifyCopies compares the SHA-256 of every copy with its source
	VerifyCopies bool

	Reporter progress.Reporter
	Logger   logger.Logger
}

// Adapter executes filesystem-category operations. Files are processed
// one at a time in set order, so stateful renames number files in the
// order they are visited.
type Adapter struct {
	fs       afero.Fs
	verifier *checksum.Verifier
	reporter progress.Reporter
	logger   logger.Logger

	// rename is swapped in tests to simulate cross-device moves
	rename func(oldpath, newpath string) error
}

// New creates an Adapter over fs. A nil fs means the OS filesystem.
func New(fs afero.Fs, opts Options) *Adapter {
	if fs == nil {
		fs = afero.NewOsFs()
	}

	a := &Adapter{
		fs:       fs,
		reporter: progress.OrNull(opts.Reporter),
		logger:   logger.OrGet(opts.Logger).With("adapter", "filesystem"),
		rename:   fs.Rename,
	}
	if opts.VerifyCopies {
		a.verifier, _ = checksum.NewVerifier(fs, checksum.SHA256)
	}
	return a
}

// Execute runs op over files. Renames return the renamed files, copy,
// backup and move return the files at their destination, zip returns the
// archive.
func (a *Adapter) Execute(ctx context.Context, op operation.Operation, files []domain.File) ([]domain.File, error) {
	if op == nil {
		return nil, fmt.Errorf("%w: nil operation", domain.ErrUnsupportedOperation)
	}

	switch op := op.(type) {
	case operation.Uppercase, operation.Lowercase, operation.Append, operation.Prepend,
		operation.Replace, operation.ReplaceSpaces, *operation.Iterate:
		return a.each(ctx, op, files, func(ctx context.Context, f domain.File) (domain.File, error) {
			return a.renameFile(op, f)
		})
	case operation.Copy:
		return a.each(ctx, op, files, func(ctx context.Context, f domain.File) (domain.File, error) {
			return a.copyInto(ctx, f, op.Target)
		})
	case operation.Backup:
		return a.each(ctx, op, files, func(ctx context.Context, f domain.File) (domain.File, error) {
			return a.copyInto(ctx, f, op.Target)
		})
	case operation.Move:
		return a.each(ctx, op, files, func(ctx context.Context, f domain.File) (domain.File, error) {
			return a.moveInto(ctx, f, op.Target)
		})
	case operation.Zip:
		return a.zip(ctx, op, files)
	default:
		return nil, fmt.Errorf("%w: %s is not a filesystem operation", domain.ErrUnsupportedOperation, op.Kind())
	}
}

func (a *Adapter) each(ctx context.Context, op operation.Operation, files []domain.File, fn batch.Func) ([]domain.File, error) {
	return batch.Map(ctx, files, batch.Options{Action: op.Kind().Action(), Reporter: a.reporter}, fn)
}

// renameFile gives f the name op predicts for it. Apply is called exactly
// once per file so counters advance once per file.
func (a *Adapter) renameFile(op operation.Operation, f domain.File) (domain.File, error) {
	dst := op.Apply(f)[0]
	if dst.Equal(f) {
		return f, nil
	}

	if err := a.fs.MkdirAll(dst.Dir(), 0755); err != nil {
		return domain.File{}, fmt.Errorf("rename %s: %w", f.Name(), domain.MapError(err))
	}

	if exists, _ := afero.Exists(a.fs, dst.Path()); exists && !a.sameFile(f.Path(), dst.Path()) {
		return domain.File{}, fmt.Errorf("rename %s to %s: %w", f.Name(), dst.Name(), domain.ErrAlreadyExists)
	}

	if err := a.rename(f.Path(), dst.Path()); err != nil {
		return domain.File{}, fmt.Errorf("rename %s to %s: %w", f.Name(), dst.Name(), domain.MapError(err))
	}

	a.logger.Debug("renamed", "from", f.Path(), "to", dst.Path())
	return dst, nil
}

// sameFile reports whether x and y name one file, as the two spellings of
// a case change do on case-insensitive filesystems
func (a *Adapter) sameFile(x, y string) bool {
	xi, err := a.fs.Stat(x)
	if err != nil {
		return false
	}
	yi, err := a.fs.Stat(y)
	if err != nil {
		return false
	}
	return os.SameFile(xi, yi)
}
