package filesystem

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/Ning0612/aud/internal/domain"
)

// copyInto copies f into dir under the same name and returns the copy.
// Mode and modification time are preserved.
func (a *Adapter) copyInto(ctx context.Context, f domain.File, dir string) (domain.File, error) {
	dst := f.In(dir)
	if dst.Equal(f) {
		return domain.File{}, fmt.Errorf("copy %s: %w: source and destination are the same", f.Name(), domain.ErrAlreadyExists)
	}

	if err := a.fs.MkdirAll(dst.Dir(), 0755); err != nil {
		return domain.File{}, fmt.Errorf("copy %s: %w", f.Name(), domain.MapError(err))
	}
	if err := a.copyFile(ctx, f.Path(), dst.Path()); err != nil {
		return domain.File{}, fmt.Errorf("copy %s to %s: %w", f.Name(), dst.Dir(), err)
	}

	a.logger.Debug("copied", "from", f.Path(), "to", dst.Path())
	return dst, nil
}

// moveInto moves f into dir under the same name. Renames that cross a
// device boundary fall back to copy and remove.
func (a *Adapter) moveInto(ctx context.Context, f domain.File, dir string) (domain.File, error) {
	dst := f.In(dir)
	if dst.Equal(f) {
		return f, nil
	}

	if err := a.fs.MkdirAll(dst.Dir(), 0755); err != nil {
		return domain.File{}, fmt.Errorf("move %s: %w", f.Name(), domain.MapError(err))
	}

	err := a.rename(f.Path(), dst.Path())
	if err == nil {
		a.logger.Debug("moved", "from", f.Path(), "to", dst.Path())
		return dst, nil
	}
	if !isCrossDevice(err) {
		return domain.File{}, fmt.Errorf("move %s to %s: %w", f.Name(), dst.Dir(), domain.MapError(err))
	}

	a.logger.Debug("cross-device move, copying", "from", f.Path(), "to", dst.Path())
	if err := a.copyFile(ctx, f.Path(), dst.Path()); err != nil {
		return domain.File{}, fmt.Errorf("move %s to %s: %w", f.Name(), dst.Dir(), err)
	}
	if err := a.fs.Remove(f.Path()); err != nil {
		return domain.File{}, fmt.Errorf("move %s: remove source: %w", f.Name(), domain.MapError(err))
	}
	return dst, nil
}

// copyFile writes the content of src to dst, replacing dst. A failed copy
// does not leave dst behind.
func (a *Adapter) copyFile(ctx context.Context, src, dst string) (err error) {
	in, err := a.fs.Open(src)
	if err != nil {
		return domain.MapError(err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return domain.MapError(err)
	}
	if info.IsDir() {
		return domain.ErrNotFile
	}

	out, err := a.fs.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return domain.MapError(err)
	}
	defer func() {
		if err != nil {
			a.fs.Remove(dst)
		}
	}()

	if _, err = io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err = out.Close(); err != nil {
		return err
	}

	if err = a.fs.Chmod(dst, info.Mode().Perm()); err != nil {
		return domain.MapError(err)
	}
	if err = a.fs.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		return domain.MapError(err)
	}

	if a.verifier != nil {
		if err = a.verifier.VerifyCopy(ctx, src, dst); err != nil {
			return err
		}
	}
	return nil
}
