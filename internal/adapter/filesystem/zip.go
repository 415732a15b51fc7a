package filesystem

import (
	"archive/zip"
	"context"
	"fmt"
	"io"

	"github.com/Ning0612/aud/internal/core/operation"
	"github.com/Ning0612/aud/internal/domain"
)

// zip stores files in one deflate archive, each under its base name.
// An empty set writes nothing.
func (a *Adapter) zip(ctx context.Context, op operation.Zip, files []domain.File) ([]domain.File, error) {
	if len(files) == 0 {
		return nil, nil
	}

	archive := op.ArchiveFor(files[0].Dir())
	a.reporter.SetTotal(op.Kind().Action(), len(files))

	if err := a.fs.MkdirAll(archive.Dir(), 0755); err != nil {
		return nil, fmt.Errorf("zip %s: %w", archive.Name(), domain.MapError(err))
	}

	out, err := a.fs.Create(archive.Path())
	if err != nil {
		return nil, fmt.Errorf("zip %s: %w", archive.Name(), domain.MapError(err))
	}

	zw := zip.NewWriter(out)
	err = a.writeEntries(ctx, zw, archive, files)
	if cerr := zw.Close(); err == nil {
		err = cerr
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		a.fs.Remove(archive.Path())
		return nil, fmt.Errorf("zip %s: %w", archive.Name(), err)
	}

	a.logger.Debug("archived", "archive", archive.Path(), "files", len(files))
	return []domain.File{archive}, nil
}

func (a *Adapter) writeEntries(ctx context.Context, zw *zip.Writer, archive domain.File, files []domain.File) error {
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if f.Equal(archive) {
			continue
		}

		a.reporter.Start(f.Path())
		if err := a.addEntry(zw, f); err != nil {
			a.reporter.Error(f.Path(), err)
			return fmt.Errorf("add %s: %w", f.Name(), err)
		}
		a.reporter.Complete(f.Path())
	}
	return nil
}

func (a *Adapter) addEntry(zw *zip.Writer, f domain.File) error {
	in, err := a.fs.Open(f.Path())
	if err != nil {
		return domain.MapError(err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return domain.MapError(err)
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = f.Name()
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, in)
	return err
}
