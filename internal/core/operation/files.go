package operation

import (
	"path/filepath"

	"github.com/Ning0612/aud/internal/domain"
)

// Copy duplicates files into Target, keeping their names
type Copy struct {
	Target string
}

func (Copy) Kind() Kind { return KindCopy }
func (Copy) operation() {}

func (op Copy) Apply(f domain.File) []domain.File {
	return single(f.In(op.Target))
}

// Move relocates files into Target, keeping their names
type Move struct {
	Target string
}

func (Move) Kind() Kind { return KindMove }
func (Move) operation() {}

func (op Move) Apply(f domain.File) []domain.File {
	return single(f.In(op.Target))
}

// Backup copies files into Target. Unlike Copy, the selection keeps
// pointing at the originals.
type Backup struct {
	Target string
}

func (Backup) Kind() Kind { return KindBackup }
func (Backup) operation() {}

func (op Backup) Apply(f domain.File) []domain.File {
	return single(f.In(op.Target))
}

// Zip stores every file in one deflate archive at Archive.
// A bare name or relative path is resolved against the directory of the
// first file archived.
type Zip struct {
	Archive string
}

func (Zip) Kind() Kind { return KindZip }
func (Zip) operation() {}

func (op Zip) Apply(f domain.File) []domain.File {
	return single(op.ArchiveFor(f.Dir()))
}

// ArchiveFor returns the archive written when zipping files from dir
func (op Zip) ArchiveFor(dir string) domain.File {
	path := op.Archive
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	return domain.NewFile(path)
}
