package selection

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"

	"github.com/Ning0612/aud/internal/domain"
)

// Scanner lists the direct regular-file children of a directory
type Scanner struct {
	fs afero.Fs
}

// NewScanner creates a scanner over fs. A nil fs means the OS filesystem.
func NewScanner(fs afero.Fs) *Scanner {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Scanner{fs: fs}
}

// Scan returns the files of dir accepted by policy, sorted by name.
// Symlinks count as their target. Subdirectories, broken links and other
// non-regular entries are skipped. A missing or unreadable dir is an error.
func (s *Scanner) Scan(dir string, policy Policy) ([]domain.File, error) {
	info, err := s.fs.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, domain.MapError(err))
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan %s: %w", dir, domain.ErrNotDirectory)
	}

	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, domain.MapError(err))
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	files := make([]domain.File, 0, len(entries))
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if !s.regular(entry, path) {
			continue
		}
		f := domain.NewFile(path)
		if policy.Include(f) {
			files = append(files, f)
		}
	}

	return files, nil
}

// regular reports whether entry is a regular file or a link to one
func (s *Scanner) regular(entry fs.FileInfo, path string) bool {
	if entry.Mode()&fs.ModeSymlink == 0 {
		return entry.Mode().IsRegular()
	}
	target, err := s.fs.Stat(path)
	return err == nil && target.Mode().IsRegular()
}
