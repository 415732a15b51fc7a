package domain

import (
	"path/filepath"
	"strings"
)

// File identifies a single file on disk. It is an immutable value:
// operations that change its identity return a new File.
type File struct {
	path string
}

// NewFile returns a File for path. Relative paths are made absolute
// against the working directory.
func NewFile(path string) File {
	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}
	return File{path: filepath.Clean(path)}
}

// Path returns the absolute path of the file
func (f File) Path() string {
	return f.path
}

// Dir returns the directory containing the file
func (f File) Dir() string {
	return filepath.Dir(f.path)
}

// Name returns the final path component, e.g. "Song.WAV"
func (f File) Name() string {
	return filepath.Base(f.path)
}

// Suffix returns the suffix of the name including the dot, as found on
// disk, e.g. ".WAV". Dot-files without another dot have no suffix.
func (f File) Suffix() string {
	name := f.Name()
	i := strings.LastIndexByte(name, '.')
	if i <= 0 || i == len(name)-1 {
		return ""
	}
	return name[i:]
}

// Stem returns the name without its suffix
func (f File) Stem() string {
	name := f.Name()
	return name[:len(name)-len(f.Suffix())]
}

// Extension returns the suffix lower-cased and without the dot, e.g. "wav"
func (f File) Extension() string {
	return NormalizeExtension(f.Suffix())
}

// WithPath returns a File for a different path
func (f File) WithPath(path string) File {
	return NewFile(path)
}

// WithName returns a File with the same directory and a new name
func (f File) WithName(name string) File {
	return File{path: filepath.Join(f.Dir(), name)}
}

// In returns a File with the same name inside dir
func (f File) In(dir string) File {
	return NewFile(filepath.Join(dir, f.Name()))
}

// Equal reports whether both values identify the same path
func (f File) Equal(other File) bool {
	return f.path == other.path
}

// IsZero reports whether f was never assigned a path
func (f File) IsZero() bool {
	return f.path == ""
}

func (f File) String() string {
	return f.path
}

// NormalizeExtension lower-cases ext and strips leading dots, so that
// ".MP3", "mp3" and "Mp3" compare equal.
func NormalizeExtension(ext string) string {
	return strings.ToLower(strings.TrimLeft(strings.TrimSpace(ext), "."))
}

// Names returns the base names of files, in order
func Names(files []File) []string {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name()
	}
	return names
}

// Paths returns the absolute paths of files, in order
func Paths(files []File) []string {
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path()
	}
	return paths
}
