package testutil

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/Ning0612/aud/internal/media"
)

// MemDir creates an in-memory filesystem holding dir with the named files.
// Each file contains its own name.
func MemDir(t *testing.T, dir string, names ...string) afero.Fs {
	t.Helper()

	fs := afero.NewMemMapFs()
	if err := fs.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	WriteFiles(t, fs, dir, names...)
	return fs
}

// WriteFiles creates files in dir, each containing its own name
func WriteFiles(t *testing.T, fs afero.Fs, dir string, names ...string) {
	t.Helper()

	for _, name := range names {
		if err := afero.WriteFile(fs, filepath.Join(dir, name), []byte(name), 0644); err != nil {
			t.Fatalf("failed to create test file: %v", err)
		}
	}
}

// ReadFile returns the content of path, failing the test on error
func ReadFile(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

// Exists reports whether path exists in fs
func Exists(t *testing.T, fs afero.Fs, path string) bool {
	t.Helper()

	ok, err := afero.Exists(fs, path)
	if err != nil {
		t.Fatalf("failed to stat %s: %v", path, err)
	}
	return ok
}

// FakeBackend is a media.Backend over an afero filesystem. Render writes
// the concatenated sources to the output path, so joins and conversions
// can be observed without decoding audio.
type FakeBackend struct {
	Fs afero.Fs

	// Duration is reported by Probe for paths without an entry in Durations
	Duration  time.Duration
	Durations map[string]time.Duration

	// FailOn makes Render fail when it is asked to write this output path
	FailOn string

	mu   sync.Mutex
	jobs []media.Job
}

// NewFakeBackend creates a FakeBackend reporting 10s for every file
func NewFakeBackend(fs afero.Fs) *FakeBackend {
	return &FakeBackend{Fs: fs, Duration: 10 * time.Second, Durations: map[string]time.Duration{}}
}

func (b *FakeBackend) Probe(ctx context.Context, path string) (media.Info, error) {
	if ok, _ := afero.Exists(b.Fs, path); !ok {
		return media.Info{}, fmt.Errorf("probe %s: no such file", path)
	}

	d := b.Duration
	b.mu.Lock()
	if v, ok := b.Durations[path]; ok {
		d = v
	}
	b.mu.Unlock()

	return media.Info{Duration: d, SampleRate: 44100, Channels: 2, SampleWidth: 2, Format: "wav"}, nil
}

func (b *FakeBackend) Render(ctx context.Context, job media.Job) error {
	b.mu.Lock()
	b.jobs = append(b.jobs, job)
	b.mu.Unlock()

	if job.Output.Path == b.FailOn {
		return fmt.Errorf("render %s: simulated failure", job.Output.Path)
	}

	var buf bytes.Buffer
	for _, src := range job.Sources {
		data, err := afero.ReadFile(b.Fs, src)
		if err != nil {
			return fmt.Errorf("render: %w", err)
		}
		buf.Write(data)
	}

	if err := b.Fs.MkdirAll(filepath.Dir(job.Output.Path), 0755); err != nil {
		return err
	}
	return afero.WriteFile(b.Fs, job.Output.Path, buf.Bytes(), 0644)
}

// Jobs returns the rendered jobs in call order
func (b *FakeBackend) Jobs() []media.Job {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]media.Job(nil), b.jobs...)
}

var _ media.Backend = (*FakeBackend)(nil)
