package convert

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ning0612/aud/internal/core/operation"
	"github.com/Ning0612/aud/internal/domain"
	"github.com/Ning0612/aud/internal/media"
	"github.com/Ning0612/aud/internal/testutil"
)

func setup(t *testing.T, opts Options, names ...string) (*testutil.FakeBackend, *Adapter, []domain.File) {
	t.Helper()

	fs := testutil.MemDir(t, "/music", names...)
	backend := testutil.NewFakeBackend(fs)
	files := make([]domain.File, len(names))
	for i, n := range names {
		files[i] = domain.NewFile("/music/" + n)
	}
	return backend, New(backend, fs, opts), files
}

func TestExecute_ConvertFormat(t *testing.T) {
	backend, a, files := setup(t, Options{}, "bloop.wav", "song.wav")
	op := operation.NewConvertFormat(".MP3", operation.ConvertOptions{
		SampleRate: 48000,
		BitDepth:   24,
		Tags:       map[string]string{"artist": "someone"},
		Cover:      "/music/cover.jpg",
	})

	out, err := a.Execute(context.Background(), op, files)
	require.NoError(t, err)

	assert.Equal(t, []string{"/music/bloop.mp3", "/music/song.mp3"}, domain.Paths(out))
	assert.True(t, testutil.Exists(t, backend.Fs, "/music/bloop.mp3"))
	assert.True(t, testutil.Exists(t, backend.Fs, "/music/bloop.wav"), "sources are kept by default")

	jobs := backend.Jobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, media.Output{
		Path:        "/music/bloop.mp3",
		Format:      "mp3",
		SampleRate:  48000,
		SampleWidth: 4,
		Tags:        map[string]string{"artist": "someone"},
		Cover:       "/music/cover.jpg",
	}, jobs[0].Output)
}

func TestExecute_ConvertFormatRemovesSources(t *testing.T) {
	backend, a, files := setup(t, Options{RemoveSources: true}, "a.wav")

	out, err := a.Execute(context.Background(), operation.NewConvertFormat("flac", operation.ConvertOptions{}), files)
	require.NoError(t, err)

	assert.Equal(t, "a.flac", out[0].Name())
	assert.False(t, testutil.Exists(t, backend.Fs, "/music/a.wav"))
}

func TestExecute_ConvertSameFormatKeepsFile(t *testing.T) {
	backend, a, files := setup(t, Options{RemoveSources: true}, "a.wav")

	out, err := a.Execute(context.Background(), operation.NewConvertFormat("wav", operation.ConvertOptions{SampleRate: 22050}), files)
	require.NoError(t, err)

	assert.Equal(t, files, out)
	assert.True(t, testutil.Exists(t, backend.Fs, "/music/a.wav"))
}

func TestExecute_BitDepth(t *testing.T) {
	tests := []struct {
		depth int
		width int
	}{
		{8, 1},
		{16, 2},
		{24, 4},
		{32, 4},
	}

	for _, tt := range tests {
		backend, a, files := setup(t, Options{}, "a.wav")
		op := operation.NewConvertFormat("wav", operation.ConvertOptions{BitDepth: tt.depth})

		_, err := a.Execute(context.Background(), op, files)
		require.NoError(t, err)
		assert.Equal(t, tt.width, backend.Jobs()[0].Output.SampleWidth, "bit depth %d", tt.depth)
	}
}

func TestExecute_UnsupportedBitDepth(t *testing.T) {
	backend, a, files := setup(t, Options{}, "a.wav")
	op := operation.NewConvertFormat("wav", operation.ConvertOptions{BitDepth: 12})

	_, err := a.Execute(context.Background(), op, files)
	require.ErrorIs(t, err, domain.ErrUnsupportedBitDepth)
	assert.Empty(t, backend.Jobs())
}

func TestExecute_Channels(t *testing.T) {
	backend, a, files := setup(t, Options{}, "a.flac")

	out, err := a.Execute(context.Background(), operation.ConvertToMono{}, files)
	require.NoError(t, err)
	assert.Equal(t, files, out)

	_, err = a.Execute(context.Background(), operation.ConvertToStereo{}, files)
	require.NoError(t, err)

	jobs := backend.Jobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, media.Output{Path: "/music/a.flac", Format: "flac", Channels: 1}, jobs[0].Output)
	assert.Equal(t, 2, jobs[1].Output.Channels)
}

func TestExecute_RenderFailure(t *testing.T) {
	backend, a, files := setup(t, Options{Workers: 2}, "a.wav", "b.wav")
	backend.FailOn = "/music/b.mp3"

	_, err := a.Execute(context.Background(), operation.NewConvertFormat("mp3", operation.ConvertOptions{}), files)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b.wav")
}

func TestExecute_Unsupported(t *testing.T) {
	_, a, files := setup(t, Options{}, "a.wav")

	_, err := a.Execute(context.Background(), operation.Gain{}, files)
	require.ErrorIs(t, err, domain.ErrUnsupportedOperation)
}
