package ffmpeg

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ning0612/aud/internal/media"
)

type call struct {
	name string
	args []string
}

// fakeRunner records invocations. Render calls write their destination
// (the last argument) so the rename into place succeeds.
type fakeRunner struct {
	calls  []call
	stdout []byte
	stderr []byte
	err    error
}

func (r *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	r.calls = append(r.calls, call{name: name, args: args})
	if r.err != nil {
		return nil, nil, r.err
	}
	if dest := args[len(args)-1]; dest != "-" && strings.HasSuffix(dest, ".aud-tmp") {
		if err := os.WriteFile(dest, []byte("rendered"), 0644); err != nil {
			return nil, nil, err
		}
	}
	return r.stdout, r.stderr, nil
}

func TestFilterGraph(t *testing.T) {
	tests := []struct {
		name    string
		job     media.Job
		effects []media.Effect
		want    string
	}{
		{
			name: "single source passthrough",
			job:  media.Job{Sources: []string{"a.wav"}},
			want: "[0:a]anull[out]",
		},
		{
			name:    "gain and fades",
			job:     media.Job{Sources: []string{"a.wav"}},
			effects: []media.Effect{media.Gain{DB: -3}, media.FadeIn{Duration: 500 * time.Millisecond}, media.FadeOut{Start: 9 * time.Second, Duration: time.Second}},
			want:    "[0:a]volume=-3dB,afade=t=in:st=0:d=0.5,afade=t=out:st=9:d=1[out]",
		},
		{
			name: "concat",
			job:  media.Job{Sources: []string{"a.wav", "b.wav", "c.wav"}},
			want: "[0:a][1:a][2:a]concat=n=3:v=0:a=1[cat];[cat]anull[out]",
		},
		{
			name: "overlay",
			job: media.Job{
				Sources:  []string{"a.wav"},
				Overlays: []media.Overlay{{Clip: "w.wav", At: 1500 * time.Millisecond, GainDB: -2}},
			},
			effects: []media.Effect{media.HighPass{CutoffHz: 80}},
			want:    "[1:a]adelay=1500:all=1,volume=-2dB[ov0];[0:a][ov0]amix=inputs=2:duration=first:normalize=0[mix];[mix]highpass=f=80[out]",
		},
		{
			name:    "invert left",
			job:     media.Job{Sources: []string{"a.wav"}},
			effects: []media.Effect{media.InvertPhase{Left: true}},
			want:    "[0:a]aeval=-val(0)|val(1):c=same[out]",
		},
		{
			name:    "strip silence",
			job:     media.Job{Sources: []string{"a.wav"}},
			effects: []media.Effect{media.StripSilence{MinSilence: time.Second, ThresholdDB: -16, Padding: 100 * time.Millisecond}},
			want:    "[0:a]silenceremove=stop_periods=-1:stop_duration=1:stop_threshold=-16dB:stop_silence=0.1[out]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := filterGraph(tt.job, tt.effects)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilterGraph_UnresolvedNormalize(t *testing.T) {
	_, err := filterGraph(media.Job{Sources: []string{"a.wav"}}, []media.Effect{media.Normalize{HeadroomDB: 0.1}})
	assert.Error(t, err)
}

func TestRenderArgs_Conversion(t *testing.T) {
	job := media.Job{
		Sources: []string{"/music/a.wav"},
		Output: media.Output{
			Path:        "/music/a.flac",
			Format:      "flac",
			SampleRate:  48000,
			SampleWidth: 4,
			Channels:    1,
			Tags:        map[string]string{"title": "A", "artist": "B"},
			Cover:       "/music/cover.jpg",
		},
	}

	args, err := renderArgs(job, nil, "/music/.a.flac.aud-tmp")
	require.NoError(t, err)

	joined := strings.Join(args, " ")
	assert.Contains(t, joined, "-i /music/a.wav -i /music/cover.jpg")
	assert.Contains(t, joined, "-map 1:v -c:v copy -disposition:v attached_pic")
	assert.Contains(t, joined, "-ac 1 -ar 48000 -c:a flac -sample_fmt s32")
	assert.Contains(t, joined, "-metadata artist=B -metadata title=A")
	assert.True(t, strings.HasSuffix(joined, "-f flac /music/.a.flac.aud-tmp"))
}

func TestEncoding(t *testing.T) {
	muxer, codec := encoding("raw", 1)
	assert.Equal(t, "u8", muxer)
	assert.Equal(t, []string{"-c:a", "pcm_u8"}, codec)

	muxer, codec = encoding("wav", 2)
	assert.Equal(t, "wav", muxer)
	assert.Equal(t, []string{"-c:a", "pcm_s16le"}, codec)

	muxer, codec = encoding("mp3", 0)
	assert.Equal(t, "mp3", muxer)
	assert.Equal(t, []string{"-c:a", "libmp3lame"}, codec)
}

func TestBackend_Render(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.wav")
	require.NoError(t, os.WriteFile(src, []byte("original"), 0644))

	runner := &fakeRunner{}
	b := New(Config{Runner: runner})

	err := b.Render(context.Background(), media.Job{
		Sources: []string{src},
		Effects: []media.Effect{media.Gain{DB: 6}},
		Output:  media.Output{Path: src, Format: "wav"},
	})
	require.NoError(t, err)

	require.Len(t, runner.calls, 1)
	assert.Equal(t, "ffmpeg", runner.calls[0].name)

	data, err := os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, "rendered", string(data))

	_, err = os.Stat(filepath.Join(dir, ".a.wav.aud-tmp"))
	assert.True(t, os.IsNotExist(err), "temporary file must be renamed away")
}

func TestBackend_RenderFailureKeepsSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.wav")
	require.NoError(t, os.WriteFile(src, []byte("original"), 0644))

	b := New(Config{Runner: &fakeRunner{err: errors.New("ffmpeg: Invalid data found")}})
	err := b.Render(context.Background(), media.Job{
		Sources: []string{src},
		Output:  media.Output{Path: src, Format: "wav"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid data found")

	data, err := os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, "original", string(data))
}

func TestBackend_RenderNormalize(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.wav")
	require.NoError(t, os.WriteFile(src, []byte("original"), 0644))

	runner := &fakeRunner{stderr: []byte("[Parsed_volumedetect_0 @ 0x1] mean_volume: -20.1 dB\n[Parsed_volumedetect_0 @ 0x1] max_volume: -6.0 dB\n")}
	b := New(Config{Runner: runner})

	err := b.Render(context.Background(), media.Job{
		Sources: []string{src},
		Effects: []media.Effect{media.Normalize{HeadroomDB: 0.1}},
		Output:  media.Output{Path: src, Format: "wav"},
	})
	require.NoError(t, err)

	require.Len(t, runner.calls, 2)
	assert.Contains(t, strings.Join(runner.calls[0].args, " "), "[0:a]volumedetect[out]")
	assert.Contains(t, strings.Join(runner.calls[1].args, " "), "[0:a]volume=5.9dB[out]")
}

func TestBackend_Probe(t *testing.T) {
	runner := &fakeRunner{stdout: []byte(`{
		"streams": [{"sample_rate": "44100", "channels": 2, "sample_fmt": "s16", "bits_per_sample": 16}],
		"format": {"format_name": "wav", "duration": "3.500000"}
	}`)}
	b := New(Config{FFprobe: "/usr/bin/ffprobe", Runner: runner})

	info, err := b.Probe(context.Background(), "/music/a.wav")
	require.NoError(t, err)

	assert.Equal(t, "/usr/bin/ffprobe", runner.calls[0].name)
	assert.Equal(t, media.Info{
		Duration:    3500 * time.Millisecond,
		SampleRate:  44100,
		Channels:    2,
		SampleWidth: 2,
		Format:      "wav",
	}, info)
}

func TestBackend_ProbeNoAudio(t *testing.T) {
	b := New(Config{Runner: &fakeRunner{stdout: []byte(`{"streams": [], "format": {}}`)}})
	_, err := b.Probe(context.Background(), "/music/cover.jpg")
	assert.ErrorContains(t, err, "no audio stream")
}
