// Package ffmpeg implements media.Backend by running the ffmpeg and
// ffprobe executables.
package ffmpeg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/Ning0612/aud/internal/media"
)

// Config selects the executables. Empty names resolve through PATH.
type Config struct {
	FFmpeg  string
	FFprobe string
	Runner  Runner
}

// Backend renders jobs with ffmpeg
type Backend struct {
	ffmpeg  string
	ffprobe string
	runner  Runner
}

// New creates a Backend
func New(cfg Config) *Backend {
	b := &Backend{ffmpeg: cfg.FFmpeg, ffprobe: cfg.FFprobe, runner: cfg.Runner}
	if b.ffmpeg == "" {
		b.ffmpeg = "ffmpeg"
	}
	if b.ffprobe == "" {
		b.ffprobe = "ffprobe"
	}
	if b.runner == nil {
		b.runner = ExecRunner{}
	}
	return b
}

var _ media.Backend = (*Backend)(nil)

// Render resolves normalisation by measuring the stream, then encodes to a
// temporary file next to the output and renames it into place.
func (b *Backend) Render(ctx context.Context, job media.Job) error {
	if len(job.Sources) == 0 {
		return errors.New("render: no sources")
	}
	if job.Output.Path == "" {
		return errors.New("render: no output path")
	}

	effects, err := b.resolveNormalize(ctx, job)
	if err != nil {
		return err
	}

	out := job.Output.Path
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return fmt.Errorf("render %s: %w", out, err)
	}
	tmp := filepath.Join(filepath.Dir(out), "."+filepath.Base(out)+".aud-tmp")

	args, err := renderArgs(job, effects, tmp)
	if err != nil {
		return fmt.Errorf("render %s: %w", out, err)
	}

	if _, _, err := b.runner.Run(ctx, b.ffmpeg, args...); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("render %s: %w", out, err)
	}

	if err := os.Rename(tmp, out); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("render %s: %w", out, err)
	}

	return nil
}

func renderArgs(job media.Job, effects []media.Effect, dest string) ([]string, error) {
	graph, err := filterGraph(job, effects)
	if err != nil {
		return nil, err
	}

	args := []string{"-hide_banner", "-loglevel", "error", "-y"}
	args = append(args, inputArgs(job)...)

	o := job.Output
	withCover := o.Cover != "" && supportsCover(o.Format)
	if withCover {
		args = append(args, "-i", o.Cover)
	}

	args = append(args, "-filter_complex", graph, "-map", "[out]")
	if withCover {
		coverIdx := len(job.Sources) + len(job.Overlays)
		args = append(args,
			"-map", strconv.Itoa(coverIdx)+":v",
			"-c:v", "copy",
			"-disposition:v", "attached_pic")
	}

	if o.Channels > 0 {
		args = append(args, "-ac", strconv.Itoa(o.Channels))
	}
	if o.SampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(o.SampleRate))
	}

	muxer, codec := encoding(o.Format, o.SampleWidth)
	args = append(args, codec...)
	args = append(args, metadataArgs(o.Tags)...)
	args = append(args, "-f", muxer, dest)

	return args, nil
}

func inputArgs(job media.Job) []string {
	args := make([]string, 0, 2*(len(job.Sources)+len(job.Overlays)))
	for _, src := range job.Sources {
		args = append(args, "-i", src)
	}
	for _, ov := range job.Overlays {
		args = append(args, "-i", ov.Clip)
	}
	return args
}

var maxVolumeRe = regexp.MustCompile(`max_volume:\s*(-?[0-9.]+|-inf) dB`)

// resolveNormalize replaces every Normalize effect with the Gain that
// brings the peak of the stream at that point to the requested headroom.
func (b *Backend) resolveNormalize(ctx context.Context, job media.Job) ([]media.Effect, error) {
	effects := make([]media.Effect, len(job.Effects))
	copy(effects, job.Effects)

	for i, e := range effects {
		n, ok := e.(media.Normalize)
		if !ok {
			continue
		}

		peak, err := b.measurePeak(ctx, job, effects[:i])
		if err != nil {
			return nil, err
		}
		effects[i] = media.Gain{DB: -n.HeadroomDB - peak}
	}

	return effects, nil
}

func (b *Backend) measurePeak(ctx context.Context, job media.Job, before []media.Effect) (float64, error) {
	graph, err := filterGraph(job, before, "volumedetect")
	if err != nil {
		return 0, err
	}

	args := []string{"-hide_banner", "-nostats"}
	args = append(args, inputArgs(job)...)
	args = append(args, "-filter_complex", graph, "-map", "[out]", "-f", "null", "-")

	_, stderr, err := b.runner.Run(ctx, b.ffmpeg, args...)
	if err != nil {
		return 0, fmt.Errorf("measure peak: %w", err)
	}

	m := maxVolumeRe.FindSubmatch(stderr)
	if m == nil {
		return 0, fmt.Errorf("measure peak: no max_volume in ffmpeg output")
	}
	if string(m[1]) == "-inf" {
		// digital silence: leave the level alone
		return 0, nil
	}
	return strconv.ParseFloat(string(m[1]), 64)
}

type probeOutput struct {
	Streams []struct {
		SampleRate    string `json:"sample_rate"`
		Channels      int    `json:"channels"`
		SampleFmt     string `json:"sample_fmt"`
		BitsPerSample int    `json:"bits_per_sample"`
	} `json:"streams"`
	Format struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
	} `json:"format"`
}

// Probe reads the first audio stream of path with ffprobe
func (b *Backend) Probe(ctx context.Context, path string) (media.Info, error) {
	stdout, _, err := b.runner.Run(ctx, b.ffprobe,
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "stream=sample_rate,channels,sample_fmt,bits_per_sample:format=format_name,duration",
		"-of", "json",
		path)
	if err != nil {
		return media.Info{}, fmt.Errorf("probe %s: %w", path, err)
	}

	var out probeOutput
	if err := json.Unmarshal(stdout, &out); err != nil {
		return media.Info{}, fmt.Errorf("probe %s: parsing JSON: %w", path, err)
	}
	if len(out.Streams) == 0 {
		return media.Info{}, fmt.Errorf("probe %s: no audio stream", path)
	}

	s := out.Streams[0]
	info := media.Info{
		Channels:    s.Channels,
		SampleWidth: sampleWidth(s.SampleFmt, s.BitsPerSample),
		Format:      strings.SplitN(out.Format.FormatName, ",", 2)[0],
	}
	info.SampleRate, _ = strconv.Atoi(s.SampleRate)
	if d, err := strconv.ParseFloat(out.Format.Duration, 64); err == nil {
		info.Duration = media.Seconds(d)
	}

	return info, nil
}

func sampleWidth(sampleFmt string, bits int) int {
	switch strings.TrimSuffix(sampleFmt, "p") {
	case "u8":
		return 1
	case "s16":
		return 2
	case "s32", "flt":
		return 4
	case "s64", "dbl":
		return 8
	}
	return bits / 8
}
