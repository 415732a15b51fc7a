// Package audio executes audio effects through a media backend. Effects
// rewrite each file in place, keeping its path and format.
package audio

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/Ning0612/aud/internal/adapter/batch"
	"github.com/Ning0612/aud/internal/core/operation"
	"github.com/Ning0612/aud/internal/domain"
	"github.com/Ning0612/aud/internal/logger"
	"github.com/Ning0612/aud/internal/media"
	"github.com/Ning0612/aud/internal/progress"
)

// Options configures an Adapter
type Options struct {
	// Workers > 1 renders that many files at once
	Workers int

	// Rand places watermarks. Nil means a randomly seeded source.
	Rand *rand.Rand

	Reporter progress.Reporter
	Logger   logger.Logger
}

// Adapter executes audio-category operations
type Adapter struct {
	backend  media.Backend
	workers  int
	reporter progress.Reporter
	logger   logger.Logger

	randMu sync.Mutex
	rand   *rand.Rand
}

// New creates an Adapter rendering through backend
func New(backend media.Backend, opts Options) *Adapter {
	r := opts.Rand
	if r == nil {
		r = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Adapter{
		backend:  backend,
		workers:  opts.Workers,
		reporter: progress.OrNull(opts.Reporter),
		logger:   logger.OrGet(opts.Logger).With("adapter", "audio"),
		rand:     r,
	}
}

// Execute applies op to every file in place and returns files unchanged,
// except Join which returns the single joined file.
func (a *Adapter) Execute(ctx context.Context, op operation.Operation, files []domain.File) ([]domain.File, error) {
	if op == nil {
		return nil, fmt.Errorf("%w: nil operation", domain.ErrUnsupportedOperation)
	}

	switch op := op.(type) {
	case operation.Join:
		return a.join(ctx, op, files)
	case operation.Normalize, operation.Fade, operation.Pad, operation.Gain,
		operation.LowPass, operation.HighPass, operation.InvertPhase, operation.StripSilence,
		operation.Overlay, operation.PrependClip, operation.AppendClip, operation.Watermark:
		opts := batch.Options{Action: op.Kind().Action(), Workers: a.workers, Reporter: a.reporter}
		return batch.Map(ctx, files, opts, func(ctx context.Context, f domain.File) (domain.File, error) {
			return f, a.render(ctx, op, f)
		})
	default:
		return nil, fmt.Errorf("%w: %s is not an audio operation", domain.ErrUnsupportedOperation, op.Kind())
	}
}

// render builds the job for op on f and runs it. Operations that turn
// out to be no-ops for f, such as a fade longer than the file, skip the
// render.
func (a *Adapter) render(ctx context.Context, op operation.Operation, f domain.File) error {
	job := inPlace(f)

	switch op := op.(type) {
	case operation.Normalize:
		for range op.Passes {
			job.Effects = append(job.Effects, media.Normalize{HeadroomDB: op.HeadroomDB})
		}
	case operation.Fade:
		effects, err := a.fade(ctx, op, f)
		if err != nil {
			return err
		}
		if len(effects) == 0 {
			a.logger.Debug("fade skipped", "file", f.Path(), "in", op.In, "out", op.Out)
			return nil
		}
		job.Effects = effects
	case operation.Pad:
		if op.Start > 0 {
			job.Effects = append(job.Effects, media.PadStart{Duration: media.Seconds(op.Start)})
		}
		if op.End > 0 {
			job.Effects = append(job.Effects, media.PadEnd{Duration: media.Seconds(op.End)})
		}
	case operation.Gain:
		job.Effects = []media.Effect{media.Gain{DB: op.DB}}
	case operation.LowPass:
		job.Effects = []media.Effect{media.LowPass{CutoffHz: op.CutoffHz}}
	case operation.HighPass:
		job.Effects = []media.Effect{media.HighPass{CutoffHz: op.CutoffHz}}
	case operation.InvertPhase:
		job.Effects = []media.Effect{media.InvertPhase{
			Left:  op.Channel != operation.ChannelRight,
			Right: op.Channel != operation.ChannelLeft,
		}}
	case operation.StripSilence:
		job.Effects = []media.Effect{media.StripSilence{
			MinSilence:  media.Milliseconds(float64(op.MinSilenceMs)),
			ThresholdDB: op.ThresholdDB,
			Padding:     media.Milliseconds(float64(op.PaddingMs)),
		}}
	case operation.Overlay:
		job.Overlays = []media.Overlay{{Clip: op.Clip, At: media.Seconds(op.At), GainDB: op.GainDB}}
	case operation.PrependClip:
		job.Sources = []string{op.Clip, f.Path()}
	case operation.AppendClip:
		job.Sources = []string{f.Path(), op.Clip}
	case operation.Watermark:
		overlays, err := a.watermark(ctx, op, f)
		if err != nil {
			return err
		}
		if len(overlays) == 0 {
			a.logger.Debug("watermark skipped: file too short", "file", f.Path())
			return nil
		}
		job.Overlays = overlays
	default:
		return fmt.Errorf("%w: %s is not an audio operation", domain.ErrUnsupportedOperation, op.Kind())
	}

	if err := a.backend.Render(ctx, job); err != nil {
		return fmt.Errorf("%s %s: %w", op.Kind().Action(), f.Name(), err)
	}
	a.logger.Debug("rendered", "op", string(op.Kind()), "file", f.Path())
	return nil
}

func inPlace(f domain.File) media.Job {
	return media.Job{
		Sources: []string{f.Path()},
		Output:  media.Output{Path: f.Path(), Format: f.Extension()},
	}
}

// fade returns no effects when the file is not longer than both ramps
func (a *Adapter) fade(ctx context.Context, op operation.Fade, f domain.File) ([]media.Effect, error) {
	if op.In <= 0 && op.Out <= 0 {
		return nil, nil
	}

	info, err := a.backend.Probe(ctx, f.Path())
	if err != nil {
		return nil, fmt.Errorf("fade %s: %w", f.Name(), err)
	}
	in, out := media.Seconds(op.In), media.Seconds(op.Out)
	if info.Duration <= in+out {
		return nil, nil
	}

	var effects []media.Effect
	if in > 0 {
		effects = append(effects, media.FadeIn{Duration: in})
	}
	if out > 0 {
		effects = append(effects, media.FadeOut{Start: info.Duration - out, Duration: out})
	}
	return effects, nil
}

func (a *Adapter) watermark(ctx context.Context, op operation.Watermark, f domain.File) ([]media.Overlay, error) {
	info, err := a.backend.Probe(ctx, f.Path())
	if err != nil {
		return nil, fmt.Errorf("watermark %s: %w", f.Name(), err)
	}
	clip, err := a.backend.Probe(ctx, op.Clip)
	if err != nil {
		return nil, fmt.Errorf("watermark clip: %w", err)
	}

	a.randMu.Lock()
	at := Placements(info.Duration, clip.Duration, media.Seconds(op.MinSpacing), media.Seconds(op.MaxSpacing), a.rand)
	a.randMu.Unlock()

	overlays := make([]media.Overlay, len(at))
	for i, pos := range at {
		overlays[i] = media.Overlay{Clip: op.Clip, At: pos, GainDB: op.GainDB}
	}
	return overlays, nil
}

// Placements returns the watermark start times for audio of length total.
// Each placement follows the previous one by a random spacing in
// [minSpacing, maxSpacing) plus the clip length; placements stop once the
// next would start within maxSpacing plus the clip length of the end.
func Placements(total, clip, minSpacing, maxSpacing time.Duration, r *rand.Rand) []time.Duration {
	if total <= clip+maxSpacing || maxSpacing <= minSpacing {
		return nil
	}

	var out []time.Duration
	var cur time.Duration
	for {
		step := minSpacing + time.Duration(r.Int64N(int64(maxSpacing-minSpacing))) + clip
		cur += max(step, time.Millisecond)
		if cur+maxSpacing+clip >= total {
			return out
		}
		out = append(out, cur)
	}
}

// join concatenates files in order into the join target. The target
// lives next to the first file unless it is absolute.
func (a *Adapter) join(ctx context.Context, op operation.Join, files []domain.File) ([]domain.File, error) {
	if len(files) == 0 {
		return nil, nil
	}
	target := op.TargetFor(files[0].Dir())

	a.reporter.SetTotal(op.Kind().Action(), len(files))
	job := media.Job{
		Sources: domain.Paths(files),
		Output:  media.Output{Path: target.Path(), Format: op.OutputFormat()},
	}
	if err := a.backend.Render(ctx, job); err != nil {
		a.reporter.Error(target.Path(), err)
		return nil, fmt.Errorf("join into %s: %w", target.Name(), err)
	}
	for _, f := range files {
		a.reporter.Complete(f.Path())
	}

	a.logger.Debug("joined", "target", target.Path(), "files", len(files))
	return []domain.File{target}, nil
}
