package service

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Ning0612/aud/internal/core/operation"
	"github.com/Ning0612/aud/internal/core/plan"
	"github.com/Ning0612/aud/internal/domain"
)

// Preset is the delivery format a platform expects
type Preset struct {
	Format     string
	SampleRate int
	BitDepth   int
}

var presets = map[string]Preset{
	"amuse":      {Format: "wav", SampleRate: 44100, BitDepth: 16},
	"bandcamp":   {Format: "flac", SampleRate: 44100, BitDepth: 24},
	"soundcloud": {Format: "flac", SampleRate: 48000, BitDepth: 24},
	"distrokid":  {Format: "wav", SampleRate: 44100, BitDepth: 16},
}

// Platforms returns the names of the known export presets, sorted
func Platforms() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// PresetFor returns the preset of platform, ignoring case
func PresetFor(platform string) (Preset, error) {
	p, ok := presets[strings.ToLower(platform)]
	if !ok {
		return Preset{}, fmt.Errorf("%w: %q", domain.ErrUnknownPlatform, platform)
	}
	return p, nil
}

// ExportFor copies the selection into dir and converts the copies to the
// preset of platform. The selection and the originals are unchanged; the
// exported files are returned.
func (d *Directory) ExportFor(ctx context.Context, platform, dir string) ([]domain.File, error) {
	action := "export for " + strings.ToLower(platform)
	preset, err := PresetFor(platform)
	if err != nil {
		return nil, domain.NewOpError(domain.KindExport, action, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	files := slices.Clone(d.files)
	start := d.now()
	p := plan.New(files).
		Add(operation.Resolve(operation.Copy{Target: dir}, d.path)).
		Add(operation.NewConvertFormat(preset.Format, operation.ConvertOptions{
			SampleRate: preset.SampleRate,
			BitDepth:   preset.BitDepth,
		}))

	fail := func(err error) ([]domain.File, error) {
		d.record(operation.KindConvertFormat, action, start, len(files), 0, err)
		d.logger.Error("export failed", "platform", platform, "dir", dir, "error", err)
		return nil, domain.NewOpError(domain.KindExport, action, err)
	}

	if collisions := plan.Collisions(p.Preview()); len(collisions) > 0 {
		c := collisions[0]
		return fail(fmt.Errorf("%w: %d files would be exported as %s", domain.ErrNameCollision, len(c.Sources), filepath.Base(c.Path)))
	}

	out, err := d.export.Run(ctx, p)
	if err != nil {
		return fail(err)
	}

	d.record(operation.KindConvertFormat, action, start, len(files), len(out), nil)
	d.logger.Info("exported", "platform", platform, "dir", dir, "files", len(out))
	if d.logFile != "" {
		if err := d.logLocked(capitalize(action)); err != nil {
			d.logger.Warn("message log write failed", "file", d.logFile, "error", err)
		}
	}
	return out, nil
}
