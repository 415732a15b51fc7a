package service

import (
	"context"

	"github.com/Ning0612/aud/internal/core/operation"
	"github.com/Ning0612/aud/internal/domain"
)

// NameUpper upper-cases every file stem
func (d *Directory) NameUpper(ctx context.Context) error {
	return d.apply(ctx, operation.Uppercase{})
}

// NameLower lower-cases every file stem
func (d *Directory) NameLower(ctx context.Context) error {
	return d.apply(ctx, operation.Lowercase{})
}

// NamePrepend puts text in front of every name
func (d *Directory) NamePrepend(ctx context.Context, text string) error {
	return d.apply(ctx, operation.Prepend{Text: text})
}

// NameAppend puts text between every stem and its suffix
func (d *Directory) NameAppend(ctx context.Context, text string) error {
	return d.apply(ctx, operation.Append{Text: text})
}

// NameReplace replaces every occurrence of old in the names
func (d *Directory) NameReplace(ctx context.Context, old, new string) error {
	return d.apply(ctx, operation.Replace{Old: old, New: new})
}

// NameReplaceSpaces replaces the spaces in the names. An empty with
// means "_".
func (d *Directory) NameReplaceSpaces(ctx context.Context, with string) error {
	if with == "" {
		with = "_"
	}
	return d.apply(ctx, operation.ReplaceSpaces{With: with})
}

// NameIterate numbers the files from 1 in selection order
func (d *Directory) NameIterate(ctx context.Context, zerofill int, sep string) error {
	return d.apply(ctx, operation.NewIterate(1, zerofill, sep))
}

// Backup copies the selection into dir. The selection stays on the
// originals; the copies are returned.
func (d *Directory) Backup(ctx context.Context, dir string) ([]domain.File, error) {
	return d.run(ctx, operation.Backup{Target: dir})
}

// Copy copies the selection into dir and continues on the copies
func (d *Directory) Copy(ctx context.Context, dir string) error {
	return d.apply(ctx, operation.Copy{Target: dir})
}

// Move moves the selection into dir and continues there
func (d *Directory) Move(ctx context.Context, dir string) error {
	return d.apply(ctx, operation.Move{Target: dir})
}

// Zip archives the selection at path and returns the archive. An empty
// selection writes nothing and returns the zero File.
func (d *Directory) Zip(ctx context.Context, path string) (domain.File, error) {
	out, err := d.run(ctx, operation.Zip{Archive: path})
	if err != nil || len(out) == 0 {
		return domain.File{}, err
	}
	return out[0], nil
}

// ArchiveZip is Zip
func (d *Directory) ArchiveZip(ctx context.Context, path string) (domain.File, error) {
	return d.Zip(ctx, path)
}

// AfxNormalize normalises every file to headroomDB below full scale,
// passes times
func (d *Directory) AfxNormalize(ctx context.Context, headroomDB float64, passes int) error {
	return d.apply(ctx, operation.Normalize{HeadroomDB: headroomDB, Passes: passes})
}

// AfxFade fades every file in and out, in seconds. Files not longer than
// both fades are left alone.
func (d *Directory) AfxFade(ctx context.Context, in, out float64) error {
	return d.apply(ctx, operation.Fade{In: in, Out: out})
}

// AfxPad adds silence, in seconds, at both ends
func (d *Directory) AfxPad(ctx context.Context, start, end float64) error {
	return d.apply(ctx, operation.Pad{Start: start, End: end})
}

// AfxGain changes the level of every file by db
func (d *Directory) AfxGain(ctx context.Context, db float64) error {
	return d.apply(ctx, operation.Gain{DB: db})
}

// AfxLowPass filters out frequencies above cutoffHz
func (d *Directory) AfxLowPass(ctx context.Context, cutoffHz float64) error {
	return d.apply(ctx, operation.LowPass{CutoffHz: cutoffHz})
}

// AfxHighPass filters out frequencies below cutoffHz
func (d *Directory) AfxHighPass(ctx context.Context, cutoffHz float64) error {
	return d.apply(ctx, operation.HighPass{CutoffHz: cutoffHz})
}

// AfxInvertPhase inverts the phase of "left", "right" or "both" channels
func (d *Directory) AfxInvertPhase(ctx context.Context, channel string) error {
	ch, err := operation.ParseChannel(channel)
	if err != nil {
		return domain.NewOpError(domain.KindAudioFX, operation.KindInvertPhase.Action(), err)
	}
	return d.apply(ctx, operation.InvertPhase{Channel: ch})
}

// AfxStripSilence removes silences of at least minSilenceMs below
// thresholdDB, keeping paddingMs of them
func (d *Directory) AfxStripSilence(ctx context.Context, minSilenceMs int, thresholdDB float64, paddingMs int) error {
	return d.apply(ctx, operation.StripSilence{MinSilenceMs: minSilenceMs, ThresholdDB: thresholdDB, PaddingMs: paddingMs})
}

// AfxOverlay mixes clip into every file at seconds from the start
func (d *Directory) AfxOverlay(ctx context.Context, clip string, at, gainDB float64) error {
	return d.apply(ctx, operation.Overlay{Clip: clip, At: at, GainDB: gainDB})
}

// AfxPrepend puts clip before every file
func (d *Directory) AfxPrepend(ctx context.Context, clip string) error {
	return d.apply(ctx, operation.PrependClip{Clip: clip})
}

// AfxAppend puts clip after every file
func (d *Directory) AfxAppend(ctx context.Context, clip string) error {
	return d.apply(ctx, operation.AppendClip{Clip: clip})
}

// AfxWatermark overlays clip every minSpacing to maxSpacing seconds
func (d *Directory) AfxWatermark(ctx context.Context, clip string, minSpacing, maxSpacing float64) error {
	return d.apply(ctx, operation.NewWatermark(clip, minSpacing, maxSpacing))
}

// AfxJoin concatenates the selection into target. An empty format is
// taken from the target's extension. The selection is unchanged.
func (d *Directory) AfxJoin(ctx context.Context, target, format string) (domain.File, error) {
	out, err := d.run(ctx, operation.Join{Target: target, Format: format})
	if err != nil || len(out) == 0 {
		return domain.File{}, err
	}
	return out[0], nil
}

// ConvertFormat re-encodes every file as format next to the original.
// The selection continues on the converted files.
func (d *Directory) ConvertFormat(ctx context.Context, format string, opts operation.ConvertOptions) error {
	return d.apply(ctx, operation.NewConvertFormat(format, opts))
}

// ConvertToWAV converts the selection to wav
func (d *Directory) ConvertToWAV(ctx context.Context) error {
	return d.ConvertFormat(ctx, "wav", operation.ConvertOptions{})
}

// ConvertToMP3 converts the selection to mp3
func (d *Directory) ConvertToMP3(ctx context.Context) error {
	return d.ConvertFormat(ctx, "mp3", operation.ConvertOptions{})
}

// ConvertToFLAC converts the selection to flac
func (d *Directory) ConvertToFLAC(ctx context.Context) error {
	return d.ConvertFormat(ctx, "flac", operation.ConvertOptions{})
}

// ConvertToRAW converts the selection to headerless PCM
func (d *Directory) ConvertToRAW(ctx context.Context) error {
	return d.ConvertFormat(ctx, "raw", operation.ConvertOptions{})
}

// ConvertMono downmixes every file to one channel
func (d *Directory) ConvertMono(ctx context.Context) error {
	return d.apply(ctx, operation.ConvertToMono{})
}

// ConvertStereo turns every file into two channels
func (d *Directory) ConvertStereo(ctx context.Context) error {
	return d.apply(ctx, operation.ConvertToStereo{})
}

func (d *Directory) apply(ctx context.Context, op operation.Operation) error {
	_, err := d.run(ctx, op)
	return err
}
