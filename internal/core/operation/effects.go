package operation

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Ning0612/aud/internal/domain"
)

// Audio effects rewrite a file in place, keeping its path and format.

// Normalize raises the peak level to HeadroomDB below full scale,
// Passes times.
type Normalize struct {
	HeadroomDB float64
	Passes     int
}

func (Normalize) Kind() Kind                        { return KindNormalize }
func (Normalize) operation()                        {}
func (Normalize) Apply(f domain.File) []domain.File { return single(f) }

// Fade ramps the level in over In seconds and out over Out seconds.
// Files not longer than In+Out are left alone.
type Fade struct {
	In  float64
	Out float64
}

func (Fade) Kind() Kind                        { return KindFade }
func (Fade) operation()                        {}
func (Fade) Apply(f domain.File) []domain.File { return single(f) }

// Pad adds Start seconds of silence before and End seconds after the audio
type Pad struct {
	Start float64
	End   float64
}

func (Pad) Kind() Kind                        { return KindPad }
func (Pad) operation()                        {}
func (Pad) Apply(f domain.File) []domain.File { return single(f) }

// Gain changes the level by DB decibels
type Gain struct {
	DB float64
}

func (Gain) Kind() Kind                        { return KindGain }
func (Gain) operation()                        {}
func (Gain) Apply(f domain.File) []domain.File { return single(f) }

// LowPass attenuates content above CutoffHz
type LowPass struct {
	CutoffHz float64
}

func (LowPass) Kind() Kind                        { return KindLowPass }
func (LowPass) operation()                        {}
func (LowPass) Apply(f domain.File) []domain.File { return single(f) }

// HighPass attenuates content below CutoffHz
type HighPass struct {
	CutoffHz float64
}

func (HighPass) Kind() Kind                        { return KindHighPass }
func (HighPass) operation()                        {}
func (HighPass) Apply(f domain.File) []domain.File { return single(f) }

// Channel selects stereo channels
type Channel string

const (
	ChannelBoth  Channel = "both"
	ChannelLeft  Channel = "left"
	ChannelRight Channel = "right"
)

// ParseChannel accepts left, right or both in any case
func ParseChannel(s string) (Channel, error) {
	switch c := Channel(strings.ToLower(strings.TrimSpace(s))); c {
	case ChannelBoth, ChannelLeft, ChannelRight:
		return c, nil
	case "":
		return ChannelBoth, nil
	default:
		return "", fmt.Errorf("%w: channel %q is not left, right or both", domain.ErrInvalidOperation, s)
	}
}

// InvertPhase flips the polarity of Channel
type InvertPhase struct {
	Channel Channel
}

func (InvertPhase) Kind() Kind                        { return KindInvertPhase }
func (InvertPhase) operation()                        {}
func (InvertPhase) Apply(f domain.File) []domain.File { return single(f) }

// StripSilence removes silences of at least MinSilenceMs quieter than
// ThresholdDB, keeping PaddingMs around the remaining audio.
type StripSilence struct {
	MinSilenceMs int
	ThresholdDB  float64
	PaddingMs    int
}

// DefaultStripSilence returns the usual parameters: 1s below -16dB, 100ms padding
func DefaultStripSilence() StripSilence {
	return StripSilence{MinSilenceMs: 1000, ThresholdDB: -16, PaddingMs: 100}
}

func (StripSilence) Kind() Kind                        { return KindStripSilence }
func (StripSilence) operation()                        {}
func (StripSilence) Apply(f domain.File) []domain.File { return single(f) }

// Overlay mixes Clip into each file At seconds from the start
type Overlay struct {
	Clip   string
	At     float64
	GainDB float64
}

func (Overlay) Kind() Kind                        { return KindOverlay }
func (Overlay) operation()                        {}
func (Overlay) Apply(f domain.File) []domain.File { return single(f) }

// PrependClip places Clip before the audio of each file
type PrependClip struct {
	Clip string
}

func (PrependClip) Kind() Kind                        { return KindPrependClip }
func (PrependClip) operation()                        {}
func (PrependClip) Apply(f domain.File) []domain.File { return single(f) }

// AppendClip places Clip after the audio of each file
type AppendClip struct {
	Clip string
}

func (AppendClip) Kind() Kind                        { return KindAppendClip }
func (AppendClip) operation()                        {}
func (AppendClip) Apply(f domain.File) []domain.File { return single(f) }

// DefaultWatermarkGainDB is the level change applied to watermark clips
const DefaultWatermarkGainDB = -2

// Watermark overlays Clip repeatedly. Consecutive placements are a random
// MinSpacing..MaxSpacing seconds apart plus the clip length, and stop
// before MaxSpacing plus the clip length from the end.
type Watermark struct {
	Clip       string
	MinSpacing float64
	MaxSpacing float64
	GainDB     float64
}

// NewWatermark creates a Watermark at the default gain
func NewWatermark(clip string, minSpacing, maxSpacing float64) Watermark {
	return Watermark{Clip: clip, MinSpacing: minSpacing, MaxSpacing: maxSpacing, GainDB: DefaultWatermarkGainDB}
}

func (Watermark) Kind() Kind                        { return KindWatermark }
func (Watermark) operation()                        {}
func (Watermark) Apply(f domain.File) []domain.File { return single(f) }

// Join concatenates every file, in order, into Target encoded as Format.
// An empty Format is taken from Target's extension, falling back to wav.
type Join struct {
	Target string
	Format string
}

func (Join) Kind() Kind { return KindJoin }
func (Join) operation() {}

func (op Join) Apply(f domain.File) []domain.File {
	return single(op.TargetFor(f.Dir()))
}

// TargetFor returns the joined file for inputs living in dir
func (op Join) TargetFor(dir string) domain.File {
	path := op.Target
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	return domain.NewFile(path)
}

// OutputFormat returns the encoding of the joined file
func (op Join) OutputFormat() string {
	if f := domain.NormalizeExtension(op.Format); f != "" {
		return f
	}
	if ext := domain.NewFile(op.Target).Extension(); ext != "" {
		return ext
	}
	return "wav"
}
