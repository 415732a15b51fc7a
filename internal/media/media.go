// Package media defines the decode/effect/encode capability used by the
// audio and conversion adapters. The capability is opaque: callers describe
// what to render and a Backend decides how.
package media

import (
	"context"
	"time"
)

// Backend decodes, transforms and encodes audio files
type Backend interface {
	// Probe reads stream properties of path
	Probe(ctx context.Context, path string) (Info, error)

	// Render produces job.Output. The output may be one of the sources;
	// implementations must not leave a partially written output behind.
	Render(ctx context.Context, job Job) error
}

// Info describes a decoded audio stream
type Info struct {
	Duration    time.Duration
	SampleRate  int
	Channels    int
	SampleWidth int // bytes per sample
	Format      string
}

// Job describes one render: the sources are concatenated in order, the
// overlays are mixed onto the result, then the effects run in order.
type Job struct {
	Sources  []string
	Overlays []Overlay
	Effects  []Effect
	Output   Output
}

// Overlay mixes Clip onto the main stream starting at At
type Overlay struct {
	Clip   string
	At     time.Duration
	GainDB float64
}

// Output describes the encoded result. Zero values keep the source property.
type Output struct {
	Path        string
	Format      string
	SampleRate  int
	SampleWidth int
	Channels    int
	Tags        map[string]string
	Cover       string
}

// Effect is a single transformation of the main stream
type Effect interface {
	isEffect()
}

// Gain changes the level by DB decibels
type Gain struct{ DB float64 }

// Normalize raises the peak to HeadroomDB below full scale
type Normalize struct{ HeadroomDB float64 }

// FadeIn ramps up from silence over Duration
type FadeIn struct{ Duration time.Duration }

// FadeOut ramps down to silence over Duration, starting at Start
type FadeOut struct {
	Start    time.Duration
	Duration time.Duration
}

// PadStart inserts Duration of silence before the audio
type PadStart struct{ Duration time.Duration }

// PadEnd appends Duration of silence after the audio
type PadEnd struct{ Duration time.Duration }

// LowPass attenuates frequencies above CutoffHz
type LowPass struct{ CutoffHz float64 }

// HighPass attenuates frequencies below CutoffHz
type HighPass struct{ CutoffHz float64 }

// InvertPhase flips the polarity of the selected channels
type InvertPhase struct {
	Left  bool
	Right bool
}

// StripSilence removes silent stretches longer than MinSilence, keeping
// Padding of silence around retained audio.
type StripSilence struct {
	MinSilence  time.Duration
	ThresholdDB float64
	Padding     time.Duration
}

func (Gain) isEffect()         {}
func (Normalize) isEffect()    {}
func (FadeIn) isEffect()       {}
func (FadeOut) isEffect()      {}
func (PadStart) isEffect()     {}
func (PadEnd) isEffect()       {}
func (LowPass) isEffect()      {}
func (HighPass) isEffect()     {}
func (InvertPhase) isEffect()  {}
func (StripSilence) isEffect() {}

// Seconds converts a duration in seconds to a time.Duration
func Seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Milliseconds converts a duration in milliseconds to a time.Duration
func Milliseconds(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}
