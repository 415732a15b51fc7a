package operation

import (
	"fmt"
	"maps"

	"github.com/Ning0612/aud/internal/domain"
)

// ConvertFormat re-encodes files as Format next to the source, replacing
// the extension. Zero SampleRate or BitDepth keep the source value.
type ConvertFormat struct {
	Format     string
	SampleRate int
	BitDepth   int
	Tags       map[string]string
	Cover      string
}

// ConvertOptions are the optional parameters of ConvertFormat
type ConvertOptions struct {
	SampleRate int               `mapstructure:"sample_rate" yaml:"sample_rate,omitempty"`
	BitDepth   int               `mapstructure:"bit_depth" yaml:"bit_depth,omitempty"`
	Tags       map[string]string `mapstructure:"tags" yaml:"tags,omitempty"`
	Cover      string            `mapstructure:"cover" yaml:"cover,omitempty"`
}

// NewConvertFormat normalises format (".MP3" becomes "mp3") and copies
// the tag map.
func NewConvertFormat(format string, opts ConvertOptions) ConvertFormat {
	return ConvertFormat{
		Format:     domain.NormalizeExtension(format),
		SampleRate: opts.SampleRate,
		BitDepth:   opts.BitDepth,
		Tags:       maps.Clone(opts.Tags),
		Cover:      opts.Cover,
	}
}

func (ConvertFormat) Kind() Kind { return KindConvertFormat }
func (ConvertFormat) operation() {}

func (op ConvertFormat) Apply(f domain.File) []domain.File {
	return single(f.WithName(f.Stem() + "." + domain.NormalizeExtension(op.Format)))
}

// ConvertToMono downmixes files to one channel
type ConvertToMono struct{}

func (ConvertToMono) Kind() Kind                        { return KindToMono }
func (ConvertToMono) operation()                        {}
func (ConvertToMono) Apply(f domain.File) []domain.File { return single(f) }

// ConvertToStereo upmixes files to two channels
type ConvertToStereo struct{}

func (ConvertToStereo) Kind() Kind                        { return KindToStereo }
func (ConvertToStereo) operation()                        {}
func (ConvertToStereo) Apply(f domain.File) []domain.File { return single(f) }

// SampleWidth maps a bit depth to bytes per sample. 24-bit audio is
// stored in 4-byte samples.
func SampleWidth(bitDepth int) (int, error) {
	switch bitDepth {
	case 8:
		return 1, nil
	case 16:
		return 2, nil
	case 24, 32:
		return 4, nil
	default:
		return 0, fmt.Errorf("%w: %d", domain.ErrUnsupportedBitDepth, bitDepth)
	}
}
