package operation

import (
	"fmt"
	"maps"

	"github.com/Ning0612/aud/internal/domain"
)

// Step is the serialised form of an operation in a pipeline file.
// Only the fields relevant to Op are read.
type Step struct {
	Op string `mapstructure:"op" yaml:"op"`

	// naming
	Text      string `mapstructure:"text" yaml:"text,omitempty"`
	Old       string `mapstructure:"old" yaml:"old,omitempty"`
	New       string `mapstructure:"new" yaml:"new,omitempty"`
	With      string `mapstructure:"with" yaml:"with,omitempty"`
	Start     *int   `mapstructure:"start" yaml:"start,omitempty"`
	Zerofill  int    `mapstructure:"zerofill" yaml:"zerofill,omitempty"`
	Separator string `mapstructure:"separator" yaml:"separator,omitempty"`

	// filesystem
	Target  string `mapstructure:"target" yaml:"target,omitempty"`
	Archive string `mapstructure:"archive" yaml:"archive,omitempty"`

	// audio
	HeadroomDB   *float64 `mapstructure:"headroom_db" yaml:"headroom_db,omitempty"`
	Passes       int      `mapstructure:"passes" yaml:"passes,omitempty"`
	In           float64  `mapstructure:"in" yaml:"in,omitempty"`
	Out          float64  `mapstructure:"out" yaml:"out,omitempty"`
	DB           float64  `mapstructure:"db" yaml:"db,omitempty"`
	CutoffHz     float64  `mapstructure:"cutoff_hz" yaml:"cutoff_hz,omitempty"`
	Channel      string   `mapstructure:"channel" yaml:"channel,omitempty"`
	MinSilenceMs int      `mapstructure:"min_silence_ms" yaml:"min_silence_ms,omitempty"`
	ThresholdDB  *float64 `mapstructure:"threshold_db" yaml:"threshold_db,omitempty"`
	PaddingMs    *int     `mapstructure:"padding_ms" yaml:"padding_ms,omitempty"`
	Clip         string   `mapstructure:"clip" yaml:"clip,omitempty"`
	At           float64  `mapstructure:"at" yaml:"at,omitempty"`
	GainDB       *float64 `mapstructure:"gain_db" yaml:"gain_db,omitempty"`
	MinSpacing   float64  `mapstructure:"min_spacing" yaml:"min_spacing,omitempty"`
	MaxSpacing   float64  `mapstructure:"max_spacing" yaml:"max_spacing,omitempty"`

	// conversion
	Format     string            `mapstructure:"format" yaml:"format,omitempty"`
	SampleRate int               `mapstructure:"sample_rate" yaml:"sample_rate,omitempty"`
	BitDepth   int               `mapstructure:"bit_depth" yaml:"bit_depth,omitempty"`
	Tags       map[string]string `mapstructure:"tags" yaml:"tags,omitempty"`
	Cover      string            `mapstructure:"cover" yaml:"cover,omitempty"`
}

// DefaultHeadroomDB is the normalisation target when none is given
const DefaultHeadroomDB = 0.1

// FromStep builds and validates the operation described by s
func FromStep(s Step) (Operation, error) {
	op, err := build(s)
	if err != nil {
		return nil, err
	}
	if err := Validate(op); err != nil {
		return nil, err
	}
	return op, nil
}

func build(s Step) (Operation, error) {
	switch Kind(s.Op) {
	case KindUppercase:
		return Uppercase{}, nil
	case KindLowercase:
		return Lowercase{}, nil
	case KindAppend:
		return Append{Text: s.Text}, nil
	case KindPrepend:
		return Prepend{Text: s.Text}, nil
	case KindReplace:
		return Replace{Old: s.Old, New: s.New}, nil
	case KindReplaceSpaces:
		with := s.With
		if with == "" {
			with = "_"
		}
		return ReplaceSpaces{With: with}, nil
	case KindIterate:
		start := 1
		if s.Start != nil {
			start = *s.Start
		}
		sep := s.Separator
		if sep == "" {
			sep = "_"
		}
		return NewIterate(start, s.Zerofill, sep), nil

	case KindCopy:
		return Copy{Target: s.Target}, nil
	case KindMove:
		return Move{Target: s.Target}, nil
	case KindBackup:
		return Backup{Target: s.Target}, nil
	case KindZip:
		return Zip{Archive: s.Archive}, nil

	case KindNormalize:
		passes := s.Passes
		if passes == 0 {
			passes = 1
		}
		return Normalize{HeadroomDB: orDefault(s.HeadroomDB, DefaultHeadroomDB), Passes: passes}, nil
	case KindFade:
		return Fade{In: s.In, Out: s.Out}, nil
	case KindPad:
		return Pad{Start: s.In, End: s.Out}, nil
	case KindGain:
		return Gain{DB: s.DB}, nil
	case KindLowPass:
		return LowPass{CutoffHz: s.CutoffHz}, nil
	case KindHighPass:
		return HighPass{CutoffHz: s.CutoffHz}, nil
	case KindInvertPhase:
		ch, err := ParseChannel(s.Channel)
		if err != nil {
			return nil, err
		}
		return InvertPhase{Channel: ch}, nil
	case KindStripSilence:
		op := DefaultStripSilence()
		if s.MinSilenceMs != 0 {
			op.MinSilenceMs = s.MinSilenceMs
		}
		op.ThresholdDB = orDefault(s.ThresholdDB, op.ThresholdDB)
		if s.PaddingMs != nil {
			op.PaddingMs = *s.PaddingMs
		}
		return op, nil
	case KindOverlay:
		return Overlay{Clip: s.Clip, At: s.At, GainDB: orDefault(s.GainDB, 0)}, nil
	case KindPrependClip:
		return PrependClip{Clip: s.Clip}, nil
	case KindAppendClip:
		return AppendClip{Clip: s.Clip}, nil
	case KindWatermark:
		wm := NewWatermark(s.Clip, s.MinSpacing, s.MaxSpacing)
		wm.GainDB = orDefault(s.GainDB, wm.GainDB)
		return wm, nil
	case KindJoin:
		return Join{Target: s.Target, Format: s.Format}, nil

	case KindConvertFormat:
		return NewConvertFormat(s.Format, ConvertOptions{
			SampleRate: s.SampleRate,
			BitDepth:   s.BitDepth,
			Tags:       maps.Clone(s.Tags),
			Cover:      s.Cover,
		}), nil
	case KindToMono:
		return ConvertToMono{}, nil
	case KindToStereo:
		return ConvertToStereo{}, nil

	default:
		return nil, fmt.Errorf("%w: unknown op %q", domain.ErrInvalidOperation, s.Op)
	}
}

// Validate checks the parameters of op
func Validate(op Operation) error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s: %s", domain.ErrInvalidOperation, op.Kind(), fmt.Sprintf(format, args...))
	}

	switch op := op.(type) {
	case Replace:
		if op.Old == "" {
			return invalid("old text is empty")
		}
	case *Iterate:
		if op.zerofill < 0 {
			return invalid("zerofill %d is negative", op.zerofill)
		}
	case Copy:
		if op.Target == "" {
			return invalid("target directory is empty")
		}
	case Move:
		if op.Target == "" {
			return invalid("target directory is empty")
		}
	case Backup:
		if op.Target == "" {
			return invalid("target directory is empty")
		}
	case Zip:
		if op.Archive == "" {
			return invalid("archive path is empty")
		}
	case Normalize:
		if op.Passes < 1 {
			return invalid("passes %d must be at least 1", op.Passes)
		}
	case Fade:
		if op.In < 0 || op.Out < 0 {
			return invalid("fade lengths must not be negative")
		}
	case Pad:
		if op.Start < 0 || op.End < 0 {
			return invalid("pad lengths must not be negative")
		}
	case LowPass:
		if op.CutoffHz <= 0 {
			return invalid("cutoff must be positive")
		}
	case HighPass:
		if op.CutoffHz <= 0 {
			return invalid("cutoff must be positive")
		}
	case InvertPhase:
		if _, err := ParseChannel(string(op.Channel)); err != nil {
			return err
		}
	case StripSilence:
		if op.MinSilenceMs <= 0 || op.PaddingMs < 0 {
			return invalid("silence length must be positive and padding not negative")
		}
	case Overlay:
		if op.Clip == "" || op.At < 0 {
			return invalid("clip is required and position must not be negative")
		}
	case PrependClip:
		if op.Clip == "" {
			return invalid("clip is required")
		}
	case AppendClip:
		if op.Clip == "" {
			return invalid("clip is required")
		}
	case Watermark:
		if op.Clip == "" {
			return invalid("clip is required")
		}
		if op.MinSpacing < 0 || op.MaxSpacing <= op.MinSpacing {
			return invalid("spacing must satisfy 0 <= min < max, got %g..%g", op.MinSpacing, op.MaxSpacing)
		}
	case Join:
		if op.Target == "" {
			return invalid("target file is empty")
		}
	case ConvertFormat:
		if op.Format == "" {
			return invalid("format is empty")
		}
		if op.SampleRate < 0 {
			return invalid("sample rate %d is negative", op.SampleRate)
		}
		if op.BitDepth != 0 {
			if _, err := SampleWidth(op.BitDepth); err != nil {
				return err
			}
		}
	}
	return nil
}

func orDefault[T any](v *T, def T) T {
	if v == nil {
		return def
	}
	return *v
}
