// Package operation defines the declarative transformations a plan applies
// to files. Operations predict their effect and never touch storage;
// adapters carry them out.
package operation

import "github.com/Ning0612/aud/internal/domain"

// Operation is a closed set of transformations. Apply predicts the files
// produced from one input: usually one, one shared file for N:1
// operations such as Join and Zip.
type Operation interface {
	Kind() Kind
	Apply(f domain.File) []domain.File

	operation()
}

// Stateful operations carry state between Apply calls
type Stateful interface {
	Operation

	// Clone returns a copy with freshly initialised state
	Clone() Operation

	// Reset restores the initial state
	Reset()
}

// Category selects the adapter that executes an operation
type Category string

const (
	CategoryFilesystem Category = "filesystem"
	CategoryAudio      Category = "audio"
	CategoryConversion Category = "conversion"
)

// Kind identifies an operation type
type Kind string

const (
	KindUppercase     Kind = "name.upper"
	KindLowercase     Kind = "name.lower"
	KindAppend        Kind = "name.append"
	KindPrepend       Kind = "name.prepend"
	KindReplace       Kind = "name.replace"
	KindReplaceSpaces Kind = "name.replace_spaces"
	KindIterate       Kind = "name.iterate"

	KindCopy   Kind = "fs.copy"
	KindMove   Kind = "fs.move"
	KindBackup Kind = "fs.backup"
	KindZip    Kind = "fs.zip"

	KindNormalize    Kind = "afx.normalize"
	KindFade         Kind = "afx.fade"
	KindPad          Kind = "afx.pad"
	KindGain         Kind = "afx.gain"
	KindLowPass      Kind = "afx.low_pass"
	KindHighPass     Kind = "afx.high_pass"
	KindInvertPhase  Kind = "afx.invert_phase"
	KindStripSilence Kind = "afx.strip_silence"
	KindOverlay      Kind = "afx.overlay"
	KindPrependClip  Kind = "afx.prepend"
	KindAppendClip   Kind = "afx.append"
	KindWatermark    Kind = "afx.watermark"
	KindJoin         Kind = "afx.join"

	KindConvertFormat Kind = "convert.format"
	KindToMono        Kind = "convert.mono"
	KindToStereo      Kind = "convert.stereo"
)

type kindInfo struct {
	category Category
	action   string
}

var kinds = map[Kind]kindInfo{
	KindUppercase:     {CategoryFilesystem, "name uppercase"},
	KindLowercase:     {CategoryFilesystem, "name lowercase"},
	KindAppend:        {CategoryFilesystem, "name append"},
	KindPrepend:       {CategoryFilesystem, "name prepend"},
	KindReplace:       {CategoryFilesystem, "name replace"},
	KindReplaceSpaces: {CategoryFilesystem, "name replace spaces"},
	KindIterate:       {CategoryFilesystem, "name iterate"},

	KindCopy:   {CategoryFilesystem, "copy"},
	KindMove:   {CategoryFilesystem, "move"},
	KindBackup: {CategoryFilesystem, "backup"},
	KindZip:    {CategoryFilesystem, "zip"},

	KindNormalize:    {CategoryAudio, "normalize"},
	KindFade:         {CategoryAudio, "fade"},
	KindPad:          {CategoryAudio, "pad"},
	KindGain:         {CategoryAudio, "gain"},
	KindLowPass:      {CategoryAudio, "low pass filter"},
	KindHighPass:     {CategoryAudio, "high pass filter"},
	KindInvertPhase:  {CategoryAudio, "invert phase"},
	KindStripSilence: {CategoryAudio, "strip silence"},
	KindOverlay:      {CategoryAudio, "overlay"},
	KindPrependClip:  {CategoryAudio, "prepend audio"},
	KindAppendClip:   {CategoryAudio, "append audio"},
	KindWatermark:    {CategoryAudio, "watermark"},
	KindJoin:         {CategoryAudio, "join"},

	KindConvertFormat: {CategoryConversion, "convert"},
	KindToMono:        {CategoryConversion, "convert to mono"},
	KindToStereo:      {CategoryConversion, "convert to stereo"},
}

// IsValid reports whether k is a known kind
func (k Kind) IsValid() bool {
	_, ok := kinds[k]
	return ok
}

// Category returns the adapter category of k, or "" for unknown kinds
func (k Kind) Category() Category {
	return kinds[k].category
}

// Action returns a human-readable label used in logs and errors
func (k Kind) Action() string {
	if info, ok := kinds[k]; ok {
		return info.action
	}
	return string(k)
}

// ErrorKind maps k to the error category reported by the directory façade
func (k Kind) ErrorKind() domain.ErrorKind {
	switch k.Category() {
	case CategoryAudio:
		return domain.KindAudioFX
	case CategoryConversion:
		return domain.KindConvert
	}
	switch k {
	case KindCopy, KindMove, KindBackup, KindZip:
		return domain.KindFilesystem
	}
	return domain.KindFilename
}

// Kinds returns every known kind
func Kinds() []Kind {
	out := make([]Kind, 0, len(kinds))
	for k := range kinds {
		out = append(out, k)
	}
	return out
}

func single(f domain.File) []domain.File {
	return []domain.File{f}
}
