package ffmpeg

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Ning0612/aud/internal/media"
)

// filterGraph builds the -filter_complex graph of job ending in [out].
// Sources occupy inputs 0..n-1 and overlay clips the inputs after them.
// Normalize effects must already be resolved to Gain.
func filterGraph(job media.Job, effects []media.Effect, tail ...string) (string, error) {
	var parts []string
	n := len(job.Sources)

	main := "[0:a]"
	if n > 1 {
		var b strings.Builder
		for i := range n {
			fmt.Fprintf(&b, "[%d:a]", i)
		}
		fmt.Fprintf(&b, "concat=n=%d:v=0:a=1[cat]", n)
		parts = append(parts, b.String())
		main = "[cat]"
	}

	if len(job.Overlays) > 0 {
		mix := main
		for j, ov := range job.Overlays {
			parts = append(parts, fmt.Sprintf("[%d:a]adelay=%d:all=1,volume=%sdB[ov%d]",
				n+j, ov.At.Milliseconds(), num(ov.GainDB), j))
			mix += fmt.Sprintf("[ov%d]", j)
		}
		parts = append(parts, fmt.Sprintf("%samix=inputs=%d:duration=first:normalize=0[mix]",
			mix, len(job.Overlays)+1))
		main = "[mix]"
	}

	chain := make([]string, 0, len(effects)+len(tail))
	for _, e := range effects {
		f, err := effectFilter(e)
		if err != nil {
			return "", err
		}
		chain = append(chain, f)
	}
	chain = append(chain, tail...)
	if len(chain) == 0 {
		chain = append(chain, "anull")
	}
	parts = append(parts, main+strings.Join(chain, ",")+"[out]")

	return strings.Join(parts, ";"), nil
}

func effectFilter(e media.Effect) (string, error) {
	switch e := e.(type) {
	case media.Gain:
		return "volume=" + num(e.DB) + "dB", nil
	case media.FadeIn:
		return "afade=t=in:st=0:d=" + secs(e.Duration), nil
	case media.FadeOut:
		return "afade=t=out:st=" + secs(e.Start) + ":d=" + secs(e.Duration), nil
	case media.PadStart:
		return fmt.Sprintf("adelay=%d:all=1", e.Duration.Milliseconds()), nil
	case media.PadEnd:
		return "apad=pad_dur=" + secs(e.Duration), nil
	case media.LowPass:
		return "lowpass=f=" + num(e.CutoffHz), nil
	case media.HighPass:
		return "highpass=f=" + num(e.CutoffHz), nil
	case media.InvertPhase:
		switch {
		case e.Left && e.Right:
			return "aeval=-val(ch):c=same", nil
		case e.Left:
			return "aeval=-val(0)|val(1):c=same", nil
		case e.Right:
			return "aeval=val(0)|-val(1):c=same", nil
		default:
			return "anull", nil
		}
	case media.StripSilence:
		return "silenceremove=stop_periods=-1" +
			":stop_duration=" + secs(e.MinSilence) +
			":stop_threshold=" + num(e.ThresholdDB) + "dB" +
			":stop_silence=" + secs(e.Padding), nil
	case media.Normalize:
		return "", fmt.Errorf("normalize must be measured before rendering")
	default:
		return "", fmt.Errorf("unknown effect %T", e)
	}
}

// encoding returns the muxer and codec arguments for a format token and
// sample width in bytes.
func encoding(format string, width int) (string, []string) {
	switch format {
	case "wav":
		if width == 0 {
			return "wav", nil
		}
		return "wav", []string{"-c:a", pcmCodec(width)}
	case "raw", "pcm":
		codec := pcmCodec(width)
		if width == 0 {
			codec = "pcm_s16le"
		}
		return strings.TrimPrefix(codec, "pcm_"), []string{"-c:a", codec}
	case "flac":
		args := []string{"-c:a", "flac"}
		switch width {
		case 1, 2:
			args = append(args, "-sample_fmt", "s16")
		case 4:
			args = append(args, "-sample_fmt", "s32")
		}
		return "flac", args
	case "mp3":
		return "mp3", []string{"-c:a", "libmp3lame"}
	case "ogg":
		return "ogg", []string{"-c:a", "libvorbis"}
	case "opus":
		return "opus", []string{"-c:a", "libopus"}
	case "m4a", "aac":
		return "ipod", []string{"-c:a", "aac"}
	default:
		return format, nil
	}
}

func pcmCodec(width int) string {
	switch width {
	case 1:
		return "pcm_u8"
	case 4:
		return "pcm_s32le"
	default:
		return "pcm_s16le"
	}
}

// supportsCover reports whether the container can carry an attached picture
func supportsCover(format string) bool {
	switch format {
	case "mp3", "flac", "m4a", "aac":
		return true
	}
	return false
}

func metadataArgs(tags map[string]string) []string {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		args = append(args, "-metadata", k+"="+tags[k])
	}
	return args
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func secs(d time.Duration) string {
	return num(d.Seconds())
}
