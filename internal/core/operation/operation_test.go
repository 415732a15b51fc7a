package operation

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ning0612/aud/internal/domain"
)

func file(name string) domain.File {
	return domain.NewFile(filepath.Join("/music", name))
}

func applyOne(t *testing.T, op Operation, f domain.File) domain.File {
	t.Helper()
	out := op.Apply(f)
	require.Len(t, out, 1)
	return out[0]
}

func TestNameOperations(t *testing.T) {
	tests := []struct {
		name string
		op   Operation
		in   string
		want string
	}{
		{"upper keeps suffix", Uppercase{}, "Song One.wav", "SONG ONE.wav"},
		{"lower keeps suffix", Lowercase{}, "Song.WAV", "song.WAV"},
		{"append before suffix", Append{Text: "_test"}, "abc.txt", "abc_test.txt"},
		{"prepend", Prepend{Text: "abc_"}, "abc.txt", "abc_abc.txt"},
		{"replace all", Replace{Old: "_", New: "-"}, "abc_abc_test.txt", "abc-abc-test.txt"},
		{"replace empty old is identity", Replace{Old: "", New: "-"}, "abc.txt", "abc.txt"},
		{"replace spaces", ReplaceSpaces{With: "_"}, "my song  two.wav", "my_song__two.wav"},
		{"no suffix", Uppercase{}, "readme", "README"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := applyOne(t, tt.op, file(tt.in))
			assert.Equal(t, tt.want, got.Name())
			assert.Equal(t, "/music", filepath.ToSlash(got.Dir()))
		})
	}
}

func TestLowerOfUpperEqualsLower(t *testing.T) {
	for _, name := range []string{"MiXeD.wav", "already.mp3", "ÜBER straße.flac", "x"} {
		f := file(name)
		viaUpper := applyOne(t, Lowercase{}, applyOne(t, Uppercase{}, f))
		direct := applyOne(t, Lowercase{}, f)
		assert.Equal(t, direct.Name(), viaUpper.Name(), name)
	}
}

func TestIterate(t *testing.T) {
	op := NewIterate(1, 4, "  ")

	first := applyOne(t, op, file("abc.txt"))
	second := applyOne(t, op, file("test.txt"))

	assert.Equal(t, "0001  abc.txt", first.Name())
	assert.Equal(t, "0002  test.txt", second.Name())
	assert.Equal(t, 3, op.Next())

	clone := op.Clone().(*Iterate)
	assert.Equal(t, "0001  x.wav", applyOne(t, clone, file("x.wav")).Name())
	assert.Equal(t, 3, op.Next(), "clone must not share the counter")

	op.Reset()
	assert.Equal(t, 1, op.Next())
}

func TestIterate_NoZerofill(t *testing.T) {
	op := NewIterate(9, 0, "_")
	assert.Equal(t, "9_a.wav", applyOne(t, op, file("a.wav")).Name())
	assert.Equal(t, "10_b.wav", applyOne(t, op, file("b.wav")).Name())
}

func TestIterate_IndependentInstances(t *testing.T) {
	a := NewIterate(1, 2, "-")
	b := NewIterate(1, 2, "-")

	applyOne(t, a, file("x.wav"))
	assert.Equal(t, "01-y.wav", applyOne(t, b, file("y.wav")).Name())
}

func TestFileOperations(t *testing.T) {
	f := file("a.wav")

	for _, op := range []Operation{Copy{Target: "/backup"}, Move{Target: "/backup"}, Backup{Target: "/backup"}} {
		got := applyOne(t, op, f)
		assert.Equal(t, filepath.Join("/backup", "a.wav"), got.Path(), op.Kind())
	}

	zip := Zip{Archive: "/out/all.zip"}
	assert.Equal(t, filepath.Join("/out", "all.zip"), applyOne(t, zip, f).Path())
	assert.Equal(t, applyOne(t, zip, f), applyOne(t, zip, file("b.wav")), "zip maps every file to one archive")

	relative := Zip{Archive: "bundle.zip"}
	assert.Equal(t, filepath.Join("/music", "bundle.zip"), applyOne(t, relative, f).Path())
}

func TestAudioOperationsKeepPath(t *testing.T) {
	f := file("a.wav")
	ops := []Operation{
		Normalize{HeadroomDB: 0.1, Passes: 1},
		Fade{In: 1, Out: 1},
		Pad{Start: 1},
		Gain{DB: -3},
		LowPass{CutoffHz: 3000},
		HighPass{CutoffHz: 80},
		InvertPhase{Channel: ChannelLeft},
		DefaultStripSilence(),
		Overlay{Clip: "/clips/x.wav"},
		PrependClip{Clip: "/clips/x.wav"},
		AppendClip{Clip: "/clips/x.wav"},
		NewWatermark("/clips/x.wav", 1, 3),
		ConvertToMono{},
		ConvertToStereo{},
	}

	for _, op := range ops {
		got := applyOne(t, op, f)
		assert.True(t, got.Equal(f), op.Kind())
	}
}

func TestJoin(t *testing.T) {
	op := Join{Target: "joined.wav"}
	assert.Equal(t, filepath.Join("/music", "joined.wav"), applyOne(t, op, file("a.wav")).Path())
	assert.Equal(t, "wav", op.OutputFormat())

	assert.Equal(t, "mp3", Join{Target: "/out/x", Format: ".MP3"}.OutputFormat())
	assert.Equal(t, "wav", Join{Target: "/out/x"}.OutputFormat())
}

func TestConvertFormat(t *testing.T) {
	tags := map[string]string{"artist": "me"}
	op := NewConvertFormat(".MP3", ConvertOptions{SampleRate: 44100, BitDepth: 16, Tags: tags})
	tags["artist"] = "changed"

	assert.Equal(t, "mp3", op.Format)
	assert.Equal(t, "me", op.Tags["artist"], "tags must be copied")
	assert.Equal(t, "song.mp3", applyOne(t, op, file("song.wav")).Name())
	assert.Equal(t, "take.one.flac", applyOne(t, NewConvertFormat("flac", ConvertOptions{}), file("take.one.WAV")).Name())
}

func TestSampleWidth(t *testing.T) {
	for depth, want := range map[int]int{8: 1, 16: 2, 24: 4, 32: 4} {
		got, err := SampleWidth(depth)
		require.NoError(t, err)
		assert.Equal(t, want, got, depth)
	}

	_, err := SampleWidth(12)
	assert.ErrorIs(t, err, domain.ErrUnsupportedBitDepth)
}

func TestKinds(t *testing.T) {
	for _, k := range Kinds() {
		assert.True(t, k.IsValid())
		assert.NotEmpty(t, k.Category(), k)
		assert.NotEmpty(t, k.Action(), k)
	}

	assert.False(t, Kind("bogus").IsValid())
	assert.Equal(t, Category(""), Kind("bogus").Category())

	assert.Equal(t, domain.KindFilename, KindIterate.ErrorKind())
	assert.Equal(t, domain.KindFilesystem, KindBackup.ErrorKind())
	assert.Equal(t, domain.KindAudioFX, KindJoin.ErrorKind())
	assert.Equal(t, domain.KindConvert, KindToMono.ErrorKind())
}

func TestParseChannel(t *testing.T) {
	ch, err := ParseChannel("LEFT")
	require.NoError(t, err)
	assert.Equal(t, ChannelLeft, ch)

	ch, err = ParseChannel("")
	require.NoError(t, err)
	assert.Equal(t, ChannelBoth, ch)

	_, err = ParseChannel("center")
	assert.ErrorIs(t, err, domain.ErrInvalidOperation)
}

func TestFromStep(t *testing.T) {
	start := 5
	tests := []struct {
		name string
		step Step
		want Operation
	}{
		{"upper", Step{Op: "name.upper"}, Uppercase{}},
		{"replace spaces default", Step{Op: "name.replace_spaces"}, ReplaceSpaces{With: "_"}},
		{"iterate", Step{Op: "name.iterate", Start: &start, Zerofill: 3, Separator: " - "}, NewIterate(5, 3, " - ")},
		{"iterate defaults", Step{Op: "name.iterate"}, NewIterate(1, 0, "_")},
		{"backup", Step{Op: "fs.backup", Target: "/bk"}, Backup{Target: "/bk"}},
		{"normalize defaults", Step{Op: "afx.normalize"}, Normalize{HeadroomDB: DefaultHeadroomDB, Passes: 1}},
		{"strip silence defaults", Step{Op: "afx.strip_silence"}, DefaultStripSilence()},
		{"watermark", Step{Op: "afx.watermark", Clip: "w.wav", MinSpacing: 1, MaxSpacing: 3}, NewWatermark("w.wav", 1, 3)},
		{"pad", Step{Op: "afx.pad", In: 0.5, Out: 2}, Pad{Start: 0.5, End: 2}},
		{"convert", Step{Op: "convert.format", Format: "FLAC", BitDepth: 24}, ConvertFormat{Format: "flac", BitDepth: 24}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromStep(tt.step)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromStep_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		step    Step
		message string
	}{
		{"unknown op", Step{Op: "afx.reverb"}, "unknown op"},
		{"copy without target", Step{Op: "fs.copy"}, "target directory"},
		{"zip without archive", Step{Op: "fs.zip"}, "archive path"},
		{"bad channel", Step{Op: "afx.invert_phase", Channel: "middle"}, "channel"},
		{"watermark spacing", Step{Op: "afx.watermark", Clip: "w.wav", MinSpacing: 3, MaxSpacing: 1}, "spacing"},
		{"bit depth", Step{Op: "convert.format", Format: "wav", BitDepth: 12}, "bit depth"},
		{"low pass cutoff", Step{Op: "afx.low_pass"}, "cutoff"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromStep(tt.step)
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.message), err.Error())
		})
	}
}

func TestResolve(t *testing.T) {
	iter := NewIterate(1, 2, "_")
	tests := []struct {
		name string
		op   Operation
		want Operation
	}{
		{"relative target", Move{Target: "sorted"}, Move{Target: "/music/sorted"}},
		{"absolute target", Copy{Target: "/out//x/"}, Copy{Target: "/out/x"}},
		{"backup", Backup{Target: "../bak"}, Backup{Target: "/bak"}},
		{"archive", Zip{Archive: "album.zip"}, Zip{Archive: "/music/album.zip"}},
		{"join target", Join{Target: "all.wav", Format: "wav"}, Join{Target: "/music/all.wav", Format: "wav"}},
		{"overlay clip", Overlay{Clip: "tag.wav", At: 1}, Overlay{Clip: "/music/tag.wav", At: 1}},
		{"prepend clip", PrependClip{Clip: "intro.wav"}, PrependClip{Clip: "/music/intro.wav"}},
		{"append clip", AppendClip{Clip: "outro.wav"}, AppendClip{Clip: "/music/outro.wav"}},
		{"watermark clip", NewWatermark("wm.wav", 1, 2), NewWatermark("/music/wm.wav", 1, 2)},
		{"cover", ConvertFormat{Format: "mp3", Cover: "art.jpg"}, ConvertFormat{Format: "mp3", Cover: "/music/art.jpg"}},
		{"empty stays empty", Copy{}, Copy{}},
		{"no paths", Gain{DB: 1}, Gain{DB: 1}},
		{"stateful kept", iter, iter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.op, "/music"))
		})
	}
	assert.Same(t, iter, Resolve(iter, "/music"))
}
