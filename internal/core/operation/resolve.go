package operation

import "path/filepath"

// Resolve returns op with every relative path parameter joined onto dir.
// Operations without paths are returned as they are.
func Resolve(op Operation, dir string) Operation {
	abs := func(p string) string {
		if p == "" {
			return p
		}
		if filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Join(dir, p)
	}

	switch op := op.(type) {
	case Copy:
		op.Target = abs(op.Target)
		return op
	case Move:
		op.Target = abs(op.Target)
		return op
	case Backup:
		op.Target = abs(op.Target)
		return op
	case Zip:
		op.Archive = abs(op.Archive)
		return op
	case Overlay:
		op.Clip = abs(op.Clip)
		return op
	case PrependClip:
		op.Clip = abs(op.Clip)
		return op
	case AppendClip:
		op.Clip = abs(op.Clip)
		return op
	case Watermark:
		op.Clip = abs(op.Clip)
		return op
	case Join:
		op.Target = abs(op.Target)
		return op
	case ConvertFormat:
		op.Cover = abs(op.Cover)
		return op
	}
	return op
}
