package operation

import (
	"fmt"
	"strings"

	"github.com/Ning0612/aud/internal/domain"
)

// Uppercase upper-cases the stem and keeps the suffix
type Uppercase struct{}

func (Uppercase) Kind() Kind { return KindUppercase }
func (Uppercase) operation() {}

func (Uppercase) Apply(f domain.File) []domain.File {
	return single(f.WithName(strings.ToUpper(f.Stem()) + f.Suffix()))
}

// Lowercase lower-cases the stem and keeps the suffix
type Lowercase struct{}

func (Lowercase) Kind() Kind { return KindLowercase }
func (Lowercase) operation() {}

func (Lowercase) Apply(f domain.File) []domain.File {
	return single(f.WithName(strings.ToLower(f.Stem()) + f.Suffix()))
}

// Append inserts Text between the stem and the suffix
type Append struct {
	Text string
}

func (Append) Kind() Kind { return KindAppend }
func (Append) operation() {}

func (op Append) Apply(f domain.File) []domain.File {
	return single(f.WithName(f.Stem() + op.Text + f.Suffix()))
}

// Prepend inserts Text before the name
type Prepend struct {
	Text string
}

func (Prepend) Kind() Kind { return KindPrepend }
func (Prepend) operation() {}

func (op Prepend) Apply(f domain.File) []domain.File {
	return single(f.WithName(op.Text + f.Name()))
}

// Replace substitutes every occurrence of Old in the name with New
type Replace struct {
	Old string
	New string
}

func (Replace) Kind() Kind { return KindReplace }
func (Replace) operation() {}

func (op Replace) Apply(f domain.File) []domain.File {
	if op.Old == "" {
		return single(f)
	}
	return single(f.WithName(strings.ReplaceAll(f.Name(), op.Old, op.New)))
}

// ReplaceSpaces substitutes every space in the name with With
type ReplaceSpaces struct {
	With string
}

func (ReplaceSpaces) Kind() Kind { return KindReplaceSpaces }
func (ReplaceSpaces) operation() {}

func (op ReplaceSpaces) Apply(f domain.File) []domain.File {
	return single(f.WithName(strings.ReplaceAll(f.Name(), " ", op.With)))
}

// Iterate numbers files in the order they are visited:
// zero-padded counter, separator, original name.
// The counter belongs to the instance; share an Iterate only if the
// numbering should continue across calls.
type Iterate struct {
	start    int
	zerofill int
	sep      string
	counter  int
}

// NewIterate creates an Iterate counting from start. zerofill is the
// minimum width of the number.
func NewIterate(start, zerofill int, sep string) *Iterate {
	return &Iterate{start: start, zerofill: zerofill, sep: sep, counter: start}
}

func (*Iterate) Kind() Kind { return KindIterate }
func (*Iterate) operation() {}

func (op *Iterate) Apply(f domain.File) []domain.File {
	num := fmt.Sprintf("%0*d", op.zerofill, op.counter)
	op.counter++
	return single(f.WithName(num + op.sep + f.Name()))
}

// Clone returns an Iterate with the same parameters and a fresh counter
func (op *Iterate) Clone() Operation {
	return NewIterate(op.start, op.zerofill, op.sep)
}

// Reset restarts the counter
func (op *Iterate) Reset() {
	op.counter = op.start
}

// Next returns the number the next Apply will use
func (op *Iterate) Next() int {
	return op.counter
}
