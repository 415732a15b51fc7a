// Package service exposes a music directory as a selection of files that
// operations are applied to.
package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/Ning0612/aud/internal/adapter"
	"github.com/Ning0612/aud/internal/adapter/audio"
	"github.com/Ning0612/aud/internal/adapter/convert"
	"github.com/Ning0612/aud/internal/adapter/filesystem"
	"github.com/Ning0612/aud/internal/core/operation"
	"github.com/Ning0612/aud/internal/core/plan"
	"github.com/Ning0612/aud/internal/core/selection"
	"github.com/Ning0612/aud/internal/domain"
	"github.com/Ning0612/aud/internal/logger"
	"github.com/Ning0612/aud/internal/media"
	"github.com/Ning0612/aud/internal/progress"
	"github.com/Ning0612/aud/internal/state"
)

// logTimeFormat renders message log timestamps as "2006-01-02 (15:04:05)"
const logTimeFormat = "2006-01-02 (15:04:05)"

// Recorder persists one record per executed operation
type Recorder interface {
	Save(record state.Record) (string, error)
}

// Options configures a Directory
type Options struct {
	// Fs is the storage the directory lives on. Nil means the OS filesystem.
	Fs afero.Fs

	// Backend renders audio. Without one, audio and conversion operations
	// fail with domain.ErrUnsupportedOperation.
	Backend media.Backend

	Rules   selection.Rules
	LogFile string

	// Journal records every operation. RunID groups the records of this
	// directory; empty means a fresh ID.
	Journal Recorder
	RunID   string

	VerifyCopies bool
	Workers      int
	Rand         *rand.Rand

	Reporter progress.Reporter
	Logger   logger.Logger

	// Now is the clock used for the message log and the journal
	Now func() time.Time
}

// Directory is the selection of files in one directory. Configuration
// changes rescan the directory; operations replace the selection with the
// files they produce.
type Directory struct {
	mu sync.Mutex

	path    string
	rules   selection.Rules
	policy  selection.Policy
	logFile string
	files   []domain.File

	fs      afero.Fs
	scanner *selection.Scanner
	router  *adapter.Router
	export  *adapter.Router
	journal Recorder
	runID   string
	logger  logger.Logger
	now     func() time.Time
}

// NewDirectory scans path with the selection rules of opts
func NewDirectory(path string, opts Options) (*Directory, error) {
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	runID := opts.RunID
	if runID == "" {
		runID = state.NewRunID()
	}
	log := logger.OrGet(opts.Logger).With("component", "directory")

	fsAdapter := filesystem.New(fs, filesystem.Options{
		VerifyCopies: opts.VerifyCopies,
		Reporter:     opts.Reporter,
		Logger:       log,
	})
	router := adapter.NewRouter(log).Register(operation.CategoryFilesystem, fsAdapter)
	export := adapter.NewRouter(log).Register(operation.CategoryFilesystem, fsAdapter)
	if opts.Backend != nil {
		router.
			Register(operation.CategoryAudio, audio.New(opts.Backend, audio.Options{
				Workers:  opts.Workers,
				Rand:     opts.Rand,
				Reporter: opts.Reporter,
				Logger:   log,
			})).
			Register(operation.CategoryConversion, convert.New(opts.Backend, fs, convert.Options{
				Workers:  opts.Workers,
				Reporter: opts.Reporter,
				Logger:   log,
			}))
		// exported copies are replaced by their converted version
		export.Register(operation.CategoryConversion, convert.New(opts.Backend, fs, convert.Options{
			Workers:       opts.Workers,
			RemoveSources: true,
			Reporter:      opts.Reporter,
			Logger:        log,
		}))
	}

	d := &Directory{
		path:    domain.NewFile(path).Path(),
		fs:      fs,
		scanner: selection.NewScanner(fs),
		router:  router,
		export:  export,
		journal: opts.Journal,
		runID:   runID,
		logger:  log,
		now:     now,
	}

	if err := d.configure(opts.Rules, opts.LogFile); err != nil {
		return nil, err
	}
	if d.logFile != "" {
		if err := d.logLocked("Log created and set to: " + d.logFile); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Path returns the absolute path of the directory
func (d *Directory) Path() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.path
}

func (d *Directory) String() string {
	return d.Path()
}

// RunID returns the journal run the directory records under
func (d *Directory) RunID() string {
	return d.runID
}

// Len returns the number of selected files
func (d *Directory) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.files)
}

// Files returns the selected files in order
func (d *Directory) Files() []domain.File {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.files)
}

// Names returns the base names of the selected files
func (d *Directory) Names() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return domain.Names(d.files)
}

// File returns the i-th selected file
func (d *Directory) File(i int) (domain.File, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i < 0 || i >= len(d.files) {
		err := fmt.Errorf("%w: %d of %d", domain.ErrIndexOutOfRange, i, len(d.files))
		return domain.File{}, domain.NewOpError(domain.KindFilesystem, "get file", err)
	}
	return d.files[i], nil
}

// Refresh rescans the directory
func (d *Directory) Refresh() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rescan()
}

// Rules returns a copy of the selection rules
func (d *Directory) Rules() selection.Rules {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rules.Clone()
}

// SetRules replaces every selection rule and rescans
func (d *Directory) SetRules(rules selection.Rules) error {
	return d.reconfigure(func(r *selection.Rules) { *r = rules.Clone() })
}

// Extensions returns the selected extensions, lower-case without dots
func (d *Directory) Extensions() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.rules.Extensions)
}

// SetExtensions selects files by extension and rescans
func (d *Directory) SetExtensions(exts ...string) error {
	return d.reconfigure(func(r *selection.Rules) { r.Extensions = slices.Clone(exts) })
}

// Allowlist returns the allow rules
func (d *Directory) Allowlist() selection.NameRules {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rules.Allow.Clone()
}

// SetAllowlist sets the names and the prefix pattern that are always
// selected, and rescans. Allow globs are kept.
func (d *Directory) SetAllowlist(names []string, pattern string) error {
	return d.reconfigure(func(r *selection.Rules) {
		r.Allow.Names = slices.Clone(names)
		r.Allow.Pattern = pattern
	})
}

// SetAllowGlobs sets the glob patterns that are always selected
func (d *Directory) SetAllowGlobs(globs ...string) error {
	return d.reconfigure(func(r *selection.Rules) { r.Allow.Globs = slices.Clone(globs) })
}

// Denylist returns the deny rules
func (d *Directory) Denylist() selection.NameRules {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rules.Deny.Clone()
}

// SetDenylist sets the names and the prefix pattern that are never
// selected unless allowed, and rescans. Deny globs are kept.
func (d *Directory) SetDenylist(names []string, pattern string) error {
	return d.reconfigure(func(r *selection.Rules) {
		r.Deny.Names = slices.Clone(names)
		r.Deny.Pattern = pattern
	})
}

// SetDenyGlobs sets the glob patterns that are never selected unless allowed
func (d *Directory) SetDenyGlobs(globs ...string) error {
	return d.reconfigure(func(r *selection.Rules) { r.Deny.Globs = slices.Clone(globs) })
}

// LogFile returns the message log path, empty when unset
func (d *Directory) LogFile() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.logFile
}

// SetLogFile sets the message log and records its creation in it. A
// relative path is resolved against the directory.
func (d *Directory) SetLogFile(path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.configure(d.rules, path); err != nil {
		return err
	}
	if d.logFile == "" {
		return nil
	}
	return d.logLocked("Log created and set to: " + d.logFile)
}

// Log appends a timestamped line to the message log
func (d *Directory) Log(msg string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.logLocked(msg)
}

func (d *Directory) logLocked(msg string) error {
	if d.logFile == "" {
		return domain.NewOpError(domain.KindFilesystem, "log", domain.ErrLogFileNotSet)
	}

	f, err := d.fs.OpenFile(d.logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return domain.NewOpError(domain.KindFilesystem, "log", domain.MapError(err))
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%s: %s\n", d.now().Format(logTimeFormat), msg); err != nil {
		return domain.NewOpError(domain.KindFilesystem, "log", err)
	}
	return nil
}

// Preview predicts the outcome of ops on the current selection without
// touching storage. Relative paths in ops are taken against the directory.
func (d *Directory) Preview(ops ...operation.Operation) []plan.Preview {
	return d.plan(ops...).Preview()
}

func (d *Directory) plan(ops ...operation.Operation) *plan.Plan {
	d.mu.Lock()
	defer d.mu.Unlock()

	p := plan.New(slices.Clone(d.files))
	dir := d.path
	for _, op := range ops {
		if op == nil {
			continue
		}
		op = operation.Resolve(op, dir)
		p.Add(op)
		// Copy and Move continue in their target, so later relative
		// paths resolve there as they will when applied.
		switch op := op.(type) {
		case operation.Copy:
			dir = op.Target
		case operation.Move:
			dir = op.Target
		}
	}
	return p
}

// Apply runs ops in order on the selection, stopping at the first failure.
// Completed operations are not rolled back.
func (d *Directory) Apply(ctx context.Context, ops ...operation.Operation) error {
	for _, op := range ops {
		if _, err := d.run(ctx, op); err != nil {
			return err
		}
	}
	return nil
}

func (d *Directory) reconfigure(change func(r *selection.Rules)) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	rules := d.rules.Clone()
	change(&rules)
	return d.configure(rules, d.logFile)
}

// configure compiles rules and rescans. Nothing changes when the rules
// do not compile.
func (d *Directory) configure(rules selection.Rules, logFile string) error {
	rules = rules.Clone()
	policy, err := rules.Policy()
	if err != nil {
		return domain.NewOpError(domain.KindFilesystem, "configure selection", err)
	}
	if logFile != "" && !filepath.IsAbs(logFile) {
		logFile = filepath.Join(d.path, logFile)
	}

	d.rules, d.policy, d.logFile = rules, policy, logFile
	return d.rescan()
}

func (d *Directory) rescan() error {
	files, err := d.scanner.Scan(d.path, d.policy)
	if err != nil {
		return domain.NewOpError(domain.KindFilesystem, "update", err)
	}
	d.files = files
	d.logger.Debug("selection updated", "dir", d.path, "files", len(files))
	return nil
}

// run resolves the paths of op against the directory, executes it on the
// selection and adopts its result. Backup, Zip and
// Join leave the selection as it was; Copy and Move move the directory to
// their target. A failed operation rescans so the selection matches
// storage again.
func (d *Directory) run(ctx context.Context, op operation.Operation) ([]domain.File, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if op == nil {
		return nil, domain.NewOpError(domain.KindFilesystem, "run", fmt.Errorf("%w: nil operation", domain.ErrUnsupportedOperation))
	}
	op = operation.Resolve(op, d.path)
	kind := op.Kind()
	errKind, action := kind.ErrorKind(), kind.Action()
	return d.execute(ctx, d.router, op, errKind, action)
}

// execute runs op through router with d.mu held
func (d *Directory) execute(ctx context.Context, router *adapter.Router, op operation.Operation, errKind domain.ErrorKind, action string) ([]domain.File, error) {
	kind := op.Kind()
	files := slices.Clone(d.files)
	start := d.now()

	if keepsDistinct(kind) {
		if collisions := plan.Collisions(plan.New(files).Add(op).Preview()); len(collisions) > 0 {
			c := collisions[0]
			err := fmt.Errorf("%w: %d files would be named %s", domain.ErrNameCollision, len(c.Sources), filepath.Base(c.Path))
			d.record(kind, action, start, len(files), 0, err)
			if kind.Category() == operation.CategoryFilesystem {
				errKind = domain.KindFilename
			}
			return nil, domain.NewOpError(errKind, action, err)
		}
	}

	d.logger.Debug("running operation", "op", string(kind), "dir", d.path, "files", len(files))

	out, err := router.Execute(ctx, op, files)
	if err != nil {
		d.record(kind, action, start, len(files), 0, err)
		if !errors.Is(err, domain.ErrInvalidOperation) && !errors.Is(err, domain.ErrUnsupportedOperation) {
			if rerr := d.rescan(); rerr != nil {
				d.logger.Warn("rescan after failure failed", "dir", d.path, "error", rerr)
			}
		}
		d.logger.Error("operation failed", "op", string(kind), "dir", d.path, "error", err)
		return nil, domain.NewOpError(errKind, action, err)
	}

	switch op := op.(type) {
	case operation.Backup, operation.Zip, operation.Join:
	case operation.Copy:
		d.path = op.Target
		d.files = out
	case operation.Move:
		d.path = op.Target
		d.files = out
	default:
		d.files = out
	}

	d.record(kind, action, start, len(files), len(out), nil)
	if d.logFile != "" {
		if err := d.logLocked(capitalize(action)); err != nil {
			d.logger.Warn("message log write failed", "file", d.logFile, "error", err)
		}
	}
	return out, nil
}

func (d *Directory) record(kind operation.Kind, action string, start time.Time, in, out int, err error) {
	if d.journal == nil {
		return
	}

	rec := state.Record{
		RunID:     d.runID,
		Directory: d.path,
		Action:    action,
		Kind:      string(kind),
		StartTime: start,
		EndTime:   d.now(),
		Status:    state.StatusSuccess,
		FilesIn:   in,
		FilesOut:  out,
	}
	if err != nil {
		rec.Status = state.StatusFailed
		rec.Error = err.Error()
	}
	if _, jerr := d.journal.Save(rec); jerr != nil {
		d.logger.Warn("journal write failed", "op", string(kind), "error", jerr)
	}
}

// keepsDistinct reports whether kind renames files in place, so two
// inputs must never end up at the same path
func keepsDistinct(kind operation.Kind) bool {
	switch kind {
	case operation.KindUppercase, operation.KindLowercase, operation.KindAppend,
		operation.KindPrepend, operation.KindReplace, operation.KindReplaceSpaces,
		operation.KindIterate, operation.KindConvertFormat:
		return true
	}
	return false
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
