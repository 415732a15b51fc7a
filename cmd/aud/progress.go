package main

import (
	"io"
	"path/filepath"
	"sync"

	"github.com/pterm/pterm"

	"github.com/Ning0612/aud/internal/progress"
)

// barReporter draws one pterm progress bar per operation
type barReporter struct {
	mu  sync.Mutex
	out io.Writer
	bar *pterm.ProgressbarPrinter
}

func newBarReporter(out io.Writer) *progress.CallbackReporter {
	r := &barReporter{out: out}
	return progress.NewCallbackReporter(r.update)
}

func (r *barReporter) update(u progress.Update) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch u.Type {
	case progress.UpdateTotal:
		r.stop()
		if u.FilesTotal == 0 {
			return
		}
		bar, err := pterm.DefaultProgressbar.
			WithTotal(u.FilesTotal).
			WithTitle(u.Action).
			WithWriter(r.out).
			Start()
		if err == nil {
			r.bar = bar
		}
	case progress.UpdateComplete:
		if r.bar == nil {
			return
		}
		r.bar.Increment()
		if u.FilesCompleted >= u.FilesTotal {
			r.stop()
		}
	case progress.UpdateError:
		r.stop()
		pterm.Error.WithWriter(r.out).Printfln("%s: %v", filepath.Base(u.File), u.Error)
	}
}

func (r *barReporter) stop() {
	if r.bar == nil {
		return
	}
	_, _ = r.bar.Stop()
	r.bar = nil
}
