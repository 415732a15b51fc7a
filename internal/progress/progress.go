package progress

import (
	"sync"
	"time"
)

// Reporter receives per-file progress while an operation runs.
// Implementations must be safe for concurrent use: adapters may process
// several files at once.
type Reporter interface {
	// SetTotal starts a new operation over totalFiles files
	SetTotal(action string, totalFiles int)
	// Start marks path as in progress
	Start(path string)
	// Complete marks path as done
	Complete(path string)
	// Error reports a failure on path
	Error(path string, err error)
}

// Callback is a function that receives progress updates
type Callback func(update Update)

// Update represents a progress update
type Update struct {
	Type           UpdateType
	Action         string
	File           string
	FilesCompleted int
	FilesTotal     int
	Elapsed        time.Duration
	Error          error
}

// UpdateType indicates the type of progress update
type UpdateType int

const (
	UpdateTotal UpdateType = iota
	UpdateStart
	UpdateComplete
	UpdateError
)

// CallbackReporter implements Reporter with a callback function
type CallbackReporter struct {
	callback       Callback
	mu             sync.Mutex
	action         string
	filesTotal     int
	filesCompleted int
	startTime      time.Time
}

// NewCallbackReporter creates a new CallbackReporter
func NewCallbackReporter(callback Callback) *CallbackReporter {
	return &CallbackReporter{callback: callback}
}

// SetTotal resets the counters for a new operation
func (r *CallbackReporter) SetTotal(action string, totalFiles int) {
	r.mu.Lock()
	r.action = action
	r.filesTotal = totalFiles
	r.filesCompleted = 0
	r.startTime = time.Now()
	update := r.snapshot(UpdateTotal, "", nil)
	r.mu.Unlock()

	r.emit(update)
}

// Start marks path as in progress
func (r *CallbackReporter) Start(path string) {
	r.mu.Lock()
	update := r.snapshot(UpdateStart, path, nil)
	r.mu.Unlock()

	r.emit(update)
}

// Complete marks path as done
func (r *CallbackReporter) Complete(path string) {
	r.mu.Lock()
	r.filesCompleted++
	update := r.snapshot(UpdateComplete, path, nil)
	r.mu.Unlock()

	r.emit(update)
}

// Error reports a failure on path
func (r *CallbackReporter) Error(path string, err error) {
	r.mu.Lock()
	update := r.snapshot(UpdateError, path, err)
	r.mu.Unlock()

	r.emit(update)
}

// snapshot must be called with r.mu held
func (r *CallbackReporter) snapshot(typ UpdateType, path string, err error) Update {
	return Update{
		Type:           typ,
		Action:         r.action,
		File:           path,
		FilesCompleted: r.filesCompleted,
		FilesTotal:     r.filesTotal,
		Elapsed:        time.Since(r.startTime),
		Error:          err,
	}
}

// emit calls the callback outside the lock so it may call back into r
func (r *CallbackReporter) emit(update Update) {
	if r.callback != nil {
		r.callback(update)
	}
}

// NullReporter discards all progress updates
type NullReporter struct{}

func (NullReporter) SetTotal(action string, totalFiles int) {}
func (NullReporter) Start(path string)                      {}
func (NullReporter) Complete(path string)                   {}
func (NullReporter) Error(path string, err error)           {}

// OrNull returns r, or a NullReporter when r is nil
func OrNull(r Reporter) Reporter {
	if r == nil {
		return NullReporter{}
	}
	return r
}
