package progress

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func collect() (*CallbackReporter, func() []Update) {
	var mu sync.Mutex
	var updates []Update

	reporter := NewCallbackReporter(func(u Update) {
		mu.Lock()
		updates = append(updates, u)
		mu.Unlock()
	})

	return reporter, func() []Update {
		mu.Lock()
		defer mu.Unlock()
		return append([]Update(nil), updates...)
	}
}

// TestCallbackReporter_Sequence tests the updates of a two-file operation
func TestCallbackReporter_Sequence(t *testing.T) {
	reporter, updates := collect()

	reporter.SetTotal("backup", 2)
	reporter.Start("/music/a.wav")
	reporter.Complete("/music/a.wav")
	reporter.Start("/music/b.wav")
	reporter.Complete("/music/b.wav")

	got := updates()
	if len(got) != 5 {
		t.Fatalf("expected 5 updates, got %d", len(got))
	}

	wantTypes := []UpdateType{UpdateTotal, UpdateStart, UpdateComplete, UpdateStart, UpdateComplete}
	for i, u := range got {
		if u.Type != wantTypes[i] {
			t.Errorf("update %d: expected type %v, got %v", i, wantTypes[i], u.Type)
		}
		if u.Action != "backup" {
			t.Errorf("update %d: expected action backup, got %q", i, u.Action)
		}
		if u.FilesTotal != 2 {
			t.Errorf("update %d: expected FilesTotal 2, got %d", i, u.FilesTotal)
		}
	}

	last := got[len(got)-1]
	if last.FilesCompleted != 2 {
		t.Errorf("expected FilesCompleted 2, got %d", last.FilesCompleted)
	}
	if last.File != "/music/b.wav" {
		t.Errorf("expected file /music/b.wav, got %q", last.File)
	}
}

// TestCallbackReporter_SetTotalResets tests that a new operation restarts counting
func TestCallbackReporter_SetTotalResets(t *testing.T) {
	reporter, updates := collect()

	reporter.SetTotal("gain", 1)
	reporter.Complete("/music/a.wav")
	reporter.SetTotal("fade", 3)

	got := updates()
	last := got[len(got)-1]
	if last.FilesCompleted != 0 || last.FilesTotal != 3 || last.Action != "fade" {
		t.Errorf("expected fresh counters for fade, got %+v", last)
	}
}

// TestCallbackReporter_Error tests error reporting
func TestCallbackReporter_Error(t *testing.T) {
	reporter, updates := collect()
	testErr := errors.New("decode failed")

	reporter.SetTotal("normalize", 1)
	reporter.Error("/music/a.wav", testErr)

	got := updates()
	u := got[len(got)-1]
	if u.Type != UpdateError {
		t.Errorf("expected UpdateError, got %v", u.Type)
	}
	if !errors.Is(u.Error, testErr) {
		t.Errorf("expected error %v, got %v", testErr, u.Error)
	}
	if u.FilesCompleted != 0 {
		t.Errorf("failed files must not count as completed, got %d", u.FilesCompleted)
	}
}

// TestCallbackReporter_Concurrent tests reporting from parallel workers
func TestCallbackReporter_Concurrent(t *testing.T) {
	reporter, updates := collect()
	reporter.SetTotal("convert", 20)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reporter.Start("file.wav")
			reporter.Complete("file.wav")
		}()
	}
	wg.Wait()

	maxCompleted := 0
	for _, u := range updates() {
		if u.FilesCompleted > maxCompleted {
			maxCompleted = u.FilesCompleted
		}
	}
	if maxCompleted != 20 {
		t.Errorf("expected 20 completed files, got %d", maxCompleted)
	}
}

// TestCallbackReporter_Reentrant tests that callbacks may call the reporter
func TestCallbackReporter_Reentrant(t *testing.T) {
	done := make(chan bool, 1)

	var reporter *CallbackReporter
	reporter = NewCallbackReporter(func(u Update) {
		if u.Type == UpdateStart {
			reporter.Error(u.File, errors.New("re-entered"))
		}
	})

	go func() {
		reporter.SetTotal("copy", 1)
		reporter.Start("a.wav")
		reporter.Complete("a.wav")
		done <- true
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("deadlock detected - callback was called while holding lock")
	}
}

// TestNullReporter tests that the null reporter accepts every call
func TestNullReporter(t *testing.T) {
	r := OrNull(nil)
	if _, ok := r.(NullReporter); !ok {
		t.Fatalf("expected NullReporter, got %T", r)
	}

	r.SetTotal("zip", 1)
	r.Start("a.wav")
	r.Error("a.wav", errors.New("x"))
	r.Complete("a.wav")

	cb := NewCallbackReporter(nil)
	if OrNull(cb) != Reporter(cb) {
		t.Error("expected OrNull to keep a non-nil reporter")
	}
}
