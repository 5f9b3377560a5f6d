// Package testutil provides shared test helpers for trafficsieve: capture-log
// fixtures, fault injection and concurrency assertions.
package testutil

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/trafficsieve/trafficsieve/pkg/defaults"
)

// ErrFault is the sentinel error returned by fault injection helpers.
var ErrFault = errors.New("injected fault")

// Capture joins entries with the default separator, the way the proxy
// writes its log.
func Capture(entries ...string) string {
	return strings.Join(entries, defaults.Separator)
}

// WriteCapture writes Capture(entries...) to burp.log in a fresh temp
// directory and returns its path.
func WriteCapture(t testing.TB, entries ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "burp.log")
	if err := os.WriteFile(path, []byte(Capture(entries...)), 0o644); err != nil {
		t.Fatalf("write capture: %v", err)
	}
	return path
}

// FailingWriter is an io.Writer that fails after Limit bytes written.
// If Limit is 0, every Write call fails immediately.
type FailingWriter struct {
	written int
	Limit   int
}

func (w *FailingWriter) Write(p []byte) (int, error) {
	if w.written+len(p) > w.Limit {
		remaining := w.Limit - w.written
		if remaining > 0 {
			w.written += remaining
			return remaining, ErrFault
		}
		return 0, ErrFault
	}
	w.written += len(p)
	return len(p), nil
}

// FailingWriteCloser succeeds on Write but fails on Close.
// Simulates a disk-full flush at the end of a report.
type FailingWriteCloser struct {
	buf      []byte
	CloseErr error
}

func NewFailingWriteCloser() *FailingWriteCloser {
	return &FailingWriteCloser{CloseErr: ErrFault}
}

func (w *FailingWriteCloser) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	return len(p), nil
}

func (w *FailingWriteCloser) Close() error {
	return w.CloseErr
}

func (w *FailingWriteCloser) Bytes() []byte {
	return w.buf
}

// GoroutineTracker captures goroutine count before/after a test to detect leaks.
type GoroutineTracker struct {
	before int
}

// TrackGoroutines snapshots the current goroutine count. Call CheckLeaks after.
func TrackGoroutines() *GoroutineTracker {
	runtime.Gosched()
	return &GoroutineTracker{before: runtime.NumGoroutine()}
}

// CheckLeaks waits briefly for goroutines to drain, then fails the test if
// more goroutines are running than when tracking started.
// tolerance allows N extra goroutines (for runtime jitter).
func (g *GoroutineTracker) CheckLeaks(t testing.TB, tolerance int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		runtime.Gosched()
		if runtime.NumGoroutine() <= g.before+tolerance {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	if after := runtime.NumGoroutine(); after > g.before+tolerance {
		t.Errorf("goroutine leak: before=%d after=%d tolerance=%d", g.before, after, tolerance)
	}
}

// AssertNoPanic calls fn and fails the test if it panics.
func AssertNoPanic(t testing.TB, name string, fn func()) {
	t.Helper()
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("%s: unexpected panic: %v", name, r)
		}
	}()
	fn()
}

// AssertTimeout runs fn and fails if it doesn't complete within d.
func AssertTimeout(t testing.TB, name string, d time.Duration, fn func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatalf("%s: timed out after %v (possible deadlock)", name, d)
	}
}

// RunConcurrently runs fn count times across goroutines and waits for all to finish.
func RunConcurrently(count int, fn func(i int)) {
	var wg sync.WaitGroup
	start := make(chan struct{})
	wg.Add(count)
	for i := range count {
		go func() {
			defer wg.Done()
			<-start
			fn(i)
		}()
	}
	close(start)
	wg.Wait()
}
