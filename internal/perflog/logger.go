// Package perflog records how long named operations take and summarizes the
// resulting log.
//
// The log is plain text, one record per line:
//
//	2024-01-01 10:00:00,000 - get_response: 1.50 segundos
package perflog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"
)

// Operation names written by the application.
const (
	OpProcessDocument = "process_scientific_document"
	OpGetResponse     = "get_response"
)

const (
	timestampLayout = "2006-01-02 15:04:05,000"
	unit            = "segundos"
)

// Logger appends timing records to a performance log.
// It is safe for concurrent use by goroutines and by separate processes
// sharing the same file.
type Logger struct {
	path string
	log  logrus.FieldLogger
	now  func() time.Time

	mu   sync.Mutex
	lock *flock.Flock
}

// New creates a Logger writing to path.
func New(path string, log logrus.FieldLogger) *Logger {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Logger{
		path: path,
		log:  log.WithField("component", "perflog"),
		now:  time.Now,
		lock: flock.New(path + ".lock"),
	}
}

// Path returns the log file location.
func (l *Logger) Path() string { return l.path }

// Log appends one record for operation. The line goes out in a single
// append-mode write while the file lock is held.
func (l *Logger) Log(operation string, elapsed time.Duration) error {
	line := FormatLine(l.now(), operation, elapsed)

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("perflog: create directory: %w", err)
	}
	if err := l.lock.Lock(); err != nil {
		return fmt.Errorf("perflog: lock %s: %w", l.path, err)
	}
	defer func() { _ = l.lock.Unlock() }()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("perflog: open %s: %w", l.path, err)
	}
	if _, err := f.WriteString(line); err != nil {
		_ = f.Close()
		return fmt.Errorf("perflog: write %s: %w", l.path, err)
	}
	return f.Close()
}

// FormatLine renders one performance record including the trailing newline.
func FormatLine(ts time.Time, operation string, elapsed time.Duration) string {
	return fmt.Sprintf("%s - %s: %.2f %s\n", ts.Format(timestampLayout), operation, elapsed.Seconds(), unit)
}

// Measure runs op, records its wall-clock duration under name and returns
// the result together with the elapsed time. The record is written even
// when op fails. A failure to write the record is logged, not returned.
func Measure[T any](l *Logger, name string, op func() (T, error)) (T, time.Duration, error) {
	start := time.Now()
	res, err := op()
	elapsed := time.Since(start)

	if l != nil {
		if logErr := l.Log(name, elapsed); logErr != nil {
			l.log.WithError(logErr).WithField("operation", name).Warn("could not record timing")
		}
	}
	return res, elapsed, err
}
