// Package feedback persists the usefulness votes users give to answers.
//
// The store is a single JSON array. Every Record call rereads the array,
// appends one entry and replaces the file atomically while holding an
// advisory lock, so concurrent writers never drop each other's entries.
package feedback

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofrs/flock"
	"github.com/google/renameio/v2"
	"github.com/sirupsen/logrus"
)

// Record is one feedback entry. Field names match the existing store format.
type Record struct {
	Timestamp Timestamp `json:"fecha"`
	Question  string    `json:"pregunta"`
	Answer    string    `json:"respuesta"`
	Helpful   bool      `json:"util"`
}

// Logger appends feedback records to the interaction store.
type Logger struct {
	path string
	log  logrus.FieldLogger
	now  func() time.Time

	mu   sync.Mutex
	lock *flock.Flock
}

// NewLogger creates a Logger for the store at path.
func NewLogger(path string, log logrus.FieldLogger) *Logger {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Logger{
		path: path,
		log:  log.WithField("component", "feedback"),
		now:  time.Now,
		lock: flock.New(path + ".lock"),
	}
}

// Path returns the store location.
func (l *Logger) Path() string { return l.path }

// Record appends one entry stamped with the current time.
func (l *Logger) Record(question, answer string, helpful bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("feedback: create directory: %w", err)
	}
	if err := l.lock.Lock(); err != nil {
		return fmt.Errorf("feedback: lock %s: %w", l.path, err)
	}
	defer func() { _ = l.lock.Unlock() }()

	records, err := l.read()
	if err != nil {
		return err
	}
	records = append(records, Record{
		Timestamp: Timestamp{Time: l.now()},
		Question:  question,
		Answer:    answer,
		Helpful:   helpful,
	})

	data, err := encode(records)
	if err != nil {
		return fmt.Errorf("feedback: encode: %w", err)
	}
	if err := renameio.WriteFile(l.path, data, 0o644); err != nil {
		return fmt.Errorf("feedback: write %s: %w", l.path, err)
	}

	l.log.WithFields(logrus.Fields{"path": l.path, "records": len(records)}).Info("interaction saved")
	return nil
}

// Load returns every stored record in insertion order.
func (l *Logger) Load() ([]Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.read()
}

// read loads the store. A missing file or one that is not JSON reads as
// empty. Valid JSON of another shape is an error so its content survives.
func (l *Logger) read() ([]Record, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Record{}, nil
		}
		return nil, fmt.Errorf("feedback: read %s: %w", l.path, err)
	}
	if !json.Valid(data) {
		l.log.WithField("path", l.path).Warn("interaction store is not valid JSON, starting over")
		return []Record{}, nil
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("feedback: decode %s: %w", l.path, err)
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

func encode(records []Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
