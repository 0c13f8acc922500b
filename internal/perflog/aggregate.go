package perflog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Record is one parsed performance-log line.
type Record struct {
	Timestamp time.Time
	Operation string
	Seconds   float64
}

// Stats summarizes every record of one operation. Durations are seconds.
type Stats struct {
	Count int
	Mean  float64
	Min   float64
	Max   float64
	Total float64
}

const maxLineSize = 1 << 20

// ParseLine parses a performance-log line. ok is false for lines that do
// not follow the record format.
func ParseLine(line string) (rec Record, ok bool) {
	line = strings.TrimRight(line, "\r\n")
	stamp, metric, found := strings.Cut(line, " - ")
	if !found {
		return Record{}, false
	}
	// The layout has no fraction; Parse still accepts ",fff" after the seconds.
	ts, err := time.ParseInLocation("2006-01-02 15:04:05", strings.TrimSpace(stamp), time.Local)
	if err != nil {
		return Record{}, false
	}
	op, value, found := strings.Cut(metric, ":")
	if !found {
		return Record{}, false
	}
	op = strings.TrimSpace(op)
	if op == "" {
		return Record{}, false
	}
	value = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), unit))
	secs, err := strconv.ParseFloat(value, 64)
	if err != nil || secs < 0 || math.IsNaN(secs) || math.IsInf(secs, 0) {
		return Record{}, false
	}
	return Record{Timestamp: ts, Operation: op, Seconds: secs}, true
}

// Aggregate reads the log at path and returns statistics per operation.
// A missing file yields an empty result.
func Aggregate(path string) (map[string]Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]Stats{}, nil
		}
		return nil, fmt.Errorf("perflog: open %s: %w", path, err)
	}
	defer f.Close()
	return AggregateReader(f)
}

// AggregateReader aggregates records read from r, skipping malformed lines.
func AggregateReader(r io.Reader) (map[string]Stats, error) {
	out := map[string]Stats{}
	err := eachLine(r, func(line string) {
		rec, ok := ParseLine(line)
		if !ok {
			return
		}
		s := out[rec.Operation]
		if s.Count == 0 || rec.Seconds < s.Min {
			s.Min = rec.Seconds
		}
		if rec.Seconds > s.Max {
			s.Max = rec.Seconds
		}
		s.Count++
		s.Total += rec.Seconds
		s.Mean = s.Total / float64(s.Count)
		out[rec.Operation] = s
	})
	if err != nil {
		return out, fmt.Errorf("perflog: read: %w", err)
	}
	return out, nil
}

// Operations returns the operation names of stats in sorted order.
func Operations(stats map[string]Stats) []string {
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Tail returns the last n non-empty lines of the log at path.
// A missing file yields no lines and no error.
func Tail(path string, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("perflog: open %s: %w", path, err)
	}
	defer f.Close()

	ring := make([]string, 0, n)
	err = eachLine(f, func(line string) {
		line = strings.TrimSpace(line)
		if line == "" {
			return
		}
		if len(ring) == n {
			ring = append(ring[:0], ring[1:]...)
		}
		ring = append(ring, line)
	})
	if err != nil {
		return nil, fmt.Errorf("perflog: read %s: %w", path, err)
	}
	return ring, nil
}

// eachLine calls fn for every line of r. Lines longer than maxLineSize are
// dropped whole and reading resumes after them.
func eachLine(r io.Reader, fn func(line string)) error {
	br := bufio.NewReaderSize(r, 64*1024)
	var (
		buf     []byte
		tooLong bool
	)
	for {
		frag, err := br.ReadSlice('\n')
		if err != nil && err != bufio.ErrBufferFull && err != io.EOF {
			return err
		}
		if !tooLong {
			if len(buf)+len(frag) > maxLineSize {
				tooLong, buf = true, buf[:0]
			} else {
				buf = append(buf, frag...)
			}
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		if !tooLong && len(buf) > 0 {
			fn(string(buf))
		}
		buf, tooLong = buf[:0], false
		if err == io.EOF {
			return nil
		}
	}
}
