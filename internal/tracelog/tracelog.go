// Package tracelog appends one JSON line per handled request to a trace file.
package tracelog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultPath is used when TRACE_LOG_PATH is not set.
const DefaultPath = "logs/http_trace.jsonl"

// Record describes the outcome of one request. Exactly one of Error,
// Message, DataPoints or CoinsReturned is normally set.
type Record struct {
	Endpoint      string
	Coin          string
	Days          string
	Status        int
	Duration      time.Duration
	Error         string
	Message       string
	DataPoints    *int
	CoinsReturned *int
}

// Recorder is implemented by anything that can persist trace records.
type Recorder interface {
	Record(rec Record)
}

// Logger writes records as JSON lines. Every record is encoded into a single
// Write call on an O_APPEND file, so concurrent writers never tear a line.
type Logger struct {
	out    zerolog.Logger
	closer io.Closer
	now    func() time.Time
	mu     sync.Mutex
}

// Open creates the parent directory and opens path for appending.
func Open(path string) (*Logger, error) {
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create trace log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open trace log: %w", err)
	}
	l := New(f)
	l.closer = f
	return l, nil
}

// New writes records to w, which must not buffer.
func New(w io.Writer) *Logger {
	return &Logger{
		out: zerolog.New(w),
		now: time.Now,
	}
}

func (l *Logger) Record(rec Record) {
	ev := l.out.Log().
		Str("ts", l.now().UTC().Format("2006-01-02T15:04:05.000Z07:00")).
		Str("endpoint", rec.Endpoint).
		Str("coin", rec.Coin).
		Str("days", rec.Days).
		Int("status", rec.Status).
		Int64("duration_ms", rec.Duration.Milliseconds())

	switch {
	case rec.Error != "":
		ev = ev.Str("error", rec.Error)
	case rec.Message != "":
		// zerolog's message field is named "message", which is the trace field we want.
		ev.Msg(rec.Message)
		return
	case rec.DataPoints != nil:
		ev = ev.Int("data_points", *rec.DataPoints)
	case rec.CoinsReturned != nil:
		ev = ev.Int("coins_returned", *rec.CoinsReturned)
	}
	ev.Send()
}

// Close closes the underlying file when the logger owns one.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closer == nil {
		return nil
	}
	err := l.closer.Close()
	l.closer = nil
	if err != nil {
		log.Warn().Err(err).Msg("closing trace log")
	}
	return err
}

// Nop discards every record.
type Nop struct{}

func (Nop) Record(Record) {}

// Int returns a pointer to v for the optional counters of Record.
func Int(v int) *int { return &v }
