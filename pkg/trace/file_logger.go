package trace

import (
	"fmt"
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// FileLogger streams generation events into a .trace file, one CBOR item
// per event. Safe for concurrent use.
//
// Encoding failures never reach the caller: a broken trace must not fail
// a generation run. They are counted instead, see Dropped.
type FileLogger struct {
	mu      sync.Mutex
	path    string
	f       *os.File
	enc     *cbor.Encoder
	dropped int
	closed  bool
}

// NewFileLogger opens path for appending, so several runs can share one
// trace file and be told apart by run id.
func NewFileLogger(path string) (*FileLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open trace %s: %w", path, err)
	}
	return &FileLogger{path: path, f: f, enc: NewEncoder(f)}, nil
}

// Path returns the trace file name.
func (l *FileLogger) Path() string { return l.path }

// Log appends one event. Events logged after Close are dropped.
func (l *FileLogger) Log(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed || l.enc.Encode(event) != nil {
		l.dropped++
	}
}

// Dropped returns how many events could not be written.
func (l *FileLogger) Dropped() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dropped
}

// Close syncs and closes the file. Only the first call does any work.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true

	syncErr := l.f.Sync()
	if err := l.f.Close(); err != nil {
		return fmt.Errorf("close trace %s: %w", l.path, err)
	}
	if syncErr != nil {
		return fmt.Errorf("sync trace %s: %w", l.path, syncErr)
	}
	return nil
}

var _ Logger = (*FileLogger)(nil)
