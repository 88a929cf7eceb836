package trace

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Filter specifies criteria for selecting trace events.
// Empty/nil fields match all events for that criterion.
type Filter struct {
	RunID     string
	Stage     *Stage
	Kind      *Kind
	Subject   string
	TimeStart *time.Time
	TimeEnd   *time.Time
}

// Matches returns true if the event matches all filter criteria.
func (f *Filter) Matches(event Event) bool {
	if f.RunID != "" && event.RunID != f.RunID {
		return false
	}
	if f.Stage != nil && event.Stage != *f.Stage {
		return false
	}
	if f.Kind != nil && event.Kind != *f.Kind {
		return false
	}
	if f.Subject != "" && event.Subject != f.Subject {
		return false
	}
	if f.TimeStart != nil && event.Timestamp.Before(*f.TimeStart) {
		return false
	}
	if f.TimeEnd != nil && !event.Timestamp.Before(*f.TimeEnd) {
		return false
	}
	return true
}

// Reader streams events from a trace file. A final event cut short by an
// interrupted run ends the stream like EOF; Truncated reports it.
type Reader struct {
	f         *os.File
	dec       *cbor.Decoder
	filter    Filter
	truncated bool
}

// NewReader opens path and returns every event in it.
func NewReader(path string) (*Reader, error) {
	return NewFilteredReader(path, Filter{})
}

// NewFilteredReader opens path and returns only events matching filter.
func NewFilteredReader(path string, filter Filter) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trace: %w", err)
	}
	return &Reader{f: f, dec: NewDecoder(f), filter: filter}, nil
}

// Next returns the next matching event, or io.EOF at the end of the file.
func (r *Reader) Next() (Event, error) {
	for {
		var event Event
		err := r.dec.Decode(&event)
		switch {
		case errors.Is(err, io.EOF):
			return Event{}, io.EOF
		case errors.Is(err, io.ErrUnexpectedEOF):
			r.truncated = true
			return Event{}, io.EOF
		case err != nil:
			return Event{}, fmt.Errorf("read trace %s: %w", r.f.Name(), err)
		}
		if r.filter.Matches(event) {
			return event, nil
		}
	}
}

// ReadAll returns all remaining matching events.
func (r *Reader) ReadAll() ([]Event, error) {
	var events []Event
	for {
		ev, err := r.Next()
		if err == io.EOF {
			return events, nil
		}
		if err != nil {
			return events, err
		}
		events = append(events, ev)
	}
}

// Truncated reports whether the file ended in the middle of an event.
func (r *Reader) Truncated() bool { return r.truncated }

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.f.Close()
}
