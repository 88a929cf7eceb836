package trace

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// Trace files are written canonically so two runs over the same document
// differ only in timestamps and run ids. Decoding is lenient: a trace cut
// short by a crash, or written by a newer generator with extra fields,
// should still be readable.
var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encMode, err = cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("trace: cbor encoder mode: %v", err))
	}

	decMode, err = cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("trace: cbor decoder mode: %v", err))
	}
}

// EncodeEvent returns the CBOR form of a single event.
func EncodeEvent(event Event) ([]byte, error) {
	data, err := encMode.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", event.Kind, err)
	}
	return data, nil
}

// DecodeEvent decodes the first event in data.
func DecodeEvent(data []byte) (Event, error) {
	var event Event
	if err := decMode.Unmarshal(data, &event); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	return event, nil
}

// NewEncoder returns a stream encoder using the trace encoding.
func NewEncoder(w io.Writer) *cbor.Encoder { return encMode.NewEncoder(w) }

// NewDecoder returns a stream decoder using the trace encoding.
func NewDecoder(r io.Reader) *cbor.Decoder { return decMode.NewDecoder(r) }
