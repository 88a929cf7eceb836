// Package manifest stores a generated Program as a compact CBOR file, so a
// build can be inspected or re-rendered without the source configuration.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/expandergen/pca9575gen/pkg/codegen"
	"github.com/expandergen/pca9575gen/pkg/version"
)

// ErrIncompatible is returned when a manifest was written for a different
// schema major version.
var ErrIncompatible = errors.New("incompatible manifest")

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create manifest CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthForbidden,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create manifest CBOR decoder mode: %v", err))
	}
}

// Header identifies the build that produced a manifest.
type Header struct {
	// Tag is the schema tag, e.g. "pca9575gen/1".
	Tag string `cbor:"1,keyasint"`

	// BuildID is a random UUID assigned when the manifest is created.
	BuildID string `cbor:"2,keyasint"`

	Generator string    `cbor:"3,keyasint"`
	Schema    string    `cbor:"4,keyasint"`
	Source    string    `cbor:"5,keyasint,omitempty"`
	CreatedAt time.Time `cbor:"6,keyasint"`
}

// Manifest is a Program with its build header.
type Manifest struct {
	Header  Header           `cbor:"1,keyasint"`
	Program *codegen.Program `cbor:"2,keyasint"`
}

// New wraps prog in a manifest with a fresh build id.
func New(prog *codegen.Program, source string) *Manifest {
	return &Manifest{
		Header: Header{
			Tag:       version.CurrentTag(),
			BuildID:   uuid.New().String(),
			Generator: version.Generator,
			Schema:    version.Current,
			Source:    source,
			CreatedAt: time.Now().UTC(),
		},
		Program: prog,
	}
}

// Encode encodes a manifest to CBOR.
func Encode(m *Manifest) ([]byte, error) {
	if m == nil || m.Program == nil {
		return nil, errors.New("manifest has no program")
	}
	data, err := encMode.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}
	return data, nil
}

// Decode decodes a manifest and checks that its schema major version is
// supported and that its program is well formed.
func Decode(data []byte) (*Manifest, error) {
	var m Manifest
	if err := decMode.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}

	major, err := version.MajorFromTag(m.Header.Tag)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIncompatible, err)
	}
	current, _ := version.Parse(version.Current)
	if major != current.Major {
		return nil, fmt.Errorf("%w: written for schema %d.x, generator handles %d.x",
			ErrIncompatible, major, current.Major)
	}
	if _, err := uuid.Parse(m.Header.BuildID); err != nil {
		return nil, fmt.Errorf("manifest build id %q: %w", m.Header.BuildID, err)
	}

	if m.Program == nil {
		return nil, errors.New("manifest has no program")
	}
	if err := m.Program.Verify(); err != nil {
		return nil, fmt.Errorf("manifest program: %w", err)
	}
	return &m, nil
}

// WriteFile encodes m and writes it to path.
func WriteFile(path string, m *Manifest) error {
	data, err := Encode(m)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// ReadFile reads and decodes the manifest at path.
func ReadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return Decode(data)
}
