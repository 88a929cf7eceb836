// Package version provides schema version parsing, comparison, and the
// generator tag stamped into generated output and manifests.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Current is the configuration schema version understood by this generator.
const Current = "1.0"

// Generator is the release of the pca9575gen tool.
const Generator = "0.3.0"

const tagPrefix = "pca9575gen/"

// SchemaVersion represents a parsed "major.minor" schema version.
type SchemaVersion struct {
	Major uint16
	Minor uint16
}

// Parse parses a "major.minor" version string.
func Parse(s string) (SchemaVersion, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 2 {
		return SchemaVersion{}, fmt.Errorf("invalid version %q: expected major.minor", s)
	}

	major, err := strconv.ParseUint(parts[0], 10, 16)
	if err != nil || parts[0] == "" {
		return SchemaVersion{}, fmt.Errorf("invalid version %q: bad major component", s)
	}

	minor, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil || parts[1] == "" {
		return SchemaVersion{}, fmt.Errorf("invalid version %q: bad minor component", s)
	}

	return SchemaVersion{Major: uint16(major), Minor: uint16(minor)}, nil
}

// String returns the version as "major.minor".
func (v SchemaVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Compatible returns true if the other version has the same major version.
func (v SchemaVersion) Compatible(other SchemaVersion) bool {
	return v.Major == other.Major
}

// CheckDocument verifies that a document's declared schema version can be
// handled by this generator. An empty string means the current version.
func CheckDocument(declared string) error {
	if declared == "" {
		return nil
	}
	v, err := Parse(declared)
	if err != nil {
		return err
	}
	current, _ := Parse(Current)
	if !current.Compatible(v) {
		return fmt.Errorf("schema version %s is not supported (generator handles %d.x)", v, current.Major)
	}
	return nil
}

// Tag returns the generator tag for a schema major version: "pca9575gen/N".
func Tag(major uint16) string {
	return fmt.Sprintf("%s%d", tagPrefix, major)
}

// MajorFromTag extracts the schema major version from a generator tag.
func MajorFromTag(tag string) (uint16, error) {
	if !strings.HasPrefix(tag, tagPrefix) {
		return 0, fmt.Errorf("not a pca9575gen tag: %q", tag)
	}

	suffix := tag[len(tagPrefix):]
	if suffix == "" {
		return 0, fmt.Errorf("empty major version in tag: %q", tag)
	}

	major, err := strconv.ParseUint(suffix, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid major version in tag %q: %w", tag, err)
	}

	return uint16(major), nil
}

// CurrentTag returns the tag for the current schema version.
func CurrentTag() string {
	current, _ := Parse(Current)
	return Tag(current.Major)
}
