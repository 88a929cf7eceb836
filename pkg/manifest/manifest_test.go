package manifest

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expandergen/pca9575gen/pkg/codegen"
	"github.com/expandergen/pca9575gen/pkg/config"
	"github.com/expandergen/pca9575gen/pkg/schema/rules"
	"github.com/expandergen/pca9575gen/pkg/version"
)

const doc = `
pca9575:
  - id: exp1
    address: 0x22
    setup_priority: 50.5
pins:
  - id: relay
    pca9575: exp1
    number: 9
    mode: OUTPUT
    inverted: true
  - id: button
    pca9575: exp1
    number: 0
    mode: INPUT
`

func program(t *testing.T) *codegen.Program {
	t.Helper()
	d, err := config.Parse([]byte(doc))
	require.NoError(t, err)
	resolved, err := rules.Check(d)
	require.NoError(t, err)
	prog, err := codegen.Emit(resolved)
	require.NoError(t, err)
	return prog
}

func TestRoundTrip(t *testing.T) {
	prog := program(t)
	m := New(prog, "node.yaml")

	data, err := Encode(m)
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)

	assert.Equal(t, m.Header.BuildID, got.Header.BuildID)
	assert.Equal(t, version.CurrentTag(), got.Header.Tag)
	assert.Equal(t, version.Generator, got.Header.Generator)
	assert.Equal(t, "node.yaml", got.Header.Source)
	assert.True(t, m.Header.CreatedAt.Equal(got.Header.CreatedAt))

	assert.Equal(t, prog.Instructions, got.Program.Instructions)
	assert.Equal(t, prog.Expanders(), got.Program.Expanders())
	assert.Equal(t, prog.Pins(), got.Program.Pins())
}

func TestNew_UniqueBuildIDs(t *testing.T) {
	prog := program(t)
	a, b := New(prog, ""), New(prog, "")
	assert.NotEqual(t, a.Header.BuildID, b.Header.BuildID)
	_, err := uuid.Parse(a.Header.BuildID)
	assert.NoError(t, err)
}

func TestDecode_Incompatible(t *testing.T) {
	m := New(program(t), "")
	m.Header.Tag = version.Tag(9)
	data, err := Encode(m)
	require.NoError(t, err)

	_, err = Decode(data)
	assert.True(t, errors.Is(err, ErrIncompatible))
}

func TestDecode_BadProgram(t *testing.T) {
	m := New(&codegen.Program{Instructions: []codegen.Instruction{
		{Op: codegen.OpRegisterComponent, Var: "ghost"},
	}}, "")
	data, err := Encode(m)
	require.NoError(t, err)

	_, err = Decode(data)
	assert.ErrorIs(t, err, codegen.ErrUndefinedVariable)
}

func TestDecode_Garbage(t *testing.T) {
	_, err := Decode([]byte{0xff, 0x00})
	assert.Error(t, err)
}

func TestEncode_Empty(t *testing.T) {
	_, err := Encode(nil)
	assert.Error(t, err)
	_, err = Encode(&Manifest{})
	assert.Error(t, err)
}

func TestWriteReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "build.cbor")
	m := New(program(t), "node.yaml")
	require.NoError(t, WriteFile(path, m))

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, m.Program.Instructions, got.Program.Instructions)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.cbor"))
	assert.Error(t, err)
}
