// Package codegen turns a validated, resolved configuration into a Program:
// an ordered list of object-construction instructions for the downstream
// firmware build.
//
// Emission is pure. It performs no I/O; renderers in pkg/render and the
// manifest codec in pkg/manifest consume the Program.
package codegen

import (
	"fmt"
	"strconv"
	"strings"
)

// Op identifies the kind of an instruction.
type Op string

const (
	// OpGetVariable looks up an object constructed elsewhere (an I2C bus).
	OpGetVariable Op = "get_variable"
	// OpNew constructs an object and binds it to a variable.
	OpNew Op = "new"
	// OpCall invokes a setter on a variable.
	OpCall Op = "call"
	// OpRegisterComponent registers a variable with the component lifecycle.
	OpRegisterComponent Op = "register_component"
	// OpRegisterI2CDevice attaches a variable to a bus at an address.
	// Args are the bus reference and the address.
	OpRegisterI2CDevice Op = "register_i2c_device"
)

// Setter methods emitted by Emit.
const (
	MethodSetPinCount      = "set_pin_count"
	MethodSetSetupPriority = "set_setup_priority"
	MethodSetParent        = "set_parent"
	MethodSetPin           = "set_pin"
	MethodSetInverted      = "set_inverted"
	MethodSetFlags         = "set_flags"
)

// Instruction is one construction step.
type Instruction struct {
	Op Op `cbor:"1,keyasint" json:"op"`

	// Var is the variable the instruction creates or acts on.
	Var string `cbor:"2,keyasint" json:"var"`

	// Type is the qualified class of OpNew and OpGetVariable.
	Type string `cbor:"3,keyasint,omitempty" json:"type,omitempty"`

	// Method is the setter invoked by OpCall.
	Method string `cbor:"4,keyasint,omitempty" json:"method,omitempty"`

	Args []Arg `cbor:"5,keyasint,omitempty" json:"args,omitempty"`
}

// String renders the instruction in a compact, language-neutral form.
func (in Instruction) String() string {
	switch in.Op {
	case OpNew:
		return fmt.Sprintf("%s = new %s", in.Var, in.Type)
	case OpGetVariable:
		return fmt.Sprintf("%s = get_variable %s", in.Var, in.Type)
	case OpCall:
		return fmt.Sprintf("%s.%s(%s)", in.Var, in.Method, joinArgs(in.Args))
	default:
		args := append([]Arg{RefArg(in.Var)}, in.Args...)
		return fmt.Sprintf("%s(%s)", in.Op, joinArgs(args))
	}
}

// ArgKind is the type of an instruction argument.
type ArgKind uint8

const (
	ArgInt ArgKind = iota
	ArgAddress
	ArgBool
	ArgFloat
	ArgRef
	ArgFlags
)

func (k ArgKind) String() string {
	switch k {
	case ArgInt:
		return "int"
	case ArgAddress:
		return "address"
	case ArgBool:
		return "bool"
	case ArgFloat:
		return "float"
	case ArgRef:
		return "ref"
	case ArgFlags:
		return "flags"
	default:
		return fmt.Sprintf("ArgKind(%d)", k)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k ArgKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ArgKind) UnmarshalText(b []byte) error {
	for c := ArgInt; c <= ArgFlags; c++ {
		if c.String() == string(b) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("unknown argument kind %q", b)
}

// Arg is a typed instruction argument. Only the field matching Kind is set.
type Arg struct {
	Kind  ArgKind  `cbor:"1,keyasint" json:"kind"`
	Int   int64    `cbor:"2,keyasint,omitempty" json:"int,omitempty"`
	Bool  bool     `cbor:"3,keyasint,omitempty" json:"bool,omitempty"`
	Float float64  `cbor:"4,keyasint,omitempty" json:"float,omitempty"`
	Ref   string   `cbor:"5,keyasint,omitempty" json:"ref,omitempty"`
	Flags []string `cbor:"6,keyasint,omitempty" json:"flags,omitempty"`
}

func IntArg(v int) Arg             { return Arg{Kind: ArgInt, Int: int64(v)} }
func AddressArg(v uint16) Arg      { return Arg{Kind: ArgAddress, Int: int64(v)} }
func BoolArg(v bool) Arg           { return Arg{Kind: ArgBool, Bool: v} }
func FloatArg(v float64) Arg       { return Arg{Kind: ArgFloat, Float: v} }
func RefArg(name string) Arg       { return Arg{Kind: ArgRef, Ref: name} }
func FlagsArg(flags ...string) Arg { return Arg{Kind: ArgFlags, Flags: flags} }

// String renders the argument as a literal.
func (a Arg) String() string {
	switch a.Kind {
	case ArgInt:
		return strconv.FormatInt(a.Int, 10)
	case ArgAddress:
		return fmt.Sprintf("0x%02X", a.Int)
	case ArgBool:
		return strconv.FormatBool(a.Bool)
	case ArgFloat:
		return strconv.FormatFloat(a.Float, 'f', -1, 64)
	case ArgRef:
		return a.Ref
	case ArgFlags:
		return strings.Join(a.Flags, "|")
	default:
		return "?"
	}
}

// HasFlag reports whether a flags argument carries flag.
func (a Arg) HasFlag(flag string) bool {
	for _, f := range a.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

func joinArgs(args []Arg) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return strings.Join(parts, ", ")
}
