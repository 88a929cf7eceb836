package codegen

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by Program.Verify.
var (
	ErrUndefinedVariable = errors.New("variable used before it is defined")
	ErrRedefinedVariable = errors.New("variable defined twice")
)

// Program is the ordered instruction list for one configuration document.
type Program struct {
	// Part names the expander family, e.g. "PCA9575".
	Part string `cbor:"1,keyasint" json:"part"`

	// Qualified classes the instructions construct or look up.
	ComponentType string `cbor:"2,keyasint" json:"componentType"`
	PinType       string `cbor:"3,keyasint" json:"pinType"`
	BusType       string `cbor:"4,keyasint" json:"busType"`

	Instructions []Instruction `cbor:"5,keyasint" json:"instructions"`
}

func (p *Program) add(in Instruction) {
	p.Instructions = append(p.Instructions, in)
}

// Len returns the number of instructions.
func (p *Program) Len() int { return len(p.Instructions) }

// Verify checks that every variable is defined exactly once and before any
// instruction uses it, either as a target or as a reference argument.
func (p *Program) Verify() error {
	defined := make(map[string]int)
	for i, in := range p.Instructions {
		switch in.Op {
		case OpNew, OpGetVariable:
			if prev, ok := defined[in.Var]; ok {
				return fmt.Errorf("instruction %d: %s (first at %d): %w", i, in.Var, prev, ErrRedefinedVariable)
			}
			defined[in.Var] = i
		default:
			if _, ok := defined[in.Var]; !ok {
				return fmt.Errorf("instruction %d: %s: %w", i, in.Var, ErrUndefinedVariable)
			}
		}
		for _, a := range in.Args {
			if a.Kind != ArgRef {
				continue
			}
			if _, ok := defined[a.Ref]; !ok {
				return fmt.Errorf("instruction %d: argument %s: %w", i, a.Ref, ErrUndefinedVariable)
			}
		}
	}
	return nil
}

// Variables returns the variables the program defines, in definition order.
func (p *Program) Variables() []Instruction {
	var out []Instruction
	for _, in := range p.Instructions {
		if in.Op == OpNew || in.Op == OpGetVariable {
			out = append(out, in)
		}
	}
	return out
}

// For returns the instructions that define or act on name.
func (p *Program) For(name string) []Instruction {
	var out []Instruction
	for _, in := range p.Instructions {
		if in.Var == name {
			out = append(out, in)
		}
	}
	return out
}

// ExpanderRecord is the expander-level view of a program.
type ExpanderRecord struct {
	ID            string
	Address       uint16
	PinCount      int
	Bus           string
	SetupPriority *float64
}

// PinRecord is the pin-level view of a program.
type PinRecord struct {
	ID       string
	Parent   string
	Number   int
	Inverted bool
	Input    bool
	Output   bool
}

// Expanders reconstructs the expander records from the instructions.
func (p *Program) Expanders() []ExpanderRecord {
	var out []ExpanderRecord
	index := make(map[string]int)
	for _, in := range p.Instructions {
		if in.Op == OpNew && in.Type == p.ComponentType {
			index[in.Var] = len(out)
			out = append(out, ExpanderRecord{ID: in.Var})
			continue
		}
		i, ok := index[in.Var]
		if !ok {
			continue
		}
		rec := &out[i]
		switch {
		case in.Op == OpCall && in.Method == MethodSetPinCount && len(in.Args) == 1:
			rec.PinCount = int(in.Args[0].Int)
		case in.Op == OpCall && in.Method == MethodSetSetupPriority && len(in.Args) == 1:
			v := in.Args[0].Float
			rec.SetupPriority = &v
		case in.Op == OpRegisterI2CDevice && len(in.Args) == 2:
			rec.Bus = in.Args[0].Ref
			rec.Address = uint16(in.Args[1].Int)
		}
	}
	return out
}

// Pins reconstructs the pin records from the instructions.
func (p *Program) Pins() []PinRecord {
	var out []PinRecord
	index := make(map[string]int)
	for _, in := range p.Instructions {
		if in.Op == OpNew && in.Type == p.PinType {
			index[in.Var] = len(out)
			out = append(out, PinRecord{ID: in.Var})
			continue
		}
		i, ok := index[in.Var]
		if !ok || in.Op != OpCall || len(in.Args) != 1 {
			continue
		}
		rec := &out[i]
		arg := in.Args[0]
		switch in.Method {
		case MethodSetParent:
			rec.Parent = arg.Ref
		case MethodSetPin:
			rec.Number = int(arg.Int)
		case MethodSetInverted:
			rec.Inverted = arg.Bool
		case MethodSetFlags:
			rec.Input = arg.HasFlag(FlagInput)
			rec.Output = arg.HasFlag(FlagOutput)
		}
	}
	return out
}
