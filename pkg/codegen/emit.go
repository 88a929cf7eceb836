package codegen

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/expandergen/pca9575gen/pkg/chip"
	"github.com/expandergen/pca9575gen/pkg/config"
	"github.com/expandergen/pca9575gen/pkg/schema"
	"github.com/expandergen/pca9575gen/pkg/trace"
)

// Pin direction flags carried by set_flags.
const (
	FlagInput  = "input"
	FlagOutput = "output"
)

// BusType is the class of the I2C bus objects the program looks up.
const BusType = "esphome::i2c::I2CBus"

// ErrNotResolved is returned when Emit is given a pin without a parent.
var ErrNotResolved = errors.New("configuration is not resolved")

// Emitter builds Programs for one part.
type Emitter struct {
	Part   *chip.Part
	Logger *slog.Logger
	Trace  *trace.Run
}

// NewEmitter returns an emitter for part. A nil part selects the PCA9575.
func NewEmitter(part *chip.Part) *Emitter {
	if part == nil {
		part = chip.Default()
	}
	return &Emitter{
		Part:   part,
		Logger: slog.Default(),
	}
}

// Emit builds the program for a resolved configuration. Buses used by an
// expander are looked up first; then each expander is constructed,
// registered and attached to its bus, followed by the pins bound to it.
func (e *Emitter) Emit(r *config.Resolved) (*Program, error) {
	if r == nil {
		return nil, ErrNotResolved
	}
	for _, p := range r.Pins {
		if err := checkPin(p); err != nil {
			e.Trace.Error(trace.StageEmit, err, "checking pins")
			return nil, err
		}
	}

	prog := &Program{
		Part:          e.Part.Name,
		ComponentType: e.Part.QualifiedComponent(),
		PinType:       e.Part.QualifiedPin(),
		BusType:       BusType,
	}

	used := make(map[string]bool)
	for _, x := range r.Expanders {
		used[x.BusID] = true
	}
	for _, b := range r.Buses {
		if used[b.ID] {
			prog.add(Instruction{Op: OpGetVariable, Var: b.ID, Type: BusType})
		}
	}

	for _, x := range r.Expanders {
		e.emitExpander(prog, x)
		for _, p := range r.PinsOf(x) {
			e.emitPin(prog, p)
		}
	}

	if err := prog.Verify(); err != nil {
		e.Trace.Error(trace.StageEmit, err, "verifying program")
		return nil, err
	}

	for i, in := range prog.Instructions {
		e.Trace.Instruction(i, string(in.Op), in.Var, in.String())
	}
	if e.Logger != nil {
		e.Logger.Debug("program emitted",
			"part", prog.Part,
			"expanders", len(r.Expanders),
			"pins", len(r.Pins),
			"instructions", prog.Len(),
		)
	}
	return prog, nil
}

func (e *Emitter) emitExpander(prog *Program, x *config.Expander) {
	prog.add(Instruction{Op: OpNew, Var: x.ID, Type: prog.ComponentType})
	prog.add(call(x.ID, MethodSetPinCount, IntArg(x.PinCount)))
	if x.SetupPriority != nil {
		prog.add(call(x.ID, MethodSetSetupPriority, FloatArg(*x.SetupPriority)))
	}
	prog.add(Instruction{Op: OpRegisterComponent, Var: x.ID})
	prog.add(Instruction{
		Op:   OpRegisterI2CDevice,
		Var:  x.ID,
		Args: []Arg{RefArg(x.BusID), AddressArg(uint16(x.Address))},
	})
}

func (e *Emitter) emitPin(prog *Program, p config.ResolvedPin) {
	prog.add(Instruction{Op: OpNew, Var: p.ID, Type: prog.PinType})
	prog.add(call(p.ID, MethodSetParent, RefArg(p.Parent.ID)))
	prog.add(call(p.ID, MethodSetPin, IntArg(p.Number)))
	prog.add(call(p.ID, MethodSetInverted, BoolArg(p.Inverted)))
	prog.add(call(p.ID, MethodSetFlags, modeFlags(p.Mode)))
}

// checkPin repeats the constraints a configuration must never get past,
// whatever rules the validator ran with.
func checkPin(p config.ResolvedPin) error {
	switch {
	case p.Parent == nil:
		return fmt.Errorf("pin %s: %w", p.ID, ErrNotResolved)
	case p.Mode.Input == p.Mode.Output:
		return fmt.Errorf("pin %s: %w", p.ID, schema.ErrModeConflict)
	case p.Number < 0 || p.Number >= p.Parent.PinCount:
		return fmt.Errorf("pin %s: number %d not in 0-%d: %w",
			p.ID, p.Number, p.Parent.PinCount-1, schema.ErrPinOutOfRange)
	}
	return nil
}

func call(target, method string, args ...Arg) Instruction {
	return Instruction{Op: OpCall, Var: target, Method: method, Args: args}
}

func modeFlags(m config.Mode) Arg {
	var flags []string
	if m.Input {
		flags = append(flags, FlagInput)
	}
	if m.Output {
		flags = append(flags, FlagOutput)
	}
	return FlagsArg(flags...)
}

// Emit builds the program for r with the PCA9575 part.
func Emit(r *config.Resolved) (*Program, error) {
	return NewEmitter(nil).Emit(r)
}
