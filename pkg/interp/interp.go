// Package interp executes programs, in plain or SSA form, over an
// environment of integer bindings.
package interp

import (
	"errors"
	"fmt"

	"github.com/containerd/errdefs"

	"github.com/lac-dcc/DCC888/pkg/ir"
)

// DefaultMaxSteps bounds a run when no explicit limit is given.
const DefaultMaxSteps = 1 << 20

// ErrStepLimit is returned when a run exceeds its step budget.
var ErrStepLimit = fmt.Errorf("step limit exceeded: %w", errdefs.ErrResourceExhausted)

// Trace records one executed instruction.
type Trace struct {
	Index int    `json:"index" yaml:"index"`
	Inst  string `json:"inst" yaml:"inst"`
	// Dst and Value are set for instructions that define a variable.
	Dst   string `json:"dst,omitempty" yaml:"dst,omitempty"`
	Value int64  `json:"value" yaml:"value"`
}

// Run executes prog starting at instruction 0 until control falls off the
// end. env is updated in place and returned. Comparisons produce 1 or 0 and
// a branch is taken when its condition is non-zero. A phi takes the value
// of whichever operand was bound most recently, which is the one defined
// on the path that reached it.
//
// maxSteps <= 0 selects DefaultMaxSteps.
func Run(prog *ir.Program, env *ir.Env, maxSteps int) (*ir.Env, error) {
	_, err := run(prog, env, maxSteps, nil)
	return env, err
}

// RunTrace is Run that also returns every executed instruction in order.
func RunTrace(prog *ir.Program, env *ir.Env, maxSteps int) ([]Trace, error) {
	var trace []Trace
	_, err := run(prog, env, maxSteps, func(t Trace) { trace = append(trace, t) })
	return trace, err
}

func run(prog *ir.Program, env *ir.Env, maxSteps int, observe func(Trace)) (int, error) {
	if prog == nil || prog.Len() == 0 {
		return 0, fmt.Errorf("%w: empty program", ir.ErrMalformedProgram)
	}
	if env == nil {
		return 0, errors.New("interp: nil environment")
	}
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}

	pc, steps := 0, 0
	for pc < prog.Len() {
		if steps == maxSteps {
			return steps, fmt.Errorf("%w: %d instructions executed, stopped at %d", ErrStepLimit, steps, pc)
		}
		steps++

		in := prog.Insts[pc]
		t := Trace{Index: pc, Inst: in.String()}
		next := pc + 1
		switch in.Kind {
		case ir.KindBinary:
			v, err := evalBinary(in, env)
			if err != nil {
				return steps, fmt.Errorf("instruction %d (%s): %w", pc, in, err)
			}
			env.Set(in.Dst, v)
			t.Dst, t.Value = in.Dst, v
		case ir.KindBranch:
			c, err := env.Get(in.Cond)
			if err != nil {
				return steps, fmt.Errorf("instruction %d (%s): %w", pc, in, err)
			}
			if c != 0 {
				next = in.Target
			}
			t.Value = c
		case ir.KindPhi:
			// With no operand bound the value is undefined along the path
			// taken, so dst stays unbound and only a later read fails.
			if v, ok := env.LookupFirst(in.Uses()); ok {
				env.Set(in.Dst, v)
				t.Dst, t.Value = in.Dst, v
			}
		default:
			return steps, fmt.Errorf("%w: instruction %d has unknown kind %v", ir.ErrInvariantViolation, pc, in.Kind)
		}
		if next < 0 || next > prog.Len() {
			return steps, fmt.Errorf("%w: instruction %d jumps to %d", ir.ErrMalformedProgram, pc, next)
		}
		if observe != nil {
			observe(t)
		}
		pc = next
	}
	return steps, nil
}

func evalBinary(in *ir.Instruction, env *ir.Env) (int64, error) {
	a, err := env.Get(in.Src0)
	if err != nil {
		return 0, err
	}
	b, err := env.Get(in.Src1)
	if err != nil {
		return 0, err
	}
	switch in.Op {
	case ir.OpAdd:
		return a + b, nil
	case ir.OpMul:
		return a * b, nil
	case ir.OpLth:
		return boolValue(a < b), nil
	case ir.OpGeq:
		return boolValue(a >= b), nil
	}
	return 0, fmt.Errorf("%w: unknown opcode %q", ir.ErrMalformedProgram, in.Op)
}

func boolValue(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// Final returns the last value bound to each name of env, in order of first
// binding.
func Final(env *ir.Env) map[string]int64 {
	out := make(map[string]int64, env.Len())
	for _, n := range env.Names() {
		v, _ := env.Lookup(n)
		out[n] = v
	}
	return out
}
