// Package loader reads and writes program documents: an initial
// environment plus an instruction list, as YAML, JSON or msgpack.
//
// A YAML or JSON document looks like
//
//	env:
//	  zero: 0
//	  one: 1
//	  cond: true
//	program:
//	  - {op: bt, cond: cond, target: 2}
//	  - {op: add, dst: a, src0: zero, src1: one}
//	  - {op: add, dst: x, src0: a, src1: one}
//
// The environment may also be a list of {name, value} pairs. Either way
// the binding order is kept and a repeated name shadows the earlier one.
package loader

import (
	"fmt"

	"github.com/lac-dcc/DCC888/pkg/ir"
)

// OpBranch and OpPhi name the non-binary instructions in documents.
const (
	OpBranch = "bt"
	OpPhi    = "phi"
)

// Instruction is the document form of one instruction.
type Instruction struct {
	Op       string          `json:"op" yaml:"op" msgpack:"op"`
	Dst      string          `json:"dst,omitempty" yaml:"dst,omitempty" msgpack:"dst,omitempty"`
	Src0     string          `json:"src0,omitempty" yaml:"src0,omitempty" msgpack:"src0,omitempty"`
	Src1     string          `json:"src1,omitempty" yaml:"src1,omitempty" msgpack:"src1,omitempty"`
	Cond     string          `json:"cond,omitempty" yaml:"cond,omitempty" msgpack:"cond,omitempty"`
	Target   *int            `json:"target,omitempty" yaml:"target,omitempty" msgpack:"target,omitempty"`
	Operands []ir.PhiOperand `json:"operands,omitempty" yaml:"operands,omitempty" msgpack:"operands,omitempty"`
}

// Document is a program with its initial environment.
type Document struct {
	Env     Env           `json:"env" yaml:"env" msgpack:"env"`
	Program []Instruction `json:"program" yaml:"program" msgpack:"program"`
}

// Build converts the document into a linked, validated program.
func (d *Document) Build() (*ir.Program, error) {
	if len(d.Program) == 0 {
		return nil, fmt.Errorf("%w: document has no instructions", ir.ErrMalformedProgram)
	}
	insts := make([]*ir.Instruction, len(d.Program))
	for i, doc := range d.Program {
		in, err := doc.build()
		if err != nil {
			return nil, fmt.Errorf("instruction %d: %w", i, err)
		}
		insts[i] = in
	}
	prog, err := ir.NewProgram(insts...)
	if err != nil {
		return nil, err
	}
	if err := prog.Validate(); err != nil {
		return nil, err
	}
	return prog, nil
}

// Environment returns the document's initial environment.
func (d *Document) Environment() *ir.Env {
	return ir.NewEnv(d.Env...)
}

func (doc Instruction) build() (*ir.Instruction, error) {
	switch doc.Op {
	case OpBranch:
		if doc.Cond == "" {
			return nil, fmt.Errorf("%w: bt needs a cond", ir.ErrMalformedProgram)
		}
		if doc.Target == nil {
			return nil, fmt.Errorf("%w: bt needs a target", ir.ErrMalformedProgram)
		}
		return ir.NewBranch(doc.Cond, *doc.Target), nil
	case OpPhi:
		if doc.Dst == "" || len(doc.Operands) == 0 {
			return nil, fmt.Errorf("%w: phi needs a dst and operands", ir.ErrMalformedProgram)
		}
		return ir.NewPhi(doc.Dst, append([]ir.PhiOperand(nil), doc.Operands...)), nil
	}

	op := ir.Opcode(doc.Op)
	if !op.Valid() {
		return nil, fmt.Errorf("%w: unknown op %q", ir.ErrMalformedProgram, doc.Op)
	}
	if doc.Dst == "" || doc.Src0 == "" || doc.Src1 == "" {
		return nil, fmt.Errorf("%w: %s needs dst, src0 and src1", ir.ErrMalformedProgram, doc.Op)
	}
	return ir.NewBinary(doc.Dst, op, doc.Src0, doc.Src1), nil
}

// FromProgram is the inverse of Build.
func FromProgram(p *ir.Program, env *ir.Env) *Document {
	d := &Document{Program: make([]Instruction, p.Len())}
	if env != nil {
		d.Env = env.Bindings()
	}
	for i, in := range p.Insts {
		switch in.Kind {
		case ir.KindBinary:
			d.Program[i] = Instruction{Op: string(in.Op), Dst: in.Dst, Src0: in.Src0, Src1: in.Src1}
		case ir.KindBranch:
			target := in.Target
			d.Program[i] = Instruction{Op: OpBranch, Cond: in.Cond, Target: &target}
		case ir.KindPhi:
			d.Program[i] = Instruction{Op: OpPhi, Dst: in.Dst, Operands: append([]ir.PhiOperand(nil), in.Operands...)}
		}
	}
	return d
}
