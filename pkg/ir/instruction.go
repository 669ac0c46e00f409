// Package ir defines the instruction graph shared by every stage of the SSA
// pipeline: instructions, programs and the binding environment.
package ir

import (
	"fmt"
	"strings"
)

// Kind discriminates the instruction variants.
type Kind uint8

const (
	KindBinary Kind = iota // dst = op src0 src1
	KindBranch             // bt cond target
	KindPhi                // dst = phi(operands...)
)

func (k Kind) String() string {
	switch k {
	case KindBinary:
		return "binary"
	case KindBranch:
		return "branch"
	case KindPhi:
		return "phi"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Opcode is the operator of a binary instruction.
type Opcode string

const (
	OpAdd Opcode = "add"
	OpMul Opcode = "mul"
	OpLth Opcode = "lth"
	OpGeq Opcode = "geq"
)

// Valid reports whether op is one of the known opcodes.
func (op Opcode) Valid() bool {
	switch op {
	case OpAdd, OpMul, OpLth, OpGeq:
		return true
	}
	return false
}

// PhiOperand is one incoming value of a phi function: the name read along
// the edge coming from predecessor block Block. An empty Name marks a value
// that is undefined along that edge.
type PhiOperand struct {
	Name  string `json:"name" yaml:"name" msgpack:"name"`
	Block int    `json:"block" yaml:"block" msgpack:"block"`
}

// Instruction is a node of the instruction graph. Only the fields relevant
// to Kind are meaningful:
//
//	KindBinary: Dst, Op, Src0, Src1
//	KindBranch: Cond, Target
//	KindPhi:    Dst, Operands
//
// Succs and Preds hold instruction slots, never pointers. For a branch,
// Succs is [fall-through, target].
type Instruction struct {
	Kind     Kind
	Index    int
	Dst      string
	Op       Opcode
	Src0     string
	Src1     string
	Cond     string
	Target   int
	Operands []PhiOperand

	Succs []int
	Preds []int
}

// NewBinary creates a binary instruction.
func NewBinary(dst string, op Opcode, src0, src1 string) *Instruction {
	return &Instruction{Kind: KindBinary, Dst: dst, Op: op, Src0: src0, Src1: src1}
}

// NewBranch creates a branch that jumps to target when cond holds.
func NewBranch(cond string, target int) *Instruction {
	return &Instruction{Kind: KindBranch, Cond: cond, Target: target}
}

// NewPhi creates a phi function for dst.
func NewPhi(dst string, operands []PhiOperand) *Instruction {
	return &Instruction{Kind: KindPhi, Dst: dst, Operands: operands}
}

// Definition returns the variable defined by the instruction, or "" when it
// defines nothing.
func (in *Instruction) Definition() string {
	switch in.Kind {
	case KindBinary, KindPhi:
		return in.Dst
	case KindBranch:
		return ""
	}
	panic(fmt.Sprintf("ir: unknown instruction kind %v", in.Kind))
}

// Uses returns the variables read by the instruction. Phi uses are the
// defined operand names in operand order.
func (in *Instruction) Uses() []string {
	switch in.Kind {
	case KindBinary:
		return []string{in.Src0, in.Src1}
	case KindBranch:
		return []string{in.Cond}
	case KindPhi:
		uses := make([]string, 0, len(in.Operands))
		for _, op := range in.Operands {
			if op.Name != "" {
				uses = append(uses, op.Name)
			}
		}
		return uses
	}
	panic(fmt.Sprintf("ir: unknown instruction kind %v", in.Kind))
}

// MaxSuccs returns the number of successors the instruction may have.
func (in *Instruction) MaxSuccs() int {
	switch in.Kind {
	case KindBranch:
		return 2
	case KindBinary, KindPhi:
		return 1
	}
	panic(fmt.Sprintf("ir: unknown instruction kind %v", in.Kind))
}

// Clone returns a deep copy of the instruction.
func (in *Instruction) Clone() *Instruction {
	c := *in
	c.Operands = append([]PhiOperand(nil), in.Operands...)
	c.Succs = append([]int(nil), in.Succs...)
	c.Preds = append([]int(nil), in.Preds...)
	return &c
}

// ReplaceSucc redirects every successor slot pointing at from to to.
func (in *Instruction) ReplaceSucc(from, to int) {
	for i, s := range in.Succs {
		if s == from {
			in.Succs[i] = to
		}
	}
}

func (in *Instruction) String() string {
	switch in.Kind {
	case KindBinary:
		return fmt.Sprintf("%s = %s %s %s", in.Dst, in.Op, in.Src0, in.Src1)
	case KindBranch:
		return fmt.Sprintf("bt %s %d", in.Cond, in.Target)
	case KindPhi:
		parts := make([]string, len(in.Operands))
		for i, op := range in.Operands {
			name := op.Name
			if name == "" {
				name = "undef"
			}
			parts[i] = fmt.Sprintf("%s:%d", name, op.Block)
		}
		return fmt.Sprintf("%s = phi(%s)", in.Dst, strings.Join(parts, ", "))
	}
	return fmt.Sprintf("<%v>", in.Kind)
}
