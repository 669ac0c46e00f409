package ir

import "fmt"

// Program is an ordered instruction list. After Link, Insts[i].Index == i
// and Succs/Preds refer to positions in Insts.
type Program struct {
	Insts []*Instruction
}

// NewProgram links insts into a program.
func NewProgram(insts ...*Instruction) (*Program, error) {
	p := &Program{Insts: insts}
	if err := p.Link(); err != nil {
		return nil, err
	}
	return p, nil
}

// Len returns the number of instructions.
func (p *Program) Len() int { return len(p.Insts) }

// Link assigns indices and rebuilds successor and predecessor lists from the
// instruction order and the branch targets. Every instruction falls through
// to the next one; a branch also jumps to its target.
func (p *Program) Link() error {
	n := len(p.Insts)
	for i, in := range p.Insts {
		in.Index = i
		in.Succs = nil
		in.Preds = nil
	}
	for i, in := range p.Insts {
		if i+1 < n {
			p.addEdge(i, i+1)
		}
		if in.Kind != KindBranch {
			continue
		}
		if in.Target < 0 || in.Target >= n {
			return fmt.Errorf("%w: branch %d targets %d, outside [0,%d)", ErrMalformedProgram, i, in.Target, n)
		}
		if i+1 >= n {
			return fmt.Errorf("%w: branch %d is the last instruction and has no fall-through", ErrMalformedProgram, i)
		}
		p.addEdge(i, in.Target)
	}
	return nil
}

func (p *Program) addEdge(from, to int) {
	p.Insts[from].Succs = append(p.Insts[from].Succs, to)
	p.Insts[to].Preds = append(p.Insts[to].Preds, from)
}

// Validate checks the structural invariants of a linked program.
func (p *Program) Validate() error {
	n := len(p.Insts)
	if n == 0 {
		return fmt.Errorf("%w: empty program", ErrMalformedProgram)
	}
	for i, in := range p.Insts {
		if in.Index != i {
			return fmt.Errorf("%w: instruction at %d carries index %d", ErrInvariantViolation, i, in.Index)
		}
		switch in.Kind {
		case KindBinary:
			if !in.Op.Valid() {
				return fmt.Errorf("%w: instruction %d has unknown opcode %q", ErrMalformedProgram, i, in.Op)
			}
		case KindBranch:
			if len(in.Succs) != 2 {
				return fmt.Errorf("%w: branch %d has %d successors", ErrInvariantViolation, i, len(in.Succs))
			}
		case KindPhi:
			if len(in.Operands) == 0 {
				return fmt.Errorf("%w: phi %d has no operands", ErrInvariantViolation, i)
			}
		default:
			return fmt.Errorf("%w: instruction %d has unknown kind %v", ErrInvariantViolation, i, in.Kind)
		}
		if len(in.Succs) > in.MaxSuccs() {
			return fmt.Errorf("%w: instruction %d has %d successors", ErrInvariantViolation, i, len(in.Succs))
		}
		if len(in.Succs) == 0 && i != n-1 {
			return fmt.Errorf("%w: instruction %d has no successor", ErrInvariantViolation, i)
		}
	}
	if len(p.Insts[0].Preds) != 0 {
		return fmt.Errorf("%w: entry instruction has predecessors", ErrInvariantViolation)
	}
	return nil
}

// Clone returns a deep copy of the program.
func (p *Program) Clone() *Program {
	c := &Program{Insts: make([]*Instruction, len(p.Insts))}
	for i, in := range p.Insts {
		c.Insts[i] = in.Clone()
	}
	return c
}

// Definitions returns how many instructions define each variable.
func (p *Program) Definitions() map[string]int {
	defs := make(map[string]int)
	for _, in := range p.Insts {
		if d := in.Definition(); d != "" {
			defs[d]++
		}
	}
	return defs
}
