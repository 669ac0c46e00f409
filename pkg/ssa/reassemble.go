package ssa

import (
	"fmt"
	"slices"

	"github.com/lac-dcc/DCC888/pkg/cfg"
	"github.com/lac-dcc/DCC888/pkg/ir"
)

// Reassemble flattens the blocks of g, in block order, into a fresh program.
// Instructions are re-indexed, successor and predecessor slots are
// translated to the new indices, and every branch target is redirected to
// the current leader of the block it jumps to, which is a phi when phis
// were inserted there. blockOf maps each new index to its block.
//
// g is not modified.
func Reassemble(g *cfg.Graph) (prog *ir.Program, blockOf []int, err error) {
	index := make(map[int]int, g.NumInstructions())
	order := make([]int, 0, g.NumInstructions())
	for b, block := range g.Blocks {
		for _, slot := range block.Insts {
			index[slot] = len(order)
			order = append(order, slot)
			blockOf = append(blockOf, b)
		}
	}

	translate := func(slots []int) ([]int, error) {
		out := make([]int, len(slots))
		for i, s := range slots {
			n, ok := index[s]
			if !ok {
				return nil, fmt.Errorf("%w: edge to instruction slot %d outside every block", ir.ErrInvariantViolation, s)
			}
			out[i] = n
		}
		return out, nil
	}

	prog = &ir.Program{Insts: make([]*ir.Instruction, len(order))}
	for i, slot := range order {
		in := g.Insts[slot].Clone()
		in.Index = i
		if in.Succs, err = translate(in.Succs); err != nil {
			return nil, nil, err
		}
		if in.Preds, err = translate(in.Preds); err != nil {
			return nil, nil, err
		}
		prog.Insts[i] = in
	}

	for b, block := range g.Blocks {
		last := prog.Insts[index[block.Insts[len(block.Insts)-1]]]
		if last.Kind != ir.KindBranch {
			continue
		}
		if len(block.Succs) != 2 {
			return nil, nil, fmt.Errorf("%w: block %d ends in a branch but has %d successors", ir.ErrInvariantViolation, b, len(block.Succs))
		}
		jump := g.Blocks[block.Succs[1]]
		last.Target = index[jump.Insts[0]]
		want := []int{last.Index + 1, last.Target}
		if !slices.Equal(last.Succs, want) {
			return nil, nil, fmt.Errorf("%w: branch %d has successors %v, want %v", ir.ErrInvariantViolation, last.Index, last.Succs, want)
		}
	}

	return prog, blockOf, nil
}
