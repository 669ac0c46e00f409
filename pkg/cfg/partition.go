package cfg

import (
	"fmt"
	"slices"

	"github.com/lac-dcc/DCC888/pkg/ir"
)

// Partition groups the instructions of p into maximal basic blocks and
// builds the block-level edges. The program is copied into the graph's
// arena; p itself is left untouched.
//
// Block boundaries are exactly: index 0, one past every branch, and every
// branch target. Each block but the last falls through to the next one;
// a block ending in a branch also jumps to the block led by its target.
func Partition(p *ir.Program) (*Graph, error) {
	if p == nil || p.Len() == 0 {
		return nil, fmt.Errorf("%w: empty program", ir.ErrMalformedProgram)
	}

	prog := p.Clone()
	if err := prog.Link(); err != nil {
		return nil, err
	}

	n := prog.Len()
	leaders := []int{0}
	for i, in := range prog.Insts {
		switch in.Kind {
		case ir.KindPhi:
			return nil, fmt.Errorf("%w: instruction %d is a phi function; input must not be in SSA form", ir.ErrMalformedProgram, i)
		case ir.KindBranch:
			if in.Target <= i {
				return nil, fmt.Errorf("%w: branch %d jumps backward to %d; loops are not supported", ir.ErrMalformedProgram, i, in.Target)
			}
			leaders = append(leaders, i+1, in.Target)
		}
	}
	slices.Sort(leaders)
	leaders = slices.Compact(leaders)
	if leaders[len(leaders)-1] >= n {
		return nil, fmt.Errorf("%w: leader %d beyond the last instruction %d", ir.ErrMalformedProgram, leaders[len(leaders)-1], n-1)
	}

	g := &Graph{
		Insts:   prog.Insts,
		Blocks:  make([]*BasicBlock, len(leaders)),
		Leaders: leaders,
	}

	blockOf := make(map[int]int, len(leaders))
	for b, start := range leaders {
		end := n
		if b+1 < len(leaders) {
			end = leaders[b+1]
		}
		block := &BasicBlock{Index: b}
		for i := start; i < end; i++ {
			block.Insts = append(block.Insts, i)
		}
		g.Blocks[b] = block
		blockOf[start] = b
	}

	for b, block := range g.Blocks {
		if b+1 < len(g.Blocks) {
			g.addEdge(b, b+1)
		}
		last := g.Last(b)
		if last.Kind != ir.KindBranch {
			continue
		}
		target, ok := blockOf[last.Target]
		if !ok {
			return nil, fmt.Errorf("%w: branch %d targets %d, which does not lead a block", ir.ErrMalformedProgram, last.Index, last.Target)
		}
		g.addEdge(b, target)
		if len(block.Succs) > 2 {
			return nil, fmt.Errorf("%w: block %d has %d successors", ir.ErrInvariantViolation, b, len(block.Succs))
		}
	}

	return g, nil
}

func (g *Graph) addEdge(from, to int) {
	g.Blocks[from].Succs = append(g.Blocks[from].Succs, to)
	g.Blocks[to].Preds = append(g.Blocks[to].Preds, from)
}
