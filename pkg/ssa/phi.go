package ssa

import (
	"fmt"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/lac-dcc/DCC888/pkg/cfg"
	"github.com/lac-dcc/DCC888/pkg/dfg"
	"github.com/lac-dcc/DCC888/pkg/dom"
	"github.com/lac-dcc/DCC888/pkg/ir"
)

// Placement maps a join block to the variables that get a phi there.
type Placement map[int]mapset.Set[string]

func (p Placement) add(b int, v string) bool {
	if p[b] == nil {
		p[b] = mapset.NewThreadUnsafeSet[string]()
	}
	return p[b].Add(v)
}

func (p Placement) has(b int, v string) bool {
	return p[b] != nil && p[b].Contains(v)
}

// Count returns the number of phi functions in the placement.
func (p Placement) Count() int {
	n := 0
	for _, vars := range p {
		n += vars.Cardinality()
	}
	return n
}

// Vars returns the variables placed at block b, sorted.
func (p Placement) Vars(b int) []string {
	if p[b] == nil {
		return nil
	}
	vars := p[b].ToSlice()
	slices.Sort(vars)
	return vars
}

// PlacePhis decides where phi functions go. Every placement is closed under
// the iterated dominance frontier: a phi is itself a definition, so its own
// frontier needs phis for the same variable. The graph must not have been
// modified since f was computed.
func PlacePhis(g *cfg.Graph, f *dom.Frontier, policy Policy) Placement {
	place := make(Placement)

	defsites := make(map[string][]int)
	for b := range g.Blocks {
		for _, v := range g.Definitions(b) {
			defsites[v] = append(defsites[v], b)
		}
	}

	var live *dfg.Liveness
	switch policy {
	case PolicyPruned:
		live = dfg.ComputeLiveness(g)
	case PolicyMaximal:
		for _, y := range f.JoinNodes() {
			for _, v := range g.UpwardExposed(y) {
				place.add(y, v)
				if !slices.Contains(defsites[v], y) {
					defsites[v] = append(defsites[v], y)
				}
			}
		}
	}

	vars := make([]string, 0, len(defsites))
	for v := range defsites {
		vars = append(vars, v)
	}
	slices.Sort(vars)

	for _, v := range vars {
		work := append([]int(nil), defsites[v]...)
		for len(work) > 0 {
			n := work[len(work)-1]
			work = work[:len(work)-1]
			for _, y := range f.DF[n].ToSlice() {
				if place.has(y, v) {
					continue
				}
				if live != nil && !live.LiveIn(y, v) {
					continue
				}
				place.add(y, v)
				work = append(work, y)
			}
		}
	}

	return place
}

// InsertPhis inserts the phi functions of place into g. At each block the
// phis become the new leaders, in ascending variable order, each with one
// operand (v, p) per distinct block predecessor p. It returns the number of phis
// inserted. Dominance information and frontiers computed before the call
// are stale for instruction-level questions afterwards, but block indices
// and block edges are unchanged.
func InsertPhis(g *cfg.Graph, place Placement) (int, error) {
	blocks := make([]int, 0, len(place))
	for b := range place {
		blocks = append(blocks, b)
	}
	slices.Sort(blocks)

	count := 0
	for _, b := range blocks {
		vars := place.Vars(b)
		for i := len(vars) - 1; i >= 0; i-- {
			if err := insertPhi(g, vars[i], b); err != nil {
				return count, err
			}
			count++
		}
	}
	return count, nil
}

// insertPhi makes a phi for v the new leader of block b. The phi takes over
// the predecessor edges of the former leader, and the former leader's only
// predecessor becomes the phi.
func insertPhi(g *cfg.Graph, v string, b int) error {
	block := g.Blocks[b]
	if len(block.Preds) == 0 {
		return fmt.Errorf("%w: phi for %q in block %d would have no operands", ir.ErrInvariantViolation, v, b)
	}

	// A block reached from both edges of a branch lists that predecessor
	// twice but gets one operand for it.
	var operands []ir.PhiOperand
	var seen []int
	for _, p := range block.Preds {
		if slices.Contains(seen, p) {
			continue
		}
		seen = append(seen, p)
		operands = append(operands, ir.PhiOperand{Name: v, Block: p})
	}
	phi := ir.NewPhi(v, operands)
	phi.Index = -1
	slot := g.AddInstruction(phi)

	leaderSlot := block.Insts[0]
	leader := g.Insts[leaderSlot]
	phi.Preds = append([]int(nil), leader.Preds...)
	for _, p := range phi.Preds {
		g.Insts[p].ReplaceSucc(leaderSlot, slot)
	}
	leader.Preds = []int{slot}
	phi.Succs = []int{leaderSlot}

	block.Insts = append([]int{slot}, block.Insts...)
	return nil
}
