package dfg

import (
	"container/list"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/lac-dcc/DCC888/pkg/cfg"
)

// ReachingDefsAnalyzer performs reaching definitions analysis on a block
// flow graph. It uses a worklist-based algorithm to compute which
// definitions reach each block, then builds def-use chains from the result.
// Definitions are identified by their instruction slot.
type ReachingDefsAnalyzer struct {
	// blockGen maps block to the definitions it generates (the last one of
	// each variable)
	blockGen []mapset.Set[int]
	// blockKill maps block to the definitions it kills: every definition,
	// in any block, of a variable the block redefines
	blockKill []mapset.Set[int]
	// defVar maps definition slot to the variable name
	defVar map[int]string
}

// NewReachingDefsAnalyzer creates a new ReachingDefsAnalyzer.
func NewReachingDefsAnalyzer() *ReachingDefsAnalyzer {
	return &ReachingDefsAnalyzer{defVar: make(map[int]string)}
}

// Solve computes the definitions reaching the entry (in) and exit (out) of
// every block.
func (r *ReachingDefsAnalyzer) Solve(g *cfg.Graph) (in, out []mapset.Set[int]) {
	r.initialize(g)

	n := g.Len()
	in = make([]mapset.Set[int], n)
	out = make([]mapset.Set[int], n)
	for b := 0; b < n; b++ {
		in[b] = mapset.NewThreadUnsafeSet[int]()
		out[b] = mapset.NewThreadUnsafeSet[int]()
	}

	worklist := list.New()
	for b := 0; b < n; b++ {
		worklist.PushBack(b)
	}

	for worklist.Len() > 0 {
		b := worklist.Remove(worklist.Front()).(int)

		// in[b] = union of out[p] for all predecessors
		inB := mapset.NewThreadUnsafeSet[int]()
		for _, p := range g.Blocks[b].Preds {
			inB = inB.Union(out[p])
		}
		in[b] = inB

		// out[b] = gen[b] U (in[b] - kill[b])
		outB := r.blockGen[b].Union(inB.Difference(r.blockKill[b]))

		if !outB.Equal(out[b]) {
			out[b] = outB
			for _, s := range g.Blocks[b].Succs {
				worklist.PushBack(s)
			}
		}
	}

	return in, out
}

// ComputeDefUseChains connects every use in g to the definitions that reach
// it.
func (r *ReachingDefsAnalyzer) ComputeDefUseChains(g *cfg.Graph) []DataflowEdge {
	in, _ := r.Solve(g)

	var edges []DataflowEdge
	for b, block := range g.Blocks {
		// last definition of each variable seen so far in this block
		local := make(map[string]int)
		for _, slot := range block.Insts {
			inst := g.Insts[slot]
			for _, use := range distinctNames(inst.Uses()) {
				useRef := VarRef{Name: use, RefType: RefTypeUse, Inst: inst.Index, Block: b}
				if d, ok := local[use]; ok {
					edges = append(edges, r.edge(g, d, b, useRef))
					continue
				}
				for _, d := range sortedDefs(in[b]) {
					if r.defVar[d] == use {
						edges = append(edges, r.edge(g, d, r.blockOf(g, d), useRef))
					}
				}
			}
			if d := inst.Definition(); d != "" {
				local[d] = slot
			}
		}
	}
	return edges
}

func (r *ReachingDefsAnalyzer) edge(g *cfg.Graph, def, defBlock int, use VarRef) DataflowEdge {
	return DataflowEdge{
		DefRef:  VarRef{Name: r.defVar[def], RefType: RefTypeDefinition, Inst: g.Insts[def].Index, Block: defBlock},
		UseRef:  use,
		VarName: use.Name,
	}
}

// initialize builds gen/kill sets and tracks definition variables.
func (r *ReachingDefsAnalyzer) initialize(g *cfg.Graph) {
	r.blockGen = make([]mapset.Set[int], g.Len())
	r.blockKill = make([]mapset.Set[int], g.Len())
	r.defVar = make(map[int]string)

	defsOf := make(map[string][]int)
	redefines := make([][]string, g.Len())
	for b, block := range g.Blocks {
		last := make(map[string]int)
		for _, slot := range block.Insts {
			if d := g.Insts[slot].Definition(); d != "" {
				r.defVar[slot] = d
				defsOf[d] = append(defsOf[d], slot)
				if _, seen := last[d]; !seen {
					redefines[b] = append(redefines[b], d)
				}
				last[d] = slot
			}
		}

		gen := mapset.NewThreadUnsafeSet[int]()
		for _, slot := range last {
			gen.Add(slot)
		}
		r.blockGen[b] = gen
	}

	for b := range g.Blocks {
		kill := mapset.NewThreadUnsafeSet[int]()
		for _, v := range redefines[b] {
			kill.Append(defsOf[v]...)
		}
		r.blockKill[b] = kill.Difference(r.blockGen[b])
	}
}

func (r *ReachingDefsAnalyzer) blockOf(g *cfg.Graph, slot int) int {
	for b, block := range g.Blocks {
		for _, s := range block.Insts {
			if s == slot {
				return b
			}
		}
	}
	return -1
}

func sortedDefs(s mapset.Set[int]) []int {
	out := s.ToSlice()
	slices.Sort(out)
	return out
}

func distinctNames(names []string) []string {
	var out []string
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}
