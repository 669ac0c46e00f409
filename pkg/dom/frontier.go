package dom

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/lac-dcc/DCC888/pkg/cfg"
)

// JEdge is a flow edge Foot->Head where Foot does not strictly dominate
// Head. Its head is a join node.
type JEdge struct {
	Foot int `json:"foot" yaml:"foot"`
	Head int `json:"head" yaml:"head"`
}

// Frontier holds the J-edges of a graph and the dominance frontier of
// every block.
type Frontier struct {
	// JIn lists, per head, the feet of its incoming J-edges.
	JIn [][]int
	// JOut lists, per foot, the heads of its outgoing J-edges.
	JOut [][]int
	// DF is the dominance frontier of each block.
	DF []mapset.Set[int]
}

// ComputeFrontier derives the J-edges of g and, from them, every block's
// dominance frontier: y is in DF(x) iff y heads a J-edge whose foot lies in
// the dominator subtree of x and level(y) <= level(x).
func ComputeFrontier(g *cfg.Graph, t *Tree) *Frontier {
	n := g.Len()
	f := &Frontier{
		JIn:  make([][]int, n),
		JOut: make([][]int, n),
		DF:   make([]mapset.Set[int], n),
	}

	for foot, block := range g.Blocks {
		for _, head := range distinct(block.Succs) {
			if !t.Nodes[head].Dominators.Contains(foot) {
				f.JIn[head] = append(f.JIn[head], foot)
				f.JOut[foot] = append(f.JOut[foot], head)
			}
		}
	}

	for b := range g.Blocks {
		df := mapset.NewThreadUnsafeSet[int]()
		level := t.Nodes[b].Level
		for _, node := range t.Subtree(b) {
			for _, target := range f.JOut[node] {
				if t.Nodes[target].Level <= level {
					df.Add(target)
				}
			}
		}
		f.DF[b] = df
	}

	return f
}

// JEdges returns every J-edge ordered by foot, then by edge order.
func (f *Frontier) JEdges() []JEdge {
	var edges []JEdge
	for foot, heads := range f.JOut {
		for _, head := range heads {
			edges = append(edges, JEdge{Foot: foot, Head: head})
		}
	}
	return edges
}

// JoinNodes returns, in ascending order, every block that belongs to the
// dominance frontier of some block.
func (f *Frontier) JoinNodes() []int {
	joins := mapset.NewThreadUnsafeSet[int]()
	for _, df := range f.DF {
		joins = joins.Union(df)
	}
	return sortedSet(joins)
}

// Iterated returns DF+(blocks): the closure of the frontier over blocks.
func (f *Frontier) Iterated(blocks []int) mapset.Set[int] {
	result := mapset.NewThreadUnsafeSet[int]()
	work := append([]int(nil), blocks...)
	for len(work) > 0 {
		b := work[len(work)-1]
		work = work[:len(work)-1]
		for _, y := range sortedSet(f.DF[b]) {
			if result.Add(y) {
				work = append(work, y)
			}
		}
	}
	return result
}
