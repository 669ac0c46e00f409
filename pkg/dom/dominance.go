// Package dom computes the dominator tree of a block flow graph and derives
// dominance frontiers from its join edges (J-edges).
package dom

import (
	"fmt"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/lac-dcc/DCC888/pkg/cfg"
	"github.com/lac-dcc/DCC888/pkg/ir"
)

// Info is the dominance information of one block.
type Info struct {
	// IDom is the immediate dominator, -1 for the root.
	IDom int
	// Children are the blocks immediately dominated by this one.
	Children mapset.Set[int]
	// Dominators are the strict ancestors in the dominator tree.
	Dominators mapset.Set[int]
	// Level is the depth in the dominator tree; the root is at level 0.
	Level int
	// RootPath lists the blocks from the root down to this block, inclusive.
	RootPath []int
}

// Tree is the dominator tree of a graph, indexed by block.
type Tree struct {
	Nodes []*Info
}

// Analyze computes the dominator tree of g in a single forward sweep from
// block 0.
//
// Blocks are visited breadth-first, and a block is only visited once all of
// its predecessors have been, so its immediate dominator is final when it is
// computed: the sole predecessor, or the nearest common ancestor of all of
// them.
func Analyze(g *cfg.Graph) (*Tree, error) {
	n := g.Len()
	if n == 0 {
		return nil, fmt.Errorf("%w: graph has no blocks", ir.ErrMalformedProgram)
	}
	if unreachable := unreachableFrom(g, 0); len(unreachable) > 0 {
		return nil, fmt.Errorf("%w: blocks %v are unreachable from block 0", ir.ErrDisconnectedGraph, unreachable)
	}

	t := &Tree{Nodes: make([]*Info, n)}
	t.Nodes[0] = &Info{
		IDom:       -1,
		Children:   mapset.NewThreadUnsafeSet[int](),
		Dominators: mapset.NewThreadUnsafeSet[int](),
		RootPath:   []int{0},
	}

	preds := make([][]int, n)
	pending := make([]int, n)
	for b, block := range g.Blocks {
		preds[b] = distinct(block.Preds)
		pending[b] = len(preds[b])
	}

	queue := []int{0}
	for len(queue) > 0 {
		b := queue[0]
		queue = queue[1:]

		for _, s := range distinct(g.Blocks[b].Succs) {
			if s == 0 {
				continue
			}
			pending[s]--
			if pending[s] == 0 {
				t.attach(s, preds[s])
				queue = append(queue, s)
			}
		}
	}

	for b, info := range t.Nodes {
		if info == nil {
			return nil, fmt.Errorf("%w: block %d sits on a cycle; dominance is only computed for acyclic graphs", ir.ErrInvariantViolation, b)
		}
	}
	return t, nil
}

// attach places block b under the nearest common ancestor of its
// predecessors.
func (t *Tree) attach(b int, preds []int) {
	idom := preds[0]
	if len(preds) > 1 {
		paths := make([][]int, len(preds))
		for i, p := range preds {
			paths[i] = t.Nodes[p].RootPath
		}
		idom = nearestCommonAncestor(paths)
	}

	parent := t.Nodes[idom]
	parent.Children.Add(b)

	doms := parent.Dominators.Clone()
	doms.Add(idom)

	path := make([]int, len(parent.RootPath), len(parent.RootPath)+1)
	copy(path, parent.RootPath)
	t.Nodes[b] = &Info{
		IDom:       idom,
		Children:   mapset.NewThreadUnsafeSet[int](),
		Dominators: doms,
		Level:      parent.Level + 1,
		RootPath:   append(path, b),
	}
}

// nearestCommonAncestor compares root paths position by position, up to the
// shortest one, and returns the block at the deepest position where all of
// them agree. Every path starts at the root, so the root is the fallback.
// When every compared position agrees, one path is a prefix of the others
// and its last block is the answer, not the root.
func nearestCommonAncestor(paths [][]int) int {
	shortest := len(paths[0])
	for _, p := range paths[1:] {
		shortest = min(shortest, len(p))
	}

	deepest := 0
	for i := 0; i < shortest; i++ {
		for _, p := range paths[1:] {
			if p[i] != paths[0][i] {
				return paths[0][deepest]
			}
		}
		deepest = i
	}
	return paths[0][deepest]
}

// Dominates reports whether a dominates b (reflexively).
func (t *Tree) Dominates(a, b int) bool {
	return a == b || t.Nodes[b].Dominators.Contains(a)
}

// StrictlyDominates reports whether a dominates b and a != b.
func (t *Tree) StrictlyDominates(a, b int) bool {
	return a != b && t.Nodes[b].Dominators.Contains(a)
}

// Subtree returns b and every block it dominates, in preorder.
func (t *Tree) Subtree(b int) []int {
	var order []int
	stack := []int{b}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		order = append(order, n)

		children := sortedSet(t.Nodes[n].Children)
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	return order
}

func unreachableFrom(g *cfg.Graph, entry int) []int {
	seen := make([]bool, g.Len())
	seen[entry] = true
	queue := []int{entry}
	for len(queue) > 0 {
		b := queue[0]
		queue = queue[1:]
		for _, s := range g.Blocks[b].Succs {
			if !seen[s] {
				seen[s] = true
				queue = append(queue, s)
			}
		}
	}

	var unreachable []int
	for b, ok := range seen {
		if !ok {
			unreachable = append(unreachable, b)
		}
	}
	return unreachable
}

// distinct drops repeated blocks, keeping first occurrences in order. A
// branch whose target is the next instruction yields a duplicated edge.
func distinct(blocks []int) []int {
	out := make([]int, 0, len(blocks))
	for _, b := range blocks {
		if !slices.Contains(out, b) {
			out = append(out, b)
		}
	}
	return out
}

func sortedSet(s mapset.Set[int]) []int {
	out := s.ToSlice()
	slices.Sort(out)
	return out
}
