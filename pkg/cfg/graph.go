package cfg

import "github.com/lac-dcc/DCC888/pkg/ir"

// Len returns the number of blocks.
func (g *Graph) Len() int { return len(g.Blocks) }

// Leader returns the first instruction of block b.
func (g *Graph) Leader(b int) *ir.Instruction {
	return g.Insts[g.Blocks[b].Insts[0]]
}

// Last returns the last instruction of block b.
func (g *Graph) Last(b int) *ir.Instruction {
	insts := g.Blocks[b].Insts
	return g.Insts[insts[len(insts)-1]]
}

// Instructions returns the instructions of block b in order.
func (g *Graph) Instructions(b int) []*ir.Instruction {
	insts := make([]*ir.Instruction, len(g.Blocks[b].Insts))
	for i, slot := range g.Blocks[b].Insts {
		insts[i] = g.Insts[slot]
	}
	return insts
}

// AddInstruction appends in to the arena and returns its slot.
func (g *Graph) AddInstruction(in *ir.Instruction) int {
	g.Insts = append(g.Insts, in)
	return len(g.Insts) - 1
}

// NumInstructions counts the instructions reachable through the blocks.
func (g *Graph) NumInstructions() int {
	n := 0
	for _, b := range g.Blocks {
		n += len(b.Insts)
	}
	return n
}

// Uses returns the variables read by block b, each once, in first-use order.
func (g *Graph) Uses(b int) []string {
	seen := make(map[string]bool)
	var uses []string
	for _, in := range g.Instructions(b) {
		for _, u := range in.Uses() {
			if !seen[u] {
				seen[u] = true
				uses = append(uses, u)
			}
		}
	}
	return uses
}

// UpwardExposed returns the variables block b reads before defining them,
// each once, in first-use order.
func (g *Graph) UpwardExposed(b int) []string {
	seen := make(map[string]bool)
	defined := make(map[string]bool)
	var uses []string
	for _, in := range g.Instructions(b) {
		for _, u := range in.Uses() {
			if !seen[u] && !defined[u] {
				seen[u] = true
				uses = append(uses, u)
			}
		}
		if d := in.Definition(); d != "" {
			defined[d] = true
		}
	}
	return uses
}

// Definitions returns the variables defined in block b, each once, in
// definition order.
func (g *Graph) Definitions(b int) []string {
	seen := make(map[string]bool)
	var defs []string
	for _, in := range g.Instructions(b) {
		if d := in.Definition(); d != "" && !seen[d] {
			seen[d] = true
			defs = append(defs, d)
		}
	}
	return defs
}

// Edges returns every block edge with its type. Edges leaving a branch
// block are labelled false (fall-through) and true (jump).
func (g *Graph) Edges() []CFGEdge {
	var edges []CFGEdge
	for b, block := range g.Blocks {
		last := g.Last(b)
		for i, s := range block.Succs {
			edge := CFGEdge{SourceID: b, TargetID: s, EdgeType: EdgeTypeUnconditional}
			if last.Kind == ir.KindBranch {
				edge.Condition = last.Cond
				edge.EdgeType = EdgeTypeFalse
				if i == 1 {
					edge.EdgeType = EdgeTypeTrue
				}
			}
			edges = append(edges, edge)
		}
	}
	return edges
}

// Info builds the exported view of the graph.
func (g *Graph) Info() *CFGInfo {
	info := &CFGInfo{
		Blocks:       make([]CFGBlock, len(g.Blocks)),
		Edges:        g.Edges(),
		EntryBlockID: 0,
	}
	for b, block := range g.Blocks {
		cb := CFGBlock{
			ID:           b,
			Type:         g.blockType(b),
			Leader:       g.Leader(b).Index,
			Statements:   make([]string, 0, len(block.Insts)),
			Successors:   append([]int{}, block.Succs...),
			Predecessors: append([]int{}, block.Preds...),
		}
		for _, in := range g.Instructions(b) {
			cb.Statements = append(cb.Statements, in.String())
		}
		if len(block.Succs) == 0 {
			info.ExitBlockIDs = append(info.ExitBlockIDs, b)
		}
		info.Blocks[b] = cb
	}
	// Formula: edges - nodes + 2
	info.CyclomaticComplexity = len(info.Edges) - len(info.Blocks) + 2
	return info
}

func (g *Graph) blockType(b int) BlockType {
	switch {
	case b == 0:
		return BlockTypeEntry
	case len(g.Blocks[b].Succs) == 0:
		return BlockTypeExit
	case g.Last(b).Kind == ir.KindBranch:
		return BlockTypeBranch
	default:
		return BlockTypePlain
	}
}
