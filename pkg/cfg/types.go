// Package cfg partitions an instruction program into basic blocks and
// defines the block-level control flow graph the SSA pipeline works on.
package cfg

import "github.com/lac-dcc/DCC888/pkg/ir"

// BlockType represents the type of a CFG block.
type BlockType string

const (
	BlockTypeEntry  BlockType = "entry"  // Block 0
	BlockTypeBranch BlockType = "branch" // Ends in a conditional branch
	BlockTypeExit   BlockType = "exit"   // No successors
	BlockTypePlain  BlockType = "plain"  // Falls through to the next block
)

// EdgeType represents the type of a CFG edge.
type EdgeType string

const (
	EdgeTypeUnconditional EdgeType = "unconditional" // Fall-through of a block without a branch
	EdgeTypeTrue          EdgeType = "true"          // Jump taken by a branch
	EdgeTypeFalse         EdgeType = "false"         // Fall-through of a branch
)

// BasicBlock is a maximal run of instructions with a single entry (the
// leader) and a single exit. Insts holds slots in Graph.Insts. A block
// ending in a branch has Succs = [fall-through, jump target].
type BasicBlock struct {
	Index int
	Insts []int
	Succs []int
	Preds []int
}

// Graph is the block flow graph of a program. Insts is the instruction
// arena: slots are stable for the graph's lifetime, and instructions added
// after partitioning (phi functions) are appended to it.
type Graph struct {
	Insts   []*ir.Instruction
	Blocks  []*BasicBlock
	Leaders []int
}

// CFGBlock is the exported view of a basic block.
type CFGBlock struct {
	ID           int       `json:"id" yaml:"id"`
	Type         BlockType `json:"type" yaml:"type"`
	Leader       int       `json:"leader" yaml:"leader"`
	Statements   []string  `json:"statements" yaml:"statements"`
	Successors   []int     `json:"successors" yaml:"successors"`
	Predecessors []int     `json:"predecessors" yaml:"predecessors"`
}

// CFGEdge represents a directed edge between two CFG blocks.
type CFGEdge struct {
	SourceID  int      `json:"source_id" yaml:"source_id"`
	TargetID  int      `json:"target_id" yaml:"target_id"`
	EdgeType  EdgeType `json:"edge_type" yaml:"edge_type"`
	Condition string   `json:"condition,omitempty" yaml:"condition,omitempty"`
}

// CFGInfo is the exported view of a whole graph.
type CFGInfo struct {
	Blocks               []CFGBlock `json:"blocks" yaml:"blocks"`
	Edges                []CFGEdge  `json:"edges" yaml:"edges"`
	EntryBlockID         int        `json:"entry_block_id" yaml:"entry_block_id"`
	ExitBlockIDs         []int      `json:"exit_block_ids" yaml:"exit_block_ids"`
	CyclomaticComplexity int        `json:"cyclomatic_complexity" yaml:"cyclomatic_complexity"`
}
