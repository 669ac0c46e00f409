// Package dfg defines data structures for representing data flow over a
// block flow graph: variable references, def-use edges and liveness.
package dfg

// RefType represents the type of variable reference in data flow analysis.
type RefType string

const (
	RefTypeDefinition RefType = "definition" // Variable definition (assignment)
	RefTypeUse        RefType = "use"        // Variable use (read)
)

// VarRef represents a variable reference in the program.
type VarRef struct {
	Name    string  `json:"name" yaml:"name"`         // Variable name
	RefType RefType `json:"ref_type" yaml:"ref_type"` // Type of reference (definition, use)
	Inst    int     `json:"inst" yaml:"inst"`         // Instruction index
	Block   int     `json:"block" yaml:"block"`       // Enclosing block
}

// DataflowEdge connects a definition to a use it reaches.
type DataflowEdge struct {
	DefRef  VarRef `json:"def_ref" yaml:"def_ref"`   // Definition reference
	UseRef  VarRef `json:"use_ref" yaml:"use_ref"`   // Use reference
	VarName string `json:"var_name" yaml:"var_name"` // Name of the variable being tracked
}

// BlockLiveness holds the live variables at the entry and exit of a block.
type BlockLiveness struct {
	Block   int      `json:"block" yaml:"block"`
	LiveIn  []string `json:"live_in" yaml:"live_in"`
	LiveOut []string `json:"live_out" yaml:"live_out"`
}

// DFGInfo represents the complete data flow information of a program.
type DFGInfo struct {
	VarRefs       []VarRef            `json:"var_refs" yaml:"var_refs"`             // All variable references in order
	DataflowEdges []DataflowEdge      `json:"dataflow_edges" yaml:"dataflow_edges"` // Def-use edges
	Variables     map[string][]VarRef `json:"variables" yaml:"variables"`           // References grouped by name
	Liveness      []BlockLiveness     `json:"liveness" yaml:"liveness"`             // Per-block liveness
}
