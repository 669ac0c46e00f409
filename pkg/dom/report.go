package dom

// BlockReport is the exported, order-stable view of one block's dominance
// information and frontier.
type BlockReport struct {
	Block      int   `json:"block" yaml:"block"`
	IDom       int   `json:"idom" yaml:"idom"`
	Level      int   `json:"level" yaml:"level"`
	Children   []int `json:"children" yaml:"children"`
	Dominators []int `json:"dominators" yaml:"dominators"`
	RootPath   []int `json:"root_path" yaml:"root_path"`
	Frontier   []int `json:"frontier" yaml:"frontier"`
}

// Report is the exported view of a dominator tree and its frontiers.
type Report struct {
	Blocks []BlockReport `json:"blocks" yaml:"blocks"`
	JEdges []JEdge       `json:"j_edges" yaml:"j_edges"`
}

// NewReport flattens t and f into sorted slices. f may be nil.
func NewReport(t *Tree, f *Frontier) *Report {
	r := &Report{Blocks: make([]BlockReport, len(t.Nodes))}
	for b, info := range t.Nodes {
		br := BlockReport{
			Block:      b,
			IDom:       info.IDom,
			Level:      info.Level,
			Children:   sortedSet(info.Children),
			Dominators: sortedSet(info.Dominators),
			RootPath:   append([]int{}, info.RootPath...),
			Frontier:   []int{},
		}
		if f != nil {
			br.Frontier = sortedSet(f.DF[b])
		}
		r.Blocks[b] = br
	}
	if f != nil {
		r.JEdges = f.JEdges()
	}
	return r
}
