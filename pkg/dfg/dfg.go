package dfg

import "github.com/lac-dcc/DCC888/pkg/cfg"

// Extract computes the data flow information of g: every variable
// reference, the def-use edges from reaching definitions, and liveness.
func Extract(g *cfg.Graph) *DFGInfo {
	info := &DFGInfo{Variables: make(map[string][]VarRef)}

	for b := range g.Blocks {
		for _, inst := range g.Instructions(b) {
			for _, u := range inst.Uses() {
				info.VarRefs = append(info.VarRefs, VarRef{Name: u, RefType: RefTypeUse, Inst: inst.Index, Block: b})
			}
			if d := inst.Definition(); d != "" {
				info.VarRefs = append(info.VarRefs, VarRef{Name: d, RefType: RefTypeDefinition, Inst: inst.Index, Block: b})
			}
		}
	}
	for _, ref := range info.VarRefs {
		info.Variables[ref.Name] = append(info.Variables[ref.Name], ref)
	}

	info.DataflowEdges = NewReachingDefsAnalyzer().ComputeDefUseChains(g)
	info.Liveness = ComputeLiveness(g).Blocks()
	return info
}
