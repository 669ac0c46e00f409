package dfg

import (
	"container/list"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/lac-dcc/DCC888/pkg/cfg"
)

// Liveness holds the variables live at the entry and exit of every block.
type Liveness struct {
	In  []mapset.Set[string]
	Out []mapset.Set[string]
}

// LiveIn reports whether v is live at the entry of block b.
func (l *Liveness) LiveIn(b int, v string) bool {
	return l.In[b].Contains(v)
}

// ComputeLiveness solves the backward liveness equations
//
//	OUT[b] = U IN[s] for every successor s
//	IN[b]  = USE[b] U (OUT[b] - DEF[b])
//
// with a worklist seeded with every block, last block first.
func ComputeLiveness(g *cfg.Graph) *Liveness {
	n := g.Len()
	use := make([]mapset.Set[string], n)
	def := make([]mapset.Set[string], n)
	l := &Liveness{
		In:  make([]mapset.Set[string], n),
		Out: make([]mapset.Set[string], n),
	}

	for b := range g.Blocks {
		use[b] = mapset.NewThreadUnsafeSet[string]()
		def[b] = mapset.NewThreadUnsafeSet[string]()
		for _, inst := range g.Instructions(b) {
			for _, u := range inst.Uses() {
				// upward-exposed uses only
				if !def[b].Contains(u) {
					use[b].Add(u)
				}
			}
			if d := inst.Definition(); d != "" {
				def[b].Add(d)
			}
		}
		l.In[b] = mapset.NewThreadUnsafeSet[string]()
		l.Out[b] = mapset.NewThreadUnsafeSet[string]()
	}

	worklist := list.New()
	for b := n - 1; b >= 0; b-- {
		worklist.PushBack(b)
	}

	for worklist.Len() > 0 {
		b := worklist.Remove(worklist.Front()).(int)

		out := mapset.NewThreadUnsafeSet[string]()
		for _, s := range g.Blocks[b].Succs {
			out = out.Union(l.In[s])
		}
		in := use[b].Union(out.Difference(def[b]))

		l.Out[b] = out
		if !in.Equal(l.In[b]) {
			l.In[b] = in
			for _, p := range g.Blocks[b].Preds {
				worklist.PushBack(p)
			}
		}
	}

	return l
}

// Blocks returns the exported, sorted view of the liveness sets.
func (l *Liveness) Blocks() []BlockLiveness {
	out := make([]BlockLiveness, len(l.In))
	for b := range l.In {
		out[b] = BlockLiveness{
			Block:   b,
			LiveIn:  sorted(l.In[b]),
			LiveOut: sorted(l.Out[b]),
		}
	}
	return out
}

func sorted(s mapset.Set[string]) []string {
	out := s.ToSlice()
	slices.Sort(out)
	return out
}
