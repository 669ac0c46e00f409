package dom

import (
	"testing"

	"github.com/containerd/errdefs"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lac-dcc/DCC888/pkg/cfg"
	"github.com/lac-dcc/DCC888/pkg/ir"
)

func partition(t *testing.T, insts ...*ir.Instruction) *cfg.Graph {
	t.Helper()
	p, err := ir.NewProgram(insts...)
	require.NoError(t, err)
	g, err := cfg.Partition(p)
	require.NoError(t, err)
	return g
}

func diamond(t *testing.T) *cfg.Graph {
	return partition(t,
		ir.NewBranch("cond", 2),
		ir.NewBinary("a", ir.OpAdd, "zero", "one"),
		ir.NewBinary("x", ir.OpAdd, "a", "one"),
	)
}

// Blocks:
//
//	B0: a = add zero one; bt c 5
//	B1: b = add a one; bt d 5
//	B2: b = add b one
//	B3: e = add b a; f = add a a; bt e 9
//	B4: g = add f one
//	B5: h = add f g
func nested(t *testing.T) *cfg.Graph {
	return partition(t,
		ir.NewBinary("a", ir.OpAdd, "zero", "one"), // 0
		ir.NewBranch("c", 5),                       // 1
		ir.NewBinary("b", ir.OpAdd, "a", "one"),    // 2
		ir.NewBranch("d", 5),                       // 3
		ir.NewBinary("b", ir.OpAdd, "b", "one"),    // 4
		ir.NewBinary("e", ir.OpAdd, "b", "a"),      // 5
		ir.NewBinary("f", ir.OpAdd, "a", "a"),      // 6
		ir.NewBranch("e", 9),                       // 7
		ir.NewBinary("g", ir.OpAdd, "f", "one"),    // 8
		ir.NewBinary("h", ir.OpAdd, "f", "g"),      // 9
	)
}

func TestAnalyze_Diamond(t *testing.T) {
	tree, err := Analyze(diamond(t))
	require.NoError(t, err)

	assert.Equal(t, -1, tree.Nodes[0].IDom)
	assert.Equal(t, 0, tree.Nodes[1].IDom)
	assert.Equal(t, 0, tree.Nodes[2].IDom)

	assert.Equal(t, 0, tree.Nodes[0].Level)
	assert.Equal(t, 1, tree.Nodes[1].Level)
	assert.Equal(t, 1, tree.Nodes[2].Level)

	assert.Equal(t, []int{0, 2}, tree.Nodes[2].RootPath)
	assert.ElementsMatch(t, []int{1, 2}, tree.Nodes[0].Children.ToSlice())
	assert.True(t, tree.Dominates(0, 2))
	assert.False(t, tree.Dominates(1, 2))
	assert.True(t, tree.Dominates(2, 2))
	assert.False(t, tree.StrictlyDominates(2, 2))
}

func TestAnalyze_Nested(t *testing.T) {
	g := nested(t)
	require.Equal(t, 6, g.Len())
	tree, err := Analyze(g)
	require.NoError(t, err)

	assert.Equal(t, 0, tree.Nodes[1].IDom)
	assert.Equal(t, 1, tree.Nodes[2].IDom)
	// B3 merges B0, B1 and B2
	assert.Equal(t, 0, tree.Nodes[3].IDom)
	assert.Equal(t, 3, tree.Nodes[4].IDom)
	// B5 merges B3 and B4; B3 is an ancestor of B4, so it wins over the root
	assert.Equal(t, 3, tree.Nodes[5].IDom)

	assert.Equal(t, []int{0, 1, 2}, tree.Nodes[2].RootPath)
	assert.Equal(t, []int{0, 3, 5}, tree.Nodes[5].RootPath)
	assert.Equal(t, 2, tree.Nodes[5].Level)
	assert.Equal(t, []int{3, 4, 5}, tree.Subtree(3))
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, tree.Subtree(0))
}

func TestAnalyze_TreeProperties(t *testing.T) {
	for name, g := range map[string]*cfg.Graph{"diamond": diamond(t), "nested": nested(t)} {
		t.Run(name, func(t *testing.T) {
			tree, err := Analyze(g)
			require.NoError(t, err)

			for b, info := range tree.Nodes {
				assert.Len(t, info.RootPath, info.Level+1)
				assert.Equal(t, b, info.RootPath[len(info.RootPath)-1])
				assert.Equal(t, info.Level, info.Dominators.Cardinality())
				if b == 0 {
					continue
				}
				parent := tree.Nodes[info.IDom]
				assert.Equal(t, parent.Level+1, info.Level)
				assert.Equal(t, append(append([]int{}, parent.RootPath...), b), info.RootPath)
				assert.True(t, parent.Children.Contains(b))
			}
		})
	}
}

func TestAnalyze_Disconnected(t *testing.T) {
	g := diamond(t)
	// Cut B0 -> B2 and B1 -> B2.
	g.Blocks[0].Succs = []int{1}
	g.Blocks[1].Succs = nil
	g.Blocks[2].Preds = nil

	_, err := Analyze(g)
	require.Error(t, err)
	assert.ErrorIs(t, err, ir.ErrDisconnectedGraph)
	assert.True(t, errdefs.IsFailedPrecondition(err))
}

func TestAnalyze_Cycle(t *testing.T) {
	g := diamond(t)
	g.Blocks[2].Succs = []int{1}
	g.Blocks[1].Preds = append(g.Blocks[1].Preds, 2)

	_, err := Analyze(g)
	require.Error(t, err)
	assert.ErrorIs(t, err, ir.ErrInvariantViolation)
}

func TestAnalyze_Idempotent(t *testing.T) {
	g := nested(t)

	t1, err := Analyze(g)
	require.NoError(t, err)
	r1 := NewReport(t1, ComputeFrontier(g, t1))

	t2, err := Analyze(g)
	require.NoError(t, err)
	r2 := NewReport(t2, ComputeFrontier(g, t2))

	if diff := cmp.Diff(r1, r2); diff != "" {
		t.Errorf("dominance changed between runs (-first +second):\n%s", diff)
	}
}

func TestNearestCommonAncestor(t *testing.T) {
	tests := []struct {
		name  string
		paths [][]int
		want  int
	}{
		{"siblings", [][]int{{0, 1}, {0, 2}}, 0},
		{"parent and child", [][]int{{0, 1}, {0, 1, 2}}, 1},
		{"deep split", [][]int{{0, 1, 3, 4}, {0, 1, 3, 5}, {0, 1, 3}}, 3},
		{"root only", [][]int{{0}, {0, 4, 5}}, 0},
		{"identical", [][]int{{0, 1, 2}, {0, 1, 2}}, 2},
		{"prefix of several", [][]int{{0, 1}, {0, 1, 2}, {0, 1, 3, 4}}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nearestCommonAncestor(tt.paths))
		})
	}
}
