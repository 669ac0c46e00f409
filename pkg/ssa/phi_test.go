package ssa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lac-dcc/DCC888/pkg/cfg"
	"github.com/lac-dcc/DCC888/pkg/dom"
	"github.com/lac-dcc/DCC888/pkg/interp"
	"github.com/lac-dcc/DCC888/pkg/ir"
)

func analyze(t *testing.T, p *ir.Program) (*cfg.Graph, *dom.Tree, *dom.Frontier) {
	t.Helper()
	g, err := cfg.Partition(p)
	require.NoError(t, err)
	tree, err := dom.Analyze(g)
	require.NoError(t, err)
	return g, tree, dom.ComputeFrontier(g, tree)
}

func TestPlacePhis(t *testing.T) {
	tests := []struct {
		policy Policy
		want   map[int][]string
	}{
		{PolicyMaximal, map[int][]string{3: {"a", "b"}, 5: {"f", "g"}}},
		{PolicyMinimal, map[int][]string{3: {"b"}, 5: {"g"}}},
		{PolicyPruned, map[int][]string{3: {"b"}, 5: {"g"}}},
	}
	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			g, _, f := analyze(t, nested(t))
			place := PlacePhis(g, f, tt.policy)

			got := make(map[int][]string)
			for b := range place {
				got[b] = place.Vars(b)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlacePhis_IteratedFrontier(t *testing.T) {
	// The phi for v at B3 is itself a definition whose frontier is B4.
	//
	//	B0: bt e 4
	//	B1: bt c 3
	//	B2: v = add one one
	//	B3: w = add one one
	//	B4: x = add v w
	g, _, f := analyze(t, mustProgram(t,
		ir.NewBranch("e", 4),
		ir.NewBranch("c", 3),
		ir.NewBinary("v", ir.OpAdd, "one", "one"),
		ir.NewBinary("w", ir.OpAdd, "one", "one"),
		ir.NewBinary("x", ir.OpAdd, "v", "w"),
	))
	require.Equal(t, 5, g.Len())

	place := PlacePhis(g, f, PolicyMinimal)
	assert.Equal(t, []string{"v"}, place.Vars(3))
	assert.Equal(t, []string{"v", "w"}, place.Vars(4))
	assert.Equal(t, 3, place.Count())
}

func TestInsertPhis_Rewires(t *testing.T) {
	g, _, f := analyze(t, diamond(t))
	leader := g.Blocks[2].Insts[0]
	n := g.NumInstructions()

	count, err := InsertPhis(g, PlacePhis(g, f, PolicyMaximal))
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, n+2, g.NumInstructions())

	block := g.Blocks[2]
	require.Len(t, block.Insts, 3)
	first, second := g.Insts[block.Insts[0]], g.Insts[block.Insts[1]]
	assert.Equal(t, "a = phi(a:0, a:1)", first.String())
	assert.Equal(t, "one = phi(one:0, one:1)", second.String())

	assert.Equal(t, []int{block.Insts[1]}, first.Succs)
	assert.Equal(t, []int{block.Insts[0]}, second.Preds)
	assert.Equal(t, []int{block.Insts[1]}, g.Insts[leader].Preds)
	assert.Contains(t, g.Insts[0].Succs, block.Insts[0])
	assert.NotContains(t, g.Insts[0].Succs, leader)

	assert.Equal(t, []int{0, 1}, block.Preds, "block edges are unchanged")
}

func TestInsertPhis_DuplicatePredecessor(t *testing.T) {
	// Both edges of the branch in B1 reach B2.
	//
	//	B0: bt p 2
	//	B1: bt c 2
	//	B2: x = add a one
	prog := mustProgram(t,
		ir.NewBranch("p", 2),
		ir.NewBranch("c", 2),
		ir.NewBinary("x", ir.OpAdd, "a", "one"),
	)
	g, _, f := analyze(t, prog)
	require.Equal(t, []int{0, 1, 1}, g.Blocks[2].Preds)

	count, err := InsertPhis(g, PlacePhis(g, f, PolicyMaximal))
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	block := g.Blocks[2]
	assert.Equal(t, "a = phi(a:0, a:1)", g.Insts[block.Insts[0]].String())
	assert.Equal(t, "one = phi(one:0, one:1)", g.Insts[block.Insts[1]].String())

	env := ir.NewEnv(
		ir.Binding{Name: "p", Value: 0},
		ir.Binding{Name: "c", Value: 1},
		ir.Binding{Name: "a", Value: 4},
		ir.Binding{Name: "one", Value: 1},
	)
	res, err := Convert(prog, env, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"bt p_0 2",
		"bt c_0 2",
		"a_1 = phi(a_0:0, a_0:1)",
		"one_1 = phi(one_0:0, one_0:1)",
		"x_1 = add a_1 one_1",
	}, listing(res.Program))

	out, err := interp.Run(res.Program, res.Env, 0)
	require.NoError(t, err)
	x, ok := out.Lookup("x_1")
	require.True(t, ok)
	assert.Equal(t, int64(5), x)
}

func TestInsertPhis_EntryBlock(t *testing.T) {
	g, _, _ := analyze(t, diamond(t))
	place := make(Placement)
	place.add(0, "a")

	_, err := InsertPhis(g, place)
	require.Error(t, err)
	assert.ErrorIs(t, err, ir.ErrInvariantViolation)
}

func TestReassemble_BranchToNext(t *testing.T) {
	// The branch target is also the fall-through, so the join block has
	// the same predecessor twice.
	g, _, f := analyze(t, mustProgram(t,
		ir.NewBinary("a", ir.OpAdd, "one", "one"),
		ir.NewBranch("c", 2),
		ir.NewBinary("x", ir.OpAdd, "a", "one"),
	))
	_, err := InsertPhis(g, PlacePhis(g, f, PolicyMaximal))
	require.NoError(t, err)

	prog, blockOf, err := Reassemble(g)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 1}, blockOf)
	assert.Equal(t, 2, prog.Insts[1].Target)
	assert.Equal(t, []int{2, 2}, prog.Insts[1].Succs)
	require.NoError(t, prog.Validate())
}
