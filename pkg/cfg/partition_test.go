package cfg

import (
	"testing"

	"github.com/containerd/errdefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lac-dcc/DCC888/pkg/ir"
)

func mustProgram(t *testing.T, insts ...*ir.Instruction) *ir.Program {
	t.Helper()
	p, err := ir.NewProgram(insts...)
	require.NoError(t, err)
	return p
}

// bt cond 2 / a = add zero one / x = add a one
func diamond(t *testing.T) *ir.Program {
	return mustProgram(t,
		ir.NewBranch("cond", 2),
		ir.NewBinary("a", ir.OpAdd, "zero", "one"),
		ir.NewBinary("x", ir.OpAdd, "a", "one"),
	)
}

func TestPartition_Diamond(t *testing.T) {
	g, err := Partition(diamond(t))
	require.NoError(t, err)

	require.Equal(t, 3, g.Len())
	assert.Equal(t, []int{0, 1, 2}, g.Leaders)
	assert.Equal(t, []int{0}, g.Blocks[0].Insts)
	assert.Equal(t, []int{1}, g.Blocks[1].Insts)
	assert.Equal(t, []int{2}, g.Blocks[2].Insts)

	assert.Equal(t, []int{1, 2}, g.Blocks[0].Succs, "fall-through first, jump second")
	assert.Equal(t, []int{2}, g.Blocks[1].Succs)
	assert.Empty(t, g.Blocks[2].Succs)
	assert.Equal(t, []int{0, 1}, g.Blocks[2].Preds)
}

func TestPartition_StraightLine(t *testing.T) {
	g, err := Partition(mustProgram(t,
		ir.NewBinary("a", ir.OpAdd, "zero", "one"),
		ir.NewBinary("b", ir.OpMul, "a", "a"),
		ir.NewBinary("c", ir.OpLth, "a", "b"),
	))
	require.NoError(t, err)

	require.Equal(t, 1, g.Len())
	assert.Equal(t, []int{0, 1, 2}, g.Blocks[0].Insts)
	assert.Empty(t, g.Blocks[0].Succs)
	assert.Empty(t, g.Blocks[0].Preds)
}

func TestPartition_Lossless(t *testing.T) {
	p := mustProgram(t,
		ir.NewBinary("a", ir.OpAdd, "zero", "one"),
		ir.NewBranch("c", 4),
		ir.NewBinary("a", ir.OpAdd, "a", "one"),
		ir.NewBranch("d", 6),
		ir.NewBinary("b", ir.OpAdd, "a", "one"),
		ir.NewBinary("b", ir.OpMul, "b", "b"),
		ir.NewBinary("e", ir.OpGeq, "a", "b"),
	)
	g, err := Partition(p)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 2, 4, 6}, g.Leaders)

	seen := make(map[int]int)
	for _, b := range g.Blocks {
		for _, slot := range b.Insts {
			seen[slot]++
		}
		// Only the last instruction of a block may be a branch
		for _, in := range g.Instructions(b.Index)[:len(b.Insts)-1] {
			assert.NotEqual(t, ir.KindBranch, in.Kind)
		}
	}
	require.Len(t, seen, p.Len())
	for i := 0; i < p.Len(); i++ {
		assert.Equal(t, 1, seen[i], "instruction %d", i)
	}

	assert.Equal(t, []int{1, 2}, g.Blocks[0].Succs)
	assert.Equal(t, []int{2, 3}, g.Blocks[1].Succs)
	assert.Equal(t, []int{3}, g.Blocks[2].Succs)
	assert.Equal(t, []int{1, 2}, g.Blocks[3].Preds)
}

func TestPartition_BranchToNext(t *testing.T) {
	g, err := Partition(mustProgram(t,
		ir.NewBranch("c", 1),
		ir.NewBinary("a", ir.OpAdd, "zero", "one"),
	))
	require.NoError(t, err)

	require.Equal(t, 2, g.Len())
	assert.Equal(t, []int{1, 1}, g.Blocks[0].Succs)
	assert.Equal(t, []int{0, 0}, g.Blocks[1].Preds)
}

func TestPartition_Errors(t *testing.T) {
	tests := []struct {
		name  string
		prog  *ir.Program
		isErr error
	}{
		{"empty", &ir.Program{}, ir.ErrMalformedProgram},
		{"backward branch", &ir.Program{Insts: []*ir.Instruction{
			ir.NewBinary("a", ir.OpAdd, "a", "one"),
			ir.NewBranch("c", 0),
			ir.NewBinary("b", ir.OpAdd, "a", "one"),
		}}, ir.ErrMalformedProgram},
		{"target out of range", &ir.Program{Insts: []*ir.Instruction{
			ir.NewBranch("c", 9),
			ir.NewBinary("b", ir.OpAdd, "a", "one"),
		}}, ir.ErrMalformedProgram},
		{"phi in input", &ir.Program{Insts: []*ir.Instruction{
			ir.NewPhi("a", []ir.PhiOperand{{Name: "a", Block: 0}}),
		}}, ir.ErrMalformedProgram},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Partition(tt.prog)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.isErr)
			assert.True(t, errdefs.IsInvalidArgument(err))
		})
	}
}

func TestPartition_DoesNotMutateInput(t *testing.T) {
	p := diamond(t)
	g, err := Partition(p)
	require.NoError(t, err)

	g.Insts[0].Cond = "changed"
	assert.Equal(t, "cond", p.Insts[0].Cond)
}

func TestGraph_Info(t *testing.T) {
	g, err := Partition(diamond(t))
	require.NoError(t, err)

	info := g.Info()
	require.Len(t, info.Blocks, 3)
	assert.Equal(t, BlockTypeEntry, info.Blocks[0].Type)
	assert.Equal(t, BlockTypePlain, info.Blocks[1].Type)
	assert.Equal(t, BlockTypeExit, info.Blocks[2].Type)
	assert.Equal(t, []string{"a = add zero one"}, info.Blocks[1].Statements)
	assert.Equal(t, []int{2}, info.ExitBlockIDs)
	assert.Equal(t, 2, info.CyclomaticComplexity)

	assert.Equal(t, []CFGEdge{
		{SourceID: 0, TargetID: 1, EdgeType: EdgeTypeFalse, Condition: "cond"},
		{SourceID: 0, TargetID: 2, EdgeType: EdgeTypeTrue, Condition: "cond"},
		{SourceID: 1, TargetID: 2, EdgeType: EdgeTypeUnconditional},
	}, info.Edges)
}

func TestGraph_UsesAndDefinitions(t *testing.T) {
	g, err := Partition(mustProgram(t,
		ir.NewBinary("a", ir.OpAdd, "zero", "one"),
		ir.NewBinary("a", ir.OpAdd, "a", "one"),
		ir.NewBinary("b", ir.OpAdd, "a", "zero"),
	))
	require.NoError(t, err)

	assert.Equal(t, []string{"zero", "one", "a"}, g.Uses(0))
	assert.Equal(t, []string{"a", "b"}, g.Definitions(0))
	assert.Equal(t, []string{"zero", "one"}, g.UpwardExposed(0))
}
