package interp

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

func TestRun_Arithmetic(t *testing.T) {
	prog := mustProgram(t,
		ir.NewBinary("s", ir.OpAdd, "x", "y"),
		ir.NewBinary("p", ir.OpMul, "s", "y"),
		ir.NewBinary("lt", ir.OpLth, "x", "y"),
		ir.NewBinary("ge", ir.OpGeq, "x", "y"),
	)
	env := ir.NewEnv(ir.Binding{Name: "x", Value: 2}, ir.Binding{Name: "y", Value: 5})

	out, err := Run(prog, env, 0)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"x": 2, "y": 5, "s": 7, "p": 35, "lt": 1, "ge": 0}, Final(out))
}

func TestRun_Branch(t *testing.T) {
	build := func() *ir.Program {
		return mustProgram(t,
			ir.NewBranch("c", 2),
			ir.NewBinary("a", ir.OpAdd, "one", "one"),
			ir.NewBinary("x", ir.OpAdd, "a", "one"),
		)
	}

	taken, err := Run(build(), ir.NewEnv(
		ir.Binding{Name: "c", Value: 7},
		ir.Binding{Name: "one", Value: 1},
		ir.Binding{Name: "a", Value: 10},
	), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(11), Final(taken)["x"])

	fallen, err := Run(build(), ir.NewEnv(
		ir.Binding{Name: "c", Value: 0},
		ir.Binding{Name: "one", Value: 1},
		ir.Binding{Name: "a", Value: 10},
	), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), Final(fallen)["x"])
}

func TestRun_PhiTakesLatestOperand(t *testing.T) {
	prog := &ir.Program{Insts: []*ir.Instruction{
		ir.NewBinary("a_1", ir.OpAdd, "one_0", "one_0"),
		ir.NewPhi("a_2", []ir.PhiOperand{{Name: "a_0", Block: 0}, {Name: "a_1", Block: 1}}),
	}}
	require.NoError(t, prog.Link())

	env := ir.NewEnv(ir.Binding{Name: "one_0", Value: 1}, ir.Binding{Name: "a_0", Value: 99})
	out, err := Run(prog, env, 0)
	require.NoError(t, err)
	v, ok := out.Lookup("a_2")
	require.True(t, ok)
	assert.Equal(t, int64(2), v)
}

func TestRun_PhiWithNothingBoundLeavesDstUnbound(t *testing.T) {
	prog := &ir.Program{Insts: []*ir.Instruction{
		ir.NewPhi("c_2", []ir.PhiOperand{{Name: "", Block: 0}, {Name: "c_1", Block: 1}}),
		ir.NewBinary("d_1", ir.OpAdd, "one_0", "one_0"),
	}}
	require.NoError(t, prog.Link())

	trace, err := RunTrace(prog, ir.NewEnv(ir.Binding{Name: "one_0", Value: 1}), 0)
	require.NoError(t, err)
	require.Len(t, trace, 2)
	assert.Empty(t, trace[0].Dst)

	out, err := Run(prog, ir.NewEnv(ir.Binding{Name: "one_0", Value: 1}), 0)
	require.NoError(t, err)
	assert.False(t, out.Has("c_2"))
	assert.True(t, out.Has("d_1"))
}

func TestRunTrace(t *testing.T) {
	prog := mustProgram(t,
		ir.NewBranch("c", 2),
		ir.NewBinary("a", ir.OpAdd, "one", "one"),
		ir.NewBinary("x", ir.OpAdd, "one", "one"),
	)
	trace, err := RunTrace(prog, ir.NewEnv(ir.Binding{Name: "c", Value: 1}, ir.Binding{Name: "one", Value: 1}), 0)
	require.NoError(t, err)
	assert.Equal(t, []Trace{
		{Index: 0, Inst: "bt c 2", Value: 1},
		{Index: 2, Inst: "x = add one one", Dst: "x", Value: 2},
	}, trace)
}

func TestRun_Errors(t *testing.T) {
	t.Run("unbound", func(t *testing.T) {
		_, err := Run(mustProgram(t, ir.NewBinary("a", ir.OpAdd, "b", "b")), ir.NewEnv(), 0)
		require.Error(t, err)
		assert.True(t, errdefs.IsNotFound(err))
	})

	t.Run("step limit", func(t *testing.T) {
		prog := mustProgram(t,
			ir.NewBinary("a", ir.OpAdd, "b", "b"),
			ir.NewBinary("a", ir.OpAdd, "a", "b"),
			ir.NewBinary("a", ir.OpAdd, "a", "b"),
		)
		_, err := Run(prog, ir.NewEnv(ir.Binding{Name: "b", Value: 1}), 2)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrStepLimit)
		assert.True(t, errdefs.IsResourceExhausted(err))
	})

	t.Run("empty", func(t *testing.T) {
		_, err := Run(&ir.Program{}, ir.NewEnv(), 0)
		assert.ErrorIs(t, err, ir.ErrMalformedProgram)
	})
}
