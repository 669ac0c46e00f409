package ir

import (
	"errors"
	"testing"

	"github.com/containerd/errdefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgram_Link(t *testing.T) {
	p, err := NewProgram(
		NewBranch("cond", 2),
		NewBinary("a", OpAdd, "zero", "one"),
		NewBinary("x", OpAdd, "a", "one"),
	)
	require.NoError(t, err)
	require.NoError(t, p.Validate())

	assert.Equal(t, []int{1, 2}, p.Insts[0].Succs)
	assert.Equal(t, []int{2}, p.Insts[1].Succs)
	assert.Empty(t, p.Insts[2].Succs)
	assert.Equal(t, []int{0, 1}, p.Insts[2].Preds)
	assert.Empty(t, p.Insts[0].Preds)
}

func TestProgram_LinkErrors(t *testing.T) {
	tests := []struct {
		name  string
		insts []*Instruction
	}{
		{"target out of range", []*Instruction{NewBranch("c", 5), NewBinary("a", OpAdd, "b", "c")}},
		{"negative target", []*Instruction{NewBranch("c", -1), NewBinary("a", OpAdd, "b", "c")}},
		{"branch without fall-through", []*Instruction{NewBinary("a", OpAdd, "b", "c"), NewBranch("c", 0)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProgram(tt.insts...)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedProgram))
			assert.True(t, errdefs.IsInvalidArgument(err))
		})
	}
}

func TestProgram_Validate(t *testing.T) {
	p, err := NewProgram(NewBinary("a", Opcode("div"), "b", "c"))
	require.NoError(t, err)
	assert.ErrorIs(t, p.Validate(), ErrMalformedProgram)

	p, err = NewProgram(NewPhi("a", nil))
	require.NoError(t, err)
	assert.ErrorIs(t, p.Validate(), ErrInvariantViolation)

	assert.ErrorIs(t, (&Program{}).Validate(), ErrMalformedProgram)
}

func TestInstruction_DefinitionAndUses(t *testing.T) {
	add := NewBinary("x", OpMul, "a", "b")
	assert.Equal(t, "x", add.Definition())
	assert.Equal(t, []string{"a", "b"}, add.Uses())
	assert.Equal(t, 1, add.MaxSuccs())

	bt := NewBranch("c", 3)
	assert.Equal(t, "", bt.Definition())
	assert.Equal(t, []string{"c"}, bt.Uses())
	assert.Equal(t, 2, bt.MaxSuccs())

	phi := NewPhi("a", []PhiOperand{{"a", 0}, {"a", 1}})
	assert.Equal(t, "a", phi.Definition())
	assert.Equal(t, []string{"a", "a"}, phi.Uses())
	assert.Equal(t, "a = phi(a:0, a:1)", phi.String())

	partial := NewPhi("c_2", []PhiOperand{{"", 1}, {"c_1", 2}})
	assert.Equal(t, []string{"c_1"}, partial.Uses())
	assert.Equal(t, "c_2 = phi(undef:1, c_1:2)", partial.String())
}

func TestProgram_Definitions(t *testing.T) {
	p, err := NewProgram(
		NewBinary("a", OpAdd, "b", "c"),
		NewBinary("a", OpAdd, "a", "c"),
		NewBranch("a", 3),
		NewBinary("d", OpLth, "a", "c"),
	)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 2, "d": 1}, p.Definitions())
}
