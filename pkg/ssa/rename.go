package ssa

import (
	"fmt"
	"strconv"

	"github.com/lac-dcc/DCC888/pkg/dom"
	"github.com/lac-dcc/DCC888/pkg/ir"
)

// VersionName returns the SSA name of version n of v.
func VersionName(v string, n int) string {
	return v + "_" + strconv.Itoa(n)
}

type renamer struct {
	// latest holds the current version of each variable during the
	// linear sweep.
	latest map[string]int
	// defsIn holds, per block, the last version of each variable defined
	// in that block.
	defsIn []map[string]int
	// seeded are the variables bound by the environment, at version 0.
	seeded map[string]bool
}

// Rename rewrites prog in place so every definition gets a fresh version
// and every use refers to the version that reaches it. Environment names
// start at version 0 and the returned environment carries them under
// their versioned names.
//
// Ordinary instructions are renamed in a single sweep in program order.
// A phi operand (v, p) resolves to the last definition of v in block p,
// else in the nearest dominator of p that defines v, else to v_0 when the
// environment binds v. An operand with no reaching definition keeps its
// slot with an empty name, meaning the value is undefined along that edge;
// a phi whose operands are all undefined is an error.
func Rename(prog *ir.Program, blockOf []int, tree *dom.Tree, env *ir.Env) (*ir.Env, error) {
	if len(blockOf) != prog.Len() {
		return nil, fmt.Errorf("%w: block map covers %d of %d instructions", ir.ErrInvariantViolation, len(blockOf), prog.Len())
	}

	r := &renamer{
		latest: make(map[string]int),
		defsIn: make([]map[string]int, len(tree.Nodes)),
		seeded: make(map[string]bool),
	}
	for b := range r.defsIn {
		r.defsIn[b] = make(map[string]int)
	}

	ssaEnv := ir.NewEnv()
	if env != nil {
		for _, binding := range env.Bindings() {
			r.latest[binding.Name] = 0
			r.seeded[binding.Name] = true
			ssaEnv.Set(VersionName(binding.Name, 0), binding.Value)
		}
	}

	for _, in := range prog.Insts {
		if err := r.renameUses(in); err != nil {
			return nil, err
		}
		if v := in.Definition(); v != "" {
			n := r.latest[v] + 1
			r.latest[v] = n
			r.defsIn[blockOf[in.Index]][v] = n
			in.Dst = VersionName(v, n)
		}
	}

	for _, in := range prog.Insts {
		if in.Kind != ir.KindPhi {
			continue
		}
		if err := r.renameOperands(in, tree); err != nil {
			return nil, err
		}
	}

	return ssaEnv, nil
}

func (r *renamer) renameUses(in *ir.Instruction) error {
	use := func(v string) (string, error) {
		n, ok := r.latest[v]
		if !ok {
			return "", fmt.Errorf("%w: instruction %d (%s) reads %q before any definition", ir.ErrMissingDefinition, in.Index, in, v)
		}
		return VersionName(v, n), nil
	}

	var err error
	switch in.Kind {
	case ir.KindBinary:
		if in.Src0, err = use(in.Src0); err != nil {
			return err
		}
		in.Src1, err = use(in.Src1)
	case ir.KindBranch:
		in.Cond, err = use(in.Cond)
	case ir.KindPhi:
	default:
		panic(fmt.Sprintf("unknown instruction kind %d", in.Kind))
	}
	return err
}

func (r *renamer) renameOperands(in *ir.Instruction, tree *dom.Tree) error {
	defined := 0
	for i, op := range in.Operands {
		n, ok := r.reaching(op.Name, op.Block, tree)
		if !ok {
			in.Operands[i].Name = ""
			continue
		}
		in.Operands[i].Name = VersionName(op.Name, n)
		defined++
	}
	if defined == 0 {
		return fmt.Errorf("%w: phi %s at instruction %d has no reaching definition", ir.ErrMissingDefinition, in.Dst, in.Index)
	}
	return nil
}

// reaching finds the version of v live at the end of block b.
func (r *renamer) reaching(v string, b int, tree *dom.Tree) (int, bool) {
	for b >= 0 {
		if n, ok := r.defsIn[b][v]; ok {
			return n, true
		}
		b = tree.Nodes[b].IDom
	}
	if r.seeded[v] {
		return 0, true
	}
	return 0, false
}
