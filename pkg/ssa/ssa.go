// Package ssa converts a linear three-address program into static single
// assignment form: it partitions the program into blocks, computes
// dominance frontiers, inserts phi functions at join points, flattens the
// blocks back into a program and renames every variable.
package ssa

import (
	"fmt"

	"github.com/lac-dcc/DCC888/internal/log"
	"github.com/lac-dcc/DCC888/pkg/cfg"
	"github.com/lac-dcc/DCC888/pkg/dom"
	"github.com/lac-dcc/DCC888/pkg/ir"
)

// Options configures Convert.
type Options struct {
	Policy Policy
	Logger log.Logger
}

// Stats summarizes one conversion.
type Stats struct {
	Instructions int `json:"instructions" yaml:"instructions" msgpack:"instructions"`
	Blocks       int `json:"blocks" yaml:"blocks" msgpack:"blocks"`
	JEdges       int `json:"j_edges" yaml:"j_edges" msgpack:"j_edges"`
	Phis         int `json:"phis" yaml:"phis" msgpack:"phis"`
}

// Result is the outcome of Convert.
type Result struct {
	Program *ir.Program
	Env     *ir.Env
	// BlockOf maps each instruction of Program to its block.
	BlockOf  []int
	Graph    *cfg.Graph
	Tree     *dom.Tree
	Frontier *dom.Frontier
	Stats    Stats
}

// Convert runs the whole pipeline on prog and env. Neither argument is
// modified. Any error aborts the conversion; there is no partial result.
func Convert(prog *ir.Program, env *ir.Env, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	policy := opts.Policy
	if policy == "" {
		policy = PolicyMaximal
	}
	if _, err := ParsePolicy(string(policy)); err != nil {
		return nil, err
	}
	if env == nil {
		env = ir.NewEnv()
	}

	g, err := cfg.Partition(prog)
	if err != nil {
		return nil, fmt.Errorf("partition: %w", err)
	}
	logger.Debug("partitioned program", "instructions", prog.Len(), "blocks", g.Len())

	tree, err := dom.Analyze(g)
	if err != nil {
		return nil, fmt.Errorf("dominance: %w", err)
	}
	frontier := dom.ComputeFrontier(g, tree)
	jedges := frontier.JEdges()
	logger.Debug("computed dominance frontiers", "j_edges", len(jedges), "joins", len(frontier.JoinNodes()))

	place := PlacePhis(g, frontier, policy)
	phis, err := InsertPhis(g, place)
	if err != nil {
		return nil, fmt.Errorf("phi insertion: %w", err)
	}
	logger.Debug("inserted phi functions", "policy", policy, "phis", phis)

	out, blockOf, err := Reassemble(g)
	if err != nil {
		return nil, fmt.Errorf("reassemble: %w", err)
	}
	if out.Len() != prog.Len()+phis {
		return nil, fmt.Errorf("%w: reassembled %d instructions, want %d", ir.ErrInvariantViolation, out.Len(), prog.Len()+phis)
	}

	ssaEnv, err := Rename(out, blockOf, tree, env)
	if err != nil {
		return nil, fmt.Errorf("rename: %w", err)
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("ssa program: %w", err)
	}

	stats := Stats{
		Instructions: out.Len(),
		Blocks:       g.Len(),
		JEdges:       len(jedges),
		Phis:         phis,
	}
	logger.Info("converted to ssa", "instructions", stats.Instructions, "blocks", stats.Blocks, "phis", stats.Phis)

	return &Result{
		Program:  out,
		Env:      ssaEnv,
		BlockOf:  blockOf,
		Graph:    g,
		Tree:     tree,
		Frontier: frontier,
		Stats:    stats,
	}, nil
}

// SingleAssignment reports the first variable defined more than once in p,
// or "" when every variable has exactly one definition.
func SingleAssignment(p *ir.Program) string {
	seen := make(map[string]bool)
	for _, in := range p.Insts {
		v := in.Definition()
		if v == "" {
			continue
		}
		if seen[v] {
			return v
		}
		seen[v] = true
	}
	return ""
}
