package ssa

import (
	"fmt"

	"github.com/lac-dcc/DCC888/pkg/ir"
)

// Policy selects which variables receive a phi function at a join block.
type Policy string

const (
	// PolicyMaximal places a phi for every variable a join block reads
	// before defining it, on top of the minimal placement. It over-inserts phis for variables
	// with a single reaching definition; renaming still collapses them to
	// one source.
	PolicyMaximal Policy = "maximal"
	// PolicyMinimal places phis at the iterated dominance frontier of each
	// variable's definition sites.
	PolicyMinimal Policy = "minimal"
	// PolicyPruned is PolicyMinimal restricted to variables live at the
	// entry of the join block.
	PolicyPruned Policy = "pruned"
)

// ParsePolicy converts s to a Policy. The empty string selects
// PolicyMaximal.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "":
		return PolicyMaximal, nil
	case PolicyMaximal, PolicyMinimal, PolicyPruned:
		return Policy(s), nil
	}
	return "", fmt.Errorf("%w: unknown phi policy %q (must be 'maximal', 'minimal' or 'pruned')", ir.ErrMalformedProgram, s)
}
