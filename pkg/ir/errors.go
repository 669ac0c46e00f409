package ir

import (
	"fmt"

	"github.com/containerd/errdefs"
)

// Pipeline error classes. Every error returned by the cfg, dom and ssa
// packages wraps exactly one of these, and each of them wraps an errdefs
// class so callers can use errdefs.IsInvalidArgument and friends.
var (
	// ErrMalformedProgram reports an invalid or unresolvable branch target,
	// or a leader set inconsistent with the instruction count.
	ErrMalformedProgram = fmt.Errorf("malformed program: %w", errdefs.ErrInvalidArgument)

	// ErrDisconnectedGraph reports a block that cannot be reached from the
	// entry block.
	ErrDisconnectedGraph = fmt.Errorf("disconnected graph: %w", errdefs.ErrFailedPrecondition)

	// ErrMissingDefinition reports a variable read with no prior definition
	// and no binding in the initial environment.
	ErrMissingDefinition = fmt.Errorf("missing definition: %w", errdefs.ErrNotFound)

	// ErrInvariantViolation reports a broken structural invariant, such as
	// a block with more than two successors or a phi without operands.
	ErrInvariantViolation = fmt.Errorf("invariant violation: %w", errdefs.ErrInternal)
)
