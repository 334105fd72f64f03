package engine

import (
	"errors"
	"fmt"

	"github.com/warpgraph/warpengine/ident"
)

// ErrUnknownSchema names the failure to decode a typed payload whose
// schema is not loaded. No code in this repository returns it: payload
// decoders such as rules.DecodeMotionState report an unknown payload by
// returning false, and the matcher then treats the node as no match
// rather than failing the tick.
var ErrUnknownSchema = errors.New("engine: unknown payload schema")

// PrngMismatch is fatal: a rule's executor consumed a different count
// of deterministic random draws than it declared, which breaks the
// worker-count invariance the rest of the engine guarantees. This type
// exists as a typed extension point for rules that draw deterministic
// randomness; the rules in this repository are pure functions of their
// match and never draw from a PRNG, so it is never constructed today.
type PrngMismatch struct {
	RuleId   ident.RuleId
	Declared uint64
	Consumed uint64
}

func (e *PrngMismatch) Error() string {
	return fmt.Sprintf("engine: rule %s declared %d prng draws, consumed %d", e.RuleId, e.Declared, e.Consumed)
}

// CapabilityDenied is fatal: a rule lacked a required capability token.
// Like PrngMismatch, this is a typed extension point with no capability
// system wired up yet — every rule registered in this repository runs
// unconditionally.
type CapabilityDenied struct {
	RuleId     ident.RuleId
	Capability string
}

func (e *CapabilityDenied) Error() string {
	return fmt.Sprintf("engine: rule %s denied capability %q", e.RuleId, e.Capability)
}

// StateRootMismatch is returned only in DeltaValidate mode: it signals
// that SnapshotAccumulator and a from-scratch GraphStore rebuild
// disagree on state_root for the same (base, ops) pair, which can only
// mean a bug in one of the two hash paths. This must never be
// reachable in a correct engine.
type StateRootMismatch struct {
	Tick          uint64
	Accumulated   ident.Hash
	Reconstructed ident.Hash
}

func (e *StateRootMismatch) Error() string {
	return fmt.Sprintf("engine: tick %d state_root mismatch: accumulator=%s reconstructed=%s", e.Tick, e.Accumulated, e.Reconstructed)
}

// DuplicateRule is returned by Register when a RuleId is already taken.
type DuplicateRule struct {
	RuleId ident.RuleId
}

func (e *DuplicateRule) Error() string {
	return fmt.Sprintf("engine: rule %s already registered", e.RuleId)
}
