// Package rules provides concrete RewriteRule implementations used by
// example engines and tests. motion.go implements the canonical
// "motion/update" rule: every node carrying a {pos, vel} payload moves
// by its velocity each tick, entirely in Q32.32 fixed point so the
// result is bit-identical across machines and worker counts.
package rules

import (
	"github.com/warpgraph/warpengine/delta"
	"github.com/warpgraph/warpengine/engine"
	"github.com/warpgraph/warpengine/graph"
	"github.com/warpgraph/warpengine/ident"
	"github.com/warpgraph/warpengine/schedule"
)

// MotionTypeId is the TypeId a node must carry for the motion rule to
// match it.
var MotionTypeId = ident.NewTypeId("motion.particle")

// MotionRuleId is the stable, content-derived RuleId for "motion/update".
var MotionRuleId = ident.NewRuleId("motion/update")

// MotionState is the decoded form of a motion.particle payload: a
// position and velocity, each three Q32.32 components.
type MotionState struct {
	Pos [3]ident.Q32_32
	Vel [3]ident.Q32_32
}

// motionPayloadLen is six Q32.32 fields at 8 bytes each.
const motionPayloadLen = 6 * 8

// EncodeMotionState serializes s as little-endian Q32.32 bits: pos.x,
// pos.y, pos.z, vel.x, vel.y, vel.z.
func EncodeMotionState(s MotionState) []byte {
	out := make([]byte, 0, motionPayloadLen)
	for _, v := range s.Pos {
		bits := v.Bits()
		out = append(out, bits[:]...)
	}
	for _, v := range s.Vel {
		bits := v.Bits()
		out = append(out, bits[:]...)
	}
	return out
}

// DecodeMotionState parses a motion.particle payload. It returns false
// if b is not exactly motionPayloadLen bytes — an UnknownSchema-shaped
// failure handled by returning "no match" rather than erroring, per the
// payload-decode contract.
func DecodeMotionState(b []byte) (MotionState, bool) {
	if len(b) != motionPayloadLen {
		return MotionState{}, false
	}
	var s MotionState
	for i := range s.Pos {
		s.Pos[i] = decodeQ32(b[i*8 : i*8+8])
	}
	for i := range s.Vel {
		s.Vel[i] = decodeQ32(b[24+i*8 : 24+i*8+8])
	}
	return s, true
}

func decodeQ32(b []byte) ident.Q32_32 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return ident.Q32_32(int64(v))
}

// NewMotionNodePayload builds the AtomPayload for a freshly created
// motion particle.
func NewMotionNodePayload(s MotionState) *delta.AtomPayload {
	return &delta.AtomPayload{TypeId: MotionTypeId, Bytes: EncodeMotionState(s)}
}

// MotionRule returns the registered "motion/update" rewrite: for every
// node whose payload decodes as a motion.particle, emit UpdateNode with
// pos += vel. FamilyId 0 is the rule's own stable tiebreaker — there is
// only one rule in this family, so its value never influences ordering
// beyond letting the sort be well-defined.
func MotionRule() engine.RewriteRule {
	return engine.RewriteRule{
		Id:       MotionRuleId,
		FamilyId: 0,
		Matcher:  motionMatcher,
		FootprintOf: func(_ graph.View, m engine.Match) schedule.Footprint {
			id := m.Data.(ident.NodeId)
			scope := schedule.NewScope([]ident.NodeId{id}, nil)
			return schedule.Footprint{WarpId: ident.NewWarpId("root"), Reads: scope, Writes: scope}
		},
		Executor: motionExecutor,
	}
}

func motionMatcher(view graph.View) []engine.Match {
	var matches []engine.Match
	view.IterNodes(func(n *graph.NodeRecord) bool {
		if n.TypeId != MotionTypeId || n.Payload == nil {
			return true
		}
		if _, ok := DecodeMotionState(n.Payload.Bytes); ok {
			matches = append(matches, engine.Match{Data: n.Id})
		}
		return true
	})
	return matches
}

func motionExecutor(view graph.View, m engine.Match, emit *delta.ScopedEmitter) {
	id := m.Data.(ident.NodeId)
	n, ok := view.GetNode(id)
	if !ok || n.Payload == nil {
		return
	}
	state, ok := DecodeMotionState(n.Payload.Bytes)
	if !ok {
		return
	}
	next := MotionState{Vel: state.Vel}
	for i := range state.Pos {
		next.Pos[i] = state.Pos[i].Add(state.Vel[i])
	}

	emit.Emit(delta.WarpOp{
		Variant:    delta.VariantUpdateNode,
		WarpId:     n.WarpId,
		TargetNode: id,
		Node: delta.NodeFields{
			TypeId:  n.TypeId,
			WarpId:  n.WarpId,
			Payload: NewMotionNodePayload(next),
		},
	})
}
