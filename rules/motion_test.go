package rules

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/warpgraph/warpengine/delta"
	"github.com/warpgraph/warpengine/graph"
	"github.com/warpgraph/warpengine/ident"
)

func TestEncodeDecodeMotionStateRoundTrips(t *testing.T) {
	s := MotionState{
		Pos: [3]ident.Q32_32{ident.NewQ32_32FromFloat64(1.5), ident.NewQ32_32FromFloat64(-2.25), ident.NewQ32_32FromFloat64(0)},
		Vel: [3]ident.Q32_32{ident.NewQ32_32FromFloat64(0.5), ident.NewQ32_32FromFloat64(0), ident.NewQ32_32FromFloat64(-1)},
	}
	b := EncodeMotionState(s)
	require.Len(t, b, motionPayloadLen)

	got, ok := DecodeMotionState(b)
	require.True(t, ok)
	require.Equal(t, s, got)
}

func TestDecodeMotionStateRejectsWrongLength(t *testing.T) {
	_, ok := DecodeMotionState([]byte{1, 2, 3})
	require.False(t, ok)
}

func seedParticle(t *testing.T, warpId ident.WarpId, pos, vel [3]float64) (*graph.Store, ident.NodeId) {
	t.Helper()
	witness := ident.CreationWitness{WarpId: warpId, TypeId: MotionTypeId, RuleId: ident.NewRuleId("seed")}
	id := ident.NewNodeId(witness)
	state := MotionState{
		Pos: [3]ident.Q32_32{ident.NewQ32_32FromFloat64(pos[0]), ident.NewQ32_32FromFloat64(pos[1]), ident.NewQ32_32FromFloat64(pos[2])},
		Vel: [3]ident.Q32_32{ident.NewQ32_32FromFloat64(vel[0]), ident.NewQ32_32FromFloat64(vel[1]), ident.NewQ32_32FromFloat64(vel[2])},
	}
	op := delta.WarpOp{
		Variant:    delta.VariantAddNode,
		WarpId:     warpId,
		TargetNode: id,
		Node:       delta.NodeFields{TypeId: MotionTypeId, WarpId: warpId, Payload: NewMotionNodePayload(state)},
	}
	store, err := graph.Empty().Apply([]delta.WarpOp{op})
	require.NoError(t, err)
	return store, id
}

func TestMotionMatcherFindsOnlyMotionParticles(t *testing.T) {
	warpId := ident.NewWarpId("root")
	store, particleId := seedParticle(t, warpId, [3]float64{0, 0, 0}, [3]float64{1, 0, 0})

	otherType := ident.NewTypeId("not.motion")
	otherId := ident.NewNodeId(ident.CreationWitness{WarpId: warpId, TypeId: otherType, RuleId: ident.NewRuleId("seed"), LocalSeq: 1})
	store, err := store.Apply([]delta.WarpOp{{
		Variant: delta.VariantAddNode, WarpId: warpId, TargetNode: otherId,
		Node: delta.NodeFields{TypeId: otherType, WarpId: warpId, Payload: &delta.AtomPayload{TypeId: otherType, Bytes: []byte("x")}},
	}})
	require.NoError(t, err)

	matches := motionMatcher(store)
	require.Len(t, matches, 1)
	require.Equal(t, particleId, matches[0].Data.(ident.NodeId))
}

func TestMotionExecutorAddsVelocityToPosition(t *testing.T) {
	warpId := ident.NewWarpId("root")
	store, particleId := seedParticle(t, warpId, [3]float64{1, 2, 3}, [3]float64{0.5, -1, 0})

	rule := MotionRule()
	matches := rule.Matcher(store)
	require.Len(t, matches, 1)

	emit := delta.NewScopedEmitter(ident.NewIntentId(warpId, 0), rule.Id, 0)
	rule.Executor(store, matches[0], emit)

	entries := emit.Entries()
	require.Len(t, entries, 1)
	op := entries[0].Op
	require.Equal(t, delta.VariantUpdateNode, op.Variant)
	require.Equal(t, particleId, op.TargetNode)

	next, ok := DecodeMotionState(op.Node.Payload.Bytes)
	require.True(t, ok)
	require.InDelta(t, 1.5, next.Pos[0].Float64(), 1e-9)
	require.InDelta(t, 1.0, next.Pos[1].Float64(), 1e-9)
	require.InDelta(t, 3.0, next.Pos[2].Float64(), 1e-9)
	require.Equal(t, next.Vel, [3]ident.Q32_32{ident.NewQ32_32FromFloat64(0.5), ident.NewQ32_32FromFloat64(-1), ident.NewQ32_32FromFloat64(0)})
}

func TestMotionFootprintIsSelfScoped(t *testing.T) {
	warpId := ident.NewWarpId("root")
	store, particleId := seedParticle(t, warpId, [3]float64{0, 0, 0}, [3]float64{0, 0, 0})

	rule := MotionRule()
	matches := rule.Matcher(store)
	require.Len(t, matches, 1)

	fp := rule.FootprintOf(store, matches[0])
	_, readsOK := fp.Reads.Nodes[particleId]
	_, writesOK := fp.Writes.Nodes[particleId]
	require.True(t, readsOK)
	require.True(t, writesOK)
}
