package snapshot

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/warpgraph/warpengine/delta"
	"github.com/warpgraph/warpengine/graph"
	"github.com/warpgraph/warpengine/ident"
)

func addNodeOp(warp ident.WarpId, typeId ident.TypeId, seq uint32) delta.WarpOp {
	target := ident.NewNodeId(ident.CreationWitness{WarpId: warp, TypeId: typeId, LocalSeq: seq})
	return delta.WarpOp{Variant: delta.VariantAddNode, WarpId: warp, TargetNode: target, Node: delta.NodeFields{TypeId: typeId, WarpId: warp}}
}

// crossCheck is the "delta-validate" mode: the accumulator's state_root
// must equal hashing a store built by literally applying the same ops.
func crossCheck(t *testing.T, base *graph.Store, ops []delta.WarpOp) {
	t.Helper()
	acc := New(base)
	acc.Apply(ops)
	got := acc.StateRoot()

	reconstructed, err := base.Apply(ops)
	require.NoError(t, err)
	want := reconstructed.CanonicalStateHash()

	require.Equal(t, want, got)
}

func TestStateRootEmptyDelta(t *testing.T) {
	crossCheck(t, graph.Empty(), nil)
}

func TestStateRootSingleItemDelta(t *testing.T) {
	warp := ident.NewWarpId("root")
	typeId := ident.NewTypeId("particle")
	crossCheck(t, graph.Empty(), []delta.WarpOp{addNodeOp(warp, typeId, 0)})
}

func TestStateRootMatchesReconstructedStoreAcrossTicks(t *testing.T) {
	warp := ident.NewWarpId("root")
	typeId := ident.NewTypeId("particle")

	base := graph.Empty()
	var allOps []delta.WarpOp
	for i := uint32(0); i < 30; i++ {
		op := addNodeOp(warp, typeId, i)
		allOps = append(allOps, op)
	}
	crossCheck(t, base, allOps)

	next, err := base.Apply(allOps)
	require.NoError(t, err)

	removeOps := []delta.WarpOp{{Variant: delta.VariantRemoveNode, WarpId: warp, TargetNode: addNodeOp(warp, typeId, 5).TargetNode}}
	crossCheck(t, next, removeOps)
}

func TestStateRootReflectsAttachmentUpdate(t *testing.T) {
	warp := ident.NewWarpId("root")
	typeId := ident.NewTypeId("particle")
	addOp := addNodeOp(warp, typeId, 0)

	base, err := graph.Empty().Apply([]delta.WarpOp{addOp})
	require.NoError(t, err)

	setAttach := delta.WarpOp{
		Variant:    delta.VariantSetAttachment,
		WarpId:     warp,
		TargetNode: addOp.TargetNode,
		Attachment: delta.AttachmentFields{Payload: delta.AtomPayload{TypeId: typeId, Bytes: []byte{9, 9}}},
	}
	crossCheck(t, base, []delta.WarpOp{setAttach})
}
