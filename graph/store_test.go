package graph

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/warpgraph/warpengine/delta"
	"github.com/warpgraph/warpengine/ident"
)

func mkNodeOp(warp ident.WarpId, typeId ident.TypeId, seq uint32) (ident.NodeId, delta.WarpOp) {
	id := ident.NewNodeId(ident.CreationWitness{WarpId: warp, TypeId: typeId, LocalSeq: seq})
	op := delta.WarpOp{
		Variant:    delta.VariantAddNode,
		WarpId:     warp,
		TargetNode: id,
		Node:       delta.NodeFields{TypeId: typeId, WarpId: warp},
	}
	return id, op
}

func TestApplyRejectsOrphanEdge(t *testing.T) {
	warp := ident.NewWarpId("root")
	typeId := ident.NewTypeId("particle")
	a, addA := mkNodeOp(warp, typeId, 0)
	edgeId := ident.NewEdgeId(ident.CreationWitness{WarpId: warp, TypeId: typeId, LocalSeq: 1}, a, ident.NodeId{0xFF})

	addEdge := delta.WarpOp{
		Variant:    delta.VariantAddEdge,
		WarpId:     warp,
		TargetEdge: edgeId,
		Edge:       delta.EdgeFields{From: a, To: ident.NodeId{0xFF}, TypeId: typeId, WarpId: warp},
	}

	_, err := Empty().Apply([]delta.WarpOp{addA, addEdge})
	require.ErrorIs(t, err, ErrDanglingEdge)
}

func TestApplyDuplicateInsertRejected(t *testing.T) {
	warp := ident.NewWarpId("root")
	typeId := ident.NewTypeId("particle")
	_, addA := mkNodeOp(warp, typeId, 0)

	store, err := Empty().Apply([]delta.WarpOp{addA})
	require.NoError(t, err)

	_, err = store.Apply([]delta.WarpOp{addA})
	require.ErrorIs(t, err, ErrDuplicateInsert)
}

func TestApplyMissingTargetRejected(t *testing.T) {
	warp := ident.NewWarpId("root")
	typeId := ident.NewTypeId("particle")
	ghost, _ := mkNodeOp(warp, typeId, 99)

	update := delta.WarpOp{
		Variant:    delta.VariantUpdateNode,
		WarpId:     warp,
		TargetNode: ghost,
		Node:       delta.NodeFields{TypeId: typeId, WarpId: warp},
	}

	_, err := Empty().Apply([]delta.WarpOp{update})
	require.ErrorIs(t, err, ErrMissingTarget)
}

func TestApplyDanglingEdgeAfterRemoveEndpoint(t *testing.T) {
	warp := ident.NewWarpId("root")
	typeId := ident.NewTypeId("particle")
	a, addA := mkNodeOp(warp, typeId, 0)
	b, addB := mkNodeOp(warp, typeId, 1)
	edgeId := ident.NewEdgeId(ident.CreationWitness{WarpId: warp, TypeId: typeId, LocalSeq: 2}, a, b)
	addEdge := delta.WarpOp{
		Variant:    delta.VariantAddEdge,
		WarpId:     warp,
		TargetEdge: edgeId,
		Edge:       delta.EdgeFields{From: a, To: b, TypeId: typeId, WarpId: warp},
	}

	store, err := Empty().Apply([]delta.WarpOp{addA, addB, addEdge})
	require.NoError(t, err)
	require.Equal(t, 1, store.EdgeCount())

	removeB := delta.WarpOp{Variant: delta.VariantRemoveNode, WarpId: warp, TargetNode: b}
	_, err = store.Apply([]delta.WarpOp{removeB})
	require.ErrorIs(t, err, ErrDanglingEdge)
}

func TestCanonicalStateHashEmptyDelta(t *testing.T) {
	store, err := Empty().Apply(nil)
	require.NoError(t, err)
	require.Equal(t, Empty().CanonicalStateHash(), store.CanonicalStateHash())
}

func TestCanonicalStateHashIsOrderIndependentOfApplication(t *testing.T) {
	warp := ident.NewWarpId("root")
	typeId := ident.NewTypeId("particle")
	_, addA := mkNodeOp(warp, typeId, 0)
	_, addB := mkNodeOp(warp, typeId, 1)

	s1, err := Empty().Apply([]delta.WarpOp{addA, addB})
	require.NoError(t, err)
	s2, err := Empty().Apply([]delta.WarpOp{addB, addA})
	require.NoError(t, err)

	require.Equal(t, s1.CanonicalStateHash(), s2.CanonicalStateHash())
}

func TestCanonicalStateHashDistinguishesPayloadType(t *testing.T) {
	warp := ident.NewWarpId("root")
	typeA := ident.NewTypeId("type-a")
	typeB := ident.NewTypeId("type-b")
	bytes := []byte{1, 2, 3, 4}

	_, addOp := mkNodeOp(warp, typeA, 0)
	addOp.Node.Payload = &delta.AtomPayload{TypeId: typeA, Bytes: bytes}

	altOp := addOp
	altOp.Node.Payload = &delta.AtomPayload{TypeId: typeB, Bytes: bytes}

	s1, err := Empty().Apply([]delta.WarpOp{addOp})
	require.NoError(t, err)
	s2, err := Empty().Apply([]delta.WarpOp{altOp})
	require.NoError(t, err)

	require.NotEqual(t, s1.CanonicalStateHash(), s2.CanonicalStateHash())
}

func TestCanonicalStateHashStableForIdenticalContents(t *testing.T) {
	warp := ident.NewWarpId("root")
	typeId := ident.NewTypeId("particle")
	_, addA := mkNodeOp(warp, typeId, 0)

	s1, err := Empty().Apply([]delta.WarpOp{addA})
	require.NoError(t, err)
	h1 := s1.CanonicalStateHash()
	h2 := s1.CanonicalStateHash()
	require.Equal(t, h1, h2)
}

func TestViewIterationIsLexOrdered(t *testing.T) {
	warp := ident.NewWarpId("root")
	typeId := ident.NewTypeId("particle")
	var ops []delta.WarpOp
	for i := uint32(0); i < 20; i++ {
		_, op := mkNodeOp(warp, typeId, i)
		ops = append(ops, op)
	}
	store, err := Empty().Apply(ops)
	require.NoError(t, err)

	var seen []ident.NodeId
	store.IterNodes(func(n *NodeRecord) bool {
		seen = append(seen, n.Id)
		return true
	})
	require.Len(t, seen, 20)
	for i := 1; i < len(seen); i++ {
		require.True(t, seen[i-1].Less(seen[i]) || seen[i-1] == seen[i])
	}
}
