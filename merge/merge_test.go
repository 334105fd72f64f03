package merge

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/warpgraph/warpengine/delta"
	"github.com/warpgraph/warpengine/ident"
)

func TestMergeDedupesIdenticalEntriesAcrossWorkers(t *testing.T) {
	warp := ident.NewWarpId("root")
	typeId := ident.NewTypeId("particle")
	target := ident.NewNodeId(ident.CreationWitness{TypeId: typeId})
	op := delta.WarpOp{Variant: delta.VariantUpdateNode, WarpId: warp, TargetNode: target, Node: delta.NodeFields{TypeId: typeId, WarpId: warp}}
	origin := delta.OpOrigin{RuleId: ident.NewRuleId("r")}

	w1 := []delta.Entry{{Op: op, Origin: origin}}
	w2 := []delta.Entry{{Op: op, Origin: origin}}

	merged, err := Merge([][]delta.Entry{w1, w2})
	require.NoError(t, err)
	require.Len(t, merged, 1)
}

func TestMergeDetectsConflictingWrites(t *testing.T) {
	warp := ident.NewWarpId("root")
	typeId := ident.NewTypeId("particle")
	target := ident.NewNodeId(ident.CreationWitness{TypeId: typeId})

	opA := delta.WarpOp{Variant: delta.VariantUpdateNode, WarpId: warp, TargetNode: target, Node: delta.NodeFields{TypeId: typeId, WarpId: warp}}
	opB := opA
	other := ident.NewTypeId("other")
	opB.Node.TypeId = other

	w1 := []delta.Entry{{Op: opA, Origin: delta.OpOrigin{RuleId: ident.NewRuleId("a")}}}
	w2 := []delta.Entry{{Op: opB, Origin: delta.OpOrigin{RuleId: ident.NewRuleId("b")}}}

	_, err := Merge([][]delta.Entry{w1, w2})
	require.Error(t, err)
	var conflict *Conflict
	require.ErrorAs(t, err, &conflict)
}

func TestMergeIsPermutationInvariant(t *testing.T) {
	warp := ident.NewWarpId("root")
	typeId := ident.NewTypeId("particle")

	var entries []delta.Entry
	for i := uint32(0); i < 50; i++ {
		target := ident.NewNodeId(ident.CreationWitness{TypeId: typeId, LocalSeq: i})
		op := delta.WarpOp{Variant: delta.VariantAddNode, WarpId: warp, TargetNode: target, Node: delta.NodeFields{TypeId: typeId, WarpId: warp}}
		entries = append(entries, delta.Entry{Op: op, Origin: delta.OpOrigin{RuleId: ident.NewRuleId("r"), OpIx: i}})
	}

	// Split into 1, 2, and 4 "workers" by different partitions of the
	// same entries; all partitionings must merge to the identical
	// canonical sequence.
	one := [][]delta.Entry{entries}
	two := [][]delta.Entry{entries[:25], entries[25:]}
	four := [][]delta.Entry{entries[:10], entries[10:25], entries[25:40], entries[40:]}

	m1, err := Merge(one)
	require.NoError(t, err)
	m2, err := Merge(two)
	require.NoError(t, err)
	m4, err := Merge(four)
	require.NoError(t, err)

	require.Equal(t, m1, m2)
	require.Equal(t, m1, m4)
}
