package schedule

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/warpgraph/warpengine/ident"
)

func node(seed byte) ident.NodeId {
	var id ident.NodeId
	id[0] = seed
	return id
}

func TestReserveEmptyCandidatesYieldsEmptyAdmitted(t *testing.T) {
	s := New()
	require.Empty(t, s.Reserve(nil))
}

func TestReserveSelfConflictAllowed(t *testing.T) {
	warp := ident.NewWarpId("root")
	n := node(1)
	scope := NewScope([]ident.NodeId{n}, nil)

	c := Candidate{
		RuleId:    ident.NewRuleId("rmw"),
		Footprint: Footprint{WarpId: warp, Reads: scope, Writes: scope},
	}

	s := New()
	admitted := s.Reserve([]Candidate{c})
	require.Len(t, admitted, 1)
}

func TestReserveConflictingCandidatesOnlyFirstSortedWins(t *testing.T) {
	warp := ident.NewWarpId("root")
	n := node(7)
	scope := NewScope([]ident.NodeId{n}, nil)

	a := Candidate{RuleId: ident.NewRuleId("a"), FamilyId: 0, Footprint: Footprint{WarpId: warp, Writes: scope}}
	b := Candidate{RuleId: ident.NewRuleId("b"), FamilyId: 1, Footprint: Footprint{WarpId: warp, Writes: scope}}

	s := New()
	admitted := s.Reserve([]Candidate{a, b})
	require.Len(t, admitted, 1)

	// Whichever of a/b sorts first by (scope_hash, family_id) is the
	// winner; since both footprints are identical, scope_hash ties and
	// FamilyId breaks it — a (FamilyId 0) must win.
	require.Equal(t, a.RuleId, admitted[0].RuleId)
}

func TestReserveDisjointCandidatesBothAdmitted(t *testing.T) {
	warp := ident.NewWarpId("root")
	a := Candidate{RuleId: ident.NewRuleId("a"), Footprint: Footprint{WarpId: warp, Writes: NewScope([]ident.NodeId{node(1)}, nil)}}
	b := Candidate{RuleId: ident.NewRuleId("b"), Footprint: Footprint{WarpId: warp, Writes: NewScope([]ident.NodeId{node(2)}, nil)}}

	s := New()
	admitted := s.Reserve([]Candidate{a, b})
	require.Len(t, admitted, 2)
}

func TestFinalizeTxClearsReservations(t *testing.T) {
	warp := ident.NewWarpId("root")
	scope := NewScope([]ident.NodeId{node(3)}, nil)
	c := Candidate{RuleId: ident.NewRuleId("a"), Footprint: Footprint{WarpId: warp, Writes: scope}}

	s := New()
	require.Len(t, s.Reserve([]Candidate{c}), 1)
	require.Empty(t, s.Reserve([]Candidate{c})) // still reserved within the same tx

	s.FinalizeTx()
	require.Len(t, s.Reserve([]Candidate{c}), 1)
}

func TestReserveOrderIsPermutationInvariant(t *testing.T) {
	warp := ident.NewWarpId("root")
	var candidates []Candidate
	for i := byte(0); i < 10; i++ {
		candidates = append(candidates, Candidate{
			RuleId:    ident.NewRuleId("r"),
			FamilyId:  uint32(i),
			Footprint: Footprint{WarpId: warp, Writes: NewScope([]ident.NodeId{node(i)}, nil)},
		})
	}
	perm := []int{3, 1, 4, 9, 5, 0, 2, 6, 7, 8}
	shuffled := make([]Candidate, len(candidates))
	for i, p := range perm {
		shuffled[i] = candidates[p]
	}

	s1, s2 := New(), New()
	a1 := s1.Reserve(candidates)
	a2 := s2.Reserve(shuffled)
	require.Len(t, a1, 10)
	require.Len(t, a2, 10)

	keysOf := func(cs []Candidate) []ident.Hash {
		out := make([]ident.Hash, len(cs))
		for i, c := range cs {
			out[i] = ScopeHash(c.Footprint)
		}
		return out
	}
	require.Equal(t, keysOf(a1), keysOf(a2))
}
