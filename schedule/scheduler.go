package schedule

import (
	"bytes"
	"sort"

	"github.com/warpgraph/warpengine/ident"
)

// Candidate is one rule match awaiting admission: a rule, the match
// index within that rule's emission for this tick, and the footprint
// it declares it will read and write.
type Candidate struct {
	RuleId    ident.RuleId
	MatchIx   uint32
	FamilyId  uint32 // stable rule-class tiebreaker
	Footprint Footprint
}

// Scheduler reserves non-overlapping footprints across the lifetime of
// a single tick transaction. It holds no state across ticks: FinalizeTx
// clears every reservation, and deferred candidates are never retained
// — they simply re-arise from matching on the next tick if still
// applicable.
type Scheduler struct {
	reservedWrites map[ident.WarpId]Scope
	reservedReads  map[ident.WarpId]Scope
}

// New returns a Scheduler with an empty reservation set.
func New() *Scheduler {
	return &Scheduler{
		reservedWrites: make(map[ident.WarpId]Scope),
		reservedReads:  make(map[ident.WarpId]Scope),
	}
}

// Reserve sorts candidates by (scope_hash, family_id) and, scanning in
// that order, admits every candidate that does not conflict with what
// is already reserved. A candidate that conflicts with an already-admitted
// one is deferred: it is simply dropped from the returned set, not
// queued anywhere.
//
// A candidate may read and write overlapping scopes itself (local
// read-modify-write) without being rejected — conflictsWith only
// compares distinct candidates, never a footprint against itself.
func (s *Scheduler) Reserve(candidates []Candidate) []Candidate {
	ordered := make([]Candidate, len(candidates))
	copy(ordered, candidates)
	keys := make([]ident.Hash, len(ordered))
	for i, c := range ordered {
		keys[i] = ScopeHash(c.Footprint)
	}
	idx := indexRange(len(ordered))
	sort.SliceStable(idx, func(i, j int) bool {
		a, b := idx[i], idx[j]
		if c := bytes.Compare(keys[a].Bytes(), keys[b].Bytes()); c != 0 {
			return c < 0
		}
		return ordered[a].FamilyId < ordered[b].FamilyId
	})

	admitted := make([]Candidate, 0, len(ordered))
	for _, i := range idx {
		c := ordered[i]
		if s.admits(c.Footprint) {
			s.reserve(c.Footprint)
			admitted = append(admitted, c)
		}
	}
	return admitted
}

func indexRange(n int) []int {
	r := make([]int, n)
	for i := range r {
		r[i] = i
	}
	return r
}

func (s *Scheduler) admits(f Footprint) bool {
	writes, okW := s.reservedWrites[f.WarpId]
	reads, okR := s.reservedReads[f.WarpId]
	if !okW && !okR {
		return true
	}
	reserved := Footprint{WarpId: f.WarpId, Reads: reads, Writes: writes}
	return !f.conflictsWith(reserved)
}

func (s *Scheduler) reserve(f Footprint) {
	s.reservedWrites[f.WarpId] = unionInto(s.reservedWrites[f.WarpId], f.Writes)
	s.reservedReads[f.WarpId] = unionInto(s.reservedReads[f.WarpId], f.Reads)
}

func unionInto(existing Scope, add Scope) Scope {
	if existing.Nodes == nil {
		existing = Scope{Nodes: make(map[ident.NodeId]struct{}), Edges: make(map[ident.EdgeId]struct{})}
	}
	return existing.union(add)
}

// FinalizeTx clears all reservations, readying the scheduler for the
// next tick's candidates.
func (s *Scheduler) FinalizeTx() {
	s.reservedWrites = make(map[ident.WarpId]Scope)
	s.reservedReads = make(map[ident.WarpId]Scope)
}
