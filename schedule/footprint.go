// Package schedule implements reservation of non-overlapping rewrite
// footprints: given a batch of candidate matches, it greedily admits a
// conflict-free subset in a deterministic order, the same way on every
// machine and for every worker count. The admitted subset is not
// necessarily the largest possible one.
package schedule

import "github.com/warpgraph/warpengine/ident"

// Footprint is the pair of node/edge sets a candidate rewrite reads and
// writes, scoped by warp. Two footprints conflict iff
// writesA ∩ (readsB ∪ writesB) ≠ ∅, or symmetrically.
type Footprint struct {
	WarpId ident.WarpId
	Reads  Scope
	Writes Scope
}

// Scope is a set of node and edge ids, the unit a Footprint's read and
// write sets are built from.
type Scope struct {
	Nodes map[ident.NodeId]struct{}
	Edges map[ident.EdgeId]struct{}
}

// NewScope builds a Scope from the given node and edge ids.
func NewScope(nodes []ident.NodeId, edges []ident.EdgeId) Scope {
	s := Scope{Nodes: make(map[ident.NodeId]struct{}, len(nodes)), Edges: make(map[ident.EdgeId]struct{}, len(edges))}
	for _, n := range nodes {
		s.Nodes[n] = struct{}{}
	}
	for _, e := range edges {
		s.Edges[e] = struct{}{}
	}
	return s
}

func (s Scope) intersects(other Scope) bool {
	for n := range s.Nodes {
		if _, ok := other.Nodes[n]; ok {
			return true
		}
	}
	for e := range s.Edges {
		if _, ok := other.Edges[e]; ok {
			return true
		}
	}
	return false
}

func (s Scope) union(other Scope) Scope {
	out := Scope{Nodes: make(map[ident.NodeId]struct{}, len(s.Nodes)+len(other.Nodes)), Edges: make(map[ident.EdgeId]struct{}, len(s.Edges)+len(other.Edges))}
	for n := range s.Nodes {
		out.Nodes[n] = struct{}{}
	}
	for n := range other.Nodes {
		out.Nodes[n] = struct{}{}
	}
	for e := range s.Edges {
		out.Edges[e] = struct{}{}
	}
	for e := range other.Edges {
		out.Edges[e] = struct{}{}
	}
	return out
}

func (f Footprint) union() Scope {
	return f.Reads.union(f.Writes)
}

// conflictsWith reports whether f and other cannot both be admitted:
// either's writes intersect the other's reads-or-writes. A footprint is
// always allowed to conflict with itself (local read-modify-write), so
// this is only ever called pairwise between distinct candidates.
func (f Footprint) conflictsWith(other Footprint) bool {
	if f.WarpId != other.WarpId {
		return false
	}
	return f.Writes.intersects(other.union()) || other.Writes.intersects(f.union())
}

// ScopeHash is the canonical hash of a footprint's warp, read set, and
// write set (each set hashed separately, in id order), the primary key
// candidates are sorted by before admission.
func ScopeHash(f Footprint) ident.Hash {
	ctx := ident.NewContext(ident.TagWarpKey)
	ctx.Write(f.WarpId.Bytes())
	writeSortedNodes(ctx, f.Reads.Nodes)
	writeSortedNodes(ctx, f.Writes.Nodes)
	writeSortedEdges(ctx, f.Reads.Edges)
	writeSortedEdges(ctx, f.Writes.Edges)
	return ctx.Sum()
}

func writeSortedNodes(ctx *ident.Context, set map[ident.NodeId]struct{}) {
	ids := make([]ident.NodeId, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sortNodeIds(ids)
	ctx.WriteUint32(uint32(len(ids)))
	for _, id := range ids {
		ctx.Write(id.Bytes())
	}
}

func writeSortedEdges(ctx *ident.Context, set map[ident.EdgeId]struct{}) {
	ids := make([]ident.EdgeId, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sortEdgeIds(ids)
	ctx.WriteUint32(uint32(len(ids)))
	for _, id := range ids {
		ctx.Write(id.Bytes())
	}
}
