// Package graph implements the typed graph store: immutable node/edge
// tables, a read-only View for matchers and executors, and the
// canonical state hash that must be a pure, order-independent function
// of store contents.
package graph

import (
	"github.com/warpgraph/warpengine/delta"
	"github.com/warpgraph/warpengine/ident"
)

// NodeRecord is a stored node: { id, type_id, warp_id, payload }.
// Neighbors are derived from the edge table rather than stored inline —
// the store's edge index is the single source of truth for adjacency,
// so a node and its incident edges can never disagree about who is
// connected to whom.
type NodeRecord struct {
	Id      ident.NodeId
	TypeId  ident.TypeId
	WarpId  ident.WarpId
	Payload *delta.AtomPayload
}

// EdgeRecord is a stored edge. Both endpoints must exist in the store at
// commit time; this is enforced by Apply, not by EdgeRecord itself,
// since intermediate op application order may transiently reference
// not-yet-created nodes within the same ordered op list.
type EdgeRecord struct {
	Id     ident.EdgeId
	From   ident.NodeId
	To     ident.NodeId
	TypeId ident.TypeId
	WarpId ident.WarpId
	Payload *delta.AtomPayload
}

// clone returns a value copy of a NodeRecord safe to hand to a caller
// without risking them mutating store-owned state; the Payload's byte
// slice is copied too.
func (n *NodeRecord) clone() *NodeRecord {
	if n == nil {
		return nil
	}
	cp := *n
	cp.Payload = clonePayload(n.Payload)
	return &cp
}

func (e *EdgeRecord) clone() *EdgeRecord {
	if e == nil {
		return nil
	}
	cp := *e
	cp.Payload = clonePayload(e.Payload)
	return &cp
}

func clonePayload(p *delta.AtomPayload) *delta.AtomPayload {
	if p == nil {
		return nil
	}
	b := make([]byte, len(p.Bytes))
	copy(b, p.Bytes)
	return &delta.AtomPayload{TypeId: p.TypeId, Bytes: b}
}
