// Package snapshot implements the SnapshotAccumulator: it produces the
// next state_root directly from a base view plus a canonical op list,
// in columnar form, without reconstructing a full graph store.
package snapshot

import (
	"sort"

	"github.com/warpgraph/warpengine/delta"
	"github.com/warpgraph/warpengine/graph"
	"github.com/warpgraph/warpengine/ident"
)

// nodeColumn and edgeColumn are the columnar overlays ops are sorted
// into by index: touched holds the final value an id should hash as,
// removed marks ids that must be excluded from the stream entirely.
type nodeColumn struct {
	touched map[ident.NodeId]*graph.NodeRecord
	removed map[ident.NodeId]struct{}
}

type edgeColumn struct {
	touched map[ident.EdgeId]*graph.EdgeRecord
	removed map[ident.EdgeId]struct{}
}

// Accumulator computes a state_root from a base view and a list of ops
// without ever materializing a full replacement Store. It is built
// fresh per tick from Apply's arguments.
type Accumulator struct {
	base  graph.View
	nodes nodeColumn
	edges edgeColumn
}

// New returns an Accumulator over base with empty columns.
func New(base graph.View) *Accumulator {
	return &Accumulator{
		base: base,
		nodes: nodeColumn{
			touched: make(map[ident.NodeId]*graph.NodeRecord),
			removed: make(map[ident.NodeId]struct{}),
		},
		edges: edgeColumn{
			touched: make(map[ident.EdgeId]*graph.EdgeRecord),
			removed: make(map[ident.EdgeId]struct{}),
		},
	}
}

// Apply indexes ops into the columnar tables by WarpOp variant. It does
// not validate DuplicateInsert/MissingTarget/DanglingEdge — that is the
// GraphStore's job when it actually applies the same ops; the
// accumulator assumes ops already passed that check (or that the engine
// is running in delta-validate mode, which cross-checks this exact
// assumption against a reconstructed store).
func (a *Accumulator) Apply(ops []delta.WarpOp) {
	for _, op := range ops {
		switch op.Variant {
		case delta.VariantAddNode, delta.VariantUpdateNode:
			a.nodes.touched[op.TargetNode] = &graph.NodeRecord{
				Id: op.TargetNode, TypeId: op.Node.TypeId, WarpId: op.Node.WarpId, Payload: op.Node.Payload,
			}
			delete(a.nodes.removed, op.TargetNode)
		case delta.VariantRemoveNode:
			delete(a.nodes.touched, op.TargetNode)
			a.nodes.removed[op.TargetNode] = struct{}{}
		case delta.VariantAddEdge, delta.VariantUpdateEdge:
			a.edges.touched[op.TargetEdge] = &graph.EdgeRecord{
				Id: op.TargetEdge, From: op.Edge.From, To: op.Edge.To,
				TypeId: op.Edge.TypeId, WarpId: op.Edge.WarpId, Payload: op.Edge.Payload,
			}
			delete(a.edges.removed, op.TargetEdge)
		case delta.VariantRemoveEdge:
			delete(a.edges.touched, op.TargetEdge)
			a.edges.removed[op.TargetEdge] = struct{}{}
		case delta.VariantSetAttachment:
			a.applyAttachment(op, &op.Attachment.Payload)
		case delta.VariantRemoveAttachment:
			a.applyAttachment(op, nil)
		}
	}
}

func (a *Accumulator) applyAttachment(op delta.WarpOp, payload *delta.AtomPayload) {
	if n := a.resolveNode(op.TargetNode); n != nil {
		cp := *n
		cp.Payload = payload
		a.nodes.touched[op.TargetNode] = &cp
		return
	}
	if e := a.resolveEdge(op.TargetEdge); e != nil {
		cp := *e
		cp.Payload = payload
		a.edges.touched[op.TargetEdge] = &cp
	}
}

func (a *Accumulator) resolveNode(id ident.NodeId) *graph.NodeRecord {
	if n, ok := a.nodes.touched[id]; ok {
		return n
	}
	if _, removed := a.nodes.removed[id]; removed {
		return nil
	}
	if n, ok := a.base.GetNode(id); ok {
		return n
	}
	return nil
}

func (a *Accumulator) resolveEdge(id ident.EdgeId) *graph.EdgeRecord {
	if e, ok := a.edges.touched[id]; ok {
		return e
	}
	if _, removed := a.edges.removed[id]; removed {
		return nil
	}
	if e, ok := a.base.GetEdge(id); ok {
		return e
	}
	return nil
}

// StateRoot emits the canonical hash stream from base ⊕ ops: the same
// domain-tag order and lex sort graph.Store.CanonicalStateHash uses,
// but reading node/edge values from the columnar overlay rather than a
// reconstructed store.
func (a *Accumulator) StateRoot() ident.Hash {
	nodeIds := a.finalNodeIds()
	edgeIds := a.finalEdgeIds()

	ctx := ident.NewContext(ident.TagState)
	ctx.WriteUint64(uint64(len(nodeIds)))
	for _, id := range nodeIds {
		h := graph.HashNode(a.resolveNode(id))
		ctx.Write(h.Bytes())
	}
	ctx.WriteUint64(uint64(len(edgeIds)))
	for _, id := range edgeIds {
		h := graph.HashEdge(a.resolveEdge(id))
		ctx.Write(h.Bytes())
	}
	return ctx.Sum()
}

func (a *Accumulator) finalNodeIds() []ident.NodeId {
	seen := make(map[ident.NodeId]struct{})
	var ids []ident.NodeId
	a.base.IterNodes(func(n *graph.NodeRecord) bool {
		if _, removed := a.nodes.removed[n.Id]; removed {
			return true
		}
		seen[n.Id] = struct{}{}
		ids = append(ids, n.Id)
		return true
	})
	for id := range a.nodes.touched {
		if _, ok := seen[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
	return ids
}

func (a *Accumulator) finalEdgeIds() []ident.EdgeId {
	seen := make(map[ident.EdgeId]struct{})
	var ids []ident.EdgeId
	a.base.IterEdges(func(e *graph.EdgeRecord) bool {
		if _, removed := a.edges.removed[e.Id]; removed {
			return true
		}
		seen[e.Id] = struct{}{}
		ids = append(ids, e.Id)
		return true
	})
	for id := range a.edges.touched {
		if _, ok := seen[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
	return ids
}
