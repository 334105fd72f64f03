package graph

import (
	"github.com/warpgraph/warpengine/delta"
	"github.com/warpgraph/warpengine/ident"
)

// CanonicalStateHash computes the state root in the fixed order used by
// every component that ever hashes graph state, so the GraphStore and
// the SnapshotAccumulator always agree given the same logical contents.
//
//  1. Domain tag "state.v2".
//  2. A little-endian u64 node count.
//  3. hashNode(record) for every node in NodeId lex order.
//  4. A little-endian u64 edge count, then hashEdge(record) for every
//     edge in EdgeId lex order.
//  5. Finalize.
func (s *Store) CanonicalStateHash() ident.Hash {
	ctx := ident.NewContext(ident.TagState)
	ctx.WriteUint64(uint64(s.NodeCount()))
	s.IterNodes(func(n *NodeRecord) bool {
		h := HashNode(n)
		ctx.Write(h.Bytes())
		return true
	})
	ctx.WriteUint64(uint64(s.EdgeCount()))
	s.IterEdges(func(e *EdgeRecord) bool {
		h := HashEdge(e)
		ctx.Write(h.Bytes())
		return true
	})
	return ctx.Sum()
}

// HashNode hashes a single node: the "node" tag, then id, type, and warp
// bytes, then the payload under "attach" if present or a zero tag if
// not. Two nodes with identical payload bytes under different TypeIds
// hash differently because the payload's own TypeId is absorbed too.
//
// Exported so the SnapshotAccumulator can emit the identical hash
// stream from its columnar tables without reconstructing a Store.
func HashNode(n *NodeRecord) ident.Hash {
	ctx := ident.NewContext(ident.TagNode)
	ctx.Write(n.Id.Bytes()).Write(n.TypeId.Bytes()).Write(n.WarpId.Bytes())
	writePayload(ctx, n.Payload)
	return ctx.Sum()
}

// HashEdge hashes a single edge: the "edge" tag, id, endpoint ids, type,
// warp, then payload exactly as HashNode does.
func HashEdge(e *EdgeRecord) ident.Hash {
	ctx := ident.NewContext(ident.TagEdge)
	ctx.Write(e.Id.Bytes()).Write(e.From.Bytes()).Write(e.To.Bytes())
	ctx.Write(e.TypeId.Bytes()).Write(e.WarpId.Bytes())
	writePayload(ctx, e.Payload)
	return ctx.Sum()
}

// writePayload absorbs an optional AtomPayload into ctx under the
// "attach" tag plus a u32 length prefix, or a single zero byte if the
// payload is absent. The zero byte can never be mistaken for a present
// payload because TagAttach's first byte is 'a', not 0x00.
func writePayload(ctx *ident.Context, p *delta.AtomPayload) {
	if p == nil {
		ctx.WriteByte(0)
		return
	}
	ctx.Write([]byte(ident.TagAttach))
	ctx.Write(p.TypeId.Bytes())
	ctx.WriteUint32(uint32(len(p.Bytes)))
	ctx.Write(p.Bytes)
}
