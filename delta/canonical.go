package delta

import "github.com/warpgraph/warpengine/ident"

// CanonicalBytes returns op's full canonical byte representation:
// variant, warp, target, then whichever field group the variant
// selects. This carries strictly more than WarpOpKey (which exists
// only for sorting) because the patch digest and the Full-mode receipt
// payload must change whenever an op's content changes, not just its
// target — and the payload must be replayable, not just a checksum.
func (op WarpOp) CanonicalBytes() []byte {
	var b []byte
	b = append(b, byte(op.Variant))
	b = append(b, op.WarpId.Bytes()...)
	b = append(b, op.targetBytes()...)

	switch op.Variant {
	case VariantAddNode, VariantUpdateNode:
		b = append(b, op.Node.TypeId.Bytes()...)
		b = append(b, op.Node.WarpId.Bytes()...)
		b = appendAtomPayload(b, op.Node.Payload)
	case VariantAddEdge, VariantUpdateEdge:
		b = append(b, op.Edge.From.Bytes()...)
		b = append(b, op.Edge.To.Bytes()...)
		b = append(b, op.Edge.TypeId.Bytes()...)
		b = append(b, op.Edge.WarpId.Bytes()...)
		b = appendAtomPayload(b, op.Edge.Payload)
	case VariantSetAttachment:
		b = appendAtomPayload(b, &op.Attachment.Payload)
	}
	return b
}

// WriteCanonical absorbs op.CanonicalBytes() into ctx.
func (op WarpOp) WriteCanonical(ctx *ident.Context) {
	ctx.Write(op.CanonicalBytes())
}

func appendAtomPayload(b []byte, p *AtomPayload) []byte {
	if p == nil {
		return append(b, 0)
	}
	b = append(b, 1)
	b = append(b, p.TypeId.Bytes()...)
	var lenBuf [4]byte
	putUint32(lenBuf[:], uint32(len(p.Bytes)))
	b = append(b, lenBuf[:]...)
	b = append(b, p.Bytes...)
	return b
}

// PatchDigest hashes a canonically-ordered entry sequence under the
// "patch.v1" tag: an op count, then each op's WriteCanonical bytes in
// order. Entries must already be in (WarpOpKey, OpOrigin) order — the
// same order Finalize/Merge produce — so the digest is a pure function
// of tick content, not of execution order.
func PatchDigest(entries []Entry) ident.Hash {
	ctx := ident.NewContext(ident.TagPatch)
	ctx.WriteUint64(uint64(len(entries)))
	for _, e := range entries {
		e.Op.WriteCanonical(ctx)
	}
	return ctx.Sum()
}
