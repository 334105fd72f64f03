// Package delta implements the ordered, originated sequence of graph
// operations a tick produces (WarpOp, OpOrigin, TickDelta), and the
// canonical sort that makes that sequence worker-count- and
// permutation-invariant.
package delta

import (
	"bytes"
	"sort"

	"github.com/warpgraph/warpengine/ident"
)

// Variant tags the kind of WarpOp. The zero value is intentionally
// invalid (NOT AddNode) so a missing Variant assignment fails loudly
// instead of silently behaving like AddNode.
type Variant uint8

const (
	VariantInvalid Variant = iota
	VariantAddNode
	VariantUpdateNode
	VariantRemoveNode
	VariantAddEdge
	VariantUpdateEdge
	VariantRemoveEdge
	VariantSetAttachment
	VariantRemoveAttachment
)

func (v Variant) String() string {
	switch v {
	case VariantAddNode:
		return "AddNode"
	case VariantUpdateNode:
		return "UpdateNode"
	case VariantRemoveNode:
		return "RemoveNode"
	case VariantAddEdge:
		return "AddEdge"
	case VariantUpdateEdge:
		return "UpdateEdge"
	case VariantRemoveEdge:
		return "RemoveEdge"
	case VariantSetAttachment:
		return "SetAttachment"
	case VariantRemoveAttachment:
		return "RemoveAttachment"
	default:
		return "Invalid"
	}
}

// AtomPayload is the opaque (type, bytes) pair an engine never decodes
// on the rewrite hot path. Equal bytes under different TypeIds must
// hash differently — the canonical hash absorbs both.
type AtomPayload struct {
	TypeId ident.TypeId
	Bytes  []byte
}

// NodeFields is the canonical payload of an AddNode/UpdateNode op.
type NodeFields struct {
	TypeId  ident.TypeId
	WarpId  ident.WarpId
	Payload *AtomPayload // nil means "no payload"
}

// EdgeFields is the canonical payload of an AddEdge/UpdateEdge op.
type EdgeFields struct {
	From, To ident.NodeId
	TypeId   ident.TypeId
	WarpId   ident.WarpId
	Payload  *AtomPayload
}

// AttachmentFields is the canonical payload of a SetAttachment op.
type AttachmentFields struct {
	Payload AtomPayload
}

// WarpOp is a single graph mutation, tagged by Variant, scoped to a warp
// and targeting one node or edge id. Exactly one of the Node/Edge/
// Attachment field groups is meaningful, selected by Variant; the others
// are left zero. This prefers an exhaustive tagged variant over an open
// interface so no case can be silently dropped.
type WarpOp struct {
	Variant Variant
	WarpId  ident.WarpId

	// Target identifies what the op acts on. Exactly one is set,
	// matching Variant's node/edge-ness.
	TargetNode ident.NodeId
	TargetEdge ident.EdgeId

	Node       NodeFields
	Edge       EdgeFields
	Attachment AttachmentFields
}

// targetBytes returns the canonical target-id bytes used by WarpOpKey,
// selecting node or edge id bytes by variant.
func (op WarpOp) targetBytes() []byte {
	switch op.Variant {
	case VariantAddNode, VariantUpdateNode, VariantRemoveNode:
		return op.TargetNode.Bytes()
	case VariantAddEdge, VariantUpdateEdge, VariantRemoveEdge:
		return op.TargetEdge.Bytes()
	case VariantSetAttachment, VariantRemoveAttachment:
		// Attachments target either a node or an edge id; TargetNode is
		// used when TargetEdge is the zero value, since ids never
		// collide across domains (node ids are hashed under TagNode,
		// edge ids under TagEdge).
		if !ident.Hash(op.TargetEdge).IsZero() {
			return op.TargetEdge.Bytes()
		}
		return op.TargetNode.Bytes()
	default:
		return nil
	}
}

// OpOrigin records where an op came from: which intent and rule
// produced it, which match within that rule's emission, and the op's
// position within that match's emission stream. No worker identity is
// ever stored — this is the crux of making merge worker-count-invariant.
type OpOrigin struct {
	IntentId ident.IntentId
	RuleId   ident.RuleId
	MatchIx  uint32
	OpIx     uint32
}

// Bytes returns OpOrigin's canonical byte encoding, used as the
// secondary sort key after WarpOpKey.
func (o OpOrigin) Bytes() []byte {
	b := make([]byte, 0, ident.Size*2+8)
	b = append(b, o.IntentId.Bytes()...)
	b = append(b, o.RuleId.Bytes()...)
	var tmp [4]byte
	putUint32(tmp[:], o.MatchIx)
	b = append(b, tmp[:]...)
	putUint32(tmp[:], o.OpIx)
	b = append(b, tmp[:]...)
	return b
}

func (o OpOrigin) Less(other OpOrigin) bool {
	return bytes.Compare(o.Bytes(), other.Bytes()) < 0
}

func (o OpOrigin) Equal(other OpOrigin) bool {
	return o == other
}

func putUint32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

// WarpOpKey is the sortable key (warp_id, variant_tag, target_id_bytes).
// Ops targeting the same local id in different warps sort distinctly
// because WarpId is the leading sort component.
type WarpOpKey struct {
	WarpId  ident.WarpId
	Variant Variant
	Target  []byte
}

func KeyOf(op WarpOp) WarpOpKey {
	return WarpOpKey{WarpId: op.WarpId, Variant: op.Variant, Target: op.targetBytes()}
}

func (k WarpOpKey) Bytes() []byte {
	b := make([]byte, 0, ident.Size+1+len(k.Target))
	b = append(b, k.WarpId.Bytes()...)
	b = append(b, byte(k.Variant))
	b = append(b, k.Target...)
	return b
}

func (k WarpOpKey) Less(other WarpOpKey) bool {
	return bytes.Compare(k.Bytes(), other.Bytes()) < 0
}

func (k WarpOpKey) Equal(other WarpOpKey) bool {
	return bytes.Equal(k.Bytes(), other.Bytes())
}

// Entry pairs an op with its origin, the unit the canonical sort and
// merge operate on.
type Entry struct {
	Op     WarpOp
	Origin OpOrigin
}

// SortEntries sorts entries by (WarpOpKey, OpOrigin), stably. This is
// the central determinism lemma: any permutation of the same entries
// sorts to the same byte-identical sequence.
func SortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		ki, kj := KeyOf(entries[i].Op), KeyOf(entries[j].Op)
		if !ki.Equal(kj) {
			return ki.Less(kj)
		}
		return entries[i].Origin.Less(entries[j].Origin)
	})
}
