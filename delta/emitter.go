package delta

import "github.com/warpgraph/warpengine/ident"

// ScopedEmitter is the only channel through which a rule's executor
// function may produce effects: executors never mutate the store, they
// only emit ops through the scoped emitter. It is scoped to one
// intent/rule/match so op_ix auto-increments correctly within that
// match's emission stream and OpOrigin never needs to be supplied by
// the caller.
type ScopedEmitter struct {
	intentId ident.IntentId
	ruleId   ident.RuleId
	matchIx  uint32
	nextOpIx uint32
	entries  []Entry
}

// NewScopedEmitter constructs an emitter for one (intent, rule, match)
// triple. The Executor creates one of these per admitted ExecItem.
func NewScopedEmitter(intentId ident.IntentId, ruleId ident.RuleId, matchIx uint32) *ScopedEmitter {
	return &ScopedEmitter{intentId: intentId, ruleId: ruleId, matchIx: matchIx}
}

// Emit pushes op with an auto-incrementing OpOrigin.OpIx.
func (e *ScopedEmitter) Emit(op WarpOp) {
	origin := OpOrigin{
		IntentId: e.intentId,
		RuleId:   e.ruleId,
		MatchIx:  e.matchIx,
		OpIx:     e.nextOpIx,
	}
	e.nextOpIx++
	e.entries = append(e.entries, Entry{Op: op, Origin: origin})
}

// Entries returns the emitter's buffered (op, origin) pairs, unsorted,
// in emission order.
func (e *ScopedEmitter) Entries() []Entry {
	return e.entries
}

// TickDelta is the ordered, positionally-paired (ops, origins) result of
// a tick, after canonical sort.
type TickDelta struct {
	entries []Entry
	sorted  bool
}

// NewTickDelta builds a TickDelta from unsorted entries collected across
// one or more ScopedEmitters (one per ExecItem in both the serial and
// the sharded backend), concatenated.
func NewTickDelta(entries []Entry) *TickDelta {
	return &TickDelta{entries: entries}
}

// IntoPartsUnsorted returns the ops and origins exactly as collected,
// without sorting or deduplication — used by the Merger, which performs
// its own sort/dedup/conflict pass over data gathered from multiple
// workers.
func (d *TickDelta) IntoPartsUnsorted() ([]WarpOp, []OpOrigin) {
	ops := make([]WarpOp, len(d.entries))
	origins := make([]OpOrigin, len(d.entries))
	for i, e := range d.entries {
		ops[i] = e.Op
		origins[i] = e.Origin
	}
	return ops, origins
}

// Entries exposes the raw entries, e.g. for the Merger to concatenate
// across workers before its own canonical pass.
func (d *TickDelta) Entries() []Entry {
	return d.entries
}

// Finalize sorts by (WarpOpKey, OpOrigin) stably and deduplicates
// adjacent identical (op, origin) pairs. Shuffling inputs, varying
// worker counts, and varying shard assignment all yield a byte-identical
// result after Finalize.
func (d *TickDelta) Finalize() {
	if d.sorted {
		return
	}
	SortEntries(d.entries)
	d.entries = dedupeAdjacent(d.entries)
	d.sorted = true
}

func dedupeAdjacent(entries []Entry) []Entry {
	if len(entries) == 0 {
		return entries
	}
	out := entries[:1]
	for _, e := range entries[1:] {
		last := out[len(out)-1]
		if KeyOf(last.Op).Equal(KeyOf(e.Op)) && last.Origin.Equal(e.Origin) && SameOpBody(last.Op, e.Op) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// SameOpBody reports whether a and b carry the same payload content,
// independent of origin — the equality notion Finalize and the Merger
// use to tell a defensive duplicate emission from a genuine conflict.
func SameOpBody(a, b WarpOp) bool {
	if a.Variant != b.Variant || a.WarpId != b.WarpId {
		return false
	}
	if a.TargetNode != b.TargetNode || a.TargetEdge != b.TargetEdge {
		return false
	}
	return payloadEqual(a, b)
}

func payloadEqual(a, b WarpOp) bool {
	switch a.Variant {
	case VariantAddNode, VariantUpdateNode:
		return a.Node.TypeId == b.Node.TypeId && a.Node.WarpId == b.Node.WarpId && atomPayloadEqual(a.Node.Payload, b.Node.Payload)
	case VariantAddEdge, VariantUpdateEdge:
		return a.Edge.From == b.Edge.From && a.Edge.To == b.Edge.To && a.Edge.TypeId == b.Edge.TypeId && atomPayloadEqual(a.Edge.Payload, b.Edge.Payload)
	case VariantSetAttachment:
		return atomPayloadEqual(&a.Attachment.Payload, &b.Attachment.Payload)
	default:
		return true
	}
}

func atomPayloadEqual(a, b *AtomPayload) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.TypeId != b.TypeId || len(a.Bytes) != len(b.Bytes) {
		return false
	}
	for i := range a.Bytes {
		if a.Bytes[i] != b.Bytes[i] {
			return false
		}
	}
	return true
}
