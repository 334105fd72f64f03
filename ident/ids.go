package ident

// NodeId, EdgeId, TypeId, WarpId, RuleId, IntentId, ChannelId, WorldlineId,
// CursorId, and SessionId are transparent newtypes around Hash.
// They are distinct Go types so the compiler rejects passing a NodeId
// where an EdgeId is expected, even though both are structurally a
// [Size]byte under the hood.
//
// NodeId and EdgeId are derived identifiers: they are produced by hashing
// a creation witness (see NewNodeId/NewEdgeId), never chosen by a caller.
// RuleId, ChannelId, and WarpId are also content-derived, from their
// declared name, so two engines that register the same rule under the
// same name always compute the same RuleId. SessionId is the one
// identifier in this list that is *not* content-derived — it identifies
// an ephemeral client connection, not a piece of graph state, so it is
// minted fresh per session (see engine.NewSessionId).

type NodeId Hash
type EdgeId Hash
type TypeId Hash
type WarpId Hash
type RuleId Hash
type IntentId Hash
type ChannelId Hash
type WorldlineId Hash
type CursorId Hash
type SessionId Hash

func (n NodeId) String() string      { return Hash(n).String() }
func (e EdgeId) String() string      { return Hash(e).String() }
func (t TypeId) String() string      { return Hash(t).String() }
func (w WarpId) String() string      { return Hash(w).String() }
func (r RuleId) String() string      { return Hash(r).String() }
func (i IntentId) String() string    { return Hash(i).String() }
func (c ChannelId) String() string   { return Hash(c).String() }
func (w WorldlineId) String() string { return Hash(w).String() }
func (c CursorId) String() string    { return Hash(c).String() }
func (s SessionId) String() string   { return Hash(s).String() }

func (n NodeId) Bytes() []byte      { return Hash(n).Bytes() }
func (e EdgeId) Bytes() []byte      { return Hash(e).Bytes() }
func (t TypeId) Bytes() []byte      { return Hash(t).Bytes() }
func (w WarpId) Bytes() []byte      { return Hash(w).Bytes() }
func (r RuleId) Bytes() []byte      { return Hash(r).Bytes() }
func (i IntentId) Bytes() []byte    { return Hash(i).Bytes() }
func (c ChannelId) Bytes() []byte   { return Hash(c).Bytes() }
func (w WorldlineId) Bytes() []byte { return Hash(w).Bytes() }
func (c CursorId) Bytes() []byte    { return Hash(c).Bytes() }
func (s SessionId) Bytes() []byte   { return Hash(s).Bytes() }

func (n NodeId) Less(other NodeId) bool         { return Hash(n).Less(Hash(other)) }
func (e EdgeId) Less(other EdgeId) bool         { return Hash(e).Less(Hash(other)) }
func (c ChannelId) Less(other ChannelId) bool   { return Hash(c).Less(Hash(other)) }
func (r RuleId) Less(other RuleId) bool         { return Hash(r).Less(Hash(other)) }
func (w WorldlineId) Less(other WorldlineId) bool { return Hash(w).Less(Hash(other)) }
func (c CursorId) Less(other CursorId) bool       { return Hash(c).Less(Hash(other)) }

// NewTypeId derives a TypeId from a stable type name. Types are declared
// once by name (e.g. "motion.particle") and referenced everywhere by the
// derived id, so two engines that agree on type names always agree on
// TypeId without any central allocator.
func NewTypeId(name string) TypeId {
	return TypeId(HashConcat(TagNode, []byte("type\x00"), []byte(name)))
}

// NewWarpId derives a WarpId from a stable warp name. The root warp (the
// default scope most rewrites operate in) is NewWarpId("root").
func NewWarpId(name string) WarpId {
	return WarpId(HashConcat(TagNode, []byte("warp\x00"), []byte(name)))
}

// NewRuleId derives a RuleId from a rule's declared name. Incorporated
// into the schema hash so two engines with differing rule registries
// cannot produce matching commit hashes by accident.
func NewRuleId(name string) RuleId {
	return RuleId(HashConcat(TagNode, []byte("rule\x00"), []byte(name)))
}

// NewChannelId derives a ChannelId from a stable channel name.
func NewChannelId(name string) ChannelId {
	return ChannelId(HashConcat(TagNode, []byte("channel\x00"), []byte(name)))
}

// NewWorldlineId derives a WorldlineId from a stable worldline name —
// the identity of one independent commit history.
func NewWorldlineId(name string) WorldlineId {
	return WorldlineId(HashConcat(TagNode, []byte("worldline\x00"), []byte(name)))
}

// NewIntentId derives the IntentId an engine mints once per tick, from
// the warp and tick number rather than any host-local counter, so two
// engines replaying the same warp at the same tick agree on it without
// coordination.
func NewIntentId(warpId WarpId, tick uint64) IntentId {
	ctx := NewContext(TagNode)
	ctx.Write([]byte("intent\x00")).Write(warpId.Bytes()).WriteUint64(tick)
	return IntentId(ctx.Sum())
}

// NewCursorId derives the CursorId for one (session, worldline, tick)
// position: a debugger session's pointer into a specific point in a
// specific worldline's history. Two cursors pointing at the same
// position under the same session compare equal even if recomputed
// independently.
func NewCursorId(sessionId SessionId, worldlineId WorldlineId, tick uint64) CursorId {
	ctx := NewContext(TagNode)
	ctx.Write([]byte("cursor\x00")).Write(sessionId.Bytes()).Write(worldlineId.Bytes()).WriteUint64(tick)
	return CursorId(ctx.Sum())
}

// CreationWitness is the canonical byte witness a node or edge is hashed
// from at creation time: enough information that two independent workers
// proposing to create "the same" entity derive the same id, while two
// workers creating logically distinct entities (different warp, type, or
// origin) never collide.
type CreationWitness struct {
	WarpId    WarpId
	TypeId    TypeId
	RuleId    RuleId
	IntentId  IntentId
	MatchIx   uint32
	LocalSeq  uint32 // op_ix within the rule's emission stream
}

// NewNodeId derives a NodeId from a creation witness, under the "node"
// domain tag so it can never collide with an EdgeId built from identical
// field values.
func NewNodeId(w CreationWitness) NodeId {
	ctx := NewContext(TagNode)
	ctx.Write(w.WarpId.Bytes()).Write(w.TypeId.Bytes()).Write(w.RuleId.Bytes()).Write(w.IntentId.Bytes())
	ctx.WriteUint32(w.MatchIx).WriteUint32(w.LocalSeq)
	return NodeId(ctx.Sum())
}

// NewEdgeId derives an EdgeId from a creation witness plus its
// endpoints, under the "edge" domain tag.
func NewEdgeId(w CreationWitness, from, to NodeId) EdgeId {
	ctx := NewContext(TagEdge)
	ctx.Write(w.WarpId.Bytes()).Write(w.TypeId.Bytes()).Write(w.RuleId.Bytes()).Write(w.IntentId.Bytes())
	ctx.WriteUint32(w.MatchIx).WriteUint32(w.LocalSeq)
	ctx.Write(from.Bytes()).Write(to.Bytes())
	return EdgeId(ctx.Sum())
}
