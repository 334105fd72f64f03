// Package exec implements the BOAW (Batched Ordered Atomic Writes)
// executor: it runs every admitted rewrite's executor function against
// a single frozen graph view and collects per-worker deltas. Two
// backends exist — Serial and Sharded — and they are observationally
// equivalent: the Merger's canonical sort makes the result identical
// regardless of which one produced it or how many workers it used.
package exec

import (
	"github.com/warpgraph/warpengine/delta"
	"github.com/warpgraph/warpengine/graph"
	"github.com/warpgraph/warpengine/ident"
)

// NumShards is the FROZEN protocol constant bounding shard parallelism.
// Worker counts above NumShards never increase parallelism: at most
// NumShards shards exist to claim.
const NumShards = 256

// ShardOf computes the virtual shard a scope key routes to. It is
// byte-stable across platforms by construction: a single byte index
// into a fixed modulus, no host-dependent hashing involved.
func ShardOf(scopeKey []byte) int {
	if len(scopeKey) == 0 {
		return 0
	}
	return int(scopeKey[0]) % NumShards
}

// RunFunc is a rewrite rule's executor body: given a read-only view and
// a scoped emitter, it emits zero or more ops. It must never attempt to
// mutate the store — the View interface offers no mutation methods, so
// this is enforced by the type system rather than a runtime check.
type RunFunc func(view graph.View, emit *delta.ScopedEmitter)

// ExecItem is one admitted rewrite ready to run: which intent/rule/match
// it belongs to (threaded into OpOrigin), the scope key used for shard
// routing, and the executor body itself.
type ExecItem struct {
	IntentId ident.IntentId
	RuleId   ident.RuleId
	MatchIx  uint32
	ScopeKey []byte
	Run      RunFunc
}

func runItem(item ExecItem, view graph.View) []delta.Entry {
	emitter := delta.NewScopedEmitter(item.IntentId, item.RuleId, item.MatchIx)
	item.Run(view, emitter)
	return emitter.Entries()
}
