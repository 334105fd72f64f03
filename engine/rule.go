package engine

import (
	"sort"

	"github.com/warpgraph/warpengine/delta"
	"github.com/warpgraph/warpengine/graph"
	"github.com/warpgraph/warpengine/ident"
	"github.com/warpgraph/warpengine/schedule"
)

// Match is one candidate rewrite a rule's Matcher found this tick. Data
// carries whatever the rule needs to recompute its footprint and drive
// its executor body — a matched NodeId, a pair of endpoints, anything
// the rule itself defines. The engine never inspects it.
type Match struct {
	Data any
}

// RewriteRule is a registered rewrite: a matcher that scans a frozen
// view for candidate matches, a footprint function describing what
// each match reads and writes, and an executor body that emits ops
// through a ScopedEmitter. None of the three may mutate the store.
type RewriteRule struct {
	Id       ident.RuleId
	FamilyId uint32

	Matcher     func(view graph.View) []Match
	FootprintOf func(view graph.View, m Match) schedule.Footprint
	Executor    func(view graph.View, m Match, emit *delta.ScopedEmitter)
}

// registry holds the engine's rule table and the schema hash derived
// from it. Two engines that register the same rules under the same
// names always compute the same schema hash, independent of
// registration order — schemaHash sorts by RuleId before hashing.
type registry struct {
	rules      []RewriteRule
	byId       map[ident.RuleId]int
	schemaHash ident.Hash
}

func newRegistry() *registry {
	return &registry{byId: make(map[ident.RuleId]int)}
}

func (r *registry) register(rule RewriteRule) error {
	if _, exists := r.byId[rule.Id]; exists {
		return &DuplicateRule{RuleId: rule.Id}
	}
	r.byId[rule.Id] = len(r.rules)
	r.rules = append(r.rules, rule)
	r.schemaHash = computeSchemaHash(r.rules)
	return nil
}

// computeSchemaHash hashes the sorted set of registered RuleIds under
// the "schema.1" domain tag. It is incorporated into every commit_hash
// so two engines with differing rule registries can never produce
// matching commit hashes by accident.
func computeSchemaHash(rules []RewriteRule) ident.Hash {
	ids := make([]ident.RuleId, len(rules))
	for i, r := range rules {
		ids[i] = r.Id
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })

	ctx := ident.NewContext(ident.TagSchema)
	ctx.WriteUint32(uint32(len(ids)))
	for _, id := range ids {
		ctx.Write(id.Bytes())
	}
	return ctx.Sum()
}
