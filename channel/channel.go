// Package channel implements materialization channels: a side bus that
// routes executor-emitted named entries (not graph ops) to named
// channels under a declared policy, independent of the graph-rewrite
// pipeline in package graph/delta/merge.
package channel

import (
	"fmt"
	"sort"

	"github.com/warpgraph/warpengine/ident"
)

// Policy selects how a channel combines multiple emissions within one
// tick.
type Policy uint8

const (
	// PolicyStrictSingle allows exactly one emission per tick; a second
	// emission in the same tick is a conflict recorded at finalize.
	PolicyStrictSingle Policy = iota
	// PolicyReduce folds all of a tick's emissions together with a
	// commutative reducer, applied in canonical emission order.
	PolicyReduce
	// PolicyLog appends every emission; no conflict is possible.
	PolicyLog
)

// Reducer commutatively folds two emission byte strings into one. It
// must be associative and commutative — canonical order is guaranteed,
// but callers should not rely on any particular pairing order beyond
// that guarantee.
type Reducer func(a, b []byte) []byte

// Emission is one named entry an executor produced this tick, destined
// for a channel rather than the graph.
type Emission struct {
	ChannelId ident.ChannelId
	RuleId    ident.RuleId
	MatchIx   uint32
	Bytes     []byte
}

// StrictSingleConflict reports two emissions racing for the same
// StrictSingle channel within one tick.
type StrictSingleConflict struct {
	ChannelId ident.ChannelId
	A, B      Emission
}

func (c *StrictSingleConflict) Error() string {
	return fmt.Sprintf("channel: strict-single conflict on channel %s", c.ChannelId)
}

// Declaration registers a channel's policy (and its reducer, for
// PolicyReduce).
type Declaration struct {
	Policy  Policy
	Reducer Reducer
}

// Bus collects one tick's emissions across every declared channel and
// finalizes them into per-channel results.
type Bus struct {
	declarations map[ident.ChannelId]Declaration
	emissions    map[ident.ChannelId][]Emission
}

// NewBus returns a Bus with the given channel declarations.
func NewBus(declarations map[ident.ChannelId]Declaration) *Bus {
	return &Bus{
		declarations: declarations,
		emissions:    make(map[ident.ChannelId][]Emission),
	}
}

// Emit buffers e against its channel. Emitting to an undeclared channel
// is not an error here — Finalize is where it surfaces, as an entry in
// FinalizeReport.Errors rather than a panic.
func (b *Bus) Emit(e Emission) {
	b.emissions[e.ChannelId] = append(b.emissions[e.ChannelId], e)
}

// ChannelResult is one channel's finalized outcome.
type ChannelResult struct {
	ChannelId ident.ChannelId
	Bytes     []byte
}

// FinalizeReport is the result of Finalize: per-channel results plus any
// policy-violation errors. Finalize never throws; a conflict in one
// channel is recorded here and does not discard any other channel's
// data.
type FinalizeReport struct {
	Channels []ChannelResult
	Errors   []error
}

// Finalize resolves every channel that received at least one emission
// this tick according to its declared policy, in channel lex order.
func (b *Bus) Finalize() FinalizeReport {
	var report FinalizeReport

	ids := make([]ident.ChannelId, 0, len(b.emissions))
	for id := range b.emissions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })

	for _, id := range ids {
		entries := b.emissions[id]
		decl, declared := b.declarations[id]
		if !declared {
			report.Errors = append(report.Errors, fmt.Errorf("channel: emission to undeclared channel %s", id))
			continue
		}
		result, err := resolve(id, decl, entries)
		if err != nil {
			report.Errors = append(report.Errors, err)
			continue
		}
		report.Channels = append(report.Channels, result)
	}
	return report
}

func resolve(id ident.ChannelId, decl Declaration, entries []Emission) (ChannelResult, error) {
	switch decl.Policy {
	case PolicyStrictSingle:
		if len(entries) > 1 {
			return ChannelResult{}, &StrictSingleConflict{ChannelId: id, A: entries[0], B: entries[1]}
		}
		return ChannelResult{ChannelId: id, Bytes: entries[0].Bytes}, nil
	case PolicyReduce:
		ordered := canonicalOrder(entries)
		acc := ordered[0].Bytes
		for _, e := range ordered[1:] {
			acc = decl.Reducer(acc, e.Bytes)
		}
		return ChannelResult{ChannelId: id, Bytes: acc}, nil
	case PolicyLog:
		ordered := canonicalOrder(entries)
		var out []byte
		for _, e := range ordered {
			out = append(out, e.Bytes...)
		}
		return ChannelResult{ChannelId: id, Bytes: out}, nil
	default:
		return ChannelResult{}, fmt.Errorf("channel: unknown policy %d for channel %s", decl.Policy, id)
	}
}

// canonicalOrder sorts emissions by (RuleId, MatchIx) so Reduce and Log
// results are independent of worker count or emission arrival order.
func canonicalOrder(entries []Emission) []Emission {
	out := make([]Emission, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RuleId != out[j].RuleId {
			return out[i].RuleId.Less(out[j].RuleId)
		}
		return out[i].MatchIx < out[j].MatchIx
	})
	return out
}

// EmissionsDigest hashes (channel_id, reduced_bytes) pairs from a
// finalize report in channel lex order, committing to materialization
// output the same way commit_hash commits to graph state.
func EmissionsDigest(results []ChannelResult) ident.Hash {
	ordered := make([]ChannelResult, len(results))
	copy(ordered, results)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].ChannelId.Less(ordered[j].ChannelId)
	})

	ctx := ident.NewContext(ident.TagEmit)
	for _, r := range ordered {
		ctx.Write(r.ChannelId.Bytes())
		ctx.WriteUint32(uint32(len(r.Bytes)))
		ctx.Write(r.Bytes)
	}
	return ctx.Sum()
}
