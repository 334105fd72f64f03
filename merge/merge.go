// Package merge implements the Merger: it combines N worker-local
// TickDeltas into one canonical TickDelta and catches footprint-model
// violations that should be structurally impossible.
package merge

import (
	"fmt"

	"github.com/warpgraph/warpengine/delta"
)

// Conflict is returned when two admitted rewrites, which the scheduler
// believed had disjoint footprints, turn out to have written the same
// target with incompatible content. Under a correct footprint model
// this is unreachable; Merge's conflict check exists as a loud safety
// net, not a routine code path.
type Conflict struct {
	Key     delta.WarpOpKey
	OriginA delta.OpOrigin
	OriginB delta.OpOrigin
}

func (c *Conflict) Error() string {
	return fmt.Sprintf("merge: conflicting origins %+v and %+v for key %x", c.OriginA, c.OriginB, c.Key.Bytes())
}

// Merge concatenates every worker's entries, sorts stably by
// (WarpOpKey, OpOrigin), deduplicates adjacent identical (op, origin)
// pairs, and checks for same-key-different-origin-different-content
// collisions. On success it returns the canonical entries; on conflict
// it returns a *Conflict and the tick must abort with the store
// untouched.
func Merge(workerEntries [][]delta.Entry) ([]delta.Entry, error) {
	var all []delta.Entry
	for _, entries := range workerEntries {
		all = append(all, entries...)
	}

	delta.SortEntries(all)
	all = dedupeAdjacent(all)

	for i := 1; i < len(all); i++ {
		prev, cur := all[i-1], all[i]
		if !delta.KeyOf(prev.Op).Equal(delta.KeyOf(cur.Op)) {
			continue
		}
		// Same key survived dedup, so origins or contents differ.
		if !delta.SameOpBody(prev.Op, cur.Op) {
			return nil, &Conflict{Key: delta.KeyOf(cur.Op), OriginA: prev.Origin, OriginB: cur.Origin}
		}
	}

	return all, nil
}

func dedupeAdjacent(entries []delta.Entry) []delta.Entry {
	if len(entries) == 0 {
		return entries
	}
	out := entries[:1]
	for _, e := range entries[1:] {
		last := out[len(out)-1]
		if delta.KeyOf(last.Op).Equal(delta.KeyOf(e.Op)) && last.Origin.Equal(e.Origin) && delta.SameOpBody(last.Op, e.Op) {
			continue
		}
		out = append(out, e)
	}
	return out
}
