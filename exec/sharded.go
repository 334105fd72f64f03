package exec

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/warpgraph/warpengine/delta"
	"github.com/warpgraph/warpengine/graph"
)

// Sharded partitions ExecItems by ShardOf(item.ScopeKey) and runs up to
// min(Workers, NumShards) goroutines, each claiming unclaimed shards
// through a lockless atomic counter until none remain. Items within a
// shard run together, in their original admission order, for cache
// locality; which worker ends up processing which shard is not
// deterministic, but the Merger's canonical sort erases that
// non-determinism from the final result.
type Sharded struct {
	Workers int
}

func (s Sharded) Run(items []ExecItem, view graph.View) ([]delta.Entry, error) {
	buckets := make([][]ExecItem, NumShards)
	for _, item := range items {
		shard := ShardOf(item.ScopeKey)
		buckets[shard] = append(buckets[shard], item)
	}

	workers := s.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > NumShards {
		workers = NumShards
	}

	var nextShard int64
	results := make([][]delta.Entry, NumShards)

	g, _ := errgroup.WithContext(context.Background())
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for {
				shard := int(atomic.AddInt64(&nextShard, 1) - 1)
				if shard >= NumShards {
					return nil
				}
				if len(buckets[shard]) == 0 {
					continue
				}
				var local []delta.Entry
				for _, item := range buckets[shard] {
					local = append(local, runItem(item, view)...)
				}
				results[shard] = local
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var entries []delta.Entry
	for _, r := range results {
		entries = append(entries, r...)
	}
	return entries, nil
}
