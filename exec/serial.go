package exec

import (
	"github.com/warpgraph/warpengine/delta"
	"github.com/warpgraph/warpengine/graph"
)

// Serial runs admitted ExecItems one at a time, in admission order,
// driving each with a fresh ScopedEmitter and concatenating the results.
// It is the reference backend: Sharded must always agree with it after
// the Merger's canonical sort.
type Serial struct{}

func (Serial) Run(items []ExecItem, view graph.View) ([]delta.Entry, error) {
	var entries []delta.Entry
	for _, item := range items {
		entries = append(entries, runItem(item, view)...)
	}
	return entries, nil
}
