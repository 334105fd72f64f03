package schedule

import (
	"sort"

	"github.com/warpgraph/warpengine/ident"
)

func sortNodeIds(ids []ident.NodeId) {
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
}

func sortEdgeIds(ids []ident.EdgeId) {
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
}
