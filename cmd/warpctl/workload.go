package main

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/warpgraph/warpengine/delta"
	"github.com/warpgraph/warpengine/graph"
	"github.com/warpgraph/warpengine/ident"
	"github.com/warpgraph/warpengine/rules"
)

// genesisRuleId tags the creation witness for seeded particles. It is
// never registered as a RewriteRule — seeding runs once, before any
// tick, directly against an empty Store — so it never contributes to
// schema_hash.
var genesisRuleId = ident.NewRuleId("warpctl/genesis")

// ParticleSpec is one seeded motion.particle's initial position and
// velocity, as read from a workload YAML file.
type ParticleSpec struct {
	Name string     `yaml:"name"`
	Pos  [3]float64 `yaml:"pos"`
	Vel  [3]float64 `yaml:"vel"`
}

// Workload is the top-level shape of a warpctl workload file: how many
// ticks to run, how many executor workers to use, and the particles to
// seed the worldline with.
type Workload struct {
	Ticks     int            `yaml:"ticks"`
	Workers   int            `yaml:"workers"`
	Particles []ParticleSpec `yaml:"particles"`
}

// DefaultWorkload is used when no --config file is given: a handful of
// particles on simple linear trajectories, enough to exercise the
// motion rule over several ticks.
func DefaultWorkload() Workload {
	return Workload{
		Ticks:   10,
		Workers: 4,
		Particles: []ParticleSpec{
			{Name: "a", Pos: [3]float64{0, 0, 0}, Vel: [3]float64{1, 0, 0}},
			{Name: "b", Pos: [3]float64{10, 0, 0}, Vel: [3]float64{-1, 0.5, 0}},
			{Name: "c", Pos: [3]float64{0, 10, 0}, Vel: [3]float64{0.25, -0.25, 0.5}},
		},
	}
}

// LoadWorkload reads a YAML workload file from path.
func LoadWorkload(path string) (Workload, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Workload{}, err
	}
	var w Workload
	if err := yaml.Unmarshal(b, &w); err != nil {
		return Workload{}, err
	}
	return w, nil
}

// Seed builds the genesis Store for w: one motion.particle node per
// ParticleSpec, under warpId, with ids derived from a dedicated genesis
// creation witness so re-running Seed with the same workload and warp
// name always produces the same node ids.
func Seed(warpId ident.WarpId, w Workload) (*graph.Store, error) {
	intentId := ident.NewIntentId(warpId, 0)
	ops := make([]delta.WarpOp, 0, len(w.Particles))
	for i, p := range w.Particles {
		witness := ident.CreationWitness{
			WarpId:   warpId,
			TypeId:   rules.MotionTypeId,
			RuleId:   genesisRuleId,
			IntentId: intentId,
			MatchIx:  0,
			LocalSeq: uint32(i),
		}
		nodeId := ident.NewNodeId(witness)
		state := rules.MotionState{
			Pos: [3]ident.Q32_32{
				ident.NewQ32_32FromFloat64(p.Pos[0]),
				ident.NewQ32_32FromFloat64(p.Pos[1]),
				ident.NewQ32_32FromFloat64(p.Pos[2]),
			},
			Vel: [3]ident.Q32_32{
				ident.NewQ32_32FromFloat64(p.Vel[0]),
				ident.NewQ32_32FromFloat64(p.Vel[1]),
				ident.NewQ32_32FromFloat64(p.Vel[2]),
			},
		}
		ops = append(ops, delta.WarpOp{
			Variant:    delta.VariantAddNode,
			WarpId:     warpId,
			TargetNode: nodeId,
			Node: delta.NodeFields{
				TypeId:  rules.MotionTypeId,
				WarpId:  warpId,
				Payload: rules.NewMotionNodePayload(state),
			},
		})
	}
	return graph.Empty().Apply(ops)
}
