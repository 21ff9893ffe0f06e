// Package enrichment implements the wave scheduler and orchestrator that
// run the fifteen intelligence modules for a domain to completion.
package enrichment

import "github.com/aristath/sentinel/internal/modules"

// WaveCount is the number of sequential dependency waves every execution
// plan is partitioned into.
const WaveCount = 4

// criticalModuleDefault aborts waves 2-4 when it fails, since every module
// in those waves either depends on it directly or depends on something that
// does.
const criticalModuleDefault = "m01_company_context"

// ModuleAvgTimes informs the ETA model; values are seconds, drawn from
// observed module latencies in a representative run.
var ModuleAvgTimes = map[string]float64{
	"m01_company_context":        10,
	"m02_technology_stack":       15,
	"m03_traffic_analysis":       8,
	"m04_financial_profile":      12,
	"m05_competitor_intelligence": 20,
	"m06_hiring_signals":         12,
	"m07_strategic_context":      8,
	"m08_investor_intelligence":  15,
	"m09_executive_intelligence": 10,
	"m10_buying_committee":       8,
	"m11_displacement_analysis":  12,
	"m12_case_study_matching":    5,
	"m13_icp_priority_mapping":   8,
	"m14_signal_scoring":         5,
	"m15_strategic_brief":        10,
}

// ExecutionPlan groups module IDs by wave in the order they must run.
type ExecutionPlan struct {
	Waves [][]string
}

// BuildExecutionPlan partitions every registered module into its declared
// wave, preserving registration order within each wave. M15's "ALL"
// dependency means it always sorts last within its wave.
func BuildExecutionPlan(registry *modules.Registry) ExecutionPlan {
	waveBuckets := make([][]string, WaveCount)
	for _, id := range registry.IDs() {
		mod, ok := registry.New(id)
		if !ok {
			continue
		}
		w := mod.Wave()
		if w < 1 {
			w = 1
		}
		if w > WaveCount {
			w = WaveCount
		}
		waveBuckets[w-1] = append(waveBuckets[w-1], id)
	}

	// Within the final wave, modules with an "ALL" dependency (more deps
	// than any sibling not depending on the rest of that wave) run last.
	last := waveBuckets[WaveCount-1]
	reordered := make([]string, 0, len(last))
	var synthesis []string
	for _, id := range last {
		mod, _ := registry.New(id)
		if len(mod.DependsOn()) >= len(last)-1 {
			synthesis = append(synthesis, id)
			continue
		}
		reordered = append(reordered, id)
	}
	waveBuckets[WaveCount-1] = append(reordered, synthesis...)

	return ExecutionPlan{Waves: waveBuckets}
}

// EstimateExecutionTime sums the slowest module's average time per wave
// (modules within a wave run in parallel).
func EstimateExecutionTime(plan ExecutionPlan) float64 {
	total := 0.0
	for _, wave := range plan.Waves {
		slowest := 0.0
		for _, id := range wave {
			if t := ModuleAvgTimes[id]; t > slowest {
				slowest = t
			}
		}
		total += slowest
	}
	return total
}
