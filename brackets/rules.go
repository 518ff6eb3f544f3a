package brackets

import (
	"sort"

	"github.com/courtflow/scheduler/models"
)

// RuleGenOptions tunes AutoGenerateRules. The zero value gives the default
// policy.
type RuleGenOptions struct {
	// RemainderToHighPools sends the A%P leftover advancement slots of an
	// unevenly advancing pools phase to the highest-indexed pools instead of
	// the lowest. The exact remainder placement is a policy choice, not a
	// correctness requirement, so it stays configurable.
	RemainderToHighPools bool
}

// AutoGenerateRules derives a default advancement rule set from the phase
// list alone. Each phase feeds the next one in sort order; award phases
// neither feed nor receive. The derivation is pure and idempotent: the same
// phase list always yields the same rules.
//
// A non-pooled source with advancing count A emits (finish 1..A) ->
// (slot 1..A). A pools source with P pools and A total advancing emits
// floor(A/P) rules per pool, interleaved across the target's incoming slots
// (slot 1 = pool 0 finish 1, slot 2 = pool 1 finish 1, ...), with the A%P
// remainder distributed one extra rule per pool according to opts.
func AutoGenerateRules(phases []models.Phase, opts RuleGenOptions) []models.AdvancementRule {
	ordered := append([]models.Phase(nil), phases...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].SortOrder < ordered[j].SortOrder })

	var rules []models.AdvancementRule
	for i := 0; i+1 < len(ordered); i++ {
		source, target := ordered[i], ordered[i+1]
		if source.Type == models.PhaseAward || target.Type == models.PhaseAward {
			continue
		}

		a := source.AdvancingSlotCount
		if a <= 0 {
			continue
		}

		if source.Type == models.PhasePools && source.PoolCount > 1 {
			rules = append(rules, poolRules(source, target, a, opts)...)
			continue
		}

		for finish := 1; finish <= a; finish++ {
			rules = append(rules, models.AdvancementRule{
				SourcePhaseOrder: source.SortOrder,
				FinishPosition:   finish,
				TargetPhaseOrder: target.SortOrder,
				TargetSlotNumber: finish,
			})
		}
	}
	return rules
}

func poolRules(source, target models.Phase, advancing int, opts RuleGenOptions) []models.AdvancementRule {
	p := source.PoolCount
	perPool := advancing / p
	remainder := advancing % p

	// counts[i] is how many finish positions advance out of pool i.
	counts := make([]int, p)
	for i := range counts {
		counts[i] = perPool
	}
	for i := 0; i < remainder; i++ {
		if opts.RemainderToHighPools {
			counts[p-1-i]++
		} else {
			counts[i]++
		}
	}

	maxFinish := perPool
	if remainder > 0 {
		maxFinish++
	}

	var rules []models.AdvancementRule
	slot := 1
	for finish := 1; finish <= maxFinish; finish++ {
		for pool := 0; pool < p; pool++ {
			if finish > counts[pool] {
				continue
			}
			idx := pool
			rules = append(rules, models.AdvancementRule{
				SourcePhaseOrder: source.SortOrder,
				SourcePoolIndex:  &idx,
				FinishPosition:   finish,
				TargetPhaseOrder: target.SortOrder,
				TargetSlotNumber: slot,
			})
			slot++
		}
	}
	return rules
}
