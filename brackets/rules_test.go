package brackets

import (
	"testing"

	"github.com/courtflow/scheduler/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutoGenerateRules_NonPooledSource(t *testing.T) {
	phases := []models.Phase{
		{Name: "Qualifier", Type: models.PhaseRoundRobin, SortOrder: 1, AdvancingSlotCount: 4},
		{Name: "Playoff", Type: models.PhaseSingleElimination, SortOrder: 2},
	}

	rules := AutoGenerateRules(phases, RuleGenOptions{})
	require.Len(t, rules, 4)
	for i, r := range rules {
		assert.Equal(t, 1, r.SourcePhaseOrder)
		assert.Equal(t, 2, r.TargetPhaseOrder)
		assert.Equal(t, i+1, r.FinishPosition)
		assert.Equal(t, i+1, r.TargetSlotNumber)
		assert.Nil(t, r.SourcePoolIndex)
	}
}

func TestAutoGenerateRules_PooledInterleave(t *testing.T) {
	phases := []models.Phase{
		{Name: "Pools", Type: models.PhasePools, SortOrder: 1, PoolCount: 2, AdvancingSlotCount: 4},
		{Name: "Playoff", Type: models.PhaseSingleElimination, SortOrder: 2},
	}

	rules := AutoGenerateRules(phases, RuleGenOptions{})
	require.Len(t, rules, 4)

	// Finish positions interleave across pools: both winners first, then both
	// runners-up.
	expect := []struct {
		pool, finish, slot int
	}{
		{0, 1, 1},
		{1, 1, 2},
		{0, 2, 3},
		{1, 2, 4},
	}
	for i, e := range expect {
		require.NotNil(t, rules[i].SourcePoolIndex)
		assert.Equal(t, e.pool, *rules[i].SourcePoolIndex)
		assert.Equal(t, e.finish, rules[i].FinishPosition)
		assert.Equal(t, e.slot, rules[i].TargetSlotNumber)
	}
}

func TestAutoGenerateRules_RemainderToLowPoolsByDefault(t *testing.T) {
	phases := []models.Phase{
		{Name: "Pools", Type: models.PhasePools, SortOrder: 1, PoolCount: 3, AdvancingSlotCount: 4},
		{Name: "Playoff", Type: models.PhaseSingleElimination, SortOrder: 2},
	}

	rules := AutoGenerateRules(phases, RuleGenOptions{})
	require.Len(t, rules, 4)

	// floor(4/3)=1 per pool, the leftover slot goes to pool 0's runner-up.
	last := rules[3]
	require.NotNil(t, last.SourcePoolIndex)
	assert.Equal(t, 0, *last.SourcePoolIndex)
	assert.Equal(t, 2, last.FinishPosition)
	assert.Equal(t, 4, last.TargetSlotNumber)
}

func TestAutoGenerateRules_RemainderToHighPools(t *testing.T) {
	phases := []models.Phase{
		{Name: "Pools", Type: models.PhasePools, SortOrder: 1, PoolCount: 3, AdvancingSlotCount: 4},
		{Name: "Playoff", Type: models.PhaseSingleElimination, SortOrder: 2},
	}

	rules := AutoGenerateRules(phases, RuleGenOptions{RemainderToHighPools: true})
	require.Len(t, rules, 4)

	last := rules[3]
	require.NotNil(t, last.SourcePoolIndex)
	assert.Equal(t, 2, *last.SourcePoolIndex)
	assert.Equal(t, 2, last.FinishPosition)
}

func TestAutoGenerateRules_AwardPhasesExcluded(t *testing.T) {
	phases := []models.Phase{
		{Name: "Bracket", Type: models.PhaseSingleElimination, SortOrder: 1, AdvancingSlotCount: 2},
		{Name: "Medals", Type: models.PhaseAward, SortOrder: 2},
	}
	assert.Empty(t, AutoGenerateRules(phases, RuleGenOptions{}))
}

func TestAutoGenerateRules_ChainedPhases(t *testing.T) {
	phases := []models.Phase{
		{Name: "Pools", Type: models.PhasePools, SortOrder: 1, PoolCount: 2, AdvancingSlotCount: 2},
		{Name: "Semis", Type: models.PhaseBracketRound, SortOrder: 2, AdvancingSlotCount: 2},
		{Name: "Final", Type: models.PhaseBracketRound, SortOrder: 3},
	}

	rules := AutoGenerateRules(phases, RuleGenOptions{})
	require.Len(t, rules, 4)

	bySource := make(map[int]int)
	for _, r := range rules {
		bySource[r.SourcePhaseOrder]++
	}
	assert.Equal(t, 2, bySource[1])
	assert.Equal(t, 2, bySource[2])
}

func TestAutoGenerateRules_Idempotent(t *testing.T) {
	phases := []models.Phase{
		{Name: "Pools", Type: models.PhasePools, SortOrder: 1, PoolCount: 3, AdvancingSlotCount: 5},
		{Name: "Playoff", Type: models.PhaseSingleElimination, SortOrder: 2},
	}

	first := AutoGenerateRules(phases, RuleGenOptions{})
	second := AutoGenerateRules(phases, RuleGenOptions{})
	assert.Equal(t, first, second)
}

func TestAutoGenerateRules_UnsortedInputPhases(t *testing.T) {
	phases := []models.Phase{
		{Name: "Playoff", Type: models.PhaseSingleElimination, SortOrder: 2},
		{Name: "Qualifier", Type: models.PhaseRoundRobin, SortOrder: 1, AdvancingSlotCount: 2},
	}

	rules := AutoGenerateRules(phases, RuleGenOptions{})
	require.Len(t, rules, 2)
	assert.Equal(t, 1, rules[0].SourcePhaseOrder)
	assert.Equal(t, 2, rules[0].TargetPhaseOrder)
}
