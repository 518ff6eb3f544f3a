package brackets

import (
	"testing"

	"github.com/courtflow/scheduler/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validStructuredTemplate() *models.Template {
	return &models.Template{
		Name: "pools into playoff",
		Kind: models.TemplateStructured,
		Phases: []models.Phase{
			{Name: "Pool Play", Type: models.PhasePools, SortOrder: 1, PoolCount: 2, AdvancingSlotCount: 4},
			{Name: "Playoff", Type: models.PhaseSingleElimination, SortOrder: 2, IncomingSlotCount: 4},
		},
		Rules: []models.AdvancementRule{
			{SourcePhaseOrder: 1, SourcePoolIndex: intPtr(0), FinishPosition: 1, TargetPhaseOrder: 2, TargetSlotNumber: 1},
			{SourcePhaseOrder: 1, SourcePoolIndex: intPtr(1), FinishPosition: 1, TargetPhaseOrder: 2, TargetSlotNumber: 2},
			{SourcePhaseOrder: 1, SourcePoolIndex: intPtr(0), FinishPosition: 2, TargetPhaseOrder: 2, TargetSlotNumber: 3},
			{SourcePhaseOrder: 1, SourcePoolIndex: intPtr(1), FinishPosition: 2, TargetPhaseOrder: 2, TargetSlotNumber: 4},
		},
	}
}

func intPtr(i int) *int { return &i }

func violationCodes(violations []Violation) []string {
	codes := make([]string, 0, len(violations))
	for _, v := range violations {
		codes = append(codes, v.Code)
	}
	return codes
}

func TestValidateTemplate_ValidStructured(t *testing.T) {
	violations := ValidateTemplate(validStructuredTemplate())
	assert.Empty(t, violations)
	assert.True(t, Activatable(violations))
}

func TestValidateTemplate_NoPhases(t *testing.T) {
	tpl := &models.Template{Name: "empty", Kind: models.TemplateStructured}
	violations := ValidateTemplate(tpl)
	assert.Contains(t, violationCodes(violations), "no_phases")
	assert.False(t, Activatable(violations))
}

func TestValidateTemplate_DuplicateSortOrder(t *testing.T) {
	tpl := validStructuredTemplate()
	tpl.Phases[1].SortOrder = 1
	violations := ValidateTemplate(tpl)
	codes := violationCodes(violations)
	assert.Contains(t, codes, "duplicate_sort_order")
	assert.Contains(t, codes, "sort_order_gap")
	assert.False(t, Activatable(violations))
}

func TestValidateTemplate_SortOrderGap(t *testing.T) {
	tpl := validStructuredTemplate()
	tpl.Phases[1].SortOrder = 3
	tpl.Rules = nil
	violations := ValidateTemplate(tpl)
	assert.Contains(t, violationCodes(violations), "sort_order_gap")
}

func TestValidateTemplate_RuleReferencesMissingPhases(t *testing.T) {
	tpl := validStructuredTemplate()
	tpl.Rules = append(tpl.Rules, models.AdvancementRule{
		SourcePhaseOrder: 9, FinishPosition: 1, TargetPhaseOrder: 8, TargetSlotNumber: 5,
	})
	codes := violationCodes(ValidateTemplate(tpl))
	assert.Contains(t, codes, "rule_source_missing")
	assert.Contains(t, codes, "rule_target_missing")
}

func TestValidateTemplate_DuplicateTargetSlot(t *testing.T) {
	tpl := validStructuredTemplate()
	tpl.Rules[3].TargetSlotNumber = 1
	codes := violationCodes(ValidateTemplate(tpl))
	assert.Contains(t, codes, "duplicate_target_slot")
}

func TestValidateTemplate_PoolIndexOnNonPools(t *testing.T) {
	tpl := &models.Template{
		Name: "bad pool ref",
		Kind: models.TemplateStructured,
		Phases: []models.Phase{
			{Name: "Bracket", Type: models.PhaseSingleElimination, SortOrder: 1, AdvancingSlotCount: 1},
			{Name: "Final", Type: models.PhaseBracketRound, SortOrder: 2},
		},
		Rules: []models.AdvancementRule{
			{SourcePhaseOrder: 1, SourcePoolIndex: intPtr(0), FinishPosition: 1, TargetPhaseOrder: 2, TargetSlotNumber: 1},
		},
	}
	codes := violationCodes(ValidateTemplate(tpl))
	assert.Contains(t, codes, "pool_index_on_non_pools")
}

func TestValidateTemplate_PoolIndexOutOfRange(t *testing.T) {
	tpl := validStructuredTemplate()
	tpl.Rules[0].SourcePoolIndex = intPtr(2)
	codes := violationCodes(ValidateTemplate(tpl))
	assert.Contains(t, codes, "pool_index_out_of_range")
}

func TestValidateTemplate_AdvancingCountMismatchIsWarning(t *testing.T) {
	tpl := validStructuredTemplate()
	tpl.Rules = tpl.Rules[:3]

	violations := ValidateTemplate(tpl)
	require.Len(t, violations, 1)
	assert.Equal(t, "advancing_count_mismatch", violations[0].Code)
	assert.Equal(t, SeverityWarning, violations[0].Severity)
	// Warnings never block activation.
	assert.True(t, Activatable(violations))
}

func TestValidateTemplate_AdvancingPhaseWithoutRulesWarns(t *testing.T) {
	tpl := validStructuredTemplate()
	tpl.Rules = nil

	violations := ValidateTemplate(tpl)
	require.Len(t, violations, 1)
	assert.Equal(t, "advancing_count_mismatch", violations[0].Code)
	assert.Equal(t, SeverityWarning, violations[0].Severity)
}

func TestValidateTemplate_TerminalPhaseNeedsNoRules(t *testing.T) {
	tpl := &models.Template{
		Name: "single bracket",
		Kind: models.TemplateStructured,
		Phases: []models.Phase{
			{Name: "Bracket", Type: models.PhaseSingleElimination, SortOrder: 1, AdvancingSlotCount: 2},
		},
	}
	assert.Empty(t, ValidateTemplate(tpl))
}

func TestValidateTemplate_FlexibleMissingSpec(t *testing.T) {
	tpl := &models.Template{Name: "flex", Kind: models.TemplateFlexible}
	codes := violationCodes(ValidateTemplate(tpl))
	assert.Contains(t, codes, "missing_bracket_spec")
}

func TestValidateTemplate_FlexibleUnsupportedKind(t *testing.T) {
	tpl := &models.Template{
		Name:            "flex pools",
		Kind:            models.TemplateFlexible,
		GenerateBracket: &models.GenerateBracketSpec{Type: models.PhasePools},
	}
	codes := violationCodes(ValidateTemplate(tpl))
	assert.Contains(t, codes, "unsupported_bracket_kind")
}

func TestValidateTemplate_FlexibleValid(t *testing.T) {
	tpl := &models.Template{
		Name:            "flex knockout",
		Kind:            models.TemplateFlexible,
		GenerateBracket: &models.GenerateBracketSpec{Type: models.PhaseDoubleElimination},
	}
	assert.Empty(t, ValidateTemplate(tpl))
}

func TestValidateTemplate_InvalidPhaseType(t *testing.T) {
	tpl := validStructuredTemplate()
	tpl.Phases[0].Type = "ladder"
	codes := violationCodes(ValidateTemplate(tpl))
	assert.Contains(t, codes, "invalid_phase_type")
}
