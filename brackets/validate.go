package brackets

import (
	"fmt"

	"github.com/courtflow/scheduler/models"
)

// Severity grades a violation: fatal violations block template activation,
// warnings are surfaced but do not.
type Severity string

const (
	SeverityFatal   Severity = "fatal"
	SeverityWarning Severity = "warning"
)

// Violation is one structural problem found in a candidate template.
type Violation struct {
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

func fatal(code, format string, args ...interface{}) Violation {
	return Violation{Code: code, Message: fmt.Sprintf(format, args...), Severity: SeverityFatal}
}

func warning(code, format string, args ...interface{}) Violation {
	return Violation{Code: code, Message: fmt.Sprintf(format, args...), Severity: SeverityWarning}
}

// Activatable reports whether a template with the given violations may be
// activated: warnings are fine, fatals are not.
func Activatable(violations []Violation) bool {
	for _, v := range violations {
		if v.Severity == SeverityFatal {
			return false
		}
	}
	return true
}

// ValidateTemplate checks every structural invariant of a candidate template
// and returns the violated ones. Violations are reported, never silently
// corrected. A flexible template ignores phases/rules entirely; only its
// generate-bracket spec is checked.
func ValidateTemplate(tpl *models.Template) []Violation {
	if tpl.Kind == models.TemplateFlexible {
		return validateFlexible(tpl)
	}
	return validateStructured(tpl)
}

func validateFlexible(tpl *models.Template) []Violation {
	var violations []Violation
	gb := tpl.GenerateBracket
	if gb == nil {
		return append(violations, fatal("missing_bracket_spec", "flexible template must carry a generate_bracket spec"))
	}
	switch gb.Type {
	case models.PhaseSingleElimination, models.PhaseDoubleElimination, models.PhaseRoundRobin, models.PhaseDraw:
	default:
		violations = append(violations, fatal("unsupported_bracket_kind",
			"generate_bracket type %q is not a supported bracket kind", gb.Type))
	}
	return violations
}

func validateStructured(tpl *models.Template) []Violation {
	var violations []Violation

	if len(tpl.Phases) == 0 {
		return append(violations, fatal("no_phases", "template must contain at least one phase"))
	}

	byOrder := make(map[int]*models.Phase, len(tpl.Phases))
	for i := range tpl.Phases {
		p := &tpl.Phases[i]
		if !p.Type.IsValid() {
			violations = append(violations, fatal("invalid_phase_type",
				"phase %q has unknown type %q", p.Name, p.Type))
		}
		if prev, dup := byOrder[p.SortOrder]; dup {
			violations = append(violations, fatal("duplicate_sort_order",
				"phases %q and %q share sort order %d", prev.Name, p.Name, p.SortOrder))
			continue
		}
		byOrder[p.SortOrder] = p
	}

	// Sort orders must be dense 1..N.
	for order := 1; order <= len(tpl.Phases); order++ {
		if _, ok := byOrder[order]; !ok {
			violations = append(violations, fatal("sort_order_gap",
				"phase sort orders must be 1..%d with no gaps; %d is missing", len(tpl.Phases), order))
		}
	}

	targetSlots := make(map[[2]int]*models.AdvancementRule)
	rulesBySource := make(map[int]int)
	for i := range tpl.Rules {
		r := &tpl.Rules[i]

		source, sourceOK := byOrder[r.SourcePhaseOrder]
		if !sourceOK {
			violations = append(violations, fatal("rule_source_missing",
				"advancement rule references source phase order %d, which does not exist", r.SourcePhaseOrder))
		}
		if _, ok := byOrder[r.TargetPhaseOrder]; !ok {
			violations = append(violations, fatal("rule_target_missing",
				"advancement rule references target phase order %d, which does not exist", r.TargetPhaseOrder))
		}

		if r.SourcePoolIndex != nil && sourceOK {
			if source.Type != models.PhasePools {
				violations = append(violations, fatal("pool_index_on_non_pools",
					"advancement rule sets a pool index but source phase %q is not a pools phase", source.Name))
			} else if *r.SourcePoolIndex < 0 || *r.SourcePoolIndex >= source.PoolCount {
				violations = append(violations, fatal("pool_index_out_of_range",
					"advancement rule pool index %d is out of range for phase %q with %d pools",
					*r.SourcePoolIndex, source.Name, source.PoolCount))
			}
		}

		// No two sources may write the same target slot.
		key := [2]int{r.TargetPhaseOrder, r.TargetSlotNumber}
		if _, dup := targetSlots[key]; dup {
			violations = append(violations, fatal("duplicate_target_slot",
				"two advancement rules both fill slot %d of phase order %d", r.TargetSlotNumber, r.TargetPhaseOrder))
		} else {
			targetSlots[key] = r
		}

		rulesBySource[r.SourcePhaseOrder]++
	}

	// Divergence between a phase's advancing count and the rules sourcing
	// from it is legitimate (downstream slots may receive byes), so it is
	// only worth a warning. Walking the phases rather than the rule sources
	// also catches phases that advance slots but have no rules at all.
	terminalOrder := 0
	for order := range byOrder {
		if order > terminalOrder {
			terminalOrder = order
		}
	}
	for order := 1; order <= len(tpl.Phases); order++ {
		p, ok := byOrder[order]
		if !ok {
			continue
		}
		count := rulesBySource[order]
		if order == terminalOrder && count == 0 {
			// The last phase has nowhere to advance to.
			continue
		}
		if p.AdvancingSlotCount != count {
			violations = append(violations, warning("advancing_count_mismatch",
				"phase %q advances %d slots but %d rules source from it", p.Name, p.AdvancingSlotCount, count))
		}
	}

	return violations
}
