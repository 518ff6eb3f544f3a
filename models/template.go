package models

import "time"

// TemplateKind discriminates the two template shapes: a structured template
// carries an explicit phase list, a flexible one derives its bracket at
// runtime from the incoming unit count.
type TemplateKind string

const (
	TemplateStructured TemplateKind = "structured"
	TemplateFlexible   TemplateKind = "flexible"
)

// GenerateBracketSpec configures runtime bracket derivation for a flexible
// template.
type GenerateBracketSpec struct {
	Type          PhaseType `json:"type"`
	Consolation   bool      `json:"consolation"`
	CalculateByes bool      `json:"calculate_byes"`
}

// Template describes the full progression structure of a division. Exactly
// one of the two variants is populated, selected by Kind: flexible templates
// carry GenerateBracket, structured ones carry Phases/Rules/ExitPositions.
type Template struct {
	ID              int                  `json:"id" db:"id"`
	Name            string               `json:"name" db:"name"`
	Kind            TemplateKind         `json:"kind" db:"kind"`
	IsActive        bool                 `json:"is_active" db:"is_active"`
	GenerateBracket *GenerateBracketSpec `json:"generate_bracket,omitempty" db:"-"`
	Phases          []Phase              `json:"phases,omitempty" db:"-"`
	Rules           []AdvancementRule    `json:"advancement_rules,omitempty" db:"-"`
	ExitPositions   []ExitPosition       `json:"exit_positions,omitempty" db:"-"`
	CreatedAt       time.Time            `json:"created_at" db:"created_at"`
}

// PhaseByOrder returns the phase with the given sort order, or nil.
func (t *Template) PhaseByOrder(order int) *Phase {
	for i := range t.Phases {
		if t.Phases[i].SortOrder == order {
			return &t.Phases[i]
		}
	}
	return nil
}

// AdvancementRule is a directed edge in the phase graph: the unit finishing
// at FinishPosition in the source phase (optionally a single pool of it)
// fills TargetSlotNumber in the target phase.
type AdvancementRule struct {
	ID               int       `json:"id" db:"id"`
	TemplateID       int       `json:"template_id" db:"template_id"`
	SourcePhaseOrder int       `json:"source_phase_order" db:"source_phase_order"`
	SourcePoolIndex  *int      `json:"source_pool_index,omitempty" db:"source_pool_index"`
	FinishPosition   int       `json:"finish_position" db:"finish_position"`
	TargetPhaseOrder int       `json:"target_phase_order" db:"target_phase_order"`
	TargetSlotNumber int       `json:"target_slot_number" db:"target_slot_number"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// ExitPosition is a terminal ranking descriptor used for final placement
// reporting, independent of the phase list.
type ExitPosition struct {
	ID         int        `json:"id" db:"id"`
	TemplateID int        `json:"template_id" db:"template_id"`
	Rank       int        `json:"rank" db:"rank"`
	Label      string     `json:"label" db:"label"`
	AwardType  *AwardType `json:"award_type,omitempty" db:"award_type"`
}
