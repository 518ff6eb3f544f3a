package models

import "time"

// PhaseType enumerates the kinds of stages a division template can contain,
// matching the phase_type ENUM in the database.
type PhaseType string

const (
	PhaseDraw              PhaseType = "draw"
	PhaseSingleElimination PhaseType = "single_elimination"
	PhaseDoubleElimination PhaseType = "double_elimination"
	PhaseRoundRobin        PhaseType = "round_robin"
	PhasePools             PhaseType = "pools"
	PhaseBracketRound      PhaseType = "bracket_round"
	PhaseSwiss             PhaseType = "swiss"
	PhaseAward             PhaseType = "award"
)

// IsValid reports whether t is one of the supported phase types.
func (t PhaseType) IsValid() bool {
	switch t {
	case PhaseDraw, PhaseSingleElimination, PhaseDoubleElimination,
		PhaseRoundRobin, PhasePools, PhaseBracketRound, PhaseSwiss, PhaseAward:
		return true
	}
	return false
}

// IsBracket reports whether t is a knockout-style phase that can carry a
// consolation final.
func (t PhaseType) IsBracket() bool {
	switch t {
	case PhaseDraw, PhaseSingleElimination, PhaseDoubleElimination, PhaseBracketRound:
		return true
	}
	return false
}

// SeedingStrategy controls how incoming units are ordered into bracket slots
// or distributed across pools.
type SeedingStrategy string

const (
	SeedingCrossPool  SeedingStrategy = "cross_pool"
	SeedingSequential SeedingStrategy = "sequential"
	SeedingManual     SeedingStrategy = "manual"
)

func (s SeedingStrategy) IsValid() bool {
	switch s {
	case SeedingCrossPool, SeedingSequential, SeedingManual:
		return true
	}
	return false
}

type AwardType string

const (
	AwardGold   AwardType = "gold"
	AwardSilver AwardType = "silver"
	AwardBronze AwardType = "bronze"
)

// Phase is one stage of a division's progression. Phases are referenced by ID
// internally; SortOrder is a derived display attribute kept dense (1..N) by
// the template service whenever the phase list is edited.
type Phase struct {
	ID                   int             `json:"id" db:"id"`
	TemplateID           int             `json:"template_id" db:"template_id"`
	Name                 string          `json:"name" db:"name"`
	Type                 PhaseType       `json:"type" db:"phase_type"`
	SortOrder            int             `json:"sort_order" db:"sort_order"`
	IncomingSlotCount    int             `json:"incoming_slot_count" db:"incoming_slot_count"`
	AdvancingSlotCount   int             `json:"advancing_slot_count" db:"advancing_slot_count"`
	PoolCount            int             `json:"pool_count,omitempty" db:"pool_count"`
	BestOf               int             `json:"best_of" db:"best_of"`
	MatchDurationMinutes int             `json:"match_duration_minutes" db:"match_duration_minutes"`
	Seeding              SeedingStrategy `json:"seeding" db:"seeding"`
	IncludeConsolation   bool            `json:"include_consolation" db:"include_consolation"`
	AwardType            *AwardType      `json:"award_type,omitempty" db:"award_type"`
	CreatedAt            time.Time       `json:"created_at" db:"created_at"`
}
