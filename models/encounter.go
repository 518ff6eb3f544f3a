package models

import "time"

// EncounterStatus is the match-progression state owned by the external
// progression component. This subsystem reads it but only ever writes the
// court/time assignment fields.
type EncounterStatus string

const (
	EncounterScheduled  EncounterStatus = "scheduled"
	EncounterReady      EncounterStatus = "ready"
	EncounterInProgress EncounterStatus = "in_progress"
	EncounterCompleted  EncounterStatus = "completed"
	EncounterCancelled  EncounterStatus = "cancelled"
)

// Encounter is one match between two units. Unit IDs stay nil until the
// bracket or pool resolves them. CourtID/StartTime/EndTime are set (or
// cleared) exclusively by the allocation engine or a manual move.
type Encounter struct {
	ID              int             `json:"id" db:"id"`
	EventID         int             `json:"event_id" db:"event_id"`
	DivisionID      int             `json:"division_id" db:"division_id"`
	PhaseID         int             `json:"phase_id" db:"phase_id"`
	Round           int             `json:"round" db:"round"`
	OrderInRound    int             `json:"order_in_round" db:"order_in_round"`
	PoolIndex       *int            `json:"pool_index,omitempty" db:"pool_index"`
	BracketUID      *string         `json:"bracket_uid,omitempty" db:"bracket_uid"`
	Unit1ID         *int            `json:"unit1_id,omitempty" db:"unit1_id"`
	Unit2ID         *int            `json:"unit2_id,omitempty" db:"unit2_id"`
	DurationMinutes int             `json:"duration_minutes" db:"duration_minutes"`
	CourtID         *int            `json:"court_id,omitempty" db:"court_id"`
	StartTime       *time.Time      `json:"start_time,omitempty" db:"start_time"`
	EndTime         *time.Time      `json:"end_time,omitempty" db:"end_time"`
	Status          EncounterStatus `json:"status" db:"status"`
	NextEncounterID *int            `json:"next_encounter_id,omitempty" db:"next_encounter_id"`
	NextSlot        *int            `json:"next_slot,omitempty" db:"next_slot"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}

// IsAssigned reports whether the encounter currently holds a court/time slot.
func (e Encounter) IsAssigned() bool {
	return e.CourtID != nil && e.StartTime != nil
}

// Interval returns the scheduled [start, end) window. ok is false while the
// encounter is unassigned.
func (e Encounter) Interval() (start, end time.Time, ok bool) {
	if !e.IsAssigned() {
		return time.Time{}, time.Time{}, false
	}
	start = *e.StartTime
	if e.EndTime != nil {
		end = *e.EndTime
	} else {
		end = start.Add(time.Duration(e.DurationMinutes) * time.Minute)
	}
	return start, end, true
}

// InvolvesUnit reports whether the given unit plays in this encounter.
func (e Encounter) InvolvesUnit(unitID int) bool {
	if e.Unit1ID != nil && *e.Unit1ID == unitID {
		return true
	}
	return e.Unit2ID != nil && *e.Unit2ID == unitID
}
