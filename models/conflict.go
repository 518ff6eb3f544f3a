package models

import "time"

// ConflictType classifies a scheduling conflict found on the grid.
type ConflictType string

const (
	ConflictCourtOverlap ConflictType = "court_overlap"
	ConflictUnitOverlap  ConflictType = "unit_overlap"
)

// Conflict reports two encounters whose scheduled intervals overlap, either
// on the same court or for the same participant unit. EncounterAID always
// holds the earlier-starting encounter.
type Conflict struct {
	Type         ConflictType `json:"type"`
	CourtID      *int         `json:"court_id,omitempty"`
	UnitID       *int         `json:"unit_id,omitempty"`
	EncounterAID int          `json:"encounter_a_id"`
	EncounterBID int          `json:"encounter_b_id"`
	OverlapStart time.Time    `json:"overlap_start"`
	OverlapEnd   time.Time    `json:"overlap_end"`
}

// ScheduleGrid is the full scheduling snapshot for one event: everything the
// allocation engine and the conflict detector need to run without further
// I/O.
type ScheduleGrid struct {
	Event      Event                 `json:"event"`
	Courts     []Court               `json:"courts"`
	Divisions  []Division            `json:"divisions"`
	Encounters []Encounter           `json:"encounters"`
	Blocks     []TimeBlockAllocation `json:"blocks"`
}

// DivisionByID returns the division with the given ID, or nil.
func (g *ScheduleGrid) DivisionByID(id int) *Division {
	for i := range g.Divisions {
		if g.Divisions[i].ID == id {
			return &g.Divisions[i]
		}
	}
	return nil
}

// EncounterByID returns the encounter with the given ID, or nil.
func (g *ScheduleGrid) EncounterByID(id int) *Encounter {
	for i := range g.Encounters {
		if g.Encounters[i].ID == id {
			return &g.Encounters[i]
		}
	}
	return nil
}
