package models

import "time"

// TimeBlockAllocation reserves a set of courts for a division (optionally a
// single phase of it) during a window on the event date. An empty CourtIDs
// slice means "any available court."
type TimeBlockAllocation struct {
	ID         int       `json:"id" db:"id"`
	EventID    int       `json:"event_id" db:"event_id"`
	DivisionID int       `json:"division_id" db:"division_id"`
	PhaseID    *int      `json:"phase_id,omitempty" db:"phase_id"`
	CourtIDs   []int     `json:"court_ids" db:"-"`
	StartTime  time.Time `json:"start_time" db:"start_time"`
	EndTime    time.Time `json:"end_time" db:"end_time"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Covers reports whether the block applies to the given division/phase pair.
// A block without a phase narrows only by division.
func (b TimeBlockAllocation) Covers(divisionID, phaseID int) bool {
	if b.DivisionID != divisionID {
		return false
	}
	return b.PhaseID == nil || *b.PhaseID == phaseID
}

// AllowsCourt reports whether the block permits placement on the given court.
func (b TimeBlockAllocation) AllowsCourt(courtID int) bool {
	if len(b.CourtIDs) == 0 {
		return true
	}
	for _, id := range b.CourtIDs {
		if id == courtID {
			return true
		}
	}
	return false
}
