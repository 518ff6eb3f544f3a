package models

import "time"

// Court is a playable surface. Courts are venue-wide; divisions reserve them
// through time blocks.
type Court struct {
	ID        int       `json:"id" db:"id"`
	Label     string    `json:"label" db:"label"`
	SortOrder int       `json:"sort_order" db:"sort_order"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CourtGroup is a named subset of courts used as allocation shorthand
// ("Championship Courts", "Back 4", ...).
type CourtGroup struct {
	ID       int    `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	CourtIDs []int  `json:"court_ids" db:"-"`
}
