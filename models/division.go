package models

import "time"

// Defaults applied when a division is created without explicit pacing
// configuration.
const (
	DefaultChangeoverMinutes  = 2
	DefaultMatchBufferMinutes = 5
)

// Division is one competitive bracket of an event (e.g. "Men's 4.0 Doubles").
// Its pacing fields drive encounter duration derivation and the gaps the
// allocation engine leaves between matches.
type Division struct {
	ID                  int       `json:"id" db:"id"`
	EventID             int       `json:"event_id" db:"event_id"`
	Name                string    `json:"name" db:"name"`
	TemplateID          *int      `json:"template_id,omitempty" db:"template_id"`
	GameDurationMinutes int       `json:"game_duration_minutes" db:"game_duration_minutes"`
	ChangeoverMinutes   int       `json:"changeover_minutes" db:"changeover_minutes"`
	MatchBufferMinutes  int       `json:"match_buffer_minutes" db:"match_buffer_minutes"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
}

// expectedGames is the typical number of games needed to decide a best-of-N
// match: a best-of-3 is usually settled in two games, a best-of-5 in three.
func expectedGames(bestOf int) int {
	switch bestOf {
	case 3:
		return 2
	case 5:
		return 3
	default:
		return 1
	}
}

// EncounterDurationMinutes derives how long one match of the given format
// holds a court: expected game time plus the court changeover. The
// inter-match buffer is not part of the duration; the allocation engine adds
// it as a gap between consecutive placements.
func (d Division) EncounterDurationMinutes(bestOf int) int {
	return d.GameDurationMinutes*expectedGames(bestOf) + d.ChangeoverMinutes
}

// Event is the tournament day a schedule grid belongs to. GridStart/GridEnd
// bound the visible scheduling window.
type Event struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Date      time.Time `json:"date" db:"event_date"`
	GridStart time.Time `json:"grid_start" db:"grid_start"`
	GridEnd   time.Time `json:"grid_end" db:"grid_end"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
