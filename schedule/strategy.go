package schedule

import (
	"time"

	"github.com/courtflow/scheduler/models"
)

// SlotRequest describes one encounter the placement strategy must slot into
// a time block window.
type SlotRequest struct {
	Encounter models.Encounter
	// CourtIDs are the eligible courts, in ascending ID order.
	CourtIDs []int
	// WindowStart/WindowEnd bound the block: the placed interval plus the
	// buffer must fit inside [WindowStart, WindowEnd].
	WindowStart time.Time
	WindowEnd   time.Time
	Duration    time.Duration
	Buffer      time.Duration
}

// PlacementStrategy picks the court and start time for one encounter given
// the current occupancy. Returning ok=false means no feasible slot exists in
// the window. Strategies must only return conflict-free placements; the
// policy they are free to choose is *which* feasible slot to take.
type PlacementStrategy interface {
	NextSlot(req SlotRequest, occ *Occupancy) (courtID int, start time.Time, ok bool)
}

// EarliestSlotStrategy is the shipped greedy policy: always take the
// earliest feasible start across all eligible courts, ties broken by the
// lowest court ID. It guarantees feasibility of every placement but not a
// minimal number of skips or makespan.
type EarliestSlotStrategy struct{}

func (EarliestSlotStrategy) NextSlot(req SlotRequest, occ *Occupancy) (int, time.Time, bool) {
	bestCourt := 0
	var bestStart time.Time
	found := false

	for _, courtID := range req.CourtIDs {
		start, ok := earliestOnCourt(req, occ, courtID)
		if !ok {
			continue
		}
		if !found || start.Before(bestStart) {
			bestCourt, bestStart, found = courtID, start, true
		}
	}
	return bestCourt, bestStart, found
}

// earliestOnCourt advances a candidate start past every conflicting interval
// rather than scanning a fixed grid, so placements pack back to back. The
// court check covers [t, t+duration+buffer); the unit check covers the bare
// match window.
func earliestOnCourt(req SlotRequest, occ *Occupancy, courtID int) (time.Time, bool) {
	t := req.WindowStart
	for {
		end := t.Add(req.Duration)
		padded := end.Add(req.Buffer)
		if padded.After(req.WindowEnd) {
			return time.Time{}, false
		}

		if conflictEnd, busy := occ.courtConflictEnd(courtID, t, padded); busy {
			t = conflictEnd
			continue
		}
		if conflictEnd, busy := occ.unitConflictEnd(req.Encounter, t, end); busy {
			t = conflictEnd
			continue
		}
		return t, true
	}
}
