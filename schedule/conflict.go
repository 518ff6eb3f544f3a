package schedule

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/courtflow/scheduler/models"
)

var ErrEncounterNotInGrid = errors.New("encounter not found in grid")

// DetectConflicts sweeps the grid and reports every pair of overlapping
// assignments, per court and per participant unit. Cancelled encounters do
// not count.
func DetectConflicts(grid *models.ScheduleGrid) []models.Conflict {
	byCourt := make(map[int][]models.Encounter)
	byUnit := make(map[int][]models.Encounter)
	for _, enc := range grid.Encounters {
		if !enc.IsAssigned() || enc.Status == models.EncounterCancelled {
			continue
		}
		byCourt[*enc.CourtID] = append(byCourt[*enc.CourtID], enc)
		for _, unitID := range encounterUnits(enc) {
			byUnit[unitID] = append(byUnit[unitID], enc)
		}
	}

	var conflicts []models.Conflict
	for _, courtID := range sortedKeys(byCourt) {
		id := courtID
		conflicts = append(conflicts, sweep(byCourt[courtID], func(c *models.Conflict) {
			c.Type = models.ConflictCourtOverlap
			c.CourtID = &id
		})...)
	}
	for _, unitID := range sortedKeys(byUnit) {
		id := unitID
		conflicts = append(conflicts, sweep(byUnit[unitID], func(c *models.Conflict) {
			c.Type = models.ConflictUnitOverlap
			c.UnitID = &id
		})...)
	}
	return conflicts
}

// sweep sorts one lane's encounters by start time and scans adjacent pairs.
func sweep(encounters []models.Encounter, tag func(*models.Conflict)) []models.Conflict {
	sort.Slice(encounters, func(i, j int) bool {
		return encounters[i].StartTime.Before(*encounters[j].StartTime)
	})

	var conflicts []models.Conflict
	for i := 1; i < len(encounters); i++ {
		prev, next := encounters[i-1], encounters[i]
		_, prevEnd, _ := prev.Interval()
		nextStart, nextEnd, _ := next.Interval()
		if !prevEnd.After(nextStart) {
			continue
		}
		c := models.Conflict{
			EncounterAID: prev.ID,
			EncounterBID: next.ID,
			OverlapStart: nextStart,
			OverlapEnd:   minTime(prevEnd, nextEnd),
		}
		tag(&c)
		conflicts = append(conflicts, c)
	}
	return conflicts
}

// MoveCheck is the outcome of validating a prospective manual move. The
// move itself is never blocked by conflicts; callers apply it and surface
// the warning.
type MoveCheck struct {
	Conflicts []models.Conflict
	Message   string
}

func (m MoveCheck) HasConflicts() bool { return len(m.Conflicts) > 0 }

// CheckMove evaluates moving one encounter to a new court/time against the
// current grid. A nil court or start describes a clearing move, which can
// never conflict. This is the same conflict primitive the detector uses;
// the soft-versus-hard asymmetry with automatic allocation lives in the
// callers, not here.
func CheckMove(grid *models.ScheduleGrid, encounterID int, courtID *int, start *time.Time) (MoveCheck, error) {
	moved := grid.EncounterByID(encounterID)
	if moved == nil {
		return MoveCheck{}, fmt.Errorf("%w: id %d", ErrEncounterNotInGrid, encounterID)
	}
	if courtID == nil || start == nil {
		return MoveCheck{}, nil
	}

	newStart := *start
	newEnd := newStart.Add(time.Duration(moved.DurationMinutes) * time.Minute)

	var check MoveCheck
	for _, other := range grid.Encounters {
		if other.ID == encounterID || !other.IsAssigned() || other.Status == models.EncounterCancelled {
			continue
		}
		otherStart, otherEnd, _ := other.Interval()
		if !overlaps(newStart, newEnd, otherStart, otherEnd) {
			continue
		}

		if *other.CourtID == *courtID {
			id := *courtID
			check.Conflicts = append(check.Conflicts, models.Conflict{
				Type:         models.ConflictCourtOverlap,
				CourtID:      &id,
				EncounterAID: earlierOf(*moved, other, newStart),
				EncounterBID: laterOf(*moved, other, newStart),
				OverlapStart: maxTime(newStart, otherStart),
				OverlapEnd:   minTime(newEnd, otherEnd),
			})
		}
		for _, unitID := range encounterUnits(*moved) {
			if !other.InvolvesUnit(unitID) {
				continue
			}
			id := unitID
			check.Conflicts = append(check.Conflicts, models.Conflict{
				Type:         models.ConflictUnitOverlap,
				UnitID:       &id,
				EncounterAID: earlierOf(*moved, other, newStart),
				EncounterBID: laterOf(*moved, other, newStart),
				OverlapStart: maxTime(newStart, otherStart),
				OverlapEnd:   minTime(newEnd, otherEnd),
			})
		}
	}

	if check.HasConflicts() {
		first := check.Conflicts[0]
		check.Message = fmt.Sprintf("move creates %d conflict(s); first: %s between encounters %d and %d",
			len(check.Conflicts), first.Type, first.EncounterAID, first.EncounterBID)
	}
	return check, nil
}

func earlierOf(moved, other models.Encounter, movedStart time.Time) int {
	if movedStart.Before(*other.StartTime) || movedStart.Equal(*other.StartTime) {
		return moved.ID
	}
	return other.ID
}

func laterOf(moved, other models.Encounter, movedStart time.Time) int {
	if earlierOf(moved, other, movedStart) == moved.ID {
		return other.ID
	}
	return moved.ID
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func sortedKeys(m map[int][]models.Encounter) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
