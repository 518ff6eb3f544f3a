package schedule

import (
	"sort"
	"time"

	"github.com/courtflow/scheduler/models"
)

type interval struct {
	start, end  time.Time
	encounterID int
}

func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// Occupancy tracks the intervals already claimed on each court and by each
// participant unit during an allocation run. Court intervals include the
// inter-match buffer; unit intervals are the bare match windows.
type Occupancy struct {
	courts map[int][]interval
	units  map[int][]interval
}

func NewOccupancy() *Occupancy {
	return &Occupancy{
		courts: make(map[int][]interval),
		units:  make(map[int][]interval),
	}
}

// SeedEncounter records a pre-existing assignment so subsequent placements
// treat its window as busy.
func (o *Occupancy) SeedEncounter(enc models.Encounter, buffer time.Duration) {
	start, end, ok := enc.Interval()
	if !ok {
		return
	}
	if enc.CourtID != nil {
		o.claimCourt(*enc.CourtID, start, end.Add(buffer), enc.ID)
	}
	o.claimUnits(enc, start, end)
}

func (o *Occupancy) claimCourt(courtID int, start, end time.Time, encounterID int) {
	iv := interval{start: start, end: end, encounterID: encounterID}
	o.courts[courtID] = insertInterval(o.courts[courtID], iv)
}

func (o *Occupancy) claimUnits(enc models.Encounter, start, end time.Time) {
	iv := interval{start: start, end: end, encounterID: enc.ID}
	if enc.Unit1ID != nil {
		o.units[*enc.Unit1ID] = insertInterval(o.units[*enc.Unit1ID], iv)
	}
	if enc.Unit2ID != nil {
		o.units[*enc.Unit2ID] = insertInterval(o.units[*enc.Unit2ID], iv)
	}
}

func insertInterval(ivs []interval, iv interval) []interval {
	i := sort.Search(len(ivs), func(i int) bool { return ivs[i].start.After(iv.start) })
	ivs = append(ivs, interval{})
	copy(ivs[i+1:], ivs[i:])
	ivs[i] = iv
	return ivs
}

// courtConflictEnd returns the end of the latest court interval overlapping
// [start, end), and whether one exists.
func (o *Occupancy) courtConflictEnd(courtID int, start, end time.Time) (time.Time, bool) {
	var latest time.Time
	found := false
	for _, iv := range o.courts[courtID] {
		if !iv.start.Before(end) {
			break
		}
		if overlaps(start, end, iv.start, iv.end) && iv.end.After(latest) {
			latest = iv.end
			found = true
		}
	}
	return latest, found
}

// unitConflictEnd returns the end of the latest interval of either unit of
// enc overlapping [start, end), and whether one exists.
func (o *Occupancy) unitConflictEnd(enc models.Encounter, start, end time.Time) (time.Time, bool) {
	var latest time.Time
	found := false
	for _, unitID := range encounterUnits(enc) {
		for _, iv := range o.units[unitID] {
			if !iv.start.Before(end) {
				break
			}
			if overlaps(start, end, iv.start, iv.end) && iv.end.After(latest) {
				latest = iv.end
				found = true
			}
		}
	}
	return latest, found
}

func encounterUnits(enc models.Encounter) []int {
	var units []int
	if enc.Unit1ID != nil {
		units = append(units, *enc.Unit1ID)
	}
	if enc.Unit2ID != nil {
		units = append(units, *enc.Unit2ID)
	}
	return units
}
