package schedule

import (
	"context"
	"sort"
	"time"

	"github.com/courtflow/scheduler/models"
	"github.com/google/uuid"
)

// SkipReason explains why an encounter was left unplaced by an allocation
// run.
type SkipReason string

const (
	ReasonNoTimeBlock    SkipReason = "no time block"
	ReasonNoFeasibleSlot SkipReason = "no feasible slot in block"
	ReasonCancelled      SkipReason = "allocation cancelled"
)

// AllocateInput is the snapshot an allocation run works on. Encounters are
// the candidates to place; Existing are assignments outside the candidate
// set that must be respected (the same unit may appear there via another
// division).
type AllocateInput struct {
	Encounters []models.Encounter
	Existing   []models.Encounter
	Blocks     []models.TimeBlockAllocation
	Courts     []models.Court
	Divisions  []models.Division

	// ClearExisting voids the candidates' own prior assignments before the
	// pass, making a re-run idempotent. Without it, already-assigned
	// candidates keep their slots and only occupy.
	ClearExisting bool
}

// Assignment is one placement produced by a run.
type Assignment struct {
	EncounterID int       `json:"encounter_id"`
	CourtID     int       `json:"court_id"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
}

// SkippedEncounter is one candidate the run could not place.
type SkippedEncounter struct {
	EncounterID int        `json:"encounter_id"`
	DivisionID  int        `json:"division_id"`
	PhaseID     int        `json:"phase_id"`
	Reason      SkipReason `json:"reason"`
}

// PartitionSummary aggregates one (division, phase) partition of a run.
type PartitionSummary struct {
	DivisionID int                `json:"division_id"`
	PhaseID    int                `json:"phase_id"`
	Assigned   int                `json:"assigned"`
	Skipped    int                `json:"skipped"`
	Reasons    map[SkipReason]int `json:"reasons,omitempty"`
}

// Summary is the run-level report.
type Summary struct {
	TotalAssigned int                `json:"total_assigned"`
	TotalSkipped  int                `json:"total_skipped"`
	Partitions    []PartitionSummary `json:"partitions"`
}

// AllocationResult is everything a run produced. RunID tags the run in logs
// and published events.
type AllocationResult struct {
	RunID    uuid.UUID          `json:"run_id"`
	Assigned []Assignment       `json:"assigned"`
	Skipped  []SkippedEncounter `json:"skipped"`
	Summary  Summary            `json:"summary"`
}

// Allocator places unscheduled encounters onto courts inside time block
// windows. It is a pure in-memory computation; persistence of the resulting
// assignments is the caller's job. Runs against the same event must be
// serialized by the caller: the greedy pass assumes an exclusive view of the
// existing assignments.
type Allocator struct {
	strategy PlacementStrategy
}

func NewAllocator(strategy PlacementStrategy) *Allocator {
	if strategy == nil {
		strategy = EarliestSlotStrategy{}
	}
	return &Allocator{strategy: strategy}
}

type partitionKey struct {
	divisionID int
	phaseID    int
}

// Allocate runs one greedy pass. Every placement it makes is conflict-free;
// it does not promise the fewest skips or the shortest day. Cancellation is
// checked between partitions only: already-placed partitions stay valid and
// the remainder is reported as skipped.
func (a *Allocator) Allocate(ctx context.Context, in AllocateInput) (*AllocationResult, error) {
	result := &AllocationResult{RunID: uuid.New()}

	occ := NewOccupancy()
	for _, enc := range in.Existing {
		occ.SeedEncounter(enc, bufferFor(in.Divisions, enc.DivisionID))
	}

	partitions := make(map[partitionKey][]models.Encounter)
	var keys []partitionKey
	for _, enc := range in.Encounters {
		if !in.ClearExisting && enc.IsAssigned() {
			// Kept as-is: occupies its slot but is not re-placed.
			occ.SeedEncounter(enc, bufferFor(in.Divisions, enc.DivisionID))
			continue
		}
		key := partitionKey{enc.DivisionID, enc.PhaseID}
		if _, seen := partitions[key]; !seen {
			keys = append(keys, key)
		}
		partitions[key] = append(partitions[key], enc)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].divisionID != keys[j].divisionID {
			return keys[i].divisionID < keys[j].divisionID
		}
		return keys[i].phaseID < keys[j].phaseID
	})

	cancelled := false
	for _, key := range keys {
		if !cancelled && ctx.Err() != nil {
			cancelled = true
		}
		part := partitionSummaryFor(key)
		encounters := partitions[key]

		if cancelled {
			skipPartition(result, &part, encounters, ReasonCancelled)
			result.Summary.Partitions = append(result.Summary.Partitions, part)
			continue
		}

		blocks := applicableBlocks(in.Blocks, key)
		if len(blocks) == 0 {
			skipPartition(result, &part, encounters, ReasonNoTimeBlock)
			result.Summary.Partitions = append(result.Summary.Partitions, part)
			continue
		}

		courts := courtIDs(in.Courts)
		buffer := bufferFor(in.Divisions, key.divisionID)

		// Earlier rounds first; the incoming order breaks ties. This
		// ordering decides who loses out when a block is too small, so it
		// stays explicit rather than incidental.
		sort.SliceStable(encounters, func(i, j int) bool {
			return encounters[i].Round < encounters[j].Round
		})

		for _, enc := range encounters {
			courtID, start, ok := a.placeInBlocks(enc, blocks, courts, buffer, occ)
			if !ok {
				skipEncounter(result, &part, enc, ReasonNoFeasibleSlot)
				continue
			}

			end := start.Add(time.Duration(enc.DurationMinutes) * time.Minute)
			result.Assigned = append(result.Assigned, Assignment{
				EncounterID: enc.ID,
				CourtID:     courtID,
				StartTime:   start,
				EndTime:     end,
			})
			part.Assigned++
			result.Summary.TotalAssigned++

			occ.claimCourt(courtID, start, end.Add(buffer), enc.ID)
			occ.claimUnits(enc, start, end)
		}

		result.Summary.Partitions = append(result.Summary.Partitions, part)
	}

	return result, nil
}

// placeInBlocks asks the strategy for a slot in every applicable block and
// keeps the earliest start overall.
func (a *Allocator) placeInBlocks(enc models.Encounter, blocks []models.TimeBlockAllocation, allCourts []int, buffer time.Duration, occ *Occupancy) (int, time.Time, bool) {
	bestCourt := 0
	var bestStart time.Time
	found := false

	for _, block := range blocks {
		eligible := eligibleCourts(block, allCourts)
		if len(eligible) == 0 {
			continue
		}
		courtID, start, ok := a.strategy.NextSlot(SlotRequest{
			Encounter:   enc,
			CourtIDs:    eligible,
			WindowStart: block.StartTime,
			WindowEnd:   block.EndTime,
			Duration:    time.Duration(enc.DurationMinutes) * time.Minute,
			Buffer:      buffer,
		}, occ)
		if !ok {
			continue
		}
		if !found || start.Before(bestStart) {
			bestCourt, bestStart, found = courtID, start, true
		}
	}
	return bestCourt, bestStart, found
}

func applicableBlocks(blocks []models.TimeBlockAllocation, key partitionKey) []models.TimeBlockAllocation {
	var out []models.TimeBlockAllocation
	for _, b := range blocks {
		if b.Covers(key.divisionID, key.phaseID) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

// eligibleCourts resolves a block's court list, in ascending ID order. An
// empty list on the block means any court.
func eligibleCourts(block models.TimeBlockAllocation, allCourts []int) []int {
	var out []int
	for _, id := range allCourts {
		if block.AllowsCourt(id) {
			out = append(out, id)
		}
	}
	return out
}

func courtIDs(courts []models.Court) []int {
	ids := make([]int, 0, len(courts))
	for _, c := range courts {
		ids = append(ids, c.ID)
	}
	sort.Ints(ids)
	return ids
}

func bufferFor(divisions []models.Division, divisionID int) time.Duration {
	for _, d := range divisions {
		if d.ID == divisionID {
			return time.Duration(d.MatchBufferMinutes) * time.Minute
		}
	}
	return time.Duration(models.DefaultMatchBufferMinutes) * time.Minute
}

func partitionSummaryFor(key partitionKey) PartitionSummary {
	return PartitionSummary{
		DivisionID: key.divisionID,
		PhaseID:    key.phaseID,
		Reasons:    make(map[SkipReason]int),
	}
}

func skipEncounter(result *AllocationResult, part *PartitionSummary, enc models.Encounter, reason SkipReason) {
	result.Skipped = append(result.Skipped, SkippedEncounter{
		EncounterID: enc.ID,
		DivisionID:  enc.DivisionID,
		PhaseID:     enc.PhaseID,
		Reason:      reason,
	})
	part.Skipped++
	part.Reasons[reason]++
	result.Summary.TotalSkipped++
}

func skipPartition(result *AllocationResult, part *PartitionSummary, encounters []models.Encounter, reason SkipReason) {
	for _, enc := range encounters {
		skipEncounter(result, part, enc, reason)
	}
}
