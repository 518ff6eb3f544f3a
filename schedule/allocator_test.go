package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/courtflow/scheduler/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2026, time.June, 6, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

// testEncounter builds a schedulable encounter; unit ID 0 means the slot is
// still unresolved.
func testEncounter(id, divisionID, phaseID, round, unit1, unit2, durationMinutes int) models.Encounter {
	enc := models.Encounter{
		ID:              id,
		EventID:         1,
		DivisionID:      divisionID,
		PhaseID:         phaseID,
		Round:           round,
		DurationMinutes: durationMinutes,
		Status:          models.EncounterScheduled,
	}
	if unit1 != 0 {
		u1 := unit1
		enc.Unit1ID = &u1
	}
	if unit2 != 0 {
		u2 := unit2
		enc.Unit2ID = &u2
	}
	return enc
}

func assigned(enc models.Encounter, courtID int, start time.Time) models.Encounter {
	end := start.Add(time.Duration(enc.DurationMinutes) * time.Minute)
	enc.CourtID = &courtID
	enc.StartTime = &start
	enc.EndTime = &end
	return enc
}

func block(divisionID int, start, end time.Time, courtIDs ...int) models.TimeBlockAllocation {
	return models.TimeBlockAllocation{
		EventID:    1,
		DivisionID: divisionID,
		StartTime:  start,
		EndTime:    end,
		CourtIDs:   courtIDs,
	}
}

func TestAllocate_FillsBlockToCapacity(t *testing.T) {
	// 20-minute matches with a 5-minute buffer on two courts over four hours:
	// all nine fit with room to spare.
	var encounters []models.Encounter
	for i := 1; i <= 9; i++ {
		encounters = append(encounters, testEncounter(i, 1, 1, 1, i*10, i*10+1, 20))
	}

	alloc := NewAllocator(nil)
	result, err := alloc.Allocate(context.Background(), AllocateInput{
		Encounters: encounters,
		Blocks:     []models.TimeBlockAllocation{block(1, at(8, 0), at(12, 0))},
		Courts:     []models.Court{{ID: 1, Label: "Court 1"}, {ID: 2, Label: "Court 2"}},
		Divisions:  []models.Division{{ID: 1, EventID: 1, MatchBufferMinutes: 5}},
	})
	require.NoError(t, err)

	assert.Equal(t, 9, result.Summary.TotalAssigned)
	assert.Equal(t, 0, result.Summary.TotalSkipped)
	assert.Len(t, result.Assigned, 9)

	for _, a := range result.Assigned {
		assert.False(t, a.StartTime.Before(at(8, 0)))
		assert.False(t, a.EndTime.Add(5*time.Minute).After(at(12, 0)))
	}
}

func TestAllocate_SingleCourtExactCapacity(t *testing.T) {
	// 30+5 minutes per placement in a 240-minute block: exactly six fit.
	var encounters []models.Encounter
	for i := 1; i <= 9; i++ {
		encounters = append(encounters, testEncounter(i, 1, 1, 1, i*10, i*10+1, 30))
	}

	alloc := NewAllocator(nil)
	result, err := alloc.Allocate(context.Background(), AllocateInput{
		Encounters: encounters,
		Blocks:     []models.TimeBlockAllocation{block(1, at(8, 0), at(12, 0))},
		Courts:     []models.Court{{ID: 1, Label: "Court 1"}},
		Divisions:  []models.Division{{ID: 1, EventID: 1, MatchBufferMinutes: 5}},
	})
	require.NoError(t, err)

	assert.Equal(t, 6, result.Summary.TotalAssigned)
	assert.Equal(t, 3, result.Summary.TotalSkipped)
	for _, s := range result.Skipped {
		assert.Equal(t, ReasonNoFeasibleSlot, s.Reason)
	}

	// Back-to-back packing: starts every 35 minutes from the block start.
	for i, a := range result.Assigned {
		assert.Equal(t, at(8, 0).Add(time.Duration(i)*35*time.Minute), a.StartTime)
	}
}

func TestAllocate_NoTimeBlock(t *testing.T) {
	encounters := []models.Encounter{testEncounter(1, 1, 1, 1, 10, 11, 20)}

	alloc := NewAllocator(nil)
	result, err := alloc.Allocate(context.Background(), AllocateInput{
		Encounters: encounters,
		// The only block covers a different division.
		Blocks:    []models.TimeBlockAllocation{block(2, at(8, 0), at(12, 0))},
		Courts:    []models.Court{{ID: 1}},
		Divisions: []models.Division{{ID: 1, EventID: 1, MatchBufferMinutes: 5}},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, result.Summary.TotalAssigned)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, ReasonNoTimeBlock, result.Skipped[0].Reason)
}

func TestAllocate_UnitConflictAcrossDivisions(t *testing.T) {
	// Unit 7 plays in both divisions. Two courts are free at 08:00, but the
	// second division's match must wait for unit 7 to finish.
	encounters := []models.Encounter{
		testEncounter(1, 1, 1, 1, 7, 20, 30),
		testEncounter(2, 2, 1, 1, 7, 30, 30),
	}

	alloc := NewAllocator(nil)
	result, err := alloc.Allocate(context.Background(), AllocateInput{
		Encounters: encounters,
		Blocks: []models.TimeBlockAllocation{
			block(1, at(8, 0), at(12, 0)),
			block(2, at(8, 0), at(12, 0)),
		},
		Courts: []models.Court{{ID: 1}, {ID: 2}},
		Divisions: []models.Division{
			{ID: 1, EventID: 1, MatchBufferMinutes: 5},
			{ID: 2, EventID: 1, MatchBufferMinutes: 5},
		},
	})
	require.NoError(t, err)
	require.Len(t, result.Assigned, 2)

	byID := make(map[int]Assignment)
	for _, a := range result.Assigned {
		byID[a.EncounterID] = a
	}
	assert.Equal(t, at(8, 0), byID[1].StartTime)
	// Unit availability uses the bare match window, not the padded one.
	assert.Equal(t, at(8, 30), byID[2].StartTime)
}

func TestAllocate_RespectsExistingAssignments(t *testing.T) {
	existing := assigned(testEncounter(99, 1, 1, 1, 50, 51, 30), 1, at(8, 0))
	candidate := testEncounter(1, 1, 1, 1, 10, 11, 20)

	alloc := NewAllocator(nil)
	result, err := alloc.Allocate(context.Background(), AllocateInput{
		Encounters: []models.Encounter{candidate},
		Existing:   []models.Encounter{existing},
		Blocks:     []models.TimeBlockAllocation{block(1, at(8, 0), at(12, 0))},
		Courts:     []models.Court{{ID: 1}},
		Divisions:  []models.Division{{ID: 1, EventID: 1, MatchBufferMinutes: 5}},
	})
	require.NoError(t, err)

	require.Len(t, result.Assigned, 1)
	// Court is busy 08:00-08:35 (30 minutes plus buffer).
	assert.Equal(t, at(8, 35), result.Assigned[0].StartTime)
}

func TestAllocate_KeepsAssignedCandidatesWithoutClear(t *testing.T) {
	kept := assigned(testEncounter(1, 1, 1, 1, 10, 11, 30), 1, at(8, 0))
	fresh := testEncounter(2, 1, 1, 1, 20, 21, 20)

	alloc := NewAllocator(nil)
	result, err := alloc.Allocate(context.Background(), AllocateInput{
		Encounters: []models.Encounter{kept, fresh},
		Blocks:     []models.TimeBlockAllocation{block(1, at(8, 0), at(12, 0))},
		Courts:     []models.Court{{ID: 1}},
		Divisions:  []models.Division{{ID: 1, EventID: 1, MatchBufferMinutes: 5}},
	})
	require.NoError(t, err)

	// The kept candidate is not re-placed but its slot stays claimed.
	require.Len(t, result.Assigned, 1)
	assert.Equal(t, 2, result.Assigned[0].EncounterID)
	assert.Equal(t, at(8, 35), result.Assigned[0].StartTime)
}

func TestAllocate_ClearExistingReplacesCandidates(t *testing.T) {
	stale := assigned(testEncounter(1, 1, 1, 1, 10, 11, 20), 1, at(11, 0))

	alloc := NewAllocator(nil)
	result, err := alloc.Allocate(context.Background(), AllocateInput{
		Encounters:    []models.Encounter{stale},
		Blocks:        []models.TimeBlockAllocation{block(1, at(8, 0), at(12, 0))},
		Courts:        []models.Court{{ID: 1}},
		Divisions:     []models.Division{{ID: 1, EventID: 1, MatchBufferMinutes: 5}},
		ClearExisting: true,
	})
	require.NoError(t, err)

	require.Len(t, result.Assigned, 1)
	// Re-placed from the top of the block, not kept at 11:00.
	assert.Equal(t, at(8, 0), result.Assigned[0].StartTime)
}

func TestAllocate_EarlierRoundsFirst(t *testing.T) {
	// Round 2 listed before round 1; the final must not be scheduled earlier
	// than its feeders.
	encounters := []models.Encounter{
		testEncounter(3, 1, 1, 2, 0, 0, 30),
		testEncounter(1, 1, 1, 1, 10, 11, 30),
		testEncounter(2, 1, 1, 1, 12, 13, 30),
	}

	alloc := NewAllocator(nil)
	result, err := alloc.Allocate(context.Background(), AllocateInput{
		Encounters: encounters,
		Blocks:     []models.TimeBlockAllocation{block(1, at(8, 0), at(12, 0))},
		Courts:     []models.Court{{ID: 1}},
		Divisions:  []models.Division{{ID: 1, EventID: 1, MatchBufferMinutes: 5}},
	})
	require.NoError(t, err)
	require.Len(t, result.Assigned, 3)

	byID := make(map[int]Assignment)
	for _, a := range result.Assigned {
		byID[a.EncounterID] = a
	}
	assert.True(t, byID[3].StartTime.After(byID[1].StartTime))
	assert.True(t, byID[3].StartTime.After(byID[2].StartTime))
}

func TestAllocate_BlockCourtRestriction(t *testing.T) {
	encounters := []models.Encounter{testEncounter(1, 1, 1, 1, 10, 11, 20)}

	alloc := NewAllocator(nil)
	result, err := alloc.Allocate(context.Background(), AllocateInput{
		Encounters: encounters,
		Blocks:     []models.TimeBlockAllocation{block(1, at(8, 0), at(12, 0), 2)},
		Courts:     []models.Court{{ID: 1}, {ID: 2}},
		Divisions:  []models.Division{{ID: 1, EventID: 1, MatchBufferMinutes: 5}},
	})
	require.NoError(t, err)

	require.Len(t, result.Assigned, 1)
	assert.Equal(t, 2, result.Assigned[0].CourtID)
}

func TestAllocate_CancelledContextSkipsPartitions(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	encounters := []models.Encounter{
		testEncounter(1, 1, 1, 1, 10, 11, 20),
		testEncounter(2, 2, 1, 1, 20, 21, 20),
	}

	alloc := NewAllocator(nil)
	result, err := alloc.Allocate(ctx, AllocateInput{
		Encounters: encounters,
		Blocks: []models.TimeBlockAllocation{
			block(1, at(8, 0), at(12, 0)),
			block(2, at(8, 0), at(12, 0)),
		},
		Courts: []models.Court{{ID: 1}},
		Divisions: []models.Division{
			{ID: 1, EventID: 1, MatchBufferMinutes: 5},
			{ID: 2, EventID: 1, MatchBufferMinutes: 5},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, result.Summary.TotalAssigned)
	assert.Equal(t, 2, result.Summary.TotalSkipped)
	for _, s := range result.Skipped {
		assert.Equal(t, ReasonCancelled, s.Reason)
	}
}

func TestAllocate_ResultIsConflictFree(t *testing.T) {
	// Shared units across divisions plus a tight court supply: whatever the
	// allocator places must come back clean from the detector.
	encounters := []models.Encounter{
		testEncounter(1, 1, 1, 1, 7, 8, 25),
		testEncounter(2, 1, 1, 1, 9, 10, 25),
		testEncounter(3, 1, 1, 2, 7, 9, 25),
		testEncounter(4, 2, 1, 1, 8, 30, 40),
		testEncounter(5, 2, 1, 1, 10, 31, 40),
	}

	alloc := NewAllocator(nil)
	result, err := alloc.Allocate(context.Background(), AllocateInput{
		Encounters: encounters,
		Blocks: []models.TimeBlockAllocation{
			block(1, at(8, 0), at(12, 0)),
			block(2, at(8, 0), at(12, 0)),
		},
		Courts: []models.Court{{ID: 1}, {ID: 2}},
		Divisions: []models.Division{
			{ID: 1, EventID: 1, MatchBufferMinutes: 5},
			{ID: 2, EventID: 1, MatchBufferMinutes: 5},
		},
	})
	require.NoError(t, err)
	require.Len(t, result.Assigned, 5)

	byID := make(map[int]Assignment)
	for _, a := range result.Assigned {
		byID[a.EncounterID] = a
	}
	grid := &models.ScheduleGrid{}
	for _, enc := range encounters {
		a := byID[enc.ID]
		grid.Encounters = append(grid.Encounters, assigned(enc, a.CourtID, a.StartTime))
	}
	assert.Empty(t, DetectConflicts(grid))
}
