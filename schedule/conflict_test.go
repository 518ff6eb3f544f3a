package schedule

import (
	"testing"

	"github.com/courtflow/scheduler/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectConflicts_CourtOverlap(t *testing.T) {
	grid := &models.ScheduleGrid{
		Encounters: []models.Encounter{
			assigned(testEncounter(1, 1, 1, 1, 10, 11, 60), 1, at(10, 0)),
			assigned(testEncounter(2, 1, 1, 1, 12, 13, 60), 1, at(10, 30)),
		},
	}

	conflicts := DetectConflicts(grid)
	require.Len(t, conflicts, 1)
	c := conflicts[0]
	assert.Equal(t, models.ConflictCourtOverlap, c.Type)
	require.NotNil(t, c.CourtID)
	assert.Equal(t, 1, *c.CourtID)
	assert.Equal(t, 1, c.EncounterAID)
	assert.Equal(t, 2, c.EncounterBID)
	assert.Equal(t, at(10, 30), c.OverlapStart)
	assert.Equal(t, at(11, 0), c.OverlapEnd)
}

func TestDetectConflicts_UnitOverlapAcrossCourts(t *testing.T) {
	grid := &models.ScheduleGrid{
		Encounters: []models.Encounter{
			assigned(testEncounter(1, 1, 1, 1, 7, 11, 60), 1, at(10, 0)),
			assigned(testEncounter(2, 2, 1, 1, 7, 13, 60), 2, at(10, 45)),
		},
	}

	conflicts := DetectConflicts(grid)
	require.Len(t, conflicts, 1)
	assert.Equal(t, models.ConflictUnitOverlap, conflicts[0].Type)
	require.NotNil(t, conflicts[0].UnitID)
	assert.Equal(t, 7, *conflicts[0].UnitID)
}

func TestDetectConflicts_TouchingIntervalsAreClean(t *testing.T) {
	grid := &models.ScheduleGrid{
		Encounters: []models.Encounter{
			assigned(testEncounter(1, 1, 1, 1, 10, 11, 60), 1, at(10, 0)),
			assigned(testEncounter(2, 1, 1, 1, 10, 13, 60), 1, at(11, 0)),
		},
	}
	assert.Empty(t, DetectConflicts(grid))
}

func TestDetectConflicts_IgnoresUnassignedAndCancelled(t *testing.T) {
	cancelled := assigned(testEncounter(2, 1, 1, 1, 10, 11, 60), 1, at(10, 0))
	cancelled.Status = models.EncounterCancelled

	grid := &models.ScheduleGrid{
		Encounters: []models.Encounter{
			assigned(testEncounter(1, 1, 1, 1, 10, 11, 60), 1, at(10, 0)),
			cancelled,
			testEncounter(3, 1, 1, 1, 10, 11, 60), // never assigned
		},
	}
	assert.Empty(t, DetectConflicts(grid))
}

func TestDetectConflicts_OrderedOutput(t *testing.T) {
	// Two lanes in conflict; court conflicts come first, lanes in ID order.
	grid := &models.ScheduleGrid{
		Encounters: []models.Encounter{
			assigned(testEncounter(1, 1, 1, 1, 20, 21, 60), 2, at(10, 0)),
			assigned(testEncounter(2, 1, 1, 1, 22, 23, 60), 2, at(10, 30)),
			assigned(testEncounter(3, 2, 1, 1, 20, 24, 60), 1, at(10, 15)),
		},
	}

	conflicts := DetectConflicts(grid)
	require.Len(t, conflicts, 2)
	assert.Equal(t, models.ConflictCourtOverlap, conflicts[0].Type)
	assert.Equal(t, models.ConflictUnitOverlap, conflicts[1].Type)
}

func TestCheckMove_ClearingMoveNeverConflicts(t *testing.T) {
	grid := &models.ScheduleGrid{
		Encounters: []models.Encounter{
			assigned(testEncounter(1, 1, 1, 1, 10, 11, 60), 1, at(10, 0)),
		},
	}

	check, err := CheckMove(grid, 1, nil, nil)
	require.NoError(t, err)
	assert.False(t, check.HasConflicts())
	assert.Empty(t, check.Message)
}

func TestCheckMove_ReportsCourtAndUnitConflicts(t *testing.T) {
	grid := &models.ScheduleGrid{
		Encounters: []models.Encounter{
			assigned(testEncounter(1, 1, 1, 1, 10, 11, 60), 1, at(10, 0)),
			assigned(testEncounter(2, 1, 1, 1, 10, 13, 60), 2, at(12, 0)),
		},
	}

	courtID := 1
	start := at(10, 30)
	check, err := CheckMove(grid, 2, &courtID, &start)
	require.NoError(t, err)
	require.True(t, check.HasConflicts())
	// Encounter 1 holds court 1 and shares unit 10 with encounter 2.
	assert.Len(t, check.Conflicts, 2)
	assert.NotEmpty(t, check.Message)
}

func TestCheckMove_CleanSlot(t *testing.T) {
	grid := &models.ScheduleGrid{
		Encounters: []models.Encounter{
			assigned(testEncounter(1, 1, 1, 1, 10, 11, 60), 1, at(10, 0)),
			assigned(testEncounter(2, 1, 1, 1, 12, 13, 60), 2, at(10, 0)),
		},
	}

	courtID := 2
	start := at(11, 0)
	check, err := CheckMove(grid, 1, &courtID, &start)
	require.NoError(t, err)
	assert.False(t, check.HasConflicts())
}

func TestCheckMove_UnknownEncounter(t *testing.T) {
	grid := &models.ScheduleGrid{}
	_, err := CheckMove(grid, 42, nil, nil)
	assert.ErrorIs(t, err, ErrEncounterNotInGrid)
}
