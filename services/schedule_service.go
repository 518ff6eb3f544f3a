package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/courtflow/scheduler/models"
	"github.com/courtflow/scheduler/repositories"
	"github.com/courtflow/scheduler/schedule"
	"github.com/courtflow/scheduler/storage"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// MoveResult is the outcome of a manual move. A conflicting move is still
// applied; HasConflicts and Message tell the operator what they just
// accepted.
type MoveResult struct {
	OK           bool              `json:"ok"`
	HasConflicts bool              `json:"has_conflicts"`
	Message      string            `json:"message,omitempty"`
	Conflicts    []models.Conflict `json:"conflicts,omitempty"`
	Encounter    *models.Encounter `json:"encounter"`
}

type ScheduleService interface {
	LoadGrid(ctx context.Context, eventID int) (*models.ScheduleGrid, error)
	// AutoAllocate runs one allocation pass for the event. Runs against the
	// same event are serialized; a second caller gets ErrAllocationInFlight.
	AutoAllocate(ctx context.Context, eventID int, clearExisting bool) (*schedule.AllocationResult, error)
	// MoveEncounter applies a manual move even when it conflicts, returning
	// the conflicts as a soft warning. Nil court/start clears the slot.
	MoveEncounter(ctx context.Context, encounterID int, courtID *int, startTime *time.Time) (*MoveResult, error)
	DetectConflicts(ctx context.Context, eventID int) ([]models.Conflict, error)
	ClearSchedule(ctx context.Context, eventID int, divisionID *int) error
	// ExportGrid renders the event's schedule to CSV, uploads it to object
	// storage and returns the public URL.
	ExportGrid(ctx context.Context, eventID int) (string, error)
}

type scheduleService struct {
	eventRepo     repositories.EventRepository
	divisionRepo  repositories.DivisionRepository
	courtRepo     repositories.CourtRepository
	timeBlockRepo repositories.TimeBlockRepository
	encounterRepo repositories.EncounterRepository

	allocator *schedule.Allocator
	hub       GridBroadcaster
	publisher EventPublisher
	uploader  storage.FileUploader
	logger    *slog.Logger

	// One allocation in flight per event: the greedy pass must see an
	// exclusive view of the existing assignments.
	allocationLocks sync.Map // eventID -> *sync.Mutex
}

func NewScheduleService(
	eventRepo repositories.EventRepository,
	divisionRepo repositories.DivisionRepository,
	courtRepo repositories.CourtRepository,
	timeBlockRepo repositories.TimeBlockRepository,
	encounterRepo repositories.EncounterRepository,
	allocator *schedule.Allocator,
	hub GridBroadcaster,
	publisher EventPublisher,
	uploader storage.FileUploader,
	logger *slog.Logger,
) ScheduleService {
	return &scheduleService{
		eventRepo:     eventRepo,
		divisionRepo:  divisionRepo,
		courtRepo:     courtRepo,
		timeBlockRepo: timeBlockRepo,
		encounterRepo: encounterRepo,
		allocator:     allocator,
		hub:           hub,
		publisher:     publisher,
		uploader:      uploader,
		logger:        logger,
	}
}

func gridRoom(eventID int) string {
	return fmt.Sprintf("event_%d", eventID)
}

// LoadGrid assembles the full scheduling snapshot for an event, loading the
// five collections in parallel.
func (s *scheduleService) LoadGrid(ctx context.Context, eventID int) (*models.ScheduleGrid, error) {
	grid := &models.ScheduleGrid{}
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		event, err := s.eventRepo.GetByID(gCtx, eventID)
		if err != nil {
			if errors.Is(err, repositories.ErrEventNotFound) {
				return ErrEventNotFound
			}
			return err
		}
		grid.Event = *event
		return nil
	})
	g.Go(func() error {
		courts, err := s.courtRepo.List(gCtx)
		if err != nil {
			return err
		}
		grid.Courts = courts
		return nil
	})
	g.Go(func() error {
		divisions, err := s.divisionRepo.ListByEvent(gCtx, eventID)
		if err != nil {
			return err
		}
		grid.Divisions = divisions
		return nil
	})
	g.Go(func() error {
		encounters, err := s.encounterRepo.ListByEvent(gCtx, eventID)
		if err != nil {
			return err
		}
		grid.Encounters = encounters
		return nil
	})
	g.Go(func() error {
		blocks, err := s.timeBlockRepo.ListByEvent(gCtx, eventID)
		if err != nil {
			return err
		}
		grid.Blocks = blocks
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return grid, nil
}

func (s *scheduleService) AutoAllocate(ctx context.Context, eventID int, clearExisting bool) (*schedule.AllocationResult, error) {
	lock, _ := s.allocationLocks.LoadOrStore(eventID, &sync.Mutex{})
	mu := lock.(*sync.Mutex)
	if !mu.TryLock() {
		return nil, ErrAllocationInFlight
	}
	defer mu.Unlock()

	grid, err := s.LoadGrid(ctx, eventID)
	if err != nil {
		return nil, err
	}

	candidates, existing := splitForAllocation(grid.Encounters, clearExisting)

	result, err := s.allocator.Allocate(ctx, schedule.AllocateInput{
		Encounters:    candidates,
		Existing:      existing,
		Blocks:        grid.Blocks,
		Courts:        grid.Courts,
		Divisions:     grid.Divisions,
		ClearExisting: clearExisting,
	})
	if err != nil {
		return nil, err
	}

	// Persist. Already-assigned partitions stay valid even if the run was
	// cancelled partway, so partial persistence is safe. Only the candidate
	// set loses its old slots; matches under way keep theirs.
	if clearExisting {
		placed := make(map[int]bool, len(result.Assigned))
		for _, a := range result.Assigned {
			placed[a.EncounterID] = true
		}
		for _, enc := range candidates {
			if placed[enc.ID] || !enc.IsAssigned() {
				continue
			}
			if err := s.encounterRepo.UpdateAssignment(ctx, enc.ID, nil, nil, nil); err != nil {
				return nil, fmt.Errorf("failed to clear assignment for encounter %d: %w", enc.ID, err)
			}
		}
	}
	for _, a := range result.Assigned {
		courtID := a.CourtID
		start, end := a.StartTime, a.EndTime
		if err := s.encounterRepo.UpdateAssignment(ctx, a.EncounterID, &courtID, &start, &end); err != nil {
			return nil, fmt.Errorf("failed to persist assignment for encounter %d: %w", a.EncounterID, err)
		}
	}

	s.logger.Info("allocation run finished",
		slog.Int("event_id", eventID),
		slog.String("run_id", result.RunID.String()),
		slog.Int("assigned", result.Summary.TotalAssigned),
		slog.Int("skipped", result.Summary.TotalSkipped),
	)

	s.hub.BroadcastToRoom(gridRoom(eventID), GridMessage{
		Type:    WSScheduleAllocated,
		EventID: eventID,
		Payload: result.Summary,
	})
	if err := s.publisher.PublishJSON(ctx, EventScheduleAllocated, map[string]interface{}{
		"event_id":       eventID,
		"run_id":         result.RunID,
		"total_assigned": result.Summary.TotalAssigned,
		"total_skipped":  result.Summary.TotalSkipped,
	}); err != nil {
		s.logger.Warn("failed to publish schedule.allocated", slog.Any("error", err))
	}

	return result, nil
}

// splitForAllocation partitions an event's encounters into allocation
// candidates and fixed assignments the run must respect. Matches already
// under way (or finished, or cancelled) are never rescheduled.
func splitForAllocation(encounters []models.Encounter, clearExisting bool) (candidates, existing []models.Encounter) {
	for _, enc := range encounters {
		switch enc.Status {
		case models.EncounterScheduled, models.EncounterReady:
			if clearExisting || !enc.IsAssigned() {
				candidates = append(candidates, enc)
			} else {
				existing = append(existing, enc)
			}
		default:
			if enc.IsAssigned() && enc.Status != models.EncounterCancelled {
				existing = append(existing, enc)
			}
		}
	}
	return candidates, existing
}

func (s *scheduleService) MoveEncounter(ctx context.Context, encounterID int, courtID *int, startTime *time.Time) (*MoveResult, error) {
	// Either both placement fields or neither: a half-specified move is a
	// client bug, not a clearing request.
	if (courtID == nil) != (startTime == nil) {
		return nil, fmt.Errorf("%w: court_id and start_time must be provided together or both omitted", ErrValidationFailed)
	}

	enc, err := s.encounterRepo.GetByID(ctx, encounterID)
	if err != nil {
		if errors.Is(err, repositories.ErrEncounterNotFound) {
			return nil, ErrEncounterNotFound
		}
		return nil, err
	}

	// Fresh snapshot immediately before the check; moves may interleave
	// with other moves and with allocation runs.
	grid, err := s.LoadGrid(ctx, enc.EventID)
	if err != nil {
		return nil, err
	}

	check, err := schedule.CheckMove(grid, encounterID, courtID, startTime)
	if err != nil {
		return nil, err
	}

	// A nil pair is a clearing move: the assignment is dropped entirely.
	var endTime *time.Time
	if courtID != nil && startTime != nil {
		end := startTime.Add(time.Duration(enc.DurationMinutes) * time.Minute)
		endTime = &end
	}

	if err := s.encounterRepo.UpdateAssignment(ctx, encounterID, courtID, startTime, endTime); err != nil {
		return nil, err
	}
	enc.CourtID = courtID
	enc.StartTime = startTime
	enc.EndTime = endTime

	result := &MoveResult{
		OK:           true,
		HasConflicts: check.HasConflicts(),
		Message:      check.Message,
		Conflicts:    check.Conflicts,
		Encounter:    enc,
	}

	s.hub.BroadcastToRoom(gridRoom(enc.EventID), GridMessage{
		Type:    WSEncounterMoved,
		EventID: enc.EventID,
		Payload: result,
	})
	if err := s.publisher.PublishJSON(ctx, EventScheduleMoved, map[string]interface{}{
		"event_id":      enc.EventID,
		"encounter_id":  encounterID,
		"has_conflicts": result.HasConflicts,
	}); err != nil {
		s.logger.Warn("failed to publish schedule.moved", slog.Any("error", err))
	}

	return result, nil
}

func (s *scheduleService) DetectConflicts(ctx context.Context, eventID int) ([]models.Conflict, error) {
	grid, err := s.LoadGrid(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return schedule.DetectConflicts(grid), nil
}

func (s *scheduleService) ClearSchedule(ctx context.Context, eventID int, divisionID *int) error {
	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return ErrEventNotFound
		}
		return err
	}
	if err := s.encounterRepo.ClearAssignments(ctx, eventID, divisionID); err != nil {
		return err
	}

	s.hub.BroadcastToRoom(gridRoom(eventID), GridMessage{
		Type:    WSScheduleCleared,
		EventID: eventID,
	})
	if err := s.publisher.PublishJSON(ctx, EventScheduleCleared, map[string]interface{}{
		"event_id":    eventID,
		"division_id": divisionID,
	}); err != nil {
		s.logger.Warn("failed to publish schedule.cleared", slog.Any("error", err))
	}
	return nil
}

func (s *scheduleService) ExportGrid(ctx context.Context, eventID int) (string, error) {
	grid, err := s.LoadGrid(ctx, eventID)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := WriteGridCSV(&buf, grid); err != nil {
		return "", err
	}

	key := fmt.Sprintf("exports/event_%d_%s.csv", eventID, uuid.New().String())
	upload, err := s.uploader.Upload(ctx, key, "text/csv", &buf)
	if err != nil {
		return "", fmt.Errorf("failed to upload schedule export: %w", err)
	}

	s.logger.Info("schedule exported", slog.Int("event_id", eventID), slog.String("key", key))
	return upload.Location, nil
}

// WriteGridCSV renders the assigned portion of a grid as CSV, ordered by
// court then start time. Unscheduled encounters are listed last with empty
// court/time columns.
func WriteGridCSV(buf *bytes.Buffer, grid *models.ScheduleGrid) error {
	courtLabels := make(map[int]string, len(grid.Courts))
	for _, c := range grid.Courts {
		courtLabels[c.ID] = c.Label
	}
	divisionNames := make(map[int]string, len(grid.Divisions))
	for _, d := range grid.Divisions {
		divisionNames[d.ID] = d.Name
	}

	rows := append([]models.Encounter(nil), grid.Encounters...)
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.IsAssigned() != b.IsAssigned() {
			return a.IsAssigned()
		}
		if !a.IsAssigned() {
			return false
		}
		if *a.CourtID != *b.CourtID {
			return *a.CourtID < *b.CourtID
		}
		return a.StartTime.Before(*b.StartTime)
	})

	w := csv.NewWriter(buf)
	if err := w.Write([]string{"court", "start", "end", "division", "round", "encounter_id", "unit1", "unit2", "status"}); err != nil {
		return err
	}
	for _, enc := range rows {
		record := []string{"", "", ""}
		if start, end, ok := enc.Interval(); ok {
			record[0] = courtLabels[*enc.CourtID]
			record[1] = start.Format(time.RFC3339)
			record[2] = end.Format(time.RFC3339)
		}
		record = append(record,
			divisionNames[enc.DivisionID],
			strconv.Itoa(enc.Round),
			strconv.Itoa(enc.ID),
			formatUnit(enc.Unit1ID),
			formatUnit(enc.Unit2ID),
			string(enc.Status),
		)
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatUnit(id *int) string {
	if id == nil {
		return ""
	}
	return strconv.Itoa(*id)
}
