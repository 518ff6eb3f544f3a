package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/courtflow/scheduler/models"
	"github.com/courtflow/scheduler/repositories"
)

type CreateTimeBlockInput struct {
	EventID    int       `json:"event_id"`
	DivisionID int       `json:"division_id"`
	PhaseID    *int      `json:"phase_id,omitempty"`
	CourtIDs   []int     `json:"court_ids,omitempty"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
}

type TimeBlockService interface {
	CreateTimeBlock(ctx context.Context, input CreateTimeBlockInput) (*models.TimeBlockAllocation, error)
	GetTimeBlock(ctx context.Context, id int) (*models.TimeBlockAllocation, error)
	ListTimeBlocks(ctx context.Context, eventID int) ([]models.TimeBlockAllocation, error)
	DeleteTimeBlock(ctx context.Context, id int) error
}

type timeBlockService struct {
	timeBlockRepo repositories.TimeBlockRepository
	eventRepo     repositories.EventRepository
	divisionRepo  repositories.DivisionRepository
	logger        *slog.Logger
}

func NewTimeBlockService(
	timeBlockRepo repositories.TimeBlockRepository,
	eventRepo repositories.EventRepository,
	divisionRepo repositories.DivisionRepository,
	logger *slog.Logger,
) TimeBlockService {
	return &timeBlockService{
		timeBlockRepo: timeBlockRepo,
		eventRepo:     eventRepo,
		divisionRepo:  divisionRepo,
		logger:        logger,
	}
}

func (s *timeBlockService) CreateTimeBlock(ctx context.Context, input CreateTimeBlockInput) (*models.TimeBlockAllocation, error) {
	if !input.EndTime.After(input.StartTime) {
		return nil, ErrInvalidTimeWindow
	}

	event, err := s.eventRepo.GetByID(ctx, input.EventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	if input.StartTime.Before(event.GridStart) || input.EndTime.After(event.GridEnd) {
		return nil, fmt.Errorf("%w: block must lie within the event grid window", ErrInvalidTimeWindow)
	}

	division, err := s.divisionRepo.GetByID(ctx, input.DivisionID)
	if err != nil {
		if errors.Is(err, repositories.ErrDivisionNotFound) {
			return nil, ErrDivisionNotFound
		}
		return nil, err
	}
	if division.EventID != input.EventID {
		return nil, fmt.Errorf("%w: division belongs to a different event", ErrValidationFailed)
	}

	block := &models.TimeBlockAllocation{
		EventID:    input.EventID,
		DivisionID: input.DivisionID,
		PhaseID:    input.PhaseID,
		CourtIDs:   input.CourtIDs,
		StartTime:  input.StartTime,
		EndTime:    input.EndTime,
	}
	if err := s.timeBlockRepo.Create(ctx, block); err != nil {
		if errors.Is(err, repositories.ErrCourtNotFound) {
			return nil, ErrCourtNotFound
		}
		return nil, err
	}
	return block, nil
}

func (s *timeBlockService) GetTimeBlock(ctx context.Context, id int) (*models.TimeBlockAllocation, error) {
	block, err := s.timeBlockRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTimeBlockNotFound) {
			return nil, ErrTimeBlockNotFound
		}
		return nil, err
	}
	return block, nil
}

func (s *timeBlockService) ListTimeBlocks(ctx context.Context, eventID int) ([]models.TimeBlockAllocation, error) {
	return s.timeBlockRepo.ListByEvent(ctx, eventID)
}

func (s *timeBlockService) DeleteTimeBlock(ctx context.Context, id int) error {
	if err := s.timeBlockRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrTimeBlockNotFound) {
			return ErrTimeBlockNotFound
		}
		return err
	}
	return nil
}
