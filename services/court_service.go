package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/courtflow/scheduler/models"
	"github.com/courtflow/scheduler/repositories"
)

type CreateCourtInput struct {
	Label     string `json:"label"`
	SortOrder int    `json:"sort_order"`
}

type CreateCourtGroupInput struct {
	Name     string `json:"name"`
	CourtIDs []int  `json:"court_ids"`
}

type CourtService interface {
	CreateCourt(ctx context.Context, input CreateCourtInput) (*models.Court, error)
	GetCourt(ctx context.Context, id int) (*models.Court, error)
	ListCourts(ctx context.Context) ([]models.Court, error)
	UpdateCourt(ctx context.Context, id int, input CreateCourtInput) (*models.Court, error)
	DeleteCourt(ctx context.Context, id int) error

	CreateCourtGroup(ctx context.Context, input CreateCourtGroupInput) (*models.CourtGroup, error)
	ListCourtGroups(ctx context.Context) ([]models.CourtGroup, error)
	DeleteCourtGroup(ctx context.Context, id int) error
}

type courtService struct {
	courtRepo repositories.CourtRepository
	logger    *slog.Logger
}

func NewCourtService(courtRepo repositories.CourtRepository, logger *slog.Logger) CourtService {
	return &courtService{courtRepo: courtRepo, logger: logger}
}

func (s *courtService) CreateCourt(ctx context.Context, input CreateCourtInput) (*models.Court, error) {
	if input.Label == "" {
		return nil, fmt.Errorf("%w: court label is required", ErrValidationFailed)
	}
	court := &models.Court{Label: input.Label, SortOrder: input.SortOrder}
	if err := s.courtRepo.Create(ctx, court); err != nil {
		return nil, mapCourtRepoError(err)
	}
	return court, nil
}

func (s *courtService) GetCourt(ctx context.Context, id int) (*models.Court, error) {
	court, err := s.courtRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapCourtRepoError(err)
	}
	return court, nil
}

func (s *courtService) ListCourts(ctx context.Context) ([]models.Court, error) {
	return s.courtRepo.List(ctx)
}

func (s *courtService) UpdateCourt(ctx context.Context, id int, input CreateCourtInput) (*models.Court, error) {
	if input.Label == "" {
		return nil, fmt.Errorf("%w: court label is required", ErrValidationFailed)
	}
	court := &models.Court{ID: id, Label: input.Label, SortOrder: input.SortOrder}
	if err := s.courtRepo.Update(ctx, court); err != nil {
		return nil, mapCourtRepoError(err)
	}
	return s.GetCourt(ctx, id)
}

func (s *courtService) DeleteCourt(ctx context.Context, id int) error {
	if err := s.courtRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrCourtInUse) {
			return fmt.Errorf("%w: court has scheduled encounters", ErrValidationFailed)
		}
		return mapCourtRepoError(err)
	}
	return nil
}

func (s *courtService) CreateCourtGroup(ctx context.Context, input CreateCourtGroupInput) (*models.CourtGroup, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: group name is required", ErrValidationFailed)
	}
	if len(input.CourtIDs) == 0 {
		return nil, fmt.Errorf("%w: group must contain at least one court", ErrValidationFailed)
	}
	group := &models.CourtGroup{Name: input.Name, CourtIDs: input.CourtIDs}
	if err := s.courtRepo.CreateGroup(ctx, group); err != nil {
		return nil, mapCourtRepoError(err)
	}
	return group, nil
}

func (s *courtService) ListCourtGroups(ctx context.Context) ([]models.CourtGroup, error) {
	return s.courtRepo.ListGroups(ctx)
}

func (s *courtService) DeleteCourtGroup(ctx context.Context, id int) error {
	return mapCourtRepoError(s.courtRepo.DeleteGroup(ctx, id))
}

func mapCourtRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrCourtNotFound):
		return ErrCourtNotFound
	case errors.Is(err, repositories.ErrCourtLabelConflict):
		return ErrCourtLabelTaken
	case errors.Is(err, repositories.ErrCourtGroupNotFound):
		return ErrCourtGroupNotFound
	default:
		return err
	}
}
