package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/courtflow/scheduler/brackets"
	"github.com/courtflow/scheduler/models"
	"github.com/courtflow/scheduler/repositories"
)

// ResolveBracketInput is the preview payload: a phase shape plus either the
// seeded unit IDs or a bare count.
type ResolveBracketInput struct {
	Type                models.PhaseType       `json:"type"`
	PoolCount           int                    `json:"pool_count,omitempty"`
	Seeding             models.SeedingStrategy `json:"seeding,omitempty"`
	IncludeConsolation  bool                   `json:"include_consolation,omitempty"`
	PlayoffUnitsPerPool int                    `json:"playoff_units_per_pool,omitempty"`
	SwissRounds         int                    `json:"swiss_rounds,omitempty"`
	UnitCount           int                    `json:"unit_count,omitempty"`
	UnitIDs             []int                  `json:"unit_ids,omitempty"`
}

type BracketService interface {
	// ResolveBracket derives a phase shape without persisting anything.
	ResolveBracket(ctx context.Context, input ResolveBracketInput) (*brackets.Resolution, error)
	// ExpandPhase resolves a division's phase for the given units and
	// persists the encounter skeleton transactionally.
	ExpandPhase(ctx context.Context, divisionID, phaseID int, unitIDs []int) ([]models.Encounter, error)
}

type bracketService struct {
	db            *sql.DB
	templateRepo  repositories.TemplateRepository
	divisionRepo  repositories.DivisionRepository
	encounterRepo repositories.EncounterRepository
	logger        *slog.Logger
}

func NewBracketService(
	db *sql.DB,
	templateRepo repositories.TemplateRepository,
	divisionRepo repositories.DivisionRepository,
	encounterRepo repositories.EncounterRepository,
	logger *slog.Logger,
) BracketService {
	return &bracketService{
		db:            db,
		templateRepo:  templateRepo,
		divisionRepo:  divisionRepo,
		encounterRepo: encounterRepo,
		logger:        logger,
	}
}

func (s *bracketService) ResolveBracket(ctx context.Context, input ResolveBracketInput) (*brackets.Resolution, error) {
	unitIDs := input.UnitIDs
	if len(unitIDs) == 0 && input.UnitCount > 0 {
		// Preview with a bare count: synthetic unit IDs in seed order.
		unitIDs = make([]int, input.UnitCount)
		for i := range unitIDs {
			unitIDs[i] = i + 1
		}
	}

	res, err := brackets.Resolve(brackets.PhaseSpec{
		Type:                input.Type,
		PoolCount:           input.PoolCount,
		Seeding:             input.Seeding,
		IncludeConsolation:  input.IncludeConsolation,
		PlayoffUnitsPerPool: input.PlayoffUnitsPerPool,
		SwissRounds:         input.SwissRounds,
	}, unitIDs)
	if err != nil {
		return nil, mapBracketError(err)
	}
	return res, nil
}

// ExpandPhase creates the persisted encounters for one phase of a division.
// Two passes inside one transaction: create every encounter, then link each
// one to the encounter its winner feeds via the skeleton UIDs.
func (s *bracketService) ExpandPhase(ctx context.Context, divisionID, phaseID int, unitIDs []int) ([]models.Encounter, error) {
	division, err := s.divisionRepo.GetByID(ctx, divisionID)
	if err != nil {
		if errors.Is(err, repositories.ErrDivisionNotFound) {
			return nil, ErrDivisionNotFound
		}
		return nil, err
	}
	if division.TemplateID == nil {
		return nil, ErrDivisionNoTemplate
	}

	tpl, err := s.templateRepo.GetByID(ctx, *division.TemplateID)
	if err != nil {
		return nil, mapTemplateRepoError(err)
	}

	resolution, phase, err := s.resolveForTemplate(tpl, phaseID, unitIDs)
	if err != nil {
		return nil, err
	}

	durationMinutes := division.EncounterDurationMinutes(bestOfFor(phase))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Re-expansion replaces any previous skeleton for the phase.
	if err := s.encounterRepo.DeleteByPhase(ctx, tx, divisionID, phaseID); err != nil {
		return nil, err
	}

	// First pass: create rows and remember each skeleton UID's database ID.
	brackets.SortSkeleton(resolution.Encounters)
	idByUID := make(map[string]int, len(resolution.Encounters))
	created := make([]models.Encounter, 0, len(resolution.Encounters))
	for _, sk := range resolution.Encounters {
		uid := sk.UID
		enc := models.Encounter{
			EventID:         division.EventID,
			DivisionID:      divisionID,
			PhaseID:         phaseID,
			Round:           sk.Round,
			OrderInRound:    sk.OrderInRound,
			PoolIndex:       sk.PoolIndex,
			BracketUID:      &uid,
			Unit1ID:         sk.Unit1ID,
			Unit2ID:         sk.Unit2ID,
			DurationMinutes: durationMinutes,
			Status:          models.EncounterScheduled,
		}
		if sk.IsBye {
			// A bye is decided the moment it exists; it never needs a court.
			enc.Status = models.EncounterCompleted
		}
		if err := s.encounterRepo.Create(ctx, tx, &enc); err != nil {
			return nil, err
		}
		idByUID[sk.UID] = enc.ID
		created = append(created, enc)
	}

	// Second pass: wire winner-feeds-into links from the skeleton sources.
	for _, sk := range resolution.Encounters {
		if err := s.linkSource(ctx, tx, idByUID, sk.SourceEncounter1UID, sk.UID, 1); err != nil {
			return nil, err
		}
		if err := s.linkSource(ctx, tx, idByUID, sk.SourceEncounter2UID, sk.UID, 2); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit phase expansion: %w", err)
	}

	s.logger.Info("phase expanded",
		slog.Int("division_id", divisionID),
		slog.Int("phase_id", phaseID),
		slog.Int("encounters", len(created)),
		slog.Int("byes", resolution.ByeCount),
	)
	return created, nil
}

func (s *bracketService) linkSource(ctx context.Context, exec repositories.SQLExecutor, idByUID map[string]int, sourceUID *string, targetUID string, slot int) error {
	if sourceUID == nil {
		return nil
	}
	sourceID, ok := idByUID[*sourceUID]
	if !ok {
		return nil
	}
	targetID := idByUID[targetUID]
	return s.encounterRepo.UpdateNextEncounter(ctx, exec, sourceID, &targetID, &slot)
}

// resolveForTemplate picks the resolution path for the template kind: a
// structured template resolves the stored phase row, a flexible one derives
// the shape from the unit count.
func (s *bracketService) resolveForTemplate(tpl *models.Template, phaseID int, unitIDs []int) (*brackets.Resolution, *models.Phase, error) {
	if tpl.Kind == models.TemplateFlexible {
		res, err := brackets.ResolveFlexible(tpl.GenerateBracket, unitIDs)
		if err != nil {
			return nil, nil, mapBracketError(err)
		}
		return res, nil, nil
	}

	var phase *models.Phase
	for i := range tpl.Phases {
		if tpl.Phases[i].ID == phaseID {
			phase = &tpl.Phases[i]
			break
		}
	}
	if phase == nil {
		return nil, nil, ErrPhaseNotFound
	}

	res, err := brackets.Resolve(brackets.PhaseSpec{
		Type:               phase.Type,
		PoolCount:          phase.PoolCount,
		Seeding:            phase.Seeding,
		IncludeConsolation: phase.IncludeConsolation,
	}, unitIDs)
	if err != nil {
		return nil, nil, mapBracketError(err)
	}
	return res, phase, nil
}

func bestOfFor(phase *models.Phase) int {
	if phase == nil || phase.BestOf == 0 {
		return 1
	}
	return phase.BestOf
}

func mapBracketError(err error) error {
	switch {
	case errors.Is(err, brackets.ErrNotEnoughUnits):
		return fmt.Errorf("%w: %v", ErrNotEnoughUnits, err)
	case errors.Is(err, brackets.ErrAwardPhase),
		errors.Is(err, brackets.ErrUnsupportedType),
		errors.Is(err, brackets.ErrInvalidPoolCount),
		errors.Is(err, brackets.ErrMissingBracketSpec):
		return fmt.Errorf("%w: %v", ErrPhaseNotResolvable, err)
	default:
		return err
	}
}
