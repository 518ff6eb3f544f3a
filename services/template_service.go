package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/courtflow/scheduler/brackets"
	"github.com/courtflow/scheduler/models"
	"github.com/courtflow/scheduler/repositories"
)

// PhaseInput is one phase of a template create/update payload. Sort order is
// positional: the list index determines it, and the service renumbers
// densely on every structural edit.
type PhaseInput struct {
	Name                 string                 `json:"name"`
	Type                 models.PhaseType       `json:"type"`
	IncomingSlotCount    int                    `json:"incoming_slot_count"`
	AdvancingSlotCount   int                    `json:"advancing_slot_count"`
	PoolCount            int                    `json:"pool_count"`
	BestOf               int                    `json:"best_of"`
	MatchDurationMinutes int                    `json:"match_duration_minutes"`
	Seeding              models.SeedingStrategy `json:"seeding"`
	IncludeConsolation   bool                   `json:"include_consolation"`
	AwardType            *models.AwardType      `json:"award_type,omitempty"`
}

type RuleInput struct {
	SourcePhaseOrder int  `json:"source_phase_order"`
	SourcePoolIndex  *int `json:"source_pool_index,omitempty"`
	FinishPosition   int  `json:"finish_position"`
	TargetPhaseOrder int  `json:"target_phase_order"`
	TargetSlotNumber int  `json:"target_slot_number"`
}

type ExitPositionInput struct {
	Rank      int               `json:"rank"`
	Label     string            `json:"label"`
	AwardType *models.AwardType `json:"award_type,omitempty"`
}

type CreateTemplateInput struct {
	Name            string                      `json:"name"`
	Kind            models.TemplateKind         `json:"kind"`
	GenerateBracket *models.GenerateBracketSpec `json:"generate_bracket,omitempty"`
	Phases          []PhaseInput                `json:"phases,omitempty"`
	Rules           []RuleInput                 `json:"rules,omitempty"`
	ExitPositions   []ExitPositionInput         `json:"exit_positions,omitempty"`
}

// ValidationReport is the outcome of validating a template: the violation
// list plus whether activation would be allowed.
type ValidationReport struct {
	OK         bool                 `json:"ok"`
	Violations []brackets.Violation `json:"violations"`
}

type TemplateService interface {
	CreateTemplate(ctx context.Context, input CreateTemplateInput) (*models.Template, error)
	GetTemplate(ctx context.Context, id int) (*models.Template, error)
	UpdateTemplate(ctx context.Context, id int, input CreateTemplateInput) (*models.Template, error)
	DeleteTemplate(ctx context.Context, id int) error
	Validate(ctx context.Context, id int) (*ValidationReport, error)
	Activate(ctx context.Context, id int) (*ValidationReport, error)
	AutoGenerateRules(ctx context.Context, id int, persist bool) ([]models.AdvancementRule, error)
	InsertPhase(ctx context.Context, templateID int, input PhaseInput, position int) (*models.Template, error)
	RemovePhase(ctx context.Context, templateID, phaseID int) (*models.Template, error)
}

type templateService struct {
	templateRepo repositories.TemplateRepository
	publisher    EventPublisher
	logger       *slog.Logger
}

func NewTemplateService(templateRepo repositories.TemplateRepository, publisher EventPublisher, logger *slog.Logger) TemplateService {
	return &templateService{
		templateRepo: templateRepo,
		publisher:    publisher,
		logger:       logger,
	}
}

func (s *templateService) CreateTemplate(ctx context.Context, input CreateTemplateInput) (*models.Template, error) {
	tpl, err := templateFromInput(input)
	if err != nil {
		return nil, err
	}
	if err := s.templateRepo.Create(ctx, tpl); err != nil {
		return nil, mapTemplateRepoError(err)
	}
	return tpl, nil
}

func templateFromInput(input CreateTemplateInput) (*models.Template, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: template name is required", ErrValidationFailed)
	}
	switch input.Kind {
	case models.TemplateFlexible:
		if input.GenerateBracket == nil {
			return nil, fmt.Errorf("%w: flexible template requires a generate_bracket spec", ErrValidationFailed)
		}
	case models.TemplateStructured:
		if len(input.Phases) == 0 {
			return nil, fmt.Errorf("%w: structured template requires at least one phase", ErrValidationFailed)
		}
	default:
		return nil, fmt.Errorf("%w: unknown template kind %q", ErrValidationFailed, input.Kind)
	}

	tpl := &models.Template{
		Name:            input.Name,
		Kind:            input.Kind,
		GenerateBracket: input.GenerateBracket,
	}
	for i, p := range input.Phases {
		seeding := p.Seeding
		if seeding == "" {
			seeding = models.SeedingSequential
		}
		bestOf := p.BestOf
		if bestOf == 0 {
			bestOf = 1
		}
		tpl.Phases = append(tpl.Phases, models.Phase{
			Name:                 p.Name,
			Type:                 p.Type,
			SortOrder:            i + 1,
			IncomingSlotCount:    p.IncomingSlotCount,
			AdvancingSlotCount:   p.AdvancingSlotCount,
			PoolCount:            p.PoolCount,
			BestOf:               bestOf,
			MatchDurationMinutes: p.MatchDurationMinutes,
			Seeding:              seeding,
			IncludeConsolation:   p.IncludeConsolation,
			AwardType:            p.AwardType,
		})
	}
	for _, r := range input.Rules {
		tpl.Rules = append(tpl.Rules, models.AdvancementRule{
			SourcePhaseOrder: r.SourcePhaseOrder,
			SourcePoolIndex:  r.SourcePoolIndex,
			FinishPosition:   r.FinishPosition,
			TargetPhaseOrder: r.TargetPhaseOrder,
			TargetSlotNumber: r.TargetSlotNumber,
		})
	}
	for _, e := range input.ExitPositions {
		tpl.ExitPositions = append(tpl.ExitPositions, models.ExitPosition{
			Rank:      e.Rank,
			Label:     e.Label,
			AwardType: e.AwardType,
		})
	}
	return tpl, nil
}

func (s *templateService) GetTemplate(ctx context.Context, id int) (*models.Template, error) {
	tpl, err := s.templateRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapTemplateRepoError(err)
	}
	return tpl, nil
}

func (s *templateService) UpdateTemplate(ctx context.Context, id int, input CreateTemplateInput) (*models.Template, error) {
	existing, err := s.templateRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapTemplateRepoError(err)
	}

	updated, err := templateFromInput(input)
	if err != nil {
		return nil, err
	}
	updated.ID = existing.ID

	if err := s.templateRepo.Update(ctx, updated); err != nil {
		return nil, mapTemplateRepoError(err)
	}
	if err := s.templateRepo.ReplacePhases(ctx, id, updated.Phases); err != nil {
		return nil, err
	}
	if err := s.templateRepo.ReplaceRules(ctx, id, updated.Rules); err != nil {
		return nil, err
	}
	return s.GetTemplate(ctx, id)
}

func (s *templateService) DeleteTemplate(ctx context.Context, id int) error {
	if err := s.templateRepo.Delete(ctx, id); err != nil {
		return mapTemplateRepoError(err)
	}
	return nil
}

func (s *templateService) Validate(ctx context.Context, id int) (*ValidationReport, error) {
	tpl, err := s.templateRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapTemplateRepoError(err)
	}
	violations := brackets.ValidateTemplate(tpl)
	return &ValidationReport{
		OK:         brackets.Activatable(violations),
		Violations: violations,
	}, nil
}

// Activate validates the template and marks it active only when no fatal
// violations remain. The violation list is returned either way so the
// operator sees what blocked activation.
func (s *templateService) Activate(ctx context.Context, id int) (*ValidationReport, error) {
	report, err := s.Validate(ctx, id)
	if err != nil {
		return nil, err
	}
	if !report.OK {
		return report, ErrTemplateNotValid
	}

	if err := s.templateRepo.SetActive(ctx, id, true); err != nil {
		return nil, mapTemplateRepoError(err)
	}

	if err := s.publisher.PublishJSON(ctx, EventTemplateActivated, map[string]interface{}{
		"template_id": id,
	}); err != nil {
		s.logger.Warn("failed to publish template.activated", slog.Int("template_id", id), slog.Any("error", err))
	}
	return report, nil
}

func (s *templateService) AutoGenerateRules(ctx context.Context, id int, persist bool) ([]models.AdvancementRule, error) {
	tpl, err := s.templateRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapTemplateRepoError(err)
	}
	rules := brackets.AutoGenerateRules(tpl.Phases, brackets.RuleGenOptions{})
	if persist {
		if err := s.templateRepo.ReplaceRules(ctx, id, rules); err != nil {
			return nil, err
		}
	}
	return rules, nil
}

// InsertPhase places a new phase at the given 1-based position (0 or past
// the end appends) and renumbers the whole list.
func (s *templateService) InsertPhase(ctx context.Context, templateID int, input PhaseInput, position int) (*models.Template, error) {
	tpl, err := s.templateRepo.GetByID(ctx, templateID)
	if err != nil {
		return nil, mapTemplateRepoError(err)
	}

	phase := models.Phase{
		Name:                 input.Name,
		Type:                 input.Type,
		IncomingSlotCount:    input.IncomingSlotCount,
		AdvancingSlotCount:   input.AdvancingSlotCount,
		PoolCount:            input.PoolCount,
		BestOf:               input.BestOf,
		MatchDurationMinutes: input.MatchDurationMinutes,
		Seeding:              input.Seeding,
		IncludeConsolation:   input.IncludeConsolation,
		AwardType:            input.AwardType,
	}
	if phase.BestOf == 0 {
		phase.BestOf = 1
	}
	if phase.Seeding == "" {
		phase.Seeding = models.SeedingSequential
	}

	phases := tpl.Phases
	if position < 1 || position > len(phases) {
		phases = append(phases, phase)
	} else {
		phases = append(phases[:position-1], append([]models.Phase{phase}, phases[position-1:]...)...)
	}
	renumberPhases(phases)

	if err := s.templateRepo.ReplacePhases(ctx, templateID, phases); err != nil {
		return nil, err
	}
	return s.GetTemplate(ctx, templateID)
}

// RemovePhase drops a phase and renumbers the remaining sort orders densely.
func (s *templateService) RemovePhase(ctx context.Context, templateID, phaseID int) (*models.Template, error) {
	tpl, err := s.templateRepo.GetByID(ctx, templateID)
	if err != nil {
		return nil, mapTemplateRepoError(err)
	}

	phases := make([]models.Phase, 0, len(tpl.Phases))
	found := false
	for _, p := range tpl.Phases {
		if p.ID == phaseID {
			found = true
			continue
		}
		phases = append(phases, p)
	}
	if !found {
		return nil, ErrPhaseNotFound
	}
	renumberPhases(phases)

	if err := s.templateRepo.ReplacePhases(ctx, templateID, phases); err != nil {
		return nil, err
	}
	return s.GetTemplate(ctx, templateID)
}

func renumberPhases(phases []models.Phase) {
	for i := range phases {
		phases[i].SortOrder = i + 1
	}
}

func mapTemplateRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrTemplateNotFound):
		return ErrTemplateNotFound
	case errors.Is(err, repositories.ErrTemplateNameConflict):
		return ErrTemplateNameTaken
	case errors.Is(err, repositories.ErrPhaseNotFound):
		return ErrPhaseNotFound
	default:
		return err
	}
}
