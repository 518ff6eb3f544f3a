package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/courtflow/scheduler/models"
	"github.com/lib/pq"
)

var (
	ErrTemplateNotFound     = errors.New("template not found")
	ErrTemplateNameConflict = errors.New("template name conflict")
	ErrPhaseNotFound        = errors.New("phase not found")
)

type TemplateRepository interface {
	Create(ctx context.Context, tpl *models.Template) error
	GetByID(ctx context.Context, id int) (*models.Template, error)
	Update(ctx context.Context, tpl *models.Template) error
	Delete(ctx context.Context, id int) error
	SetActive(ctx context.Context, id int, active bool) error
	ReplaceRules(ctx context.Context, templateID int, rules []models.AdvancementRule) error
	ReplacePhases(ctx context.Context, templateID int, phases []models.Phase) error
}

type postgresTemplateRepository struct {
	db *sql.DB
}

func NewPostgresTemplateRepository(db *sql.DB) TemplateRepository {
	return &postgresTemplateRepository{db: db}
}

func (r *postgresTemplateRepository) Create(ctx context.Context, tpl *models.Template) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var gbType, gbConsolation, gbCalcByes interface{}
	if tpl.GenerateBracket != nil {
		gbType = string(tpl.GenerateBracket.Type)
		gbConsolation = tpl.GenerateBracket.Consolation
		gbCalcByes = tpl.GenerateBracket.CalculateByes
	}

	query := `
		INSERT INTO templates (name, kind, gb_type, gb_consolation, gb_calculate_byes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`
	err = tx.QueryRowContext(ctx, query,
		tpl.Name, tpl.Kind, gbType, gbConsolation, gbCalcByes,
	).Scan(&tpl.ID, &tpl.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" && pqErr.Constraint == "templates_name_key" {
			return ErrTemplateNameConflict
		}
		return err
	}

	if err := insertPhases(ctx, tx, tpl.ID, tpl.Phases); err != nil {
		return err
	}
	if err := insertRules(ctx, tx, tpl.ID, tpl.Rules); err != nil {
		return err
	}
	if err := insertExitPositions(ctx, tx, tpl.ID, tpl.ExitPositions); err != nil {
		return err
	}

	return tx.Commit()
}

func insertPhases(ctx context.Context, exec SQLExecutor, templateID int, phases []models.Phase) error {
	query := `
		INSERT INTO phases (
			template_id, name, phase_type, sort_order, incoming_slot_count,
			advancing_slot_count, pool_count, best_of, match_duration_minutes,
			seeding, include_consolation, award_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`
	for i := range phases {
		p := &phases[i]
		p.TemplateID = templateID
		err := exec.QueryRowContext(ctx, query,
			templateID, p.Name, p.Type, p.SortOrder, p.IncomingSlotCount,
			p.AdvancingSlotCount, p.PoolCount, p.BestOf, p.MatchDurationMinutes,
			p.Seeding, p.IncludeConsolation, p.AwardType,
		).Scan(&p.ID)
		if err != nil {
			return err
		}
	}
	return nil
}

func insertRules(ctx context.Context, exec SQLExecutor, templateID int, rules []models.AdvancementRule) error {
	query := `
		INSERT INTO advancement_rules (
			template_id, source_phase_order, source_pool_index, finish_position,
			target_phase_order, target_slot_number)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	for i := range rules {
		rule := &rules[i]
		rule.TemplateID = templateID
		err := exec.QueryRowContext(ctx, query,
			templateID, rule.SourcePhaseOrder, rule.SourcePoolIndex,
			rule.FinishPosition, rule.TargetPhaseOrder, rule.TargetSlotNumber,
		).Scan(&rule.ID)
		if err != nil {
			return err
		}
	}
	return nil
}

func insertExitPositions(ctx context.Context, exec SQLExecutor, templateID int, exits []models.ExitPosition) error {
	query := `
		INSERT INTO exit_positions (template_id, rank, label, award_type)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	for i := range exits {
		e := &exits[i]
		e.TemplateID = templateID
		err := exec.QueryRowContext(ctx, query, templateID, e.Rank, e.Label, e.AwardType).Scan(&e.ID)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *postgresTemplateRepository) GetByID(ctx context.Context, id int) (*models.Template, error) {
	query := `
		SELECT id, name, kind, is_active, gb_type, gb_consolation, gb_calculate_byes, created_at
		FROM templates
		WHERE id = $1`
	tpl := &models.Template{}
	var gbType sql.NullString
	var gbConsolation, gbCalcByes sql.NullBool
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&tpl.ID, &tpl.Name, &tpl.Kind, &tpl.IsActive,
		&gbType, &gbConsolation, &gbCalcByes, &tpl.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	if tpl.Kind == models.TemplateFlexible && gbType.Valid {
		tpl.GenerateBracket = &models.GenerateBracketSpec{
			Type:          models.PhaseType(gbType.String),
			Consolation:   gbConsolation.Bool,
			CalculateByes: gbCalcByes.Bool,
		}
	}

	if tpl.Phases, err = r.listPhases(ctx, id); err != nil {
		return nil, err
	}
	if tpl.Rules, err = r.listRules(ctx, id); err != nil {
		return nil, err
	}
	if tpl.ExitPositions, err = r.listExitPositions(ctx, id); err != nil {
		return nil, err
	}
	return tpl, nil
}

func (r *postgresTemplateRepository) listPhases(ctx context.Context, templateID int) ([]models.Phase, error) {
	query := `
		SELECT id, template_id, name, phase_type, sort_order, incoming_slot_count,
		       advancing_slot_count, pool_count, best_of, match_duration_minutes,
		       seeding, include_consolation, award_type, created_at
		FROM phases
		WHERE template_id = $1
		ORDER BY sort_order ASC`
	rows, err := r.db.QueryContext(ctx, query, templateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	phases := make([]models.Phase, 0)
	for rows.Next() {
		var p models.Phase
		if err := rows.Scan(
			&p.ID, &p.TemplateID, &p.Name, &p.Type, &p.SortOrder, &p.IncomingSlotCount,
			&p.AdvancingSlotCount, &p.PoolCount, &p.BestOf, &p.MatchDurationMinutes,
			&p.Seeding, &p.IncludeConsolation, &p.AwardType, &p.CreatedAt,
		); err != nil {
			return nil, err
		}
		phases = append(phases, p)
	}
	return phases, rows.Err()
}

func (r *postgresTemplateRepository) listRules(ctx context.Context, templateID int) ([]models.AdvancementRule, error) {
	query := `
		SELECT id, template_id, source_phase_order, source_pool_index, finish_position,
		       target_phase_order, target_slot_number, created_at
		FROM advancement_rules
		WHERE template_id = $1
		ORDER BY target_phase_order, target_slot_number ASC`
	rows, err := r.db.QueryContext(ctx, query, templateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rules := make([]models.AdvancementRule, 0)
	for rows.Next() {
		var rule models.AdvancementRule
		if err := rows.Scan(
			&rule.ID, &rule.TemplateID, &rule.SourcePhaseOrder, &rule.SourcePoolIndex,
			&rule.FinishPosition, &rule.TargetPhaseOrder, &rule.TargetSlotNumber, &rule.CreatedAt,
		); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func (r *postgresTemplateRepository) listExitPositions(ctx context.Context, templateID int) ([]models.ExitPosition, error) {
	query := `
		SELECT id, template_id, rank, label, award_type
		FROM exit_positions
		WHERE template_id = $1
		ORDER BY rank ASC`
	rows, err := r.db.QueryContext(ctx, query, templateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exits := make([]models.ExitPosition, 0)
	for rows.Next() {
		var e models.ExitPosition
		if err := rows.Scan(&e.ID, &e.TemplateID, &e.Rank, &e.Label, &e.AwardType); err != nil {
			return nil, err
		}
		exits = append(exits, e)
	}
	return exits, rows.Err()
}

func (r *postgresTemplateRepository) Update(ctx context.Context, tpl *models.Template) error {
	var gbType, gbConsolation, gbCalcByes interface{}
	if tpl.GenerateBracket != nil {
		gbType = string(tpl.GenerateBracket.Type)
		gbConsolation = tpl.GenerateBracket.Consolation
		gbCalcByes = tpl.GenerateBracket.CalculateByes
	}
	query := `
		UPDATE templates
		SET name = $1, kind = $2, gb_type = $3, gb_consolation = $4, gb_calculate_byes = $5
		WHERE id = $6`
	result, err := r.db.ExecContext(ctx, query,
		tpl.Name, tpl.Kind, gbType, gbConsolation, gbCalcByes, tpl.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" && pqErr.Constraint == "templates_name_key" {
			return ErrTemplateNameConflict
		}
		return err
	}
	return checkAffectedRows(result, ErrTemplateNotFound)
}

func (r *postgresTemplateRepository) Delete(ctx context.Context, id int) error {
	// Phases, rules and exit positions cascade with the template.
	result, err := r.db.ExecContext(ctx, `DELETE FROM templates WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTemplateNotFound)
}

func (r *postgresTemplateRepository) SetActive(ctx context.Context, id int, active bool) error {
	result, err := r.db.ExecContext(ctx, `UPDATE templates SET is_active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTemplateNotFound)
}

func (r *postgresTemplateRepository) ReplaceRules(ctx context.Context, templateID int, rules []models.AdvancementRule) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM advancement_rules WHERE template_id = $1`, templateID); err != nil {
		return err
	}
	if err := insertRules(ctx, tx, templateID, rules); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *postgresTemplateRepository) ReplacePhases(ctx context.Context, templateID int, phases []models.Phase) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM phases WHERE template_id = $1`, templateID); err != nil {
		return err
	}
	if err := insertPhases(ctx, tx, templateID, phases); err != nil {
		return err
	}
	return tx.Commit()
}
