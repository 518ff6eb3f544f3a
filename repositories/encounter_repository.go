package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/courtflow/scheduler/models"
)

var ErrEncounterNotFound = errors.New("encounter not found")

type EncounterRepository interface {
	Create(ctx context.Context, exec SQLExecutor, enc *models.Encounter) error
	GetByID(ctx context.Context, id int) (*models.Encounter, error)
	ListByEvent(ctx context.Context, eventID int) ([]models.Encounter, error)
	UpdateNextEncounter(ctx context.Context, exec SQLExecutor, id int, nextID *int, nextSlot *int) error
	// UpdateAssignment is, together with ClearAssignments, the only writer
	// of the court/time fields. Nil values clear the assignment.
	UpdateAssignment(ctx context.Context, id int, courtID *int, start, end *time.Time) error
	ClearAssignments(ctx context.Context, eventID int, divisionID *int) error
	DeleteByPhase(ctx context.Context, exec SQLExecutor, divisionID, phaseID int) error
}

type postgresEncounterRepository struct {
	db *sql.DB
}

func NewPostgresEncounterRepository(db *sql.DB) EncounterRepository {
	return &postgresEncounterRepository{db: db}
}

func (r *postgresEncounterRepository) Create(ctx context.Context, exec SQLExecutor, enc *models.Encounter) error {
	if exec == nil {
		exec = r.db
	}
	query := `
		INSERT INTO encounters (
			event_id, division_id, phase_id, round, order_in_round, pool_index,
			bracket_uid, unit1_id, unit2_id, duration_minutes, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at`
	return exec.QueryRowContext(ctx, query,
		enc.EventID, enc.DivisionID, enc.PhaseID, enc.Round, enc.OrderInRound,
		enc.PoolIndex, enc.BracketUID, enc.Unit1ID, enc.Unit2ID,
		enc.DurationMinutes, enc.Status,
	).Scan(&enc.ID, &enc.CreatedAt)
}

const encounterColumns = `
	id, event_id, division_id, phase_id, round, order_in_round, pool_index,
	bracket_uid, unit1_id, unit2_id, duration_minutes, court_id, start_time,
	end_time, status, next_encounter_id, next_slot, created_at`

func scanEncounter(row interface{ Scan(...interface{}) error }, enc *models.Encounter) error {
	return row.Scan(
		&enc.ID, &enc.EventID, &enc.DivisionID, &enc.PhaseID, &enc.Round,
		&enc.OrderInRound, &enc.PoolIndex, &enc.BracketUID, &enc.Unit1ID,
		&enc.Unit2ID, &enc.DurationMinutes, &enc.CourtID, &enc.StartTime,
		&enc.EndTime, &enc.Status, &enc.NextEncounterID, &enc.NextSlot,
		&enc.CreatedAt,
	)
}

func (r *postgresEncounterRepository) GetByID(ctx context.Context, id int) (*models.Encounter, error) {
	query := `SELECT ` + encounterColumns + ` FROM encounters WHERE id = $1`
	enc := &models.Encounter{}
	if err := scanEncounter(r.db.QueryRowContext(ctx, query, id), enc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEncounterNotFound
		}
		return nil, err
	}
	return enc, nil
}

func (r *postgresEncounterRepository) ListByEvent(ctx context.Context, eventID int) ([]models.Encounter, error) {
	query := `
		SELECT ` + encounterColumns + `
		FROM encounters
		WHERE event_id = $1
		ORDER BY division_id, phase_id, round, order_in_round ASC`
	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	encounters := make([]models.Encounter, 0)
	for rows.Next() {
		var enc models.Encounter
		if err := scanEncounter(rows, &enc); err != nil {
			return nil, err
		}
		encounters = append(encounters, enc)
	}
	return encounters, rows.Err()
}

func (r *postgresEncounterRepository) UpdateNextEncounter(ctx context.Context, exec SQLExecutor, id int, nextID *int, nextSlot *int) error {
	if exec == nil {
		exec = r.db
	}
	query := `UPDATE encounters SET next_encounter_id = $1, next_slot = $2 WHERE id = $3`
	result, err := exec.ExecContext(ctx, query, nextID, nextSlot, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrEncounterNotFound)
}

func (r *postgresEncounterRepository) UpdateAssignment(ctx context.Context, id int, courtID *int, start, end *time.Time) error {
	query := `UPDATE encounters SET court_id = $1, start_time = $2, end_time = $3 WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, courtID, start, end, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrEncounterNotFound)
}

func (r *postgresEncounterRepository) ClearAssignments(ctx context.Context, eventID int, divisionID *int) error {
	query := `
		UPDATE encounters
		SET court_id = NULL, start_time = NULL, end_time = NULL
		WHERE event_id = $1 AND ($2::int IS NULL OR division_id = $2)`
	_, err := r.db.ExecContext(ctx, query, eventID, divisionID)
	return err
}

func (r *postgresEncounterRepository) DeleteByPhase(ctx context.Context, exec SQLExecutor, divisionID, phaseID int) error {
	if exec == nil {
		exec = r.db
	}
	_, err := exec.ExecContext(ctx, `DELETE FROM encounters WHERE division_id = $1 AND phase_id = $2`, divisionID, phaseID)
	return err
}
