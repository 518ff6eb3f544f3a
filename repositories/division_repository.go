package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/courtflow/scheduler/models"
)

var ErrDivisionNotFound = errors.New("division not found")

type DivisionRepository interface {
	GetByID(ctx context.Context, id int) (*models.Division, error)
	ListByEvent(ctx context.Context, eventID int) ([]models.Division, error)
}

type postgresDivisionRepository struct {
	db *sql.DB
}

func NewPostgresDivisionRepository(db *sql.DB) DivisionRepository {
	return &postgresDivisionRepository{db: db}
}

const divisionColumns = `
	id, event_id, name, template_id, game_duration_minutes,
	changeover_minutes, match_buffer_minutes, created_at`

func (r *postgresDivisionRepository) GetByID(ctx context.Context, id int) (*models.Division, error) {
	query := `SELECT ` + divisionColumns + ` FROM divisions WHERE id = $1`
	d := &models.Division{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&d.ID, &d.EventID, &d.Name, &d.TemplateID, &d.GameDurationMinutes,
		&d.ChangeoverMinutes, &d.MatchBufferMinutes, &d.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDivisionNotFound
		}
		return nil, err
	}
	return d, nil
}

func (r *postgresDivisionRepository) ListByEvent(ctx context.Context, eventID int) ([]models.Division, error) {
	query := `SELECT ` + divisionColumns + ` FROM divisions WHERE event_id = $1 ORDER BY name ASC`
	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	divisions := make([]models.Division, 0)
	for rows.Next() {
		var d models.Division
		if err := rows.Scan(
			&d.ID, &d.EventID, &d.Name, &d.TemplateID, &d.GameDurationMinutes,
			&d.ChangeoverMinutes, &d.MatchBufferMinutes, &d.CreatedAt,
		); err != nil {
			return nil, err
		}
		divisions = append(divisions, d)
	}
	return divisions, rows.Err()
}
