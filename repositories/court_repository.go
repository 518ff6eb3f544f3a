package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/courtflow/scheduler/models"
	"github.com/lib/pq"
)

var (
	ErrCourtNotFound      = errors.New("court not found")
	ErrCourtLabelConflict = errors.New("court label conflict")
	ErrCourtGroupNotFound = errors.New("court group not found")
	ErrCourtInUse         = errors.New("court is referenced by scheduled encounters")
)

type CourtRepository interface {
	Create(ctx context.Context, court *models.Court) error
	GetByID(ctx context.Context, id int) (*models.Court, error)
	List(ctx context.Context) ([]models.Court, error)
	Update(ctx context.Context, court *models.Court) error
	Delete(ctx context.Context, id int) error

	CreateGroup(ctx context.Context, group *models.CourtGroup) error
	ListGroups(ctx context.Context) ([]models.CourtGroup, error)
	DeleteGroup(ctx context.Context, id int) error
}

type postgresCourtRepository struct {
	db *sql.DB
}

func NewPostgresCourtRepository(db *sql.DB) CourtRepository {
	return &postgresCourtRepository{db: db}
}

func (r *postgresCourtRepository) Create(ctx context.Context, court *models.Court) error {
	query := `
		INSERT INTO courts (label, sort_order)
		VALUES ($1, $2)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, court.Label, court.SortOrder).Scan(&court.ID, &court.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" && pqErr.Constraint == "courts_label_key" {
			return ErrCourtLabelConflict
		}
		return err
	}
	return nil
}

func (r *postgresCourtRepository) GetByID(ctx context.Context, id int) (*models.Court, error) {
	query := `SELECT id, label, sort_order, created_at FROM courts WHERE id = $1`
	court := &models.Court{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&court.ID, &court.Label, &court.SortOrder, &court.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCourtNotFound
		}
		return nil, err
	}
	return court, nil
}

func (r *postgresCourtRepository) List(ctx context.Context) ([]models.Court, error) {
	query := `SELECT id, label, sort_order, created_at FROM courts ORDER BY sort_order, id ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	courts := make([]models.Court, 0)
	for rows.Next() {
		var c models.Court
		if err := rows.Scan(&c.ID, &c.Label, &c.SortOrder, &c.CreatedAt); err != nil {
			return nil, err
		}
		courts = append(courts, c)
	}
	return courts, rows.Err()
}

func (r *postgresCourtRepository) Update(ctx context.Context, court *models.Court) error {
	query := `UPDATE courts SET label = $1, sort_order = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, court.Label, court.SortOrder, court.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" && pqErr.Constraint == "courts_label_key" {
			return ErrCourtLabelConflict
		}
		return err
	}
	return checkAffectedRows(result, ErrCourtNotFound)
}

func (r *postgresCourtRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM courts WHERE id = $1`, id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return ErrCourtInUse
		}
		return err
	}
	return checkAffectedRows(result, ErrCourtNotFound)
}

func (r *postgresCourtRepository) CreateGroup(ctx context.Context, group *models.CourtGroup) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx,
		`INSERT INTO court_groups (name) VALUES ($1) RETURNING id`, group.Name,
	).Scan(&group.ID)
	if err != nil {
		return err
	}
	for _, courtID := range group.CourtIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO court_group_members (group_id, court_id) VALUES ($1, $2)`,
			group.ID, courtID,
		); err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
				return ErrCourtNotFound
			}
			return err
		}
	}
	return tx.Commit()
}

func (r *postgresCourtRepository) ListGroups(ctx context.Context) ([]models.CourtGroup, error) {
	query := `
		SELECT g.id, g.name, m.court_id
		FROM court_groups g
		LEFT JOIN court_group_members m ON m.group_id = g.id
		ORDER BY g.id, m.court_id ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := make([]models.CourtGroup, 0)
	index := make(map[int]int)
	for rows.Next() {
		var id int
		var name string
		var courtID sql.NullInt64
		if err := rows.Scan(&id, &name, &courtID); err != nil {
			return nil, err
		}
		i, ok := index[id]
		if !ok {
			groups = append(groups, models.CourtGroup{ID: id, Name: name})
			i = len(groups) - 1
			index[id] = i
		}
		if courtID.Valid {
			groups[i].CourtIDs = append(groups[i].CourtIDs, int(courtID.Int64))
		}
	}
	return groups, rows.Err()
}

func (r *postgresCourtRepository) DeleteGroup(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM court_groups WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrCourtGroupNotFound)
}
