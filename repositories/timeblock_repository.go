package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/courtflow/scheduler/models"
	"github.com/lib/pq"
)

var ErrTimeBlockNotFound = errors.New("time block not found")

type TimeBlockRepository interface {
	Create(ctx context.Context, block *models.TimeBlockAllocation) error
	GetByID(ctx context.Context, id int) (*models.TimeBlockAllocation, error)
	ListByEvent(ctx context.Context, eventID int) ([]models.TimeBlockAllocation, error)
	Delete(ctx context.Context, id int) error
}

type postgresTimeBlockRepository struct {
	db *sql.DB
}

func NewPostgresTimeBlockRepository(db *sql.DB) TimeBlockRepository {
	return &postgresTimeBlockRepository{db: db}
}

func (r *postgresTimeBlockRepository) Create(ctx context.Context, block *models.TimeBlockAllocation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO time_blocks (event_id, division_id, phase_id, start_time, end_time)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`
	err = tx.QueryRowContext(ctx, query,
		block.EventID, block.DivisionID, block.PhaseID, block.StartTime, block.EndTime,
	).Scan(&block.ID, &block.CreatedAt)
	if err != nil {
		return err
	}

	for _, courtID := range block.CourtIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO time_block_courts (block_id, court_id) VALUES ($1, $2)`,
			block.ID, courtID,
		); err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
				return ErrCourtNotFound
			}
			return err
		}
	}
	return tx.Commit()
}

func (r *postgresTimeBlockRepository) GetByID(ctx context.Context, id int) (*models.TimeBlockAllocation, error) {
	query := `
		SELECT id, event_id, division_id, phase_id, start_time, end_time, created_at
		FROM time_blocks
		WHERE id = $1`
	block := &models.TimeBlockAllocation{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&block.ID, &block.EventID, &block.DivisionID, &block.PhaseID,
		&block.StartTime, &block.EndTime, &block.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTimeBlockNotFound
		}
		return nil, err
	}
	if block.CourtIDs, err = r.listBlockCourts(ctx, id); err != nil {
		return nil, err
	}
	return block, nil
}

func (r *postgresTimeBlockRepository) listBlockCourts(ctx context.Context, blockID int) ([]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT court_id FROM time_block_courts WHERE block_id = $1 ORDER BY court_id ASC`, blockID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *postgresTimeBlockRepository) ListByEvent(ctx context.Context, eventID int) ([]models.TimeBlockAllocation, error) {
	query := `
		SELECT b.id, b.event_id, b.division_id, b.phase_id, b.start_time, b.end_time,
		       b.created_at, c.court_id
		FROM time_blocks b
		LEFT JOIN time_block_courts c ON c.block_id = b.id
		WHERE b.event_id = $1
		ORDER BY b.start_time, b.id, c.court_id ASC`
	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	blocks := make([]models.TimeBlockAllocation, 0)
	index := make(map[int]int)
	for rows.Next() {
		var b models.TimeBlockAllocation
		var courtID sql.NullInt64
		if err := rows.Scan(
			&b.ID, &b.EventID, &b.DivisionID, &b.PhaseID,
			&b.StartTime, &b.EndTime, &b.CreatedAt, &courtID,
		); err != nil {
			return nil, err
		}
		i, ok := index[b.ID]
		if !ok {
			blocks = append(blocks, b)
			i = len(blocks) - 1
			index[b.ID] = i
		}
		if courtID.Valid {
			blocks[i].CourtIDs = append(blocks[i].CourtIDs, int(courtID.Int64))
		}
	}
	return blocks, rows.Err()
}

func (r *postgresTimeBlockRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM time_blocks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTimeBlockNotFound)
}
