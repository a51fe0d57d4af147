package postgres

import (
	"context"
	"time"

	"github.com/frahmantamala/crm/internal/contract"
	"github.com/jmoiron/sqlx"
)

// StatsRepository runs the dashboard aggregates as plain SQL through sqlx.
type StatsRepository struct {
	db *sqlx.DB
}

func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

type statusRow struct {
	Status int   `db:"status"`
	Total  int64 `db:"total"`
}

func (r *StatsRepository) CountByStatus(ctx context.Context, ownerID int64) (map[contract.Status]int64, error) {
	query := r.db.Rebind(`
		SELECT status, COUNT(*) AS total
		FROM contracts
		WHERE owner_id = ? AND deleted_at IS NULL
		GROUP BY status`)

	var rows []statusRow
	if err := r.db.SelectContext(ctx, &rows, query, ownerID); err != nil {
		return nil, err
	}

	result := make(map[contract.Status]int64, len(rows))
	for _, row := range rows {
		result[contract.Status(row.Status)] = row.Total
	}
	return result, nil
}

func (r *StatsRepository) CountReviewedBetween(ctx context.Context, ownerID int64, from, to time.Time) (int64, error) {
	query := r.db.Rebind(`
		SELECT COUNT(*)
		FROM contracts
		WHERE owner_id = ?
		  AND deleted_at IS NULL
		  AND status IN (?, ?)
		  AND updated_at >= ? AND updated_at < ?`)

	var total int64
	err := r.db.GetContext(ctx, &total, query, ownerID,
		int(contract.StatusApproved), int(contract.StatusRejected), from, to)
	return total, err
}
