package postgres

import (
	"context"

	"churnsight/models"
	"churnsight/ports"

	"github.com/jmoiron/sqlx"
)

// PredictionLogImpl implements PredictionLog for PostgreSQL
type PredictionLogImpl struct {
	db *sqlx.DB
}

// NewPredictionLog creates a new PostgreSQL prediction audit log
func NewPredictionLog(db *sqlx.DB) ports.PredictionLog {
	return &PredictionLogImpl{db: db}
}

// Append writes one audit row. Callers treat failures as fire-and-forget;
// the scoring response never depends on this write.
func (r *PredictionLogImpl) Append(ctx context.Context, rec models.PredictionRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO predictions (id, features, prediction, probability, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, rec.ID, rec.Features, rec.Prediction, rec.Probability, rec.CreatedAt)
	return err
}
