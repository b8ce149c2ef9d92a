package models

import (
	"time"

	"github.com/google/uuid"
)

// PredictionRecord is one row of the prediction audit log. Written on every
// /predict call, never read back by the service; history queries are an
// external concern.
type PredictionRecord struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Features    []byte    `db:"features" json:"features"`
	Prediction  int       `db:"prediction" json:"prediction"`
	Probability float64   `db:"probability" json:"probability"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
