package ports

import (
	"context"

	"churnsight/models"
)

// PredictionLog persists scored requests for audit. Writes are
// fire-and-forget from the scoring path: a failed append is logged and
// swallowed, never surfaced to the caller.
type PredictionLog interface {
	Append(ctx context.Context, rec models.PredictionRecord) error
}
