// Package bulk scores whole tables of customers with batch-local imputation
// and all-or-nothing semantics.
package bulk

import (
	"context"
	"math"
	"strconv"
	"strings"

	"churnsight/adapters/dataset"
	"churnsight/internal/errors"
	"churnsight/internal/scoring"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"
)

// RowResult is one scored row, tagged with its position in the upload.
type RowResult struct {
	Index       int     `json:"index"`
	Prediction  int     `json:"prediction"`
	Probability float64 `json:"churn_probability"`
}

// Scorer applies the scoring engine across a parsed table.
type Scorer struct {
	engine  *scoring.Engine
	workers int
}

// New creates a bulk scorer. workers bounds row-scoring concurrency.
func New(engine *scoring.Engine, workers int) *Scorer {
	if workers <= 0 {
		workers = 4
	}
	return &Scorer{engine: engine, workers: workers}
}

// ScoreTable validates, imputes, and scores every row of a batch.
//
// Missing columns are fatal for the whole batch: silent per-row defaulting
// across an upload would corrupt results undetectably. Continuous cells that
// fail to parse become missing and are imputed with that column's own mean
// computed over the batch; passthrough cells default to 0. A failure scoring
// any single row aborts the batch with no partial results.
func (s *Scorer) ScoreTable(ctx context.Context, table *dataset.Table) ([]RowResult, error) {
	contract := s.engine.Contract()
	idx := table.HeaderIndex()

	var missing []string
	for _, name := range contract.Features() {
		if _, ok := idx[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, errors.SchemaMismatch(missing)
	}
	if len(table.Rows) == 0 {
		return []RowResult{}, nil
	}

	features := contract.Features()
	n := len(table.Rows)

	// Column-major coercion pass. NaN marks a missing continuous cell until
	// imputation fills it with the batch-local column mean.
	columns := make([][]float64, len(features))
	for j, name := range features {
		col := make([]float64, n)
		colIdx := idx[name]

		if contract.IsContinuous(name) {
			valid := make(stats.Float64Data, 0, n)
			for i, row := range table.Rows {
				v, err := parseCell(row[colIdx])
				if err != nil {
					col[i] = math.NaN()
					continue
				}
				col[i] = v
				valid = append(valid, v)
			}

			mean := 0.0
			if len(valid) > 0 {
				m, err := stats.Mean(valid)
				if err != nil {
					return nil, errors.Wrap(err, "batch imputation failed")
				}
				mean = m
			}
			for i := range col {
				if math.IsNaN(col[i]) {
					col[i] = mean
				}
			}
		} else {
			for i, row := range table.Rows {
				v, err := parseCell(row[colIdx])
				if err != nil {
					v = 0
				}
				col[i] = v
			}
		}
		columns[j] = col
	}

	results := make([]RowResult, n)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			values := make([]float64, len(features))
			for j := range features {
				values[j] = columns[j][i]
			}
			vec, err := contract.FromValues(values)
			if err != nil {
				return errors.BatchScoring(i, err)
			}

			pred, err := s.engine.Score(vec)
			if err != nil {
				return errors.BatchScoring(i, err)
			}

			results[i] = RowResult{Index: i, Prediction: pred.Decision, Probability: pred.Probability}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if errors.HasCode(err, errors.CodeBatchScoring) {
			return nil, err
		}
		return nil, errors.BatchScoring(-1, err)
	}

	return results, nil
}

func parseCell(cell string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.InvalidInput("non-finite cell value")
	}
	return v, nil
}
