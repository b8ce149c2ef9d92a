package artifact

import (
	"math"

	"churnsight/internal/errors"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// LinearModel is the distilled churn classifier: a logistic model over the
// scaled, model-ordered feature vector. It stands in for the original
// boosted-tree artifact behind the same predict/contribution contract.
type LinearModel struct {
	intercept float64
	coefs     []float64

	// Attribution state, fixed at load: column means of the scaled
	// background sample and the base value they imply.
	bgMean     []float64
	baseMargin float64
	baseProb   float64
}

// NewLinearModel builds a classifier from fitted coefficients (model order)
// and a scaled background sample for attribution baselines.
func NewLinearModel(intercept float64, coefs []float64, background [][]float64) (*LinearModel, error) {
	if len(coefs) == 0 {
		return nil, errors.ConfigInvalid("model has no coefficients")
	}
	if len(background) == 0 {
		return nil, errors.ConfigInvalid("model requires a non-empty background sample")
	}
	for _, row := range background {
		if len(row) != len(coefs) {
			return nil, errors.ConfigInvalid("background row width does not match coefficient count")
		}
	}

	m := &LinearModel{
		intercept: intercept,
		coefs:     append([]float64(nil), coefs...),
		bgMean:    make([]float64, len(coefs)),
	}

	col := make([]float64, len(background))
	for j := range coefs {
		for i, row := range background {
			col[i] = row[j]
		}
		m.bgMean[j] = stat.Mean(col, nil)
	}

	m.baseMargin = intercept + floats.Dot(m.coefs, m.bgMean)
	m.baseProb = sigmoid(m.baseMargin)

	return m, nil
}

// PredictProba returns P(churn) for one scaled, model-ordered vector.
func (m *LinearModel) PredictProba(x []float64) (float64, error) {
	if len(x) != len(m.coefs) {
		return 0, errors.InternalError("input length does not match model coefficients")
	}
	return sigmoid(m.intercept + floats.Dot(m.coefs, x)), nil
}

// Contributions returns per-class contribution rows for one scaled vector,
// churn class last, plus the background base value in probability space.
//
// Margin-space contributions are exact for a linear model
// (phi_i = w_i * (x_i - mean_bg_i)); they are rescaled so that the rows sum
// to exactly P(churn|x) - baseValue, preserving additivity in the units the
// response reports.
func (m *LinearModel) Contributions(x []float64) ([][]float64, float64, error) {
	if len(x) != len(m.coefs) {
		return nil, 0, errors.InternalError("input length does not match model coefficients")
	}

	margin := m.intercept + floats.Dot(m.coefs, x)
	prob := sigmoid(margin)

	scale := 0.0
	if d := margin - m.baseMargin; d != 0 {
		scale = (prob - m.baseProb) / d
	}

	churnRow := make([]float64, len(x))
	stayRow := make([]float64, len(x))
	for i := range x {
		phi := m.coefs[i] * (x[i] - m.bgMean[i]) * scale
		churnRow[i] = phi
		stayRow[i] = -phi
	}

	return [][]float64{stayRow, churnRow}, m.baseProb, nil
}

// BaseValue returns the expected churn probability over the background sample.
func (m *LinearModel) BaseValue() float64 {
	return m.baseProb
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
