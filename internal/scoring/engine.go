// Package scoring turns a normalized feature vector into a churn prediction
// by applying the training-time scaling contract and the loaded classifier.
package scoring

import (
	"churnsight/domain/churn"
	"churnsight/domain/schema"
	"churnsight/internal/errors"
	"churnsight/ports"
)

// Engine scores feature vectors against the loaded artifacts. Pure over
// read-only state; safe for concurrent use without synchronization.
type Engine struct {
	contract   *schema.Contract
	scaler     ports.Scaler
	classifier ports.Classifier
}

// New wires a scoring engine. A nil scaler or classifier means the artifact
// bundle failed to load; the error surfaces now, at startup, not lazily in
// request handling.
func New(contract *schema.Contract, scaler ports.Scaler, classifier ports.Classifier) (*Engine, error) {
	if contract == nil {
		return nil, errors.ModelUnavailable("feature contract is not loaded")
	}
	if scaler == nil || classifier == nil {
		return nil, errors.ModelUnavailable("classifier artifact is not loaded")
	}
	return &Engine{contract: contract, scaler: scaler, classifier: classifier}, nil
}

// Contract returns the schema the engine scores against.
func (e *Engine) Contract() *schema.Contract {
	return e.contract
}

// Scale applies the training-time transform to the continuous subset and
// reassembles the vector in model order.
func (e *Engine) Scale(v schema.FeatureVector) (schema.ScaledFeatureVector, error) {
	cont, pass := e.contract.Split(v)
	scaled, err := e.scaler.Transform(cont)
	if err != nil {
		return schema.ScaledFeatureVector{}, errors.Wrap(err, "scaling failed")
	}
	return e.contract.Reassemble(scaled, pass)
}

// Score produces a full-precision Prediction for one customer. Rounding to
// response precision is the handler's job.
func (e *Engine) Score(v schema.FeatureVector) (churn.Prediction, error) {
	sv, err := e.Scale(v)
	if err != nil {
		return churn.Prediction{}, err
	}
	return e.ScoreScaled(sv)
}

// ScoreScaled scores an already scaled vector.
func (e *Engine) ScoreScaled(sv schema.ScaledFeatureVector) (churn.Prediction, error) {
	p, err := e.classifier.PredictProba(sv.Values())
	if err != nil {
		return churn.Prediction{}, errors.Wrap(err, "classifier rejected input")
	}
	return churn.NewPrediction(p), nil
}
