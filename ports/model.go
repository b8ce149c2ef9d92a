package ports

// Classifier is the loaded, read-only churn model artifact. Input is always
// a scaled, model-ordered vector; output is the churn-class probability.
type Classifier interface {
	// PredictProba returns P(churn) for one scaled vector.
	PredictProba(x []float64) (float64, error)
}

// Scaler is the affine transform fit at training time over the continuous
// feature subset, in the contract's continuous order.
type Scaler interface {
	// Transform maps raw continuous values into model space.
	Transform(x []float64) ([]float64, error)
	// Inverse maps scaled values back to raw units.
	Inverse(x []float64) ([]float64, error)
}

// AttributionBackend computes per-feature contribution rows for one scaled
// vector against a fixed background sample.
//
// The backend is asked for the churn-class vector explicitly, but legacy
// artifacts answer in one of two shapes: a single flat row, or one row per
// output class with the churn class last. Callers normalize via the
// attribution engine's shape contract rather than sniffing here.
type AttributionBackend interface {
	// Contributions returns contribution rows and the background base value.
	Contributions(x []float64) (rows [][]float64, baseValue float64, err error)
}
