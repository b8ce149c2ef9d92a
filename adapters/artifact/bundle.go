package artifact

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"churnsight/adapters/dataset"
	"churnsight/domain/churn"
	"churnsight/domain/schema"
	"churnsight/internal/errors"
)

// Bundle is the immutable set of trained artifacts the service runs on:
// schema contract, scaler, classifier, attribution background, and the
// labeled reference sample for counterfactual seeding. Constructed once at
// startup and shared read-only across requests.
type Bundle struct {
	Version    string
	Contract   *schema.Contract
	Scaler     *StandardScaler
	Model      *LinearModel
	Reference  []churn.LabeledExample
	Actionable []string
	Metrics    map[string]float64
	LoadedAt   time.Time
}

type manifest struct {
	Version    string             `json:"version"`
	Features   []string           `json:"features"`
	Continuous []string           `json:"continuous"`
	Scaler     manifestScaler     `json:"scaler"`
	Model      manifestModel      `json:"model"`
	Actionable []string           `json:"actionable"`
	Metrics    map[string]float64 `json:"metrics"`

	// Data files, relative to the manifest directory.
	BackgroundFile string `json:"background_file"`
	ReferenceFile  string `json:"reference_file"`
}

type manifestScaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

type manifestModel struct {
	Intercept    float64            `json:"intercept"`
	Coefficients map[string]float64 `json:"coefficients"`
}

// Load reads an artifact bundle from a manifest file. Any failure here is
// fatal to startup: the process refuses to serve rather than score with a
// partial model.
func Load(manifestPath string) (*Bundle, error) {
	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, errors.ModelUnavailable("artifact manifest not found: " + manifestPath)
	}

	var mf manifest
	if err := json.Unmarshal(raw, &mf); err != nil {
		return nil, errors.Wrap(errors.ModelUnavailable("artifact manifest is not valid JSON"), err.Error())
	}

	contract, err := schema.NewContract(mf.Features, mf.Continuous)
	if err != nil {
		return nil, errors.Wrap(err, "artifact manifest declares an invalid feature contract")
	}

	scaler, err := NewStandardScaler(mf.Scaler.Mean, mf.Scaler.Std)
	if err != nil {
		return nil, errors.Wrap(err, "artifact manifest declares invalid scaler parameters")
	}
	if len(mf.Scaler.Mean) != len(contract.ContinuousFeatures()) {
		return nil, errors.ConfigInvalid("scaler parameter count does not match continuous feature set")
	}

	coefs := make([]float64, contract.Len())
	for i, name := range contract.Features() {
		w, ok := mf.Model.Coefficients[name]
		if !ok {
			return nil, errors.ConfigInvalid("model coefficient missing for feature " + name)
		}
		coefs[i] = w
	}

	dir := filepath.Dir(manifestPath)

	background, err := loadScaledRows(filepath.Join(dir, mf.BackgroundFile), contract, scaler)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load background sample")
	}

	model, err := NewLinearModel(mf.Model.Intercept, coefs, background)
	if err != nil {
		return nil, errors.Wrap(err, "failed to construct classifier")
	}

	reference, err := loadReference(filepath.Join(dir, mf.ReferenceFile), contract)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load labeled reference dataset")
	}

	actionable := append([]string(nil), mf.Actionable...)
	if len(actionable) == 0 {
		actionable = append([]string(nil), schema.TelcoActionable...)
	}
	for i, name := range actionable {
		actionable[i] = schema.NormalizeName(name)
		if _, ok := contract.Index(actionable[i]); !ok {
			return nil, errors.ConfigInvalid("actionable feature not in contract: " + actionable[i])
		}
	}

	log.Printf("[Artifact] Loaded bundle %s (%d features, %d background rows, %d reference rows)",
		mf.Version, contract.Len(), len(background), len(reference))

	return &Bundle{
		Version:    mf.Version,
		Contract:   contract,
		Scaler:     scaler,
		Model:      model,
		Reference:  reference,
		Actionable: actionable,
		Metrics:    mf.Metrics,
		LoadedAt:   time.Now(),
	}, nil
}

// loadScaledRows reads raw feature rows and maps them into model space.
func loadScaledRows(path string, contract *schema.Contract, scaler *StandardScaler) ([][]float64, error) {
	vectors, _, err := loadVectors(path, contract, false)
	if err != nil {
		return nil, err
	}

	rows := make([][]float64, len(vectors))
	for i, v := range vectors {
		cont, pass := contract.Split(v)
		scaled, err := scaler.Transform(cont)
		if err != nil {
			return nil, err
		}
		sv, err := contract.Reassemble(scaled, pass)
		if err != nil {
			return nil, err
		}
		rows[i] = sv.Values()
	}
	return rows, nil
}

// loadReference reads raw feature rows plus the Churn label column.
func loadReference(path string, contract *schema.Contract) ([]churn.LabeledExample, error) {
	vectors, labels, err := loadVectors(path, contract, true)
	if err != nil {
		return nil, err
	}

	examples := make([]churn.LabeledExample, len(vectors))
	for i, v := range vectors {
		examples[i] = churn.LabeledExample{Vector: v, Churn: labels[i]}
	}
	return examples, nil
}

func loadVectors(path string, contract *schema.Contract, labeled bool) ([]schema.FeatureVector, []int, error) {
	table, err := dataset.NewReader(path).ReadTable()
	if err != nil {
		return nil, nil, err
	}

	idx := table.HeaderIndex()
	var missing []string
	for _, name := range contract.Features() {
		if _, ok := idx[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, nil, errors.SchemaMismatch(missing)
	}

	labelCol := -1
	if labeled {
		col, ok := idx["Churn"]
		if !ok {
			return nil, nil, errors.ConfigInvalid("reference dataset lacks a Churn label column")
		}
		labelCol = col
	}

	vectors := make([]schema.FeatureVector, 0, len(table.Rows))
	labels := make([]int, 0, len(table.Rows))
	for rowNum, row := range table.Rows {
		raw := make(map[string]float64, contract.Len())
		for _, name := range contract.Features() {
			cell := row[idx[name]]
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, nil, errors.ConfigInvalid(
					"artifact dataset " + filepath.Base(path) + " row " + strconv.Itoa(rowNum+1) +
						" has non-numeric value for " + name)
			}
			raw[name] = v
		}

		vec, err := contract.Normalize(raw)
		if err != nil {
			return nil, nil, err
		}
		vectors = append(vectors, vec)

		if labeled {
			label, err := strconv.Atoi(row[labelCol])
			if err != nil {
				return nil, nil, errors.ConfigInvalid("reference dataset has non-integer Churn label")
			}
			labels = append(labels, label)
		}
	}

	return vectors, labels, nil
}
