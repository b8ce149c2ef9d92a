// Package testkit builds small synthetic churn artifacts for tests: a full
// telco contract, a hand-fitted linear classifier, and a labeled reference
// sample, all in memory with no manifest on disk.
package testkit

import (
	"fmt"

	"churnsight/adapters/artifact"
	"churnsight/adapters/rng"
	"churnsight/domain/churn"
	"churnsight/domain/schema"
	"churnsight/internal/advisor"
	"churnsight/internal/attribution"
	"churnsight/internal/bulk"
	"churnsight/internal/counterfactual"
	"churnsight/internal/scoring"
	"churnsight/ports"
)

// Scaler parameters for the continuous subset, indexed in scaler order.
// Chosen to resemble the production training distribution closely enough
// that fixture customers land on realistic z-scores.
var (
	scalerMeans = map[string]float64{
		"Age":                               46,
		"Avg_Monthly_GB_Download":           25,
		"Avg_Monthly_Long_Distance_Charges": 22,
		"CLTV":                              4400,
		"Monthly_Charge":                    65,
		"Population":                        50000,
		"Total_Extra_Data_Charges":          5,
		"Total_Long_Distance_Charges":       500,
		"Total_Refunds":                     2,
		"Total_Revenue":                     3000,
		"Tenure_in_Months":                  32,
		"Monthly_to_Total_Ratio":            0.03,
		"Number_of_Dependents":              0.5,
		"Number_of_Referrals":               2,
	}
	scalerStds = map[string]float64{
		"Age":                               16,
		"Avg_Monthly_GB_Download":           20,
		"Avg_Monthly_Long_Distance_Charges": 15,
		"CLTV":                              1200,
		"Monthly_Charge":                    30,
		"Population":                        30000,
		"Total_Extra_Data_Charges":          10,
		"Total_Long_Distance_Charges":       400,
		"Total_Refunds":                     5,
		"Total_Revenue":                     2500,
		"Tenure_in_Months":                  24,
		"Monthly_to_Total_Ratio":            0.02,
		"Number_of_Dependents":              1,
		"Number_of_Referrals":               3,
	}
)

// Hand-fitted coefficients over the scaled vector. Features not listed carry
// zero weight so test expectations stay easy to compute by hand.
const modelIntercept = 4.0

var modelWeights = map[string]float64{
	"Monthly_Charge":            1.2,  // scaled
	"Tenure_in_Months":          -1.0, // scaled
	"Satisfaction_Score":        -0.8, // raw ordinal
	"Contract_One_Year":         -0.8,
	"Contract_Two_Year":         -1.5,
	"Online_Security":           -0.4,
	"Premium_Tech_Support":      -0.3,
	"Internet_Type_Fiber_Optic": 0.6,
}

// TestKit assembles a synthetic artifact bundle and the engines over it.
type TestKit struct {
	Bundle *artifact.Bundle
}

// New builds the kit. Any assembly failure is a programming error in the
// fixtures, reported as a plain error so callers can t.Fatal it.
func New() (*TestKit, error) {
	contract := schema.TelcoContract()

	cont := contract.ContinuousFeatures()
	means := make([]float64, len(cont))
	stds := make([]float64, len(cont))
	for i, name := range cont {
		m, ok := scalerMeans[name]
		if !ok {
			return nil, fmt.Errorf("testkit scaler mean missing for %s", name)
		}
		s, ok := scalerStds[name]
		if !ok {
			return nil, fmt.Errorf("testkit scaler std missing for %s", name)
		}
		means[i] = m
		stds[i] = s
	}

	scaler, err := artifact.NewStandardScaler(means, stds)
	if err != nil {
		return nil, err
	}

	coefs := make([]float64, contract.Len())
	for i, name := range contract.Features() {
		coefs[i] = modelWeights[name]
	}

	rawReference := referenceRows()
	background := make([][]float64, 0, len(rawReference))
	reference := make([]churn.LabeledExample, 0, len(rawReference))
	for _, row := range rawReference {
		vec, err := contract.Normalize(row.features)
		if err != nil {
			return nil, err
		}
		c, pass := contract.Split(vec)
		scaled, err := scaler.Transform(c)
		if err != nil {
			return nil, err
		}
		sv, err := contract.Reassemble(scaled, pass)
		if err != nil {
			return nil, err
		}
		background = append(background, sv.Values())
		reference = append(reference, churn.LabeledExample{Vector: vec, Churn: row.churn})
	}

	model, err := artifact.NewLinearModel(modelIntercept, coefs, background)
	if err != nil {
		return nil, err
	}

	return &TestKit{
		Bundle: &artifact.Bundle{
			Version:    "test-fixture",
			Contract:   contract,
			Scaler:     scaler,
			Model:      model,
			Reference:  reference,
			Actionable: schema.TelcoActionable,
			Metrics:    map[string]float64{"accuracy": 0.93, "roc_auc": 0.97, "f1_score": 0.91},
		},
	}, nil
}

// Scorer returns a scoring engine over the kit's artifacts.
func (k *TestKit) Scorer() (*scoring.Engine, error) {
	return scoring.New(k.Bundle.Contract, k.Bundle.Scaler, k.Bundle.Model)
}

// Explainer returns an attribution engine over the kit's artifacts.
func (k *TestKit) Explainer() (*attribution.Engine, error) {
	scorer, err := k.Scorer()
	if err != nil {
		return nil, err
	}
	return attribution.New(scorer, k.Bundle.Model)
}

// Counterfactual returns a search engine with the default configuration.
func (k *TestKit) Counterfactual() (*counterfactual.Engine, error) {
	return k.CounterfactualWith(counterfactual.DefaultConfig())
}

// CounterfactualWith returns a search engine with a custom configuration.
func (k *TestKit) CounterfactualWith(cfg counterfactual.Config) (*counterfactual.Engine, error) {
	scorer, err := k.Scorer()
	if err != nil {
		return nil, err
	}
	return counterfactual.New(scorer, k.Bundle.Actionable, k.Bundle.Reference,
		counterfactual.DefaultRules(), k.RNG(), cfg)
}

// Advisor returns an advisor over the default policy table.
func (k *TestKit) Advisor() *advisor.Advisor {
	return advisor.New(advisor.DefaultPolicyTable())
}

// BulkScorer returns a bulk scorer over the kit's artifacts.
func (k *TestKit) BulkScorer() (*bulk.Scorer, error) {
	scorer, err := k.Scorer()
	if err != nil {
		return nil, err
	}
	return bulk.New(scorer, 2), nil
}

// RNG returns the deterministic stream source tests share.
func (k *TestKit) RNG() ports.RNGPort {
	return rng.New(1337)
}

// Vector normalizes a raw feature map against the kit's contract.
func (k *TestKit) Vector(features map[string]float64) (schema.FeatureVector, error) {
	return k.Bundle.Contract.Normalize(features)
}

// BaseCustomer is a complete mid-market fiber customer on a one-year
// contract. Under the kit's model it scores around 0.85 churn probability,
// so it decides churn and leaves room for actionable levers to flip it.
func BaseCustomer() map[string]float64 {
	return map[string]float64{
		"Age":                               40,
		"Avg_Monthly_GB_Download":           25,
		"Avg_Monthly_Long_Distance_Charges": 22.5,
		"CLTV":                              4200,
		"Monthly_Charge":                    75.5,
		"Population":                        50000,
		"Total_Extra_Data_Charges":          0,
		"Total_Long_Distance_Charges":       540,
		"Total_Refunds":                     0,
		"Total_Revenue":                     1813,
		"Tenure_in_Months":                  24,
		"Monthly_to_Total_Ratio":            0.0417,
		"Number_of_Dependents":              0,
		"Number_of_Referrals":               2,
		"Dependents":                        0,
		"Device_Protection_Plan":            1,
		"Gender":                            1,
		"Internet_Service":                  1,
		"Married":                           1,
		"Multiple_Lines":                    1,
		"Online_Backup":                     1,
		"Online_Security":                   1,
		"Paperless_Billing":                 1,
		"Partner":                           1,
		"Payment_Method_Credit_Card":        1,
		"Payment_Method_Mailed_Check":       0,
		"Phone_Service":                     1,
		"Premium_Tech_Support":              0,
		"Referred_a_Friend":                 1,
		"Satisfaction_Score":                3,
		"Senior_Citizen":                    0,
		"Streaming_Movies":                  1,
		"Streaming_Music":                   1,
		"Streaming_TV":                      1,
		"Unlimited_Data":                    1,
		"Contract_One_Year":                 1,
		"Contract_Two_Year":                 0,
		"Internet_Type_DSL":                 0,
		"Internet_Type_Fiber_Optic":         1,
		"Internet_Type_No_Internet":         0,
		"Offer_Offer_A":                     0,
		"Offer_Offer_B":                     1,
		"Offer_Offer_C":                     0,
		"Offer_Offer_D":                     0,
		"Offer_Offer_E":                     0,
		"Tenure_Quartile":                   2,
		"Early_Churner_Risk":                0,
		"Low_Satisfaction":                  0,
	}
}

// LowRiskCustomer is a satisfied two-year-contract customer whose kit-model
// probability stays well below 0.3.
func LowRiskCustomer() map[string]float64 {
	c := BaseCustomer()
	c["Monthly_Charge"] = 45
	c["Satisfaction_Score"] = 4
	c["Tenure_in_Months"] = 36
	c["Tenure_Quartile"] = 3
	c["Contract_One_Year"] = 0
	c["Contract_Two_Year"] = 1
	return c
}

// HighRiskCustomer is an unhappy month-to-month customer with no premium
// services. Its kit-model probability exceeds 0.95, and every retention rule
// in the default table matches it.
func HighRiskCustomer() map[string]float64 {
	c := BaseCustomer()
	c["Satisfaction_Score"] = 1
	c["Monthly_Charge"] = 120
	c["Tenure_in_Months"] = 2
	c["Tenure_Quartile"] = 1
	c["Contract_One_Year"] = 0
	c["Contract_Two_Year"] = 0
	c["Online_Security"] = 0
	c["Online_Backup"] = 0
	c["Device_Protection_Plan"] = 0
	c["Premium_Tech_Support"] = 0
	c["Early_Churner_Risk"] = 1
	c["Low_Satisfaction"] = 1
	return c
}

type referenceRow struct {
	features map[string]float64
	churn    int
}

// referenceRows is the labeled seed sample. Retained customers carry the
// lever settings the counterfactual search needs to discover (long
// contracts, lower charges, support bundles); churned customers mirror the
// high-risk profile with some variation.
func referenceRows() []referenceRow {
	stay := func(monthly, tenure, satisfaction float64, twoYear bool) referenceRow {
		c := BaseCustomer()
		c["Monthly_Charge"] = monthly
		c["Tenure_in_Months"] = tenure
		c["Satisfaction_Score"] = satisfaction
		c["Premium_Tech_Support"] = 1
		if twoYear {
			c["Contract_One_Year"] = 0
			c["Contract_Two_Year"] = 1
		}
		return referenceRow{features: c, churn: 0}
	}
	leave := func(monthly, tenure, satisfaction float64) referenceRow {
		c := HighRiskCustomer()
		c["Monthly_Charge"] = monthly
		c["Tenure_in_Months"] = tenure
		c["Satisfaction_Score"] = satisfaction
		return referenceRow{features: c, churn: 1}
	}

	return []referenceRow{
		stay(35, 60, 5, true),
		stay(42, 48, 4, true),
		stay(48, 40, 4, false),
		stay(55, 30, 4, true),
		stay(39, 55, 5, true),
		stay(60, 26, 4, true),
		leave(118, 2, 1),
		leave(95, 4, 2),
		leave(105, 3, 1),
		leave(88, 5, 2),
		leave(99, 1, 1),
		leave(112, 6, 2),
	}
}
