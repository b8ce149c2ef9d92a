package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"churnsight/adapters/dataset"
	"churnsight/domain/churn"
	"churnsight/domain/schema"
	"churnsight/internal/attribution"
	"churnsight/internal/errors"
	"churnsight/internal/metrics"
	"churnsight/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Keys stripped from a feature payload before normalization: request
// parameters the dashboard sends inline with the customer data.
var controlKeys = map[string]bool{
	"desired_class": true,
	"total_cfs":     true,
	"total_CFs":     true,
}

// parseFeaturePayload reads a JSON object of feature values and normalizes
// it against the model contract.
func (s *Server) parseFeaturePayload(c *gin.Context) (schema.FeatureVector, map[string]float64, error) {
	var payload map[string]interface{}
	if err := c.ShouldBindJSON(&payload); err != nil {
		return schema.FeatureVector{}, nil, errors.InvalidInput("request body must be a JSON object of feature values")
	}

	raw := make(map[string]float64, len(payload))
	extras := make(map[string]float64)
	for k, v := range payload {
		num, ok := v.(float64)
		if !ok {
			if controlKeys[k] {
				continue
			}
			return schema.FeatureVector{}, nil, errors.InvalidInput("feature " + k + " must be numeric")
		}
		if controlKeys[k] {
			extras[k] = num
			continue
		}
		raw[schema.NormalizeName(k)] = num
	}

	vec, err := s.bundle.Contract.Normalize(raw)
	if err != nil {
		return schema.FeatureVector{}, nil, err
	}
	return vec, extras, nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) handlePredict(c *gin.Context) {
	vec, _, err := s.parseFeaturePayload(c)
	if err != nil {
		respondError(c, err)
		return
	}

	start := time.Now()
	pred, err := s.scorer.Score(vec)
	if err != nil {
		respondError(c, err)
		return
	}
	metrics.ScoringDuration.Observe(time.Since(start).Seconds())
	metrics.PredictionsTotal.WithLabelValues("predict").Inc()

	s.appendAudit(vec, pred)

	cltv, _ := vec.Value("CLTV")
	lossFactor := 0.1
	if pred.Decision == 1 {
		lossFactor = 0.5
	}

	c.JSON(http.StatusOK, gin.H{
		"prediction":         pred.Decision,
		"churn_probability":  churn.Round4(pred.Probability),
		"risk_category":      churn.RiskCategory(pred.Probability),
		"clv_potential_loss": churn.Round4(cltv * lossFactor),
	})
}

// appendAudit writes the prediction log row without blocking or failing the
// response. Audit loss is logged and counted, never surfaced.
func (s *Server) appendAudit(vec schema.FeatureVector, pred churn.Prediction) {
	if s.auditLog == nil {
		return
	}

	features, err := json.Marshal(vec.ToMap())
	if err != nil {
		log.Printf("[Audit] failed to encode features: %v", err)
		metrics.AuditFailuresTotal.Inc()
		return
	}

	rec := models.PredictionRecord{
		ID:          uuid.New(),
		Features:    features,
		Prediction:  pred.Decision,
		Probability: pred.Probability,
		CreatedAt:   time.Now().UTC(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.auditLog.Append(ctx, rec); err != nil {
			log.Printf("[Audit] prediction log write failed: %v", err)
			metrics.AuditFailuresTotal.Inc()
		}
	}()
}

func (s *Server) handleExplain(c *gin.Context) {
	vec, _, err := s.parseFeaturePayload(c)
	if err != nil {
		respondError(c, err)
		return
	}

	pred, err := s.scorer.Score(vec)
	if err != nil {
		respondError(c, err)
		return
	}

	set, err := s.explainer.Explain(vec)
	if err != nil {
		respondError(c, err)
		return
	}
	metrics.PredictionsTotal.WithLabelValues("explain").Inc()

	// Confidence is distance from the decision boundary, rescaled to [0,1].
	confidence := 2 * (pred.Probability - churn.DecisionThreshold)
	if confidence < 0 {
		confidence = -confidence
	}

	c.JSON(http.StatusOK, gin.H{
		"prediction":        pred.Decision,
		"churn_probability": churn.Round4(pred.Probability),
		"top_features":      set.Top(attribution.KeyDriverLimit, attribution.ReportEpsilon),
		"shap_data":         set.Top(attribution.ChartLimit, attribution.ReportEpsilon),
		"base_value":        churn.Round4(set.BaseValue),
		"model_confidence":  churn.Round4(confidence),
	})
}

func (s *Server) handleCounterfactual(c *gin.Context) {
	vec, extras, err := s.parseFeaturePayload(c)
	if err != nil {
		respondError(c, err)
		return
	}

	desiredClass, totalCFs, err := counterfactualParams(c, extras)
	if err != nil {
		respondError(c, err)
		return
	}

	pred, err := s.scorer.Score(vec)
	if err != nil {
		respondError(c, err)
		return
	}

	start := time.Now()
	result, search, err := s.cfEngine.Generate(c.Request.Context(), vec, desiredClass, totalCFs)
	if err != nil {
		respondError(c, err)
		return
	}
	metrics.SearchDuration.Observe(time.Since(start).Seconds())
	metrics.CounterfactualsTotal.WithLabelValues(result.Method).Inc()

	resp := gin.H{
		"success":                   true,
		"method":                    result.Method,
		"current_prediction":        pred.Decision,
		"current_churn_probability": churn.Round4(pred.Probability),
		"original":                  vec.ToMap(),
	}

	if result.Method == churn.MethodPrimary {
		cfs := make([]map[string]float64, len(result.Counterfactuals))
		for i, cf := range result.Counterfactuals {
			cfs[i] = cf.ToMap()
		}
		resp["counterfactual"] = cfs[0]
		resp["counterfactuals"] = cfs
		resp["suggested_actions"] = s.advisor.DiffActions(vec, result.Counterfactuals[0])
		if search.Relaxed {
			resp["relaxed"] = true
		}
	} else {
		resp["suggested_actions"] = result.RuleTriggers
		resp["search_reason"] = result.SearchReason
	}

	c.JSON(http.StatusOK, resp)
}

func counterfactualParams(c *gin.Context, extras map[string]float64) (int, int, error) {
	desiredClass := 0
	totalCFs := 1

	if v, ok := extras["desired_class"]; ok {
		desiredClass = int(v)
	}
	if v, ok := extras["total_cfs"]; ok {
		totalCFs = int(v)
	}
	if v, ok := extras["total_CFs"]; ok {
		totalCFs = int(v)
	}

	// Query parameters win over inline body fields.
	if q := c.Query("desired_class"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil {
			return 0, 0, errors.InvalidInput("desired_class must be 0 or 1")
		}
		desiredClass = n
	}
	if q := c.Query("total_CFs"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil {
			return 0, 0, errors.InvalidInput("total_CFs must be an integer between 1 and 5")
		}
		totalCFs = n
	}

	return desiredClass, totalCFs, nil
}

func (s *Server) handleBulkPredict(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondError(c, errors.InvalidInput("upload a CSV or Excel file under the \"file\" form field"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, errors.Wrap(err, "failed to open uploaded file"))
		return
	}
	defer file.Close()

	table, err := dataset.ParseUpload(file, fileHeader.Filename)
	if err != nil {
		respondError(c, err)
		return
	}

	results, err := s.bulkScorer.ScoreTable(c.Request.Context(), table)
	if err != nil {
		respondError(c, err)
		return
	}
	metrics.PredictionsTotal.WithLabelValues("bulk-predict").Inc()

	// Round only at the boundary.
	for i := range results {
		results[i].Probability = churn.Round4(results[i].Probability)
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (s *Server) handleModelPerformance(c *gin.Context) {
	c.JSON(http.StatusOK, s.bundle.Metrics)
}

// handleFeatureImportance reports the top drivers for a representative
// reference customer, mirroring the dashboard's static importance view.
func (s *Server) handleFeatureImportance(c *gin.Context) {
	if len(s.bundle.Reference) == 0 {
		respondError(c, errors.InternalError("reference dataset is empty"))
		return
	}

	set, err := s.explainer.Explain(s.bundle.Reference[0].Vector)
	if err != nil {
		respondError(c, err)
		return
	}

	top := set.Top(5, attribution.ReportEpsilon)
	importance := make(map[string]float64, len(top))
	for _, e := range top {
		importance[e.Feature] = churn.Round4(e.AbsImpact)
	}
	c.JSON(http.StatusOK, importance)
}
