package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"churnsight/internal/testkit"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newTestServer(t *testing.T) (*testkit.TestKit, *Server) {
	t.Helper()
	kit, err := testkit.New()
	require.NoError(t, err, "testkit")

	scorer, err := kit.Scorer()
	require.NoError(t, err)
	explainer, err := kit.Explainer()
	require.NoError(t, err)
	cfEngine, err := kit.Counterfactual()
	require.NoError(t, err)
	bulkScorer, err := kit.BulkScorer()
	require.NoError(t, err)

	server := NewServer(kit.Bundle, scorer, explainer, cfEngine,
		kit.Advisor(), bulkScorer, nil, "http://localhost:3000")
	return kit, server
}

func postJSON(t *testing.T, server *Server, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}

func TestHealthEndpoint(t *testing.T) {
	_, server := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decodeBody(t, w)["status"])
}

func TestPredict_LowRiskCustomer(t *testing.T) {
	_, server := newTestServer(t)

	w := postJSON(t, server, "/predict", testkit.LowRiskCustomer())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decodeBody(t, w)
	assert.Equal(t, float64(0), body["prediction"])
	assert.Less(t, body["churn_probability"].(float64), 0.3)
	assert.Equal(t, "Low", body["risk_category"])

	// A retained customer risks only 10% of lifetime value.
	cltv := testkit.LowRiskCustomer()["CLTV"]
	assert.InDelta(t, cltv*0.1, body["clv_potential_loss"].(float64), 1e-9)
}

func TestPredict_HighRiskCustomer(t *testing.T) {
	_, server := newTestServer(t)

	w := postJSON(t, server, "/predict", testkit.HighRiskCustomer())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decodeBody(t, w)
	assert.Equal(t, float64(1), body["prediction"])
	assert.Greater(t, body["churn_probability"].(float64), 0.95)
	assert.Equal(t, "High", body["risk_category"])

	cltv := testkit.HighRiskCustomer()["CLTV"]
	assert.InDelta(t, cltv*0.5, body["clv_potential_loss"].(float64), 1e-9)
}

func TestPredict_MissingFeatures(t *testing.T) {
	_, server := newTestServer(t)

	w := postJSON(t, server, "/predict", map[string]float64{"Monthly_Charge": 70})
	require.Equal(t, http.StatusBadRequest, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, "MISSING_FEATURE", body["code"])
	// The error names every missing feature, not just the first.
	assert.Contains(t, body["error"], "Age")
	assert.Contains(t, body["error"], "Satisfaction_Score")
}

func TestPredict_RejectsNonNumericFeature(t *testing.T) {
	_, server := newTestServer(t)

	payload := map[string]interface{}{}
	for k, v := range testkit.BaseCustomer() {
		payload[k] = v
	}
	payload["Monthly_Charge"] = "seventy"

	w := postJSON(t, server, "/predict", payload)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_INPUT", decodeBody(t, w)["code"])
}

func TestExplain(t *testing.T) {
	_, server := newTestServer(t)

	w := postJSON(t, server, "/explain", testkit.HighRiskCustomer())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decodeBody(t, w)
	assert.Equal(t, float64(1), body["prediction"])
	assert.Contains(t, body, "base_value")

	top := body["top_features"].([]interface{})
	require.NotEmpty(t, top)
	assert.LessOrEqual(t, len(top), 10)

	// Reported drivers are ordered by descending magnitude.
	prev := 1e18
	for _, raw := range top {
		e := raw.(map[string]interface{})
		abs := e["abs_impact"].(float64)
		assert.LessOrEqual(t, abs, prev)
		assert.Greater(t, abs, 0.0)
		prev = abs
	}

	chart := body["shap_data"].([]interface{})
	assert.GreaterOrEqual(t, len(chart), len(top))
	assert.LessOrEqual(t, len(chart), 15)

	confidence := body["model_confidence"].(float64)
	assert.GreaterOrEqual(t, confidence, 0.0)
	assert.LessOrEqual(t, confidence, 1.0)
}

func TestCounterfactual_PrimarySearch(t *testing.T) {
	_, server := newTestServer(t)

	w := postJSON(t, server, "/counterfactual?desired_class=0&total_CFs=2", testkit.BaseCustomer())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	require.Equal(t, "primary", body["method"], "reason: %v", body["search_reason"])
	assert.Equal(t, float64(1), body["current_prediction"])

	cf := body["counterfactual"].(map[string]interface{})
	assert.Len(t, cf, 46) // the complete feature map, not a sparse diff

	actions := body["suggested_actions"].([]interface{})
	require.NotEmpty(t, actions)
	first := actions[0].(map[string]interface{})
	assert.NotEmpty(t, first["action"])
	assert.NotEmpty(t, first["feature"])
}

func TestCounterfactual_FallbackForSettledCustomer(t *testing.T) {
	_, server := newTestServer(t)

	// Already in the desired class: the search declines and the rule table
	// answers instead, still as a 200.
	w := postJSON(t, server, "/counterfactual?desired_class=0&total_CFs=1", testkit.LowRiskCustomer())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "fallback", body["method"])
	assert.NotEmpty(t, body["search_reason"])

	// This customer is in good standing: the rule table must stay quiet, and
	// it must certainly not raise HIGH or CRITICAL flags.
	if actions, ok := body["suggested_actions"].([]interface{}); ok {
		for _, raw := range actions {
			rec := raw.(map[string]interface{})
			assert.NotContains(t, []interface{}{"HIGH", "CRITICAL"}, rec["priority"],
				"unexpected retention flag for a low-risk customer: %v", rec)
		}
		assert.Empty(t, actions)
	}
}

func TestCounterfactual_RejectsBadParams(t *testing.T) {
	_, server := newTestServer(t)

	w := postJSON(t, server, "/counterfactual?desired_class=2", testkit.BaseCustomer())
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_INPUT", decodeBody(t, w)["code"])

	w = postJSON(t, server, "/counterfactual?desired_class=0&total_CFs=9", testkit.BaseCustomer())
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_INPUT", decodeBody(t, w)["code"])
}

func uploadCSV(t *testing.T, server *Server, filename, contents string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(contents))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/bulk-predict", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)
	return w
}

func TestBulkPredict(t *testing.T) {
	kit, server := newTestServer(t)

	features := kit.Bundle.Contract.Features()
	var b strings.Builder
	b.WriteString(strings.Join(features, ","))
	b.WriteString("\n")
	for _, raw := range []map[string]float64{testkit.LowRiskCustomer(), testkit.HighRiskCustomer()} {
		cells := make([]string, len(features))
		for j, name := range features {
			cells[j] = fmt.Sprintf("%g", raw[name])
		}
		b.WriteString(strings.Join(cells, ","))
		b.WriteString("\n")
	}

	w := uploadCSV(t, server, "customers.csv", b.String())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decodeBody(t, w)
	results := body["results"].([]interface{})
	require.Len(t, results, 2)

	first := results[0].(map[string]interface{})
	assert.Equal(t, float64(0), first["index"])
	assert.Equal(t, float64(0), first["prediction"])

	second := results[1].(map[string]interface{})
	assert.Equal(t, float64(1), second["index"])
	assert.Equal(t, float64(1), second["prediction"])
}

func TestBulkPredict_SchemaMismatch(t *testing.T) {
	_, server := newTestServer(t)

	w := uploadCSV(t, server, "customers.csv", "Monthly_Charge,Age\n70,40\n")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "SCHEMA_MISMATCH", decodeBody(t, w)["code"])
}

func TestBulkPredict_RequiresFile(t *testing.T) {
	_, server := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/bulk-predict", nil)
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestModelPerformance(t *testing.T) {
	kit, server := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/model-performance", nil)
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, kit.Bundle.Metrics["accuracy"], body["accuracy"])
}

func TestFeatureImportance(t *testing.T) {
	_, server := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/feature-importance", nil)
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.NotEmpty(t, body)
	assert.LessOrEqual(t, len(body), 5)
}

func TestModelCard(t *testing.T) {
	_, server := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "Churn Prediction API")
}

func TestCORSPreflight(t *testing.T) {
	_, server := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/predict", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
