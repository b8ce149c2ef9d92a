// Package api exposes the churn prediction service over HTTP.
package api

import (
	"log"

	"churnsight/adapters/artifact"
	"churnsight/internal/advisor"
	"churnsight/internal/attribution"
	"churnsight/internal/bulk"
	"churnsight/internal/counterfactual"
	"churnsight/internal/scoring"
	"churnsight/ports"

	"github.com/gin-gonic/gin"
)

// Server wires the engines behind the public endpoints. All request state is
// per-call; the artifact bundle and policy tables are shared read-only.
type Server struct {
	router      *gin.Engine
	bundle      *artifact.Bundle
	scorer      *scoring.Engine
	explainer   *attribution.Engine
	cfEngine    *counterfactual.Engine
	advisor     *advisor.Advisor
	bulkScorer  *bulk.Scorer
	auditLog    ports.PredictionLog // nil disables auditing
	allowOrigin string
}

// NewServer creates the API server.
func NewServer(
	bundle *artifact.Bundle,
	scorer *scoring.Engine,
	explainer *attribution.Engine,
	cfEngine *counterfactual.Engine,
	actionAdvisor *advisor.Advisor,
	bulkScorer *bulk.Scorer,
	auditLog ports.PredictionLog,
	allowOrigin string,
) *Server {
	s := &Server{
		router:      gin.Default(),
		bundle:      bundle,
		scorer:      scorer,
		explainer:   explainer,
		cfEngine:    cfEngine,
		advisor:     actionAdvisor,
		bulkScorer:  bulkScorer,
		auditLog:    auditLog,
		allowOrigin: allowOrigin,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(corsMiddleware(s.allowOrigin))
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleIndex)
	s.router.GET("/health", s.handleHealth)

	s.router.POST("/predict", s.handlePredict)
	s.router.POST("/explain", s.handleExplain)
	s.router.POST("/counterfactual", s.handleCounterfactual)
	s.router.POST("/bulk-predict", s.handleBulkPredict)

	s.router.GET("/model-performance", s.handleModelPerformance)
	s.router.GET("/feature-importance", s.handleFeatureImportance)
}

// Router exposes the underlying engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start starts the API server
func (s *Server) Start(addr string) error {
	log.Printf("Starting churnsight API on http://%s", addr)
	return s.router.Run(addr)
}
