package main

import (
	"context"
	"log"

	"churnsight/adapters/artifact"
	"churnsight/adapters/postgres"
	"churnsight/adapters/rng"
	"churnsight/api"
	"churnsight/internal/advisor"
	"churnsight/internal/attribution"
	"churnsight/internal/bulk"
	"churnsight/internal/config"
	"churnsight/internal/counterfactual"
	"churnsight/internal/migration"
	"churnsight/internal/ops"
	"churnsight/internal/scoring"
	"churnsight/ports"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// initAuditLog connects the optional prediction audit store. Without a
// DATABASE_URL the service runs with auditing disabled; with one, a failed
// connection is fatal so misconfiguration is caught at startup.
func initAuditLog(cfg *config.Config) (ports.PredictionLog, func(), error) {
	if cfg.Database.URL == "" {
		log.Println("No DATABASE_URL configured, prediction auditing disabled")
		return nil, func() {}, nil
	}

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, nil, err
	}

	migrator := migration.NewRunner()
	if err := migrator.Run(context.Background(), db); err != nil {
		db.Close()
		return nil, nil, err
	}

	return postgres.NewPredictionLog(db), func() { db.Close() }, nil
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Server.GinMode != "" {
		gin.SetMode(cfg.Server.GinMode)
	}

	// The artifact bundle is the process's read-only model state. Refusing
	// to start beats serving garbage from a half-loaded model.
	bundle, err := artifact.Load(cfg.Artifact.ManifestPath)
	if err != nil {
		log.Fatalf("Failed to load artifact bundle: %v", err)
	}

	scorer, err := scoring.New(bundle.Contract, bundle.Scaler, bundle.Model)
	if err != nil {
		log.Fatalf("Failed to initialize scoring engine: %v", err)
	}

	explainer, err := attribution.New(scorer, bundle.Model)
	if err != nil {
		log.Fatalf("Failed to initialize attribution engine: %v", err)
	}

	cfConfig := counterfactual.DefaultConfig()
	cfConfig.Budget = cfg.Search.Budget
	cfConfig.MaxConcurrent = cfg.Search.MaxConcurrent

	cfEngine, err := counterfactual.New(
		scorer,
		bundle.Actionable,
		bundle.Reference,
		counterfactual.DefaultRules(),
		rng.New(cfConfig.BaseSeed),
		cfConfig,
	)
	if err != nil {
		log.Fatalf("Failed to initialize counterfactual engine: %v", err)
	}

	auditLog, closeAudit, err := initAuditLog(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize prediction audit log: %v", err)
	}
	defer closeAudit()

	if cfg.Ops.Enabled {
		ops.Start(cfg.Ops.Port)
	}

	server := api.NewServer(
		bundle,
		scorer,
		explainer,
		cfEngine,
		advisor.New(advisor.DefaultPolicyTable()),
		bulk.New(scorer, 4),
		auditLog,
		cfg.Server.AllowOrigin,
	)

	log.Fatal(server.Start(":" + cfg.Server.Port))
}
