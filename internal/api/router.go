package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/mindforge-ai/conscience/internal/api/handlers"
	mw "github.com/mindforge-ai/conscience/internal/api/middleware"
	"github.com/mindforge-ai/conscience/internal/buildconfig"
	"github.com/mindforge-ai/conscience/internal/config"
	"github.com/mindforge-ai/conscience/internal/conscience"
	"github.com/mindforge-ai/conscience/internal/domain"
	"github.com/mindforge-ai/conscience/internal/memory"
	"github.com/mindforge-ai/conscience/internal/service"
	"github.com/mindforge-ai/conscience/internal/store"
)

// App holds the router and background services for lifecycle management.
type App struct {
	Router    *chi.Mux
	Optimizer *service.OptimizerService
	startTime time.Time
	metrics   *mw.MetricsCollector
}

// NewApp wires stores, services, and handlers into a ready router. The
// database pool is optional; without it, added rules last only for the
// process lifetime.
func NewApp(ctx context.Context, index *memory.Store, db *pgxpool.Pool, logger *zap.Logger) (*App, error) {
	evaluator := conscience.NewEvaluator(conscience.DefaultRules()...)

	// Services
	evalSvc := service.NewEvaluationService(evaluator, logger)
	memorySvc := service.NewMemoryService(index, logger)
	optimizerSvc := service.NewOptimizerService(index, logger)
	optimizerSvc.SetInterval(config.OptimizeInterval())

	if db != nil {
		ruleStore := store.NewRuleStore(db)
		if err := ruleStore.InitSchema(ctx); err != nil {
			return nil, fmt.Errorf("init rules schema: %w", err)
		}
		evalSvc.SetRuleStore(ruleStore)

		loaded, err := evalSvc.LoadPersisted(ctx)
		if err != nil {
			return nil, err
		}
		logger.Info("persisted rules loaded", zap.Int("count", loaded))
	}

	// Handlers
	evalHandler := handlers.NewEvaluationHandler(evalSvc)
	memoryHandler := handlers.NewMemoryHandler(memorySvc)

	r := chi.NewRouter()

	app := &App{
		Router:    r,
		Optimizer: optimizerSvc,
		startTime: time.Now(),
		metrics:   mw.NewMetricsCollector(),
	}

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(app.metrics.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	// Health (no auth)
	r.Get("/health", healthHandler(index, db))

	// Metrics (no auth)
	r.Get("/metrics", app.metricsHandler())

	// API routes; auth applies only when a key is configured
	r.Group(func(r chi.Router) {
		if key := config.APIKey(); key != "" {
			r.Use(mw.APIKeyAuth(key))
		}

		r.Post("/evaluate", evalHandler.Evaluate)

		r.Route("/rules", func(r chi.Router) {
			r.Get("/", evalHandler.ListRules)
			r.Post("/", evalHandler.AddRule)
		})

		r.Route("/memories", func(r chi.Router) {
			r.Post("/", memoryHandler.Store)
			r.Get("/search", memoryHandler.Search)
			r.Get("/stats", memoryHandler.Stats)
		})
	})

	return app, nil
}

func healthHandler(index *memory.Store, db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := index.Ping(r.Context()); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "degraded", "error": err.Error()})
			return
		}

		if db != nil {
			if err := db.Ping(r.Context()); err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(w).Encode(map[string]string{"status": "degraded", "error": err.Error()})
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":  "ok",
			"version": buildconfig.Version(),
		})
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)
		requests, errors := app.metrics.Snapshot()

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"request_count":  requests,
			"error_count":    errors,
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure stores satisfy interfaces at compile time.
var (
	_ domain.MemoryStore = (*memory.Store)(nil)
	_ domain.RuleStore   = (*store.RuleStore)(nil)
)
