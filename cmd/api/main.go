package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	otelruntime "go.opentelemetry.io/contrib/instrumentation/runtime"

	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/adapters/cache"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/adapters/database"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/adapters/search"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/api/handlers"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/api/middleware"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/api/routes"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/application/services"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/domain/providers"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/domain/repositories"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/infrastructure/clients/gemini"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/infrastructure/clients/redis"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/infrastructure/clients/typesense"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/infrastructure/observability"
	"github.com/zatekoja/Trialeligibilityscreening/backend/pkg/config"
	"github.com/zatekoja/Trialeligibilityscreening/backend/pkg/secrets"
)

func main() {
	// Hydrate environment from Vault before reading configuration
	vaultCfg := secrets.LoadVaultConfigFromEnv("")
	if vaultCfg.Enabled {
		result, err := secrets.ApplyVaultSecrets(context.Background(), vaultCfg)
		if err != nil {
			log.Printf("Warning: Failed to load secrets from Vault: %v", err)
		} else {
			log.Printf("Loaded %d secrets from Vault path %s", result.Loaded, result.Path)
		}
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	var shutdown func(context.Context) error
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err = observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Printf("Warning: Failed to set up OpenTelemetry: %v", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Printf("Error shutting down OpenTelemetry: %v", err)
				}
			}()
			if err := otelruntime.Start(); err != nil {
				log.Printf("Warning: Failed to start runtime instrumentation: %v", err)
			}
			log.Println("OpenTelemetry initialized successfully")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL client: %v", err)
	}
	defer pgClient.Close()
	log.Println("PostgreSQL client initialized successfully")

	// Initialize Redis client
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Printf("Warning: Failed to initialize Redis client: %v", err)
		// Continue without Redis - the application can work without caching
	} else {
		defer redisClient.Close()
		log.Println("Redis client initialized successfully")
	}

	// Initialize Typesense client
	typesenseClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		log.Printf("Warning: Failed to initialize Typesense client: %v", err)
	} else {
		log.Println("Typesense client initialized successfully")
	}

	var cacheProvider providers.CacheProvider
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
	}

	// Initialize adapters

	patientAdapter := database.NewPatientAdapter(pgClient)
	noteAdapter := database.NewNoteAdapter(pgClient)

	// Wrap the trial adapter with caching if Redis is available. Trial
	// protocols change rarely, so reads are served from cache.
	baseTrialAdapter := database.NewTrialAdapter(pgClient)
	var trialAdapter repositories.TrialRepository
	if cacheProvider != nil {
		trialAdapter = database.NewCachedTrialAdapter(baseTrialAdapter, cacheProvider, cfg.Screening.TrialCacheTTL)
		log.Println("Trial adapter wrapped with caching layer")
	} else {
		trialAdapter = baseTrialAdapter
		log.Println("Trial adapter running without cache (Redis unavailable)")
	}

	var searchRepo repositories.TrialSearchRepository
	if typesenseClient != nil {
		adapter := search.NewTypesenseAdapter(typesenseClient)
		if err := adapter.InitSchema(context.Background()); err != nil {
			log.Printf("Warning: Failed to init Typesense schema: %v", err)
		}
		searchRepo = adapter
	}

	var explanationProvider providers.ExplanationProvider
	if cfg.Gemini.APIKey == "" {
		log.Println("Warning: GEMINI_API_KEY is not set; explanations fall back to deterministic summaries")
	} else {
		geminiClient, err := gemini.NewClient(&cfg.Gemini)
		if err != nil {
			log.Printf("Warning: Failed to initialize Gemini client: %v", err)
		} else {
			explanationProvider = geminiClient
		}
	}

	// Initialize services
	patientService := services.NewPatientService(patientAdapter, noteAdapter)
	trialService := services.NewTrialService(trialAdapter, searchRepo)
	screeningService := services.NewScreeningService(
		patientAdapter,
		trialAdapter,
		metrics,
		cfg.Screening.BatchConcurrency,
	)
	explanationService := services.NewExplanationService(
		screeningService,
		noteAdapter,
		explanationProvider,
		cacheProvider,
		metrics,
		cfg.Screening.ExplanationCacheTTL,
		cfg.Gemini.Model,
	)

	// Start cache warming so ranking does not cold-start against the database
	if cacheProvider != nil {
		warmingService := services.NewCacheWarmingService(
			baseTrialAdapter,
			cacheProvider,
			cfg.Screening.TrialCacheTTL,
		)
		go warmingService.StartPeriodicWarming(ctx, 5*time.Minute)
		log.Println("Cache warming service started (refreshes every 5 minutes)")
	}

	// Initialize handlers
	patientHandler := handlers.NewPatientHandler(patientService)
	trialHandler := handlers.NewTrialHandler(trialService)
	screeningHandler := handlers.NewScreeningHandler(screeningService)
	explanationHandler := handlers.NewExplanationHandler(explanationService)

	// Initialize cache middleware
	var cacheMiddleware *middleware.CacheMiddleware
	if cacheProvider != nil {
		cacheMiddleware = middleware.NewCacheMiddleware(cacheProvider)
		log.Println("Cache middleware initialized successfully")
	}

	// Set up router
	router := routes.NewRouter(
		patientHandler,
		trialHandler,
		screeningHandler,
		explanationHandler,
		cacheMiddleware,
		metrics,
	)

	handler := router.SetupRoutes()

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}

	log.Println("Server stopped")
}
