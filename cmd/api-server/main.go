// cmd/api-server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	classifyintent "github.com/RaDu88253/LocalCommerceAi/internal/agent/classify-intent"
	discoverbusinesses "github.com/RaDu88253/LocalCommerceAi/internal/agent/discover-businesses"
	extractquery "github.com/RaDu88253/LocalCommerceAi/internal/agent/extract-query"
	"github.com/RaDu88253/LocalCommerceAi/internal/agent/orchestrator"
	scorebusiness "github.com/RaDu88253/LocalCommerceAi/internal/agent/score-business"
	synthesizeresponse "github.com/RaDu88253/LocalCommerceAi/internal/agent/synthesize-response"
	verifyproduct "github.com/RaDu88253/LocalCommerceAi/internal/agent/verify-product"
	"github.com/RaDu88253/LocalCommerceAi/internal/common/aws"
	"github.com/RaDu88253/LocalCommerceAi/internal/common/config"
	"github.com/RaDu88253/LocalCommerceAi/internal/common/database"
	"github.com/RaDu88253/LocalCommerceAi/internal/common/genai"
	"github.com/RaDu88253/LocalCommerceAi/internal/common/logger"
	"github.com/RaDu88253/LocalCommerceAi/internal/common/observability"
	"github.com/RaDu88253/LocalCommerceAi/internal/common/places"
	"github.com/RaDu88253/LocalCommerceAi/internal/common/taxregistry"
	"github.com/RaDu88253/LocalCommerceAi/internal/common/webpage"
	"github.com/RaDu88253/LocalCommerceAi/internal/common/websearch"
	"github.com/RaDu88253/LocalCommerceAi/internal/server"
	"github.com/RaDu88253/LocalCommerceAi/internal/users"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting api-server...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Elasticsearch (optional audit sink) ---
	var esClient *database.ElasticsearchClient
	if cfg.Database.Elasticsearch.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping()
		}, 5, 2*time.Second, zapLog, "Elasticsearch connection")

		if err != nil {
			// The audit log is not worth refusing to serve traffic over.
			zapLog.Warn("elasticsearch unavailable, run summaries disabled", zap.Error(err))
			esClient = nil
		} else {
			zapLog.Info("Elasticsearch connected successfully")
		}
	}

	// --- Init External Service Clients ---
	llm := genai.NewClient(
		cfg.APIs.GenAI.BaseURL,
		cfg.APIs.GenAI.APIKey,
		cfg.APIs.GenAI.Model,
		time.Duration(cfg.APIs.GenAI.Timeout)*time.Millisecond,
	)
	placesClient := places.NewClient(
		cfg.APIs.Places.BaseURL,
		cfg.APIs.Places.APIKey,
		time.Duration(cfg.APIs.Places.Timeout)*time.Millisecond,
	)
	searchClient := websearch.NewClient(
		cfg.APIs.WebSearch.BaseURL,
		cfg.APIs.WebSearch.APIKey,
		cfg.APIs.WebSearch.MaxResults,
		time.Duration(cfg.APIs.WebSearch.Timeout)*time.Millisecond,
	)
	registryClient := taxregistry.NewClient(
		cfg.APIs.TaxRegistry.BaseURL,
		time.Duration(cfg.APIs.TaxRegistry.Timeout)*time.Millisecond,
	)
	verifier := taxregistry.NewVerifier(
		registryClient, redis,
		time.Duration(cfg.APIs.TaxRegistry.CacheTTL)*time.Second,
		log,
	)
	fetcher := webpage.NewClient(15 * time.Second)

	var smsRelay server.SMSSender
	if cfg.Messaging.SMS.Enabled {
		snsClient, err := aws.NewSNSClient(ctx, cfg.Messaging.AWS.Region, cfg.Messaging.SMS.SenderID)
		if err != nil {
			zapLog.Fatal("sns client failed", zap.Error(err))
		}
		smsRelay = snsClient
	}

	var mailer users.WelcomeMailer
	if cfg.Messaging.Email.Enabled {
		sesClient, err := aws.NewSESClient(ctx, cfg.Messaging.AWS.Region, cfg.Messaging.Email.FromEmail)
		if err != nil {
			zapLog.Fatal("ses client failed", zap.Error(err))
		}
		mailer = sesClient
	}

	zapLog.Info("All external service clients initialized")

	// --- Assemble the pipeline ---
	scoreConfig := scorebusiness.LoadConfig()
	if len(cfg.Pipeline.CorporateKeywords) > 0 {
		scoreConfig.CorporateKeywords = cfg.Pipeline.CorporateKeywords
	}

	orchestratorConfig := orchestrator.LoadConfig()
	orchestratorConfig.RadiusFloorMeters = cfg.Pipeline.RadiusFloorMeters
	orchestratorConfig.RadiusCeilingMeters = cfg.Pipeline.RadiusCeilingMeters
	orchestratorConfig.TargetVerified = cfg.Pipeline.TargetVerified
	if cfg.Database.Elasticsearch.RunIndex != "" {
		orchestratorConfig.RunIndex = cfg.Database.Elasticsearch.RunIndex
	}

	var runIndexer orchestrator.RunIndexer
	if esClient != nil {
		runIndexer = esClient
	}

	pipeline := orchestrator.New(
		orchestratorConfig,
		classifyintent.NewHandler(classifyintent.LoadConfig(), llm, log),
		extractquery.NewHandler(extractquery.LoadConfig(), llm, log),
		discoverbusinesses.NewHandler(discoverbusinesses.LoadConfig(), placesClient, log),
		scorebusiness.NewHandler(scoreConfig, searchClient, verifier, log),
		verifyproduct.NewHandler(verifyproduct.LoadConfig(), searchClient, fetcher, llm, log),
		synthesizeresponse.NewHandler(synthesizeresponse.LoadConfig(), llm, log),
		runIndexer,
		obs,
		log,
	)

	// --- Users ---
	tokens := users.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry())
	userService := users.NewService(users.NewStore(pg.GetDB()), tokens, mailer, log)

	// --- HTTP server ---
	srv := server.New(cfg, userService, pipeline, smsRelay, log)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      srv.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: time.Duration(cfg.Server.RequestTimeout) * time.Millisecond,
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLog.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Millisecond)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("graceful shutdown failed", zap.Error(err))
	}
	zapLog.Info("Server stopped")
}
