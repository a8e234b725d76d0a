package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sgsarchives/headmasterd/internal/archive"
	"github.com/sgsarchives/headmasterd/internal/auditlog"
	"github.com/sgsarchives/headmasterd/internal/chain"
	"github.com/sgsarchives/headmasterd/internal/config"
	"github.com/sgsarchives/headmasterd/internal/httpapi"
	"github.com/sgsarchives/headmasterd/internal/llm"
	"github.com/sgsarchives/headmasterd/internal/observability"
	"github.com/sgsarchives/headmasterd/internal/persona"
	"github.com/sgsarchives/headmasterd/internal/session"
	"github.com/sgsarchives/headmasterd/internal/turn"
	"github.com/sgsarchives/headmasterd/internal/validate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer logger.Sync()

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	personas, err := persona.Load(cfg.PersonaCatalogPath)
	if err != nil {
		logger.Fatal("persona catalog load failed", zap.Error(err))
	}

	ctx := context.Background()

	embedder := archive.NewEmbedder(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.EmbedModel, cfg.EmbedDim)
	retriever, err := archive.NewRetriever(ctx, cfg.DatabaseURL, cfg.CorpusPath, embedder)
	if err != nil {
		logger.Fatal("archive retriever init failed", zap.Error(err))
	}
	defer retriever.Close()

	client, err := llm.NewClient(llm.Config{
		Mode:    cfg.LLMMode,
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.ChatModel,
	})
	if err != nil {
		logger.Fatal("llm client init failed", zap.Error(err))
	}

	validatorClient, err := llm.NewClient(llm.Config{
		Mode:    cfg.LLMMode,
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.ValidatorModel,
	})
	if err != nil {
		logger.Fatal("validator client init failed", zap.Error(err))
	}

	validators := validate.NewSet(
		validate.NewFactChecker(retriever),
		validate.NewPeriodValidator(validatorClient, cfg.ValidatorTemperature, cfg.ValidatorMaxTokens),
		validate.NewCitationGenerator(retriever),
	)

	auditLog, err := auditlog.NewLog(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("interaction log init failed", zap.Error(err))
	}
	defer auditLog.Close()

	sessions := session.NewManager(cfg.SessionInactivityTimeout)

	orchestrator := turn.NewOrchestrator(
		personas,
		client,
		retriever,
		validators,
		auditLog,
		sessions,
		metrics,
		logger,
		turn.Config{
			ChainParams: chain.Params{
				Temperature:  cfg.ChatTemperature,
				MaxTokens:    cfg.ChatMaxTokens,
				RetrievalK:   cfg.RetrievalK,
				MaxExchanges: cfg.HistoryMaxExchanges,
			},
			ValidatorTimeout: cfg.ValidatorTimeout,
			AuditTimeout:     cfg.AuditAppendTimeout,
		},
	)

	sessions.SetExpireHook(func(s *session.Session) {
		orchestrator.DropSession(s.ID)
		metrics.SessionEvents.WithLabelValues("expired").Inc()
		metrics.ActiveSessions.Set(float64(sessions.ActiveCount()))
	})

	api := httpapi.New(cfg, personas, sessions, orchestrator, auditLog, metrics, logger)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	sessions.StartJanitor(runCtx, 5*time.Second)

	go func() {
		logger.Info("server listening", zap.String("addr", cfg.BindAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutdown signal received")

	runCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		_ = httpServer.Close()
	}

	logger.Info("shutdown complete")
}
