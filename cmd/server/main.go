package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mailspool/internal/api"
	"mailspool/internal/config"
	"mailspool/internal/db"
	"mailspool/internal/metrics"
	"mailspool/internal/models"
	"mailspool/internal/queue"
	"mailspool/internal/templatestore"
	"mailspool/internal/token"
	"mailspool/internal/transport"
	"mailspool/internal/worker"
)

func main() {

	// ------------------------------------------------
	// Logger
	// ------------------------------------------------
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// ------------------------------------------------
	// Config
	// ------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	// ------------------------------------------------
	// Root Context + Shutdown
	// ------------------------------------------------
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
		cancel()
	}()

	// ------------------------------------------------
	// Status store
	// ------------------------------------------------
	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		logger.Fatal("status table migration failed", zap.Error(err))
	}

	// ------------------------------------------------
	// Metrics
	// ------------------------------------------------
	metrics.Init()

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())

	metricsServer := &http.Server{
		Addr:    ":" + cfg.MetricsPort,
		Handler: metricsMux,
	}

	go func() {
		logger.Info("metrics server started", zap.String("port", cfg.MetricsPort))
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("metrics server error", zap.Error(err))
		}
	}()

	// ------------------------------------------------
	// Mail Queue
	// ------------------------------------------------
	mailQueue := queue.NewMemoryQueue()

	// ------------------------------------------------
	// Token Cache + Sender Transport
	// ------------------------------------------------
	senders := transport.NewRegistry()

	switch cfg.SenderTransport {
	case "smtp":
		senders.Register(cfg.SenderID, transport.NewSMTPClient(
			cfg.SMTPHost,
			cfg.SMTPPort,
			cfg.SMTPUser,
			cfg.SMTPPassword,
			cfg.SMTPFrom,
		))
	default:
		tokens, err := token.NewCache(token.Config{
			FilePath: cfg.TokenFilePath,
			TokenURL: cfg.OAuthTokenURL,
			ClientID: cfg.OAuthClientID,
			Scopes:   cfg.OAuthScopes,
		}, logger)
		if err != nil {
			logger.Fatal("token cache init failed", zap.Error(err))
		}
		senders.Register(cfg.SenderID, transport.NewEWSClient(cfg.EWSURL, tokens, cfg.EWSTimeout))
	}

	// ------------------------------------------------
	// Rate Limiter
	// ------------------------------------------------
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimit)

	// ------------------------------------------------
	// Dispatch Worker
	// ------------------------------------------------
	var wg sync.WaitGroup

	dispatcher := worker.New(
		worker.Config{
			Interval:        cfg.WorkerInterval,
			SendLimit:       cfg.SendLimit,
			SubjectFallback: cfg.SubjectFallback,
			BodyKind:        models.BodyKind(cfg.BodyKind),
		},
		mailQueue,
		senders,
		store,
		limiter,
		logger,
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		dispatcher.Run(ctx)
	}()

	// ------------------------------------------------
	// HTTP API Server
	// ------------------------------------------------
	apiHandler := &api.Handler{
		Queue:      mailQueue,
		Senders:    senders,
		Templates:  templatestore.New(cfg.TemplatesDir),
		Store:      store,
		Log:        logger,
		MaxCSVRows: cfg.MaxCSVRows,
	}

	apiServer := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: apiHandler.Routes(),
	}

	go func() {
		logger.Info("api server started", zap.String("port", cfg.APIPort))
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("api server error", zap.Error(err))
		}
	}()

	// ------------------------------------------------
	// Wait for shutdown
	// ------------------------------------------------
	<-ctx.Done()

	logger.Info("shutting down services...")

	// Wait for the in-progress drain cycle to finish
	wg.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("api shutdown failed", zap.Error(err))
	}

	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics shutdown failed", zap.Error(err))
	}

	logger.Info("application shutdown complete")
}
