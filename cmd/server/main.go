package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/salescoach/backend/config"
	httpDelivery "github.com/salescoach/backend/internal/delivery/http"
	"github.com/salescoach/backend/internal/domain"
	"github.com/salescoach/backend/internal/infrastructure/cache"
	"github.com/salescoach/backend/internal/infrastructure/ingest"
	"github.com/salescoach/backend/internal/infrastructure/jsonstore"
	"github.com/salescoach/backend/internal/infrastructure/llm"
	"github.com/salescoach/backend/internal/infrastructure/logging"
	"github.com/salescoach/backend/internal/infrastructure/otp"
	"github.com/salescoach/backend/internal/usecase"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: "salescoach",
	})

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped with error")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	logger.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Str("store", cfg.Store.Type).
		Msg("starting salescoach backend")

	// OTP challenges and sessions
	store, err := newStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	// JSON-backed content
	catalogFile := jsonstore.NewCatalogFile(cfg.Storage.CatalogPath)
	quizFile := jsonstore.NewQuizFile(cfg.Storage.QuizPath)
	scriptFile := jsonstore.NewScriptFile(cfg.Storage.ScriptsPath)
	logger.Info().
		Str("catalog", cfg.Storage.CatalogPath).
		Str("quiz", cfg.Storage.QuizPath).
		Str("scripts", cfg.Storage.ScriptsPath).
		Msg("content files configured")

	// Chat completions are optional; without a key the coach answers from the catalog alone
	var chatClient domain.ChatClient
	if cfg.LLM.APIKey != "" {
		chatClient = llm.NewClient(llm.Config{
			BaseURL:           cfg.LLM.BaseURL,
			APIKey:            cfg.LLM.APIKey,
			Model:             cfg.LLM.Model,
			Timeout:           cfg.LLM.Timeout,
			MaxTokens:         cfg.LLM.MaxTokens,
			Temperature:       cfg.LLM.Temperature,
			RequestsPerSecond: cfg.LLM.RequestsPerSecond,
			MaxRetries:        cfg.LLM.MaxRetries,
		}, logger)
		logger.Info().Str("model", cfg.LLM.Model).Msg("LLM chat enabled")
	} else {
		logger.Warn().Msg("LLM API key not configured, chat uses keyword fallback only")
	}

	var ocr *ingest.OCR
	if cfg.OCR.Enabled {
		ocr = ingest.NewOCR(ingest.OCRConfig{Binary: cfg.OCR.Binary, Language: cfg.OCR.Language}, nil)
		logger.Info().Str("binary", cfg.OCR.Binary).Str("language", cfg.OCR.Language).Msg("OCR enabled")
	}
	fetcher := ingest.NewWebFetcher(ingest.FetchConfig{
		Timeout:      cfg.Fetch.Timeout,
		UserAgent:    cfg.Fetch.UserAgent,
		MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
	})

	// Initialize usecase layer
	catalogService := usecase.NewCatalogService(catalogFile, logger)
	uploadService := usecase.NewUploadService(
		ingest.NewAdapter(ocr, fetcher, logger),
		usecase.NewFieldExtractor(logger),
		logger,
	)
	authService := usecase.NewAuthService(store, otp.NewLogSender(logger), usecase.AuthConfig{
		OTPTTL:      cfg.Auth.OTPTTL,
		SessionTTL:  cfg.Auth.SessionTTL,
		MaxAttempts: cfg.Auth.MaxAttempts,
	}, logger)
	chatService := usecase.NewChatService(chatClient, catalogFile, usecase.NewVehicleMatcher(usecase.MatchConfig{}), logger)

	if err := os.MkdirAll(cfg.Server.UploadDir, 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}

	handler := httpDelivery.NewHandler(httpDelivery.Services{
		Catalog: catalogService,
		Upload:  uploadService,
		Auth:    authService,
		Chat:    chatService,
		Quiz:    usecase.NewQuizService(quizFile, logger),
		Scripts: usecase.NewScriptService(scriptFile),
	}, httpDelivery.UploadConfig{
		Dir:      cfg.Server.UploadDir,
		MaxBytes: cfg.Server.MaxUploadMB << 20,
	}, logger)

	router := httpDelivery.SetupRouter(cfg, handler, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}

// sessionStore is a KeyValueStore the server owns and closes on exit
type sessionStore interface {
	domain.KeyValueStore
	io.Closer
}

func newStore(cfg *config.Config) (sessionStore, error) {
	switch cfg.Store.Type {
	case "redis":
		s, err := cache.NewRedisStore(cache.RedisConfig{
			URL:    cfg.Store.RedisURL,
			Prefix: cfg.Store.RedisPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		return s, nil
	default:
		return cache.NewMemoryStore(cfg.Store.CleanupInterval), nil
	}
}
