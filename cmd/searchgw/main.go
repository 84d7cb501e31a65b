package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"

	"github.com/evidence-exchange/searchgw/internal/config"
	"github.com/evidence-exchange/searchgw/internal/domain"
	logpkg "github.com/evidence-exchange/searchgw/internal/logger"
	"github.com/evidence-exchange/searchgw/internal/metrics"
	"github.com/evidence-exchange/searchgw/internal/transport/azsearch"
	"github.com/evidence-exchange/searchgw/internal/transport/blob"
	chiTransport "github.com/evidence-exchange/searchgw/internal/transport/chi"
	openaiEmb "github.com/evidence-exchange/searchgw/internal/transport/openai"
	"github.com/evidence-exchange/searchgw/internal/version"

	documentuc "github.com/evidence-exchange/searchgw/internal/usecase/document"
	healthuc "github.com/evidence-exchange/searchgw/internal/usecase/health"
	searchuc "github.com/evidence-exchange/searchgw/internal/usecase/search"
	semanticuc "github.com/evidence-exchange/searchgw/internal/usecase/semantic"
	uploaduc "github.com/evidence-exchange/searchgw/internal/usecase/upload"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting searchgw",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("search_index", cfg.Search.Index),
		zap.String("pdf_index", cfg.Search.PDFIndex),
	)

	metrics.RegisterUpstreamMetrics()

	// Upstream clients — composition root
	searchClient := azsearch.New(&azsearch.Config{
		Endpoint:   cfg.Search.Endpoint,
		APIKey:     cfg.Search.APIKey,
		APIVersion: cfg.Search.APIVersion,
		Timeout:    time.Duration(cfg.Search.TimeoutSec) * time.Second,
		Logger:     logger,
	})

	var blobStore *blob.Store
	if cfg.Storage.ConnectionString != "" {
		blobStore, err = blob.NewStore(cfg.Storage.ConnectionString, logger)
		if err != nil {
			logger.Fatal("Failed to create blob store", zap.Error(err))
		}
	} else {
		logger.Warn("No storage connection string configured, blob operations disabled")
	}

	var embedder *openaiEmb.Embedder
	if cfg.Embedding.APIKey != "" {
		embedder = openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			Logger:     logger,
		})
	} else {
		logger.Warn("No embedding API key configured, vector search disabled")
	}

	// Use case services
	searchSvc := searchuc.New(searchClient, &cfg, logger)

	// Pass nil interface (not typed nil pointer!) when the embedder is absent.
	var queryEmbedder semanticuc.Embedder
	if embedder != nil {
		queryEmbedder = embedder
	}
	semanticSvc := semanticuc.New(searchClient, queryEmbedder, &cfg, logger)

	docSvc := documentuc.New(searchClient, blobMover(blobStore), &cfg, logger)
	uploadSvc := uploaduc.New(blobWriter(blobStore), &cfg, logger)

	var blobPinger healthuc.BlobPinger
	if blobStore != nil {
		blobPinger = blobStore
	}
	healthSvc := healthuc.New(searchClient, cfg.Search.Index, blobPinger)

	server := chiTransport.NewServer(searchSvc, semanticSvc, docSvc, uploadSvc, healthSvc)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// blobMover returns a nil interface when the store is absent.
func blobMover(s *blob.Store) documentuc.BlobMover {
	if s == nil {
		return unavailableBlobs{}
	}
	return s
}

func blobWriter(s *blob.Store) uploaduc.BlobWriter {
	if s == nil {
		return unavailableBlobs{}
	}
	return s
}

// unavailableBlobs stands in when no storage account is configured. Every
// operation fails with the upstream-unavailable sentinel so handlers map it
// to 503.
type unavailableBlobs struct{}

func (unavailableBlobs) Move(context.Context, string, string, string) error {
	return fmt.Errorf("blob storage is not configured: %w", domain.ErrUpstreamUnavailable)
}

func (unavailableBlobs) Upload(context.Context, string, string, []byte, string, map[string]string) error {
	return fmt.Errorf("blob storage is not configured: %w", domain.ErrUpstreamUnavailable)
}

func (unavailableBlobs) EnsureContainer(context.Context, string) error {
	return fmt.Errorf("blob storage is not configured: %w", domain.ErrUpstreamUnavailable)
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"status":  "error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
