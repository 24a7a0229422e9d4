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

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sujalbistaa/threadline/internal/config"
	"github.com/sujalbistaa/threadline/internal/db"
	routes "github.com/sujalbistaa/threadline/internal/http"
	"github.com/sujalbistaa/threadline/internal/logging"
	"github.com/sujalbistaa/threadline/internal/store"
	"github.com/sujalbistaa/threadline/internal/ws"
)

func main() {
	// Load .env before anything reads the environment. Production sets
	// variables directly, so a missing file is fine.
	foundDotEnv := config.LoadDotEnv()

	cfg := config.LoadServer()

	logger, err := logging.New(cfg.Logging.Environment, cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if !foundDotEnv {
		logger.Info("no .env file found, reading from environment")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	// 1. Open the post document
	doc, err := db.Open(cfg.DataURL, config.ServerDocumentKey, logger)
	if err != nil {
		logger.Fatal("failed to open post document", zap.Error(err))
	}
	defer doc.Close()

	postStore := store.New(doc, logger.Named("store"))

	// 2. Change feed
	hub := ws.NewHub(logger.Named("ws"))
	go hub.Run()
	defer hub.Stop()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// 3. Router
	if cfg.Logging.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	routes.SetupRoutes(ctx, router, routes.Options{
		Store:          postStore,
		Hub:            hub,
		AdminToken:     cfg.AdminToken,
		CORSOrigin:     cfg.CORSOrigin,
		CommentsPerMin: cfg.CommentsPerMin,
		Logger:         logger.Named("http"),
	})

	// 4. Start Server with Graceful Shutdown
	ln, err := routes.Listen(cfg.Port, cfg.PortAttempts, logger)
	if err != nil {
		logger.Fatal("failed to bind", zap.Error(err))
	}

	srv := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-quit:
		logger.Info("shutting down server")
	case err := <-serveErr:
		logger.Error("server stopped", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exiting")
}
