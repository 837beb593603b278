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
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/pfn-backend/internal/cards"
	"github.com/DoyleJ11/pfn-backend/internal/config"
	"github.com/DoyleJ11/pfn-backend/internal/engine"
	"github.com/DoyleJ11/pfn-backend/internal/httpapi"
	"github.com/DoyleJ11/pfn-backend/internal/hub"
	"github.com/DoyleJ11/pfn-backend/internal/logging"
	"github.com/DoyleJ11/pfn-backend/internal/room"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.Development)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	pool, err := loadCards(ctx, cfg, logger)
	if err != nil {
		return err
	}
	pool = cards.Limit(pool, cfg.DeckSize)
	logger.Info("card pool loaded", zap.Int("cards", len(pool)))

	h := hub.NewHub(ctx, logger, room.WithTickInterval(cfg.TickInterval))

	// Build the router *with* the hub injected
	newState := func() engine.State { return cfg.NewGameState(pool) }
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpapi.SetupRoutes(h, newState, cfg.Origins(), logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		h.Inbox() <- hub.ShutdownHub{}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func loadCards(ctx context.Context, cfg config.Config, logger *zap.Logger) ([]engine.Card, error) {
	var primary cards.Source
	switch {
	case cfg.DatabaseURL != "":
		db, err := cards.OpenDB(cfg.DatabaseURL)
		if err != nil {
			logger.Warn("card database unavailable", zap.Error(err))
			break
		}
		primary = cards.DBSource{DB: db}
	case cfg.CardsFile != "":
		primary = cards.FileSource{Path: cfg.CardsFile}
	}

	loadCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return cards.Fallback{Primary: primary, Logger: logger}.Load(loadCtx)
}
