package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/player-progress/internal/auth"
	"github.com/player-progress/internal/config"
	"github.com/player-progress/internal/connectivity"
	"github.com/player-progress/internal/handler"
	"github.com/player-progress/internal/kafka"
	"github.com/player-progress/internal/local"
	"github.com/player-progress/internal/postgres"
	"github.com/player-progress/internal/progress"
	"github.com/player-progress/internal/redis"
	"github.com/player-progress/internal/session"
	"github.com/player-progress/internal/websocket"
	"github.com/player-progress/internal/worker"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	offline := flag.Bool("offline", false, "Skip remote stores entirely")
	flag.Parse()

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Warn("failed to load config file, using defaults", "error", err)
		cfg = config.DefaultConfig()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Anonymous identity keys the remote profile document. A failure
	// here just means an unsigned, local-only session.
	identity := auth.NewIdentity(cfg.Local.IdentityPath, logger)
	if _, err := identity.SignIn(); err != nil {
		logger.Warn("anonymous sign-in failed, running unsigned", "error", err)
	}

	localStore := local.NewStore(cfg.Local.SavePath, cfg.Session.LevelCount, logger)

	// Remote stores are optional: if either is unreachable the session
	// degrades to the local path instead of refusing to start.
	var profileRepo *postgres.Repository
	var rankingStore *redis.RankingStore
	if !*offline {
		logger.Info("connecting to PostgreSQL", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
		profileRepo, err = postgres.NewRepository(&cfg.Postgres, cfg.Session.LevelCount, logger)
		if err != nil {
			logger.Warn("PostgreSQL unavailable, profile persistence is local-only", "error", err)
		} else {
			defer profileRepo.Close()
			if err := profileRepo.RunMigrations(ctx); err != nil {
				logger.Error("failed to run migrations", "error", err)
				os.Exit(1)
			}
		}

		logger.Info("connecting to Redis", "addr", cfg.Redis.Addr)
		rankingStore, err = redis.NewRankingStore(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis unavailable, global rankings disabled", "error", err)
		} else {
			defer rankingStore.Close()
		}
	}

	probe := connectivity.NewDialProbe(cfg.Session.ProbeAddr, cfg.Session.ProbeTimeout)
	if *offline {
		probe = connectivity.Always(false)
	}

	// Write-behind pipeline: in-memory mutations are authoritative, the
	// flusher persists them in call order.
	var remoteForFlusher worker.RemoteStore
	if profileRepo != nil {
		remoteForFlusher = profileRepo
	}
	flusher := worker.NewFlusher(remoteForFlusher, localStore, &cfg.Flush, logger)
	if err := flusher.Start(ctx); err != nil {
		logger.Error("failed to start flush worker", "error", err)
		os.Exit(1)
	}

	useRemoteRankings := cfg.Session.RankingSource == config.RankingSourceRemote && rankingStore != nil

	sessionOpts := session.Options{
		Local:        localStore,
		Writer:       flusher,
		Probe:        probe,
		Identity:     identity,
		LevelCount:   cfg.Session.LevelCount,
		SkinCount:    cfg.Session.SkinCount,
		LoadRankings: useRemoteRankings,
		Logger:       logger,
	}
	if profileRepo != nil {
		sessionOpts.Remote = profileRepo
	}
	if rankingStore != nil {
		sessionOpts.Rankings = rankingStore
	}
	sess := session.New(sessionOpts)

	// Initialize WebSocket hub
	wsHub := websocket.NewHub(logger)
	go wsHub.Run()

	// Exactly one ranking sink is active per build target.
	var sink progress.RankingSink
	if useRemoteRankings {
		sink = progress.NewRemoteSink(rankingStore, sess)
	} else {
		sink = progress.NewNativeSink(logger)
	}

	// Telemetry producer is optional.
	var events progress.EventPublisher
	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		producer, err = kafka.NewProducer(&cfg.Kafka, logger)
		if err != nil {
			logger.Warn("failed to create telemetry producer, continuing without it", "error", err)
		} else {
			events = producer
			logger.Info("telemetry producer started", "topic", cfg.Kafka.Topic)
		}
	}

	var names session.UsernameIndex
	if profileRepo != nil {
		names = profileRepo
	}
	facade := progress.NewService(sess, names, sink, events, wsHub, identity.UserID, logger)

	// One initial load per process; readiness gates profile-displaying UI.
	if err := sess.Initialize(ctx, func() {
		logger.Info("player session ready",
			"username", sess.Username(),
			"coins", sess.Coins(),
			"total_stars", sess.TotalStars(),
		)
	}); err != nil {
		logger.Error("session initialization failed", "error", err)
		os.Exit(1)
	}

	httpHandler := handler.NewHandler(facade, wsHub, logger)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpHandler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", "error", err)
	}

	wsHub.Stop()

	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("failed to close telemetry producer", "error", err)
		}
	}

	// Drain pending writes, then take one last local snapshot.
	if err := flusher.Stop(); err != nil {
		logger.Error("failed to stop flush worker", "error", err)
	}
	if err := sess.Flush(); err != nil {
		logger.Warn("final local save failed", "error", err)
	}

	logger.Info("server stopped")
}
