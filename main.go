package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"

	"github.com/danielhkuo/villa-vote/aggregate"
	"github.com/danielhkuo/villa-vote/auth"
	"github.com/danielhkuo/villa-vote/catalog"
	"github.com/danielhkuo/villa-vote/cliparse"
	"github.com/danielhkuo/villa-vote/db"
	"github.com/danielhkuo/villa-vote/middleware"
	"github.com/danielhkuo/villa-vote/realtime"
	"github.com/danielhkuo/villa-vote/router"
	"github.com/danielhkuo/villa-vote/session"
	"github.com/danielhkuo/villa-vote/store"
)

func main() {
	var err error

	// .env is optional; real environment wins
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to load .env", "error", err)
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)

	// Connect to the database
	dbConn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "type", cfg.DatabaseType, "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Create schema (tables)
	if err := db.CreateSchema(dbConn); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready", "type", cfg.DatabaseType)

	st := store.New(dbConn)

	// Seed the catalog on first start
	if cfg.CatalogPath != "" {
		villas, err := catalog.LoadFile(cfg.CatalogPath)
		if err != nil {
			slog.Error("catalog load failed", "path", cfg.CatalogPath, "error", err)
			os.Exit(1)
		}
		if _, err := catalog.Seed(context.Background(), st, villas); err != nil {
			slog.Error("catalog seed failed", "error", err)
			os.Exit(1)
		}
	}

	// Events, optionally mirrored to Kafka
	var mirror realtime.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		mirror = realtime.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		slog.Info("Mirroring events to Kafka", "brokers", strings.Join(cfg.KafkaBrokers, ","), "topic", cfg.KafkaTopic)
	}
	broker := realtime.NewBroker(mirror)

	engine := aggregate.NewEngine(st)
	sessions := session.NewManager(session.Deps{
		Store:          st,
		Identity:       auth.NewIdentityProvider(st, cfg.IdentitySalt),
		Broker:         broker,
		Engine:         engine,
		PollInterval:   cfg.PollInterval,
		PollMaxBackoff: cfg.PollMaxBackoff,
	}, st)

	// Create router
	mux := router.NewRouter(st, sessions, engine, cfg)

	// Create server
	server := http.Server{
		Handler:           middleware.CORS(mux),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Warn("Graceful shutdown failed", "error", err)
			server.Close()
		}
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed")
	}

	sessions.Close()
	if err := broker.Close(); err != nil {
		slog.Warn("Failed to close event mirror", "error", err)
	}
}

// setupLogger picks a text handler for terminals and JSON otherwise
func setupLogger(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
