package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmktpan/golfcar-maintenance-sub001/internal/api"
	"github.com/dmktpan/golfcar-maintenance-sub001/internal/db"
	"github.com/dmktpan/golfcar-maintenance-sub001/internal/events"
	"github.com/dmktpan/golfcar-maintenance-sub001/internal/store"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().StringP("addr", "a", envOr("GOLFCAR_ADDR", ":8080"), "listen address [GOLFCAR_ADDR]")
	cmd.Flags().String("kafka-brokers", os.Getenv("GOLFCAR_KAFKA_BROKERS"), "comma-separated Kafka brokers for stock events; empty disables publishing [GOLFCAR_KAFKA_BROKERS]")
	cmd.Flags().String("kafka-topic", envOr("GOLFCAR_KAFKA_TOPIC", "stock-events"), "Kafka topic for stock events [GOLFCAR_KAFKA_TOPIC]")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	closeLog, err := loggerFromFlags(cmd)
	if err != nil {
		return err
	}
	defer closeLog()

	dbPath, _ := cmd.Flags().GetString("db")
	addr, _ := cmd.Flags().GetString("addr")
	brokers, _ := cmd.Flags().GetString("kafka-brokers")
	topic, _ := cmd.Flags().GetString("kafka-topic")

	// Create the database on first run.
	if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
		database, password, err := initDatabase(dbPath, "admin")
		if err != nil {
			return fmt.Errorf("initializing database: %w", err)
		}
		database.Close()
		printInitResult(cmd, dbPath, "admin", password)
		cmd.Println()
	}

	database, err := db.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	slog.Info("database ready", "path", dbPath)

	jwtSecret, err := store.GetJWTSecret(cmd.Context(), database)
	if err != nil {
		return fmt.Errorf("loading JWT secret: %w", err)
	}

	var pub events.Publisher = events.Nop{}
	if list := splitList(brokers); len(list) > 0 {
		pub = events.NewKafkaPublisher(list, topic)
		slog.Info("publishing stock events", "brokers", list, "topic", topic)
	}
	defer pub.Close()

	server := &http.Server{
		Addr:              addr,
		Handler:           api.LoggingMiddleware(api.NewRouter(database, jwtSecret, pub)),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("server stopped, closing database")
	return nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			closeLog, err := loggerFromFlags(cmd)
			if err != nil {
				return err
			}
			defer closeLog()

			dbPath, _ := cmd.Flags().GetString("db")
			database, err := db.Open(dbPath)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer database.Close()

			if err := db.Migrate(database); err != nil {
				return fmt.Errorf("migrating database: %w", err)
			}
			return nil
		},
	}
}
