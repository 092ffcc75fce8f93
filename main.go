// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/danielhkuo/staff-directory/cliparse"
	"github.com/danielhkuo/staff-directory/db"
	"github.com/danielhkuo/staff-directory/handlers"
	"github.com/danielhkuo/staff-directory/router"
)

const shutdownTimeout = 10 * time.Second

// cfg is filled by the persistent flags and resolved before every command
var cfg cliparse.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "staff-directory",
	Short: "Staff directory server and maintenance commands",
	Long: `staff-directory serves a public staff directory with an admin area for
departments, staff and users. Without a subcommand it starts the server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := cliparse.Resolve(&cfg); err != nil {
			return err
		}
		setupLogging(cfg.LogLevel)
		return nil
	},
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func init() {
	cliparse.BindFlags(rootCmd.PersistentFlags(), &cfg)
	rootCmd.AddCommand(serveCmd)
}

func setupLogging(level string) {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn", "warning":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
}

// openDB connects and makes sure the schema exists
func openDB() (*sql.DB, error) {
	conn, err := db.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := db.CreateSchema(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// openEnv opens the database and builds the shared handler environment
func openEnv(ctx context.Context) (*handlers.Env, func(), error) {
	conn, err := openDB()
	if err != nil {
		return nil, nil, err
	}
	env, err := handlers.NewEnv(ctx, conn, cfg)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	return env, func() { conn.Close() }, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, closeDB, err := openEnv(context.Background())
	if err != nil {
		slog.Error("startup failed", "error", err)
		return err
	}
	defer closeDB()
	slog.Info("Database schema ready", "type", cfg.DatabaseType)

	server := http.Server{
		Handler:           router.NewRouter(env),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		// Wait for Ctrl-C signal
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("graceful shutdown failed", "error", err)
			server.Close()
		}
	}()

	slog.Info("Listening", "port", cfg.Port, "graph", cfg.GraphEnabled())
	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server closed", "error", err)
		return err
	}
	slog.Info("Server closed")
	return nil
}
