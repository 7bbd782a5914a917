package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/tomyedwab/libsqlhttp/libsql/host"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8080", "Address to listen on")
	dbPath := flag.String("db", "libsql.db", "Path to the SQLite database file")
	version := flag.String("version", host.DefaultVersion, "Version reported by GET /version")
	mintToken := flag.String("mint-token", "", "Print a token with the given access level (rw or ro) and exit")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// LIBSQL_JWT_SECRET enables token checks; without it every request has
	// full access.
	secret := []byte(os.Getenv("LIBSQL_JWT_SECRET"))

	if *mintToken != "" {
		if len(secret) == 0 {
			logger.Error("LIBSQL_JWT_SECRET must be set to mint tokens")
			os.Exit(1)
		}
		token, err := host.NewToken(secret, *mintToken)
		if err != nil {
			logger.Error("Failed to sign token", "error", err)
			os.Exit(1)
		}
		fmt.Println(token)
		return
	}

	db, err := sqlx.Connect("sqlite3", *dbPath)
	if err != nil {
		logger.Error("Failed to open database", "path", *dbPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	h := host.NewHost(db, host.Config{
		JWTSecret: secret,
		Version:   *version,
		Logger:    logger,
	})

	server := &http.Server{
		Addr:              *addr,
		Handler:           h.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error stopping server", "error", err)
		}
	}()

	logger.Info("Starting libSQL host", "address", *addr, "db", *dbPath, "auth", len(secret) > 0)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped")
}
