// Command retouchd serves edit sessions over HTTP and socket.io.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/gogpu/retouch"
	"github.com/gogpu/retouch/internal/config"
	"github.com/gogpu/retouch/internal/server"
	"github.com/gogpu/retouch/store"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found")
	}

	configPath := flag.String("config", os.Getenv("RETOUCH_CONFIG"), "Path to a YAML config file.")
	listenAddress := flag.String("listen", "", "The address to listen on (overrides the config).")
	logLevel := flag.String("loglevel", "", "The log level (debug, info, warn, error).")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}
	if *listenAddress != "" {
		cfg.Server.Listen = *listenAddress
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}
	setupLogging(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)
	defer stop()

	recent, err := store.Open(ctx, cfg.Store)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to open store")
	}
	defer store.Close(recent)

	srv, err := server.New(cfg, recent)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create server")
	}
	defer srv.Close()

	httpServer := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logrus.WithField("addr", cfg.Server.Listen).Info("starting server")
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithField("event", "start server").Fatal(err)
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("Shutdown did not complete")
	}
}

func setupLogging(cfg config.LogConfig) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logrus.Fatalf("Invalid log level: %v", err)
	}
	logrus.SetLevel(level)
	if cfg.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
	retouch.SetLogger(slog.New(newLogrusHandler(logrus.StandardLogger())))
}
