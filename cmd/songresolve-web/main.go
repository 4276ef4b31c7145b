package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"songresolve/internal/config"
	"songresolve/internal/engine"
	"songresolve/internal/logger"
	"songresolve/internal/shutdown"
	"songresolve/internal/web"
)

func main() {
	var (
		addr       string
		configPath string
		verbose    bool
	)

	flag.StringVar(&addr, "addr", "", "HTTP listen address (overrides listen_addr)")
	flag.StringVar(&configPath, "config", "", "Config file path")
	flag.BoolVar(&verbose, "verbose", false, "Show debug output")
	flag.Parse()

	cfg, err := config.LoadConfigFile(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if addr != "" {
		cfg.ListenAddr = addr
	}
	if verbose {
		cfg.Verbose = true
	}

	l := logger.New(cfg.Verbose)
	if cfg.LogFile != "" {
		if err := l.SetFileLog(cfg.LogFile, cfg.LogMaxSizeMB, cfg.LogMaxBackups); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Failed to setup file logging: %v\n", err)
		}
	}
	defer l.Close()

	sh := shutdown.New(context.Background())
	sh.Listen()

	e, err := engine.New(sh.Context(), cfg, l)
	if err != nil {
		l.Error("%v", err)
		os.Exit(1)
	}
	sh.AddCleanup(e.Close)

	if err := e.Start(sh.Context()); err != nil {
		l.Warn("%v", err)
	}

	queries := web.NewQueryManager(cfg.QueryRetention, e.Metrics)
	queries.StartCleanup(sh.Context())
	sh.AddCleanup(queries.CloseAll)

	server := web.NewServer(sh.Context(), e.Queries, queries, e.Metrics, l)

	// HTTP server
	httpServer := &http.Server{
		Addr:        cfg.ListenAddr,
		Handler:     server.Router(),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Stop accepting connections before the engine goes away
	sh.AddCleanup(func() {
		l.Info("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			l.Error("Server shutdown error: %v", err)
		}
	})

	l.Info("Starting web server on %s", cfg.ListenAddr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Error("Server error: %v", err)
		sh.Shutdown()
		os.Exit(1)
	}

	sh.Wait()
	l.Info("Server stopped")
}
