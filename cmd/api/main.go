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
	"path/filepath"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	"tariff-backtest/internal/api/handlers"
	"tariff-backtest/internal/api/middleware"
	"tariff-backtest/internal/calculator"
	"tariff-backtest/internal/config"
	"tariff-backtest/internal/data"
	"tariff-backtest/internal/logging"
	"tariff-backtest/internal/metrics"
	"tariff-backtest/internal/simulation"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfgPath := flag.String("config", os.Getenv("CONFIG_FILE"), "Path to YAML config (optional)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.Init()

	layout, err := cfg.CSV.Layout()
	if err != nil {
		return err
	}

	var cache *data.PriceCache
	if cfg.Prices.EnableCache {
		cache = data.NewPriceCache(cfg.Prices.CacheTTL)
		cache.StartJanitor(ctx, cfg.Prices.CacheCleanup)
		logger.Info("price cache enabled", slog.Duration("ttl", cfg.Prices.CacheTTL))
	}
	priceClient := data.NewDayAheadClient(cfg.Prices.BaseURL, cfg.Prices.Timeout, cache, logger)

	sim := simulation.New(cfg.Simulation.Workers, logger.With("module", "simulation"))
	calc := calculator.New(layout, sim, logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(middleware.CORS(cfg.Server.CORSOrigins))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.ErrorHandler(logger))

	tariffHandler := handlers.NewTariffHandler(cfg.TariffsDir, logger)
	calculateHandler := handlers.NewCalculateHandler(calc, cfg.Simulation, tariffHandler.Dir(), logger)
	pricesHandler := handlers.NewPricesHandler(priceClient)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	{
		api.POST("/calculate", calculateHandler.Calculate)
		api.GET("/prices", pricesHandler.GetPrices)
		api.GET("/tariffs", tariffHandler.ListTariffs)
	}

	serveStatic(router, cfg.Server.StaticDir, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting API server", slog.String("addr", srv.Addr), slog.String("env", cfg.Server.Env))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// serveStatic serves the web UI build from dir, if present.
func serveStatic(router *gin.Engine, dir string, logger *slog.Logger) {
	if _, err := os.Stat(dir); err != nil {
		logger.Info("static directory not found, skipping static file serving", slog.String("dir", dir))
		return
	}

	router.Static("/assets", filepath.Join(dir, "assets"))
	router.StaticFile("/favicon.ico", filepath.Join(dir, "favicon.ico"))

	// Serve index.html for all non-API routes (SPA routing)
	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		c.File(filepath.Join(dir, "index.html"))
	})
	logger.Info("serving static files", slog.String("dir", dir))
}
