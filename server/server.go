package server

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

	"github.com/aleph-zero/guardstack/api"
	"github.com/aleph-zero/guardstack/engine"
	"github.com/aleph-zero/guardstack/report"
	"github.com/aleph-zero/guardstack/service/identity"
	"github.com/aleph-zero/guardstack/service/registry"
	"github.com/aleph-zero/guardstack/service/script"
	"github.com/aleph-zero/guardstack/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/riandyrn/otelchi"
)

const (
	serviceName    = "guardstack"
	serviceVersion = "0.0.1"
)

var collectorURL = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")

/* *** Server Config *** */

type Config struct {
	Address      string
	Port         uint16
	MemoryLimit  int
	ReportFile   string
	StackOptions []engine.Option
}

type Option func(*Config)

func NewConfig(options ...Option) *Config {
	cfg := &Config{}
	for _, option := range options {
		option(cfg)
	}
	return cfg
}

func WithAddress(address string) Option {
	return func(c *Config) {
		c.Address = address
	}
}

func WithPort(port uint16) Option {
	return func(c *Config) {
		c.Port = port
	}
}

// WithMemoryLimit caps the bytes each stack may hold, guards included.
func WithMemoryLimit(limit int) Option {
	return func(c *Config) {
		c.MemoryLimit = limit
	}
}

func WithReportFile(path string) Option {
	return func(c *Config) {
		c.ReportFile = path
	}
}

func WithStackOptions(options ...engine.Option) Option {
	return func(c *Config) {
		c.StackOptions = append(c.StackOptions, options...)
	}
}

// NewRouter wires the API handlers over reg.
func NewRouter(id identity.Service, reg registry.Service) chi.Router {
	router := chi.NewRouter()
	{
		handler := api.NewIdentityHandler(id)
		router.Get("/identity", handler.GetIdentity)
	}
	{
		handler := api.NewStackHandler(reg)
		router.Route("/stacks", handler.Routes)
	}
	{
		handler := api.NewScriptHandler(script.NewService(reg))
		router.Get("/script", handler.Execute)
	}
	return router
}

func Bootstrap(config *Config) {
	ctx := context.Background()

	logger := httplog.NewLogger(serviceName, httplog.Options{
		LogLevel:         slog.LevelInfo,
		MessageFieldName: "msg",
		JSON:             true,
		Concise:          true,
		RequestHeaders:   false,
		ResponseHeaders:  false,
	})

	logger.InfoContext(ctx, "Bootstrapping server...", "address", config.Address, "port", config.Port,
		"memoryLimit", config.MemoryLimit, "reportFile", config.ReportFile)

	/* *** Initialize Opentelemetry *** */
	stopTelemetry, err := telemetry.New(serviceName, serviceVersion, collectorURL)
	if err != nil {
		logger.ErrorContext(ctx, "Error initializing telemetry", "err", err)
	}
	defer stopTelemetry()

	/* *** Initialize diagnosis reporting *** */
	sink, closer, err := report.NewSink(logger.Logger, config.ReportFile)
	if err != nil {
		logger.ErrorContext(ctx, "Error opening diagnosis reporters", "err", err)
		os.Exit(1)
	}
	defer closer.Close()

	reg := registry.NewService(
		registry.WithMemoryLimit(config.MemoryLimit),
		registry.WithStackOptions(config.StackOptions...),
		registry.WithStackOptions(engine.WithReporter(sink), engine.WithLogger(logger.Logger)))

	srv := http.Server{
		Addr: fmt.Sprintf("%s:%d", config.Address, config.Port),
	}

	/* *** Initialize Router *** */
	router := chi.NewRouter()
	router.Use(middleware.Heartbeat("/heartbeat"))
	router.Use(otelchi.Middleware(serviceName, otelchi.WithChiRoutes(router)))
	router.Use(middleware.RequestID)
	router.Use(render.SetContentType(render.ContentTypeJSON))
	router.Use(httplog.RequestLogger(logger))
	id := identity.NewService(serviceVersion, config.Address, config.Port, config.MemoryLimit, config.StackOptions...)
	router.Mount("/", NewRouter(id, reg))

	srv.Handler = router
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorContext(ctx, "Error starting server", "err", err)
		}
		logger.InfoContext(ctx, "Server stopped accepting connections")
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	<-sig

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorContext(ctx, "Error shutting down server", "err", err)
		os.Exit(1)
	}
	logger.InfoContext(ctx, "Server shutdown complete")
}
