package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/sarahcave/coachos/internal/actionitems"
	"github.com/sarahcave/coachos/internal/api/handlers"
	"github.com/sarahcave/coachos/internal/api/middleware"
	"github.com/sarahcave/coachos/internal/automation"
	"github.com/sarahcave/coachos/internal/config"
	"github.com/sarahcave/coachos/internal/insights"
	"github.com/sarahcave/coachos/internal/observability"
	"github.com/sarahcave/coachos/internal/openai"
	"github.com/sarahcave/coachos/internal/webhook"
	"github.com/sarahcave/coachos/pkg/airtable"
)

// App holds all server dependencies and coordinates startup and shutdown.
type App struct {
	cfg            *config.Config
	server         *http.Server
	meterProvider  *sdkmetric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	metrics        *observability.Metrics
}

// setupMetrics creates the meter provider and instrument groups when metrics are enabled.
// When NewMeterProvider returns nil (unsupported or disabled exporter), returns all nils (metrics disabled).
func setupMetrics(cfg *config.Config) (*sdkmetric.MeterProvider, *promclient.Registry, *observability.Metrics, error) {
	mp, err := observability.NewMeterProvider(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create meter provider: %w", err)
	}

	if mp == nil {
		return nil, nil, nil, nil
	}

	metrics, err := observability.NewMetrics(mp.Provider.Meter("coachos"))
	if err != nil {
		if err2 := observability.ShutdownMeterProvider(context.Background(), mp.Provider); err2 != nil {
			slog.Error("shutdown meter provider after metrics error", "error", err2)
		}

		return nil, nil, nil, fmt.Errorf("create metrics: %w", err)
	}

	return mp.Provider, mp.Registry, metrics, nil
}

// NewApp builds and wires all components. It does not start the HTTP server;
// call Run to start and block until shutdown or failure.
func NewApp(cfg *config.Config) (*App, error) {
	var (
		err           error
		meterProvider *sdkmetric.MeterProvider
		promRegistry  *promclient.Registry
		metrics       *observability.Metrics
	)

	if cfg.OtelMetricsExporter == "" {
		slog.Warn("metrics not enabled (OTEL_METRICS_EXPORTER empty or unset)")
	} else {
		meterProvider, promRegistry, metrics, err = setupMetrics(cfg)
		if err != nil {
			return nil, err
		}
	}

	var (
		webhookMetrics observability.WebhookMetrics
		httpMetrics    observability.HTTPMetrics
	)
	if metrics != nil {
		webhookMetrics = metrics.Webhooks
		httpMetrics = metrics.HTTP
	}

	var tracerProvider *sdktrace.TracerProvider

	if cfg.OtelTracesExporter == "" {
		slog.Warn("tracing not enabled (OTEL_TRACES_EXPORTER empty or unset)")
	} else {
		tracerProvider, err = observability.NewTracerProvider(cfg)
		if err != nil {
			if meterProvider != nil {
				if err2 := observability.ShutdownMeterProvider(context.Background(), meterProvider); err2 != nil {
					slog.Error("shutdown meter provider after tracer provider error", "error", err2)
				}
			}

			return nil, fmt.Errorf("create tracer provider: %w", err)
		}
	}

	// Install TraceContextHandler unconditionally so request_id (and trace_id/span_id when tracing is on) appear in logs.
	defaultHandler := slog.Default().Handler()
	slog.SetDefault(slog.New(observability.NewTraceContextHandler(defaultHandler)))

	if tracerProvider != nil {
		otel.SetTracerProvider(tracerProvider)
	}

	if meterProvider != nil {
		otel.SetMeterProvider(meterProvider)
	}

	logger := slog.Default()

	// AI insights are optional; the automations fall back to their rule-based
	// paths when no completer is wired.
	var completer insights.Completer
	if cfg.OpenAIAPIKey != "" {
		completer = openai.NewClient(cfg.OpenAIAPIKey, openai.WithRateLimit(cfg.OpenAIRateLimit))
		slog.Info("AI insights enabled")
	} else {
		slog.Info("AI insights disabled (OPENAI_API_KEY not set)")
	}

	history := webhook.NewHistory(0)
	processor := webhook.NewProcessor(logger, history, webhookMetrics, cfg.EnabledAutomations)

	registry := automation.NewRegistry(
		automation.NewLeadScorer(completer, logger),
		automation.NewSessionProcessor(logger),
		automation.NewHealthMonitor(completer, logger),
		logger,
	)
	registry.RegisterAll(processor)

	if len(cfg.EnabledAutomations) > 0 {
		slog.Info("Automation allow-list active", "enabled", cfg.EnabledAutomations)
	}

	// The extractor needs record store access; without credentials the manual
	// meetings endpoint is not registered.
	var meetingsHandler *handlers.MeetingsHandler

	recordStoreConfigured := cfg.AirtableAPIKey != "" && cfg.AirtableBaseID != ""
	if recordStoreConfigured {
		store := airtable.NewClient(cfg.AirtableAPIKey, cfg.AirtableBaseID)

		extractor, err := actionitems.NewExtractor(store, logger, webhookMetrics)
		if err != nil {
			return nil, fmt.Errorf("create action item extractor: %w", err)
		}

		meetingsHandler = handlers.NewMeetingsHandler(extractor)
	} else {
		slog.Warn("record store not configured (AIRTABLE_API_KEY / AIRTABLE_BASE_ID unset); meeting action-item endpoint disabled")
	}

	if cfg.AirtableWebhookSecret == "" {
		slog.Warn("AIRTABLE_WEBHOOK_SECRET not set; webhook signatures are not verified")
	}

	webhookHandler := handlers.NewWebhookHandler(
		webhook.NewAuthenticator(cfg.AirtableWebhookSecret),
		processor,
		webhookMetrics,
	)
	statsHandler := handlers.NewStatsHandler(history)
	healthHandler := handlers.NewHealthHandler(recordStoreConfigured, cfg.OpenAIAPIKey != "")

	server := newHTTPServer(
		cfg, healthHandler, webhookHandler, meetingsHandler, statsHandler,
		promRegistry, httpMetrics, meterProvider, tracerProvider,
	)

	return &App{
		cfg:            cfg,
		server:         server,
		meterProvider:  meterProvider,
		tracerProvider: tracerProvider,
		metrics:        metrics,
	}, nil
}

// newHTTPServer builds the HTTP server and muxes. Webhook endpoints sit on the
// public mux because they authenticate via payload signature; /v1/ requires
// the API key. Handler chain: RequestID -> otelhttp(Logging(Metrics(MaxBody(mux))))
// so access logs get trace_id/span_id from context and metrics time the whole request.
func newHTTPServer(
	cfg *config.Config,
	health *handlers.HealthHandler,
	webhooks *handlers.WebhookHandler,
	meetings *handlers.MeetingsHandler,
	stats *handlers.StatsHandler,
	promRegistry *promclient.Registry,
	httpMetrics observability.HTTPMetrics,
	meterProvider *sdkmetric.MeterProvider,
	tracerProvider *sdktrace.TracerProvider,
) *http.Server {
	public := http.NewServeMux()
	public.HandleFunc("GET /health", health.Check)
	public.HandleFunc("POST /webhooks/airtable", webhooks.Handle)
	public.HandleFunc("POST /webhooks/airtable/{table}", webhooks.HandleTable)

	if promRegistry != nil {
		public.Handle("GET /metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))
	}

	protected := http.NewServeMux()
	protected.HandleFunc("GET /v1/stats", stats.Get)

	// Meetings is nil when no record store is configured (e.g. AIRTABLE_API_KEY unset);
	// the manual extraction endpoint is not registered then.
	if meetings != nil {
		protected.HandleFunc("POST /v1/meetings/action-items", meetings.ProcessActionItems)
	}

	protectedWithAuth := middleware.Auth(cfg.APIKey)(protected)
	mux := http.NewServeMux()
	mux.Handle("/v1/", protectedWithAuth)
	mux.Handle("/", public)

	otelOpts := []otelhttp.Option{
		// Skip tracing for health checks and metric scrapes to reduce noise.
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/health" && r.URL.Path != "/metrics"
		}),
	}
	if meterProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithMeterProvider(meterProvider))
	}

	if tracerProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithTracerProvider(tracerProvider))
	}

	var bodyLimitRecorder middleware.RequestBodyTooLargeRecorder
	if httpMetrics != nil {
		bodyLimitRecorder = httpMetrics
	}

	inner := middleware.MaxBody(cfg.MaxRequestBodyBytes, bodyLimitRecorder)(mux)
	inner = middleware.Metrics(httpMetrics)(inner)

	// Logging runs inside otelhttp so r.Context() has the span when we log (trace_id/span_id in access logs).
	inner = middleware.Logging(inner)
	handler := otelhttp.NewHandler(inner, "coachos-api", otelOpts...)
	handler = middleware.RequestID(handler)

	const (
		readTimeout  = 15 * time.Second
		writeTimeout = 15 * time.Second
		idleTimeout  = 60 * time.Second
	)

	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}
}

// Run starts the HTTP server and blocks until ctx is cancelled (e.g. signal)
// or the server fails. Caller should then call Shutdown.
func (a *App) Run(ctx context.Context) error {
	runErr := make(chan error, 1)

	go func() {
		slog.Info("Starting server", "port", a.cfg.Port)

		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case runErr <- fmt.Errorf("server: %w", err):
			default:
			}
		}
	}()

	select {
	case err := <-runErr:
		return err
	case <-ctx.Done():
		return nil
	}
}

// shutdownObservability shuts down tracer and meter providers. Logs secondary errors, returns the first.
func shutdownObservability(ctx context.Context, tracer *sdktrace.TracerProvider, meter *sdkmetric.MeterProvider) error {
	var first error

	if tracer != nil {
		if err := observability.ShutdownTracerProvider(ctx, tracer); err != nil {
			first = err
		}
	}

	if meter != nil {
		if err := observability.ShutdownMeterProvider(ctx, meter); err != nil {
			if first == nil {
				first = err
			} else {
				slog.Error("shutdown meter provider", "error", err)
			}
		}
	}

	return first
}

// Shutdown stops the server, then flushes observability. Call after Run returns.
func (a *App) Shutdown(ctx context.Context) (err error) {
	defer func() {
		obsErr := shutdownObservability(ctx, a.tracerProvider, a.meterProvider)
		if err == nil {
			err = obsErr
		} else if obsErr != nil {
			slog.Error("shutdown observability", "error", obsErr)
		}
	}()

	if err = a.server.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
