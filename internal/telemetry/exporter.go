package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/alkime/lecturequiz/internal/pipeline"
)

const (
	serviceName    = "lecturequiz"
	serviceVersion = "0.1.0"
)

// ErrDisabled is returned when the exporter is not enabled in config.
var ErrDisabled = errors.New("otel exporter is disabled or endpoint not configured")

// Config holds OTLP exporter settings.
type Config struct {
	Enabled  bool
	Endpoint string
	Insecure bool
}

// Exporter sends processing metrics to an OTEL collector.
type Exporter struct {
	provider     *sdkmetric.MeterProvider
	ticks        metric.Int64Counter
	transitions  metric.Int64Counter
	outcomes     metric.Int64Counter
	durationHist metric.Float64Histogram
}

// NewExporter creates an OTLP/gRPC metrics exporter.
func NewExporter(ctx context.Context, cfg Config) (*Exporter, error) {
	if !cfg.Enabled || cfg.Endpoint == "" {
		return nil, ErrDisabled
	}

	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts,
			otlpmetricgrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
			otlpmetricgrpc.WithInsecure(),
		)
	}

	exp, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(provider)

	return newExporter(provider)
}

func newExporter(provider *sdkmetric.MeterProvider) (*Exporter, error) {
	meter := provider.Meter(serviceName)

	ticks, err := meter.Int64Counter(
		"lecturequiz_progress_ticks_total",
		metric.WithDescription("Progress steps applied per phase"),
		metric.WithUnit("{tick}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ticks counter: %w", err)
	}

	transitions, err := meter.Int64Counter(
		"lecturequiz_phase_transitions_total",
		metric.WithDescription("Phase transitions"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating transitions counter: %w", err)
	}

	outcomes, err := meter.Int64Counter(
		"lecturequiz_runs_total",
		metric.WithDescription("Finished processing runs by outcome"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating runs counter: %w", err)
	}

	durationHist, err := meter.Float64Histogram(
		"lecturequiz_run_duration_seconds",
		metric.WithDescription("Processing run duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}

	return &Exporter{
		provider:     provider,
		ticks:        ticks,
		transitions:  transitions,
		outcomes:     outcomes,
		durationHist: durationHist,
	}, nil
}

// RecordTick implements Recorder.
func (e *Exporter) RecordTick(ctx context.Context, status pipeline.Status) {
	e.ticks.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status.String())))
}

// RecordTransition implements Recorder.
func (e *Exporter) RecordTransition(ctx context.Context, from, to pipeline.Status) {
	e.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from.String()),
		attribute.String("to", to.String()),
	))
}

// RecordOutcome implements Recorder.
func (e *Exporter) RecordOutcome(ctx context.Context, outcome pipeline.Status, elapsed time.Duration) {
	opt := metric.WithAttributes(attribute.String("outcome", outcome.String()))
	e.outcomes.Add(ctx, 1, opt)
	e.durationHist.Record(ctx, elapsed.Seconds(), opt)
}

// Close shuts down the provider and flushes pending metrics.
func (e *Exporter) Close(ctx context.Context) error {
	return e.provider.Shutdown(ctx)
}

// NewRecorder returns an Exporter when cfg enables one, and a NoOpRecorder
// otherwise or when the exporter cannot be created.
func NewRecorder(ctx context.Context, cfg Config) Recorder {
	exp, err := NewExporter(ctx, cfg)
	if err != nil {
		if !errors.Is(err, ErrDisabled) {
			slog.Warn("Metrics exporter unavailable, continuing without metrics", "error", err)
		}
		return NewNoOpRecorder()
	}

	slog.Info("Metrics exporter configured", "endpoint", cfg.Endpoint)

	return exp
}
