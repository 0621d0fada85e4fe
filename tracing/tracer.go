package tracing

import (
	"context"
	"crypto/tls"
	"fmt"
	"sync"

	"github.com/go-logr/zerologr"
	"github.com/nftmeta/nftmeta/common"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc/credentials"
)

const instrumentationName = "github.com/nftmeta/nftmeta"

var (
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
	initOnce       sync.Once
	isEnabled      bool
)

func Initialize(ctx context.Context, logger *zerolog.Logger, cfg *common.TracingConfig) error {
	var err error

	initOnce.Do(func() {
		if cfg == nil || !cfg.Enabled {
			logger.Info().Msg("OpenTelemetry tracing is disabled")
			return
		}

		logger.Info().Str("endpoint", cfg.Endpoint).Str("protocol", string(cfg.Protocol)).Msg("initializing OpenTelemetry tracing")

		var exporter sdktrace.SpanExporter
		switch cfg.Protocol {
		case common.TracingProtocolGrpc:
			exporter, err = createGRPCExporter(ctx, cfg)
		case common.TracingProtocolHttp:
			exporter, err = createHTTPExporter(ctx, cfg)
		default:
			err = fmt.Errorf("unsupported tracing protocol: %s", cfg.Protocol)
		}
		if err != nil {
			logger.Error().Err(err).Msg("failed to create span exporter")
			return
		}

		var res *resource.Resource
		res, err = resource.New(ctx,
			resource.WithAttributes(
				semconv.ServiceNameKey.String("nftmeta"),
				semconv.ServiceVersionKey.String(common.NftmetaVersion),
				attribute.String("commit.sha", common.NftmetaCommitSha),
			),
		)
		if err != nil {
			logger.Error().Err(err).Msg("failed to create resource")
			return
		}

		tracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithSampler(createSampler(cfg)),
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(tracerProvider)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))

		if logger.GetLevel() <= zerolog.DebugLevel {
			otel.SetLogger(zerologr.New(logger))
		}

		tracer = otel.Tracer(instrumentationName)
		isEnabled = true
	})

	return err
}

func Shutdown(ctx context.Context) error {
	if tracerProvider == nil {
		return nil
	}
	return tracerProvider.Shutdown(ctx)
}

func IsEnabled() bool {
	return isEnabled
}

// StartSpan is a no-op returning the parent span when tracing is disabled.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if !isEnabled {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, opts...)
}

func SetError(span trace.Span, err error) {
	if err == nil || !span.IsRecording() {
		return
	}
	if stdErr, ok := err.(common.StandardError); ok {
		span.SetAttributes(attribute.String("error.chain", stdErr.CodeChain()))
		span.RecordError(err)
		span.SetStatus(codes.Error, string(stdErr.Base().Code))
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, common.ErrorMessage(err))
}

func createGRPCExporter(ctx context.Context, cfg *common.TracingConfig) (*otlptrace.Exporter, error) {
	secureOption := otlptracegrpc.WithTLSCredentials(credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12}))
	if cfg.Insecure {
		secureOption = otlptracegrpc.WithInsecure()
	}
	return otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
		secureOption,
	)
}

func createHTTPExporter(ctx context.Context, cfg *common.TracingConfig) (*otlptrace.Exporter, error) {
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	return otlptracehttp.New(ctx, opts...)
}

func createSampler(cfg *common.TracingConfig) sdktrace.Sampler {
	if cfg.SampleRate <= 0 {
		return sdktrace.NeverSample()
	}
	if cfg.SampleRate >= 1.0 {
		return sdktrace.AlwaysSample()
	}
	return sdktrace.TraceIDRatioBased(cfg.SampleRate)
}
