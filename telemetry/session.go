// Package telemetry records a run of the CLI as a session: one root span
// with a child span per operation, error events, and an end state set when
// the session is closed.
package telemetry

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/hubtools/space-restart/build"
	"github.com/hubtools/space-restart/log"
	"github.com/hubtools/space-restart/types"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName         = "github.com/hubtools/space-restart"
	defaultServiceName = "restart-space"
	shutdownTimeout    = 5 * time.Second
)

type EndState string

const (
	Success       EndState = "Success"
	Fail          EndState = "Fail"
	Indeterminate EndState = "Indeterminate"
)

const (
	ExporterOTLP   = "otlp"
	ExporterStdout = "stdout"
	ExporterNone   = "none"
)

type Options struct {
	APIKey      string
	Endpoint    string
	Exporter    string
	SentryDSN   string
	ServiceName string

	// SpanProcessors are registered next to the exporter.
	SpanProcessors []sdktrace.SpanProcessor
}

type Session struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
	span     trace.Span
	sentry   bool
	logger   *logrus.Entry

	mu         sync.Mutex
	ended      bool
	state      EndState
	errorCount int
}

var _ types.Recorder = (*Session)(nil)

func newExporter(ctx context.Context, opts Options) (sdktrace.SpanExporter, error) {
	switch opts.Exporter {
	case ExporterNone:
		return nil, nil
	case ExporterStdout:
		return stdouttrace.New(stdouttrace.WithPrettyPrint(), stdouttrace.WithWriter(os.Stderr))
	case ExporterOTLP, "":
		if opts.Endpoint == "" {
			return nil, fmt.Errorf("otlp exporter requires an endpoint")
		}
		return otlptracehttp.New(ctx,
			otlptracehttp.WithEndpointURL(opts.Endpoint),
			otlptracehttp.WithHeaders(map[string]string{
				"Authorization": fmt.Sprintf("Bearer %s", opts.APIKey),
			}),
		)
	default:
		return nil, fmt.Errorf("unsupported trace exporter: %s", opts.Exporter)
	}
}

// Start opens a session. The returned context carries the session span so
// spans started from it nest under the session.
func Start(ctx context.Context, opts Options) (context.Context, *Session, error) {
	if opts.APIKey == "" {
		return ctx, nil, fmt.Errorf("telemetry api key is empty")
	}
	if opts.ServiceName == "" {
		opts.ServiceName = defaultServiceName
	}

	exporter, err := newExporter(ctx, opts)
	if err != nil {
		return ctx, nil, fmt.Errorf("create exporter: %w", err)
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", opts.ServiceName),
		attribute.String("build.info.version", build.Version),
		attribute.String("build.info.commit", build.ShortCommit()),
	)

	providerOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
	}
	if exporter != nil {
		providerOpts = append(providerOpts, sdktrace.WithBatcher(exporter))
	}
	for _, p := range opts.SpanProcessors {
		providerOpts = append(providerOpts, sdktrace.WithSpanProcessor(p))
	}

	tp := sdktrace.NewTracerProvider(providerOpts...)
	otel.SetTracerProvider(tp)

	s := &Session{
		provider: tp,
		tracer:   tp.Tracer(tracerName),
		logger:   log.NewLogger("telemetry"),
	}
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		s.logger.Debugf("Export traces: %s", err)
	}))

	ctx, s.span = s.tracer.Start(ctx, "session",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("session.service", opts.ServiceName)),
	)

	if opts.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:       opts.SentryDSN,
			Release:   build.Version,
			Transport: &sentry.HTTPSyncTransport{Timeout: 3 * time.Second},
		})
		if err != nil {
			s.logger.WithError(err).Warn("Sentry disabled")
		} else {
			s.sentry = true
		}
	}

	s.logger.Debugf("Session %s started (exporter=%s)", s.ID(), opts.Exporter)
	return ctx, s, nil
}

// ID is the trace id shared by every span of the session.
func (s *Session) ID() string {
	return s.span.SpanContext().TraceID().String()
}

func RecordError(span trace.Span, err error, description string) {
	span.RecordError(err)
	span.SetStatus(codes.Error, description)
}

func (s *Session) Record(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	if !trace.SpanFromContext(ctx).SpanContext().IsValid() {
		ctx = trace.ContextWithSpan(ctx, s.span)
	}
	ctx, span := s.tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	if err := fn(ctx); err != nil {
		RecordError(span, err, fmt.Sprintf("%s failed", name))
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

func (s *Session) LogError(ctx context.Context, message string) {
	s.mu.Lock()
	s.errorCount++
	s.mu.Unlock()

	attrs := trace.WithAttributes(attribute.String("error.message", message))
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() && !span.SpanContext().Equal(s.span.SpanContext()) {
		span.AddEvent("error", attrs)
	}
	s.span.AddEvent("error", attrs)

	if s.sentry {
		sentry.WithScope(func(scope *sentry.Scope) {
			scope.SetTag("session_id", s.ID())
			_ = sentry.CaptureMessage(message)
		})
	}
	s.logger.Debugf("Error logged: %s", message)
}

// End closes the session with state and flushes every pending span. Only
// the first call has an effect.
func (s *Session) End(ctx context.Context, state EndState) error {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return nil
	}
	s.ended = true
	s.state = state
	errorCount := s.errorCount
	s.mu.Unlock()

	s.span.SetAttributes(
		attribute.String("session.end_state", string(state)),
		attribute.Int("session.error_count", errorCount),
	)
	if state == Success {
		s.span.SetStatus(codes.Ok, "")
	} else {
		s.span.SetStatus(codes.Error, string(state))
	}
	s.span.End()

	if s.sentry {
		sentry.Flush(2 * time.Second)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := s.provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown tracer provider: %w", err)
	}
	s.logger.Debugf("Session %s ended: %s", s.ID(), state)
	return nil
}

func (s *Session) State() (EndState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.ended
}

// RecordValue is Record for operations that produce a value.
func RecordValue[T any](ctx context.Context, r types.Recorder, name string, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := r.Record(ctx, name, func(ctx context.Context) error {
		var err error
		out, err = fn(ctx)
		return err
	})
	return out, err
}
