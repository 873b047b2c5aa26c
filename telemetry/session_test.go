package telemetry

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/hubtools/space-restart/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func startTestSession(t *testing.T) (context.Context, *Session, *tracetest.SpanRecorder) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	ctx, s, err := Start(context.Background(), Options{
		APIKey:         "test-key",
		Exporter:       ExporterNone,
		SpanProcessors: []sdktrace.SpanProcessor{sr},
	})
	require.NoError(t, err)
	return ctx, s, sr
}

func spanByName(t *testing.T, spans []sdktrace.ReadOnlySpan, name string) sdktrace.ReadOnlySpan {
	t.Helper()
	for _, s := range spans {
		if s.Name() == name {
			return s
		}
	}
	t.Fatalf("span %q not recorded", name)
	return nil
}

func attrValue(attrs []attribute.KeyValue, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range attrs {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestStartRequiresAPIKey(t *testing.T) {
	_, _, err := Start(context.Background(), Options{Exporter: ExporterNone})
	assert.Error(t, err)
}

func TestStartRejectsUnknownExporter(t *testing.T) {
	_, _, err := Start(context.Background(), Options{APIKey: "k", Exporter: "carrier-pigeon"})
	assert.ErrorContains(t, err, "unsupported trace exporter")
}

func TestStartOTLPRequiresEndpoint(t *testing.T) {
	_, _, err := Start(context.Background(), Options{APIKey: "k", Exporter: ExporterOTLP})
	assert.ErrorContains(t, err, "endpoint")
}

func TestRecordNestsUnderSession(t *testing.T) {
	ctx, s, sr := startTestSession(t)

	err := s.Record(ctx, "main", func(ctx context.Context) error {
		return s.Record(ctx, "restart_space", func(ctx context.Context) error {
			return nil
		})
	})
	require.NoError(t, err)
	require.NoError(t, s.End(ctx, Success))

	spans := sr.Ended()
	require.Len(t, spans, 3)

	session := spanByName(t, spans, "session")
	main := spanByName(t, spans, "main")
	restart := spanByName(t, spans, "restart_space")

	assert.Equal(t, session.SpanContext().SpanID(), main.Parent().SpanID())
	assert.Equal(t, main.SpanContext().SpanID(), restart.Parent().SpanID())
	assert.Equal(t, s.ID(), restart.SpanContext().TraceID().String())
	assert.Equal(t, codes.Ok, restart.Status().Code)
}

func TestRecordWithoutSpanInContextUsesSession(t *testing.T) {
	_, s, sr := startTestSession(t)

	require.NoError(t, s.Record(context.Background(), "list_models", func(ctx context.Context) error { return nil }))
	require.NoError(t, s.End(context.Background(), Success))

	spans := sr.Ended()
	session := spanByName(t, spans, "session")
	list := spanByName(t, spans, "list_models")
	assert.Equal(t, session.SpanContext().SpanID(), list.Parent().SpanID())
}

func TestRecordError(t *testing.T) {
	ctx, s, sr := startTestSession(t)

	boom := errors.New("unauthorized")
	err := s.Record(ctx, "restart_space", func(ctx context.Context) error { return boom })
	assert.Same(t, boom, err)
	require.NoError(t, s.End(ctx, Fail))

	span := spanByName(t, sr.Ended(), "restart_space")
	assert.Equal(t, codes.Error, span.Status().Code)
	assert.Equal(t, "restart_space failed", span.Status().Description)
	require.Len(t, span.Events(), 1)
	assert.Equal(t, "exception", span.Events()[0].Name)
}

func TestRecordValue(t *testing.T) {
	ctx, s, sr := startTestSession(t)

	v, err := RecordValue(ctx, s, "create_hf_api", func(ctx context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	_, err = RecordValue(ctx, s, "fails", func(ctx context.Context) (string, error) {
		return "ignored", errors.New("nope")
	})
	assert.EqualError(t, err, "nope")

	require.NoError(t, s.End(ctx, Success))
	assert.Len(t, sr.Ended(), 3)
}

func TestLogErrorAndEnd(t *testing.T) {
	ctx, s, sr := startTestSession(t)

	_ = s.Record(ctx, "restart_space", func(ctx context.Context) error {
		s.LogError(ctx, "Error restarting space: unauthorized")
		return nil
	})
	require.NoError(t, s.End(ctx, Fail))

	restart := spanByName(t, sr.Ended(), "restart_space")
	require.Len(t, restart.Events(), 1)
	assert.Equal(t, "error", restart.Events()[0].Name)

	session := spanByName(t, sr.Ended(), "session")
	require.Len(t, session.Events(), 1)
	msg, ok := attrValue(session.Events()[0].Attributes, "error.message")
	require.True(t, ok)
	assert.Equal(t, "Error restarting space: unauthorized", msg.AsString())

	state, ok := attrValue(session.Attributes(), "session.end_state")
	require.True(t, ok)
	assert.Equal(t, "Fail", state.AsString())
	count, ok := attrValue(session.Attributes(), "session.error_count")
	require.True(t, ok)
	assert.Equal(t, int64(1), count.AsInt64())
	assert.Equal(t, codes.Error, session.Status().Code)
}

func TestEndIsIdempotent(t *testing.T) {
	ctx, s, sr := startTestSession(t)

	require.NoError(t, s.End(ctx, Success))
	require.NoError(t, s.End(ctx, Fail))

	state, ended := s.State()
	assert.True(t, ended)
	assert.Equal(t, Success, state)

	session := spanByName(t, sr.Ended(), "session")
	v, _ := attrValue(session.Attributes(), "session.end_state")
	assert.Equal(t, "Success", v.AsString())
	assert.Equal(t, codes.Ok, session.Status().Code)
}

func TestExportErrorsGoThroughLogger(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	require.NoError(t, log.SetLevel("debug"))
	t.Cleanup(func() {
		log.SetOutput(io.Discard)
		_ = log.SetLevel("info")
	})

	ctx, s, _ := startTestSession(t)
	otel.Handle(errors.New("traces export: connection refused"))
	require.NoError(t, s.End(ctx, Success))

	assert.Contains(t, buf.String(), "[DEBUG] telemetry")
	assert.Contains(t, buf.String(), "Export traces: traces export: connection refused")
}
