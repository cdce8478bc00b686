package middleware

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/broady/disco"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func newRecorder() (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	sr := tracetest.NewSpanRecorder()
	return sr, sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
}

func TestTracingInterceptor(t *testing.T) {
	sr, tp := newRecorder()
	interceptor := TracingInterceptor(tp)

	ctx := disco.NewCallContext(context.Background(), "drive", "files.list")
	req := &disco.Request{
		MethodID: "drive.files.list",
		Method:   "GET",
		URL:      "https://example.com/drive/v2/files",
		Header:   make(http.Header),
	}

	var sawSpan bool
	_, err := interceptor(ctx, req, func(ctx context.Context, r *disco.Request) (*disco.Response, error) {
		sawSpan = trace.SpanContextFromContext(ctx).IsValid()
		return &disco.Response{StatusCode: 200}, nil
	})
	require.NoError(t, err)
	assert.True(t, sawSpan, "span should be active while sending")
	assert.NotEmpty(t, req.Header.Get("Traceparent"))

	spans := sr.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "drive.files.list", span.Name())
	assert.Equal(t, trace.SpanKindClient, span.SpanKind())
	assert.Equal(t, codes.Ok, span.Status().Code)
	assert.Contains(t, span.Attributes(), attribute.Int("http.response.status_code", 200))
	assert.Contains(t, span.Attributes(), attribute.String("disco.method_id", "drive.files.list"))
}

func TestTracingInterceptor_Errors(t *testing.T) {
	sr, tp := newRecorder()
	interceptor := TracingInterceptor(tp)

	_, _ = interceptor(context.Background(), &disco.Request{MethodID: "a.b"}, okSend(503))
	_, _ = interceptor(context.Background(), &disco.Request{MethodID: "a.c"},
		func(context.Context, *disco.Request) (*disco.Response, error) {
			return nil, errors.New("timeout")
		})

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "status 503", spans[0].Status().Description)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	require.Len(t, spans[1].Events(), 1)
	assert.Equal(t, "exception", spans[1].Events()[0].Name)
}
