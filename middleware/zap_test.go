package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/broady/disco"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapReporter(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	report := ZapReporter(zap.New(core))

	report(&disco.Failure{
		Method:     "files.get",
		StatusCode: 501,
		Code:       disco.CodeNotImplemented,
		Message:    "not implemented",
	})

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "request failed", entry.Message)
	assert.Equal(t, zapcore.ErrorLevel, entry.Level)

	fields := entry.ContextMap()
	assert.Equal(t, "files.get", fields["method"])
	assert.Equal(t, int64(501), fields["status"])
	assert.Equal(t, "not_implemented", fields["code"])
}

func TestZapReporter_NilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		ZapReporter(nil)(&disco.Failure{Method: "x"})
	})
}

func TestZapLoggingInterceptor(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	interceptor := ZapLoggingInterceptor(zap.New(core))
	ctx := disco.NewCallContext(context.Background(), "drive", "files.list")

	_, err := interceptor(ctx, &disco.Request{Method: "GET"}, okSend(200))
	require.NoError(t, err)

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "request started", logs.All()[0].Message)
	assert.Equal(t, "request completed", logs.All()[1].Message)
	assert.Equal(t, "drive.files.list", logs.All()[1].ContextMap()["endpoint"])
}

func TestZapLoggingInterceptor_Error(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	interceptor := ZapLoggingInterceptor(zap.New(core))

	boom := errors.New("boom")
	_, err := interceptor(context.Background(), &disco.Request{MethodID: "drive.files.get"},
		func(context.Context, *disco.Request) (*disco.Response, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)

	failed := logs.FilterMessage("request failed")
	require.Equal(t, 1, failed.Len())
	assert.Equal(t, "drive.files.get", failed.All()[0].ContextMap()["endpoint"])
}
