package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/broady/disco"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Interceptor(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg, "disco")
	interceptor := m.Interceptor()

	ctx := disco.NewCallContext(context.Background(), "drive", "files.list")
	for range 3 {
		_, err := interceptor(ctx, &disco.Request{}, okSend(200))
		require.NoError(t, err)
	}
	_, err := interceptor(ctx, &disco.Request{}, okSend(501))
	require.NoError(t, err)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("files.list", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("files.list", "501")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.inFlight.WithLabelValues("files.list")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.requestDuration))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "disco_client_requests_total")
	assert.Contains(t, names, "disco_client_request_duration_seconds")
}

func TestMetrics_TransportError(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry(), "disco")
	interceptor := m.Interceptor()

	_, err := interceptor(context.Background(), &disco.Request{MethodID: "drive.files.get"},
		func(context.Context, *disco.Request) (*disco.Response, error) {
			return nil, errors.New("dial tcp: refused")
		})
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("drive.files.get", "error")))
}

func TestMetrics_NilRegisterer(t *testing.T) {
	assert.NotPanics(t, func() {
		NewMetrics(nil, "a")
		NewMetrics(nil, "a")
	})
}
