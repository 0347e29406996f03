package grpc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func TestHealthServerReportsServing(t *testing.T) {
	srv := NewHealthServer()

	resp, err := srv.Health().Check(context.Background(), &healthpb.HealthCheckRequest{Service: RealtimeService})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)

	resp, err = srv.Health().Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}

func TestHealthServerStopMarksNotServing(t *testing.T) {
	srv := NewHealthServer()
	srv.Stop(context.Background())

	resp, err := srv.Health().Check(context.Background(), &healthpb.HealthCheckRequest{Service: RealtimeService})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status)
}

func TestHealthServerUnknownService(t *testing.T) {
	srv := NewHealthServer()

	_, err := srv.Health().Check(context.Background(), &healthpb.HealthCheckRequest{Service: "missing"})
	assert.Error(t, err)
}
