package rpc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

func check(t *testing.T, client healthpb.HealthClient, service string) (healthpb.HealthCheckResponse_ServingStatus, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return resp.GetStatus(), nil
}

func TestHealthServer(t *testing.T) {
	hs := NewHealthServer("127.0.0.1:0", nil)
	assert.Nil(t, hs.Addr())
	require.NoError(t, hs.Start())
	defer hs.Stop()
	assert.Error(t, hs.Start(), "second Start should fail")

	conn, err := grpc.NewClient(hs.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()
	client := healthpb.NewHealthClient(conn)

	st, err := check(t, client, ServiceName)
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, st)

	hs.SetServing(true)
	st, err = check(t, client, ServiceName)
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, st)
	st, err = check(t, client, "")
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, st)

	hs.SetServing(false)
	st, err = check(t, client, ServiceName)
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, st)

	_, err = check(t, client, "other")
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestHealthServer_StopIsIdempotent(t *testing.T) {
	hs := NewHealthServer("127.0.0.1:0", nil)
	hs.Stop()
	require.NoError(t, hs.Start())
	hs.Stop()
	hs.Stop()
}

func TestHealthServer_BadAddress(t *testing.T) {
	hs := NewHealthServer("256.256.256.256:1", nil)
	assert.Error(t, hs.Start())
}
