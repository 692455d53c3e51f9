// Package rpc exposes decoder readiness over the standard gRPC health
// checking protocol so supervisors can probe a long running decoder.
package rpc

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/banshee-data/irdecode/internal/monitoring"
)

// ServiceName is the health service name reported for the decode loop.
const ServiceName = "irdecode"

// HealthServer serves grpc.health.v1.Health. The overall server ("") and
// ServiceName start NOT_SERVING until SetServing(true).
type HealthServer struct {
	addr   string
	log    *monitoring.Logger
	health *health.Server

	server   *grpc.Server
	listener net.Listener
	running  atomic.Bool
	wg       sync.WaitGroup
}

// NewHealthServer returns a server that will listen on addr. logger may be
// nil.
func NewHealthServer(addr string, logger *monitoring.Logger) *HealthServer {
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return &HealthServer{addr: addr, log: logger, health: hs}
}

// Start binds the listener and serves in the background.
func (h *HealthServer) Start() error {
	if h.running.Load() {
		return fmt.Errorf("health server already running")
	}
	lis, err := net.Listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	h.listener = lis
	h.server = grpc.NewServer()
	healthpb.RegisterHealthServer(h.server, h.health)
	h.running.Store(true)

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.log.Infof("gRPC health server listening on %s", lis.Addr())
		if err := h.server.Serve(lis); err != nil && h.running.Load() {
			h.log.Errorf("gRPC server error: %v", err)
		}
	}()
	return nil
}

// Addr returns the bound address, or nil before Start.
func (h *HealthServer) Addr() net.Addr {
	if h.listener == nil {
		return nil
	}
	return h.listener.Addr()
}

// SetServing reports whether the decoder is reading input.
func (h *HealthServer) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus("", status)
	h.health.SetServingStatus(ServiceName, status)
}

// Stop marks every service NOT_SERVING and stops the server gracefully.
func (h *HealthServer) Stop() {
	if !h.running.Swap(false) {
		return
	}
	h.health.Shutdown()
	h.server.GracefulStop()
	h.wg.Wait()
	h.log.Infof("gRPC health server stopped")
}
