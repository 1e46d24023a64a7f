package httpapi

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"filmdb.org/internal/obs"
)

// Checker reports whether the backing store is reachable.
type Checker interface {
	Check(ctx context.Context) error
}

// HealthServer is the standard gRPC health service driven by a readiness
// check. Both the overall status ("") and serviceName are maintained.
type HealthServer struct {
	srv   *health.Server
	check Checker
}

// NewHealthServer starts in NOT_SERVING until the first Refresh.
func NewHealthServer(check Checker) *HealthServer {
	srv := health.NewServer()
	srv.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	srv.SetServingStatus(serviceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return &HealthServer{srv: srv, check: check}
}

// Register attaches the health service to s.
func (h *HealthServer) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.srv)
}

// Refresh runs the readiness check once and publishes the result.
func (h *HealthServer) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if err := h.check.Check(ctx); err != nil {
		obs.Logger().Warn().Err(err).Msg("readiness check failed")
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.srv.SetServingStatus("", status)
	h.srv.SetServingStatus(serviceName, status)
	return status
}

// Run refreshes every interval until ctx is done, then marks the service
// as shutting down.
func (h *HealthServer) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	h.Refresh(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			h.srv.Shutdown()
			return
		case <-ticker.C:
			h.Refresh(ctx)
		}
	}
}
