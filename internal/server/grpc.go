// Package server exposes the gRPC health endpoint of the background process.
package server

import (
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"accessibility-insights/background/internal/logging"
)

// ServiceName is the health service name reported for the background process.
const ServiceName = "a11y.background"

// Server is a gRPC server carrying only the standard health service.
// It reports NOT_SERVING until SetServing is called.
type Server struct {
	GRPC   *grpc.Server
	health *health.Server
	logger *zap.Logger
}

// NewGRPCServer returns a server instrumented with otelgrpc. Traces and metrics go to the global providers.
func NewGRPCServer(logger *zap.Logger) *Server {
	logger = logging.OrNop(logger)
	s := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	reflection.Register(s)
	srv := &Server{GRPC: s, health: hs, logger: logger}
	srv.SetNotServing()
	return srv
}

// SetServing marks the process and ServiceName as SERVING.
func (s *Server) SetServing() {
	s.set(healthpb.HealthCheckResponse_SERVING)
}

// SetNotServing marks the process and ServiceName as NOT_SERVING.
func (s *Server) SetNotServing() {
	s.set(healthpb.HealthCheckResponse_NOT_SERVING)
}

func (s *Server) set(status healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
	s.logger.Info("health: status changed", zap.String("status", status.String()))
}

// Shutdown marks every service NOT_SERVING and stops the server gracefully.
func (s *Server) Shutdown() {
	s.health.Shutdown()
	s.GRPC.GracefulStop()
}
