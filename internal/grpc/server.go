// Package grpc exposes the standard gRPC health service for the storefront,
// reporting the reachability of its backing stores.
package grpc

import (
	"context"
	"net"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health service name clients may query in addition to
// the overall "" status.
const ServiceName = "storefront"

// Checker reports whether a dependency is usable.
type Checker func(ctx context.Context) error

type Server struct {
	grpc   *grpc.Server
	health *health.Server
	check  Checker
	log    *zap.Logger
}

func NewServer(check Checker, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		grpc:   grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler())),
		health: health.NewServer(),
		check:  check,
		log:    log,
	}
	grpc_health_v1.RegisterHealthServer(s.grpc, s.health)

	// Enable reflection for grpcurl/grpcui
	reflection.Register(s.grpc)

	s.setServing(true)
	return s
}

func (s *Server) Serve(lis net.Listener) error {
	s.log.Info("gRPC health server listening", zap.String("addr", lis.Addr().String()))
	return s.grpc.Serve(lis)
}

// Watch re-runs the checker every interval until ctx is done.
func (s *Server) Watch(ctx context.Context, interval time.Duration) {
	if s.check == nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		s.probe(ctx)
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

// GracefulStop reports NOT_SERVING and waits for in-flight calls.
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}

func (s *Server) probe(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	err := s.check(ctx)
	if err != nil && ctx.Err() == nil {
		s.log.Warn("health check failed", zap.Error(err))
	}
	s.setServing(err == nil)
}

func (s *Server) setServing(ok bool) {
	status := grpc_health_v1.HealthCheckResponse_SERVING
	if !ok {
		status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}
