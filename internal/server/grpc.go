package server

import (
	"context"
	"fmt"
	"net"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName имя сервиса в протоколе health
const ServiceName = "filevault.FileService"

// Pinger проверяет доступность зависимостей, например базы данных
type Pinger interface {
	PingContext(ctx context.Context) error
}

// GRPCServer отдает стандартный сервис grpc.health.v1
type GRPCServer struct {
	server *grpc.Server
	health *health.Server
	pinger Pinger
	logger zerolog.Logger
}

func NewGRPCServer(pinger Pinger, logger zerolog.Logger) *GRPCServer {
	s := &GRPCServer{
		server: grpc.NewServer(),
		health: health.NewServer(),
		pinger: pinger,
		logger: logger.With().Str("component", "grpc").Logger(),
	}
	healthpb.RegisterHealthServer(s.server, s.health)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

// Check обновляет статус сервиса по результату проверки зависимостей
func (s *GRPCServer) Check(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING
	if s.pinger != nil {
		if err := s.pinger.PingContext(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("dependency check failed")
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.health.SetServingStatus(ServiceName, status)
	s.health.SetServingStatus("", status)
}

// Serve блокируется до остановки сервера
func (s *GRPCServer) Serve(lis net.Listener) error {
	s.logger.Info().Str("addr", lis.Addr().String()).Msg("starting gRPC server")
	if err := s.server.Serve(lis); err != nil {
		return fmt.Errorf("failed to serve gRPC: %w", err)
	}
	return nil
}

func (s *GRPCServer) GracefulStop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}
