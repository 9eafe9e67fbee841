// Package handlers serves the ContributionService over gRPC and HTTP,
// bridging the transport layer and the business logic and mapping domain
// errors to gRPC statuses.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gartstein/contributions/internal/contributions/auth"
	"github.com/gartstein/contributions/internal/contributions/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ContributionController defines the business logic interface
// that the gRPC/HTTP handlers will invoke.
type ContributionController interface {
	CreateWorker(ctx context.Context, worker *models.Worker) (*models.Worker, error)
	UpdateWorker(ctx context.Context, update *models.WorkerUpdate) (*models.Worker, error)
	GetWorkerYear(ctx context.Context, workerID string, year int) (*models.Worker, error)
	ListWorkers(ctx context.Context, year *int) ([]models.Worker, error)
	DeleteWorker(ctx context.Context, workerID string, year int, policy models.DeletePolicy) error
	AddContingenciaComun(ctx context.Context, c *models.ContingenciaComun) (*models.ContingenciaComun, error)
	ListContingencias(ctx context.Context, workerID string, year int) ([]models.ContingenciaComun, error)
	UpsertConvenio(ctx context.Context, year int, hours decimal.Decimal) (*models.Convenio, error)
	GetConvenio(ctx context.Context, year int) (*models.Convenio, error)
	ListConvenios(ctx context.Context) ([]models.Convenio, error)
	DeleteConvenio(ctx context.Context, year int) error
	UpsertCargaSocial(ctx context.Context, tipo string, porcentaje decimal.Decimal) (*models.CargaSocial, error)
	GetCargaSocial(ctx context.Context, tipo string) (*models.CargaSocial, error)
	ListCargasSociales(ctx context.Context) ([]models.CargaSocial, error)
	DeleteCargaSocial(ctx context.Context, tipo string) error
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ProtectedMethods lists the gRPC methods that change state and therefore
// require an authenticated caller.
func ProtectedMethods() []string {
	return []string{
		FullMethod("CreateWorker"),
		FullMethod("UpdateWorker"),
		FullMethod("DeleteWorker"),
		FullMethod("AddContingenciaComun"),
		FullMethod("UpsertConvenio"),
		FullMethod("DeleteConvenio"),
		FullMethod("UpsertCargaSocial"),
		FullMethod("DeleteCargaSocial"),
	}
}

// Server holds references to both a gRPC server and an HTTP server.
type Server struct {
	grpcServer   *grpc.Server
	httpServer   *http.Server
	health       *health.Server
	logger       *zap.Logger
	grpcEndpoint string
	httpEndpoint string
}

// NewServer constructs a Server with separate endpoints for gRPC and HTTP.
// The standard gRPC health service is registered on the gRPC server.
func NewServer(
	grpcPort int,
	httpPort int,
	logger *zap.Logger,
	grpcOpts ...grpc.ServerOption,
) *Server {
	s := &Server{
		grpcServer:   grpc.NewServer(grpcOpts...),
		httpServer:   &http.Server{ReadHeaderTimeout: 10 * time.Second},
		health:       health.NewServer(),
		logger:       logger,
		grpcEndpoint: fmt.Sprintf(":%d", grpcPort),
		httpEndpoint: fmt.Sprintf(":%d", httpPort),
	}
	healthpb.RegisterHealthServer(s.grpcServer, s.health)
	return s
}

// RegisterGRPCHandler registers the ContributionService implementation.
func (s *Server) RegisterGRPCHandler(h ContributionServer) {
	s.grpcServer.RegisterService(&ContributionServiceDesc, h)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
}

// RegisterHTTPGateway serves h over HTTP/JSON behind the JWT middleware.
// GET /healthz reports the result of pinger.
func (s *Server) RegisterHTTPGateway(h *ContributionHandler, pinger Pinger, jwtSecret string) error {
	healthz := route{http.MethodGet, "/healthz", func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
		if err := pinger.Ping(r.Context()); err != nil {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}}

	mux, err := newGateway(h, s.logger, healthz)
	if err != nil {
		return err
	}

	s.httpServer.Handler = auth.HTTPMiddleware(mux, jwtSecret)
	s.httpServer.Addr = s.httpEndpoint
	return nil
}

// WatchHealth pings the dependency every interval and publishes the result
// through the gRPC health service until ctx is done.
func (s *Server) WatchHealth(ctx context.Context, pinger Pinger, interval time.Duration) {
	check := func() {
		pctx, cancel := context.WithTimeout(ctx, interval)
		defer cancel()
		st := healthpb.HealthCheckResponse_SERVING
		if err := pinger.Ping(pctx); err != nil {
			s.logger.Warn("Health check failed", zap.Error(err))
			st = healthpb.HealthCheckResponse_NOT_SERVING
		}
		s.health.SetServingStatus("", st)
		s.health.SetServingStatus(ServiceName, st)
	}

	check()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			check()
		}
	}
}

// Start runs the gRPC and HTTP servers concurrently, returning on the first error.
func (s *Server) Start() error {
	var wg sync.WaitGroup
	wg.Add(2)
	errChan := make(chan error, 2)

	go func() {
		defer wg.Done()
		s.logger.Info("Starting gRPC server", zap.String("endpoint", s.grpcEndpoint))
		lis, err := net.Listen("tcp", s.grpcEndpoint)
		if err != nil {
			errChan <- fmt.Errorf("gRPC listen error: %w", err)
			return
		}
		if err := s.grpcServer.Serve(lis); err != nil {
			errChan <- fmt.Errorf("gRPC serve error: %w", err)
		}
	}()

	go func() {
		defer wg.Done()
		s.logger.Info("Starting HTTP server", zap.String("endpoint", s.httpEndpoint))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP serve error: %w", err)
		}
	}()

	go func() {
		wg.Wait()
		close(errChan)
	}()

	for err := range errChan {
		if err != nil {
			return err
		}
	}
	return nil
}

// Stop gracefully shuts down both gRPC and HTTP servers.
func (s *Server) Stop() {
	s.logger.Info("Shutting down servers...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.health.Shutdown()
	s.grpcServer.GracefulStop()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	s.logger.Info("Servers stopped")
}
