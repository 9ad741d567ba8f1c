package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/config"
	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/distribution"
)

/*
Server exposes published distributions over HTTP.

Endpoints:
  GET  /health
  GET  /distributions                        list summaries
  POST /distributions                        { name, records } -> summary
  GET  /distributions/{root}                 full distribution
  GET  /distributions/{root}/proof?index=N   proof for record N
  GET  /distributions/{root}/index?address=A index of the first record paying A
  POST /distributions/{root}/index           { record } -> { index }
  POST /verify                               { root, index, record, proof } -> { valid }

All endpoints share one token bucket limiter.
*/
type Server struct {
	service    *distribution.DistributionService
	logger     *zap.Logger
	limiter    *rate.Limiter
	httpServer *http.Server
}

// maxBodyBytes bounds request bodies; large distributions should be
// published through the CLI.
const maxBodyBytes = 32 << 20

// NewServer creates a new server instance
func NewServer(service *distribution.DistributionService, cfg *config.DistributorConfig, logger *zap.Logger) *Server {
	s := &Server{
		service: service,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("GET /distributions", s.handleListDistributions)
	mux.HandleFunc("POST /distributions", s.handlePublishDistribution)
	mux.HandleFunc("GET /distributions/{root}", s.handleGetDistribution)
	mux.HandleFunc("GET /distributions/{root}/proof", s.handleGetProof)
	mux.HandleFunc("GET /distributions/{root}/index", s.handleFindIndexByAddress)
	mux.HandleFunc("POST /distributions/{root}/index", s.handleFindIndex)

	mux.HandleFunc("POST /verify", s.handleVerify)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.rateLimit(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// rateLimit rejects requests with 429 once the shared bucket is empty.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			s.logger.Sugar().Debugw("Rate limit exceeded", "path", r.URL.Path, "remote", r.RemoteAddr)
			w.Header().Set("Retry-After", "1")
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	go func() {
		s.logger.Sugar().Infow("Starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			s.logger.Sugar().Errorw("HTTP server error", "addr", s.httpServer.Addr, "error", err)
		}
	}()
	return nil
}

// Stop drains in-flight requests until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// GetHandler returns the HTTP handler (for testing)
func (s *Server) GetHandler() http.Handler {
	return s.httpServer.Handler
}
