package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/hashicorp/go-hclog"
	"github.com/robotomize/ratechain/label"
	"github.com/robotomize/ratechain/rate"
)

const (
	PathPrefix      = "/api/v1"
	CheckResponse   = "All good."
	shutdownTimeout = 5 * time.Second
)

//go:generate mockgen -source api.go -destination mock_resolver.go -package api
type Resolver interface {
	Resolve(ctx context.Context, base, target string) (rate.ExchangeRate, error)
}

type ErrorResponse struct {
	Err string `json:"error"`
}

// NewHandler builds the router: health check, rate lookup and, when metrics is not nil, the
// prometheus exposition endpoint
func NewHandler(resolver Resolver, metrics http.Handler, logger hclog.Logger) http.Handler {
	router := mux.NewRouter().StrictSlash(true)

	v1 := router.PathPrefix(PathPrefix).Subrouter()
	v1.HandleFunc("/check", endpointWrapper("check", checkHandler, logger)).Methods(http.MethodGet)
	v1.HandleFunc("/rates/{base}/{target}",
		endpointWrapper("rates", ratesHandler(resolver, logger), logger)).Methods(http.MethodGet)

	if metrics != nil {
		router.Handle("/metrics", metrics).Methods(http.MethodGet)
	}

	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(logger.StandardLogger(&hclog.StandardLoggerOptions{ForceLevel: hclog.Error})),
	)

	return recovery(router)
}

func checkHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(CheckResponse))
}

func ratesHandler(resolver Resolver, logger hclog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)

		e, err := resolver.Resolve(r.Context(), vars["base"], vars["target"])
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, label.ErrInvalidSymbol) {
				status = http.StatusBadRequest
			}

			writeErrorResponse(w, r, status, err, logger)

			return
		}

		status := http.StatusOK
		if !e.OK() {
			status = http.StatusBadGateway
		}

		writeResponse(w, r, status, e, logger)
	}
}

func endpointWrapper(name string, handler http.HandlerFunc, logger hclog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("endpoint called", "endpoint", name, "url", r.URL)
		handler(w, r)
		logger.Debug("endpoint call finished", "endpoint", name, "url", r.URL)
	}
}

func writeResponse(w http.ResponseWriter, r *http.Request, status int, response any, logger hclog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error("write response error", "url", r.URL, "status", status, "err", err)
	}
}

func writeErrorResponse(w http.ResponseWriter, r *http.Request, status int, err error, logger hclog.Logger) {
	logger.Info("error happened", "url", r.URL, "status", status, "err", err)

	writeResponse(w, r, status, ErrorResponse{Err: err.Error()}, logger)
}

// Server runs the handler until the context is cancelled
type Server struct {
	server *http.Server
	logger hclog.Logger
}

func NewServer(addr string, handler http.Handler, logger hclog.Logger) *Server {
	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 3 * time.Second,
		},
		logger: logger,
	}
}

// Serve blocks until ctx is done and the server has been shut down
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("starting api", "addr", s.server.Addr)

		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen and serve: %w", err)
		}

		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		s.logger.Debug("api not closed after a timeout, closing", "err", err)

		if err := s.server.Close(); err != nil {
			return fmt.Errorf("close api server: %w", err)
		}
	}

	s.logger.Debug("stopped api")

	return nil
}
