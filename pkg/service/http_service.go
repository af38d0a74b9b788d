package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/metric"

	"github.com/open-feature/flagtmpl/pkg/model"
	"github.com/open-feature/flagtmpl/pkg/provider"
)

type HTTPServiceConfiguration struct {
	Port int32
	// MeterProvider defaults to the global otel provider.
	MeterProvider metric.MeterProvider
}

type HTTPService struct {
	HTTPServiceConfiguration *HTTPServiceConfiguration
}

type Server struct {
	client  *provider.ValidatingClient
	metrics *metrics
}

type evaluationResponse struct {
	FlagKey string      `json:"flagKey"`
	Kind    string      `json:"kind"`
	Value   interface{} `json:"value"`
}

type errorResponse struct {
	ErrorCode string `json:"errorCode"`
	Message   string `json:"message"`
}

// NewServer builds the evaluation handler around client.
func NewServer(client *provider.ValidatingClient, meterProvider metric.MeterProvider) (*Server, error) {
	m, err := newMetrics(meterProvider)
	if err != nil {
		return nil, err
	}
	return &Server{client: client, metrics: m}, nil
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/flags", s.snapshot)
	r.Get("/flags/{kind}/{flagKey}", s.resolve)
	return r
}

// snapshot serves GET /flags for providers that keep the flag document locally.
func (s *Server) snapshot(w http.ResponseWriter, _ *http.Request) {
	snap, ok := s.client.Provider().(provider.Snapshotter)
	if !ok {
		handleError(w, http.StatusNotImplemented, model.GeneralErrorCode,
			errors.New("the configured provider does not expose its flags"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(snap.Snapshot()))
}

// resolve evaluates GET /flags/{kind}/{flagKey}?default=<json>
func (s *Server) resolve(w http.ResponseWriter, r *http.Request) {
	flagKey := chi.URLParam(r, "flagKey")
	kindName := chi.URLParam(r, "kind")

	kind, err := model.ParseKind(kindName)
	if err != nil {
		s.metrics.record(r.Context(), kindName, model.FlagKindNotFoundErrorCode)
		handleError(w, http.StatusNotFound, model.FlagKindNotFoundErrorCode, err)
		return
	}

	var defaultValue interface{}
	if raw := r.URL.Query().Get("default"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &defaultValue); err != nil {
			s.metrics.record(r.Context(), kind.String(), model.ParseErrorCode)
			handleError(w, http.StatusBadRequest, model.ParseErrorCode, fmt.Errorf("default is not valid JSON: %w", err))
			return
		}
	}

	value, err := s.client.Variation(kind, flagKey, defaultValue)
	if err != nil {
		code := model.ErrorCode(err)
		s.metrics.record(r.Context(), kind.String(), code)
		status := http.StatusInternalServerError
		switch code {
		case model.TypeMismatchErrorCode:
			status = http.StatusBadRequest
		case model.FlagNotFoundErrorCode:
			status = http.StatusNotFound
		}
		handleError(w, status, code, err)
		return
	}

	s.metrics.record(r.Context(), kind.String(), "success")
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(evaluationResponse{
		FlagKey: flagKey,
		Kind:    kind.String(),
		Value:   value,
	})
}

func (h *HTTPService) Serve(ctx context.Context, client *provider.ValidatingClient) error {
	if h.HTTPServiceConfiguration == nil {
		return errors.New("http service configuration has not been initialised")
	}
	server, err := NewServer(client, h.HTTPServiceConfiguration.MeterProvider)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", h.HTTPServiceConfiguration.Port),
		Handler:           server.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Infof("serving flag evaluations on %s", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// some basic mapping of errors from model to HTTP
func handleError(w http.ResponseWriter, status int, code string, err error) {
	log.WithField("errorCode", code).Error(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{
		ErrorCode: code,
		Message:   err.Error(),
	})
}
