// Package api exposes the HTTP interface for the insights service.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/brandloom/shopify-insights/internal/config"
	"github.com/brandloom/shopify-insights/internal/insights"
	"github.com/brandloom/shopify-insights/internal/metrics"
	"github.com/brandloom/shopify-insights/internal/pipeline"
)

// InsightsService runs the extraction pipeline for one store URL.
type InsightsService interface {
	GetInsights(ctx context.Context, storeURL string) (*insights.BrandContext, error)
}

// Server wires HTTP handlers to the pipeline and stores.
type Server struct {
	router    chi.Router
	service   InsightsService
	snapshots insights.SnapshotStore
	blobs     insights.BlobStore
	publisher insights.Publisher
	hasher    insights.Hasher
	idGen     insights.IDGenerator
	clock     insights.Clock
	cfg       config.Config
	logger    *zap.Logger
}

// NewServer constructs a Server with middleware and routes. The snapshot
// store, blob store, and publisher may be nil; persistence is then skipped.
func NewServer(
	service InsightsService,
	snapshots insights.SnapshotStore,
	blobs insights.BlobStore,
	publisher insights.Publisher,
	hasher insights.Hasher,
	idGen insights.IDGenerator,
	clock insights.Clock,
	cfg config.Config,
	logger *zap.Logger,
) *Server {
	s := &Server{
		service:   service,
		snapshots: snapshots,
		blobs:     blobs,
		publisher: publisher,
		hasher:    hasher,
		idGen:     idGen,
		clock:     clock,
		cfg:       cfg,
		logger:    logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	// Headroom past the pipeline budget so the handler's own deadline
	// fires first and maps to 504.
	r.Use(timeoutMiddleware(cfg.PipelineBudget() + 5*time.Second))
	if cfg.Auth.Enabled {
		r.Use(apiKeyMiddleware(cfg.Auth.APIKey))
	}

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/insights", s.getInsights)
		r.Get("/insights/latest", s.latestSnapshot)
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type insightsRequest struct {
	WebsiteURL string `json:"website_url"`
}

func (s *Server) getInsights(w http.ResponseWriter, r *http.Request) {
	var req insightsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.WebsiteURL == "" {
		writeError(w, http.StatusBadRequest, "website_url is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.PipelineBudget())
	defer cancel()

	metrics.IncActivePipelines()
	start := s.clock.Now()
	bc, err := s.service.GetInsights(ctx, req.WebsiteURL)
	metrics.DecActivePipelines()
	if err != nil {
		kind := insights.ErrorKind(err)
		metrics.ObservePipeline(string(kind), s.clock.Now().Sub(start))
		writeError(w, statusForKind(kind), err.Error())
		return
	}
	metrics.ObservePipeline("success", s.clock.Now().Sub(start))

	s.persistSnapshot(r.Context(), bc)
	writeJSON(w, http.StatusOK, bc)
}

func (s *Server) latestSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.snapshots == nil {
		writeError(w, http.StatusNotFound, "snapshot store is not configured")
		return
	}
	raw := r.URL.Query().Get("website_url")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "website_url is required")
		return
	}
	// Snapshots are keyed by the normalized root, so the lookup normalizes too.
	storeURL, err := pipeline.NormalizeStoreURL(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid website_url")
		return
	}
	snapshot, err := s.snapshots.LatestSnapshot(r.Context(), storeURL)
	if err != nil {
		writeError(w, http.StatusNotFound, "no snapshot for store")
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// persistSnapshot archives a finished record. Persistence is best-effort;
// failures are logged and never surface on the API response.
func (s *Server) persistSnapshot(ctx context.Context, bc *insights.BrandContext) {
	if s.snapshots == nil {
		return
	}
	id, err := s.idGen.NewID()
	if err != nil {
		s.logger.Warn("snapshot id generation failed", zap.Error(err))
		return
	}
	payload, err := json.Marshal(bc)
	if err != nil {
		s.logger.Warn("snapshot marshal failed", zap.Error(err))
		return
	}
	snapshot := insights.Snapshot{
		ID:         id,
		StoreURL:   bc.StoreURL,
		CapturedAt: bc.ExtractedAt,
	}
	if s.hasher != nil {
		if digest, err := s.hasher.Hash(payload); err == nil {
			snapshot.ContentHash = digest
		}
	}
	if s.blobs != nil {
		path := fmt.Sprintf("%s/%d.json", id, bc.ExtractedAt.Unix())
		uri, err := s.blobs.PutObject(ctx, path, s.cfg.Storage.ContentType, payload)
		if err != nil {
			s.logger.Warn("snapshot blob upload failed", zap.Error(err))
		} else {
			snapshot.BlobURI = uri
		}
	}
	snapshot.Context = bc
	if err := s.snapshots.SaveSnapshot(ctx, snapshot); err != nil {
		s.logger.Warn("snapshot save failed", zap.String("store", bc.StoreURL), zap.Error(err))
		return
	}
	if s.publisher != nil {
		event := map[string]any{
			"snapshot_id": snapshot.ID,
			"store_url":   snapshot.StoreURL,
			"captured_at": snapshot.CapturedAt,
		}
		if _, err := s.publisher.Publish(ctx, s.cfg.PubSub.TopicName, event); err != nil {
			s.logger.Warn("snapshot event publish failed", zap.Error(err))
		}
	}
}

func statusForKind(kind insights.PipelineErrorKind) int {
	switch kind {
	case insights.ErrKindStoreUnreachable:
		return http.StatusNotFound
	case insights.ErrKindNotShopify:
		return http.StatusBadRequest
	case insights.ErrKindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func loggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			duration := time.Since(start)
			metrics.ObserveHTTPRequest(r.Method, r.URL.Path, ww.status, duration)
			logger.Info("request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.status),
				zap.Int64("duration_ms", duration.Milliseconds()),
			)
		})
	}
}

func recoverMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered", zap.Any("error", rec))
					writeError(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

func apiKeyMiddleware(expected string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				key = r.URL.Query().Get("api_key")
			}
			if key != expected {
				writeError(w, http.StatusForbidden, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type requestIDKey struct{}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
