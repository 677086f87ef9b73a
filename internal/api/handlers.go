// Bookshelf - Collaborative Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/bookshelf/internal/logging"
	"github.com/tomtom215/bookshelf/internal/neighbors"
	"github.com/tomtom215/bookshelf/internal/recommend"
)

// Version is reported by the health endpoint. Set at build time with
// -ldflags "-X github.com/tomtom215/bookshelf/internal/api.Version=...".
var Version = "dev"

// Recommender is the subset of recommend.Service the handlers use.
type Recommender interface {
	GetRecommendations(ctx context.Context, title string) (*recommend.Recommendation, error)
	Train(ctx context.Context) (*neighbors.Metadata, error)
	ModelInfo(ctx context.Context) (*neighbors.Metadata, error)
	Stats(ctx context.Context) (*recommend.DatasetStats, error)
}

// Handler serves the JSON endpoints.
type Handler struct {
	svc          Recommender
	trainTimeout time.Duration
	startTime    time.Time
}

// NewHandler creates a Handler. trainTimeout bounds POST /model/train;
// zero leaves the request context as is.
func NewHandler(svc Recommender, trainTimeout time.Duration) *Handler {
	return &Handler{svc: svc, trainTimeout: trainTimeout, startTime: time.Now()}
}

// recommendationsRequest is the validated query of GET /recommendations.
type recommendationsRequest struct {
	Title string `validate:"required,notblank,max=512"`
}

// Recommendations handles GET /api/v1/recommendations?title=...
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req := recommendationsRequest{Title: r.URL.Query().Get("title")}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondJSON(w, http.StatusBadRequest, &APIResponse{
			Status:   "error",
			Metadata: Metadata{Timestamp: time.Now().UTC()},
			Error:    apiErr,
		})
		return
	}

	rec, err := h.svc.GetRecommendations(r.Context(), req.Title)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, rec, start)
}

// TrainModel handles POST /api/v1/model/train. The run is synchronous.
func (h *Handler) TrainModel(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	// Training must not be cut short by the server write timeout's
	// request context alone; it gets its own budget.
	ctx := context.WithoutCancel(r.Context())
	if h.trainTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.trainTimeout)
		defer cancel()
	}

	meta, err := h.svc.Train(ctx)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	logging.Ctx(r.Context()).Info().
		Int("rows", meta.Rows).
		Int("dims", meta.Dims).
		Msg("Model trained via API")
	respondSuccess(w, meta, start)
}

// ModelInfo handles GET /api/v1/model.
func (h *Handler) ModelInfo(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	meta, err := h.svc.ModelInfo(r.Context())
	if errors.Is(err, neighbors.ErrModelNotFound) {
		respondError(w, r, http.StatusNotFound, "MODEL_NOT_FOUND", "No model has been trained yet", nil)
		return
	}
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, meta, start)
}

// DatasetStats handles GET /api/v1/dataset/stats.
func (h *Handler) DatasetStats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, stats, start)
}

// Health handles GET /api/v1/health. A missing model is reported as
// degraded, never as an error status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	health := HealthStatus{
		Status:        "healthy",
		Version:       Version,
		UptimeSeconds: time.Since(h.startTime).Seconds(),
	}

	meta, err := h.svc.ModelInfo(r.Context())
	switch {
	case err == nil:
		health.ModelPresent = true
		saved := meta.SavedAt
		health.ModelSavedAt = &saved
	case errors.Is(err, neighbors.ErrModelNotFound):
		health.Status = "degraded"
	default:
		health.Status = "degraded"
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Model metadata unreadable")
	}

	respondSuccess(w, health, start)
}
