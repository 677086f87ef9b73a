// Bookshelf - Collaborative Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/bookshelf/internal/neighbors"
	"github.com/tomtom215/bookshelf/internal/recommend"
)

// Trainer fits and persists a new index.
type Trainer interface {
	Train(ctx context.Context) (*neighbors.Metadata, error)
}

// RetrainServiceConfig controls the retrain loop.
type RetrainServiceConfig struct {
	// OnStartup trains once before the first tick.
	OnStartup bool

	// Interval between scheduled runs. Non-positive means 24h.
	Interval time.Duration

	// Timeout bounds a single run. Non-positive means 30m.
	Timeout time.Duration
}

// RetrainService periodically retrains the index. A failed run is logged
// and retried on the next tick; it never stops the service.
type RetrainService struct {
	trainer Trainer
	config  RetrainServiceConfig
	logger  zerolog.Logger
	name    string
}

// NewRetrainService creates the retrain loop.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRetrainService(trainer Trainer, cfg RetrainServiceConfig, logger zerolog.Logger) *RetrainService {
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Minute
	}
	return &RetrainService{
		trainer: trainer,
		config:  cfg,
		logger:  logger.With().Str("service", "retrain").Logger(),
		name:    "retrain-service",
	}
}

// Serve implements suture.Service.
func (s *RetrainService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("on_startup", s.config.OnStartup).
		Dur("interval", s.config.Interval).
		Msg("Retrain service starting")

	if s.config.OnStartup {
		s.run(ctx)
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Retrain service shutting down")
			return ctx.Err()

		case <-ticker.C:
			s.run(ctx)
		}
	}
}

func (s *RetrainService) run(ctx context.Context) {
	trainCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	meta, err := s.trainer.Train(trainCtx)
	switch {
	case errors.Is(err, recommend.ErrTrainingInProgress):
		s.logger.Info().Msg("Skipping scheduled training, a run is already in progress")
	case err != nil:
		s.logger.Warn().Err(err).Msg("Scheduled training failed, will retry on next tick")
	default:
		s.logger.Info().
			Int("rows", meta.Rows).
			Int("dims", meta.Dims).
			Int64("training_ms", meta.TrainingDurationMS).
			Msg("Scheduled training complete")
	}
}

// String names the service in supervisor logs.
func (s *RetrainService) String() string {
	return s.name
}
