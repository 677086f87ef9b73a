// Bookshelf - Collaborative Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/bookshelf/internal/neighbors"
	"github.com/tomtom215/bookshelf/internal/recommend"
)

type mockTrainer struct {
	mu         sync.Mutex
	calls      int
	err        error
	delay      time.Duration
	lastDeadline time.Time
}

func (m *mockTrainer) Train(ctx context.Context) (*neighbors.Metadata, error) {
	m.mu.Lock()
	m.calls++
	m.lastDeadline, _ = ctx.Deadline()
	err, delay := m.err, m.delay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	if err != nil {
		return nil, err
	}
	return &neighbors.Metadata{Header: neighbors.Header{Rows: 727, Dims: 899}}, nil
}

func (m *mockTrainer) getCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// syncBuffer guards a bytes.Buffer shared with the service goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestNewRetrainService_Defaults(t *testing.T) {
	svc := NewRetrainService(&mockTrainer{}, RetrainServiceConfig{}, zerolog.Nop())
	if svc.config.Interval != 24*time.Hour {
		t.Errorf("Interval = %v, want 24h", svc.config.Interval)
	}
	if svc.config.Timeout != 30*time.Minute {
		t.Errorf("Timeout = %v, want 30m", svc.config.Timeout)
	}
	if svc.String() != "retrain-service" {
		t.Errorf("String() = %q", svc.String())
	}
}

func TestRetrainService_OnStartup(t *testing.T) {
	trainer := &mockTrainer{}
	svc := NewRetrainService(trainer, RetrainServiceConfig{OnStartup: true, Interval: time.Hour, Timeout: time.Minute}, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve() = %v, want context.DeadlineExceeded", err)
	}
	if got := trainer.getCalls(); got != 1 {
		t.Errorf("Train() called %d times, want 1", got)
	}
}

func TestRetrainService_NoStartupTraining(t *testing.T) {
	trainer := &mockTrainer{}
	svc := NewRetrainService(trainer, RetrainServiceConfig{Interval: time.Hour}, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = svc.Serve(ctx)

	if got := trainer.getCalls(); got != 0 {
		t.Errorf("Train() called %d times, want 0", got)
	}
}

func TestRetrainService_Scheduled(t *testing.T) {
	trainer := &mockTrainer{}
	svc := NewRetrainService(trainer, RetrainServiceConfig{Interval: 30 * time.Millisecond, Timeout: time.Minute}, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()
	_ = svc.Serve(ctx)

	if got := trainer.getCalls(); got < 3 {
		t.Errorf("Train() called %d times, want at least 3", got)
	}
}

func TestRetrainService_FailuresDoNotStopLoop(t *testing.T) {
	trainer := &mockTrainer{err: errors.New("ratings file missing")}
	svc := NewRetrainService(trainer, RetrainServiceConfig{OnStartup: true, Interval: 30 * time.Millisecond}, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve() = %v, want context.DeadlineExceeded", err)
	}
	if got := trainer.getCalls(); got < 2 {
		t.Errorf("Train() called %d times, want at least 2", got)
	}
}

func TestRetrainService_RunTimeout(t *testing.T) {
	trainer := &mockTrainer{delay: time.Second}
	svc := NewRetrainService(trainer, RetrainServiceConfig{OnStartup: true, Interval: time.Hour, Timeout: 50 * time.Millisecond}, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	start := time.Now()
	_ = svc.Serve(ctx)
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Serve took %v; the run timeout was not applied", elapsed)
	}
	trainer.mu.Lock()
	deadline := trainer.lastDeadline
	trainer.mu.Unlock()
	if deadline.IsZero() {
		t.Error("training context had no deadline")
	}
}

func TestRetrainService_LogsSkippedRun(t *testing.T) {
	var out syncBuffer
	trainer := &mockTrainer{err: recommend.ErrTrainingInProgress}
	svc := NewRetrainService(trainer, RetrainServiceConfig{OnStartup: true, Interval: time.Hour}, zerolog.New(&out))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = svc.Serve(ctx)

	logs := out.String()
	if !strings.Contains(logs, "already in progress") {
		t.Errorf("expected skip message, got: %s", logs)
	}
	if strings.Contains(logs, `"level":"warn"`) {
		t.Errorf("a concurrent run should not be logged as a failure: %s", logs)
	}
	if !strings.Contains(logs, `"service":"retrain"`) {
		t.Errorf("logs should carry the service field: %s", logs)
	}
}
