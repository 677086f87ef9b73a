// Bookshelf - Collaborative Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package api

import "time"

// APIResponse is the envelope every JSON endpoint answers with.
// Status is "success" or "error"; Error is set only for the latter.
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries timing for the request.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError describes a failed request.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// HealthStatus is the payload of GET /api/v1/health.
type HealthStatus struct {
	Status        string     `json:"status"`
	Version       string     `json:"version"`
	ModelPresent  bool       `json:"model_present"`
	ModelSavedAt  *time.Time `json:"model_saved_at,omitempty"`
	UptimeSeconds float64    `json:"uptime_seconds"`
}
