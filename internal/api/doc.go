// Bookshelf - Collaborative Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

/*
Package api serves the recommendation service over HTTP using the Chi router.

# Endpoints

	GET  /api/v1/health                     liveness and model presence
	GET  /api/v1/recommendations?title=...  nearest books for a title
	GET  /api/v1/model                      metadata of the persisted index
	POST /api/v1/model/train                fit and persist a new index
	GET  /api/v1/dataset/stats              source file and matrix counts
	GET  /metrics                           Prometheus exposition

# Response Format

Every endpoint except /metrics answers with the same envelope:

	{
	  "status": "success",
	  "data": {...},
	  "metadata": {"timestamp": "2026-10-19T12:00:00Z", "query_time_ms": 412}
	}

Errors set status to "error" and fill the error object:

	{
	  "status": "error",
	  "error": {"code": "NOT_FOUND", "message": "book not found"},
	  "metadata": {"timestamp": "2026-10-19T12:00:00Z"}
	}

# Error Codes

	VALIDATION_ERROR     400  missing or blank title
	NOT_FOUND            404  unknown title, or no row in the filtered matrix
	MODEL_NOT_FOUND      404  GET /model before the first training run
	TRAINING_IN_PROGRESS 409  another training run holds the lock
	RATE_LIMIT_EXCEEDED  429  per-IP request budget exhausted
	DATA_LOAD_ERROR      500  a source file is missing or malformed
	INTERNAL_ERROR       500  anything else
	MODEL_UNAVAILABLE    503  the index is missing, corrupt or stale

# Middleware

Applied to every route, in order: request ID with logging context, real IP
extraction, panic recovery, CORS. The /api/v1 routes add per-IP rate
limiting (go-chi/httprate) and Prometheus request metrics.
*/
package api
