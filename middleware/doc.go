// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs completion with method, path, status and duration_ms, and records
Prometheus request counts and latencies labelled by route pattern.

# Authentication

Auth guards the admin pages using the signed session cookie:

	guard := middleware.NewAuth(sessions, store, renderError)
	mux.HandleFunc("GET /admin", middleware.WithLogging(guard.RequireLogin(h.Dashboard)))
	mux.HandleFunc("GET /admin/users", middleware.WithLogging(guard.RequireAdmin(h.List)))

The account is re-read on every request, so a role change or deletion takes
effect immediately. POST requests must carry the session's CSRF token in the
csrf_token form field or the X-CSRF-Token header.

# Rate Limiting

RateLimiter keeps a token bucket per client IP. The peer address is used
unless the server sits behind a proxy that sets X-Forwarded-For:

	limiter := middleware.NewRateLimiter(cfg.LoginRatePerMinute, cfg.TrustProxy)
	mux.HandleFunc("POST /login", limiter.Limit(h.Login))

# CORS

CORS opens the read-only public API and embed endpoints to any origin.

# JSON Helpers

Write JSON responses:

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

# Client IP Extraction

Get the original client IP (handles X-Forwarded-For, X-Real-IP):

	ip := middleware.GetClientIP(r)
*/
package middleware
