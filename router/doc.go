// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the staff directory.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	env, err := handlers.NewEnv(ctx, conn, cfg)
	mux := router.NewRouter(env)

# Endpoints

Operations:

	GET /health  - Database readiness
	GET /metrics - Prometheus metrics

Public directory (no login):

	GET /          - Directory cards (?department=)
	GET /print     - Print layout
	GET /embed     - Embeddable widget (?format=html|json|minimal&theme=&dept=&sections=)
	GET /widget.js - Script that renders /embed?format=json into a host page

Public JSON API (CORS enabled):

	GET /api/staff       - ?department=&search=&building=&limit=
	GET /api/search      - Ranked search, ?q=&limit=
	GET /api/departments - Departments that have staff
	GET /api/stats       - Department, staff and building counts
	GET /api/directory   - Cached directory snapshot

Sessions:

	GET  /login  - Login form
	POST /login  - Sign in (rate limited per client IP)
	POST /logout - Sign out

Admin area, any signed-in user (managers are scoped to their departments):

	GET  /admin, /admin/my-departments, /admin/help
	GET  /admin/departments, /admin/departments/{id}/edit
	POST /admin/departments/{id}
	GET  /admin/staff, /admin/staff/new, /admin/staff/{id}/edit
	POST /admin/staff, /admin/staff/{id}, /admin/staff/{id}/delete
	GET  /admin/api/staff/{id}
	GET  /admin/export

Admin only:

	GET  /admin/departments/new
	POST /admin/departments, /admin/departments/{id}/delete
	POST /admin/staff/bulk-delete
	GET  /admin/users, /admin/users/new, /admin/users/{id}/edit
	POST /admin/users, /admin/users/{id}, /admin/users/{id}/delete
	GET  /admin/import, /admin/import/template
	POST /admin/import/preview, /admin/import/confirm
	GET  /admin/export/departments
	GET  /admin/cache
	POST /admin/cache/refresh, /admin/cache/clear, /admin/cache/sync

Every POST from a signed-in user must carry the session's CSRF token.
*/
package router
