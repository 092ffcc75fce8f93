// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the staff directory.

The staff directory publishes departments and staff members as HTML cards, a
print layout, an embeddable widget and a JSON API. Admins and department
managers maintain it through a session-protected admin area, CSV imports or a
Microsoft Graph sync.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=directory.db SESSION_SECRET=... staff-directory

Or with flags:

	staff-directory serve -p 3318 -d "postgres://..." -t postgres

# Commands

	serve          Start the HTTP server (default)
	migrate        Create the schema; --from-json loads and dedupes a directory file
	sync-graph     Replace the directory with Microsoft Graph users
	create-user    Create an admin or department manager
	import FILE    Import departments or staff from CSV (--type, --update-existing)
	export         Write staff (or --departments) as CSV
	refresh-cache  Rebuild the public directory cache

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite path or PostgreSQL connection string
  - SESSION_SECRET (--session-secret): at least 16 characters

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite (default) or postgres
  - SESSION_TTL, CACHE_DIR, CACHE_TTL, BASE_URL, LOGIN_RATE_PER_MINUTE, LOG_LEVEL
  - GRAPH_TENANT_ID, GRAPH_CLIENT_ID, GRAPH_CLIENT_SECRET, GRAPH_COMPANY_NAME

A .env file (--env-file) is read for anything not set in the environment.

# Architecture

  - handlers: HTTP request handlers (directory, admin pages, imports, cache)
  - router: Route definitions using Go 1.22+ routing
  - middleware: Sessions, CSRF, rate limiting, logging, metrics, CORS
  - views: Embedded HTML templates and grouping helpers
  - store: Data access for departments, staff and users
  - cache: On-disk public directory snapshot
  - csvio: CSV import parsing and export
  - graph, reconcile: Microsoft Graph sync and department deduplication
  - models: Domain and request/response types
  - auth: IDs, passwords and signed sessions
  - db: Connections and schema creation
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
