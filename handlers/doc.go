// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the staff directory.

# Handler Types

Each handler is a struct embedding the shared *Env (store, views, cache,
sessions, pending imports and the optional Graph client):

  - AuthHandler: Login form, login and logout
  - DashboardHandler: Admin dashboard and "my departments"
  - DepartmentHandler: Department CRUD
  - StaffHandler: Staff CRUD, bulk add and bulk delete
  - UserHandler: User accounts and department assignments (admin only)
  - ImportHandler: CSV upload, preview and confirm
  - ExportHandler: CSV downloads
  - CacheHandler: Directory cache status, refresh, clear and Graph sync
  - DirectoryHandler: Public pages, embed widget and JSON API

The Env is built once at startup:

	env, err := handlers.NewEnv(ctx, conn, cfg)
	staffHandler := handlers.NewStaffHandler(env)

# Roles

Handlers read the verified session from the request context. Admins see
everything. Department managers are scoped to their assigned departments;
a write outside that scope is answered with 403.

# Forms

Admin pages are server-rendered. Successful POSTs redirect (303) with a
flash message carried in a short-lived cookie. Validation errors re-render
the form with the submitted values and a 400 or 409 status.

# Imports

An upload is parsed and previewed first. The parsed rows are held under a
random token owned by the uploading user until they confirm or the token
expires:

	POST /admin/import/preview → Preview (renders token)
	POST /admin/import/confirm → Confirm (applies rows, single use)

# Public API

	GET /api/staff?department=&search=&building=&limit=
	GET /api/search?q=&limit=
	GET /api/departments
	GET /api/stats
	GET /api/directory

/api/directory is served from the file cache; the rest query the store.
*/
package handlers
