// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielhkuo/staff-directory/handlers"
	"github.com/danielhkuo/staff-directory/middleware"
)

func NewRouter(env *handlers.Env) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	directoryHandler := handlers.NewDirectoryHandler(env)
	authHandler := handlers.NewAuthHandler(env)
	dashboardHandler := handlers.NewDashboardHandler(env)
	departmentHandler := handlers.NewDepartmentHandler(env)
	staffHandler := handlers.NewStaffHandler(env)
	userHandler := handlers.NewUserHandler(env)
	importHandler := handlers.NewImportHandler(env)
	exportHandler := handlers.NewExportHandler(env)
	cacheHandler := handlers.NewCacheHandler(env)

	guard := middleware.NewAuth(env.Sessions, env.Store, env.ErrorPage)
	loginLimiter := middleware.NewRateLimiter(env.Config.LoginRatePerMinute, env.Config.TrustProxy)

	login := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(guard.RequireLogin(h))
	}
	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(guard.RequireAdmin(h))
	}
	public := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.CORS(h))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if err := env.Store.Ping(r.Context()); err != nil {
			slog.Error("health check failed", "error", err)
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	// Public directory
	mux.HandleFunc("GET /{$}", middleware.WithLogging(directoryHandler.Index))
	mux.HandleFunc("GET /print", middleware.WithLogging(directoryHandler.Print))
	mux.HandleFunc("GET /embed", public(directoryHandler.Embed))
	mux.HandleFunc("OPTIONS /embed", public(directoryHandler.Embed))
	mux.HandleFunc("GET /widget.js", public(directoryHandler.Widget))

	// Public JSON API
	mux.HandleFunc("GET /api/staff", public(directoryHandler.APIStaff))
	mux.HandleFunc("GET /api/search", public(directoryHandler.APISearch))
	mux.HandleFunc("GET /api/departments", public(directoryHandler.APIDepartments))
	mux.HandleFunc("GET /api/stats", public(directoryHandler.APIStats))
	mux.HandleFunc("GET /api/directory", public(directoryHandler.APIDirectory))
	mux.HandleFunc("OPTIONS /api/", public(func(w http.ResponseWriter, r *http.Request) {}))

	// Sessions
	mux.HandleFunc("GET /login", middleware.WithLogging(authHandler.LoginPage))
	mux.HandleFunc("POST /login", middleware.WithLogging(loginLimiter.Limit(authHandler.Login)))
	mux.HandleFunc("POST /logout", login(authHandler.Logout))

	// Admin area (any signed-in user; handlers scope managers to their departments)
	mux.HandleFunc("GET /admin", login(dashboardHandler.Dashboard))
	mux.HandleFunc("GET /admin/my-departments", login(dashboardHandler.MyDepartments))
	mux.HandleFunc("GET /admin/help", login(dashboardHandler.Help))

	mux.HandleFunc("GET /admin/departments", login(departmentHandler.List))
	mux.HandleFunc("GET /admin/departments/{id}/edit", login(departmentHandler.Edit))
	mux.HandleFunc("POST /admin/departments/{id}", login(departmentHandler.Update))

	mux.HandleFunc("GET /admin/staff", login(staffHandler.List))
	mux.HandleFunc("GET /admin/staff/new", login(staffHandler.New))
	mux.HandleFunc("POST /admin/staff", login(staffHandler.Create))
	mux.HandleFunc("GET /admin/staff/{id}/edit", login(staffHandler.Edit))
	mux.HandleFunc("POST /admin/staff/{id}", login(staffHandler.Update))
	mux.HandleFunc("POST /admin/staff/{id}/delete", login(staffHandler.Delete))
	mux.HandleFunc("GET /admin/api/staff/{id}", login(staffHandler.Get))

	mux.HandleFunc("GET /admin/export", login(exportHandler.Staff))

	// Admin only
	mux.HandleFunc("GET /admin/departments/new", admin(departmentHandler.New))
	mux.HandleFunc("POST /admin/departments", admin(departmentHandler.Create))
	mux.HandleFunc("POST /admin/departments/{id}/delete", admin(departmentHandler.Delete))

	mux.HandleFunc("POST /admin/staff/bulk-delete", admin(staffHandler.BulkDelete))

	mux.HandleFunc("GET /admin/users", admin(userHandler.List))
	mux.HandleFunc("GET /admin/users/new", admin(userHandler.New))
	mux.HandleFunc("POST /admin/users", admin(userHandler.Create))
	mux.HandleFunc("GET /admin/users/{id}/edit", admin(userHandler.Edit))
	mux.HandleFunc("POST /admin/users/{id}", admin(userHandler.Update))
	mux.HandleFunc("POST /admin/users/{id}/delete", admin(userHandler.Delete))

	mux.HandleFunc("GET /admin/import", admin(importHandler.Page))
	mux.HandleFunc("GET /admin/import/template", admin(importHandler.Template))
	mux.HandleFunc("POST /admin/import/preview", admin(importHandler.Preview))
	mux.HandleFunc("POST /admin/import/confirm", admin(importHandler.Confirm))

	mux.HandleFunc("GET /admin/export/departments", admin(exportHandler.Departments))

	mux.HandleFunc("GET /admin/cache", admin(cacheHandler.Status))
	mux.HandleFunc("POST /admin/cache/refresh", admin(cacheHandler.Refresh))
	mux.HandleFunc("POST /admin/cache/clear", admin(cacheHandler.Clear))
	mux.HandleFunc("POST /admin/cache/sync", admin(cacheHandler.Sync))

	return mux
}
