// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/danielhkuo/staff-directory/handlers"
	"github.com/danielhkuo/staff-directory/models"
	"github.com/danielhkuo/staff-directory/testutil"
)

func newTestRouter(t *testing.T) (*http.ServeMux, *handlers.Env) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	env, err := handlers.NewEnv(context.Background(), db, testutil.GetTestConfig(t))
	if err != nil {
		t.Fatalf("NewEnv() error = %v", err)
	}
	return NewRouter(env), env
}

func TestHealthEndpoint(t *testing.T) {
	mux, _ := newTestRouter(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	if w.Body.String() != "OK" {
		t.Errorf("Expected body 'OK', got '%s'", w.Body.String())
	}
}

func TestHealthEndpoint_DatabaseDown(t *testing.T) {
	mux, env := newTestRouter(t)
	env.Store.DB().Close()

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}
}

func TestRootEndpoint(t *testing.T) {
	mux, _ := newTestRouter(t)

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.AssertContains(t, w, "Staff Directory")

	// only the exact root is the directory
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/nope", nil))
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestRouteExistence(t *testing.T) {
	mux, _ := newTestRouter(t)

	// Note: unauthenticated admin routes redirect to /login, which still
	// proves the route is registered
	testCases := []struct {
		method string
		path   string
	}{
		{"GET", "/health"},
		{"GET", "/metrics"},
		{"GET", "/"},
		{"GET", "/print"},
		{"GET", "/embed"},
		{"GET", "/widget.js"},
		{"GET", "/api/staff"},
		{"GET", "/api/search?q=x"},
		{"GET", "/api/departments"},
		{"GET", "/api/stats"},
		{"GET", "/api/directory"},
		{"GET", "/login"},
		{"POST", "/login"},
		{"POST", "/logout"},
		{"GET", "/admin"},
		{"GET", "/admin/my-departments"},
		{"GET", "/admin/help"},
		{"GET", "/admin/departments"},
		{"GET", "/admin/departments/new"},
		{"POST", "/admin/departments"},
		{"GET", "/admin/departments/some-id/edit"},
		{"POST", "/admin/departments/some-id"},
		{"POST", "/admin/departments/some-id/delete"},
		{"GET", "/admin/staff"},
		{"GET", "/admin/staff/new"},
		{"POST", "/admin/staff"},
		{"GET", "/admin/staff/some-id/edit"},
		{"POST", "/admin/staff/some-id"},
		{"POST", "/admin/staff/some-id/delete"},
		{"POST", "/admin/staff/bulk-delete"},
		{"GET", "/admin/api/staff/some-id"},
		{"GET", "/admin/users"},
		{"GET", "/admin/users/new"},
		{"POST", "/admin/users"},
		{"GET", "/admin/users/some-id/edit"},
		{"POST", "/admin/users/some-id"},
		{"POST", "/admin/users/some-id/delete"},
		{"GET", "/admin/import"},
		{"GET", "/admin/import/template"},
		{"POST", "/admin/import/preview"},
		{"POST", "/admin/import/confirm"},
		{"GET", "/admin/export"},
		{"GET", "/admin/export/departments"},
		{"GET", "/admin/cache"},
		{"POST", "/admin/cache/refresh"},
		{"POST", "/admin/cache/clear"},
		{"POST", "/admin/cache/sync"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code == http.StatusMethodNotAllowed || w.Code == http.StatusNotFound {
				t.Errorf("Route %s %s returned %d, expected route handler to exist", tc.method, tc.path, w.Code)
			}
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	mux, _ := newTestRouter(t)

	testCases := []struct {
		method string
		path   string
	}{
		{"POST", "/health"},
		{"DELETE", "/admin/staff/some-id"},
		{"PUT", "/api/staff"},
		{"GET", "/logout"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code != http.StatusMethodNotAllowed {
				t.Errorf("Expected 405 for %s %s, got %d", tc.method, tc.path, w.Code)
			}
		})
	}
}

func TestAdminRoutesRequireLogin(t *testing.T) {
	mux, _ := newTestRouter(t)

	for _, path := range []string{"/admin", "/admin/staff", "/admin/users", "/admin/cache"} {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest("GET", path, nil))

		if w.Code != http.StatusSeeOther {
			t.Errorf("GET %s = %d, want 303", path, w.Code)
			continue
		}
		if loc := w.Header().Get("Location"); !strings.HasPrefix(loc, "/login") {
			t.Errorf("GET %s redirected to %q, want /login", path, loc)
		}
	}
}

func TestAdminOnlyRoutesRejectManagers(t *testing.T) {
	mux, env := newTestRouter(t)
	db := env.Store.DB()

	id := testutil.CreateTestUser(t, db, "manager", models.RoleDepartmentManager)
	cookie, _ := testutil.LoginCookie(t, env.Config, id, "manager", models.RoleDepartmentManager)

	for _, path := range []string{"/admin/users", "/admin/import", "/admin/cache", "/admin/departments/new"} {
		req := httptest.NewRequest("GET", path, nil)
		req.AddCookie(cookie)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		if w.Code != http.StatusForbidden {
			t.Errorf("GET %s as manager = %d, want 403", path, w.Code)
		}
	}

	// shared routes stay open
	req := httptest.NewRequest("GET", "/admin/staff", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)
}

func TestPublicAPICORS(t *testing.T) {
	mux, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/api/departments", nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("OPTIONS", "/api/staff", nil))
	testutil.AssertStatus(t, w, http.StatusNoContent)

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("OPTIONS", "/embed", nil))
	testutil.AssertStatus(t, w, http.StatusNoContent)
}

func TestLoginFlowThroughRouter(t *testing.T) {
	mux, env := newTestRouter(t)
	testutil.CreateTestUser(t, env.Store.DB(), "admin", models.RoleAdmin)

	form := url.Values{"username": {"admin"}, "password": {testutil.TestPassword}}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, testutil.MakeFormRequest("POST", "/login", form, nil))

	testutil.AssertStatus(t, w, http.StatusSeeOther)
	var session *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Value != "" && c.MaxAge >= 0 && strings.HasPrefix(c.Name, "staffdir_session") {
			session = c
		}
	}
	if session == nil {
		t.Fatal("login did not set a session cookie")
	}

	req := httptest.NewRequest("GET", "/admin", nil)
	req.AddCookie(session)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.AssertContains(t, w, "admin")
}

func TestMetricsEndpoint(t *testing.T) {
	mux, _ := newTestRouter(t)

	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/stats", nil))

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.AssertContains(t, w, "staffdir_http_requests_total", `route="GET /api/stats"`)
}
