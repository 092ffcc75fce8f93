// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/danielhkuo/staff-directory/auth"
	"github.com/danielhkuo/staff-directory/models"
	"github.com/danielhkuo/staff-directory/store"
)

type fakeUsers map[string]models.User

func (f fakeUsers) GetUser(ctx context.Context, id string) (*models.User, error) {
	if id == "broken" {
		return nil, errors.New("connection refused")
	}
	u, ok := f[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func testErrorPage(w http.ResponseWriter, r *http.Request, status int, message string) {
	http.Error(w, message, status)
}

func newTestAuth(users fakeUsers) (*Auth, *auth.SessionManager) {
	sessions := auth.NewSessionManager("middleware-test-secret", time.Hour)
	return NewAuth(sessions, users, testErrorPage), sessions
}

func sessionCookie(t *testing.T, m *auth.SessionManager, u models.User) (*http.Cookie, string) {
	t.Helper()
	token, sess, err := m.Issue(u)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	return &http.Cookie{Name: auth.CookieName, Value: token}, sess.CSRFToken
}

func TestRequireLogin(t *testing.T) {
	admin := models.User{ID: "u-admin", Username: "root", Role: models.RoleAdmin}
	manager := models.User{ID: "u-mgr", Username: "mgr", Role: models.RoleDepartmentManager}
	users := fakeUsers{admin.ID: admin, manager.ID: manager}
	a, sessions := newTestAuth(users)

	var seen *auth.Session
	next := func(w http.ResponseWriter, r *http.Request) {
		seen = auth.SessionFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}

	t.Run("no cookie redirects to login", func(t *testing.T) {
		w := httptest.NewRecorder()
		a.RequireLogin(next)(w, httptest.NewRequest("GET", "/admin/staff?department_id=x", nil))

		if w.Code != http.StatusSeeOther {
			t.Fatalf("Expected 303, got %d", w.Code)
		}
		want := "/login?next=" + url.QueryEscape("/admin/staff?department_id=x")
		if loc := w.Header().Get("Location"); loc != want {
			t.Errorf("Location = %q, want %q", loc, want)
		}
	})

	t.Run("valid session passes through", func(t *testing.T) {
		cookie, _ := sessionCookie(t, sessions, manager)
		req := httptest.NewRequest("GET", "/admin", nil)
		req.AddCookie(cookie)
		w := httptest.NewRecorder()

		a.RequireLogin(next)(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", w.Code)
		}
		if seen == nil || seen.UserID != manager.ID {
			t.Errorf("Expected session in context, got %+v", seen)
		}
	})

	t.Run("role is re-read from the database", func(t *testing.T) {
		stale := manager
		stale.Role = models.RoleAdmin
		cookie, _ := sessionCookie(t, sessions, stale)
		req := httptest.NewRequest("GET", "/admin", nil)
		req.AddCookie(cookie)

		a.RequireLogin(next)(httptest.NewRecorder(), req)

		if seen.Role != models.RoleDepartmentManager {
			t.Errorf("Expected current role department_manager, got %s", seen.Role)
		}
	})

	t.Run("deleted user is logged out", func(t *testing.T) {
		cookie, _ := sessionCookie(t, sessions, models.User{ID: "gone", Username: "gone", Role: models.RoleAdmin})
		req := httptest.NewRequest("GET", "/admin", nil)
		req.AddCookie(cookie)
		w := httptest.NewRecorder()

		a.RequireLogin(next)(w, req)

		if w.Code != http.StatusSeeOther {
			t.Errorf("Expected 303, got %d", w.Code)
		}
		if c := w.Result().Cookies(); len(c) != 1 || c[0].MaxAge >= 0 {
			t.Error("Expected session cookie to be cleared")
		}
	})

	t.Run("lookup failure is a server error", func(t *testing.T) {
		cookie, _ := sessionCookie(t, sessions, models.User{ID: "broken", Username: "x", Role: models.RoleAdmin})
		req := httptest.NewRequest("GET", "/admin", nil)
		req.AddCookie(cookie)
		w := httptest.NewRecorder()

		a.RequireLogin(next)(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("Expected 500, got %d", w.Code)
		}
	})
}

func TestRequireLoginCSRF(t *testing.T) {
	admin := models.User{ID: "u-admin", Username: "root", Role: models.RoleAdmin}
	a, sessions := newTestAuth(fakeUsers{admin.ID: admin})
	cookie, csrf := sessionCookie(t, sessions, admin)

	next := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }

	tests := []struct {
		name   string
		form   url.Values
		header string
		want   int
	}{
		{"missing token", url.Values{}, "", http.StatusForbidden},
		{"wrong token", url.Values{CSRFField: {"nope"}}, "", http.StatusForbidden},
		{"form token", url.Values{CSRFField: {csrf}}, "", http.StatusOK},
		{"header token", url.Values{}, csrf, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/admin/departments", strings.NewReader(tt.form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			if tt.header != "" {
				req.Header.Set(CSRFHeader, tt.header)
			}
			req.AddCookie(cookie)
			w := httptest.NewRecorder()

			a.RequireLogin(next)(w, req)

			if w.Code != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	admin := models.User{ID: "u-admin", Username: "root", Role: models.RoleAdmin}
	manager := models.User{ID: "u-mgr", Username: "mgr", Role: models.RoleDepartmentManager}
	a, sessions := newTestAuth(fakeUsers{admin.ID: admin, manager.ID: manager})

	next := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }

	tests := []struct {
		user models.User
		want int
	}{
		{admin, http.StatusOK},
		{manager, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.user.Role, func(t *testing.T) {
			cookie, _ := sessionCookie(t, sessions, tt.user)
			req := httptest.NewRequest("GET", "/admin/users", nil)
			req.AddCookie(cookie)
			w := httptest.NewRecorder()

			a.RequireAdmin(next)(w, req)

			if w.Code != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, w.Code)
			}
		})
	}
}
