// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/danielhkuo/staff-directory/auth"
	"github.com/danielhkuo/staff-directory/models"
	"github.com/danielhkuo/staff-directory/store"
)

// CSRFField is the form field state-changing requests must echo back.
const CSRFField = "csrf_token"

// CSRFHeader is accepted in place of CSRFField for AJAX requests.
const CSRFHeader = "X-CSRF-Token"

// UserLookup loads the current account behind a session. A deleted account
// yields store.ErrNotFound.
type UserLookup interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// ErrorPage renders an error for a rejected request.
type ErrorPage func(w http.ResponseWriter, r *http.Request, status int, message string)

// Auth guards the admin pages.
type Auth struct {
	sessions *auth.SessionManager
	users    UserLookup
	errPage  ErrorPage
}

func NewAuth(sessions *auth.SessionManager, users UserLookup, errPage ErrorPage) *Auth {
	return &Auth{sessions: sessions, users: users, errPage: errPage}
}

// RequireLogin rejects requests without a valid session. The account is
// re-read on every request so role changes and deletions apply at once.
func (a *Auth) RequireLogin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := a.sessions.FromRequest(r)
		if err != nil {
			redirectToLogin(w, r)
			return
		}

		user, err := a.users.GetUser(r.Context(), sess.UserID)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				slog.Error("failed to load session user", "user_id", sess.UserID, "error", err)
				a.errPage(w, r, http.StatusInternalServerError, "Database error")
				return
			}
			slog.Warn("session for deleted user", "user_id", sess.UserID)
			auth.ClearCookie(w, r)
			redirectToLogin(w, r)
			return
		}
		sess.Username = user.Username
		sess.Role = user.Role

		if stateChanging(r.Method) && !validCSRF(r, sess.CSRFToken) {
			slog.Warn("csrf token mismatch", "user", sess.Username, "path", r.URL.Path)
			a.errPage(w, r, http.StatusForbidden, "Your session form token is invalid. Please reload the page and try again.")
			return
		}

		next(w, r.WithContext(auth.WithSession(r.Context(), sess)))
	}
}

// RequireAdmin is RequireLogin plus the admin role.
func (a *Auth) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return a.RequireLogin(func(w http.ResponseWriter, r *http.Request) {
		if !auth.SessionFrom(r.Context()).IsAdmin() {
			a.errPage(w, r, http.StatusForbidden, "Administrator access required")
			return
		}
		next(w, r)
	})
}

func stateChanging(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}

func validCSRF(r *http.Request, expected string) bool {
	if expected == "" {
		return false
	}
	got := r.Header.Get(CSRFHeader)
	if got == "" {
		got = r.FormValue(CSRFField)
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(expected)) == 1
}

func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	target := "/login"
	if r.Method == http.MethodGet {
		target += "?next=" + url.QueryEscape(r.URL.RequestURI())
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
