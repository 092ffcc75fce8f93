// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/staff-directory/auth"
	"github.com/danielhkuo/staff-directory/middleware"
	"github.com/danielhkuo/staff-directory/views"
)

type AuthHandler struct {
	*Env
}

func NewAuthHandler(env *Env) *AuthHandler {
	return &AuthHandler{Env: env}
}

type loginData struct {
	Username string
	Next     string
}

// LoginPage handles GET /login
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	next := safeNext(r.URL.Query().Get("next"), "/admin")
	if _, err := h.Sessions.FromRequest(r); err == nil {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, "login", &views.Page{
		Title: "Login",
		Data:  loginData{Next: next},
	})
}

// Login handles POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	username := formValue(r, "username")
	password := r.FormValue("password")
	next := safeNext(r.FormValue("next"), "/admin")

	fail := func(status int, message string) {
		h.render(w, r, status, "login", &views.Page{
			Title: "Login",
			Error: message,
			Data:  loginData{Username: username, Next: next},
		})
	}

	if username == "" || password == "" {
		fail(http.StatusBadRequest, "Please enter both username and password")
		return
	}

	user, err := h.Store.Authenticate(r.Context(), username, password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		slog.Warn("failed login", "username", username, "ip", middleware.GetClientIP(r))
		fail(http.StatusUnauthorized, "Invalid username or password")
		return
	}
	if err != nil {
		slog.Error("failed to authenticate", "error", err)
		fail(http.StatusInternalServerError, "Login is unavailable, please try again later")
		return
	}

	token, _, err := h.Sessions.Issue(*user)
	if err != nil {
		slog.Error("failed to issue session", "error", err)
		fail(http.StatusInternalServerError, "Login is unavailable, please try again later")
		return
	}
	h.Sessions.SetCookie(w, r, token)

	slog.Info("user logged in", "username", user.Username, "role", user.Role)
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// Logout handles POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sess := auth.SessionFrom(r.Context()); sess != nil {
		slog.Info("user logged out", "username", sess.Username)
	}
	auth.ClearCookie(w, r)
	redirect(w, r, "/login", flashInfo, "You have been logged out")
}
