// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/danielhkuo/staff-directory/auth"
	"github.com/danielhkuo/staff-directory/cache"
	"github.com/danielhkuo/staff-directory/cliparse"
	"github.com/danielhkuo/staff-directory/csvio"
	"github.com/danielhkuo/staff-directory/graph"
	"github.com/danielhkuo/staff-directory/store"
	"github.com/danielhkuo/staff-directory/views"
)

// Env holds the collaborators shared by every handler.
type Env struct {
	Store    *store.Store
	Config   cliparse.Config
	Views    *views.Renderer
	Sessions *auth.SessionManager
	Cache    *cache.Cache
	Pending  *csvio.PendingStore
	Graph    graph.UserLister // nil when Graph credentials are not configured
}

// NewEnv wires the store, templates, sessions, directory cache and pending
// import area for conn. Graph is only set when credentials are configured.
func NewEnv(ctx context.Context, conn *sql.DB, cfg cliparse.Config) (*Env, error) {
	st := store.New(conn)

	renderer, err := views.New()
	if err != nil {
		return nil, err
	}

	c, err := cache.New(cfg.CacheDir, cfg.CacheTTL, st)
	if err != nil {
		return nil, err
	}

	pending, err := csvio.NewPendingStore(filepath.Join(cfg.CacheDir, "imports"))
	if err != nil {
		return nil, err
	}

	env := &Env{
		Store:    st,
		Config:   cfg,
		Views:    renderer,
		Sessions: auth.NewSessionManager(cfg.SessionSecret, cfg.SessionTTL),
		Cache:    c,
		Pending:  pending,
	}

	if cfg.GraphEnabled() {
		client, err := graph.NewClient(ctx, graph.Credentials{
			TenantID:     cfg.GraphTenantID,
			ClientID:     cfg.GraphClientID,
			ClientSecret: cfg.GraphClientSecret,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create graph client: %w", err)
		}
		env.Graph = client
	}

	return env, nil
}

const flashCookie = "staffdir_flash"

// flash kinds
const (
	flashInfo  = "i"
	flashError = "e"
)

// setFlash stores a one-shot message shown on the next page render.
func setFlash(w http.ResponseWriter, kind, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString([]byte(kind + message)),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func popFlash(w http.ResponseWriter, r *http.Request) (info, errMsg string) {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return "", ""
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Path: "/", MaxAge: -1, HttpOnly: true})

	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil || len(raw) < 1 {
		return "", ""
	}
	kind, msg := string(raw[:1]), string(raw[1:])
	if kind == flashError {
		return "", msg
	}
	return msg, ""
}

// redirect sets a flash message and sends the browser to target
func redirect(w http.ResponseWriter, r *http.Request, target, kind, message string) {
	if message != "" {
		setFlash(w, kind, message)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// render writes a page for the current session, consuming any flash message
func (e *Env) render(w http.ResponseWriter, r *http.Request, status int, name string, page *views.Page) {
	page.Session = auth.SessionFrom(r.Context())
	info, errMsg := popFlash(w, r)
	if page.Flash == "" {
		page.Flash = info
	}
	if page.Error == "" {
		page.Error = errMsg
	}
	e.Views.Render(w, status, name, page)
}

type errorData struct {
	Status  int
	Message string
}

// ErrorPage renders the HTML error page. It satisfies middleware.ErrorPage.
func (e *Env) ErrorPage(w http.ResponseWriter, r *http.Request, status int, message string) {
	e.render(w, r, status, "error", &views.Page{
		Title: http.StatusText(status),
		Data:  errorData{Status: status, Message: message},
	})
}

// storeError maps a store error to an error page, logging unexpected ones
func (e *Env) storeError(w http.ResponseWriter, r *http.Request, err error, what string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		e.ErrorPage(w, r, http.StatusNotFound, what+" not found")
	case errors.Is(err, store.ErrDuplicate):
		e.ErrorPage(w, r, http.StatusConflict, what+" already exists")
	case errors.Is(err, store.ErrInvalidReference):
		e.ErrorPage(w, r, http.StatusBadRequest, "The selected department does not exist")
	default:
		slog.Error("database error", "what", what, "path", r.URL.Path, "error", err)
		e.ErrorPage(w, r, http.StatusInternalServerError, "Database error")
	}
}

// invalidateCache drops the public directory snapshot after a mutation
func (e *Env) invalidateCache() {
	if e.Cache == nil {
		return
	}
	if err := e.Cache.Invalidate(); err != nil {
		slog.Warn("failed to invalidate directory cache", "error", err)
	}
}

// canManage reports whether the session may edit a department, rendering an
// error page when it may not.
func (e *Env) canManage(w http.ResponseWriter, r *http.Request, sess *auth.Session, departmentID string) bool {
	ok, err := e.Store.CanManageDepartment(r.Context(), sess.UserID, sess.Role, departmentID)
	if err != nil {
		e.storeError(w, r, err, "Department")
		return false
	}
	if !ok {
		slog.Warn("department access denied", "user", sess.Username, "department_id", departmentID)
		e.ErrorPage(w, r, http.StatusForbidden, "You do not have permission to manage this department")
		return false
	}
	return true
}

// formValue returns a trimmed form field
func formValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.FormValue(key))
}

// safeNext returns next when it is a local path, otherwise fallback
func safeNext(next, fallback string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	return next
}
