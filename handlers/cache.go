// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/staff-directory/auth"
	"github.com/danielhkuo/staff-directory/cache"
	"github.com/danielhkuo/staff-directory/graph"
	"github.com/danielhkuo/staff-directory/reconcile"
	"github.com/danielhkuo/staff-directory/views"
)

// SyncTimeout bounds one Graph sync started from the admin page.
const SyncTimeout = 5 * time.Minute

type CacheHandler struct {
	*Env
}

func NewCacheHandler(env *Env) *CacheHandler {
	return &CacheHandler{Env: env}
}

type cacheData struct {
	Status       cache.Status
	GraphEnabled bool
	Sync         *graph.SyncResult
	BaseURL      string
}

// baseURL prefers the configured public URL and falls back to the request host
func (h *CacheHandler) baseURL(r *http.Request) string {
	if h.Config.BaseURL != "" {
		return strings.TrimRight(h.Config.BaseURL, "/")
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

func (h *CacheHandler) page(w http.ResponseWriter, r *http.Request, status int, sync *graph.SyncResult, flash, errMsg string) {
	st, err := h.Cache.Status()
	if err != nil {
		slog.Warn("failed to read cache status", "error", err)
	}
	h.render(w, r, status, "cache", &views.Page{
		Title:  "Directory Cache",
		Active: "cache",
		Flash:  flash,
		Error:  errMsg,
		Data: cacheData{
			Status:       st,
			GraphEnabled: h.Graph != nil,
			Sync:         sync,
			BaseURL:      h.baseURL(r),
		},
	})
}

// Status handles GET /admin/cache
func (h *CacheHandler) Status(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, http.StatusOK, nil, "", "")
}

// Refresh handles POST /admin/cache/refresh
func (h *CacheHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFrom(r.Context())
	data, err := h.Cache.Refresh(r.Context())
	if err != nil {
		slog.Error("cache refresh failed", "error", err)
		redirect(w, r, "/admin/cache", flashError, "Failed to refresh the directory cache")
		return
	}
	slog.Info("cache refreshed", "departments", len(data.Departments), "staff", len(data.Staff), "by", sess.Username)
	redirect(w, r, "/admin/cache", flashInfo,
		fmt.Sprintf("Cache refreshed with %d departments and %d staff", len(data.Departments), len(data.Staff)))
}

// Clear handles POST /admin/cache/clear
func (h *CacheHandler) Clear(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFrom(r.Context())
	if err := h.Cache.Invalidate(); err != nil {
		slog.Error("cache clear failed", "error", err)
		redirect(w, r, "/admin/cache", flashError, "Failed to clear the directory cache")
		return
	}
	slog.Info("cache cleared", "by", sess.Username)
	redirect(w, r, "/admin/cache", flashInfo, "Cache cleared")
}

// Sync handles POST /admin/cache/sync
func (h *CacheHandler) Sync(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFrom(r.Context())
	if h.Graph == nil {
		h.page(w, r, http.StatusBadRequest, nil, "", "Microsoft Graph credentials are not configured")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), SyncTimeout)
	defer cancel()

	result, err := graph.Sync(ctx, h.Graph, h.Store, h.Cache, reconcile.Options{CompanyName: h.Config.GraphCompanyName})
	if err != nil {
		slog.Error("graph sync failed", "error", err, "by", sess.Username)
		msg := "Microsoft Graph sync failed, the directory was not changed"
		if errors.Is(err, graph.ErrNoUsers) {
			msg = "Microsoft Graph returned no users, the directory was not changed"
		}
		h.page(w, r, http.StatusBadGateway, nil, "", msg)
		return
	}

	slog.Info("graph sync run from admin", "by", sess.Username)
	h.page(w, r, http.StatusOK, &result, "Directory synchronized from Microsoft Graph", "")
}
