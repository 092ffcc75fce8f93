// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/danielhkuo/staff-directory/middleware"
	"github.com/danielhkuo/staff-directory/models"
	"github.com/danielhkuo/staff-directory/store"
	"github.com/danielhkuo/staff-directory/views"
)

// DirectoryHandler serves the public, read-only directory.
type DirectoryHandler struct {
	*Env
}

func NewDirectoryHandler(env *Env) *DirectoryHandler {
	return &DirectoryHandler{Env: env}
}

// load returns the cached directory, rendering an error page on failure
func (h *DirectoryHandler) load(w http.ResponseWriter, r *http.Request) (models.DirectoryData, bool) {
	data, err := h.Cache.Get(r.Context())
	if err != nil {
		slog.Error("failed to load directory", "error", err)
		h.ErrorPage(w, r, http.StatusServiceUnavailable, "The directory is temporarily unavailable")
		return models.DirectoryData{}, false
	}
	return data, true
}

// Index handles GET /
func (h *DirectoryHandler) Index(w http.ResponseWriter, r *http.Request) {
	data, ok := h.load(w, r)
	if !ok {
		return
	}
	h.render(w, r, http.StatusOK, "directory", &views.Page{
		Title:  "Staff Directory",
		Active: "directory",
		Data:   views.NewDirectory(data, r.URL.Query().Get("department")),
	})
}

// Print handles GET /print
func (h *DirectoryHandler) Print(w http.ResponseWriter, r *http.Request) {
	data, ok := h.load(w, r)
	if !ok {
		return
	}
	h.render(w, r, http.StatusOK, "print", &views.Page{
		Title: "Staff Directory",
		Data:  views.NewDirectory(data, ""),
	})
}

// Embed handles GET /embed?format=html|json|minimal&theme=default|minimal&dept=&sections=departments|staff|both
func (h *DirectoryHandler) Embed(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format := q.Get("format")
	theme := q.Get("theme")
	sections := q.Get("sections")
	dept := strings.TrimSpace(q.Get("dept"))

	data, err := h.Cache.Get(r.Context())
	if err != nil {
		slog.Error("failed to load directory", "error", err)
		if format == models.FormatJSON {
			middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Directory unavailable")
		} else {
			http.Error(w, "Directory unavailable", http.StatusServiceUnavailable)
		}
		return
	}

	staff := data.Staff
	if dept != "" {
		staff = make([]models.Staff, 0)
		for _, s := range data.Staff {
			if s.DepartmentName == dept {
				staff = append(staff, s)
			}
		}
	}

	// widgets are framed by third-party pages
	w.Header().Set("Content-Security-Policy", "frame-ancestors *")

	if format == models.FormatJSON {
		middleware.JSONResponse(w, http.StatusOK, models.EmbedResponse{
			Departments:       data.Departments,
			Staff:             staff,
			StaffByDepartment: views.StaffByDepartment(staff),
			Department:        dept,
			GeneratedAt:       data.GeneratedAt,
		})
		return
	}

	if format == models.FormatMinimal {
		theme = models.ThemeMinimal
	}
	if theme != models.ThemeMinimal {
		theme = models.ThemeDefault
	}
	if sections != models.SectionsDepartments && sections != models.SectionsStaff {
		sections = models.SectionsBoth
	}

	h.render(w, r, http.StatusOK, "embed", &views.Page{
		Title: "Staff Directory",
		Data: views.Embed{
			Directory:       views.NewDirectory(data, dept),
			Theme:           theme,
			ShowDepartments: dept == "" && sections != models.SectionsStaff,
			ShowStaff:       sections != models.SectionsDepartments,
			ShowFooter:      format != models.FormatMinimal,
		},
	})
}

// Widget handles GET /widget.js
func (h *DirectoryHandler) Widget(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(views.WidgetJS)
}

func queryLimit(r *http.Request, def, max int) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

// APIStaff handles GET /api/staff?department=&search=&building=&limit=
func (h *DirectoryHandler) APIStaff(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	staff, err := h.Store.ListStaff(r.Context(), models.StaffFilter{
		DepartmentName: strings.TrimSpace(q.Get("department")),
		Search:         strings.TrimSpace(q.Get("search")),
		Building:       strings.TrimSpace(q.Get("building")),
		Limit:          queryLimit(r, 0, store.MaxSearchLimit),
	})
	if err != nil {
		slog.Error("failed to list staff", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.StaffListResponse{Staff: staff, Count: len(staff)})
}

// APISearch handles GET /api/search?q=&limit=
func (h *DirectoryHandler) APISearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "q is required")
		return
	}

	results, err := h.Store.Search(r.Context(), query, queryLimit(r, store.DefaultSearchLimit, store.MaxSearchLimit))
	if err != nil {
		slog.Error("search failed", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.SearchResponse{Query: query, Results: results, Count: len(results)})
}

// APIDepartments handles GET /api/departments
func (h *DirectoryHandler) APIDepartments(w http.ResponseWriter, r *http.Request) {
	depts, err := h.Store.ListPublicDepartments(r.Context())
	if err != nil {
		slog.Error("failed to list departments", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.DepartmentListResponse{Departments: depts})
}

// APIStats handles GET /api/stats
func (h *DirectoryHandler) APIStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Store.Stats(r.Context())
	if err != nil {
		slog.Error("failed to get stats", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, stats)
}

// APIDirectory handles GET /api/directory
func (h *DirectoryHandler) APIDirectory(w http.ResponseWriter, r *http.Request) {
	data, err := h.Cache.Get(r.Context())
	if err != nil {
		slog.Error("failed to load directory", "error", err)
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Directory unavailable")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, data)
}
