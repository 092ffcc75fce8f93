// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/staff-directory/auth"
	"github.com/danielhkuo/staff-directory/csvio"
	"github.com/danielhkuo/staff-directory/models"
)

type ExportHandler struct {
	*Env
	now func() time.Time
}

func NewExportHandler(env *Env) *ExportHandler {
	return &ExportHandler{Env: env, now: time.Now}
}

func csvHeaders(w http.ResponseWriter, filename string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Cache-Control", "no-store")
}

// Staff handles GET /admin/export. Admins get every staff member; managers
// get their departments with a preamble naming them.
func (h *ExportHandler) Staff(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFrom(r.Context())
	ctx := r.Context()
	now := h.now()

	var filter models.StaffFilter
	var preamble *csvio.Preamble
	filename := "staff_directory_export_" + now.Format("2006-01-02") + ".csv"

	if !sess.IsAdmin() {
		depts, err := h.Store.ListDepartmentsForUser(ctx, sess.UserID, sess.Role)
		if err != nil {
			h.storeError(w, r, err, "Departments")
			return
		}
		if len(depts) == 0 {
			redirect(w, r, "/admin", flashError, "You have no assigned departments to export")
			return
		}

		names := make([]string, len(depts))
		for i, d := range depts {
			names[i] = d.Name
		}
		filter.DepartmentIDs = departmentIDs(depts)
		preamble = &csvio.Preamble{Departments: names, ExportedBy: sess.Username, ExportedOn: now}
		filename = csvio.ManagerExportFilename(names, now)
	}

	staff, err := h.Store.ListStaff(ctx, filter)
	if err != nil {
		h.storeError(w, r, err, "Staff")
		return
	}

	csvHeaders(w, filename)
	if err := csvio.WriteStaff(w, staff, preamble); err != nil {
		slog.Error("failed to write staff export", "error", err)
		return
	}
	slog.Info("staff exported", "rows", len(staff), "by", sess.Username)
}

// Departments handles GET /admin/export/departments
func (h *ExportHandler) Departments(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFrom(r.Context())
	depts, err := h.Store.ListDepartments(r.Context())
	if err != nil {
		h.storeError(w, r, err, "Departments")
		return
	}

	csvHeaders(w, "departments_export_"+h.now().Format("2006-01-02")+".csv")
	if err := csvio.WriteDepartments(w, depts); err != nil {
		slog.Error("failed to write department export", "error", err)
		return
	}
	slog.Info("departments exported", "rows", len(depts), "by", sess.Username)
}
