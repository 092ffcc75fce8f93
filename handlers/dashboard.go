// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/staff-directory/auth"
	"github.com/danielhkuo/staff-directory/models"
	"github.com/danielhkuo/staff-directory/store"
	"github.com/danielhkuo/staff-directory/views"
)

type DashboardHandler struct {
	*Env
}

func NewDashboardHandler(env *Env) *DashboardHandler {
	return &DashboardHandler{Env: env}
}

type dashboardData struct {
	Stats       *models.DashboardStats
	Departments []models.Department
	StaffCount  int
	RecentStaff []models.Staff
}

// Dashboard handles GET /admin
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFrom(r.Context())
	ctx := r.Context()
	var data dashboardData

	if sess.IsAdmin() {
		stats, err := h.Store.DashboardStats(ctx)
		if err != nil {
			h.storeError(w, r, err, "Dashboard")
			return
		}
		data.Stats = &stats
	} else {
		depts, err := h.Store.ListDepartmentsForUser(ctx, sess.UserID, sess.Role)
		if err != nil {
			h.storeError(w, r, err, "Dashboard")
			return
		}
		data.Departments = depts

		ids := departmentIDs(depts)
		if data.StaffCount, err = h.Store.CountStaff(ctx, ids); err != nil {
			h.storeError(w, r, err, "Dashboard")
			return
		}
		if data.RecentStaff, err = h.Store.RecentStaff(ctx, ids, store.RecentLimit); err != nil {
			h.storeError(w, r, err, "Dashboard")
			return
		}
	}

	h.render(w, r, http.StatusOK, "dashboard", &views.Page{
		Title:  "Dashboard",
		Active: "dashboard",
		Data:   data,
	})
}

// MyDepartments handles GET /admin/my-departments
func (h *DashboardHandler) MyDepartments(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFrom(r.Context())
	ctx := r.Context()

	depts, err := h.Store.ListDepartmentsForUser(ctx, sess.UserID, sess.Role)
	if err != nil {
		h.storeError(w, r, err, "Departments")
		return
	}
	staff, err := h.Store.ListStaff(ctx, models.StaffFilter{DepartmentIDs: departmentIDs(depts)})
	if err != nil {
		h.storeError(w, r, err, "Staff")
		return
	}

	h.render(w, r, http.StatusOK, "my_departments", &views.Page{
		Title:  "My Departments",
		Active: "my-departments",
		Data: struct{ Groups []views.DepartmentGroup }{
			Groups: views.GroupStaffByDepartment(depts, staff),
		},
	})
}

// departmentIDs returns a non-nil id slice so an empty scope stays empty
func departmentIDs(depts []models.Department) []string {
	ids := make([]string, 0, len(depts))
	for _, d := range depts {
		ids = append(ids, d.ID)
	}
	return ids
}

// Help handles GET /admin/help
func (h *DashboardHandler) Help(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "help", &views.Page{
		Title:  "Help",
		Active: "help",
	})
}
