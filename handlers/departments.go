// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/staff-directory/auth"
	"github.com/danielhkuo/staff-directory/models"
	"github.com/danielhkuo/staff-directory/store"
	"github.com/danielhkuo/staff-directory/views"
)

type DepartmentHandler struct {
	*Env
}

func NewDepartmentHandler(env *Env) *DepartmentHandler {
	return &DepartmentHandler{Env: env}
}

type departmentForm struct {
	Department models.Department
	IsNew      bool
}

// List handles GET /admin/departments
func (h *DepartmentHandler) List(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFrom(r.Context())
	depts, err := h.Store.ListDepartmentsForUser(r.Context(), sess.UserID, sess.Role)
	if err != nil {
		h.storeError(w, r, err, "Departments")
		return
	}
	h.render(w, r, http.StatusOK, "departments", &views.Page{
		Title:  "Departments",
		Active: "departments",
		Data:   struct{ Departments []models.Department }{depts},
	})
}

// New handles GET /admin/departments/new
func (h *DepartmentHandler) New(w http.ResponseWriter, r *http.Request) {
	h.form(w, r, http.StatusOK, departmentForm{IsNew: true}, "")
}

func (h *DepartmentHandler) form(w http.ResponseWriter, r *http.Request, status int, data departmentForm, errMsg string) {
	title := "Edit Department"
	if data.IsNew {
		title = "Add Department"
	}
	h.render(w, r, status, "department_form", &views.Page{
		Title:  title,
		Active: "departments",
		Error:  errMsg,
		Data:   data,
	})
}

func departmentFromForm(r *http.Request) models.Department {
	return models.Department{
		Name:        formValue(r, "department_name"),
		Extension:   formValue(r, "extension"),
		Building:    formValue(r, "building"),
		RoomNumber:  formValue(r, "room_number"),
		Description: formValue(r, "description"),
	}
}

// Create handles POST /admin/departments
func (h *DepartmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFrom(r.Context())
	d := departmentFromForm(r)
	if d.Name == "" {
		h.form(w, r, http.StatusBadRequest, departmentForm{Department: d, IsNew: true}, "Department name is required")
		return
	}
	d.CreatedBy = &sess.UserID

	err := h.Store.CreateDepartment(r.Context(), &d)
	if errors.Is(err, store.ErrDuplicate) {
		h.form(w, r, http.StatusConflict, departmentForm{Department: d, IsNew: true}, "A department with this name already exists")
		return
	}
	if err != nil {
		h.storeError(w, r, err, "Department")
		return
	}

	h.invalidateCache()
	slog.Info("department created", "department_id", d.ID, "name", d.Name, "by", sess.Username)
	redirect(w, r, "/admin/departments", flashInfo, "Department added successfully")
}

// Edit handles GET /admin/departments/{id}/edit
func (h *DepartmentHandler) Edit(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFrom(r.Context())
	id := r.PathValue("id")
	if !h.canManage(w, r, sess, id) {
		return
	}

	d, err := h.Store.GetDepartment(r.Context(), id)
	if err != nil {
		h.storeError(w, r, err, "Department")
		return
	}
	h.form(w, r, http.StatusOK, departmentForm{Department: *d}, "")
}

// Update handles POST /admin/departments/{id}
func (h *DepartmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFrom(r.Context())
	id := r.PathValue("id")
	if !h.canManage(w, r, sess, id) {
		return
	}

	d := departmentFromForm(r)
	d.ID = id
	if d.Name == "" {
		h.form(w, r, http.StatusBadRequest, departmentForm{Department: d}, "Department name is required")
		return
	}

	err := h.Store.UpdateDepartment(r.Context(), d)
	if errors.Is(err, store.ErrDuplicate) {
		h.form(w, r, http.StatusConflict, departmentForm{Department: d}, "A department with this name already exists")
		return
	}
	if err != nil {
		h.storeError(w, r, err, "Department")
		return
	}

	h.invalidateCache()
	slog.Info("department updated", "department_id", id, "by", sess.Username)

	target := "/admin/departments"
	if !sess.IsAdmin() {
		target = "/admin/my-departments"
	}
	redirect(w, r, target, flashInfo, "Department updated successfully")
}

// Delete handles POST /admin/departments/{id}/delete
func (h *DepartmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFrom(r.Context())
	id := r.PathValue("id")

	err := h.Store.DeleteDepartment(r.Context(), id)
	if errors.Is(err, store.ErrDepartmentNotEmpty) {
		redirect(w, r, "/admin/departments", flashError, "Cannot delete a department that still has staff members")
		return
	}
	if err != nil {
		h.storeError(w, r, err, "Department")
		return
	}

	h.invalidateCache()
	slog.Info("department deleted", "department_id", id, "by", sess.Username)
	redirect(w, r, "/admin/departments", flashInfo, "Department deleted successfully")
}
