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

type UserHandler struct {
	*Env
}

func NewUserHandler(env *Env) *UserHandler {
	return &UserHandler{Env: env}
}

type userFormData struct {
	User        models.User
	IsNew       bool
	Departments []models.Department
	Assigned    []string
}

// List handles GET /admin/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.Store.ListUsers(r.Context())
	if err != nil {
		h.storeError(w, r, err, "Users")
		return
	}
	h.render(w, r, http.StatusOK, "users", &views.Page{
		Title:  "Users",
		Active: "users",
		Data:   struct{ Users []models.UserSummary }{users},
	})
}

// New handles GET /admin/users/new
func (h *UserHandler) New(w http.ResponseWriter, r *http.Request) {
	h.form(w, r, http.StatusOK, userFormData{
		User:  models.User{Role: models.RoleDepartmentManager},
		IsNew: true,
	}, "")
}

func (h *UserHandler) form(w http.ResponseWriter, r *http.Request, status int, data userFormData, errMsg string) {
	depts, err := h.Store.ListDepartments(r.Context())
	if err != nil {
		h.storeError(w, r, err, "Departments")
		return
	}
	data.Departments = depts

	title := "Edit User"
	if data.IsNew {
		title = "Add User"
	}
	h.render(w, r, status, "user_form", &views.Page{
		Title:  title,
		Active: "users",
		Error:  errMsg,
		Data:   data,
	})
}

func userFromForm(r *http.Request) (models.User, string, []string) {
	if err := r.ParseForm(); err != nil {
		slog.Debug("failed to parse user form", "error", err)
	}
	u := models.User{
		Username: formValue(r, "username"),
		Email:    formValue(r, "email"),
		Role:     formValue(r, "role"),
	}
	return u, r.FormValue("password"), r.PostForm["departments"]
}

// userFormError turns a validation or store error into a form message
func userFormError(err error) (int, string, bool) {
	switch {
	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict, "Username already exists", true
	case errors.Is(err, store.ErrInvalidRole):
		return http.StatusBadRequest, "Invalid role", true
	case errors.Is(err, auth.ErrPasswordTooShort):
		return http.StatusBadRequest, "Password must be at least 8 characters", true
	case errors.Is(err, store.ErrInvalidReference):
		return http.StatusBadRequest, "The selected department does not exist", true
	}
	return 0, "", false
}

// Create handles POST /admin/users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFrom(r.Context())
	u, password, deptIDs := userFromForm(r)
	data := userFormData{User: u, IsNew: true, Assigned: deptIDs}

	if u.Username == "" || password == "" {
		h.form(w, r, http.StatusBadRequest, data, "Username and password are required")
		return
	}

	err := h.Store.CreateUser(r.Context(), &u, password, deptIDs, sess.UserID)
	if status, msg, ok := userFormError(err); ok {
		h.form(w, r, status, data, msg)
		return
	}
	if err != nil {
		h.storeError(w, r, err, "User")
		return
	}

	slog.Info("user created", "user_id", u.ID, "username", u.Username, "role", u.Role, "by", sess.Username)
	redirect(w, r, "/admin/users", flashInfo, "User created successfully")
}

// Edit handles GET /admin/users/{id}/edit
func (h *UserHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	u, err := h.Store.GetUser(r.Context(), id)
	if err != nil {
		h.storeError(w, r, err, "User")
		return
	}
	assigned, err := h.Store.AssignedDepartmentIDs(r.Context(), id)
	if err != nil {
		h.storeError(w, r, err, "User")
		return
	}
	h.form(w, r, http.StatusOK, userFormData{User: *u, Assigned: assigned}, "")
}

// Update handles POST /admin/users/{id}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFrom(r.Context())
	u, password, deptIDs := userFromForm(r)
	u.ID = r.PathValue("id")
	data := userFormData{User: u, Assigned: deptIDs}

	if u.Username == "" {
		h.form(w, r, http.StatusBadRequest, data, "Username is required")
		return
	}
	if u.ID == sess.UserID && u.Role != models.RoleAdmin {
		h.form(w, r, http.StatusBadRequest, data, "You cannot remove your own administrator role")
		return
	}

	err := h.Store.UpdateUser(r.Context(), u, password, deptIDs, sess.UserID)
	if status, msg, ok := userFormError(err); ok {
		h.form(w, r, status, data, msg)
		return
	}
	if err != nil {
		h.storeError(w, r, err, "User")
		return
	}

	slog.Info("user updated", "user_id", u.ID, "role", u.Role, "password_changed", password != "", "by", sess.Username)
	redirect(w, r, "/admin/users", flashInfo, "User updated successfully")
}

// Delete handles POST /admin/users/{id}/delete
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFrom(r.Context())
	id := r.PathValue("id")

	err := h.Store.DeleteUser(r.Context(), id, sess.UserID)
	switch {
	case errors.Is(err, store.ErrSelfDelete):
		redirect(w, r, "/admin/users", flashError, "You cannot delete your own account")
		return
	case errors.Is(err, store.ErrUserInUse):
		redirect(w, r, "/admin/users", flashError, "Cannot delete a user who has created departments or added staff")
		return
	case err != nil:
		h.storeError(w, r, err, "User")
		return
	}

	slog.Info("user deleted", "user_id", id, "by", sess.Username)
	redirect(w, r, "/admin/users", flashInfo, "User deleted successfully")
}
