// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/danielhkuo/staff-directory/auth"
	"github.com/danielhkuo/staff-directory/middleware"
	"github.com/danielhkuo/staff-directory/models"
	"github.com/danielhkuo/staff-directory/store"
	"github.com/danielhkuo/staff-directory/views"
)

// NewStaffRows is how many blank rows the bulk add form shows.
const NewStaffRows = 5

type StaffHandler struct {
	*Env
}

func NewStaffHandler(env *Env) *StaffHandler {
	return &StaffHandler{Env: env}
}

type staffListData struct {
	Staff        []models.Staff
	Departments  []models.Department
	DepartmentID string
	Search       string
}

type staffFormData struct {
	Staff       models.Staff
	Departments []models.Department
}

type staffNewData struct {
	Departments  []models.Department
	DepartmentID string
	Rows         []int
}

// List handles GET /admin/staff
func (h *StaffHandler) List(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFrom(r.Context())
	ctx := r.Context()

	depts, err := h.Store.ListDepartmentsForUser(ctx, sess.UserID, sess.Role)
	if err != nil {
		h.storeError(w, r, err, "Departments")
		return
	}

	filter := models.StaffFilter{
		DepartmentID: r.URL.Query().Get("department_id"),
		Search:       strings.TrimSpace(r.URL.Query().Get("search")),
	}
	if !sess.IsAdmin() {
		filter.DepartmentIDs = departmentIDs(depts)
		if filter.DepartmentID != "" && !slices.Contains(filter.DepartmentIDs, filter.DepartmentID) {
			h.ErrorPage(w, r, http.StatusForbidden, "You do not have permission to view this department")
			return
		}
	}

	staff, err := h.Store.ListStaff(ctx, filter)
	if err != nil {
		h.storeError(w, r, err, "Staff")
		return
	}

	h.render(w, r, http.StatusOK, "staff", &views.Page{
		Title:  "Staff",
		Active: "staff",
		Data: staffListData{
			Staff:        staff,
			Departments:  depts,
			DepartmentID: filter.DepartmentID,
			Search:       filter.Search,
		},
	})
}

// New handles GET /admin/staff/new
func (h *StaffHandler) New(w http.ResponseWriter, r *http.Request) {
	h.newForm(w, r, http.StatusOK, r.URL.Query().Get("department_id"), "")
}

func (h *StaffHandler) newForm(w http.ResponseWriter, r *http.Request, status int, departmentID, errMsg string) {
	sess := auth.SessionFrom(r.Context())
	depts, err := h.Store.ListDepartmentsForUser(r.Context(), sess.UserID, sess.Role)
	if err != nil {
		h.storeError(w, r, err, "Departments")
		return
	}

	rows := make([]int, NewStaffRows)
	for i := range rows {
		rows[i] = i
	}
	h.render(w, r, status, "staff_new", &views.Page{
		Title:  "Add Staff",
		Active: "staff",
		Error:  errMsg,
		Data:   staffNewData{Departments: depts, DepartmentID: departmentID, Rows: rows},
	})
}

// staffRowsFromForm reads the parallel name[]/title[]/... arrays of the bulk
// add form. Head checkboxes carry the row index as their value.
func staffRowsFromForm(r *http.Request) []models.Staff {
	names := r.PostForm["name[]"]
	field := func(key string, i int) string {
		vals := r.PostForm[key]
		if i < len(vals) {
			return strings.TrimSpace(vals[i])
		}
		return ""
	}
	heads := map[string]bool{}
	for _, v := range r.PostForm["is_department_head[]"] {
		heads[v] = true
	}

	staff := make([]models.Staff, 0, len(names))
	for i := range names {
		staff = append(staff, models.Staff{
			Name:             field("name[]", i),
			Title:            field("title[]", i),
			Extension:        field("extension[]", i),
			RoomNumber:       field("room_number[]", i),
			Email:            field("email[]", i),
			IsDepartmentHead: heads[strconv.Itoa(i)],
		})
	}
	return staff
}

// Create handles POST /admin/staff
func (h *StaffHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFrom(r.Context())
	if err := r.ParseForm(); err != nil {
		h.ErrorPage(w, r, http.StatusBadRequest, "Invalid form")
		return
	}

	deptID := formValue(r, "department_id")
	if deptID == "" {
		h.newForm(w, r, http.StatusBadRequest, "", "Please select a department")
		return
	}
	if !h.canManage(w, r, sess, deptID) {
		return
	}

	added, err := h.Store.CreateStaffBulk(r.Context(), deptID, &sess.UserID, staffRowsFromForm(r))
	if err != nil {
		h.storeError(w, r, err, "Staff")
		return
	}
	if added == 0 {
		h.newForm(w, r, http.StatusBadRequest, deptID, "Please enter at least one staff member name")
		return
	}

	h.invalidateCache()
	slog.Info("staff added", "department_id", deptID, "count", added, "by", sess.Username)
	redirect(w, r, "/admin/staff?department_id="+deptID, flashInfo,
		fmt.Sprintf("Successfully added %d staff member(s)", added))
}

// loadManaged fetches a staff member the session may edit
func (h *StaffHandler) loadManaged(w http.ResponseWriter, r *http.Request, sess *auth.Session) (*models.Staff, bool) {
	st, err := h.Store.GetStaff(r.Context(), r.PathValue("id"))
	if err != nil {
		h.storeError(w, r, err, "Staff member")
		return nil, false
	}
	if !h.canManage(w, r, sess, st.DepartmentID) {
		return nil, false
	}
	return st, true
}

// Edit handles GET /admin/staff/{id}/edit
func (h *StaffHandler) Edit(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFrom(r.Context())
	st, ok := h.loadManaged(w, r, sess)
	if !ok {
		return
	}
	h.editForm(w, r, http.StatusOK, *st, "")
}

func (h *StaffHandler) editForm(w http.ResponseWriter, r *http.Request, status int, st models.Staff, errMsg string) {
	sess := auth.SessionFrom(r.Context())
	depts, err := h.Store.ListDepartmentsForUser(r.Context(), sess.UserID, sess.Role)
	if err != nil {
		h.storeError(w, r, err, "Departments")
		return
	}
	h.render(w, r, status, "staff_form", &views.Page{
		Title:  "Edit Staff Member",
		Active: "staff",
		Error:  errMsg,
		Data:   staffFormData{Staff: st, Departments: depts},
	})
}

// Update handles POST /admin/staff/{id}
func (h *StaffHandler) Update(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFrom(r.Context())
	st, ok := h.loadManaged(w, r, sess)
	if !ok {
		return
	}

	st.DepartmentID = formValue(r, "department_id")
	st.Name = formValue(r, "name")
	st.Title = formValue(r, "title")
	st.Extension = formValue(r, "extension")
	st.RoomNumber = formValue(r, "room_number")
	st.Email = formValue(r, "email")
	st.IsDepartmentHead = r.FormValue("is_department_head") != ""

	if st.Name == "" || st.DepartmentID == "" {
		h.editForm(w, r, http.StatusBadRequest, *st, "Name and department are required")
		return
	}
	// moving someone requires rights on the target department too
	if !h.canManage(w, r, sess, st.DepartmentID) {
		return
	}

	if err := h.Store.UpdateStaff(r.Context(), *st); err != nil {
		h.storeError(w, r, err, "Staff member")
		return
	}

	h.invalidateCache()
	slog.Info("staff updated", "staff_id", st.ID, "by", sess.Username)
	redirect(w, r, "/admin/staff?department_id="+st.DepartmentID, flashInfo, "Staff member updated successfully")
}

// Delete handles POST /admin/staff/{id}/delete
func (h *StaffHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFrom(r.Context())
	st, ok := h.loadManaged(w, r, sess)
	if !ok {
		return
	}

	if err := h.Store.DeleteStaff(r.Context(), st.ID); err != nil {
		h.storeError(w, r, err, "Staff member")
		return
	}

	h.invalidateCache()
	slog.Info("staff deleted", "staff_id", st.ID, "name", st.Name, "by", sess.Username)
	redirect(w, r, "/admin/staff", flashInfo, "Staff member deleted successfully")
}

// BulkDelete handles POST /admin/staff/bulk-delete
func (h *StaffHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFrom(r.Context())
	if err := r.ParseForm(); err != nil {
		h.ErrorPage(w, r, http.StatusBadRequest, "Invalid form")
		return
	}

	var ids []string
	for _, id := range r.PostForm["ids"] {
		if auth.ValidID(id) {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		redirect(w, r, "/admin/staff", flashError, "No staff members selected")
		return
	}

	n, err := h.Store.DeleteStaffBulk(r.Context(), ids)
	if err != nil {
		h.storeError(w, r, err, "Staff")
		return
	}

	h.invalidateCache()
	slog.Info("staff bulk deleted", "count", n, "by", sess.Username)
	redirect(w, r, "/admin/staff", flashInfo, fmt.Sprintf("Deleted %d staff member(s)", n))
}

// Get handles GET /admin/api/staff/{id}
func (h *StaffHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFrom(r.Context())
	st, err := h.Store.GetStaff(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Staff member not found")
		return
	}
	if err != nil {
		slog.Error("failed to get staff", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	ok, err := h.Store.CanManageDepartment(r.Context(), sess.UserID, sess.Role, st.DepartmentID)
	if err != nil {
		slog.Error("failed to check department access", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !ok {
		middleware.ErrorResponse(w, http.StatusForbidden, "Access denied")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.StaffDetailResponse{
		ID:             st.ID,
		DepartmentID:   st.DepartmentID,
		Name:           st.Name,
		Title:          st.Title,
		Extension:      st.Extension,
		RoomNumber:     st.RoomNumber,
		DepartmentName: st.DepartmentName,
	})
}
