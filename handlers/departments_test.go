// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/danielhkuo/staff-directory/models"
	"github.com/danielhkuo/staff-directory/testutil"
)

func TestDepartmentList(t *testing.T) {
	env, db := newTestEnv(t)
	f := seed(t, db)
	h := NewDepartmentHandler(env)

	t.Run("admin sees every department", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.List(w, asUser(httptest.NewRequest("GET", "/admin/departments", nil), f.adminID, "admin", models.RoleAdmin))
		testutil.AssertStatus(t, w, http.StatusOK)
		testutil.AssertContains(t, w, "Biology", "Chemistry", "Add Department")
	})

	t.Run("manager sees assigned departments", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.List(w, asUser(httptest.NewRequest("GET", "/admin/departments", nil), f.managerID, "manager", models.RoleDepartmentManager))
		testutil.AssertStatus(t, w, http.StatusOK)
		testutil.AssertContains(t, w, "Biology")
		if strings.Contains(w.Body.String(), "Chemistry") || strings.Contains(w.Body.String(), "Add Department") {
			t.Error("manager should only see their own department and no admin actions")
		}
	})
}

func TestDepartmentCreate(t *testing.T) {
	env, db := newTestEnv(t)
	f := seed(t, db)
	h := NewDepartmentHandler(env)

	tests := []struct {
		name         string
		form         url.Values
		expectedCode int
	}{
		{
			name:         "valid department",
			form:         url.Values{"department_name": {"Physics"}, "extension": {"1400"}, "building": {"PHY"}},
			expectedCode: http.StatusSeeOther,
		},
		{
			name:         "missing name",
			form:         url.Values{"department_name": {"  "}},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "duplicate name",
			form:         url.Values{"department_name": {"Biology"}},
			expectedCode: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.Create(w, formAs("POST", "/admin/departments", tt.form, f.adminID, "admin", models.RoleAdmin))
			testutil.AssertStatus(t, w, tt.expectedCode)
		})
	}

	d, err := env.Store.GetDepartmentByName(context.Background(), "Physics")
	if err != nil {
		t.Fatalf("created department not found: %v", err)
	}
	if d.CreatedBy == nil || *d.CreatedBy != f.adminID {
		t.Errorf("CreatedBy = %v, want %s", d.CreatedBy, f.adminID)
	}
}

func TestDepartmentUpdate(t *testing.T) {
	env, db := newTestEnv(t)
	f := seed(t, db)
	h := NewDepartmentHandler(env)

	tests := []struct {
		name         string
		userID       string
		role         string
		deptID       string
		form         url.Values
		expectedCode int
		location     string
	}{
		{
			name:         "manager edits own department",
			userID:       f.managerID,
			role:         models.RoleDepartmentManager,
			deptID:       f.biology,
			form:         url.Values{"department_name": {"Biology"}, "extension": {"1299"}},
			expectedCode: http.StatusSeeOther,
			location:     "/admin/my-departments",
		},
		{
			name:         "manager cannot edit other department",
			userID:       f.managerID,
			role:         models.RoleDepartmentManager,
			deptID:       f.chemistry,
			form:         url.Values{"department_name": {"Chemistry"}},
			expectedCode: http.StatusForbidden,
		},
		{
			name:         "admin renames department",
			userID:       f.adminID,
			role:         models.RoleAdmin,
			deptID:       f.chemistry,
			form:         url.Values{"department_name": {"Chemistry & Biochemistry"}},
			expectedCode: http.StatusSeeOther,
			location:     "/admin/departments",
		},
		{
			name:         "rename onto existing name",
			userID:       f.adminID,
			role:         models.RoleAdmin,
			deptID:       f.chemistry,
			form:         url.Values{"department_name": {"Biology"}},
			expectedCode: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := formAs("POST", "/admin/departments/"+tt.deptID, tt.form, tt.userID, "someone", tt.role)
			req.SetPathValue("id", tt.deptID)
			w := httptest.NewRecorder()
			h.Update(w, req)

			testutil.AssertStatus(t, w, tt.expectedCode)
			if tt.location != "" && w.Header().Get("Location") != tt.location {
				t.Errorf("Location = %q, want %q", w.Header().Get("Location"), tt.location)
			}
		})
	}

	d, _ := env.Store.GetDepartment(context.Background(), f.biology)
	if d.Extension != "1299" {
		t.Errorf("Extension = %q, want 1299", d.Extension)
	}
}

func TestDepartmentDelete(t *testing.T) {
	env, db := newTestEnv(t)
	f := seed(t, db)
	h := NewDepartmentHandler(env)
	empty := testutil.CreateTestDepartment(t, db, "Empty", "", "")

	del := func(id string) *httptest.ResponseRecorder {
		req := formAs("POST", "/admin/departments/"+id+"/delete", nil, f.adminID, "admin", models.RoleAdmin)
		req.SetPathValue("id", id)
		w := httptest.NewRecorder()
		h.Delete(w, req)
		return w
	}

	// refused while staff remain
	w := del(f.biology)
	testutil.AssertStatus(t, w, http.StatusSeeOther)
	if _, err := env.Store.GetDepartment(context.Background(), f.biology); err != nil {
		t.Errorf("department with staff was deleted: %v", err)
	}

	w = del(empty)
	testutil.AssertStatus(t, w, http.StatusSeeOther)
	if _, err := env.Store.GetDepartment(context.Background(), empty); err == nil {
		t.Error("empty department was not deleted")
	}

	testutil.AssertStatus(t, del("missing-id"), http.StatusNotFound)
}
