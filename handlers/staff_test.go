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

// unknownDepartment is a well-formed id that no department has
const unknownDepartment = "00000000-0000-4000-8000-000000000000"

func TestStaffList(t *testing.T) {
	env, db := newTestEnv(t)
	f := seed(t, db)
	h := NewStaffHandler(env)

	tests := []struct {
		name         string
		userID       string
		role         string
		query        string
		expectedCode int
		contains     []string
		excludes     []string
	}{
		{
			name:         "admin sees everyone",
			userID:       f.adminID,
			role:         models.RoleAdmin,
			expectedCode: http.StatusOK,
			contains:     []string{"Alice Adams", "Bob Brown", "Delete Selected"},
		},
		{
			name:         "admin filters by department",
			userID:       f.adminID,
			role:         models.RoleAdmin,
			query:        "?department_id=" + f.chemistry,
			expectedCode: http.StatusOK,
			contains:     []string{"Bob Brown"},
			excludes:     []string{"Alice Adams"},
		},
		{
			name:         "admin searches",
			userID:       f.adminID,
			role:         models.RoleAdmin,
			query:        "?search=alice",
			expectedCode: http.StatusOK,
			contains:     []string{"Alice Adams"},
			excludes:     []string{"Bob Brown"},
		},
		{
			name:         "manager is scoped",
			userID:       f.managerID,
			role:         models.RoleDepartmentManager,
			expectedCode: http.StatusOK,
			contains:     []string{"Alice Adams"},
			excludes:     []string{"Bob Brown", "Delete Selected"},
		},
		{
			name:         "manager asks for another department",
			userID:       f.managerID,
			role:         models.RoleDepartmentManager,
			query:        "?department_id=" + f.chemistry,
			expectedCode: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.List(w, asUser(httptest.NewRequest("GET", "/admin/staff"+tt.query, nil), tt.userID, "someone", tt.role))

			testutil.AssertStatus(t, w, tt.expectedCode)
			testutil.AssertContains(t, w, tt.contains...)
			for _, s := range tt.excludes {
				if strings.Contains(w.Body.String(), s) {
					t.Errorf("body should not contain %q", s)
				}
			}
		})
	}
}

func TestStaffCreateBulk(t *testing.T) {
	env, db := newTestEnv(t)
	f := seed(t, db)
	h := NewStaffHandler(env)
	ctx := context.Background()

	form := url.Values{
		"department_id":        {f.biology},
		"name[]":               {"Carol Chen", "", "Dan Diaz"},
		"title[]":              {"Chair", "", "Advisor"},
		"extension[]":          {"1202", "", "1203"},
		"room_number[]":        {"SCI 110", "", ""},
		"email[]":              {"carol@example.edu", "", ""},
		"is_department_head[]": {"0"},
	}

	w := httptest.NewRecorder()
	h.Create(w, formAs("POST", "/admin/staff", form, f.managerID, "manager", models.RoleDepartmentManager))
	testutil.AssertStatus(t, w, http.StatusSeeOther)

	staff, err := env.Store.ListStaff(ctx, models.StaffFilter{DepartmentID: f.biology})
	if err != nil {
		t.Fatal(err)
	}
	if len(staff) != 3 {
		t.Fatalf("expected 3 staff in Biology, got %d", len(staff))
	}
	// head first
	if staff[0].Name != "Carol Chen" || !staff[0].IsDepartmentHead {
		t.Errorf("first staff = %+v, want Carol Chen as head", staff[0])
	}
	if staff[0].AddedBy == nil || *staff[0].AddedBy != f.managerID {
		t.Error("AddedBy should record the manager")
	}

	t.Run("manager cannot add to other department", func(t *testing.T) {
		form := url.Values{"department_id": {f.chemistry}, "name[]": {"Eve"}}
		w := httptest.NewRecorder()
		h.Create(w, formAs("POST", "/admin/staff", form, f.managerID, "manager", models.RoleDepartmentManager))
		testutil.AssertStatus(t, w, http.StatusForbidden)
	})

	t.Run("no names", func(t *testing.T) {
		form := url.Values{"department_id": {f.biology}, "name[]": {"", " "}}
		w := httptest.NewRecorder()
		h.Create(w, formAs("POST", "/admin/staff", form, f.adminID, "admin", models.RoleAdmin))
		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})

	t.Run("unknown department", func(t *testing.T) {
		form := url.Values{"department_id": {unknownDepartment}, "name[]": {"Eve"}}
		w := httptest.NewRecorder()
		h.Create(w, formAs("POST", "/admin/staff", form, f.adminID, "admin", models.RoleAdmin))
		testutil.AssertStatus(t, w, http.StatusBadRequest)
		testutil.AssertContains(t, w, "does not exist")
	})

	t.Run("no department", func(t *testing.T) {
		form := url.Values{"name[]": {"Eve"}}
		w := httptest.NewRecorder()
		h.Create(w, formAs("POST", "/admin/staff", form, f.adminID, "admin", models.RoleAdmin))
		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})
}

func TestStaffUpdate(t *testing.T) {
	env, db := newTestEnv(t)
	f := seed(t, db)
	h := NewStaffHandler(env)

	update := func(staffID, userID, role string, form url.Values) *httptest.ResponseRecorder {
		req := formAs("POST", "/admin/staff/"+staffID, form, userID, "someone", role)
		req.SetPathValue("id", staffID)
		w := httptest.NewRecorder()
		h.Update(w, req)
		return w
	}

	w := update(f.aliceID, f.managerID, models.RoleDepartmentManager, url.Values{
		"department_id": {f.biology}, "name": {"Alice Adams-Lee"}, "title": {"Dean"}, "extension": {"1299"},
	})
	testutil.AssertStatus(t, w, http.StatusSeeOther)

	st, err := env.Store.GetStaff(context.Background(), f.aliceID)
	if err != nil {
		t.Fatal(err)
	}
	if st.Name != "Alice Adams-Lee" || st.Title != "Dean" || st.Extension != "1299" {
		t.Errorf("update not applied: %+v", st)
	}

	// moving into a department the manager does not own
	w = update(f.aliceID, f.managerID, models.RoleDepartmentManager, url.Values{
		"department_id": {f.chemistry}, "name": {"Alice"},
	})
	testutil.AssertStatus(t, w, http.StatusForbidden)

	// editing staff outside the scope
	w = update(f.bobID, f.managerID, models.RoleDepartmentManager, url.Values{
		"department_id": {f.chemistry}, "name": {"Bob"},
	})
	testutil.AssertStatus(t, w, http.StatusForbidden)

	w = update(f.bobID, f.adminID, models.RoleAdmin, url.Values{"department_id": {f.chemistry}})
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	w = update(f.bobID, f.adminID, models.RoleAdmin, url.Values{"department_id": {unknownDepartment}, "name": {"Bob"}})
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	testutil.AssertStatus(t, update("missing", f.adminID, models.RoleAdmin, url.Values{}), http.StatusNotFound)
}

func TestStaffDelete(t *testing.T) {
	env, db := newTestEnv(t)
	f := seed(t, db)
	h := NewStaffHandler(env)

	del := func(staffID, userID, role string) int {
		req := formAs("POST", "/admin/staff/"+staffID+"/delete", nil, userID, "someone", role)
		req.SetPathValue("id", staffID)
		w := httptest.NewRecorder()
		h.Delete(w, req)
		return w.Code
	}

	if code := del(f.bobID, f.managerID, models.RoleDepartmentManager); code != http.StatusForbidden {
		t.Errorf("manager deleting outside scope = %d, want 403", code)
	}
	if code := del(f.aliceID, f.managerID, models.RoleDepartmentManager); code != http.StatusSeeOther {
		t.Errorf("manager deleting own staff = %d, want 303", code)
	}
	if _, err := env.Store.GetStaff(context.Background(), f.aliceID); err == nil {
		t.Error("staff member still exists")
	}
}

func TestStaffBulkDelete(t *testing.T) {
	env, db := newTestEnv(t)
	f := seed(t, db)
	h := NewStaffHandler(env)

	form := url.Values{"ids": {f.aliceID, f.bobID, "not-a-uuid"}}
	w := httptest.NewRecorder()
	h.BulkDelete(w, formAs("POST", "/admin/staff/bulk-delete", form, f.adminID, "admin", models.RoleAdmin))
	testutil.AssertStatus(t, w, http.StatusSeeOther)

	n, err := env.Store.CountStaff(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("expected no staff left, got %d", n)
	}

	w = httptest.NewRecorder()
	h.BulkDelete(w, formAs("POST", "/admin/staff/bulk-delete", url.Values{}, f.adminID, "admin", models.RoleAdmin))
	testutil.AssertStatus(t, w, http.StatusSeeOther)
}

func TestStaffGetJSON(t *testing.T) {
	env, db := newTestEnv(t)
	f := seed(t, db)
	h := NewStaffHandler(env)

	get := func(staffID, userID, role string) *httptest.ResponseRecorder {
		req := asUser(httptest.NewRequest("GET", "/admin/api/staff/"+staffID, nil), userID, "someone", role)
		req.SetPathValue("id", staffID)
		w := httptest.NewRecorder()
		h.Get(w, req)
		return w
	}

	w := get(f.aliceID, f.managerID, models.RoleDepartmentManager)
	testutil.AssertStatus(t, w, http.StatusOK)
	var resp models.StaffDetailResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Name != "Alice Adams" || resp.DepartmentName != "Biology" {
		t.Errorf("unexpected response: %+v", resp)
	}

	testutil.AssertStatus(t, get(f.bobID, f.managerID, models.RoleDepartmentManager), http.StatusForbidden)
	testutil.AssertStatus(t, get("missing", f.adminID, models.RoleAdmin), http.StatusNotFound)
}
