// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/danielhkuo/staff-directory/auth"
	"github.com/danielhkuo/staff-directory/models"
	"github.com/danielhkuo/staff-directory/store"
	"github.com/danielhkuo/staff-directory/testutil"
)

// newTestEnv builds an Env on a fresh SQLite database
func newTestEnv(t *testing.T) (*Env, *sql.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	env, err := NewEnv(context.Background(), db, testutil.GetTestConfig(t))
	if err != nil {
		t.Fatalf("NewEnv() error = %v", err)
	}
	return env, db
}

// asUser attaches a session to req the way RequireLogin does
func asUser(req *http.Request, userID, username, role string) *http.Request {
	sess := &auth.Session{UserID: userID, Username: username, Role: role, CSRFToken: "test-csrf"}
	return req.WithContext(auth.WithSession(req.Context(), sess))
}

// formAs builds a form POST for a signed-in user
func formAs(method, path string, form url.Values, userID, username, role string) *http.Request {
	return asUser(testutil.MakeFormRequest(method, path, form, nil), userID, username, role)
}

// fixture is a small directory: two departments, one manager assigned to the first
type fixture struct {
	adminID   string
	managerID string
	biology   string
	chemistry string
	aliceID   string
	bobID     string
}

func seed(t *testing.T, db *sql.DB) fixture {
	t.Helper()
	f := fixture{
		adminID:   testutil.CreateTestUser(t, db, "admin", models.RoleAdmin),
		managerID: testutil.CreateTestUser(t, db, "manager", models.RoleDepartmentManager),
		biology:   testutil.CreateTestDepartment(t, db, "Biology", "1200", "SCI"),
		chemistry: testutil.CreateTestDepartment(t, db, "Chemistry", "1300", "LAB"),
	}
	testutil.AssignDepartment(t, db, f.managerID, f.biology)
	f.aliceID = testutil.CreateTestStaff(t, db, f.biology, "Alice Adams", "Professor", "1201")
	f.bobID = testutil.CreateTestStaff(t, db, f.chemistry, "Bob Brown", "Lab Manager", "1301")
	return f
}

func TestSafeNext(t *testing.T) {
	tests := []struct {
		next string
		want string
	}{
		{"/admin/staff", "/admin/staff"},
		{"", "/admin"},
		{"https://evil.example", "/admin"},
		{"//evil.example", "/admin"},
		{"/\\evil.example", "/admin"},
	}
	for _, tt := range tests {
		if got := safeNext(tt.next, "/admin"); got != tt.want {
			t.Errorf("safeNext(%q) = %q, want %q", tt.next, got, tt.want)
		}
	}
}

func TestFlashRoundTrip(t *testing.T) {
	w := httptest.NewRecorder()
	setFlash(w, flashError, "Something went wrong")

	req := httptest.NewRequest("GET", "/admin", nil)
	for _, c := range w.Result().Cookies() {
		req.AddCookie(c)
	}

	w = httptest.NewRecorder()
	info, errMsg := popFlash(w, req)
	if info != "" || errMsg != "Something went wrong" {
		t.Errorf("popFlash() = (%q, %q), want error message", info, errMsg)
	}
	if c := w.Result().Cookies(); len(c) != 1 || c[0].MaxAge >= 0 {
		t.Error("popFlash() should expire the flash cookie")
	}

	// no cookie, no message
	info, errMsg = popFlash(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	if info != "" || errMsg != "" {
		t.Errorf("popFlash() without cookie = (%q, %q)", info, errMsg)
	}
}

func TestRedirectShowsFlashOnNextPage(t *testing.T) {
	env, db := newTestEnv(t)
	f := seed(t, db)

	w := httptest.NewRecorder()
	redirect(w, httptest.NewRequest("POST", "/x", nil), "/admin/departments", flashInfo, "Saved it")
	testutil.AssertStatus(t, w, http.StatusSeeOther)

	req := asUser(httptest.NewRequest("GET", "/admin/departments", nil), f.adminID, "admin", models.RoleAdmin)
	for _, c := range w.Result().Cookies() {
		req.AddCookie(c)
	}
	w = httptest.NewRecorder()
	NewDepartmentHandler(env).List(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.AssertContains(t, w, "Saved it")
}

func TestStoreErrorStatus(t *testing.T) {
	env, _ := newTestEnv(t)

	tests := []struct {
		err  error
		want int
	}{
		{store.ErrNotFound, http.StatusNotFound},
		{store.ErrDuplicate, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		env.storeError(w, httptest.NewRequest("GET", "/admin", nil), tt.err, "Thing")
		testutil.AssertStatus(t, w, tt.want)
	}
}

func TestNewEnvWithoutGraph(t *testing.T) {
	env, _ := newTestEnv(t)
	if env.Graph != nil {
		t.Error("Graph client should be nil without credentials")
	}
	if env.Cache == nil || env.Pending == nil || env.Views == nil {
		t.Error("NewEnv left a collaborator unset")
	}
}
