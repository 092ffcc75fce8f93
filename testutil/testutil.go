// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danielhkuo/staff-directory/auth"
	"github.com/danielhkuo/staff-directory/cliparse"
	"github.com/danielhkuo/staff-directory/db"
	"github.com/danielhkuo/staff-directory/models"
)

// TestPassword is the password given to every user made by CreateTestUser.
const TestPassword = "password123"

// testSecret signs sessions in tests.
const testSecret = "test-session-secret-0123456789"

// SetupTestDB creates a fresh SQLite database in a temp dir with the full schema
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "directory.db")
	conn, err := sql.Open(db.DriverSQLite, db.SQLiteDSN(path))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig(t *testing.T) cliparse.Config {
	t.Helper()
	return cliparse.Config{
		Port:               3318,
		DatabaseURL:        ":memory:",
		DatabaseType:       "sqlite",
		SessionSecret:      testSecret,
		SessionTTL:         time.Hour,
		CacheDir:           t.TempDir(),
		CacheTTL:           15 * time.Minute,
		BaseURL:            "http://directory.test",
		LoginRatePerMinute: 1000,
	}
}

// CreateTestUser inserts a user with TestPassword and returns its ID
func CreateTestUser(t *testing.T, conn *sql.DB, username, role string) string {
	t.Helper()

	hash, err := auth.HashPassword(TestPassword)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	id := auth.NewID()
	_, err = conn.Exec(`
		INSERT INTO users (id, username, password_hash, role, email)
		VALUES ($1, $2, $3, $4, $5)
	`, id, username, hash, role, username+"@example.edu")
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return id
}

// CreateTestDepartment inserts a department and returns its ID
func CreateTestDepartment(t *testing.T, conn *sql.DB, name, extension, building string) string {
	t.Helper()

	id := auth.NewID()
	_, err := conn.Exec(`
		INSERT INTO departments (id, department_name, extension, building, room_number)
		VALUES ($1, $2, $3, $4, $5)
	`, id, name, extension, building, building+" 100")
	if err != nil {
		t.Fatalf("Failed to create test department: %v", err)
	}

	return id
}

// CreateTestStaff inserts a staff member and returns its ID
func CreateTestStaff(t *testing.T, conn *sql.DB, departmentID, name, title, extension string) string {
	t.Helper()

	id := auth.NewID()
	email := strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.edu"
	_, err := conn.Exec(`
		INSERT INTO staff (id, department_id, name, title, extension, email, room_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, id, departmentID, name, title, extension, email, "101")
	if err != nil {
		t.Fatalf("Failed to create test staff: %v", err)
	}

	return id
}

// AssignDepartment gives a department manager access to a department
func AssignDepartment(t *testing.T, conn *sql.DB, userID, departmentID string) {
	t.Helper()

	_, err := conn.Exec(`
		INSERT INTO user_departments (user_id, department_id) VALUES ($1, $2)
	`, userID, departmentID)
	if err != nil {
		t.Fatalf("Failed to assign department: %v", err)
	}
}

// LoginCookie issues a session for the user and returns the cookie and its
// CSRF token
func LoginCookie(t *testing.T, cfg cliparse.Config, userID, username, role string) (*http.Cookie, string) {
	t.Helper()

	m := auth.NewSessionManager(cfg.SessionSecret, cfg.SessionTTL)
	token, sess, err := m.Issue(models.User{ID: userID, Username: username, Role: role})
	if err != nil {
		t.Fatalf("Failed to issue session: %v", err)
	}

	return &http.Cookie{Name: auth.CookieName, Value: token}, sess.CSRFToken
}

// MakeFormRequest creates a urlencoded form request, optionally with a
// session cookie
func MakeFormRequest(method, path string, form url.Values, cookie *http.Cookie) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}

// AssertContains checks that the response body contains each substring
func AssertContains(t *testing.T, w *httptest.ResponseRecorder, substrings ...string) {
	t.Helper()
	body := w.Body.String()
	for _, s := range substrings {
		if !strings.Contains(body, s) {
			t.Errorf("Expected body to contain %q. Body: %s", s, body)
		}
	}
}
