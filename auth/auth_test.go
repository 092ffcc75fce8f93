// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/danielhkuo/staff-directory/models"
)

func TestGenerateToken(t *testing.T) {
	tests := []struct {
		name    string
		byteLen int
		wantLen int // hex encoded length = byteLen * 2
	}{
		{"8 bytes", 8, 16},
		{"16 bytes", 16, 32},
		{"24 bytes", 24, 48},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok, err := GenerateToken(tt.byteLen)
			if err != nil {
				t.Fatalf("GenerateToken() error = %v", err)
			}
			if len(tok) != tt.wantLen {
				t.Errorf("GenerateToken() length = %d, want %d", len(tok), tt.wantLen)
			}
			// Verify it's valid hex
			for _, c := range tok {
				if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
					t.Errorf("GenerateToken() contains invalid hex char: %c", c)
				}
			}
		})
	}

	// Test randomness - two tokens should be different
	t1, _ := GenerateToken(16)
	t2, _ := GenerateToken(16)
	if t1 == t2 {
		t.Error("GenerateToken() produced duplicate tokens (extremely unlikely)")
	}
}

func TestNewID(t *testing.T) {
	id := NewID()
	if !ValidID(id) {
		t.Errorf("NewID() = %q is not a valid id", id)
	}
	if NewID() == id {
		t.Error("NewID() produced duplicate IDs")
	}
	if ValidID("not-an-id") {
		t.Error("ValidID accepted garbage")
	}
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "correct horse" || !strings.HasPrefix(hash, "$2") {
		t.Errorf("HashPassword() did not produce a bcrypt hash: %q", hash)
	}

	if err := CheckPassword(hash, "correct horse"); err != nil {
		t.Errorf("CheckPassword() rejected the right password: %v", err)
	}
	if err := CheckPassword(hash, "wrong horse"); err != ErrInvalidCredentials {
		t.Errorf("CheckPassword() = %v, want ErrInvalidCredentials", err)
	}
	if err := CheckPassword("not-a-hash", "anything"); err != ErrInvalidCredentials {
		t.Errorf("CheckPassword() with garbage hash = %v, want ErrInvalidCredentials", err)
	}

	if _, err := HashPassword("short"); err != ErrPasswordTooShort {
		t.Errorf("HashPassword(short) = %v, want ErrPasswordTooShort", err)
	}
}

func TestRejectPassword(t *testing.T) {
	if err := RejectPassword("correct horse"); err != ErrInvalidCredentials {
		t.Errorf("RejectPassword() = %v, want ErrInvalidCredentials", err)
	}
	if _, err := bcrypt.Cost(dummyHash()); err != nil {
		t.Errorf("dummy hash is not a bcrypt hash: %v", err)
	}
}

func testUser(role string) models.User {
	return models.User{ID: NewID(), Username: "jdoe", Role: role}
}

func TestSessionRoundTrip(t *testing.T) {
	m := NewSessionManager("0123456789abcdef", time.Hour)

	token, issued, err := m.Issue(testUser(models.RoleAdmin))
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if issued.CSRFToken == "" {
		t.Error("Issue() did not set a CSRF token")
	}

	sess, err := m.Parse(token)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if sess.UserID != issued.UserID || sess.Username != "jdoe" || !sess.IsAdmin() {
		t.Errorf("Parse() = %+v, want %+v", sess, issued)
	}
	if sess.CSRFToken != issued.CSRFToken {
		t.Error("CSRF token did not survive the round trip")
	}
	if sess.IsDepartmentManager() {
		t.Error("admin session reported as department manager")
	}
}

func TestSessionRejects(t *testing.T) {
	m := NewSessionManager("0123456789abcdef", time.Hour)
	token, _, err := m.Issue(testUser(models.RoleDepartmentManager))
	if err != nil {
		t.Fatal(err)
	}

	t.Run("wrong secret", func(t *testing.T) {
		other := NewSessionManager("fedcba9876543210", time.Hour)
		if _, err := other.Parse(token); err != ErrInvalidSession {
			t.Errorf("Parse() = %v, want ErrInvalidSession", err)
		}
	})

	t.Run("tampered", func(t *testing.T) {
		if _, err := m.Parse(token + "x"); err != ErrInvalidSession {
			t.Errorf("Parse() = %v, want ErrInvalidSession", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		later := NewSessionManager("0123456789abcdef", time.Hour)
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		if _, err := later.Parse(token); err != ErrInvalidSession {
			t.Errorf("Parse() = %v, want ErrInvalidSession", err)
		}
	})

	t.Run("bad role", func(t *testing.T) {
		bad, _, err := m.Issue(models.User{ID: NewID(), Username: "x", Role: "superuser"})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := m.Parse(bad); err != ErrInvalidSession {
			t.Errorf("Parse() = %v, want ErrInvalidSession", err)
		}
	})
}

func TestSessionCookie(t *testing.T) {
	m := NewSessionManager("0123456789abcdef", time.Hour)
	token, _, _ := m.Issue(testUser(models.RoleAdmin))

	w := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/login", nil)
	m.SetCookie(w, r, token)

	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != CookieName || !c.HttpOnly || c.SameSite != http.SameSiteStrictMode {
		t.Errorf("unexpected cookie attributes: %+v", c)
	}

	req := httptest.NewRequest("GET", "/admin", nil)
	req.AddCookie(c)
	sess, err := m.FromRequest(req)
	if err != nil {
		t.Fatalf("FromRequest() error = %v", err)
	}
	if !sess.IsAdmin() {
		t.Error("expected admin session from cookie")
	}

	if _, err := m.FromRequest(httptest.NewRequest("GET", "/admin", nil)); err != ErrInvalidSession {
		t.Errorf("FromRequest() without cookie = %v, want ErrInvalidSession", err)
	}

	w = httptest.NewRecorder()
	ClearCookie(w, r)
	if got := w.Result().Cookies()[0]; got.MaxAge >= 0 {
		t.Errorf("ClearCookie() MaxAge = %d, want negative", got.MaxAge)
	}
}

func TestSessionContext(t *testing.T) {
	if SessionFrom(context.Background()) != nil {
		t.Error("expected nil session on empty context")
	}
	s := &Session{UserID: "u1", Role: models.RoleAdmin}
	ctx := WithSession(context.Background(), s)
	if got := SessionFrom(ctx); got != s {
		t.Errorf("SessionFrom() = %v, want %v", got, s)
	}
	var nilSession *Session
	if nilSession.IsAdmin() {
		t.Error("nil session must not be admin")
	}
}
