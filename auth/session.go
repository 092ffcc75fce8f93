// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/danielhkuo/staff-directory/models"
)

// CookieName is the session cookie set at login.
const CookieName = "staffdir_session"

var ErrInvalidSession = errors.New("invalid session")

// Session is the authenticated identity carried by the session cookie.
type Session struct {
	UserID    string
	Username  string
	Role      string
	CSRFToken string
	ExpiresAt time.Time
}

func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == models.RoleAdmin
}

func (s *Session) IsDepartmentManager() bool {
	return s != nil && s.Role == models.RoleDepartmentManager
}

type sessionClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	CSRF     string `json:"csrf"`
	jwt.RegisteredClaims
}

// SessionManager issues and verifies HS256-signed session tokens.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSessionManager(secret string, ttl time.Duration) *SessionManager {
	return &SessionManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue creates a signed token for user with a fresh CSRF token
func (m *SessionManager) Issue(user models.User) (string, *Session, error) {
	csrf, err := GenerateToken(16)
	if err != nil {
		return "", nil, err
	}

	now := m.now()
	sess := &Session{
		UserID:    user.ID,
		Username:  user.Username,
		Role:      user.Role,
		CSRFToken: csrf,
		ExpiresAt: now.Add(m.ttl),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		Username: user.Username,
		Role:     user.Role,
		CSRF:     csrf,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign session: %w", err)
	}
	return signed, sess, nil
}

// Parse validates a token and returns its session
func (m *SessionManager) Parse(tokenString string) (*Session, error) {
	var claims sessionClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidSession
	}
	if claims.Subject == "" || !models.ValidRole(claims.Role) {
		return nil, ErrInvalidSession
	}

	return &Session{
		UserID:    claims.Subject,
		Username:  claims.Username,
		Role:      claims.Role,
		CSRFToken: claims.CSRF,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// SetCookie writes the session cookie
func (m *SessionManager) SetCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearCookie expires the session cookie
func ClearCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
}

// FromRequest reads and validates the session cookie, if any
func (m *SessionManager) FromRequest(r *http.Request) (*Session, error) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return nil, ErrInvalidSession
	}
	return m.Parse(c.Value)
}

type sessionKey struct{}

// WithSession attaches a session to the context
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom returns the session stored by WithSession, or nil
func SessionFrom(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey{}).(*Session)
	return s
}
