// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides identifiers, password hashing, and signed sessions.

# Passwords

Passwords are bcrypt-hashed and must be at least 8 characters:

	hash, err := auth.HashPassword(password)
	err = auth.CheckPassword(hash, password) // ErrInvalidCredentials on mismatch

# Sessions

Sessions are HS256 JWTs stored in an HttpOnly, SameSite=Strict cookie:

	m := auth.NewSessionManager(cfg.SessionSecret, cfg.SessionTTL)
	token, sess, err := m.Issue(user)
	m.SetCookie(w, r, token)

	sess, err := m.FromRequest(r)

The token carries the user id (subject), username, role and a per-session
CSRF token that forms echo back in a hidden csrf_token field.

# Context

Middleware stores the verified session on the request context:

	ctx := auth.WithSession(r.Context(), sess)
	sess := auth.SessionFrom(ctx)

# IDs

	id := auth.NewID()           // UUID for database rows
	tok, err := auth.GenerateToken(16) // 32 hex characters
*/
package auth
