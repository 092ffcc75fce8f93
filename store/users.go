// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danielhkuo/staff-directory/auth"
	"github.com/danielhkuo/staff-directory/models"
)

const userColumns = `u.id, u.username, u.password_hash, u.role, u.email, u.created_at, u.updated_at`

func scanUser(row rowScanner, extra ...any) (models.User, error) {
	var u models.User
	dest := []any{&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.Email, timestamp{&u.CreatedAt}, timestamp{&u.UpdatedAt}}
	err := row.Scan(append(dest, extra...)...)
	return u, err
}

// ListUsers returns every account with its assigned department names and how
// many departments and staff it has created.
func (s *Store) ListUsers(ctx context.Context) ([]models.UserSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+userColumns+`,
			(SELECT COUNT(*) FROM departments d WHERE d.created_by = u.id),
			(SELECT COUNT(*) FROM staff s WHERE s.added_by = u.id)
		FROM users u
		ORDER BY u.role, u.username
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []models.UserSummary{}
	index := map[string]int{}
	for rows.Next() {
		var us models.UserSummary
		u, err := scanUser(rows, &us.CreatedDepartments, &us.AddedStaff)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		us.User = u
		us.Departments = []string{}
		index[u.ID] = len(users)
		users = append(users, us)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	assigned, err := s.db.QueryContext(ctx, `
		SELECT ud.user_id, d.department_name
		FROM user_departments ud
		JOIN departments d ON d.id = ud.department_id
		ORDER BY d.department_name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer assigned.Close()

	for assigned.Next() {
		var userID, name string
		if err := assigned.Scan(&userID, &name); err != nil {
			return nil, err
		}
		if i, ok := index[userID]; ok {
			users[i].Departments = append(users[i].Departments, name)
		}
	}
	return users, assigned.Err()
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.getUser(ctx, `u.id = $1`, id)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getUser(ctx, `u.username = $1`, strings.TrimSpace(username))
}

func (s *Store) getUser(ctx context.Context, where string, arg any) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users u WHERE `+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// Authenticate returns the user when username and password match.
func (s *Store) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	u, err := s.GetUserByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return nil, auth.RejectPassword(password)
	}
	if err != nil {
		return nil, err
	}
	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		return nil, err
	}
	return u, nil
}

// AssignedDepartmentIDs returns the departments assigned to a manager.
func (s *Store) AssignedDepartmentIDs(ctx context.Context, userID string) ([]string, error) {
	return assignedDepartmentIDs(ctx, s.db, userID)
}

// CreateUser hashes password, inserts u and, for managers, assigns
// departmentIDs. assignedBy is recorded on each assignment.
func (s *Store) CreateUser(ctx context.Context, u *models.User, password string, departmentIDs []string, assignedBy string) error {
	if !models.ValidRole(u.Role) {
		return ErrInvalidRole
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		now := s.now()
		u.ID = auth.NewID()
		u.Username = strings.TrimSpace(u.Username)
		u.PasswordHash = hash
		u.CreatedAt, u.UpdatedAt = now, now

		_, err := tx.ExecContext(ctx, `
			INSERT INTO users (id, username, password_hash, role, email, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, u.ID, u.Username, u.PasswordHash, u.Role, u.Email, now, now)
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		if err != nil {
			return fmt.Errorf("failed to insert user: %w", err)
		}

		if u.Role != models.RoleDepartmentManager {
			return nil
		}
		return assignDepartments(ctx, tx, u.ID, departmentIDs, assignedBy, now)
	})
}

// UpdateUser saves username, email and role. An empty password keeps the
// current one. Manager assignments are replaced with departmentIDs; admins
// hold none.
func (s *Store) UpdateUser(ctx context.Context, u models.User, password string, departmentIDs []string, assignedBy string) error {
	if !models.ValidRole(u.Role) {
		return ErrInvalidRole
	}
	var hash string
	if password != "" {
		h, err := auth.HashPassword(password)
		if err != nil {
			return err
		}
		hash = h
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		now := s.now()
		res, err := tx.ExecContext(ctx, `
			UPDATE users SET username = $1, email = $2, role = $3, updated_at = $4 WHERE id = $5
		`, strings.TrimSpace(u.Username), u.Email, u.Role, now, u.ID)
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		if err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}
		if err := requireAffected(res); err != nil {
			return err
		}

		if hash != "" {
			if _, err := tx.ExecContext(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, hash, u.ID); err != nil {
				return fmt.Errorf("failed to update password: %w", err)
			}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM user_departments WHERE user_id = $1`, u.ID); err != nil {
			return fmt.Errorf("failed to clear assignments: %w", err)
		}
		if u.Role != models.RoleDepartmentManager {
			return nil
		}
		return assignDepartments(ctx, tx, u.ID, departmentIDs, assignedBy, now)
	})
}

func assignDepartments(ctx context.Context, q querier, userID string, departmentIDs []string, assignedBy string, now time.Time) error {
	seen := map[string]bool{}
	for _, id := range departmentIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		_, err := q.ExecContext(ctx, `
			INSERT INTO user_departments (user_id, department_id, assigned_by, assigned_at)
			VALUES ($1, $2, $3, $4)
		`, userID, id, assignedBy, now)
		if isForeignKeyViolation(err) {
			return ErrInvalidReference
		}
		if err != nil {
			return fmt.Errorf("failed to assign department %s: %w", id, err)
		}
	}
	return nil
}

// DeleteUser removes an account. Users cannot delete themselves, and accounts
// that created departments or added staff are kept for the audit trail.
func (s *Store) DeleteUser(ctx context.Context, id, currentUserID string) error {
	if id == currentUserID {
		return ErrSelfDelete
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		var departments, staff int
		err := tx.QueryRowContext(ctx, `
			SELECT
				(SELECT COUNT(*) FROM departments WHERE created_by = $1),
				(SELECT COUNT(*) FROM staff WHERE added_by = $1)
		`, id).Scan(&departments, &staff)
		if err != nil {
			return fmt.Errorf("failed to check user references: %w", err)
		}
		if departments > 0 || staff > 0 {
			return ErrUserInUse
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return requireAffected(res)
	})
}
