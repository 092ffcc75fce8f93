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

const departmentColumns = `
	d.id, d.department_name, d.extension, d.building, d.room_number, d.description,
	d.created_by, d.created_at, d.updated_at,
	(SELECT COUNT(*) FROM staff s WHERE s.department_id = d.id) AS staff_count`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDepartment(row rowScanner) (models.Department, error) {
	var d models.Department
	var createdBy sql.NullString
	err := row.Scan(&d.ID, &d.Name, &d.Extension, &d.Building, &d.RoomNumber, &d.Description,
		&createdBy, timestamp{&d.CreatedAt}, timestamp{&d.UpdatedAt}, &d.StaffCount)
	if err != nil {
		return d, err
	}
	if createdBy.Valid {
		d.CreatedBy = &createdBy.String
	}
	return d, nil
}

func queryDepartments(ctx context.Context, q querier, query string, args ...any) ([]models.Department, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query departments: %w", err)
	}
	defer rows.Close()

	departments := []models.Department{}
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan department: %w", err)
		}
		departments = append(departments, d)
	}
	return departments, rows.Err()
}

// ListDepartments returns every department with its staff count, by name.
func (s *Store) ListDepartments(ctx context.Context) ([]models.Department, error) {
	return queryDepartments(ctx, s.db, `SELECT `+departmentColumns+` FROM departments d ORDER BY d.department_name`)
}

// ListPublicDepartments returns departments that have at least one staff member.
func (s *Store) ListPublicDepartments(ctx context.Context) ([]models.Department, error) {
	return queryDepartments(ctx, s.db, `
		SELECT `+departmentColumns+`
		FROM departments d
		WHERE EXISTS (SELECT 1 FROM staff s WHERE s.department_id = d.id)
		ORDER BY d.department_name`)
}

// ListDepartmentsForUser returns all departments for admins and the assigned
// departments for managers.
func (s *Store) ListDepartmentsForUser(ctx context.Context, userID, role string) ([]models.Department, error) {
	if role == models.RoleAdmin {
		return s.ListDepartments(ctx)
	}
	return queryDepartments(ctx, s.db, `
		SELECT `+departmentColumns+`
		FROM departments d
		JOIN user_departments ud ON ud.department_id = d.id
		WHERE ud.user_id = $1
		ORDER BY d.department_name`, userID)
}

// DepartmentScope returns the department ids a user may manage. Admins get
// nil, meaning unrestricted; managers get a non-nil slice, possibly empty.
func (s *Store) DepartmentScope(ctx context.Context, userID, role string) ([]string, error) {
	if role == models.RoleAdmin {
		return nil, nil
	}
	return assignedDepartmentIDs(ctx, s.db, userID)
}

func assignedDepartmentIDs(ctx context.Context, q querier, userID string) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT department_id FROM user_departments WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) GetDepartment(ctx context.Context, id string) (*models.Department, error) {
	return getDepartment(ctx, s.db, `d.id = $1`, id)
}

func (s *Store) GetDepartmentByName(ctx context.Context, name string) (*models.Department, error) {
	return getDepartment(ctx, s.db, `d.department_name = $1`, strings.TrimSpace(name))
}

func getDepartment(ctx context.Context, q querier, where string, arg any) (*models.Department, error) {
	d, err := scanDepartment(q.QueryRowContext(ctx, `SELECT `+departmentColumns+` FROM departments d WHERE `+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get department: %w", err)
	}
	return &d, nil
}

// CreateDepartment inserts d and fills in its ID and timestamps.
func (s *Store) CreateDepartment(ctx context.Context, d *models.Department) error {
	return insertDepartment(ctx, s.db, d, s.now())
}

func insertDepartment(ctx context.Context, q querier, d *models.Department, now time.Time) error {
	d.ID = auth.NewID()
	d.Name = strings.TrimSpace(d.Name)
	d.CreatedAt, d.UpdatedAt = now, now

	_, err := q.ExecContext(ctx, `
		INSERT INTO departments (id, department_name, extension, building, room_number, description, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, d.ID, d.Name, d.Extension, d.Building, d.RoomNumber, d.Description, d.CreatedBy, now, now)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to insert department: %w", err)
	}
	return nil
}

// UpdateDepartment overwrites the editable fields of an existing department.
func (s *Store) UpdateDepartment(ctx context.Context, d models.Department) error {
	return updateDepartment(ctx, s.db, d, s.now())
}

func updateDepartment(ctx context.Context, q querier, d models.Department, now time.Time) error {
	res, err := q.ExecContext(ctx, `
		UPDATE departments
		SET department_name = $1, extension = $2, building = $3, room_number = $4, description = $5, updated_at = $6
		WHERE id = $7
	`, strings.TrimSpace(d.Name), d.Extension, d.Building, d.RoomNumber, d.Description, now, d.ID)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to update department: %w", err)
	}
	return requireAffected(res)
}

// DeleteDepartment removes a department that has no staff.
func (s *Store) DeleteDepartment(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM staff WHERE department_id = $1`, id).Scan(&count); err != nil {
			return fmt.Errorf("failed to count staff: %w", err)
		}
		if count > 0 {
			return ErrDepartmentNotEmpty
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM departments WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete department: %w", err)
		}
		return requireAffected(res)
	})
}

// CanManageDepartment reports whether the user may edit departmentID.
func (s *Store) CanManageDepartment(ctx context.Context, userID, role, departmentID string) (bool, error) {
	if role == models.RoleAdmin {
		return true, nil
	}
	if role != models.RoleDepartmentManager {
		return false, nil
	}

	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM user_departments WHERE user_id = $1 AND department_id = $2
	`, userID, departmentID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check department access: %w", err)
	}
	return n > 0, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
