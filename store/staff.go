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

const staffColumns = `
	s.id, s.department_id, d.department_name, s.external_id, s.name, s.title, s.extension,
	s.phone, s.email, s.room_number, s.building, s.is_department_head, s.display_name,
	s.company_name, s.added_by, s.created_at, s.updated_at`

// Staff are always listed by department, department head first, then name.
const staffOrder = ` ORDER BY d.department_name, s.is_department_head DESC, s.name`

func scanStaff(row rowScanner, extra ...any) (models.Staff, error) {
	var st models.Staff
	var addedBy sql.NullString
	dest := []any{&st.ID, &st.DepartmentID, &st.DepartmentName, &st.ExternalID, &st.Name, &st.Title,
		&st.Extension, &st.Phone, &st.Email, &st.RoomNumber, &st.Building, &st.IsDepartmentHead,
		&st.DisplayName, &st.CompanyName, &addedBy, timestamp{&st.CreatedAt}, timestamp{&st.UpdatedAt}}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return st, err
	}
	if addedBy.Valid {
		st.AddedBy = &addedBy.String
	}
	return st, nil
}

// ListStaff returns staff matching f.
func (s *Store) ListStaff(ctx context.Context, f models.StaffFilter) ([]models.Staff, error) {
	if f.DepartmentIDs != nil && len(f.DepartmentIDs) == 0 {
		return []models.Staff{}, nil
	}

	var where []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(f.DepartmentIDs) > 0 {
		where = append(where, "s.department_id IN ("+placeholders(len(args)+1, len(f.DepartmentIDs))+")")
		for _, id := range f.DepartmentIDs {
			args = append(args, id)
		}
	}
	if f.DepartmentID != "" {
		where = append(where, "s.department_id = "+arg(f.DepartmentID))
	}
	if f.DepartmentName != "" {
		where = append(where, "d.department_name = "+arg(f.DepartmentName))
	}
	if f.Search != "" {
		p := arg(likeContains(f.Search))
		where = append(where, `(LOWER(s.name) LIKE `+p+` ESCAPE '\'
			OR LOWER(s.title) LIKE `+p+` ESCAPE '\'
			OR LOWER(s.email) LIKE `+p+` ESCAPE '\'
			OR LOWER(s.extension) LIKE `+p+` ESCAPE '\'
			OR LOWER(s.room_number) LIKE `+p+` ESCAPE '\'
			OR LOWER(d.department_name) LIKE `+p+` ESCAPE '\')`)
	}
	if f.Building != "" {
		p := arg(f.Building)
		where = append(where, "(s.building = "+p+" OR d.building = "+p+")")
	}

	query := `SELECT ` + staffColumns + ` FROM staff s JOIN departments d ON d.id = s.department_id`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += staffOrder
	if f.Limit > 0 {
		query += " LIMIT " + arg(f.Limit)
	}

	return queryStaff(ctx, s.db, query, args...)
}

func queryStaff(ctx context.Context, q querier, query string, args ...any) ([]models.Staff, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query staff: %w", err)
	}
	defer rows.Close()

	staff := []models.Staff{}
	for rows.Next() {
		st, err := scanStaff(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan staff: %w", err)
		}
		staff = append(staff, st)
	}
	return staff, rows.Err()
}

func (s *Store) GetStaff(ctx context.Context, id string) (*models.Staff, error) {
	st, err := scanStaff(s.db.QueryRowContext(ctx, `
		SELECT `+staffColumns+` FROM staff s JOIN departments d ON d.id = s.department_id
		WHERE s.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get staff: %w", err)
	}
	return &st, nil
}

// CreateStaff inserts st and fills in its ID and timestamps.
func (s *Store) CreateStaff(ctx context.Context, st *models.Staff) error {
	return insertStaff(ctx, s.db, st, s.now())
}

func insertStaff(ctx context.Context, q querier, st *models.Staff, now time.Time) error {
	st.ID = auth.NewID()
	st.Name = strings.TrimSpace(st.Name)
	st.CreatedAt, st.UpdatedAt = now, now

	_, err := q.ExecContext(ctx, `
		INSERT INTO staff (id, department_id, external_id, name, title, extension, phone, email, room_number,
			building, is_department_head, display_name, company_name, added_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`, st.ID, st.DepartmentID, st.ExternalID, st.Name, st.Title, st.Extension, st.Phone, st.Email, st.RoomNumber,
		st.Building, st.IsDepartmentHead, st.DisplayName, st.CompanyName, st.AddedBy, now, now)
	if isForeignKeyViolation(err) {
		return ErrInvalidReference
	}
	if err != nil {
		return fmt.Errorf("failed to insert staff: %w", err)
	}
	return nil
}

// CreateStaffBulk adds several staff members to one department in a single
// transaction. Rows with an empty name are ignored. It returns the number
// inserted.
func (s *Store) CreateStaffBulk(ctx context.Context, departmentID string, addedBy *string, staff []models.Staff) (int, error) {
	added := 0
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		now := s.now()
		for i := range staff {
			if strings.TrimSpace(staff[i].Name) == "" {
				continue
			}
			staff[i].DepartmentID = departmentID
			staff[i].AddedBy = addedBy
			if err := insertStaff(ctx, tx, &staff[i], now); err != nil {
				return err
			}
			added++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

// UpdateStaff overwrites the editable fields of an existing staff member.
func (s *Store) UpdateStaff(ctx context.Context, st models.Staff) error {
	return updateStaff(ctx, s.db, st, s.now())
}

func updateStaff(ctx context.Context, q querier, st models.Staff, now time.Time) error {
	res, err := q.ExecContext(ctx, `
		UPDATE staff
		SET department_id = $1, name = $2, title = $3, extension = $4, room_number = $5,
			phone = $6, email = $7, is_department_head = $8, updated_at = $9
		WHERE id = $10
	`, st.DepartmentID, strings.TrimSpace(st.Name), st.Title, st.Extension, st.RoomNumber,
		st.Phone, st.Email, st.IsDepartmentHead, now, st.ID)
	if isForeignKeyViolation(err) {
		return ErrInvalidReference
	}
	if err != nil {
		return fmt.Errorf("failed to update staff: %w", err)
	}
	return requireAffected(res)
}

func (s *Store) DeleteStaff(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM staff WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete staff: %w", err)
	}
	return requireAffected(res)
}

// DeleteStaffBulk removes the given staff ids and returns how many existed.
func (s *Store) DeleteStaffBulk(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM staff WHERE id IN (`+placeholders(1, len(ids))+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete staff: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// CountStaff counts staff in scope. A nil scope counts everyone.
func (s *Store) CountStaff(ctx context.Context, departmentIDs []string) (int, error) {
	if departmentIDs != nil && len(departmentIDs) == 0 {
		return 0, nil
	}

	query := `SELECT COUNT(*) FROM staff`
	var args []any
	if departmentIDs != nil {
		query += ` WHERE department_id IN (` + placeholders(1, len(departmentIDs)) + `)`
		for _, id := range departmentIDs {
			args = append(args, id)
		}
	}

	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count staff: %w", err)
	}
	return n, nil
}

// RecentStaff returns the most recently added staff in scope.
func (s *Store) RecentStaff(ctx context.Context, departmentIDs []string, limit int) ([]models.Staff, error) {
	if departmentIDs != nil && len(departmentIDs) == 0 {
		return []models.Staff{}, nil
	}

	query := `SELECT ` + staffColumns + ` FROM staff s JOIN departments d ON d.id = s.department_id`
	var args []any
	if departmentIDs != nil {
		query += ` WHERE s.department_id IN (` + placeholders(1, len(departmentIDs)) + `)`
		for _, id := range departmentIDs {
			args = append(args, id)
		}
	}
	args = append(args, limit)
	query += fmt.Sprintf(` ORDER BY s.created_at DESC, s.name LIMIT $%d`, len(args))

	return queryStaff(ctx, s.db, query, args...)
}
