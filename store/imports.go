// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/danielhkuo/staff-directory/models"
)

// PreviewDepartments marks which import rows name an existing department.
func (s *Store) PreviewDepartments(ctx context.Context, rows []models.DepartmentRow) error {
	for i := range rows {
		id, err := departmentIDByName(ctx, s.db, rows[i].Name)
		if err != nil {
			return err
		}
		rows[i].Exists = id != ""
	}
	return nil
}

// PreviewStaff resolves each row's department and marks rows whose name
// already exists in that department.
func (s *Store) PreviewStaff(ctx context.Context, rows []models.StaffRow) error {
	for i := range rows {
		deptID, err := departmentIDByName(ctx, s.db, rows[i].DepartmentName)
		if err != nil {
			return err
		}
		rows[i].DepartmentID = deptID
		rows[i].DepartmentExists = deptID != ""
		if deptID == "" {
			continue
		}

		staffID, err := staffIDByName(ctx, s.db, deptID, rows[i].Name)
		if err != nil {
			return err
		}
		rows[i].Exists = staffID != ""
	}
	return nil
}

// ImportDepartments applies department rows in one transaction. Existing
// departments are updated when updateExisting is set and skipped otherwise.
// Rows without a name are ignored.
func (s *Store) ImportDepartments(ctx context.Context, rows []models.DepartmentRow, updateExisting bool, userID string) (models.ImportSummary, error) {
	summary := models.ImportSummary{Errors: []string{}}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		now := s.now()
		for _, row := range rows {
			if row.Name == "" {
				continue
			}

			id, err := departmentIDByName(ctx, tx, row.Name)
			if err != nil {
				return err
			}

			switch {
			case id != "" && updateExisting:
				_, err := tx.ExecContext(ctx, `
					UPDATE departments SET extension = $1, building = $2, room_number = $3, updated_at = $4
					WHERE id = $5
				`, row.Extension, row.Building, row.RoomNumber, now, id)
				if err != nil {
					return fmt.Errorf("row %d: failed to update department: %w", row.RowNumber, err)
				}
				summary.Updated++
			case id != "":
				summary.Skipped++
			default:
				d := models.Department{
					Name:       row.Name,
					Extension:  row.Extension,
					Building:   row.Building,
					RoomNumber: row.RoomNumber,
					CreatedBy:  nullableID(userID),
				}
				if err := insertDepartment(ctx, tx, &d, now); err != nil {
					return fmt.Errorf("row %d: %w", row.RowNumber, err)
				}
				summary.Imported++
			}
		}
		return nil
	})
	if err != nil {
		return models.ImportSummary{}, err
	}

	slog.Info("departments imported",
		"imported", summary.Imported,
		"updated", summary.Updated,
		"skipped", summary.Skipped,
	)
	return summary, nil
}

// ImportStaff applies staff rows in one transaction. A row naming an unknown
// department is reported in Errors and does not abort the import.
func (s *Store) ImportStaff(ctx context.Context, rows []models.StaffRow, updateExisting bool, userID string) (models.ImportSummary, error) {
	summary := models.ImportSummary{Errors: []string{}}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		now := s.now()
		for _, row := range rows {
			if row.Name == "" || row.DepartmentName == "" {
				continue
			}

			deptID, err := departmentIDByName(ctx, tx, row.DepartmentName)
			if err != nil {
				return err
			}
			if deptID == "" {
				summary.Errors = append(summary.Errors,
					fmt.Sprintf("Row %d: Department '%s' not found", row.RowNumber, row.DepartmentName))
				continue
			}

			staffID, err := staffIDByName(ctx, tx, deptID, row.Name)
			if err != nil {
				return err
			}

			switch {
			case staffID != "" && updateExisting:
				_, err := tx.ExecContext(ctx, `
					UPDATE staff SET title = $1, extension = $2, room_number = $3, updated_at = $4
					WHERE id = $5
				`, row.Title, row.Extension, row.RoomNumber, now, staffID)
				if err != nil {
					return fmt.Errorf("row %d: failed to update staff: %w", row.RowNumber, err)
				}
				summary.Updated++
			case staffID != "":
				summary.Skipped++
			default:
				st := models.Staff{
					DepartmentID: deptID,
					Name:         row.Name,
					Title:        row.Title,
					Extension:    row.Extension,
					RoomNumber:   row.RoomNumber,
					AddedBy:      nullableID(userID),
				}
				if err := insertStaff(ctx, tx, &st, now); err != nil {
					return fmt.Errorf("row %d: %w", row.RowNumber, err)
				}
				summary.Imported++
			}
		}
		return nil
	})
	if err != nil {
		return models.ImportSummary{}, err
	}

	slog.Info("staff imported",
		"imported", summary.Imported,
		"updated", summary.Updated,
		"skipped", summary.Skipped,
		"errors", len(summary.Errors),
	)
	return summary, nil
}

func departmentIDByName(ctx context.Context, q querier, name string) (string, error) {
	var id string
	err := q.QueryRowContext(ctx, `SELECT id FROM departments WHERE department_name = $1`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up department: %w", err)
	}
	return id, nil
}

func staffIDByName(ctx context.Context, q querier, departmentID, name string) (string, error) {
	var id string
	err := q.QueryRowContext(ctx, `
		SELECT id FROM staff WHERE department_id = $1 AND name = $2 ORDER BY created_at LIMIT 1
	`, departmentID, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up staff: %w", err)
	}
	return id, nil
}

func nullableID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
