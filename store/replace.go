// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/danielhkuo/staff-directory/models"
)

// LoadDirectory reads the public directory: departments that have staff and
// every staff member.
func (s *Store) LoadDirectory(ctx context.Context) (models.DirectoryData, error) {
	departments, err := s.ListPublicDepartments(ctx)
	if err != nil {
		return models.DirectoryData{}, err
	}
	staff, err := s.ListStaff(ctx, models.StaffFilter{})
	if err != nil {
		return models.DirectoryData{}, err
	}
	return models.DirectoryData{
		Departments: departments,
		Staff:       staff,
		GeneratedAt: s.now(),
	}, nil
}

// ReplaceDirectory swaps the whole directory for data in one transaction.
// Departments are matched by name so that existing ids, and the manager
// assignments hanging off them, survive. All staff are replaced. Staff whose
// department name is not in data are skipped.
func (s *Store) ReplaceDirectory(ctx context.Context, data models.DirectoryData) (models.ReplaceResult, error) {
	var result models.ReplaceResult

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		now := s.now()

		existing, err := queryDepartments(ctx, tx, `SELECT `+departmentColumns+` FROM departments d`)
		if err != nil {
			return err
		}
		byName := make(map[string]models.Department, len(existing))
		for _, d := range existing {
			byName[d.Name] = d
		}

		keep := map[string]string{} // name -> id
		for _, d := range data.Departments {
			d.Name = strings.TrimSpace(d.Name)
			if d.Name == "" {
				continue
			}
			if _, dup := keep[d.Name]; dup {
				continue
			}

			if cur, ok := byName[d.Name]; ok {
				cur.Extension, cur.Building, cur.RoomNumber = d.Extension, d.Building, d.RoomNumber
				if err := updateDepartment(ctx, tx, cur, now); err != nil {
					return err
				}
				keep[d.Name] = cur.ID
			} else {
				d.CreatedBy = nil
				if err := insertDepartment(ctx, tx, &d, now); err != nil {
					return fmt.Errorf("department %q: %w", d.Name, err)
				}
				keep[d.Name] = d.ID
			}
			result.DepartmentCount++
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM staff`); err != nil {
			return fmt.Errorf("failed to clear staff: %w", err)
		}
		for _, d := range existing {
			if _, ok := keep[d.Name]; ok {
				continue
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM departments WHERE id = $1`, d.ID); err != nil {
				return fmt.Errorf("failed to delete department %q: %w", d.Name, err)
			}
		}

		for _, st := range data.Staff {
			id, ok := keep[strings.TrimSpace(st.DepartmentName)]
			if !ok || strings.TrimSpace(st.Name) == "" {
				result.SkippedStaff++
				continue
			}
			st.DepartmentID = id
			st.AddedBy = nil
			if err := insertStaff(ctx, tx, &st, now); err != nil {
				return err
			}
			result.StaffCount++
		}
		return nil
	})
	if err != nil {
		return models.ReplaceResult{}, err
	}

	slog.Info("directory replaced",
		"departments", result.DepartmentCount,
		"staff", result.StaffCount,
		"skipped_staff", result.SkippedStaff,
	)
	return result, nil
}
