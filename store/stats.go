// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"fmt"

	"github.com/danielhkuo/staff-directory/models"
)

// RecentLimit is how many recent departments and staff the dashboard shows.
const RecentLimit = 5

// Stats returns public directory counts.
func (s *Store) Stats(ctx context.Context) (models.Stats, error) {
	var st models.Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM departments),
			(SELECT COUNT(*) FROM staff),
			(SELECT COUNT(DISTINCT building) FROM staff WHERE building <> '')
	`).Scan(&st.DepartmentCount, &st.StaffCount, &st.BuildingCount)
	if err != nil {
		return st, fmt.Errorf("failed to query stats: %w", err)
	}
	st.Ready = st.DepartmentCount > 0 && st.StaffCount > 0
	return st, nil
}

// Ping checks that the database is reachable. An empty directory is still
// healthy.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// DashboardStats returns the totals and recent activity for the admin
// dashboard.
func (s *Store) DashboardStats(ctx context.Context) (models.DashboardStats, error) {
	var ds models.DashboardStats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM departments),
			(SELECT COUNT(*) FROM staff),
			(SELECT COUNT(*) FROM users WHERE role = $1),
			(SELECT COUNT(*) FROM users WHERE role = $2)
	`, models.RoleDepartmentManager, models.RoleAdmin).Scan(&ds.TotalDepartments, &ds.TotalStaff, &ds.TotalManagers, &ds.TotalAdmins)
	if err != nil {
		return ds, fmt.Errorf("failed to query dashboard stats: %w", err)
	}

	ds.RecentDepartments, err = queryDepartments(ctx, s.db, `
		SELECT `+departmentColumns+`
		FROM departments d
		ORDER BY d.created_at DESC, d.department_name
		LIMIT $1`, RecentLimit)
	if err != nil {
		return ds, err
	}

	ds.RecentStaff, err = s.RecentStaff(ctx, nil, RecentLimit)
	if err != nil {
		return ds, err
	}
	return ds, nil
}
