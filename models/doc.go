// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines the domain, import, and response types shared by the
store, handlers, and views.

# Domain Types

  - Department: organizational unit (name, extension, building, room)
  - Staff: employee record belonging to exactly one department
  - User: an account with role admin or department_manager
  - UserSummary: user plus assigned departments and ownership counts

# Directory Data

DirectoryData is the whole public directory:

	{"departments": [...], "staff_list": [...], "generated_at": "..."}

The directory cache writes this shape to disk, and `migrate --from-json`
reads it back.

# Import Types

DepartmentRow and StaffRow carry parsed CSV rows together with preview
flags (Exists, DepartmentExists). ImportSummary reports what an import wrote.

# Roles

	RoleAdmin             = "admin"
	RoleDepartmentManager = "department_manager"

Managers may only touch departments assigned to them through the
user_departments table. Admins are unrestricted.
*/
package models
