// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and creates the schema.

# Connections

Open picks the driver from cfg.DatabaseType:

	conn, err := db.Open(cfg) // "sqlite" (modernc.org/sqlite) or "postgres" (lib/pq)

SQLite DSNs get foreign_keys, busy_timeout and WAL pragmas appended.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - users: accounts with role admin or department_manager
  - departments: organizational units, unique by department_name
  - staff: employees, each in one department
  - user_departments: which departments a manager may edit

# Relationships

	departments 1──* staff            (ON DELETE CASCADE)
	users *──* departments            (via user_departments)
	users 1──* departments.created_by (ON DELETE SET NULL)
	users 1──* staff.added_by         (ON DELETE SET NULL)
*/
package db
