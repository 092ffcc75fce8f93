// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"

	"github.com/danielhkuo/staff-directory/csvio"
	"github.com/danielhkuo/staff-directory/graph"
	"github.com/danielhkuo/staff-directory/models"
	"github.com/danielhkuo/staff-directory/reconcile"
)

var (
	// migrate
	migrateFromJSON string

	// create-user
	newUsername    string
	newPassword    string
	newRole        string
	newEmail       string
	newDepartments []string

	// import
	importKind   string
	importUpdate bool

	// export
	exportDepartments bool
	exportOutput      string
)

func init() {
	migrateCmd.Flags().StringVar(&migrateFromJSON, "from-json", "", "Replace the directory with a cached directory JSON file after deduplicating departments")

	createUserCmd.Flags().StringVar(&newUsername, "username", "", "Login name (required)")
	createUserCmd.Flags().StringVar(&newPassword, "password", "", "Password, at least 8 characters (or STAFFDIR_PASSWORD env)")
	createUserCmd.Flags().StringVar(&newRole, "role", models.RoleAdmin, "admin or department_manager")
	createUserCmd.Flags().StringVar(&newEmail, "email", "", "Email address")
	createUserCmd.Flags().StringSliceVar(&newDepartments, "department", nil, "Department name a manager may edit (repeatable)")
	_ = createUserCmd.MarkFlagRequired("username")

	importCmd.Flags().StringVar(&importKind, "type", models.ImportDepartments, "departments or staff")
	importCmd.Flags().BoolVar(&importUpdate, "update-existing", false, "Update records that already exist instead of skipping them")

	exportCmd.Flags().BoolVar(&exportDepartments, "departments", false, "Export departments in the import format instead of staff")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to a file instead of stdout")

	rootCmd.AddCommand(migrateCmd, syncGraphCmd, createUserCmd, importCmd, exportCmd, refreshCacheCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the schema, optionally loading a directory JSON file",
	Long: `Create all tables and indexes. With --from-json, load a directory file
({"departments": [...], "staff_list": [...]}), merge duplicate departments and
replace the directory with the result.

Examples:
  staff-directory migrate
  staff-directory migrate --from-json cache/directory_data.json`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

var syncGraphCmd = &cobra.Command{
	Use:   "sync-graph",
	Short: "Replace the directory with users from Microsoft Graph",
	Long: `Fetch every Graph user, group them into departments and replace the
directory. Requires GRAPH_TENANT_ID, GRAPH_CLIENT_ID and GRAPH_CLIENT_SECRET.
Meant to be run from cron.`,
	Args: cobra.NoArgs,
	RunE: runSyncGraph,
}

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create an admin or department manager account",
	Long: `Create a login account.

Examples:
  staff-directory create-user --username admin --password 'changeme123'
  staff-directory create-user --username jdoe --role department_manager --department Biology`,
	Args: cobra.NoArgs,
	RunE: runCreateUser,
}

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import departments or staff from a CSV file",
	Long: `Import a CSV file with the same columns as the admin import page.

Examples:
  staff-directory import --type departments departments.csv
  staff-directory import --type staff --update-existing staff.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export staff or departments as CSV",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

var refreshCacheCmd = &cobra.Command{
	Use:   "refresh-cache",
	Short: "Rebuild the public directory cache from the database",
	Args:  cobra.NoArgs,
	RunE:  runRefreshCache,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	env, closeDB, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer closeDB()
	slog.Info("Database schema ready", "type", cfg.DatabaseType)

	if migrateFromJSON == "" {
		return nil
	}

	raw, err := os.ReadFile(migrateFromJSON)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", migrateFromJSON, err)
	}
	var data models.DirectoryData
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("failed to parse %s: %w", migrateFromJSON, err)
	}

	normalized := reconcile.Normalize(data)
	for _, name := range normalized.Merged {
		slog.Info("merged duplicate department", "department", name)
	}
	for _, st := range normalized.Skipped {
		slog.Warn("staff department not found", "name", st.Name, "department", st.DepartmentName)
	}

	result, err := env.Store.ReplaceDirectory(ctx, normalized.Data)
	if err != nil {
		return err
	}
	if err := env.Cache.Invalidate(); err != nil {
		slog.Warn("failed to invalidate directory cache", "error", err)
	}

	slog.Info("directory migrated",
		"departments", result.DepartmentCount,
		"staff", result.StaffCount,
		"skipped", result.SkippedStaff+len(normalized.Skipped),
		"merged", len(normalized.Merged),
	)
	return nil
}

func runSyncGraph(cmd *cobra.Command, args []string) error {
	if !cfg.GraphEnabled() {
		return errors.New("graph credentials not configured (GRAPH_TENANT_ID, GRAPH_CLIENT_ID, GRAPH_CLIENT_SECRET)")
	}

	env, closeDB, err := openEnv(context.Background())
	if err != nil {
		return err
	}
	defer closeDB()

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
	defer cancel()

	res, err := graph.Sync(ctx, env.Graph, env.Store, env.Cache, reconcile.Options{CompanyName: cfg.GraphCompanyName})
	if err != nil {
		slog.Error("graph sync failed", "error", err)
		return err
	}

	// warm the cache so the first visitor after a cron run is served from disk
	if _, err := env.Cache.Refresh(ctx); err != nil {
		slog.Warn("failed to refresh directory cache", "error", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Synced %d users into %d departments and %d staff (%d skipped)\n",
		res.Users, res.Result.DepartmentCount, res.Result.StaffCount, res.Result.SkippedStaff)
	return nil
}

func runCreateUser(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if newPassword == "" {
		newPassword = os.Getenv("STAFFDIR_PASSWORD")
	}

	env, closeDB, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	var departmentIDs []string
	for _, name := range newDepartments {
		d, err := env.Store.GetDepartmentByName(ctx, name)
		if err != nil {
			return fmt.Errorf("department %q: %w", name, err)
		}
		departmentIDs = append(departmentIDs, d.ID)
	}

	u := models.User{Username: newUsername, Role: newRole, Email: newEmail}
	if err := env.Store.CreateUser(ctx, &u, newPassword, departmentIDs, ""); err != nil {
		return err
	}

	slog.Info("user created", "username", u.Username, "role", u.Role, "departments", len(departmentIDs))
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	env, closeDB, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	var summary models.ImportSummary
	switch importKind {
	case models.ImportDepartments:
		rows, _, err := csvio.ParseDepartments(f)
		if err != nil {
			return err
		}
		summary, err = env.Store.ImportDepartments(ctx, rows, importUpdate, "")
		if err != nil {
			return err
		}
	case models.ImportStaff:
		rows, _, err := csvio.ParseStaff(f)
		if err != nil {
			return err
		}
		summary, err = env.Store.ImportStaff(ctx, rows, importUpdate, "")
		if err != nil {
			return err
		}
	default:
		return csvio.ErrUnknownType
	}

	if err := env.Cache.Invalidate(); err != nil {
		slog.Warn("failed to invalidate directory cache", "error", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Imported %d, updated %d, skipped %d\n", summary.Imported, summary.Updated, summary.Skipped)
	for _, msg := range summary.Errors {
		fmt.Fprintln(out, "  "+msg)
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	env, closeDB, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	var buf bytes.Buffer
	if exportDepartments {
		depts, err := env.Store.ListDepartments(ctx)
		if err != nil {
			return err
		}
		if err := csvio.WriteDepartments(&buf, depts); err != nil {
			return err
		}
	} else {
		staff, err := env.Store.ListStaff(ctx, models.StaffFilter{})
		if err != nil {
			return err
		}
		if err := csvio.WriteStaff(&buf, staff, nil); err != nil {
			return err
		}
	}

	if exportOutput == "" {
		_, err := io.Copy(cmd.OutOrStdout(), &buf)
		return err
	}
	return atomic.WriteFile(exportOutput, &buf)
}

func runRefreshCache(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	env, closeDB, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	data, err := env.Cache.Refresh(ctx)
	if err != nil {
		slog.Error("cache refresh failed", "error", err)
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Cached %d departments and %d staff\n", len(data.Departments), len(data.Staff))
	return nil
}
