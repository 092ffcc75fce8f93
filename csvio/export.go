// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package csvio

import (
	"encoding/csv"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/danielhkuo/staff-directory/models"
)

// ExportHeader is the column row of staff exports.
var ExportHeader = []string{"Name", "Title", "Extension", "Room Number", "Department", "Date Added"}

// Preamble is written above a manager's staff export.
type Preamble struct {
	Departments []string
	ExportedBy  string
	ExportedOn  time.Time
}

// WriteStaff writes staff as CSV. A non-nil preamble adds the title,
// department list, exporter and timestamp lines followed by a blank line.
func WriteStaff(w io.Writer, staff []models.Staff, preamble *Preamble) error {
	cw := csv.NewWriter(w)

	if preamble != nil {
		lines := [][]string{
			{"My Departments Staff Export"},
			{"Departments: " + strings.Join(preamble.Departments, ", ")},
			{"Exported by: " + preamble.ExportedBy},
			{"Exported on: " + preamble.ExportedOn.Format("2006-01-02 15:04:05")},
			{},
		}
		if err := cw.WriteAll(lines); err != nil {
			return err
		}
	}

	if err := cw.Write(ExportHeader); err != nil {
		return err
	}
	for _, st := range staff {
		added := ""
		if !st.CreatedAt.IsZero() {
			added = st.CreatedAt.Format("2006-01-02")
		}
		if err := cw.Write([]string{st.Name, st.Title, st.Extension, st.RoomNumber, st.DepartmentName, added}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteDepartments writes departments in the import format so the file can be
// edited and imported again.
func WriteDepartments(w io.Writer, departments []models.Department) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(DepartmentHeader); err != nil {
		return err
	}
	for _, d := range departments {
		if err := cw.Write([]string{d.Name, d.Extension, d.Building, d.RoomNumber}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTemplate writes a sample import file for importType.
func WriteTemplate(w io.Writer, importType string) error {
	header, err := HeaderFor(importType)
	if err != nil {
		return err
	}

	sample := []string{"Biology", "1234", "SCI", "SCI 101"}
	if importType == models.ImportStaff {
		sample = []string{"Jane Doe", "Professor", "1235", "SCI 102", "Biology"}
	}

	cw := csv.NewWriter(w)
	if err := cw.WriteAll([][]string{header, sample}); err != nil {
		return err
	}
	return cw.Error()
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// SanitizeFilename replaces everything but letters, digits, "_" and "-".
func SanitizeFilename(s string) string {
	return unsafeFilenameChars.ReplaceAllString(s, "_")
}

// ManagerExportFilename names a manager's export after their departments.
func ManagerExportFilename(departments []string, on time.Time) string {
	return "my_staff_export_" + SanitizeFilename(strings.Join(departments, "_")) + "_" + on.Format("2006-01-02") + ".csv"
}
