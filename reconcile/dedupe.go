// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package reconcile

import (
	"regexp"
	"strings"

	"github.com/danielhkuo/staff-directory/models"
)

var (
	deptSuffixPattern   = regexp.MustCompile(`(?i)\s+(Dept|Department)$`)
	whitespacePattern   = regexp.MustCompile(`\s+`)
	trailingCodePattern = regexp.MustCompile(`\s*\([^)]*\)\s*$`)
)

// CleanDepartmentName normalizes the spelling variants Graph produces for one
// department: "Biology Dept", "Biology  Department" and "Biology (BIO)" all
// become "Biology".
func CleanDepartmentName(name string) string {
	cleaned := strings.TrimSpace(name)
	cleaned = deptSuffixPattern.ReplaceAllString(cleaned, "")
	cleaned = whitespacePattern.ReplaceAllString(cleaned, " ")
	cleaned = trailingCodePattern.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}

// Dedupe merges departments whose cleaned names match. The first occurrence
// wins; later duplicates only fill in its empty extension, building or room.
// It returns the merged list in first-seen order and the original names of
// the duplicates that were folded in.
func Dedupe(departments []models.Department) ([]models.Department, []string) {
	var out []models.Department
	var merged []string
	index := map[string]int{}

	for _, d := range departments {
		clean := CleanDepartmentName(d.Name)
		if clean == "" {
			continue
		}

		i, dup := index[clean]
		if !dup {
			d.ID = ""
			d.Name = clean
			index[clean] = len(out)
			out = append(out, d)
			continue
		}

		merged = append(merged, d.Name)
		existing := &out[i]
		if existing.Extension == "" {
			existing.Extension = d.Extension
		}
		if existing.Building == "" {
			existing.Building = d.Building
		}
		if existing.RoomNumber == "" {
			existing.RoomNumber = d.RoomNumber
		}
		existing.StaffCount += d.StaffCount
	}

	if out == nil {
		out = []models.Department{}
	}
	return out, merged
}

// MapStaffDepartments points each staff member at a department in
// departments, trying the staff member's department name as written and
// then cleaned. Staff whose department cannot be found are returned
// separately.
func MapStaffDepartments(staff []models.Staff, departments []models.Department) (mapped, skipped []models.Staff) {
	names := map[string]string{}
	for _, d := range departments {
		names[d.Name] = d.Name
		if clean := CleanDepartmentName(d.Name); clean != "" {
			if _, ok := names[clean]; !ok {
				names[clean] = d.Name
			}
		}
	}

	mapped = []models.Staff{}
	for _, st := range staff {
		name, ok := names[st.DepartmentName]
		if !ok {
			name, ok = names[CleanDepartmentName(st.DepartmentName)]
		}
		if !ok {
			skipped = append(skipped, st)
			continue
		}
		st.DepartmentName = name
		st.DepartmentID = ""
		if st.DisplayName == "" {
			st.DisplayName = st.Name
		}
		mapped = append(mapped, st)
	}
	return mapped, skipped
}

// Result is a normalized snapshot ready to replace the directory.
type Result struct {
	Data    models.DirectoryData
	Merged  []string
	Skipped []models.Staff
}

// Normalize dedupes the departments of data and remaps its staff onto them.
func Normalize(data models.DirectoryData) Result {
	departments, merged := Dedupe(data.Departments)
	staff, skipped := MapStaffDepartments(data.Staff, departments)

	counts := map[string]int{}
	for _, st := range staff {
		counts[st.DepartmentName]++
	}
	for i := range departments {
		departments[i].StaffCount = counts[departments[i].Name]
	}

	return Result{
		Data: models.DirectoryData{
			Departments: departments,
			Staff:       staff,
			GeneratedAt: data.GeneratedAt,
		},
		Merged:  merged,
		Skipped: skipped,
	}
}
