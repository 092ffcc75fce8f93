// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package views

import (
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/danielhkuo/staff-directory/models"
)

// DepartmentGroup is one department header with the staff listed under it.
type DepartmentGroup struct {
	Department models.Department
	Staff      []models.Staff
}

// LetterGroup is a run of items sharing an initial letter.
type LetterGroup[T any] struct {
	Letter string
	Items  []T
}

// Initial returns the upper-cased first letter of s, or "#" when s does not
// start with a letter.
func Initial(s string) string {
	r, _ := utf8.DecodeRuneInString(strings.TrimSpace(s))
	if r == utf8.RuneError || !unicode.IsLetter(r) {
		return "#"
	}
	return string(unicode.ToUpper(r))
}

// GroupByLetter buckets items by the initial of key, letters in order and
// items in their original order within a bucket.
func GroupByLetter[T any](items []T, key func(T) string) []LetterGroup[T] {
	index := make(map[string]int)
	var groups []LetterGroup[T]
	for _, item := range items {
		letter := Initial(key(item))
		i, ok := index[letter]
		if !ok {
			i = len(groups)
			index[letter] = i
			groups = append(groups, LetterGroup[T]{Letter: letter})
		}
		groups[i].Items = append(groups[i].Items, item)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Letter < groups[j].Letter
	})
	return groups
}

// GroupDepartmentsByLetter sorts departments by name and buckets them A-Z.
func GroupDepartmentsByLetter(departments []models.Department) []LetterGroup[models.Department] {
	sorted := append([]models.Department(nil), departments...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].Name) < strings.ToLower(sorted[j].Name)
	})
	return GroupByLetter(sorted, func(d models.Department) string { return d.Name })
}

// GroupStaffByLetter sorts staff alphabetically by name and buckets them A-Z.
func GroupStaffByLetter(staff []models.Staff) []LetterGroup[models.Staff] {
	sorted := append([]models.Staff(nil), staff...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].Name) < strings.ToLower(sorted[j].Name)
	})
	return GroupByLetter(sorted, func(s models.Staff) string { return s.Name })
}

// StaffByDepartment maps department name to its staff, keeping input order.
func StaffByDepartment(staff []models.Staff) map[string][]models.Staff {
	m := make(map[string][]models.Staff)
	for _, s := range staff {
		m[s.DepartmentName] = append(m[s.DepartmentName], s)
	}
	return m
}

// GroupStaffByDepartment pairs each department with its staff in department
// order. Departments with no staff are kept so filtered views can show them.
func GroupStaffByDepartment(departments []models.Department, staff []models.Staff) []DepartmentGroup {
	byDept := StaffByDepartment(staff)
	groups := make([]DepartmentGroup, 0, len(departments))
	for _, d := range departments {
		groups = append(groups, DepartmentGroup{Department: d, Staff: byDept[d.Name]})
	}
	return groups
}

// Directory is the data behind the public card, print and embed pages.
type Directory struct {
	Department          string
	Departments         []models.Department
	Staff               []models.Staff
	Groups              []DepartmentGroup
	DepartmentsByLetter []LetterGroup[models.Department]
	StaffByLetter       []LetterGroup[models.Staff]
	GeneratedAt         time.Time
}

// NewDirectory prepares data for rendering. A non-empty department narrows
// the department groups to that one department.
func NewDirectory(data models.DirectoryData, department string) Directory {
	d := Directory{
		Department:          department,
		Departments:         data.Departments,
		Staff:               data.Staff,
		DepartmentsByLetter: GroupDepartmentsByLetter(data.Departments),
		StaffByLetter:       GroupStaffByLetter(data.Staff),
		GeneratedAt:         data.GeneratedAt,
	}

	departments := data.Departments
	if department != "" {
		departments = nil
		for _, dept := range data.Departments {
			if dept.Name == department {
				departments = append(departments, dept)
				break
			}
		}
	}
	d.Groups = GroupStaffByDepartment(departments, data.Staff)
	return d
}

// Embed holds the widget options on top of the directory data.
type Embed struct {
	Directory
	Theme           string
	ShowDepartments bool
	ShowStaff       bool
	ShowFooter      bool
}
