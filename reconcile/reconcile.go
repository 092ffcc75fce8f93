// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package reconcile

import (
	"regexp"
	"sort"
	"strings"

	"github.com/danielhkuo/staff-directory/models"
)

// MemberUserType is the Graph userType of regular (non-guest) accounts.
const MemberUserType = "Member"

// User is the subset of a Microsoft Graph user resource the directory reads.
type User struct {
	ID                string   `json:"id"`
	DisplayName       string   `json:"displayName"`
	GivenName         string   `json:"givenName"`
	Surname           string   `json:"surname"`
	JobTitle          string   `json:"jobTitle"`
	Department        string   `json:"department"`
	Mail              string   `json:"mail"`
	UserPrincipalName string   `json:"userPrincipalName"`
	BusinessPhones    []string `json:"businessPhones"`
	OfficeLocation    string   `json:"officeLocation"`
	CompanyName       string   `json:"companyName"`
	UserType          string   `json:"userType"`
	AccountEnabled    *bool    `json:"accountEnabled"`
}

type Options struct {
	// CompanyName, when set, drops users whose companyName is some other
	// company. Users without a companyName are kept and get this value.
	CompanyName string
}

var (
	extensionPattern    = regexp.MustCompile(`\b(\d{4}(?:/\d{4})?)\b`)
	extensionTagPattern = regexp.MustCompile(`(?i)(?:ext\.?|x\.?)\s*(\d+)`)
	buildingPattern     = regexp.MustCompile(`^([A-Z]+)`)
)

// Build turns Graph users into a directory snapshot. Department extension
// and building are the values most common among the department's staff.
// Staff are sorted by department then name, departments by name.
func Build(users []User, opts Options) models.DirectoryData {
	var staff []models.Staff
	var order []string
	seen := map[string]bool{}

	for _, u := range users {
		if !include(u, opts) {
			continue
		}

		phone := ""
		if len(u.BusinessPhones) > 0 {
			phone = u.BusinessPhones[0]
		}
		email := u.Mail
		if email == "" {
			email = u.UserPrincipalName
		}
		company := u.CompanyName
		if company == "" {
			company = opts.CompanyName
		}

		st := models.Staff{
			ExternalID:     u.ID,
			Name:           strings.TrimSpace(u.GivenName + " " + u.Surname),
			Title:          u.JobTitle,
			DepartmentName: u.Department,
			Extension:      ExtractExtension(u.BusinessPhones),
			Phone:          phone,
			Email:          email,
			RoomNumber:     u.OfficeLocation,
			Building:       ExtractBuilding(u.OfficeLocation),
			DisplayName:    u.DisplayName,
			CompanyName:    company,
		}
		if st.Name == "" {
			continue
		}

		staff = append(staff, st)
		if !seen[st.DepartmentName] {
			seen[st.DepartmentName] = true
			order = append(order, st.DepartmentName)
		}
	}

	departments := make([]models.Department, 0, len(order))
	for _, name := range order {
		departments = append(departments, departmentInfo(name, staff))
	}

	sort.SliceStable(staff, func(i, j int) bool {
		if staff[i].DepartmentName != staff[j].DepartmentName {
			return staff[i].DepartmentName < staff[j].DepartmentName
		}
		return staff[i].Name < staff[j].Name
	})
	sort.SliceStable(departments, func(i, j int) bool {
		return departments[i].Name < departments[j].Name
	})

	if staff == nil {
		staff = []models.Staff{}
	}
	return models.DirectoryData{Departments: departments, Staff: staff}
}

func include(u User, opts Options) bool {
	if u.Department == "" {
		return false
	}
	if u.UserType != "" && u.UserType != MemberUserType {
		return false
	}
	if u.AccountEnabled != nil && !*u.AccountEnabled {
		return false
	}
	if opts.CompanyName != "" && u.CompanyName != "" && u.CompanyName != opts.CompanyName {
		return false
	}
	return true
}

// ExtractExtension returns the first four-digit extension (optionally
// "1234/5678") or "ext N" / "xN" number found in phones.
func ExtractExtension(phones []string) string {
	for _, phone := range phones {
		if m := extensionPattern.FindStringSubmatch(phone); m != nil {
			return m[1]
		}
		if m := extensionTagPattern.FindStringSubmatch(phone); m != nil {
			return m[1]
		}
	}
	return ""
}

// ExtractBuilding returns the leading capital letters of an office location,
// so "LIB 204" yields "LIB".
func ExtractBuilding(officeLocation string) string {
	if m := buildingPattern.FindStringSubmatch(officeLocation); m != nil {
		return m[1]
	}
	return ""
}

func departmentInfo(name string, staff []models.Staff) models.Department {
	var extensions, buildings []string
	count := 0
	for _, st := range staff {
		if st.DepartmentName != name {
			continue
		}
		count++
		if st.Extension != "" {
			extensions = append(extensions, st.Extension)
		}
		if st.Building != "" {
			buildings = append(buildings, st.Building)
		}
	}

	return models.Department{
		Name:       name,
		Extension:  mostFrequent(extensions),
		Building:   mostFrequent(buildings),
		StaffCount: count,
	}
}

// mostFrequent returns the most common value; ties go to the value seen first.
func mostFrequent(values []string) string {
	counts := map[string]int{}
	best, bestCount := "", 0
	for _, v := range values {
		counts[v]++
	}
	for _, v := range values {
		if counts[v] > bestCount {
			best, bestCount = v, counts[v]
		}
	}
	return best
}
