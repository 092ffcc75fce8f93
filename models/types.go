package models

import "time"

// Role constants
const (
	RoleAdmin             = "admin"
	RoleDepartmentManager = "department_manager"
)

// Import type constants
const (
	ImportDepartments = "departments"
	ImportStaff       = "staff"
)

// Embed widget constants
const (
	FormatHTML    = "html"
	FormatJSON    = "json"
	FormatMinimal = "minimal"

	ThemeDefault = "default"
	ThemeMinimal = "minimal"

	SectionsDepartments = "departments"
	SectionsStaff       = "staff"
	SectionsBoth        = "both"
)

// ValidRole reports whether role is one of the two account roles.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleDepartmentManager
}

// Domain types

type Department struct {
	ID          string    `json:"id,omitempty"`
	Name        string    `json:"department_name"`
	Extension   string    `json:"extension"`
	Building    string    `json:"building"`
	RoomNumber  string    `json:"room_number"`
	Description string    `json:"description,omitempty"`
	StaffCount  int       `json:"staff_count"`
	CreatedBy   *string   `json:"-"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
	UpdatedAt   time.Time `json:"updated_at,omitzero"`
}

type Staff struct {
	ID               string    `json:"id,omitempty"`
	DepartmentID     string    `json:"department_id,omitempty"`
	DepartmentName   string    `json:"department"`
	ExternalID       string    `json:"user_id,omitempty"` // Microsoft Graph object id
	Name             string    `json:"name"`
	Title            string    `json:"title"`
	Extension        string    `json:"extension"`
	Phone            string    `json:"phone,omitempty"`
	Email            string    `json:"email,omitempty"`
	RoomNumber       string    `json:"room_number"`
	Building         string    `json:"building,omitempty"`
	IsDepartmentHead bool      `json:"is_department_head"`
	DisplayName      string    `json:"display_name,omitempty"`
	CompanyName      string    `json:"company_name,omitempty"`
	AddedBy          *string   `json:"-"`
	CreatedAt        time.Time `json:"created_at,omitzero"`
	UpdatedAt        time.Time `json:"updated_at,omitzero"`
}

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // Never expose in JSON
	Role         string    `json:"role"`
	Email        string    `json:"email"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserSummary is a user row on the admin users page.
type UserSummary struct {
	User
	Departments        []string `json:"assigned_departments"`
	CreatedDepartments int      `json:"created_department_count"`
	AddedStaff         int      `json:"staff_count"`
}

// SearchResult is a staff row annotated with its ranking score.
type SearchResult struct {
	Staff
	DepartmentExtension string `json:"dept_extension"`
	DepartmentBuilding  string `json:"dept_building"`
	DepartmentRoom      string `json:"dept_room"`
	Relevance           int    `json:"relevance"`
}

// StaffFilter narrows ListStaff. Zero values mean "no restriction", except that a
// non-nil empty DepartmentIDs restricts to nothing.
type StaffFilter struct {
	DepartmentIDs  []string
	DepartmentID   string
	DepartmentName string
	Search         string
	Building       string
	Limit          int
}

type Stats struct {
	DepartmentCount int `json:"department_count"`
	StaffCount      int `json:"staff_count"`
	BuildingCount   int `json:"building_count"`
	// Ready is set once the directory has both departments and staff.
	Ready bool `json:"ready"`
}

type DashboardStats struct {
	TotalDepartments  int          `json:"total_departments"`
	TotalStaff        int          `json:"total_staff"`
	TotalManagers     int          `json:"total_managers"`
	TotalAdmins       int          `json:"total_admins"`
	RecentDepartments []Department `json:"recent_departments"`
	RecentStaff       []Staff      `json:"recent_staff"`
}

// DirectoryData is the full public directory. It is the shape of the on-disk
// directory cache and of the JSON accepted by `migrate --from-json`.
type DirectoryData struct {
	Departments []Department `json:"departments"`
	Staff       []Staff      `json:"staff_list"`
	GeneratedAt time.Time    `json:"generated_at,omitzero"`
}

// Import types

type DepartmentRow struct {
	RowNumber  int    `json:"row_number"`
	Name       string `json:"department_name"`
	Extension  string `json:"extension"`
	Building   string `json:"building"`
	RoomNumber string `json:"room_number"`
	Exists     bool   `json:"exists"`
}

type StaffRow struct {
	RowNumber        int    `json:"row_number"`
	Name             string `json:"name"`
	Title            string `json:"title"`
	Extension        string `json:"extension"`
	RoomNumber       string `json:"room_number"`
	DepartmentName   string `json:"department_name"`
	DepartmentID     string `json:"department_id,omitempty"`
	DepartmentExists bool   `json:"department_exists"`
	Exists           bool   `json:"exists"`
}

type ImportSummary struct {
	Imported int      `json:"imported"`
	Updated  int      `json:"updated"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors"`
}

// ReplaceResult reports what a full directory replacement wrote.
type ReplaceResult struct {
	DepartmentCount int `json:"department_count"`
	StaffCount      int `json:"staff_count"`
	SkippedStaff    int `json:"skipped_staff"`
}

// Response types

type StaffListResponse struct {
	Staff []Staff `json:"staff"`
	Count int     `json:"count"`
}

type SearchResponse struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
	Count   int            `json:"count"`
}

type DepartmentListResponse struct {
	Departments []Department `json:"departments"`
}

// EmbedResponse is the format=json body of the embed endpoint, consumed by widget.js.
type EmbedResponse struct {
	Departments       []Department       `json:"departments"`
	Staff             []Staff            `json:"staff"`
	StaffByDepartment map[string][]Staff `json:"staff_by_department"`
	Department        string             `json:"department,omitempty"`
	GeneratedAt       time.Time          `json:"generated_at"`
}

type StaffDetailResponse struct {
	ID             string `json:"id"`
	DepartmentID   string `json:"department_id"`
	Name           string `json:"name"`
	Title          string `json:"title"`
	Extension      string `json:"extension"`
	RoomNumber     string `json:"room_number"`
	DepartmentName string `json:"department_name"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
