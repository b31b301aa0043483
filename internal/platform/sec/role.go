// Copyright (c) 2026 SafHub. All rights reserved.

package sec

import "strings"

// # User Roles

// UserRole represents the access level that decides which dashboard and
// features a SafHub user sees.
type UserRole string

const (
	// Platform administration and role management
	RoleAdmin UserRole = "admin"

	// Course authoring, grading and submissions
	RoleTeacher UserRole = "teacher"

	// Read-only view over a linked student's progress.
	//
	// NOTE: routed by the UI but absent from the stored app_role enum
	// (student|teacher|admin). It is never inferred and never persisted.
	RoleParent UserRole = "parent"

	// Default, least-privileged role
	RoleStudent UserRole = "student"
)

// # Dashboard Routing

// Dashboard route constants.
const (
	HomePath             = "/"
	AdminDashboardPath   = "/admin-dashboard"
	TeacherDashboardPath = "/teacher-dashboard"
	ParentDashboardPath  = "/parent-dashboard"
	StudentDashboardPath = "/student-dashboard"

	// DashboardMarker is the path fragment shared by every dashboard route.
	DashboardMarker = "-dashboard"
)

// DashboardPath maps a role to its landing route. Unknown roles land on the
// student dashboard.
func DashboardPath(role UserRole) string {
	switch role {
	case RoleAdmin:
		return AdminDashboardPath
	case RoleTeacher:
		return TeacherDashboardPath
	case RoleParent:
		return ParentDashboardPath
	default:
		return StudentDashboardPath
	}
}

// # Role Inference

/*
InferRole derives a default role from an email address.

Description: A demo-grade heuristic kept for behavioural parity. It is NOT
a security boundary: anyone can self-assign teacher or admin by picking an
address containing the word. The match is case-sensitive.

  - contains "admin"   -> admin
  - contains "teacher" -> teacher
  - otherwise          -> student
*/
func InferRole(email string) UserRole {
	switch {
	case strings.Contains(email, "admin"):
		return RoleAdmin
	case strings.Contains(email, "teacher"):
		return RoleTeacher
	default:
		return RoleStudent
	}
}

// ParseRole converts a raw string into a known role.
func ParseRole(raw string) (UserRole, bool) {
	switch role := UserRole(raw); role {
	case RoleAdmin, RoleTeacher, RoleParent, RoleStudent:
		return role, true
	default:
		return "", false
	}
}

// IsStorable reports whether the role is a member of the persisted app_role enum.
func (r UserRole) IsStorable() bool {
	return r == RoleAdmin || r == RoleTeacher || r == RoleStudent
}

// String implements [fmt.Stringer].
func (r UserRole) String() string {
	return string(r)
}

// # Role Hierarchy

// AtLeast checks if the current role meets or exceeds the required target role.
func (r UserRole) AtLeast(target UserRole) bool {
	return r.level() >= target.level()
}

// level maps a role to a numeric hierarchy level for comparison logic.
func (r UserRole) level() int {

	// Parent sits beside student: it sees a student's data, never more.
	switch r {
	case RoleAdmin:
		return 30
	case RoleTeacher:
		return 20
	case RoleParent, RoleStudent:
		return 10
	default:
		return 0
	}
}
