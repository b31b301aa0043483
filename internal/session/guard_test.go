// Copyright (c) 2026 SafHub. All rights reserved.

package session_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/safhub/safhub/internal/client"
	"github.com/safhub/safhub/internal/platform/sec"
	"github.com/safhub/safhub/internal/session"
)

/*
TestRedirectFor covers the dashboard decision table.
*/
func TestRedirectFor(t *testing.T) {
	tests := []struct {
		path   string
		role   sec.UserRole
		want   string
		moving bool
	}{
		{"/", sec.RoleAdmin, "/admin-dashboard", true},
		{"/", sec.RoleTeacher, "/teacher-dashboard", true},
		{"/", sec.RoleParent, "/parent-dashboard", true},
		{"/", sec.RoleStudent, "/student-dashboard", true},
		{"/", "", "/student-dashboard", true},
		{"/admin-dashboard", sec.RoleStudent, "/student-dashboard", true},
		{"/teacher-dashboard", sec.RoleTeacher, "", false},
		{"/student-dashboard/grades", sec.RoleStudent, "/student-dashboard", true},
		{"/courses/12", sec.RoleAdmin, "", false},
		{"/settings", sec.RoleTeacher, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path+"/"+string(tt.role), func(t *testing.T) {
			navigation, ok := session.RedirectFor(tt.path, tt.role)
			assert.Equal(t, tt.moving, ok)
			assert.Equal(t, tt.want, navigation.To)
			assert.False(t, navigation.Replace)
		})
	}
}

/*
TestGuard covers the protected-route check.
*/
func TestGuard(t *testing.T) {
	user := &client.User{ID: "u1", Email: "t@school.edu"}

	tests := []struct {
		name    string
		state   session.State
		allowed []sec.UserRole
		want    session.GuardDecision
	}{
		{
			name:  "loading waits",
			state: session.State{Loading: true, User: user},
			want:  session.GuardDecision{Wait: true},
		},
		{
			name:  "signed out goes home",
			state: session.State{Phase: session.PhaseUnauthenticated},
			want:  session.GuardDecision{Redirect: sec.HomePath},
		},
		{
			name:    "wrong role goes to own dashboard",
			state:   session.State{User: user, Role: sec.RoleTeacher, Phase: session.PhaseAuthenticated},
			allowed: []sec.UserRole{sec.RoleAdmin},
			want:    session.GuardDecision{Redirect: sec.TeacherDashboardPath},
		},
		{
			name:    "allowed role renders",
			state:   session.State{User: user, Role: sec.RoleTeacher, Phase: session.PhaseAuthenticated},
			allowed: []sec.UserRole{sec.RoleAdmin, sec.RoleTeacher},
			want:    session.GuardDecision{Allow: true},
		},
		{
			name:  "no restriction admits any user",
			state: session.State{User: user, Role: sec.RoleStudent, Phase: session.PhaseAuthenticated},
			want:  session.GuardDecision{Allow: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, session.Guard(tt.state, tt.allowed...))
		})
	}
}
