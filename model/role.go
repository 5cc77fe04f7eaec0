package model

import (
	"errors"
	"strings"
)

// Role is one of the four account kinds known to the platform
type Role string

const (
	RoleMentee Role = "mentee"
	RoleMentor Role = "mentor"
	RoleParent Role = "parent"
	RoleAdmin  Role = "admin"
)

var ErrInvalidRole = errors.New("invalid role")

// ParseRole converts a raw string into a Role. Unknown values are rejected.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleMentee:
		return RoleMentee, nil
	case RoleMentor:
		return RoleMentor, nil
	case RoleParent:
		return RoleParent, nil
	case RoleAdmin:
		return RoleAdmin, nil
	}
	return "", ErrInvalidRole
}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

func (r Role) String() string { return string(r) }

// SelfRegistrable reports whether the role can be chosen at public registration
func (r Role) SelfRegistrable() bool {
	return r == RoleMentee || r == RoleMentor || r == RoleParent
}

// Action names a permission checked at the API boundary
type Action int

const (
	ActionManageUsers Action = iota
	ActionViewAnyUser
	ActionManageCurriculum
	ActionSubmitWeek
	ActionReviewWeek
	ActionViewAllApprovals
	ActionListOwnMentees
	ActionListOwnChildren
	ActionViewDashboard
	ActionViewMentorStats
	ActionExportProgress
)

var capabilities = map[Role]map[Action]bool{
	RoleAdmin: {
		ActionManageUsers:      true,
		ActionViewAnyUser:      true,
		ActionManageCurriculum: true,
		ActionViewAllApprovals: true,
		ActionViewDashboard:    true,
		ActionExportProgress:   true,
	},
	RoleMentor: {
		ActionReviewWeek:      true,
		ActionListOwnMentees:  true,
		ActionViewMentorStats: true,
	},
	RoleMentee: {
		ActionSubmitWeek: true,
	},
	RoleParent: {
		ActionListOwnChildren: true,
	},
}

// Can reports whether the role is allowed to perform the action
func (r Role) Can(a Action) bool {
	return capabilities[r][a]
}
