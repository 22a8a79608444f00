package auth

import "strings"

// Role is the building-management role carried in a token.
type Role string

const (
	RoleViewer  Role = "viewer"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

// Action is an operation on charge announcements. Its value doubles as the audit action.
type Action string

const (
	ActionReadCharges   Action = "charge.read"
	ActionExportCharge  Action = "charge.export"
	ActionPreviewCharge Action = "charge.preview"
	ActionIssueCharge   Action = "charge.issue"
	ActionVoidCharge    Action = "charge.void"
)

// Viewers read and export, managers also price and issue, admins also void.
var grants = map[Role]map[Action]bool{
	RoleViewer: {
		ActionReadCharges:  true,
		ActionExportCharge: true,
	},
	RoleManager: {
		ActionReadCharges:   true,
		ActionExportCharge:  true,
		ActionPreviewCharge: true,
		ActionIssueCharge:   true,
	},
	RoleAdmin: {
		ActionReadCharges:   true,
		ActionExportCharge:  true,
		ActionPreviewCharge: true,
		ActionIssueCharge:   true,
		ActionVoidCharge:    true,
	},
}

// NormalizeRole parses a token role, ignoring case and surrounding space.
func NormalizeRole(value string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := grants[role]; !ok {
		return "", false
	}
	return role, true
}

// Can reports whether role may perform action. Unknown roles may do nothing.
func Can(role Role, action Action) bool {
	return grants[role][action]
}
