package model

import (
	"fmt"
	"strings"
)

// Permission is an atomic capability: a module plus an action, optionally
// narrowed to a single resource. Permissions are build-time constants; they
// are never created or mutated at runtime.
type Permission struct {
	Module   string `json:"module"`
	Action   string `json:"action"`
	Resource string `json:"resource,omitempty"`
}

// String renders the permission in its wire form, "module:action" or
// "module:action:resource". This is the shape carried in JWT claims.
func (p Permission) String() string {
	if p.Resource != "" {
		return p.Module + ":" + p.Action + ":" + p.Resource
	}
	return p.Module + ":" + p.Action
}

// ParsePermission parses the wire form produced by String.
func ParsePermission(s string) (Permission, error) {
	parts := strings.Split(s, ":")
	switch len(parts) {
	case 2:
		return Permission{Module: parts[0], Action: parts[1]}, nil
	case 3:
		return Permission{Module: parts[0], Action: parts[1], Resource: parts[2]}, nil
	default:
		return Permission{}, fmt.Errorf("malformed permission %q", s)
	}
}

// AccessLevel is a coarse privilege tier derived from a permission set.
type AccessLevel string

const (
	AccessLevelBasic    AccessLevel = "basic"
	AccessLevelAdvanced AccessLevel = "advanced"
	AccessLevelAdmin    AccessLevel = "admin"
)

// RoleTemplate is a named, immutable bundle of permissions. Templates are
// configuration data loaded at process start, not persisted entities.
type RoleTemplate struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Level       AccessLevel  `json:"level"`
	Permissions []Permission `json:"permissions"`
}

// RoleInfo is the result of resolving a permission snapshot back to the
// closest role template. Role is nil when no template matches and the
// level falls back to a size heuristic.
type RoleInfo struct {
	Role  *RoleTemplate `json:"role"`
	Level AccessLevel   `json:"level"`
}

// Module names. These gate route groups and UI sections.
const (
	ModulePatients   = "patients"
	ModuleLaboratory = "laboratory"
	ModuleRadiology  = "radiology"
	ModulePharmacy   = "pharmacy"
	ModuleBilling    = "billing"
	ModuleInventory  = "inventory"
	ModuleStaff      = "staff"
	ModuleReports    = "reports"
	ModuleAdmin      = "admin"
)

// Common actions.
const (
	ActionView    = "view"
	ActionCreate  = "create"
	ActionUpdate  = "update"
	ActionDelete  = "delete"
	ActionCollect = "collect"
	ActionManage  = "manage"
)
