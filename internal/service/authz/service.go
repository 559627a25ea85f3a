package authz

import (
	"github.com/orientmedical/diagnostics-api/internal/model"
)

// Thresholds for the role-resolution fallback heuristic when no template
// covers the snapshot exactly.
const (
	advancedPermissionThreshold = 8
	adminPermissionThreshold    = 15
)

// HasPermission reports whether the granted snapshot satisfies required.
// Module and action must match exactly. When required names a resource,
// the grant must name the same resource: an unscoped grant never
// satisfies a resource-scoped requirement.
func HasPermission(granted []model.Permission, required model.Permission) bool {
	for _, g := range granted {
		if g.Module != required.Module || g.Action != required.Action {
			continue
		}
		if required.Resource == "" || g.Resource == required.Resource {
			return true
		}
	}
	return false
}

// HasAnyPermission reports whether at least one requirement is satisfied.
// An empty requirement list is never satisfied.
func HasAnyPermission(granted []model.Permission, required []model.Permission) bool {
	for _, r := range required {
		if HasPermission(granted, r) {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether every requirement is satisfied. An
// empty requirement list is vacuously satisfied.
func HasAllPermissions(granted []model.Permission, required []model.Permission) bool {
	for _, r := range required {
		if !HasPermission(granted, r) {
			return false
		}
	}
	return true
}

// CanAccessModule reports whether any grant touches the module at all,
// regardless of action or resource.
func CanAccessModule(granted []model.Permission, module string) bool {
	for _, g := range granted {
		if g.Module == module {
			return true
		}
	}
	return false
}

// Service resolves permissions against an injected registry. All methods
// are pure functions over the snapshot; denial is a value, never an error.
type Service struct {
	registry *Registry
}

func NewService(registry *Registry) *Service {
	return &Service{registry: registry}
}

// Registry exposes the injected registry for consumers that need the
// template list (login denormalization).
func (s *Service) Registry() *Registry {
	return s.registry
}

// AccessibleRoutes returns the route prefixes the snapshot unlocks, in
// registry order. The root route is always present.
func (s *Service) AccessibleRoutes(granted []model.Permission) []string {
	routes := []string{"/"}
	for _, group := range s.registry.RouteGroups() {
		if CanAccessModule(granted, group.Module) {
			routes = append(routes, group.Routes...)
		}
	}
	return routes
}

// ResolveRoleInfo maps a snapshot back to the closest role template: the
// first template, in registry order, whose whole permission set the
// snapshot covers. With no match the level falls back to a size
// heuristic over the distinct permissions granted.
func (s *Service) ResolveRoleInfo(granted []model.Permission) model.RoleInfo {
	if len(granted) == 0 {
		return model.RoleInfo{Role: nil, Level: model.AccessLevelBasic}
	}

	for i := range s.registry.Templates() {
		t := s.registry.Templates()[i]
		if HasAllPermissions(granted, t.Permissions) {
			return model.RoleInfo{Role: &t, Level: t.Level}
		}
	}

	distinct := countDistinct(granted)
	switch {
	case CanAccessModule(granted, model.ModuleAdmin) || distinct > adminPermissionThreshold:
		return model.RoleInfo{Role: nil, Level: model.AccessLevelAdmin}
	case distinct > advancedPermissionThreshold:
		return model.RoleInfo{Role: nil, Level: model.AccessLevelAdvanced}
	default:
		return model.RoleInfo{Role: nil, Level: model.AccessLevelBasic}
	}
}

// countDistinct ignores duplicate grants so a repeated permission cannot
// shift the heuristic.
func countDistinct(granted []model.Permission) int {
	seen := make(map[model.Permission]struct{}, len(granted))
	for _, g := range granted {
		seen[g] = struct{}{}
	}
	return len(seen)
}
