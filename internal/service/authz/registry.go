package authz

import (
	"github.com/orientmedical/diagnostics-api/internal/model"
)

// RouteGroup maps a module to the route prefixes it unlocks. Order in the
// registry is the order routes are emitted in.
type RouteGroup struct {
	Module string
	Routes []string
}

// Registry holds the immutable role templates and the module route table.
// It is built once at process start and injected into every consumer;
// there is no package-global state.
type Registry struct {
	templates []model.RoleTemplate
	routes    []RouteGroup
}

func NewRegistry(templates []model.RoleTemplate, routes []RouteGroup) *Registry {
	return &Registry{templates: templates, routes: routes}
}

// Templates returns the ordered template list, most privileged first.
func (r *Registry) Templates() []model.RoleTemplate {
	return r.templates
}

// Template looks a role template up by id.
func (r *Registry) Template(id string) (model.RoleTemplate, bool) {
	for _, t := range r.templates {
		if t.ID == id {
			return t, true
		}
	}
	return model.RoleTemplate{}, false
}

// RouteGroups returns the ordered module route table.
func (r *Registry) RouteGroups() []RouteGroup {
	return r.routes
}

func perm(module, action string) model.Permission {
	return model.Permission{Module: module, Action: action}
}

// DefaultRegistry builds the standard diagnostics-center role set. The
// template order matters: role resolution returns the first template whose
// permission set is covered by the caller's snapshot, so broader roles
// come first.
func DefaultRegistry() *Registry {
	templates := []model.RoleTemplate{
		{
			ID:          "admin",
			Name:        "Administrator",
			Description: "Full access to every module including settings and staff management",
			Level:       model.AccessLevelAdmin,
			Permissions: []model.Permission{
				perm(model.ModuleAdmin, model.ActionManage),
				perm(model.ModulePatients, model.ActionManage),
				perm(model.ModuleLaboratory, model.ActionManage),
				perm(model.ModuleRadiology, model.ActionManage),
				perm(model.ModulePharmacy, model.ActionManage),
				perm(model.ModuleBilling, model.ActionManage),
				perm(model.ModuleBilling, model.ActionCollect),
				perm(model.ModuleInventory, model.ActionManage),
				perm(model.ModuleStaff, model.ActionManage),
				perm(model.ModuleReports, model.ActionView),
			},
		},
		{
			ID:          "branch_manager",
			Name:        "Branch Manager",
			Description: "Runs a branch: patients, billing oversight, inventory and reports",
			Level:       model.AccessLevelAdvanced,
			Permissions: []model.Permission{
				perm(model.ModulePatients, model.ActionManage),
				perm(model.ModuleBilling, model.ActionView),
				perm(model.ModuleBilling, model.ActionCreate),
				perm(model.ModuleInventory, model.ActionManage),
				perm(model.ModuleStaff, model.ActionView),
				perm(model.ModuleReports, model.ActionView),
			},
		},
		{
			ID:          "accountant",
			Name:        "Accountant",
			Description: "Billing oversight and financial reports, no cash handling",
			Level:       model.AccessLevelAdvanced,
			Permissions: []model.Permission{
				perm(model.ModuleBilling, model.ActionView),
				perm(model.ModuleBilling, model.ActionCreate),
				perm(model.ModuleReports, model.ActionView),
			},
		},
		{
			ID:          "cashier",
			Name:        "Cashier",
			Description: "Collects payments on existing invoices",
			Level:       model.AccessLevelAdvanced,
			Permissions: []model.Permission{
				perm(model.ModuleBilling, model.ActionView),
				perm(model.ModuleBilling, model.ActionCollect),
			},
		},
		{
			ID:          "lab_technician",
			Name:        "Lab Technician",
			Description: "Laboratory workflow and patient lookup",
			Level:       model.AccessLevelBasic,
			Permissions: []model.Permission{
				perm(model.ModulePatients, model.ActionView),
				perm(model.ModuleLaboratory, model.ActionView),
				perm(model.ModuleLaboratory, model.ActionUpdate),
			},
		},
		{
			ID:          "radiologist",
			Name:        "Radiologist",
			Description: "Radiology workflow and patient lookup",
			Level:       model.AccessLevelBasic,
			Permissions: []model.Permission{
				perm(model.ModulePatients, model.ActionView),
				perm(model.ModuleRadiology, model.ActionView),
				perm(model.ModuleRadiology, model.ActionUpdate),
			},
		},
		{
			ID:          "pharmacist",
			Name:        "Pharmacist",
			Description: "Pharmacy dispensing and stock lookup",
			Level:       model.AccessLevelBasic,
			Permissions: []model.Permission{
				perm(model.ModulePharmacy, model.ActionView),
				perm(model.ModulePharmacy, model.ActionUpdate),
				perm(model.ModuleInventory, model.ActionView),
			},
		},
		{
			ID:          "receptionist",
			Name:        "Receptionist",
			Description: "Patient intake and invoice creation at the front desk",
			Level:       model.AccessLevelBasic,
			Permissions: []model.Permission{
				perm(model.ModulePatients, model.ActionView),
				perm(model.ModulePatients, model.ActionCreate),
				perm(model.ModuleBilling, model.ActionCreate),
			},
		},
	}

	routes := []RouteGroup{
		{Module: model.ModulePatients, Routes: []string{"/patients"}},
		{Module: model.ModuleLaboratory, Routes: []string{"/laboratory"}},
		{Module: model.ModuleRadiology, Routes: []string{"/radiology"}},
		{Module: model.ModulePharmacy, Routes: []string{"/pharmacy"}},
		{Module: model.ModuleBilling, Routes: []string{"/billing", "/billing/invoices"}},
		{Module: model.ModuleInventory, Routes: []string{"/inventory"}},
		{Module: model.ModuleStaff, Routes: []string{"/staff"}},
		{Module: model.ModuleReports, Routes: []string{"/reports"}},
		{Module: model.ModuleAdmin, Routes: []string{"/settings"}},
	}

	return NewRegistry(templates, routes)
}
