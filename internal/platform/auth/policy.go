// Package auth carries the console's operator sessions and the role policy.
// The policy table below is the single source of truth for what a role may
// see; screens ask it, they never inline an allowed-role list of their own.
package auth

import (
	"sort"
	"strings"
)

// Capability is a named permission: a settings tab or a page.
type Capability string

// Settings tabs.
const (
	TabSections Capability = "settings.sections"
	TabUsers    Capability = "settings.users"
	TabNetwork  Capability = "settings.network"
	TabEmail    Capability = "settings.email"
	TabDatabase Capability = "settings.database"
)

// Pages.
const (
	PageDashboard     Capability = "page.dashboard"
	PageSections      Capability = "page.sections"
	PagePersonReports Capability = "page.person-reports"
	PageTraining      Capability = "page.training"
	PageSettings      Capability = "page.settings"
)

// Canonical role identifiers, always lower-case. Role strings arrive from
// the identity provider in mixed case; NormalizeRole is applied once, at
// session ingestion, so the table never needs case branches.
const (
	RoleSoftwareAdmin     = "software_admin"
	RoleSectionAdmin      = "section_admin"
	RoleComplaintWorker   = "complaint_department_worker"
	RoleDepartmentManager = "department_manager"
)

// NormalizeRole folds a role identifier to its canonical form.
func NormalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}

// NormalizeRoles folds a role list, dropping empties.
func NormalizeRoles(roles []string) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		if n := NormalizeRole(r); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// Policy maps canonical roles to capability sets. Lookups on unknown roles or
// unknown capabilities resolve to denied; nothing here panics.
type Policy struct {
	grants map[string]map[Capability]struct{}
}

// DefaultPolicy is the fixed console policy.
func DefaultPolicy() *Policy {
	return NewPolicy(map[string][]Capability{
		RoleSoftwareAdmin: {
			TabSections, TabUsers, TabNetwork, TabEmail, TabDatabase,
			PageDashboard, PageSections, PagePersonReports, PageTraining, PageSettings,
		},
		RoleSectionAdmin: {
			PageDashboard, PageSections,
		},
		RoleComplaintWorker: {
			PageDashboard, PagePersonReports,
		},
		RoleDepartmentManager: {
			PageDashboard, PageSections, PageTraining,
		},
	})
}

// NewPolicy builds a policy from a role → capabilities table. Role keys are
// normalized so a mixed-case table definition cannot silently deny.
func NewPolicy(table map[string][]Capability) *Policy {
	grants := make(map[string]map[Capability]struct{}, len(table))
	for role, caps := range table {
		set := make(map[Capability]struct{}, len(caps))
		for _, c := range caps {
			set[c] = struct{}{}
		}
		grants[NormalizeRole(role)] = set
	}
	return &Policy{grants: grants}
}

// CanRoleSee reports whether a single role grants the capability.
func (p *Policy) CanRoleSee(role string, cap Capability) bool {
	set, ok := p.grants[NormalizeRole(role)]
	if !ok {
		return false
	}
	_, ok = set[cap]
	return ok
}

// CanAccess reports whether any of the held roles grants the capability.
// A nil or empty role list is denied, never an error.
func (p *Policy) CanAccess(roles []string, cap Capability) bool {
	for _, r := range roles {
		if p.CanRoleSee(r, cap) {
			return true
		}
	}
	return false
}

// Capabilities returns the union of capabilities granted by the held roles,
// sorted for stable output.
func (p *Policy) Capabilities(roles []string) []Capability {
	seen := make(map[Capability]struct{})
	for _, r := range roles {
		for c := range p.grants[NormalizeRole(r)] {
			seen[c] = struct{}{}
		}
	}
	out := make([]Capability, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Roles returns the roles present in the table, sorted.
func (p *Policy) Roles() []string {
	out := make([]string, 0, len(p.grants))
	for r := range p.grants {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}
