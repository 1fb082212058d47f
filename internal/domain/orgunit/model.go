package orgunit

// UnitType is the organizational level of a unit.
type UnitType string

const (
	TypeAdministration UnitType = "ADMINISTRATION"
	TypeDepartment     UnitType = "DEPARTMENT"
	TypeSection        UnitType = "SECTION"
)

// Valid reports whether t is one of the three known levels.
func (t UnitType) Valid() bool {
	switch t {
	case TypeAdministration, TypeDepartment, TypeSection:
		return true
	}
	return false
}

// CanParentSection reports whether a unit of this type may be the parent of
// a newly created section. Sections are always leaves.
func (t UnitType) CanParentSection() bool {
	return t == TypeAdministration || t == TypeDepartment
}

// OrgUnit is a node in the hospital organizational tree. The tree is at most
// three levels deep (administration → department → section) and is carried on
// the wire as a flat list; children are derived by parent id, never stored.
type OrgUnit struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	Type     UnitType `json:"unit_type"`
	ParentID *int64   `json:"parent_id,omitempty"`
}
