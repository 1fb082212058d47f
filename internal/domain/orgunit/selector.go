package orgunit

import "fmt"

// ParentSelector pairs a parent-type choice with a type-filtered unit pick
// for the section-creation form. Changing the type always clears the picked
// unit, so a department id can never be submitted as an administration id or
// vice versa. The zero value is not ready; use NewParentSelector.
type ParentSelector struct {
	parentType UnitType
	parentID   int64 // 0 = nothing selected
}

// NewParentSelector starts with the department level selected and no unit
// picked, the state the form opens in.
func NewParentSelector() *ParentSelector {
	return &ParentSelector{parentType: TypeDepartment}
}

// ParentType returns the currently selected level.
func (s *ParentSelector) ParentType() UnitType { return s.parentType }

// ParentID returns the picked unit id, 0 when nothing is picked.
func (s *ParentSelector) ParentID() int64 { return s.parentID }

// SetParentType switches the level and clears any picked unit.
func (s *ParentSelector) SetParentType(t UnitType) error {
	if !t.CanParentSection() {
		return fmt.Errorf("unit type %s cannot parent a section", t)
	}
	s.parentType = t
	s.parentID = 0
	return nil
}

// Select picks a unit. The id must belong to the unit set of the current
// parent type.
func (s *ParentSelector) Select(id int64, dir *Directory) error {
	u, ok := dir.Get(id)
	if !ok {
		return fmt.Errorf("org unit %d not found", id)
	}
	if u.Type != s.parentType {
		return fmt.Errorf("org unit %d is a %s, selector is set to %s", id, u.Type, s.parentType)
	}
	s.parentID = id
	return nil
}

// Clear drops the picked unit but keeps the level, ready for the next
// submission.
func (s *ParentSelector) Clear() {
	s.parentID = 0
}

// Options returns the units pickable at the current level.
func (s *ParentSelector) Options(dir *Directory) []OrgUnit {
	return dir.UnitsOfType(s.parentType)
}
