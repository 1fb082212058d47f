package orgunit

import (
	"context"
	"fmt"
	"sync"
)

// InventoryFetcher retrieves the full organizational inventory from the
// hospital API.
type InventoryFetcher interface {
	UserInventory(ctx context.Context) ([]OrgUnit, error)
}

// Directory caches the organizational inventory and derives the filtered
// views every screen shares. The cache is a read-only snapshot: a reload
// replaces the whole slice, it never patches units in place, and accessors
// hand out copies so no consumer can mutate what another holds.
//
// A failed load keeps the previous snapshot; callers must treat the error as
// "inventory unavailable" rather than an empty hierarchy; zero units is a
// valid, different outcome.
type Directory struct {
	fetcher InventoryFetcher

	mu     sync.RWMutex
	units  []OrgUnit
	byID   map[int64]OrgUnit
	loaded bool
}

func NewDirectory(fetcher InventoryFetcher) *Directory {
	return &Directory{fetcher: fetcher}
}

// Load fetches the inventory and replaces the snapshot. On error the
// previous snapshot (if any) stays intact.
func (d *Directory) Load(ctx context.Context) error {
	units, err := d.fetcher.UserInventory(ctx)
	if err != nil {
		return fmt.Errorf("loading org inventory: %w", err)
	}

	byID := make(map[int64]OrgUnit, len(units))
	for _, u := range units {
		byID[u.ID] = u
	}

	d.mu.Lock()
	d.units = units
	d.byID = byID
	d.loaded = true
	d.mu.Unlock()
	return nil
}

// Loaded reports whether at least one inventory fetch has succeeded.
func (d *Directory) Loaded() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.loaded
}

// Units returns the full inventory snapshot.
func (d *Directory) Units() []OrgUnit {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]OrgUnit, len(d.units))
	copy(out, d.units)
	return out
}

// Get returns the unit with the given id.
func (d *Directory) Get(id int64) (OrgUnit, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.byID[id]
	return u, ok
}

// Leaves returns all sections.
func (d *Directory) Leaves() []OrgUnit {
	return d.filter(func(u OrgUnit) bool { return u.Type == TypeSection })
}

// Administrations returns all top-level administrations.
func (d *Directory) Administrations() []OrgUnit {
	return d.filter(func(u OrgUnit) bool { return u.Type == TypeAdministration })
}

// Departments returns all departments.
func (d *Directory) Departments() []OrgUnit {
	return d.filter(func(u OrgUnit) bool { return u.Type == TypeDepartment })
}

// SectionParents returns the units a new section may be created under:
// administrations and departments, never sections. This is the single
// authoritative filter for section creation; screens must not re-derive it.
func (d *Directory) SectionParents() []OrgUnit {
	return d.filter(func(u OrgUnit) bool { return u.Type.CanParentSection() })
}

// UnitsOfType returns all units of the given level.
func (d *Directory) UnitsOfType(t UnitType) []OrgUnit {
	return d.filter(func(u OrgUnit) bool { return u.Type == t })
}

// ChildrenOf derives the children of a unit by parent id.
func (d *Directory) ChildrenOf(id int64) []OrgUnit {
	return d.filter(func(u OrgUnit) bool { return u.ParentID != nil && *u.ParentID == id })
}

func (d *Directory) filter(keep func(OrgUnit) bool) []OrgUnit {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]OrgUnit, 0, len(d.units))
	for _, u := range d.units {
		if keep(u) {
			out = append(out, u)
		}
	}
	return out
}
