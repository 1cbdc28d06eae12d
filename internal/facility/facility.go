package facility

import (
	"errors"
	"fmt"
	"sort"

	"github.com/talgya/careflow/internal/config"
)

// ErrDuplicateLocation is returned when a location id is registered twice.
var ErrDuplicateLocation = errors.New("duplicate location id")

// Facility holds every location, the undirected connectivity graph between
// them, and the departments layered on top.
type Facility struct {
	locations   map[string]*Location
	adjacency   map[string][]string
	departments map[string]*Department
	deptOrder   []string // stable iteration order for snapshots and reports
}

// New creates an empty facility.
func New() *Facility {
	return &Facility{
		locations:   make(map[string]*Location),
		adjacency:   make(map[string][]string),
		departments: make(map[string]*Department),
	}
}

// FromConfig builds a validated facility from scenario configuration.
func FromConfig(cfg *config.Config) (*Facility, error) {
	f := New()
	for _, lc := range cfg.Locations {
		t, ok := TypeFromString(lc.Type)
		if !ok {
			return nil, fmt.Errorf("location %s: unknown type %q", lc.ID, lc.Type)
		}
		if err := f.AddLocation(lc.ID, t, lc.Capacity, lc.Equipment); err != nil {
			return nil, err
		}
	}
	for _, conn := range cfg.Connections {
		if err := f.Connect(conn[0], conn[1]); err != nil {
			return nil, err
		}
	}
	for _, dc := range cfg.Departments {
		f.AddDepartment(NewDepartment(dc.ID, dc.Name, dc.Capacity, dc.MinStaff, dc.Equipment, dc.Locations))
	}
	return f, nil
}

// AddLocation registers a new location. Duplicate ids are a configuration
// error and fail fast.
func (f *Facility) AddLocation(id string, t LocationType, capacity int, equipment map[string]bool) error {
	if _, exists := f.locations[id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateLocation, id)
	}
	f.locations[id] = NewLocation(id, t, capacity, equipment)
	return nil
}

// Connect adds an undirected edge between two registered locations.
func (f *Facility) Connect(a, b string) error {
	if _, ok := f.locations[a]; !ok {
		return fmt.Errorf("connect: unknown location %s", a)
	}
	if _, ok := f.locations[b]; !ok {
		return fmt.Errorf("connect: unknown location %s", b)
	}
	f.adjacency[a] = append(f.adjacency[a], b)
	f.adjacency[b] = append(f.adjacency[b], a)
	return nil
}

// Location returns the location with the given id, or nil.
func (f *Facility) Location(id string) *Location {
	return f.locations[id]
}

// UpdateOccupancy applies an occupancy delta to a location. Returns false if
// the location is unknown or the delta would violate the capacity invariant;
// no partial effects either way.
func (f *Facility) UpdateOccupancy(id string, delta int) bool {
	loc, ok := f.locations[id]
	if !ok {
		return false
	}
	return loc.ApplyDelta(delta)
}

// AvailableEquipment returns the equipment currently available at a location.
func (f *Facility) AvailableEquipment(id string) []string {
	loc, ok := f.locations[id]
	if !ok {
		return nil
	}
	return loc.AvailableEquipment()
}

// SetEquipment updates equipment availability at a location.
func (f *Facility) SetEquipment(id, name string, available bool) bool {
	loc, ok := f.locations[id]
	if !ok {
		return false
	}
	loc.SetEquipment(name, available)
	return true
}

// ShortestPath returns the unweighted shortest path from a to b, inclusive of
// both endpoints. An empty result means no route exists — a valid state for
// a facility under construction, not an error.
func (f *Facility) ShortestPath(a, b string) []string {
	if _, ok := f.locations[a]; !ok {
		return nil
	}
	if _, ok := f.locations[b]; !ok {
		return nil
	}
	if a == b {
		return []string{a}
	}

	// BFS over the adjacency lists.
	prev := map[string]string{a: ""}
	queue := []string{a}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range f.adjacency[cur] {
			if _, seen := prev[next]; seen {
				continue
			}
			prev[next] = cur
			if next == b {
				// Walk back to reconstruct the path.
				path := []string{b}
				for at := cur; at != ""; at = prev[at] {
					path = append([]string{at}, path...)
				}
				return path
			}
			queue = append(queue, next)
		}
	}
	return nil
}

// AddDepartment registers a department.
func (f *Facility) AddDepartment(d *Department) {
	if _, exists := f.departments[d.ID]; !exists {
		f.deptOrder = append(f.deptOrder, d.ID)
	}
	f.departments[d.ID] = d
}

// Department returns the department with the given id, or nil.
func (f *Facility) Department(id string) *Department {
	return f.departments[id]
}

// Departments returns all departments in registration order.
func (f *Facility) Departments() []*Department {
	out := make([]*Department, 0, len(f.deptOrder))
	for _, id := range f.deptOrder {
		out = append(out, f.departments[id])
	}
	return out
}

// LocationIDs returns all location ids, sorted.
func (f *Facility) LocationIDs() []string {
	ids := make([]string, 0, len(f.locations))
	for id := range f.locations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// OccupancySnapshot returns location id → occupancy for reporting.
func (f *Facility) OccupancySnapshot() map[string]int {
	snap := make(map[string]int, len(f.locations))
	for id, loc := range f.locations {
		snap[id] = loc.Occupancy()
	}
	return snap
}
