package facility

import "sync"

// Department is an administrative unit (ER, ICU, Ward) that patients are
// admitted to. It carries the same occupancy invariant as a Location but is
// tracked separately: a department may span several physical locations.
type Department struct {
	ID        string
	Name      string
	Capacity  int
	MinStaff  int
	Equipment []string
	Locations []string // physical location ids under this unit

	mu        sync.Mutex
	occupancy int
}

// NewDepartment creates a department with zero occupancy.
func NewDepartment(id, name string, capacity, minStaff int, equipment, locations []string) *Department {
	return &Department{
		ID:        id,
		Name:      name,
		Capacity:  capacity,
		MinStaff:  minStaff,
		Equipment: equipment,
		Locations: locations,
	}
}

// Occupancy returns the current patient count.
func (d *Department) Occupancy() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.occupancy
}

// HasCapacity reports whether one more patient fits.
func (d *Department) HasCapacity() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.occupancy < d.Capacity
}

// ApplyDelta changes occupancy by delta iff the result stays within
// [0, capacity]. Returns whether the change was applied.
func (d *Department) ApplyDelta(delta int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	next := d.occupancy + delta
	if next < 0 || next > d.Capacity {
		return false
	}
	d.occupancy = next
	return true
}

// OccupancyRate returns occupancy as a fraction of capacity.
func (d *Department) OccupancyRate() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Capacity == 0 {
		return 0
	}
	return float64(d.occupancy) / float64(d.Capacity)
}
