// Package facility models the hospital's physical layout: typed
// capacity-constrained locations, the connectivity graph between them, and
// the administrative departments patients are admitted to. Occupancy is only
// ever mutated through atomic delta operations that preserve the capacity
// invariant.
package facility

import (
	"sort"
	"sync"
)

// LocationType classifies a physical location.
type LocationType uint8

const (
	TypeWard LocationType = iota
	TypeICU
	TypeOperatingRoom
	TypeER
	TypePharmacy
	TypeNurseStation
	TypeOffice
	TypeWaitingRoom
)

var typeNames = map[string]LocationType{
	"ward":          TypeWard,
	"icu":           TypeICU,
	"or":            TypeOperatingRoom,
	"er":            TypeER,
	"pharmacy":      TypePharmacy,
	"nurse_station": TypeNurseStation,
	"office":        TypeOffice,
	"waiting_room":  TypeWaitingRoom,
}

// TypeFromString resolves a config type name to a LocationType.
func TypeFromString(name string) (LocationType, bool) {
	t, ok := typeNames[name]
	return t, ok
}

// String returns the config name of the type.
func (t LocationType) String() string {
	for name, lt := range typeNames {
		if lt == t {
			return name
		}
	}
	return "unknown"
}

// Location is one physical area with a hard capacity and equipment roster.
// Occupancy is guarded by its own mutex: the event loop is single-threaded,
// but the HTTP surface reads snapshots concurrently.
type Location struct {
	ID       string
	Type     LocationType
	Capacity int

	mu        sync.Mutex
	occupancy int
	equipment map[string]bool
}

// NewLocation creates a location with zero occupancy.
func NewLocation(id string, t LocationType, capacity int, equipment map[string]bool) *Location {
	eq := make(map[string]bool, len(equipment))
	for name, avail := range equipment {
		eq[name] = avail
	}
	return &Location{ID: id, Type: t, Capacity: capacity, equipment: eq}
}

// Occupancy returns the current occupant count.
func (l *Location) Occupancy() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.occupancy
}

// ApplyDelta changes occupancy by delta iff the result stays within
// [0, capacity]. Returns whether the change was applied; on rejection the
// occupancy is untouched.
func (l *Location) ApplyDelta(delta int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	next := l.occupancy + delta
	if next < 0 || next > l.Capacity {
		return false
	}
	l.occupancy = next
	return true
}

// AvailableEquipment returns the sorted names of equipment currently marked
// available.
func (l *Location) AvailableEquipment() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for name, avail := range l.equipment {
		if avail {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// SetEquipment marks a piece of equipment available or unavailable. Unknown
// names are added; a ventilator wheeled in is as real as one configured.
func (l *Location) SetEquipment(name string, available bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.equipment[name] = available
}
