package facility

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/talgya/careflow/internal/config"
)

func TestAddLocation_Duplicate_Fails(t *testing.T) {
	f := New()
	if err := f.AddLocation("er", TypeER, 15, nil); err != nil {
		t.Fatalf("first AddLocation: %v", err)
	}

	err := f.AddLocation("er", TypeER, 10, nil)
	if !errors.Is(err, ErrDuplicateLocation) {
		t.Errorf("duplicate AddLocation: got %v, want ErrDuplicateLocation", err)
	}
}

func TestUpdateOccupancy_Invariant(t *testing.T) {
	// GIVEN a location with capacity 2
	f := New()
	_ = f.AddLocation("icu_1", TypeICU, 2, nil)

	// WHEN occupancy is driven through valid and invalid deltas
	// THEN it never leaves [0, capacity] and rejected deltas have no effect
	assert.True(t, f.UpdateOccupancy("icu_1", 1))
	assert.True(t, f.UpdateOccupancy("icu_1", 1))
	assert.False(t, f.UpdateOccupancy("icu_1", 1), "over capacity must be rejected")
	assert.Equal(t, 2, f.Location("icu_1").Occupancy())

	assert.True(t, f.UpdateOccupancy("icu_1", -2))
	assert.False(t, f.UpdateOccupancy("icu_1", -1), "below zero must be rejected")
	assert.Equal(t, 0, f.Location("icu_1").Occupancy())
}

func TestUpdateOccupancy_UnknownLocation(t *testing.T) {
	f := New()
	assert.False(t, f.UpdateOccupancy("nowhere", 1))
}

func TestShortestPath_HubTopology(t *testing.T) {
	// GIVEN the default hub-and-spoke layout
	f, err := FromConfig(config.Default())
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}

	// WHEN routing between two spokes
	path := f.ShortestPath("ward_1", "er")

	// THEN the route passes through the nurse station
	assert.Equal(t, []string{"ward_1", "nurse_station_1", "er"}, path)
}

func TestShortestPath_SameLocation(t *testing.T) {
	f, _ := FromConfig(config.Default())
	assert.Equal(t, []string{"er"}, f.ShortestPath("er", "er"))
}

func TestShortestPath_Disconnected_ReturnsEmpty(t *testing.T) {
	// GIVEN two locations with no edge between them
	f := New()
	_ = f.AddLocation("office_1", TypeOffice, 3, nil)
	_ = f.AddLocation("office_2", TypeOffice, 3, nil)

	// WHEN a path is requested
	path := f.ShortestPath("office_1", "office_2")

	// THEN the result is empty — unreachable, not an error
	assert.Empty(t, path)
}

func TestAvailableEquipment(t *testing.T) {
	f := New()
	_ = f.AddLocation("er", TypeER, 15, map[string]bool{
		"defibrillator": true,
		"xray":          false,
		"monitor":       true,
	})

	assert.Equal(t, []string{"defibrillator", "monitor"}, f.AvailableEquipment("er"))

	// Flipping availability is reflected immediately.
	f.SetEquipment("er", "xray", true)
	f.SetEquipment("er", "monitor", false)
	assert.Equal(t, []string{"defibrillator", "xray"}, f.AvailableEquipment("er"))
}

func TestDepartment_CapacityInvariant(t *testing.T) {
	d := NewDepartment("icu", "Intensive Care Unit", 2, 4, nil, nil)

	assert.True(t, d.ApplyDelta(2))
	assert.False(t, d.ApplyDelta(1))
	assert.Equal(t, 2, d.Occupancy())
	assert.False(t, d.HasCapacity())
	assert.InDelta(t, 1.0, d.OccupancyRate(), 1e-9)

	assert.True(t, d.ApplyDelta(-2))
	assert.False(t, d.ApplyDelta(-1))
	assert.Equal(t, 0, d.Occupancy())
}

func TestFromConfig_RejectsUnknownType(t *testing.T) {
	cfg := config.Default()
	cfg.Locations = append(cfg.Locations, config.LocationConfig{ID: "heliport", Type: "helipad", Capacity: 1})

	_, err := FromConfig(cfg)
	assert.Error(t, err)
}
