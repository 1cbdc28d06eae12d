package patients

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/talgya/careflow/internal/config"
	"github.com/talgya/careflow/internal/facility"
)

var admitTime = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

// tinyFacility builds an ER with capacity 1 and the standard rule table.
func tinyFacility(t *testing.T, erCapacity, icuCapacity, wardCapacity int) *facility.Facility {
	t.Helper()
	f := facility.New()
	f.AddDepartment(facility.NewDepartment("er", "Emergency Room", erCapacity, 1, nil, nil))
	f.AddDepartment(facility.NewDepartment("icu", "Intensive Care Unit", icuCapacity, 1, nil, nil))
	f.AddDepartment(facility.NewDepartment("ward", "General Ward", wardCapacity, 1, nil, nil))
	return f
}

func standardRules() []config.TransferRule {
	return []config.TransferRule{
		{From: "er", Status: "stable", To: "ward"},
		{From: "er", Status: "critical", To: "icu"},
	}
}

func TestAdmitDischargeCycle(t *testing.T) {
	// GIVEN an empty facility with one ER bed
	f := tinyFacility(t, 1, 1, 1)
	r := NewRegistry(f, nil)

	// WHEN admitting, filling, discharging, re-admitting
	assert.True(t, r.Admit("P1", "er", StatusStable, "Trauma", admitTime))
	assert.False(t, r.Admit("P2", "er", StatusStable, "Trauma", admitTime), "ER is full")
	assert.True(t, r.Discharge("P1"))
	assert.True(t, r.Admit("P2", "er", StatusStable, "Trauma", admitTime))

	// THEN occupancy tracked the whole cycle
	assert.Equal(t, 1, f.Department("er").Occupancy())
	assert.Equal(t, 1, r.Count())
	assert.Nil(t, r.Get("P1"))
}

func TestAdmit_DuplicateAndUnknownDepartment(t *testing.T) {
	f := tinyFacility(t, 5, 5, 5)
	r := NewRegistry(f, nil)

	assert.True(t, r.Admit("P1", "er", StatusStable, "Sepsis", admitTime))
	assert.False(t, r.Admit("P1", "ward", StatusStable, "Sepsis", admitTime), "duplicate id")
	assert.False(t, r.Admit("P9", "morgue", StatusStable, "Sepsis", admitTime), "unknown department")
	assert.Equal(t, 1, f.Department("er").Occupancy())
}

func TestTransfer_NoOpToCurrentDepartment(t *testing.T) {
	f := tinyFacility(t, 1, 1, 1)
	r := NewRegistry(f, nil)
	r.Admit("P1", "er", StatusStable, "Trauma", admitTime)

	// Transfer to the current department succeeds without occupancy change,
	// even though the ER is technically full.
	assert.True(t, r.Transfer("P1", "er"))
	assert.Equal(t, 1, f.Department("er").Occupancy())
}

func TestTransfer_FullDestination_Atomic(t *testing.T) {
	// GIVEN a full ICU
	f := tinyFacility(t, 2, 1, 2)
	r := NewRegistry(f, nil)
	r.Admit("P1", "icu", StatusCritical, "Sepsis", admitTime)
	r.Admit("P2", "er", StatusCritical, "Stroke", admitTime)

	// WHEN transferring into it
	ok := r.Transfer("P2", "icu")

	// THEN the transfer fails with no partial state
	assert.False(t, ok)
	assert.Equal(t, "er", r.Get("P2").Department)
	assert.Equal(t, 1, f.Department("er").Occupancy())
	assert.Equal(t, 1, f.Department("icu").Occupancy())
}

func TestUpdateStatus_AppliesRuleTable(t *testing.T) {
	f := tinyFacility(t, 5, 5, 5)
	r := NewRegistry(f, standardRules())
	r.Admit("P1", "er", StatusUnderObservation, "Chest pain", admitTime)

	// (er, critical) → icu
	target, ok := r.UpdateStatus("P1", StatusCritical)
	assert.True(t, ok)
	assert.Equal(t, "icu", target)
	assert.Equal(t, "icu", r.Get("P1").Department)
	assert.Equal(t, 0, f.Department("er").Occupancy())
	assert.Equal(t, 1, f.Department("icu").Occupancy())
}

func TestUpdateStatus_Backpressure(t *testing.T) {
	// GIVEN a full ICU
	f := tinyFacility(t, 5, 1, 5)
	r := NewRegistry(f, standardRules())
	r.Admit("P0", "icu", StatusCritical, "Sepsis", admitTime)
	r.Admit("P1", "er", StatusUnderObservation, "Arrhythmia", admitTime)

	// WHEN a rule would transfer into it
	target, ok := r.UpdateStatus("P1", StatusCritical)

	// THEN the status updates but the patient stays put
	assert.True(t, ok)
	assert.Equal(t, "", target)
	assert.Equal(t, StatusCritical, r.Get("P1").Status)
	assert.Equal(t, "er", r.Get("P1").Department)
}

func TestUpdateStatus_UnknownPatient(t *testing.T) {
	r := NewRegistry(tinyFacility(t, 1, 1, 1), nil)
	_, ok := r.UpdateStatus("ghost", StatusStable)
	assert.False(t, ok)
}

func TestRecordVitals_KeepsHistory(t *testing.T) {
	p := &Patient{ID: "P1", Status: StatusStable}
	g := NewVitalsGenerator(7)

	p.RecordVitals(g.Snapshot(p, admitTime))
	p.RecordVitals(g.Snapshot(p, admitTime.Add(time.Hour)))
	p.RecordVitals(g.Snapshot(p, admitTime.Add(2*time.Hour)))

	assert.Len(t, p.History, 2)
	assert.Equal(t, admitTime.Add(2*time.Hour), p.Vitals.Time)
	// Deterministic for a fixed seed.
	again := NewVitalsGenerator(7).Snapshot(&Patient{ID: "P1", Status: StatusStable}, admitTime)
	first := NewVitalsGenerator(7).Snapshot(&Patient{ID: "P1", Status: StatusStable}, admitTime)
	assert.Equal(t, first, again)
}

func TestSyntheticSource_Deterministic(t *testing.T) {
	a := NewSyntheticSource(42, 100)
	b := NewSyntheticSource(42, 100)
	assert.Equal(t, a.ActivePatients(), b.ActivePatients())
	assert.Len(t, a.ActivePatients(), 100)

	// Every emergency case really is one.
	for _, r := range a.EmergencyCases() {
		assert.Equal(t, "EMERGENCY", r.LatestAdmission.AdmissionType)
	}

	total := 0
	for _, n := range a.DepartmentDistribution() {
		total += n
	}
	assert.Equal(t, 100, total)
}
