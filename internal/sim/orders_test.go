package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/talgya/careflow/internal/entropy"
	"github.com/talgya/careflow/internal/patients"
	"github.com/talgya/careflow/internal/staff"
)

func TestDiagnosePatient(t *testing.T) {
	s := newTestSim(t, soloDoctor(), &entropy.Fixed{Values: []float64{0.99}})
	doc := s.Roster.Doctors()[0]
	s.AdmitPatient("P1", "er", patients.StatusUnderObservation, "Sepsis")

	note, ok := s.DiagnosePatient(doc.ID, "P1")

	assert.True(t, ok)
	assert.NotEmpty(t, note, "fallback narration always produces text")

	last := s.EventLog()[len(s.EventLog())-1]
	assert.Equal(t, EventRoutine, last.Kind)
	assert.Equal(t, "Sepsis", last.Meta["diagnosis"])
	assert.Equal(t, "P1", last.PatientID)

	_, ok = s.DiagnosePatient(doc.ID, "NOPE")
	assert.False(t, ok)
	_, ok = s.DiagnosePatient("NOPE", "P1")
	assert.False(t, ok)
}

func TestScheduleProcedureDispatchesNextTick(t *testing.T) {
	// GIVEN a scheduled procedure with default start
	s := newTestSim(t, soloDoctor(), &entropy.Fixed{Values: []float64{0.99}})
	doc := s.Roster.Doctors()[0]
	s.AdmitPatient("P1", "er", patients.StatusStable, "Appendicitis")

	assert.True(t, s.ScheduleProcedure(doc.ID, "P1", "Appendectomy", "or_1", time.Time{}))

	// WHEN the next tick runs
	events := s.Step()

	// THEN the procedure outranks the initial rounds plan
	var dispatched *Event
	for i := range events {
		if events[i].Kind == EventRoutine && events[i].AgentID == doc.ID {
			dispatched = &events[i]
			break
		}
	}
	if assert.NotNil(t, dispatched) {
		assert.Equal(t, "Perform Appendectomy", dispatched.Description)
		assert.Equal(t, "8", dispatched.Meta["priority"])
		assert.Equal(t, "or_1", doc.Location)
	}
}

func TestPerformRoundsRefreshesVitals(t *testing.T) {
	s := newTestSim(t, soloDoctor(), &entropy.Fixed{Values: []float64{0.99}})
	doc := s.Roster.Doctors()[0]
	s.AdmitPatient("P1", "ward", patients.StatusStable, "Pneumonia")
	s.AdmitPatient("P2", "ward", patients.StatusImproving, "Asthma")
	doc.AssignPatient("P1")
	doc.AssignPatient("P2")

	before := len(s.Registry.Get("P1").History)
	seen, ok := s.PerformRounds(doc.ID)

	assert.True(t, ok)
	assert.Equal(t, 2, seen)
	assert.Equal(t, before+1, len(s.Registry.Get("P1").History))
	assert.InDelta(t, 2*staff.RoundsFatigue, doc.Fatigue, 1e-9)

	_, ok = s.PerformRounds("NOPE")
	assert.False(t, ok)
}

func TestWritePrescriptionLogsEvent(t *testing.T) {
	s := newTestSim(t, soloDoctor(), &entropy.Fixed{Values: []float64{0.99}})
	doc := s.Roster.Doctors()[0]
	s.AdmitPatient("P1", "er", patients.StatusStable, "Trauma")

	assert.True(t, s.WritePrescription(doc.ID, "P1", "Antibiotics"))

	last := s.EventLog()[len(s.EventLog())-1]
	assert.Equal(t, "Antibiotics", last.Meta["medication"])
	assert.False(t, s.WritePrescription(doc.ID, "NOPE", "Antibiotics"))
}
