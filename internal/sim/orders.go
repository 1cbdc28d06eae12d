// Clinical orders — doctor-initiated actions outside the tick loop:
// diagnosis, procedure scheduling, rounds, prescriptions. Each mutates agent
// state through the staff package and logs an event.
package sim

import (
	"fmt"
	"time"
)

// DiagnosePatient has the doctor assess the patient. Returns the assessment
// text and whether both parties exist.
func (s *Simulation) DiagnosePatient(doctorID, patientID string) (string, bool) {
	doc := s.Roster.Get(doctorID)
	p := s.Registry.Get(patientID)
	if doc == nil || p == nil {
		return "", false
	}

	confidence := doc.Diagnose(s.now, patientID, p.Diagnosis)
	note := ""
	if s.gen != nil {
		note = s.gen.GenerateResponse(
			fmt.Sprintf("Assess patient %s presenting with %s", patientID, p.Diagnosis),
			doc.Role.String(), 0.7)
	}

	ev := newEvent(s.now, EventRoutine, doc.ID, patientID, doc.Location,
		fmt.Sprintf("%s diagnosed %s", doc.Name, patientID))
	ev.Meta = map[string]string{
		"diagnosis":  p.Diagnosis,
		"confidence": fmt.Sprintf("%.2f", confidence),
	}
	if note != "" {
		ev.Meta["assessment"] = note
	}
	s.append(ev)
	return note, true
}

// ScheduleProcedure queues a procedure plan on the doctor, starting one tick
// from now by default.
func (s *Simulation) ScheduleProcedure(doctorID, patientID, procedure, location string, start time.Time) bool {
	doc := s.Roster.Get(doctorID)
	if doc == nil || s.Registry.Get(patientID) == nil {
		return false
	}
	if start.IsZero() {
		start = s.now.Add(s.tickStep)
	}
	plan := doc.ScheduleProcedure(start, start.Add(time.Hour), procedure, location, patientID)

	ev := newEvent(s.now, EventRoutine, doc.ID, patientID, location,
		fmt.Sprintf("%s scheduled for %s", procedure, patientID))
	ev.Meta = map[string]string{
		"procedure": procedure,
		"start":     plan.Start.Format(time.RFC3339),
		"priority":  fmt.Sprintf("%d", plan.Priority),
	}
	s.append(ev)
	return true
}

// PerformRounds has the doctor visit every assigned patient, refreshing each
// patient's vitals on the way. Returns patients seen.
func (s *Simulation) PerformRounds(doctorID string) (int, bool) {
	doc := s.Roster.Get(doctorID)
	if doc == nil {
		return 0, false
	}

	for _, pid := range doc.Patients {
		if p := s.Registry.Get(pid); p != nil {
			p.RecordVitals(s.vitals.Snapshot(p, s.now))
		}
	}
	seen := doc.PerformRounds(s.now, s.cfg.Tunables.TiredThreshold)

	ev := newEvent(s.now, EventRoutine, doc.ID, "", doc.Location,
		fmt.Sprintf("%s completed rounds (%d patients)", doc.Name, seen))
	ev.Meta = map[string]string{"patients_seen": fmt.Sprintf("%d", seen)}
	s.append(ev)
	return seen, true
}

// WritePrescription records a prescription for the patient.
func (s *Simulation) WritePrescription(doctorID, patientID, medication string) bool {
	doc := s.Roster.Get(doctorID)
	if doc == nil || s.Registry.Get(patientID) == nil {
		return false
	}
	doc.WritePrescription(s.now, patientID, medication)

	ev := newEvent(s.now, EventRoutine, doc.ID, patientID, doc.Location,
		fmt.Sprintf("%s prescribed %s for %s", doc.Name, medication, patientID))
	ev.Meta = map[string]string{"medication": medication}
	s.append(ev)
	return true
}
