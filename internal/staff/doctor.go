// Doctor clinical actions. These mutate the agent's own state only; patient
// record changes and event emission belong to the caller.
package staff

import (
	"fmt"
	"time"
)

const (
	// ProcedurePriority slots scheduled procedures above routine plans but
	// below emergency response.
	ProcedurePriority = 8
	// RoundsFatigue is charged per patient visited during rounds.
	RoundsFatigue = 0.05
)

// Diagnose records a diagnostic assessment and returns the doctor's
// diagnosis skill as a confidence score.
func (a *Agent) Diagnose(now time.Time, patientID, diagnosis string) float64 {
	a.AddMemory(now, fmt.Sprintf("Diagnosed %s: %s", patientID, diagnosis), 0.7,
		[]string{patientID}, a.Location)
	return a.Skills["diagnosis"]
}

// ScheduleProcedure queues a procedure plan for the given window.
func (a *Agent) ScheduleProcedure(start, end time.Time, procedure, location, patientID string) *Plan {
	p := &Plan{
		Start:         start,
		End:           end,
		Action:        "Perform " + procedure,
		Location:      location,
		Priority:      ProcedurePriority,
		RelatedAgents: []string{patientID},
	}
	a.AddPlan(p)
	return p
}

// PerformRounds visits every assigned patient, charging fatigue per visit.
// Returns the number of patients seen.
func (a *Agent) PerformRounds(now time.Time, tiredThreshold float64) int {
	for _, pid := range a.Patients {
		a.AddMemory(now, "Checked on patient "+pid, 0.4, []string{pid}, a.Location)
		a.IncreaseFatigue(now, RoundsFatigue, tiredThreshold)
	}
	return len(a.Patients)
}

// WritePrescription records a prescription for the patient.
func (a *Agent) WritePrescription(now time.Time, patientID, medication string) {
	a.AddMemory(now, fmt.Sprintf("Prescribed %s for %s", medication, patientID), 0.5,
		[]string{patientID}, a.Location)
}
