// Emergency generation — per-tick Bernoulli draws keyed by the frequency
// level, pulling cases from the data source's emergency pool when present
// and synthesizing them otherwise.
package sim

import (
	"fmt"
	"strings"
	"time"

	"github.com/talgya/careflow/internal/staff"
)

const emergencyResponseWindow = 30 * time.Minute

// triggerEmergency selects a case, reprioritizes the agent, and returns the
// emergency event.
func (s *Simulation) triggerEmergency(a *staff.Agent) Event {
	var emergencyType, patientID string

	if s.source != nil {
		if pool := s.source.EmergencyCases(); len(pool) > 0 {
			rec := pool[s.rng.Intn(len(pool))]
			patientID = rec.PatientID
			emergencyType = strings.ToLower(strings.ReplaceAll(rec.LatestAdmission.Diagnosis, " ", "_"))
		}
	}
	if patientID == "" {
		s.emergencySeq++
		patientID = fmt.Sprintf("E%03d", s.emergencySeq)
		emergencyType = syntheticEmergencies[s.rng.Intn(len(syntheticEmergencies))]
	}

	location := a.Location
	if location == "" {
		location = "er"
	}

	tun := s.cfg.Tunables
	a.HandleEmergency(s.now, emergencyType, patientID, location,
		emergencyResponseWindow, tun.EmergencyFatigue, tun.TiredThreshold)

	plan := ""
	if s.gen != nil {
		plan = s.gen.GenerateResponse(
			fmt.Sprintf("Emergency %s for patient %s at %s", emergencyType, patientID, location),
			a.Role.String(), 0.9)
	}

	ev := newEvent(s.now, EventEmergency, a.ID, patientID, location,
		fmt.Sprintf("%s responding to %s", a.Name, emergencyType))
	ev.Meta = map[string]string{
		"emergency_type":  emergencyType,
		"patient_id":      patientID,
		"location":        location,
		"assigned_doctor": a.ID,
	}
	if plan != "" {
		ev.Meta["response_plan"] = plan
	}
	return ev
}
