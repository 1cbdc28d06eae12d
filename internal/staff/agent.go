// Agent state transitions: fatigue, location, status, and the emergency
// response path.
package staff

import (
	"fmt"
	"time"
)

// IncreaseFatigue raises fatigue by amount, clamped to 1.0. Crossing the
// tired threshold upward appends a low-importance memory.
func (a *Agent) IncreaseFatigue(now time.Time, amount, tiredThreshold float64) {
	prev := a.Fatigue
	a.Fatigue += amount
	if a.Fatigue > 1.0 {
		a.Fatigue = 1.0
	}
	if prev <= tiredThreshold && a.Fatigue > tiredThreshold {
		a.AddMemory(now, "Feeling very tired", 0.7, nil, a.Location)
	}
}

// Rest lowers fatigue by amount, clamped to 0, and records the break.
func (a *Agent) Rest(now time.Time, amount float64) {
	a.Fatigue -= amount
	if a.Fatigue < 0 {
		a.Fatigue = 0
	}
	a.AddMemory(now, "Took some rest", 0.4, nil, a.Location)
}

// UpdateLocation moves the agent and records the move.
func (a *Agent) UpdateLocation(now time.Time, location string) {
	a.Location = location
	a.AddMemory(now, "Moved to "+location, 0.5, nil, location)
}

// UpdateStatus changes duty state and records the change.
func (a *Agent) UpdateStatus(now time.Time, status Status) {
	a.Status = status
	a.AddMemory(now, "Status changed to "+status.String(), 0.3, nil, a.Location)
}

// HandleEmergency reprioritizes the agent for an immediate response:
// unexecuted plans below priority 9 are dropped, a priority-10 response plan
// is inserted, a high-importance memory is recorded, and fatigue takes the
// stress cost.
func (a *Agent) HandleEmergency(now time.Time, emergencyType, patientID, location string, responseWindow time.Duration, fatigueCost, tiredThreshold float64) *Plan {
	kept := a.Plans[:0]
	for _, p := range a.Plans {
		if !p.Executed && p.Priority < 9 {
			continue
		}
		kept = append(kept, p)
	}
	a.Plans = kept

	response := &Plan{
		Start:         now,
		End:           now.Add(responseWindow),
		Action:        fmt.Sprintf("Respond to %s for patient %s", emergencyType, patientID),
		Location:      location,
		Priority:      10,
		RelatedAgents: []string{patientID},
	}
	a.AddPlan(response)

	a.AddMemory(now, fmt.Sprintf("Emergency response: %s for patient %s", emergencyType, patientID), 1.0, []string{patientID}, location)
	a.IncreaseFatigue(now, fatigueCost, tiredThreshold)
	return response
}
