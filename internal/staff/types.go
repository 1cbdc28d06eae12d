// Package staff provides the hospital staff agent model: roles, skills,
// fatigue, the memory stream with its reflection cadence, and the
// time-ordered plan queue the scheduler dispatches from.
package staff

import "time"

// Role is an agent's professional function.
type Role uint8

const (
	RoleDoctor Role = iota
	RoleNurse
	RolePharmacist
	RoleTechnician
	RoleAdmin
)

var roleNames = [...]string{"doctor", "nurse", "pharmacist", "technician", "admin"}

// String returns the lowercase role name.
func (r Role) String() string {
	if int(r) < len(roleNames) {
		return roleNames[r]
	}
	return "unknown"
}

// Status is an agent's duty state. Automatic logic only moves agents between
// Available and Busy; OffDuty is reachable from any state through explicit
// staffing commands.
type Status uint8

const (
	StatusAvailable Status = iota
	StatusBusy
	StatusOffDuty
)

var statusNames = [...]string{"available", "busy", "off-duty"}

// String returns the lowercase status name.
func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "unknown"
}

// Memory records a notable experience in an agent's stream.
type Memory struct {
	Time          time.Time `json:"time"`
	Description   string    `json:"description"`
	Importance    float64   `json:"importance"` // 0.0–1.0
	RelatedAgents []string  `json:"related_agents,omitempty"`
	Location      string    `json:"location,omitempty"`
}

// Plan is a scheduled future action. Priority drives due-action selection;
// Executed marks a plan as consumed so it is not dispatched twice.
type Plan struct {
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	Action        string    `json:"action"`
	Location      string    `json:"location"`
	Priority      int       `json:"priority"`
	RelatedAgents []string  `json:"related_agents,omitempty"`
	Executed      bool      `json:"executed"`
}

// Agent is one member of the hospital staff.
type Agent struct {
	ID             string  `json:"id"`
	Role           Role    `json:"role"`
	Name           string  `json:"name"`
	Specialization string  `json:"specialization,omitempty"`
	Experience     int     `json:"experience,omitempty"` // years, doctors only

	Location string  `json:"location"`
	Status   Status  `json:"status"`
	Fatigue  float64 `json:"fatigue"` // 0.0–1.0

	Skills map[string]float64 `json:"skills"`

	Memories    []Memory `json:"memories"`
	Plans       []*Plan  `json:"plans"`
	Reflections []string `json:"reflections"`

	// Patients currently assigned to this agent, insertion-ordered.
	// Workload balancing moves ids between doctors.
	Patients []string `json:"patients,omitempty"`
}

// PatientCount returns the number of assigned patients.
func (a *Agent) PatientCount() int { return len(a.Patients) }

// AssignPatient adds a patient to the agent's care, ignoring duplicates.
func (a *Agent) AssignPatient(patientID string) {
	for _, id := range a.Patients {
		if id == patientID {
			return
		}
	}
	a.Patients = append(a.Patients, patientID)
}

// RemovePatient removes a patient from the agent's care. Returns whether the
// patient was assigned.
func (a *Agent) RemovePatient(patientID string) bool {
	for i, id := range a.Patients {
		if id == patientID {
			a.Patients = append(a.Patients[:i], a.Patients[i+1:]...)
			return true
		}
	}
	return false
}
