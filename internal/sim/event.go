// Package sim is the discrete-event core: it advances simulated time,
// dispatches due plans, generates routine and emergency events, balances
// workload across doctors, and owns the append-only event log that reporting
// reads from.
package sim

import (
	"time"

	"github.com/google/uuid"
)

// EventKind classifies a log record.
type EventKind string

const (
	EventRoutine   EventKind = "routine"
	EventEmergency EventKind = "emergency"
	EventTransfer  EventKind = "transfer"
	EventRest      EventKind = "rest"
	EventAdmission EventKind = "admission"
	EventDischarge EventKind = "discharge"
	EventLifecycle EventKind = "lifecycle"
)

// Event is one append-only log record. Events are never mutated after being
// committed to the log; the log is the sole source of truth for reporting.
type Event struct {
	ID          string            `json:"id"`
	Time        time.Time         `json:"time"`
	Kind        EventKind         `json:"kind"`
	AgentID     string            `json:"agent_id,omitempty"`
	PatientID   string            `json:"patient_id,omitempty"`
	Location    string            `json:"location,omitempty"`
	Description string            `json:"description"`
	Meta        map[string]string `json:"meta,omitempty"`
}

func newEvent(now time.Time, kind EventKind, agentID, patientID, location, description string) Event {
	return Event{
		ID:          uuid.NewString(),
		Time:        now,
		Kind:        kind,
		AgentID:     agentID,
		PatientID:   patientID,
		Location:    location,
		Description: description,
	}
}

// EmergencyFrequency selects the per-agent emergency probability.
type EmergencyFrequency string

const (
	FrequencyLow    EmergencyFrequency = "low"
	FrequencyNormal EmergencyFrequency = "normal"
	FrequencyHigh   EmergencyFrequency = "high"
)

// ValidFrequency reports whether the value is a known level.
func ValidFrequency(f EmergencyFrequency) bool {
	switch f {
	case FrequencyLow, FrequencyNormal, FrequencyHigh:
		return true
	}
	return false
}
