// Package lifecycle tracks patient lifecycle events from pre-conception
// through the neonatal stage, plus the genetic-material registry backing the
// earliest stages. Timelines are read-only aggregations for reporting.
package lifecycle

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Stage is a lifecycle stage.
type Stage uint8

const (
	StagePreConception Stage = iota + 1
	StageConception
	StagePrenatal
	StageBirth
	StageNeonatal
)

var stageNames = map[Stage]string{
	StagePreConception: "pre_conception",
	StageConception:    "conception",
	StagePrenatal:      "prenatal",
	StageBirth:         "birth",
	StageNeonatal:      "neonatal",
}

// String returns the stage's config name.
func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}

// StageFromString resolves a config name back to a stage.
func StageFromString(name string) (Stage, bool) {
	for s, n := range stageNames {
		if n == name {
			return s, true
		}
	}
	return 0, false
}

// GeneticMaterial is a registered sample (egg, sperm, embryo).
type GeneticMaterial struct {
	ID           string            `json:"id"`
	MaterialType string            `json:"material_type"`
	DonorID      string            `json:"donor_id,omitempty"`
	CollectedAt  time.Time         `json:"collected_at"`
	Markers      map[string]string `json:"markers,omitempty"`
}

// Event is one recorded lifecycle event for a patient.
type Event struct {
	ID            string            `json:"id"`
	Time          time.Time         `json:"time"`
	Stage         Stage             `json:"stage"`
	Description   string            `json:"description"`
	Location      string            `json:"location"`
	Providers     []string          `json:"providers,omitempty"`
	BiometricData map[string]string `json:"biometric_data,omitempty"`
	GeneticData   map[string]string `json:"genetic_data,omitempty"`
}

// Manager owns genetic materials and per-patient lifecycle timelines.
type Manager struct {
	materials map[string]GeneticMaterial
	events    map[string][]Event // patient id → events
}

// NewManager creates an empty lifecycle manager.
func NewManager() *Manager {
	return &Manager{
		materials: make(map[string]GeneticMaterial),
		events:    make(map[string][]Event),
	}
}

// RegisterMaterial records a genetic material sample and returns its id.
func (m *Manager) RegisterMaterial(materialType, donorID string, markers map[string]string, now time.Time) string {
	mat := GeneticMaterial{
		ID:           uuid.NewString(),
		MaterialType: materialType,
		DonorID:      donorID,
		CollectedAt:  now,
		Markers:      markers,
	}
	m.materials[mat.ID] = mat
	return mat.ID
}

// Material returns a registered sample.
func (m *Manager) Material(id string) (GeneticMaterial, bool) {
	mat, ok := m.materials[id]
	return mat, ok
}

// RecordEvent appends a lifecycle event to the patient's timeline and
// returns its id.
func (m *Manager) RecordEvent(patientID string, stage Stage, description, location string, providers []string, now time.Time) string {
	ev := Event{
		ID:          uuid.NewString(),
		Time:        now,
		Stage:       stage,
		Description: description,
		Location:    location,
		Providers:   providers,
	}
	m.events[patientID] = append(m.events[patientID], ev)
	return ev.ID
}

// Timeline returns the patient's events sorted by time ascending.
func (m *Manager) Timeline(patientID string) []Event {
	events := m.events[patientID]
	out := make([]Event, len(events))
	copy(out, events)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

// StageEvents returns the patient's events for one stage, in recorded order.
func (m *Manager) StageEvents(patientID string, stage Stage) []Event {
	var out []Event
	for _, ev := range m.events[patientID] {
		if ev.Stage == stage {
			out = append(out, ev)
		}
	}
	return out
}
