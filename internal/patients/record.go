// Package patients holds the active patient registry and the patient data
// sources (synthetic generator and MIMIC-style CSV ingestion) that seed it.
package patients

import "time"

// PatientStatus is a patient's clinical condition.
type PatientStatus string

const (
	StatusStable            PatientStatus = "stable"
	StatusCritical          PatientStatus = "critical"
	StatusImproving         PatientStatus = "improving"
	StatusUnderObservation  PatientStatus = "under_observation"
	StatusReadyForDischarge PatientStatus = "ready_for_discharge"
	StatusRecovery          PatientStatus = "recovery"
)

// Vitals is one snapshot of a patient's vital signs.
type Vitals struct {
	Time        time.Time `json:"time"`
	HeartRate   int       `json:"heart_rate"`
	SystolicBP  int       `json:"systolic_bp"`
	DiastolicBP int       `json:"diastolic_bp"`
	Temperature float64   `json:"temperature"` // °C
	RespRate    int       `json:"resp_rate"`
	SpO2        int       `json:"spo2"` // %
}

// Patient is one active admission.
type Patient struct {
	ID         string        `json:"id"`
	Department string        `json:"department"`
	Status     PatientStatus `json:"status"`
	Diagnosis  string        `json:"diagnosis"`
	AdmittedAt time.Time     `json:"admitted_at"`

	Vitals  Vitals   `json:"vitals"`  // latest snapshot
	History []Vitals `json:"history"` // prior snapshots, oldest first
}

// RecordVitals appends the current snapshot to history and replaces it.
func (p *Patient) RecordVitals(v Vitals) {
	if !p.Vitals.Time.IsZero() {
		p.History = append(p.History, p.Vitals)
	}
	p.Vitals = v
}

// LatestAdmission describes the most recent admission of a source record.
type LatestAdmission struct {
	AdmissionType     string `json:"admission_type"` // EMERGENCY or ELECTIVE
	AdmissionLocation string `json:"admission_location"`
	Diagnosis         string `json:"diagnosis"`
}

// Record is a patient record as supplied by a data source.
type Record struct {
	PatientID       string          `json:"patient_id"`
	Gender          string          `json:"gender"`
	Age             int             `json:"age"`
	LatestAdmission LatestAdmission `json:"latest_admission"`
	Diagnoses       []string        `json:"diagnoses"`
	Procedures      []string        `json:"procedures"`
}

// Source supplies the simulation with an initial population and a pool of
// emergency cases. Read-only from the core's perspective.
type Source interface {
	ActivePatients() []Record
	EmergencyCases() []Record
	DepartmentDistribution() map[string]int
}
