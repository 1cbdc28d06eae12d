// Patient data sources: a seeded synthetic generator and a MIMIC-style CSV
// loader. Both satisfy Source; the simulation does not care which one feeds
// it.
package patients

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
)

var syntheticDiagnoses = []string{
	"Acute Myocardial Infarction",
	"Pneumonia",
	"Stroke",
	"Appendicitis",
	"Diabetic Ketoacidosis",
	"Trauma",
	"Sepsis",
	"Congestive Heart Failure",
	"Acute Respiratory Failure",
	"Gastrointestinal Bleeding",
}

var syntheticProcedures = []string{
	"Coronary Angiography",
	"Appendectomy",
	"CT Scan",
	"MRI",
	"Endoscopy",
	"Mechanical Ventilation",
	"Central Line Placement",
	"Blood Transfusion",
	"Dialysis",
	"Surgery",
}

var syntheticLocations = []string{
	"EMERGENCY ROOM",
	"MEDICAL INTENSIVE CARE UNIT",
	"SURGICAL INTENSIVE CARE UNIT",
	"OPERATING ROOM",
	"GENERAL WARD",
	"SURGICAL WARD",
}

// SyntheticSource generates a reproducible fake patient population.
type SyntheticSource struct {
	records []Record
}

// NewSyntheticSource generates count patients from the given seed. Roughly
// 30% are emergency admissions.
func NewSyntheticSource(seed int64, count int) *SyntheticSource {
	rng := rand.New(rand.NewSource(seed))
	records := make([]Record, 0, count)
	for i := 0; i < count; i++ {
		gender := "M"
		if rng.Float64() < 0.5 {
			gender = "F"
		}
		admissionType := "ELECTIVE"
		if rng.Float64() < 0.3 {
			admissionType = "EMERGENCY"
		}

		nDiag := 1 + rng.Intn(5)
		diagnoses := make([]string, nDiag)
		for j := range diagnoses {
			diagnoses[j] = syntheticDiagnoses[rng.Intn(len(syntheticDiagnoses))]
		}
		nProc := rng.Intn(4)
		procedures := make([]string, nProc)
		for j := range procedures {
			procedures[j] = syntheticProcedures[rng.Intn(len(syntheticProcedures))]
		}

		records = append(records, Record{
			PatientID: fmt.Sprintf("P%03d", i+1),
			Gender:    gender,
			Age:       18 + rng.Intn(73),
			LatestAdmission: LatestAdmission{
				AdmissionType:     admissionType,
				AdmissionLocation: syntheticLocations[rng.Intn(len(syntheticLocations))],
				Diagnosis:         diagnoses[0],
			},
			Diagnoses:  diagnoses,
			Procedures: procedures,
		})
	}
	return &SyntheticSource{records: records}
}

// ActivePatients returns every generated record.
func (s *SyntheticSource) ActivePatients() []Record { return s.records }

// EmergencyCases returns the records admitted as emergencies.
func (s *SyntheticSource) EmergencyCases() []Record {
	var out []Record
	for _, r := range s.records {
		if r.LatestAdmission.AdmissionType == "EMERGENCY" {
			out = append(out, r)
		}
	}
	return out
}

// DepartmentDistribution returns admission location → patient count.
func (s *SyntheticSource) DepartmentDistribution() map[string]int {
	dist := make(map[string]int)
	for _, r := range s.records {
		dist[r.LatestAdmission.AdmissionLocation]++
	}
	return dist
}

// CSVSource loads patient data from MIMIC-style CSV exports: patients.csv,
// admissions.csv, diagnoses.csv, procedures.csv in one directory.
type CSVSource struct {
	records []Record
}

// NewCSVSource reads the CSV files under dir. Missing diagnosis/procedure
// files are tolerated; missing patients or admissions are not.
func NewCSVSource(dir string) (*CSVSource, error) {
	patientRows, err := readCSV(filepath.Join(dir, "patients.csv"))
	if err != nil {
		return nil, fmt.Errorf("load patients: %w", err)
	}
	admissionRows, err := readCSV(filepath.Join(dir, "admissions.csv"))
	if err != nil {
		return nil, fmt.Errorf("load admissions: %w", err)
	}
	diagnosisRows, _ := readCSV(filepath.Join(dir, "diagnoses.csv"))
	procedureRows, _ := readCSV(filepath.Join(dir, "procedures.csv"))

	admissions := make(map[string]LatestAdmission)
	for _, row := range admissionRows {
		admissions[row["subject_id"]] = LatestAdmission{
			AdmissionType:     row["admission_type"],
			AdmissionLocation: row["admission_location"],
			Diagnosis:         row["diagnosis"],
		}
	}

	codes := func(rows []map[string]string) map[string][]string {
		out := make(map[string][]string)
		for _, row := range rows {
			out[row["subject_id"]] = append(out[row["subject_id"]], row["icd_code"])
		}
		return out
	}
	diagnoses := codes(diagnosisRows)
	procedures := codes(procedureRows)

	src := &CSVSource{}
	for _, row := range patientRows {
		id := row["subject_id"]
		age, _ := strconv.Atoi(row["age"])
		src.records = append(src.records, Record{
			PatientID:       id,
			Gender:          row["gender"],
			Age:             age,
			LatestAdmission: admissions[id],
			Diagnoses:       diagnoses[id],
			Procedures:      procedures[id],
		})
	}
	return src, nil
}

// ActivePatients returns every loaded record.
func (s *CSVSource) ActivePatients() []Record { return s.records }

// EmergencyCases returns the records admitted as emergencies.
func (s *CSVSource) EmergencyCases() []Record {
	var out []Record
	for _, r := range s.records {
		if r.LatestAdmission.AdmissionType == "EMERGENCY" {
			out = append(out, r)
		}
	}
	return out
}

// DepartmentDistribution returns admission location → patient count.
func (s *CSVSource) DepartmentDistribution() map[string]int {
	dist := make(map[string]int)
	for _, r := range s.records {
		dist[r.LatestAdmission.AdmissionLocation]++
	}
	return dist
}

// readCSV parses a headered CSV into one map per row.
func readCSV(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}

	var rows []map[string]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
