// Package persistence provides SQLite-based simulation state storage: the
// event log plus point-in-time snapshots of staff, patients, and department
// occupancy.
package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/careflow/internal/patients"
	"github.com/talgya/careflow/internal/sim"
	"github.com/talgya/careflow/internal/staff"
)

// DB wraps a SQLite connection for simulation state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		time TEXT NOT NULL,
		kind TEXT NOT NULL,
		agent_id TEXT,
		patient_id TEXT,
		location TEXT,
		description TEXT NOT NULL,
		meta_json TEXT
	);

	CREATE TABLE IF NOT EXISTS staff (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		role TEXT NOT NULL,
		specialization TEXT,
		experience INTEGER NOT NULL,
		location TEXT,
		status TEXT NOT NULL,
		fatigue REAL NOT NULL,
		skills_json TEXT NOT NULL,
		memories_json TEXT NOT NULL,
		plans_json TEXT NOT NULL,
		reflections_json TEXT NOT NULL,
		patients_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS patients (
		id TEXT PRIMARY KEY,
		department TEXT NOT NULL,
		status TEXT NOT NULL,
		diagnosis TEXT NOT NULL,
		admitted_at TEXT NOT NULL,
		vitals_json TEXT NOT NULL,
		history_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS departments (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		capacity INTEGER NOT NULL,
		occupancy INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sim_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_kind ON events(kind);
	CREATE INDEX IF NOT EXISTS idx_events_patient ON events(patient_id);
	CREATE INDEX IF NOT EXISTS idx_patients_department ON patients(department);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveEvents upserts events by id. Safe to call with the full log: already
// stored events are replaced in place, so repeated saves do not duplicate.
func (db *DB) SaveEvents(events []sim.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT OR REPLACE INTO events
		(id, time, kind, agent_id, patient_id, location, description, meta_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range events {
		metaJSON := ""
		if len(e.Meta) > 0 {
			raw, _ := json.Marshal(e.Meta)
			metaJSON = string(raw)
		}
		_, err := stmt.Exec(
			e.ID, e.Time.Format(time.RFC3339), string(e.Kind),
			e.AgentID, e.PatientID, e.Location, e.Description, metaJSON,
		)
		if err != nil {
			return fmt.Errorf("insert event %s: %w", e.ID, err)
		}
	}

	return tx.Commit()
}

// SaveStaff writes the full roster (full replace).
func (db *DB) SaveStaff(agents []*staff.Agent) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM staff"); err != nil {
		return err
	}

	stmt, err := tx.Preparex(`INSERT INTO staff
		(id, name, role, specialization, experience, location, status, fatigue,
		 skills_json, memories_json, plans_json, reflections_json, patients_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, a := range agents {
		skillsJSON, _ := json.Marshal(a.Skills)
		memoriesJSON, _ := json.Marshal(a.Memories)
		plansJSON, _ := json.Marshal(a.Plans)
		reflectionsJSON, _ := json.Marshal(a.Reflections)
		patientsJSON, _ := json.Marshal(a.Patients)

		_, err := stmt.Exec(
			a.ID, a.Name, a.Role.String(), a.Specialization, a.Experience,
			a.Location, a.Status.String(), a.Fatigue,
			string(skillsJSON), string(memoriesJSON), string(plansJSON),
			string(reflectionsJSON), string(patientsJSON),
		)
		if err != nil {
			return fmt.Errorf("insert staff %s: %w", a.ID, err)
		}
	}

	return tx.Commit()
}

// SavePatients writes the active patient registry (full replace).
func (db *DB) SavePatients(list []*patients.Patient) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM patients"); err != nil {
		return err
	}

	stmt, err := tx.Preparex(`INSERT INTO patients
		(id, department, status, diagnosis, admitted_at, vitals_json, history_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range list {
		vitalsJSON, _ := json.Marshal(p.Vitals)
		historyJSON, _ := json.Marshal(p.History)

		_, err := stmt.Exec(
			p.ID, p.Department, string(p.Status), p.Diagnosis,
			p.AdmittedAt.Format(time.RFC3339),
			string(vitalsJSON), string(historyJSON),
		)
		if err != nil {
			return fmt.Errorf("insert patient %s: %w", p.ID, err)
		}
	}

	return tx.Commit()
}

// SaveDepartments writes current department occupancy (full replace).
func (db *DB) SaveDepartments(s *sim.Simulation) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM departments"); err != nil {
		return err
	}

	for _, d := range s.Facility.Departments() {
		_, err := tx.Exec(
			"INSERT INTO departments (id, name, capacity, occupancy) VALUES (?, ?, ?, ?)",
			d.ID, d.Name, d.Capacity, d.Occupancy(),
		)
		if err != nil {
			return fmt.Errorf("insert department %s: %w", d.ID, err)
		}
	}

	return tx.Commit()
}

// SaveMeta stores a key-value pair in simulation metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO sim_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM sim_meta WHERE key = ?", key)
	return value, err
}

// SaveSnapshot performs a full save of the simulation state.
func (db *DB) SaveSnapshot(s *sim.Simulation) error {
	slog.Info("saving simulation state",
		"tick", s.Tick(), "patients", s.Registry.Count(), "events", len(s.EventLog()))

	if err := db.SaveEvents(s.EventLog()); err != nil {
		return fmt.Errorf("save events: %w", err)
	}
	if err := db.SaveStaff(s.Roster.Agents()); err != nil {
		return fmt.Errorf("save staff: %w", err)
	}
	if err := db.SavePatients(s.Registry.All()); err != nil {
		return fmt.Errorf("save patients: %w", err)
	}
	if err := db.SaveDepartments(s); err != nil {
		return fmt.Errorf("save departments: %w", err)
	}
	if err := db.SaveMeta("last_tick", fmt.Sprintf("%d", s.Tick())); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	if err := db.SaveMeta("sim_time", s.CurrentTime().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}

	slog.Info("simulation state saved")
	return nil
}

type eventRow struct {
	ID          string `db:"id"`
	Time        string `db:"time"`
	Kind        string `db:"kind"`
	AgentID     string `db:"agent_id"`
	PatientID   string `db:"patient_id"`
	Location    string `db:"location"`
	Description string `db:"description"`
	MetaJSON    string `db:"meta_json"`
}

// RecentEvents returns the most recent N events, oldest first.
func (db *DB) RecentEvents(limit int) ([]sim.Event, error) {
	var rows []eventRow
	err := db.conn.Select(&rows,
		"SELECT * FROM (SELECT * FROM events ORDER BY time DESC LIMIT ?) ORDER BY time ASC",
		limit,
	)
	if err != nil {
		return nil, err
	}

	events := make([]sim.Event, 0, len(rows))
	for _, r := range rows {
		ts, err := time.Parse(time.RFC3339, r.Time)
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", r.ID, err)
		}
		e := sim.Event{
			ID:          r.ID,
			Time:        ts,
			Kind:        sim.EventKind(r.Kind),
			AgentID:     r.AgentID,
			PatientID:   r.PatientID,
			Location:    r.Location,
			Description: r.Description,
		}
		if r.MetaJSON != "" {
			if err := json.Unmarshal([]byte(r.MetaJSON), &e.Meta); err != nil {
				return nil, fmt.Errorf("event %s meta: %w", r.ID, err)
			}
		}
		events = append(events, e)
	}
	return events, nil
}
