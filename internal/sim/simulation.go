package sim

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/talgya/careflow/internal/config"
	"github.com/talgya/careflow/internal/entropy"
	"github.com/talgya/careflow/internal/facility"
	"github.com/talgya/careflow/internal/lifecycle"
	"github.com/talgya/careflow/internal/narrative"
	"github.com/talgya/careflow/internal/patients"
	"github.com/talgya/careflow/internal/staff"
)

// routineActivities are the background actions not captured by explicit
// plans: the secondary Bernoulli draw picks one of these.
var routineActivities = []string{
	"Checked on a patient",
	"Reviewed medication chart",
	"Consulted with a colleague",
	"Updated patient records",
}

// syntheticEmergencies are used when the data source has no emergency pool.
var syntheticEmergencies = []string{"cardiac_arrest", "severe_trauma", "respiratory_failure"}

// Simulation holds the complete hospital state and wires subsystems together.
// Single instance, single-threaded stepping: one Step runs to completion
// before the next begins.
type Simulation struct {
	Facility  *facility.Facility
	Registry  *patients.Registry
	Roster    *staff.Roster
	Lifecycle *lifecycle.Manager

	cfg    *config.Config
	source patients.Source
	gen    *narrative.Generator
	vitals *patients.VitalsGenerator
	rng    entropy.Source

	startTime time.Time
	now       time.Time
	tickStep  time.Duration
	tick      uint64
	frequency EmergencyFrequency

	log          []Event
	emergencySeq int
}

// New builds a simulation from scenario configuration. The patient source
// seeds the initial population; gen supplies decision text; rng is the only
// randomness the step loop consumes. Configuration errors are fatal here,
// before the first tick.
func New(cfg *config.Config, source patients.Source, gen *narrative.Generator, rng entropy.Source, start time.Time) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	fac, err := facility.FromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("build facility: %w", err)
	}

	s := &Simulation{
		Facility:  fac,
		Registry:  patients.NewRegistry(fac, cfg.TransferRules),
		Roster:    staff.NewRoster(),
		Lifecycle: lifecycle.NewManager(),
		cfg:       cfg,
		source:    source,
		gen:       gen,
		vitals:    patients.NewVitalsGenerator(cfg.Seed),
		rng:       rng,
		startTime: start,
		now:       start,
		tickStep:  cfg.TickStep.Std(),
		frequency: FrequencyNormal,
	}

	for _, dc := range cfg.Doctors {
		doc := s.Roster.CreateDoctor(dc.Name, dc.Specialization, dc.Experience)
		if dc.Location != "" {
			doc.UpdateLocation(start, dc.Location)
		}
		// A first rounds plan so the roster has something due from tick one.
		doc.AddPlan(&staff.Plan{
			Start:    start,
			End:      start.Add(time.Hour),
			Action:   "Morning rounds",
			Location: dc.Location,
			Priority: 5,
		})
	}

	s.seedPatients()
	return s, nil
}

// admissionDepartments maps source admission locations onto departments.
var admissionDepartments = map[string]string{
	"EMERGENCY ROOM":               "er",
	"MEDICAL INTENSIVE CARE UNIT":  "icu",
	"SURGICAL INTENSIVE CARE UNIT": "icu",
	"OPERATING ROOM":               "icu",
	"GENERAL WARD":                 "ward",
	"SURGICAL WARD":                "ward",
}

// seedPatients admits the source's active population until departments fill,
// assigning each admitted patient to a doctor round-robin.
func (s *Simulation) seedPatients() {
	if s.source == nil {
		return
	}
	doctors := s.Roster.Doctors()
	di := 0
	admitted := 0
	for _, rec := range s.source.ActivePatients() {
		dept, ok := admissionDepartments[rec.LatestAdmission.AdmissionLocation]
		if !ok {
			dept = "ward"
		}
		status := patients.StatusStable
		if rec.LatestAdmission.AdmissionType == "EMERGENCY" {
			status = patients.StatusUnderObservation
		}
		if !s.Registry.Admit(rec.PatientID, dept, status, rec.LatestAdmission.Diagnosis, s.now) {
			continue // department full — the source can exceed capacity
		}
		if p := s.Registry.Get(rec.PatientID); p != nil {
			p.RecordVitals(s.vitals.Snapshot(p, s.now))
		}
		s.append(newEvent(s.now, EventAdmission, "", rec.PatientID, dept,
			fmt.Sprintf("Admitted with %s", rec.LatestAdmission.Diagnosis)))
		if len(doctors) > 0 {
			doctors[di%len(doctors)].AssignPatient(rec.PatientID)
			di++
		}
		admitted++
	}
	slog.Info("patient population seeded", "admitted", admitted, "skipped_full", len(s.source.ActivePatients())-admitted)
}

// CurrentTime returns the simulated clock.
func (s *Simulation) CurrentTime() time.Time { return s.now }

// StartTime returns the simulated clock at initialization.
func (s *Simulation) StartTime() time.Time { return s.startTime }

// Tick returns the number of completed steps.
func (s *Simulation) Tick() uint64 { return s.tick }

// Frequency returns the current emergency frequency level.
func (s *Simulation) Frequency() EmergencyFrequency { return s.frequency }

// SetFrequency changes the emergency frequency level.
func (s *Simulation) SetFrequency(f EmergencyFrequency) error {
	if !ValidFrequency(f) {
		return fmt.Errorf("unknown emergency frequency %q", f)
	}
	s.frequency = f
	return nil
}

// emergencyProbability resolves the current level against the config table.
func (s *Simulation) emergencyProbability() float64 {
	switch s.frequency {
	case FrequencyLow:
		return s.cfg.Emergencies.Low
	case FrequencyHigh:
		return s.cfg.Emergencies.High
	default:
		return s.cfg.Emergencies.Normal
	}
}

// EventLog returns the permanent event log. Callers must not mutate it.
func (s *Simulation) EventLog() []Event { return s.log }

// RecentEvents returns up to count most recent events, oldest first.
func (s *Simulation) RecentEvents(count int) []Event {
	if count <= 0 {
		return nil
	}
	if count > len(s.log) {
		count = len(s.log)
	}
	return s.log[len(s.log)-count:]
}

func (s *Simulation) append(e Event) {
	s.log = append(s.log, e)
}

// Step advances the simulation one tick and returns the events it emitted.
// Phase order: clock, workload balancing, per-agent dispatch, background
// routine draws, emergency generation.
func (s *Simulation) Step() []Event {
	s.tick++
	s.now = s.now.Add(s.tickStep)
	tun := s.cfg.Tunables

	var events []Event

	// Workload balancing before dispatch, so emergencies and plans execute
	// against a sane patient distribution.
	events = append(events, s.balanceWorkload()...)

	for _, a := range s.Roster.Agents() {
		if a.Status == staff.StatusOffDuty {
			continue
		}

		// Forced rest preempts dispatch for exhausted agents.
		if a.Fatigue >= tun.ForcedRestThreshold {
			a.Rest(s.now, tun.RestAmount)
			ev := newEvent(s.now, EventRest, a.ID, "", a.Location, a.Name+" takes a mandated rest break")
			events = append(events, ev)
		} else if plan := a.NextAction(s.now); plan != nil {
			events = append(events, s.dispatch(a, plan))
		}

		// Background activity draw, independent of plan dispatch.
		if s.rng.Float64() < tun.RoutineProbability {
			activity := routineActivities[s.rng.Intn(len(routineActivities))]
			ev := newEvent(s.now, EventRoutine, a.ID, "", a.Location, activity)
			a.AddMemory(s.now, activity, 0.3, nil, a.Location)
			events = append(events, ev)
		}

		// Emergencies strike available agents only.
		if a.Status == staff.StatusAvailable && s.rng.Float64() < s.emergencyProbability() {
			events = append(events, s.triggerEmergency(a))
		}
	}

	s.log = append(s.log, events...)
	return events
}

// dispatch executes one due plan: route the agent to the plan's location,
// emit a routine event, charge fatigue, and consume the plan.
func (s *Simulation) dispatch(a *staff.Agent, plan *staff.Plan) Event {
	a.Status = staff.StatusBusy

	routed := ""
	if plan.Location != "" && plan.Location != a.Location {
		path := s.Facility.ShortestPath(a.Location, plan.Location)
		if len(path) > 0 {
			routed = strings.Join(path, " -> ")
		}
		// No route is informational only: the action still happens at the
		// target location.
		a.UpdateLocation(s.now, plan.Location)
	}

	note := ""
	if s.gen != nil {
		note = s.gen.GenerateResponse(
			fmt.Sprintf("%s at %s: %s", a.Name, a.Location, plan.Action),
			a.Role.String(), 0.7)
	}

	plan.Executed = true
	a.AddMemory(s.now, plan.Action, 0.6, plan.RelatedAgents, a.Location)
	a.IncreaseFatigue(s.now, s.cfg.Tunables.FatigueIncrement, s.cfg.Tunables.TiredThreshold)
	a.Status = staff.StatusAvailable

	ev := newEvent(s.now, EventRoutine, a.ID, "", a.Location, plan.Action)
	ev.Meta = map[string]string{"priority": fmt.Sprintf("%d", plan.Priority)}
	if routed != "" {
		ev.Meta["route"] = routed
	}
	if note != "" {
		ev.Meta["note"] = note
	}
	if len(plan.RelatedAgents) > 0 {
		ev.PatientID = plan.RelatedAgents[0]
	}
	return ev
}

// AdmitPatient admits through the registry and logs the event. Returns false
// when the department rejects the admission.
func (s *Simulation) AdmitPatient(id, department string, status patients.PatientStatus, diagnosis string) bool {
	if !s.Registry.Admit(id, department, status, diagnosis, s.now) {
		return false
	}
	if p := s.Registry.Get(id); p != nil {
		p.RecordVitals(s.vitals.Snapshot(p, s.now))
	}
	s.append(newEvent(s.now, EventAdmission, "", id, department, fmt.Sprintf("Admitted with %s", diagnosis)))
	return true
}

// DischargePatient discharges through the registry, unassigns the patient
// from any doctor, and logs the event.
func (s *Simulation) DischargePatient(id string) bool {
	p := s.Registry.Get(id)
	if p == nil {
		return false
	}
	dept := p.Department
	if !s.Registry.Discharge(id) {
		return false
	}
	for _, doc := range s.Roster.Doctors() {
		doc.RemovePatient(id)
	}
	s.append(newEvent(s.now, EventDischarge, "", id, dept, "Discharged"))
	return true
}

// UpdatePatientStatus applies a status change, logging the rule-driven
// transfer when one happens.
func (s *Simulation) UpdatePatientStatus(id string, status patients.PatientStatus) bool {
	target, ok := s.Registry.UpdateStatus(id, status)
	if !ok {
		return false
	}
	if target != "" {
		s.append(newEvent(s.now, EventTransfer, "", id, target,
			fmt.Sprintf("Transferred to %s on status %s", target, status)))
	}
	return true
}

// RecordLifecycleEvent appends a lifecycle event to the patient's timeline
// and mirrors it into the main event log.
func (s *Simulation) RecordLifecycleEvent(patientID string, stage lifecycle.Stage, description, location string, providers []string) string {
	id := s.Lifecycle.RecordEvent(patientID, stage, description, location, providers, s.now)
	ev := newEvent(s.now, EventLifecycle, "", patientID, location, description)
	ev.Meta = map[string]string{"stage": stage.String(), "lifecycle_event_id": id}
	if len(providers) > 0 {
		ev.AgentID = providers[0]
	}
	s.append(ev)
	return id
}

// RecordPatientVitals refreshes a patient's vitals from the generator.
func (s *Simulation) RecordPatientVitals(id string) bool {
	p := s.Registry.Get(id)
	if p == nil {
		return false
	}
	p.RecordVitals(s.vitals.Snapshot(p, s.now))
	return true
}
