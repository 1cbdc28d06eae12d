// Package config defines the scenario configuration for a simulation run:
// facility topology, department definitions, staff roster, matching tables,
// and the tunable constants of the event loop. A Config is built once at
// startup, validated, and passed explicitly to constructors — there is no
// process-wide mutable configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Validation failures are fatal at startup, before the first tick.
var (
	ErrDuplicateLocation  = errors.New("duplicate location id")
	ErrUnknownLocation    = errors.New("connection references unknown location")
	ErrUnknownDepartment  = errors.New("transfer rule references unknown department")
	ErrInvalidCapacity    = errors.New("capacity must be positive")
	ErrInvalidProbability = errors.New("probability must be in [0,1]")
)

// LocationConfig declares one physical location in the facility.
type LocationConfig struct {
	ID        string          `yaml:"id"`
	Type      string          `yaml:"type"` // ward, icu, or, er, pharmacy, nurse_station, office, waiting_room
	Capacity  int             `yaml:"capacity"`
	Equipment map[string]bool `yaml:"equipment,omitempty"`
}

// DepartmentConfig declares an administrative unit patients are admitted to.
type DepartmentConfig struct {
	ID        string   `yaml:"id"`
	Name      string   `yaml:"name"`
	Capacity  int      `yaml:"capacity"`
	MinStaff  int      `yaml:"min_staff"`
	Equipment []string `yaml:"equipment,omitempty"`
	Locations []string `yaml:"locations,omitempty"`
}

// DoctorConfig declares one doctor on the initial roster.
type DoctorConfig struct {
	Name           string `yaml:"name"`
	Specialization string `yaml:"specialization"`
	Experience     int    `yaml:"experience"` // years
	Location       string `yaml:"location,omitempty"`
}

// TransferRule maps a (department, status) pair to a destination department.
// Applied on status updates when the destination has free capacity.
type TransferRule struct {
	From   string `yaml:"from"`
	Status string `yaml:"status"`
	To     string `yaml:"to"`
}

// Tunables holds the behavioral constants of the event loop. None of them
// has a documented rationale, so they are exposed here rather than
// hard-coded.
type Tunables struct {
	FatigueIncrement    float64 `yaml:"fatigue_increment"`     // per dispatched action
	EmergencyFatigue    float64 `yaml:"emergency_fatigue"`     // stress cost of an emergency
	RestAmount          float64 `yaml:"rest_amount"`           // fatigue recovered per rest
	TiredThreshold      float64 `yaml:"tired_threshold"`       // crossing it logs a memory
	ForcedRestThreshold float64 `yaml:"forced_rest_threshold"` // at or above, a tick forces rest
	RoutineProbability  float64 `yaml:"routine_probability"`   // background activity draw
	OverloadRatio       float64 `yaml:"overload_ratio"`        // load > ratio × mean ⇒ overloaded
	UnderloadRatio      float64 `yaml:"underload_ratio"`       // load < ratio × mean ⇒ underloaded
}

// EmergencyProbabilities maps frequency level to per-agent Bernoulli probability.
type EmergencyProbabilities struct {
	Low    float64 `yaml:"low"`
	Normal float64 `yaml:"normal"`
	High   float64 `yaml:"high"`
}

// Duration wraps time.Duration so scenario files can say "5m" or "30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the complete scenario definition.
type Config struct {
	Seed     int64    `yaml:"seed"`
	TickStep Duration `yaml:"tick_step"`

	Locations   []LocationConfig   `yaml:"locations"`
	Connections [][2]string        `yaml:"connections"`
	Departments []DepartmentConfig `yaml:"departments"`
	Doctors     []DoctorConfig     `yaml:"doctors"`

	// Specializations maps a specialization name to the diagnosis keywords
	// it is considered competent for. Drives workload balancing.
	Specializations map[string][]string `yaml:"specializations"`

	TransferRules []TransferRule `yaml:"transfer_rules"`

	Tunables    Tunables               `yaml:"tunables"`
	Emergencies EmergencyProbabilities `yaml:"emergencies"`
}

// Default returns the standard scenario: the eight-location layout hubbed on
// the nurse station, three departments, four doctors.
func Default() *Config {
	return &Config{
		Seed:     42,
		TickStep: Duration(5 * time.Minute),
		Locations: []LocationConfig{
			{ID: "ward_1", Type: "ward", Capacity: 20},
			{ID: "ward_2", Type: "ward", Capacity: 20},
			{ID: "icu_1", Type: "icu", Capacity: 10, Equipment: map[string]bool{"ventilator": true, "monitor": true}},
			{ID: "er", Type: "er", Capacity: 15, Equipment: map[string]bool{"defibrillator": true, "xray": true}},
			{ID: "or_1", Type: "or", Capacity: 2, Equipment: map[string]bool{"anesthesia": true}},
			{ID: "or_2", Type: "or", Capacity: 2, Equipment: map[string]bool{"anesthesia": true}},
			{ID: "pharmacy", Type: "pharmacy", Capacity: 5},
			{ID: "nurse_station_1", Type: "nurse_station", Capacity: 5},
		},
		Connections: [][2]string{
			{"ward_1", "nurse_station_1"},
			{"ward_2", "nurse_station_1"},
			{"icu_1", "nurse_station_1"},
			{"er", "nurse_station_1"},
			{"or_1", "nurse_station_1"},
			{"or_2", "nurse_station_1"},
			{"pharmacy", "nurse_station_1"},
		},
		Departments: []DepartmentConfig{
			{ID: "er", Name: "Emergency Room", Capacity: 15, MinStaff: 3,
				Equipment: []string{"defibrillator", "xray"}, Locations: []string{"er"}},
			{ID: "icu", Name: "Intensive Care Unit", Capacity: 10, MinStaff: 4,
				Equipment: []string{"ventilator", "monitor"}, Locations: []string{"icu_1"}},
			{ID: "ward", Name: "General Ward", Capacity: 40, MinStaff: 2,
				Locations: []string{"ward_1", "ward_2"}},
		},
		Doctors: []DoctorConfig{
			{Name: "Dr. Sarah Chen", Specialization: "Cardiology", Experience: 10, Location: "ward_1"},
			{Name: "Dr. James Wilson", Specialization: "Emergency Medicine", Experience: 15, Location: "er"},
			{Name: "Dr. Amara Osei", Specialization: "Pulmonology", Experience: 8, Location: "icu_1"},
			{Name: "Dr. Miguel Torres", Specialization: "General Surgery", Experience: 12, Location: "or_1"},
		},
		Specializations: map[string][]string{
			"Cardiology":         {"heart", "cardiac", "chest pain", "arrhythmia", "myocardial", "infarction"},
			"Emergency Medicine": {"trauma", "emergency", "bleeding", "sepsis", "shock", "fracture"},
			"Pulmonology":        {"respiratory", "pneumonia", "asthma", "lung", "ventilation"},
			"General Surgery":    {"appendicitis", "surgery", "gastrointestinal", "hernia", "obstruction"},
			"Neurology":          {"stroke", "seizure", "neurological", "head"},
		},
		TransferRules: []TransferRule{
			{From: "er", Status: "stable", To: "ward"},
			{From: "er", Status: "critical", To: "icu"},
			{From: "icu", Status: "improving", To: "ward"},
			{From: "ward", Status: "critical", To: "icu"},
			{From: "icu", Status: "recovery", To: "ward"},
		},
		Tunables: Tunables{
			FatigueIncrement:    0.1,
			EmergencyFatigue:    0.2,
			RestAmount:          0.2,
			TiredThreshold:      0.8,
			ForcedRestThreshold: 0.9,
			RoutineProbability:  0.3,
			OverloadRatio:       1.5,
			UnderloadRatio:      0.5,
		},
		Emergencies: EmergencyProbabilities{Low: 0.05, Normal: 0.15, High: 0.3},
	}
}

// Load reads a scenario file, overlaying it on the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the topology and tables. Any error here is fatal: the
// simulation must not start with a malformed facility.
func (c *Config) Validate() error {
	locs := make(map[string]bool, len(c.Locations))
	for _, l := range c.Locations {
		if locs[l.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateLocation, l.ID)
		}
		if l.Capacity <= 0 {
			return fmt.Errorf("%w: location %s has capacity %d", ErrInvalidCapacity, l.ID, l.Capacity)
		}
		locs[l.ID] = true
	}

	for _, conn := range c.Connections {
		for _, end := range conn {
			if !locs[end] {
				return fmt.Errorf("%w: %s", ErrUnknownLocation, end)
			}
		}
	}

	depts := make(map[string]bool, len(c.Departments))
	for _, d := range c.Departments {
		if depts[d.ID] {
			return fmt.Errorf("duplicate department id %s", d.ID)
		}
		if d.Capacity <= 0 {
			return fmt.Errorf("%w: department %s has capacity %d", ErrInvalidCapacity, d.ID, d.Capacity)
		}
		for _, l := range d.Locations {
			if !locs[l] {
				return fmt.Errorf("%w: department %s lists %s", ErrUnknownLocation, d.ID, l)
			}
		}
		depts[d.ID] = true
	}

	for _, r := range c.TransferRules {
		if !depts[r.From] || !depts[r.To] {
			return fmt.Errorf("%w: %s -> %s", ErrUnknownDepartment, r.From, r.To)
		}
	}

	for _, p := range []float64{
		c.Tunables.RoutineProbability,
		c.Emergencies.Low, c.Emergencies.Normal, c.Emergencies.High,
	} {
		if p < 0 || p > 1 {
			return fmt.Errorf("%w: %v", ErrInvalidProbability, p)
		}
	}

	return nil
}
